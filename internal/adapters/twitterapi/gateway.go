package twitterapi

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/time/rate"

	"tweet-manager/internal/domain"
	"tweet-manager/internal/infra/metrics"
)

// ErrClosed возвращается при обращении к остановленному шлюзу.
var ErrClosed = errors.New("twitterapi: шлюз остановлен")

const maxResponseBytes = 8 << 20

// GatewayConfig описывает параметры шлюза внешнего API.
type GatewayConfig struct {
	APIKey  string
	APIHost string
	// MinInterval — минимальный интервал между началами последовательных запросов.
	MinInterval time.Duration
	// MaxRetries — потолок повторов одного запроса после 429.
	MaxRetries int
	// RetryDelay — базовая задержка повтора, удваивается с каждой попыткой.
	RetryDelay time.Duration
	// MemoTTL — срок жизни записи о неудавшемся запросе.
	MemoTTL time.Duration
	// RateLimitHold — горизонт "не повторять раньше" после окончательного 429.
	RateLimitHold time.Duration
	QueueSize     int
	Timeout       time.Duration
}

func (c *GatewayConfig) withDefaults() {
	if c.MinInterval <= 0 {
		c.MinInterval = 2 * time.Second
	}
	if c.MaxRetries <= 0 {
		c.MaxRetries = 2
	}
	if c.RetryDelay <= 0 {
		c.RetryDelay = 3 * time.Second
	}
	if c.MemoTTL <= 0 {
		c.MemoTTL = 10 * time.Minute
	}
	if c.RateLimitHold <= 0 {
		c.RateLimitHold = time.Minute
	}
	if c.QueueSize <= 0 {
		c.QueueSize = 64
	}
	if c.Timeout <= 0 {
		c.Timeout = 30 * time.Second
	}
}

type failedRequest struct {
	at         time.Time
	status     int
	retryAfter time.Time
}

type gatewayResult struct {
	body []byte
	err  error
}

type gatewayCall struct {
	ctx       context.Context
	operation string
	url       string
	result    chan gatewayResult
}

// Gateway сериализует исходящие запросы к внешнему API: единственный воркер
// разбирает FIFO-очередь, выдерживая минимальный интервал между запросами.
// Недавние ошибки запоминаются по точному URL, чтобы не ходить в сеть повторно.
// Состояние шлюза принадлежит экземпляру, а не пакету: тесты могут
// конструировать изолированные шлюзы.
type Gateway struct {
	cfg     GatewayConfig
	client  *http.Client
	limiter *rate.Limiter
	log     zerolog.Logger

	queue    chan *gatewayCall
	stop     chan struct{}
	stopOnce sync.Once

	mu     sync.Mutex
	failed map[string]failedRequest
}

// NewGateway создаёт шлюз и запускает воркер очереди.
func NewGateway(cfg GatewayConfig, logger zerolog.Logger) *Gateway {
	cfg.withDefaults()
	g := &Gateway{
		cfg:     cfg,
		client:  &http.Client{Timeout: cfg.Timeout},
		limiter: rate.NewLimiter(rate.Every(cfg.MinInterval), 1),
		log:     logger,
		queue:   make(chan *gatewayCall, cfg.QueueSize),
		stop:    make(chan struct{}),
		failed:  make(map[string]failedRequest),
	}
	go g.worker()
	return g
}

// Close останавливает воркер. Ожидающие вызовы получают ErrClosed.
func (g *Gateway) Close() {
	g.stopOnce.Do(func() { close(g.stop) })
}

// Do ставит GET-запрос в очередь и дожидается результата.
func (g *Gateway) Do(ctx context.Context, operation, rawURL string) ([]byte, error) {
	if err := g.recentFailure(rawURL); err != nil {
		metrics.GatewayMemoFastFails.Inc()
		return nil, err
	}
	call := &gatewayCall{ctx: ctx, operation: operation, url: rawURL, result: make(chan gatewayResult, 1)}
	select {
	case g.queue <- call:
		metrics.GatewayQueueDepth.Set(float64(len(g.queue)))
	case <-g.stop:
		return nil, ErrClosed
	case <-ctx.Done():
		return nil, ctx.Err()
	}
	select {
	case res := <-call.result:
		return res.body, res.err
	case <-g.stop:
		return nil, ErrClosed
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func (g *Gateway) worker() {
	for {
		select {
		case <-g.stop:
			return
		case call := <-g.queue:
			metrics.GatewayQueueDepth.Set(float64(len(g.queue)))
			g.dispatch(call, 0)
		}
	}
}

// dispatch выполняет одну попытку. Повтор после 429 уходит в отдельную
// горутину и не блокирует голову очереди.
func (g *Gateway) dispatch(call *gatewayCall, attempt int) {
	body, status, err := g.attempt(call.ctx, call.operation, call.url)
	if err != nil {
		call.result <- gatewayResult{err: err}
		return
	}
	if status >= 200 && status < 300 {
		call.result <- gatewayResult{body: body}
		return
	}

	if status == http.StatusTooManyRequests && attempt < g.cfg.MaxRetries {
		delay := g.cfg.RetryDelay * (1 << attempt)
		metrics.GatewayRetriesTotal.Inc()
		g.log.Warn().
			Str("operation", call.operation).
			Int("attempt", attempt+1).
			Dur("delay", delay).
			Msg("получен 429, повтор после задержки")
		go func() {
			timer := time.NewTimer(delay)
			defer timer.Stop()
			select {
			case <-timer.C:
			case <-call.ctx.Done():
				call.result <- gatewayResult{err: call.ctx.Err()}
				return
			case <-g.stop:
				call.result <- gatewayResult{err: ErrClosed}
				return
			}
			g.dispatch(call, attempt+1)
		}()
		return
	}

	g.recordFailure(call.url, status)
	switch status {
	case http.StatusTooManyRequests:
		call.result <- gatewayResult{err: fmt.Errorf("%s: %w", call.operation, domain.ErrRateLimited)}
	case http.StatusForbidden:
		call.result <- gatewayResult{err: fmt.Errorf("%s: %w", call.operation, domain.ErrForbidden)}
	default:
		call.result <- gatewayResult{err: fmt.Errorf("%s: внешний API вернул статус %d", call.operation, status)}
	}
}

func (g *Gateway) attempt(ctx context.Context, operation, rawURL string) ([]byte, int, error) {
	if err := g.limiter.Wait(ctx); err != nil {
		return nil, 0, err
	}
	start := time.Now()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, 0, fmt.Errorf("создание запроса: %w", err)
	}
	req.Header.Set("x-rapidapi-key", g.cfg.APIKey)
	req.Header.Set("x-rapidapi-host", g.cfg.APIHost)
	resp, err := g.client.Do(req)
	metrics.ObserveNetworkRequest("twitterapi", operation, start, err)
	if err != nil {
		return nil, 0, fmt.Errorf("выполнение запроса: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		data, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
		if err != nil {
			return nil, resp.StatusCode, fmt.Errorf("чтение ответа: %w", err)
		}
		return data, resp.StatusCode, nil
	}
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 1024))
	return nil, resp.StatusCode, nil
}

// recentFailure проверяет память недавних ошибок; просроченные записи
// удаляются лениво при каждой проверке.
func (g *Gateway) recentFailure(rawURL string) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	entry, ok := g.failed[rawURL]
	if !ok {
		return nil
	}
	now := time.Now()
	if now.Sub(entry.at) > g.cfg.MemoTTL {
		delete(g.failed, rawURL)
		return nil
	}
	if !entry.retryAfter.IsZero() && now.After(entry.retryAfter) {
		delete(g.failed, rawURL)
		return nil
	}
	return fmt.Errorf("%w: статус %d", domain.ErrRecentlyFailed, entry.status)
}

func (g *Gateway) recordFailure(rawURL string, status int) {
	g.mu.Lock()
	defer g.mu.Unlock()
	now := time.Now()
	entry := failedRequest{at: now, status: status}
	if status == http.StatusTooManyRequests {
		entry.retryAfter = now.Add(g.cfg.RateLimitHold)
	}
	g.failed[rawURL] = entry
	for key, value := range g.failed {
		if now.Sub(value.at) > g.cfg.MemoTTL {
			delete(g.failed, key)
		}
	}
}
