package timeline

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"tweet-manager/internal/domain"
	"tweet-manager/internal/infra/metrics"
)

// Limits ограничивают объём выгрузки одного автора.
type Limits struct {
	// PageLimit — запрашиваемый размер страницы.
	PageLimit int
	// MaxPosts — потолок корпуса: достигнув его, пагинация останавливается.
	MaxPosts int
	// MaxPages — максимум запросов продолжения после первой страницы.
	MaxPages int
	// DetailBackfill — сколько обрезанных постов дотягивать детальными запросами.
	DetailBackfill int
	// PageDelay — пауза между страницами, поверх троттлинга шлюза.
	PageDelay time.Duration
	// CacheTTL — срок жизни закэшированной выгрузки.
	CacheTTL time.Duration
}

func (l *Limits) withDefaults() {
	if l.PageLimit <= 0 {
		l.PageLimit = 100
	}
	if l.MaxPosts <= 0 {
		l.MaxPosts = 200
	}
	if l.MaxPages <= 0 {
		l.MaxPages = 3
	}
	if l.DetailBackfill < 0 {
		l.DetailBackfill = 0
	}
	if l.CacheTTL <= 0 {
		l.CacheTTL = 10 * time.Minute
	}
}

// Service собирает корпус постов автора: резолв идентификатора, пагинация
// по токенам продолжения, дедупликация и дотяжка обрезанных постов.
type Service struct {
	api    domain.TweetAPI
	cache  domain.Cache
	log    zerolog.Logger
	limits Limits
}

var _ domain.TimelineService = (*Service)(nil)

// NewService создаёт сервис ленты. cache может быть nil — тогда выгрузки
// не кэшируются.
func NewService(api domain.TweetAPI, cache domain.Cache, logger zerolog.Logger, limits Limits) *Service {
	limits.withDefaults()
	return &Service{api: api, cache: cache, log: logger, limits: limits}
}

// FetchUserTweets выгружает дедуплицированный корпус постов автора.
// Возвращаемый срез не отсортирован: порядок для отображения назначает
// GroupThreads. Ошибка одной страницы или дотяжки не срывает операцию —
// возвращается то, что успело накопиться.
func (s *Service) FetchUserTweets(ctx context.Context, username string) ([]domain.Post, error) {
	username = strings.TrimPrefix(strings.TrimSpace(username), "@")
	if username == "" {
		return nil, fmt.Errorf("пустой username: %w", domain.ErrUserNotFound)
	}
	cacheKey := "tweets:user:" + strings.ToLower(username)
	if cached, ok := s.cachedPosts(ctx, cacheKey); ok {
		return cached, nil
	}

	logger := s.log.With().
		Str("fetch_id", uuid.NewString()).
		Str("username", username).
		Logger()
	start := time.Now()
	defer func() {
		metrics.TimelineFetchSeconds.Observe(time.Since(start).Seconds())
	}()

	userID, err := s.api.UserID(ctx, username)
	if err != nil {
		return nil, fmt.Errorf("резолв пользователя: %w", err)
	}

	collected := make(map[string]domain.Post)
	var order []string
	merge := func(batch []domain.Post) int {
		fresh := 0
		for _, p := range batch {
			if p.ID == "" {
				continue
			}
			if existing, ok := collected[p.ID]; ok {
				// Страницы продолжения пересекаются: повторное появление
				// поста не считается новым, но может его дополнить.
				collected[p.ID] = domain.MoreComplete(existing, p)
				continue
			}
			collected[p.ID] = p
			order = append(order, p.ID)
			fresh++
		}
		return fresh
	}

	page, err := s.api.UserTweets(ctx, username, userID, s.limits.PageLimit)
	if err != nil {
		return nil, fmt.Errorf("первая страница: %w", err)
	}
	merge(page.Posts)

	token := page.ContinuationToken
	for pages := 0; token != "" && len(collected) < s.limits.MaxPosts && pages < s.limits.MaxPages; pages++ {
		if err := sleepCtx(ctx, s.limits.PageDelay); err != nil {
			return nil, err
		}
		next, err := s.api.UserTweetsContinuation(ctx, username, userID, token, s.limits.PageLimit)
		if err != nil {
			logger.Warn().Err(err).Int("page", pages+1).Msg("страница продолжения не получена, останавливаемся")
			break
		}
		if merge(next.Posts) == 0 {
			break
		}
		token = next.ContinuationToken
	}

	s.backfillTruncated(ctx, logger, collected, order)

	result := make([]domain.Post, 0, len(order))
	for _, id := range order {
		result = append(result, collected[id])
	}
	metrics.TimelinePostsFetched.Observe(float64(len(result)))
	logger.Info().Int("posts", len(result)).Dur("took", time.Since(start)).Msg("лента выгружена")

	s.storePosts(ctx, cacheKey, result)
	return result, nil
}

// backfillTruncated дотягивает полный текст для первых обрезанных постов.
// Запросы независимы и уходят веером, но все завершаются до возврата:
// реконструкции тредов нужны окончательные тексты и флаги.
func (s *Service) backfillTruncated(ctx context.Context, logger zerolog.Logger, collected map[string]domain.Post, order []string) {
	if s.limits.DetailBackfill == 0 {
		return
	}
	var targets []string
	for _, id := range order {
		if collected[id].IsLong {
			targets = append(targets, id)
			if len(targets) == s.limits.DetailBackfill {
				break
			}
		}
	}
	if len(targets) == 0 {
		return
	}

	var mu sync.Mutex
	var wg sync.WaitGroup
	for _, id := range targets {
		wg.Add(1)
		go func(id string) {
			defer wg.Done()
			full, err := s.api.TweetContinuation(ctx, id)
			if err != nil {
				logger.Warn().Err(err).Str("tweet_id", id).Msg("дотяжка полного текста не удалась")
				return
			}
			if full.ID == "" {
				return
			}
			mu.Lock()
			collected[id] = full
			mu.Unlock()
		}(id)
	}
	wg.Wait()
}

// FetchTweetDetails выполняет одиночную выгрузку поста по идентификатору.
func (s *Service) FetchTweetDetails(ctx context.Context, tweetID string) (*domain.Post, error) {
	if tweetID == "" {
		return nil, fmt.Errorf("пустой идентификатор: %w", domain.ErrPostNotFound)
	}
	cacheKey := "tweets:detail:" + tweetID
	if s.cache != nil {
		if data, err := s.cache.Get(ctx, cacheKey); err == nil {
			var post domain.Post
			if err := json.Unmarshal(data, &post); err == nil {
				return &post, nil
			}
		}
	}
	post, err := s.api.TweetDetails(ctx, tweetID)
	if err != nil {
		return nil, err
	}
	if s.cache != nil {
		if data, err := json.Marshal(post); err == nil {
			if err := s.cache.Set(ctx, cacheKey, data, s.limits.CacheTTL); err != nil {
				s.log.Debug().Err(err).Msg("кэш поста не записан")
			}
		}
	}
	return &post, nil
}

func (s *Service) cachedPosts(ctx context.Context, key string) ([]domain.Post, bool) {
	if s.cache == nil {
		return nil, false
	}
	data, err := s.cache.Get(ctx, key)
	if err != nil {
		return nil, false
	}
	var posts []domain.Post
	if err := json.Unmarshal(data, &posts); err != nil {
		return nil, false
	}
	return posts, true
}

func (s *Service) storePosts(ctx context.Context, key string, posts []domain.Post) {
	if s.cache == nil {
		return
	}
	data, err := json.Marshal(posts)
	if err != nil {
		return
	}
	if err := s.cache.Set(ctx, key, data, s.limits.CacheTTL); err != nil {
		s.log.Debug().Err(err).Msg("кэш ленты не записан")
	}
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
