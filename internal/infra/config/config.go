package config

import (
	"log"
	"time"

	"github.com/kelseyhightower/envconfig"
)

// AppConfig описывает конфигурацию сервиса.
type AppConfig struct {
	AppEnv string `envconfig:"APP_ENV" default:"dev"`
	Port   int    `envconfig:"PORT" default:"8080"`

	Twitter struct {
		APIKey  string        `envconfig:"TWITTER_API_KEY"`
		APIHost string        `envconfig:"TWITTER_API_HOST" default:"twitter154.p.rapidapi.com"`
		Timeout time.Duration `envconfig:"TWITTER_API_TIMEOUT" default:"30s"`
	} `envconfig:""`

	Gateway struct {
		MinInterval   time.Duration `envconfig:"GATEWAY_MIN_INTERVAL" default:"2s"`
		MaxRetries    int           `envconfig:"GATEWAY_MAX_RETRIES" default:"2"`
		RetryDelay    time.Duration `envconfig:"GATEWAY_RETRY_DELAY" default:"3s"`
		MemoTTL       time.Duration `envconfig:"GATEWAY_MEMO_TTL" default:"10m"`
		RateLimitHold time.Duration `envconfig:"GATEWAY_RATE_LIMIT_HOLD" default:"60s"`
		QueueSize     int           `envconfig:"GATEWAY_QUEUE_SIZE" default:"64"`
	} `envconfig:""`

	Fetch struct {
		PageLimit      int           `envconfig:"FETCH_PAGE_LIMIT" default:"100"`
		MaxPosts       int           `envconfig:"FETCH_MAX_POSTS" default:"200"`
		MaxPages       int           `envconfig:"FETCH_MAX_PAGES" default:"3"`
		DetailBackfill int           `envconfig:"FETCH_DETAIL_BACKFILL" default:"3"`
		PageDelay      time.Duration `envconfig:"FETCH_PAGE_DELAY" default:"1500ms"`
		CacheTTL       time.Duration `envconfig:"FETCH_CACHE_TTL" default:"10m"`
	} `envconfig:""`

	MongoURI string `envconfig:"MONGODB_URI" default:"mongodb://localhost:27017"`
	MongoDB  string `envconfig:"MONGODB_DATABASE" default:"tweet_manager"`

	RedisAddr string `envconfig:"REDIS_ADDR"`
}

// Load загружает конфиг из окружения.
func Load() AppConfig {
	var cfg AppConfig
	if err := envconfig.Process("", &cfg); err != nil {
		log.Fatalf("не удалось загрузить конфиг: %v", err)
	}
	return cfg
}
