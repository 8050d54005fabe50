package domain

import (
	"context"
	"time"
)

// TweetAPI — клиент внешнего API контента. Реализация обязана пропускать
// все вызовы через единый шлюз с ограничением частоты запросов.
type TweetAPI interface {
	// UserID резолвит username в числовой идентификатор автора.
	UserID(ctx context.Context, username string) (string, error)
	// UserTweets возвращает первую страницу постов автора.
	UserTweets(ctx context.Context, username, userID string, limit int) (TweetPage, error)
	// UserTweetsContinuation возвращает следующую страницу по токену продолжения.
	UserTweetsContinuation(ctx context.Context, username, userID, token string, limit int) (TweetPage, error)
	// TweetDetails возвращает один пост по идентификатору.
	TweetDetails(ctx context.Context, tweetID string) (Post, error)
	// TweetContinuation возвращает полный текст обрезанного поста.
	TweetContinuation(ctx context.Context, tweetID string) (Post, error)
}

// TimelineService собирает корпус постов автора и раскрывает одиночные посты.
type TimelineService interface {
	// FetchUserTweets резолвит автора, выгружает страницы и дотягивает
	// обрезанные посты. Возвращает дедуплицированный корпус без сортировки.
	FetchUserTweets(ctx context.Context, username string) ([]Post, error)
	// FetchTweetDetails выполняет одиночную выгрузку поста.
	FetchTweetDetails(ctx context.Context, tweetID string) (*Post, error)
}

// PostRepo управляет сохранёнными постами в документном хранилище.
type PostRepo interface {
	// SavePosts выполняет upsert по id с учётом политики дубликатов.
	SavePosts(ctx context.Context, posts []Post, savedBy string, opts SaveOptions) (SaveResult, error)
	ListSaved(ctx context.Context) ([]Post, error)
	ListSavedByUser(ctx context.Context, username string) ([]Post, error)
	SavedUsers(ctx context.Context) ([]SavedUser, error)
	DeleteByID(ctx context.Context, id string) error
	DeleteByUser(ctx context.Context, username string) (int64, error)
}

// Cache используется для простых TTL-хранилищ.
type Cache interface {
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Get(ctx context.Context, key string) ([]byte, error)
}
