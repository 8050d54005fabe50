package domain

import "time"

// MediaType описывает тип вложения поста.
type MediaType string

const (
	MediaPhoto       MediaType = "photo"
	MediaVideo       MediaType = "video"
	MediaAnimatedGIF MediaType = "animated_gif"
)

// Category — категория поста для фильтрации в интерфейсе.
type Category string

const (
	CategoryNormal Category = "normal"
	CategoryLong   Category = "long"
	CategoryThread Category = "thread"
)

// Author описывает автора поста.
type Author struct {
	ID              string `json:"id" bson:"id"`
	Name            string `json:"name" bson:"name"`
	Username        string `json:"username" bson:"username"`
	ProfileImageURL string `json:"profile_image_url" bson:"profile_image_url"`
}

// Media — вложение поста (фото, видео или гифка).
type Media struct {
	MediaKey        string    `json:"media_key" bson:"media_key"`
	Type            MediaType `json:"type" bson:"type"`
	URL             string    `json:"url" bson:"url"`
	PreviewImageURL string    `json:"preview_image_url,omitempty" bson:"preview_image_url,omitempty"`
}

// ReferencedTweet — вложенный цитируемый или отвеченный пост.
// Извлекается из исходной записи на один уровень вложенности.
type ReferencedTweet struct {
	Type   string  `json:"type" bson:"type"`
	ID     string  `json:"id" bson:"id"`
	Text   string  `json:"text,omitempty" bson:"text,omitempty"`
	Author Author  `json:"author,omitempty" bson:"author,omitempty"`
	Media  []Media `json:"media,omitempty" bson:"media,omitempty"`
}

// Post — единица контента одного автора.
// CreatedAt хранится строкой из источника: порядок определяется
// распарсенным моментом времени, а не лексикографией.
type Post struct {
	ID               string            `json:"id" bson:"id"`
	Text             string            `json:"text" bson:"text"`
	FullText         string            `json:"full_text" bson:"full_text"`
	CreatedAt        string            `json:"created_at" bson:"created_at"`
	Author           Author            `json:"author" bson:"author"`
	ConversationID   string            `json:"conversation_id,omitempty" bson:"conversation_id,omitempty"`
	InReplyToTweetID string            `json:"in_reply_to_tweet_id,omitempty" bson:"in_reply_to_tweet_id,omitempty"`
	InReplyToUserID  string            `json:"in_reply_to_user_id,omitempty" bson:"in_reply_to_user_id,omitempty"`
	ReplyCount       int               `json:"reply_count" bson:"reply_count"`
	RetweetCount     int               `json:"retweet_count" bson:"retweet_count"`
	LikeCount        int               `json:"like_count" bson:"like_count"`
	QuoteCount       int               `json:"quote_count" bson:"quote_count"`
	Media            []Media           `json:"media,omitempty" bson:"media,omitempty"`
	ReferencedTweets []ReferencedTweet `json:"referenced_tweets,omitempty" bson:"referenced_tweets,omitempty"`
	IsLong           bool              `json:"is_long" bson:"is_long"`
	// ShowMoreThread выставляется источником, если у поста есть продолжение треда.
	ShowMoreThread bool     `json:"show_more_thread,omitempty" bson:"show_more_thread,omitempty"`
	Category       Category `json:"category,omitempty" bson:"category,omitempty"`

	// ThreadID и ThreadIndex назначает реконструктор тредов, не источник.
	ThreadID    string `json:"thread_id,omitempty" bson:"thread_id,omitempty"`
	ThreadIndex int    `json:"thread_index,omitempty" bson:"thread_index,omitempty"`

	// SavedBy и SavedAt проставляет только слой персистентности.
	SavedBy string     `json:"savedBy,omitempty" bson:"savedBy,omitempty"`
	SavedAt *time.Time `json:"savedAt,omitempty" bson:"savedAt,omitempty"`
}

// Thread — упорядоченная цепочка постов одного автора, связанных ответами.
// Тред существует только как производный агрегат: сохраняются лишь его посты
// с проставленными ThreadID и ThreadIndex.
type Thread struct {
	ID        string `json:"id"`
	Tweets    []Post `json:"tweets"`
	Author    Author `json:"author"`
	CreatedAt string `json:"created_at"`
}

// SavedUser — пользователь, сохранявший посты, со статистикой.
type SavedUser struct {
	Username   string     `json:"username" bson:"_id"`
	TweetCount int        `json:"tweetCount" bson:"tweetCount"`
	LastSaved  *time.Time `json:"lastSaved,omitempty" bson:"lastSaved,omitempty"`
}

// SaveOptions управляют политикой сохранения постов.
type SaveOptions struct {
	PreserveExisting    bool `json:"preserveExisting"`
	SkipDuplicates      bool `json:"skipDuplicates"`
	PreserveThreadOrder bool `json:"preserveThreadOrder"`
}

// SaveResult — итог сохранения: сколько записано и сколько пропущено как дубликаты.
type SaveResult struct {
	Saved   int `json:"count"`
	Skipped int `json:"skippedCount"`
}

// TweetPage — одна страница выдачи внешнего API с токеном продолжения.
type TweetPage struct {
	Posts             []Post
	ContinuationToken string
}
