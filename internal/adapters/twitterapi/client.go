package twitterapi

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"

	"tweet-manager/internal/domain"
)

// Client — типизированный клиент внешнего API контента поверх шлюза.
type Client struct {
	gw      *Gateway
	baseURL string
}

var _ domain.TweetAPI = (*Client)(nil)

// NewClient создаёт клиент. Все вызовы проходят через шлюз.
func NewClient(gw *Gateway) *Client {
	return &Client{gw: gw, baseURL: "https://" + gw.cfg.APIHost}
}

// UserID резолвит username в идентификатор автора.
func (c *Client) UserID(ctx context.Context, username string) (string, error) {
	q := url.Values{}
	q.Set("username", username)
	body, err := c.gw.Do(ctx, "user_details", c.endpoint("/user/details", q))
	if err != nil {
		return "", err
	}
	var resp userDetailsResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return "", fmt.Errorf("разбор ответа user/details: %w", err)
	}
	if resp.UserID == "" {
		return "", fmt.Errorf("@%s: %w", username, domain.ErrUserNotFound)
	}
	return resp.UserID, nil
}

// UserTweets возвращает первую страницу постов автора.
func (c *Client) UserTweets(ctx context.Context, username, userID string, limit int) (domain.TweetPage, error) {
	q := url.Values{}
	q.Set("username", username)
	q.Set("user_id", userID)
	q.Set("limit", fmt.Sprint(limit))
	q.Set("include_replies", "true")
	q.Set("include_pinned", "false")
	q.Set("includeFulltext", "true")
	return c.listPage(ctx, "user_tweets", c.endpoint("/user/tweets", q))
}

// UserTweetsContinuation возвращает следующую страницу по токену продолжения.
func (c *Client) UserTweetsContinuation(ctx context.Context, username, userID, token string, limit int) (domain.TweetPage, error) {
	q := url.Values{}
	q.Set("username", username)
	q.Set("user_id", userID)
	q.Set("limit", fmt.Sprint(limit))
	q.Set("continuation_token", token)
	return c.listPage(ctx, "user_tweets_continuation", c.endpoint("/user/tweets/continuation", q))
}

// TweetDetails возвращает один пост; ответ приходит без обёртки results.
func (c *Client) TweetDetails(ctx context.Context, tweetID string) (domain.Post, error) {
	q := url.Values{}
	q.Set("tweet_id", tweetID)
	body, err := c.gw.Do(ctx, "tweet_details", c.endpoint("/tweet/details", q))
	if err != nil {
		return domain.Post{}, err
	}
	var raw rawTweet
	if err := json.Unmarshal(body, &raw); err != nil {
		return domain.Post{}, fmt.Errorf("разбор ответа tweet/details: %w", err)
	}
	return normalizeTweet(raw), nil
}

// TweetContinuation возвращает полный текст обрезанного поста.
func (c *Client) TweetContinuation(ctx context.Context, tweetID string) (domain.Post, error) {
	q := url.Values{}
	q.Set("tweet_id", tweetID)
	body, err := c.gw.Do(ctx, "tweet_continuation", c.endpoint("/tweet/continuation", q))
	if err != nil {
		return domain.Post{}, err
	}
	var raw rawTweet
	if err := json.Unmarshal(body, &raw); err != nil {
		return domain.Post{}, fmt.Errorf("разбор ответа tweet/continuation: %w", err)
	}
	return normalizeTweet(raw), nil
}

func (c *Client) listPage(ctx context.Context, operation, endpoint string) (domain.TweetPage, error) {
	body, err := c.gw.Do(ctx, operation, endpoint)
	if err != nil {
		return domain.TweetPage{}, err
	}
	var resp listResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return domain.TweetPage{}, fmt.Errorf("разбор страницы %s: %w", operation, err)
	}
	page := domain.TweetPage{ContinuationToken: resp.ContinuationToken}
	for _, raw := range resp.Results {
		if raw.TweetID == "" {
			continue
		}
		page.Posts = append(page.Posts, normalizeTweet(raw))
	}
	return page, nil
}

func (c *Client) endpoint(path string, q url.Values) string {
	return c.baseURL + path + "?" + q.Encode()
}

type userDetailsResponse struct {
	UserID string `json:"user_id"`
}

type listResponse struct {
	Results           []rawTweet `json:"results"`
	ContinuationToken string     `json:"continuation_token"`
}

type rawUser struct {
	UserID        string `json:"user_id"`
	Name          string `json:"name"`
	Username      string `json:"username"`
	ProfilePicURL string `json:"profile_pic_url"`
}

type rawVariant struct {
	Bitrate     int    `json:"bitrate"`
	ContentType string `json:"content_type"`
	URL         string `json:"url"`
}

type rawVideoInfo struct {
	Variants []rawVariant `json:"variants"`
}

type rawMedia struct {
	MediaURLHTTPS string        `json:"media_url_https"`
	Type          string        `json:"type"`
	VideoInfo     *rawVideoInfo `json:"video_info"`
}

type rawEntities struct {
	Media []rawMedia `json:"media"`
}

// rawTweet — сырая запись внешнего API. Поля текста избыточны и
// противоречивы, их разбирает нормализатор.
type rawTweet struct {
	TweetID          string       `json:"tweet_id"`
	CreationDate     string       `json:"creation_date"`
	Text             string       `json:"text"`
	ExtendedText     string       `json:"extended_text"`
	ExtendedTweet    *struct {
		FullText string `json:"full_text"`
	} `json:"extended_tweet"`
	DisplayTextRange []int        `json:"display_text_range"`
	User             *rawUser     `json:"user"`
	ConversationID   string       `json:"conversation_id"`
	InReplyToTweetID string       `json:"in_reply_to_tweet_id"`
	InReplyToUserID  string       `json:"in_reply_to_user_id"`
	ReplyCount       int          `json:"reply_count"`
	RetweetCount     int          `json:"retweet_count"`
	FavoriteCount    int          `json:"favorite_count"`
	QuoteCount       int          `json:"quote_count"`
	MediaURLs        []string     `json:"media_urls"`
	VideoURL         string       `json:"video_url"`
	ThumbnailURL     string       `json:"thumbnail_url"`
	ShowMoreThread   bool         `json:"show_more_thread"`
	ExtendedEntities *rawEntities `json:"extended_entities"`
	Entities         *rawEntities `json:"entities"`
	QuotedStatus     *rawTweet    `json:"quoted_status"`
	RetweetStatus    *rawTweet    `json:"retweet_status"`
}
