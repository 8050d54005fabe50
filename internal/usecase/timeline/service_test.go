package timeline

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/rs/zerolog"

	"tweet-manager/internal/domain"
)

type stubAPI struct {
	mu sync.Mutex

	userID  string
	userErr error

	first    domain.TweetPage
	firstErr error

	pages    map[string]domain.TweetPage
	pageErrs map[string]error

	continuations map[string]domain.Post

	continuationCalls []string
}

func (s *stubAPI) UserID(_ context.Context, username string) (string, error) {
	if s.userErr != nil {
		return "", s.userErr
	}
	return s.userID, nil
}

func (s *stubAPI) UserTweets(context.Context, string, string, int) (domain.TweetPage, error) {
	if s.firstErr != nil {
		return domain.TweetPage{}, s.firstErr
	}
	return s.first, nil
}

func (s *stubAPI) UserTweetsContinuation(_ context.Context, _, _, token string, _ int) (domain.TweetPage, error) {
	if err, ok := s.pageErrs[token]; ok {
		return domain.TweetPage{}, err
	}
	page, ok := s.pages[token]
	if !ok {
		return domain.TweetPage{}, errors.New("неизвестный токен")
	}
	return page, nil
}

func (s *stubAPI) TweetDetails(_ context.Context, tweetID string) (domain.Post, error) {
	return domain.Post{ID: tweetID, FullText: "detail " + tweetID}, nil
}

func (s *stubAPI) TweetContinuation(_ context.Context, tweetID string) (domain.Post, error) {
	s.mu.Lock()
	s.continuationCalls = append(s.continuationCalls, tweetID)
	s.mu.Unlock()
	full, ok := s.continuations[tweetID]
	if !ok {
		return domain.Post{}, errors.New("нет продолжения")
	}
	return full, nil
}

var _ domain.TweetAPI = (*stubAPI)(nil)

func testService(api domain.TweetAPI, limits Limits) *Service {
	return NewService(api, nil, zerolog.Nop(), limits)
}

func p(id string) domain.Post {
	return domain.Post{ID: id, Text: "t" + id, FullText: "t" + id, CreatedAt: "Tue Aug 26 10:00:00 +0000 2025"}
}

func TestFetchUserTweetsPaginationAndDedup(t *testing.T) {
	api := &stubAPI{
		userID: "u1",
		first:  domain.TweetPage{Posts: []domain.Post{p("1"), p("2")}, ContinuationToken: "t1"},
		pages: map[string]domain.TweetPage{
			// Страницы продолжения пересекаются: пост 2 приходит повторно.
			"t1": {Posts: []domain.Post{p("2"), p("3")}, ContinuationToken: "t2"},
			"t2": {Posts: []domain.Post{p("3")}, ContinuationToken: "t3"},
		},
	}
	svc := testService(api, Limits{})

	posts, err := svc.FetchUserTweets(context.Background(), "@Alice")
	if err != nil {
		t.Fatalf("не ожидали ошибку: %v", err)
	}
	if len(posts) != 3 {
		t.Fatalf("ожидали 3 уникальных поста, получили %d", len(posts))
	}
	// Порядок первого появления сохраняется.
	for i, want := range []string{"1", "2", "3"} {
		if posts[i].ID != want {
			t.Fatalf("позиция %d: ожидали %s, получили %s", i, want, posts[i].ID)
		}
	}
}

func TestFetchUserTweetsMergesResurfacedPosts(t *testing.T) {
	short := p("2")
	full := p("2")
	full.FullText = "t2 but with the complete recovered text"

	api := &stubAPI{
		userID: "u1",
		first:  domain.TweetPage{Posts: []domain.Post{p("1"), short}, ContinuationToken: "t1"},
		pages: map[string]domain.TweetPage{
			"t1": {Posts: []domain.Post{full, p("3")}},
		},
	}
	svc := testService(api, Limits{})

	posts, err := svc.FetchUserTweets(context.Background(), "alice")
	if err != nil {
		t.Fatalf("не ожидали ошибку: %v", err)
	}
	if posts[1].FullText != full.FullText {
		t.Fatalf("повторное появление не дополнило пост: %q", posts[1].FullText)
	}
}

func TestFetchUserTweetsPageErrorReturnsPartial(t *testing.T) {
	api := &stubAPI{
		userID:   "u1",
		first:    domain.TweetPage{Posts: []domain.Post{p("1"), p("2")}, ContinuationToken: "t1"},
		pageErrs: map[string]error{"t1": errors.New("сеть недоступна")},
	}
	svc := testService(api, Limits{})

	posts, err := svc.FetchUserTweets(context.Background(), "alice")
	if err != nil {
		t.Fatalf("ошибка страницы продолжения не должна срывать выгрузку: %v", err)
	}
	if len(posts) != 2 {
		t.Fatalf("ожидали частичный результат из 2 постов, получили %d", len(posts))
	}
}

func TestFetchUserTweetsStopsOnMaxPosts(t *testing.T) {
	api := &stubAPI{
		userID: "u1",
		first:  domain.TweetPage{Posts: []domain.Post{p("1"), p("2")}, ContinuationToken: "t1"},
		pages: map[string]domain.TweetPage{
			"t1": {Posts: []domain.Post{p("3"), p("4")}, ContinuationToken: "t2"},
			"t2": {Posts: []domain.Post{p("5")}},
		},
	}
	svc := testService(api, Limits{MaxPosts: 3})

	posts, err := svc.FetchUserTweets(context.Background(), "alice")
	if err != nil {
		t.Fatalf("не ожидали ошибку: %v", err)
	}
	if len(posts) != 4 {
		t.Fatalf("ожидали остановку после страницы, достигшей потолка: %d", len(posts))
	}
}

func TestFetchUserTweetsUserNotFound(t *testing.T) {
	api := &stubAPI{userErr: domain.ErrUserNotFound}
	svc := testService(api, Limits{})

	_, err := svc.FetchUserTweets(context.Background(), "ghost")
	if !errors.Is(err, domain.ErrUserNotFound) {
		t.Fatalf("ожидали ErrUserNotFound, получили %v", err)
	}
}

func TestFetchUserTweetsEmptyUsername(t *testing.T) {
	svc := testService(&stubAPI{userID: "u1"}, Limits{})
	if _, err := svc.FetchUserTweets(context.Background(), "  @ "); !errors.Is(err, domain.ErrUserNotFound) {
		t.Fatalf("ожидали ErrUserNotFound на пустом username, получили %v", err)
	}
}

func TestFetchUserTweetsBackfillsTruncated(t *testing.T) {
	truncated := p("1")
	truncated.IsLong = true
	truncated.FullText = "cut"

	recovered := p("1")
	recovered.FullText = "cut no more: the entire recovered text"

	api := &stubAPI{
		userID:        "u1",
		first:         domain.TweetPage{Posts: []domain.Post{truncated, p("2")}},
		continuations: map[string]domain.Post{"1": recovered},
	}
	svc := testService(api, Limits{DetailBackfill: 3})

	posts, err := svc.FetchUserTweets(context.Background(), "alice")
	if err != nil {
		t.Fatalf("не ожидали ошибку: %v", err)
	}
	if posts[0].FullText != recovered.FullText {
		t.Fatalf("обрезанный пост не заменён полным: %q", posts[0].FullText)
	}
	if len(api.continuationCalls) != 1 || api.continuationCalls[0] != "1" {
		t.Fatalf("ожидали одну дотяжку поста 1, получили %v", api.continuationCalls)
	}
}

func TestFetchUserTweetsBackfillErrorKeepsOriginal(t *testing.T) {
	truncated := p("1")
	truncated.IsLong = true

	api := &stubAPI{
		userID: "u1",
		first:  domain.TweetPage{Posts: []domain.Post{truncated}},
	}
	svc := testService(api, Limits{DetailBackfill: 1})

	posts, err := svc.FetchUserTweets(context.Background(), "alice")
	if err != nil {
		t.Fatalf("неудачная дотяжка не должна срывать выгрузку: %v", err)
	}
	if len(posts) != 1 || posts[0].FullText != truncated.FullText {
		t.Fatalf("ожидали исходный пост без изменений, получили %+v", posts)
	}
}

func TestFetchTweetDetails(t *testing.T) {
	svc := testService(&stubAPI{}, Limits{})

	post, err := svc.FetchTweetDetails(context.Background(), "42")
	if err != nil {
		t.Fatalf("не ожидали ошибку: %v", err)
	}
	if post.ID != "42" {
		t.Fatalf("ожидали пост 42, получили %q", post.ID)
	}

	if _, err := svc.FetchTweetDetails(context.Background(), ""); !errors.Is(err, domain.ErrPostNotFound) {
		t.Fatalf("ожидали ErrPostNotFound на пустом id, получили %v", err)
	}
}
