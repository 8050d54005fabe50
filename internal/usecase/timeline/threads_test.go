package timeline

import (
	"reflect"
	"testing"

	"tweet-manager/internal/domain"
)

// rubyDateAt возвращает дату в основном формате источника со сдвигом в минутах.
func rubyDateAt(minute int) string {
	base := []string{
		"Tue Aug 26 10:00:00 +0000 2025",
		"Tue Aug 26 10:01:00 +0000 2025",
		"Tue Aug 26 10:02:00 +0000 2025",
		"Tue Aug 26 10:03:00 +0000 2025",
		"Tue Aug 26 10:04:00 +0000 2025",
		"Tue Aug 26 10:05:00 +0000 2025",
	}
	return base[minute]
}

func post(id, conv, author, createdAt string) domain.Post {
	return domain.Post{
		ID:             id,
		ConversationID: conv,
		Author:         domain.Author{ID: "uid-" + author, Username: author},
		CreatedAt:      createdAt,
		FullText:       "post " + id,
	}
}

func reply(id, conv, author, createdAt, parentID string) domain.Post {
	p := post(id, conv, author, createdAt)
	p.InReplyToTweetID = parentID
	return p
}

func totalSize(items []domain.TimelineItem) int {
	total := 0
	for _, it := range items {
		total += it.Size()
	}
	return total
}

func TestGroupThreadsBuildsThread(t *testing.T) {
	posts := []domain.Post{
		reply("2", "1", "alice", rubyDateAt(1), "1"),
		post("1", "1", "alice", rubyDateAt(0)),
		post("3", "3", "bob", rubyDateAt(2)),
	}

	items := GroupThreads(posts)
	if len(items) != 2 {
		t.Fatalf("ожидали 2 элемента ленты, получили %d", len(items))
	}
	if totalSize(items) != len(posts) {
		t.Fatalf("посты потерялись: вход %d, выход %d", len(posts), totalSize(items))
	}

	// Свежайший пост боба представляет ленту первым.
	if items[0].IsThread() || items[0].Post.ID != "3" {
		t.Fatalf("ожидали одиночный пост 3 первым, получили %+v", items[0])
	}

	thread := items[1]
	if !thread.IsThread() {
		t.Fatalf("ожидали тред вторым элементом")
	}
	if thread.Thread.ID != "1" {
		t.Fatalf("ожидали тред разговора 1, получили %q", thread.Thread.ID)
	}
	if len(thread.Thread.Tweets) != 2 {
		t.Fatalf("ожидали 2 поста в треде, получили %d", len(thread.Thread.Tweets))
	}
	for i, tw := range thread.Thread.Tweets {
		if tw.ThreadIndex != i {
			t.Fatalf("ожидали сквозную нумерацию, пост %s имеет индекс %d", tw.ID, tw.ThreadIndex)
		}
		if tw.ThreadID != "1" {
			t.Fatalf("пост %s без thread_id", tw.ID)
		}
		if tw.Category != domain.CategoryThread {
			t.Fatalf("пост %s не получил категорию thread", tw.ID)
		}
	}
	if thread.Thread.Tweets[0].ID != "1" || thread.Thread.Tweets[1].ID != "2" {
		t.Fatalf("тред не в хронологическом порядке: %s, %s",
			thread.Thread.Tweets[0].ID, thread.Thread.Tweets[1].ID)
	}
	if thread.Thread.Author.Username != "alice" {
		t.Fatalf("ожидали автора alice, получили %q", thread.Thread.Author.Username)
	}
}

func TestGroupThreadsCrossAuthorConversationStaysStandalone(t *testing.T) {
	posts := []domain.Post{
		post("1", "1", "alice", rubyDateAt(0)),
		reply("2", "1", "bob", rubyDateAt(1), "1"),
	}

	items := GroupThreads(posts)
	if len(items) != 2 {
		t.Fatalf("ожидали 2 одиночных поста, получили %d элементов", len(items))
	}
	for _, it := range items {
		if it.IsThread() {
			t.Fatalf("чужой ответ не должен образовывать тред")
		}
		if it.Post.ThreadID != "" {
			t.Fatalf("одиночный пост %s несёт thread_id %q", it.Post.ID, it.Post.ThreadID)
		}
	}
}

func TestGroupThreadsSameConversationPair(t *testing.T) {
	// Два поста одного автора в одном разговоре группируются и без
	// явных ссылок на родителя.
	posts := []domain.Post{
		post("2", "1", "alice", rubyDateAt(1)),
		post("1", "1", "alice", rubyDateAt(0)),
	}

	items := GroupThreads(posts)
	if len(items) != 1 || !items[0].IsThread() {
		t.Fatalf("ожидали единственный тред, получили %+v", items)
	}
	if got := items[0].Thread.Tweets[0].ID; got != "1" {
		t.Fatalf("ожидали корень 1, получили %s", got)
	}
}

func TestGroupThreadsSingletonDemotion(t *testing.T) {
	a := post("1", "1", "alice", rubyDateAt(0))
	a.ShowMoreThread = true
	b := reply("2", "1", "bob", rubyDateAt(1), "1")
	b.ShowMoreThread = true

	items := GroupThreads([]domain.Post{a, b})
	if len(items) != 2 {
		t.Fatalf("ожидали 2 одиночных поста, получили %d элементов", len(items))
	}
	for _, it := range items {
		if it.IsThread() {
			t.Fatalf("группа из одного поста не должна оставаться тредом")
		}
		if it.Post.ThreadID != "" {
			t.Fatalf("после понижения thread_id должен быть пуст, пост %s", it.Post.ID)
		}
	}
}

func TestGroupThreadsConservationAndDeterminism(t *testing.T) {
	posts := []domain.Post{
		post("1", "1", "alice", rubyDateAt(0)),
		reply("2", "1", "alice", rubyDateAt(1), "1"),
		reply("3", "1", "bob", rubyDateAt(2), "2"),
		post("4", "4", "carol", rubyDateAt(3)),
		post("5", "5", "alice", rubyDateAt(4)),
	}

	first := GroupThreads(posts)
	if totalSize(first) != len(posts) {
		t.Fatalf("сумма размеров %d не равна размеру входа %d", totalSize(first), len(posts))
	}

	second := GroupThreads(posts)
	if !reflect.DeepEqual(first, second) {
		t.Fatalf("повторный вызов дал другой результат")
	}
}

func TestGroupThreadsIDFallbackOnUnparseableDates(t *testing.T) {
	posts := []domain.Post{
		post("99", "99", "alice", "вчера"),
		post("100", "100", "bob", "позавчера"),
	}

	items := GroupThreads(posts)
	if len(items) != 2 {
		t.Fatalf("ожидали 2 элемента, получили %d", len(items))
	}
	// Числовое сравнение: 100 > 99, лексикографическое дало бы обратное.
	if items[0].Post.ID != "100" {
		t.Fatalf("ожидали пост 100 первым, получили %s", items[0].Post.ID)
	}
}

func TestGroupThreadsThreadRepresentedByNewestMember(t *testing.T) {
	posts := []domain.Post{
		post("1", "1", "alice", rubyDateAt(0)),
		reply("2", "1", "alice", rubyDateAt(4), "1"),
		post("3", "3", "bob", rubyDateAt(2)),
	}

	items := GroupThreads(posts)
	if len(items) != 2 {
		t.Fatalf("ожидали 2 элемента, получили %d", len(items))
	}
	// Хвост треда свежее поста боба, поэтому тред идёт первым.
	if !items[0].IsThread() {
		t.Fatalf("ожидали тред первым: его последний пост самый свежий")
	}
}

func TestGroupThreadsEmptyInput(t *testing.T) {
	if items := GroupThreads(nil); items != nil {
		t.Fatalf("ожидали nil на пустом входе, получили %+v", items)
	}
}

func TestParseCreatedAtLayouts(t *testing.T) {
	tests := []struct {
		value string
		ok    bool
	}{
		{value: "Tue Aug 26 10:00:00 +0000 2025", ok: true},
		{value: "2025-08-26T10:00:00Z", ok: true},
		{value: "2025-08-26 10:00:00", ok: true},
		{value: "26.08.2025", ok: false},
		{value: "", ok: false},
	}
	for _, tt := range tests {
		if _, ok := parseCreatedAt(tt.value); ok != tt.ok {
			t.Fatalf("parseCreatedAt(%q): ожидали ok=%v", tt.value, tt.ok)
		}
	}
}

func TestIDLess(t *testing.T) {
	tests := []struct {
		a, b string
		want bool
	}{
		{a: "99", b: "100", want: true},
		{a: "100", b: "99", want: false},
		{a: "1888392839283928392", b: "1888392839283928393", want: true},
		{a: "abc", b: "abd", want: true},
	}
	for _, tt := range tests {
		if got := idLess(tt.a, tt.b); got != tt.want {
			t.Fatalf("idLess(%q, %q) = %v, ожидали %v", tt.a, tt.b, got, tt.want)
		}
	}
}
