package domain

import (
	"encoding/json"
	"strings"
	"testing"
)

func TestTimelineItemMarshalJSON(t *testing.T) {
	t.Run("thread marshals with tweets field", func(t *testing.T) {
		item := NewThreadItem(Thread{
			ID:     "1",
			Tweets: []Post{{ID: "1"}, {ID: "2"}},
			Author: Author{Username: "alice"},
		})
		data, err := json.Marshal(item)
		if err != nil {
			t.Fatalf("не ожидали ошибку: %v", err)
		}
		if !strings.Contains(string(data), `"tweets"`) {
			t.Fatalf("тред должен сериализоваться с полем tweets: %s", data)
		}
	})

	t.Run("post marshals as bare object", func(t *testing.T) {
		item := NewPostItem(Post{ID: "7", FullText: "hello"})
		data, err := json.Marshal(item)
		if err != nil {
			t.Fatalf("не ожидали ошибку: %v", err)
		}
		if strings.Contains(string(data), `"tweets"`) {
			t.Fatalf("одиночный пост не должен нести поле tweets: %s", data)
		}
		var decoded Post
		if err := json.Unmarshal(data, &decoded); err != nil {
			t.Fatalf("не ожидали ошибку разбора: %v", err)
		}
		if decoded.ID != "7" {
			t.Fatalf("ожидали пост 7, получили %q", decoded.ID)
		}
	})
}

func TestTimelineItemSize(t *testing.T) {
	if got := NewPostItem(Post{ID: "1"}).Size(); got != 1 {
		t.Fatalf("одиночный пост имеет размер 1, получили %d", got)
	}
	thread := NewThreadItem(Thread{Tweets: []Post{{ID: "1"}, {ID: "2"}, {ID: "3"}}})
	if got := thread.Size(); got != 3 {
		t.Fatalf("размер треда равен числу постов, получили %d", got)
	}
	var empty TimelineItem
	if got := empty.Size(); got != 0 {
		t.Fatalf("пустой элемент имеет размер 0, получили %d", got)
	}
}
