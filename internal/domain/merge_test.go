package domain

import "testing"

func TestMoreComplete(t *testing.T) {
	tests := []struct {
		name string
		a, b Post
		want string
	}{
		{
			name: "extended text beats plain",
			a:    Post{ID: "1", Text: "short", FullText: "short"},
			b:    Post{ID: "1", Text: "short", FullText: "short and the rest of it"},
			want: "short and the rest of it",
		},
		{
			name: "extended first argument kept",
			a:    Post{ID: "1", Text: "short", FullText: "short and the rest of it"},
			b:    Post{ID: "1", Text: "short", FullText: "short"},
			want: "short and the rest of it",
		},
		{
			name: "longer full text wins among equals",
			a:    Post{ID: "1", Text: "x", FullText: "aa bb"},
			b:    Post{ID: "1", Text: "x", FullText: "aa bb cc"},
			want: "aa bb cc",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := MoreComplete(tt.a, tt.b)
			if got.FullText != tt.want {
				t.Fatalf("MoreComplete выбрал %q, ожидали %q", got.FullText, tt.want)
			}
		})
	}

	t.Run("more media wins on equal text", func(t *testing.T) {
		a := Post{ID: "1", Text: "x", FullText: "xx"}
		b := Post{ID: "1", Text: "x", FullText: "xx", Media: []Media{{URL: "https://pic/1.jpg"}}}
		if got := MoreComplete(a, b); len(got.Media) != 1 {
			t.Fatalf("ожидали версию с вложением, получили %d вложений", len(got.Media))
		}
	})

	t.Run("tie keeps first version", func(t *testing.T) {
		a := Post{ID: "1", Text: "x", FullText: "xx", ReplyCount: 7}
		b := Post{ID: "1", Text: "x", FullText: "xx", ReplyCount: 9}
		if got := MoreComplete(a, b); got.ReplyCount != 7 {
			t.Fatalf("при равенстве должна остаться первая версия, получили reply_count=%d", got.ReplyCount)
		}
	})
}
