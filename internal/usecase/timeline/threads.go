package timeline

import (
	"math/big"
	"sort"
	"strings"
	"time"

	"tweet-manager/internal/domain"
	"tweet-manager/internal/infra/metrics"
)

// Форматы дат источника: основной — рубиновый формат твиттера,
// остальные встречаются в ответах отдельных эндпоинтов.
var createdAtLayouts = []string{
	time.RubyDate,
	time.RFC3339,
	"2006-01-02 15:04:05",
}

func parseCreatedAt(s string) (time.Time, bool) {
	trimmed := strings.TrimSpace(s)
	if trimmed == "" {
		return time.Time{}, false
	}
	for _, layout := range createdAtLayouts {
		if ts, err := time.Parse(layout, trimmed); err == nil {
			return ts, true
		}
	}
	return time.Time{}, false
}

// idLess сравнивает идентификаторы как целые произвольной точности:
// идентификаторы платформы хронологически монотонны и не влезают в int64.
func idLess(a, b string) bool {
	ai, aok := new(big.Int).SetString(a, 10)
	bi, bok := new(big.Int).SetString(b, 10)
	if !aok || !bok {
		return a < b
	}
	return ai.Cmp(bi) < 0
}

// GroupThreads разбивает корпус постов на одиночные посты и треды,
// проставляет ThreadID и ThreadIndex и возвращает итоговую ленту,
// упорядоченную по убыванию времени. Функция чистая и детерминированная:
// повторный вызов на том же входе даёт тот же результат. Сумма размеров
// элементов всегда равна размеру входа — посты не теряются и не двоятся.
func GroupThreads(posts []domain.Post) []domain.TimelineItem {
	if len(posts) == 0 {
		return nil
	}

	byID := make(map[string]domain.Post, len(posts))
	for _, p := range posts {
		byID[p.ID] = p
	}

	convOf := func(p domain.Post) string {
		if p.ConversationID != "" {
			return p.ConversationID
		}
		return p.ID
	}

	conv := make(map[string][]int)
	replies := make(map[string][]int)
	for i, p := range posts {
		conv[convOf(p)] = append(conv[convOf(p)], i)
		if p.InReplyToTweetID != "" {
			replies[p.InReplyToTweetID] = append(replies[p.InReplyToTweetID], i)
		}
	}

	// Группы собираются в порядке первого появления ключа во входе,
	// чтобы результат не зависел от обхода map.
	var groupOrder []string
	groupMembers := make(map[string][]int)
	processed := make([]bool, len(posts))

	for i, p := range posts {
		if !threadEligible(p, posts, conv[convOf(p)], replies[p.ID], byID) {
			continue
		}
		key := convOf(p)
		if _, ok := groupMembers[key]; !ok {
			groupOrder = append(groupOrder, key)
		}
		groupMembers[key] = append(groupMembers[key], i)
	}

	var items []domain.TimelineItem
	var standalone []domain.Post

	for _, key := range groupOrder {
		members := make([]domain.Post, 0, len(groupMembers[key]))
		for _, idx := range groupMembers[key] {
			members = append(members, posts[idx])
		}

		sortChrono(members)
		root := pickRoot(members, byID)

		// В треде остаются только посты автора корня: чужие ответы
		// делят conversation_id, но тредом не являются.
		filtered := members[:0:0]
		for _, m := range members {
			if strings.EqualFold(m.Author.Username, root.Author.Username) {
				filtered = append(filtered, m)
			}
		}

		switch {
		case len(filtered) >= 2:
			for i := range filtered {
				filtered[i].ThreadID = key
				filtered[i].ThreadIndex = i
				filtered[i].Category = domain.CategoryThread
			}
			thread := domain.Thread{
				ID:        key,
				Tweets:    filtered,
				Author:    filtered[0].Author,
				CreatedAt: filtered[0].CreatedAt,
			}
			items = append(items, domain.NewThreadItem(thread))
			metrics.ThreadsGrouped.Inc()
			markProcessed(processed, groupMembers[key], filtered, posts)
		case len(filtered) == 1:
			// Группа схлопнулась до одного поста — тред из одного
			// элемента не существует, пост понижается до одиночного.
			single := filtered[0]
			single.ThreadID = ""
			single.ThreadIndex = 0
			standalone = append(standalone, single)
			markProcessed(processed, groupMembers[key], filtered, posts)
		}
	}

	// Всё, что не вошло в треды, — одиночные посты: и не прошедшие
	// критерии, и отфильтрованные из групп чужие ответы.
	for i, p := range posts {
		if !processed[i] {
			processed[i] = true
			standalone = append(standalone, p)
		}
	}

	for _, p := range standalone {
		items = append(items, domain.NewPostItem(p))
	}

	sortItems(items)
	return items
}

// threadEligible проверяет критерии принадлежности поста треду.
// Отсутствие родителя в корпусе не блокирует группировку: пост всё ещё
// может стать корнем треда по остальным признакам.
func threadEligible(p domain.Post, posts []domain.Post, convGroup, replyIdx []int, byID map[string]domain.Post) bool {
	for _, idx := range replyIdx {
		if strings.EqualFold(posts[idx].Author.Username, p.Author.Username) {
			return true
		}
	}
	if p.InReplyToUserID != "" && p.Author.ID != "" && p.InReplyToUserID == p.Author.ID {
		return true
	}
	if p.InReplyToTweetID != "" {
		if parent, ok := byID[p.InReplyToTweetID]; ok && strings.EqualFold(parent.Author.Username, p.Author.Username) {
			return true
		}
	}
	sameAuthor := 0
	for _, idx := range convGroup {
		if strings.EqualFold(posts[idx].Author.Username, p.Author.Username) {
			sameAuthor++
		}
	}
	if sameAuthor >= 2 {
		return true
	}
	return p.ShowMoreThread
}

// pickRoot выбирает корень группы: хронологически первый пост без
// родителя в корпусе, а если таких нет — просто первый.
func pickRoot(sorted []domain.Post, byID map[string]domain.Post) domain.Post {
	for _, p := range sorted {
		if p.InReplyToTweetID == "" {
			return p
		}
		if _, ok := byID[p.InReplyToTweetID]; !ok {
			return p
		}
	}
	return sorted[0]
}

func markProcessed(processed []bool, indices []int, kept []domain.Post, posts []domain.Post) {
	keptIDs := make(map[string]struct{}, len(kept))
	for _, p := range kept {
		keptIDs[p.ID] = struct{}{}
	}
	for _, idx := range indices {
		if _, ok := keptIDs[posts[idx].ID]; ok {
			processed[idx] = true
		}
	}
}

// sortChrono упорядочивает группу по возрастанию распарсенного момента.
// Если хоть одна дата группы не парсится, вся группа сортируется по
// идентификаторам: способы сравнения внутри одной сортировки не смешиваются.
func sortChrono(group []domain.Post) {
	allParsed := true
	for _, p := range group {
		if _, ok := parseCreatedAt(p.CreatedAt); !ok {
			allParsed = false
			break
		}
	}
	if allParsed {
		sort.SliceStable(group, func(i, j int) bool {
			ti, _ := parseCreatedAt(group[i].CreatedAt)
			tj, _ := parseCreatedAt(group[j].CreatedAt)
			return ti.Before(tj)
		})
		return
	}
	sort.SliceStable(group, func(i, j int) bool { return idLess(group[i].ID, group[j].ID) })
}

// representative возвращает момент и идентификатор, представляющие элемент
// при финальной сортировке ленты: для треда — его самый свежий пост.
func representative(it domain.TimelineItem) (string, string) {
	if it.Thread != nil {
		last := it.Thread.Tweets[len(it.Thread.Tweets)-1]
		return last.CreatedAt, last.ID
	}
	return it.Post.CreatedAt, it.Post.ID
}

// sortItems упорядочивает итоговую ленту по убыванию представительного
// момента, с тем же единообразным откатом на идентификаторы.
func sortItems(items []domain.TimelineItem) {
	allParsed := true
	for _, it := range items {
		createdAt, _ := representative(it)
		if _, ok := parseCreatedAt(createdAt); !ok {
			allParsed = false
			break
		}
	}
	if allParsed {
		sort.SliceStable(items, func(i, j int) bool {
			aCreated, _ := representative(items[i])
			bCreated, _ := representative(items[j])
			ta, _ := parseCreatedAt(aCreated)
			tb, _ := parseCreatedAt(bCreated)
			return tb.Before(ta)
		})
		return
	}
	sort.SliceStable(items, func(i, j int) bool {
		_, a := representative(items[i])
		_, b := representative(items[j])
		return idLess(b, a)
	})
}
