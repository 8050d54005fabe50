package domain

import "encoding/json"

// TimelineItem — элемент ленты: ровно одно из полей заполнено.
// Вместо проверки наличия поля "tweets" в сыром объекте используется
// явный тип-сумма с двумя вариантами.
type TimelineItem struct {
	Post   *Post
	Thread *Thread
}

// NewPostItem оборачивает одиночный пост.
func NewPostItem(post Post) TimelineItem {
	return TimelineItem{Post: &post}
}

// NewThreadItem оборачивает тред.
func NewThreadItem(thread Thread) TimelineItem {
	return TimelineItem{Thread: &thread}
}

// IsThread возвращает true для треда.
func (it TimelineItem) IsThread() bool {
	return it.Thread != nil
}

// Size — количество постов в элементе ленты.
func (it TimelineItem) Size() int {
	if it.Thread != nil {
		return len(it.Thread.Tweets)
	}
	if it.Post != nil {
		return 1
	}
	return 0
}

// MarshalJSON сериализует элемент в форму, которую ожидает фронтенд:
// тред — объект с полем "tweets", одиночный пост — сам объект поста.
func (it TimelineItem) MarshalJSON() ([]byte, error) {
	if it.Thread != nil {
		return json.Marshal(it.Thread)
	}
	return json.Marshal(it.Post)
}
