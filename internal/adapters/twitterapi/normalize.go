package twitterapi

import (
	"fmt"
	"regexp"
	"strings"

	"tweet-manager/internal/domain"
)

// shortFormLimit — номинальный лимит короткой формы платформы.
const shortFormLimit = 280

// Закрытый список служебных слов, на которых текст обычно не заканчивается:
// обрыв на таком слове выдаёт усечение.
var truncationEnders = map[string]struct{}{
	"the": {}, "a": {}, "an": {}, "to": {}, "in": {}, "on": {}, "at": {},
	"by": {}, "for": {}, "with": {}, "about": {}, "like": {}, "of": {}, "all": {},
}

var (
	// Плотные письменности: деванагари, арабская, иврит, тайская, CJK.
	denseScriptRE = regexp.MustCompile(`[\x{0900}-\x{097F}\x{0600}-\x{06FF}\x{0590}-\x{05FF}\x{0E00}-\x{0E7F}\x{3040}-\x{30FF}\x{3400}-\x{4DBF}\x{4E00}-\x{9FFF}]`)

	sentenceEndRE = regexp.MustCompile(`[.!?"]$`)

	// Хвостовой трекинговый линк: шортенер с токеном в самом конце.
	trailingTrackerRE = regexp.MustCompile(`\s*https://t\.co/\w+$`)
	// Намеренная короткая ссылка: шортенер с коротким токеном.
	intentionalShortLinkRE = regexp.MustCompile(`https://(?:t\.co|bit\.ly|buff\.ly|tinyurl\.com)/\w{1,7}(?:\b|$)`)

	trailingEllipsisRE = regexp.MustCompile(`\s*(?:…|\.{3,})$`)
	excessNewlinesRE   = regexp.MustCompile(`\n{3,}`)
)

// resolveText выбирает самое полное из перекрывающихся текстовых полей:
// явный расширенный текст, затем full_text вложенной расширенной записи,
// затем срез базового текста по display_text_range, затем базовый текст.
func resolveText(t rawTweet) string {
	if t.ExtendedText != "" {
		return t.ExtendedText
	}
	if t.ExtendedTweet != nil && t.ExtendedTweet.FullText != "" {
		return t.ExtendedTweet.FullText
	}
	if len(t.DisplayTextRange) == 2 && t.Text != "" {
		runes := []rune(t.Text)
		from, to := t.DisplayTextRange[0], t.DisplayTextRange[1]
		if from >= 0 && to > from && to <= len(runes) {
			return string(runes[from:to])
		}
	}
	return t.Text
}

// truncationRule — одно независимое правило каскада. Решающие правила
// проверяются раньше эвристик и сразу завершают каскад.
type truncationRule func(text string) bool

var truncationRules = []truncationRule{
	endsWithEllipsis,
	ellipsisBeforeLink,
	trailingStopWord,
	scriptAwareLength,
	overShortFormLimit,
}

// detectTruncated решает, обрезан ли текст. Правила проверяются по
// порядку с коротким замыканием; классификация выполняется до очистки,
// чтобы видеть хвостовые маркеры усечения.
func detectTruncated(text string) bool {
	if strings.TrimSpace(text) == "" {
		return false
	}
	for _, rule := range truncationRules {
		if rule(text) {
			return true
		}
	}
	return false
}

func endsWithEllipsis(text string) bool {
	return strings.HasSuffix(text, "…") || strings.HasSuffix(text, "...")
}

// ellipsisBeforeLink ловит обрезанную ссылку: многоточие, сразу за которым
// идёт фрагмент URL.
func ellipsisBeforeLink(text string) bool {
	return strings.Contains(text, "… https://") || strings.Contains(text, "... https://")
}

func trailingStopWord(text string) bool {
	fields := strings.Fields(text)
	if len(fields) == 0 {
		return false
	}
	last := strings.ToLower(fields[len(fields)-1])
	_, ok := truncationEnders[last]
	return ok
}

// scriptAwareLength применяет порог длины с поправкой на письменность:
// плотные письменности несут больше смысла на символ, для них порог ниже.
func scriptAwareLength(text string) bool {
	trimmed := strings.TrimSpace(text)
	threshold := 240
	if denseScriptRE.MatchString(trimmed) {
		threshold = 180
	}
	return len([]rune(trimmed)) >= threshold && !sentenceEndRE.MatchString(trimmed)
}

func overShortFormLimit(text string) bool {
	return len([]rune(text)) > shortFormLimit
}

// cleanText вычищает служебные хвосты. Вызывается после классификации
// усечения: она должна видеть исходные маркеры.
func cleanText(text string) string {
	cleaned := text
	if loc := trailingTrackerRE.FindStringIndex(cleaned); loc != nil {
		rest := cleaned[:loc[0]]
		if !intentionalShortLinkRE.MatchString(rest) {
			cleaned = rest
		}
	}
	cleaned = trailingEllipsisRE.ReplaceAllString(cleaned, "")
	cleaned = excessNewlinesRE.ReplaceAllString(cleaned, "\n\n")
	return cleaned
}

type mediaCandidate struct {
	url     string
	preview string
}

// extractMedia объединяет три возможных источника вложений, дедуплицирует
// по URL и классифицирует тип по расширению и пути.
func extractMedia(t rawTweet) []domain.Media {
	var candidates []mediaCandidate
	for _, u := range t.MediaURLs {
		candidates = append(candidates, mediaCandidate{url: u})
	}
	if t.ExtendedEntities != nil {
		candidates = append(candidates, entityCandidates(t.ExtendedEntities.Media)...)
	}
	if t.Entities != nil {
		candidates = append(candidates, entityCandidates(t.Entities.Media)...)
	}
	if t.VideoURL != "" {
		candidates = append(candidates, mediaCandidate{url: t.VideoURL, preview: t.ThumbnailURL})
	}

	seen := make(map[string]struct{}, len(candidates))
	var media []domain.Media
	for _, cand := range candidates {
		if cand.url == "" {
			continue
		}
		if _, ok := seen[cand.url]; ok {
			continue
		}
		seen[cand.url] = struct{}{}
		media = append(media, domain.Media{
			MediaKey:        fmt.Sprintf("media-%s-%d", t.TweetID, len(media)),
			Type:            classifyMedia(cand.url),
			URL:             cand.url,
			PreviewImageURL: cand.preview,
		})
	}
	return media
}

func entityCandidates(items []rawMedia) []mediaCandidate {
	var out []mediaCandidate
	for _, m := range items {
		cand := mediaCandidate{url: m.MediaURLHTTPS}
		if m.VideoInfo != nil {
			if best := bestVideoVariant(m.VideoInfo.Variants); best != "" {
				cand.url = best
				cand.preview = m.MediaURLHTTPS
			}
		}
		out = append(out, cand)
	}
	return out
}

// bestVideoVariant выбирает video/mp4 вариант с наибольшим битрейтом.
func bestVideoVariant(variants []rawVariant) string {
	best := ""
	bestBitrate := -1
	for _, v := range variants {
		if v.ContentType != "video/mp4" || v.URL == "" {
			continue
		}
		if v.Bitrate > bestBitrate {
			best = v.URL
			bestBitrate = v.Bitrate
		}
	}
	return best
}

func classifyMedia(url string) domain.MediaType {
	switch {
	case strings.Contains(url, ".mp4") || strings.Contains(url, "/video/"):
		return domain.MediaVideo
	case strings.Contains(url, ".gif"):
		return domain.MediaAnimatedGIF
	default:
		return domain.MediaPhoto
	}
}

// normalizeTweet приводит сырую запись к каноничному посту. Сломанные
// записи не отбрасываются: отсутствующий автор даёт пустые поля, дата
// сохраняется как есть — неразборчивые даты обрабатывает сортировка.
func normalizeTweet(t rawTweet) domain.Post {
	resolved := resolveText(t)
	truncated := detectTruncated(resolved)

	post := domain.Post{
		ID:               t.TweetID,
		Text:             t.Text,
		FullText:         cleanText(resolved),
		CreatedAt:        t.CreationDate,
		ConversationID:   t.ConversationID,
		InReplyToTweetID: t.InReplyToTweetID,
		InReplyToUserID:  t.InReplyToUserID,
		ReplyCount:       t.ReplyCount,
		RetweetCount:     t.RetweetCount,
		LikeCount:        t.FavoriteCount,
		QuoteCount:       t.QuoteCount,
		Media:            extractMedia(t),
		IsLong:           truncated,
		ShowMoreThread:   t.ShowMoreThread,
		Category:         domain.CategoryNormal,
	}
	if post.ConversationID == "" {
		post.ConversationID = t.TweetID
	}
	if post.IsLong {
		post.Category = domain.CategoryLong
	}
	if t.User != nil {
		post.Author = domain.Author{
			ID:              t.User.UserID,
			Name:            t.User.Name,
			Username:        t.User.Username,
			ProfileImageURL: t.User.ProfilePicURL,
		}
	}
	if ref := referencedStub("quoted", t.QuotedStatus); ref != nil {
		post.ReferencedTweets = append(post.ReferencedTweets, *ref)
	}
	if ref := referencedStub("retweeted", t.RetweetStatus); ref != nil {
		post.ReferencedTweets = append(post.ReferencedTweets, *ref)
	}
	return post
}

// referencedStub извлекает вложенный пост по тем же правилам, но только
// на один уровень: вложенность внутри вложенности не раскрывается.
func referencedStub(kind string, t *rawTweet) *domain.ReferencedTweet {
	if t == nil || t.TweetID == "" {
		return nil
	}
	ref := domain.ReferencedTweet{
		Type:  kind,
		ID:    t.TweetID,
		Text:  cleanText(resolveText(*t)),
		Media: extractMedia(*t),
	}
	if t.User != nil {
		ref.Author = domain.Author{
			ID:              t.User.UserID,
			Name:            t.User.Name,
			Username:        t.User.Username,
			ProfileImageURL: t.User.ProfilePicURL,
		}
	}
	return &ref
}
