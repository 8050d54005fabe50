package domain

// MoreComplete выбирает из двух версий поста с одним id более полную.
// Приоритет: запись с расширенным текстом, затем более длинный текст,
// затем большее число вложений. При равенстве остаётся первая версия.
func MoreComplete(a, b Post) Post {
	aExt := a.FullText != "" && a.FullText != a.Text
	bExt := b.FullText != "" && b.FullText != b.Text
	if aExt != bExt {
		if aExt {
			return a
		}
		return b
	}
	if len(a.FullText) != len(b.FullText) {
		if len(a.FullText) > len(b.FullText) {
			return a
		}
		return b
	}
	if len(b.Media) > len(a.Media) {
		return b
	}
	return a
}
