package domain

import "errors"

// ErrUserNotFound возвращается, если username не резолвится в идентификатор автора.
var ErrUserNotFound = errors.New("пользователь не найден")

// ErrPostNotFound возвращается, если пост отсутствует в хранилище.
var ErrPostNotFound = errors.New("пост не найден")

// ErrForbidden возвращается при терминальном отказе внешнего API (403):
// повторять запрос бессмысленно, исчерпана квота или нет прав.
var ErrForbidden = errors.New("доступ к внешнему API запрещён")

// ErrRateLimited возвращается, когда внешний API ограничил частоту запросов
// и локальные повторы исчерпаны.
var ErrRateLimited = errors.New("внешний API ограничил частоту запросов")

// ErrRecentlyFailed возвращается, если запрос к этому URL недавно завершился
// ошибкой и период охлаждения ещё не истёк.
var ErrRecentlyFailed = errors.New("запрос недавно завершился ошибкой, повтор отложен")
