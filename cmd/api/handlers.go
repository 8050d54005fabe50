package main

import (
	"encoding/json"
	"errors"
	"net/http"

	chi "github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"tweet-manager/internal/domain"
	"tweet-manager/internal/usecase/timeline"
)

const apiVersion = "1.0.0"

type handler struct {
	timeline domain.TimelineService
	repo     domain.PostRepo
	log      zerolog.Logger
}

func newHandler(tl domain.TimelineService, repo domain.PostRepo, logger zerolog.Logger) *handler {
	return &handler{timeline: tl, repo: repo, log: logger}
}

func (h *handler) routes(r chi.Router) {
	r.Get("/", h.health)
	r.Route("/api/tweets", func(r chi.Router) {
		r.Get("/user/{username}", h.userTweets)
		r.Get("/tweet/{id}", h.tweetDetails)
		r.Get("/saved", h.listSaved)
		r.Get("/saved/users", h.savedUsers)
		r.Get("/saved/user/{username}", h.listSavedByUser)
		r.Post("/save", h.savePosts)
		r.Delete("/user/{username}", h.deleteByUser)
		r.Delete("/{id}", h.deleteByID)
	})
}

// apiResponse — единый конверт ответа.
type apiResponse struct {
	Success bool        `json:"success"`
	Count   *int        `json:"count,omitempty"`
	Data    interface{} `json:"data,omitempty"`
	Message string      `json:"message,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, resp apiResponse) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(resp)
}

func (h *handler) writeError(w http.ResponseWriter, err error, msg string) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, domain.ErrUserNotFound), errors.Is(err, domain.ErrPostNotFound):
		status = http.StatusNotFound
	case errors.Is(err, domain.ErrForbidden):
		status = http.StatusForbidden
	case errors.Is(err, domain.ErrRateLimited), errors.Is(err, domain.ErrRecentlyFailed):
		status = http.StatusTooManyRequests
	}
	h.log.Error().Err(err).Int("status", status).Msg(msg)
	writeJSON(w, status, apiResponse{Success: false, Message: err.Error()})
}

func (h *handler) health(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, apiResponse{
		Success: true,
		Message: "Tweet Manager API is running",
		Data:    map[string]string{"version": apiVersion},
	})
}

// userTweets выгружает ленту автора и собирает треды.
func (h *handler) userTweets(w http.ResponseWriter, r *http.Request) {
	username := chi.URLParam(r, "username")
	posts, err := h.timeline.FetchUserTweets(r.Context(), username)
	if err != nil {
		h.writeError(w, err, "не удалось выгрузить ленту")
		return
	}
	items := timeline.GroupThreads(posts)
	count := len(items)
	writeJSON(w, http.StatusOK, apiResponse{Success: true, Count: &count, Data: items})
}

func (h *handler) tweetDetails(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	post, err := h.timeline.FetchTweetDetails(r.Context(), id)
	if err != nil {
		h.writeError(w, err, "не удалось получить пост")
		return
	}
	writeJSON(w, http.StatusOK, apiResponse{Success: true, Data: post})
}

func (h *handler) listSaved(w http.ResponseWriter, r *http.Request) {
	posts, err := h.repo.ListSaved(r.Context())
	if err != nil {
		h.writeError(w, err, "не удалось прочитать сохранённые посты")
		return
	}
	count := len(posts)
	writeJSON(w, http.StatusOK, apiResponse{Success: true, Count: &count, Data: posts})
}

func (h *handler) listSavedByUser(w http.ResponseWriter, r *http.Request) {
	username := chi.URLParam(r, "username")
	posts, err := h.repo.ListSavedByUser(r.Context(), username)
	if err != nil {
		h.writeError(w, err, "не удалось прочитать посты пользователя")
		return
	}
	count := len(posts)
	writeJSON(w, http.StatusOK, apiResponse{Success: true, Count: &count, Data: posts})
}

func (h *handler) savedUsers(w http.ResponseWriter, r *http.Request) {
	users, err := h.repo.SavedUsers(r.Context())
	if err != nil {
		h.writeError(w, err, "не удалось собрать список пользователей")
		return
	}
	count := len(users)
	writeJSON(w, http.StatusOK, apiResponse{Success: true, Count: &count, Data: users})
}

type saveRequest struct {
	Tweets   []domain.Post      `json:"tweets"`
	Username string             `json:"username"`
	Options  domain.SaveOptions `json:"options"`
}

func (h *handler) savePosts(w http.ResponseWriter, r *http.Request) {
	var req saveRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, apiResponse{Success: false, Message: "некорректное тело запроса"})
		return
	}
	if len(req.Tweets) == 0 {
		writeJSON(w, http.StatusBadRequest, apiResponse{Success: false, Message: "список tweets пуст"})
		return
	}
	res, err := h.repo.SavePosts(r.Context(), req.Tweets, req.Username, req.Options)
	if err != nil {
		h.writeError(w, err, "не удалось сохранить посты")
		return
	}
	count := res.Saved
	writeJSON(w, http.StatusOK, apiResponse{
		Success: true,
		Count:   &count,
		Data:    res,
	})
}

func (h *handler) deleteByID(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := h.repo.DeleteByID(r.Context(), id); err != nil {
		h.writeError(w, err, "не удалось удалить пост")
		return
	}
	writeJSON(w, http.StatusOK, apiResponse{Success: true, Message: "пост удалён"})
}

func (h *handler) deleteByUser(w http.ResponseWriter, r *http.Request) {
	username := chi.URLParam(r, "username")
	deleted, err := h.repo.DeleteByUser(r.Context(), username)
	if err != nil {
		h.writeError(w, err, "не удалось удалить посты пользователя")
		return
	}
	count := int(deleted)
	writeJSON(w, http.StatusOK, apiResponse{Success: true, Count: &count, Message: "посты пользователя удалены"})
}
