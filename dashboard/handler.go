package dashboard

import (
	"errors"
	"net/http"

	"github.com/EduardoCrCo/final-backend-sub000/apperr"
	"github.com/EduardoCrCo/final-backend-sub000/httputil"
	"github.com/EduardoCrCo/final-backend-sub000/store"
	"github.com/go-chi/chi/v5"
)

const fetchFailed = "error fetching statistics"

var (
	errUserNotFound  = apperr.NotFound("user not found")
	errVideoNotFound = apperr.NotFound("video not found")
)

// Handler serves the statistics endpoints.
type Handler struct {
	Stats *Service
}

// fail reports a missing entity as notFound, when given, and every other
// failure as a generic 500. The cause is only shown outside production.
func fail(w http.ResponseWriter, r *http.Request, err error, notFound error) {
	if notFound != nil && errors.Is(err, store.ErrNotFound) {
		httputil.WriteError(w, r, notFound)
		return
	}
	httputil.WriteError(w, r, apperr.Internal(fetchFailed, err))
}

func (h *Handler) HandleUsersStats(w http.ResponseWriter, r *http.Request) {
	out, err := h.Stats.UsersStats(r.Context())
	if err != nil {
		fail(w, r, err, nil)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, out)
}

func (h *Handler) HandleUserStats(w http.ResponseWriter, r *http.Request) {
	out, err := h.Stats.UserStatsByID(r.Context(), chi.URLParam(r, "userId"))
	if err != nil {
		fail(w, r, err, errUserNotFound)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, out)
}

func (h *Handler) HandleVideosStats(w http.ResponseWriter, r *http.Request) {
	out, err := h.Stats.VideosStats(r.Context())
	if err != nil {
		fail(w, r, err, nil)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, out)
}

func (h *Handler) HandleVideoStats(w http.ResponseWriter, r *http.Request) {
	out, err := h.Stats.VideoStatsByID(r.Context(), chi.URLParam(r, "videoId"))
	if err != nil {
		fail(w, r, err, errVideoNotFound)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, out)
}
