// Package videos serves external video search and the like/save
// memberships of persisted videos.
package videos

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/EduardoCrCo/final-backend-sub000/apperr"
	"github.com/EduardoCrCo/final-backend-sub000/auth"
	"github.com/EduardoCrCo/final-backend-sub000/httputil"
	"github.com/EduardoCrCo/final-backend-sub000/models"
	"github.com/EduardoCrCo/final-backend-sub000/store"
	"github.com/go-chi/chi/v5"
)

const (
	defaultMaxResults = 10
	maxMaxResults     = 50
)

var (
	errQueryRequired   = apperr.Validation("q is required", "q is required")
	errBadMaxResults   = apperr.Validation("maxResults must be an integer", "maxResults must be an integer")
	errVideoNotFound   = apperr.NotFound("video not found")
	errExternalMissing = apperr.Validation("video id is required")
)

// Searcher is the external video API.
type Searcher interface {
	Search(ctx context.Context, query string, maxResults int) ([]models.VideoSummary, error)
	Details(ctx context.Context, externalID string) (models.VideoDetails, error)
}

// Handler holds dependencies for video endpoints.
type Handler struct {
	Videos  store.Videos
	YouTube Searcher
}

type listResponse struct {
	Videos []models.Video `json:"videos"`
}

func writeList(w http.ResponseWriter, r *http.Request, videos []models.Video, err error) {
	if err != nil {
		httputil.WriteError(w, r, err)
		return
	}
	if videos == nil {
		videos = []models.Video{}
	}
	httputil.WriteJSON(w, http.StatusOK, listResponse{Videos: videos})
}

// maxResults reads the maxResults query parameter, clamped to [1, 50].
func maxResults(r *http.Request) (int, error) {
	raw := strings.TrimSpace(r.URL.Query().Get("maxResults"))
	if raw == "" {
		return defaultMaxResults, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, errBadMaxResults
	}
	return min(max(n, 1), maxMaxResults), nil
}

// HandleSearch queries the external API and upserts every hit. Hits are
// attributed to the caller when the request is authenticated.
func (h *Handler) HandleSearch(w http.ResponseWriter, r *http.Request) {
	query := strings.TrimSpace(r.URL.Query().Get("q"))
	if query == "" {
		httputil.WriteError(w, r, errQueryRequired)
		return
	}
	limit, err := maxResults(r)
	if err != nil {
		httputil.WriteError(w, r, err)
		return
	}

	hits, err := h.YouTube.Search(r.Context(), query, limit)
	if err != nil {
		httputil.WriteError(w, r, err)
		return
	}

	ownerID, _ := auth.UserID(r.Context())
	videos := make([]models.Video, 0, len(hits))
	for _, hit := range hits {
		v, err := h.Videos.UpsertByExternalID(r.Context(), hit.ToVideo(), ownerID)
		if err != nil {
			httputil.WriteError(w, r, err)
			return
		}
		videos = append(videos, v)
	}
	writeList(w, r, videos, nil)
}

// HandleDetails returns upstream details, including the formatted duration.
func (h *Handler) HandleDetails(w http.ResponseWriter, r *http.Request) {
	externalID := strings.TrimSpace(chi.URLParam(r, "externalId"))
	if externalID == "" {
		httputil.WriteError(w, r, errExternalMissing)
		return
	}
	d, err := h.YouTube.Details(r.Context(), externalID)
	if err != nil {
		httputil.WriteError(w, r, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, d)
}

// HandleListOwned lists videos first persisted by the caller's searches.
func (h *Handler) HandleListOwned(w http.ResponseWriter, r *http.Request) {
	userID, _ := auth.UserID(r.Context())
	videos, err := h.Videos.ListByOwner(r.Context(), userID)
	writeList(w, r, videos, err)
}

func (h *Handler) HandleListLiked(w http.ResponseWriter, r *http.Request) {
	userID, _ := auth.UserID(r.Context())
	videos, err := h.Videos.ListLikedBy(r.Context(), userID)
	writeList(w, r, videos, err)
}

func (h *Handler) HandleListSaved(w http.ResponseWriter, r *http.Request) {
	userID, _ := auth.UserID(r.Context())
	videos, err := h.Videos.ListSavedBy(r.Context(), userID)
	writeList(w, r, videos, err)
}

// membership runs one like/save mutation. A repeated add is rejected by the
// store with ErrAlreadyMember; removing a missing membership is a no-op.
func (h *Handler) membership(w http.ResponseWriter, r *http.Request,
	op func(ctx context.Context, videoID, userID string) (models.Video, error)) {
	userID, _ := auth.UserID(r.Context())
	v, err := op(r.Context(), chi.URLParam(r, "id"), userID)
	if errors.Is(err, store.ErrNotFound) {
		err = errVideoNotFound
	}
	if err != nil {
		httputil.WriteError(w, r, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, v)
}

func (h *Handler) HandleLike(w http.ResponseWriter, r *http.Request) {
	h.membership(w, r, h.Videos.AddLike)
}

func (h *Handler) HandleUnlike(w http.ResponseWriter, r *http.Request) {
	h.membership(w, r, h.Videos.RemoveLike)
}

func (h *Handler) HandleSave(w http.ResponseWriter, r *http.Request) {
	h.membership(w, r, h.Videos.AddSave)
}

func (h *Handler) HandleUnsave(w http.ResponseWriter, r *http.Request) {
	h.membership(w, r, h.Videos.RemoveSave)
}
