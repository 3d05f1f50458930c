package reviews

import (
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
	defaultPageSize = 10
	maxPageSize     = 50
)

var (
	errReviewNotFound  = apperr.NotFound("review not found")
	errAlreadyReviewed = apperr.AlreadyExists("you have already reviewed this video")
)

// Handler holds dependencies for review endpoints.
type Handler struct {
	Reviews store.Reviews
}

type listResponse struct {
	Reviews []models.Review `json:"reviews"`
}

// Pagination describes one page of the public listing.
type Pagination struct {
	Page  int `json:"page"`
	Limit int `json:"limit"`
	Total int `json:"total"`
	Pages int `json:"pages"`
}

type publicResponse struct {
	Reviews    []models.Review `json:"reviews"`
	Pagination Pagination      `json:"pagination"`
}

func hidden(err error) error {
	if errors.Is(err, store.ErrNotFound) {
		return errReviewNotFound
	}
	return err
}

// HandleListMine lists the caller's reviews, newest first.
func (h *Handler) HandleListMine(w http.ResponseWriter, r *http.Request) {
	userID, _ := auth.UserID(r.Context())
	reviews, err := h.Reviews.ListByUser(r.Context(), userID)
	if err != nil {
		httputil.WriteError(w, r, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, listResponse{Reviews: nonNil(reviews)})
}

// HandleCreate stores a review. Each user may review a video once.
func (h *Handler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	userID, _ := auth.UserID(r.Context())
	var in models.ReviewInput
	if err := httputil.DecodeJSON(w, r, &in); err != nil {
		httputil.WriteError(w, r, err)
		return
	}
	in.Normalize()
	if errs := models.Validate(in); errs != nil {
		httputil.WriteError(w, r, errs)
		return
	}

	rv := models.Review{
		UserID:         userID,
		VideoID:        in.VideoID,
		VideoTitle:     strings.TrimSpace(in.VideoTitle),
		VideoThumbnail: in.VideoThumbnail,
		Rating:         in.Rating,
		Title:          in.Title,
		Content:        in.Content,
		Tags:           in.Tags,
		IsPublic:       in.IsPublic == nil || *in.IsPublic,
	}
	if err := h.Reviews.Create(r.Context(), &rv); err != nil {
		if errors.Is(err, store.ErrDuplicate) {
			err = errAlreadyReviewed
		}
		httputil.WriteError(w, r, err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, rv)
}

// queryInt parses a positive integer query parameter, returning def when it
// is absent or malformed.
func queryInt(r *http.Request, key string, def int) int {
	n, err := strconv.Atoi(r.URL.Query().Get(key))
	if err != nil || n < 1 {
		return def
	}
	return n
}

// HandleListPublic pages through public reviews, optionally for one video.
func (h *Handler) HandleListPublic(w http.ResponseWriter, r *http.Request) {
	page := queryInt(r, "page", 1)
	limit := min(queryInt(r, "limit", defaultPageSize), maxPageSize)

	reviews, total, err := h.Reviews.ListPublic(r.Context(), store.PublicFilter{
		VideoID: strings.TrimSpace(r.URL.Query().Get("videoId")),
		Offset:  (page - 1) * limit,
		Limit:   limit,
	})
	if err != nil {
		httputil.WriteError(w, r, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, publicResponse{
		Reviews: nonNil(reviews),
		Pagination: Pagination{
			Page:  page,
			Limit: limit,
			Total: total,
			Pages: (total + limit - 1) / limit,
		},
	})
}

// HandleGet returns a review to its author, or to anyone when it is public.
func (h *Handler) HandleGet(w http.ResponseWriter, r *http.Request) {
	userID, _ := auth.UserID(r.Context())
	rv, err := h.Reviews.ByID(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		httputil.WriteError(w, r, hidden(err))
		return
	}
	if !rv.IsPublic && rv.UserID != userID {
		httputil.WriteError(w, r, errReviewNotFound)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, rv)
}

// HandleUpdate replaces the rating and text of the caller's review. The
// reviewed video cannot change.
func (h *Handler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	userID, _ := auth.UserID(r.Context())
	var in models.ReviewUpdateInput
	if err := httputil.DecodeJSON(w, r, &in); err != nil {
		httputil.WriteError(w, r, err)
		return
	}
	in.Normalize()
	if errs := models.Validate(in); errs != nil {
		httputil.WriteError(w, r, errs)
		return
	}

	rv, err := h.Reviews.ByID(r.Context(), chi.URLParam(r, "id"))
	if err == nil && rv.UserID != userID {
		err = store.ErrNotFound
	}
	if err != nil {
		httputil.WriteError(w, r, hidden(err))
		return
	}

	rv.Rating, rv.Title, rv.Content, rv.Tags = in.Rating, in.Title, in.Content, in.Tags
	if in.IsPublic != nil {
		rv.IsPublic = *in.IsPublic
	}
	updated, err := h.Reviews.Update(r.Context(), rv)
	if err != nil {
		httputil.WriteError(w, r, hidden(err))
		return
	}
	httputil.WriteJSON(w, http.StatusOK, updated)
}

// HandleDelete removes the caller's review.
func (h *Handler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	userID, _ := auth.UserID(r.Context())
	if err := h.Reviews.Delete(r.Context(), chi.URLParam(r, "id"), userID); err != nil {
		httputil.WriteError(w, r, hidden(err))
		return
	}
	httputil.WriteMessage(w, http.StatusOK, "review deleted")
}

func nonNil(reviews []models.Review) []models.Review {
	if reviews == nil {
		return []models.Review{}
	}
	return reviews
}
