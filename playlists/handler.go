package playlists

import (
	"errors"
	"net/http"
	"strings"

	"github.com/EduardoCrCo/final-backend-sub000/apperr"
	"github.com/EduardoCrCo/final-backend-sub000/auth"
	"github.com/EduardoCrCo/final-backend-sub000/httputil"
	"github.com/EduardoCrCo/final-backend-sub000/models"
	"github.com/EduardoCrCo/final-backend-sub000/store"
	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"
)

var (
	errPlaylistNotFound = apperr.NotFound("playlist not found")
	errAlreadyInList    = apperr.AlreadyExists("video already in playlist")
	errNoVideoRef       = apperr.Validation("video must have an id, a thumbnail or a title")
)

// Handler holds dependencies for playlist endpoints.
type Handler struct {
	Playlists store.Playlists
}

// notOwned hides playlists of other users behind the same 404 as missing ones.
func notOwned(err error) error {
	if errors.Is(err, store.ErrNotFound) {
		return errPlaylistNotFound
	}
	return err
}

func writePlaylist(w http.ResponseWriter, r *http.Request, status int, p models.Playlist, err error) {
	if err != nil {
		httputil.WriteError(w, r, notOwned(err))
		return
	}
	if p.Videos == nil {
		p.Videos = []models.VideoSnapshot{}
	}
	httputil.WriteJSON(w, status, p)
}

// HandleList lists the caller's playlists.
func (h *Handler) HandleList(w http.ResponseWriter, r *http.Request) {
	userID, _ := auth.UserID(r.Context())
	lists, err := h.Playlists.ListByUser(r.Context(), userID)
	if err != nil {
		httputil.WriteError(w, r, err)
		return
	}
	for i := range lists {
		if lists[i].Videos == nil {
			lists[i].Videos = []models.VideoSnapshot{}
		}
	}
	if lists == nil {
		lists = []models.Playlist{}
	}
	httputil.WriteJSON(w, http.StatusOK, map[string]interface{}{"playlists": lists})
}

// HandleCreate creates an empty playlist.
func (h *Handler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	userID, _ := auth.UserID(r.Context())
	var in models.PlaylistInput
	if err := httputil.DecodeJSON(w, r, &in); err != nil {
		httputil.WriteError(w, r, err)
		return
	}
	in.Normalize()
	if errs := models.Validate(in); errs != nil {
		httputil.WriteError(w, r, errs)
		return
	}

	p := models.Playlist{UserID: userID, Name: in.Name, Description: in.Description}
	if err := h.Playlists.Create(r.Context(), &p); err != nil {
		httputil.WriteError(w, r, err)
		return
	}
	log.Ctx(r.Context()).Info().Str("playlist_id", p.ID).Msg("playlist created")
	writePlaylist(w, r, http.StatusCreated, p, nil)
}

// HandleGet returns one of the caller's playlists with its videos in
// insertion order.
func (h *Handler) HandleGet(w http.ResponseWriter, r *http.Request) {
	userID, _ := auth.UserID(r.Context())
	p, err := h.Playlists.ByID(r.Context(), chi.URLParam(r, "id"))
	if err == nil && p.UserID != userID {
		err = store.ErrNotFound
	}
	writePlaylist(w, r, http.StatusOK, p, err)
}

// HandleUpdate renames a playlist or changes its description.
func (h *Handler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	userID, _ := auth.UserID(r.Context())
	var in models.PlaylistInput
	if err := httputil.DecodeJSON(w, r, &in); err != nil {
		httputil.WriteError(w, r, err)
		return
	}
	in.Normalize()
	if errs := models.Validate(in); errs != nil {
		httputil.WriteError(w, r, errs)
		return
	}

	p, err := h.Playlists.Update(r.Context(), chi.URLParam(r, "id"), userID, in.Name, in.Description)
	writePlaylist(w, r, http.StatusOK, p, err)
}

// HandleDelete removes a playlist and its snapshots.
func (h *Handler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	userID, _ := auth.UserID(r.Context())
	if err := h.Playlists.Delete(r.Context(), chi.URLParam(r, "id"), userID); err != nil {
		httputil.WriteError(w, r, notOwned(err))
		return
	}
	httputil.WriteMessage(w, http.StatusOK, "playlist deleted")
}

// HandleAddVideo appends a snapshot. A video whose resolved id is already
// present is rejected.
func (h *Handler) HandleAddVideo(w http.ResponseWriter, r *http.Request) {
	userID, _ := auth.UserID(r.Context())
	var in models.SnapshotInput
	if err := httputil.DecodeJSON(w, r, &in); err != nil {
		httputil.WriteError(w, r, err)
		return
	}
	in.Normalize()
	if in.VideoID == "" && in.Thumbnail == "" && in.Title == "" {
		httputil.WriteError(w, r, errNoVideoRef)
		return
	}
	if errs := models.Validate(in); errs != nil {
		httputil.WriteError(w, r, errs)
		return
	}

	p, err := h.Playlists.AppendVideo(r.Context(), chi.URLParam(r, "id"), userID, in.Snapshot())
	if errors.Is(err, store.ErrAlreadyMember) {
		err = errAlreadyInList
	}
	writePlaylist(w, r, http.StatusOK, p, err)
}

// HandleRemoveVideo drops every snapshot with the given resolved id. Removing
// a video that is not in the playlist succeeds without changes.
func (h *Handler) HandleRemoveVideo(w http.ResponseWriter, r *http.Request) {
	userID, _ := auth.UserID(r.Context())
	videoID := strings.TrimSpace(chi.URLParam(r, "videoId"))
	p, err := h.Playlists.RemoveVideo(r.Context(), chi.URLParam(r, "id"), userID, videoID)
	writePlaylist(w, r, http.StatusOK, p, err)
}
