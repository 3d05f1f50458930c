package users

import (
	"context"
	"errors"
	"io"
	"net/http"

	"github.com/EduardoCrCo/final-backend-sub000/apperr"
	"github.com/EduardoCrCo/final-backend-sub000/auth"
	"github.com/EduardoCrCo/final-backend-sub000/httputil"
	"github.com/EduardoCrCo/final-backend-sub000/models"
	"github.com/EduardoCrCo/final-backend-sub000/storage"
	"github.com/EduardoCrCo/final-backend-sub000/store"
)

var (
	errUserNotFound     = apperr.NotFound("user not found")
	errStorageDisabled  = apperr.Unavailable("avatar storage not configured")
	errAvatarMissing    = apperr.Validation("avatar file is required")
	errAvatarTooLarge   = apperr.Validation("avatar must be at most 2 MB")
	errInvalidMultipart = apperr.Validation("invalid multipart form")
)

// AvatarStore uploads avatar images and returns their public URL.
type AvatarStore interface {
	Put(ctx context.Context, userID, contentType string, r io.Reader, size int64) (string, error)
}

// Handler holds dependencies for account and profile endpoints.
type Handler struct {
	Auth   *auth.Service
	Tokens *auth.Tokens
	Users  store.Users
	// Avatars is nil when object storage is not configured.
	Avatars AvatarStore
}

type sessionResponse struct {
	Token string      `json:"token"`
	User  models.User `json:"user"`
}

func (h *Handler) session(w http.ResponseWriter, r *http.Request, status int, u models.User) {
	token, err := h.Tokens.Issue(u.ID)
	if err != nil {
		httputil.WriteError(w, r, apperr.Internal("issue token", err))
		return
	}
	httputil.WriteJSON(w, status, sessionResponse{Token: token, User: u})
}

// HandleSignup creates an account and signs it in.
func (h *Handler) HandleSignup(w http.ResponseWriter, r *http.Request) {
	var in models.SignupInput
	if err := httputil.DecodeJSON(w, r, &in); err != nil {
		httputil.WriteError(w, r, err)
		return
	}
	in.Normalize()
	if errs := models.Validate(in); errs != nil {
		httputil.WriteError(w, r, errs)
		return
	}

	u, err := h.Auth.Signup(r.Context(), in)
	if err != nil {
		httputil.WriteError(w, r, err)
		return
	}
	h.session(w, r, http.StatusCreated, u)
}

// HandleSignin exchanges credentials for a token.
func (h *Handler) HandleSignin(w http.ResponseWriter, r *http.Request) {
	var in models.SigninInput
	if err := httputil.DecodeJSON(w, r, &in); err != nil {
		httputil.WriteError(w, r, err)
		return
	}
	in.Normalize()
	if errs := models.Validate(in); errs != nil {
		httputil.WriteError(w, r, errs)
		return
	}

	u, err := h.Auth.Authenticate(r.Context(), in.Email, in.Password)
	if err != nil {
		httputil.WriteError(w, r, err)
		return
	}
	h.session(w, r, http.StatusOK, u)
}

// HandleMe returns the caller's profile.
func (h *Handler) HandleMe(w http.ResponseWriter, r *http.Request) {
	userID, _ := auth.UserID(r.Context())
	u, err := h.Users.ByID(r.Context(), userID)
	if errors.Is(err, store.ErrNotFound) || (err == nil && !u.IsActive) {
		httputil.WriteError(w, r, errUserNotFound)
		return
	}
	if err != nil {
		httputil.WriteError(w, r, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, u)
}

// HandleUpdateProfile changes name and about.
func (h *Handler) HandleUpdateProfile(w http.ResponseWriter, r *http.Request) {
	userID, _ := auth.UserID(r.Context())
	var in models.ProfileInput
	if err := httputil.DecodeJSON(w, r, &in); err != nil {
		httputil.WriteError(w, r, err)
		return
	}
	in.Normalize()
	if errs := models.Validate(in); errs != nil {
		httputil.WriteError(w, r, errs)
		return
	}

	u, err := h.Users.UpdateProfile(r.Context(), userID, in.Name, in.About)
	h.writeUser(w, r, u, err)
}

// HandleUpdateAvatar points the avatar at an external URL.
func (h *Handler) HandleUpdateAvatar(w http.ResponseWriter, r *http.Request) {
	userID, _ := auth.UserID(r.Context())
	var in models.AvatarInput
	if err := httputil.DecodeJSON(w, r, &in); err != nil {
		httputil.WriteError(w, r, err)
		return
	}
	if errs := models.Validate(in); errs != nil {
		httputil.WriteError(w, r, errs)
		return
	}

	u, err := h.Users.UpdateAvatar(r.Context(), userID, in.Avatar)
	h.writeUser(w, r, u, err)
}

// HandleUploadAvatar stores a multipart "avatar" image and sets it as the
// caller's avatar.
func (h *Handler) HandleUploadAvatar(w http.ResponseWriter, r *http.Request) {
	userID, _ := auth.UserID(r.Context())
	if h.Avatars == nil {
		httputil.WriteError(w, r, errStorageDisabled)
		return
	}

	// Leave room for multipart framing around the file itself.
	httputil.MaxBody(w, r, storage.MaxAvatarSize+64<<10)
	if err := r.ParseMultipartForm(storage.MaxAvatarSize); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			httputil.WriteError(w, r, err)
			return
		}
		httputil.WriteError(w, r, errInvalidMultipart)
		return
	}
	defer r.MultipartForm.RemoveAll()

	file, header, err := r.FormFile("avatar")
	if err != nil {
		httputil.WriteError(w, r, errAvatarMissing)
		return
	}
	defer file.Close()
	if header.Size > storage.MaxAvatarSize {
		httputil.WriteError(w, r, errAvatarTooLarge)
		return
	}

	sniff := make([]byte, 512)
	n, _ := io.ReadFull(file, sniff)
	contentType := http.DetectContentType(sniff[:n])
	if _, err := file.Seek(0, io.SeekStart); err != nil {
		httputil.WriteError(w, r, apperr.Internal("rewind avatar", err))
		return
	}

	url, err := h.Avatars.Put(r.Context(), userID, contentType, file, header.Size)
	if err != nil {
		httputil.WriteError(w, r, err)
		return
	}
	u, err := h.Users.UpdateAvatar(r.Context(), userID, url)
	h.writeUser(w, r, u, err)
}

// HandleDeactivate soft-deletes the caller's account.
func (h *Handler) HandleDeactivate(w http.ResponseWriter, r *http.Request) {
	userID, _ := auth.UserID(r.Context())
	if err := h.Users.Deactivate(r.Context(), userID); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			err = errUserNotFound
		}
		httputil.WriteError(w, r, err)
		return
	}
	httputil.WriteMessage(w, http.StatusOK, "account deactivated")
}

func (h *Handler) writeUser(w http.ResponseWriter, r *http.Request, u models.User, err error) {
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			err = errUserNotFound
		}
		httputil.WriteError(w, r, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, u)
}
