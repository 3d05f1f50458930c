package auth

import (
	"context"
	"net/http"
	"strings"

	"github.com/EduardoCrCo/final-backend-sub000/apperr"
	"github.com/EduardoCrCo/final-backend-sub000/httputil"
	"github.com/rs/zerolog"
)

type contextKey string

// UserIDKey is the context key used to store the authenticated user ID.
const UserIDKey contextKey = "user_id"

var errMissingToken = apperr.Unauthorized("authorization required")

// UserID returns the authenticated user id from ctx, if present.
func UserID(ctx context.Context) (string, bool) {
	uid, ok := ctx.Value(UserIDKey).(string)
	return uid, ok && uid != ""
}

// WithUserID returns a copy of ctx carrying uid.
func WithUserID(ctx context.Context, uid string) context.Context {
	zerolog.Ctx(ctx).UpdateContext(func(c zerolog.Context) zerolog.Context {
		return c.Str("user_id", uid)
	})
	return context.WithValue(ctx, UserIDKey, uid)
}

func bearer(r *http.Request) (string, bool) {
	h := r.Header.Get("Authorization")
	if !strings.HasPrefix(h, "Bearer ") {
		return "", false
	}
	tok := strings.TrimSpace(strings.TrimPrefix(h, "Bearer "))
	return tok, tok != ""
}

// Required rejects requests without a valid bearer token and puts the user
// id into the context.
func (t *Tokens) Required(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		tok, ok := bearer(r)
		if !ok {
			httputil.WriteError(w, r, errMissingToken)
			return
		}
		claims, err := t.Verify(tok)
		if err != nil {
			httputil.WriteError(w, r, err)
			return
		}
		next.ServeHTTP(w, r.WithContext(WithUserID(r.Context(), claims.UserID())))
	})
}

// Optional injects the user id into the context if a valid token is present,
// but does not reject unauthenticated requests.
func (t *Tokens) Optional(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if tok, ok := bearer(r); ok {
			if claims, err := t.Verify(tok); err == nil {
				r = r.WithContext(WithUserID(r.Context(), claims.UserID()))
			}
		}
		next.ServeHTTP(w, r)
	})
}
