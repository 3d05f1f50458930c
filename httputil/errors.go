package httputil

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/EduardoCrCo/final-backend-sub000/apperr"
	"github.com/EduardoCrCo/final-backend-sub000/models"
	"github.com/EduardoCrCo/final-backend-sub000/store"
	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
)

type detailKey struct{}

// ExposeErrors marks requests whose 5xx responses may carry the underlying
// error text. It is installed outside production only.
func ExposeErrors(expose bool) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := context.WithValue(r.Context(), detailKey{}, expose)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func exposed(r *http.Request) bool {
	v, _ := r.Context().Value(detailKey{}).(bool)
	return v
}

// Classify maps err to a status code and response body without writing it.
func Classify(err error) (int, ErrorBody) {
	if e, ok := apperr.As(err); ok {
		return e.Status(), ErrorBody{Message: e.Message, Errors: e.Fields}
	}

	var fieldErrs models.FieldErrors
	var verrs validator.ValidationErrors
	var syntaxErr *json.SyntaxError
	var typeErr *json.UnmarshalTypeError
	var maxBytesErr *http.MaxBytesError

	switch {
	case errors.Is(err, store.ErrDuplicate):
		return http.StatusConflict, ErrorBody{Message: "resource already exists"}
	case errors.Is(err, store.ErrAlreadyMember):
		return http.StatusBadRequest, ErrorBody{Message: "already exists"}
	case errors.Is(err, store.ErrNotFound):
		return http.StatusNotFound, ErrorBody{Message: "resource not found"}
	case errors.As(err, &fieldErrs):
		return http.StatusBadRequest, ErrorBody{Message: "validation failed", Errors: fieldErrs}
	case errors.As(err, &verrs):
		msgs := make([]string, 0, len(verrs))
		for _, fe := range verrs {
			msgs = append(msgs, models.FieldMessage(fe))
		}
		return http.StatusBadRequest, ErrorBody{Message: "validation failed", Errors: msgs}
	case errors.As(err, &maxBytesErr):
		return http.StatusRequestEntityTooLarge, ErrorBody{Message: "request body too large"}
	case errors.As(err, &syntaxErr), errors.As(err, &typeErr),
		errors.Is(err, io.EOF), errors.Is(err, io.ErrUnexpectedEOF):
		return http.StatusBadRequest, ErrorBody{Message: "invalid request body"}
	default:
		return http.StatusInternalServerError, ErrorBody{Message: "internal server error"}
	}
}

// WriteError is the single mapping from domain errors to HTTP responses.
// Server-side failures are logged with the request logger; outside
// production their text is added to the body.
func WriteError(w http.ResponseWriter, r *http.Request, err error) {
	status, body := Classify(err)
	if status >= http.StatusInternalServerError {
		zerolog.Ctx(r.Context()).Error().Err(err).Int("status", status).Msg("request failed")
		if exposed(r) {
			cause := err
			if e, ok := apperr.As(err); ok && e.Err != nil {
				cause = e.Err
			}
			body.Errors = append(append([]string(nil), body.Errors...), cause.Error())
		}
	}
	WriteJSON(w, status, body)
}
