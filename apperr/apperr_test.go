package apperr

import (
	"errors"
	"fmt"
	"testing"
)

func TestKindStatus(t *testing.T) {
	tests := []struct {
		kind Kind
		want int
	}{
		{KindValidation, 400},
		{KindAlreadyExists, 400},
		{KindUnauthorized, 401},
		{KindNotFound, 404},
		{KindConflict, 409},
		{KindUnavailable, 503},
		{KindExternal, 500},
		{KindInternal, 500},
	}
	for _, tc := range tests {
		if got := tc.kind.Status(); got != tc.want {
			t.Errorf("Kind(%d).Status() = %d, want %d", tc.kind, got, tc.want)
		}
	}
}

func TestAs_Wrapped(t *testing.T) {
	base := NotFound("playlist not found")
	wrapped := fmt.Errorf("load: %w", base)

	got, ok := As(wrapped)
	if !ok {
		t.Fatal("As() did not find *Error in chain")
	}
	if got.Message != "playlist not found" {
		t.Errorf("Message = %q", got.Message)
	}
	if !IsKind(wrapped, KindNotFound) {
		t.Error("IsKind(wrapped, KindNotFound) = false")
	}
	if IsKind(errors.New("plain"), KindNotFound) {
		t.Error("plain error should not match any kind")
	}
}

func TestError_MessageIncludesCause(t *testing.T) {
	cause := errors.New("status 403")
	e := External("youtube search failed", cause)
	if e.Error() != "youtube search failed: status 403" {
		t.Errorf("Error() = %q", e.Error())
	}
	if !errors.Is(e, cause) {
		t.Error("errors.Is should see the wrapped cause")
	}
}
