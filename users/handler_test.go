package users

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/EduardoCrCo/final-backend-sub000/auth"
	"github.com/EduardoCrCo/final-backend-sub000/db"
	"github.com/EduardoCrCo/final-backend-sub000/store/sqlstore"
)

// --- helpers ---

func newTestHandler(t *testing.T) *Handler {
	t.Helper()
	s, err := sqlstore.Open(context.Background(), db.DialectSQLite, ":memory:")
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { s.Close(context.Background()) })
	return &Handler{
		Auth:   auth.NewService(s.Users()),
		Tokens: auth.NewTokens("test-secret", 0),
		Users:  s.Users(),
	}
}

func decodeJSON(t *testing.T, rec *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var m map[string]interface{}
	if err := json.NewDecoder(rec.Body).Decode(&m); err != nil {
		t.Fatalf("decode json: %v", err)
	}
	return m
}

func jsonRequest(method, url string, body interface{}) *http.Request {
	b, _ := json.Marshal(body)
	return httptest.NewRequest(method, url, bytes.NewReader(b))
}

func asUser(r *http.Request, userID string) *http.Request {
	return r.WithContext(auth.WithUserID(r.Context(), userID))
}

func signup(t *testing.T, h *Handler, email string) string {
	t.Helper()
	rec := httptest.NewRecorder()
	h.HandleSignup(rec, jsonRequest("POST", "/signup", map[string]string{
		"name": "Ana", "email": email, "password": "password123",
	}))
	if rec.Code != http.StatusCreated {
		t.Fatalf("signup failed: %d %s", rec.Code, rec.Body.String())
	}
	user := decodeJSON(t, rec)["user"].(map[string]interface{})
	return user["id"].(string)
}

// --- signup / signin ---

func TestSignup(t *testing.T) {
	h := newTestHandler(t)

	rec := httptest.NewRecorder()
	h.HandleSignup(rec, jsonRequest("POST", "/signup", map[string]string{
		"name": " Ana ", "email": "ANA@Test.com", "password": "password123",
	}))
	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d: %s", rec.Code, rec.Body.String())
	}
	resp := decodeJSON(t, rec)
	if resp["token"] == "" {
		t.Error("expected a token")
	}
	user := resp["user"].(map[string]interface{})
	if user["email"] != "ana@test.com" || user["name"] != "Ana" {
		t.Errorf("unexpected user: %v", user)
	}
	if _, leaked := user["passwordHash"]; leaked {
		t.Error("password hash must never be serialized")
	}

	tests := []struct {
		name string
		body map[string]string
		want int
	}{
		{"duplicate email", map[string]string{"name": "Ana", "email": "ana@test.com", "password": "password123"}, http.StatusConflict},
		{"short password", map[string]string{"name": "Bo", "email": "bo@test.com", "password": "short"}, http.StatusBadRequest},
		{"bad email", map[string]string{"name": "Bo", "email": "nope", "password": "password123"}, http.StatusBadRequest},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			h.HandleSignup(rec, jsonRequest("POST", "/signup", tc.body))
			if rec.Code != tc.want {
				t.Errorf("status = %d, want %d (%s)", rec.Code, tc.want, rec.Body.String())
			}
		})
	}
}

func TestSignup_MalformedBody(t *testing.T) {
	h := newTestHandler(t)
	rec := httptest.NewRecorder()
	h.HandleSignup(rec, httptest.NewRequest("POST", "/signup", strings.NewReader("{not json")))
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d", rec.Code)
	}
	if msg := decodeJSON(t, rec)["message"]; msg != "invalid request body" {
		t.Errorf("message = %v", msg)
	}
}

func TestSignin(t *testing.T) {
	h := newTestHandler(t)
	signup(t, h, "ana@test.com")

	rec := httptest.NewRecorder()
	h.HandleSignin(rec, jsonRequest("POST", "/signin", map[string]string{"email": "ANA@test.com", "password": "password123"}))
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d: %s", rec.Code, rec.Body.String())
	}
	tok := decodeJSON(t, rec)["token"].(string)
	if _, err := h.Tokens.Verify(tok); err != nil {
		t.Errorf("issued token does not verify: %v", err)
	}

	var messages []string
	for _, body := range []map[string]string{
		{"email": "ana@test.com", "password": "wrong-password"},
		{"email": "nobody@test.com", "password": "password123"},
	} {
		rec := httptest.NewRecorder()
		h.HandleSignin(rec, jsonRequest("POST", "/signin", body))
		if rec.Code != http.StatusUnauthorized {
			t.Fatalf("status = %d, want 401", rec.Code)
		}
		messages = append(messages, decodeJSON(t, rec)["message"].(string))
	}
	if messages[0] != messages[1] {
		t.Errorf("signin failures must be indistinguishable: %q vs %q", messages[0], messages[1])
	}
}

// --- profile ---

func TestProfileLifecycle(t *testing.T) {
	h := newTestHandler(t)
	uid := signup(t, h, "ana@test.com")

	rec := httptest.NewRecorder()
	h.HandleUpdateProfile(rec, asUser(jsonRequest("PATCH", "/users/me", map[string]string{"name": "Ana Maria", "about": "films"}), uid))
	if rec.Code != http.StatusOK {
		t.Fatalf("update profile: %d %s", rec.Code, rec.Body.String())
	}
	if got := decodeJSON(t, rec)["about"]; got != "films" {
		t.Errorf("about = %v", got)
	}

	rec = httptest.NewRecorder()
	h.HandleUpdateAvatar(rec, asUser(jsonRequest("PATCH", "/users/me/avatar", map[string]string{"avatar": "not a url"}), uid))
	if rec.Code != http.StatusBadRequest {
		t.Errorf("invalid avatar url: status = %d", rec.Code)
	}

	rec = httptest.NewRecorder()
	h.HandleUpdateAvatar(rec, asUser(jsonRequest("PATCH", "/users/me/avatar", map[string]string{"avatar": "https://img.example/a.png"}), uid))
	if rec.Code != http.StatusOK || decodeJSON(t, rec)["avatar"] != "https://img.example/a.png" {
		t.Errorf("update avatar failed: %d", rec.Code)
	}

	rec = httptest.NewRecorder()
	h.HandleDeactivate(rec, asUser(httptest.NewRequest("DELETE", "/users/me", nil), uid))
	if rec.Code != http.StatusOK {
		t.Fatalf("deactivate: %d", rec.Code)
	}

	rec = httptest.NewRecorder()
	h.HandleMe(rec, asUser(httptest.NewRequest("GET", "/users/me", nil), uid))
	if rec.Code != http.StatusNotFound {
		t.Errorf("deactivated profile: status = %d, want 404", rec.Code)
	}

	rec = httptest.NewRecorder()
	h.HandleSignin(rec, jsonRequest("POST", "/signin", map[string]string{"email": "ana@test.com", "password": "password123"}))
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("deactivated signin: status = %d, want 401", rec.Code)
	}
}

// --- avatar upload ---

type memAvatars struct {
	contentType string
	data        []byte
}

func (m *memAvatars) Put(ctx context.Context, userID, contentType string, r io.Reader, size int64) (string, error) {
	m.contentType = contentType
	m.data, _ = io.ReadAll(r)
	return "https://cdn.example/avatars/" + userID + "/a.png", nil
}

func multipartRequest(t *testing.T, field string, content []byte) *http.Request {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	fw, err := mw.CreateFormFile(field, "avatar.png")
	if err != nil {
		t.Fatal(err)
	}
	fw.Write(content)
	mw.Close()
	req := httptest.NewRequest("POST", "/users/me/avatar/upload", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return req
}

func TestUploadAvatar(t *testing.T) {
	h := newTestHandler(t)
	uid := signup(t, h, "ana@test.com")

	rec := httptest.NewRecorder()
	h.HandleUploadAvatar(rec, asUser(multipartRequest(t, "avatar", []byte("x")), uid))
	if rec.Code != http.StatusServiceUnavailable {
		t.Errorf("storage disabled: status = %d, want 503", rec.Code)
	}

	mem := &memAvatars{}
	h.Avatars = mem
	png := append([]byte("\x89PNG\r\n\x1a\n"), make([]byte, 32)...)

	rec = httptest.NewRecorder()
	h.HandleUploadAvatar(rec, asUser(multipartRequest(t, "avatar", png), uid))
	if rec.Code != http.StatusOK {
		t.Fatalf("upload: %d %s", rec.Code, rec.Body.String())
	}
	if mem.contentType != "image/png" || !bytes.Equal(mem.data, png) {
		t.Errorf("stored %q (%d bytes)", mem.contentType, len(mem.data))
	}
	if got := decodeJSON(t, rec)["avatar"]; got != "https://cdn.example/avatars/"+uid+"/a.png" {
		t.Errorf("avatar = %v", got)
	}

	rec = httptest.NewRecorder()
	h.HandleUploadAvatar(rec, asUser(multipartRequest(t, "picture", png), uid))
	if rec.Code != http.StatusBadRequest {
		t.Errorf("missing field: status = %d, want 400", rec.Code)
	}
}
