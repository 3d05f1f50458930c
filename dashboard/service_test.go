package dashboard

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/EduardoCrCo/final-backend-sub000/db"
	"github.com/EduardoCrCo/final-backend-sub000/httputil"
	"github.com/EduardoCrCo/final-backend-sub000/models"
	"github.com/EduardoCrCo/final-backend-sub000/store"
	"github.com/EduardoCrCo/final-backend-sub000/store/sqlstore"
	"github.com/go-chi/chi/v5"
)

// --- fixture ---

type seeded struct {
	svc               *Service
	alice, bob, carol string
	vidA, vidB, vidD  models.Video
	store             *sqlstore.Store
}

func newSeeded(t *testing.T) seeded {
	t.Helper()
	ctx := context.Background()
	s, err := sqlstore.Open(ctx, db.DialectSQLite, ":memory:")
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { s.Close(ctx) })

	user := func(email string) string {
		u := models.User{Name: "Tester", Email: email, PasswordHash: "hash", IsActive: true}
		if err := s.Users().Create(ctx, &u); err != nil {
			t.Fatalf("create user: %v", err)
		}
		return u.ID
	}
	out := seeded{store: s, alice: user("alice@test.com"), bob: user("bob@test.com"), carol: user("carol@test.com")}
	if err := s.Users().Deactivate(ctx, user("dave@test.com")); err != nil {
		t.Fatal(err)
	}

	video := func(externalID, owner string, thumbs models.Thumbnails) models.Video {
		v, err := s.Videos().UpsertByExternalID(ctx, models.Video{
			ExternalID: externalID, Title: "Video " + externalID, Thumbnails: thumbs,
		}, owner)
		if err != nil {
			t.Fatalf("upsert video: %v", err)
		}
		return v
	}
	out.vidA = video("vid-a", out.alice, models.Thumbnails{
		Medium:  &models.Thumbnail{URL: "https://i.ytimg.com/vi/vid-a/mqdefault.jpg"},
		Default: &models.Thumbnail{URL: "https://i.ytimg.com/vi/vid-a/default.jpg"},
	})
	out.vidB = video("vid-b", out.alice, models.Thumbnails{})
	out.vidD = video("vid-d", "", models.Thumbnails{})
	if _, err := s.Videos().AddLike(ctx, out.vidB.ID, out.bob); err != nil {
		t.Fatal(err)
	}

	review := func(userID, videoID string, rating int, content string) {
		r := models.Review{UserID: userID, VideoID: videoID, Rating: rating, Title: "Review", Content: content, IsPublic: true}
		if err := s.Reviews().Create(ctx, &r); err != nil {
			t.Fatalf("create review: %v", err)
		}
	}
	review(out.alice, "vid-a", 4, strings.Repeat("é", 150))
	review(out.alice, "vid-b", 5, "Short and sweet.")
	review(out.bob, "vid-a", 3, "Decent enough overall.")
	review(out.bob, "vid-b", 2, "Not for me at all.")
	review(out.bob, "vid-c", 2, "Never persisted locally.")

	mix := models.Playlist{UserID: out.alice, Name: "Mix", Videos: []models.VideoSnapshot{
		{VideoID: "vid-a", Title: "Video vid-a"},
		{Title: "Video vid-b"},
	}}
	if err := s.Playlists().Create(ctx, &mix); err != nil {
		t.Fatal(err)
	}

	out.svc = NewService(s)
	return out
}

// --- users ---

func TestUsersStats(t *testing.T) {
	f := newSeeded(t)
	got, err := f.svc.UsersStats(context.Background())
	if err != nil {
		t.Fatalf("UsersStats: %v", err)
	}
	if len(got.Users) != 3 {
		t.Fatalf("users = %d, want 3 active", len(got.Users))
	}

	byID := map[string]UserStats{}
	for _, u := range got.Users {
		byID[u.User.ID] = u
	}
	alice, bob, carol := byID[f.alice].Stats, byID[f.bob].Stats, byID[f.carol].Stats
	if alice.AverageRating != 4.5 || alice.TotalReviews != 2 {
		t.Errorf("alice = %+v, want 2 reviews averaging 4.5", alice)
	}
	if alice.TotalPlaylists != 1 || alice.TotalVideosInPlaylists != 2 || alice.TotalOwnedVideos != 2 {
		t.Errorf("alice = %+v", alice)
	}
	if bob.AverageRating != 2.3 || bob.TotalReviews != 3 {
		t.Errorf("bob = %+v, want 3 reviews averaging 2.3", bob)
	}
	if carol.AverageRating != 0 || carol.TotalReviews != 0 {
		t.Errorf("carol = %+v, want zero average without reviews", carol)
	}

	g := got.Global
	if g.TotalUsers != 3 || g.TotalReviews != 5 || g.TotalPlaylists != 1 ||
		g.TotalVideosInPlaylists != 2 || g.TotalOwnedVideos != 2 || g.AverageRating != 3.2 {
		t.Errorf("global = %+v", g)
	}

	for _, r := range byID[f.alice].Reviews {
		if r.VideoID != "vid-a" {
			continue
		}
		if n := len([]rune(r.Content)); n != 103 || !strings.HasSuffix(r.Content, "...") {
			t.Errorf("content not truncated to 100 runes: %d", n)
		}
	}
}

func TestUserStatsByID(t *testing.T) {
	f := newSeeded(t)
	st, err := f.svc.UserStatsByID(context.Background(), f.bob)
	if err != nil {
		t.Fatalf("UserStatsByID: %v", err)
	}
	if st.Stats.TotalReviews != 3 || len(st.Reviews) != 3 {
		t.Errorf("bob = %+v", st.Stats)
	}
	if _, err := f.svc.UserStatsByID(context.Background(), "missing"); !errors.Is(err, store.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

// --- videos ---

func TestVideosStats(t *testing.T) {
	f := newSeeded(t)
	f.svc.Now = func() time.Time { return time.Now().Add(49 * time.Hour) }

	got, err := f.svc.VideosStats(context.Background())
	if err != nil {
		t.Fatalf("VideosStats: %v", err)
	}
	if len(got.Videos) != 3 {
		t.Fatalf("videos = %d, want 3 persisted", len(got.Videos))
	}
	byExt := map[string]VideoStats{}
	for _, v := range got.Videos {
		byExt[v.ExternalID] = v
	}

	a, b, d := byExt["vid-a"], byExt["vid-b"], byExt["vid-d"]
	if a.ReviewsCount != 2 || a.AverageRating != 3.5 || a.PlaylistsCount != 1 {
		t.Errorf("vid-a = %+v", a)
	}
	if a.Thumbnail != "https://i.ytimg.com/vi/vid-a/mqdefault.jpg" {
		t.Errorf("vid-a thumbnail = %s, want medium", a.Thumbnail)
	}
	if b.PlaylistsCount != 1 || len(b.TopPlaylists) != 1 || b.TopPlaylists[0].Name != "Mix" {
		t.Errorf("vid-b should match the playlist by title: %+v", b.TopPlaylists)
	}
	if d.AverageRating != 0 || d.ReviewsCount != 0 || len(d.TopReviews) != 0 {
		t.Errorf("vid-d = %+v", d)
	}
	if d.Thumbnail != "https://img.youtube.com/vi/vid-d/hqdefault.jpg" {
		t.Errorf("vid-d thumbnail = %s, want CDN fallback", d.Thumbnail)
	}
	if d.CreatedDaysAgo != 2 {
		t.Errorf("createdDaysAgo = %d, want 2", d.CreatedDaysAgo)
	}

	g := got.Global
	if g.TotalVideos != 3 || g.TotalReviews != 4 || g.TotalLikes != 1 || g.AverageRating != 3.5 {
		t.Errorf("global = %+v", g)
	}
	if g.MostLikedVideo == nil || g.MostLikedVideo.ExternalID != "vid-b" {
		t.Errorf("mostLikedVideo = %+v", g.MostLikedVideo)
	}

	one, err := f.svc.VideoStatsByID(context.Background(), f.vidA.ID)
	if err != nil || one.ReviewsCount != 2 {
		t.Errorf("VideoStatsByID = %+v, %v", one, err)
	}
}

func TestRollUpVideos(t *testing.T) {
	t.Run("empty", func(t *testing.T) {
		g := rollUpVideos(nil)
		if g.MostReviewedVideo != nil || g.MostLikedVideo != nil || g.AverageRating != 0 {
			t.Errorf("empty roll-up = %+v", g)
		}
	})

	t.Run("weighted average and ties", func(t *testing.T) {
		g := rollUpVideos([]VideoStats{
			{ID: "1", ReviewsCount: 1, AverageRating: 5, LikesCount: 3},
			{ID: "2", ReviewsCount: 3, AverageRating: 1, LikesCount: 3},
			{ID: "3", ReviewsCount: 3, AverageRating: 2, LikesCount: 1},
			{ID: "4"},
		})
		// (5*1 + 1*3 + 2*3) / 7 = 2.0
		if g.AverageRating != 2 || g.TotalReviews != 7 || g.TotalLikes != 7 {
			t.Errorf("global = %+v", g)
		}
		if g.MostReviewedVideo.ID != "2" {
			t.Errorf("mostReviewed = %s, want first of the tie", g.MostReviewedVideo.ID)
		}
		if g.MostLikedVideo.ID != "1" {
			t.Errorf("mostLiked = %s, want first of the tie", g.MostLikedVideo.ID)
		}
	})

	t.Run("no reviews anywhere", func(t *testing.T) {
		g := rollUpVideos([]VideoStats{{ID: "1"}, {ID: "2"}})
		if g.AverageRating != 0 || g.MostReviewedVideo.ID != "1" {
			t.Errorf("global = %+v", g)
		}
	})
}

func TestTruncate(t *testing.T) {
	if got := truncate("short", 100); got != "short" {
		t.Errorf("truncate = %q", got)
	}
	if got := truncate("ñandú", 3); got != "ñan..." {
		t.Errorf("truncate = %q, want rune-aware cut", got)
	}
}

// --- failures ---

type failingReviews struct {
	store.Reviews
}

func (failingReviews) ListByUser(ctx context.Context, userID string) ([]models.Review, error) {
	return nil, errors.New("connection reset")
}

func (failingReviews) ListByVideo(ctx context.Context, externalID string) ([]models.Review, error) {
	return nil, errors.New("connection reset")
}

func TestStats_AbortOnAnyFailure(t *testing.T) {
	f := newSeeded(t)
	f.svc.Reviews = failingReviews{f.store.Reviews()}

	if got, err := f.svc.UsersStats(context.Background()); err == nil || got.Users != nil {
		t.Errorf("UsersStats = %+v, %v; want error and no partial result", got, err)
	}
	if got, err := f.svc.VideosStats(context.Background()); err == nil || got.Videos != nil {
		t.Errorf("VideosStats = %+v, %v; want error and no partial result", got, err)
	}
}

// --- handler ---

func TestHandler(t *testing.T) {
	f := newSeeded(t)
	h := &Handler{Stats: f.svc}

	r := chi.NewRouter()
	r.Use(httputil.ExposeErrors(true))
	r.Get("/dashboard/users-stats", h.HandleUsersStats)
	r.Get("/dashboard/users-stats/{userId}", h.HandleUserStats)
	r.Get("/dashboard/videos-stats", h.HandleVideosStats)
	r.Get("/dashboard/videos-stats/{videoId}", h.HandleVideoStats)

	tests := []struct {
		path string
		want int
	}{
		{"/dashboard/users-stats", http.StatusOK},
		{"/dashboard/users-stats/" + f.alice, http.StatusOK},
		{"/dashboard/users-stats/missing", http.StatusNotFound},
		{"/dashboard/videos-stats", http.StatusOK},
		{"/dashboard/videos-stats/" + f.vidB.ID, http.StatusOK},
		{"/dashboard/videos-stats/missing", http.StatusNotFound},
	}
	for _, tc := range tests {
		t.Run(tc.path, func(t *testing.T) {
			rec := httptest.NewRecorder()
			r.ServeHTTP(rec, httptest.NewRequest("GET", tc.path, nil))
			if rec.Code != tc.want {
				t.Errorf("status = %d, want %d (%s)", rec.Code, tc.want, rec.Body.String())
			}
		})
	}

	f.svc.Reviews = failingReviews{f.store.Reviews()}
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest("GET", "/dashboard/users-stats", nil))
	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("status = %d, want 500", rec.Code)
	}
	var body httputil.ErrorBody
	json.NewDecoder(rec.Body).Decode(&body)
	if body.Message != "error fetching statistics" {
		t.Errorf("message = %q", body.Message)
	}
	if len(body.Errors) != 1 || body.Errors[0] != "connection reset" {
		t.Errorf("errors = %v, want underlying cause outside production", body.Errors)
	}
}
