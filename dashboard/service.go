// Package dashboard aggregates statistics across users, playlists, reviews
// and videos. Every call recomputes from the current store contents.
package dashboard

import (
	"context"
	"math"
	"time"

	"github.com/EduardoCrCo/final-backend-sub000/models"
	"github.com/EduardoCrCo/final-backend-sub000/store"
	"golang.org/x/sync/errgroup"
)

const (
	// contentPreview is the number of runes of review content kept in
	// summaries.
	contentPreview = 100
	topN           = 3
	// fanOut bounds how many entities are aggregated at once.
	fanOut = 8
)

// Service computes dashboard statistics.
type Service struct {
	Users     store.Users
	Videos    store.Videos
	Playlists store.Playlists
	Reviews   store.Reviews
	Now       func() time.Time
}

func NewService(s store.Store) *Service {
	return &Service{
		Users:     s.Users(),
		Videos:    s.Videos(),
		Playlists: s.Playlists(),
		Reviews:   s.Reviews(),
		Now:       time.Now,
	}
}

type UserInfo struct {
	ID        string     `json:"id"`
	Name      string     `json:"name"`
	Email     string     `json:"email"`
	Avatar    string     `json:"avatar"`
	LastLogin *time.Time `json:"lastLogin,omitempty"`
	CreatedAt time.Time  `json:"createdAt"`
}

type PlaylistSummary struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	VideosCount int       `json:"videosCount"`
	CreatedAt   time.Time `json:"createdAt"`
}

type ReviewSummary struct {
	ID         string    `json:"id"`
	UserID     string    `json:"userId"`
	VideoID    string    `json:"videoId"`
	VideoTitle string    `json:"videoTitle"`
	Rating     int       `json:"rating"`
	Title      string    `json:"title"`
	Content    string    `json:"content"`
	CreatedAt  time.Time `json:"createdAt"`
}

type OwnedVideo struct {
	ID         string `json:"id"`
	ExternalID string `json:"externalId"`
	Title      string `json:"title"`
	LikesCount int    `json:"likesCount"`
	SavesCount int    `json:"savesCount"`
}

type UserMetrics struct {
	TotalPlaylists         int     `json:"totalPlaylists"`
	TotalVideosInPlaylists int     `json:"totalVideosInPlaylists"`
	TotalReviews           int     `json:"totalReviews"`
	TotalOwnedVideos       int     `json:"totalOwnedVideos"`
	AverageRating          float64 `json:"averageRating"`
}

// UserStats is the dashboard record of one user.
type UserStats struct {
	User      UserInfo          `json:"user"`
	Playlists []PlaylistSummary `json:"playlists"`
	Reviews   []ReviewSummary   `json:"reviews"`
	Videos    []OwnedVideo      `json:"videos"`
	Stats     UserMetrics       `json:"stats"`

	ratingSum int
}

type GlobalUserStats struct {
	TotalUsers int `json:"totalUsers"`
	UserMetrics
}

type UsersOverview struct {
	Users  []UserStats     `json:"users"`
	Global GlobalUserStats `json:"global"`
}

type PlaylistRef struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	UserID      string `json:"userId"`
	VideosCount int    `json:"videosCount"`
}

// VideoStats is the dashboard record of one video.
type VideoStats struct {
	ID             string          `json:"id"`
	ExternalID     string          `json:"externalId"`
	Title          string          `json:"title"`
	ChannelTitle   string          `json:"channelTitle"`
	Thumbnail      string          `json:"thumbnail"`
	PublishedAt    time.Time       `json:"publishedAt"`
	LikesCount     int             `json:"likesCount"`
	SavesCount     int             `json:"savesCount"`
	ReviewsCount   int             `json:"reviewsCount"`
	AverageRating  float64         `json:"averageRating"`
	PlaylistsCount int             `json:"playlistsCount"`
	CreatedDaysAgo int             `json:"createdDaysAgo"`
	CreatedAt      time.Time       `json:"createdAt"`
	TopReviews     []ReviewSummary `json:"topReviews"`
	TopPlaylists   []PlaylistRef   `json:"topPlaylists"`
}

// Highlight names the video holding a "most" title in the roll-up.
type Highlight struct {
	ID           string `json:"id"`
	ExternalID   string `json:"externalId"`
	Title        string `json:"title"`
	Thumbnail    string `json:"thumbnail"`
	ReviewsCount int    `json:"reviewsCount"`
	LikesCount   int    `json:"likesCount"`
}

type GlobalVideoStats struct {
	TotalVideos       int        `json:"totalVideos"`
	TotalLikes        int        `json:"totalLikes"`
	TotalSaves        int        `json:"totalSaves"`
	TotalReviews      int        `json:"totalReviews"`
	AverageRating     float64    `json:"averageRating"`
	MostReviewedVideo *Highlight `json:"mostReviewedVideo"`
	MostLikedVideo    *Highlight `json:"mostLikedVideo"`
}

type VideosOverview struct {
	Videos []VideoStats     `json:"videos"`
	Global GlobalVideoStats `json:"global"`
}

// roundRating rounds to one decimal.
func roundRating(v float64) float64 {
	return math.Round(v*10) / 10
}

// average returns sum/count rounded to one decimal, and 0 for no ratings.
func average(sum, count int) float64 {
	if count == 0 {
		return 0
	}
	return roundRating(float64(sum) / float64(count))
}

func truncate(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n]) + "..."
}

func summarizeReview(r models.Review) ReviewSummary {
	return ReviewSummary{
		ID:         r.ID,
		UserID:     r.UserID,
		VideoID:    r.VideoID,
		VideoTitle: r.VideoTitle,
		Rating:     r.Rating,
		Title:      r.Title,
		Content:    truncate(r.Content, contentPreview),
		CreatedAt:  r.CreatedAt,
	}
}

// UsersStats aggregates every active user. Any failed fetch fails the call.
func (s *Service) UsersStats(ctx context.Context) (UsersOverview, error) {
	users, err := s.Users.ListActive(ctx)
	if err != nil {
		return UsersOverview{}, err
	}

	results := make([]UserStats, len(users))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(fanOut)
	for i, u := range users {
		g.Go(func() error {
			st, err := s.userStats(gctx, u)
			if err != nil {
				return err
			}
			results[i] = st
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return UsersOverview{}, err
	}

	global := GlobalUserStats{TotalUsers: len(results)}
	ratingSum := 0
	for _, st := range results {
		global.TotalPlaylists += st.Stats.TotalPlaylists
		global.TotalVideosInPlaylists += st.Stats.TotalVideosInPlaylists
		global.TotalReviews += st.Stats.TotalReviews
		global.TotalOwnedVideos += st.Stats.TotalOwnedVideos
		ratingSum += st.ratingSum
	}
	global.AverageRating = average(ratingSum, global.TotalReviews)
	return UsersOverview{Users: results, Global: global}, nil
}

// UserStatsByID aggregates one active user. Unknown or deactivated users
// yield store.ErrNotFound.
func (s *Service) UserStatsByID(ctx context.Context, id string) (UserStats, error) {
	u, err := s.Users.ByID(ctx, id)
	if err != nil {
		return UserStats{}, err
	}
	if !u.IsActive {
		return UserStats{}, store.ErrNotFound
	}
	return s.userStats(ctx, u)
}

func (s *Service) userStats(ctx context.Context, u models.User) (UserStats, error) {
	var (
		playlists []models.Playlist
		reviews   []models.Review
		videos    []models.Video
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		playlists, err = s.Playlists.ListByUser(gctx, u.ID)
		return err
	})
	g.Go(func() (err error) {
		reviews, err = s.Reviews.ListByUser(gctx, u.ID)
		return err
	})
	g.Go(func() (err error) {
		videos, err = s.Videos.ListByOwner(gctx, u.ID)
		return err
	})
	if err := g.Wait(); err != nil {
		return UserStats{}, err
	}

	st := UserStats{
		User: UserInfo{
			ID:        u.ID,
			Name:      u.Name,
			Email:     u.Email,
			Avatar:    u.Avatar,
			LastLogin: u.LastLogin,
			CreatedAt: u.CreatedAt,
		},
		Playlists: make([]PlaylistSummary, 0, len(playlists)),
		Reviews:   make([]ReviewSummary, 0, len(reviews)),
		Videos:    make([]OwnedVideo, 0, len(videos)),
	}
	for _, p := range playlists {
		st.Playlists = append(st.Playlists, PlaylistSummary{
			ID:          p.ID,
			Name:        p.Name,
			Description: p.Description,
			VideosCount: len(p.Videos),
			CreatedAt:   p.CreatedAt,
		})
		st.Stats.TotalVideosInPlaylists += len(p.Videos)
	}
	for _, r := range reviews {
		st.Reviews = append(st.Reviews, summarizeReview(r))
		st.ratingSum += r.Rating
	}
	for _, v := range videos {
		st.Videos = append(st.Videos, OwnedVideo{
			ID:         v.ID,
			ExternalID: v.ExternalID,
			Title:      v.Title,
			LikesCount: v.LikesCount,
			SavesCount: v.SavesCount,
		})
	}
	st.Stats.TotalPlaylists = len(playlists)
	st.Stats.TotalReviews = len(reviews)
	st.Stats.TotalOwnedVideos = len(videos)
	st.Stats.AverageRating = average(st.ratingSum, len(reviews))
	return st, nil
}

// VideosStats aggregates every persisted video. Any failed fetch fails the
// call.
func (s *Service) VideosStats(ctx context.Context) (VideosOverview, error) {
	videos, err := s.Videos.List(ctx)
	if err != nil {
		return VideosOverview{}, err
	}

	results := make([]VideoStats, len(videos))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(fanOut)
	for i, v := range videos {
		g.Go(func() error {
			st, err := s.videoStats(gctx, v)
			if err != nil {
				return err
			}
			results[i] = st
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return VideosOverview{}, err
	}
	return VideosOverview{Videos: results, Global: rollUpVideos(results)}, nil
}

// VideoStatsByID aggregates one video by its internal id.
func (s *Service) VideoStatsByID(ctx context.Context, id string) (VideoStats, error) {
	v, err := s.Videos.ByID(ctx, id)
	if err != nil {
		return VideoStats{}, err
	}
	return s.videoStats(ctx, v)
}

func (s *Service) videoStats(ctx context.Context, v models.Video) (VideoStats, error) {
	var (
		reviews   []models.Review
		playlists []models.Playlist
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		reviews, err = s.Reviews.ListByVideo(gctx, v.ExternalID)
		return err
	})
	g.Go(func() (err error) {
		playlists, err = s.Playlists.ListContaining(gctx, v.ExternalID, v.Title)
		return err
	})
	if err := g.Wait(); err != nil {
		return VideoStats{}, err
	}

	ratingSum := 0
	for _, r := range reviews {
		ratingSum += r.Rating
	}
	st := VideoStats{
		ID:             v.ID,
		ExternalID:     v.ExternalID,
		Title:          v.Title,
		ChannelTitle:   v.ChannelTitle,
		Thumbnail:      v.Thumbnails.Best(v.ExternalID),
		PublishedAt:    v.PublishedAt,
		LikesCount:     v.LikesCount,
		SavesCount:     v.SavesCount,
		ReviewsCount:   len(reviews),
		AverageRating:  average(ratingSum, len(reviews)),
		PlaylistsCount: len(playlists),
		CreatedDaysAgo: s.daysSince(v.CreatedAt),
		CreatedAt:      v.CreatedAt,
		TopReviews:     make([]ReviewSummary, 0, topN),
		TopPlaylists:   make([]PlaylistRef, 0, topN),
	}
	for _, r := range reviews[:min(len(reviews), topN)] {
		st.TopReviews = append(st.TopReviews, summarizeReview(r))
	}
	for _, p := range playlists[:min(len(playlists), topN)] {
		st.TopPlaylists = append(st.TopPlaylists, PlaylistRef{
			ID:          p.ID,
			Name:        p.Name,
			UserID:      p.UserID,
			VideosCount: len(p.Videos),
		})
	}
	return st, nil
}

func (s *Service) daysSince(t time.Time) int {
	if t.IsZero() {
		return 0
	}
	d := s.Now().Sub(t)
	if d < 0 {
		return 0
	}
	return int(d / (24 * time.Hour))
}

func highlight(v VideoStats) *Highlight {
	return &Highlight{
		ID:           v.ID,
		ExternalID:   v.ExternalID,
		Title:        v.Title,
		Thumbnail:    v.Thumbnail,
		ReviewsCount: v.ReviewsCount,
		LikesCount:   v.LikesCount,
	}
}

// rollUpVideos sums per-video metrics. The average is weighted by review
// count; "most" picks keep the first video seen on ties.
func rollUpVideos(videos []VideoStats) GlobalVideoStats {
	global := GlobalVideoStats{TotalVideos: len(videos)}
	weighted := 0.0
	var mostReviewed, mostLiked *VideoStats
	for i := range videos {
		v := &videos[i]
		global.TotalLikes += v.LikesCount
		global.TotalSaves += v.SavesCount
		global.TotalReviews += v.ReviewsCount
		weighted += v.AverageRating * float64(v.ReviewsCount)
		if mostReviewed == nil || v.ReviewsCount > mostReviewed.ReviewsCount {
			mostReviewed = v
		}
		if mostLiked == nil || v.LikesCount > mostLiked.LikesCount {
			mostLiked = v
		}
	}
	if global.TotalReviews > 0 {
		global.AverageRating = roundRating(weighted / float64(global.TotalReviews))
	}
	if mostReviewed != nil {
		global.MostReviewedVideo = highlight(*mostReviewed)
	}
	if mostLiked != nil {
		global.MostLikedVideo = highlight(*mostLiked)
	}
	return global
}
