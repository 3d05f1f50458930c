// Package store defines the persistence access layer: one repository per
// collection (users, videos, playlists, reviews). Backends live in
// store/sqlstore (SQLite, Postgres) and store/mongostore (MongoDB).
package store

import (
	"context"
	"errors"
	"time"

	"github.com/EduardoCrCo/final-backend-sub000/models"
)

var (
	// ErrNotFound is returned when a record does not exist or is not
	// visible to the caller.
	ErrNotFound = errors.New("not found")
	// ErrDuplicate signals a unique-key violation.
	ErrDuplicate = errors.New("duplicate key")
	// ErrAlreadyMember signals a repeated like, save or playlist entry.
	ErrAlreadyMember = errors.New("already exists")
)

// Store bundles the repositories of one backend.
type Store interface {
	Users() Users
	Videos() Videos
	Playlists() Playlists
	Reviews() Reviews
	Close(ctx context.Context) error
}

type Users interface {
	Create(ctx context.Context, u *models.User) error
	ByID(ctx context.Context, id string) (models.User, error)
	// ByEmail only returns active users when activeOnly is set.
	ByEmail(ctx context.Context, email string, activeOnly bool) (models.User, error)
	ListActive(ctx context.Context) ([]models.User, error)
	UpdateProfile(ctx context.Context, id, name, about string) (models.User, error)
	UpdateAvatar(ctx context.Context, id, avatar string) (models.User, error)
	Deactivate(ctx context.Context, id string) error
	TouchLastLogin(ctx context.Context, id string, at time.Time) error
}

type Videos interface {
	// UpsertByExternalID inserts v or refreshes the metadata of the existing
	// record with the same external id. ownerID may be empty; it is only
	// recorded when the video has no owner yet.
	UpsertByExternalID(ctx context.Context, v models.Video, ownerID string) (models.Video, error)
	ByID(ctx context.Context, id string) (models.Video, error)
	ByExternalID(ctx context.Context, externalID string) (models.Video, error)
	List(ctx context.Context) ([]models.Video, error)
	ListByOwner(ctx context.Context, userID string) ([]models.Video, error)
	ListLikedBy(ctx context.Context, userID string) ([]models.Video, error)
	ListSavedBy(ctx context.Context, userID string) ([]models.Video, error)
	// AddLike and AddSave change membership and counter in one atomic write
	// and return ErrAlreadyMember when userID is already present.
	AddLike(ctx context.Context, videoID, userID string) (models.Video, error)
	RemoveLike(ctx context.Context, videoID, userID string) (models.Video, error)
	AddSave(ctx context.Context, videoID, userID string) (models.Video, error)
	RemoveSave(ctx context.Context, videoID, userID string) (models.Video, error)
}

type Playlists interface {
	Create(ctx context.Context, p *models.Playlist) error
	ByID(ctx context.Context, id string) (models.Playlist, error)
	ListByUser(ctx context.Context, userID string) ([]models.Playlist, error)
	List(ctx context.Context) ([]models.Playlist, error)
	// ListContaining returns playlists holding a snapshot whose resolved id
	// equals externalID or whose title equals title exactly.
	ListContaining(ctx context.Context, externalID, title string) ([]models.Playlist, error)
	Update(ctx context.Context, id, userID, name, description string) (models.Playlist, error)
	Delete(ctx context.Context, id, userID string) error
	// AppendVideo returns ErrAlreadyMember when the resolved id is present.
	AppendVideo(ctx context.Context, id, userID string, snap models.VideoSnapshot) (models.Playlist, error)
	// RemoveVideo is a no-op when videoID is not in the playlist.
	RemoveVideo(ctx context.Context, id, userID, videoID string) (models.Playlist, error)
}

// PublicFilter narrows the public review listing.
type PublicFilter struct {
	VideoID string
	Offset  int
	Limit   int
}

type Reviews interface {
	// Create returns ErrDuplicate when the user already reviewed the video.
	Create(ctx context.Context, r *models.Review) error
	ByID(ctx context.Context, id string) (models.Review, error)
	ListByUser(ctx context.Context, userID string) ([]models.Review, error)
	ListByVideo(ctx context.Context, externalID string) ([]models.Review, error)
	ListPublic(ctx context.Context, f PublicFilter) ([]models.Review, int, error)
	Update(ctx context.Context, r models.Review) (models.Review, error)
	Delete(ctx context.Context, id, userID string) error
}
