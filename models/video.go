package models

import (
	"fmt"
	"time"
)

// Thumbnail is a single image variant.
type Thumbnail struct {
	URL    string `json:"url" bson:"url"`
	Width  int    `json:"width,omitempty" bson:"width,omitempty"`
	Height int    `json:"height,omitempty" bson:"height,omitempty"`
}

// Thumbnails holds the variants returned by the search API.
type Thumbnails struct {
	Default *Thumbnail `json:"default,omitempty" bson:"default,omitempty"`
	Medium  *Thumbnail `json:"medium,omitempty" bson:"medium,omitempty"`
	High    *Thumbnail `json:"high,omitempty" bson:"high,omitempty"`
}

// DefaultThumbnailURL builds the CDN thumbnail URL for an external video id.
func DefaultThumbnailURL(externalID string) string {
	return fmt.Sprintf("https://img.youtube.com/vi/%s/hqdefault.jpg", externalID)
}

// Best returns the highest resolution thumbnail available, falling back to
// the CDN URL derived from externalID.
func (t Thumbnails) Best(externalID string) string {
	for _, th := range []*Thumbnail{t.High, t.Medium, t.Default} {
		if th != nil && th.URL != "" {
			return th.URL
		}
	}
	return DefaultThumbnailURL(externalID)
}

// Video is the canonical, mutable record of an external video. It is owned by
// the user whose search first persisted it.
type Video struct {
	ID           string     `json:"id" bson:"_id"`
	ExternalID   string     `json:"externalId" bson:"externalId"`
	Title        string     `json:"title" bson:"title"`
	Description  string     `json:"description" bson:"description"`
	ChannelTitle string     `json:"channelTitle" bson:"channelTitle"`
	PublishedAt  time.Time  `json:"publishedAt" bson:"publishedAt"`
	Thumbnails   Thumbnails `json:"thumbnails" bson:"thumbnails"`
	Duration     string     `json:"duration,omitempty" bson:"duration,omitempty"`
	UserID       string     `json:"userId,omitempty" bson:"userId,omitempty"`
	LikesCount   int        `json:"likesCount" bson:"likesCount"`
	SavesCount   int        `json:"savesCount" bson:"savesCount"`
	LikedBy      []string   `json:"likedBy" bson:"likedBy"`
	SavedBy      []string   `json:"savedBy" bson:"savedBy"`
	CreatedAt    time.Time  `json:"createdAt" bson:"createdAt"`
	UpdatedAt    time.Time  `json:"updatedAt" bson:"updatedAt"`
}

// VideoSummary is a normalized search hit from the external API.
type VideoSummary struct {
	ExternalID   string     `json:"externalId"`
	Title        string     `json:"title"`
	Description  string     `json:"description"`
	ChannelTitle string     `json:"channelTitle"`
	PublishedAt  time.Time  `json:"publishedAt"`
	Thumbnails   Thumbnails `json:"thumbnails"`
}

// ToVideo converts a search hit into a record ready for upsert.
func (s VideoSummary) ToVideo() Video {
	return Video{
		ExternalID:   s.ExternalID,
		Title:        s.Title,
		Description:  s.Description,
		ChannelTitle: s.ChannelTitle,
		PublishedAt:  s.PublishedAt,
		Thumbnails:   s.Thumbnails,
	}
}

// VideoDetails is the detail view of an external video.
type VideoDetails struct {
	VideoSummary
	Duration     string `json:"duration"`
	ViewCount    int64  `json:"viewCount"`
	LikeCount    int64  `json:"likeCount"`
	CommentCount int64  `json:"commentCount"`
}
