package models

import (
	"regexp"
	"time"
)

// VideoSnapshot is a copy of a video's display fields taken when it was added
// to a playlist. It is not a reference: the playlist keeps it even when the
// canonical Video record goes away.
type VideoSnapshot struct {
	VideoID      string    `json:"videoId,omitempty" bson:"videoId,omitempty"`
	Title        string    `json:"title" bson:"title"`
	Thumbnail    string    `json:"thumbnail" bson:"thumbnail"`
	ChannelTitle string    `json:"channelTitle" bson:"channelTitle"`
	PublishedAt  string    `json:"publishedAt,omitempty" bson:"publishedAt,omitempty"`
	AddedAt      time.Time `json:"addedAt" bson:"addedAt"`
}

var thumbnailIDPattern = regexp.MustCompile(`/vi/([^/]+)/`)

// VideoIDFromThumbnail extracts the external id from a CDN thumbnail URL such
// as https://i.ytimg.com/vi/abc123/default.jpg. It returns "" when the URL does
// not follow that layout.
func VideoIDFromThumbnail(url string) string {
	m := thumbnailIDPattern.FindStringSubmatch(url)
	if len(m) < 2 {
		return ""
	}
	return m[1]
}

// ResolvedID returns the explicit video id, or the id embedded in the
// thumbnail URL for entries saved without one.
func (s VideoSnapshot) ResolvedID() string {
	if s.VideoID != "" {
		return s.VideoID
	}
	return VideoIDFromThumbnail(s.Thumbnail)
}

// Playlist is an ordered list of video snapshots owned by one user.
type Playlist struct {
	ID          string          `json:"id" bson:"_id"`
	UserID      string          `json:"userId" bson:"userId"`
	Name        string          `json:"name" bson:"name"`
	Description string          `json:"description" bson:"description"`
	Videos      []VideoSnapshot `json:"videos" bson:"videos"`
	CreatedAt   time.Time       `json:"createdAt" bson:"createdAt"`
	UpdatedAt   time.Time       `json:"updatedAt" bson:"updatedAt"`
}

// Contains reports whether a snapshot with the given resolved id is present.
func (p Playlist) Contains(videoID string) bool {
	if videoID == "" {
		return false
	}
	for _, v := range p.Videos {
		if v.ResolvedID() == videoID {
			return true
		}
	}
	return false
}

// Matches reports whether the playlist holds the video identified by
// externalID, falling back to an exact title match for entries that carry
// no resolvable id.
func (p Playlist) Matches(externalID, title string) bool {
	for _, v := range p.Videos {
		if externalID != "" && v.ResolvedID() == externalID {
			return true
		}
		if title != "" && v.Title == title {
			return true
		}
	}
	return false
}
