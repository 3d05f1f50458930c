package models

import "time"

// Review is a user's rating of an external video. VideoID is the external id,
// so a review can target a video that was never persisted locally. At most one
// review exists per (UserID, VideoID).
type Review struct {
	ID             string    `json:"id" bson:"_id"`
	UserID         string    `json:"userId" bson:"userId"`
	VideoID        string    `json:"videoId" bson:"videoId"`
	VideoTitle     string    `json:"videoTitle" bson:"videoTitle"`
	VideoThumbnail string    `json:"videoThumbnail" bson:"videoThumbnail"`
	Rating         int       `json:"rating" bson:"rating"`
	Title          string    `json:"title" bson:"title"`
	Content        string    `json:"content" bson:"content"`
	Tags           []string  `json:"tags" bson:"tags"`
	IsPublic       bool      `json:"isPublic" bson:"isPublic"`
	CreatedAt      time.Time `json:"createdAt" bson:"createdAt"`
	UpdatedAt      time.Time `json:"updatedAt" bson:"updatedAt"`
}
