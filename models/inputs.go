package models

import "strings"

// SignupInput is the body of POST /signup.
type SignupInput struct {
	Name     string `json:"name" validate:"required,min=2,max=30"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=8,max=72"`
}

func (in *SignupInput) Normalize() {
	in.Name = strings.TrimSpace(in.Name)
	in.Email = strings.ToLower(strings.TrimSpace(in.Email))
}

// SigninInput is the body of POST /signin.
type SigninInput struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

func (in *SigninInput) Normalize() {
	in.Email = strings.ToLower(strings.TrimSpace(in.Email))
}

// ProfileInput is the body of PATCH /users/me.
type ProfileInput struct {
	Name  string `json:"name" validate:"required,min=2,max=30"`
	About string `json:"about" validate:"max=200"`
}

func (in *ProfileInput) Normalize() {
	in.Name = strings.TrimSpace(in.Name)
	in.About = strings.TrimSpace(in.About)
}

// AvatarInput is the body of PATCH /users/me/avatar.
type AvatarInput struct {
	Avatar string `json:"avatar" validate:"required,url"`
}

// PlaylistInput is the body of POST and PATCH /playlists.
type PlaylistInput struct {
	Name        string `json:"name" validate:"required,min=1,max=100"`
	Description string `json:"description" validate:"max=500"`
}

func (in *PlaylistInput) Normalize() {
	in.Name = strings.TrimSpace(in.Name)
	in.Description = strings.TrimSpace(in.Description)
}

// SnapshotInput is the body of POST /playlists/{id}/add.
type SnapshotInput struct {
	VideoID      string `json:"videoId" validate:"max=64"`
	Title        string `json:"title" validate:"required,max=300"`
	Thumbnail    string `json:"thumbnail" validate:"omitempty,url"`
	ChannelTitle string `json:"channelTitle" validate:"max=200"`
	PublishedAt  string `json:"publishedAt" validate:"max=64"`
}

func (in *SnapshotInput) Normalize() {
	in.VideoID = strings.TrimSpace(in.VideoID)
	in.Title = strings.TrimSpace(in.Title)
}

// Snapshot builds the immutable playlist entry. The resolved id is stored so
// later lookups do not depend on the thumbnail layout.
func (in SnapshotInput) Snapshot() VideoSnapshot {
	s := VideoSnapshot{
		VideoID:      in.VideoID,
		Title:        in.Title,
		Thumbnail:    in.Thumbnail,
		ChannelTitle: in.ChannelTitle,
		PublishedAt:  in.PublishedAt,
	}
	s.VideoID = s.ResolvedID()
	return s
}

// ReviewInput is the body of POST /reviews.
type ReviewInput struct {
	VideoID        string   `json:"videoId" validate:"required,max=64"`
	VideoTitle     string   `json:"videoTitle" validate:"max=300"`
	VideoThumbnail string   `json:"videoThumbnail" validate:"omitempty,url"`
	Rating         int      `json:"rating" validate:"gte=1,lte=5"`
	Title          string   `json:"title" validate:"required,min=3,max=100"`
	Content        string   `json:"content" validate:"required,min=10,max=1000"`
	Tags           []string `json:"tags" validate:"max=10,dive,max=30"`
	IsPublic       *bool    `json:"isPublic"`
}

func (in *ReviewInput) Normalize() {
	in.VideoID = strings.TrimSpace(in.VideoID)
	in.Title = strings.TrimSpace(in.Title)
	in.Content = strings.TrimSpace(in.Content)
	in.Tags = normalizeTags(in.Tags)
}

// ReviewUpdateInput is the body of PUT /reviews/{id}. The target video cannot
// change.
type ReviewUpdateInput struct {
	Rating   int      `json:"rating" validate:"gte=1,lte=5"`
	Title    string   `json:"title" validate:"required,min=3,max=100"`
	Content  string   `json:"content" validate:"required,min=10,max=1000"`
	Tags     []string `json:"tags" validate:"max=10,dive,max=30"`
	IsPublic *bool    `json:"isPublic"`
}

func (in *ReviewUpdateInput) Normalize() {
	in.Title = strings.TrimSpace(in.Title)
	in.Content = strings.TrimSpace(in.Content)
	in.Tags = normalizeTags(in.Tags)
}

func normalizeTags(tags []string) []string {
	out := make([]string, 0, len(tags))
	seen := make(map[string]bool, len(tags))
	for _, t := range tags {
		t = strings.ToLower(strings.TrimSpace(t))
		if t == "" || seen[t] {
			continue
		}
		seen[t] = true
		out = append(out, t)
	}
	return out
}
