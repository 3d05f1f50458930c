package models

import "time"

// User is an account. Users are never hard-deleted; deactivation clears IsActive.
type User struct {
	ID           string     `json:"id" bson:"_id"`
	Name         string     `json:"name" bson:"name"`
	Email        string     `json:"email" bson:"email"`
	PasswordHash string     `json:"-" bson:"passwordHash"`
	Avatar       string     `json:"avatar" bson:"avatar"`
	About        string     `json:"about" bson:"about"`
	IsActive     bool       `json:"isActive" bson:"isActive"`
	LastLogin    *time.Time `json:"lastLogin,omitempty" bson:"lastLogin,omitempty"`
	CreatedAt    time.Time  `json:"createdAt" bson:"createdAt"`
	UpdatedAt    time.Time  `json:"updatedAt" bson:"updatedAt"`
}

// DefaultAvatar is assigned at signup.
const DefaultAvatar = "https://ui-avatars.com/api/?background=random&name=User"
