package models

import (
	"time"

	"gorm.io/gorm"
)

// MaxTweetLength is the upper bound on tweet text, in characters.
const MaxTweetLength = 280

// Tweet is a short user-authored post with an optional photo.
type Tweet struct {
	ID     uint   `gorm:"primaryKey" json:"id"`
	Text   string `gorm:"size:280;not null" json:"text"`
	Photo  string `json:"photo"`
	UserID uint   `gorm:"not null;index" json:"user_id"`
	User   User   `gorm:"foreignKey:UserID" json:"user"`
	// LikesCount is not persisted; computed at query time
	LikesCount int `gorm:"-" json:"likes_count"`
	// Liked indicates whether the current requesting user liked this tweet (computed)
	Liked     bool           `gorm:"-" json:"liked"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}
