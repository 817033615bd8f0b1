package model

import "time"

// ForumPost is a top-level forum thread.
type ForumPost struct {
	ID        int64     `gorm:"primaryKey" json:"id"`
	AuthorID  string    `gorm:"size:64;index;not null" json:"author_id"`
	Title     string    `gorm:"size:256;not null" json:"title"`
	Body      string    `gorm:"type:text;not null" json:"body"`
	Pinned    bool      `gorm:"not null;default:false" json:"pinned"`
	CreatedAt time.Time `gorm:"not null" json:"created_at"`

	// Associations
	Author   Profile        `gorm:"foreignKey:AuthorID" json:"author,omitempty"`
	Comments []ForumComment `gorm:"foreignKey:PostID;constraint:OnDelete:CASCADE" json:"comments,omitempty"`
}

// ForumComment is a reply on a forum post.
type ForumComment struct {
	ID        int64     `gorm:"primaryKey" json:"id"`
	PostID    int64     `gorm:"index;not null" json:"post_id"`
	AuthorID  string    `gorm:"size:64;not null" json:"author_id"`
	Body      string    `gorm:"type:text;not null" json:"body"`
	CreatedAt time.Time `gorm:"not null" json:"created_at"`

	// Associations
	Author Profile `gorm:"foreignKey:AuthorID" json:"author,omitempty"`
}
