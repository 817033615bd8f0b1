package model

import "time"

// Event represents a scheduled club event: a fixture, a training session
// or a social.
type Event struct {
	ID        int64      `gorm:"primaryKey" json:"id"`
	Title     string     `gorm:"size:256;not null" json:"title"`
	Type      string     `gorm:"size:32" json:"type"`
	Opponent  string     `gorm:"size:128" json:"opponent"`
	StartTime time.Time  `gorm:"index;not null" json:"start_time"`
	MeetTime  *time.Time `json:"meet_time"`
	Location  string     `gorm:"size:256" json:"location"`
	KitColour string     `gorm:"size:64" json:"kit_colour"`
	Notes     string     `gorm:"type:text" json:"notes"`
	CreatedAt time.Time  `gorm:"not null" json:"created_at"`
	UpdatedAt time.Time  `gorm:"not null" json:"updated_at"`
}

// Availability vote statuses.
const (
	VoteIn    = "in"
	VoteOut   = "out"
	VoteMaybe = "maybe"
)

// Vote is one member's availability for one event. The composite key is
// the upsert conflict target.
type Vote struct {
	EventID   int64     `gorm:"primaryKey;autoIncrement:false" json:"event_id"`
	UserID    string    `gorm:"primaryKey;size:64" json:"user_id"`
	Status    string    `gorm:"size:8;not null" json:"status"`
	UpdatedAt time.Time `gorm:"not null" json:"updated_at"`

	// Associations
	Profile Profile `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE" json:"profile,omitempty"`
}
