package model

import "time"

// Role values stored on a profile. Anything other than RoleAdmin is a
// standard member.
const (
	RoleAdmin  = "admin"
	RolePlayer = "player"
)

// Profile represents a club member. The ID is the subject issued by the
// identity provider, not a local sequence.
type Profile struct {
	ID        string    `gorm:"primaryKey;size:64" json:"id"`
	Name      string    `gorm:"size:128;not null" json:"name"`
	Role      string    `gorm:"size:32;not null;default:player" json:"role"`
	AvatarURL string    `gorm:"size:512" json:"avatar_url"`
	CreatedAt time.Time `gorm:"not null" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null" json:"updated_at"`
}
