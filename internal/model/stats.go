package model

import "time"

// PlayerStat is the running performance tally for one player, upserted
// keyed on player_id.
type PlayerStat struct {
	PlayerID    string    `gorm:"primaryKey;size:64" json:"player_id"`
	Appearances int       `gorm:"not null;default:0" json:"appearances"`
	Goals       int       `gorm:"not null;default:0" json:"goals"`
	Assists     int       `gorm:"not null;default:0" json:"assists"`
	CleanSheets int       `gorm:"not null;default:0" json:"clean_sheets"`
	MOTM        int       `gorm:"column:motm;not null;default:0" json:"motm"`
	UpdatedAt   time.Time `gorm:"not null" json:"updated_at"`

	// Associations
	Player Profile `gorm:"foreignKey:PlayerID;constraint:OnDelete:CASCADE" json:"player,omitempty"`
}

// Per-stat valuations in pounds for the transfer value leaderboard.
const (
	valuePerAppearance = 100_000
	valuePerGoal       = 250_000
	valuePerAssist     = 150_000
	valuePerCleanSheet = 200_000
	valuePerMOTM       = 300_000
)

// TransferValue derives a player's notional price from the tally.
func (s PlayerStat) TransferValue() int64 {
	return int64(s.Appearances)*valuePerAppearance +
		int64(s.Goals)*valuePerGoal +
		int64(s.Assists)*valuePerAssist +
		int64(s.CleanSheets)*valuePerCleanSheet +
		int64(s.MOTM)*valuePerMOTM
}

// MOTMVote is one member's man-of-the-match nomination for one event.
type MOTMVote struct {
	EventID   int64     `gorm:"primaryKey;autoIncrement:false" json:"event_id"`
	VoterID   string    `gorm:"primaryKey;size:64" json:"voter_id"`
	NomineeID string    `gorm:"size:64;not null" json:"nominee_id"`
	UpdatedAt time.Time `gorm:"not null" json:"updated_at"`

	// Associations
	Nominee Profile `gorm:"foreignKey:NomineeID" json:"nominee,omitempty"`
}

// TableName keeps the table aligned with the motm column naming.
func (MOTMVote) TableName() string {
	return "motm_votes"
}

// PlayerRating is one member's 1-10 score for a teammate's performance
// in one event.
type PlayerRating struct {
	EventID   int64     `gorm:"primaryKey;autoIncrement:false" json:"event_id"`
	RaterID   string    `gorm:"primaryKey;size:64" json:"rater_id"`
	PlayerID  string    `gorm:"primaryKey;size:64" json:"player_id"`
	Score     int       `gorm:"not null" json:"score"`
	UpdatedAt time.Time `gorm:"not null" json:"updated_at"`
}
