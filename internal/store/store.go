package store

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/jp310194/wwfc-webapp/internal/model"
)

// MOTMTally is one row of a man-of-the-match count for an event.
type MOTMTally struct {
	NomineeID string `json:"nominee_id"`
	Name      string `json:"name"`
	Votes     int64  `json:"votes"`
}

// Store defines the interface for all database operations.
type Store interface {
	DB() *gorm.DB

	// Subscription registry
	UpsertSubscription(ctx context.Context, sub model.PushSubscription) error
	ListSubscriptions(ctx context.Context) ([]model.PushSubscription, error)
	DeleteSubscription(ctx context.Context, endpoint string) error

	// Profiles
	GetRole(ctx context.Context, profileID string) (string, error)
	GetProfile(ctx context.Context, profileID string) (*model.Profile, error)
	ListProfiles(ctx context.Context) ([]model.Profile, error)
	UpdateProfileName(ctx context.Context, profileID, name string) error

	// Events and availability
	ListUpcomingEvents(ctx context.Context, from time.Time) ([]model.Event, error)
	GetEvent(ctx context.Context, id int64) (*model.Event, error)
	CreateEvent(ctx context.Context, ev *model.Event) error
	UpdateEvent(ctx context.Context, ev *model.Event) error
	UpsertVote(ctx context.Context, v model.Vote) error
	ListVotes(ctx context.Context, eventID int64) ([]model.Vote, error)

	// Forum
	ListPosts(ctx context.Context) ([]model.ForumPost, error)
	GetPost(ctx context.Context, id int64) (*model.ForumPost, error)
	CreatePost(ctx context.Context, p *model.ForumPost) error
	SetPostPinned(ctx context.Context, id int64, pinned bool) error
	DeletePost(ctx context.Context, id int64) error
	CreateComment(ctx context.Context, c *model.ForumComment) error
	DeleteComment(ctx context.Context, id int64) error

	// Performance
	ListStats(ctx context.Context) ([]model.PlayerStat, error)
	UpsertStat(ctx context.Context, s model.PlayerStat) error
	UpsertMOTMVote(ctx context.Context, v model.MOTMVote) error
	TallyMOTM(ctx context.Context, eventID int64) ([]MOTMTally, error)
	UpsertRatings(ctx context.Context, ratings []model.PlayerRating) error
	PlayerAverageRating(ctx context.Context, playerID string) (float64, int64, error)
}

// gormStore implements the Store interface using GORM.
type gormStore struct {
	db *gorm.DB
}

// NewGormStore creates a new GORM-backed store.
func NewGormStore(db *gorm.DB) Store {
	return &gormStore{db: db}
}

func (s *gormStore) DB() *gorm.DB {
	return s.db
}

// UpsertSubscription inserts a subscription, overwriting the key material
// when the endpoint is already registered.
func (s *gormStore) UpsertSubscription(ctx context.Context, sub model.PushSubscription) error {
	return s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "endpoint"}},
		DoUpdates: clause.AssignmentColumns([]string{"p256dh", "auth"}),
	}).Create(&sub).Error
}

// ListSubscriptions returns every registered subscription. Callers get a
// snapshot; registrations racing a broadcast are simply not included.
func (s *gormStore) ListSubscriptions(ctx context.Context) ([]model.PushSubscription, error) {
	var subs []model.PushSubscription
	if err := s.db.WithContext(ctx).Find(&subs).Error; err != nil {
		return nil, err
	}
	return subs, nil
}

func (s *gormStore) DeleteSubscription(ctx context.Context, endpoint string) error {
	return s.db.WithContext(ctx).Delete(&model.PushSubscription{Endpoint: endpoint}).Error
}

// GetRole returns the role stored on a profile. A missing profile is not
// an error; it reports the empty role so callers treat the principal as a
// standard member.
func (s *gormStore) GetRole(ctx context.Context, profileID string) (string, error) {
	var profile model.Profile
	err := s.db.WithContext(ctx).Select("role").First(&profile, "id = ?", profileID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return "", nil
	}
	if err != nil {
		return "", err
	}
	return profile.Role, nil
}

func (s *gormStore) GetProfile(ctx context.Context, profileID string) (*model.Profile, error) {
	var profile model.Profile
	if err := s.db.WithContext(ctx).First(&profile, "id = ?", profileID).Error; err != nil {
		return nil, err
	}
	return &profile, nil
}

func (s *gormStore) ListProfiles(ctx context.Context) ([]model.Profile, error) {
	var profiles []model.Profile
	if err := s.db.WithContext(ctx).Order("name").Find(&profiles).Error; err != nil {
		return nil, err
	}
	return profiles, nil
}

func (s *gormStore) UpdateProfileName(ctx context.Context, profileID, name string) error {
	return s.db.WithContext(ctx).Model(&model.Profile{ID: profileID}).
		Update("name", name).Error
}
