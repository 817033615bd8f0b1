package store

import (
	"context"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/jp310194/wwfc-webapp/internal/model"
)

func (s *gormStore) ListUpcomingEvents(ctx context.Context, from time.Time) ([]model.Event, error) {
	var events []model.Event
	err := s.db.WithContext(ctx).
		Where("start_time >= ?", from).
		Order("start_time").
		Find(&events).Error
	if err != nil {
		return nil, err
	}
	return events, nil
}

func (s *gormStore) GetEvent(ctx context.Context, id int64) (*model.Event, error) {
	var ev model.Event
	if err := s.db.WithContext(ctx).First(&ev, id).Error; err != nil {
		return nil, err
	}
	return &ev, nil
}

func (s *gormStore) CreateEvent(ctx context.Context, ev *model.Event) error {
	return s.db.WithContext(ctx).Create(ev).Error
}

func (s *gormStore) UpdateEvent(ctx context.Context, ev *model.Event) error {
	return s.db.WithContext(ctx).Model(&model.Event{ID: ev.ID}).
		Select("title", "type", "opponent", "start_time", "meet_time", "location", "kit_colour", "notes").
		Updates(ev).Error
}

// UpsertVote records a member's availability, replacing any earlier answer
// for the same event.
func (s *gormStore) UpsertVote(ctx context.Context, v model.Vote) error {
	return s.db.WithContext(ctx).Omit(clause.Associations).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "event_id"}, {Name: "user_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"status", "updated_at"}),
	}).Create(&v).Error
}

func (s *gormStore) ListVotes(ctx context.Context, eventID int64) ([]model.Vote, error) {
	var votes []model.Vote
	err := s.db.WithContext(ctx).
		Preload("Profile").
		Where("event_id = ?", eventID).
		Find(&votes).Error
	if err != nil {
		return nil, err
	}
	return votes, nil
}

// ListPosts returns all posts, pinned threads first, newest first within
// each group.
func (s *gormStore) ListPosts(ctx context.Context) ([]model.ForumPost, error) {
	var posts []model.ForumPost
	err := s.db.WithContext(ctx).
		Preload("Author").
		Order("pinned DESC").
		Order("created_at DESC").
		Find(&posts).Error
	if err != nil {
		return nil, err
	}
	return posts, nil
}

func (s *gormStore) GetPost(ctx context.Context, id int64) (*model.ForumPost, error) {
	var post model.ForumPost
	err := s.db.WithContext(ctx).
		Preload("Author").
		Preload("Comments", func(db *gorm.DB) *gorm.DB {
			return db.Order("forum_comments.created_at")
		}).
		Preload("Comments.Author").
		First(&post, id).Error
	if err != nil {
		return nil, err
	}
	return &post, nil
}

func (s *gormStore) CreatePost(ctx context.Context, p *model.ForumPost) error {
	return s.db.WithContext(ctx).Create(p).Error
}

func (s *gormStore) SetPostPinned(ctx context.Context, id int64, pinned bool) error {
	return s.db.WithContext(ctx).Model(&model.ForumPost{ID: id}).
		Update("pinned", pinned).Error
}

// DeletePost removes a thread and its comments in one transaction.
func (s *gormStore) DeletePost(ctx context.Context, id int64) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("post_id = ?", id).Delete(&model.ForumComment{}).Error; err != nil {
			return err
		}
		return tx.Delete(&model.ForumPost{ID: id}).Error
	})
}

func (s *gormStore) CreateComment(ctx context.Context, c *model.ForumComment) error {
	return s.db.WithContext(ctx).Create(c).Error
}

func (s *gormStore) DeleteComment(ctx context.Context, id int64) error {
	return s.db.WithContext(ctx).Delete(&model.ForumComment{ID: id}).Error
}

func (s *gormStore) ListStats(ctx context.Context) ([]model.PlayerStat, error) {
	var stats []model.PlayerStat
	err := s.db.WithContext(ctx).
		Preload("Player").
		Order("goals DESC").
		Order("assists DESC").
		Find(&stats).Error
	if err != nil {
		return nil, err
	}
	return stats, nil
}

func (s *gormStore) UpsertStat(ctx context.Context, st model.PlayerStat) error {
	return s.db.WithContext(ctx).Omit(clause.Associations).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "player_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"appearances", "goals", "assists", "clean_sheets", "motm", "updated_at"}),
	}).Create(&st).Error
}

func (s *gormStore) UpsertMOTMVote(ctx context.Context, v model.MOTMVote) error {
	return s.db.WithContext(ctx).Omit(clause.Associations).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "event_id"}, {Name: "voter_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"nominee_id", "updated_at"}),
	}).Create(&v).Error
}

func (s *gormStore) TallyMOTM(ctx context.Context, eventID int64) ([]MOTMTally, error) {
	var tally []MOTMTally
	err := s.db.WithContext(ctx).
		Model(&model.MOTMVote{}).
		Select("motm_votes.nominee_id, profiles.name, COUNT(*) AS votes").
		Joins("JOIN profiles ON profiles.id = motm_votes.nominee_id").
		Where("motm_votes.event_id = ?", eventID).
		Group("motm_votes.nominee_id, profiles.name").
		Order("votes DESC").
		Scan(&tally).Error
	if err != nil {
		return nil, err
	}
	return tally, nil
}

// UpsertRatings stores one rater's full scorecard for an event atomically.
func (s *gormStore) UpsertRatings(ctx context.Context, ratings []model.PlayerRating) error {
	if len(ratings) == 0 {
		return nil
	}
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "event_id"}, {Name: "rater_id"}, {Name: "player_id"}},
			DoUpdates: clause.AssignmentColumns([]string{"score", "updated_at"}),
		}).Create(&ratings).Error
	})
}

func (s *gormStore) PlayerAverageRating(ctx context.Context, playerID string) (float64, int64, error) {
	var result struct {
		Average float64
		Count   int64
	}
	err := s.db.WithContext(ctx).
		Model(&model.PlayerRating{}).
		Select("COALESCE(AVG(score), 0) AS average, COUNT(*) AS count").
		Where("player_id = ?", playerID).
		Scan(&result).Error
	if err != nil {
		return 0, 0, err
	}
	return result.Average, result.Count, nil
}
