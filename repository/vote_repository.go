package repository

import (
	"context"

	"coinpulse/model"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// VoteRepository persists at most one feedback vote per (user, section).
type VoteRepository interface {
	// SetVote upserts on the unique (user_id, section) pair. Last write
	// wins; no history is kept.
	SetVote(ctx context.Context, vote *model.Vote) error
	// ClearVote deletes the vote for a section. Clearing a vote that does
	// not exist is not an error.
	ClearVote(ctx context.Context, userID int64, section string) error
	// GetByUserID lists a user's current votes.
	GetByUserID(ctx context.Context, userID int64) ([]model.Vote, error)
}

// gormVoteRepository implements VoteRepository with GORM.
type gormVoteRepository struct {
	db *gorm.DB
}

// NewGormVoteRepository creates a GORM vote repository.
func NewGormVoteRepository(db *gorm.DB) VoteRepository {
	return &gormVoteRepository{db: db}
}

// SetVote upserts the vote record on the unique (user_id, section) index.
func (r *gormVoteRepository) SetVote(ctx context.Context, vote *model.Vote) error {
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "user_id"}, {Name: "section"}},
			DoUpdates: clause.AssignmentColumns([]string{"vote", "updated_at"}),
		}).
		Create(vote).Error
}

// ClearVote removes the vote for a (user, section) pair, idempotently.
func (r *gormVoteRepository) ClearVote(ctx context.Context, userID int64, section string) error {
	return r.db.WithContext(ctx).
		Where("user_id = ? AND section = ?", userID, section).
		Delete(&model.Vote{}).Error
}

// GetByUserID lists a user's current votes across all sections.
func (r *gormVoteRepository) GetByUserID(ctx context.Context, userID int64) ([]model.Vote, error) {
	var votes []model.Vote
	err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("section").
		Find(&votes).Error
	if err != nil {
		return nil, err
	}
	return votes, nil
}
