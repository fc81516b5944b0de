package repository

import (
	"context"

	"coinpulse/model"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// PreferenceRepository persists one preference record per user.
type PreferenceRepository interface {
	// Save replaces the whole record keyed by user_id: insert if absent,
	// full overwrite of every field if present. Single statement, so
	// concurrent saves cannot interleave into a lost update.
	Save(ctx context.Context, pref *model.Preference) error
	// GetByUserID returns (nil, nil) when the user never saved preferences.
	GetByUserID(ctx context.Context, userID int64) (*model.Preference, error)
}

// gormPreferenceRepository implements PreferenceRepository with GORM.
type gormPreferenceRepository struct {
	db *gorm.DB
}

// NewGormPreferenceRepository creates a GORM preference repository.
func NewGormPreferenceRepository(db *gorm.DB) PreferenceRepository {
	return &gormPreferenceRepository{db: db}
}

// Save upserts the preference record on the unique user_id column.
func (r *gormPreferenceRepository) Save(ctx context.Context, pref *model.Preference) error {
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "user_id"}},
			DoUpdates: clause.AssignmentColumns([]string{"assets", "investor_type", "content", "updated_at"}),
		}).
		Create(pref).Error
}

// GetByUserID fetches the stored preference for a user.
func (r *gormPreferenceRepository) GetByUserID(ctx context.Context, userID int64) (*model.Preference, error) {
	var pref model.Preference
	err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		First(&pref).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		return nil, err
	}
	return &pref, nil
}
