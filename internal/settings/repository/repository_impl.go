package repository

import (
	"context"
	"errors"
	"time"

	settingsdomain "github.com/jubileu50/pedidos/internal/settings/domain"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// DefaultUnitPrice seeds new installations, in centavos.
const DefaultUnitPrice int64 = 3000

type repo struct{}

func Provide() settingsdomain.Repository {
	return &repo{}
}

func (r *repo) Get(ctx context.Context, db *gorm.DB) (*settingsdomain.Settings, error) {
	var settings settingsdomain.Settings
	err := db.WithContext(ctx).
		Where("id = ?", settingsdomain.DocumentID).
		First(&settings).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		seeded := &settingsdomain.Settings{
			ID:           settingsdomain.DocumentID,
			OrdersOpen:   true,
			UnitPrice:    DefaultUnitPrice,
			CurrentBatch: 1,
			UpdatedAt:    time.Now().UTC(),
		}
		err := db.WithContext(ctx).
			Clauses(clause.OnConflict{DoNothing: true}).
			Create(seeded).Error
		if err != nil {
			return nil, err
		}
		// Re-read in case a concurrent seed won.
		if err := db.WithContext(ctx).Where("id = ?", settingsdomain.DocumentID).First(&settings).Error; err != nil {
			return nil, err
		}
		return &settings, nil
	}
	if err != nil {
		return nil, err
	}
	return &settings, nil
}

func (r *repo) Save(ctx context.Context, db *gorm.DB, settings *settingsdomain.Settings) error {
	settings.ID = settingsdomain.DocumentID
	settings.UpdatedAt = time.Now().UTC()
	return db.WithContext(ctx).Save(settings).Error
}

func (r *repo) CreateJob(ctx context.Context, db *gorm.DB, job *settingsdomain.ReconcileJob) error {
	return db.WithContext(ctx).Create(job).Error
}

func (r *repo) SaveJob(ctx context.Context, db *gorm.DB, job *settingsdomain.ReconcileJob) error {
	return db.WithContext(ctx).Save(job).Error
}

func (r *repo) UnfinishedJobs(ctx context.Context, db *gorm.DB) ([]settingsdomain.ReconcileJob, error) {
	var jobs []settingsdomain.ReconcileJob
	err := db.WithContext(ctx).
		Where("status IN ?", []string{settingsdomain.JobStatusPending, settingsdomain.JobStatusProcessing}).
		Order("created_at ASC").
		Find(&jobs).Error
	if err != nil {
		return nil, err
	}
	return jobs, nil
}
