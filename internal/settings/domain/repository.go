package domain

import (
	"context"

	"gorm.io/gorm"
)

type Repository interface {
	// Get returns the configuration row, seeding the default when absent.
	Get(ctx context.Context, db *gorm.DB) (*Settings, error)
	Save(ctx context.Context, db *gorm.DB, settings *Settings) error

	CreateJob(ctx context.Context, db *gorm.DB, job *ReconcileJob) error
	SaveJob(ctx context.Context, db *gorm.DB, job *ReconcileJob) error
	// UnfinishedJobs returns pending and processing jobs, oldest first.
	UnfinishedJobs(ctx context.Context, db *gorm.DB) ([]ReconcileJob, error)
}
