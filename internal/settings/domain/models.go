package domain

import (
	"context"
	"errors"
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/datatypes"
)

// DocumentID is the primary key of the single configuration row.
const DocumentID = 1

// Settings is the global configuration document. UnitPrice is centavos.
type Settings struct {
	ID           int       `json:"-" gorm:"primaryKey"`
	OrdersOpen   bool      `json:"orders_open" gorm:"not null;default:true"`
	UnitPrice    int64     `json:"unit_price" gorm:"not null"`
	CurrentBatch int       `json:"current_batch" gorm:"not null;default:1"`
	UpdatedAt    time.Time `json:"updated_at" gorm:"not null"`
}

func (Settings) TableName() string { return "settings" }

// Reconcile job lifecycle. Two-phase operations (price cascade, batch
// revert, event end) journal themselves here so a crash between phases
// leaves a resumable marker instead of silent divergence.
const (
	JobKindPriceChange = "price_change"
	JobKindBatchRevert = "batch_revert"
	JobKindEventEnd    = "event_end"

	JobStatusPending    = "pending"
	JobStatusProcessing = "processing"
	JobStatusCompleted  = "completed"
	JobStatusFailed     = "failed"
)

type ReconcileJob struct {
	ID          snowflake.ID      `json:"id" gorm:"primaryKey"`
	Kind        string            `json:"kind" gorm:"type:text;not null"`
	Status      string            `json:"status" gorm:"type:text;not null;index"`
	Payload     datatypes.JSONMap `json:"payload,omitempty"`
	Error       string            `json:"error,omitempty" gorm:"type:text"`
	CreatedAt   time.Time         `json:"created_at" gorm:"not null"`
	StartedAt   *time.Time        `json:"started_at,omitempty"`
	CompletedAt *time.Time        `json:"completed_at,omitempty"`
}

func (ReconcileJob) TableName() string { return "reconcile_jobs" }

type UpdateRequest struct {
	OrdersOpen *bool  `json:"orders_open"`
	UnitPrice  *int64 `json:"unit_price"`
}

type Service interface {
	Get(ctx context.Context) (*Settings, error)
	// Update toggles the ordering window and/or changes the unit price.
	// A price change cascades amountDue recomputation over every order and
	// finishes with a full stats resync, journaled as a reconcile job.
	Update(ctx context.Context, req UpdateRequest) (*Settings, error)
	// NewBatch advances the batch counter to n, which must be current+1.
	NewBatch(ctx context.Context, n int) (*Settings, error)
	// RevertBatch deletes every order and ledger entry of the current
	// batch and decrements the counter. Destructive and irreversible.
	RevertBatch(ctx context.Context) (*Settings, error)
	// EndEvent deletes all orders and ledgers and zeroes the statistics.
	EndEvent(ctx context.Context) error
	// ResumePendingJobs re-runs journaled reconcile jobs left behind by a
	// crash between phases. Called on startup.
	ResumePendingJobs(ctx context.Context) error
}

var (
	ErrInvalidUnitPrice  = errors.New("invalid_unit_price")
	ErrInvalidBatch      = errors.New("invalid_batch_number")
	ErrFirstBatch        = errors.New("cannot_revert_first_batch")
	ErrNothingToUpdate   = errors.New("nothing_to_update")
	ErrUnknownJobKind    = errors.New("unknown_reconcile_job_kind")
	ErrJobAlreadyRunning = errors.New("reconcile_job_already_running")
)
