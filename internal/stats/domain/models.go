package domain

import (
	"context"
	"database/sql/driver"
	"encoding/json"
	"errors"
	"strconv"
	"time"

	orderdomain "github.com/jubileu50/pedidos/internal/order/domain"
	"gorm.io/gorm"
	"gorm.io/gorm/schema"
)

// BatchStats is the per-batch slice of the aggregate document.
type BatchStats struct {
	OrderCount int64 `json:"order_count"`
	ShirtCount int64 `json:"shirt_count"`
	TotalDue   int64 `json:"total_due"`
}

// BatchMap keys per-batch stats by the batch number rendered as a string,
// so the column round-trips as a plain JSON object.
type BatchMap map[string]BatchStats

// Batch returns the stats for a batch number, zero-valued when absent.
func (m BatchMap) Batch(batch int) BatchStats {
	if m == nil {
		return BatchStats{}
	}
	return m[strconv.Itoa(batch)]
}

func (m BatchMap) Value() (driver.Value, error) {
	if m == nil {
		m = BatchMap{}
	}
	raw, err := json.Marshal(m)
	if err != nil {
		return nil, err
	}
	return string(raw), nil
}

func (m *BatchMap) Scan(value interface{}) error {
	if value == nil {
		*m = BatchMap{}
		return nil
	}
	switch typed := value.(type) {
	case []byte:
		return json.Unmarshal(typed, m)
	case string:
		return json.Unmarshal([]byte(typed), m)
	default:
		return errors.New("unsupported per_batch column type")
	}
}

func (BatchMap) GormDBDataType(db *gorm.DB, field *schema.Field) string {
	_ = field
	switch db.Dialector.Name() {
	case "postgres":
		return "JSONB"
	case "mysql":
		return "JSON"
	default:
		return "TEXT"
	}
}

// DocumentID is the primary key of the single aggregate row.
const DocumentID = 1

// Document is the denormalized rolling-counter document. Incremental
// updates are an optimization; ResyncAll recomputed from the order table
// is the authority.
type Document struct {
	ID            int       `json:"-" gorm:"primaryKey"`
	OrderCount    int64     `json:"order_count" gorm:"not null;default:0"`
	ShirtCount    int64     `json:"shirt_count" gorm:"not null;default:0"`
	TotalDue      int64     `json:"total_due" gorm:"not null;default:0"`
	TotalReceived int64     `json:"total_received" gorm:"not null;default:0"`
	PaidCount     int64     `json:"paid_count" gorm:"not null;default:0"`
	PartialCount  int64     `json:"partial_count" gorm:"not null;default:0"`
	PendingCount  int64     `json:"pending_count" gorm:"not null;default:0"`
	PerBatch      BatchMap  `json:"per_batch" gorm:"not null"`
	UpdatedAt     time.Time `json:"updated_at" gorm:"not null"`
}

func (Document) TableName() string { return "stats" }

// BucketDelta adjusts a status counter by delta.
func (d *Document) BucketDelta(status orderdomain.PaymentStatus, delta int64) {
	switch status {
	case orderdomain.Paid:
		d.PaidCount += delta
	case orderdomain.Partial:
		d.PartialCount += delta
	case orderdomain.Pending:
		d.PendingCount += delta
	}
}

type Service interface {
	Get(ctx context.Context) (*Document, error)
	// ResyncAll recomputes every counter from the order table and
	// overwrites the document. Safe to call at any time; the correctness
	// fallback for all incremental paths.
	ResyncAll(ctx context.Context) (*Document, error)
	// ApplyPaymentDelta adjusts totalReceived and the status buckets inside
	// the caller's transaction. Old and new status may be equal.
	ApplyPaymentDelta(ctx context.Context, tx *gorm.DB, received int64, oldStatus, newStatus orderdomain.PaymentStatus) error
	// Reset zeroes the document inside the caller's transaction.
	Reset(ctx context.Context, tx *gorm.DB) error
}
