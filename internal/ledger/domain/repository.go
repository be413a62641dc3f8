package domain

import (
	"context"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"
)

type Repository interface {
	// Find returns the ledger document for the key, or nil when absent.
	Find(ctx context.Context, db *gorm.DB, locationKey string) (*Ledger, error)
	// Create inserts an empty ledger document for the key if none exists.
	// Existing documents are left untouched, so callers can re-read under a
	// row lock before appending.
	Create(ctx context.Context, db *gorm.DB, locationKey string) error
	// Save upserts the whole ledger document.
	Save(ctx context.Context, db *gorm.DB, ledger *Ledger) error
	List(ctx context.Context, db *gorm.DB) ([]Ledger, error)
	// RemoveOrderEntries strips every entry for the order from the ledger,
	// deleting the document when it becomes empty.
	RemoveOrderEntries(ctx context.Context, db *gorm.DB, locationKey string, orderID snowflake.ID) error
	DeleteAll(ctx context.Context, db *gorm.DB) error
}
