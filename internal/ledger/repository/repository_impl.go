package repository

import (
	"context"
	"errors"
	"time"

	"github.com/bwmarrin/snowflake"
	ledgerdomain "github.com/jubileu50/pedidos/internal/ledger/domain"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type repo struct{}

func Provide() ledgerdomain.Repository {
	return &repo{}
}

func (r *repo) Find(ctx context.Context, db *gorm.DB, locationKey string) (*ledgerdomain.Ledger, error) {
	var ledger ledgerdomain.Ledger
	err := db.WithContext(ctx).Where("location_key = ?", locationKey).First(&ledger).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &ledger, nil
}

func (r *repo) Create(ctx context.Context, db *gorm.DB, locationKey string) error {
	empty := &ledgerdomain.Ledger{
		LocationKey: locationKey,
		Entries:     ledgerdomain.EntryList{},
		UpdatedAt:   time.Now().UTC(),
	}
	return db.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(empty).Error
}

func (r *repo) Save(ctx context.Context, db *gorm.DB, ledger *ledgerdomain.Ledger) error {
	ledger.UpdatedAt = time.Now().UTC()
	return db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "location_key"}},
			DoUpdates: clause.AssignmentColumns([]string{"entries", "updated_at"}),
		}).
		Create(ledger).Error
}

func (r *repo) List(ctx context.Context, db *gorm.DB) ([]ledgerdomain.Ledger, error) {
	var ledgers []ledgerdomain.Ledger
	err := db.WithContext(ctx).Order("location_key ASC").Find(&ledgers).Error
	if err != nil {
		return nil, err
	}
	return ledgers, nil
}

func (r *repo) RemoveOrderEntries(ctx context.Context, db *gorm.DB, locationKey string, orderID snowflake.ID) error {
	ledger, err := r.Find(ctx, db, locationKey)
	if err != nil {
		return err
	}
	if ledger == nil {
		return nil
	}

	kept := ledger.Entries.WithoutOrder(orderID)
	if len(kept) == 0 {
		return db.WithContext(ctx).
			Where("location_key = ?", locationKey).
			Delete(&ledgerdomain.Ledger{}).Error
	}

	ledger.Entries = kept
	return r.Save(ctx, db, ledger)
}

func (r *repo) DeleteAll(ctx context.Context, db *gorm.DB) error {
	return db.WithContext(ctx).Where("1 = 1").Delete(&ledgerdomain.Ledger{}).Error
}
