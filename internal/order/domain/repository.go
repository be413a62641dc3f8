package domain

import (
	"context"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"
)

type Repository interface {
	Insert(ctx context.Context, db *gorm.DB, order *Order) error
	Save(ctx context.Context, db *gorm.DB, order *Order) error
	FindByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*Order, error)
	FindByCode(ctx context.Context, db *gorm.DB, code string) (*Order, error)
	FindByEmail(ctx context.Context, db *gorm.DB, email string) ([]Order, error)
	FindByEmailInBatch(ctx context.Context, db *gorm.DB, email string, batch int) (*Order, error)
	FindByLocationInBatch(ctx context.Context, db *gorm.DB, locationKey string, batch int) (*Order, error)
	List(ctx context.Context, db *gorm.DB) ([]Order, error)
	ListByBatch(ctx context.Context, db *gorm.DB, batch int) ([]Order, error)
	Search(ctx context.Context, db *gorm.DB, term string) ([]Order, error)
	Delete(ctx context.Context, db *gorm.DB, id snowflake.ID) error
	DeleteByBatch(ctx context.Context, db *gorm.DB, batch int) error
	DeleteAll(ctx context.Context, db *gorm.DB) error
}
