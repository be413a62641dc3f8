package repository

import (
	"context"
	"errors"
	"strings"

	"github.com/bwmarrin/snowflake"
	orderdomain "github.com/jubileu50/pedidos/internal/order/domain"
	"gorm.io/gorm"
)

type repo struct{}

func Provide() orderdomain.Repository {
	return &repo{}
}

func (r *repo) Insert(ctx context.Context, db *gorm.DB, order *orderdomain.Order) error {
	return db.WithContext(ctx).Create(order).Error
}

func (r *repo) Save(ctx context.Context, db *gorm.DB, order *orderdomain.Order) error {
	return db.WithContext(ctx).Save(order).Error
}

func (r *repo) FindByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*orderdomain.Order, error) {
	var order orderdomain.Order
	err := db.WithContext(ctx).Where("id = ?", id).First(&order).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &order, nil
}

func (r *repo) FindByCode(ctx context.Context, db *gorm.DB, code string) (*orderdomain.Order, error) {
	var order orderdomain.Order
	err := db.WithContext(ctx).
		Where("order_number = ?", strings.ToUpper(strings.TrimSpace(code))).
		First(&order).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &order, nil
}

func (r *repo) FindByEmail(ctx context.Context, db *gorm.DB, email string) ([]orderdomain.Order, error) {
	var orders []orderdomain.Order
	err := db.WithContext(ctx).
		Where("email = ?", normalizeEmail(email)).
		Order("created_at DESC").
		Find(&orders).Error
	if err != nil {
		return nil, err
	}
	return orders, nil
}

func (r *repo) FindByEmailInBatch(ctx context.Context, db *gorm.DB, email string, batch int) (*orderdomain.Order, error) {
	var order orderdomain.Order
	err := db.WithContext(ctx).
		Where("email = ? AND batch = ?", normalizeEmail(email), batch).
		First(&order).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &order, nil
}

func (r *repo) FindByLocationInBatch(ctx context.Context, db *gorm.DB, locationKey string, batch int) (*orderdomain.Order, error) {
	var order orderdomain.Order
	err := db.WithContext(ctx).
		Where("location_key = ? AND batch = ?", locationKey, batch).
		First(&order).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &order, nil
}

func (r *repo) List(ctx context.Context, db *gorm.DB) ([]orderdomain.Order, error) {
	var orders []orderdomain.Order
	err := db.WithContext(ctx).Order("created_at DESC").Find(&orders).Error
	if err != nil {
		return nil, err
	}
	return orders, nil
}

func (r *repo) ListByBatch(ctx context.Context, db *gorm.DB, batch int) ([]orderdomain.Order, error) {
	var orders []orderdomain.Order
	err := db.WithContext(ctx).
		Where("batch = ?", batch).
		Order("created_at DESC").
		Find(&orders).Error
	if err != nil {
		return nil, err
	}
	return orders, nil
}

// Search combines an exact order-code match with prefix matches on leader
// name, sector and location key, newest first.
func (r *repo) Search(ctx context.Context, db *gorm.DB, term string) ([]orderdomain.Order, error) {
	trimmed := strings.TrimSpace(term)
	if trimmed == "" {
		return []orderdomain.Order{}, nil
	}
	upper := strings.ToUpper(trimmed)
	prefix := escapeLike(upper) + "%"

	var orders []orderdomain.Order
	err := db.WithContext(ctx).
		Where(`order_number = ? OR UPPER(leader_name) LIKE ? ESCAPE '\' OR UPPER(sector_or_city) LIKE ? ESCAPE '\' OR location_key LIKE ? ESCAPE '\'`,
			upper, prefix, prefix, prefix).
		Order("created_at DESC").
		Find(&orders).Error
	if err != nil {
		return nil, err
	}
	return orders, nil
}

func (r *repo) Delete(ctx context.Context, db *gorm.DB, id snowflake.ID) error {
	return db.WithContext(ctx).Where("id = ?", id).Delete(&orderdomain.Order{}).Error
}

func (r *repo) DeleteByBatch(ctx context.Context, db *gorm.DB, batch int) error {
	return db.WithContext(ctx).Where("batch = ?", batch).Delete(&orderdomain.Order{}).Error
}

func (r *repo) DeleteAll(ctx context.Context, db *gorm.DB) error {
	return db.WithContext(ctx).Where("1 = 1").Delete(&orderdomain.Order{}).Error
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func escapeLike(value string) string {
	replacer := strings.NewReplacer(`\`, `\\`, "%", `\%`, "_", `\_`)
	return replacer.Replace(value)
}
