package service

import (
	"context"
	"errors"
	"strconv"
	"time"

	orderdomain "github.com/jubileu50/pedidos/internal/order/domain"
	statsdomain "github.com/jubileu50/pedidos/internal/stats/domain"
	"github.com/jubileu50/pedidos/pkg/db"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type Params struct {
	fx.In

	DB     *gorm.DB
	Log    *zap.Logger
	Orders orderdomain.Repository
}

type service struct {
	db     *gorm.DB
	log    *zap.Logger
	orders orderdomain.Repository
}

func New(p Params) statsdomain.Service {
	return &service{
		db:     p.DB,
		log:    p.Log.Named("stats.service"),
		orders: p.Orders,
	}
}

func (s *service) Get(ctx context.Context) (*statsdomain.Document, error) {
	var doc statsdomain.Document
	err := s.db.WithContext(ctx).
		Where("id = ?", statsdomain.DocumentID).
		First(&doc).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return emptyDocument(), nil
	}
	if err != nil {
		return nil, err
	}
	return &doc, nil
}

func (s *service) ResyncAll(ctx context.Context) (*statsdomain.Document, error) {
	var doc *statsdomain.Document
	err := s.db.Transaction(func(tx *gorm.DB) error {
		orders, err := s.orders.List(ctx, tx)
		if err != nil {
			return err
		}

		rebuilt := emptyDocument()
		for _, order := range orders {
			shirts := int64(order.Breakdown.TotalShirts())
			rebuilt.OrderCount++
			rebuilt.ShirtCount += shirts
			rebuilt.TotalDue += order.AmountDue
			rebuilt.TotalReceived += order.AmountPaid
			rebuilt.BucketDelta(order.PaymentStatus, 1)

			key := strconv.Itoa(order.Batch)
			batch := rebuilt.PerBatch[key]
			batch.OrderCount++
			batch.ShirtCount += shirts
			batch.TotalDue += order.AmountDue
			rebuilt.PerBatch[key] = batch
		}
		rebuilt.UpdatedAt = time.Now().UTC()

		if err := s.save(ctx, tx, rebuilt); err != nil {
			return err
		}
		doc = rebuilt
		return nil
	})
	if err != nil {
		return nil, err
	}
	return doc, nil
}

func (s *service) ApplyPaymentDelta(ctx context.Context, tx *gorm.DB, received int64, oldStatus, newStatus orderdomain.PaymentStatus) error {
	var doc statsdomain.Document
	err := db.ForUpdate(tx).WithContext(ctx).
		Where("id = ?", statsdomain.DocumentID).
		First(&doc).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		doc = *emptyDocument()
	} else if err != nil {
		return err
	}

	doc.TotalReceived += received
	if oldStatus != newStatus {
		doc.BucketDelta(oldStatus, -1)
		doc.BucketDelta(newStatus, 1)
	}
	doc.UpdatedAt = time.Now().UTC()
	return s.save(ctx, tx, &doc)
}

func (s *service) Reset(ctx context.Context, tx *gorm.DB) error {
	doc := emptyDocument()
	doc.UpdatedAt = time.Now().UTC()
	return s.save(ctx, tx, doc)
}

func (s *service) save(ctx context.Context, tx *gorm.DB, doc *statsdomain.Document) error {
	doc.ID = statsdomain.DocumentID
	return tx.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "id"}},
			DoUpdates: clause.AssignmentColumns([]string{
				"order_count", "shirt_count", "total_due", "total_received",
				"paid_count", "partial_count", "pending_count", "per_batch", "updated_at",
			}),
		}).
		Create(doc).Error
}

func emptyDocument() *statsdomain.Document {
	return &statsdomain.Document{
		ID:       statsdomain.DocumentID,
		PerBatch: statsdomain.BatchMap{},
	}
}
