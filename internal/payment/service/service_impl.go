package service

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	ledgerdomain "github.com/jubileu50/pedidos/internal/ledger/domain"
	"github.com/jubileu50/pedidos/internal/observability/metrics"
	orderdomain "github.com/jubileu50/pedidos/internal/order/domain"
	paymentdomain "github.com/jubileu50/pedidos/internal/payment/domain"
	statsdomain "github.com/jubileu50/pedidos/internal/stats/domain"
	"github.com/jubileu50/pedidos/pkg/db"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const displayDateLayout = "02/01/2006"

type Params struct {
	fx.In

	DB      *gorm.DB
	Log     *zap.Logger
	Orders  orderdomain.Repository
	Ledgers ledgerdomain.Repository
	Stats   statsdomain.Service
	Metrics *metrics.Metrics `optional:"true"`
}

type service struct {
	db      *gorm.DB
	log     *zap.Logger
	orders  orderdomain.Repository
	ledgers ledgerdomain.Repository
	stats   statsdomain.Service
	metrics *metrics.Metrics
}

func New(p Params) paymentdomain.Service {
	return &service{
		db:      p.DB,
		log:     p.Log.Named("payment.service"),
		orders:  p.Orders,
		ledgers: p.Ledgers,
		stats:   p.Stats,
		metrics: p.Metrics,
	}
}

func (s *service) RecordPayment(ctx context.Context, orderID string, req paymentdomain.RecordRequest) (*paymentdomain.Result, error) {
	id, err := parseID(orderID)
	if err != nil {
		return nil, err
	}
	if req.Amount <= 0 {
		return nil, paymentdomain.ErrInvalidAmount
	}

	var result paymentdomain.Result
	err = s.db.Transaction(func(tx *gorm.DB) error {
		order, err := s.orders.FindByID(ctx, db.ForUpdate(tx), id)
		if err != nil {
			return err
		}
		if order == nil {
			return orderdomain.ErrNotFound
		}

		oldStatus := order.PaymentStatus
		order.AmountPaid += req.Amount
		order.PaymentStatus = orderdomain.DeriveStatus(order.AmountPaid, order.AmountDue)
		order.UpdatedAt = time.Now().UTC()
		if err := s.orders.Save(ctx, tx, order); err != nil {
			return err
		}

		ledger, err := s.ledgers.Find(ctx, db.ForUpdate(tx), order.LocationKey)
		if err != nil {
			return err
		}
		if ledger == nil {
			// An absent row cannot be locked, so two first payments for the
			// same key could each append to a private copy and the later
			// upsert would drop an entry. Materialize the row, then re-read
			// it under the lock.
			if err := s.ledgers.Create(ctx, tx, order.LocationKey); err != nil {
				return err
			}
			ledger, err = s.ledgers.Find(ctx, db.ForUpdate(tx), order.LocationKey)
			if err != nil {
				return err
			}
			if ledger == nil {
				return fmt.Errorf("ledger document missing for %s", order.LocationKey)
			}
		}

		now := time.Now().UTC()
		iso := now.Format(time.RFC3339Nano)
		displayDate := strings.TrimSpace(req.Date)
		if displayDate == "" {
			displayDate = now.Format(displayDateLayout)
		}
		entry := ledgerdomain.Entry{
			OrderID:      order.ID,
			OrderNumber:  order.OrderNumber,
			LeaderName:   order.LeaderName,
			Amount:       req.Amount,
			DisplayDate:  displayDate,
			ISOTimestamp: iso,
			EntryID:      ledgerdomain.NewEntryID(order.ID, iso),
		}
		ledger.Entries = append(ledger.Entries, entry)
		if err := s.ledgers.Save(ctx, tx, ledger); err != nil {
			return err
		}

		if err := s.stats.ApplyPaymentDelta(ctx, tx, req.Amount, oldStatus, order.PaymentStatus); err != nil {
			return err
		}

		result = paymentdomain.Result{Order: order, Entry: &entry}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.metrics.RecordPayment(ctx)
	s.log.Info("payment recorded",
		zap.String("order_number", result.Order.OrderNumber),
		zap.Int64("amount", req.Amount),
		zap.String("status", string(result.Order.PaymentStatus)),
	)
	return &result, nil
}

func (s *service) CancelLastPayment(ctx context.Context, orderID string) (*paymentdomain.Result, error) {
	id, err := parseID(orderID)
	if err != nil {
		return nil, err
	}

	var result paymentdomain.Result
	err = s.db.Transaction(func(tx *gorm.DB) error {
		order, err := s.orders.FindByID(ctx, db.ForUpdate(tx), id)
		if err != nil {
			return err
		}
		if order == nil {
			return orderdomain.ErrNotFound
		}

		ledger, err := s.ledgers.Find(ctx, db.ForUpdate(tx), order.LocationKey)
		if err != nil {
			return err
		}
		if ledger == nil {
			return paymentdomain.ErrNoPayments
		}
		last, ok := ledger.Entries.Latest(order.ID)
		if !ok {
			return paymentdomain.ErrNoPayments
		}

		oldStatus := order.PaymentStatus
		order.AmountPaid -= last.Amount
		if order.AmountPaid < 0 {
			order.AmountPaid = 0
		}
		order.PaymentStatus = orderdomain.DeriveStatus(order.AmountPaid, order.AmountDue)
		order.UpdatedAt = time.Now().UTC()
		if err := s.orders.Save(ctx, tx, order); err != nil {
			return err
		}

		ledger.Entries = ledger.Entries.WithoutEntry(last.EntryID)
		if len(ledger.Entries) == 0 {
			if err := s.ledgers.RemoveOrderEntries(ctx, tx, order.LocationKey, order.ID); err != nil {
				return err
			}
		} else if err := s.ledgers.Save(ctx, tx, ledger); err != nil {
			return err
		}

		if err := s.stats.ApplyPaymentDelta(ctx, tx, -last.Amount, oldStatus, order.PaymentStatus); err != nil {
			return err
		}

		result = paymentdomain.Result{Order: order, Entry: &last}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.metrics.RecordPaymentCancelled(ctx)
	s.log.Info("payment cancelled",
		zap.String("order_number", result.Order.OrderNumber),
		zap.Int64("amount", result.Entry.Amount),
	)
	return &result, nil
}

func (s *service) History(ctx context.Context, orderID string) ([]ledgerdomain.Entry, error) {
	id, err := parseID(orderID)
	if err != nil {
		return nil, err
	}
	order, err := s.orders.FindByID(ctx, s.db, id)
	if err != nil {
		return nil, err
	}
	if order == nil {
		return nil, orderdomain.ErrNotFound
	}

	ledger, err := s.ledgers.Find(ctx, s.db, order.LocationKey)
	if err != nil {
		return nil, err
	}
	if ledger == nil {
		return []ledgerdomain.Entry{}, nil
	}
	entries := ledger.Entries.ForOrder(order.ID)
	sort.Slice(entries, func(i, j int) bool {
		return entries[i].ISOTimestamp > entries[j].ISOTimestamp
	})
	return entries, nil
}

func (s *service) Ledgers(ctx context.Context) ([]ledgerdomain.Ledger, error) {
	return s.ledgers.List(ctx, s.db)
}

func parseID(id string) (snowflake.ID, error) {
	parsed, err := snowflake.ParseString(strings.TrimSpace(id))
	if err != nil {
		return 0, orderdomain.ErrInvalidID
	}
	return parsed, nil
}
