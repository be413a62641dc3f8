package service

import (
	"context"
	"encoding/json"
	"time"

	"github.com/bwmarrin/snowflake"
	ledgerdomain "github.com/jubileu50/pedidos/internal/ledger/domain"
	"github.com/jubileu50/pedidos/internal/observability/metrics"
	orderdomain "github.com/jubileu50/pedidos/internal/order/domain"
	settingsdomain "github.com/jubileu50/pedidos/internal/settings/domain"
	statsdomain "github.com/jubileu50/pedidos/internal/stats/domain"
	"github.com/jubileu50/pedidos/pkg/db"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type Params struct {
	fx.In

	DB      *gorm.DB
	Log     *zap.Logger
	Node    *snowflake.Node
	Repo    settingsdomain.Repository
	Orders  orderdomain.Repository
	Ledgers ledgerdomain.Repository
	Stats   statsdomain.Service
	Metrics *metrics.Metrics `optional:"true"`
}

type service struct {
	db      *gorm.DB
	log     *zap.Logger
	node    *snowflake.Node
	repo    settingsdomain.Repository
	orders  orderdomain.Repository
	ledgers ledgerdomain.Repository
	stats   statsdomain.Service
	metrics *metrics.Metrics
}

func New(p Params) settingsdomain.Service {
	return &service{
		db:      p.DB,
		log:     p.Log.Named("settings.service"),
		node:    p.Node,
		repo:    p.Repo,
		orders:  p.Orders,
		ledgers: p.Ledgers,
		stats:   p.Stats,
		metrics: p.Metrics,
	}
}

func (s *service) Get(ctx context.Context) (*settingsdomain.Settings, error) {
	return s.repo.Get(ctx, s.db)
}

func (s *service) Update(ctx context.Context, req settingsdomain.UpdateRequest) (*settingsdomain.Settings, error) {
	if req.OrdersOpen == nil && req.UnitPrice == nil {
		return nil, settingsdomain.ErrNothingToUpdate
	}
	if req.UnitPrice != nil && *req.UnitPrice <= 0 {
		return nil, settingsdomain.ErrInvalidUnitPrice
	}

	current, err := s.repo.Get(ctx, s.db)
	if err != nil {
		return nil, err
	}

	priceChanged := req.UnitPrice != nil && *req.UnitPrice != current.UnitPrice

	if !priceChanged {
		if req.OrdersOpen != nil {
			current.OrdersOpen = *req.OrdersOpen
		}
		if err := s.repo.Save(ctx, s.db, current); err != nil {
			return nil, err
		}
		return current, nil
	}

	// A price change rewrites every order's due amount and then resyncs the
	// aggregates. The two phases are journaled so a crash in between leaves
	// a resumable job instead of stale counters.
	newPrice := *req.UnitPrice
	err = s.runJob(ctx, settingsdomain.JobKindPriceChange,
		datatypes.JSONMap{"unit_price": newPrice},
		func(ctx context.Context) error {
			return s.cascadePrice(ctx, newPrice, req.OrdersOpen)
		})
	if err != nil {
		return nil, err
	}
	return s.repo.Get(ctx, s.db)
}

func (s *service) cascadePrice(ctx context.Context, newPrice int64, ordersOpen *bool) error {
	err := s.db.Transaction(func(tx *gorm.DB) error {
		settings, err := s.repo.Get(ctx, db.ForUpdate(tx))
		if err != nil {
			return err
		}
		settings.UnitPrice = newPrice
		if ordersOpen != nil {
			settings.OrdersOpen = *ordersOpen
		}
		if err := s.repo.Save(ctx, tx, settings); err != nil {
			return err
		}

		orders, err := s.orders.List(ctx, db.ForUpdate(tx))
		if err != nil {
			return err
		}
		for i := range orders {
			order := &orders[i]
			order.AmountDue = int64(order.Breakdown.TotalShirts()) * newPrice
			order.PaymentStatus = orderdomain.DeriveStatus(order.AmountPaid, order.AmountDue)
			order.UpdatedAt = time.Now().UTC()
			if err := s.orders.Save(ctx, tx, order); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return err
	}

	if _, err := s.stats.ResyncAll(ctx); err != nil {
		return err
	}
	s.metrics.RecordStatsResync(ctx, "price_change")
	return nil
}

func (s *service) NewBatch(ctx context.Context, n int) (*settingsdomain.Settings, error) {
	var updated *settingsdomain.Settings
	err := s.db.Transaction(func(tx *gorm.DB) error {
		settings, err := s.repo.Get(ctx, db.ForUpdate(tx))
		if err != nil {
			return err
		}
		if n != settings.CurrentBatch+1 {
			return settingsdomain.ErrInvalidBatch
		}
		settings.CurrentBatch = n
		if err := s.repo.Save(ctx, tx, settings); err != nil {
			return err
		}
		updated = settings
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.log.Info("batch advanced", zap.Int("batch", updated.CurrentBatch))
	return updated, nil
}

func (s *service) RevertBatch(ctx context.Context) (*settingsdomain.Settings, error) {
	current, err := s.repo.Get(ctx, s.db)
	if err != nil {
		return nil, err
	}
	if current.CurrentBatch <= 1 {
		return nil, settingsdomain.ErrFirstBatch
	}

	batch := current.CurrentBatch
	err = s.runJob(ctx, settingsdomain.JobKindBatchRevert,
		datatypes.JSONMap{"batch": batch},
		func(ctx context.Context) error {
			return s.revertBatch(ctx, batch)
		})
	if err != nil {
		return nil, err
	}
	return s.repo.Get(ctx, s.db)
}

func (s *service) revertBatch(ctx context.Context, batch int) error {
	err := s.db.Transaction(func(tx *gorm.DB) error {
		settings, err := s.repo.Get(ctx, db.ForUpdate(tx))
		if err != nil {
			return err
		}
		if settings.CurrentBatch != batch {
			// Already reverted; only the resync phase is left.
			return nil
		}

		orders, err := s.orders.ListByBatch(ctx, db.ForUpdate(tx), batch)
		if err != nil {
			return err
		}
		for _, order := range orders {
			if err := s.ledgers.RemoveOrderEntries(ctx, tx, order.LocationKey, order.ID); err != nil {
				return err
			}
		}
		if err := s.orders.DeleteByBatch(ctx, tx, batch); err != nil {
			return err
		}

		settings.CurrentBatch = batch - 1
		return s.repo.Save(ctx, tx, settings)
	})
	if err != nil {
		return err
	}

	if _, err := s.stats.ResyncAll(ctx); err != nil {
		return err
	}
	s.metrics.RecordStatsResync(ctx, "batch_revert")
	s.log.Info("batch reverted", zap.Int("batch", batch))
	return nil
}

func (s *service) EndEvent(ctx context.Context) error {
	return s.runJob(ctx, settingsdomain.JobKindEventEnd, nil, s.endEvent)
}

func (s *service) endEvent(ctx context.Context) error {
	err := s.db.Transaction(func(tx *gorm.DB) error {
		if err := s.orders.DeleteAll(ctx, tx); err != nil {
			return err
		}
		if err := s.ledgers.DeleteAll(ctx, tx); err != nil {
			return err
		}
		if err := s.stats.Reset(ctx, tx); err != nil {
			return err
		}

		settings, err := s.repo.Get(ctx, db.ForUpdate(tx))
		if err != nil {
			return err
		}
		settings.OrdersOpen = false
		settings.CurrentBatch = 1
		return s.repo.Save(ctx, tx, settings)
	})
	if err != nil {
		return err
	}
	s.log.Info("event ended, all data wiped")
	return nil
}

func (s *service) ResumePendingJobs(ctx context.Context) error {
	jobs, err := s.repo.UnfinishedJobs(ctx, s.db)
	if err != nil {
		return err
	}
	for i := range jobs {
		job := &jobs[i]
		s.log.Warn("resuming reconcile job",
			zap.String("kind", job.Kind),
			zap.String("job_id", job.ID.String()),
		)
		if err := s.executeJob(ctx, job, s.repairFor(job)); err != nil {
			s.log.Error("reconcile job repair failed",
				zap.String("kind", job.Kind),
				zap.Error(err),
			)
		}
	}
	return nil
}

// repairFor maps a journaled job to its idempotent re-run. Phase one of
// every job commits atomically, so re-running the whole operation either
// redoes it or collapses to the resync phase.
func (s *service) repairFor(job *settingsdomain.ReconcileJob) func(context.Context) error {
	switch job.Kind {
	case settingsdomain.JobKindPriceChange:
		price, ok := payloadInt64(job.Payload, "unit_price")
		if !ok || price <= 0 {
			return func(context.Context) error { return settingsdomain.ErrInvalidUnitPrice }
		}
		return func(ctx context.Context) error { return s.cascadePrice(ctx, price, nil) }
	case settingsdomain.JobKindBatchRevert:
		batch, ok := payloadInt64(job.Payload, "batch")
		if !ok || batch <= 1 {
			return func(context.Context) error { return settingsdomain.ErrInvalidBatch }
		}
		return func(ctx context.Context) error { return s.revertBatch(ctx, int(batch)) }
	case settingsdomain.JobKindEventEnd:
		return s.endEvent
	default:
		return func(context.Context) error { return settingsdomain.ErrUnknownJobKind }
	}
}

func (s *service) runJob(ctx context.Context, kind string, payload datatypes.JSONMap, fn func(context.Context) error) error {
	job := &settingsdomain.ReconcileJob{
		ID:        s.node.Generate(),
		Kind:      kind,
		Status:    settingsdomain.JobStatusPending,
		Payload:   payload,
		CreatedAt: time.Now().UTC(),
	}

	// The settings row lock serializes the unfinished check with the job
	// insert, so two admins cannot both start a job.
	err := s.db.Transaction(func(tx *gorm.DB) error {
		if _, err := s.repo.Get(ctx, db.ForUpdate(tx)); err != nil {
			return err
		}
		unfinished, err := s.repo.UnfinishedJobs(ctx, tx)
		if err != nil {
			return err
		}
		if len(unfinished) > 0 {
			return settingsdomain.ErrJobAlreadyRunning
		}
		return s.repo.CreateJob(ctx, tx, job)
	})
	if err != nil {
		return err
	}
	return s.executeJob(ctx, job, fn)
}

func (s *service) executeJob(ctx context.Context, job *settingsdomain.ReconcileJob, fn func(context.Context) error) error {
	now := time.Now().UTC()
	job.Status = settingsdomain.JobStatusProcessing
	job.StartedAt = &now
	if err := s.repo.SaveJob(ctx, s.db, job); err != nil {
		return err
	}

	runErr := fn(ctx)
	done := time.Now().UTC()
	job.CompletedAt = &done
	if runErr != nil {
		job.Status = settingsdomain.JobStatusFailed
		job.Error = runErr.Error()
	} else {
		job.Status = settingsdomain.JobStatusCompleted
		job.Error = ""
	}
	if err := s.repo.SaveJob(ctx, s.db, job); err != nil {
		s.log.Error("reconcile job status update failed",
			zap.String("kind", job.Kind),
			zap.Error(err),
		)
	}
	s.metrics.RecordReconcileJob(ctx, job.Kind, job.Status)
	return runErr
}

func payloadInt64(payload datatypes.JSONMap, key string) (int64, bool) {
	raw, ok := payload[key]
	if !ok {
		return 0, false
	}
	switch typed := raw.(type) {
	case int64:
		return typed, true
	case float64:
		return int64(typed), true
	case json.Number:
		parsed, err := typed.Int64()
		if err != nil {
			return 0, false
		}
		return parsed, true
	default:
		return 0, false
	}
}
