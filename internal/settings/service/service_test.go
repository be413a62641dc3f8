package service

import (
	"context"
	"errors"
	"testing"

	"github.com/bwmarrin/snowflake"
	"github.com/jubileu50/pedidos/internal/config"
	ledgerdomain "github.com/jubileu50/pedidos/internal/ledger/domain"
	ledgerrepo "github.com/jubileu50/pedidos/internal/ledger/repository"
	"github.com/jubileu50/pedidos/internal/migration"
	orderdomain "github.com/jubileu50/pedidos/internal/order/domain"
	orderrepo "github.com/jubileu50/pedidos/internal/order/repository"
	orderservice "github.com/jubileu50/pedidos/internal/order/service"
	paymentdomain "github.com/jubileu50/pedidos/internal/payment/domain"
	paymentservice "github.com/jubileu50/pedidos/internal/payment/service"
	settingsdomain "github.com/jubileu50/pedidos/internal/settings/domain"
	settingsrepo "github.com/jubileu50/pedidos/internal/settings/repository"
	statsdomain "github.com/jubileu50/pedidos/internal/stats/domain"
	statsservice "github.com/jubileu50/pedidos/internal/stats/service"
	"github.com/jubileu50/pedidos/pkg/db"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type testEnv struct {
	conn     *gorm.DB
	ledgers  ledgerdomain.Repository
	orders   orderdomain.Service
	payments paymentdomain.Service
	settings settingsdomain.Service
	stats    statsdomain.Service
	jobs     settingsdomain.Repository
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	conn, err := db.NewTest()
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	if err := migration.AutoMigrate(conn); err != nil {
		t.Fatalf("migrate test db: %v", err)
	}

	node, err := snowflake.NewNode(1)
	if err != nil {
		t.Fatalf("snowflake node: %v", err)
	}
	log := zap.NewNop()

	orders := orderrepo.Provide()
	ledgers := ledgerrepo.Provide()
	settingsRepo := settingsrepo.Provide()

	statsSvc := statsservice.New(statsservice.Params{DB: conn, Log: log, Orders: orders})
	settingsSvc := New(Params{
		DB:      conn,
		Log:     log,
		Node:    node,
		Repo:    settingsRepo,
		Orders:  orders,
		Ledgers: ledgers,
		Stats:   statsSvc,
	})
	orderSvc := orderservice.New(orderservice.Params{
		DB:       conn,
		Log:      log,
		Node:     node,
		Cfg:      config.Config{OrderCodePrefix: "JUB"},
		Repo:     orders,
		Ledgers:  ledgers,
		Settings: settingsSvc,
		Stats:    statsSvc,
	})
	paymentSvc := paymentservice.New(paymentservice.Params{
		DB:      conn,
		Log:     log,
		Orders:  orders,
		Ledgers: ledgers,
		Stats:   statsSvc,
	})

	return &testEnv{
		conn:     conn,
		ledgers:  ledgers,
		orders:   orderSvc,
		payments: paymentSvc,
		settings: settingsSvc,
		stats:    statsSvc,
		jobs:     settingsRepo,
	}
}

func (e *testEnv) setPrice(t *testing.T, price int64) {
	t.Helper()
	if _, err := e.settings.Update(context.Background(), settingsdomain.UpdateRequest{UnitPrice: &price}); err != nil {
		t.Fatalf("set unit price: %v", err)
	}
}

func (e *testEnv) createOrder(t *testing.T, sector, email string, shirts int) *orderdomain.Order {
	t.Helper()
	order, err := e.orders.Create(context.Background(), orderdomain.CreateRequest{
		LeaderName:   "Líder " + sector,
		LocationType: orderdomain.Interior,
		SectorOrCity: sector,
		Email:        email,
		Breakdown: orderdomain.Breakdown{
			VerdeOliva: &orderdomain.CategoryBreakdown{
				Unissex: orderdomain.SizeCount{"M": shirts},
			},
		},
	})
	if err != nil {
		t.Fatalf("create order: %v", err)
	}
	return order
}

func TestGetSeedsDefaults(t *testing.T) {
	env := newTestEnv(t)

	settings, err := env.settings.Get(context.Background())
	if err != nil {
		t.Fatalf("get settings: %v", err)
	}
	if !settings.OrdersOpen || settings.CurrentBatch != 1 || settings.UnitPrice != settingsrepo.DefaultUnitPrice {
		t.Fatalf("unexpected defaults: %+v", settings)
	}
}

func TestUpdateValidation(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	if _, err := env.settings.Update(ctx, settingsdomain.UpdateRequest{}); !errors.Is(err, settingsdomain.ErrNothingToUpdate) {
		t.Fatalf("expected nothing to update, got %v", err)
	}

	zero := int64(0)
	if _, err := env.settings.Update(ctx, settingsdomain.UpdateRequest{UnitPrice: &zero}); !errors.Is(err, settingsdomain.ErrInvalidUnitPrice) {
		t.Fatalf("expected invalid unit price, got %v", err)
	}
}

// A price change rewrites every order's due amount, re-derives its payment
// status from the untouched paid amount, and resyncs the aggregates.
func TestPriceChangeCascade(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	env.setPrice(t, 30)
	order := env.createOrder(t, "Anápolis", "lider@example.com", 10)
	if order.AmountDue != 300 {
		t.Fatalf("expected due 300, got %d", order.AmountDue)
	}
	if _, err := env.payments.RecordPayment(ctx, order.ID.String(), paymentdomain.RecordRequest{Amount: 150}); err != nil {
		t.Fatalf("record payment: %v", err)
	}

	env.setPrice(t, 40)

	updated, err := env.orders.Get(ctx, order.ID.String())
	if err != nil {
		t.Fatalf("get order: %v", err)
	}
	if updated.AmountDue != 400 || updated.AmountPaid != 150 {
		t.Fatalf("unexpected amounts after price change: due=%d paid=%d",
			updated.AmountDue, updated.AmountPaid)
	}
	if updated.PaymentStatus != orderdomain.Partial {
		t.Fatalf("expected partial, got %s", updated.PaymentStatus)
	}

	doc, err := env.stats.Get(ctx)
	if err != nil {
		t.Fatalf("get stats: %v", err)
	}
	if doc.TotalDue != 400 || doc.TotalReceived != 150 {
		t.Fatalf("unexpected stats after price change: %+v", doc)
	}

	// A price drop below the paid amount flips the order to paid.
	env.setPrice(t, 10)
	updated, err = env.orders.Get(ctx, order.ID.String())
	if err != nil {
		t.Fatalf("get order: %v", err)
	}
	if updated.AmountDue != 100 || updated.PaymentStatus != orderdomain.Paid {
		t.Fatalf("expected paid at due 100, got due=%d status=%s",
			updated.AmountDue, updated.PaymentStatus)
	}
}

func TestNewBatchSequence(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	if _, err := env.settings.NewBatch(ctx, 3); !errors.Is(err, settingsdomain.ErrInvalidBatch) {
		t.Fatalf("expected invalid batch, got %v", err)
	}

	settings, err := env.settings.NewBatch(ctx, 2)
	if err != nil {
		t.Fatalf("new batch: %v", err)
	}
	if settings.CurrentBatch != 2 {
		t.Fatalf("expected batch 2, got %d", settings.CurrentBatch)
	}
}

func TestRevertBatch(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	env.setPrice(t, 30)
	kept := env.createOrder(t, "Anápolis", "lider1@example.com", 10)
	if _, err := env.payments.RecordPayment(ctx, kept.ID.String(), paymentdomain.RecordRequest{Amount: 100}); err != nil {
		t.Fatalf("record payment: %v", err)
	}

	if _, err := env.settings.RevertBatch(ctx); !errors.Is(err, settingsdomain.ErrFirstBatch) {
		t.Fatalf("expected first batch error, got %v", err)
	}

	if _, err := env.settings.NewBatch(ctx, 2); err != nil {
		t.Fatalf("new batch: %v", err)
	}
	doomed := env.createOrder(t, "Rio Verde", "lider2@example.com", 5)
	if _, err := env.payments.RecordPayment(ctx, doomed.ID.String(), paymentdomain.RecordRequest{Amount: 50}); err != nil {
		t.Fatalf("record payment: %v", err)
	}

	settings, err := env.settings.RevertBatch(ctx)
	if err != nil {
		t.Fatalf("revert batch: %v", err)
	}
	if settings.CurrentBatch != 1 {
		t.Fatalf("expected batch 1 after revert, got %d", settings.CurrentBatch)
	}

	if _, err := env.orders.Get(ctx, doomed.ID.String()); !errors.Is(err, orderdomain.ErrNotFound) {
		t.Fatalf("expected reverted order gone, got %v", err)
	}
	if _, err := env.orders.Get(ctx, kept.ID.String()); err != nil {
		t.Fatalf("expected batch 1 order kept: %v", err)
	}

	ledger, err := env.ledgers.Find(ctx, env.conn, doomed.LocationKey)
	if err != nil {
		t.Fatalf("find ledger: %v", err)
	}
	if ledger != nil {
		t.Fatalf("expected reverted ledger removed, got %+v", ledger)
	}

	doc, err := env.stats.Get(ctx)
	if err != nil {
		t.Fatalf("get stats: %v", err)
	}
	if doc.OrderCount != 1 || doc.TotalReceived != 100 || doc.PerBatch.Batch(2).OrderCount != 0 {
		t.Fatalf("unexpected stats after revert: %+v", doc)
	}
}

func TestEndEvent(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	env.setPrice(t, 30)
	order := env.createOrder(t, "Anápolis", "lider@example.com", 10)
	if _, err := env.payments.RecordPayment(ctx, order.ID.String(), paymentdomain.RecordRequest{Amount: 100}); err != nil {
		t.Fatalf("record payment: %v", err)
	}

	if err := env.settings.EndEvent(ctx); err != nil {
		t.Fatalf("end event: %v", err)
	}

	orders, err := env.orders.List(ctx)
	if err != nil {
		t.Fatalf("list orders: %v", err)
	}
	if len(orders) != 0 {
		t.Fatalf("expected no orders, got %d", len(orders))
	}

	doc, err := env.stats.Get(ctx)
	if err != nil {
		t.Fatalf("get stats: %v", err)
	}
	if doc.OrderCount != 0 || doc.TotalReceived != 0 {
		t.Fatalf("expected zero stats, got %+v", doc)
	}

	settings, err := env.settings.Get(ctx)
	if err != nil {
		t.Fatalf("get settings: %v", err)
	}
	if settings.OrdersOpen || settings.CurrentBatch != 1 {
		t.Fatalf("unexpected settings after end: %+v", settings)
	}
}

func TestResumePendingJobs(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	env.setPrice(t, 30)
	order := env.createOrder(t, "Anápolis", "lider@example.com", 10)

	// Simulate a crash after journaling a price change but before the
	// cascade ran.
	node, err := snowflake.NewNode(9)
	if err != nil {
		t.Fatalf("snowflake node: %v", err)
	}
	job := &settingsdomain.ReconcileJob{
		ID:      node.Generate(),
		Kind:    settingsdomain.JobKindPriceChange,
		Status:  settingsdomain.JobStatusProcessing,
		Payload: map[string]interface{}{"unit_price": float64(40)},
	}
	if err := env.jobs.CreateJob(ctx, env.conn, job); err != nil {
		t.Fatalf("create job: %v", err)
	}

	if err := env.settings.ResumePendingJobs(ctx); err != nil {
		t.Fatalf("resume jobs: %v", err)
	}

	updated, err := env.orders.Get(ctx, order.ID.String())
	if err != nil {
		t.Fatalf("get order: %v", err)
	}
	if updated.AmountDue != 400 {
		t.Fatalf("expected due 400 after repair, got %d", updated.AmountDue)
	}

	jobs, err := env.jobs.UnfinishedJobs(ctx, env.conn)
	if err != nil {
		t.Fatalf("unfinished jobs: %v", err)
	}
	if len(jobs) != 0 {
		t.Fatalf("expected no unfinished jobs, got %d", len(jobs))
	}
}

func TestJobSerialization(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	node, err := snowflake.NewNode(9)
	if err != nil {
		t.Fatalf("snowflake node: %v", err)
	}
	job := &settingsdomain.ReconcileJob{
		ID:     node.Generate(),
		Kind:   settingsdomain.JobKindEventEnd,
		Status: settingsdomain.JobStatusPending,
	}
	if err := env.jobs.CreateJob(ctx, env.conn, job); err != nil {
		t.Fatalf("create job: %v", err)
	}

	price := int64(40)
	if _, err := env.settings.Update(ctx, settingsdomain.UpdateRequest{UnitPrice: &price}); !errors.Is(err, settingsdomain.ErrJobAlreadyRunning) {
		t.Fatalf("expected job already running, got %v", err)
	}

	job.Status = settingsdomain.JobStatusCompleted
	if err := env.jobs.SaveJob(ctx, env.conn, job); err != nil {
		t.Fatalf("complete job: %v", err)
	}

	updated, err := env.settings.Update(ctx, settingsdomain.UpdateRequest{UnitPrice: &price})
	if err != nil {
		t.Fatalf("update after job completion: %v", err)
	}
	if updated.UnitPrice != price {
		t.Fatalf("expected unit price %d, got %d", price, updated.UnitPrice)
	}
}
