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
	settingsdomain "github.com/jubileu50/pedidos/internal/settings/domain"
	settingsrepo "github.com/jubileu50/pedidos/internal/settings/repository"
	settingsservice "github.com/jubileu50/pedidos/internal/settings/service"
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
	stats    statsdomain.Service
}

// newTestEnv wires the services against a fresh database with a unit price
// of 30 centavos, so ten shirts cost 300.
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

	statsSvc := statsservice.New(statsservice.Params{DB: conn, Log: log, Orders: orders})
	settingsSvc := settingsservice.New(settingsservice.Params{
		DB:      conn,
		Log:     log,
		Node:    node,
		Repo:    settingsrepo.Provide(),
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
	paymentSvc := New(Params{
		DB:      conn,
		Log:     log,
		Orders:  orders,
		Ledgers: ledgers,
		Stats:   statsSvc,
	})

	price := int64(30)
	ctx := context.Background()
	if _, err := settingsSvc.Update(ctx, settingsdomain.UpdateRequest{UnitPrice: &price}); err != nil {
		t.Fatalf("set unit price: %v", err)
	}

	return &testEnv{
		conn:     conn,
		ledgers:  ledgers,
		orders:   orderSvc,
		payments: paymentSvc,
		stats:    statsSvc,
	}
}

func (e *testEnv) createOrder(t *testing.T) *orderdomain.Order {
	t.Helper()
	order, err := e.orders.Create(context.Background(), orderdomain.CreateRequest{
		LeaderName:   "Maria Souza",
		LocationType: orderdomain.Capital,
		SectorOrCity: "Central",
		Email:        "maria@example.com",
		Breakdown: orderdomain.Breakdown{
			VerdeOliva: &orderdomain.CategoryBreakdown{
				Unissex: orderdomain.SizeCount{"M": 6, "G": 4},
			},
		},
	})
	if err != nil {
		t.Fatalf("create order: %v", err)
	}
	return order
}

func TestRecordPaymentLifecycle(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	order := env.createOrder(t)

	if order.AmountDue != 300 {
		t.Fatalf("expected due 300, got %d", order.AmountDue)
	}

	first, err := env.payments.RecordPayment(ctx, order.ID.String(), paymentdomain.RecordRequest{Amount: 100})
	if err != nil {
		t.Fatalf("record payment: %v", err)
	}
	if first.Order.AmountPaid != 100 || first.Order.PaymentStatus != orderdomain.Partial {
		t.Fatalf("unexpected order after first payment: paid=%d status=%s",
			first.Order.AmountPaid, first.Order.PaymentStatus)
	}
	if first.Entry.Amount != 100 || first.Entry.OrderNumber != order.OrderNumber {
		t.Fatalf("unexpected ledger entry: %+v", first.Entry)
	}

	second, err := env.payments.RecordPayment(ctx, order.ID.String(), paymentdomain.RecordRequest{Amount: 200})
	if err != nil {
		t.Fatalf("record payment: %v", err)
	}
	if second.Order.AmountPaid != 300 || second.Order.PaymentStatus != orderdomain.Paid {
		t.Fatalf("unexpected order after second payment: paid=%d status=%s",
			second.Order.AmountPaid, second.Order.PaymentStatus)
	}

	history, err := env.payments.History(ctx, order.ID.String())
	if err != nil {
		t.Fatalf("history: %v", err)
	}
	if len(history) != 2 || history[0].Amount != 200 {
		t.Fatalf("unexpected history: %+v", history)
	}

	doc, err := env.stats.Get(ctx)
	if err != nil {
		t.Fatalf("get stats: %v", err)
	}
	if doc.TotalReceived != 300 || doc.PaidCount != 1 || doc.PartialCount != 0 || doc.PendingCount != 0 {
		t.Fatalf("unexpected stats: %+v", doc)
	}
}

func TestCancelLastPayment(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	order := env.createOrder(t)

	for _, amount := range []int64{100, 200} {
		if _, err := env.payments.RecordPayment(ctx, order.ID.String(), paymentdomain.RecordRequest{Amount: amount}); err != nil {
			t.Fatalf("record payment: %v", err)
		}
	}

	cancelled, err := env.payments.CancelLastPayment(ctx, order.ID.String())
	if err != nil {
		t.Fatalf("cancel payment: %v", err)
	}
	if cancelled.Entry.Amount != 200 {
		t.Fatalf("expected last entry of 200, got %d", cancelled.Entry.Amount)
	}
	if cancelled.Order.AmountPaid != 100 || cancelled.Order.PaymentStatus != orderdomain.Partial {
		t.Fatalf("unexpected order after cancel: paid=%d status=%s",
			cancelled.Order.AmountPaid, cancelled.Order.PaymentStatus)
	}

	if _, err := env.payments.CancelLastPayment(ctx, order.ID.String()); err != nil {
		t.Fatalf("cancel payment: %v", err)
	}
	if _, err := env.payments.CancelLastPayment(ctx, order.ID.String()); !errors.Is(err, paymentdomain.ErrNoPayments) {
		t.Fatalf("expected no payments, got %v", err)
	}

	doc, err := env.stats.Get(ctx)
	if err != nil {
		t.Fatalf("get stats: %v", err)
	}
	if doc.TotalReceived != 0 || doc.PendingCount != 1 {
		t.Fatalf("unexpected stats after cancels: %+v", doc)
	}

	ledger, err := env.ledgers.Find(ctx, env.conn, order.LocationKey)
	if err != nil {
		t.Fatalf("find ledger: %v", err)
	}
	if ledger != nil {
		t.Fatalf("expected ledger document removed, got %+v", ledger)
	}
}

func TestRecordPaymentValidation(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	order := env.createOrder(t)

	if _, err := env.payments.RecordPayment(ctx, order.ID.String(), paymentdomain.RecordRequest{Amount: 0}); !errors.Is(err, paymentdomain.ErrInvalidAmount) {
		t.Fatalf("expected invalid amount, got %v", err)
	}
	if _, err := env.payments.RecordPayment(ctx, "not-a-number", paymentdomain.RecordRequest{Amount: 10}); !errors.Is(err, orderdomain.ErrInvalidID) {
		t.Fatalf("expected invalid id, got %v", err)
	}
	if _, err := env.payments.RecordPayment(ctx, "999999", paymentdomain.RecordRequest{Amount: 10}); !errors.Is(err, orderdomain.ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestOverpaymentStaysPaid(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	order := env.createOrder(t)

	result, err := env.payments.RecordPayment(ctx, order.ID.String(), paymentdomain.RecordRequest{Amount: 500})
	if err != nil {
		t.Fatalf("record payment: %v", err)
	}
	if result.Order.PaymentStatus != orderdomain.Paid {
		t.Fatalf("expected paid, got %s", result.Order.PaymentStatus)
	}

	cancelled, err := env.payments.CancelLastPayment(ctx, order.ID.String())
	if err != nil {
		t.Fatalf("cancel payment: %v", err)
	}
	if cancelled.Order.AmountPaid != 0 || cancelled.Order.PaymentStatus != orderdomain.Pending {
		t.Fatalf("expected pending at zero, got paid=%d status=%s",
			cancelled.Order.AmountPaid, cancelled.Order.PaymentStatus)
	}
}

func TestFirstPaymentsSharedLocationKey(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	node, err := snowflake.NewNode(7)
	if err != nil {
		t.Fatalf("snowflake node: %v", err)
	}
	repo := orderrepo.Provide()

	// Orders from consecutive batches share one location key, so their first
	// payments both target a ledger document that does not exist yet.
	var ids []string
	for batch, email := range map[int]string{1: "ana@example.com", 2: "bia@example.com"} {
		order := &orderdomain.Order{
			ID:            node.Generate(),
			OrderNumber:   "JUB-B" + node.Generate().String(),
			Batch:         batch,
			LeaderName:    "Ana Lima",
			LocationType:  orderdomain.Interior,
			SectorOrCity:  "RIO VERDE",
			LocationKey:   "RIO VERDE",
			Email:         email,
			PaymentStatus: orderdomain.Pending,
			AmountDue:     300,
		}
		if err := repo.Insert(ctx, env.conn, order); err != nil {
			t.Fatalf("insert order: %v", err)
		}
		ids = append(ids, order.ID.String())
	}

	for _, id := range ids {
		if _, err := env.payments.RecordPayment(ctx, id, paymentdomain.RecordRequest{Amount: 100}); err != nil {
			t.Fatalf("record payment: %v", err)
		}
	}

	ledger, err := env.ledgers.Find(ctx, env.conn, "RIO VERDE")
	if err != nil {
		t.Fatalf("find ledger: %v", err)
	}
	if ledger == nil {
		t.Fatal("expected ledger document")
	}
	if len(ledger.Entries) != 2 {
		t.Fatalf("expected both first payments in the ledger, got %d entries", len(ledger.Entries))
	}
	for _, id := range ids {
		parsed, err := snowflake.ParseString(id)
		if err != nil {
			t.Fatalf("parse id: %v", err)
		}
		if got := ledger.Entries.SumForOrder(parsed); got != 100 {
			t.Fatalf("expected 100 recorded for order %s, got %d", id, got)
		}
	}
}
