package domain

import (
	"context"
	"errors"

	ledgerdomain "github.com/jubileu50/pedidos/internal/ledger/domain"
	orderdomain "github.com/jubileu50/pedidos/internal/order/domain"
)

type RecordRequest struct {
	Amount int64 `json:"amount"`
	// Date optionally overrides the display date (DD/MM/YYYY). The entry's
	// ordering timestamp is always server time.
	Date string `json:"date,omitempty"`
}

// Result pairs the updated order with the ledger entry the operation
// touched, so callers can render both without a second read.
type Result struct {
	Order *orderdomain.Order  `json:"order"`
	Entry *ledgerdomain.Entry `json:"entry,omitempty"`
}

type Service interface {
	// RecordPayment appends a ledger entry and moves the order's paid amount
	// and status atomically with the aggregate counters.
	RecordPayment(ctx context.Context, orderID string, req RecordRequest) (*Result, error)
	// CancelLastPayment removes the most recent ledger entry of the order and
	// rolls the paid amount back, flooring at zero.
	CancelLastPayment(ctx context.Context, orderID string) (*Result, error)
	// History lists the ledger entries recorded against the order, newest
	// first.
	History(ctx context.Context, orderID string) ([]ledgerdomain.Entry, error)
	// Ledgers returns every location ledger document.
	Ledgers(ctx context.Context) ([]ledgerdomain.Ledger, error)
}

var (
	ErrInvalidAmount = errors.New("invalid_payment_amount")
	ErrNoPayments    = errors.New("no_payments_to_cancel")
)
