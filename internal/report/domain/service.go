package domain

import (
	"context"
	"io"
)

// Service renders administrative PDF reports. A batch of zero means all
// batches.
type Service interface {
	// OrderList renders one line per order with amounts and payment status.
	OrderList(ctx context.Context, batch int) (io.Reader, error)
	// SizeMatrix renders the production matrix of quantities per color, cut
	// and size.
	SizeMatrix(ctx context.Context, batch int) (io.Reader, error)
}
