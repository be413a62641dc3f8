package service

import (
	"bytes"
	"context"
	"io"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/jubileu50/pedidos/internal/migration"
	orderdomain "github.com/jubileu50/pedidos/internal/order/domain"
	orderrepo "github.com/jubileu50/pedidos/internal/order/repository"
	reportdomain "github.com/jubileu50/pedidos/internal/report/domain"
	"github.com/jubileu50/pedidos/pkg/db"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

func newTestService(t *testing.T) (reportdomain.Service, *gorm.DB, orderdomain.Repository) {
	t.Helper()

	conn, err := db.NewTest()
	require.NoError(t, err)
	require.NoError(t, migration.AutoMigrate(conn))

	orders := orderrepo.Provide()
	svc := New(Params{DB: conn, Log: zap.NewNop(), Orders: orders})
	return svc, conn, orders
}

func seedOrder(t *testing.T, conn *gorm.DB, orders orderdomain.Repository, node *snowflake.Node, batch int, sector string) {
	t.Helper()
	now := time.Now().UTC()
	err := orders.Insert(context.Background(), conn, &orderdomain.Order{
		ID:            node.Generate(),
		OrderNumber:   "JUB-" + node.Generate().String(),
		Batch:         batch,
		LeaderName:    "Líder " + sector,
		LocationType:  orderdomain.Interior,
		SectorOrCity:  sector,
		LocationKey:   sector,
		Email:         sector + "@example.com",
		PaymentStatus: orderdomain.Partial,
		AmountPaid:    100,
		AmountDue:     300,
		Breakdown: orderdomain.Breakdown{
			VerdeOliva: &orderdomain.CategoryBreakdown{
				Infantil: orderdomain.SizeCount{"8": 2},
				Unissex:  orderdomain.SizeCount{"M": 5},
			},
			Terracota: &orderdomain.CategoryBreakdown{
				Babylook: orderdomain.SizeCount{"P": 3},
			},
		},
		CreatedAt: now,
		UpdatedAt: now,
	})
	require.NoError(t, err)
}

func readPDF(t *testing.T, reader io.Reader) []byte {
	t.Helper()
	raw, err := io.ReadAll(reader)
	require.NoError(t, err)
	require.True(t, bytes.HasPrefix(raw, []byte("%PDF")), "expected a PDF document")
	return raw
}

func TestOrderListReport(t *testing.T) {
	svc, conn, orders := newTestService(t)
	node, err := snowflake.NewNode(4)
	require.NoError(t, err)

	seedOrder(t, conn, orders, node, 1, "ANAPOLIS")
	seedOrder(t, conn, orders, node, 2, "GOIANIA")

	reader, err := svc.OrderList(context.Background(), 0)
	require.NoError(t, err)
	readPDF(t, reader)

	filtered, err := svc.OrderList(context.Background(), 2)
	require.NoError(t, err)
	readPDF(t, filtered)
}

func TestSizeMatrixReport(t *testing.T) {
	svc, conn, orders := newTestService(t)
	node, err := snowflake.NewNode(5)
	require.NoError(t, err)

	seedOrder(t, conn, orders, node, 1, "ANAPOLIS")

	reader, err := svc.SizeMatrix(context.Background(), 0)
	require.NoError(t, err)
	readPDF(t, reader)
}

func TestReportsOnEmptyDatabase(t *testing.T) {
	svc, _, _ := newTestService(t)

	reader, err := svc.OrderList(context.Background(), 0)
	require.NoError(t, err)
	readPDF(t, reader)

	matrix, err := svc.SizeMatrix(context.Background(), 0)
	require.NoError(t, err)
	readPDF(t, matrix)
}
