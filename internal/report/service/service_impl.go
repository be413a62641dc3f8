package service

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/johnfercher/maroto/v2"
	"github.com/johnfercher/maroto/v2/pkg/components/col"
	"github.com/johnfercher/maroto/v2/pkg/components/text"
	"github.com/johnfercher/maroto/v2/pkg/config"
	"github.com/johnfercher/maroto/v2/pkg/consts/align"
	"github.com/johnfercher/maroto/v2/pkg/consts/fontstyle"
	"github.com/johnfercher/maroto/v2/pkg/core"
	"github.com/johnfercher/maroto/v2/pkg/core/entity"
	"github.com/johnfercher/maroto/v2/pkg/props"
	orderdomain "github.com/jubileu50/pedidos/internal/order/domain"
	reportdomain "github.com/jubileu50/pedidos/internal/report/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
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

func New(p Params) reportdomain.Service {
	return &service{
		db:     p.DB,
		log:    p.Log.Named("report.service"),
		orders: p.Orders,
	}
}

func (s *service) OrderList(ctx context.Context, batch int) (io.Reader, error) {
	orders, err := s.load(ctx, batch)
	if err != nil {
		return nil, err
	}

	m := maroto.New(pageConfig())
	addTitle(m, "Pedidos - Jubileu de Ouro", batch)

	m.AddRow(8,
		text.NewCol(2, "Código", headerText()),
		text.NewCol(3, "Líder", headerText()),
		text.NewCol(3, "Local", headerText()),
		text.NewCol(1, "Qtde", headerTextRight()),
		text.NewCol(1, "Devido", headerTextRight()),
		text.NewCol(1, "Pago", headerTextRight()),
		text.NewCol(1, "Status", headerText()),
	)

	var totalShirts int
	var totalDue, totalPaid int64
	for _, order := range orders {
		shirts := order.Breakdown.TotalShirts()
		totalShirts += shirts
		totalDue += order.AmountDue
		totalPaid += order.AmountPaid

		m.AddRow(7,
			text.NewCol(2, order.OrderNumber, cellText()),
			text.NewCol(3, order.LeaderName, cellText()),
			text.NewCol(3, order.LocationKey, cellText()),
			text.NewCol(1, strconv.Itoa(shirts), cellTextRight()),
			text.NewCol(1, formatCentavos(order.AmountDue), cellTextRight()),
			text.NewCol(1, formatCentavos(order.AmountPaid), cellTextRight()),
			text.NewCol(1, statusLabel(order.PaymentStatus), cellText()),
		)
	}

	m.AddRow(10,
		text.NewCol(5, fmt.Sprintf("%d pedidos", len(orders)), totalText()),
		col.New(3),
		text.NewCol(1, strconv.Itoa(totalShirts), totalTextRight()),
		text.NewCol(1, formatCentavos(totalDue), totalTextRight()),
		text.NewCol(1, formatCentavos(totalPaid), totalTextRight()),
		col.New(1),
	)

	doc, err := m.Generate()
	if err != nil {
		return nil, err
	}
	return bytes.NewReader(doc.GetBytes()), nil
}

func (s *service) SizeMatrix(ctx context.Context, batch int) (io.Reader, error) {
	orders, err := s.load(ctx, batch)
	if err != nil {
		return nil, err
	}

	m := maroto.New(pageConfig())
	addTitle(m, "Grade de Produção - Jubileu de Ouro", batch)

	for _, color := range orderdomain.Colors {
		m.AddRow(10,
			text.NewCol(12, colorLabel(color), props.Text{
				Size:  12,
				Style: fontstyle.Bold,
				Top:   3,
			}),
		)
		for _, category := range orderdomain.Categories {
			sizes := sizesFor(category)

			counts := make(map[string]int, len(sizes))
			total := 0
			for _, order := range orders {
				for size, qty := range order.Breakdown.Color(color).Sizes(category) {
					if qty > 0 {
						counts[size] += qty
						total += qty
					}
				}
			}
			if total == 0 {
				continue
			}

			headerCols := make([]string, 0, len(sizes))
			valueCols := make([]string, 0, len(sizes))
			for _, size := range sizes {
				headerCols = append(headerCols, size)
				valueCols = append(valueCols, strconv.Itoa(counts[size]))
			}

			m.AddRow(7,
				text.NewCol(3, categoryLabel(category), headerText()),
				text.NewCol(7, strings.Join(headerCols, "  "), headerText()),
				text.NewCol(2, "Total", headerTextRight()),
			)
			m.AddRow(7,
				col.New(3),
				text.NewCol(7, strings.Join(valueCols, "  "), cellText()),
				text.NewCol(2, strconv.Itoa(total), cellTextRight()),
			)
		}
	}

	doc, err := m.Generate()
	if err != nil {
		return nil, err
	}
	return bytes.NewReader(doc.GetBytes()), nil
}

func (s *service) load(ctx context.Context, batch int) ([]orderdomain.Order, error) {
	if batch > 0 {
		return s.orders.ListByBatch(ctx, s.db, batch)
	}
	return s.orders.List(ctx, s.db)
}

func pageConfig() *entity.Config {
	return config.NewBuilder().
		WithPageNumber(props.PageNumber{
			Pattern: "Página {current} de {total}",
			Place:   props.RightBottom,
		}).
		Build()
}

func addTitle(m core.Maroto, title string, batch int) {
	subtitle := "Todos os lotes"
	if batch > 0 {
		subtitle = fmt.Sprintf("Lote %d", batch)
	}
	m.AddRow(12,
		text.NewCol(12, title, props.Text{
			Size:  16,
			Style: fontstyle.Bold,
			Align: align.Left,
		}),
	)
	m.AddRow(8,
		text.NewCol(8, subtitle, props.Text{Size: 10}),
		text.NewCol(4, time.Now().Format("02/01/2006 15:04"), props.Text{
			Size:  10,
			Align: align.Right,
		}),
	)
}

func headerText() props.Text {
	return props.Text{Size: 9, Style: fontstyle.Bold}
}

func headerTextRight() props.Text {
	return props.Text{Size: 9, Style: fontstyle.Bold, Align: align.Right}
}

func cellText() props.Text {
	return props.Text{Size: 8}
}

func cellTextRight() props.Text {
	return props.Text{Size: 8, Align: align.Right}
}

func totalText() props.Text {
	return props.Text{Size: 9, Style: fontstyle.Bold, Top: 2}
}

func totalTextRight() props.Text {
	return props.Text{Size: 9, Style: fontstyle.Bold, Align: align.Right, Top: 2}
}

func formatCentavos(amount int64) string {
	return fmt.Sprintf("R$ %d,%02d", amount/100, amount%100)
}

func statusLabel(status orderdomain.PaymentStatus) string {
	switch status {
	case orderdomain.Paid:
		return "Pago"
	case orderdomain.Partial:
		return "Parcial"
	default:
		return "Pendente"
	}
}

func colorLabel(color string) string {
	switch color {
	case "verde_oliva":
		return "Verde Oliva"
	case "terracota":
		return "Terracota"
	default:
		return color
	}
}

func categoryLabel(category string) string {
	switch category {
	case "infantil":
		return "Infantil"
	case "babylook":
		return "Babylook"
	default:
		return "Unissex"
	}
}

func sizesFor(category string) []string {
	if category == "infantil" {
		return orderdomain.InfantilSizes
	}
	return orderdomain.AdultSizes
}
