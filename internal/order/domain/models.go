package domain

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"
	"gorm.io/gorm/schema"
)

type LocationType string

var (
	Capital  LocationType = "CAPITAL"
	Interior LocationType = "INTERIOR"
)

type PaymentStatus string

var (
	Pending PaymentStatus = "PENDING"
	Partial PaymentStatus = "PARTIAL"
	Paid    PaymentStatus = "PAID"
)

// DeriveStatus computes the payment status from the paid and due amounts.
// Pending wins when both are zero, matching submission-time state.
func DeriveStatus(amountPaid, amountDue int64) PaymentStatus {
	switch {
	case amountPaid <= 0:
		return Pending
	case amountPaid >= amountDue:
		return Paid
	default:
		return Partial
	}
}

// SizeCount maps shirt size to ordered quantity.
type SizeCount map[string]int

// CategoryBreakdown groups quantities by cut within one color.
type CategoryBreakdown struct {
	Infantil SizeCount `json:"infantil,omitempty"`
	Babylook SizeCount `json:"babylook,omitempty"`
	Unissex  SizeCount `json:"unissex,omitempty"`
}

// Breakdown holds per-color shirt quantities for an order.
type Breakdown struct {
	VerdeOliva *CategoryBreakdown `json:"verde_oliva,omitempty"`
	Terracota  *CategoryBreakdown `json:"terracota,omitempty"`
}

// Canonical size orderings used by reports.
var (
	InfantilSizes = []string{"2", "4", "6", "8", "10", "12", "14", "16"}
	AdultSizes    = []string{"PP", "P", "M", "G", "GG", "XG", "EXG"}
	Categories    = []string{"infantil", "babylook", "unissex"}
	Colors        = []string{"verde_oliva", "terracota"}
)

func (c *CategoryBreakdown) total() int {
	if c == nil {
		return 0
	}
	sum := 0
	for _, counts := range []SizeCount{c.Infantil, c.Babylook, c.Unissex} {
		for _, qty := range counts {
			if qty > 0 {
				sum += qty
			}
		}
	}
	return sum
}

// TotalShirts returns the total shirt quantity across colors and cuts.
func (b Breakdown) TotalShirts() int {
	return b.VerdeOliva.total() + b.Terracota.total()
}

// Sizes returns the quantities for one color and category, never nil.
func (c *CategoryBreakdown) Sizes(category string) SizeCount {
	if c == nil {
		return SizeCount{}
	}
	switch category {
	case "infantil":
		return c.Infantil
	case "babylook":
		return c.Babylook
	case "unissex":
		return c.Unissex
	default:
		return SizeCount{}
	}
}

// Color returns the breakdown for the named color, possibly nil.
func (b Breakdown) Color(color string) *CategoryBreakdown {
	switch color {
	case "verde_oliva":
		return b.VerdeOliva
	case "terracota":
		return b.Terracota
	default:
		return nil
	}
}

func (b Breakdown) Value() (driver.Value, error) {
	raw, err := json.Marshal(b)
	if err != nil {
		return nil, err
	}
	return string(raw), nil
}

func (b *Breakdown) Scan(value interface{}) error {
	if value == nil {
		*b = Breakdown{}
		return nil
	}
	switch typed := value.(type) {
	case []byte:
		return json.Unmarshal(typed, b)
	case string:
		return json.Unmarshal([]byte(typed), b)
	default:
		return errors.New("unsupported breakdown column type")
	}
}

func (Breakdown) GormDBDataType(db *gorm.DB, field *schema.Field) string {
	_ = field
	switch db.Dialector.Name() {
	case "postgres":
		return "JSONB"
	case "mysql":
		return "JSON"
	default:
		return "TEXT"
	}
}

// Order is one sector's shirt order within a batch. Amounts are centavos.
type Order struct {
	ID            snowflake.ID  `json:"id" gorm:"primaryKey"`
	OrderNumber   string        `json:"order_number" gorm:"type:text;not null;uniqueIndex"`
	Batch         int           `json:"batch" gorm:"not null;index;uniqueIndex:idx_orders_location_batch,priority:2;uniqueIndex:idx_orders_email_batch,priority:2"`
	LeaderName    string        `json:"leader_name" gorm:"type:text;not null"`
	LocationType  LocationType  `json:"location_type" gorm:"type:text;not null"`
	SectorOrCity  string        `json:"sector_or_city" gorm:"type:text;not null"`
	LocationKey   string        `json:"location_key" gorm:"type:text;not null;uniqueIndex:idx_orders_location_batch,priority:1"`
	Email         string        `json:"email" gorm:"type:text;not null;uniqueIndex:idx_orders_email_batch,priority:1"`
	Phone         string        `json:"phone" gorm:"type:text"`
	Note          string        `json:"note,omitempty" gorm:"type:text"`
	PaymentStatus PaymentStatus `json:"payment_status" gorm:"type:text;not null"`
	AmountPaid    int64         `json:"amount_paid" gorm:"not null;default:0"`
	AmountDue     int64         `json:"amount_due" gorm:"not null;default:0"`
	Breakdown     Breakdown     `json:"breakdown" gorm:"not null"`
	CreatedAt     time.Time     `json:"created_at" gorm:"not null;index"`
	UpdatedAt     time.Time     `json:"updated_at" gorm:"not null"`
}

func (Order) TableName() string { return "orders" }
