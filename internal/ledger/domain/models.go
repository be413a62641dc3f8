package domain

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
	"sort"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	orderdomain "github.com/jubileu50/pedidos/internal/order/domain"
	"gorm.io/gorm"
	"gorm.io/gorm/schema"
)

// Entry is one recorded payment ("liquidação") against an order.
type Entry struct {
	OrderID      snowflake.ID `json:"order_id"`
	OrderNumber  string       `json:"order_number"`
	LeaderName   string       `json:"leader_name"`
	Amount       int64        `json:"amount"`
	DisplayDate  string       `json:"display_date"`
	ISOTimestamp string       `json:"iso_timestamp"`
	EntryID      string       `json:"entry_id"`
}

// NewEntryID derives the ledger-unique entry identifier.
func NewEntryID(orderID snowflake.ID, isoTimestamp string) string {
	return orderID.String() + "-" + isoTimestamp
}

// EntryList is the ordered payment list of one location's ledger document.
// The whole list is rewritten on every mutation; contention on one location
// serializes through the enclosing transaction.
type EntryList []Entry

// ForOrder returns the entries recorded against the given order.
func (l EntryList) ForOrder(orderID snowflake.ID) []Entry {
	matched := make([]Entry, 0, len(l))
	for _, entry := range l {
		if entry.OrderID == orderID {
			matched = append(matched, entry)
		}
	}
	return matched
}

// Latest returns the most recent entry for the order by ISO timestamp,
// or false when the order has no entries.
func (l EntryList) Latest(orderID snowflake.ID) (Entry, bool) {
	matched := l.ForOrder(orderID)
	if len(matched) == 0 {
		return Entry{}, false
	}
	sort.Slice(matched, func(i, j int) bool {
		return matched[i].ISOTimestamp > matched[j].ISOTimestamp
	})
	return matched[0], true
}

// SumForOrder totals the recorded amounts for the order.
func (l EntryList) SumForOrder(orderID snowflake.ID) int64 {
	var sum int64
	for _, entry := range l {
		if entry.OrderID == orderID {
			sum += entry.Amount
		}
	}
	return sum
}

// WithoutEntry returns the list minus the entry with the given id.
func (l EntryList) WithoutEntry(entryID string) EntryList {
	kept := make(EntryList, 0, len(l))
	for _, entry := range l {
		if entry.EntryID != entryID {
			kept = append(kept, entry)
		}
	}
	return kept
}

// WithoutOrder returns the list minus every entry for the given order.
func (l EntryList) WithoutOrder(orderID snowflake.ID) EntryList {
	kept := make(EntryList, 0, len(l))
	for _, entry := range l {
		if entry.OrderID != orderID {
			kept = append(kept, entry)
		}
	}
	return kept
}

func (l EntryList) Value() (driver.Value, error) {
	if l == nil {
		l = EntryList{}
	}
	raw, err := json.Marshal(l)
	if err != nil {
		return nil, err
	}
	return string(raw), nil
}

func (l *EntryList) Scan(value interface{}) error {
	if value == nil {
		*l = EntryList{}
		return nil
	}
	switch typed := value.(type) {
	case []byte:
		return json.Unmarshal(typed, l)
	case string:
		return json.Unmarshal([]byte(typed), l)
	default:
		return errors.New("unsupported entries column type")
	}
}

func (EntryList) GormDBDataType(db *gorm.DB, field *schema.Field) string {
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

// Ledger is the payment document of one location key.
type Ledger struct {
	LocationKey string    `json:"location_key" gorm:"primaryKey;type:text"`
	Entries     EntryList `json:"entries" gorm:"not null"`
	UpdatedAt   time.Time `json:"updated_at" gorm:"not null"`
}

func (Ledger) TableName() string { return "ledgers" }

// NormalizeLocationKey builds the ledger grouping key: the uppercased,
// trimmed sector or city. Capital sectors are prefixed with "SETOR " when
// the name does not already carry it.
func NormalizeLocationKey(locationType orderdomain.LocationType, sectorOrCity string) string {
	key := strings.ToUpper(strings.TrimSpace(sectorOrCity))
	if locationType == orderdomain.Capital && !strings.HasPrefix(key, "SETOR") {
		key = "SETOR " + key
	}
	return key
}
