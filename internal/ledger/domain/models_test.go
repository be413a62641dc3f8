package domain

import (
	"testing"

	"github.com/bwmarrin/snowflake"
	orderdomain "github.com/jubileu50/pedidos/internal/order/domain"
)

func TestNormalizeLocationKey(t *testing.T) {
	cases := []struct {
		locationType orderdomain.LocationType
		input        string
		want         string
	}{
		{orderdomain.Capital, "Central", "SETOR CENTRAL"},
		{orderdomain.Capital, "  setor central  ", "SETOR CENTRAL"},
		{orderdomain.Capital, "SETOR NORTE", "SETOR NORTE"},
		{orderdomain.Interior, "Anápolis", "ANÁPOLIS"},
		{orderdomain.Interior, " rio verde ", "RIO VERDE"},
	}

	for _, tc := range cases {
		if got := NormalizeLocationKey(tc.locationType, tc.input); got != tc.want {
			t.Fatalf("NormalizeLocationKey(%s, %q) = %q, want %q",
				tc.locationType, tc.input, got, tc.want)
		}
	}
}

func TestEntryListOperations(t *testing.T) {
	orderA := snowflake.ID(1001)
	orderB := snowflake.ID(1002)

	list := EntryList{
		{OrderID: orderA, Amount: 100, ISOTimestamp: "2026-01-01T10:00:00Z", EntryID: NewEntryID(orderA, "2026-01-01T10:00:00Z")},
		{OrderID: orderB, Amount: 50, ISOTimestamp: "2026-01-02T10:00:00Z", EntryID: NewEntryID(orderB, "2026-01-02T10:00:00Z")},
		{OrderID: orderA, Amount: 200, ISOTimestamp: "2026-01-03T10:00:00Z", EntryID: NewEntryID(orderA, "2026-01-03T10:00:00Z")},
	}

	if got := list.SumForOrder(orderA); got != 300 {
		t.Fatalf("SumForOrder = %d, want 300", got)
	}
	if got := len(list.ForOrder(orderA)); got != 2 {
		t.Fatalf("ForOrder returned %d entries, want 2", got)
	}

	latest, ok := list.Latest(orderA)
	if !ok || latest.Amount != 200 {
		t.Fatalf("Latest = %+v ok=%v, want amount 200", latest, ok)
	}
	if _, ok := list.Latest(snowflake.ID(9999)); ok {
		t.Fatal("expected no latest entry for unknown order")
	}

	trimmed := list.WithoutEntry(latest.EntryID)
	if len(trimmed) != 2 || trimmed.SumForOrder(orderA) != 100 {
		t.Fatalf("WithoutEntry left %+v", trimmed)
	}

	onlyB := list.WithoutOrder(orderA)
	if len(onlyB) != 1 || onlyB[0].OrderID != orderB {
		t.Fatalf("WithoutOrder left %+v", onlyB)
	}
}
