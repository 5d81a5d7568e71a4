package discount

import (
	"context"
	"errors"
	"testing"

	"github.com/shopspring/decimal"

	"github.com/ZeMiguelGomes/voucherd/internal/billing"
	"github.com/ZeMiguelGomes/voucherd/internal/currency"
	"github.com/ZeMiguelGomes/voucherd/internal/nftmeta"
)

type recordingConverter struct {
	rate  decimal.Decimal
	calls int
}

func (c *recordingConverter) Convert(_ context.Context, _, _ string, amount decimal.Decimal) (decimal.Decimal, error) {
	c.calls++
	return amount.Mul(c.rate), nil
}

func lines(items ...billing.LineItem) []billing.LineItem { return items }

func line(productID, price string, qty int64) billing.LineItem {
	return billing.LineItem{ProductID: productID, Price: decimal.RequireFromString(price), Quantity: qty}
}

func TestMatcherFree(t *testing.T) {
	m := Matcher{Symbols: currency.NewTable()}
	spec := ProductSpec{ValueText: MarkerFree, ProductIDs: nftmeta.Value{"p1", "p2"}}
	total, matched, err := m.Apply(context.Background(), spec, lines(
		line("p1", "3.50", 1),
		line("p2", "2.00", 1),
		line("p3", "99.00", 1),
	), "EUR")
	if err != nil {
		t.Fatalf("apply: %v", err)
	}
	if !matched {
		t.Fatal("expected a match")
	}
	if total.String() != "5.5" {
		t.Fatalf("expected 5.5, got %s", total)
	}
}

func TestMatcherFreeUsesQuantity(t *testing.T) {
	m := Matcher{Symbols: currency.NewTable()}
	spec := ProductSpec{ValueText: MarkerFree, ProductIDs: nftmeta.Value{"p1"}}
	total, _, err := m.Apply(context.Background(), spec, lines(line("p1", "3.00", 3)), "EUR")
	if err != nil {
		t.Fatalf("apply: %v", err)
	}
	if total.String() != "9" {
		t.Fatalf("expected 9, got %s", total)
	}
}

func TestMatcherPercentIgnoresQuantity(t *testing.T) {
	m := Matcher{Symbols: currency.NewTable()}
	spec := ProductSpec{ValueText: "10%", ProductIDs: nftmeta.Value{"p1"}}
	total, _, err := m.Apply(context.Background(), spec, lines(line("p1", "50.00", 4)), "EUR")
	if err != nil {
		t.Fatalf("apply: %v", err)
	}
	// 10% of the unit price, quantity deliberately not applied.
	if !total.Equal(decimal.RequireFromString("5")) {
		t.Fatalf("expected 5, got %s", total)
	}
}

func TestMatcherCurrencyAmountPerMatchedLine(t *testing.T) {
	conv := &recordingConverter{rate: decimal.RequireFromString("1.1")}
	m := Matcher{Symbols: currency.NewTable(), Rates: conv}
	spec := ProductSpec{ValueText: "2€", ProductIDs: nftmeta.Value{"p1", "p2"}}
	total, matched, err := m.Apply(context.Background(), spec, lines(
		line("p1", "10.00", 1),
		line("p2", "20.00", 1),
	), "USD")
	if err != nil {
		t.Fatalf("apply: %v", err)
	}
	if !matched {
		t.Fatal("expected a match")
	}
	// 2 EUR -> 2.2 USD, accumulated once per matched line.
	if !total.Equal(decimal.RequireFromString("4.4")) {
		t.Fatalf("expected 4.4, got %s", total)
	}
	if conv.calls != 1 {
		t.Fatalf("expected a single rate lookup, got %d", conv.calls)
	}
}

func TestMatcherCurrencyAmountSameCurrencySkipsConversion(t *testing.T) {
	conv := &recordingConverter{rate: decimal.RequireFromString("2")}
	m := Matcher{Symbols: currency.NewTable(), Rates: conv}
	spec := ProductSpec{ValueText: "2€", ProductIDs: nftmeta.Value{"p1"}}
	total, _, err := m.Apply(context.Background(), spec, lines(line("p1", "10.00", 1)), "EUR")
	if err != nil {
		t.Fatalf("apply: %v", err)
	}
	if !total.Equal(decimal.RequireFromString("2")) {
		t.Fatalf("expected 2, got %s", total)
	}
	if conv.calls != 0 {
		t.Fatalf("expected no rate lookup, got %d", conv.calls)
	}
}

func TestMatcherNoMatchIsInapplicable(t *testing.T) {
	m := Matcher{Symbols: currency.NewTable()}
	spec := ProductSpec{ValueText: MarkerFree, ProductIDs: nftmeta.Value{"p9"}}
	_, matched, err := m.Apply(context.Background(), spec, lines(line("p1", "3.50", 1)), "EUR")
	if err != nil {
		t.Fatalf("apply: %v", err)
	}
	if matched {
		t.Fatal("expected no match")
	}
}

func TestMatcherUnknownMarker(t *testing.T) {
	m := Matcher{Symbols: currency.NewTable()}
	spec := ProductSpec{ValueText: "BOGOF", ProductIDs: nftmeta.Value{"p1"}}
	_, _, err := m.Apply(context.Background(), spec, lines(line("p1", "3.50", 1)), "EUR")
	if !errors.Is(err, ErrUnsupportedFormat) {
		t.Fatalf("expected ErrUnsupportedFormat, got %v", err)
	}
}
