// Package currency carries the money-format table: symbol to code mapping and
// amount quantization per currency precision.
package currency

import (
	"strings"

	"github.com/shopspring/decimal"
)

// Info describes display and precision data for one currency.
type Info struct {
	Code         string
	Symbol       string
	Divisibility int
}

// Table resolves currency symbols and quantizes amounts. The zero value is not
// usable; construct with NewTable.
type Table struct {
	byCode   map[string]Info
	bySymbol map[string]string
}

// NewTable builds the table with the currencies the voucher collection mints
// values in plus the settlement currencies invoices quote.
func NewTable() *Table {
	t := &Table{
		byCode:   make(map[string]Info),
		bySymbol: make(map[string]string),
	}
	for _, info := range []Info{
		{Code: "EUR", Symbol: "€", Divisibility: 2},
		{Code: "GBP", Symbol: "£", Divisibility: 2},
		{Code: "USD", Symbol: "$", Divisibility: 2},
		{Code: "ETH", Symbol: "Ξ", Divisibility: 18},
		{Code: "MATIC", Symbol: "", Divisibility: 18},
		{Code: "BTC", Symbol: "₿", Divisibility: 8},
	} {
		t.Register(info)
	}
	return t
}

// Register adds or replaces a currency entry.
func (t *Table) Register(info Info) {
	code := strings.ToUpper(strings.TrimSpace(info.Code))
	if code == "" {
		return
	}
	info.Code = code
	t.byCode[code] = info
	if info.Symbol != "" {
		t.bySymbol[info.Symbol] = code
	}
}

// SymbolToCurrency maps a currency symbol scanned out of a voucher value to
// its ISO-style code.
func (t *Table) SymbolToCurrency(symbol string) (string, bool) {
	code, ok := t.bySymbol[strings.TrimSpace(symbol)]
	return code, ok
}

// Symbol returns the display symbol for a currency code.
func (t *Table) Symbol(code string) (string, bool) {
	info, ok := t.byCode[strings.ToUpper(strings.TrimSpace(code))]
	if !ok || info.Symbol == "" {
		return "", false
	}
	return info.Symbol, true
}

// Divisibility returns the registered fractional precision for code, or 2 for
// unknown currencies.
func (t *Table) Divisibility(code string) int {
	if info, ok := t.byCode[strings.ToUpper(strings.TrimSpace(code))]; ok {
		return info.Divisibility
	}
	return 2
}

// Normalize quantizes amount to the given number of fractional digits using
// banker's rounding, falling back to the currency's registered precision when
// divisibility is negative.
func (t *Table) Normalize(code string, amount decimal.Decimal, divisibility int) decimal.Decimal {
	if divisibility < 0 {
		divisibility = t.Divisibility(code)
	}
	return amount.RoundBank(int32(divisibility))
}
