package rates

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/shopspring/decimal"

	"github.com/ZeMiguelGomes/voucherd/internal/obs"
)

func init() {
	obs.MustRegisterDomainMetrics("voucherd_test", nil)
}

type staticSource struct {
	out decimal.Decimal
	err error
}

func (s staticSource) Quote(context.Context, string, string, decimal.Decimal) (decimal.Decimal, error) {
	return s.out, s.err
}

func TestConvertSameCurrencySkipsSource(t *testing.T) {
	c := Converter{Source: staticSource{err: errors.New("must not be called")}}
	amount := decimal.RequireFromString("12.34")
	out, err := c.Convert(context.Background(), "eur", "EUR", amount)
	if err != nil {
		t.Fatalf("Convert: %v", err)
	}
	if !out.Equal(amount) {
		t.Fatalf("expected %s, got %s", amount, out)
	}
}

func TestConvertWrapsSourceFailure(t *testing.T) {
	c := Converter{Source: staticSource{err: errors.New("boom")}}
	_, err := c.Convert(context.Background(), "USD", "EUR", decimal.NewFromInt(10))
	if !errors.Is(err, ErrConversionUnavailable) {
		t.Fatalf("expected ErrConversionUnavailable, got %v", err)
	}
}

func TestConvertNoSource(t *testing.T) {
	c := Converter{}
	_, err := c.Convert(context.Background(), "USD", "EUR", decimal.NewFromInt(10))
	if !errors.Is(err, ErrConversionUnavailable) {
		t.Fatalf("expected ErrConversionUnavailable, got %v", err)
	}
}

func TestHTTPSourceQuote(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/rate" {
			t.Fatalf("unexpected path %s", r.URL.Path)
		}
		q := r.URL.Query()
		if q.Get("from") != "USD" || q.Get("to") != "EUR" {
			t.Fatalf("unexpected pair %s/%s", q.Get("from"), q.Get("to"))
		}
		w.Write([]byte(`{"rate":"1.08"}`))
	}))
	defer srv.Close()

	src := NewHTTPSource(srv.URL)
	out, err := src.Quote(context.Background(), "USD", "EUR", decimal.NewFromInt(10))
	if err != nil {
		t.Fatalf("Quote: %v", err)
	}
	if !out.Equal(decimal.RequireFromString("10.8")) {
		t.Fatalf("expected 10.8, got %s", out)
	}
}

func TestHTTPSourceZeroRate(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"rate":"0"}`))
	}))
	defer srv.Close()

	src := NewHTTPSource(srv.URL)
	if _, err := src.Quote(context.Background(), "USD", "EUR", decimal.NewFromInt(10)); err == nil {
		t.Fatal("expected error for zero rate")
	}
}
