package rates

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/ZeMiguelGomes/voucherd/internal/obs"
)

// HTTPSource quotes exchange rates from the billing system's rate endpoint.
// The endpoint answers GET {base}/rate?from=X&to=Y with {"rate": "<decimal>"}
// where rate is the price of one `to` unit in `from`.
type HTTPSource struct {
	BaseURL string
	Client  *http.Client
}

// NewHTTPSource builds a source with an instrumented HTTP client.
func NewHTTPSource(baseURL string) *HTTPSource {
	return &HTTPSource{
		BaseURL: strings.TrimRight(baseURL, "/"),
		Client: &http.Client{
			Timeout:   10 * time.Second,
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		},
	}
}

// Quote implements Source.
func (s *HTTPSource) Quote(ctx context.Context, from, to string, amount decimal.Decimal) (out decimal.Decimal, err error) {
	if s == nil || s.Client == nil || s.BaseURL == "" {
		return decimal.Decimal{}, fmt.Errorf("rate source not configured")
	}
	defer func() {
		result := "ok"
		if err != nil {
			result = "error"
		}
		obs.RateQuotesTotal.WithLabelValues(result).Inc()
	}()
	q := url.Values{}
	q.Set("from", from)
	q.Set("to", to)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.BaseURL+"/rate?"+q.Encode(), nil)
	if err != nil {
		return decimal.Decimal{}, err
	}
	req.Header.Set("Accept", "application/json")
	resp, err := s.Client.Do(req)
	if err != nil {
		return decimal.Decimal{}, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return decimal.Decimal{}, fmt.Errorf("rate endpoint: %s", resp.Status)
	}
	var body struct {
		Rate decimal.Decimal `json:"rate"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return decimal.Decimal{}, fmt.Errorf("decode rate response: %w", err)
	}
	if body.Rate.IsZero() {
		return decimal.Decimal{}, fmt.Errorf("no rate for %s/%s", to, from)
	}
	return amount.Mul(body.Rate), nil
}
