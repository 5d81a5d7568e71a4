// Package shopify is a thin client for the Shopify Admin REST API, scoped to
// the order lookups the voucher flow needs.
package shopify

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/ZeMiguelGomes/voucherd/internal/billing"
)

// OrderPrefix marks invoice order IDs that originate from a Shopify checkout.
const OrderPrefix = "shopify-"

const apiVersion = "2022-04"

// APIError carries the upstream status code alongside the message so callers
// can distinguish missing orders from credential problems.
type APIError struct {
	Message    string
	StatusCode int
}

func (e *APIError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("shopify: %s (status %d)", e.Message, e.StatusCode)
	}
	return "shopify: " + e.Message
}

// Client talks to one shop's Admin API using basic auth credentials.
type Client struct {
	baseURL string
	auth    string
	http    *http.Client
}

// New builds a client for the given credentials. Shop names containing a dot
// are treated as full URLs; bare names resolve to the myshopify.com domain.
func New(shopName, apiKey, apiSecret string) *Client {
	baseURL := shopName
	if !strings.Contains(shopName, ".") {
		baseURL = fmt.Sprintf("https://%s.myshopify.com", shopName)
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		auth:    base64.StdEncoding.EncodeToString([]byte(apiKey + ":" + apiSecret)),
		http: &http.Client{
			Transport: otelhttp.NewTransport(http.DefaultTransport),
			Timeout:   15 * time.Second,
		},
	}
}

// ForStore builds a client from a store's settings, or reports that the store
// is not connected to Shopify.
func ForStore(store billing.Store) (*Client, error) {
	s := store.Shopify
	if strings.TrimSpace(s.ShopName) == "" || strings.TrimSpace(s.APIKey) == "" || strings.TrimSpace(s.APISecret) == "" {
		return nil, errors.New("shopify: store has no shopify credentials")
	}
	return New(s.ShopName, s.APIKey, s.APISecret), nil
}

func (c *Client) request(ctx context.Context, method, path string, out any) error {
	url := fmt.Sprintf("%s/admin/api/%s/%s", c.baseURL, apiVersion, path)
	req, err := http.NewRequestWithContext(ctx, method, url, nil)
	if err != nil {
		return fmt.Errorf("shopify: build request: %w", err)
	}
	req.Header.Set("Authorization", "Basic "+c.auth)
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("shopify: %s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("shopify: read response: %w", err)
	}
	if resp.StatusCode >= http.StatusBadRequest {
		msg := "error fetching data from shopify api"
		var payload struct {
			Errors json.RawMessage `json:"errors"`
		}
		if json.Unmarshal(body, &payload) == nil && len(payload.Errors) > 0 {
			msg = string(payload.Errors)
		}
		return &APIError{Message: msg, StatusCode: resp.StatusCode}
	}
	if strings.Contains(strings.ToLower(string(body)), "invalid api key or access token") {
		return &APIError{Message: "invalid api key or access token"}
	}
	if out == nil {
		return nil
	}
	if err := json.Unmarshal(body, out); err != nil {
		return &APIError{Message: "invalid json data"}
	}
	return nil
}

// OrderExists checks whether the order is known to the shop.
func (c *Client) OrderExists(ctx context.Context, orderID string) (bool, error) {
	var payload struct {
		Order *struct {
			ID json.Number `json:"id"`
		} `json:"order"`
	}
	err := c.request(ctx, http.MethodGet, fmt.Sprintf("orders/%s.json?fields=id", orderID), &payload)
	if err != nil {
		var apiErr *APIError
		if errors.As(err, &apiErr) && apiErr.StatusCode == http.StatusNotFound {
			return false, nil
		}
		return false, err
	}
	return payload.Order != nil, nil
}

type orderLine struct {
	ProductID           json.Number `json:"product_id"`
	Price               string      `json:"price"`
	FulfillableQuantity int64       `json:"fulfillable_quantity"`
	PriceSet            struct {
		ShopMoney struct {
			Amount string `json:"amount"`
		} `json:"shop_money"`
	} `json:"price_set"`
}

type orderPayload struct {
	Order *struct {
		ID        json.Number `json:"id"`
		Currency  string      `json:"currency"`
		LineItems []orderLine `json:"line_items"`
	} `json:"order"`
}

// LineItems fetches the full order and reduces its line items to the
// normalised cart shape. Missing orders map to billing.ErrOrderNotFound so the
// resolver treats them as inapplicable rather than failing.
func (c *Client) LineItems(ctx context.Context, orderID string) ([]billing.LineItem, error) {
	var payload orderPayload
	err := c.request(ctx, http.MethodGet, fmt.Sprintf("orders/%s.json", orderID), &payload)
	if err != nil {
		var apiErr *APIError
		if errors.As(err, &apiErr) && apiErr.StatusCode == http.StatusNotFound {
			return nil, fmt.Errorf("shopify order %s: %w", orderID, billing.ErrOrderNotFound)
		}
		return nil, err
	}
	if payload.Order == nil {
		return nil, fmt.Errorf("shopify order %s: %w", orderID, billing.ErrOrderNotFound)
	}

	out := make([]billing.LineItem, 0, len(payload.Order.LineItems))
	for _, line := range payload.Order.LineItems {
		raw := line.Price
		if raw == "" {
			raw = line.PriceSet.ShopMoney.Amount
		}
		price, err := decimal.NewFromString(strings.TrimSpace(raw))
		if err != nil {
			continue
		}
		qty := line.FulfillableQuantity
		if qty <= 0 {
			qty = 1
		}
		out = append(out, billing.LineItem{ProductID: line.ProductID.String(), Price: price, Quantity: qty})
	}
	return out, nil
}
