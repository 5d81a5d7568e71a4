// Package alchemy fetches voucher NFTs and their metadata from the Alchemy
// NFT API and filters them down to the vouchers usable in a given store
// checkout. It performs no on-chain ownership verification; what the gateway
// reports as owned is taken at face value.
package alchemy

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/ZeMiguelGomes/voucherd/internal/billing"
	"github.com/ZeMiguelGomes/voucherd/internal/nftmeta"
	"github.com/ZeMiguelGomes/voucherd/internal/obs"
)

// ErrUnsupportedChain is returned for chain IDs outside the configured
// network table.
var ErrUnsupportedChain = errors.New("alchemy: unsupported chain")

// Network is one supported chain and its Alchemy API host.
type Network struct {
	ChainID int    `json:"chainId"`
	Name    string `json:"name"`
	Host    string `json:"host"`
}

// Config wires the provider. Networks maps decimal chain-ID strings to their
// gateway hosts; keeping it on the config object rather than a package table
// lets deployments add chains without a rebuild.
type Config struct {
	APIKey          string
	ContractAddress string
	Networks        map[string]Network
	Stock           StockConfig

	// Timeout bounds every gateway request. Zero falls back to 15s.
	Timeout time.Duration

	// BaseURL overrides the per-network gateway host when set. Used to point
	// the provider at a local server in tests.
	BaseURL string
}

// Provider is the Alchemy-backed NFT gateway.
type Provider struct {
	cfg    Config
	client *http.Client
	logger zerolog.Logger
}

// New constructs a provider with an instrumented HTTP client.
func New(cfg Config, logger zerolog.Logger) *Provider {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	return &Provider{
		cfg: cfg,
		client: &http.Client{
			Timeout:   timeout,
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		},
		logger: logger,
	}
}

// Contract returns the voucher collection's contract address.
func (p *Provider) Contract() string {
	return p.cfg.ContractAddress
}

// IsStockContract reports whether the contract address belongs to the stock
// inventory collection rather than the standard voucher collection.
func (p *Provider) IsStockContract(contract string) bool {
	return p.cfg.Stock.ContractAddress != "" &&
		strings.EqualFold(contract, p.cfg.Stock.ContractAddress)
}

func (p *Provider) network(chainID string) (Network, error) {
	net, ok := p.cfg.Networks[strings.TrimSpace(chainID)]
	if !ok {
		return Network{}, fmt.Errorf("chain %q: %w", chainID, ErrUnsupportedChain)
	}
	return net, nil
}

// OwnedNFTs lists the wallet's NFTs on the given chain, metadata included.
func (p *Provider) OwnedNFTs(ctx context.Context, owner, chainID string) ([]NFT, error) {
	net, err := p.network(chainID)
	if err != nil {
		return nil, err
	}
	q := url.Values{}
	q.Set("owner", owner)
	q.Set("withMetadata", "true")
	var body ownedNFTsResponse
	if err := p.getJSON(ctx, net, "getNFTs", q, &body); err != nil {
		return nil, err
	}
	return body.OwnedNFTs, nil
}

// NFTMetadata fetches the metadata document of one token in the voucher
// collection.
func (p *Provider) NFTMetadata(ctx context.Context, chainID, tokenID string) (NFT, error) {
	net, err := p.network(chainID)
	if err != nil {
		return NFT{}, err
	}
	q := url.Values{}
	q.Set("contractAddress", p.cfg.ContractAddress)
	q.Set("tokenId", tokenID)
	var nft NFT
	if err := p.getJSON(ctx, net, "getNFTMetadata", q, &nft); err != nil {
		return NFT{}, err
	}
	return nft, nil
}

// IsHolderOfCollection reports whether the wallet holds at least one token of
// the voucher collection on the given chain.
func (p *Provider) IsHolderOfCollection(ctx context.Context, owner, chainID string) (bool, error) {
	net, err := p.network(chainID)
	if err != nil {
		return false, err
	}
	q := url.Values{}
	q.Set("wallet", owner)
	q.Set("contractAddress", p.cfg.ContractAddress)
	var body struct {
		IsHolderOfCollection bool `json:"isHolderOfCollection"`
	}
	if err := p.getJSON(ctx, net, "isHolderOfCollection", q, &body); err != nil {
		return false, err
	}
	return body.IsHolderOfCollection, nil
}

// CollectionVouchers lists the wallet's NFTs that belong to the voucher
// collection and name the given store in their Store trait.
func (p *Provider) CollectionVouchers(ctx context.Context, owner, chainID, storeID string) ([]NFT, error) {
	owned, err := p.OwnedNFTs(ctx, owner, chainID)
	if err != nil {
		return nil, err
	}
	return FilterCollection(owned, p.cfg.ContractAddress, storeID), nil
}

// FilterCollection keeps the NFTs from the given contract whose Store trait
// contains storeID.
func FilterCollection(owned []NFT, contract, storeID string) []NFT {
	out := make([]NFT, 0, len(owned))
	for _, nft := range owned {
		if !strings.EqualFold(nft.Contract.Address, contract) {
			continue
		}
		store, ok := nft.Metadata.Attributes.Get(nftmeta.TraitStore)
		if !ok || !store.Contains(storeID) {
			continue
		}
		out = append(out, nft)
	}
	return out
}

// CheckoutVouchers returns the wallet's vouchers that can be used in the
// given checkout. Fixed and Absolute vouchers pass on the store match alone;
// product-based vouchers additionally need at least one cart line whose
// product ID appears in their Product ID trait. Stock inventory NFTs are
// appended when the store opted into them and the request originates from
// its configured storefront.
func (p *Provider) CheckoutVouchers(ctx context.Context, owner, chainID string, store billing.Store, websiteURL string, cartLines []billing.LineItem) ([]NFT, error) {
	owned, err := p.OwnedNFTs(ctx, owner, chainID)
	if err != nil {
		return nil, err
	}

	var eligible []NFT
	if store.CustomNFT && store.ShopifyStoreName == websiteURL {
		stocks, err := p.StockNFTs(ctx, owner)
		if err != nil {
			p.logger.Error().Err(err).Str("owner", owner).Msg("fetch stock vouchers")
		} else {
			eligible = append(eligible, stocks...)
		}
	}

	for _, nft := range owned {
		if !strings.EqualFold(nft.Contract.Address, p.cfg.ContractAddress) {
			continue
		}
		attrs := nft.Metadata.Attributes
		storeTrait, ok := attrs.Get(nftmeta.TraitStore)
		if !ok || !storeTrait.Contains(store.ID) {
			continue
		}
		if kind, ok := attrs.First(nftmeta.TraitDiscountType); ok && (kind == "Fixed" || kind == "Absolute") {
			eligible = append(eligible, nft)
			continue
		}
		productIDs, ok := attrs.Get(nftmeta.TraitProductID)
		if !ok {
			continue
		}
		for _, line := range cartLines {
			if productIDs.Contains(line.ProductID) {
				eligible = append(eligible, nft)
				break
			}
		}
	}
	return eligible, nil
}

func (p *Provider) getJSON(ctx context.Context, net Network, op string, query url.Values, out any) error {
	base := fmt.Sprintf("https://%s.g.alchemy.com", net.Host)
	if p.cfg.BaseURL != "" {
		base = strings.TrimRight(p.cfg.BaseURL, "/")
	}
	endpoint := fmt.Sprintf("%s/nft/v2/%s/%s?%s", base, p.cfg.APIKey, op, query.Encode())
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")
	resp, err := p.client.Do(req)
	if err != nil {
		obs.NFTGatewayRequests.WithLabelValues(op, "error").Inc()
		return fmt.Errorf("alchemy %s: %w", op, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		obs.NFTGatewayRequests.WithLabelValues(op, "error").Inc()
		return fmt.Errorf("alchemy %s: %s", op, resp.Status)
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		obs.NFTGatewayRequests.WithLabelValues(op, "error").Inc()
		return fmt.Errorf("alchemy %s: decode: %w", op, err)
	}
	obs.NFTGatewayRequests.WithLabelValues(op, "ok").Inc()
	return nil
}
