package alchemy

import (
	"context"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/google/uuid"
)

// StockConfig points the provider at the stock inventory collection: an
// ERC-1155 contract whose token IDs encode inventory record UUIDs served by
// an external inventory API.
type StockConfig struct {
	ContractAddress string
	TokenID         string
	APIURL          string
	Network         Network
}

// stockRecord is the inventory API's response for one stock item.
type stockRecord struct {
	ID       json.Number `json:"id"`
	Personal struct {
		Name string `json:"name"`
	} `json:"personal"`
	Club struct {
		Name string `json:"name"`
		Logo string `json:"logo"`
	} `json:"club"`
}

// StockNFTs lists the wallet's stock inventory tokens and hydrates each one
// from the inventory API, shaped like a regular voucher NFT so checkout
// clients render them uniformly.
func (p *Provider) StockNFTs(ctx context.Context, owner string) ([]NFT, error) {
	cfg := p.cfg.Stock
	if cfg.ContractAddress == "" || cfg.APIURL == "" {
		return nil, nil
	}
	q := url.Values{}
	q.Set("owner", owner)
	q.Set("contractAddresses[]", cfg.ContractAddress)
	q.Set("withMetadata", "false")
	var body ownedNFTsResponse
	if err := p.getJSON(ctx, cfg.Network, "getNFTs", q, &body); err != nil {
		return nil, err
	}

	out := make([]NFT, 0, len(body.OwnedNFTs))
	for _, token := range body.OwnedNFTs {
		nft, err := p.stockNFT(ctx, token.ID.TokenID, token.Contract.Address)
		if err != nil {
			p.logger.Error().Err(err).Str("token_id", token.ID.TokenID).Msg("hydrate stock voucher")
			continue
		}
		out = append(out, nft)
	}
	return out, nil
}

// stockNFT resolves one stock token against the inventory API.
func (p *Provider) stockNFT(ctx context.Context, tokenID, contract string) (NFT, error) {
	recordID, err := tokenUUID(tokenID)
	if err != nil {
		return NFT{}, err
	}
	endpoint := fmt.Sprintf("%s/%s", strings.TrimRight(p.cfg.Stock.APIURL, "/"), recordID)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return NFT{}, err
	}
	req.Header.Set("Accept", "application/json")
	resp, err := p.client.Do(req)
	if err != nil {
		return NFT{}, fmt.Errorf("stock inventory: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return NFT{}, fmt.Errorf("stock inventory: %s", resp.Status)
	}
	var record stockRecord
	if err := json.NewDecoder(resp.Body).Decode(&record); err != nil {
		return NFT{}, fmt.Errorf("stock inventory: decode: %w", err)
	}

	return NFT{
		Contract:    Contract{Address: contract},
		ID:          TokenID{TokenID: record.ID.String(), TokenMetadata: TokenMetadata{TokenType: "ERC1155"}},
		Title:       record.Personal.Name,
		Description: record.Club.Name,
		Media:       []URIPair{{Gateway: record.Club.Logo, Raw: record.Club.Logo}},
	}, nil
}

// tokenUUID decodes an on-chain token ID into the inventory record UUID it
// encodes. Token IDs arrive as 0x-prefixed hex; the UUID occupies the low
// 128 bits.
func tokenUUID(tokenID string) (uuid.UUID, error) {
	hexID := strings.TrimPrefix(strings.TrimSpace(tokenID), "0x")
	if len(hexID) > 32 {
		hexID = hexID[len(hexID)-32:]
	}
	if len(hexID) < 32 {
		hexID = strings.Repeat("0", 32-len(hexID)) + hexID
	}
	raw, err := hex.DecodeString(hexID)
	if err != nil {
		return uuid.UUID{}, fmt.Errorf("token id %q: %w", tokenID, err)
	}
	return uuid.FromBytes(raw)
}
