package alchemy

import "github.com/ZeMiguelGomes/voucherd/internal/nftmeta"

// NFT is the gateway's token document, trimmed to the fields the voucher
// flow reads.
type NFT struct {
	Contract    Contract `json:"contract"`
	ID          TokenID  `json:"id"`
	Title       string   `json:"title"`
	Description string   `json:"description"`
	TokenURI    URIPair  `json:"tokenUri"`
	Media       []URIPair `json:"media"`
	Metadata    Metadata `json:"metadata"`
}

// Contract carries the collection address a token belongs to.
type Contract struct {
	Address string `json:"address"`
}

// TokenID identifies a token within its collection.
type TokenID struct {
	TokenID       string        `json:"tokenId"`
	TokenMetadata TokenMetadata `json:"tokenMetadata"`
}

// TokenMetadata describes the token standard.
type TokenMetadata struct {
	TokenType string `json:"tokenType"`
}

// URIPair is the gateway/raw URI pair the API uses for token URIs and media.
type URIPair struct {
	Gateway string `json:"gateway"`
	Raw     string `json:"raw"`
}

// Metadata is the token's metadata document; the voucher rules live in its
// attribute list.
type Metadata struct {
	Name        string             `json:"name,omitempty"`
	Description string             `json:"description,omitempty"`
	Image       string             `json:"image,omitempty"`
	ExternalURL string             `json:"external_url,omitempty"`
	Attributes  nftmeta.Attributes `json:"attributes"`
}

type ownedNFTsResponse struct {
	OwnedNFTs []NFT `json:"ownedNfts"`
}
