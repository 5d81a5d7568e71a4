package alchemy

import (
	_ "embed"
	"encoding/json"
)

// The voucher collection's contract ABI, served to checkout clients so they
// can drive transfers and ownership calls from the browser wallet.
//
//go:embed abi/voucher_abi.json
var contractABI []byte

// ABI returns the voucher contract ABI document.
func ABI() json.RawMessage {
	return json.RawMessage(contractABI)
}
