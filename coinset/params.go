// Package coinset bundles the small amount of per-coin configuration the
// signing engine needs: which network's address version bytes to use, the
// fee ceiling past which the user must explicitly confirm, and amount
// formatting for confirmation prompts.
package coinset

import (
	"github.com/btcsuite/btcd/btcutil"
	"github.com/btcsuite/btcd/chaincfg"
)

// Params is the coin parameter bundle named in the data model as `coin`.
type Params struct {
	// Name is a human-readable label for the coin, e.g. "Bitcoin".
	Name string

	// Net selects the address version bytes used by the script compiler
	// when encoding or decoding addresses.
	Net *chaincfg.Params

	// MaxFeePerKB is the fee rate, in satoshis per kilobyte, past which
	// the engine asks for an extra confirmation before signing.
	MaxFeePerKB btcutil.Amount
}

// Bitcoin is the mainnet parameter bundle.
var Bitcoin = Params{
	Name:        "Bitcoin",
	Net:         &chaincfg.MainNetParams,
	MaxFeePerKB: 100000,
}

// FormatAmount renders amt the way a confirmation prompt would display it.
func (p Params) FormatAmount(amt btcutil.Amount) string {
	return amt.String()
}

// EstimatedSizeKB returns the ceil(kB) size estimate spec.md's fee policy
// is based on: 148 bytes per input, 34 bytes per output, plus a 10 byte
// constant for version/locktime/varints, rounded up to the next kilobyte.
func EstimatedSizeKB(inputsCount, outputsCount uint32) uint64 {
	bytesEstimate := 148*uint64(inputsCount) + 34*uint64(outputsCount) + 10
	return (bytesEstimate + 999) / 1000
}
