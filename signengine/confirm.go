package signengine

import "github.com/btcsuite/btcd/btcutil"

// Confirmer is the abstract confirmation-prompt contract of §4.4: three
// synchronous calls the engine makes before it is willing to spend,
// overspend the fee threshold, or finish signing. Each returns false to
// cancel the session. The concrete button/screen implementation lives
// outside this module.
type Confirmer interface {
	// ConfirmOutput asks the user to approve sending amount to address.
	// Never called for change outputs.
	ConfirmOutput(amount btcutil.Amount, address string) bool

	// ConfirmFeeOverThreshold asks the user to approve a fee that
	// exceeds the coin's configured per-kilobyte ceiling. Only called
	// when the computed fee exceeds that threshold.
	ConfirmFeeOverThreshold(fee btcutil.Amount) bool

	// ConfirmTransaction asks the user for final approval of the whole
	// transaction: the total amount leaving the wallet (the input total
	// minus change, i.e. the spends plus the fee) and the fee.
	ConfirmTransaction(totalAmount, fee btcutil.Amount) bool
}
