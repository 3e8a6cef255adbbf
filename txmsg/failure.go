package txmsg

// FailureKind classifies why a session was aborted.
type FailureKind int

const (
	// UnexpectedMessage is returned when an ack arrives with no session
	// active.
	UnexpectedMessage FailureKind = iota

	// Other covers protocol and crypto faults.
	Other

	// NotEnoughFunds is returned when declared outputs exceed input
	// amounts.
	NotEnoughFunds

	// ActionCancelled is returned whenever the user rejects a
	// confirmation prompt.
	ActionCancelled
)

// Failure is the outbound message sent in place of a TxRequest whenever
// processing an ack fails. Every instance is built through one of the
// named constructors below so the exact, user-visible message text can
// never drift from the contract.
type Failure struct {
	Kind    FailureKind
	Message string
}

// Error implements the error interface so Failure can be returned directly
// from engine methods.
func (f *Failure) Error() string {
	return f.Message
}

func NewNotInSigningMode() *Failure {
	return &Failure{Kind: UnexpectedMessage, Message: "Not in Signing mode"}
}

func NewFailedToSerializeInput() *Failure {
	return &Failure{Kind: Other, Message: "Failed to serialize input"}
}

func NewFailedToSerializeOutput() *Failure {
	return &Failure{Kind: Other, Message: "Failed to serialize output"}
}

func NewInvalidPrevhash() *Failure {
	return &Failure{Kind: Other, Message: "Encountered invalid prevhash"}
}

func NewMultisigFingerprintError() *Failure {
	return &Failure{Kind: Other, Message: "Error computing multisig fingerprint"}
}

func NewOnlyOneChangeOutputAllowed() *Failure {
	return &Failure{Kind: Other, Message: "Only one change output allowed"}
}

func NewFailedToCompileOutput() *Failure {
	return &Failure{Kind: Other, Message: "Failed to compile output"}
}

func NewFailedToDerivePrivateKey() *Failure {
	return &Failure{Kind: Other, Message: "Failed to derive private key"}
}

func NewMultisigInfoNotProvided() *Failure {
	return &Failure{Kind: Other, Message: "Multisig info not provided"}
}

func NewPubkeyNotFoundInMultisigScript() *Failure {
	return &Failure{Kind: Other, Message: "Pubkey not found in multisig script"}
}

func NewFailedToSerializeMultisigScript() *Failure {
	return &Failure{Kind: Other, Message: "Failed to serialize multisig script"}
}

func NewTransactionChangedDuringSigning() *Failure {
	return &Failure{Kind: Other, Message: "Transaction has changed during signing"}
}

func NewSigningError() *Failure {
	return &Failure{Kind: Other, Message: "Signing error"}
}

func NewNotEnoughFunds() *Failure {
	return &Failure{Kind: NotEnoughFunds, Message: "Not enough funds"}
}

func NewFeeOverThresholdCancelled() *Failure {
	return &Failure{Kind: ActionCancelled, Message: "Fee over threshold. Signing cancelled."}
}

func NewCancelledByUser() *Failure {
	return &Failure{Kind: ActionCancelled, Message: "Signing cancelled by user"}
}

// NewAlreadySigning reports an attempt to start a session while one is
// already active. Unlike the messages above, spec.md does not fix exact
// wording for this case (it only says "Fails if a session is already
// active"); see DESIGN.md for this choice.
func NewAlreadySigning() *Failure {
	return &Failure{Kind: Other, Message: "Signing operation already in progress"}
}
