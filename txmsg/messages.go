// Package txmsg defines the messages exchanged between the signing engine
// and the host during a streamed transaction signing session.
//
// The message-framing layer that actually carries these messages over USB
// is out of scope for this module; txmsg only fixes the shapes the engine
// reads and writes.
package txmsg

import "github.com/btcsuite/btcd/chaincfg/chainhash"

// RequestType enumerates the kind of payload the engine is asking the host
// for next.
type RequestType int

const (
	// TXINPUT asks the host for one TxInputType, either belonging to the
	// transaction being signed or to a previous transaction.
	TXINPUT RequestType = iota

	// TXOUTPUT asks the host for one output, either a TxOutputType (being
	// signed) or a TxOutputBinType (belonging to a previous transaction).
	TXOUTPUT

	// TXMETA asks the host for the header of a previous transaction
	// (input/output counts, version, locktime).
	TXMETA

	// TXFINISHED tells the host signing is complete; no further acks are
	// expected for this session.
	TXFINISHED
)

// TxRequestDetails carries the index and, for META requests and for
// input/output requests about a previous transaction, the hash of the
// previous transaction being unpacked.
type TxRequestDetails struct {
	RequestIndex uint32
	TxHash       *chainhash.Hash
}

// TxRequestSerialized carries signed fragments emitted during Phase 2.
type TxRequestSerialized struct {
	// SignatureIndex is the index of the input this signature belongs
	// to. Only set on Phase-2 REQ_4_INPUT responses.
	SignatureIndex int
	Signature      []byte
	SerializedTx   []byte
}

// TxRequest is the outbound message produced by exactly one OnAck call.
type TxRequest struct {
	RequestType RequestType
	Details     *TxRequestDetails
	Serialized  *TxRequestSerialized
}

// ScriptType enumerates the shape of an input or output's spending
// condition, as reported by the host.
type ScriptType int

const (
	SPENDADDRESS ScriptType = iota
	SPENDMULTISIG
	PAYTOADDRESS
	PAYTOMULTISIG
)

// OutputAddressType distinguishes a change output from a spend when the
// host declares it explicitly (see classify package for the full rule
// set, including the legacy path used when this field is absent).
type OutputAddressType int

const (
	// SPEND marks an output displayed to the user for confirmation.
	SPEND OutputAddressType = iota

	// CHANGE marks an output silently returned to the signer.
	CHANGE
)

// MultisigType describes a bare multisig redeem script: an M-of-N over an
// ordered public key list, plus any signatures already collected.
type MultisigType struct {
	M          int
	Pubkeys    [][]byte
	Signatures [][]byte
}

// TxInputType is one input of the transaction being signed, or of a
// previous transaction when received during the Phase-1 prev-tx walk.
type TxInputType struct {
	PrevHash   chainhash.Hash
	PrevIndex  uint32
	ScriptSig  []byte
	Sequence   uint32
	ScriptType ScriptType
	AddressN   []uint32
	Multisig   *MultisigType
}

// TxOutputBinType is a previous transaction's output: compiled bytes only,
// used solely to recompute the previous transaction's txid and to look up
// the amount being spent.
type TxOutputBinType struct {
	Amount   int64
	PkScript []byte
}

// TxOutputType is one output of the transaction being signed, as declared
// by the host before compilation.
type TxOutputType struct {
	Amount      int64
	ScriptType  ScriptType
	Address     string
	AddressN    []uint32
	Multisig    *MultisigType
	HasAddrType bool
	AddressType OutputAddressType
}

// TxMeta carries the header fields of a (previous) transaction.
type TxMeta struct {
	InputsCnt  uint32
	OutputsCnt uint32
	Version    uint32
	LockTime   uint32
}

// TxAck is the inbound message carrying exactly one of its fields, as
// dictated by the stage of the session that requested it.
type TxAck struct {
	Input     *TxInputType
	Output    *TxOutputType
	BinOutput *TxOutputBinType
	Meta      *TxMeta
}
