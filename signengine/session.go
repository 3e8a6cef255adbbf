// Package signengine is the heart of the device: the streamed signing state
// machine. It owns the running checksum and signing-digest hashers, the
// currently-held input, and the running totals, and it is the only package
// that ever sees a private key.
package signengine

import (
	"github.com/btcsuite/btcd/btcutil"
	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"github.com/btcsuite/btcd/wire"

	"github.com/vault-hw/txsigner/classify"
	"github.com/vault-hw/txsigner/coinset"
	"github.com/vault-hw/txsigner/keyderiv"
	"github.com/vault-hw/txsigner/script"
	"github.com/vault-hw/txsigner/txcodec"
	"github.com/vault-hw/txsigner/txmsg"
)

// Stage is one of the eight tags the message handler dispatches on. Each
// carries a distinct inbound payload shape, so the switch in dispatch is
// total.
type Stage int

const (
	Req1Input Stage = iota
	Req2PrevMeta
	Req2PrevInput
	Req2PrevOutput
	Req3Output
	Req4Input
	Req4Output
	Req5Output
)

const (
	txVersion  = 1
	txLockTime = 0

	// sigHashAll is appended to the legacy signing digest before the
	// final double-SHA-256, per the classic Bitcoin sighash algorithm.
	sigHashAll = 1
)

// session is the live state of one streamed signing run. It exists only
// between Start and either a TXFINISHED emission or a failure.
type session struct {
	inputsCount  uint32
	outputsCount uint32
	coin         coinset.Params
	root         *keyderiv.Node
	compiler     script.Compiler
	confirmer    Confirmer

	stage Stage
	idx1  uint32
	idx2  uint32

	toSpend     btcutil.Amount
	spending    btcutil.Amount
	changeSpend btcutil.Amount
	changeSeen  bool

	heldInput txmsg.TxInputType

	checksum  *checksumHash
	hashCheck [32]byte

	prevHash   chainhash.Hash
	prevMeta   txmsg.TxMeta
	prevTxHash *txcodec.HashWriter

	signTxHash    *txcodec.HashWriter
	signInputs    *txcodec.Emitter
	outputEmitter *txcodec.Emitter
	fpState       classify.State

	// Phase-2 key material for the input currently being signed.
	// Wiped (see wipeActiveKey and wipeAll) on every path out of the session.
	activeNode    *keyderiv.Node
	activePrivKey [32]byte
	activePubKey  [33]byte
	activeMS      *txmsg.MultisigType
	havePrivKey   bool
}

// newSession initialises a session per §4.1's start(): zeroed totals and
// contexts, checksum seeded with the (n_in, n_out, version, lock_time)
// 4-tuple, stage set to the first request the caller must issue.
func newSession(inputsCount, outputsCount uint32, coin coinset.Params,
	root *keyderiv.Node, confirmer Confirmer) *session {

	return &session{
		inputsCount:  inputsCount,
		outputsCount: outputsCount,
		coin:         coin,
		root:         root,
		compiler:     script.NewCompiler(coin),
		confirmer:    confirmer,
		stage:        Req1Input,
		checksum:     newChecksumHash(inputsCount, outputsCount, txVersion, txLockTime),
	}
}

// wipeActiveKey overwrites the key material derived for the input
// currently being signed, per invariant 4. Called after every Phase-2
// signature is emitted, and also as part of wipeAll. The session root
// itself survives: later inputs still need to derive from it.
func (s *session) wipeActiveKey() {
	if s == nil {
		return
	}
	for i := range s.activePrivKey {
		s.activePrivKey[i] = 0
	}
	for i := range s.activePubKey {
		s.activePubKey[i] = 0
	}
	if s.activeNode != nil {
		s.activeNode.Zero()
		s.activeNode = nil
	}
	s.havePrivKey = false
	s.activeMS = nil
}

// wipeAll tears down every piece of per-input key material the session
// holds. Called on every path out of the session: success, abort,
// cancellation, or protocol failure. The session's root node is owned by
// the caller of Start and outlives any one session (it backs every
// signing session for as long as the device holds this seed), so it is
// never wiped here.
func (s *session) wipeAll() {
	if s == nil {
		return
	}
	s.wipeActiveKey()
}

func outPointFrom(hash chainhash.Hash, index uint32) wire.OutPoint {
	return wire.OutPoint{Hash: hash, Index: index}
}

// startPhase2Round resets the per-signing-round hashers: a fresh
// sign_tx_hash and a fresh checksum_hash seeded with the same 4-tuple as
// Phase 1, per §4.1's "if idx2 == 0" reset.
func (s *session) startPhase2Round() {
	s.signTxHash = txcodec.NewHashWriter(s.inputsCount, s.outputsCount, txVersion, txLockTime)
	s.checksum = newChecksumHash(s.inputsCount, s.outputsCount, txVersion, txLockTime)
}

// cloneInput makes a deep copy of an inbound input record so later
// mutation of the host's message doesn't alias held_input.
func cloneInput(in *txmsg.TxInputType) txmsg.TxInputType {
	out := *in
	if in.AddressN != nil {
		out.AddressN = append([]uint32(nil), in.AddressN...)
	}
	if in.Multisig != nil {
		ms := *in.Multisig
		ms.Pubkeys = append([][]byte(nil), in.Multisig.Pubkeys...)
		ms.Signatures = append([][]byte(nil), in.Multisig.Signatures...)
		out.Multisig = &ms
	}
	return out
}
