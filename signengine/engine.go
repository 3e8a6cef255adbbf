package signengine

import (
	"github.com/vault-hw/txsigner/coinset"
	"github.com/vault-hw/txsigner/keyderiv"
	"github.com/vault-hw/txsigner/txcodec"
	"github.com/vault-hw/txsigner/txmsg"
)

// Engine is the process-wide dispatcher described in the design notes: at
// most one session is active at a time, and every public entry point
// either consumes or produces it so "no active session" is enforced by
// the nil check rather than by caller discipline. An Engine holds no lock
// and is not safe for concurrent OnAck calls; callers serialize access.
type Engine struct {
	s *session
}

// NewEngine returns an idle engine.
func NewEngine() *Engine {
	return &Engine{}
}

// Start begins a new session. It fails if one is already active.
func (e *Engine) Start(inputsCount, outputsCount uint32, coin coinset.Params,
	root *keyderiv.Node, confirmer Confirmer) (txmsg.TxRequest, error) {

	if e.s != nil {
		return txmsg.TxRequest{}, txmsg.NewAlreadySigning()
	}
	e.s = newSession(inputsCount, outputsCount, coin, root, confirmer)
	log.Debugf("signing session started: %d inputs, %d outputs", inputsCount, outputsCount)
	return e.s.reqInput(0), nil
}

// OnAck processes one host response and returns the single outbound
// message it produces: the next TxRequest, a TxRequest carrying a signed
// fragment, TXFINISHED, or a failure. On any failure, or on TXFINISHED,
// the session is torn down and all key material is wiped before this
// call returns.
func (e *Engine) OnAck(ack txmsg.TxAck) (txmsg.TxRequest, error) {
	if e.s == nil {
		return txmsg.TxRequest{}, txmsg.NewNotInSigningMode()
	}

	req, ferr := e.s.dispatch(ack)
	if ferr != nil {
		log.Errorf("signing session aborted: %v", ferr)
		e.s.wipeAll()
		e.s = nil
		return txmsg.TxRequest{}, ferr
	}
	if req.RequestType == txmsg.TXFINISHED {
		log.Debugf("signing session finished")
		e.s.wipeAll()
		e.s = nil
	}
	return req, nil
}

// Abort discards the active session, wiping any key material it held. A
// no-op if no session is active.
func (e *Engine) Abort() {
	if e.s == nil {
		return
	}
	e.s.wipeAll()
	e.s = nil
}

// Active reports whether a session is currently in progress.
func (e *Engine) Active() bool {
	return e.s != nil
}

// dispatch routes one ack to the handler for the session's current stage.
func (s *session) dispatch(ack txmsg.TxAck) (txmsg.TxRequest, *txmsg.Failure) {
	switch s.stage {
	case Req1Input:
		return s.onReq1Input(ack)
	case Req2PrevMeta:
		return s.onReq2PrevMeta(ack)
	case Req2PrevInput:
		return s.onReq2PrevInput(ack)
	case Req2PrevOutput:
		return s.onReq2PrevOutput(ack)
	case Req3Output:
		return s.onReq3Output(ack)
	case Req4Input:
		return s.onReq4Input(ack)
	case Req4Output:
		return s.onReq4Output(ack)
	case Req5Output:
		return s.onReq5Output(ack)
	default:
		return txmsg.TxRequest{}, txmsg.NewSigningError()
	}
}

// reqInput builds a TXINPUT request for the transaction being signed
// (Phase 1's REQ_1_INPUT or Phase 2's REQ_4_INPUT; never carries TxHash).
func (s *session) reqInput(idx uint32) txmsg.TxRequest {
	return txmsg.TxRequest{
		RequestType: txmsg.TXINPUT,
		Details:     &txmsg.TxRequestDetails{RequestIndex: idx},
	}
}

// reqOutput builds a TXOUTPUT request for the transaction being signed
// (Phase 1's REQ_3_OUTPUT, Phase 2's REQ_4_OUTPUT, or REQ_5_OUTPUT).
func (s *session) reqOutput(idx uint32) txmsg.TxRequest {
	return txmsg.TxRequest{
		RequestType: txmsg.TXOUTPUT,
		Details:     &txmsg.TxRequestDetails{RequestIndex: idx},
	}
}

// reqPrevInput builds a TXINPUT request scoped to the previous
// transaction via TxHash, so the host knows to answer from that
// transaction rather than the one being signed.
func (s *session) reqPrevInput() txmsg.TxRequest {
	return txmsg.TxRequest{
		RequestType: txmsg.TXINPUT,
		Details: &txmsg.TxRequestDetails{
			RequestIndex: s.idx2,
			TxHash:       &s.prevHash,
		},
	}
}

// reqPrevOutput builds a TXOUTPUT request scoped to the previous
// transaction via TxHash.
func (s *session) reqPrevOutput() txmsg.TxRequest {
	return txmsg.TxRequest{
		RequestType: txmsg.TXOUTPUT,
		Details: &txmsg.TxRequestDetails{
			RequestIndex: s.idx2,
			TxHash:       &s.prevHash,
		},
	}
}

// newOutputEmitter builds the Emitter backing the final REQ_5_OUTPUT
// walk, a separate instance from the one used for Phase-2 input
// emission since the two walks run over disjoint message sequences.
func newOutputEmitter(s *session) *txcodec.Emitter {
	return txcodec.NewEmitter(s.inputsCount, s.outputsCount, txVersion, txLockTime)
}
