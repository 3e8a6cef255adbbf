package signengine

import (
	"github.com/btcsuite/btcd/btcutil"
	"github.com/btcsuite/btcd/wire"

	"github.com/vault-hw/txsigner/coinset"
	"github.com/vault-hw/txsigner/txcodec"
	"github.com/vault-hw/txsigner/txmsg"
)

// onReq1Input handles one ack of the outer Phase-1 walk: the host hands
// over input idx1 of the transaction being signed.
func (s *session) onReq1Input(ack txmsg.TxAck) (txmsg.TxRequest, *txmsg.Failure) {
	if ack.Input == nil {
		return txmsg.TxRequest{}, txmsg.NewSigningError()
	}
	in := ack.Input

	s.checksum.writeInput(in)
	if err := s.fpState.ObserveInput(int(s.idx1), in.ScriptType, in.Multisig); err != nil {
		return txmsg.TxRequest{}, txmsg.NewMultisigFingerprintError()
	}

	s.heldInput = cloneInput(in)
	s.prevHash = in.PrevHash
	s.stage = Req2PrevMeta

	return txmsg.TxRequest{
		RequestType: txmsg.TXMETA,
		Details: &txmsg.TxRequestDetails{
			RequestIndex: s.idx1,
			TxHash:       &s.prevHash,
		},
	}, nil
}

// onReq2PrevMeta receives the header of the previous transaction
// referenced by held_input and opens its incremental txid rebuild.
func (s *session) onReq2PrevMeta(ack txmsg.TxAck) (txmsg.TxRequest, *txmsg.Failure) {
	if ack.Meta == nil {
		return txmsg.TxRequest{}, txmsg.NewSigningError()
	}
	meta := *ack.Meta
	s.prevMeta = meta
	s.prevTxHash = txcodec.NewHashWriter(meta.InputsCnt, meta.OutputsCnt, meta.Version, meta.LockTime)
	s.idx2 = 0

	if meta.InputsCnt == 0 {
		return s.enterPrevOutputWalk()
	}

	s.stage = Req2PrevInput
	return s.reqPrevInput(), nil
}

// onReq2PrevInput hashes one input of the previous transaction into
// prev_tx_hash.
func (s *session) onReq2PrevInput(ack txmsg.TxAck) (txmsg.TxRequest, *txmsg.Failure) {
	if ack.Input == nil {
		return txmsg.TxRequest{}, txmsg.NewSigningError()
	}
	in := ack.Input
	wireIn := &wire.TxIn{
		PreviousOutPoint: outPointFrom(in.PrevHash, in.PrevIndex),
		SignatureScript:  in.ScriptSig,
		Sequence:         in.Sequence,
	}
	if err := s.prevTxHash.WriteInput(wireIn); err != nil {
		return txmsg.TxRequest{}, txmsg.NewFailedToSerializeInput()
	}

	s.idx2++
	if s.idx2 < s.prevMeta.InputsCnt {
		return s.reqPrevInput(), nil
	}
	s.idx2 = 0
	return s.enterPrevOutputWalk()
}

func (s *session) enterPrevOutputWalk() (txmsg.TxRequest, *txmsg.Failure) {
	if s.prevMeta.OutputsCnt == 0 {
		return txmsg.TxRequest{}, txmsg.NewInvalidPrevhash()
	}
	s.stage = Req2PrevOutput
	return s.reqPrevOutput(), nil
}

// onReq2PrevOutput hashes one output of the previous transaction into
// prev_tx_hash and, if it is the output held_input actually spends, adds
// its amount to to_spend.
func (s *session) onReq2PrevOutput(ack txmsg.TxAck) (txmsg.TxRequest, *txmsg.Failure) {
	if ack.BinOutput == nil {
		return txmsg.TxRequest{}, txmsg.NewSigningError()
	}
	out := &wire.TxOut{Value: ack.BinOutput.Amount, PkScript: ack.BinOutput.PkScript}
	if err := s.prevTxHash.WriteOutput(out); err != nil {
		return txmsg.TxRequest{}, txmsg.NewFailedToSerializeOutput()
	}
	if s.idx2 == s.heldInput.PrevIndex {
		s.toSpend += btcutil.Amount(out.Value)
	}

	s.idx2++
	if s.idx2 < s.prevMeta.OutputsCnt {
		return s.reqPrevOutput(), nil
	}

	got := s.prevTxHash.SumDouble()
	if got != s.heldInput.PrevHash {
		return txmsg.TxRequest{}, txmsg.NewInvalidPrevhash()
	}

	s.idx1++
	if s.idx1 < s.inputsCount {
		s.stage = Req1Input
		return s.reqInput(s.idx1), nil
	}

	s.idx1 = 0
	s.stage = Req3Output
	return s.reqOutput(s.idx1), nil
}

// onReq3Output handles one declared output of the transaction being
// signed: classifies it as change or spend, confirms spends with the
// user, compiles its scriptPubKey, and folds the compiled bytes into
// checksum_hash. The last output additionally runs the fee and final
// confirmation checks and opens Phase 2.
func (s *session) onReq3Output(ack txmsg.TxAck) (txmsg.TxRequest, *txmsg.Failure) {
	if ack.Output == nil {
		return txmsg.TxRequest{}, txmsg.NewSigningError()
	}
	out := ack.Output

	isChange, err := s.fpState.IsChange(out)
	if err != nil {
		return txmsg.TxRequest{}, txmsg.NewMultisigFingerprintError()
	}

	if isChange {
		if s.changeSeen {
			return txmsg.TxRequest{}, txmsg.NewOnlyOneChangeOutputAllowed()
		}
		s.changeSeen = true
		s.changeSpend += btcutil.Amount(out.Amount)
	}
	s.spending += btcutil.Amount(out.Amount)

	compiled, addr, cerr := s.compiler.CompileOutput(s.root, out)
	if cerr != nil {
		return txmsg.TxRequest{}, txmsg.NewFailedToCompileOutput()
	}

	if !isChange {
		if !s.confirmer.ConfirmOutput(btcutil.Amount(out.Amount), addr) {
			return txmsg.TxRequest{}, txmsg.NewCancelledByUser()
		}
	}

	if err := s.checksum.writeOutput(compiled); err != nil {
		return txmsg.TxRequest{}, txmsg.NewFailedToSerializeOutput()
	}

	s.idx1++
	if s.idx1 < s.outputsCount {
		return s.reqOutput(s.idx1), nil
	}

	return s.finishPhase1()
}

// finishPhase1 runs the fee-threshold and final-confirmation checks and
// transitions into Phase 2.
func (s *session) finishPhase1() (txmsg.TxRequest, *txmsg.Failure) {
	s.hashCheck = s.checksum.sum()

	if s.spending > s.toSpend {
		return txmsg.TxRequest{}, txmsg.NewNotEnoughFunds()
	}
	fee := s.toSpend - s.spending

	estKB := coinset.EstimatedSizeKB(s.inputsCount, s.outputsCount)
	threshold := btcutil.Amount(estKB) * s.coin.MaxFeePerKB
	if fee > threshold {
		if !s.confirmer.ConfirmFeeOverThreshold(fee) {
			return txmsg.TxRequest{}, txmsg.NewFeeOverThresholdCancelled()
		}
	}

	total := s.toSpend - s.changeSpend
	if !s.confirmer.ConfirmTransaction(total, fee) {
		return txmsg.TxRequest{}, txmsg.NewCancelledByUser()
	}

	s.idx1 = 0
	s.idx2 = 0
	s.stage = Req4Input
	s.signInputs = txcodec.NewEmitter(s.inputsCount, s.outputsCount, txVersion, txLockTime)
	s.startPhase2Round()

	return s.reqInput(0), nil
}
