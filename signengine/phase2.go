package signengine

import (
	"github.com/btcsuite/btcd/btcec/v2"
	"github.com/btcsuite/btcd/btcutil"
	"github.com/btcsuite/btcd/wire"

	btcecdsa "github.com/btcsuite/btcd/btcec/v2/ecdsa"

	"github.com/vault-hw/txsigner/script"
	"github.com/vault-hw/txsigner/txmsg"
)

// onReq4Input handles one ack of the Phase-2 input rescan for signing
// round idx1: it folds the received input into checksum_hash and
// sign_tx_hash, and, for the input that matches idx1, derives the signing
// key and its subscript (scriptPubKey standing in for the unwritten
// scriptSig, per the legacy sighash rule).
func (s *session) onReq4Input(ack txmsg.TxAck) (txmsg.TxRequest, *txmsg.Failure) {
	if ack.Input == nil {
		return txmsg.TxRequest{}, txmsg.NewSigningError()
	}
	in := ack.Input
	s.checksum.writeInput(in)

	var subscript []byte
	if s.idx2 == s.idx1 {
		sub, ferr := s.deriveSigningKey(in)
		if ferr != nil {
			return txmsg.TxRequest{}, ferr
		}
		subscript = sub
	}

	wireIn := &wire.TxIn{
		PreviousOutPoint: outPointFrom(in.PrevHash, in.PrevIndex),
		SignatureScript:  subscript,
		Sequence:         in.Sequence,
	}
	if err := s.signTxHash.WriteInput(wireIn); err != nil {
		return txmsg.TxRequest{}, txmsg.NewFailedToSerializeInput()
	}

	s.idx2++
	if s.idx2 < s.inputsCount {
		return s.reqInput(s.idx2), nil
	}
	s.idx2 = 0
	s.stage = Req4Output
	return s.reqOutput(0), nil
}

// deriveSigningKey derives the key for the input currently being signed
// and returns the subscript to place into its slot of sign_tx_hash.
func (s *session) deriveSigningKey(in *txmsg.TxInputType) ([]byte, *txmsg.Failure) {
	s.heldInput = cloneInput(in)

	node, err := s.root.Derive(in.AddressN)
	if err != nil {
		return nil, txmsg.NewFailedToDerivePrivateKey()
	}
	privKey, err := node.ECPrivKey()
	if err != nil {
		return nil, txmsg.NewFailedToDerivePrivateKey()
	}
	pubKey, err := node.ECPubKey()
	if err != nil {
		return nil, txmsg.NewFailedToDerivePrivateKey()
	}

	s.activeNode = node
	copy(s.activePrivKey[:], privKey.Serialize())
	copy(s.activePubKey[:], pubKey.SerializeCompressed())
	s.havePrivKey = true

	if in.ScriptType == txmsg.SPENDMULTISIG {
		if in.Multisig == nil {
			return nil, txmsg.NewMultisigInfoNotProvided()
		}
		s.activeMS = s.heldInput.Multisig
		redeem, cerr := s.compiler.CompileMultisigRedeemScript(s.activeMS)
		if cerr != nil {
			return nil, txmsg.NewMultisigFingerprintError()
		}
		return redeem, nil
	}

	pkHash := btcutil.Hash160(pubKey.SerializeCompressed())
	pubScript, cerr := s.compiler.P2PKHScriptPubKey(pkHash)
	if cerr != nil {
		return nil, txmsg.NewFailedToCompileOutput()
	}
	return pubScript, nil
}

// onReq4Output handles one ack of the Phase-2 output rescan for signing
// round idx1. Once every output has been folded in, it finalises both
// hashers, verifies the anti-tamper checksum, signs, and emits the signed
// input.
func (s *session) onReq4Output(ack txmsg.TxAck) (txmsg.TxRequest, *txmsg.Failure) {
	if ack.Output == nil {
		return txmsg.TxRequest{}, txmsg.NewSigningError()
	}

	compiled, _, cerr := s.compiler.CompileOutput(s.root, ack.Output)
	if cerr != nil {
		return txmsg.TxRequest{}, txmsg.NewFailedToCompileOutput()
	}
	if err := s.checksum.writeOutput(compiled); err != nil {
		return txmsg.TxRequest{}, txmsg.NewFailedToSerializeOutput()
	}
	if err := s.signTxHash.WriteOutput(compiled); err != nil {
		return txmsg.TxRequest{}, txmsg.NewFailedToSerializeOutput()
	}

	s.idx2++
	if s.idx2 < s.outputsCount {
		return s.reqOutput(s.idx2), nil
	}

	return s.finishSigningRound()
}

// finishSigningRound verifies that this round's rescanned checksum
// matches hash_check, signs the digest, assembles the final scriptSig,
// and advances to either the next round or the output-emit walk.
func (s *session) finishSigningRound() (txmsg.TxRequest, *txmsg.Failure) {
	if s.checksum.sum() != s.hashCheck {
		return txmsg.TxRequest{}, txmsg.NewTransactionChangedDuringSigning()
	}

	if err := s.signTxHash.AppendSigHashType(sigHashAll); err != nil {
		return txmsg.TxRequest{}, txmsg.NewSigningError()
	}
	digest := s.signTxHash.SumDouble()

	if !s.havePrivKey {
		return txmsg.TxRequest{}, txmsg.NewSigningError()
	}
	privKey := btcec.PrivKeyFromBytes(s.activePrivKey[:])
	sig := btcecdsa.Sign(privKey, digest[:])
	der := sig.Serialize()

	var scriptSig []byte
	var ferr *txmsg.Failure
	if s.heldInput.ScriptType == txmsg.SPENDMULTISIG {
		scriptSig, ferr = s.finishMultisigInput(der)
	} else {
		var serr error
		scriptSig, serr = s.compiler.CompileP2PKHScriptSig(der, s.activePubKey[:])
		if serr != nil {
			ferr = txmsg.NewFailedToSerializeInput()
		}
	}
	if ferr != nil {
		return txmsg.TxRequest{}, ferr
	}

	finalIn := &wire.TxIn{
		PreviousOutPoint: outPointFrom(s.heldInput.PrevHash, s.heldInput.PrevIndex),
		SignatureScript:  scriptSig,
		Sequence:         s.heldInput.Sequence,
	}
	raw, emitErr := s.signInputs.EmitInput(finalIn)
	if emitErr != nil {
		return txmsg.TxRequest{}, txmsg.NewFailedToSerializeInput()
	}

	signedIdx := s.idx1
	s.wipeActiveKey()
	s.idx1++
	s.idx2 = 0

	serialized := &txmsg.TxRequestSerialized{
		SignatureIndex: int(signedIdx),
		Signature:      der,
		SerializedTx:   raw,
	}

	if s.idx1 < s.inputsCount {
		s.stage = Req4Input
		s.startPhase2Round()
		req := s.reqInput(0)
		req.Serialized = serialized
		return req, nil
	}

	s.idx1 = 0
	s.stage = Req5Output
	s.outputEmitter = newOutputEmitter(s)
	req := s.reqOutput(0)
	req.Serialized = serialized
	return req, nil
}

// finishMultisigInput records this cosigner's signature in the multisig
// record and rebuilds the P2SH scriptSig from every signature collected
// so far.
func (s *session) finishMultisigInput(der []byte) ([]byte, *txmsg.Failure) {
	pi := script.PubkeyIndex(s.activeMS, s.activePubKey[:])
	if pi < 0 {
		return nil, txmsg.NewPubkeyNotFoundInMultisigScript()
	}
	if len(s.activeMS.Signatures) != len(s.activeMS.Pubkeys) {
		sigs := make([][]byte, len(s.activeMS.Pubkeys))
		copy(sigs, s.activeMS.Signatures)
		s.activeMS.Signatures = sigs
	}
	s.activeMS.Signatures[pi] = der

	redeem, err := s.compiler.CompileMultisigRedeemScript(s.activeMS)
	if err != nil {
		return nil, txmsg.NewMultisigFingerprintError()
	}
	scriptSig, err := s.compiler.CompileMultisigScriptSig(s.activeMS, redeem)
	if err != nil {
		return nil, txmsg.NewFailedToSerializeMultisigScript()
	}
	return scriptSig, nil
}

// onReq5Output handles one ack of the final output-emit walk: the
// output's scriptPubKey is recompiled (no confirmation, no hashing) and
// its raw bytes are shipped to the host. The last output's reply doubles
// as TXFINISHED.
func (s *session) onReq5Output(ack txmsg.TxAck) (txmsg.TxRequest, *txmsg.Failure) {
	if ack.Output == nil {
		return txmsg.TxRequest{}, txmsg.NewSigningError()
	}

	compiled, _, cerr := s.compiler.CompileOutput(s.root, ack.Output)
	if cerr != nil {
		return txmsg.TxRequest{}, txmsg.NewFailedToCompileOutput()
	}
	raw, err := s.outputEmitter.EmitOutput(compiled)
	if err != nil {
		return txmsg.TxRequest{}, txmsg.NewFailedToSerializeOutput()
	}

	idx := s.idx1
	isLast := idx == s.outputsCount-1

	reqType := txmsg.TXOUTPUT
	reqIdx := idx + 1
	if isLast {
		reqType = txmsg.TXFINISHED
		reqIdx = idx
	}
	req := txmsg.TxRequest{
		RequestType: reqType,
		Details:     &txmsg.TxRequestDetails{RequestIndex: reqIdx},
		Serialized:  &txmsg.TxRequestSerialized{SerializedTx: raw},
	}

	s.idx1++
	return req, nil
}
