// Package txcodec serializes inputs and outputs into the canonical
// Bitcoin transaction byte layout, either updating a running SHA-256
// context (hash mode) or returning each fragment's bytes as a newly
// allocated slice (emit mode; it does not write into a caller-supplied
// buffer). Both modes share the same cursor bookkeeping so VarInt count
// prefixes land on the correct input/output, whether that input/output is
// one of many fed into a running digest or a single fragment about to be
// shipped to the host.
package txcodec

import (
	"bytes"
	"crypto/sha256"
	"encoding/binary"
	"fmt"
	"io"

	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"github.com/btcsuite/btcd/wire"
)

// WriteOutPoint writes the 36-byte canonical outpoint encoding: the
// previous txid (internal byte order) followed by the little-endian
// output index.
func WriteOutPoint(w io.Writer, op *wire.OutPoint) error {
	if _, err := w.Write(op.Hash[:]); err != nil {
		return err
	}
	return binary.Write(w, binary.LittleEndian, op.Index)
}

// WriteTxIn writes the canonical encoding of a single input: outpoint,
// length-prefixed scriptSig, and sequence.
func WriteTxIn(w io.Writer, in *wire.TxIn) error {
	if err := WriteOutPoint(w, &in.PreviousOutPoint); err != nil {
		return err
	}
	if err := wire.WriteVarBytes(w, 0, in.SignatureScript); err != nil {
		return err
	}
	return binary.Write(w, binary.LittleEndian, in.Sequence)
}

// WriteTxOut writes the canonical encoding of a single output: the
// little-endian amount and the length-prefixed scriptPubKey.
func WriteTxOut(w io.Writer, out *wire.TxOut) error {
	if err := binary.Write(w, binary.LittleEndian, out.Value); err != nil {
		return err
	}
	return wire.WriteVarBytes(w, 0, out.PkScript)
}

// HashWriter accumulates the canonical byte stream of a transaction into a
// running SHA-256 context, without ever holding the whole transaction in
// memory. It backs both the previous-transaction txid rebuild and the
// legacy signing digest.
type HashWriter struct {
	h                    io.Writer // always a *sha256 hash.Hash under the hood
	sum                  func() [32]byte
	inputsLen, outputsLen uint32
	lockTime             uint32
	inWritten, outWritten uint32
}

// NewHashWriter constructs a HashWriter, writing the leading version field
// immediately since the transaction shape (input/output counts) is known
// up front.
func NewHashWriter(inputsLen, outputsLen, version, lockTime uint32) *HashWriter {
	hasher := sha256.New()
	w := &HashWriter{
		h:           hasher,
		sum:         func() [32]byte { var s [32]byte; copy(s[:], hasher.Sum(nil)); return s },
		inputsLen:   inputsLen,
		outputsLen:  outputsLen,
		lockTime:    lockTime,
	}
	binary.Write(hasher, binary.LittleEndian, version)
	return w
}

// WriteInput hashes one input's canonical encoding, attaching the input
// count VarInt ahead of the very first one.
func (w *HashWriter) WriteInput(in *wire.TxIn) error {
	if w.inWritten >= w.inputsLen {
		return fmt.Errorf("too many inputs for declared shape")
	}
	if w.inWritten == 0 {
		if err := wire.WriteVarInt(w.h, 0, uint64(w.inputsLen)); err != nil {
			return err
		}
	}
	if err := WriteTxIn(w.h, in); err != nil {
		return err
	}
	w.inWritten++
	return nil
}

// WriteOutput hashes one output's canonical encoding, attaching the output
// count VarInt ahead of the first one and the locktime after the last.
func (w *HashWriter) WriteOutput(out *wire.TxOut) error {
	if w.outWritten >= w.outputsLen {
		return fmt.Errorf("too many outputs for declared shape")
	}
	if w.outWritten == 0 {
		if err := wire.WriteVarInt(w.h, 0, uint64(w.outputsLen)); err != nil {
			return err
		}
	}
	if err := WriteTxOut(w.h, out); err != nil {
		return err
	}
	w.outWritten++
	if w.outWritten == w.outputsLen {
		if err := binary.Write(w.h, binary.LittleEndian, w.lockTime); err != nil {
			return err
		}
	}
	return nil
}

// AppendSigHashType appends a trailing little-endian sighash type, used
// only when this HashWriter is building the legacy signing digest.
func (w *HashWriter) AppendSigHashType(sighashType uint32) error {
	return binary.Write(w.h, binary.LittleEndian, sighashType)
}

// Sum returns the single SHA-256 digest of everything written so far.
func (w *HashWriter) Sum() [32]byte {
	return w.sum()
}

// SumDouble returns the double-SHA-256 digest (txid/signing-digest form),
// in internal (non-reversed) byte order.
func (w *HashWriter) SumDouble() chainhash.Hash {
	first := w.Sum()
	return chainhash.Hash(sha256.Sum256(first[:]))
}

// Emitter writes raw fragments of a transaction's canonical encoding, one
// input or output at a time, attaching VarInt count prefixes and the
// locktime trailer at the correct position even though the caller never
// sees more than one input or output per call.
type Emitter struct {
	inputsLen, outputsLen uint32
	version, lockTime     uint32
	inWritten, outWritten uint32
}

// NewEmitter constructs an Emitter for a transaction of the given shape.
func NewEmitter(inputsLen, outputsLen, version, lockTime uint32) *Emitter {
	return &Emitter{
		inputsLen:  inputsLen,
		outputsLen: outputsLen,
		version:    version,
		lockTime:   lockTime,
	}
}

// EmitInput returns the bytes for one input, prefixed with the version and
// input-count VarInt if it is the first.
func (e *Emitter) EmitInput(in *wire.TxIn) ([]byte, error) {
	if e.inWritten >= e.inputsLen {
		return nil, fmt.Errorf("too many inputs for declared shape")
	}
	var buf bytes.Buffer
	if e.inWritten == 0 {
		if err := binary.Write(&buf, binary.LittleEndian, e.version); err != nil {
			return nil, err
		}
		if err := wire.WriteVarInt(&buf, 0, uint64(e.inputsLen)); err != nil {
			return nil, err
		}
	}
	if err := WriteTxIn(&buf, in); err != nil {
		return nil, err
	}
	e.inWritten++
	return buf.Bytes(), nil
}

// EmitOutput returns the bytes for one output, prefixed with the
// output-count VarInt if it is the first, and suffixed with the locktime
// if it is the last.
func (e *Emitter) EmitOutput(out *wire.TxOut) ([]byte, error) {
	if e.outWritten >= e.outputsLen {
		return nil, fmt.Errorf("too many outputs for declared shape")
	}
	var buf bytes.Buffer
	if e.outWritten == 0 {
		if err := wire.WriteVarInt(&buf, 0, uint64(e.outputsLen)); err != nil {
			return nil, err
		}
	}
	if err := WriteTxOut(&buf, out); err != nil {
		return nil, err
	}
	e.outWritten++
	if e.outWritten == e.outputsLen {
		if err := binary.Write(&buf, binary.LittleEndian, e.lockTime); err != nil {
			return nil, err
		}
	}
	return buf.Bytes(), nil
}
