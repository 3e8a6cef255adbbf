package signengine

import (
	"crypto/sha256"
	"encoding/binary"
	"hash"

	"github.com/btcsuite/btcd/wire"

	"github.com/vault-hw/txsigner/txcodec"
	"github.com/vault-hw/txsigner/txmsg"
)

// checksumHash is the running SHA-256 context backing checksum_hash: the
// anti-tamper evidence that Phase 2 saw byte-identical inputs and outputs
// to what the user approved in Phase 1.
type checksumHash struct {
	h hash.Hash
}

// newChecksumHash seeds a fresh context with the session's declared shape,
// exactly as done once in Phase 1 and once per signing input in Phase 2.
func newChecksumHash(inputsCount, outputsCount, version, lockTime uint32) *checksumHash {
	h := sha256.New()
	writeU32(h, inputsCount)
	writeU32(h, outputsCount)
	writeU32(h, version)
	writeU32(h, lockTime)
	return &checksumHash{h: h}
}

func writeU32(h hash.Hash, v uint32) {
	var buf [4]byte
	binary.LittleEndian.PutUint32(buf[:], v)
	h.Write(buf[:])
}

// writeInput folds one input's received-form record into the checksum: the
// exact fields the host declared, not the compiled script. This is what
// lets Phase 2 notice a host that answered REQ_1_INPUT one way and
// REQ_4_INPUT another.
func (c *checksumHash) writeInput(in *txmsg.TxInputType) {
	c.h.Write(in.PrevHash[:])
	writeU32(c.h, in.PrevIndex)
	writeU32(c.h, uint32(in.ScriptType))
	writeU32(c.h, in.Sequence)
	writeU32(c.h, uint32(len(in.AddressN)))
	for _, idx := range in.AddressN {
		writeU32(c.h, idx)
	}
	if in.Multisig == nil {
		c.h.Write([]byte{0})
		return
	}
	c.h.Write([]byte{1, byte(in.Multisig.M)})
	writeU32(c.h, uint32(len(in.Multisig.Pubkeys)))
	for _, pub := range in.Multisig.Pubkeys {
		c.h.Write(pub)
	}
}

// writeOutput folds one output's compiled binary form (scriptPubKey plus
// amount) into the checksum.
func (c *checksumHash) writeOutput(out *wire.TxOut) error {
	return txcodec.WriteTxOut(c.h, out)
}

// sum finalises the context into the comparable digest.
func (c *checksumHash) sum() [32]byte {
	var out [32]byte
	copy(out[:], c.h.Sum(nil))
	return out
}
