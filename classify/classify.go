// Package classify decides whether a declared output is change (silently
// summed into the session's totals) or a spend (displayed to the user for
// confirmation), per the three-rule precedence of the signing protocol.
package classify

import (
	"crypto/sha256"
	"fmt"

	"github.com/vault-hw/txsigner/txmsg"
)

// Fingerprint digests a multisig redeem script's defining data (its
// threshold and ordered pubkey list) to a short value used to recognise
// change back to the same cosigner group. The exact bytes covered are an
// implementation choice of the underlying crypto library in the original
// design (see DESIGN.md); this engine fingerprints M and the ordered
// pubkeys with SHA-256, keeping the first four bytes.
func Fingerprint(ms *txmsg.MultisigType) ([4]byte, error) {
	var fp [4]byte
	if ms == nil || len(ms.Pubkeys) == 0 {
		return fp, fmt.Errorf("error computing multisig fingerprint")
	}

	h := sha256.New()
	h.Write([]byte{byte(ms.M)})
	for _, pub := range ms.Pubkeys {
		h.Write(pub)
	}
	sum := h.Sum(nil)
	copy(fp[:], sum[:4])
	return fp, nil
}

// State tracks the session-wide multisig fingerprint bookkeeping described
// in the data model: `multisig_fp`, `multisig_fp_set`, and
// `multisig_fp_mismatch`.
type State struct {
	fp       [4]byte
	fpSet    bool
	mismatch bool
}

// ObserveInput updates the fingerprint state for input idx1. Only input 0
// can establish the group fingerprint; every later input either confirms
// it (same fingerprint) or permanently disables multisig-change detection
// for the rest of the session.
func (s *State) ObserveInput(idx1 int, scriptType txmsg.ScriptType,
	ms *txmsg.MultisigType) error {

	if s.mismatch {
		return nil
	}

	if scriptType != txmsg.SPENDMULTISIG {
		if idx1 == 0 {
			s.mismatch = true
		} else if s.fpSet {
			s.mismatch = true
		}
		return nil
	}

	fp, err := Fingerprint(ms)
	if err != nil {
		return err
	}

	if idx1 == 0 {
		s.fp = fp
		s.fpSet = true
		return nil
	}

	if s.fpSet && fp != s.fp {
		s.mismatch = true
	}
	return nil
}

// IsChange applies the three classifier rules, in order, to a declared
// output.
func (s *State) IsChange(out *txmsg.TxOutputType) (bool, error) {
	// Rule 1: multisig fingerprint match.
	if out.ScriptType == txmsg.PAYTOMULTISIG && s.fpSet && !s.mismatch {
		if out.Multisig != nil {
			fp, err := Fingerprint(out.Multisig)
			if err != nil {
				return false, err
			}
			if fp == s.fp {
				return true, nil
			}
		}
	}

	// Rule 2: explicit address_type field present.
	if out.HasAddrType {
		return out.AddressType == txmsg.CHANGE &&
			len(out.AddressN) > 0 &&
			out.ScriptType == txmsg.PAYTOADDRESS, nil
	}

	// Rule 3: legacy path, no address_type field at all.
	return out.ScriptType == txmsg.PAYTOADDRESS && len(out.AddressN) > 0, nil
}
