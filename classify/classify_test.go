package classify

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/vault-hw/txsigner/txmsg"
)

func pubkey(b byte) []byte {
	pk := make([]byte, 33)
	pk[0] = 0x02
	pk[32] = b
	return pk
}

// TestLegacyPathRequiresNoAddressType covers rule 3: PAYTOADDRESS with a
// non-empty address_n and no address_type field at all is change.
func TestLegacyPathRequiresNoAddressType(t *testing.T) {
	t.Parallel()

	var s State
	out := &txmsg.TxOutputType{
		ScriptType: txmsg.PAYTOADDRESS,
		AddressN:   []uint32{0, 1},
	}
	isChange, err := s.IsChange(out)
	require.NoError(t, err)
	require.True(t, isChange)
}

// TestExplicitSpendOverridesLegacyPath covers the spec's Open Question 1
// resolution: address_type present and SPEND is strictly a spend even
// though address_n_count > 0 and the script type is PAYTOADDRESS.
func TestExplicitSpendOverridesLegacyPath(t *testing.T) {
	t.Parallel()

	var s State
	out := &txmsg.TxOutputType{
		ScriptType:  txmsg.PAYTOADDRESS,
		AddressN:    []uint32{0, 1},
		HasAddrType: true,
		AddressType: txmsg.SPEND,
	}
	isChange, err := s.IsChange(out)
	require.NoError(t, err)
	require.False(t, isChange)
}

// TestExplicitChangeRequiresAddressN covers rule 2's address_n_count > 0
// requirement: address_type == CHANGE alone is not enough.
func TestExplicitChangeRequiresAddressN(t *testing.T) {
	t.Parallel()

	var s State
	out := &txmsg.TxOutputType{
		ScriptType:  txmsg.PAYTOADDRESS,
		HasAddrType: true,
		AddressType: txmsg.CHANGE,
	}
	isChange, err := s.IsChange(out)
	require.NoError(t, err)
	require.False(t, isChange)
}

// TestMultisigFingerprintMatch covers rule 1: a PAYTOMULTISIG output whose
// fingerprint matches the group established by input 0 is change.
func TestMultisigFingerprintMatch(t *testing.T) {
	t.Parallel()

	ms := &txmsg.MultisigType{M: 2, Pubkeys: [][]byte{pubkey(1), pubkey(2)}}

	var s State
	require.NoError(t, s.ObserveInput(0, txmsg.SPENDMULTISIG, ms))

	out := &txmsg.TxOutputType{ScriptType: txmsg.PAYTOMULTISIG, Multisig: ms}
	isChange, err := s.IsChange(out)
	require.NoError(t, err)
	require.True(t, isChange)
}

// TestMultisigFingerprintMismatchDisablesDetection covers the rule that a
// later SPENDADDRESS input permanently disables multisig-change detection
// for the rest of the session.
func TestMultisigFingerprintMismatchDisablesDetection(t *testing.T) {
	t.Parallel()

	ms := &txmsg.MultisigType{M: 2, Pubkeys: [][]byte{pubkey(1), pubkey(2)}}

	var s State
	require.NoError(t, s.ObserveInput(0, txmsg.SPENDMULTISIG, ms))
	require.NoError(t, s.ObserveInput(1, txmsg.SPENDADDRESS, nil))

	out := &txmsg.TxOutputType{ScriptType: txmsg.PAYTOMULTISIG, Multisig: ms}
	isChange, err := s.IsChange(out)
	require.NoError(t, err)
	require.False(t, isChange)
}

func TestFingerprintRequiresPubkeys(t *testing.T) {
	t.Parallel()

	_, err := Fingerprint(&txmsg.MultisigType{M: 1})
	require.Error(t, err)
}
