package script

import (
	"testing"

	"github.com/btcsuite/btcd/chaincfg"
	"github.com/stretchr/testify/require"

	"github.com/vault-hw/txsigner/coinset"
	"github.com/vault-hw/txsigner/txmsg"
)

func testCompiler() Compiler {
	return NewCompiler(coinset.Params{Name: "regtest", Net: &chaincfg.RegressionNetParams})
}

func pubkey(b byte) []byte {
	pk := make([]byte, 33)
	pk[0] = 0x02
	pk[32] = b
	return pk
}

func TestCompileOutputPayToAddress(t *testing.T) {
	t.Parallel()

	c := testCompiler()
	addr := "mfWxJ45yp2SFn7UciZyNpvDKrzbhyfKrY8" // well-formed testnet P2PKH
	out, _, err := c.CompileOutput(nil, &txmsg.TxOutputType{
		Amount:     1000,
		ScriptType: txmsg.PAYTOADDRESS,
		Address:    addr,
	})
	require.NoError(t, err)
	require.Equal(t, int64(1000), out.Value)
	require.NotEmpty(t, out.PkScript)
}

func TestCompileOutputRejectsBadAddress(t *testing.T) {
	t.Parallel()

	c := testCompiler()
	_, _, err := c.CompileOutput(nil, &txmsg.TxOutputType{
		ScriptType: txmsg.PAYTOADDRESS,
		Address:    "not-an-address",
	})
	require.Error(t, err)
}

func TestCompileMultisigRedeemScriptOrdersSignatures(t *testing.T) {
	t.Parallel()

	c := testCompiler()
	ms := &txmsg.MultisigType{M: 2, Pubkeys: [][]byte{pubkey(1), pubkey(2), pubkey(3)}}

	redeem, err := c.CompileMultisigRedeemScript(ms)
	require.NoError(t, err)
	require.NotEmpty(t, redeem)

	require.Equal(t, 1, PubkeyIndex(ms, pubkey(2)))
	require.Equal(t, -1, PubkeyIndex(ms, pubkey(9)))
}

func TestCompileMultisigScriptSigSkipsMissingSignatures(t *testing.T) {
	t.Parallel()

	c := testCompiler()
	ms := &txmsg.MultisigType{
		M:          2,
		Pubkeys:    [][]byte{pubkey(1), pubkey(2)},
		Signatures: [][]byte{nil, {0x30, 0x01}},
	}
	redeem, err := c.CompileMultisigRedeemScript(ms)
	require.NoError(t, err)

	scriptSig, err := c.CompileMultisigScriptSig(ms, redeem)
	require.NoError(t, err)
	require.NotEmpty(t, scriptSig)
}

func TestCompileP2PKHScriptSig(t *testing.T) {
	t.Parallel()

	c := testCompiler()
	sig := []byte{0x30, 0x01}
	scriptSig, err := c.CompileP2PKHScriptSig(sig, pubkey(1))
	require.NoError(t, err)
	require.NotEmpty(t, scriptSig)
}
