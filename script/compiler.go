// Package script compiles logical outputs (an address or a multisig
// redeem script, plus an amount) into scriptPubKey bytes, and compiles
// signed inputs into scriptSig bytes. It is the only package that touches
// txscript's script-builder API.
package script

import (
	"bytes"
	"fmt"

	"github.com/btcsuite/btcd/btcutil"
	"github.com/btcsuite/btcd/txscript"
	"github.com/btcsuite/btcd/wire"

	"github.com/vault-hw/txsigner/coinset"
	"github.com/vault-hw/txsigner/keyderiv"
	"github.com/vault-hw/txsigner/txmsg"
)

// Compiler turns logical outputs and signed inputs into wire bytes for a
// fixed coin.
type Compiler struct {
	Coin coinset.Params
}

// NewCompiler returns a Compiler bound to coin's address version bytes.
func NewCompiler(coin coinset.Params) Compiler {
	return Compiler{Coin: coin}
}

// CompileOutput produces the scriptPubKey and display string (for
// confirmation prompts on non-change spends) for a declared output. root
// is used to derive the pubkey hash of change outputs addressed by
// address_n.
func (c Compiler) CompileOutput(root *keyderiv.Node,
	out *txmsg.TxOutputType) (*wire.TxOut, string, error) {

	switch out.ScriptType {
	case txmsg.PAYTOMULTISIG:
		if out.Multisig == nil {
			return nil, "", fmt.Errorf("multisig info not provided")
		}
		redeem, err := c.CompileMultisigRedeemScript(out.Multisig)
		if err != nil {
			return nil, "", err
		}
		pkScript, addr, err := c.p2shScript(redeem)
		if err != nil {
			return nil, "", err
		}
		return &wire.TxOut{Value: out.Amount, PkScript: pkScript}, addr, nil

	case txmsg.PAYTOADDRESS:
		if len(out.AddressN) > 0 {
			if root == nil {
				return nil, "", fmt.Errorf("failed to derive private key")
			}
			node, err := root.Derive(out.AddressN)
			if err != nil {
				return nil, "", fmt.Errorf("failed to derive private key")
			}
			pub, err := node.ECPubKey()
			if err != nil {
				return nil, "", fmt.Errorf("failed to derive private key")
			}
			pkHash := btcutil.Hash160(pub.SerializeCompressed())
			return c.p2pkhScript(pkHash, out.Amount)
		}

		addr, err := btcutil.DecodeAddress(out.Address, c.Coin.Net)
		if err != nil {
			return nil, "", fmt.Errorf("failed to compile output")
		}
		pkScript, err := txscript.PayToAddrScript(addr)
		if err != nil {
			return nil, "", fmt.Errorf("failed to compile output")
		}
		return &wire.TxOut{Value: out.Amount, PkScript: pkScript}, addr.EncodeAddress(), nil

	default:
		return nil, "", fmt.Errorf("failed to compile output")
	}
}

// p2pkhScript builds a pay-to-pubkey-hash scriptPubKey for pkHash and
// amount, and returns its display address.
func (c Compiler) p2pkhScript(pkHash []byte, amount int64) (*wire.TxOut,
	string, error) {

	addr, err := btcutil.NewAddressPubKeyHash(pkHash, c.Coin.Net)
	if err != nil {
		return nil, "", fmt.Errorf("failed to compile output")
	}
	pkScript, err := txscript.PayToAddrScript(addr)
	if err != nil {
		return nil, "", fmt.Errorf("failed to compile output")
	}
	return &wire.TxOut{Value: amount, PkScript: pkScript}, addr.EncodeAddress(), nil
}

// P2PKHScriptPubKey builds a bare pay-to-pubkey-hash scriptPubKey for
// pkHash, with no amount attached. Used during Phase 2 to build the
// subscript placed into the input being signed, per the legacy sighash
// algorithm (the target input's script field holds its scriptPubKey, not
// its eventual scriptSig, while every other input's script field is
// empty).
func (c Compiler) P2PKHScriptPubKey(pkHash []byte) ([]byte, error) {
	addr, err := btcutil.NewAddressPubKeyHash(pkHash, c.Coin.Net)
	if err != nil {
		return nil, fmt.Errorf("failed to compile output")
	}
	return txscript.PayToAddrScript(addr)
}

// p2shScript wraps redeemScript in a pay-to-script-hash scriptPubKey.
func (c Compiler) p2shScript(redeemScript []byte) ([]byte, string, error) {
	addr, err := btcutil.NewAddressScriptHash(redeemScript, c.Coin.Net)
	if err != nil {
		return nil, "", fmt.Errorf("failed to compile output")
	}
	pkScript, err := txscript.PayToAddrScript(addr)
	if err != nil {
		return nil, "", fmt.Errorf("failed to compile output")
	}
	return pkScript, addr.EncodeAddress(), nil
}

// CompileMultisigRedeemScript builds the bare M-of-N CHECKMULTISIG script
// backing a PAYTOMULTISIG/SPENDMULTISIG output, in the pubkey order the
// host supplied (CHECKMULTISIG requires signatures to appear in the same
// relative order as their pubkeys).
func (c Compiler) CompileMultisigRedeemScript(ms *txmsg.MultisigType) ([]byte,
	error) {

	if ms.M <= 0 || ms.M > len(ms.Pubkeys) || len(ms.Pubkeys) > 15 {
		return nil, fmt.Errorf("error computing multisig fingerprint")
	}

	bldr := txscript.NewScriptBuilder()
	bldr.AddInt64(int64(ms.M))
	for _, pub := range ms.Pubkeys {
		bldr.AddData(pub)
	}
	bldr.AddInt64(int64(len(ms.Pubkeys)))
	bldr.AddOp(txscript.OP_CHECKMULTISIG)
	return bldr.Script()
}

// CompileP2PKHScriptSig builds the final scriptSig for a signed P2PKH
// input: <sig> <pubkey>.
func (c Compiler) CompileP2PKHScriptSig(sig, pubkey []byte) ([]byte, error) {
	bldr := txscript.NewScriptBuilder()
	bldr.AddData(sig)
	bldr.AddData(pubkey)
	script, err := bldr.Script()
	if err != nil {
		return nil, fmt.Errorf("failed to serialize input")
	}
	return script, nil
}

// CompileMultisigScriptSig builds the P2SH scriptSig for a (possibly
// partially) signed multisig input: OP_0 <sig>... <redeemScript>. Only the
// non-nil signature slots are pushed, in pubkey order.
func (c Compiler) CompileMultisigScriptSig(ms *txmsg.MultisigType,
	redeemScript []byte) ([]byte, error) {

	bldr := txscript.NewScriptBuilder()
	bldr.AddOp(txscript.OP_0)
	for _, sig := range ms.Signatures {
		if len(sig) == 0 {
			continue
		}
		bldr.AddData(sig)
	}
	bldr.AddData(redeemScript)
	script, err := bldr.Script()
	if err != nil {
		return nil, fmt.Errorf("failed to serialize multisig script")
	}
	return script, nil
}

// PubkeyIndex returns the position of pubkey within ms.Pubkeys, or -1 if
// absent.
func PubkeyIndex(ms *txmsg.MultisigType, pubkey []byte) int {
	for i, pub := range ms.Pubkeys {
		if bytes.Equal(pub, pubkey) {
			return i
		}
	}
	return -1
}
