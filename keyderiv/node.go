// Package keyderiv wraps BIP-32 HD-node derivation behind the fixed
// contract the signing engine calls into. The actual derivation math
// (child-key cache, chain code arithmetic) lives in
// github.com/btcsuite/btcd/btcutil/hdkeychain; this package only adapts it
// to the address_n-path calling convention used throughout the signing
// protocol.
package keyderiv

import (
	"github.com/btcsuite/btcd/btcec/v2"
	"github.com/btcsuite/btcd/btcutil/hdkeychain"
)

// Node is an HD-node from which signing keys are derived one child at a
// time, per input, following the hardened/non-hardened index path the host
// supplies as `address_n`.
type Node struct {
	key *hdkeychain.ExtendedKey
}

// NewNode wraps an already-instantiated extended key, typically the
// account-level (or master) root the session was started with.
func NewNode(key *hdkeychain.ExtendedKey) *Node {
	return &Node{key: key}
}

// Derive walks path, one BIP-32 child index at a time, and returns the
// resulting node. It never mutates the receiver.
func (n *Node) Derive(path []uint32) (*Node, error) {
	cur := n.key
	for _, idx := range path {
		child, err := cur.Derive(idx)
		if err != nil {
			return nil, err
		}
		cur = child
	}
	return &Node{key: cur}, nil
}

// ECPrivKey returns the node's private key. Only valid if the node was
// constructed from a private extended key.
func (n *Node) ECPrivKey() (*btcec.PrivateKey, error) {
	return n.key.ECPrivKey()
}

// ECPubKey returns the node's (compressed) public key.
func (n *Node) ECPubKey() (*btcec.PublicKey, error) {
	return n.key.ECPubKey()
}

// Zero wipes the node's extended key material. Called on every session
// exit path once a node has been derived for the currently-signing input.
func (n *Node) Zero() {
	if n == nil || n.key == nil {
		return
	}
	n.key.Zero()
}
