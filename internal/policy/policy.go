// Package policy compiles the spending policy that gets committed into every
// wallet output.
//
// An Engine turns (owner key, recovery key, delay, amount, fee) into a
// SpendCommitment: the internal key, the tap tree Merkle root the owner key is
// tweaked with, and everything needed to later satisfy the recovery script
// path. Compilation is pure, identical inputs give identical commitments.
package policy

import (
	"github.com/btcsuite/btcd/btcec/v2"
	"github.com/btcsuite/btcd/btcutil"
	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"github.com/btcsuite/btcd/txscript"
	"github.com/btcsuite/btcd/wire"
	"github.com/pkg/errors"
)

var ErrPolicyCompilation = errors.New("policy compilation failed")

// Engine compiles the two-path policy of one address.
type Engine interface {
	Compile(ownerPk, recoveryPk *btcec.PublicKey, delay uint32, amount, fee btcutil.Amount) (*SpendCommitment, error)
}

// SpendCommitment is the compiled policy of one (index, amount) pair.
type SpendCommitment struct {
	InternalKey *btcec.PublicKey
	MerkleRoot  chainhash.Hash

	// RecoveryLeaf is the delayed path's tap leaf, ControlBlock proves its
	// inclusion under InternalKey and MerkleRoot.
	RecoveryLeaf txscript.TapLeaf
	ControlBlock txscript.ControlBlock

	// Template is the transaction shape the recovery path is forced into,
	// with a zero outpoint in its single input. TemplateHash is its BIP-119
	// default template hash.
	Template     *wire.MsgTx
	TemplateHash chainhash.Hash

	Amount btcutil.Amount
	Fee    btcutil.Amount
	Delay  uint32
}

// ControlBlockBytes serializes the recovery leaf's control block.
func (c *SpendCommitment) ControlBlockBytes() ([]byte, error) {
	b, err := c.ControlBlock.ToBytes()
	if err != nil {
		return nil, errors.Wrap(err, "failed to serialize control block")
	}
	return b, nil
}

// StagingTx returns a copy of the covenant template spending prevOut. Only
// the outpoint differs from Template, which the template hash does not cover.
func (c *SpendCommitment) StagingTx(prevOut wire.OutPoint) *wire.MsgTx {
	tx := c.Template.Copy()
	tx.TxIn[0].PreviousOutPoint = prevOut
	return tx
}

// RecoveryWitness assembles the script path witness for a recovery key
// signature over the staging transaction.
func (c *SpendCommitment) RecoveryWitness(sig []byte) (wire.TxWitness, error) {
	ctrl, err := c.ControlBlockBytes()
	if err != nil {
		return nil, err
	}
	return wire.TxWitness{sig, c.RecoveryLeaf.Script, ctrl}, nil
}
