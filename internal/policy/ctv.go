package policy

import (
	"bytes"
	"crypto/sha256"
	"encoding/binary"

	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"github.com/btcsuite/btcd/txscript"
	"github.com/btcsuite/btcd/wire"
	"github.com/pkg/errors"
)

// OP_CHECKTEMPLATEVERIFY redefines OP_NOP4 (BIP-119).
const OP_CHECKTEMPLATEVERIFY = txscript.OP_NOP4

// TemplateHash computes the BIP-119 default template hash of tx for the
// input at inputIndex. It commits to version, locktime, scriptSigs (only when
// any is non-empty), input count, sequences, outputs and the input index, but
// not to the spent outpoints.
func TemplateHash(tx *wire.MsgTx, inputIndex uint32) (chainhash.Hash, error) {
	if int(inputIndex) >= len(tx.TxIn) {
		return chainhash.Hash{}, errors.Errorf("input index %d out of range", inputIndex)
	}

	var buf bytes.Buffer
	var scratch [4]byte
	putUint32 := func(v uint32) {
		binary.LittleEndian.PutUint32(scratch[:], v)
		buf.Write(scratch[:])
	}

	putUint32(uint32(tx.Version))
	putUint32(tx.LockTime)

	hasScriptSigs := false
	for _, in := range tx.TxIn {
		if len(in.SignatureScript) > 0 {
			hasScriptSigs = true
			break
		}
	}
	if hasScriptSigs {
		var sigs bytes.Buffer
		for _, in := range tx.TxIn {
			if err := wire.WriteVarBytes(&sigs, 0, in.SignatureScript); err != nil {
				return chainhash.Hash{}, errors.Wrap(err, "failed to serialize script sig")
			}
		}
		h := sha256.Sum256(sigs.Bytes())
		buf.Write(h[:])
	}

	putUint32(uint32(len(tx.TxIn)))

	var seqs bytes.Buffer
	for _, in := range tx.TxIn {
		binary.LittleEndian.PutUint32(scratch[:], in.Sequence)
		seqs.Write(scratch[:])
	}
	seqHash := sha256.Sum256(seqs.Bytes())
	buf.Write(seqHash[:])

	putUint32(uint32(len(tx.TxOut)))

	var outs bytes.Buffer
	for _, out := range tx.TxOut {
		if err := wire.WriteTxOut(&outs, 0, tx.Version, out); err != nil {
			return chainhash.Hash{}, errors.Wrap(err, "failed to serialize output")
		}
	}
	outHash := sha256.Sum256(outs.Bytes())
	buf.Write(outHash[:])

	putUint32(inputIndex)

	return chainhash.Hash(sha256.Sum256(buf.Bytes())), nil
}
