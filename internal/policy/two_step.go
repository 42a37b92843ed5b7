package policy

import (
	"github.com/btcsuite/btcd/btcec/v2"
	"github.com/btcsuite/btcd/btcec/v2/schnorr"
	"github.com/btcsuite/btcd/btcutil"
	"github.com/btcsuite/btcd/txscript"
	"github.com/btcsuite/btcd/wire"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
)

const (
	// DefaultDustAmount is the P2TR dust limit at the default relay fee.
	DefaultDustAmount btcutil.Amount = 330

	templateVersion  = 2
	templateSequence = wire.MaxTxInSequenceNum
)

// TwoStepRecovery is the default engine. Every output is spendable by the
// owner key alone through the key path. Its single script leaf lets the
// recovery key spend only into a fixed two-output template:
//
//  1. amount - fee - dust back to the owner key, with the recovery key
//     usable only after delay (CSV)
//  2. a dust anchor to the owner key or the recovery key, for fee bumping
//
// so one recovery step never hands over the funds without the owner being
// able to react during the delay.
type TwoStepRecovery struct {
	DustAmount btcutil.Amount
}

var _ Engine = TwoStepRecovery{}

// NewTwoStepRecovery returns the engine with the default dust amount.
func NewTwoStepRecovery() TwoStepRecovery {
	return TwoStepRecovery{DustAmount: DefaultDustAmount}
}

func (p TwoStepRecovery) Compile(ownerPk, recoveryPk *btcec.PublicKey, delay uint32, amount, fee btcutil.Amount) (*SpendCommitment, error) {
	if ownerPk == nil || recoveryPk == nil {
		return nil, errors.Wrap(ErrPolicyCompilation, "owner and recovery keys are required")
	}
	if delay == 0 || delay&wire.SequenceLockTimeDisabled != 0 {
		return nil, errors.Wrapf(ErrPolicyCompilation, "invalid relative delay %d", delay)
	}

	dust := p.DustAmount
	if dust <= 0 {
		return nil, errors.Wrapf(ErrPolicyCompilation, "invalid dust amount %d", dust)
	}
	if amount <= 0 || fee < 0 {
		return nil, errors.Wrapf(ErrPolicyCompilation, "invalid amount %d or fee %d", amount, fee)
	}

	remainder := amount - fee - dust
	if remainder < dust {
		log.Warn().
			Int64("amount", int64(amount)).
			Int64("fee", int64(fee)).
			Int64("dust", int64(dust)).
			Msg("Amount too small for recovery template")
		return nil, errors.Wrapf(ErrPolicyCompilation,
			"amount %d minus fee %d and anchor %d leaves %d, below dust", amount, fee, dust, remainder)
	}

	delayedScript, err := recoveryAfterDelayScript(recoveryPk, delay)
	if err != nil {
		return nil, err
	}
	lockedOut, err := ownerOrLeafOutput(ownerPk, delayedScript, remainder)
	if err != nil {
		return nil, err
	}

	anchorScript, err := recoveryCheckSigScript(recoveryPk)
	if err != nil {
		return nil, err
	}
	anchorOut, err := ownerOrLeafOutput(ownerPk, anchorScript, dust)
	if err != nil {
		return nil, err
	}

	template := wire.NewMsgTx(templateVersion)
	template.LockTime = 0
	template.AddTxIn(&wire.TxIn{Sequence: templateSequence})
	template.AddTxOut(lockedOut)
	template.AddTxOut(anchorOut)

	ctvHash, err := TemplateHash(template, 0)
	if err != nil {
		return nil, err
	}

	recoveryScript, err := txscript.NewScriptBuilder().
		AddData(schnorr.SerializePubKey(recoveryPk)).
		AddOp(txscript.OP_CHECKSIGVERIFY).
		AddData(ctvHash[:]).
		AddOp(OP_CHECKTEMPLATEVERIFY).
		Script()
	if err != nil {
		return nil, errors.Wrap(err, "failed to build recovery script")
	}

	leaf := txscript.NewBaseTapLeaf(recoveryScript)
	tree := txscript.AssembleTaprootScriptTree(leaf)

	return &SpendCommitment{
		InternalKey:  ownerPk,
		MerkleRoot:   tree.RootNode.TapHash(),
		RecoveryLeaf: leaf,
		ControlBlock: tree.LeafMerkleProofs[0].ToControlBlock(ownerPk),
		Template:     template,
		TemplateHash: ctvHash,
		Amount:       amount,
		Fee:          fee,
		Delay:        delay,
	}, nil
}

// recoveryAfterDelayScript: <recovery> OP_CHECKSIGVERIFY <delay> OP_CHECKSEQUENCEVERIFY
func recoveryAfterDelayScript(recoveryPk *btcec.PublicKey, delay uint32) ([]byte, error) {
	script, err := txscript.NewScriptBuilder().
		AddData(schnorr.SerializePubKey(recoveryPk)).
		AddOp(txscript.OP_CHECKSIGVERIFY).
		AddInt64(int64(delay)).
		AddOp(txscript.OP_CHECKSEQUENCEVERIFY).
		Script()
	if err != nil {
		return nil, errors.Wrap(err, "failed to build delayed recovery script")
	}
	return script, nil
}

// recoveryCheckSigScript: <recovery> OP_CHECKSIG
func recoveryCheckSigScript(recoveryPk *btcec.PublicKey) ([]byte, error) {
	script, err := txscript.NewScriptBuilder().
		AddData(schnorr.SerializePubKey(recoveryPk)).
		AddOp(txscript.OP_CHECKSIG).
		Script()
	if err != nil {
		return nil, errors.Wrap(err, "failed to build anchor script")
	}
	return script, nil
}

// ownerOrLeafOutput pays value to a P2TR output with ownerPk as internal key
// and leafScript as its only script leaf.
func ownerOrLeafOutput(ownerPk *btcec.PublicKey, leafScript []byte, value btcutil.Amount) (*wire.TxOut, error) {
	leaf := txscript.NewBaseTapLeaf(leafScript)
	root := leaf.TapHash()
	outputKey := txscript.ComputeTaprootOutputKey(ownerPk, root[:])

	pkScript, err := txscript.PayToTaprootScript(outputKey)
	if err != nil {
		return nil, errors.Wrap(err, "failed to build taproot output script")
	}
	return wire.NewTxOut(int64(value), pkScript), nil
}
