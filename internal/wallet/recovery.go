package wallet

import (
	"github.com/btcsuite/btcd/btcec/v2"
	"github.com/btcsuite/btcd/btcutil"
	"github.com/btcsuite/btcd/txscript"
	"github.com/btcsuite/btcd/wire"
	"github.com/kashguard/go-recovery-wallet/internal/backup"
	"github.com/kashguard/go-recovery-wallet/internal/keytree"
	"github.com/kashguard/go-recovery-wallet/internal/policy"
	"github.com/kashguard/go-recovery-wallet/internal/taproot"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
)

// RecoveryWallet 恢复钱包，由重建的恢复备份构建
// 与 owner 看到相同的地址，并可走任一地址的恢复路径
type RecoveryWallet struct {
	*addressBook
	recovery *keytree.Tree
}

// RecoverySpend 将一个地址的资金转入 covenant 模板所需的全部信息
type RecoverySpend struct {
	Index      uint32
	Amount     btcutil.Amount
	Address    btcutil.Address
	PkScript   []byte
	Commitment *policy.SpendCommitment
	// RecoveryKey signs the recovery leaf, it is the untweaked recovery tree
	// key at Index.
	RecoveryKey *btcec.PrivateKey
}

func NewRecoveryWallet(rb *backup.RecoveryBackup, cfg Config) (*RecoveryWallet, error) {
	if rb == nil {
		return nil, errors.New("recovery backup is required")
	}
	if cfg.Network == nil {
		return nil, errors.New("network params are required")
	}

	recovery, err := keytree.NewTree(rb.RecoverySeed, cfg.Network)
	if err != nil {
		return nil, errors.Wrap(err, "recovery tree")
	}
	recoveryRoot, err := recovery.PublicRoot()
	if err != nil {
		recovery.Zero()
		return nil, err
	}

	book, err := newAddressBook(rb.Params, cfg, rb.OwnerRoot, recoveryRoot)
	if err != nil {
		recovery.Zero()
		return nil, err
	}

	return &RecoveryWallet{addressBook: book, recovery: recovery}, nil
}

// RecoverySpendInfo 编译 (index, amount) 地址，并配上满足其脚本叶子的恢复私钥
func (w *RecoveryWallet) RecoverySpendInfo(index uint32, amount btcutil.Amount) (*RecoverySpend, error) {
	ownerPk, commitment, err := w.compile(index, amount)
	if err != nil {
		return nil, err
	}
	if !hasRecoveryPath(commitment, ownerPk) {
		return nil, errors.Wrapf(policy.ErrPolicyCompilation, "commitment of index %d has no recovery path", index)
	}

	outputKey, _ := taproot.TweakPublicKey(ownerPk, commitment.MerkleRoot[:])
	addr, err := w.adapter.TaprootAddress(outputKey)
	if err != nil {
		return nil, err
	}
	pkScript, err := w.adapter.PkScript(outputKey)
	if err != nil {
		return nil, err
	}

	kp, err := w.recovery.DeriveKeyPair(index)
	if err != nil {
		return nil, err
	}

	return &RecoverySpend{
		Index:       index,
		Amount:      amount,
		Address:     addr,
		PkScript:    pkScript,
		Commitment:  commitment,
		RecoveryKey: kp.PrivKey,
	}, nil
}

// hasRecoveryPath reports whether c carries a spendable recovery leaf under
// the owner key: leaf script, control block and staging template.
func hasRecoveryPath(c *policy.SpendCommitment, ownerPk *btcec.PublicKey) bool {
	return len(c.RecoveryLeaf.Script) > 0 &&
		c.Template != nil &&
		c.ControlBlock.InternalKey != nil &&
		c.ControlBlock.InternalKey.IsEqual(ownerPk)
}

// SignStagingTx 构建花费 prevOut 的 covenant 暂存交易并签名恢复叶子
// prevOut 的金额必须恰好等于 Amount
func (s *RecoverySpend) SignStagingTx(prevOut wire.OutPoint) (*wire.MsgTx, error) {
	tx := s.Commitment.StagingTx(prevOut)

	fetcher := txscript.NewCannedPrevOutputFetcher(s.PkScript, int64(s.Amount))
	sigHashes := txscript.NewTxSigHashes(tx, fetcher)

	sig, err := txscript.RawTxInTapscriptSignature(
		tx, sigHashes, 0, int64(s.Amount), s.PkScript,
		s.Commitment.RecoveryLeaf, txscript.SigHashDefault, s.RecoveryKey,
	)
	if err != nil {
		return nil, errors.Wrap(err, "failed to sign recovery leaf")
	}

	witness, err := s.Commitment.RecoveryWitness(sig)
	if err != nil {
		return nil, err
	}
	tx.TxIn[0].Witness = witness

	log.Info().
		Uint32("index", s.Index).
		Str("prev_out", prevOut.String()).
		Str("txid", tx.TxHash().String()).
		Msg("Signed recovery staging transaction")

	return tx, nil
}

// Zero 清除恢复私钥
func (s *RecoverySpend) Zero() {
	if s.RecoveryKey != nil {
		s.RecoveryKey.Zero()
	}
}

// Close 清除恢复私钥树，之后不可再使用该钱包
func (w *RecoveryWallet) Close() {
	w.recovery.Zero()
}
