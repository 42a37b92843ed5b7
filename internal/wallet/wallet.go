// Package wallet ties the key trees, the backup codec, the policy engine and
// the taproot tweak together.
//
// The owner backup yields an OwnerWallet, which derives addresses and the
// tweaked key pairs behind them. The recovery backup is split among trustees
// and, once reconstructed from a quorum, yields a RecoveryWallet able to
// drive the delayed recovery path of the same addresses.
package wallet

import (
	"bytes"
	"runtime"

	"github.com/btcsuite/btcd/btcutil/hdkeychain"
	"github.com/btcsuite/btcd/chaincfg"
	"github.com/kashguard/go-recovery-wallet/internal/backup"
	"github.com/kashguard/go-recovery-wallet/internal/keytree"
	"github.com/kashguard/go-recovery-wallet/internal/policy"
	"github.com/kashguard/go-recovery-wallet/internal/shamir"
	"github.com/kashguard/go-recovery-wallet/internal/util/memzero"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
)

// Config 钱包配置，显式传入每个钱包，没有包级别的引擎或曲线上下文
type Config struct {
	Network *chaincfg.Params
	Policy  policy.Engine
	// Workers bounds ExportKeyPairs, defaults to GOMAXPROCS.
	Workers int
}

func (c Config) withDefaults() (Config, error) {
	if c.Network == nil {
		return c, errors.New("network params are required")
	}
	if c.Policy == nil {
		c.Policy = policy.NewTwoStepRecovery()
	}
	if c.Workers <= 0 {
		c.Workers = runtime.GOMAXPROCS(0)
	}
	return c, nil
}

// CreateWallet 创建钱包
// 生成两个独立种子，并把各自的公钥根交叉写入对方的备份
func CreateWallet(params backup.RecoveryParams, net *chaincfg.Params) (*backup.OwnerBackup, *backup.RecoveryBackup, error) {
	if err := params.Validate(); err != nil {
		return nil, nil, err
	}
	if net == nil {
		return nil, nil, errors.New("network params are required")
	}

	ownerSeed, err := keytree.NewSeed()
	if err != nil {
		return nil, nil, err
	}
	recoverySeed, err := keytree.NewSeed()
	if err != nil {
		ownerSeed.Zero()
		return nil, nil, err
	}
	if bytes.Equal(ownerSeed[:], recoverySeed[:]) {
		ownerSeed.Zero()
		recoverySeed.Zero()
		return nil, nil, errors.New("entropy source returned identical seeds")
	}

	ownerRoot, err := publicRoot(ownerSeed, net)
	if err != nil {
		return nil, nil, errors.Wrap(err, "owner tree")
	}
	recoveryRoot, err := publicRoot(recoverySeed, net)
	if err != nil {
		return nil, nil, errors.Wrap(err, "recovery tree")
	}

	log.Info().
		Str("network", net.Name).
		Uint8("total_shares", params.TotalShares).
		Uint8("needed_shares", params.NeededShares).
		Uint32("delay", params.Delay).
		Uint32("fee", params.Fee).
		Msg("Created wallet")

	return &backup.OwnerBackup{
			Params:       params,
			OwnerSeed:    ownerSeed,
			RecoveryRoot: recoveryRoot,
		}, &backup.RecoveryBackup{
			Params:       params,
			OwnerRoot:    ownerRoot,
			RecoverySeed: recoverySeed,
		}, nil
}

// SplitRecoveryBackup 封装恢复备份并拆分为 params.TotalShares 份
// 任意 params.NeededShares 份即可恢复
func SplitRecoveryBackup(rb *backup.RecoveryBackup) ([]backup.RecoveryShare, error) {
	if err := rb.Params.Validate(); err != nil {
		return nil, err
	}

	sealed, err := backup.SealRecoveryBackup(rb)
	if err != nil {
		return nil, errors.Wrap(err, "failed to seal recovery backup")
	}
	defer memzero.Zero(sealed)

	shares, err := shamir.Split(sealed, int(rb.Params.NeededShares), int(rb.Params.TotalShares))
	if err != nil {
		return nil, errors.Wrap(err, "failed to split recovery backup")
	}

	log.Info().
		Int("shares", len(shares)).
		Uint8("needed_shares", rb.Params.NeededShares).
		Msg("Split recovery backup")

	return backup.FromShamir(shares), nil
}

// RecoverFromShares 从分片重建恢复备份
// 仅当插值结果通过校验和、能解码为有效备份且分片数不少于记录的门限时返回结果
// 其余情况均返回 shamir.ErrReconstructionFailed
func RecoverFromShares(shares []backup.RecoveryShare) (*backup.RecoveryBackup, error) {
	sealed, err := shamir.Recover(backup.ToShamir(shares))
	if err != nil {
		return nil, err
	}
	defer memzero.Zero(sealed)

	rb, err := backup.OpenRecoveryBackup(sealed)
	if err != nil {
		log.Warn().Int("shares", len(shares)).Msg("Shares did not reconstruct a valid recovery backup")
		return nil, err
	}

	if len(shares) < int(rb.Params.NeededShares) {
		rb.Zero()
		return nil, errors.Wrapf(shamir.ErrReconstructionFailed,
			"insufficient shares: have %d, need at least %d", len(shares), rb.Params.NeededShares)
	}

	log.Info().
		Int("shares", len(shares)).
		Uint8("needed_shares", rb.Params.NeededShares).
		Msg("Recovered recovery backup")

	return rb, nil
}

func publicRoot(seed keytree.Seed, net *chaincfg.Params) (*hdkeychain.ExtendedKey, error) {
	tree, err := keytree.NewTree(seed, net)
	if err != nil {
		return nil, err
	}
	defer tree.Zero()

	return tree.PublicRoot()
}
