package wallet

import (
	"encoding/hex"

	"github.com/btcsuite/btcd/btcec/v2"
	"github.com/btcsuite/btcd/btcutil"
	"github.com/btcsuite/btcd/btcutil/hdkeychain"
	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"github.com/kashguard/go-recovery-wallet/internal/backup"
	"github.com/kashguard/go-recovery-wallet/internal/chain"
	"github.com/kashguard/go-recovery-wallet/internal/keytree"
	"github.com/kashguard/go-recovery-wallet/internal/policy"
	"github.com/kashguard/go-recovery-wallet/internal/taproot"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
)

// addressBook derives the public side of every address from the two public
// roots. Both wallet kinds embed it, so they agree on every address.
type addressBook struct {
	params       backup.RecoveryParams
	cfg          Config
	adapter      *chain.BitcoinAdapter
	ownerRoot    *hdkeychain.ExtendedKey
	recoveryRoot *hdkeychain.ExtendedKey
	walletID     string
}

func newAddressBook(params backup.RecoveryParams, cfg Config, ownerRoot, recoveryRoot *hdkeychain.ExtendedKey) (*addressBook, error) {
	cfg, err := cfg.withDefaults()
	if err != nil {
		return nil, err
	}
	if err := params.Validate(); err != nil {
		return nil, err
	}

	for name, root := range map[string]*hdkeychain.ExtendedKey{"owner": ownerRoot, "recovery": recoveryRoot} {
		if root == nil {
			return nil, errors.Errorf("%s root is required", name)
		}
		if root.IsPrivate() {
			return nil, errors.Errorf("%s root must be public", name)
		}
		if !root.IsForNet(cfg.Network) {
			return nil, errors.Wrapf(backup.ErrMalformedBackup, "%s root is not for network %s", name, cfg.Network.Name)
		}
	}

	encoded, err := keytree.EncodePublicRoot(ownerRoot)
	if err != nil {
		return nil, err
	}

	return &addressBook{
		params:       params,
		cfg:          cfg,
		adapter:      chain.NewBitcoinAdapter(cfg.Network),
		ownerRoot:    ownerRoot,
		recoveryRoot: recoveryRoot,
		walletID:     hex.EncodeToString(chainhash.DoubleHashB(encoded[:])[:8]),
	}, nil
}

// WalletID 钱包标识，由 owner 公钥根派生，owner 端与恢复端一致
func (b *addressBook) WalletID() string {
	return b.walletID
}

// Params 返回两份备份共享的恢复参数
func (b *addressBook) Params() backup.RecoveryParams {
	return b.params
}

// Adapter 返回钱包使用的网络适配器
func (b *addressBook) Adapter() *chain.BitcoinAdapter {
	return b.adapter
}

// AddressKeys 仅从公钥根派生 index 处的 owner 公钥和恢复公钥
func (b *addressBook) AddressKeys(index uint32) (*btcec.PublicKey, *btcec.PublicKey, error) {
	ownerPk, err := keytree.DerivePublic(b.ownerRoot, index)
	if err != nil {
		return nil, nil, errors.Wrap(err, "owner key")
	}
	recoveryPk, err := keytree.DerivePublic(b.recoveryRoot, index)
	if err != nil {
		return nil, nil, errors.Wrap(err, "recovery key")
	}
	return ownerPk, recoveryPk, nil
}

// CompileSpendInfo 编译 (index, amount) 地址的花费策略
func (b *addressBook) CompileSpendInfo(index uint32, amount btcutil.Amount) (*policy.SpendCommitment, error) {
	_, commitment, err := b.compile(index, amount)
	return commitment, err
}

// compile runs the engine on the keys at index and returns the owner key
// together with the commitment. The engine only contributes the Merkle root
// to the address; an internal key it reports must be the owner key.
func (b *addressBook) compile(index uint32, amount btcutil.Amount) (*btcec.PublicKey, *policy.SpendCommitment, error) {
	ownerPk, recoveryPk, err := b.AddressKeys(index)
	if err != nil {
		return nil, nil, err
	}

	commitment, err := b.cfg.Policy.Compile(ownerPk, recoveryPk, b.params.Delay, amount, btcutil.Amount(b.params.Fee))
	if err != nil {
		return nil, nil, errors.Wrapf(err, "index %d amount %d", index, amount)
	}
	if commitment == nil {
		return nil, nil, errors.Wrapf(policy.ErrPolicyCompilation, "no commitment for index %d amount %d", index, amount)
	}
	if commitment.InternalKey != nil && !commitment.InternalKey.IsEqual(ownerPk) {
		log.Warn().Uint32("index", index).Msg("Policy engine returned a foreign internal key")
		return nil, nil, errors.Wrapf(policy.ErrPolicyCompilation, "internal key of index %d is not the owner key", index)
	}

	return ownerPk, commitment, nil
}

// OutputKey 用 amount 对应的承诺 tweak index 处的 owner 公钥
func (b *addressBook) OutputKey(index uint32, amount btcutil.Amount) (*btcec.PublicKey, taproot.Parity, error) {
	ownerPk, commitment, err := b.compile(index, amount)
	if err != nil {
		return nil, taproot.Even, err
	}

	outputKey, parity := taproot.TweakPublicKey(ownerPk, commitment.MerkleRoot[:])
	return outputKey, parity, nil
}

// OutputAddress 返回 (index, amount) 的 P2TR 地址
// 同一 index 不同金额对应不同地址
func (b *addressBook) OutputAddress(index uint32, amount btcutil.Amount) (btcutil.Address, error) {
	outputKey, _, err := b.OutputKey(index, amount)
	if err != nil {
		return nil, err
	}

	addr, err := b.adapter.TaprootAddress(outputKey)
	if err != nil {
		return nil, err
	}

	log.Debug().
		Uint32("index", index).
		Int64("amount", int64(amount)).
		Str("address", addr.String()).
		Msg("Derived output address")

	return addr, nil
}
