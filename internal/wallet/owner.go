package wallet

import (
	"context"

	"github.com/btcsuite/btcd/btcutil"
	"github.com/kashguard/go-recovery-wallet/internal/backup"
	"github.com/kashguard/go-recovery-wallet/internal/keytree"
	"github.com/kashguard/go-recovery-wallet/internal/taproot"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"
)

// OwnerWallet owner 钱包，由 owner 备份构建
// 派生所有地址，并持有通过 key path 花费所需的私钥树
type OwnerWallet struct {
	*addressBook
	owner *keytree.Tree
}

// MaxExportKeys 单次导出的密钥数量上限
const MaxExportKeys = 1 << 16

var ErrExportTooLarge = errors.New("export too large")

// ExportedKey 一次导出中的一个 tweak 后密钥对
type ExportedKey struct {
	Index      uint32
	Amount     btcutil.Amount
	Address    btcutil.Address
	KeyPair    *taproot.KeyPair
	WIF        string
	Descriptor string
}

func NewOwnerWallet(ob *backup.OwnerBackup, cfg Config) (*OwnerWallet, error) {
	if ob == nil {
		return nil, errors.New("owner backup is required")
	}
	if cfg.Network == nil {
		return nil, errors.New("network params are required")
	}

	owner, err := keytree.NewTree(ob.OwnerSeed, cfg.Network)
	if err != nil {
		return nil, errors.Wrap(err, "owner tree")
	}
	ownerRoot, err := owner.PublicRoot()
	if err != nil {
		owner.Zero()
		return nil, err
	}

	book, err := newAddressBook(ob.Params, cfg, ownerRoot, ob.RecoveryRoot)
	if err != nil {
		owner.Zero()
		return nil, err
	}

	return &OwnerWallet{addressBook: book, owner: owner}, nil
}

// TweakedKeyPair 返回通过 key path 花费 (index, amount) 地址的密钥对
func (w *OwnerWallet) TweakedKeyPair(index uint32, amount btcutil.Amount) (*taproot.KeyPair, error) {
	ownerPk, commitment, err := w.compile(index, amount)
	if err != nil {
		return nil, err
	}

	base, err := w.owner.DeriveKeyPair(index)
	if err != nil {
		return nil, err
	}
	defer base.PrivKey.Zero()

	if !base.PubKey.IsEqual(ownerPk) {
		return nil, errors.Errorf("owner key at index %d does not match the public root", index)
	}

	return taproot.TweakPrivateKey(base.PrivKey, commitment.MerkleRoot[:]), nil
}

// ExportKeyPairs 导出 [start, end] 内每个 index、每个金额的 tweak 后密钥对
// 由 cfg.Workers 个 goroutine 并行计算，结果按 index 排序，同一 index 内按 amounts 顺序
func (w *OwnerWallet) ExportKeyPairs(ctx context.Context, start, end uint32, amounts []btcutil.Amount) ([]ExportedKey, error) {
	if start > end {
		return nil, errors.Errorf("invalid range: start %d > end %d", start, end)
	}
	if end >= keytree.MaxIndex {
		return nil, errors.Wrapf(keytree.ErrInvalidIndex, "index %d is outside [0, %d)", end, keytree.MaxIndex)
	}
	if len(amounts) == 0 {
		return nil, errors.New("at least one amount is required")
	}

	count := (uint64(end-start) + 1) * uint64(len(amounts))
	if count > MaxExportKeys {
		return nil, errors.Wrapf(ErrExportTooLarge, "%d keys requested, at most %d per run", count, MaxExportKeys)
	}
	results := make([]ExportedKey, count)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(w.cfg.Workers)

	for i := uint64(0); i < count; i++ {
		if gctx.Err() != nil {
			break
		}

		pos := i
		index := start + uint32(pos/uint64(len(amounts)))
		amount := amounts[pos%uint64(len(amounts))]

		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			exported, err := w.export(index, amount)
			if err != nil {
				return err
			}
			results[pos] = *exported
			return nil
		})
	}

	err := g.Wait()
	if err == nil {
		// the loop stops early without an error when ctx is canceled
		err = ctx.Err()
	}
	if err != nil {
		for i := range results {
			results[i].zero()
		}
		return nil, err
	}

	log.Info().
		Uint32("start", start).
		Uint32("end", end).
		Int("amounts", len(amounts)).
		Int("keys", len(results)).
		Msg("Exported tweaked key pairs")

	return results, nil
}

func (w *OwnerWallet) export(index uint32, amount btcutil.Amount) (*ExportedKey, error) {
	kp, err := w.TweakedKeyPair(index, amount)
	if err != nil {
		return nil, err
	}

	addr, err := w.adapter.TaprootAddress(kp.PubKey)
	if err != nil {
		return nil, err
	}
	wif, err := w.adapter.WIF(kp.PrivKey)
	if err != nil {
		return nil, err
	}
	desc, err := w.adapter.RawTrDescriptor(kp.PrivKey)
	if err != nil {
		return nil, err
	}

	return &ExportedKey{
		Index:      index,
		Amount:     amount,
		Address:    addr,
		KeyPair:    kp,
		WIF:        wif.String(),
		Descriptor: desc,
	}, nil
}

func (k *ExportedKey) zero() {
	if k.KeyPair != nil {
		k.KeyPair.Zero()
	}
}

// Close 清除 owner 私钥树，之后不可再使用该钱包
func (w *OwnerWallet) Close() {
	w.owner.Zero()
}
