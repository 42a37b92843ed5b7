// Package backup holds the canonical binary layouts of the owner backup, the
// recovery backup and recovery shares, plus their hex transport form.
//
// All layouts are fixed-size and versionless, integers are big-endian:
//
//	params          N(1) K(1) delay(4) fee(4)                    10 bytes
//	owner backup    params(10) owner seed(32) recovery xpub(78)   120 bytes
//	recovery backup params(10) owner xpub(78) recovery seed(32)   120 bytes
//	share           x(1) y(124)                                   125 bytes
//
// Shares are split over the sealed recovery payload, checksum(4) followed by
// the encoded recovery backup.
package backup

import (
	"encoding/hex"
	"strings"

	"github.com/btcsuite/btcd/btcutil/hdkeychain"
	"github.com/kashguard/go-recovery-wallet/internal/keytree"
	"github.com/kashguard/go-recovery-wallet/internal/util/memzero"
	"github.com/pkg/errors"
)

const (
	OwnerBackupSize    = ParamsSize + keytree.SeedSize + keytree.PublicRootSize
	RecoveryBackupSize = ParamsSize + keytree.PublicRootSize + keytree.SeedSize
)

var ErrMalformedBackup = errors.New("malformed backup")

// OwnerBackup gives immediate control over every owner-tree address.
type OwnerBackup struct {
	Params       RecoveryParams
	OwnerSeed    keytree.Seed
	RecoveryRoot *hdkeychain.ExtendedKey
}

// RecoveryBackup is the secret that gets split among trustees.
type RecoveryBackup struct {
	Params       RecoveryParams
	OwnerRoot    *hdkeychain.ExtendedKey
	RecoverySeed keytree.Seed
}

// Zero wipes the owner seed.
func (b *OwnerBackup) Zero() {
	b.OwnerSeed.Zero()
}

// Zero wipes the recovery seed.
func (b *RecoveryBackup) Zero() {
	b.RecoverySeed.Zero()
}

func EncodeOwnerBackup(b *OwnerBackup) ([]byte, error) {
	root, err := keytree.EncodePublicRoot(b.RecoveryRoot)
	if err != nil {
		return nil, errors.Wrap(err, "failed to encode recovery root")
	}

	out := make([]byte, OwnerBackupSize)
	b.Params.encode(out[:ParamsSize])
	copy(out[ParamsSize:], b.OwnerSeed[:])
	copy(out[ParamsSize+keytree.SeedSize:], root[:])
	return out, nil
}

func DecodeOwnerBackup(data []byte) (*OwnerBackup, error) {
	if len(data) != OwnerBackupSize {
		return nil, errors.Wrapf(ErrMalformedBackup, "owner backup has %d bytes, expected %d", len(data), OwnerBackupSize)
	}

	params, err := decodeParams(data[:ParamsSize])
	if err != nil {
		return nil, err
	}

	root, err := keytree.DecodePublicRoot(data[ParamsSize+keytree.SeedSize:])
	if err != nil {
		return nil, errors.Wrapf(ErrMalformedBackup, "recovery root: %v", err)
	}

	b := &OwnerBackup{Params: params, RecoveryRoot: root}
	copy(b.OwnerSeed[:], data[ParamsSize:ParamsSize+keytree.SeedSize])
	return b, nil
}

func EncodeRecoveryBackup(b *RecoveryBackup) ([]byte, error) {
	root, err := keytree.EncodePublicRoot(b.OwnerRoot)
	if err != nil {
		return nil, errors.Wrap(err, "failed to encode owner root")
	}

	out := make([]byte, RecoveryBackupSize)
	b.Params.encode(out[:ParamsSize])
	copy(out[ParamsSize:], root[:])
	copy(out[ParamsSize+keytree.PublicRootSize:], b.RecoverySeed[:])
	return out, nil
}

func DecodeRecoveryBackup(data []byte) (*RecoveryBackup, error) {
	if len(data) != RecoveryBackupSize {
		return nil, errors.Wrapf(ErrMalformedBackup, "recovery backup has %d bytes, expected %d", len(data), RecoveryBackupSize)
	}

	params, err := decodeParams(data[:ParamsSize])
	if err != nil {
		return nil, err
	}

	root, err := keytree.DecodePublicRoot(data[ParamsSize : ParamsSize+keytree.PublicRootSize])
	if err != nil {
		return nil, errors.Wrapf(ErrMalformedBackup, "owner root: %v", err)
	}

	b := &RecoveryBackup{Params: params, OwnerRoot: root}
	copy(b.RecoverySeed[:], data[ParamsSize+keytree.PublicRootSize:])
	return b, nil
}

func EncodeOwnerBackupHex(b *OwnerBackup) (string, error) {
	data, err := EncodeOwnerBackup(b)
	if err != nil {
		return "", err
	}
	defer memzero.Zero(data)
	return hex.EncodeToString(data), nil
}

func DecodeOwnerBackupHex(s string) (*OwnerBackup, error) {
	data, err := decodeHex(s)
	if err != nil {
		return nil, err
	}
	defer memzero.Zero(data)
	return DecodeOwnerBackup(data)
}

func EncodeRecoveryBackupHex(b *RecoveryBackup) (string, error) {
	data, err := EncodeRecoveryBackup(b)
	if err != nil {
		return "", err
	}
	defer memzero.Zero(data)
	return hex.EncodeToString(data), nil
}

func DecodeRecoveryBackupHex(s string) (*RecoveryBackup, error) {
	data, err := decodeHex(s)
	if err != nil {
		return nil, err
	}
	defer memzero.Zero(data)
	return DecodeRecoveryBackup(data)
}

// decodeHex accepts surrounding whitespace, as pasted by trustees.
func decodeHex(s string) ([]byte, error) {
	data, err := hex.DecodeString(strings.TrimSpace(s))
	if err != nil {
		return nil, errors.Wrapf(ErrMalformedBackup, "bad hex: %v", err)
	}
	return data, nil
}
