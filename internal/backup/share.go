package backup

import (
	"crypto/subtle"
	"encoding/hex"
	"fmt"

	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"github.com/kashguard/go-recovery-wallet/internal/shamir"
	"github.com/kashguard/go-recovery-wallet/internal/util/memzero"
	"github.com/pkg/errors"
)

const (
	ChecksumSize = 4
	SealedSize   = ChecksumSize + RecoveryBackupSize
	ShareSize    = 1 + SealedSize
)

// RecoveryShare is one trustee's share of the sealed recovery backup.
type RecoveryShare struct {
	Index uint8
	Data  []byte
}

// Label is the human-facing title printed next to a share.
func (s RecoveryShare) Label(needed, total uint8) string {
	return fmt.Sprintf("Recovery Share #%d (requires %d-of-%d)", s.Index, needed, total)
}

func EncodeShare(s RecoveryShare) ([]byte, error) {
	if s.Index == 0 {
		return nil, errors.Wrap(ErrMalformedBackup, "share index 0 is invalid")
	}
	if len(s.Data) != SealedSize {
		return nil, errors.Wrapf(ErrMalformedBackup, "share data has %d bytes, expected %d", len(s.Data), SealedSize)
	}

	out := make([]byte, ShareSize)
	out[0] = s.Index
	copy(out[1:], s.Data)
	return out, nil
}

func DecodeShare(data []byte) (RecoveryShare, error) {
	if len(data) != ShareSize {
		return RecoveryShare{}, errors.Wrapf(ErrMalformedBackup, "share has %d bytes, expected %d", len(data), ShareSize)
	}
	if data[0] == 0 {
		return RecoveryShare{}, errors.Wrap(ErrMalformedBackup, "share index 0 is invalid")
	}

	s := RecoveryShare{Index: data[0], Data: make([]byte, SealedSize)}
	copy(s.Data, data[1:])
	return s, nil
}

func EncodeShareHex(s RecoveryShare) (string, error) {
	data, err := EncodeShare(s)
	if err != nil {
		return "", err
	}
	return hex.EncodeToString(data), nil
}

func DecodeShareHex(s string) (RecoveryShare, error) {
	data, err := decodeHex(s)
	if err != nil {
		return RecoveryShare{}, err
	}
	return DecodeShare(data)
}

// ToShamir converts shares for interpolation.
func ToShamir(shares []RecoveryShare) []shamir.Share {
	out := make([]shamir.Share, len(shares))
	for i, s := range shares {
		out[i] = shamir.Share(s)
	}
	return out
}

// FromShamir converts split output into recovery shares.
func FromShamir(shares []shamir.Share) []RecoveryShare {
	out := make([]RecoveryShare, len(shares))
	for i, s := range shares {
		out[i] = RecoveryShare(s)
	}
	return out
}

// SealRecoveryBackup prefixes the encoded backup with the first four bytes of
// its double SHA-256. The result is what gets split.
func SealRecoveryBackup(b *RecoveryBackup) ([]byte, error) {
	data, err := EncodeRecoveryBackup(b)
	if err != nil {
		return nil, err
	}
	defer memzero.Zero(data)

	sealed := make([]byte, SealedSize)
	copy(sealed, chainhash.DoubleHashB(data)[:ChecksumSize])
	copy(sealed[ChecksumSize:], data)
	return sealed, nil
}

// OpenRecoveryBackup verifies and decodes a sealed payload. Any mismatch is
// reported as shamir.ErrReconstructionFailed since it means the shares did not
// interpolate to the original bytes.
func OpenRecoveryBackup(sealed []byte) (*RecoveryBackup, error) {
	if len(sealed) != SealedSize {
		return nil, errors.Wrapf(shamir.ErrReconstructionFailed,
			"sealed payload has %d bytes, expected %d", len(sealed), SealedSize)
	}

	data := sealed[ChecksumSize:]
	sum := chainhash.DoubleHashB(data)
	if subtle.ConstantTimeCompare(sum[:ChecksumSize], sealed[:ChecksumSize]) != 1 {
		return nil, errors.Wrap(shamir.ErrReconstructionFailed, "checksum mismatch")
	}

	b, err := DecodeRecoveryBackup(data)
	if err != nil {
		return nil, errors.Wrapf(shamir.ErrReconstructionFailed, "structural check: %v", err)
	}
	return b, nil
}
