// Package shamir implements K-of-N Shamir secret sharing of byte blobs over
// GF(256). Every byte of the secret is the constant term of its own random
// polynomial of degree K-1; share i holds the evaluations of all polynomials
// at x = i. Any K shares interpolate the secret back, K-1 shares reveal
// nothing about it.
//
// Interpolation does not detect an insufficient or corrupted share set: it
// silently yields different bytes. Callers must verify the result (see the
// backup package's sealed payload).
package shamir

import (
	"crypto/rand"
	"io"

	"github.com/kashguard/go-recovery-wallet/internal/util/memzero"
	"github.com/pkg/errors"
)

// MaxShares is the number of distinct non-zero x coordinates in GF(256).
const MaxShares = 255

var (
	ErrInvalidThreshold     = errors.New("invalid threshold")
	ErrReconstructionFailed = errors.New("reconstruction failed")
	ErrEmptySecret          = errors.New("secret is empty")
)

// Share is one point set of a split secret. Index is the x coordinate used
// for every byte, Data the corresponding y values.
type Share struct {
	Index uint8
	Data  []byte
}

// Split divides secret into total shares, any threshold of which recover it.
func Split(secret []byte, threshold, total int) ([]Share, error) {
	return SplitWithReader(rand.Reader, secret, threshold, total)
}

// SplitWithReader is Split with an explicit randomness source for the
// polynomial coefficients.
func SplitWithReader(random io.Reader, secret []byte, threshold, total int) ([]Share, error) {
	if err := ValidateThreshold(threshold, total); err != nil {
		return nil, err
	}
	if len(secret) == 0 {
		return nil, ErrEmptySecret
	}

	shares := make([]Share, total)
	for i := range shares {
		shares[i] = Share{
			Index: uint8(i + 1),
			Data:  make([]byte, len(secret)),
		}
	}

	coeffs := make([]byte, threshold)
	defer memzero.Zero(coeffs)

	for b, secretByte := range secret {
		coeffs[0] = secretByte
		if _, err := io.ReadFull(random, coeffs[1:]); err != nil {
			return nil, errors.Wrap(err, "failed to read polynomial coefficients")
		}
		for i := range shares {
			shares[i].Data[b] = evaluate(coeffs, shares[i].Index)
		}
	}

	return shares, nil
}

// ValidateThreshold checks 1 <= threshold <= total <= MaxShares.
func ValidateThreshold(threshold, total int) error {
	if threshold < 1 || threshold > total || total > MaxShares {
		return errors.Wrapf(ErrInvalidThreshold,
			"need 1 <= threshold (%d) <= total (%d) <= %d", threshold, total, MaxShares)
	}
	return nil
}

// Recover interpolates the secret at x = 0 from all given shares. Supplying
// more shares than the threshold is fine, every consistent subset of size
// >= K yields the same bytes. Supplying fewer yields garbage without error,
// the result has to be verified by the caller.
func Recover(shares []Share) ([]byte, error) {
	if len(shares) == 0 {
		return nil, errors.Wrap(ErrReconstructionFailed, "no shares given")
	}

	size := len(shares[0].Data)
	if size == 0 {
		return nil, errors.Wrap(ErrReconstructionFailed, "empty share data")
	}

	seen := make(map[uint8]struct{}, len(shares))
	for _, share := range shares {
		if share.Index == 0 {
			return nil, errors.Wrap(ErrReconstructionFailed, "share index 0 is invalid")
		}
		if _, ok := seen[share.Index]; ok {
			return nil, errors.Wrapf(ErrReconstructionFailed, "duplicate share index %d", share.Index)
		}
		seen[share.Index] = struct{}{}
		if len(share.Data) != size {
			return nil, errors.Wrapf(ErrReconstructionFailed,
				"share %d has %d bytes, expected %d", share.Index, len(share.Data), size)
		}
	}

	// Lagrange basis polynomials evaluated at 0:
	// l_i(0) = prod_{j != i} x_j / (x_j - x_i)
	basis := make([]byte, len(shares))
	for i := range shares {
		num, den := byte(1), byte(1)
		for j := range shares {
			if i == j {
				continue
			}
			num = gfMul(num, shares[j].Index)
			den = gfMul(den, gfAdd(shares[j].Index, shares[i].Index))
		}
		basis[i] = gfDiv(num, den)
	}

	secret := make([]byte, size)
	for b := 0; b < size; b++ {
		var acc byte
		for i := range shares {
			acc = gfAdd(acc, gfMul(basis[i], shares[i].Data[b]))
		}
		secret[b] = acc
	}

	return secret, nil
}
