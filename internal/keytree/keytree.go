// Package keytree derives the owner and recovery key trees of a wallet.
//
// Each tree is a BIP-32 master key built from a 32-byte seed. Addresses use
// the non-hardened children m/i of that master, so the recovery tree's public
// keys can be derived from its extended public key alone.
package keytree

import (
	"crypto/rand"
	"strconv"
	"strings"

	"github.com/btcsuite/btcd/btcec/v2"
	"github.com/btcsuite/btcd/btcutil/hdkeychain"
	"github.com/btcsuite/btcd/chaincfg"
	"github.com/kashguard/go-recovery-wallet/internal/util/memzero"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
)

// SeedSize is the length of a tree seed in bytes.
const SeedSize = 32

// MaxIndex is the first index outside the supported (non-hardened) range.
const MaxIndex = hdkeychain.HardenedKeyStart

var ErrInvalidIndex = errors.New("invalid derivation index")

// Seed is the root entropy of one key tree.
type Seed [SeedSize]byte

// NewSeed draws a fresh seed from crypto/rand.
func NewSeed() (Seed, error) {
	var seed Seed
	if _, err := rand.Read(seed[:]); err != nil {
		return Seed{}, errors.Wrap(err, "failed to read seed entropy")
	}
	return seed, nil
}

// Zero wipes the seed in place.
func (s *Seed) Zero() {
	memzero.Zero32((*[SeedSize]byte)(s))
}

// KeyPair is the key pair of a tree at one index.
type KeyPair struct {
	Index   uint32
	PrivKey *btcec.PrivateKey
	PubKey  *btcec.PublicKey
}

// Tree is the private BIP-32 master of one seed.
type Tree struct {
	master *hdkeychain.ExtendedKey
	net    *chaincfg.Params
}

// NewTree builds the master extended key for seed on net.
func NewTree(seed Seed, net *chaincfg.Params) (*Tree, error) {
	if net == nil {
		return nil, errors.New("network params are required")
	}

	master, err := hdkeychain.NewMaster(seed[:], net)
	if err != nil {
		return nil, errors.Wrap(err, "failed to create master key")
	}

	// fills the lazily cached public key, after this Derive only reads the
	// master and a Tree is safe for concurrent use
	if _, err := master.ECPubKey(); err != nil {
		return nil, errors.Wrap(err, "failed to compute master public key")
	}

	return &Tree{master: master, net: net}, nil
}

// PublicRoot returns the extended public key of the tree's master. The
// result owns its buffers and stays valid after Zero.
func (t *Tree) PublicRoot() (*hdkeychain.ExtendedKey, error) {
	xpub, err := t.master.Neuter()
	if err != nil {
		return nil, errors.Wrap(err, "failed to neuter master key")
	}

	// Neuter shares the chain code slice with the private master
	raw, err := EncodePublicRoot(xpub)
	if err != nil {
		return nil, err
	}
	return DecodePublicRoot(raw[:])
}

// DeriveKeyPair returns the key pair at m/index.
func (t *Tree) DeriveKeyPair(index uint32) (*KeyPair, error) {
	child, err := deriveChild(t.master, index)
	if err != nil {
		return nil, err
	}
	defer child.Zero()

	priv, err := child.ECPrivKey()
	if err != nil {
		return nil, errors.Wrap(err, "failed to extract private key")
	}

	return &KeyPair{
		Index:   index,
		PrivKey: priv,
		PubKey:  priv.PubKey(),
	}, nil
}

// DeriveRange calls fn with the key pair of every index in [start, end). Only
// one child is held at a time.
func (t *Tree) DeriveRange(start, end uint32, fn func(*KeyPair) error) error {
	if start > end {
		return errors.Errorf("invalid range: start %d > end %d", start, end)
	}
	if end > MaxIndex {
		return errors.Wrapf(ErrInvalidIndex, "range end %d exceeds %d", end, MaxIndex)
	}

	for index := start; index < end; index++ {
		kp, err := t.DeriveKeyPair(index)
		if err != nil {
			return err
		}
		if err := fn(kp); err != nil {
			return err
		}
	}
	return nil
}

// Zero wipes the tree's master key.
func (t *Tree) Zero() {
	t.master.Zero()
}

// DeriveKeyPair derives the key pair at m/index from a seed.
func DeriveKeyPair(seed Seed, index uint32, net *chaincfg.Params) (*KeyPair, error) {
	tree, err := NewTree(seed, net)
	if err != nil {
		return nil, err
	}
	defer tree.Zero()

	return tree.DeriveKeyPair(index)
}

// DerivePublic derives the public key at m/index from an extended key
// without touching private material. Private roots are neutered first.
func DerivePublic(root *hdkeychain.ExtendedKey, index uint32) (*btcec.PublicKey, error) {
	if root == nil {
		return nil, errors.New("root key is required")
	}

	if root.IsPrivate() {
		var err error
		root, err = root.Neuter()
		if err != nil {
			return nil, errors.Wrap(err, "failed to neuter root key")
		}
	}

	child, err := deriveChild(root, index)
	if err != nil {
		return nil, err
	}

	pub, err := child.ECPubKey()
	if err != nil {
		return nil, errors.Wrap(err, "failed to extract public key")
	}
	return pub, nil
}

func deriveChild(parent *hdkeychain.ExtendedKey, index uint32) (*hdkeychain.ExtendedKey, error) {
	if index >= MaxIndex {
		return nil, errors.Wrapf(ErrInvalidIndex, "index %d is outside [0, %d)", index, MaxIndex)
	}

	child, err := parent.Derive(index)
	if err != nil {
		// ErrInvalidChild has a probability below 2^-127 per index
		return nil, errors.Wrapf(err, "failed to derive child %d", index)
	}

	log.Debug().
		Uint32("index", index).
		Bool("private", parent.IsPrivate()).
		Uint8("depth", child.Depth()).
		Msg("Derived child key")

	return child, nil
}

// ParseIndex parses a single non-hardened index, accepting an optional
// "m/" prefix.
func ParseIndex(s string) (uint32, error) {
	s = strings.TrimPrefix(strings.TrimSpace(s), "m/")
	if strings.HasSuffix(s, "'") || strings.HasSuffix(s, "h") || strings.HasSuffix(s, "H") {
		return 0, errors.Wrapf(ErrInvalidIndex, "hardened index %q is not supported", s)
	}

	val, err := strconv.ParseUint(s, 10, 32)
	if err != nil {
		return 0, errors.Wrapf(err, "invalid index: %s", s)
	}
	if uint32(val) >= MaxIndex {
		return 0, errors.Wrapf(ErrInvalidIndex, "index %d is outside [0, %d)", val, MaxIndex)
	}
	return uint32(val), nil
}

// ParseIndexRange parses "a-b" (inclusive) or a single index "a".
// Example: "0-9" -> (0, 9)
func ParseIndexRange(s string) (uint32, uint32, error) {
	parts := strings.SplitN(s, "-", 2)
	start, err := ParseIndex(parts[0])
	if err != nil {
		return 0, 0, err
	}
	if len(parts) == 1 {
		return start, start, nil
	}

	end, err := ParseIndex(parts[1])
	if err != nil {
		return 0, 0, err
	}
	if end < start {
		return 0, 0, errors.Errorf("invalid range %q: end before start", s)
	}
	return start, end, nil
}
