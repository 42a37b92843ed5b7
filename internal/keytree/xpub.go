package keytree

import (
	"bytes"
	"encoding/binary"

	"github.com/btcsuite/btcd/btcec/v2"
	"github.com/btcsuite/btcd/btcutil/hdkeychain"
	"github.com/btcsuite/btcd/chaincfg"
	"github.com/pkg/errors"
)

// PublicRootSize is the BIP-32 serialization length without the base58
// checksum: version(4) depth(1) parent(4) child(4) chaincode(32) key(33).
const PublicRootSize = 78

var ErrInvalidPublicRoot = errors.New("invalid public root")

// publicVersions lists the xpub version bytes of every supported network.
var publicVersions = [][4]byte{
	chaincfg.MainNetParams.HDPublicKeyID,
	chaincfg.TestNet3Params.HDPublicKeyID,
	chaincfg.SigNetParams.HDPublicKeyID,
	chaincfg.RegressionNetParams.HDPublicKeyID,
	chaincfg.SimNetParams.HDPublicKeyID,
}

// EncodePublicRoot serializes an extended public key into its fixed 78-byte
// layout.
func EncodePublicRoot(xpub *hdkeychain.ExtendedKey) ([PublicRootSize]byte, error) {
	var out [PublicRootSize]byte
	if xpub == nil {
		return out, errors.Wrap(ErrInvalidPublicRoot, "nil key")
	}
	if xpub.IsPrivate() {
		return out, errors.Wrap(ErrInvalidPublicRoot, "refusing to encode a private key")
	}

	pub, err := xpub.ECPubKey()
	if err != nil {
		return out, errors.Wrap(err, "failed to extract public key")
	}

	copy(out[0:4], xpub.Version())
	out[4] = xpub.Depth()
	binary.BigEndian.PutUint32(out[5:9], xpub.ParentFingerprint())
	binary.BigEndian.PutUint32(out[9:13], xpub.ChildIndex())
	copy(out[13:45], xpub.ChainCode())
	copy(out[45:78], pub.SerializeCompressed())

	return out, nil
}

// DecodePublicRoot parses the 78-byte layout produced by EncodePublicRoot.
func DecodePublicRoot(b []byte) (*hdkeychain.ExtendedKey, error) {
	if len(b) != PublicRootSize {
		return nil, errors.Wrapf(ErrInvalidPublicRoot, "length %d, expected %d", len(b), PublicRootSize)
	}

	version := b[0:4]
	known := false
	for _, v := range publicVersions {
		if bytes.Equal(version, v[:]) {
			known = true
			break
		}
	}
	if !known {
		return nil, errors.Wrapf(ErrInvalidPublicRoot, "unknown version %x", version)
	}

	keyData := b[45:78]
	if _, err := btcec.ParsePubKey(keyData); err != nil {
		return nil, errors.Wrapf(ErrInvalidPublicRoot, "bad public key: %v", err)
	}

	depth := b[4]
	parentFP := b[5:9]
	childNum := binary.BigEndian.Uint32(b[9:13])
	if depth == 0 && (childNum != 0 || !bytes.Equal(parentFP, []byte{0, 0, 0, 0})) {
		return nil, errors.Wrap(ErrInvalidPublicRoot, "master key with parent data")
	}

	return hdkeychain.NewExtendedKey(
		dup(version), dup(keyData), dup(b[13:45]), dup(parentFP), depth, childNum, false,
	), nil
}

func dup(b []byte) []byte {
	out := make([]byte, len(b))
	copy(out, b)
	return out
}
