// Package taproot applies the BIP-341 output key tweak to public and private
// keys.
package taproot

import (
	"github.com/btcsuite/btcd/btcec/v2"
	"github.com/btcsuite/btcd/btcec/v2/schnorr"
	"github.com/btcsuite/btcd/txscript"
	"github.com/decred/dcrd/dcrec/secp256k1/v4"
)

// Parity is the y-coordinate parity of a tweaked output key. It goes into
// the first byte of a script path control block.
type Parity uint8

const (
	Even Parity = 0
	Odd  Parity = 1
)

func (p Parity) String() string {
	if p == Odd {
		return "odd"
	}
	return "even"
}

// ParityOf reads the parity from the compressed encoding of pub.
func ParityOf(pub *btcec.PublicKey) Parity {
	if pub.SerializeCompressed()[0] == secp256k1.PubKeyFormatCompressedOdd {
		return Odd
	}
	return Even
}

// KeyPair is a tweaked private key with its public projection.
type KeyPair struct {
	PrivKey *btcec.PrivateKey
	PubKey  *btcec.PublicKey
	Parity  Parity
}

// TweakPublicKey computes Q = lift_x(P) + t*G with
// t = tagged_hash("TapTweak", x(P) || merkleRoot). An empty merkleRoot gives
// the key path only tweak.
func TweakPublicKey(base *btcec.PublicKey, merkleRoot []byte) (*btcec.PublicKey, Parity) {
	out := txscript.ComputeTaprootOutputKey(base, merkleRoot)
	return out, ParityOf(out)
}

// TweakPrivateKey returns the private key whose public key is exactly the
// output of TweakPublicKey for base.PubKey(). The base is negated first when
// its public key has odd y.
func TweakPrivateKey(base *btcec.PrivateKey, merkleRoot []byte) *KeyPair {
	priv := txscript.TweakTaprootPrivKey(*base, merkleRoot)
	pub := priv.PubKey()
	return &KeyPair{
		PrivKey: priv,
		PubKey:  pub,
		Parity:  ParityOf(pub),
	}
}

// XOnly is the 32-byte BIP-340 encoding of pub.
func XOnly(pub *btcec.PublicKey) []byte {
	return schnorr.SerializePubKey(pub)
}

// Zero wipes the tweaked private key.
func (kp *KeyPair) Zero() {
	if kp.PrivKey != nil {
		kp.PrivKey.Zero()
	}
}
