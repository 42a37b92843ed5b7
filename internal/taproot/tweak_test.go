package taproot

import (
	"bytes"
	"testing"

	"github.com/btcsuite/btcd/btcec/v2"
	"github.com/btcsuite/btcd/btcec/v2/schnorr"
	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"
)

func TestTweakCommutes(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		keyBytes := rapid.SliceOfN(rapid.Byte(), 32, 32).Draw(t, "key")
		priv, _ := btcec.PrivKeyFromBytes(keyBytes)
		if priv.Key.IsZero() {
			t.Skip("zero scalar")
		}

		var root []byte
		if rapid.Bool().Draw(t, "scriptTree") {
			root = rapid.SliceOfN(rapid.Byte(), 32, 32).Draw(t, "root")
		}

		pub, parity := TweakPublicKey(priv.PubKey(), root)
		kp := TweakPrivateKey(priv, root)

		require.True(t, pub.IsEqual(kp.PubKey))
		require.Equal(t, parity, kp.Parity)
		require.Equal(t, XOnly(pub), XOnly(kp.PrivKey.PubKey()))
	})
}

func TestTweakSignsForOutputKey(t *testing.T) {
	priv, err := btcec.NewPrivateKey()
	require.NoError(t, err)
	root := chainhash.HashB([]byte("leaf"))

	pub, _ := TweakPublicKey(priv.PubKey(), root)
	kp := TweakPrivateKey(priv, root)

	msg := chainhash.HashB([]byte("message"))
	sig, err := schnorr.Sign(kp.PrivKey, msg)
	require.NoError(t, err)

	xonly, err := schnorr.ParsePubKey(XOnly(pub))
	require.NoError(t, err)
	assert.True(t, sig.Verify(msg, xonly))
}

func TestTweakDependsOnRoot(t *testing.T) {
	priv, err := btcec.NewPrivateKey()
	require.NoError(t, err)

	a, _ := TweakPublicKey(priv.PubKey(), bytes.Repeat([]byte{1}, 32))
	b, _ := TweakPublicKey(priv.PubKey(), bytes.Repeat([]byte{2}, 32))
	c, _ := TweakPublicKey(priv.PubKey(), nil)

	assert.False(t, a.IsEqual(b))
	assert.False(t, a.IsEqual(c))
	assert.False(t, a.IsEqual(priv.PubKey()))
}

func TestParity(t *testing.T) {
	assert.Equal(t, "even", Even.String())
	assert.Equal(t, "odd", Odd.String())

	for i := 0; i < 16; i++ {
		priv, err := btcec.NewPrivateKey()
		require.NoError(t, err)
		pub := priv.PubKey()

		want := Even
		if pub.Y().Bit(0) == 1 {
			want = Odd
		}
		assert.Equal(t, want, ParityOf(pub))
	}

	kp := TweakPrivateKey(mustKey(t), nil)
	kp.Zero()
	assert.True(t, kp.PrivKey.Key.IsZero())
}

func mustKey(t *testing.T) *btcec.PrivateKey {
	t.Helper()
	priv, err := btcec.NewPrivateKey()
	require.NoError(t, err)
	return priv
}
