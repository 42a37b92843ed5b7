package chain

import (
	"encoding/hex"
	"strings"
	"testing"

	"github.com/btcsuite/btcd/btcec/v2"
	"github.com/btcsuite/btcd/btcec/v2/schnorr"
	"github.com/btcsuite/btcd/btcutil"
	"github.com/btcsuite/btcd/chaincfg"
	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"github.com/btcsuite/btcd/txscript"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNetworkParams(t *testing.T) {
	expected := map[string]*chaincfg.Params{
		"mainnet":   &chaincfg.MainNetParams,
		"testnet3":  &chaincfg.TestNet3Params,
		"signet":    &chaincfg.SigNetParams,
		"regtest":   &chaincfg.RegressionNetParams,
		"simnet":    &chaincfg.SimNetParams,
		" Signet\n": &chaincfg.SigNetParams,
	}
	for name, want := range expected {
		got, err := NetworkParams(name)
		require.NoError(t, err, name)
		assert.Equal(t, want.Name, got.Name, name)
	}

	for _, name := range NetworkNames {
		_, err := NetworkParams(name)
		assert.NoError(t, err, name)
	}

	_, err := NetworkParams("dogecoin")
	assert.True(t, errors.Is(err, ErrUnknownNetwork))
}

func TestTaprootAddressBIP86(t *testing.T) {
	// first receive address of the BIP-86 test mnemonic
	outputKey, err := hex.DecodeString("a60869f0dbcf1dc659c9cecbaf8050135ea9e8cdc487053f1dc6880949dc684c")
	require.NoError(t, err)
	pub, err := schnorr.ParsePubKey(outputKey)
	require.NoError(t, err)

	addr, err := NewBitcoinAdapter(nil).TaprootAddress(pub)
	require.NoError(t, err)
	assert.Equal(t, "bc1p5cyxnuxmeuwuvkwfem96lqzszd02n6xdcjrs20cac6yqjjwudpxqkedrcr", addr.EncodeAddress())

	script, err := NewBitcoinAdapter(nil).PkScript(pub)
	require.NoError(t, err)
	assert.Equal(t, "5120"+hex.EncodeToString(outputKey), hex.EncodeToString(script))
}

func TestTaprootAddressPerNetwork(t *testing.T) {
	priv, _ := btcec.PrivKeyFromBytes(chainhash.HashB([]byte("address")))

	prefixes := map[*chaincfg.Params]string{
		&chaincfg.MainNetParams:       "bc1p",
		&chaincfg.TestNet3Params:      "tb1p",
		&chaincfg.SigNetParams:        "tb1p",
		&chaincfg.RegressionNetParams: "bcrt1p",
		&chaincfg.SimNetParams:        "sb1p",
	}
	for params, prefix := range prefixes {
		adapter := NewBitcoinAdapter(params)
		addr, err := adapter.TaprootAddress(priv.PubKey())
		require.NoError(t, err, params.Name)
		assert.True(t, strings.HasPrefix(addr.String(), prefix), "%s: %s", params.Name, addr)
		assert.True(t, addr.IsForNet(params))

		decoded, err := btcutil.DecodeAddress(addr.String(), params)
		require.NoError(t, err)
		script, err := txscript.PayToAddrScript(decoded)
		require.NoError(t, err)
		want, err := adapter.PkScript(priv.PubKey())
		require.NoError(t, err)
		assert.Equal(t, want, script)
	}

	_, err := NewBitcoinAdapter(nil).TaprootAddress(nil)
	assert.Error(t, err)
}

func TestWIF(t *testing.T) {
	priv, _ := btcec.PrivKeyFromBytes(chainhash.HashB([]byte("wif")))

	for _, params := range []*chaincfg.Params{&chaincfg.MainNetParams, &chaincfg.TestNet3Params} {
		wif, err := NewBitcoinAdapter(params).WIF(priv)
		require.NoError(t, err)
		assert.True(t, wif.CompressPubKey)

		decoded, err := btcutil.DecodeWIF(wif.String())
		require.NoError(t, err)
		assert.True(t, decoded.IsForNet(params))
		assert.Equal(t, priv.Serialize(), decoded.PrivKey.Serialize())
	}
}

func TestDescriptorChecksum(t *testing.T) {
	sum, err := DescriptorChecksum("raw(deadbeef)")
	require.NoError(t, err)
	assert.Equal(t, "89f8spxm", sum)

	desc, err := AddDescriptorChecksum("raw(deadbeef)")
	require.NoError(t, err)
	assert.Equal(t, "raw(deadbeef)#89f8spxm", desc)

	other, err := DescriptorChecksum("raw(deadbeee)")
	require.NoError(t, err)
	assert.NotEqual(t, sum, other)

	_, err = DescriptorChecksum("raw(é)")
	assert.Error(t, err)
}

func TestRawTrDescriptor(t *testing.T) {
	priv, _ := btcec.PrivKeyFromBytes(chainhash.HashB([]byte("rawtr")))
	adapter := NewBitcoinAdapter(&chaincfg.SigNetParams)

	desc, err := adapter.RawTrDescriptor(priv)
	require.NoError(t, err)

	wif, err := adapter.WIF(priv)
	require.NoError(t, err)

	body, sum, found := strings.Cut(desc, "#")
	require.True(t, found)
	assert.Equal(t, "rawtr("+wif.String()+")", body)
	assert.Len(t, sum, 8)

	want, err := DescriptorChecksum(body)
	require.NoError(t, err)
	assert.Equal(t, want, sum)
}
