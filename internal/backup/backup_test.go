package backup

import (
	"strings"
	"testing"

	"github.com/btcsuite/btcd/btcutil/hdkeychain"
	"github.com/btcsuite/btcd/chaincfg"
	"github.com/kashguard/go-recovery-wallet/internal/keytree"
	"github.com/kashguard/go-recovery-wallet/internal/shamir"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testParams = RecoveryParams{TotalShares: 7, NeededShares: 5, Delay: 100, Fee: 250}

func testRoot(t *testing.T, fill byte) *hdkeychain.ExtendedKey {
	t.Helper()

	var seed keytree.Seed
	for i := range seed {
		seed[i] = fill ^ byte(i)
	}
	tree, err := keytree.NewTree(seed, &chaincfg.RegressionNetParams)
	require.NoError(t, err)
	root, err := tree.PublicRoot()
	require.NoError(t, err)
	return root
}

func testBackups(t *testing.T) (*OwnerBackup, *RecoveryBackup) {
	t.Helper()

	ob := &OwnerBackup{Params: testParams, RecoveryRoot: testRoot(t, 0xbb)}
	rb := &RecoveryBackup{Params: testParams, OwnerRoot: testRoot(t, 0xaa)}
	for i := range ob.OwnerSeed {
		ob.OwnerSeed[i] = 0xaa ^ byte(i)
		rb.RecoverySeed[i] = 0xbb ^ byte(i)
	}
	return ob, rb
}

func TestParamsValidate(t *testing.T) {
	assert.NoError(t, testParams.Validate())
	assert.NoError(t, RecoveryParams{TotalShares: 1, NeededShares: 1, Delay: 1}.Validate())
	assert.NoError(t, RecoveryParams{TotalShares: 255, NeededShares: 255, Delay: 1}.Validate())

	err := RecoveryParams{TotalShares: 3, NeededShares: 4, Delay: 100}.Validate()
	assert.True(t, errors.Is(err, shamir.ErrInvalidThreshold))

	err = RecoveryParams{TotalShares: 3, NeededShares: 0, Delay: 100}.Validate()
	assert.True(t, errors.Is(err, shamir.ErrInvalidThreshold))

	err = RecoveryParams{TotalShares: 3, NeededShares: 2, Delay: 0}.Validate()
	assert.True(t, errors.Is(err, ErrInvalidParams))

	err = RecoveryParams{TotalShares: 3, NeededShares: 2, Delay: 1 << 31}.Validate()
	assert.True(t, errors.Is(err, ErrInvalidParams))
}

func TestOwnerBackupRoundTrip(t *testing.T) {
	ob, _ := testBackups(t)

	data, err := EncodeOwnerBackup(ob)
	require.NoError(t, err)
	require.Len(t, data, 120)
	assert.Equal(t, []byte{7, 5, 0, 0, 0, 100, 0, 0, 0, 250}, data[:10])

	decoded, err := DecodeOwnerBackup(data)
	require.NoError(t, err)
	assert.Equal(t, ob.Params, decoded.Params)
	assert.Equal(t, ob.OwnerSeed, decoded.OwnerSeed)
	assert.Equal(t, ob.RecoveryRoot.String(), decoded.RecoveryRoot.String())

	s, err := EncodeOwnerBackupHex(ob)
	require.NoError(t, err)
	assert.Len(t, s, 240)

	fromHex, err := DecodeOwnerBackupHex("  " + strings.ToUpper(s) + "\n")
	require.NoError(t, err)
	assert.Equal(t, ob.OwnerSeed, fromHex.OwnerSeed)
}

func TestRecoveryBackupRoundTrip(t *testing.T) {
	_, rb := testBackups(t)

	data, err := EncodeRecoveryBackup(rb)
	require.NoError(t, err)
	require.Len(t, data, 120)

	decoded, err := DecodeRecoveryBackup(data)
	require.NoError(t, err)
	assert.Equal(t, rb.Params, decoded.Params)
	assert.Equal(t, rb.RecoverySeed, decoded.RecoverySeed)
	assert.Equal(t, rb.OwnerRoot.String(), decoded.OwnerRoot.String())

	s, err := EncodeRecoveryBackupHex(rb)
	require.NoError(t, err)
	fromHex, err := DecodeRecoveryBackupHex(s)
	require.NoError(t, err)
	assert.Equal(t, rb.RecoverySeed, fromHex.RecoverySeed)
}

func TestDecodeMalformed(t *testing.T) {
	ob, rb := testBackups(t)
	owner, err := EncodeOwnerBackup(ob)
	require.NoError(t, err)
	recovery, err := EncodeRecoveryBackup(rb)
	require.NoError(t, err)

	// every truncation must fail cleanly
	for n := 0; n < len(owner); n++ {
		_, err := DecodeOwnerBackup(owner[:n])
		require.True(t, errors.Is(err, ErrMalformedBackup), "owner[:%d]", n)
		_, err = DecodeRecoveryBackup(recovery[:n])
		require.True(t, errors.Is(err, ErrMalformedBackup), "recovery[:%d]", n)
	}

	_, err = DecodeOwnerBackup(append(owner, 0))
	assert.True(t, errors.Is(err, ErrMalformedBackup))

	badParams := append([]byte(nil), owner...)
	badParams[1] = 9 // K > N
	_, err = DecodeOwnerBackup(badParams)
	assert.True(t, errors.Is(err, ErrMalformedBackup))

	badRoot := append([]byte(nil), recovery...)
	badRoot[ParamsSize] ^= 0xff
	_, err = DecodeRecoveryBackup(badRoot)
	assert.True(t, errors.Is(err, ErrMalformedBackup))

	_, err = DecodeOwnerBackupHex("zz")
	assert.True(t, errors.Is(err, ErrMalformedBackup))
	_, err = DecodeRecoveryBackupHex("abc")
	assert.True(t, errors.Is(err, ErrMalformedBackup))
	_, err = DecodeShareHex("")
	assert.True(t, errors.Is(err, ErrMalformedBackup))
}

func TestShareRoundTrip(t *testing.T) {
	data := make([]byte, SealedSize)
	for i := range data {
		data[i] = byte(i * 7)
	}
	share := RecoveryShare{Index: 3, Data: data}

	raw, err := EncodeShare(share)
	require.NoError(t, err)
	require.Len(t, raw, 125)
	assert.Equal(t, byte(3), raw[0])

	decoded, err := DecodeShare(raw)
	require.NoError(t, err)
	assert.Equal(t, share, decoded)

	s, err := EncodeShareHex(share)
	require.NoError(t, err)
	fromHex, err := DecodeShareHex(s)
	require.NoError(t, err)
	assert.Equal(t, share, fromHex)

	assert.Equal(t, "Recovery Share #3 (requires 5-of-7)", share.Label(5, 7))

	raw[0] = 0
	_, err = DecodeShare(raw)
	assert.True(t, errors.Is(err, ErrMalformedBackup))

	_, err = EncodeShare(RecoveryShare{Index: 0, Data: data})
	assert.True(t, errors.Is(err, ErrMalformedBackup))
	_, err = EncodeShare(RecoveryShare{Index: 1, Data: data[:10]})
	assert.True(t, errors.Is(err, ErrMalformedBackup))
}

func TestSealOpen(t *testing.T) {
	_, rb := testBackups(t)

	sealed, err := SealRecoveryBackup(rb)
	require.NoError(t, err)
	require.Len(t, sealed, SealedSize)

	opened, err := OpenRecoveryBackup(sealed)
	require.NoError(t, err)
	assert.Equal(t, rb.RecoverySeed, opened.RecoverySeed)

	for i := range sealed {
		tampered := append([]byte(nil), sealed...)
		tampered[i] ^= 0x01
		_, err := OpenRecoveryBackup(tampered)
		require.True(t, errors.Is(err, shamir.ErrReconstructionFailed), "byte %d", i)
	}

	_, err = OpenRecoveryBackup(sealed[1:])
	assert.True(t, errors.Is(err, shamir.ErrReconstructionFailed))
}

func TestShamirConversion(t *testing.T) {
	in := []RecoveryShare{{Index: 1, Data: []byte{1}}, {Index: 9, Data: []byte{2}}}
	out := FromShamir(ToShamir(in))
	assert.Equal(t, in, out)
}
