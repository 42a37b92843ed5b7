package store

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/btcsuite/btcd/chaincfg"
	"github.com/kashguard/go-recovery-wallet/internal/backup"
	"github.com/kashguard/go-recovery-wallet/internal/keytree"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testKDF = ScryptParams{N: 1 << 10, R: 8, P: 1}

func testOwnerBackup(t *testing.T) *backup.OwnerBackup {
	t.Helper()

	seed, err := keytree.NewSeed()
	require.NoError(t, err)
	tree, err := keytree.NewTree(seed, &chaincfg.RegressionNetParams)
	require.NoError(t, err)
	root, err := tree.PublicRoot()
	require.NoError(t, err)

	ob := &backup.OwnerBackup{
		Params:       backup.RecoveryParams{TotalShares: 3, NeededShares: 2, Delay: 144, Fee: 250},
		RecoveryRoot: root,
	}
	ob.OwnerSeed, err = keytree.NewSeed()
	require.NoError(t, err)
	return ob
}

func TestEnvelopeRoundTrip(t *testing.T) {
	ct, err := seal("kind", "correct horse", []byte("payload"), testKDF)
	require.NoError(t, err)
	assert.NotContains(t, string(ct), "payload")

	pt, err := open("kind", "correct horse", ct)
	require.NoError(t, err)
	assert.Equal(t, []byte("payload"), pt)

	_, err = open("kind", "wrong", ct)
	assert.Equal(t, ErrWrongPassphrase, err)

	_, err = open("other", "correct horse", ct)
	assert.Error(t, err)

	_, err = seal("kind", "", []byte("payload"), testKDF)
	assert.Error(t, err)

	_, err = open("kind", "x", []byte("not json"))
	assert.Error(t, err)
}

func TestEnvelopeBoundsKeyDerivation(t *testing.T) {
	ct, err := seal("kind", "pw", []byte("payload"), testKDF)
	require.NoError(t, err)

	tamper := func(mutate func(env *envelope)) []byte {
		var env envelope
		require.NoError(t, json.Unmarshal(ct, &env))
		mutate(&env)
		b, err := json.Marshal(env)
		require.NoError(t, err)
		return b
	}

	for name, mutate := range map[string]func(env *envelope){
		"huge N":         func(env *envelope) { env.N = 1 << 30 },
		"N not pow2":     func(env *envelope) { env.N = 1000 },
		"huge r":         func(env *envelope) { env.R = 1 << 20 },
		"huge p":         func(env *envelope) { env.P = 1 << 20 },
		"zero r":         func(env *envelope) { env.R = 0 },
		"memory ceiling": func(env *envelope) { env.N, env.R = 1<<20, 16 },
	} {
		_, err := open("kind", "pw", tamper(mutate))
		assert.Error(t, err, name)
		assert.False(t, errors.Is(err, ErrWrongPassphrase), name)
	}

	_, err = seal("kind", "pw", []byte("payload"), ScryptParams{N: 1 << 24, R: 8, P: 1})
	assert.Error(t, err)
	assert.NoError(t, DefaultScryptParams().Validate())
}

func TestOwnerBackupFile(t *testing.T) {
	dir := t.TempDir()
	s := NewBackupFileStore(dir, testKDF)
	ob := testOwnerBackup(t)

	require.NoError(t, s.SaveOwnerBackup("passphrase", ob))

	info, err := os.Stat(s.OwnerBackupPath())
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())

	loaded, err := s.LoadOwnerBackup("passphrase")
	require.NoError(t, err)
	assert.Equal(t, ob.Params, loaded.Params)
	assert.Equal(t, ob.OwnerSeed, loaded.OwnerSeed)
	assert.Equal(t, ob.RecoveryRoot.String(), loaded.RecoveryRoot.String())

	_, err = s.LoadOwnerBackup("nope")
	assert.True(t, errors.Is(err, ErrWrongPassphrase))

	// no temp files left behind
	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, entries, 1)

	_, err = NewBackupFileStore(t.TempDir(), testKDF).LoadOwnerBackup("passphrase")
	assert.Error(t, err)
}

func TestShareFiles(t *testing.T) {
	dir := t.TempDir()
	s := NewBackupFileStore(dir, testKDF)
	params := backup.RecoveryParams{TotalShares: 3, NeededShares: 2, Delay: 144, Fee: 250}

	shares := make([]backup.RecoveryShare, 3)
	for i := range shares {
		data := make([]byte, backup.SealedSize)
		for j := range data {
			data[j] = byte(i*31 + j)
		}
		shares[i] = backup.RecoveryShare{Index: uint8(i + 1), Data: data}
	}

	paths, err := s.SaveShares(params, shares)
	require.NoError(t, err)
	require.Len(t, paths, 3)
	assert.Equal(t, filepath.Join(dir, "recovery-share-002.txt"), paths[1])

	content, err := os.ReadFile(paths[1])
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(content), "# Recovery Share #2 (requires 2-of-3)\n"))

	listed, err := s.ListShareFiles()
	require.NoError(t, err)
	assert.Equal(t, paths, listed)

	for i, path := range listed {
		share, err := ReadShareFile(path)
		require.NoError(t, err)
		assert.Equal(t, shares[i], share)
	}

	empty := filepath.Join(dir, "empty.txt")
	require.NoError(t, os.WriteFile(empty, []byte("# nothing here\n\n"), 0o600))
	_, err = ReadShareFile(empty)
	assert.True(t, errors.Is(err, backup.ErrMalformedBackup))

	garbage := filepath.Join(dir, "garbage.txt")
	require.NoError(t, os.WriteFile(garbage, []byte("abcd\n"), 0o600))
	_, err = ReadShareFile(garbage)
	assert.True(t, errors.Is(err, backup.ErrMalformedBackup))

	_, err = ReadShareFile(filepath.Join(dir, "missing.txt"))
	assert.Error(t, err)
}

func TestLedger(t *testing.T) {
	dir := t.TempDir()
	ledger, err := OpenLedger(dir)
	require.NoError(t, err)
	defer func() { _ = ledger.Close() }()

	records := []*AddressRecord{
		{WalletID: "aabbccdd", Network: "signet", Index: 2, Amount: 100_000_000, Address: "tb1p-c"},
		{WalletID: "aabbccdd", Network: "signet", Index: 0, Amount: 25_000_000, Address: "tb1p-a"},
		{WalletID: "aabbccdd", Network: "signet", Index: 0, Amount: 100_000_000, Address: "tb1p-b"},
		{WalletID: "11223344", Network: "signet", Index: 0, Amount: 25_000_000, Address: "tb1p-other"},
	}
	for _, rec := range records {
		require.NoError(t, ledger.Put(rec))
		assert.False(t, rec.CreatedAt.IsZero())
	}

	list, err := ledger.List("aabbccdd")
	require.NoError(t, err)
	require.Len(t, list, 3)
	assert.Equal(t, "tb1p-a", list[0].Address)
	assert.Equal(t, "tb1p-b", list[1].Address)
	assert.Equal(t, "tb1p-c", list[2].Address)

	all, err := ledger.List("")
	require.NoError(t, err)
	assert.Len(t, all, 4)

	got, err := ledger.Get("aabbccdd", 0, 100_000_000)
	require.NoError(t, err)
	assert.Equal(t, "tb1p-b", got.Address)
	assert.WithinDuration(t, time.Now(), got.CreatedAt, time.Minute)

	_, err = ledger.Get("aabbccdd", 9, 1)
	assert.True(t, errors.Is(err, ErrNotFound))

	// same slot replaces
	require.NoError(t, ledger.Put(&AddressRecord{WalletID: "aabbccdd", Index: 2, Amount: 100_000_000, Address: "tb1p-c2"}))
	got, err = ledger.Get("aabbccdd", 2, 100_000_000)
	require.NoError(t, err)
	assert.Equal(t, "tb1p-c2", got.Address)

	assert.Error(t, ledger.Put(&AddressRecord{WalletID: "zz"}))
	_, err = ledger.List("zz")
	assert.Error(t, err)

	// persists across reopen
	require.NoError(t, ledger.Close())
	ledger, err = OpenLedger(dir)
	require.NoError(t, err)
	all, err = ledger.List("")
	require.NoError(t, err)
	assert.Len(t, all, 4)
}
