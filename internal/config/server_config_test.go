package config_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/btcsuite/btcd/chaincfg"
	"github.com/kashguard/go-recovery-wallet/internal/backup"
	"github.com/kashguard/go-recovery-wallet/internal/chain"
	"github.com/kashguard/go-recovery-wallet/internal/config"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultServiceConfigFromEnv(t *testing.T) {
	t.Setenv("RECOVERY_DOTENV", filepath.Join(t.TempDir(), "missing.env"))
	t.Setenv("RECOVERY_TOTAL_SHARES", "7")
	t.Setenv("RECOVERY_NEEDED_SHARES", "5")
	t.Setenv("RECOVERY_DELAY", "100")
	t.Setenv("RECOVERY_FEE", "300")
	t.Setenv("RECOVERY_NETWORK", "signet")
	t.Setenv("RECOVERY_DATA_DIR", "/tmp/wallet")
	t.Setenv("RECOVERY_EXPORT_WORKERS", "2")
	t.Setenv("SERVER_LOGGER_LEVEL", "debug")
	t.Setenv("SERVER_LOGGER_PRETTY_PRINT_CONSOLE", "false")

	cfg := config.DefaultServiceConfigFromEnv()

	assert.Equal(t, backup.RecoveryParams{TotalShares: 7, NeededShares: 5, Delay: 100, Fee: 300}, cfg.RecoveryParams())
	assert.Equal(t, "/tmp/wallet", cfg.DataDir)
	assert.Equal(t, 2, cfg.ExportWorkers)
	assert.Equal(t, zerolog.DebugLevel, cfg.Logger.Level)
	assert.False(t, cfg.Logger.PrettyPrintConsole)

	net, err := cfg.NetworkParams()
	require.NoError(t, err)
	assert.Equal(t, chaincfg.SigNetParams.Name, net.Name)
	require.NoError(t, cfg.Validate())
}

func TestDotEnvDoesNotOverrideEnv(t *testing.T) {
	dotenv := filepath.Join(t.TempDir(), ".env")
	require.NoError(t, os.WriteFile(dotenv, []byte("RECOVERY_NETWORK=regtest\nRECOVERY_FEE=999\n"), 0o600))

	t.Setenv("RECOVERY_DOTENV", dotenv)
	t.Setenv("RECOVERY_NETWORK", "testnet3")
	// cleared again after the test, gotenv sets it on the process
	t.Setenv("RECOVERY_FEE", "")
	require.NoError(t, os.Unsetenv("RECOVERY_FEE"))

	cfg := config.DefaultServiceConfigFromEnv()
	assert.Equal(t, "testnet3", cfg.Network)
	assert.Equal(t, uint32(999), cfg.Recovery.Fee)
}

func TestLoadFile(t *testing.T) {
	t.Setenv("RECOVERY_DOTENV", filepath.Join(t.TempDir(), "missing.env"))
	t.Setenv("RECOVERY_NETWORK", "mainnet")
	t.Setenv("RECOVERY_DELAY", "144")

	path := filepath.Join(t.TempDir(), "wallet.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
network: regtest
data_dir: /var/lib/wallet
recovery:
  total_shares: 5
  needed_shares: 3
logger:
  level: warn
`), 0o600))

	cfg := config.DefaultServiceConfigFromEnv()
	require.NoError(t, cfg.LoadFile(path))

	assert.Equal(t, "regtest", cfg.Network)
	assert.Equal(t, "/var/lib/wallet", cfg.DataDir)
	assert.Equal(t, uint8(5), cfg.Recovery.TotalShares)
	assert.Equal(t, uint8(3), cfg.Recovery.NeededShares)
	assert.Equal(t, uint32(144), cfg.Recovery.Delay)
	assert.Equal(t, zerolog.WarnLevel, cfg.Logger.Level)

	assert.Error(t, cfg.LoadFile(filepath.Join(t.TempDir(), "nope.yaml")))
}

func TestValidate(t *testing.T) {
	cfg := config.Server{Network: "dogecoin", DataDir: "x"}
	assert.True(t, errors.Is(cfg.Validate(), chain.ErrUnknownNetwork))

	cfg = config.Server{Network: "regtest"}
	assert.Error(t, cfg.Validate())

	cfg = config.Server{Network: "regtest", DataDir: "x", ExportWorkers: -1}
	assert.Error(t, cfg.Validate())
}
