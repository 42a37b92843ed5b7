package command

import (
	"github.com/kashguard/go-recovery-wallet/internal/config"
	"github.com/kashguard/go-recovery-wallet/internal/util"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
)

const (
	ConfigFlag     = "config"
	NetworkFlag    = "network"
	DataDirFlag    = "data-dir"
	PassphraseFlag = "passphrase"
	VerboseFlag    = "verbose"
)

// AddPersistentFlags registers the flags every command understands on root.
func AddPersistentFlags(root *cobra.Command) {
	flags := root.PersistentFlags()
	flags.String(ConfigFlag, "", "config file (yaml, toml or json) overlaid on the env config")
	flags.String(NetworkFlag, "", "bitcoin network: mainnet, testnet3, signet, regtest or simnet")
	flags.String(DataDirFlag, "", "directory holding the encrypted owner backup, share files and ledger")
	flags.StringP(PassphraseFlag, "p", "", "passphrase of the encrypted owner backup (or RECOVERY_PASSPHRASE)")
	flags.BoolP(VerboseFlag, "v", false, "debug logging")
}

// LoadConfig builds the config for cmd: env first, then --config, then the
// explicit flags.
func LoadConfig(cmd *cobra.Command) (config.Server, error) {
	cfg := config.DefaultServiceConfigFromEnv()

	if path := stringFlag(cmd, ConfigFlag); path != "" {
		if err := cfg.LoadFile(path); err != nil {
			return cfg, err
		}
	}
	if network := stringFlag(cmd, NetworkFlag); network != "" {
		cfg.Network = network
	}
	if dir := stringFlag(cmd, DataDirFlag); dir != "" {
		cfg.DataDir = dir
	}
	if f := cmd.Flag(VerboseFlag); f != nil && f.Value.String() == "true" {
		cfg.Logger.Level = util.LogLevelFromString("debug")
	}

	return cfg, nil
}

// Passphrase returns the --passphrase flag or RECOVERY_PASSPHRASE.
func Passphrase(cmd *cobra.Command) (string, error) {
	if p := stringFlag(cmd, PassphraseFlag); p != "" {
		return p, nil
	}
	if p := util.GetEnv("RECOVERY_PASSPHRASE", ""); p != "" {
		return p, nil
	}
	return "", errors.New("a passphrase is required, pass --passphrase or set RECOVERY_PASSPHRASE")
}

func stringFlag(cmd *cobra.Command, name string) string {
	f := cmd.Flag(name)
	if f == nil {
		return ""
	}
	return f.Value.String()
}
