package command

import (
	"context"
	"fmt"

	"github.com/btcsuite/btcd/chaincfg"
	"github.com/kashguard/go-recovery-wallet/internal/config"
	"github.com/kashguard/go-recovery-wallet/internal/store"
	"github.com/kashguard/go-recovery-wallet/internal/util"
	"github.com/kashguard/go-recovery-wallet/internal/wallet"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

// Runtime is what a command body gets: the resolved config, the network and
// the opened stores.
type Runtime struct {
	Config  config.Server
	Network *chaincfg.Params
	Backups *store.BackupFileStore
	Ledger  *store.Ledger
}

// WalletConfig is the wallet config derived from the runtime.
func (rt *Runtime) WalletConfig() wallet.Config {
	return wallet.Config{
		Network: rt.Network,
		Workers: rt.Config.ExportWorkers,
	}
}

// WithRuntime configures logging, opens the stores in cfg.DataDir and runs fn.
// The stores are closed once fn returns, and fn's error is returned as is.
func WithRuntime(ctx context.Context, cfg config.Server, fn func(ctx context.Context, rt *Runtime) error) error {
	util.ConfigureLogger(cfg.Logger.Level, cfg.Logger.PrettyPrintConsole)

	if err := cfg.Validate(); err != nil {
		log.Error().Err(err).Msg("Invalid config")
		return err
	}

	net, err := cfg.NetworkParams()
	if err != nil {
		return err
	}

	ledger, err := store.OpenLedger(cfg.DataDir)
	if err != nil {
		log.Error().Err(err).Str("data_dir", cfg.DataDir).Msg("Failed to open address ledger")
		return err
	}
	defer func() {
		if err := ledger.Close(); err != nil {
			log.Error().Err(err).Msg("Failed to close address ledger")
		}
	}()

	rt := &Runtime{
		Config:  cfg,
		Network: net,
		Backups: store.NewBackupFileStore(cfg.DataDir, store.DefaultScryptParams()),
		Ledger:  ledger,
	}

	logger := log.With().Str("network", net.Name).Logger()
	return fn(logger.WithContext(ctx), rt)
}

func NewSubcommandGroup(name string, subCommands ...*cobra.Command) *cobra.Command {
	cmd := &cobra.Command{
		Use:   name,
		Short: fmt.Sprintf("%s related subcommands", name),
		Run: func(cmd *cobra.Command, _ []string) {
			if err := cmd.Help(); err != nil {
				log.Error().Err(err).Msg("Failed to print help")
			}
		},
	}

	cmd.AddCommand(subCommands...)
	return cmd
}
