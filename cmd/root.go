package cmd

import (
	"github.com/kashguard/go-recovery-wallet/cmd/inspect"
	"github.com/kashguard/go-recovery-wallet/cmd/ledger"
	"github.com/kashguard/go-recovery-wallet/cmd/shares"
	"github.com/kashguard/go-recovery-wallet/internal/util/command"
	"github.com/spf13/cobra"
)

// NewRootCommand assembles the CLI. Every call returns a fresh tree.
func NewRootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:   "recovery-wallet",
		Short: "Taproot wallet with a delayed social recovery path",
		Long: `recovery-wallet creates a wallet whose addresses are spendable by the owner
at any time and, after a relative delay, by whoever reconstructs the recovery
backup from a quorum of trustee shares.`,
		SilenceUsage: true,
	}

	command.AddPersistentFlags(root)

	root.AddCommand(
		newCreateCommand(),
		newAddressCommand(),
		newExportCommand(),
		shares.New(),
		inspect.New(),
		ledger.New(),
	)

	return root
}

func Execute() error {
	return NewRootCommand().Execute()
}
