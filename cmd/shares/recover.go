package shares

import (
	"fmt"

	"github.com/kashguard/go-recovery-wallet/internal/backup"
	"github.com/kashguard/go-recovery-wallet/internal/util"
	"github.com/kashguard/go-recovery-wallet/internal/util/command"
	"github.com/kashguard/go-recovery-wallet/internal/wallet"
	"github.com/spf13/cobra"
)

func newRecover() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "recover [share-hex...]",
		Short: "Rebuild the recovery backup from a quorum of shares",
		RunE:  runRecover,
	}

	addShareSourceFlags(cmd)

	return cmd
}

func runRecover(cmd *cobra.Command, args []string) error {
	cfg, err := command.LoadConfig(cmd)
	if err != nil {
		return err
	}
	util.ConfigureLogger(cfg.Logger.Level, cfg.Logger.PrettyPrintConsole)

	net, err := cfg.NetworkParams()
	if err != nil {
		return err
	}

	shares, err := collectShares(cmd, cfg, args)
	if err != nil {
		return err
	}

	rb, err := wallet.RecoverFromShares(shares)
	if err != nil {
		return err
	}
	defer rb.Zero()

	rw, err := wallet.NewRecoveryWallet(rb, wallet.Config{Network: net})
	if err != nil {
		return err
	}
	defer rw.Close()

	recoveryHex, err := backup.EncodeRecoveryBackupHex(rb)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Wallet ID: %s\n", rw.WalletID())
	fmt.Fprintf(out, "Recovery:  %d-of-%d shares, delay %d blocks, fee %d sat\n\n",
		rb.Params.NeededShares, rb.Params.TotalShares, rb.Params.Delay, rb.Params.Fee)
	fmt.Fprintf(out, "Recovery backup (keep private):\n%s\n", recoveryHex)
	return nil
}
