package shares

import (
	"context"
	"fmt"

	"github.com/kashguard/go-recovery-wallet/internal/backup"
	"github.com/kashguard/go-recovery-wallet/internal/util/command"
	"github.com/kashguard/go-recovery-wallet/internal/wallet"
	"github.com/spf13/cobra"
)

const saveFlag = "save"

func newSplit() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "split <recovery-backup-hex>",
		Short: "Split a recovery backup into trustee shares",
		Args:  cobra.ExactArgs(1),
		RunE:  runSplit,
	}

	cmd.Flags().Bool(saveFlag, false, "write the shares to files in the data dir")

	return cmd
}

func runSplit(cmd *cobra.Command, args []string) error {
	cfg, err := command.LoadConfig(cmd)
	if err != nil {
		return err
	}

	rb, err := backup.DecodeRecoveryBackupHex(args[0])
	if err != nil {
		return err
	}
	defer rb.Zero()

	shares, err := wallet.SplitRecoveryBackup(rb)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	params := rb.Params

	if save, _ := cmd.Flags().GetBool(saveFlag); save {
		return command.WithRuntime(cmd.Context(), cfg, func(_ context.Context, rt *command.Runtime) error {
			paths, err := rt.Backups.SaveShares(params, shares)
			if err != nil {
				return err
			}
			for _, path := range paths {
				fmt.Fprintln(out, path)
			}
			return nil
		})
	}

	for i, share := range shares {
		shareHex, err := backup.EncodeShareHex(share)
		if err != nil {
			return err
		}
		if i > 0 {
			fmt.Fprintln(out)
		}
		fmt.Fprintf(out, "%s:\n%s\n", share.Label(params.NeededShares, params.TotalShares), shareHex)
	}
	return nil
}
