package cmd

import (
	"context"
	"fmt"

	"github.com/kashguard/go-recovery-wallet/internal/backup"
	"github.com/kashguard/go-recovery-wallet/internal/util"
	"github.com/kashguard/go-recovery-wallet/internal/util/command"
	"github.com/kashguard/go-recovery-wallet/internal/wallet"
	"github.com/spf13/cobra"
)

const (
	totalSharesFlag  = "total"
	neededSharesFlag = "needed"
	delayFlag        = "delay"
	feeFlag          = "fee"
	saveFlag         = "save"
)

func newCreateCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create a wallet: owner backup plus recovery shares",
		Long: `Creates a new wallet. Prints the owner backup and one recovery share per
trustee. With --save the owner backup is written encrypted to the data dir and
the shares to one file each instead.`,
		Args: cobra.NoArgs,
		RunE: runCreate,
	}

	cmd.Flags().Uint8(totalSharesFlag, 0, "number of recovery shares (default RECOVERY_TOTAL_SHARES)")
	cmd.Flags().Uint8(neededSharesFlag, 0, "shares needed to recover (default RECOVERY_NEEDED_SHARES)")
	cmd.Flags().Uint32(delayFlag, 0, "relative delay of the recovery path in blocks (default RECOVERY_DELAY)")
	cmd.Flags().Uint32(feeFlag, 0, "fee of the recovery transactions in sat (default RECOVERY_FEE)")
	cmd.Flags().Bool(saveFlag, false, "write the encrypted owner backup and share files to the data dir")

	return cmd
}

func createParams(cmd *cobra.Command, params backup.RecoveryParams) backup.RecoveryParams {
	flags := cmd.Flags()
	if flags.Changed(totalSharesFlag) {
		params.TotalShares, _ = flags.GetUint8(totalSharesFlag)
	}
	if flags.Changed(neededSharesFlag) {
		params.NeededShares, _ = flags.GetUint8(neededSharesFlag)
	}
	if flags.Changed(delayFlag) {
		params.Delay, _ = flags.GetUint32(delayFlag)
	}
	if flags.Changed(feeFlag) {
		params.Fee, _ = flags.GetUint32(feeFlag)
	}
	return params
}

func runCreate(cmd *cobra.Command, _ []string) error {
	cfg, err := command.LoadConfig(cmd)
	if err != nil {
		return err
	}
	params := createParams(cmd, cfg.RecoveryParams())
	save, _ := cmd.Flags().GetBool(saveFlag)

	return command.WithRuntime(cmd.Context(), cfg, func(ctx context.Context, rt *command.Runtime) error {
		ob, rb, err := wallet.CreateWallet(params, rt.Network)
		if err != nil {
			return err
		}
		defer ob.Zero()
		defer rb.Zero()

		owner, err := wallet.NewOwnerWallet(ob, rt.WalletConfig())
		if err != nil {
			return err
		}
		defer owner.Close()

		shares, err := wallet.SplitRecoveryBackup(rb)
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "Wallet ID: %s\n", owner.WalletID())
		fmt.Fprintf(out, "Network:   %s\n", rt.Network.Name)
		fmt.Fprintf(out, "Recovery:  %d-of-%d shares, delay %d blocks, fee %d sat\n\n",
			params.NeededShares, params.TotalShares, params.Delay, params.Fee)

		if save {
			passphrase, err := command.Passphrase(cmd)
			if err != nil {
				return err
			}
			if err := rt.Backups.SaveOwnerBackup(passphrase, ob); err != nil {
				return err
			}
			paths, err := rt.Backups.SaveShares(params, shares)
			if err != nil {
				return err
			}

			fmt.Fprintf(out, "Owner backup: %s\n", rt.Backups.OwnerBackupPath())
			for _, path := range paths {
				fmt.Fprintf(out, "Share file:   %s\n", path)
			}
		} else {
			ownerHex, err := backup.EncodeOwnerBackupHex(ob)
			if err != nil {
				return err
			}
			fmt.Fprintf(out, "Owner backup (keep private):\n%s\n", ownerHex)

			for _, share := range shares {
				shareHex, err := backup.EncodeShareHex(share)
				if err != nil {
					return err
				}
				fmt.Fprintf(out, "\n%s:\n%s\n", share.Label(params.NeededShares, params.TotalShares), shareHex)
			}
		}

		util.LogFromContext(ctx).Info().Str("wallet_id", owner.WalletID()).Bool("saved", save).Msg("Created wallet")
		return nil
	})
}
