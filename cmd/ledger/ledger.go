package ledger

import (
	"context"
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/kashguard/go-recovery-wallet/internal/store"
	"github.com/kashguard/go-recovery-wallet/internal/util/command"
	"github.com/spf13/cobra"
)

const (
	walletIDFlag = "wallet-id"
	indexFlag    = "index"
	amountFlag   = "amount"
)

func New() *cobra.Command {
	return command.NewSubcommandGroup("ledger",
		newList(),
		newShow(),
	)
}

func newList() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List issued addresses",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := command.LoadConfig(cmd)
			if err != nil {
				return err
			}
			walletID, _ := cmd.Flags().GetString(walletIDFlag)

			return command.WithRuntime(cmd.Context(), cfg, func(_ context.Context, rt *command.Runtime) error {
				records, err := rt.Ledger.List(walletID)
				if err != nil {
					return err
				}

				w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
				fmt.Fprintln(w, "WALLET\tINDEX\tAMOUNT\tADDRESS\tLABEL\tCREATED")
				for _, rec := range records {
					fmt.Fprintf(w, "%s\t%d\t%d\t%s\t%s\t%s\n",
						rec.WalletID, rec.Index, rec.Amount, rec.Address, rec.Label, rec.CreatedAt.Format(time.RFC3339))
				}
				return w.Flush()
			})
		},
	}

	cmd.Flags().String(walletIDFlag, "", "only list this wallet")
	return cmd
}

func newShow() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "show",
		Short: "Show one ledger record",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := command.LoadConfig(cmd)
			if err != nil {
				return err
			}
			walletID, _ := cmd.Flags().GetString(walletIDFlag)
			index, _ := cmd.Flags().GetUint32(indexFlag)
			amount, _ := cmd.Flags().GetInt64(amountFlag)

			return command.WithRuntime(cmd.Context(), cfg, func(_ context.Context, rt *command.Runtime) error {
				rec, err := rt.Ledger.Get(walletID, index, amount)
				if err != nil {
					return err
				}
				printRecord(cmd, rec)
				return nil
			})
		},
	}

	cmd.Flags().String(walletIDFlag, "", "wallet id")
	cmd.Flags().Uint32(indexFlag, 0, "address index")
	cmd.Flags().Int64(amountFlag, 0, "amount in sat")
	_ = cmd.MarkFlagRequired(walletIDFlag)
	_ = cmd.MarkFlagRequired(amountFlag)
	return cmd
}

func printRecord(cmd *cobra.Command, rec *store.AddressRecord) {
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Wallet ID:  %s\n", rec.WalletID)
	fmt.Fprintf(out, "Network:    %s\n", rec.Network)
	fmt.Fprintf(out, "Index:      %d\n", rec.Index)
	fmt.Fprintf(out, "Amount:     %d\n", rec.Amount)
	fmt.Fprintf(out, "Address:    %s\n", rec.Address)
	fmt.Fprintf(out, "Output key: %s (%s)\n", rec.OutputKey, rec.Parity)
	if rec.Label != "" {
		fmt.Fprintf(out, "Label:      %s\n", rec.Label)
	}
	fmt.Fprintf(out, "Created:    %s\n", rec.CreatedAt.Format(time.RFC3339))
}
