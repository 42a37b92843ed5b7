package cmd

import (
	"context"
	"fmt"
	"text/tabwriter"

	"github.com/btcsuite/btcd/btcutil"
	"github.com/kashguard/go-recovery-wallet/internal/keytree"
	"github.com/kashguard/go-recovery-wallet/internal/util/command"
	"github.com/kashguard/go-recovery-wallet/internal/wallet"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
)

const rangeFlag = "range"

func newExportCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export the tweaked private keys of a range of addresses",
		Long: `Prints WIF and rawtr descriptor of the tweaked key behind every address in
--range ("0-9" or "4", inclusive) for each --amount. Without --amount the
amounts recorded in the ledger for that range are used.`,
		Args: cobra.NoArgs,
		RunE: runExport,
	}

	cmd.Flags().String(rangeFlag, "0", "index range, inclusive")
	cmd.Flags().Int64Slice(amountFlag, nil, "amounts in sat, repeatable")
	addOwnerFlags(cmd)

	return cmd
}

type exportJob struct {
	start, end uint32
	amounts    []btcutil.Amount
}

func runExport(cmd *cobra.Command, _ []string) error {
	cfg, err := command.LoadConfig(cmd)
	if err != nil {
		return err
	}
	rangeStr, _ := cmd.Flags().GetString(rangeFlag)
	start, end, err := keytree.ParseIndexRange(rangeStr)
	if err != nil {
		return err
	}
	rawAmounts, _ := cmd.Flags().GetInt64Slice(amountFlag)

	return command.WithRuntime(cmd.Context(), cfg, func(ctx context.Context, rt *command.Runtime) error {
		owner, err := openOwnerWallet(cmd, rt)
		if err != nil {
			return err
		}
		defer owner.Close()

		var jobs []exportJob
		if len(rawAmounts) > 0 {
			amounts := make([]btcutil.Amount, len(rawAmounts))
			for i, a := range rawAmounts {
				amounts[i] = btcutil.Amount(a)
			}
			jobs = append(jobs, exportJob{start: start, end: end, amounts: amounts})
		} else {
			records, err := rt.Ledger.List(owner.WalletID())
			if err != nil {
				return err
			}
			for _, rec := range records {
				if rec.Index < start || rec.Index > end {
					continue
				}
				jobs = append(jobs, exportJob{start: rec.Index, end: rec.Index, amounts: []btcutil.Amount{btcutil.Amount(rec.Amount)}})
			}
			if len(jobs) == 0 {
				return errors.Errorf("no ledger records in range %d-%d, pass --amount", start, end)
			}
		}

		w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "INDEX\tAMOUNT\tADDRESS\tWIF\tDESCRIPTOR")

		for _, job := range jobs {
			keys, err := owner.ExportKeyPairs(ctx, job.start, job.end, job.amounts)
			if err != nil {
				return err
			}
			for _, k := range keys {
				fmt.Fprintf(w, "%d\t%d\t%s\t%s\t%s\n", k.Index, int64(k.Amount), k.Address, k.WIF, k.Descriptor)
			}
			zeroExported(keys)
		}

		return w.Flush()
	})
}

func zeroExported(keys []wallet.ExportedKey) {
	for i := range keys {
		if keys[i].KeyPair != nil {
			keys[i].KeyPair.Zero()
		}
	}
}
