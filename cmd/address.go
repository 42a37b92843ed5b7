package cmd

import (
	"context"
	"encoding/hex"
	"fmt"

	"github.com/btcsuite/btcd/btcutil"
	"github.com/kashguard/go-recovery-wallet/internal/store"
	"github.com/kashguard/go-recovery-wallet/internal/taproot"
	"github.com/kashguard/go-recovery-wallet/internal/util"
	"github.com/kashguard/go-recovery-wallet/internal/util/command"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
)

const (
	indexFlag  = "index"
	amountFlag = "amount"
	labelFlag  = "label"
)

func newAddressCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "address",
		Short: "Derive the address for an index and amount and record it in the ledger",
		Long: `Prints the P2TR address at --index for a deposit of exactly --amount sat.
The recovery covenant commits to the amount, so the same index funded with a
different amount has a different address. Every issued address is recorded in
the ledger so its key can be exported later.`,
		Args: cobra.NoArgs,
		RunE: runAddress,
	}

	cmd.Flags().Uint32(indexFlag, 0, "address index")
	cmd.Flags().Int64(amountFlag, 0, "exact amount the address will receive, in sat")
	cmd.Flags().String(labelFlag, "", "label stored with the ledger record")
	_ = cmd.MarkFlagRequired(amountFlag)
	addOwnerFlags(cmd)

	return cmd
}

func runAddress(cmd *cobra.Command, _ []string) error {
	cfg, err := command.LoadConfig(cmd)
	if err != nil {
		return err
	}
	index, _ := cmd.Flags().GetUint32(indexFlag)
	amount, _ := cmd.Flags().GetInt64(amountFlag)
	label, _ := cmd.Flags().GetString(labelFlag)

	if amount <= 0 {
		return errors.Errorf("amount must be positive, got %d", amount)
	}

	return command.WithRuntime(cmd.Context(), cfg, func(ctx context.Context, rt *command.Runtime) error {
		owner, err := openOwnerWallet(cmd, rt)
		if err != nil {
			return err
		}
		defer owner.Close()

		outputKey, parity, err := owner.OutputKey(index, btcutil.Amount(amount))
		if err != nil {
			return err
		}
		addr, err := owner.Adapter().TaprootAddress(outputKey)
		if err != nil {
			return err
		}

		rec := &store.AddressRecord{
			WalletID:  owner.WalletID(),
			Network:   rt.Network.Name,
			Index:     index,
			Amount:    amount,
			Address:   addr.String(),
			OutputKey: hex.EncodeToString(taproot.XOnly(outputKey)),
			Parity:    parity.String(),
			Label:     label,
		}
		if err := rt.Ledger.Put(rec); err != nil {
			return err
		}

		util.LogFromContext(ctx).Debug().
			Str("wallet_id", rec.WalletID).
			Uint32("index", index).
			Int64("amount", amount).
			Msg("Recorded address")

		fmt.Fprintln(cmd.OutOrStdout(), addr.String())
		return nil
	})
}
