package inspect

import (
	"fmt"
	"io"

	"github.com/davecgh/go-spew/spew"
	"github.com/kashguard/go-recovery-wallet/internal/backup"
	"github.com/kashguard/go-recovery-wallet/internal/util/command"
	"github.com/spf13/cobra"
)

const showSecretsFlag = "show-secrets"

var dumper = spew.ConfigState{
	Indent:                  "  ",
	DisablePointerAddresses: true,
	DisableCapacities:       true,
	SortKeys:                true,
}

func New() *cobra.Command {
	return command.NewSubcommandGroup("inspect",
		newOwner(),
		newRecovery(),
		newShare(),
	)
}

type ownerView struct {
	Params       backup.RecoveryParams
	OwnerSeed    string
	RecoveryRoot string
}

type recoveryView struct {
	Params       backup.RecoveryParams
	OwnerRoot    string
	RecoverySeed string
}

type shareView struct {
	Index uint8
	Size  int
	Data  string
}

func redact(show bool, secret []byte) string {
	if show {
		return fmt.Sprintf("%x", secret)
	}
	return fmt.Sprintf("<%d bytes redacted>", len(secret))
}

func newInspectCommand(use, short string, dump func(out io.Writer, hexStr string, showSecrets bool) error) *cobra.Command {
	cmd := &cobra.Command{
		Use:   use,
		Short: short,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			showSecrets, _ := cmd.Flags().GetBool(showSecretsFlag)
			return dump(cmd.OutOrStdout(), args[0], showSecrets)
		},
	}

	cmd.Flags().Bool(showSecretsFlag, false, "print seeds and share data instead of redacting them")
	return cmd
}

func newOwner() *cobra.Command {
	return newInspectCommand("owner <hex>", "Decode an owner backup", func(out io.Writer, hexStr string, show bool) error {
		ob, err := backup.DecodeOwnerBackupHex(hexStr)
		if err != nil {
			return err
		}
		defer ob.Zero()

		dumper.Fdump(out, ownerView{
			Params:       ob.Params,
			OwnerSeed:    redact(show, ob.OwnerSeed[:]),
			RecoveryRoot: ob.RecoveryRoot.String(),
		})
		return nil
	})
}

func newRecovery() *cobra.Command {
	return newInspectCommand("recovery <hex>", "Decode a recovery backup", func(out io.Writer, hexStr string, show bool) error {
		rb, err := backup.DecodeRecoveryBackupHex(hexStr)
		if err != nil {
			return err
		}
		defer rb.Zero()

		dumper.Fdump(out, recoveryView{
			Params:       rb.Params,
			OwnerRoot:    rb.OwnerRoot.String(),
			RecoverySeed: redact(show, rb.RecoverySeed[:]),
		})
		return nil
	})
}

func newShare() *cobra.Command {
	return newInspectCommand("share <hex>", "Decode a recovery share", func(out io.Writer, hexStr string, show bool) error {
		share, err := backup.DecodeShareHex(hexStr)
		if err != nil {
			return err
		}

		dumper.Fdump(out, shareView{
			Index: share.Index,
			Size:  len(share.Data),
			Data:  redact(show, share.Data),
		})
		return nil
	})
}
