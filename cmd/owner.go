package cmd

import (
	"github.com/kashguard/go-recovery-wallet/internal/backup"
	"github.com/kashguard/go-recovery-wallet/internal/util/command"
	"github.com/kashguard/go-recovery-wallet/internal/wallet"
	"github.com/spf13/cobra"
)

const ownerHexFlag = "owner-hex"

func addOwnerFlags(cmd *cobra.Command) {
	cmd.Flags().String(ownerHexFlag, "", "owner backup hex, instead of the encrypted backup in the data dir")
}

// openOwnerWallet loads the owner backup from --owner-hex or, failing that,
// from the encrypted file in the data dir.
func openOwnerWallet(cmd *cobra.Command, rt *command.Runtime) (*wallet.OwnerWallet, error) {
	var (
		ob  *backup.OwnerBackup
		err error
	)

	if ownerHex, _ := cmd.Flags().GetString(ownerHexFlag); ownerHex != "" {
		ob, err = backup.DecodeOwnerBackupHex(ownerHex)
	} else {
		var passphrase string
		passphrase, err = command.Passphrase(cmd)
		if err != nil {
			return nil, err
		}
		ob, err = rt.Backups.LoadOwnerBackup(passphrase)
	}
	if err != nil {
		return nil, err
	}
	defer ob.Zero()

	return wallet.NewOwnerWallet(ob, rt.WalletConfig())
}
