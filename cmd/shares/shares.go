package shares

import (
	"github.com/kashguard/go-recovery-wallet/internal/backup"
	"github.com/kashguard/go-recovery-wallet/internal/config"
	"github.com/kashguard/go-recovery-wallet/internal/store"
	"github.com/kashguard/go-recovery-wallet/internal/util/command"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
)

const (
	fileFlag    = "file"
	fromDirFlag = "from-dir"
)

func New() *cobra.Command {
	return command.NewSubcommandGroup("shares",
		newSplit(),
		newRecover(),
		newSpend(),
	)
}

func addShareSourceFlags(cmd *cobra.Command) {
	cmd.Flags().StringSlice(fileFlag, nil, "share file, repeatable")
	cmd.Flags().Bool(fromDirFlag, false, "read every share file in the data dir")
}

// collectShares gathers shares from hex args, --file and --from-dir.
func collectShares(cmd *cobra.Command, cfg config.Server, args []string) ([]backup.RecoveryShare, error) {
	shares := make([]backup.RecoveryShare, 0, len(args))

	for i, arg := range args {
		share, err := backup.DecodeShareHex(arg)
		if err != nil {
			return nil, errors.Wrapf(err, "share argument %d", i+1)
		}
		shares = append(shares, share)
	}

	files, _ := cmd.Flags().GetStringSlice(fileFlag)
	if fromDir, _ := cmd.Flags().GetBool(fromDirFlag); fromDir {
		listed, err := store.NewBackupFileStore(cfg.DataDir, store.DefaultScryptParams()).ListShareFiles()
		if err != nil {
			return nil, err
		}
		files = append(files, listed...)
	}

	for _, path := range files {
		share, err := store.ReadShareFile(path)
		if err != nil {
			return nil, err
		}
		shares = append(shares, share)
	}

	if len(shares) == 0 {
		return nil, errors.New("no shares given, pass share hex arguments, --file or --from-dir")
	}
	return shares, nil
}
