package shares

import (
	"bytes"
	"encoding/hex"
	"fmt"
	"strconv"
	"strings"

	"github.com/btcsuite/btcd/btcutil"
	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"github.com/btcsuite/btcd/wire"
	"github.com/kashguard/go-recovery-wallet/internal/util"
	"github.com/kashguard/go-recovery-wallet/internal/util/command"
	"github.com/kashguard/go-recovery-wallet/internal/wallet"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
)

const (
	indexFlag    = "index"
	amountFlag   = "amount"
	outpointFlag = "outpoint"
)

func newSpend() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "spend [share-hex...]",
		Short: "Sign the recovery staging transaction of one address",
		Long: `Reconstructs the recovery backup from the given shares and signs the
transaction moving the coin at --outpoint (funded with exactly --amount sat to
the address at --index) into the recovery covenant. The covenant output can be
swept by the recovery key once the delay has passed.`,
		RunE: runSpend,
	}

	cmd.Flags().Uint32(indexFlag, 0, "address index")
	cmd.Flags().Int64(amountFlag, 0, "amount held by the address, in sat")
	cmd.Flags().String(outpointFlag, "", "funding outpoint as txid:vout")
	_ = cmd.MarkFlagRequired(amountFlag)
	_ = cmd.MarkFlagRequired(outpointFlag)
	addShareSourceFlags(cmd)

	return cmd
}

func parseOutPoint(s string) (wire.OutPoint, error) {
	txid, vout, ok := strings.Cut(strings.TrimSpace(s), ":")
	if !ok {
		return wire.OutPoint{}, errors.Errorf("outpoint %q is not txid:vout", s)
	}

	hash, err := chainhash.NewHashFromStr(txid)
	if err != nil {
		return wire.OutPoint{}, errors.Wrapf(err, "outpoint %q", s)
	}
	index, err := strconv.ParseUint(vout, 10, 32)
	if err != nil {
		return wire.OutPoint{}, errors.Wrapf(err, "outpoint %q", s)
	}

	return wire.OutPoint{Hash: *hash, Index: uint32(index)}, nil
}

func runSpend(cmd *cobra.Command, args []string) error {
	cfg, err := command.LoadConfig(cmd)
	if err != nil {
		return err
	}
	util.ConfigureLogger(cfg.Logger.Level, cfg.Logger.PrettyPrintConsole)

	net, err := cfg.NetworkParams()
	if err != nil {
		return err
	}
	index, _ := cmd.Flags().GetUint32(indexFlag)
	amount, _ := cmd.Flags().GetInt64(amountFlag)
	outpointStr, _ := cmd.Flags().GetString(outpointFlag)

	prevOut, err := parseOutPoint(outpointStr)
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

	spend, err := rw.RecoverySpendInfo(index, btcutil.Amount(amount))
	if err != nil {
		return err
	}
	defer spend.Zero()

	tx, err := spend.SignStagingTx(prevOut)
	if err != nil {
		return err
	}

	var buf bytes.Buffer
	if err := tx.Serialize(&buf); err != nil {
		return errors.Wrap(err, "failed to serialize staging transaction")
	}
	controlBlock, err := spend.Commitment.ControlBlockBytes()
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Address:       %s\n", spend.Address)
	fmt.Fprintf(out, "Template hash: %x\n", spend.Commitment.TemplateHash[:])
	fmt.Fprintf(out, "Recovery leaf: %x\n", spend.Commitment.RecoveryLeaf.Script)
	fmt.Fprintf(out, "Control block: %x\n", controlBlock)
	fmt.Fprintf(out, "Txid:          %s\n\n", tx.TxHash())
	fmt.Fprintln(out, hex.EncodeToString(buf.Bytes()))
	return nil
}
