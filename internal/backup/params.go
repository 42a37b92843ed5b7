package backup

import (
	"encoding/binary"

	"github.com/btcsuite/btcd/wire"
	"github.com/kashguard/go-recovery-wallet/internal/shamir"
	"github.com/pkg/errors"
)

// ParamsSize is the encoded length of RecoveryParams.
const ParamsSize = 10

var ErrInvalidParams = errors.New("invalid recovery params")

// RecoveryParams configure a wallet: a NeededShares-of-TotalShares split of
// the recovery backup, the relative lock (BIP-68 encoded) the recovery path
// waits out, and the fee budget of the covenant spend.
type RecoveryParams struct {
	TotalShares  uint8
	NeededShares uint8
	Delay        uint32
	Fee          uint32
}

// Validate rejects impossible thresholds (shamir.ErrInvalidThreshold) and
// unusable delays (ErrInvalidParams).
func (p RecoveryParams) Validate() error {
	if err := shamir.ValidateThreshold(int(p.NeededShares), int(p.TotalShares)); err != nil {
		return err
	}
	if p.Delay == 0 {
		return errors.Wrap(ErrInvalidParams, "delay must be positive")
	}
	if p.Delay&wire.SequenceLockTimeDisabled != 0 {
		return errors.Wrapf(ErrInvalidParams, "delay %d has the relative lock disable bit set", p.Delay)
	}
	return nil
}

func (p RecoveryParams) encode(out []byte) {
	out[0] = p.TotalShares
	out[1] = p.NeededShares
	binary.BigEndian.PutUint32(out[2:6], p.Delay)
	binary.BigEndian.PutUint32(out[6:10], p.Fee)
}

func decodeParams(b []byte) (RecoveryParams, error) {
	p := RecoveryParams{
		TotalShares:  b[0],
		NeededShares: b[1],
		Delay:        binary.BigEndian.Uint32(b[2:6]),
		Fee:          binary.BigEndian.Uint32(b[6:10]),
	}
	if err := p.Validate(); err != nil {
		return RecoveryParams{}, errors.Wrapf(ErrMalformedBackup, "params: %v", err)
	}
	return p, nil
}
