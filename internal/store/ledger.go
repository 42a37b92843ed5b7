package store

import (
	"bytes"
	"encoding/binary"
	"encoding/hex"
	"encoding/json"
	"os"
	"path/filepath"
	"time"

	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
	bolt "go.etcd.io/bbolt"
)

const ledgerFilename = "ledger.db"

var bucketAddresses = []byte("addresses_by_wallet_index_amount")

var ErrNotFound = errors.New("not found")

// AddressRecord 已签发的地址记录
// 地址依赖金额，记录中保存导出时重新派生密钥所需的信息
type AddressRecord struct {
	WalletID  string    `json:"wallet_id"`
	Network   string    `json:"network"`
	Index     uint32    `json:"index"`
	Amount    int64     `json:"amount"`
	Address   string    `json:"address"`
	OutputKey string    `json:"output_key"` // hex x-only key
	Parity    string    `json:"parity"`
	Label     string    `json:"label,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// Ledger 基于 bbolt 的地址台账
type Ledger struct {
	db *bolt.DB
}

// OpenLedger 打开（或创建）dir 中的台账
func OpenLedger(dir string) (*Ledger, error) {
	if dir == "" {
		return nil, errors.New("data dir required")
	}
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return nil, errors.Wrapf(err, "failed to create %s", dir)
	}

	path := filepath.Join(dir, ledgerFilename)
	db, err := bolt.Open(path, 0o600, &bolt.Options{Timeout: 1 * time.Second})
	if err != nil {
		return nil, errors.Wrap(err, "open bbolt")
	}

	if err := db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(bucketAddresses)
		return errors.Wrapf(err, "create bucket %s", bucketAddresses)
	}); err != nil {
		_ = db.Close()
		return nil, err
	}

	log.Debug().Str("path", path).Msg("Opened address ledger")
	return &Ledger{db: db}, nil
}

func (l *Ledger) Close() error {
	if l == nil || l.db == nil {
		return nil
	}
	return l.db.Close()
}

// recordKey: wallet id bytes || index (BE) || amount (BE), so a cursor walks
// one wallet's records by index, then amount.
func recordKey(walletID string, index uint32, amount int64) ([]byte, error) {
	id, err := hex.DecodeString(walletID)
	if err != nil || len(id) == 0 {
		return nil, errors.Errorf("invalid wallet id %q", walletID)
	}

	key := make([]byte, len(id)+12)
	copy(key, id)
	binary.BigEndian.PutUint32(key[len(id):], index)
	binary.BigEndian.PutUint64(key[len(id)+4:], uint64(amount))
	return key, nil
}

// Put 保存记录，覆盖同一地址槽位的旧记录
func (l *Ledger) Put(rec *AddressRecord) error {
	key, err := recordKey(rec.WalletID, rec.Index, rec.Amount)
	if err != nil {
		return err
	}
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = time.Now().UTC()
	}

	val, err := json.Marshal(rec)
	if err != nil {
		return errors.Wrap(err, "failed to encode address record")
	}

	return l.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(bucketAddresses).Put(key, val)
	})
}

// Get 返回 (walletID, index, amount) 的记录，不存在时返回 ErrNotFound
func (l *Ledger) Get(walletID string, index uint32, amount int64) (*AddressRecord, error) {
	key, err := recordKey(walletID, index, amount)
	if err != nil {
		return nil, err
	}

	var rec *AddressRecord
	err = l.db.View(func(tx *bolt.Tx) error {
		val := tx.Bucket(bucketAddresses).Get(key)
		if val == nil {
			return errors.Wrapf(ErrNotFound, "index %d amount %d", index, amount)
		}
		rec = new(AddressRecord)
		return json.Unmarshal(val, rec)
	})
	if err != nil {
		return nil, err
	}
	return rec, nil
}

// List 返回 walletID 的全部记录，按 index 再按金额排序
// walletID 为空时列出所有钱包
func (l *Ledger) List(walletID string) ([]*AddressRecord, error) {
	var prefix []byte
	if walletID != "" {
		var err error
		prefix, err = hex.DecodeString(walletID)
		if err != nil {
			return nil, errors.Errorf("invalid wallet id %q", walletID)
		}
	}

	var out []*AddressRecord
	err := l.db.View(func(tx *bolt.Tx) error {
		c := tx.Bucket(bucketAddresses).Cursor()
		k, v := c.First()
		if len(prefix) > 0 {
			k, v = c.Seek(prefix)
		}
		for ; k != nil && bytes.HasPrefix(k, prefix); k, v = c.Next() {
			rec := new(AddressRecord)
			if err := json.Unmarshal(v, rec); err != nil {
				return errors.Wrapf(err, "corrupt record %x", k)
			}
			out = append(out, rec)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}
