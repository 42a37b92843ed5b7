package store

import (
	"bufio"
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/kashguard/go-recovery-wallet/internal/backup"
	"github.com/kashguard/go-recovery-wallet/internal/util/memzero"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
)

const (
	ownerBackupFilename = "owner-backup.json.enc"
	ownerBackupKind     = "owner-backup"
	shareFilePattern    = "recovery-share-%03d.txt"
)

// BackupFileStore 在同一目录中保存加密的 owner 备份和分片文件
type BackupFileStore struct {
	dir string
	kdf ScryptParams
	mu  sync.Mutex
}

func NewBackupFileStore(dir string, kdf ScryptParams) *BackupFileStore {
	return &BackupFileStore{dir: dir, kdf: kdf}
}

func (s *BackupFileStore) OwnerBackupPath() string {
	return filepath.Join(s.dir, ownerBackupFilename)
}

// SaveOwnerBackup 用口令加密保存 owner 备份
func (s *BackupFileStore) SaveOwnerBackup(passphrase string, ob *backup.OwnerBackup) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	raw, err := backup.EncodeOwnerBackup(ob)
	if err != nil {
		return err
	}
	defer memzero.Zero(raw)

	ct, err := seal(ownerBackupKind, passphrase, raw, s.kdf)
	if err != nil {
		return err
	}

	path := s.OwnerBackupPath()
	if err := writeFile(path, ct, 0o600); err != nil {
		return err
	}

	log.Info().Str("path", path).Msg("Saved encrypted owner backup")
	return nil
}

// LoadOwnerBackup 解密并解码 owner 备份
func (s *BackupFileStore) LoadOwnerBackup(passphrase string) (*backup.OwnerBackup, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	b, err := os.ReadFile(s.OwnerBackupPath())
	if err != nil {
		return nil, errors.Wrap(err, "failed to read owner backup")
	}

	raw, err := open(ownerBackupKind, passphrase, b)
	if err != nil {
		return nil, err
	}
	defer memzero.Zero(raw)

	return backup.DecodeOwnerBackup(raw)
}

// SaveShares 每个分片写一个文件（标签注释加分片 hex）
// 按分片顺序返回写入的路径
func (s *BackupFileStore) SaveShares(params backup.RecoveryParams, shares []backup.RecoveryShare) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	paths := make([]string, 0, len(shares))
	for _, share := range shares {
		encoded, err := backup.EncodeShareHex(share)
		if err != nil {
			return nil, err
		}

		var buf bytes.Buffer
		fmt.Fprintf(&buf, "# %s\n%s\n", share.Label(params.NeededShares, params.TotalShares), encoded)

		path := filepath.Join(s.dir, fmt.Sprintf(shareFilePattern, share.Index))
		if err := writeFile(path, buf.Bytes(), 0o600); err != nil {
			return nil, err
		}
		paths = append(paths, path)
	}

	log.Info().Int("shares", len(paths)).Str("dir", s.dir).Msg("Saved recovery shares")
	return paths, nil
}

// ListShareFiles 返回存储目录中已排序的分片文件
func (s *BackupFileStore) ListShareFiles() ([]string, error) {
	paths, err := filepath.Glob(filepath.Join(s.dir, "recovery-share-*.txt"))
	if err != nil {
		return nil, errors.Wrap(err, "failed to list share files")
	}
	sort.Strings(paths)
	return paths, nil
}

// ReadShareFile 解析分片文件
// 跳过空行和以 '#' 开头的行，第一行有效内容即分片 hex
func ReadShareFile(path string) (backup.RecoveryShare, error) {
	f, err := os.Open(path)
	if err != nil {
		return backup.RecoveryShare{}, errors.Wrapf(err, "failed to open %s", path)
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		share, err := backup.DecodeShareHex(line)
		if err != nil {
			return backup.RecoveryShare{}, errors.Wrapf(err, "share file %s", path)
		}
		return share, nil
	}
	if err := scanner.Err(); err != nil {
		return backup.RecoveryShare{}, errors.Wrapf(err, "failed to read %s", path)
	}

	return backup.RecoveryShare{}, errors.Wrapf(backup.ErrMalformedBackup, "no share in %s", path)
}
