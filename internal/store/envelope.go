package store

import (
	"crypto/rand"
	"encoding/json"

	"github.com/kashguard/go-recovery-wallet/internal/util/memzero"
	"github.com/pkg/errors"
	"golang.org/x/crypto/chacha20poly1305"
	"golang.org/x/crypto/scrypt"
)

// envelopeVersion is the newest on-disk envelope format this package reads.
const envelopeVersion = 1

var ErrWrongPassphrase = errors.New("wrong passphrase or corrupted file")

// envelope is the JSON document holding a passphrase-encrypted payload.
type envelope struct {
	V      int    `json:"v"`
	Kind   string `json:"kind"`
	Salt   []byte `json:"salt"`
	N      int    `json:"scrypt_N"`
	R      int    `json:"scrypt_r"`
	P      int    `json:"scrypt_p"`
	Cipher []byte `json:"cipher"`
}

// ScryptParams 密钥派生参数，测试中会调低 N
type ScryptParams struct {
	N, R, P int
}

const (
	maxScryptN      = 1 << 20
	maxScryptR      = 32
	maxScryptP      = 16
	maxScryptMemory = 1 << 30 // bytes, 128*N*r
)

func DefaultScryptParams() ScryptParams {
	return ScryptParams{N: 1 << 15, R: 8, P: 1}
}

// Validate 检查代价参数上限，防止被篡改的文件让 open 无限制地分配内存
func (p ScryptParams) Validate() error {
	if p.N < 2 || p.N > maxScryptN || p.N&(p.N-1) != 0 {
		return errors.Errorf("scrypt N must be a power of two in [2, %d], got %d", maxScryptN, p.N)
	}
	if p.R < 1 || p.R > maxScryptR {
		return errors.Errorf("scrypt r must be in [1, %d], got %d", maxScryptR, p.R)
	}
	if p.P < 1 || p.P > maxScryptP {
		return errors.Errorf("scrypt p must be in [1, %d], got %d", maxScryptP, p.P)
	}
	if 128*uint64(p.N)*uint64(p.R) > maxScryptMemory {
		return errors.Errorf("scrypt N=%d r=%d needs more than %d bytes", p.N, p.R, maxScryptMemory)
	}
	return nil
}

// seal encrypts raw under a key derived from passphrase. The kind is bound as
// associated data together with the salt.
func seal(kind, passphrase string, raw []byte, kdf ScryptParams) ([]byte, error) {
	if passphrase == "" {
		return nil, errors.New("passphrase is required")
	}
	if err := kdf.Validate(); err != nil {
		return nil, err
	}

	var salt [16]byte
	if _, err := rand.Read(salt[:]); err != nil {
		return nil, errors.Wrap(err, "failed to read salt")
	}

	key, err := scrypt.Key([]byte(passphrase), salt[:], kdf.N, kdf.R, kdf.P, chacha20poly1305.KeySize)
	if err != nil {
		return nil, errors.Wrap(err, "failed to derive key")
	}
	defer memzero.Zero(key)

	aead, err := chacha20poly1305.New(key)
	if err != nil {
		return nil, errors.Wrap(err, "failed to init cipher")
	}

	// zero nonce, the salt makes every key single use
	var nonce [chacha20poly1305.NonceSize]byte
	ct := aead.Seal(nil, nonce[:], raw, associatedData(kind, salt[:]))

	return json.MarshalIndent(envelope{
		V:      envelopeVersion,
		Kind:   kind,
		Salt:   salt[:],
		N:      kdf.N,
		R:      kdf.R,
		P:      kdf.P,
		Cipher: ct,
	}, "", "  ")
}

// open decrypts an envelope of the given kind.
func open(kind, passphrase string, b []byte) ([]byte, error) {
	var env envelope
	if err := json.Unmarshal(b, &env); err != nil {
		return nil, errors.Wrap(err, "failed to parse envelope")
	}
	if env.V > envelopeVersion {
		return nil, errors.Errorf("unsupported envelope version %d", env.V)
	}
	if env.Kind != kind {
		return nil, errors.Errorf("envelope holds %q, expected %q", env.Kind, kind)
	}
	if err := (ScryptParams{N: env.N, R: env.R, P: env.P}).Validate(); err != nil {
		return nil, errors.Wrap(err, "envelope key derivation")
	}

	key, err := scrypt.Key([]byte(passphrase), env.Salt, env.N, env.R, env.P, chacha20poly1305.KeySize)
	if err != nil {
		return nil, errors.Wrap(err, "failed to derive key")
	}
	defer memzero.Zero(key)

	aead, err := chacha20poly1305.New(key)
	if err != nil {
		return nil, errors.Wrap(err, "failed to init cipher")
	}

	var nonce [chacha20poly1305.NonceSize]byte
	pt, err := aead.Open(nil, nonce[:], env.Cipher, associatedData(kind, env.Salt))
	if err != nil {
		return nil, ErrWrongPassphrase
	}
	return pt, nil
}

func associatedData(kind string, salt []byte) []byte {
	return append([]byte(kind+":"), salt...)
}
