package chain

import (
	"strings"

	"github.com/btcsuite/btcd/btcec/v2"
	"github.com/btcsuite/btcd/btcec/v2/schnorr"
	"github.com/btcsuite/btcd/btcutil"
	"github.com/btcsuite/btcd/chaincfg"
	"github.com/btcsuite/btcd/txscript"
	"github.com/pkg/errors"
)

var ErrUnknownNetwork = errors.New("unknown network")

// NetworkNames 支持的网络标识
var NetworkNames = []string{"mainnet", "testnet3", "signet", "regtest", "simnet"}

// NetworkParams 根据网络标识返回链参数
func NetworkParams(name string) (*chaincfg.Params, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "mainnet", "bitcoin":
		return &chaincfg.MainNetParams, nil
	case "testnet3", "testnet":
		return &chaincfg.TestNet3Params, nil
	case "signet":
		return &chaincfg.SigNetParams, nil
	case "regtest":
		return &chaincfg.RegressionNetParams, nil
	case "simnet":
		return &chaincfg.SimNetParams, nil
	default:
		return nil, errors.Wrapf(ErrUnknownNetwork, "%q (expected one of %s)", name, strings.Join(NetworkNames, ", "))
	}
}

// BitcoinAdapter Bitcoin 适配器，按网络编码密钥和输出
type BitcoinAdapter struct {
	params *chaincfg.Params
}

// NewBitcoinAdapter 创建一个 Bitcoin 适配器，params 为 nil 时使用主网
func NewBitcoinAdapter(params *chaincfg.Params) *BitcoinAdapter {
	if params == nil {
		params = &chaincfg.MainNetParams
	}
	return &BitcoinAdapter{params: params}
}

func (a *BitcoinAdapter) Params() *chaincfg.Params {
	return a.params
}

// TaprootAddress 返回支付到 outputKey 的 P2TR (bech32m) 地址
func (a *BitcoinAdapter) TaprootAddress(outputKey *btcec.PublicKey) (*btcutil.AddressTaproot, error) {
	if outputKey == nil {
		return nil, errors.New("output key is required")
	}

	addr, err := btcutil.NewAddressTaproot(schnorr.SerializePubKey(outputKey), a.params)
	if err != nil {
		return nil, errors.Wrap(err, "failed to create taproot address")
	}
	return addr, nil
}

// PkScript 返回 outputKey 的 witness v1 输出脚本
func (a *BitcoinAdapter) PkScript(outputKey *btcec.PublicKey) ([]byte, error) {
	script, err := txscript.PayToTaprootScript(outputKey)
	if err != nil {
		return nil, errors.Wrap(err, "failed to create taproot script")
	}
	return script, nil
}

// WIF 以压缩格式编码私钥
func (a *BitcoinAdapter) WIF(priv *btcec.PrivateKey) (*btcutil.WIF, error) {
	wif, err := btcutil.NewWIF(priv, a.params, true)
	if err != nil {
		return nil, errors.Wrap(err, "failed to encode WIF")
	}
	return wif, nil
}

// RawTrDescriptor 返回 "rawtr(WIF)#checksum"
// 密钥直接作为输出密钥使用，priv 必须已经包含 taproot tweak
func (a *BitcoinAdapter) RawTrDescriptor(priv *btcec.PrivateKey) (string, error) {
	wif, err := a.WIF(priv)
	if err != nil {
		return "", err
	}
	return AddDescriptorChecksum("rawtr(" + wif.String() + ")")
}
