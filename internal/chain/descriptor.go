package chain

import (
	"strings"

	"github.com/pkg/errors"
)

// Output descriptor checksum (BIP-380): a BCH code over the descriptor's
// characters, each mapped to a 5-bit symbol plus a group class.

const (
	descInputCharset    = "0123456789()[],'/*abcdefgh@:$%{}IJKLMNOPQRSTUVWXYZ&+-.;<=>?!^_|~ijklmnopqrstuvwxyzABCDEFGH`#\"\\ "
	descChecksumCharset = "qpzry9x8gf2tvdw0s3jn54khce6mua7l"
	descChecksumLength  = 8
)

var descGenerator = [5]uint64{0xf5dee51989, 0xa9fdca3312, 0x1bab10e32d, 0x3706b1677a, 0x644d626ffd}

func descPolyMod(c, val uint64) uint64 {
	c0 := c >> 35
	c = ((c & 0x7ffffffff) << 5) ^ val
	for i, g := range descGenerator {
		if (c0>>uint(i))&1 != 0 {
			c ^= g
		}
	}
	return c
}

// DescriptorChecksum 计算 desc 的 8 字符校验和（不校验描述符本身）
func DescriptorChecksum(desc string) (string, error) {
	c := uint64(1)
	cls, clsCount := uint64(0), 0

	for _, ch := range desc {
		pos := strings.IndexRune(descInputCharset, ch)
		if pos < 0 {
			return "", errors.Errorf("invalid descriptor character %q", ch)
		}
		c = descPolyMod(c, uint64(pos)&31)
		cls = cls*3 + uint64(pos)>>5
		clsCount++
		if clsCount == 3 {
			c = descPolyMod(c, cls)
			cls, clsCount = 0, 0
		}
	}
	if clsCount > 0 {
		c = descPolyMod(c, cls)
	}
	for i := 0; i < descChecksumLength; i++ {
		c = descPolyMod(c, 0)
	}
	c ^= 1

	var sb strings.Builder
	for j := 0; j < descChecksumLength; j++ {
		sb.WriteByte(descChecksumCharset[(c>>(5*(7-uint(j))))&31])
	}
	return sb.String(), nil
}

// AddDescriptorChecksum 在 desc 末尾追加 "#checksum"
func AddDescriptorChecksum(desc string) (string, error) {
	sum, err := DescriptorChecksum(desc)
	if err != nil {
		return "", err
	}
	return desc + "#" + sum, nil
}
