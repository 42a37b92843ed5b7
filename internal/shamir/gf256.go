package shamir

// Arithmetic over GF(2^8) with the AES reduction polynomial x^8+x^4+x^3+x+1
// (0x11b). Addition and subtraction are both XOR. Multiplication and division
// go through log/exp tables built from the generator 0x03.

var (
	expTable [510]byte
	logTable [256]byte
)

func init() {
	x := byte(1)
	for i := 0; i < 255; i++ {
		expTable[i] = x
		logTable[x] = byte(i)
		x ^= xtime(x)
	}
	// doubled so mul never needs a modulo
	for i := 255; i < len(expTable); i++ {
		expTable[i] = expTable[i-255]
	}
}

// xtime multiplies b by x (0x02) modulo 0x11b.
func xtime(b byte) byte {
	if b&0x80 != 0 {
		return (b << 1) ^ 0x1b
	}
	return b << 1
}

func gfAdd(a, b byte) byte {
	return a ^ b
}

func gfMul(a, b byte) byte {
	if a == 0 || b == 0 {
		return 0
	}
	return expTable[int(logTable[a])+int(logTable[b])]
}

// gfDiv panics on b == 0; callers guarantee distinct, non-zero x coordinates.
func gfDiv(a, b byte) byte {
	if b == 0 {
		panic("shamir: division by zero in GF(256)")
	}
	if a == 0 {
		return 0
	}
	return expTable[int(logTable[a])+255-int(logTable[b])]
}

// evaluate computes the polynomial with the given coefficients (constant term
// first) at x using Horner's method.
func evaluate(coeffs []byte, x byte) byte {
	var result byte
	for i := len(coeffs) - 1; i >= 0; i-- {
		result = gfAdd(gfMul(result, x), coeffs[i])
	}
	return result
}
