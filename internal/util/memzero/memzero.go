// Package memzero wipes seeds, keys and decoded backups once they go out of
// scope.
package memzero

import "runtime"

// Zero overwrites b with zeros.
func Zero(b []byte) {
	clear(b)
	runtime.KeepAlive(b)
}

// Zero32 wipes a 32-byte secret in place, such as a seed or a scalar. A nil
// pointer is a no-op.
func Zero32(a *[32]byte) {
	if a == nil {
		return
	}
	Zero(a[:])
}
