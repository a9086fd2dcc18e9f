package common

import (
	"crypto/rand"
	"math/big"
	"strings"
)

// RandomDigits returns a string of n cryptographically random decimal digits.
func RandomDigits(n int) (string, error) {
	var sb strings.Builder
	sb.Grow(n)
	ten := big.NewInt(10)
	for i := 0; i < n; i++ {
		d, err := rand.Int(rand.Reader, ten)
		if err != nil {
			return "", err
		}
		sb.WriteByte(byte('0' + d.Int64()))
	}
	return sb.String(), nil
}

// WipeByteArray overwrites the contents of the provided byte slice with zeros.
// Use it to drop passwords from memory once they are no longer needed.
//
// If the slice is nil, the function does nothing.
func WipeByteArray(b []byte) {
	if b == nil {
		return
	}
	for i := range b {
		b[i] = 0
	}
}
