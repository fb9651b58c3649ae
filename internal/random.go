package internal

import (
	"crypto/rand"
	"errors"
	"math/big"
	"strings"
)

// NewNumericCode returns a cryptographically random numeric code of exactly
// the requested number of digits. Leading zeros are preserved because the
// code is built digit by digit, never formatted from an integer.
func NewNumericCode(digits int) (string, error) {
	if digits < 4 || digits > 10 {
		return "", errors.New("invalid code digits")
	}

	var b strings.Builder
	b.Grow(digits)

	max := big.NewInt(10)
	for i := 0; i < digits; i++ {
		n, err := rand.Int(rand.Reader, max)
		if err != nil {
			return "", err
		}
		b.WriteByte(byte('0' + n.Int64()))
	}

	return b.String(), nil
}
