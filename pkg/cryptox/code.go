package cryptox

import (
	"crypto/rand"
	"fmt"
	"io"
	"math/big"
)

// MaxCodeDigits bounds GenerateNumericCode so 10^digits fits comfortably.
const MaxCodeDigits = 12

// GenerateNumericCode returns a string of exactly digits decimal characters,
// uniform over the whole space, leading zeros included.
func GenerateNumericCode(digits int) (string, error) {
	return GenerateNumericCodeFrom(rand.Reader, digits)
}

// GenerateNumericCodeFrom is GenerateNumericCode with an explicit entropy
// source. A read failure is returned as is; there is no fallback source.
func GenerateNumericCodeFrom(src io.Reader, digits int) (string, error) {
	if digits <= 0 || digits > MaxCodeDigits {
		return "", fmt.Errorf("cryptox: code length must be in [1,%d], got %d", MaxCodeDigits, digits)
	}

	space := new(big.Int).Exp(big.NewInt(10), big.NewInt(int64(digits)), nil)
	n, err := rand.Int(src, space)
	if err != nil {
		return "", fmt.Errorf("cryptox: draw code: %w", err)
	}
	return fmt.Sprintf("%0*d", digits, n), nil
}
