package code

import (
	"crypto/rand"
	"fmt"
	"math/big"
)

// Generate returns a decimal code of exactly n digits, uniformly distributed
// over [10^(n-1), 10^n - 1]. The leading digit is never zero so the code
// survives integer round-trips.
func Generate(n int) (string, error) {
	if n < 1 {
		return "", fmt.Errorf("code length must be positive, got %d", n)
	}
	lower := new(big.Int).Exp(big.NewInt(10), big.NewInt(int64(n-1)), nil)
	upper := new(big.Int).Exp(big.NewInt(10), big.NewInt(int64(n)), nil)
	span := new(big.Int).Sub(upper, lower)

	r, err := rand.Int(rand.Reader, span)
	if err != nil {
		return "", fmt.Errorf("generate code: %w", err)
	}
	return r.Add(r, lower).String(), nil
}
