package code

import (
	"crypto/rand"
	"fmt"
	"math/big"
)

// Generate returns a random decimal string of exactly length digits,
// zero-padded, drawn uniformly from [0, 10^length). The random source is
// crypto/rand — a predictable code here is an authentication bypass.
// Panics if length <= 0: that is a programming error, not a runtime condition.
func Generate(length int) string {
	if length <= 0 {
		panic(fmt.Sprintf("code: invalid length %d", length))
	}
	upper := new(big.Int).Exp(big.NewInt(10), big.NewInt(int64(length)), nil)
	n, err := rand.Int(rand.Reader, upper)
	if err != nil {
		panic("code: crypto/rand unavailable: " + err.Error())
	}
	return fmt.Sprintf("%0*d", length, n)
}
