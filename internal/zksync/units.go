package zksync

import (
	"math/big"
	"strings"

	"github.com/pkg/errors"
)

// FormatUnits renders an integer amount of base units as a decimal string
// with the given precision. Trailing fractional zeros are trimmed but at
// least one fractional digit is kept, so 10^18 with 18 decimals is "1.0".
func FormatUnits(amount *big.Int, decimals uint8) string {
	if amount == nil {
		amount = new(big.Int)
	}

	negative := amount.Sign() < 0
	digits := new(big.Int).Abs(amount).String()

	width := int(decimals)
	if len(digits) <= width {
		digits = strings.Repeat("0", width-len(digits)+1) + digits
	}

	integer := digits[:len(digits)-width]
	fraction := strings.TrimRight(digits[len(digits)-width:], "0")
	if fraction == "" {
		fraction = "0"
	}

	result := integer + "." + fraction
	if negative {
		result = "-" + result
	}
	return result
}

// ParseUnits is the inverse of FormatUnits: "1.5" with 18 decimals yields
// 1500000000000000000. More fractional digits than decimals is an error.
func ParseUnits(value string, decimals uint8) (*big.Int, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return nil, errors.New("empty amount")
	}

	integer, fraction, _ := strings.Cut(value, ".")
	if len(fraction) > int(decimals) {
		return nil, errors.Errorf("amount %s has more than %d fractional digits", value, decimals)
	}
	fraction += strings.Repeat("0", int(decimals)-len(fraction))

	const base10 = 10
	result, ok := new(big.Int).SetString(integer+fraction, base10)
	if !ok {
		return nil, errors.Errorf("invalid amount: %s", value)
	}
	return result, nil
}
