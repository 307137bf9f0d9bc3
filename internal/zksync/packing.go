package zksync

import (
	"math/big"

	"github.com/pkg/errors"
)

// Amounts and fees travel in a compact decimal floating point form:
// mantissa * 10^exponent, stored big-endian as mantissa<<expBits | exponent.
const (
	AmountExponentBitWidth = 5
	AmountMantissaBitWidth = 35
	FeeExponentBitWidth    = 5
	FeeMantissaBitWidth    = 11
)

var ErrNotPackable = errors.New("value is not packable")

var bigTen = big.NewInt(10)

// PackAmount packs a transfer amount into 5 bytes.
func PackAmount(amount *big.Int) ([]byte, error) {
	return packDecimal(amount, AmountExponentBitWidth, AmountMantissaBitWidth)
}

// PackFee packs a fee into 2 bytes.
func PackFee(fee *big.Int) ([]byte, error) {
	return packDecimal(fee, FeeExponentBitWidth, FeeMantissaBitWidth)
}

// UnpackAmount reverses PackAmount.
func UnpackAmount(packed []byte) (*big.Int, error) {
	return unpackDecimal(packed, AmountExponentBitWidth, AmountMantissaBitWidth)
}

// UnpackFee reverses PackFee.
func UnpackFee(packed []byte) (*big.Int, error) {
	return unpackDecimal(packed, FeeExponentBitWidth, FeeMantissaBitWidth)
}

func IsAmountPackable(amount *big.Int) bool {
	_, err := PackAmount(amount)
	return err == nil
}

func IsFeePackable(fee *big.Int) bool {
	_, err := PackFee(fee)
	return err == nil
}

// ClosestPackableAmount rounds an amount down to the nearest packable value.
func ClosestPackableAmount(amount *big.Int) *big.Int {
	return closestPackable(amount, AmountExponentBitWidth, AmountMantissaBitWidth)
}

// ClosestPackableFee rounds a fee down to the nearest packable value.
func ClosestPackableFee(fee *big.Int) *big.Int {
	return closestPackable(fee, FeeExponentBitWidth, FeeMantissaBitWidth)
}

func packDecimal(value *big.Int, expBits uint, mantBits uint) ([]byte, error) {
	if value == nil || value.Sign() < 0 {
		return nil, errors.Wrap(ErrNotPackable, "value must be non-negative")
	}

	maxMantissa := new(big.Int).Lsh(big.NewInt(1), mantBits)
	maxExponent := uint64(1)<<expBits - 1

	mantissa := new(big.Int).Set(value)
	remainder := new(big.Int)
	var exponent uint64
	for mantissa.Cmp(maxMantissa) >= 0 {
		mantissa.QuoRem(mantissa, bigTen, remainder)
		if remainder.Sign() != 0 {
			return nil, errors.Wrapf(ErrNotPackable, "%s loses precision", value)
		}
		exponent++
		if exponent > maxExponent {
			return nil, errors.Wrapf(ErrNotPackable, "%s exceeds the maximum exponent", value)
		}
	}

	encoded := new(big.Int).Lsh(mantissa, expBits)
	encoded.Or(encoded, new(big.Int).SetUint64(exponent))

	out := make([]byte, (expBits+mantBits)/8)
	encoded.FillBytes(out)
	return out, nil
}

func unpackDecimal(packed []byte, expBits uint, mantBits uint) (*big.Int, error) {
	if len(packed) != int((expBits+mantBits)/8) {
		return nil, errors.Errorf("packed value must be %d bytes, got %d", (expBits+mantBits)/8, len(packed))
	}

	encoded := new(big.Int).SetBytes(packed)
	exponentMask := big.NewInt(int64(1)<<expBits - 1)
	exponent := new(big.Int).And(encoded, exponentMask)
	mantissa := new(big.Int).Rsh(encoded, expBits)

	scale := new(big.Int).Exp(bigTen, exponent, nil)
	return mantissa.Mul(mantissa, scale), nil
}

func closestPackable(value *big.Int, expBits uint, mantBits uint) *big.Int {
	if value == nil || value.Sign() <= 0 {
		return new(big.Int)
	}

	maxMantissa := new(big.Int).Lsh(big.NewInt(1), mantBits)
	maxExponent := int64(1)<<expBits - 1

	mantissa := new(big.Int).Set(value)
	var exponent int64
	for mantissa.Cmp(maxMantissa) >= 0 && exponent < maxExponent {
		mantissa.Quo(mantissa, bigTen)
		exponent++
	}
	if mantissa.Cmp(maxMantissa) >= 0 {
		mantissa.Sub(maxMantissa, big.NewInt(1))
	}

	scale := new(big.Int).Exp(bigTen, big.NewInt(exponent), nil)
	return mantissa.Mul(mantissa, scale)
}
