package zksync

import (
	"encoding/json"
	"math/big"

	"github.com/pkg/errors"
)

// BigUint is an arbitrary precision integer that travels as a decimal
// string. Bare JSON numbers are accepted on input.
type BigUint struct {
	v *big.Int
}

func NewBigUint(v *big.Int) BigUint {
	if v == nil {
		return BigUint{}
	}
	return BigUint{v: new(big.Int).Set(v)}
}

// Int returns a copy of the value; the zero value yields 0.
func (b BigUint) Int() *big.Int {
	if b.v == nil {
		return new(big.Int)
	}
	return new(big.Int).Set(b.v)
}

func (b BigUint) String() string {
	return b.Int().String()
}

func (b BigUint) MarshalJSON() ([]byte, error) {
	return json.Marshal(b.String())
}

func (b *BigUint) UnmarshalJSON(data []byte) error {
	var s string
	if len(data) > 0 && data[0] == '"' {
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
	} else {
		var n json.Number
		if err := json.Unmarshal(data, &n); err != nil {
			return errors.Wrap(err, "expected a decimal integer")
		}
		s = n.String()
	}

	v, err := ParseBigInt(s)
	if err != nil {
		return err
	}
	if v.Sign() < 0 {
		return errors.Errorf("negative value %s", s)
	}
	b.v = v
	return nil
}
