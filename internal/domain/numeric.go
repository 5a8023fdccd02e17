package domain

import (
	"encoding/json"
	"fmt"
	"math/big"
)

// maxU256 is 2^256 - 1, the largest amount the settlement contract can
// represent.
var maxU256 = new(big.Int).Sub(new(big.Int).Lsh(big.NewInt(1), 256), big.NewInt(1))

// U256 is a non-negative 256-bit integer amount. On the wire it is a base-10
// decimal string, matching the settlement contract's uint256 accounting.
//
// The zero value is ready to use and represents 0.
type U256 struct {
	v big.Int
}

// NewU256 validates that v is non-negative and fits in 256 bits and returns
// it as a U256. The value is copied; the caller keeps ownership of v.
func NewU256(v *big.Int) (U256, error) {
	if v == nil {
		return U256{}, fmt.Errorf("domain: nil amount")
	}
	if v.Sign() < 0 {
		return U256{}, fmt.Errorf("domain: negative amount %s", v)
	}
	if v.Cmp(maxU256) > 0 {
		return U256{}, fmt.Errorf("domain: amount %s overflows 256 bits", v)
	}
	var u U256
	u.v.Set(v)
	return u, nil
}

// MustU256 is NewU256 for values already range-checked by the caller. It
// panics on violation.
func MustU256(v *big.Int) U256 {
	u, err := NewU256(v)
	if err != nil {
		panic(err)
	}
	return u
}

// U256FromUint64 converts a uint64, which always fits.
func U256FromUint64(v uint64) U256 {
	var u U256
	u.v.SetUint64(v)
	return u
}

// ParseU256 parses a base-10 decimal string.
func ParseU256(s string) (U256, error) {
	v, ok := new(big.Int).SetString(s, 10)
	if !ok {
		return U256{}, fmt.Errorf("domain: invalid decimal amount %q", s)
	}
	return NewU256(v)
}

// Big returns a copy of the value as a big.Int.
func (u U256) Big() *big.Int {
	return new(big.Int).Set(&u.v)
}

// Cmp compares u and o, returning -1, 0 or +1.
func (u U256) Cmp(o U256) int {
	return u.v.Cmp(&o.v)
}

// IsZero reports whether the amount is 0.
func (u U256) IsZero() bool {
	return u.v.Sign() == 0
}

func (u U256) String() string {
	return u.v.String()
}

// MarshalJSON renders the amount as a quoted decimal string.
func (u U256) MarshalJSON() ([]byte, error) {
	return json.Marshal(u.v.String())
}

// UnmarshalJSON parses a quoted decimal string and enforces the 256-bit
// range at the input boundary, so later arithmetic never has to.
func (u *U256) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return fmt.Errorf("domain: amount must be a decimal string: %w", err)
	}
	parsed, err := ParseU256(s)
	if err != nil {
		return err
	}
	u.v.Set(&parsed.v)
	return nil
}
