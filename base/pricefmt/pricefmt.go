package pricefmt

import (
	"math/big"

	"github.com/shopspring/decimal"
	"golang.org/x/xerrors"
)

// TokenDecimals is the scale of the payment token. Ledger amounts are wei,
// display prices are whole tokens.
const TokenDecimals = 18

// ToDisplay renders a wei amount as a whole-token decimal string.
func ToDisplay(value *big.Int) string {
	return decimal.NewFromBigInt(value, -TokenDecimals).String()
}

// FromDisplay parses a whole-token decimal string into wei. Fractions finer
// than the token scale are rejected rather than silently truncated.
func FromDisplay(s string) (*big.Int, error) {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return nil, xerrors.Errorf("parse display price %q: %w", s, err)
	}
	shifted := d.Shift(TokenDecimals)
	if !shifted.IsInteger() {
		return nil, xerrors.Errorf("display price %q has too many decimal places", s)
	}
	return shifted.BigInt(), nil
}
