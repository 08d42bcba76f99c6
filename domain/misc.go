package domain

import (
	"math/big"
	"strings"

	"golang.org/x/xerrors"
)

var (
	Big0 = big.NewInt(0)
	Big1 = big.NewInt(1)

	// FeeDenominator is the basis-point denominator shared by the platform-fee
	// and royalty calculators. 100 bps == 1%.
	FeeDenominator = big.NewInt(10000)
)

const (
	// MaxRoyaltyBps caps per-token and per-collection royalty rates.
	MaxRoyaltyBps = int64(1000)
	// MaxPlatformFeeBps caps the configurable platform fee rate.
	MaxPlatformFeeBps = int64(1000)
	// DefaultPlatformFeeBps is the platform fee applied until the admin
	// changes it. 250 bps == 2.5%.
	DefaultPlatformFeeBps = int64(250)
)

type SortDir int8

const (
	SortDirAsc  = 1
	SortDirDesc = -1
)

type ChainId int32

type Address string

const EmptyAddress = Address("")

// FeePoolAddress is the internal ledger account accumulating platform fees.
const FeePoolAddress = Address("feepool")

// EscrowAddress is the internal ledger account holding escrowed offer and bid
// funds until they are settled or refunded.
const EscrowAddress = Address("escrow")

func (a Address) ToLower() Address {
	return Address(strings.ToLower(string(a)))
}

func (a Address) ToLowerPtr() *Address {
	res := a.ToLower()
	return &res
}

func (a Address) ToLowerStr() string {
	return strings.ToLower(string(a))
}

func (a Address) IsEmpty() bool {
	return len(a) == 0
}

func (a Address) Equals(b Address) bool {
	return a.ToLowerStr() == b.ToLowerStr()
}

type TokenId string

func (i TokenId) String() string {
	return string(i)
}

// ParseAmount parses a decimal wei string into a big integer. Amounts are
// persisted as strings and converted only at calculation boundaries.
func ParseAmount(s string) (*big.Int, error) {
	v, ok := new(big.Int).SetString(s, 10)
	if !ok {
		return nil, xerrors.Errorf("invalid amount %q: %w", s, ErrInvalidNumberFormat)
	}
	if v.Sign() < 0 {
		return nil, xerrors.Errorf("negative amount %q: %w", s, ErrInvalidNumberFormat)
	}
	return v, nil
}
