package settlement

import (
	"math/big"

	"github.com/nfthaus/goapi/domain"
)

// Proceeds is the three-way split of a gross sale price. The three cuts
// always sum to exactly the gross price; truncation remainders accrue to the
// seller.
type Proceeds struct {
	PlatformFee    *big.Int
	Royalty        *big.Int
	SellerProceeds *big.Int
}

func cut(gross *big.Int, bps int64) *big.Int {
	c := new(big.Int).Mul(gross, big.NewInt(bps))
	return c.Div(c, domain.FeeDenominator)
}

// Split computes the fee/royalty/seller split with floor division. Rates are
// trusted to be within their ceilings by the callers that loaded them, which
// also bounds PlatformFee+Royalty below gross.
func Split(gross *big.Int, platformFeeBps, royaltyBps int64) Proceeds {
	platformFee := cut(gross, platformFeeBps)
	royalty := cut(gross, royaltyBps)
	seller := new(big.Int).Sub(gross, platformFee)
	seller.Sub(seller, royalty)
	return Proceeds{
		PlatformFee:    platformFee,
		Royalty:        royalty,
		SellerProceeds: seller,
	}
}
