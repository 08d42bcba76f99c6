package settlement

import (
	"math/big"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSplitSumsToGross(t *testing.T) {
	gross := big.NewInt(1000000007)

	p := Split(gross, 250, 500)

	sum := new(big.Int).Add(p.PlatformFee, p.Royalty)
	sum.Add(sum, p.SellerProceeds)
	assert.Zero(t, gross.Cmp(sum))
}

func TestSplitFloorsCuts(t *testing.T) {
	// 333 * 250 / 10000 = 8.325 -> 8, 333 * 500 / 10000 = 16.65 -> 16
	p := Split(big.NewInt(333), 250, 500)

	assert.Equal(t, "8", p.PlatformFee.String())
	assert.Equal(t, "16", p.Royalty.String())
	assert.Equal(t, "309", p.SellerProceeds.String())
}

func TestSplitZeroRates(t *testing.T) {
	p := Split(big.NewInt(1000), 0, 0)

	assert.Equal(t, "0", p.PlatformFee.String())
	assert.Equal(t, "0", p.Royalty.String())
	assert.Equal(t, "1000", p.SellerProceeds.String())
}
