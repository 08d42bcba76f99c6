package pricefmt

import (
	"math/big"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestToDisplay(t *testing.T) {
	wei, ok := new(big.Int).SetString("1500000000000000000", 10)
	require.True(t, ok)
	assert.Equal(t, "1.5", ToDisplay(wei))
	assert.Equal(t, "0", ToDisplay(big.NewInt(0)))

	tiny := big.NewInt(1)
	assert.Equal(t, "0.000000000000000001", ToDisplay(tiny))
}

func TestFromDisplay(t *testing.T) {
	wei, err := FromDisplay("1.5")
	require.NoError(t, err)
	assert.Equal(t, "1500000000000000000", wei.String())

	_, err = FromDisplay("not-a-number")
	assert.Error(t, err)

	// finer than wei
	_, err = FromDisplay("0.0000000000000000001")
	assert.Error(t, err)
}

func TestRoundTrip(t *testing.T) {
	wei, err := FromDisplay("42.000000000000000001")
	require.NoError(t, err)
	assert.Equal(t, "42.000000000000000001", ToDisplay(wei))
}
