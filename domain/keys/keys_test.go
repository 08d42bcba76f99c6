package keys

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRedisKey(t *testing.T) {
	assert.Equal(t, "a:b:c", RedisKey("a", "b", "c"))
}

func TestAssetLockKey(t *testing.T) {
	assert.Equal(t, "asset:0xabc:1", AssetLockKey("0xabc", "1"))
	// listings and auctions must land on the same key regardless of casing
	assert.Equal(t, AssetLockKey("0xAbC", "1"), AssetLockKey("0xabc", "1"))
}

func TestGetPrefix(t *testing.T) {
	assert.Equal(t, "a:b", GetPrefix("a:b:c"))
	assert.Equal(t, "a", GetPrefix("a:b"))
	assert.Equal(t, "", GetPrefix("a"))
}
