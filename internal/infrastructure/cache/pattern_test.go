package cache_test

import (
	"testing"

	"github.com/lazy-geeek/liqui-api/internal/infrastructure/cache"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPatternMatchesLikeRedis(t *testing.T) {
	cases := []struct {
		pattern string
		key     string
		want    bool
	}{
		{"*", "liq:btc/usdt:1", true},
		{"liq:*", "liq:a/b:c/d", true},
		{"liq:?:1", "liq:/:1", true},
		{"liq:btc:*", "liq:eth:1", false},
		{"liq:btc:*", "orders:btc:1", false},
		{`a\*b`, "a*b", true},
		{`a\*b`, "axb", false},
		{`\[x\]`, "[x]", true},
		{"k[0-9]", "k7", true},
		{"k[9-0]", "k7", true},
		{"k[^0-9]", "k7", false},
		{"k[^0-9]", "kz", true},
		{"k[ab]", "kc", false},
		{"k[a", "ka", true},
		{"k[]", "k", false},
		{"k.x", "kyx", false},
	}
	for _, tc := range cases {
		got, err := cache.MatchPattern(tc.pattern, tc.key)
		require.NoError(t, err, tc.pattern)
		assert.Equal(t, tc.want, got, "%s ~ %s", tc.pattern, tc.key)
	}
}

func TestPatternIsAnchored(t *testing.T) {
	p, err := cache.CompilePattern("btc")
	require.NoError(t, err)

	assert.True(t, p.Match("btc"))
	assert.False(t, p.Match("xbtc"))
	assert.False(t, p.Match("btcusdt"))
}
