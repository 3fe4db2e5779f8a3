package money

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	_ "github.com/meridian-erp/meridian-erp/testing"
)

func TestRound2(t *testing.T) {
	require.Equal(t, "113.33", Round2(decimal.RequireFromString("113.3333")).StringFixed(2))
	require.Equal(t, "113.34", Round2(decimal.RequireFromString("113.335")).StringFixed(2))
	require.Equal(t, "-5.50", Round2(decimal.RequireFromString("-5.499")).StringFixed(2))
}

func TestWithinEpsilon(t *testing.T) {
	a := decimal.RequireFromString("1000.0005")
	b := decimal.NewFromInt(1000)
	require.True(t, WithinEpsilon(a, b))
	require.True(t, WithinEpsilon(b, a))

	// The tolerance is exclusive at exactly Epsilon.
	c := decimal.RequireFromString("1000.001")
	require.False(t, WithinEpsilon(c, b))
	require.False(t, WithinEpsilon(b, decimal.RequireFromString("1000.01")))
}

func TestSafeDiv(t *testing.T) {
	require.True(t, SafeDiv(decimal.NewFromInt(3400), decimal.NewFromInt(30)).Round(2).Equal(decimal.RequireFromString("113.33")))
	require.True(t, SafeDiv(decimal.NewFromInt(10), decimal.Zero).IsZero())
}
