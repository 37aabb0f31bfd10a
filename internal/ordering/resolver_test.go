package ordering

import (
	"math/big"
	"testing"

	"github.com/stretchr/testify/require"

	"positionScope/internal/model"
	"positionScope/internal/univ3"
)

var (
	dai   = model.TokenMeta{Address: "0x6B175474E89094C44Da98b954EedeAC495271d0F", Decimals: 18, Symbol: "DAI"}
	usdc  = model.TokenMeta{Address: "0xA0b86991c6218b36c1d19D4a2e9Eb0cE3606eB48", Decimals: 6, Symbol: "USDC"}
	weth  = model.TokenMeta{Address: "0xC02aaA39b223FE8D0A0e5C4F27eAD9083C756Cc2", Decimals: 18, Symbol: "WETH"}
	uni   = model.TokenMeta{Address: "0x1f9840a85d5aF5bf1D1762F925BDADdC4201F984", Decimals: 18, Symbol: "UNI"}
	alpha = model.TokenMeta{Address: "0x1111111111111111111111111111111111111111", Decimals: 18, Symbol: "ALPHA"}
	beta  = model.TokenMeta{Address: "0x2222222222222222222222222222222222222222", Decimals: 8, Symbol: "BETA"}
	omega = model.TokenMeta{Address: "0xffffffffffffffffffffffffffffffffffffffff", Decimals: 18, Symbol: "OMEGA"}
)

func newPosition(t *testing.T, token0, token1 model.TokenMeta, fee uint32, tickLower, tickUpper int32) *univ3.Position {
	t.Helper()
	pool, err := univ3.NewPoolAtTick(token0, token1, fee, tickLower)
	require.NoError(t, err)
	pos, err := univ3.NewPosition(pool, big.NewInt(1_000_000), tickLower, tickUpper)
	require.NoError(t, err)
	return pos
}

func TestResolveNilPosition(t *testing.T) {
	got, ok := Resolve(nil, DefaultClassification())
	require.False(t, ok)
	require.False(t, got.Available())
	require.Equal(t, DisplayOrdering{}, got)
}

func TestResolveStableToken0IsQuote(t *testing.T) {
	pos := newPosition(t, usdc, weth, univ3.FeeLow, 199000, 201000)
	require.False(t, pos.Token0PriceUpper().LessThanOne())

	got, ok := Resolve(pos, DefaultClassification())
	require.True(t, ok)
	require.Equal(t, RuleStableQuote, got.Rule)
	require.True(t, got.Inverted)
	require.Equal(t, "WETH", got.Base.Symbol)
	require.Equal(t, "USDC", got.Quote.Symbol)
	require.Equal(t, "WETH", got.PriceLower.Base.Symbol)
	require.Equal(t, "USDC", got.PriceLower.Quote.Symbol)
}

func TestResolveStablePrecedenceIgnoresMagnitude(t *testing.T) {
	table := DefaultClassification()
	for _, ticks := range [][2]int32{{-6000, -600}, {-600, 600}, {600, 6000}} {
		pos := newPosition(t, usdc, omega, univ3.FeeMedium, ticks[0], ticks[1])
		got, ok := Resolve(pos, table)
		require.True(t, ok)
		require.Equal(t, RuleStableQuote, got.Rule, "ticks %v", ticks)
		require.True(t, got.Quote.Equals(usdc))
		require.True(t, got.Base.Equals(omega))
	}
}

func TestResolveStablePair(t *testing.T) {
	pos := newPosition(t, dai, usdc, univ3.FeeLowest, -276330, -276320)
	got, ok := Resolve(pos, DefaultClassification())
	require.True(t, ok)
	require.Equal(t, RuleStableQuote, got.Rule)
	require.True(t, got.Base.Equals(usdc))
	require.True(t, got.Quote.Equals(dai))
}

func TestResolveBaseAssetToken1(t *testing.T) {
	pos := newPosition(t, uni, weth, univ3.FeeMedium, 600, 6000)
	require.False(t, pos.Token0PriceUpper().LessThanOne())

	got, ok := Resolve(pos, DefaultClassification())
	require.True(t, ok)
	require.Equal(t, RuleBaseAsset, got.Rule)
	require.True(t, got.Base.Equals(weth))
	require.True(t, got.Quote.Equals(uni))
}

func TestResolvePriceBelowOneInverts(t *testing.T) {
	pos := newPosition(t, alpha, beta, univ3.FeeMedium, -600, -120)
	got, ok := Resolve(pos, DefaultClassification())
	require.True(t, ok)
	require.Equal(t, RulePriceBelowOne, got.Rule)
	require.True(t, got.Base.Equals(beta))
	require.True(t, got.Quote.Equals(alpha))

	wantLower := new(big.Rat).Inv(pos.Token0PriceUpper().Raw())
	wantUpper := new(big.Rat).Inv(pos.Token0PriceLower().Raw())
	require.Equal(t, 0, got.PriceLower.Raw().Cmp(wantLower))
	require.Equal(t, 0, got.PriceUpper.Raw().Cmp(wantUpper))
}

func TestResolveDefaultOrientation(t *testing.T) {
	for _, ticks := range [][2]int32{{-120, 600}, {-600, 0}, {600, 1200}} {
		pos := newPosition(t, alpha, beta, univ3.FeeMedium, ticks[0], ticks[1])
		got, ok := Resolve(pos, DefaultClassification())
		require.True(t, ok)
		require.Equal(t, RuleDefault, got.Rule, "ticks %v", ticks)
		require.False(t, got.Inverted)
		require.True(t, got.Base.Equals(alpha))
		require.True(t, got.Quote.Equals(beta))
		require.True(t, got.PriceLower.Equal(pos.Token0PriceLower()))
		require.True(t, got.PriceUpper.Equal(pos.Token0PriceUpper()))
	}
}

func TestResolveDegenerateRange(t *testing.T) {
	for _, tick := range []int32{-600, 600} {
		pos := newPosition(t, alpha, beta, univ3.FeeMedium, tick, tick)
		got, ok := Resolve(pos, DefaultClassification())
		require.True(t, ok)
		require.Equal(t, 0, got.PriceLower.Cmp(got.PriceUpper))
	}
}

func TestResolveInvariants(t *testing.T) {
	table := DefaultClassification()
	pairs := [][2]model.TokenMeta{{usdc, weth}, {uni, weth}, {alpha, beta}, {dai, usdc}, {usdc, omega}, {alpha, omega}}
	ranges := [][2]int32{{-887220, 887220}, {-6000, -600}, {-600, 600}, {600, 6000}, {0, 0}, {-60, 0}}

	for _, pair := range pairs {
		for _, ticks := range ranges {
			pos := newPosition(t, pair[0], pair[1], univ3.FeeMedium, ticks[0], ticks[1])

			got, ok := Resolve(pos, table)
			require.True(t, ok)
			require.LessOrEqual(t, got.PriceLower.Cmp(got.PriceUpper), 0, "%s/%s %v", pair[0].Symbol, pair[1].Symbol, ticks)

			sameSet := (got.Base.Equals(pair[0]) && got.Quote.Equals(pair[1])) ||
				(got.Base.Equals(pair[1]) && got.Quote.Equals(pair[0]))
			require.True(t, sameSet)
			require.False(t, got.Base.Equals(got.Quote))
			require.True(t, got.PriceLower.Base.Equals(got.Base))
			require.True(t, got.PriceUpper.Quote.Equals(got.Quote))

			again, _ := Resolve(pos, table)
			require.Equal(t, got.Rule, again.Rule)
			require.True(t, got.PriceLower.Equal(again.PriceLower))
			require.True(t, got.PriceUpper.Equal(again.PriceUpper))
		}
	}
}

func TestResolveHonorsInjectedTable(t *testing.T) {
	pos := newPosition(t, alpha, beta, univ3.FeeMedium, 600, 1200)

	got, _ := Resolve(pos, NewClassification([]string{alpha.Address}, nil))
	require.Equal(t, RuleStableQuote, got.Rule)

	got, _ = Resolve(pos, NewClassification(nil, []string{"  " + beta.Address + " "}))
	require.Equal(t, RuleBaseAsset, got.Rule)

	got, _ = Resolve(pos, NewClassification(nil, nil))
	require.Equal(t, RuleDefault, got.Rule)
}

func TestDisplayOrderingInvert(t *testing.T) {
	pos := newPosition(t, alpha, beta, univ3.FeeMedium, -120, 600)
	got, _ := Resolve(pos, DefaultClassification())

	flipped := got.Invert()
	require.Equal(t, RuleManual, flipped.Rule)
	require.True(t, flipped.Inverted)
	require.True(t, flipped.Base.Equals(got.Quote))
	require.LessOrEqual(t, flipped.PriceLower.Cmp(flipped.PriceUpper), 0)

	back := flipped.Invert()
	require.True(t, back.Base.Equals(got.Base))
	require.True(t, back.PriceLower.Equal(got.PriceLower))
	require.True(t, back.PriceUpper.Equal(got.PriceUpper))

	require.Equal(t, DisplayOrdering{}, DisplayOrdering{}.Invert())
}

func TestClassificationCounts(t *testing.T) {
	stables, bases := DefaultClassification().Counts()
	require.Equal(t, 3, stables)
	require.Equal(t, 6, bases)

	table := NewClassification([]string{"", usdc.Address, usdc.Address}, nil)
	stables, _ = table.Counts()
	require.Equal(t, 1, stables)
	require.True(t, table.IsStable(model.TokenMeta{Address: "0xa0b86991c6218b36c1d19d4a2e9eb0ce3606eb48"}))
}
