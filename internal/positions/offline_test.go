package positions

import (
	"testing"

	"github.com/stretchr/testify/require"

	"positionScope/internal/model"
	"positionScope/internal/ordering"
	"positionScope/internal/univ3"
)

func TestOfflineSortsTokens(t *testing.T) {
	usdcMeta := model.TokenMeta{Address: usdc.Hex(), Decimals: 6, Symbol: "USDC"}
	wethMeta := model.TokenMeta{Address: weth.Hex(), Decimals: 18, Symbol: "WETH"}

	current := int32(200000)
	loaded, err := Offline(OfflineRequest{
		TokenA:      wethMeta,
		TokenB:      usdcMeta,
		Fee:         500,
		TickLower:   199000,
		TickUpper:   201000,
		TickCurrent: &current,
		Liquidity:   "1000",
	})
	require.NoError(t, err)
	require.Equal(t, "USDC", loaded.Position.Pool.Token0.Symbol)
	require.Equal(t, int32(200000), loaded.Position.Pool.TickCurrent)
	require.True(t, loaded.Position.InRange())

	ord, ok := ordering.Resolve(loaded.Position, ordering.DefaultClassification())
	require.True(t, ok)
	require.Equal(t, "WETH", ord.Base.Symbol)
}

func TestOfflineValidation(t *testing.T) {
	a := model.TokenMeta{Address: "0x1111111111111111111111111111111111111111", Decimals: 18}
	b := model.TokenMeta{Address: "0x2222222222222222222222222222222222222222", Decimals: 18}

	_, err := Offline(OfflineRequest{TokenA: a, TokenB: b, Fee: 3000, TickLower: 61, TickUpper: 120})
	require.ErrorIs(t, err, univ3.ErrInvalidTickRange)

	_, err = Offline(OfflineRequest{TokenA: a, TokenB: b, Fee: 3000, TickLower: 120, TickUpper: 60})
	require.ErrorIs(t, err, univ3.ErrInvalidTickRange)

	_, err = Offline(OfflineRequest{TokenA: a, TokenB: b, Fee: 3000, TickLower: -60, TickUpper: 60, Liquidity: "x"})
	require.ErrorIs(t, err, ErrInvalidInput)

	_, err = Offline(OfflineRequest{TokenA: a, TokenB: b, Fee: 2500, TickLower: -60, TickUpper: 60})
	require.ErrorIs(t, err, univ3.ErrUnknownFee)

	_, err = Offline(OfflineRequest{TokenA: a, TokenB: a, Fee: 3000, TickLower: -60, TickUpper: 60})
	require.Error(t, err)

	loaded, err := Offline(OfflineRequest{TokenA: a, TokenB: b, Fee: 3000, TickLower: -60, TickUpper: 60})
	require.NoError(t, err)
	require.True(t, loaded.Position.Closed())
}
