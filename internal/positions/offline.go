package positions

import (
	"fmt"
	"math/big"

	"positionScope/internal/model"
	"positionScope/internal/univ3"
)

// OfflineRequest describes a position without reading chain state.
type OfflineRequest struct {
	TokenA    model.TokenMeta `json:"token_a"`
	TokenB    model.TokenMeta `json:"token_b"`
	Fee       uint32          `json:"fee"`
	TickLower int32           `json:"tick_lower"`
	TickUpper int32           `json:"tick_upper"`
	// TickCurrent defaults to TickLower.
	TickCurrent *int32 `json:"tick_current,omitempty"`
	Liquidity   string `json:"liquidity,omitempty"`
}

// Offline builds a position from explicit tokens and ticks. Tokens may come in either order.
func Offline(req OfflineRequest) (*Loaded, error) {
	token0, token1 := req.TokenA, req.TokenB
	if token1.SortsBefore(token0) {
		token0, token1 = token1, token0
	}

	tick := req.TickLower
	if req.TickCurrent != nil {
		tick = *req.TickCurrent
	}
	pool, err := univ3.NewPoolAtTick(token0, token1, req.Fee, tick)
	if err != nil {
		return nil, err
	}

	liquidity, ok := new(big.Int).SetString(orZero(req.Liquidity), 10)
	if !ok {
		return nil, fmt.Errorf("%w: liquidity %q", ErrInvalidInput, req.Liquidity)
	}
	position, err := univ3.NewPosition(pool, liquidity, req.TickLower, req.TickUpper)
	if err != nil {
		return nil, err
	}

	return &Loaded{
		Details: model.PositionDetails{
			Token0:    token0.Address,
			Token1:    token1.Address,
			Fee:       req.Fee,
			TickLower: req.TickLower,
			TickUpper: req.TickUpper,
			Liquidity: liquidity.String(),
		},
		Pool: model.PoolSnapshot{
			Token0:      token0.Address,
			Token1:      token1.Address,
			Fee:         req.Fee,
			TickSpacing: pool.TickSpacing,
			Liquidity:   pool.Liquidity.String(),
			Slot0:       &model.PoolSlot0{SqrtPriceX96: pool.SqrtPriceX96.String(), Tick: tick},
		},
		Position: position,
	}, nil
}
