package univ3

import (
	"errors"
	"fmt"
	"math/big"

	"github.com/daoleno/uniswapv3-sdk/constants"
	v3 "github.com/daoleno/uniswapv3-sdk/entities"

	"positionScope/internal/model"
)

var (
	ErrTokensNotSorted = errors.New("tokens not sorted")
	ErrUnknownFee      = errors.New("unknown fee tier")
)

// Pool is the pool state a position is evaluated against.
type Pool struct {
	Token0       model.TokenMeta
	Token1       model.TokenMeta
	Fee          uint32
	TickSpacing  int32
	SqrtPriceX96 *big.Int
	TickCurrent  int32
	Liquidity    *big.Int

	sdk *v3.Pool
}

// NewPool validates canonical token order and the fee tier. A zero tickSpacing
// takes the tier's spacing; any other value must match it.
func NewPool(token0, token1 model.TokenMeta, fee uint32, tickSpacing int32, sqrtPriceX96 *big.Int, tickCurrent int32, liquidity *big.Int) (*Pool, error) {
	if token0.Equals(token1) {
		return nil, fmt.Errorf("identical tokens: %s", token0.Address)
	}
	if !token0.SortsBefore(token1) {
		return nil, fmt.Errorf("%w: %s >= %s", ErrTokensNotSorted, token0.Address, token1.Address)
	}
	spacing, ok := TickSpacingForFee(fee)
	if !ok {
		return nil, fmt.Errorf("%w: %d", ErrUnknownFee, fee)
	}
	if tickSpacing != 0 && tickSpacing != spacing {
		return nil, fmt.Errorf("tick spacing %d does not match fee %d (want %d)", tickSpacing, fee, spacing)
	}
	if sqrtPriceX96 == nil || sqrtPriceX96.Sign() <= 0 {
		return nil, fmt.Errorf("sqrt price must be positive: %v", sqrtPriceX96)
	}
	if tickCurrent < MinTick || tickCurrent >= MaxTick {
		return nil, fmt.Errorf("%w: current tick %d", ErrTickOutOfRange, tickCurrent)
	}
	if liquidity == nil {
		liquidity = big.NewInt(0)
	}

	pool, err := v3.NewPool(sdkToken(token0), sdkToken(token1), constants.FeeAmount(fee),
		new(big.Int).Set(sqrtPriceX96), new(big.Int).Set(liquidity), int(tickCurrent), nil)
	if err != nil {
		return nil, fmt.Errorf("pool %s/%s: %w", token0.Label(), token1.Label(), err)
	}

	return &Pool{
		Token0:       token0,
		Token1:       token1,
		Fee:          fee,
		TickSpacing:  spacing,
		SqrtPriceX96: new(big.Int).Set(sqrtPriceX96),
		TickCurrent:  tickCurrent,
		Liquidity:    new(big.Int).Set(liquidity),
		sdk:          pool,
	}, nil
}

// NewPoolAtTick builds a pool whose current price sits exactly on tick.
func NewPoolAtTick(token0, token1 model.TokenMeta, fee uint32, tick int32) (*Pool, error) {
	sqrtPrice, err := GetSqrtRatioAtTick(tick)
	if err != nil {
		return nil, err
	}
	return NewPool(token0, token1, fee, 0, sqrtPrice, tick, nil)
}

// Token0Price is the current price of token0 in token1.
func (p *Pool) Token0Price() *Price {
	return wrapPrice(p.Token0, p.Token1, p.sdk.Token0Price())
}

// Token1Price is the current price of token1 in token0.
func (p *Pool) Token1Price() *Price {
	return wrapPrice(p.Token1, p.Token0, p.sdk.Token1Price())
}

// Involves reports whether token is one of the pool tokens.
func (p *Pool) Involves(token model.TokenMeta) bool {
	return p.Token0.Equals(token) || p.Token1.Equals(token)
}
