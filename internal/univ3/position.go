package univ3

import (
	"errors"
	"fmt"
	"math/big"

	v3 "github.com/daoleno/uniswapv3-sdk/entities"
)

var ErrInvalidTickRange = errors.New("invalid tick range")

// Position is liquidity committed between two ticks of a pool. It is never mutated after construction.
type Position struct {
	Pool      *Pool
	TickLower int32
	TickUpper int32
	Liquidity *big.Int

	// nil for an empty range, which the sdk refuses and which holds no tokens.
	sdk *v3.Position
}

// NewPosition validates the tick range. tickLower == tickUpper is accepted.
func NewPosition(pool *Pool, liquidity *big.Int, tickLower, tickUpper int32) (*Position, error) {
	if pool == nil {
		return nil, fmt.Errorf("pool is nil")
	}
	if tickLower > tickUpper {
		return nil, fmt.Errorf("%w: lower %d > upper %d", ErrInvalidTickRange, tickLower, tickUpper)
	}
	if tickLower < MinTick || tickUpper > MaxTick {
		return nil, fmt.Errorf("%w: [%d, %d]", ErrTickOutOfRange, tickLower, tickUpper)
	}
	if spacing := pool.TickSpacing; tickLower%spacing != 0 || tickUpper%spacing != 0 {
		return nil, fmt.Errorf("%w: ticks %d/%d not multiples of spacing %d", ErrInvalidTickRange, tickLower, tickUpper, spacing)
	}
	if liquidity == nil {
		liquidity = big.NewInt(0)
	}
	if liquidity.Sign() < 0 {
		return nil, fmt.Errorf("liquidity must not be negative: %s", liquidity)
	}

	position := &Position{
		Pool:      pool,
		TickLower: tickLower,
		TickUpper: tickUpper,
		Liquidity: new(big.Int).Set(liquidity),
	}
	if tickLower < tickUpper {
		sdkPosition, err := v3.NewPosition(pool.sdk, new(big.Int).Set(liquidity), int(tickLower), int(tickUpper))
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidTickRange, err)
		}
		position.sdk = sdkPosition
	}
	return position, nil
}

// Token0PriceLower is the price of token0 in token1 at the lower tick.
func (p *Position) Token0PriceLower() *Price {
	return p.tickPrice(p.TickLower)
}

// Token0PriceUpper is the price of token0 in token1 at the upper tick.
func (p *Position) Token0PriceUpper() *Price {
	return p.tickPrice(p.TickUpper)
}

func (p *Position) tickPrice(tick int32) *Price {
	// ticks and tokens are validated in NewPool and NewPosition
	price, err := TickToPrice(p.Pool.Token0, p.Pool.Token1, tick)
	if err != nil {
		panic(err)
	}
	return price
}

// InRange reports whether the pool's current tick is inside [TickLower, TickUpper).
func (p *Position) InRange() bool {
	return p.Pool.TickCurrent >= p.TickLower && p.Pool.TickCurrent < p.TickUpper
}

// Closed reports whether all liquidity has been removed.
func (p *Position) Closed() bool {
	return p.Liquidity.Sign() == 0
}

// Amount0 is the token0 held by the position at the current pool price, rounded down.
func (p *Position) Amount0() *big.Int {
	if p.sdk == nil {
		return big.NewInt(0)
	}
	amount, err := p.sdk.Amount0()
	if err != nil {
		panic(err)
	}
	return amount.Quotient()
}

// Amount1 is the token1 held by the position at the current pool price, rounded down.
func (p *Position) Amount1() *big.Int {
	if p.sdk == nil {
		return big.NewInt(0)
	}
	amount, err := p.sdk.Amount1()
	if err != nil {
		panic(err)
	}
	return amount.Quotient()
}
