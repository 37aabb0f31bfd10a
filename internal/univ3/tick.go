package univ3

import (
	"errors"
	"fmt"
	"math/big"

	v3 "github.com/daoleno/uniswapv3-sdk/entities"
	"github.com/daoleno/uniswapv3-sdk/utils"
)

// Tick bounds from TickMath.sol.
const (
	MinTick = int32(utils.MinTick)
	MaxTick = int32(utils.MaxTick)
)

var (
	// MinSqrtRatio is the sqrt price at MinTick.
	MinSqrtRatio = utils.MinSqrtRatio
	// MaxSqrtRatio is the sqrt price at MaxTick.
	MaxSqrtRatio = utils.MaxSqrtRatio

	Q96 = new(big.Int).Lsh(big.NewInt(1), 96)

	ErrTickOutOfRange = errors.New("tick out of range")
)

// GetSqrtRatioAtTick returns sqrt(1.0001^tick) as a Q64.96 value.
func GetSqrtRatioAtTick(tick int32) (*big.Int, error) {
	if tick < MinTick || tick > MaxTick {
		return nil, fmt.Errorf("%w: %d", ErrTickOutOfRange, tick)
	}
	return utils.GetSqrtRatioAtTick(int(tick))
}

// NearestUsableTick rounds tick to the closest multiple of spacing inside the tick bounds.
func NearestUsableTick(tick int32, spacing int32) int32 {
	if spacing <= 0 {
		return tick
	}
	if tick < MinTick {
		tick = MinTick
	}
	if tick > MaxTick {
		tick = MaxTick
	}
	return int32(v3.NearestUsableTick(int(tick), int(spacing)))
}
