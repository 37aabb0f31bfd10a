package view

import (
	"math"

	"github.com/shopspring/decimal"

	"positionScope/internal/univ3"
)

// Bound identifies one end of a price range.
type Bound int

const (
	BoundLower Bound = iota
	BoundUpper
)

const priceDigits = 5

// Status values of a position badge.
const (
	StatusClosed     = "closed"
	StatusActive     = "active"
	StatusOutOfRange = "out_of_range"
)

// TicksAtLimit reports which bounds sit on the widest usable tick of the fee tier.
func TicksAtLimit(fee uint32, tickLower, tickUpper int32) map[Bound]bool {
	spacing, ok := univ3.TickSpacingForFee(fee)
	if !ok {
		return map[Bound]bool{BoundLower: false, BoundUpper: false}
	}
	return map[Bound]bool{
		BoundLower: tickLower == univ3.NearestUsableTick(univ3.MinTick, spacing),
		BoundUpper: tickUpper == univ3.NearestUsableTick(univ3.MaxTick, spacing),
	}
}

// FormatTickPrice renders a bound, using 0 and ∞ for bounds at the tick limit.
func FormatTickPrice(price *univ3.Price, atLimit map[Bound]bool, bound Bound) string {
	if atLimit[bound] {
		if bound == BoundLower {
			return "0"
		}
		return "∞"
	}
	if price == nil {
		return "-"
	}
	return price.ToSignificant(priceDigits)
}

// FormatFeeTier renders a fee in hundredths of a bip as a percentage.
func FormatFeeTier(fee uint32) string {
	return decimal.New(int64(fee), -4).String() + "%"
}

// RangeStatus classifies a position for its badge.
func RangeStatus(closed, inRange bool) string {
	switch {
	case closed:
		return StatusClosed
	case inRange:
		return StatusActive
	default:
		return StatusOutOfRange
	}
}

// DepositRatio is the share of position value held in the base token, in percent.
// All prices must share one orientation.
func DepositRatio(lower, current, upper *univ3.Price) (int, bool) {
	if lower == nil || current == nil || upper == nil {
		return 0, false
	}
	if current.Cmp(lower) <= 0 {
		return 100, true
	}
	if current.Cmp(upper) >= 0 {
		return 0, true
	}

	a := lower.Float64()
	b := upper.Float64()
	c := current.Float64()
	sqrtBC := math.Sqrt(b * c)
	denom := c - sqrtBC
	if denom == 0 {
		return 0, false
	}
	ratio := math.Floor((1 / ((math.Sqrt(a*b)-sqrtBC)/denom + 1)) * 100)
	if math.IsNaN(ratio) || ratio < 0 || ratio > 100 {
		return 0, false
	}
	return int(ratio), true
}

// FormatAmount renders a raw token amount with its decimals.
func FormatAmount(raw string, decimals uint8) string {
	amount, err := decimal.NewFromString(raw)
	if err != nil {
		return raw
	}
	return amount.Shift(-int32(decimals)).String()
}
