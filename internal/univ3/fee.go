package univ3

import (
	"github.com/daoleno/uniswapv3-sdk/constants"
)

// Fee tiers in hundredths of a bip.
const (
	FeeLowest = uint32(constants.FeeLowest)
	FeeLow    = uint32(constants.FeeLow)
	FeeMedium = uint32(constants.FeeMedium)
	FeeHigh   = uint32(constants.FeeHigh)
)

// TickSpacingForFee returns the canonical tick spacing of a fee tier.
func TickSpacingForFee(fee uint32) (int32, bool) {
	spacing, ok := constants.TickSpacings[constants.FeeAmount(fee)]
	return int32(spacing), ok
}
