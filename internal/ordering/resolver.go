package ordering

import (
	"positionScope/internal/model"
	"positionScope/internal/univ3"
)

// Rule names the precedence rule that chose an orientation.
type Rule string

const (
	RuleStableQuote   Rule = "stable_quote"
	RuleBaseAsset     Rule = "base_asset"
	RulePriceBelowOne Rule = "price_below_one"
	RuleDefault       Rule = "default"
	RuleManual        Rule = "manual"
)

// DisplayOrdering is the human-facing orientation of a position's range.
// PriceLower and PriceUpper are prices of Base in Quote with PriceLower <= PriceUpper.
type DisplayOrdering struct {
	Base       model.TokenMeta
	Quote      model.TokenMeta
	PriceLower *univ3.Price
	PriceUpper *univ3.Price
	// Inverted is true when Base is the pool's token1.
	Inverted bool
	Rule     Rule
}

// Resolve picks base/quote tokens for a position and orients its range prices.
// A nil position yields ok == false; callers treat that as "not loaded yet".
func Resolve(position *univ3.Position, table Classification) (DisplayOrdering, bool) {
	if position == nil || position.Pool == nil {
		return DisplayOrdering{}, false
	}

	token0 := position.Pool.Token0
	token1 := position.Pool.Token1
	lower := position.Token0PriceLower()
	upper := position.Token0PriceUpper()

	switch {
	case table.IsStable(token0):
		return inverted(lower, upper, RuleStableQuote), true
	case table.IsBase(token1):
		return inverted(lower, upper, RuleBaseAsset), true
	case upper.LessThanOne():
		return inverted(lower, upper, RulePriceBelowOne), true
	default:
		return DisplayOrdering{
			Base:       token0,
			Quote:      token1,
			PriceLower: lower,
			PriceUpper: upper,
			Rule:       RuleDefault,
		}, true
	}
}

// inverted flips token0 prices into token1 prices; inversion swaps the bounds.
func inverted(lower, upper *univ3.Price, rule Rule) DisplayOrdering {
	return DisplayOrdering{
		Base:       upper.Quote,
		Quote:      upper.Base,
		PriceLower: upper.Invert(),
		PriceUpper: lower.Invert(),
		Inverted:   true,
		Rule:       rule,
	}
}

// Invert swaps base and quote, as the manual toggle on a position page does.
func (d DisplayOrdering) Invert() DisplayOrdering {
	if d.PriceLower == nil || d.PriceUpper == nil {
		return d
	}
	return DisplayOrdering{
		Base:       d.Quote,
		Quote:      d.Base,
		PriceLower: d.PriceUpper.Invert(),
		PriceUpper: d.PriceLower.Invert(),
		Inverted:   !d.Inverted,
		Rule:       RuleManual,
	}
}

// Available reports whether the ordering came from a loaded position.
func (d DisplayOrdering) Available() bool {
	return d.PriceLower != nil && d.PriceUpper != nil
}
