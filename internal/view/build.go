package view

import (
	"errors"
	"time"

	"positionScope/internal/model"
	"positionScope/internal/ordering"
	"positionScope/internal/univ3"
)

var ErrPositionUnavailable = errors.New("position unavailable")

// Input bundles a loaded position with its on-chain identity.
type Input struct {
	Details  model.PositionDetails
	Pool     string
	Position *univ3.Position
}

// Options tweaks rendering.
type Options struct {
	// Invert applies the manual base/quote toggle after resolution.
	Invert bool
	Now    func() time.Time
}

// Build renders a position for display.
func Build(in Input, table ordering.Classification, opts Options) (model.PositionView, error) {
	ord, ok := ordering.Resolve(in.Position, table)
	if !ok {
		return model.PositionView{}, ErrPositionUnavailable
	}
	if opts.Invert {
		ord = ord.Invert()
	}
	now := time.Now
	if opts.Now != nil {
		now = opts.Now
	}

	pos := in.Position
	pool := pos.Pool

	// Bounds swap sides when the display is token1-based.
	limits := TicksAtLimit(pool.Fee, pos.TickLower, pos.TickUpper)
	if ord.Inverted {
		limits = map[Bound]bool{
			BoundLower: limits[BoundUpper],
			BoundUpper: limits[BoundLower],
		}
	}

	current := pool.Token0Price()
	amountBase, amountQuote := pos.Amount0(), pos.Amount1()
	if ord.Inverted {
		current = current.Invert()
		amountBase, amountQuote = amountQuote, amountBase
	}

	view := model.PositionView{
		ChainID:      in.Details.ChainID,
		TokenID:      in.Details.TokenID,
		Owner:        in.Details.Owner,
		Pool:         in.Pool,
		FeeTier:      FormatFeeTier(pool.Fee),
		Base:         ord.Base,
		Quote:        ord.Quote,
		Inverted:     ord.Inverted,
		Rule:         string(ord.Rule),
		TickLower:    pos.TickLower,
		TickUpper:    pos.TickUpper,
		PriceLower:   FormatTickPrice(ord.PriceLower, limits, BoundLower),
		PriceUpper:   FormatTickPrice(ord.PriceUpper, limits, BoundUpper),
		LowerAtLimit: limits[BoundLower],
		UpperAtLimit: limits[BoundUpper],
		CurrentPrice: current.ToSignificant(priceDigits),
		AmountBase:   FormatAmount(amountBase.String(), ord.Base.Decimals),
		AmountQuote:  FormatAmount(amountQuote.String(), ord.Quote.Decimals),
		Status:       RangeStatus(pos.Closed(), pos.InRange()),
		Liquidity:    pos.Liquidity.String(),
		RenderedAt:   now().UTC(),
	}

	if !pos.Closed() {
		if ratio, ok := DepositRatio(ord.PriceLower, current, ord.PriceUpper); ok {
			view.BaseRatio = &ratio
		}
	}

	return view, nil
}
