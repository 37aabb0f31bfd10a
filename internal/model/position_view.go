package model

import "time"

// PositionView is the display-ready rendering of a liquidity position.
type PositionView struct {
	ChainID      uint64    `json:"chain_id"`
	TokenID      string    `json:"token_id,omitempty"`
	Owner        string    `json:"owner,omitempty"`
	Pool         string    `json:"pool,omitempty"`
	FeeTier      string    `json:"fee_tier"`
	Base         TokenMeta `json:"base"`
	Quote        TokenMeta `json:"quote"`
	Inverted     bool      `json:"inverted"`
	Rule         string    `json:"rule"`
	TickLower    int32     `json:"tick_lower"`
	TickUpper    int32     `json:"tick_upper"`
	PriceLower   string    `json:"price_lower"`
	PriceUpper   string    `json:"price_upper"`
	LowerAtLimit bool      `json:"lower_at_limit"`
	UpperAtLimit bool      `json:"upper_at_limit"`
	CurrentPrice string    `json:"current_price,omitempty"`
	AmountBase   string    `json:"amount_base,omitempty"`
	AmountQuote  string    `json:"amount_quote,omitempty"`
	BaseRatio    *int      `json:"base_ratio,omitempty"`
	Status       string    `json:"status"`
	Liquidity    string    `json:"liquidity"`
	RenderedAt   time.Time `json:"rendered_at"`
}
