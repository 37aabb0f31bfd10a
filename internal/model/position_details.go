package model

// PositionDetails mirrors NonfungiblePositionManager.positions(tokenId).
type PositionDetails struct {
	ChainID     uint64 `json:"chain_id"`
	TokenID     string `json:"token_id"`
	Owner       string `json:"owner,omitempty"`
	Token0      string `json:"token0"`
	Token1      string `json:"token1"`
	Fee         uint32 `json:"fee"`
	TickLower   int32  `json:"tick_lower"`
	TickUpper   int32  `json:"tick_upper"`
	Liquidity   string `json:"liquidity"`
	TokensOwed0 string `json:"tokens_owed0"`
	TokensOwed1 string `json:"tokens_owed1"`
}
