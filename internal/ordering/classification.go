package ordering

import (
	"strings"

	"positionScope/internal/model"
)

// Classification lists the tokens that steer display orientation.
// Stables are preferred as quote tokens; bases are preferred as base tokens.
type Classification struct {
	stables map[string]struct{}
	bases   map[string]struct{}
}

// NewClassification builds a table from token addresses. Matching is case-insensitive.
func NewClassification(stables, bases []string) Classification {
	return Classification{
		stables: toSet(stables),
		bases:   toSet(bases),
	}
}

// Default token addresses.
var (
	DefaultStables = []string{
		"0x6B175474E89094C44Da98b954EedeAC495271d0F", // DAI
		"0xA0b86991c6218b36c1d19D4a2e9Eb0cE3606eB48", // USDC
		"0xdAC17F958D2ee523a2206206994597C13D831ec7", // USDT
	}
	DefaultBases = []string{
		"0xC02aaA39b223FE8D0A0e5C4F27eAD9083C756Cc2", // WETH mainnet
		"0x4200000000000000000000000000000000000006", // WETH optimism/base
		"0x82aF49447D8a07e3bd95BD0d56f35241523fBab1", // WETH arbitrum
		"0x0d500B1d8E8eF31E21C99d1Db9A6444d3ADf1270", // WMATIC
		"0xbb4CdB9CBd36B01bD1cBaEBF2De08d9173bc095c", // WBNB
		"0x2260FAC5E5542a773Aa44fBCfeDf7C193bc2C599", // WBTC
	}
)

// DefaultClassification returns the built-in table.
func DefaultClassification() Classification {
	return NewClassification(DefaultStables, DefaultBases)
}

// IsStable reports whether token is a recognized dollar-stable asset.
func (c Classification) IsStable(token model.TokenMeta) bool {
	_, ok := c.stables[key(token.Address)]
	return ok
}

// IsBase reports whether token is a recognized base asset.
func (c Classification) IsBase(token model.TokenMeta) bool {
	_, ok := c.bases[key(token.Address)]
	return ok
}

// Counts returns the table sizes.
func (c Classification) Counts() (stables int, bases int) {
	return len(c.stables), len(c.bases)
}

func toSet(addresses []string) map[string]struct{} {
	out := make(map[string]struct{}, len(addresses))
	for _, addr := range addresses {
		k := key(addr)
		if k == "" {
			continue
		}
		out[k] = struct{}{}
	}
	return out
}

func key(address string) string {
	return strings.ToLower(strings.TrimSpace(address))
}
