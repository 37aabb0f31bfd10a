package univ3

import (
	core "github.com/daoleno/uniswap-sdk-core/entities"
	"github.com/ethereum/go-ethereum/common"

	"positionScope/internal/model"
)

// The sdk only uses chain ids to refuse mixing tokens of different chains.
// A pool never spans chains, so every token gets the same id.
const sdkChainID uint = 1

func sdkToken(meta model.TokenMeta) *core.Token {
	return core.NewToken(sdkChainID, common.HexToAddress(meta.Address), uint(meta.Decimals), meta.Symbol, meta.Name)
}
