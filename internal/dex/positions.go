package dex

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"

	"positionScope/internal/model"
)

// Canonical Uniswap V3 deployment shared by mainnet and most L2s.
const (
	DefaultPositionManager = "0xC36442b4a4522E871399CD717aBDD847Ab11FE88"
	DefaultFactory         = "0x1F98431c8aD98523631AE4a59f267346ea31F984"
	PoolInitCodeHash       = "0xe34f199b19b2b4f47f68442619d555527d244f78a3297ea89325f843f87b8b54"
)

// ErrPositionNotFound is returned for burned or never-minted token ids.
var ErrPositionNotFound = errors.New("position not found")

// FetchPositionDetails reads positions(tokenId) and ownerOf(tokenId) from the position manager.
func FetchPositionDetails(ctx context.Context, caller ContractCaller, manager common.Address, tokenID *big.Int) (model.PositionDetails, error) {
	if caller == nil {
		return model.PositionDetails{}, fmt.Errorf("contract caller is nil")
	}
	if tokenID == nil || tokenID.Sign() < 0 {
		return model.PositionDetails{}, fmt.Errorf("invalid token id %v", tokenID)
	}

	managerABI, err := PositionManagerABI()
	if err != nil {
		return model.PositionDetails{}, fmt.Errorf("parse position manager abi: %w", err)
	}

	values, err := callMethod(ctx, caller, manager, managerABI, "positions", nil, tokenID)
	if err != nil {
		if isInvalidTokenID(err) {
			return model.PositionDetails{}, fmt.Errorf("token %s: %w", tokenID, ErrPositionNotFound)
		}
		return model.PositionDetails{}, err
	}
	if len(values) < 12 {
		return model.PositionDetails{}, fmt.Errorf("positions: short result")
	}

	details := model.PositionDetails{TokenID: tokenID.String()}

	token0, err := asAddress(values[2])
	if err != nil {
		return model.PositionDetails{}, fmt.Errorf("token0: %w", err)
	}
	token1, err := asAddress(values[3])
	if err != nil {
		return model.PositionDetails{}, fmt.Errorf("token1: %w", err)
	}
	details.Token0 = token0.Hex()
	details.Token1 = token1.Hex()

	fee, err := asBigInt(values[4])
	if err != nil {
		return model.PositionDetails{}, fmt.Errorf("fee: %w", err)
	}
	details.Fee = uint32(fee.Uint64())

	tickLower, err := asBigInt(values[5])
	if err != nil {
		return model.PositionDetails{}, fmt.Errorf("tick lower: %w", err)
	}
	if details.TickLower, err = int24FromBig(tickLower); err != nil {
		return model.PositionDetails{}, fmt.Errorf("tick lower: %w", err)
	}
	tickUpper, err := asBigInt(values[6])
	if err != nil {
		return model.PositionDetails{}, fmt.Errorf("tick upper: %w", err)
	}
	if details.TickUpper, err = int24FromBig(tickUpper); err != nil {
		return model.PositionDetails{}, fmt.Errorf("tick upper: %w", err)
	}

	liquidity, err := asBigInt(values[7])
	if err != nil {
		return model.PositionDetails{}, fmt.Errorf("liquidity: %w", err)
	}
	details.Liquidity = liquidity.String()

	owed0, err := asBigInt(values[10])
	if err != nil {
		return model.PositionDetails{}, fmt.Errorf("tokens owed0: %w", err)
	}
	owed1, err := asBigInt(values[11])
	if err != nil {
		return model.PositionDetails{}, fmt.Errorf("tokens owed1: %w", err)
	}
	details.TokensOwed0 = owed0.String()
	details.TokensOwed1 = owed1.String()

	// ownerOf is informational; a failure leaves Owner empty.
	if values, err := callMethod(ctx, caller, manager, managerABI, "ownerOf", nil, tokenID); err == nil {
		if owner, err := asAddress(values[0]); err == nil {
			details.Owner = owner.Hex()
		}
	}

	return details, nil
}

// FetchOwnerTokenIDs enumerates at most limit position NFTs held by owner,
// starting at index offset. It also returns the owner's total balance.
func FetchOwnerTokenIDs(ctx context.Context, caller ContractCaller, manager, owner common.Address, offset, limit int64) ([]*big.Int, int64, error) {
	if caller == nil {
		return nil, 0, fmt.Errorf("contract caller is nil")
	}
	if offset < 0 || limit <= 0 {
		return nil, 0, fmt.Errorf("invalid page offset %d limit %d", offset, limit)
	}

	managerABI, err := PositionManagerABI()
	if err != nil {
		return nil, 0, fmt.Errorf("parse position manager abi: %w", err)
	}

	values, err := callMethod(ctx, caller, manager, managerABI, "balanceOf", nil, owner)
	if err != nil {
		return nil, 0, err
	}
	balance, err := asBigInt(values[0])
	if err != nil {
		return nil, 0, fmt.Errorf("balance: %w", err)
	}
	if !balance.IsInt64() {
		return nil, 0, fmt.Errorf("balance overflow: %s", balance)
	}

	total := balance.Int64()
	end := total
	if offset+limit < end {
		end = offset + limit
	}
	if offset >= end {
		return []*big.Int{}, total, nil
	}

	ids := make([]*big.Int, 0, end-offset)
	for i := offset; i < end; i++ {
		values, err := callMethod(ctx, caller, manager, managerABI, "tokenOfOwnerByIndex", nil, owner, big.NewInt(i))
		if err != nil {
			return nil, 0, fmt.Errorf("token index %d: %w", i, err)
		}
		id, err := asBigInt(values[0])
		if err != nil {
			return nil, 0, fmt.Errorf("token index %d: %w", i, err)
		}
		ids = append(ids, id)
	}
	return ids, total, nil
}

// SortTokens returns the pair in canonical pool order.
func SortTokens(tokenA, tokenB common.Address) (common.Address, common.Address) {
	if bytes.Compare(tokenA.Bytes(), tokenB.Bytes()) < 0 {
		return tokenA, tokenB
	}
	return tokenB, tokenA
}

// ComputePoolAddress derives a pool address with CREATE2 from the factory,
// the sorted token pair and the fee tier.
func ComputePoolAddress(factory, tokenA, tokenB common.Address, fee uint32, initCodeHash common.Hash) common.Address {
	token0, token1 := SortTokens(tokenA, tokenB)

	encoded := make([]byte, 0, 96)
	encoded = append(encoded, common.LeftPadBytes(token0.Bytes(), 32)...)
	encoded = append(encoded, common.LeftPadBytes(token1.Bytes(), 32)...)
	encoded = append(encoded, common.LeftPadBytes(new(big.Int).SetUint64(uint64(fee)).Bytes(), 32)...)

	var salt [32]byte
	copy(salt[:], crypto.Keccak256(encoded))
	return crypto.CreateAddress2(factory, salt, initCodeHash.Bytes())
}

// FetchPoolAddress asks the factory for the pool address. It serves deployments
// whose init code hash is unknown.
func FetchPoolAddress(ctx context.Context, caller ContractCaller, factory, tokenA, tokenB common.Address, fee uint32) (common.Address, error) {
	if caller == nil {
		return common.Address{}, fmt.Errorf("contract caller is nil")
	}

	parsed, err := FactoryABI()
	if err != nil {
		return common.Address{}, fmt.Errorf("parse factory abi: %w", err)
	}
	values, err := callMethod(ctx, caller, factory, parsed, "getPool", nil, tokenA, tokenB, new(big.Int).SetUint64(uint64(fee)))
	if err != nil {
		return common.Address{}, err
	}
	pool, err := asAddress(values[0])
	if err != nil {
		return common.Address{}, fmt.Errorf("pool: %w", err)
	}
	if pool == (common.Address{}) {
		return common.Address{}, fmt.Errorf("no pool for %s/%s fee %d", tokenA.Hex(), tokenB.Hex(), fee)
	}
	return pool, nil
}

func isInvalidTokenID(err error) bool {
	return strings.Contains(strings.ToLower(err.Error()), "invalid token id")
}
