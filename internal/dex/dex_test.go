package dex

import (
	"context"
	"errors"
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"positionScope/internal/model"
)

type fakeCaller struct {
	responses map[string][]byte
	failures  map[string]error
	calls     int
}

func newFakeCaller() *fakeCaller {
	return &fakeCaller{responses: make(map[string][]byte), failures: make(map[string]error)}
}

func callKey(to common.Address, data []byte) string {
	return to.Hex() + hexutil.Encode(data)
}

func (f *fakeCaller) CallContract(_ context.Context, msg ethereum.CallMsg, _ *big.Int) ([]byte, error) {
	f.calls++
	key := callKey(*msg.To, msg.Data)
	if err, ok := f.failures[key]; ok {
		return nil, err
	}
	resp, ok := f.responses[key]
	if !ok {
		return nil, errors.New("execution reverted")
	}
	return resp, nil
}

func (f *fakeCaller) register(t *testing.T, to common.Address, parsed abi.ABI, method string, args []interface{}, outputs ...interface{}) {
	t.Helper()
	data, err := parsed.Pack(method, args...)
	require.NoError(t, err)
	resp, err := parsed.Methods[method].Outputs.Pack(outputs...)
	require.NoError(t, err)
	f.responses[callKey(to, data)] = resp
}

func (f *fakeCaller) fail(t *testing.T, to common.Address, parsed abi.ABI, method string, args []interface{}, err error) {
	t.Helper()
	data, packErr := parsed.Pack(method, args...)
	require.NoError(t, packErr)
	f.failures[callKey(to, data)] = err
}

var (
	manager = common.HexToAddress(DefaultPositionManager)
	usdc    = common.HexToAddress("0xA0b86991c6218b36c1d19D4a2e9Eb0cE3606eB48")
	weth    = common.HexToAddress("0xC02aaA39b223FE8D0A0e5C4F27eAD9083C756Cc2")
	holder  = common.HexToAddress("0x3333333333333333333333333333333333333333")
)

func TestComputePoolAddress(t *testing.T) {
	factory := common.HexToAddress(DefaultFactory)
	want := common.HexToAddress("0x88e6A0c2dDD26FEEb64F039a2c41296FcB3f5640")

	got := ComputePoolAddress(factory, usdc, weth, 500, common.HexToHash(PoolInitCodeHash))
	require.Equal(t, want, got)

	swapped := ComputePoolAddress(factory, weth, usdc, 500, common.HexToHash(PoolInitCodeHash))
	require.Equal(t, want, swapped)

	other := ComputePoolAddress(factory, usdc, weth, 3000, common.HexToHash(PoolInitCodeHash))
	require.NotEqual(t, want, other)
}

func TestSortTokens(t *testing.T) {
	token0, token1 := SortTokens(weth, usdc)
	require.Equal(t, usdc, token0)
	require.Equal(t, weth, token1)
}

func TestFetchPositionDetails(t *testing.T) {
	managerABI, err := PositionManagerABI()
	require.NoError(t, err)

	caller := newFakeCaller()
	tokenID := big.NewInt(42)
	caller.register(t, manager, managerABI, "positions", []interface{}{tokenID},
		big.NewInt(0),
		common.Address{},
		usdc,
		weth,
		big.NewInt(500),
		big.NewInt(-200010),
		big.NewInt(-195000),
		big.NewInt(123456789),
		big.NewInt(0),
		big.NewInt(0),
		big.NewInt(7),
		big.NewInt(8),
	)
	caller.register(t, manager, managerABI, "ownerOf", []interface{}{tokenID}, holder)

	details, err := FetchPositionDetails(context.Background(), caller, manager, tokenID)
	require.NoError(t, err)
	require.Equal(t, "42", details.TokenID)
	require.Equal(t, usdc.Hex(), details.Token0)
	require.Equal(t, weth.Hex(), details.Token1)
	require.Equal(t, uint32(500), details.Fee)
	require.Equal(t, int32(-200010), details.TickLower)
	require.Equal(t, int32(-195000), details.TickUpper)
	require.Equal(t, "123456789", details.Liquidity)
	require.Equal(t, "7", details.TokensOwed0)
	require.Equal(t, "8", details.TokensOwed1)
	require.Equal(t, holder.Hex(), details.Owner)
}

func TestFetchPositionDetailsNotFound(t *testing.T) {
	managerABI, err := PositionManagerABI()
	require.NoError(t, err)

	caller := newFakeCaller()
	tokenID := big.NewInt(9)
	caller.fail(t, manager, managerABI, "positions", []interface{}{tokenID}, errors.New("execution reverted: Invalid token ID"))

	_, err = FetchPositionDetails(context.Background(), caller, manager, tokenID)
	require.ErrorIs(t, err, ErrPositionNotFound)

	_, err = FetchPositionDetails(context.Background(), nil, manager, tokenID)
	require.Error(t, err)
}

func TestFetchOwnerTokenIDs(t *testing.T) {
	managerABI, err := PositionManagerABI()
	require.NoError(t, err)

	caller := newFakeCaller()
	caller.register(t, manager, managerABI, "balanceOf", []interface{}{holder}, big.NewInt(2))
	caller.register(t, manager, managerABI, "tokenOfOwnerByIndex", []interface{}{holder, big.NewInt(0)}, big.NewInt(11))
	caller.register(t, manager, managerABI, "tokenOfOwnerByIndex", []interface{}{holder, big.NewInt(1)}, big.NewInt(15))

	ids, total, err := FetchOwnerTokenIDs(context.Background(), caller, manager, holder, 0, 10)
	require.NoError(t, err)
	require.Equal(t, int64(2), total)
	require.Len(t, ids, 2)
	require.Equal(t, "11", ids[0].String())
	require.Equal(t, "15", ids[1].String())

	_, _, err = FetchOwnerTokenIDs(context.Background(), caller, manager, holder, 0, 0)
	require.Error(t, err)
}

func TestFetchOwnerTokenIDsPage(t *testing.T) {
	managerABI, err := PositionManagerABI()
	require.NoError(t, err)

	caller := newFakeCaller()
	caller.register(t, manager, managerABI, "balanceOf", []interface{}{holder}, big.NewInt(5000))
	caller.register(t, manager, managerABI, "tokenOfOwnerByIndex", []interface{}{holder, big.NewInt(3)}, big.NewInt(103))
	caller.register(t, manager, managerABI, "tokenOfOwnerByIndex", []interface{}{holder, big.NewInt(4)}, big.NewInt(104))

	ids, total, err := FetchOwnerTokenIDs(context.Background(), caller, manager, holder, 3, 2)
	require.NoError(t, err)
	require.Equal(t, int64(5000), total)
	require.Len(t, ids, 2)
	require.Equal(t, "103", ids[0].String())
	require.Equal(t, "104", ids[1].String())
	require.Equal(t, 3, caller.calls)

	ids, total, err = FetchOwnerTokenIDs(context.Background(), caller, manager, holder, 5000, 2)
	require.NoError(t, err)
	require.Equal(t, int64(5000), total)
	require.Empty(t, ids)
}

func TestFetchPoolState(t *testing.T) {
	poolABI, err := V3PoolABI()
	require.NoError(t, err)

	pool := common.HexToAddress("0x88e6A0c2dDD26FEEb64F039a2c41296FcB3f5640")
	sqrtPrice, ok := new(big.Int).SetString("1771595571142957166518320255467520", 10)
	require.True(t, ok)

	caller := newFakeCaller()
	caller.register(t, pool, poolABI, "token0", nil, usdc)
	caller.register(t, pool, poolABI, "token1", nil, weth)
	caller.register(t, pool, poolABI, "fee", nil, big.NewInt(500))
	caller.register(t, pool, poolABI, "tickSpacing", nil, big.NewInt(10))
	caller.register(t, pool, poolABI, "liquidity", nil, big.NewInt(99))
	caller.register(t, pool, poolABI, "slot0", nil,
		sqrtPrice, big.NewInt(-197000), uint16(1), uint16(2), uint16(3), uint8(0), true)

	snapshot, err := FetchPoolState(context.Background(), caller, pool, nil)
	require.NoError(t, err)
	require.Equal(t, pool.Hex(), snapshot.Address)
	require.Equal(t, usdc.Hex(), snapshot.Token0)
	require.Equal(t, weth.Hex(), snapshot.Token1)
	require.Equal(t, uint32(500), snapshot.Fee)
	require.Equal(t, int32(10), snapshot.TickSpacing)
	require.Equal(t, "99", snapshot.Liquidity)
	require.NotNil(t, snapshot.Slot0)
	require.Equal(t, sqrtPrice.String(), snapshot.Slot0.SqrtPriceX96)
	require.Equal(t, int32(-197000), snapshot.Slot0.Tick)
}

func TestFetchPoolStateMissingSlot0(t *testing.T) {
	poolABI, err := V3PoolABI()
	require.NoError(t, err)

	pool := common.HexToAddress("0x1111111111111111111111111111111111111111")
	caller := newFakeCaller()
	caller.register(t, pool, poolABI, "token0", nil, usdc)
	caller.register(t, pool, poolABI, "token1", nil, weth)
	caller.register(t, pool, poolABI, "fee", nil, big.NewInt(500))
	caller.register(t, pool, poolABI, "tickSpacing", nil, big.NewInt(10))
	caller.register(t, pool, poolABI, "liquidity", nil, big.NewInt(99))

	_, err = FetchPoolState(context.Background(), caller, pool, nil)
	require.ErrorContains(t, err, "call slot0")
}

func TestFetchPoolAddress(t *testing.T) {
	parsed, err := FactoryABI()
	require.NoError(t, err)

	factory := common.HexToAddress(DefaultFactory)
	pool := common.HexToAddress("0x88e6A0c2dDD26FEEb64F039a2c41296FcB3f5640")
	caller := newFakeCaller()
	caller.register(t, factory, parsed, "getPool", []interface{}{usdc, weth, big.NewInt(500)}, pool)
	caller.register(t, factory, parsed, "getPool", []interface{}{usdc, weth, big.NewInt(100)}, common.Address{})

	got, err := FetchPoolAddress(context.Background(), caller, factory, usdc, weth, 500)
	require.NoError(t, err)
	require.Equal(t, pool, got)

	_, err = FetchPoolAddress(context.Background(), caller, factory, usdc, weth, 100)
	require.Error(t, err)
}

func TestFetchTokenMeta(t *testing.T) {
	stringABI, err := erc20ABIStringInstance()
	require.NoError(t, err)

	caller := newFakeCaller()
	caller.register(t, usdc, stringABI, "decimals", nil, uint8(6))
	caller.register(t, usdc, stringABI, "symbol", nil, "USDC")
	caller.register(t, usdc, stringABI, "name", nil, "USD Coin")

	meta, err := FetchTokenMeta(context.Background(), caller, usdc, zap.NewNop())
	require.NoError(t, err)
	require.Equal(t, usdc.Hex(), meta.Address)
	require.Equal(t, uint8(6), meta.Decimals)
	require.Equal(t, "USDC", meta.Symbol)
	require.Equal(t, "USD Coin", meta.Name)
}

func TestFetchTokenMetaBytes32Fallback(t *testing.T) {
	bytes32ABI, err := erc20ABIBytes32Instance()
	require.NoError(t, err)

	mkr := common.HexToAddress("0x9f8F72aA9304c8B593d555F12eF6589cC3A579A2")
	var symbol, name [32]byte
	copy(symbol[:], "MKR")
	copy(name[:], "Maker")

	caller := newFakeCaller()
	caller.register(t, mkr, bytes32ABI, "decimals", nil, uint8(18))
	caller.register(t, mkr, bytes32ABI, "symbol", nil, symbol)
	caller.register(t, mkr, bytes32ABI, "name", nil, name)

	meta, err := FetchTokenMeta(context.Background(), caller, mkr, nil)
	require.NoError(t, err)
	require.Equal(t, uint8(18), meta.Decimals)
	require.Equal(t, "MKR", meta.Symbol)
	require.Equal(t, "Maker", meta.Name)
}

func TestFetchTokenMetaRequiresDecimals(t *testing.T) {
	caller := newFakeCaller()
	_, err := FetchTokenMeta(context.Background(), caller, usdc, nil)
	require.ErrorContains(t, err, "call decimals")
}

func TestTokenMetaCache(t *testing.T) {
	cache := NewTokenMetaCache()
	_, ok := cache.Get(usdc)
	require.False(t, ok)

	cache.Set(usdc, tokenMetaFixture())
	meta, ok := cache.Get(usdc)
	require.True(t, ok)
	require.Equal(t, "USDC", meta.Symbol)
	require.Equal(t, 1, cache.Len())
}

func tokenMetaFixture() model.TokenMeta {
	return model.TokenMeta{Address: usdc.Hex(), Decimals: 6, Symbol: "USDC"}
}
