package positions

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"go.uber.org/zap"

	"positionScope/internal/chain"
	"positionScope/internal/dex"
	"positionScope/internal/model"
	"positionScope/internal/ordering"
	"positionScope/internal/univ3"
	"positionScope/internal/view"
)

var (
	// ErrPositionNotFound is returned for token ids the position manager does not know.
	ErrPositionNotFound = dex.ErrPositionNotFound
	// ErrInvalidInput marks malformed token ids, addresses and amounts.
	ErrInvalidInput = errors.New("invalid input")
)

// MaxPageSize bounds the positions enumerated by one ListOwner call.
const MaxPageSize = 100

// Page selects a window of an owner's positions. A zero Limit means MaxPageSize.
type Page struct {
	Offset int
	Limit  int
}

// OwnerPage is one window of an owner's token ids.
type OwnerPage struct {
	IDs   []string
	Total int64
	// Next is the offset of the following page, or zero when this page is the last.
	Next int
}

var _ dex.ContractCaller = (*chain.Client)(nil)

// Config locates the contracts a Loader reads from.
type Config struct {
	ChainID         uint64
	PositionManager common.Address
	Factory         common.Address
	// InitCodeHash derives pool addresses locally; a zero hash asks the factory.
	InitCodeHash common.Hash
	MaxRetries   int
	RetryBackoff time.Duration
}

// DefaultConfig targets the canonical deployment.
func DefaultConfig(chainID uint64) Config {
	return Config{
		ChainID:         chainID,
		PositionManager: common.HexToAddress(dex.DefaultPositionManager),
		Factory:         common.HexToAddress(dex.DefaultFactory),
		InitCodeHash:    common.HexToHash(dex.PoolInitCodeHash),
		MaxRetries:      5,
		RetryBackoff:    500 * time.Millisecond,
	}
}

// Loaded is a position with the pool state it was evaluated against.
type Loaded struct {
	Details  model.PositionDetails
	Pool     model.PoolSnapshot
	Position *univ3.Position
}

// Input adapts a loaded position for view.Build.
func (l *Loaded) Input() view.Input {
	if l == nil {
		return view.Input{}
	}
	return view.Input{Details: l.Details, Pool: l.Pool.Address, Position: l.Position}
}

// Loader reads positions from chain.
type Loader struct {
	caller dex.ContractCaller
	cfg    Config
	tokens *dex.TokenMetaCache
	logger *zap.Logger
}

// NewLoader builds a Loader with its dependencies.
func NewLoader(caller dex.ContractCaller, cfg Config, logger *zap.Logger) *Loader {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Loader{
		caller: caller,
		cfg:    cfg,
		tokens: dex.NewTokenMetaCache(),
		logger: logger,
	}
}

// Load reads a position and the state of its pool.
func (l *Loader) Load(ctx context.Context, tokenID string) (*Loaded, error) {
	if l.caller == nil {
		return nil, fmt.Errorf("contract caller is nil")
	}
	id, ok := new(big.Int).SetString(strings.TrimSpace(tokenID), 10)
	if !ok || id.Sign() < 0 {
		return nil, fmt.Errorf("%w: token id %q", ErrInvalidInput, tokenID)
	}

	var details model.PositionDetails
	err := withRetry(ctx, l.cfg.MaxRetries, l.cfg.RetryBackoff, func(ctx context.Context) error {
		var err error
		details, err = dex.FetchPositionDetails(ctx, l.caller, l.cfg.PositionManager, id)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("fetch position %s: %w", id, err)
	}
	details.ChainID = l.cfg.ChainID

	token0Addr := common.HexToAddress(details.Token0)
	token1Addr := common.HexToAddress(details.Token1)
	token0, err := l.tokenMeta(ctx, token0Addr)
	if err != nil {
		return nil, err
	}
	token1, err := l.tokenMeta(ctx, token1Addr)
	if err != nil {
		return nil, err
	}

	poolAddr, err := l.poolAddress(ctx, token0Addr, token1Addr, details.Fee)
	if err != nil {
		return nil, err
	}

	var snapshot model.PoolSnapshot
	err = withRetry(ctx, l.cfg.MaxRetries, l.cfg.RetryBackoff, func(ctx context.Context) error {
		var err error
		snapshot, err = dex.FetchPoolState(ctx, l.caller, poolAddr, nil)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("fetch pool %s: %w", poolAddr.Hex(), err)
	}
	if !strings.EqualFold(snapshot.Token0, details.Token0) || !strings.EqualFold(snapshot.Token1, details.Token1) {
		return nil, fmt.Errorf("pool %s tokens %s/%s do not match position", poolAddr.Hex(), snapshot.Token0, snapshot.Token1)
	}

	position, err := buildPosition(token0, token1, details, snapshot)
	if err != nil {
		return nil, fmt.Errorf("position %s: %w", id, err)
	}

	l.logger.Debug("position loaded",
		zap.String("token_id", details.TokenID),
		zap.String("pool", snapshot.Address),
		zap.Int32("tick_lower", details.TickLower),
		zap.Int32("tick_upper", details.TickUpper),
		zap.Int32("tick_current", snapshot.Slot0.Tick),
	)

	return &Loaded{Details: details, Pool: snapshot, Position: position}, nil
}

// ListOwner returns one page of the token ids held by owner.
func (l *Loader) ListOwner(ctx context.Context, owner string, page Page) (OwnerPage, error) {
	if l.caller == nil {
		return OwnerPage{}, fmt.Errorf("contract caller is nil")
	}
	if !common.IsHexAddress(owner) {
		return OwnerPage{}, fmt.Errorf("%w: owner address %q", ErrInvalidInput, owner)
	}
	if page.Offset < 0 || page.Limit < 0 {
		return OwnerPage{}, fmt.Errorf("%w: page offset %d limit %d", ErrInvalidInput, page.Offset, page.Limit)
	}
	limit := page.Limit
	if limit == 0 || limit > MaxPageSize {
		limit = MaxPageSize
	}

	var (
		ids   []*big.Int
		total int64
	)
	err := withRetry(ctx, l.cfg.MaxRetries, l.cfg.RetryBackoff, func(ctx context.Context) error {
		var err error
		ids, total, err = dex.FetchOwnerTokenIDs(ctx, l.caller, l.cfg.PositionManager, common.HexToAddress(owner), int64(page.Offset), int64(limit))
		return err
	})
	if err != nil {
		return OwnerPage{}, fmt.Errorf("list owner %s: %w", owner, err)
	}

	out := OwnerPage{IDs: make([]string, 0, len(ids)), Total: total}
	for _, id := range ids {
		out.IDs = append(out.IDs, id.String())
	}
	if next := page.Offset + len(ids); len(ids) > 0 && int64(next) < total {
		out.Next = next
	}
	return out, nil
}

// ChainID is the chain the loader reads from.
func (l *Loader) ChainID() uint64 {
	return l.cfg.ChainID
}

// Render loads a position and builds its display view.
func (l *Loader) Render(ctx context.Context, tokenID string, table ordering.Classification, opts view.Options) (model.PositionView, error) {
	loaded, err := l.Load(ctx, tokenID)
	if err != nil {
		return model.PositionView{}, err
	}
	return view.Build(loaded.Input(), table, opts)
}

func (l *Loader) tokenMeta(ctx context.Context, token common.Address) (model.TokenMeta, error) {
	if meta, ok := l.tokens.Get(token); ok {
		return meta, nil
	}
	var meta model.TokenMeta
	err := withRetry(ctx, l.cfg.MaxRetries, l.cfg.RetryBackoff, func(ctx context.Context) error {
		var err error
		meta, err = dex.FetchTokenMeta(ctx, l.caller, token, l.logger)
		return err
	})
	if err != nil {
		return model.TokenMeta{}, fmt.Errorf("token %s metadata: %w", token.Hex(), err)
	}
	l.tokens.Set(token, meta)
	return meta, nil
}

func (l *Loader) poolAddress(ctx context.Context, token0, token1 common.Address, fee uint32) (common.Address, error) {
	if l.cfg.InitCodeHash != (common.Hash{}) {
		return dex.ComputePoolAddress(l.cfg.Factory, token0, token1, fee, l.cfg.InitCodeHash), nil
	}
	var pool common.Address
	err := withRetry(ctx, l.cfg.MaxRetries, l.cfg.RetryBackoff, func(ctx context.Context) error {
		var err error
		pool, err = dex.FetchPoolAddress(ctx, l.caller, l.cfg.Factory, token0, token1, fee)
		return err
	})
	if err != nil {
		return common.Address{}, fmt.Errorf("resolve pool: %w", err)
	}
	return pool, nil
}

func buildPosition(token0, token1 model.TokenMeta, details model.PositionDetails, snapshot model.PoolSnapshot) (*univ3.Position, error) {
	if snapshot.Slot0 == nil {
		return nil, fmt.Errorf("pool %s has no slot0", snapshot.Address)
	}
	sqrtPrice, ok := new(big.Int).SetString(snapshot.Slot0.SqrtPriceX96, 10)
	if !ok {
		return nil, fmt.Errorf("invalid sqrt price %q", snapshot.Slot0.SqrtPriceX96)
	}
	poolLiquidity, ok := new(big.Int).SetString(orZero(snapshot.Liquidity), 10)
	if !ok {
		return nil, fmt.Errorf("invalid pool liquidity %q", snapshot.Liquidity)
	}
	liquidity, ok := new(big.Int).SetString(orZero(details.Liquidity), 10)
	if !ok {
		return nil, fmt.Errorf("invalid position liquidity %q", details.Liquidity)
	}

	pool, err := univ3.NewPool(token0, token1, details.Fee, snapshot.TickSpacing, sqrtPrice, snapshot.Slot0.Tick, poolLiquidity)
	if err != nil {
		return nil, err
	}
	return univ3.NewPosition(pool, liquidity, details.TickLower, details.TickUpper)
}

func orZero(value string) string {
	if value == "" {
		return "0"
	}
	return value
}
