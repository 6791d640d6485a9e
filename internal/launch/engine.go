// internal/launch/engine.go
package launch

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/rovshanmuradov/launchpad/internal/auth"
	"github.com/rovshanmuradov/launchpad/internal/curve"
	"github.com/rovshanmuradov/launchpad/internal/events"
	"github.com/rovshanmuradov/launchpad/internal/ledger"
	"github.com/rovshanmuradov/launchpad/internal/metrics"
	"github.com/rovshanmuradov/launchpad/internal/router"
	"github.com/rovshanmuradov/launchpad/internal/storage"
	"github.com/rovshanmuradov/launchpad/internal/storage/models"
	"github.com/rovshanmuradov/launchpad/internal/venue"
)

// EngineAccount is the ledger account traders and creators grant allowances
// to. All engine-initiated TransferFrom calls spend through it.
const EngineAccount = ledger.Account("engine")

// Economics bundles the fee and threshold parameters. The admin surface
// mutates it at runtime; changes apply to subsequent operations only.
type Economics struct {
	ReserveAsset         ledger.TokenID
	FlatFee              uint64
	MinDeposit           uint64
	TradeFeeBps          uint64
	GraduationThreshold  uint64
	TokenSupply          uint64
	VirtualTokenReserves uint64
	VirtualAssetReserves uint64
	FeeRecipient         ledger.Account
}

// Deps collects the engine's collaborators. Bus and Metrics may be nil.
type Deps struct {
	Registry *curve.Registry
	Router   *router.Router
	Ledger   ledger.Ledger
	Venue    venue.Venue
	Store    storage.Storage
	Bus      *events.Bus
	Metrics  *metrics.Collector
	Policy   *auth.Policy
	Clock    func() time.Time
	Logger   *zap.Logger
}

// CreateResult reports the identities minted by a successful launch.
type CreateResult struct {
	LaunchID        string
	PoolID          string
	RestrictedToken ledger.TokenID
	TokensOut       uint64
}

// Engine owns the launch lifecycle: creation with an implicit first buy,
// curve trading, the graduation migration and post-graduation redemption.
// The in-memory launch map is authoritative; storage is written through for
// audit and crash recovery.
type Engine struct {
	launches  map[string]*Launch
	order     []string // creation order, for listings
	graduated []string // graduation order

	registry *curve.Registry
	router   *router.Router
	ledger   ledger.Ledger
	venue    venue.Venue
	store    storage.Storage
	bus      *events.Bus
	metrics  *metrics.Collector

	policy  *auth.Policy
	poolCap auth.Capability
	execCap auth.Capability

	econ   Economics
	now    func() time.Time
	logger *zap.Logger

	// mu guards the launch map, the order slices and econ. Per-launch
	// operation serialization is the job of each Launch's own guard.
	mu sync.RWMutex
}

// NewEngine wires an engine from its collaborators. It grants itself the
// pool-admin and executor capabilities from the shared policy.
func NewEngine(econ Economics, deps Deps) (*Engine, error) {
	if deps.Registry == nil || deps.Router == nil || deps.Ledger == nil || deps.Store == nil || deps.Policy == nil {
		return nil, fmt.Errorf("%w: missing collaborator", ErrNotInitialized)
	}
	clock := deps.Clock
	if clock == nil {
		clock = time.Now
	}
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Engine{
		launches: make(map[string]*Launch),
		registry: deps.Registry,
		router:   deps.Router,
		ledger:   deps.Ledger,
		venue:    deps.Venue,
		store:    deps.Store,
		bus:      deps.Bus,
		metrics:  deps.Metrics,
		policy:   deps.Policy,
		poolCap:  deps.Policy.Grant(auth.RolePoolAdmin),
		execCap:  deps.Policy.Grant(auth.RoleExecutor),
		econ:     econ,
		now:      clock,
		logger:   logger.Named("engine"),
	}, nil
}

// CreateLaunch registers a new asset, collects the flat creation fee, seeds a
// bonding pool with virtual reserves and executes the creator's first buy
// with the remaining deposit. All-or-nothing: any failure unwinds every step
// already taken and leaves no state behind.
func (e *Engine) CreateLaunch(ctx context.Context, creator ledger.Account, meta Meta, initialDeposit uint64) (*CreateResult, error) {
	if err := validateMeta(meta); err != nil {
		return nil, err
	}
	if creator == "" {
		return nil, fmt.Errorf("%w: empty creator account", ErrValidation)
	}

	e.mu.RLock()
	econ := e.econ
	v := e.venue
	e.mu.RUnlock()

	if v == nil {
		return nil, fmt.Errorf("%w: no venue configured", ErrNotInitialized)
	}
	if initialDeposit <= econ.MinDeposit+econ.FlatFee {
		return nil, fmt.Errorf("%w: deposit %d must exceed minimum %d plus flat fee %d",
			ErrValidation, initialDeposit, econ.MinDeposit, econ.FlatFee)
	}

	launchID := uuid.New().String()
	restricted := ledger.TokenID("rst:" + launchID)

	// Flat fee first; everything after it is compensated on failure.
	if err := e.ledger.TransferFrom(ctx, econ.ReserveAsset, creator, EngineAccount, econ.FeeRecipient, econ.FlatFee); err != nil {
		return nil, fmt.Errorf("launch: collect creation fee: %w", err)
	}
	refundFee := func() {
		if err := e.ledger.Transfer(ctx, econ.ReserveAsset, econ.FeeRecipient, creator, econ.FlatFee); err != nil {
			e.logger.Error("Creation fee refund failed",
				zap.String("launch_id", launchID), zap.Error(err))
		}
	}

	pool, err := e.registry.CreatePool(e.poolCap, curve.PoolParams{
		Token:     restricted,
		Asset:     econ.ReserveAsset,
		TokenSeed: econ.VirtualTokenReserves,
		AssetSeed: econ.VirtualAssetReserves,
		FeeBps:    econ.TradeFeeBps,
	})
	if err != nil {
		refundFee()
		return nil, err
	}
	removePool := func() {
		if err := e.registry.Remove(e.poolCap, pool.ID); err != nil {
			e.logger.Error("Pool removal failed during unwind",
				zap.String("pool_id", pool.ID), zap.Error(err))
		}
	}

	poolAcct := router.PoolAccount(pool.ID)
	if err := e.ledger.Mint(ctx, restricted, poolAcct, econ.TokenSupply); err != nil {
		removePool()
		refundFee()
		return nil, fmt.Errorf("launch: mint restricted supply: %w", err)
	}
	burnSupply := func() {
		if err := e.ledger.Burn(ctx, restricted, poolAcct, econ.TokenSupply); err != nil {
			e.logger.Error("Supply burn failed during unwind",
				zap.String("launch_id", launchID), zap.Error(err))
		}
	}

	buyIn := initialDeposit - econ.FlatFee
	res, err := e.router.Buy(ctx, e.execCap, pool.ID, creator, buyIn, 1, time.Time{})
	if err != nil {
		burnSupply()
		removePool()
		refundFee()
		return nil, err
	}

	now := e.now().UTC()
	l := &Launch{
		ID:                 launchID,
		Creator:            creator,
		Meta:               meta,
		RestrictedToken:    restricted,
		PoolID:             pool.ID,
		TradingEnabled:     true,
		ReserveAssetRaised: curve.NetOfFee(buyIn, econ.TradeFeeBps),
		TokensSold:         res.AmountOut,
		CreatedAt:          now,
	}

	if err := e.store.SaveLaunch(ctx, launchRecord(l)); err != nil {
		e.unwindTrade(ctx, l, pool, creator, res, false)
		burnSupply()
		removePool()
		refundFee()
		return nil, fmt.Errorf("launch: persist: %w", err)
	}

	e.mu.Lock()
	e.launches[launchID] = l
	e.order = append(e.order, launchID)
	e.mu.Unlock()

	e.recordTradeRow(ctx, l, creator, "buy", res)
	e.publish(&events.LaunchCreatedEvent{
		BaseEvent: events.BaseEvent{EventType: events.LaunchCreated, EventTime: now},
		LaunchID:  launchID,
		Creator:   string(creator),
		Name:      meta.Name,
		Symbol:    meta.Symbol,
		PoolID:    pool.ID,
		Deposit:   initialDeposit,
		TokensOut: res.AmountOut,
	})
	if e.metrics != nil {
		e.metrics.RecordLaunch()
		e.metrics.SetReserves(pool.ID, res.TokenReserve, res.AssetReserve)
	}

	e.logger.Info("Launch created",
		zap.String("launch_id", launchID),
		zap.String("pool_id", pool.ID),
		zap.String("creator", string(creator)),
		zap.Uint64("deposit", initialDeposit),
		zap.Uint64("tokens_out", res.AmountOut))

	// A large enough first deposit can cross the threshold outright.
	if res.AssetReserve >= econ.GraduationThreshold {
		l.guard.Lock()
		err := e.graduate(ctx, l, pool, res)
		l.guard.Unlock()
		if err != nil {
			e.logger.Warn("Graduation on first buy failed, launch stays on the curve",
				zap.String("launch_id", launchID), zap.Error(err))
		}
	}

	return &CreateResult{
		LaunchID:        launchID,
		PoolID:          pool.ID,
		RestrictedToken: restricted,
		TokensOut:       res.AmountOut,
	}, nil
}

// Buy swaps assetIn of the reserve asset for restricted tokens. If the live
// asset reserve reaches the graduation threshold afterwards, the migration
// runs synchronously inside the same call; a failed migration reverts the
// triggering buy as well.
func (e *Engine) Buy(ctx context.Context, launchID string, trader ledger.Account, assetIn, minTokensOut uint64, deadline time.Time) (*router.TradeResult, error) {
	l, err := e.get(launchID)
	if err != nil {
		return nil, err
	}
	if !l.guard.TryLock() {
		return nil, ErrReentrantCall
	}
	defer l.guard.Unlock()

	if l.Graduated {
		return nil, fmt.Errorf("%w: trade on the external venue", ErrAlreadyGraduated)
	}
	if !l.TradingEnabled {
		return nil, ErrTradingDisabled
	}

	e.mu.RLock()
	econ := e.econ
	e.mu.RUnlock()

	pool, err := e.registry.Get(l.PoolID)
	if err != nil {
		return nil, err
	}

	start := e.now()
	res, err := e.router.Buy(ctx, e.execCap, l.PoolID, trader, assetIn, minTokensOut, deadline)
	if e.metrics != nil {
		e.metrics.RecordTrade("buy", e.now().Sub(start), err == nil)
	}
	if err != nil {
		return nil, err
	}

	l.ReserveAssetRaised += curve.NetOfFee(assetIn, pool.FeeBps())
	l.TokensSold += res.AmountOut

	if res.AssetReserve >= econ.GraduationThreshold {
		if err := e.graduate(ctx, l, pool, res); err != nil {
			l.ReserveAssetRaised = satSub(l.ReserveAssetRaised, curve.NetOfFee(assetIn, pool.FeeBps()))
			l.TokensSold = satSub(l.TokensSold, res.AmountOut)
			e.unwindTrade(ctx, l, pool, trader, res, false)
			return nil, err
		}
	}

	e.finishTrade(ctx, l, trader, "buy", res)
	return res, nil
}

// Sell swaps tokensIn restricted tokens back into the reserve asset. Selling
// never triggers graduation, even if the reserve later re-crosses the
// threshold on a buy.
func (e *Engine) Sell(ctx context.Context, launchID string, trader ledger.Account, tokensIn, minAssetOut uint64, deadline time.Time) (*router.TradeResult, error) {
	l, err := e.get(launchID)
	if err != nil {
		return nil, err
	}
	if !l.guard.TryLock() {
		return nil, ErrReentrantCall
	}
	defer l.guard.Unlock()

	if l.Graduated {
		return nil, fmt.Errorf("%w: trade on the external venue", ErrAlreadyGraduated)
	}
	if !l.TradingEnabled {
		return nil, ErrTradingDisabled
	}

	start := e.now()
	res, err := e.router.Sell(ctx, e.execCap, l.PoolID, trader, tokensIn, minAssetOut, deadline)
	if e.metrics != nil {
		e.metrics.RecordTrade("sell", e.now().Sub(start), err == nil)
	}
	if err != nil {
		return nil, err
	}

	l.ReserveAssetRaised = satSub(l.ReserveAssetRaised, res.AmountOut)
	l.TokensSold = satSub(l.TokensSold, tokensIn)

	e.finishTrade(ctx, l, trader, "sell", res)
	return res, nil
}

// finishTrade persists the audit row, publishes the event and updates gauges
// after a trade (and its possible graduation) has settled.
func (e *Engine) finishTrade(ctx context.Context, l *Launch, trader ledger.Account, side string, res *router.TradeResult) {
	e.recordTradeRow(ctx, l, trader, side, res)
	if err := e.store.UpdateLaunch(ctx, launchRecord(l)); err != nil {
		e.logger.Error("Launch update failed after trade",
			zap.String("launch_id", l.ID), zap.Error(err))
	}
	e.publish(&events.TradeExecutedEvent{
		BaseEvent:    events.BaseEvent{EventType: events.TradeExecuted, EventTime: e.now().UTC()},
		LaunchID:     l.ID,
		Trader:       string(trader),
		Side:         side,
		AmountIn:     res.AmountIn,
		AmountOut:    res.AmountOut,
		TokenReserve: res.TokenReserve,
		AssetReserve: res.AssetReserve,
	})
	if e.metrics != nil {
		e.metrics.SetReserves(l.PoolID, res.TokenReserve, res.AssetReserve)
	}
}

func (e *Engine) recordTradeRow(ctx context.Context, l *Launch, trader ledger.Account, side string, res *router.TradeResult) {
	record := &models.TradeRecord{
		LaunchID:     l.ID,
		Trader:       string(trader),
		Side:         side,
		AmountIn:     res.AmountIn,
		AmountOut:    res.AmountOut,
		TokenReserve: res.TokenReserve,
		AssetReserve: res.AssetReserve,
	}
	if err := e.store.SaveTrade(ctx, record); err != nil {
		e.logger.Error("Trade audit row write failed",
			zap.String("launch_id", l.ID), zap.Error(err))
	}
}

// unwindTrade reverses a just-executed trade: reserves first, then both
// ledger legs. Only called while the launch guard is held.
func (e *Engine) unwindTrade(ctx context.Context, l *Launch, pool *curve.Pool, trader ledger.Account, res *router.TradeResult, sellingToken bool) {
	pool.RevertTrade(res.AmountIn, res.AmountOut, sellingToken)

	poolAcct := router.PoolAccount(l.PoolID)
	tokenIn, tokenOut := pool.Asset, pool.Token
	if sellingToken {
		tokenIn, tokenOut = pool.Token, pool.Asset
	}
	if err := e.ledger.Transfer(ctx, tokenOut, trader, poolAcct, res.AmountOut); err != nil {
		e.logger.Error("Trade unwind: outbound leg return failed",
			zap.String("launch_id", l.ID), zap.Error(err))
	}
	if err := e.ledger.Transfer(ctx, tokenIn, poolAcct, trader, res.AmountIn); err != nil {
		e.logger.Error("Trade unwind: inbound leg refund failed",
			zap.String("launch_id", l.ID), zap.Error(err))
	}
}

// GetLaunch returns a snapshot of one launch with its live reserves.
func (e *Engine) GetLaunch(launchID string) (Info, error) {
	l, err := e.get(launchID)
	if err != nil {
		return Info{}, err
	}
	return e.snapshot(l), nil
}

// Reserves returns the live pool reserves of a launch.
func (e *Engine) Reserves(launchID string) (tokenReserve, assetReserve uint64, err error) {
	l, err := e.get(launchID)
	if err != nil {
		return 0, 0, err
	}
	pool, err := e.registry.Get(l.PoolID)
	if err != nil {
		return 0, 0, err
	}
	tokenReserve, assetReserve = pool.Reserves()
	return tokenReserve, assetReserve, nil
}

// ListLaunches returns snapshots of all launches in creation order.
func (e *Engine) ListLaunches() []Info {
	e.mu.RLock()
	ids := append([]string(nil), e.order...)
	e.mu.RUnlock()

	result := make([]Info, 0, len(ids))
	for _, id := range ids {
		if info, err := e.GetLaunch(id); err == nil {
			result = append(result, info)
		}
	}
	return result
}

// ListGraduated returns graduated launches in graduation order, paginated.
func (e *Engine) ListGraduated(limit, offset int) []Info {
	e.mu.RLock()
	ids := append([]string(nil), e.graduated...)
	e.mu.RUnlock()

	if offset < 0 || offset >= len(ids) || limit <= 0 {
		return nil
	}
	end := offset + limit
	if end > len(ids) {
		end = len(ids)
	}

	result := make([]Info, 0, end-offset)
	for _, id := range ids[offset:end] {
		if info, err := e.GetLaunch(id); err == nil {
			result = append(result, info)
		}
	}
	return result
}

func (e *Engine) snapshot(l *Launch) Info {
	var tokenReserve, assetReserve uint64
	if pool, err := e.registry.Get(l.PoolID); err == nil {
		tokenReserve, assetReserve = pool.Reserves()
	}

	// Queries wait for an in-flight operation instead of reading torn state.
	l.guard.Lock()
	defer l.guard.Unlock()
	return l.snapshot(tokenReserve, assetReserve)
}

func (e *Engine) get(launchID string) (*Launch, error) {
	e.mu.RLock()
	defer e.mu.RUnlock()

	l, ok := e.launches[launchID]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrLaunchNotFound, launchID)
	}
	return l, nil
}

func (e *Engine) publish(event events.Event) {
	if e.bus == nil {
		return
	}
	if err := e.bus.Publish(event); err != nil {
		e.logger.Warn("Event publish failed",
			zap.String("event_type", string(event.Type())), zap.Error(err))
	}
}

func launchRecord(l *Launch) *models.LaunchRecord {
	return &models.LaunchRecord{
		LaunchID:           l.ID,
		Creator:            string(l.Creator),
		Name:               l.Meta.Name,
		Symbol:             l.Meta.Symbol,
		Description:        l.Meta.Description,
		ImageRef:           l.Meta.ImageRef,
		SocialLinks:        joinSocialLinks(l.Meta.SocialLinks),
		Tags:               joinTags(l.Meta.Tags),
		RestrictedToken:    string(l.RestrictedToken),
		FreeToken:          string(l.FreeToken),
		PoolID:             l.PoolID,
		VenuePoolID:        l.VenuePoolID,
		TradingEnabled:     l.TradingEnabled,
		Graduated:          l.Graduated,
		ReserveAssetRaised: l.ReserveAssetRaised,
		TokensSold:         l.TokensSold,
		GraduatedAt:        l.GraduatedAt,
	}
}

func validateMeta(meta Meta) error {
	if strings.TrimSpace(meta.Name) == "" {
		return fmt.Errorf("%w: empty name", ErrValidation)
	}
	if strings.TrimSpace(meta.Symbol) == "" {
		return fmt.Errorf("%w: empty symbol", ErrValidation)
	}
	if len(meta.Name) > 128 {
		return fmt.Errorf("%w: name exceeds 128 characters", ErrValidation)
	}
	if len(meta.Symbol) > 32 {
		return fmt.Errorf("%w: symbol exceeds 32 characters", ErrValidation)
	}
	return nil
}

func joinSocialLinks(links [4]string) string {
	var nonEmpty []string
	for _, link := range links {
		if link != "" {
			nonEmpty = append(nonEmpty, link)
		}
	}
	return strings.Join(nonEmpty, "\n")
}

func joinTags(tags []int) string {
	parts := make([]string, 0, len(tags))
	for _, tag := range tags {
		parts = append(parts, fmt.Sprintf("%d", tag))
	}
	return strings.Join(parts, ",")
}

func satSub(a, b uint64) uint64 {
	if b > a {
		return 0
	}
	return a - b
}
