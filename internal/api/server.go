// internal/api/server.go

// Package api exposes the HTTP surface: launch metadata, live reserves, the
// paginated graduated index, Prometheus metrics, and the mutation endpoints
// for launching, curve trading and redemption.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/cors"
	"go.uber.org/zap"

	"github.com/rovshanmuradov/launchpad/internal/auth"
	"github.com/rovshanmuradov/launchpad/internal/curve"
	"github.com/rovshanmuradov/launchpad/internal/launch"
	"github.com/rovshanmuradov/launchpad/internal/ledger"
	"github.com/rovshanmuradov/launchpad/internal/listing"
	"github.com/rovshanmuradov/launchpad/internal/router"
)

const (
	defaultPageLimit = 50
	maxPageLimit     = 500
)

// LaunchReader is the read slice of the engine the API serves from.
type LaunchReader interface {
	GetLaunch(launchID string) (launch.Info, error)
	ListLaunches() []launch.Info
	ListGraduated(limit, offset int) []launch.Info
	Reserves(launchID string) (tokenReserve, assetReserve uint64, err error)
}

// Trader is the mutation slice of the engine behind the trade endpoints.
type Trader interface {
	Buy(ctx context.Context, launchID string, trader ledger.Account, assetIn, minTokensOut uint64, deadline time.Time) (*router.TradeResult, error)
	Sell(ctx context.Context, launchID string, trader ledger.Account, tokensIn, minAssetOut uint64, deadline time.Time) (*router.TradeResult, error)
	Redeem(ctx context.Context, launchID string, holder ledger.Account, amount uint64) error
}

// Server wraps the HTTP listener around the engine and the listing facade.
type Server struct {
	engine  LaunchReader
	trader  Trader
	listing *listing.Facade
	server  *http.Server
	logger  *zap.Logger
}

// New builds a server listening on addr. trader and facade may be nil to
// serve a read-only surface.
func New(addr string, engine LaunchReader, trader Trader, facade *listing.Facade, logger *zap.Logger) *Server {
	s := &Server{
		engine:  engine,
		trader:  trader,
		listing: facade,
		logger:  logger.Named("api"),
	}

	r := mux.NewRouter()
	r.Use(s.logRequests)
	r.HandleFunc("/healthz", s.handleHealth).Methods(http.MethodGet)
	r.Handle("/metrics", promhttp.Handler()).Methods(http.MethodGet)

	v1 := r.PathPrefix("/v1").Subrouter()
	v1.HandleFunc("/launches", s.handleListLaunches).Methods(http.MethodGet)
	v1.HandleFunc("/launches/{id}", s.handleGetLaunch).Methods(http.MethodGet)
	v1.HandleFunc("/launches/{id}/reserves", s.handleReserves).Methods(http.MethodGet)
	v1.HandleFunc("/graduated", s.handleGraduated).Methods(http.MethodGet)
	if s.listing != nil {
		v1.HandleFunc("/launches", s.handleCreateLaunch).Methods(http.MethodPost)
	}
	if s.trader != nil {
		v1.HandleFunc("/launches/{id}/buy", s.handleTrade(false)).Methods(http.MethodPost)
		v1.HandleFunc("/launches/{id}/sell", s.handleTrade(true)).Methods(http.MethodPost)
		v1.HandleFunc("/launches/{id}/redeem", s.handleRedeem).Methods(http.MethodPost)
	}

	handler := cors.New(cors.Options{
		AllowedMethods: []string{http.MethodGet, http.MethodPost},
		AllowedHeaders: []string{"Content-Type"},
	}).Handler(r)

	s.server = &http.Server{
		Addr:         addr,
		Handler:      handler,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
	}
	return s
}

// Handler returns the configured HTTP handler. Used by tests.
func (s *Server) Handler() http.Handler {
	return s.server.Handler
}

// ListenAndServe blocks serving requests until Shutdown.
func (s *Server) ListenAndServe() error {
	s.logger.Info("API listening", zap.String("addr", s.server.Addr))
	if err := s.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown drains in-flight requests.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.server.Shutdown(ctx)
}

type launchResponse struct {
	ID                 string   `json:"id"`
	Creator            string   `json:"creator"`
	Name               string   `json:"name"`
	Symbol             string   `json:"symbol"`
	Description        string   `json:"description,omitempty"`
	ImageRef           string   `json:"image_ref,omitempty"`
	SocialLinks        []string `json:"social_links,omitempty"`
	Tags               []int    `json:"tags,omitempty"`
	RestrictedToken    string   `json:"restricted_token"`
	FreeToken          string   `json:"free_token,omitempty"`
	PoolID             string   `json:"pool_id"`
	VenuePoolID        string   `json:"venue_pool_id,omitempty"`
	TradingEnabled     bool     `json:"trading_enabled"`
	Graduated          bool     `json:"graduated"`
	ReserveAssetRaised uint64   `json:"reserve_asset_raised"`
	TokensSold         uint64   `json:"tokens_sold"`
	TokenReserve       uint64   `json:"token_reserve"`
	AssetReserve       uint64   `json:"asset_reserve"`
	CreatedAt          string   `json:"created_at"`
	GraduatedAt        string   `json:"graduated_at,omitempty"`
}

type reservesResponse struct {
	PoolID       string `json:"pool_id"`
	TokenReserve uint64 `json:"token_reserve"`
	AssetReserve uint64 `json:"asset_reserve"`
}

type errorResponse struct {
	Error string `json:"error"`
}

type createLaunchRequest struct {
	Creator     string   `json:"creator"`
	Name        string   `json:"name"`
	Symbol      string   `json:"symbol"`
	Description string   `json:"description"`
	ImageRef    string   `json:"image_ref"`
	SocialLinks []string `json:"social_links"`
	Tags        []int    `json:"tags"`
	Deposit     uint64   `json:"deposit"`
}

type createLaunchResponse struct {
	LaunchID        string `json:"launch_id"`
	PoolID          string `json:"pool_id"`
	RestrictedToken string `json:"restricted_token"`
	TokensOut       uint64 `json:"tokens_out"`
}

type tradeRequest struct {
	Trader    string `json:"trader"`
	AmountIn  uint64 `json:"amount_in"`
	MinOut    uint64 `json:"min_out"`
	DeadlineS int64  `json:"deadline_unix,omitempty"`
}

type tradeResponse struct {
	AmountIn     uint64 `json:"amount_in"`
	AmountOut    uint64 `json:"amount_out"`
	TokenReserve uint64 `json:"token_reserve"`
	AssetReserve uint64 `json:"asset_reserve"`
}

type redeemRequest struct {
	Holder string `json:"holder"`
	Amount uint64 `json:"amount"`
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleListLaunches(w http.ResponseWriter, _ *http.Request) {
	infos := s.engine.ListLaunches()
	out := make([]launchResponse, 0, len(infos))
	for _, info := range infos {
		out = append(out, toResponse(info))
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleGetLaunch(w http.ResponseWriter, r *http.Request) {
	info, err := s.engine.GetLaunch(mux.Vars(r)["id"])
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toResponse(info))
}

func (s *Server) handleReserves(w http.ResponseWriter, r *http.Request) {
	launchID := mux.Vars(r)["id"]
	info, err := s.engine.GetLaunch(launchID)
	if err != nil {
		writeError(w, err)
		return
	}
	tokenReserve, assetReserve, err := s.engine.Reserves(launchID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, reservesResponse{
		PoolID:       info.PoolID,
		TokenReserve: tokenReserve,
		AssetReserve: assetReserve,
	})
}

func (s *Server) handleGraduated(w http.ResponseWriter, r *http.Request) {
	limit := queryInt(r, "limit", defaultPageLimit)
	offset := queryInt(r, "offset", 0)
	if limit < 1 || limit > maxPageLimit || offset < 0 {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid pagination"})
		return
	}

	infos := s.engine.ListGraduated(limit, offset)
	out := make([]launchResponse, 0, len(infos))
	for _, info := range infos {
		out = append(out, toResponse(info))
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleCreateLaunch(w http.ResponseWriter, r *http.Request) {
	var req createLaunchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "malformed request body"})
		return
	}

	result, err := s.listing.Launch(r.Context(), ledger.Account(req.Creator), listing.Params{
		Name:        req.Name,
		Symbol:      req.Symbol,
		Description: req.Description,
		ImageRef:    req.ImageRef,
		SocialLinks: req.SocialLinks,
		Tags:        req.Tags,
	}, req.Deposit)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, createLaunchResponse{
		LaunchID:        result.LaunchID,
		PoolID:          result.PoolID,
		RestrictedToken: string(result.RestrictedToken),
		TokensOut:       result.TokensOut,
	})
}

func (s *Server) handleTrade(selling bool) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req tradeRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeJSON(w, http.StatusBadRequest, errorResponse{Error: "malformed request body"})
			return
		}

		var deadline time.Time
		if req.DeadlineS > 0 {
			deadline = time.Unix(req.DeadlineS, 0)
		}

		launchID := mux.Vars(r)["id"]
		trader := ledger.Account(req.Trader)
		var result *router.TradeResult
		var err error
		if selling {
			result, err = s.trader.Sell(r.Context(), launchID, trader, req.AmountIn, req.MinOut, deadline)
		} else {
			result, err = s.trader.Buy(r.Context(), launchID, trader, req.AmountIn, req.MinOut, deadline)
		}
		if err != nil {
			writeError(w, err)
			return
		}

		writeJSON(w, http.StatusOK, tradeResponse{
			AmountIn:     result.AmountIn,
			AmountOut:    result.AmountOut,
			TokenReserve: result.TokenReserve,
			AssetReserve: result.AssetReserve,
		})
	}
}

func (s *Server) handleRedeem(w http.ResponseWriter, r *http.Request) {
	var req redeemRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "malformed request body"})
		return
	}

	if err := s.trader.Redeem(r.Context(), mux.Vars(r)["id"], ledger.Account(req.Holder), req.Amount); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "redeemed"})
}

func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		next.ServeHTTP(w, r)
		s.logger.Debug("Request served",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Duration("elapsed", time.Since(start)))
	})
}

func toResponse(info launch.Info) launchResponse {
	resp := launchResponse{
		ID:                 info.ID,
		Creator:            info.Creator,
		Name:               info.Meta.Name,
		Symbol:             info.Meta.Symbol,
		Description:        info.Meta.Description,
		ImageRef:           info.Meta.ImageRef,
		Tags:               info.Meta.Tags,
		RestrictedToken:    info.RestrictedToken,
		FreeToken:          info.FreeToken,
		PoolID:             info.PoolID,
		VenuePoolID:        info.VenuePoolID,
		TradingEnabled:     info.TradingEnabled,
		Graduated:          info.Graduated,
		ReserveAssetRaised: info.ReserveAssetRaised,
		TokensSold:         info.TokensSold,
		TokenReserve:       info.TokenReserve,
		AssetReserve:       info.AssetReserve,
		CreatedAt:          info.CreatedAt.UTC().Format(time.RFC3339),
	}
	for _, link := range info.Meta.SocialLinks {
		if link != "" {
			resp.SocialLinks = append(resp.SocialLinks, link)
		}
	}
	if info.GraduatedAt != nil {
		resp.GraduatedAt = info.GraduatedAt.UTC().Format(time.RFC3339)
	}
	return resp
}

func writeError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, launch.ErrLaunchNotFound):
		status = http.StatusNotFound
	case errors.Is(err, launch.ErrValidation),
		errors.Is(err, router.ErrInvalidAmount),
		errors.Is(err, router.ErrTradeTooLarge):
		status = http.StatusBadRequest
	case errors.Is(err, launch.ErrAlreadyGraduated),
		errors.Is(err, launch.ErrNotGraduated),
		errors.Is(err, launch.ErrTradingDisabled),
		errors.Is(err, launch.ErrReentrantCall),
		errors.Is(err, curve.ErrSlippageExceeded),
		errors.Is(err, router.ErrExpired):
		status = http.StatusConflict
	case errors.Is(err, ledger.ErrInsufficientBalance),
		errors.Is(err, ledger.ErrInsufficientAllowance):
		status = http.StatusPaymentRequired
	case errors.Is(err, auth.ErrUnauthorized):
		status = http.StatusForbidden
	}
	writeJSON(w, status, errorResponse{Error: err.Error()})
}

func writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func queryInt(r *http.Request, key string, fallback int) int {
	raw := r.URL.Query().Get(key)
	if raw == "" {
		return fallback
	}
	value, err := strconv.Atoi(raw)
	if err != nil {
		return -1
	}
	return value
}
