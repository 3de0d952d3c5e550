package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"code.cubepool.io/cube/cubetoken"
	"code.cubepool.io/cube/feeds"
	"code.cubepool.io/cube/libs/num"
	"code.cubepool.io/cube/logging"
	"code.cubepool.io/cube/metrics"
	"code.cubepool.io/cube/pool"
	"code.cubepool.io/cube/types"

	"github.com/julienschmidt/httprouter"
	"github.com/rs/cors"
)

// PartyHeader carries the caller identity on every request that needs one.
const PartyHeader = "X-Cube-Party"

var ErrInvalidRequest = newError("invalid request")

type HTTPError struct {
	ErrorStr string `json:"error"`
}

func (e HTTPError) Error() string {
	return e.ErrorStr
}

func newError(e string) HTTPError {
	return HTTPError{ErrorStr: e}
}

// Server exposes the pool engine and feeds registry over REST. All mutating
// calls serialize through the engine's own lock.
type Server struct {
	*httprouter.Router

	log   *logging.Logger
	cfg   Config
	eng   *pool.Engine
	feeds *feeds.Registry
	s     *http.Server
}

// NewServer wires the routes and returns a server ready to Start.
func NewServer(log *logging.Logger, cfg Config, eng *pool.Engine, reg *feeds.Registry) *Server {
	log = log.Named(namedLogger)
	log.SetLevel(cfg.Level.Get())

	srv := &Server{
		Router: httprouter.New(),
		log:    log,
		cfg:    cfg,
		eng:    eng,
		feeds:  reg,
	}

	srv.POST("/api/v1/tokens", srv.AddCubeToken)
	srv.GET("/api/v1/tokens", srv.ListCubeTokens)
	srv.GET("/api/v1/tokens/:token", srv.TokenParams)
	srv.GET("/api/v1/tokens/:token/quote", srv.Quote)
	srv.GET("/api/v1/pool", srv.PoolState)

	srv.POST("/api/v1/deposit", srv.Deposit)
	srv.POST("/api/v1/withdraw", srv.Withdraw)
	srv.POST("/api/v1/buy", srv.Buy)
	srv.POST("/api/v1/sell", srv.Sell)
	srv.POST("/api/v1/quote/deposit", srv.QuoteDeposit)
	srv.POST("/api/v1/quote/withdraw", srv.QuoteWithdraw)

	srv.POST("/api/v1/update", srv.UpdateAll)
	srv.POST("/api/v1/update/:token", srv.Update)
	srv.POST("/api/v1/paused", srv.SetPaused)
	srv.POST("/api/v1/fees/collect", srv.CollectProtocolFees)

	srv.POST("/api/v1/tokens/:token/fee", srv.SetFee)
	srv.POST("/api/v1/tokens/:token/max-pool-share", srv.SetMaxPoolShare)
	srv.POST("/api/v1/fees/protocol", srv.SetProtocolFee)
	srv.POST("/api/v1/pool/max-balance", srv.SetMaxPoolBalance)
	srv.POST("/api/v1/governance", srv.SetGovernance)
	srv.POST("/api/v1/governance/accept", srv.AcceptGovernance)
	srv.POST("/api/v1/guardian", srv.SetGuardian)
	srv.POST("/api/v1/guardian/remove", srv.RemoveGuardian)

	srv.POST("/api/v1/feeds/:symbol", srv.PushFeedPrice)

	return srv
}

// Start runs the server until Stop is called or the listener fails.
func (s *Server) Start() error {
	s.s = &http.Server{
		Addr:    fmt.Sprintf("%s:%v", s.cfg.IP, s.cfg.Port),
		Handler: cors.AllowAll().Handler(s),
	}
	s.log.Info("starting api server", logging.String("address", s.s.Addr))
	return s.s.ListenAndServe()
}

func (s *Server) Stop() error {
	if s.s == nil {
		return nil
	}
	return s.s.Shutdown(context.Background())
}

type AddCubeTokenRequest struct {
	SpotSymbol      string `json:"spotSymbol"`
	Side            string `json:"side"`
	FeeBps          uint64 `json:"feeBps"`
	MaxPoolShareBps uint64 `json:"maxPoolShareBps"`
}

type AddCubeTokenResponse struct {
	Symbol string `json:"symbol"`
}

func (s *Server) AddCubeToken(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	defer rest("AddCubeToken")()
	req := AddCubeTokenRequest{}
	if err := unmarshalBody(r, &req); err != nil {
		writeError(w, newError(err.Error()), http.StatusBadRequest)
		return
	}
	side := types.SideLong
	if req.Side == "short" {
		side = types.SideShort
	}
	symbol, err := s.eng.AddCubeToken(r.Context(), party(r), req.SpotSymbol, side, req.FeeBps, req.MaxPoolShareBps)
	if err != nil {
		writeEngineError(w, err)
		return
	}
	writeSuccess(w, AddCubeTokenResponse{Symbol: symbol}, http.StatusOK)
}

func (s *Server) ListCubeTokens(w http.ResponseWriter, _ *http.Request, _ httprouter.Params) {
	defer rest("ListCubeTokens")()
	writeSuccess(w, s.eng.CubeTokens(), http.StatusOK)
}

type TokenParamsResponse struct {
	Added           bool   `json:"added"`
	SpotSymbol      string `json:"spotSymbol"`
	Side            string `json:"side"`
	DepositPaused   bool   `json:"depositPaused"`
	WithdrawPaused  bool   `json:"withdrawPaused"`
	UpdatePaused    bool   `json:"updatePaused"`
	FeeBps          uint64 `json:"feeBps"`
	MaxPoolShareBps uint64 `json:"maxPoolShareBps"`
	InitialPrice    string `json:"initialPrice"`
	LastPrice       string `json:"lastPrice"`
	LastUpdated     string `json:"lastUpdated"`
	TotalSupply     string `json:"totalSupply"`
}

func (s *Server) TokenParams(w http.ResponseWriter, _ *http.Request, p httprouter.Params) {
	defer rest("TokenParams")()
	params := s.eng.Params(p.ByName("token"))
	if !params.Added {
		writeError(w, newError("cube token not added"), http.StatusNotFound)
		return
	}
	writeSuccess(w, TokenParamsResponse{
		Added:           params.Added,
		SpotSymbol:      params.SpotSymbol,
		Side:            params.Side.String(),
		DepositPaused:   params.DepositPaused,
		WithdrawPaused:  params.WithdrawPaused,
		UpdatePaused:    params.UpdatePaused,
		FeeBps:          params.FeeBps,
		MaxPoolShareBps: params.MaxPoolShareBps,
		InitialPrice:    params.InitialPrice.String(),
		LastPrice:       params.LastPrice.String(),
		LastUpdated:     params.LastUpdated.UTC().Format(time.RFC3339),
		TotalSupply:     params.TotalSupply.String(),
	}, http.StatusOK)
}

type QuoteResponse struct {
	Price string `json:"price"`
}

func (s *Server) Quote(w http.ResponseWriter, _ *http.Request, p httprouter.Params) {
	defer rest("Quote")()
	price, err := s.eng.Quote(p.ByName("token"))
	if err != nil {
		writeEngineError(w, err)
		return
	}
	writeSuccess(w, QuoteResponse{Price: price.String()}, http.StatusOK)
}

type PoolStateResponse struct {
	PoolBalance         string `json:"poolBalance"`
	AccruedProtocolFees string `json:"accruedProtocolFees"`
	TotalEquity         string `json:"totalEquity"`
	MaxPoolBalance      string `json:"maxPoolBalance"`
	ProtocolFeeBps      uint64 `json:"protocolFeeBps"`
	Governance          string `json:"governance"`
	Guardian            string `json:"guardian,omitempty"`
}

func (s *Server) PoolState(w http.ResponseWriter, _ *http.Request, _ httprouter.Params) {
	defer rest("PoolState")()
	st := s.eng.State()
	metrics.PoolBalanceSet(st.PoolBalance.Float64())
	metrics.TotalEquitySet(st.TotalEquity.Float64())
	writeSuccess(w, PoolStateResponse{
		PoolBalance:         st.PoolBalance.String(),
		AccruedProtocolFees: st.AccruedProtocolFees.String(),
		TotalEquity:         st.TotalEquity.String(),
		MaxPoolBalance:      st.MaxPoolBalance.String(),
		ProtocolFeeBps:      st.ProtocolFeeBps,
		Governance:          st.Governance,
		Guardian:            st.Guardian,
	}, http.StatusOK)
}

type TradeRequest struct {
	Token     string `json:"token"`
	Recipient string `json:"recipient"`
	// collateral for deposits, token quantity for withdrawals
	Amount string `json:"amount"`
	// collateral bound for buy/sell
	Limit string `json:"limit,omitempty"`
}

type TradeResponse struct {
	// quantity minted or collateral paid out
	Amount string `json:"amount"`
}

func (s *Server) Deposit(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	defer rest("Deposit")()
	req, amount, ok := s.tradeRequest(w, r)
	if !ok {
		return
	}
	qty, err := s.eng.Deposit(r.Context(), req.Token, party(r), req.Recipient, amount)
	if err != nil {
		writeEngineError(w, err)
		return
	}
	metrics.OperationCounterInc("deposit", "true")
	writeSuccess(w, TradeResponse{Amount: qty.String()}, http.StatusOK)
}

func (s *Server) Withdraw(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	defer rest("Withdraw")()
	req, amount, ok := s.tradeRequest(w, r)
	if !ok {
		return
	}
	out, err := s.eng.Withdraw(r.Context(), req.Token, party(r), req.Recipient, amount)
	if err != nil {
		writeEngineError(w, err)
		return
	}
	metrics.OperationCounterInc("withdraw", "true")
	writeSuccess(w, TradeResponse{Amount: out.String()}, http.StatusOK)
}

func (s *Server) Buy(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	defer rest("Buy")()
	req, quantity, ok := s.tradeRequest(w, r)
	if !ok {
		return
	}
	limit, ok := s.parseLimit(w, req.Limit)
	if !ok {
		return
	}
	in, err := s.eng.Buy(r.Context(), req.Token, party(r), req.Recipient, quantity, limit)
	if err != nil {
		writeEngineError(w, err)
		return
	}
	metrics.OperationCounterInc("buy", "true")
	writeSuccess(w, TradeResponse{Amount: in.String()}, http.StatusOK)
}

func (s *Server) Sell(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	defer rest("Sell")()
	req, quantity, ok := s.tradeRequest(w, r)
	if !ok {
		return
	}
	limit, ok := s.parseLimit(w, req.Limit)
	if !ok {
		return
	}
	out, err := s.eng.Sell(r.Context(), req.Token, party(r), req.Recipient, quantity, limit)
	if err != nil {
		writeEngineError(w, err)
		return
	}
	metrics.OperationCounterInc("sell", "true")
	writeSuccess(w, TradeResponse{Amount: out.String()}, http.StatusOK)
}

func (s *Server) QuoteDeposit(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	defer rest("QuoteDeposit")()
	req, amount, ok := s.tradeRequest(w, r)
	if !ok {
		return
	}
	qty, err := s.eng.QuoteDeposit(req.Token, amount)
	if err != nil {
		writeEngineError(w, err)
		return
	}
	writeSuccess(w, TradeResponse{Amount: qty.String()}, http.StatusOK)
}

func (s *Server) QuoteWithdraw(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	defer rest("QuoteWithdraw")()
	req, amount, ok := s.tradeRequest(w, r)
	if !ok {
		return
	}
	out, err := s.eng.QuoteWithdraw(req.Token, amount)
	if err != nil {
		writeEngineError(w, err)
		return
	}
	writeSuccess(w, TradeResponse{Amount: out.String()}, http.StatusOK)
}

func (s *Server) Update(w http.ResponseWriter, r *http.Request, p httprouter.Params) {
	defer rest("Update")()
	if err := s.eng.UpdatePrice(r.Context(), p.ByName("token")); err != nil {
		writeEngineError(w, err)
		return
	}
	writeSuccess(w, struct{}{}, http.StatusOK)
}

func (s *Server) UpdateAll(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	defer rest("UpdateAll")()
	if err := s.eng.UpdateAllPrices(r.Context()); err != nil {
		writeEngineError(w, err)
		return
	}
	writeSuccess(w, struct{}{}, http.StatusOK)
}

type SetPausedRequest struct {
	Token          string `json:"token"`
	DepositPaused  bool   `json:"depositPaused"`
	WithdrawPaused bool   `json:"withdrawPaused"`
	UpdatePaused   bool   `json:"updatePaused"`
}

func (s *Server) SetPaused(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	defer rest("SetPaused")()
	req := SetPausedRequest{}
	if err := unmarshalBody(r, &req); err != nil {
		writeError(w, newError(err.Error()), http.StatusBadRequest)
		return
	}
	// an empty token applies the flags to every registered token
	var err error
	if req.Token == "" {
		err = s.eng.SetAllPaused(r.Context(), party(r), req.DepositPaused, req.WithdrawPaused, req.UpdatePaused)
	} else {
		err = s.eng.SetPaused(r.Context(), party(r), req.Token, req.DepositPaused, req.WithdrawPaused, req.UpdatePaused)
	}
	if err != nil {
		writeEngineError(w, err)
		return
	}
	writeSuccess(w, struct{}{}, http.StatusOK)
}

type CollectFeesResponse struct {
	Amount string `json:"amount"`
}

func (s *Server) CollectProtocolFees(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	defer rest("CollectProtocolFees")()
	amount, err := s.eng.CollectProtocolFees(r.Context(), party(r))
	if err != nil {
		writeEngineError(w, err)
		return
	}
	writeSuccess(w, CollectFeesResponse{Amount: amount.String()}, http.StatusOK)
}

type SetBpsRequest struct {
	Bps uint64 `json:"bps"`
}

func (s *Server) SetFee(w http.ResponseWriter, r *http.Request, p httprouter.Params) {
	defer rest("SetFee")()
	req := SetBpsRequest{}
	if err := unmarshalBody(r, &req); err != nil {
		writeError(w, newError(err.Error()), http.StatusBadRequest)
		return
	}
	if err := s.eng.SetFee(r.Context(), party(r), p.ByName("token"), req.Bps); err != nil {
		writeEngineError(w, err)
		return
	}
	writeSuccess(w, struct{}{}, http.StatusOK)
}

func (s *Server) SetMaxPoolShare(w http.ResponseWriter, r *http.Request, p httprouter.Params) {
	defer rest("SetMaxPoolShare")()
	req := SetBpsRequest{}
	if err := unmarshalBody(r, &req); err != nil {
		writeError(w, newError(err.Error()), http.StatusBadRequest)
		return
	}
	if err := s.eng.SetMaxPoolShare(r.Context(), party(r), p.ByName("token"), req.Bps); err != nil {
		writeEngineError(w, err)
		return
	}
	writeSuccess(w, struct{}{}, http.StatusOK)
}

func (s *Server) SetProtocolFee(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	defer rest("SetProtocolFee")()
	req := SetBpsRequest{}
	if err := unmarshalBody(r, &req); err != nil {
		writeError(w, newError(err.Error()), http.StatusBadRequest)
		return
	}
	if err := s.eng.SetProtocolFee(r.Context(), party(r), req.Bps); err != nil {
		writeEngineError(w, err)
		return
	}
	writeSuccess(w, struct{}{}, http.StatusOK)
}

type SetMaxPoolBalanceRequest struct {
	// zero or empty removes the cap
	MaxPoolBalance string `json:"maxPoolBalance"`
}

func (s *Server) SetMaxPoolBalance(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	defer rest("SetMaxPoolBalance")()
	req := SetMaxPoolBalanceRequest{}
	if err := unmarshalBody(r, &req); err != nil {
		writeError(w, newError(err.Error()), http.StatusBadRequest)
		return
	}
	max, ok := s.parseLimit(w, req.MaxPoolBalance)
	if !ok {
		return
	}
	if err := s.eng.SetMaxPoolBalance(r.Context(), party(r), max); err != nil {
		writeEngineError(w, err)
		return
	}
	writeSuccess(w, struct{}{}, http.StatusOK)
}

type SetPartyRequest struct {
	Party string `json:"party"`
}

func (s *Server) SetGovernance(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	defer rest("SetGovernance")()
	req := SetPartyRequest{}
	if err := unmarshalBody(r, &req); err != nil {
		writeError(w, newError(err.Error()), http.StatusBadRequest)
		return
	}
	if err := s.eng.SetGovernance(r.Context(), party(r), req.Party); err != nil {
		writeEngineError(w, err)
		return
	}
	writeSuccess(w, struct{}{}, http.StatusOK)
}

func (s *Server) AcceptGovernance(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	defer rest("AcceptGovernance")()
	if err := s.eng.AcceptGovernance(r.Context(), party(r)); err != nil {
		writeEngineError(w, err)
		return
	}
	writeSuccess(w, struct{}{}, http.StatusOK)
}

func (s *Server) SetGuardian(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	defer rest("SetGuardian")()
	req := SetPartyRequest{}
	if err := unmarshalBody(r, &req); err != nil {
		writeError(w, newError(err.Error()), http.StatusBadRequest)
		return
	}
	if err := s.eng.SetGuardian(r.Context(), party(r), req.Party); err != nil {
		writeEngineError(w, err)
		return
	}
	writeSuccess(w, struct{}{}, http.StatusOK)
}

func (s *Server) RemoveGuardian(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	defer rest("RemoveGuardian")()
	if err := s.eng.RemoveGuardian(r.Context(), party(r)); err != nil {
		writeEngineError(w, err)
		return
	}
	writeSuccess(w, struct{}{}, http.StatusOK)
}

type PushFeedPriceRequest struct {
	Price string `json:"price"`
}

// PushFeedPrice lets an external oracle process drive the feed registry.
func (s *Server) PushFeedPrice(w http.ResponseWriter, r *http.Request, p httprouter.Params) {
	defer rest("PushFeedPrice")()
	req := PushFeedPriceRequest{}
	if err := unmarshalBody(r, &req); err != nil {
		writeError(w, newError(err.Error()), http.StatusBadRequest)
		return
	}
	price, overflow := num.UintFromString(req.Price, 10)
	if overflow {
		writeError(w, newError("price must be an unsigned integer"), http.StatusBadRequest)
		return
	}
	if err := s.feeds.PushPrice(p.ByName("symbol"), price); err != nil {
		writeEngineError(w, err)
		return
	}
	writeSuccess(w, struct{}{}, http.StatusOK)
}

func (s *Server) tradeRequest(w http.ResponseWriter, r *http.Request) (TradeRequest, *num.Uint, bool) {
	req := TradeRequest{}
	if err := unmarshalBody(r, &req); err != nil {
		writeError(w, newError(err.Error()), http.StatusBadRequest)
		return req, nil, false
	}
	if party(r) == "" {
		writeError(w, newError("missing "+PartyHeader+" header"), http.StatusBadRequest)
		return req, nil, false
	}
	amount, overflow := num.UintFromString(req.Amount, 10)
	if overflow {
		writeError(w, newError("amount must be an unsigned integer"), http.StatusBadRequest)
		return req, nil, false
	}
	return req, amount, true
}

func (s *Server) parseLimit(w http.ResponseWriter, limit string) (*num.Uint, bool) {
	if limit == "" {
		return nil, true
	}
	v, overflow := num.UintFromString(limit, 10)
	if overflow {
		writeError(w, newError("limit must be an unsigned integer"), http.StatusBadRequest)
		return nil, false
	}
	return v, true
}

func party(r *http.Request) string {
	return r.Header.Get(PartyHeader)
}

// rest starts a timer for the request metrics, the returned func records it
func rest(request string) func() {
	start := time.Now()
	return func() {
		metrics.APIRequestAndTimeREST(request, time.Since(start).Seconds())
	}
}

func unmarshalBody(r *http.Request, into interface{}) error {
	defer r.Body.Close()
	body, err := io.ReadAll(r.Body)
	if err != nil {
		return ErrInvalidRequest
	}
	return json.Unmarshal(body, into)
}

func writeError(w http.ResponseWriter, e error, status int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	buf, _ := json.Marshal(e)
	w.Write(buf)
}

func writeEngineError(w http.ResponseWriter, err error) {
	status := http.StatusBadRequest
	switch {
	case errors.Is(err, pool.ErrNotAdded):
		status = http.StatusNotFound
	case errors.Is(err, pool.ErrNotGovernance),
		errors.Is(err, pool.ErrNotPendingGovernance),
		errors.Is(err, pool.ErrNotGovernanceOrGuardian),
		errors.Is(err, cubetoken.ErrNotOwner):
		status = http.StatusForbidden
	case errors.Is(err, feeds.ErrPriceUnavailable):
		status = http.StatusServiceUnavailable
	}
	writeError(w, newError(err.Error()), status)
}

func writeSuccess(w http.ResponseWriter, data interface{}, status int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	buf, _ := json.Marshal(data)
	w.Write(buf)
}
