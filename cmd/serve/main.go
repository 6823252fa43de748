// Package main provides the HTTP service around the generator:
// - /run (POST): trigger a generation run
// - /stream: WebSocket feed of the latest dataset, row by row
// - /status, /health, /metrics: introspection endpoints
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/gorilla/websocket"
	"github.com/joho/godotenv"

	"cashflow-lab/internal/config"
	"cashflow-lab/internal/domain"
	"cashflow-lab/internal/observability"
	"cashflow-lab/internal/orchestrator"
)

const streamWriteTimeout = 10 * time.Second

// Server holds the generator state behind the HTTP endpoints.
type Server struct {
	cfg     *config.Config
	spec    domain.ProfileSpec
	metrics *observability.Metrics
	logger  *log.Logger

	mu        sync.RWMutex
	lastRun   *orchestrator.RunResult
	lastRunAt time.Time
	runs      int

	started  time.Time
	upgrader websocket.Upgrader
}

func main() {
	_ = godotenv.Load()

	// Parse flags
	configPath := flag.String("config", "", "Path to TOML config file")
	addr := flag.String("addr", "", "HTTP listen address; overrides config")
	profile := flag.String("profile", "", "Profile id (cashflow, accrual); overrides config")
	seed := flag.Uint64("seed", 0, "Generation seed; overrides config")
	interval := flag.Duration("interval", 1*time.Hour, "Regeneration interval (0 disables)")
	flag.Parse()

	logger := log.New(os.Stdout, "[serve] ", log.LstdFlags)

	cfg := config.Default()
	if *configPath != "" {
		var err error
		cfg, err = config.Load(*configPath)
		if err != nil {
			logger.Fatalf("load config: %v", err)
		}
	}
	if *profile != "" {
		cfg.Profile = *profile
	}
	if *seed != 0 {
		cfg.Seed = *seed
	}
	if *addr != "" {
		cfg.Serve.Addr = *addr
	}

	spec, err := cfg.ResolveSpec()
	if err != nil {
		logger.Fatalf("resolve profile: %v", err)
	}

	// Create context with cancellation for graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		logger.Printf("Received signal %v, shutting down...", sig)
		cancel()
	}()

	s := &Server{
		cfg:     cfg,
		spec:    spec,
		metrics: observability.NewMetrics(""),
		logger:  logger,
		started: time.Now(),
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool { return true },
		},
	}

	// Generate an initial dataset so /stream has something to serve.
	if err := s.runGeneration(ctx); err != nil {
		logger.Fatalf("initial generation: %v", err)
	}

	if *interval > 0 {
		go s.regenerateLoop(ctx, *interval)
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	})
	mux.Handle("/metrics", observability.Handler())
	mux.HandleFunc("/status", s.handleStatus)
	mux.HandleFunc("/run", s.handleRun)
	mux.HandleFunc("/stream", s.handleStream)

	httpServer := &http.Server{Addr: cfg.Serve.Addr, Handler: mux}
	go func() {
		<-ctx.Done()
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer shutdownCancel()
		httpServer.Shutdown(shutdownCtx)
	}()

	logger.Printf("Listening on %s (profile=%s seed=%d)", cfg.Serve.Addr, cfg.Profile, cfg.Seed)
	if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Fatalf("http server: %v", err)
	}
}

// runGeneration runs the orchestrator and swaps in the new result.
func (s *Server) runGeneration(ctx context.Context) error {
	start := time.Now()
	orch := orchestrator.New(orchestrator.Options{Spec: s.spec, Seed: s.cfg.Seed})

	result, err := orch.Run(ctx)
	if err != nil {
		s.metrics.RecordRun(s.cfg.Profile, "error", 0, 0, time.Since(start).Seconds())
		return err
	}

	s.metrics.RecordRun(s.cfg.Profile, "ok", result.RowsGenerated, len(result.Violations), time.Since(start).Seconds())
	s.metrics.LastSuccessfulRun.SetToCurrentTime()

	s.mu.Lock()
	s.lastRun = result
	s.lastRunAt = time.Now()
	s.runs++
	s.mu.Unlock()

	s.logger.Printf("Run %s: %d rows, %d violations in %v",
		result.RunID, result.RowsGenerated, len(result.Violations), time.Since(start))
	return nil
}

// regenerateLoop reruns the generator on a fixed interval until the
// context is cancelled.
func (s *Server) regenerateLoop(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := s.runGeneration(ctx); err != nil {
				s.logger.Printf("scheduled generation: %v", err)
			}
		}
	}
}

// StatusResponse is the JSON response for the /status endpoint.
type StatusResponse struct {
	Status     string    `json:"status"`
	Uptime     string    `json:"uptime"`
	Profile    string    `json:"profile"`
	Seed       uint64    `json:"seed"`
	Runs       int       `json:"runs"`
	LastRunID  string    `json:"last_run_id,omitempty"`
	LastRunAt  time.Time `json:"last_run_at,omitempty"`
	Rows       int       `json:"rows"`
	Violations int       `json:"violations"`
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	resp := StatusResponse{
		Status:  "running",
		Uptime:  time.Since(s.started).String(),
		Profile: s.cfg.Profile,
		Seed:    s.cfg.Seed,
		Runs:    s.runs,
	}
	if s.lastRun != nil {
		resp.LastRunID = s.lastRun.RunID
		resp.LastRunAt = s.lastRunAt
		resp.Rows = s.lastRun.RowsGenerated
		resp.Violations = len(s.lastRun.Violations)
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(resp)
}

func (s *Server) handleRun(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "POST required", http.StatusMethodNotAllowed)
		return
	}

	if err := s.runGeneration(r.Context()); err != nil {
		http.Error(w, fmt.Sprintf("generation failed: %v", err), http.StatusInternalServerError)
		return
	}

	s.mu.RLock()
	runID := s.lastRun.RunID
	rows := s.lastRun.RowsGenerated
	s.mu.RUnlock()

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]interface{}{"run_id": runID, "rows": rows})
}

// streamRow is the wire format for one dataset row on /stream.
type streamRow struct {
	Date      string `json:"date"`
	ProjectID string `json:"project_id"`

	ExpectedInflow    float64 `json:"expected_inflow,omitempty"`
	ExpectedOutflow   float64 `json:"expected_outflow,omitempty"`
	RevenueRecognized float64 `json:"revenue_recognized,omitempty"`
	COGSExpense       float64 `json:"cogs_expense,omitempty"`
	ActualInflow      float64 `json:"actual_inflow"`
	ActualOutflow     float64 `json:"actual_outflow"`

	AccountsReceivable float64 `json:"accounts_receivable,omitempty"`
	AccountsPayable    float64 `json:"accounts_payable,omitempty"`
	CurrentLiabilities float64 `json:"current_liabilities,omitempty"`

	OpeningCash float64 `json:"opening_cash"`
	ClosingCash float64 `json:"closing_cash"`
	NetCashFlow float64 `json:"net_cash_flow"`

	NetCashFlowLag1     *float64 `json:"net_cash_flow_lag1"`
	RollingNet7         float64  `json:"rolling_net_7"`
	RollingOutflow30    float64  `json:"rolling_outflow_30"`
	DSU                 float64  `json:"dsu,omitempty"`
	DPO                 float64  `json:"dpo,omitempty"`
	OCFRatio            float64  `json:"ocf_ratio,omitempty"`
	WorkingCapitalCycle float64  `json:"working_capital_cycle,omitempty"`
}

// handleStream upgrades to WebSocket and sends the latest dataset one
// row per message, then closes.
func (s *Server) handleStream(w http.ResponseWriter, r *http.Request) {
	s.mu.RLock()
	run := s.lastRun
	s.mu.RUnlock()
	if run == nil {
		http.Error(w, "no dataset generated yet", http.StatusServiceUnavailable)
		return
	}

	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Printf("stream upgrade: %v", err)
		return
	}
	defer conn.Close()

	s.metrics.StreamClients.Inc()
	defer s.metrics.StreamClients.Dec()

	for _, row := range run.Rows {
		conn.SetWriteDeadline(time.Now().Add(streamWriteTimeout))
		if err := conn.WriteJSON(toStreamRow(row)); err != nil {
			s.logger.Printf("stream write: %v", err)
			return
		}
		s.metrics.StreamRowsDelivered.Inc()
	}

	conn.SetWriteDeadline(time.Now().Add(streamWriteTimeout))
	conn.WriteMessage(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, "dataset complete"))
}

func toStreamRow(row domain.DatasetRow) streamRow {
	rec, f := row.Record, row.Features
	return streamRow{
		Date:               rec.Date.Format("2006-01-02"),
		ProjectID:          rec.ProjectID,
		ExpectedInflow:     rec.ExpectedInflow,
		ExpectedOutflow:    rec.ExpectedOutflow,
		RevenueRecognized:  rec.RevenueRecognized,
		COGSExpense:        rec.COGSExpense,
		ActualInflow:       rec.ActualInflow,
		ActualOutflow:      rec.ActualOutflow,
		AccountsReceivable: rec.AccountsReceivable,
		AccountsPayable:    rec.AccountsPayable,
		CurrentLiabilities: rec.CurrentLiabilities,
		OpeningCash:        rec.OpeningCash,
		ClosingCash:        rec.ClosingCash,
		NetCashFlow:        rec.NetCashFlow,

		NetCashFlowLag1:     f.NetCashFlowLag1,
		RollingNet7:         f.RollingNet7,
		RollingOutflow30:    f.RollingOutflow30,
		DSU:                 f.DSU,
		DPO:                 f.DPO,
		OCFRatio:            f.OCFRatio,
		WorkingCapitalCycle: f.WorkingCapitalCycle,
	}
}
