// Package main provides the dataset generation entry point.
// Executes: generation → feature derivation → invariant scan → CSV output,
// with optional persistence to PostgreSQL and ClickHouse.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"cashflow-lab/internal/config"
	"cashflow-lab/internal/orchestrator"
	"cashflow-lab/internal/reporting"
	"cashflow-lab/internal/storage"
	chstore "cashflow-lab/internal/storage/clickhouse"
	"cashflow-lab/internal/storage/migrations"
	pgstore "cashflow-lab/internal/storage/postgres"
)

func main() {
	// .env is optional; system env vars win when it is absent.
	_ = godotenv.Load()

	// Parse flags
	configPath := flag.String("config", "", "Path to TOML config file")
	profile := flag.String("profile", "", "Profile id (cashflow, accrual); overrides config")
	seed := flag.Uint64("seed", 0, "Generation seed; overrides config")
	output := flag.String("output", "", "Output CSV path; overrides config")
	postgresDSN := flag.String("postgres-dsn", "", "Enable daily-record persistence to this PostgreSQL DSN")
	clickhouseAddr := flag.String("clickhouse-addr", "", "Enable feature persistence to this ClickHouse host:port")
	verbose := flag.Bool("verbose", false, "Verbose output")
	flag.Parse()

	// Create context with cancellation for graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		fmt.Printf("\nReceived signal %v, cancelling run...\n", sig)
		cancel()
	}()

	cfg, err := loadConfig(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Config error: %v\n", err)
		os.Exit(1)
	}
	applyFlagOverrides(cfg, *profile, *seed, *output)
	if *postgresDSN != "" {
		cfg.Postgres.Enabled = true
		cfg.Postgres.DSN = *postgresDSN
	}
	if *clickhouseAddr != "" {
		cfg.ClickHouse.Enabled = true
		cfg.ClickHouse.Addr = *clickhouseAddr
	}

	spec, err := cfg.ResolveSpec()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Config error: %v\n", err)
		os.Exit(1)
	}

	recordStore, featureStore, cleanup, err := openStores(ctx, cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Storage error: %v\n", err)
		os.Exit(1)
	}
	defer cleanup()

	orch := orchestrator.New(orchestrator.Options{
		Spec:         spec,
		Seed:         cfg.Seed,
		RecordStore:  recordStore,
		FeatureStore: featureStore,
		Verbose:      *verbose,
	})

	result, err := orch.Run(ctx)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Run error: %v\n", err)
		os.Exit(1)
	}

	csv := reporting.RenderCSV(spec.Basis, result.Rows)
	if err := os.WriteFile(cfg.Output, []byte(csv), 0o644); err != nil {
		fmt.Fprintf(os.Stderr, "Write %s: %v\n", cfg.Output, err)
		os.Exit(1)
	}

	summary := reporting.BuildSummary(spec.ID, cfg.Seed, result.RunID, result.Rows, len(result.Violations), time.Now().UTC())
	fmt.Print(summary.Render())
	fmt.Printf("wrote %s\n", cfg.Output)

	// Violations are a warning, not a failure: the generation-time clamp
	// already prevents true violations and the scan is a double-check.
	for _, v := range result.Violations {
		fmt.Fprintf(os.Stderr, "  violation %s %s %s: %s\n",
			v.ProjectID, v.Date.Format("2006-01-02"), v.Rule, v.Detail)
	}
}

// loadConfig reads the config file when given, otherwise the defaults.
func loadConfig(path string) (*config.Config, error) {
	if path == "" {
		return config.Default(), nil
	}
	return config.Load(path)
}

// applyFlagOverrides lets command-line flags win over the config file.
func applyFlagOverrides(cfg *config.Config, profile string, seed uint64, output string) {
	if profile != "" {
		cfg.Profile = profile
	}
	if seed != 0 {
		cfg.Seed = seed
	}
	if output != "" {
		cfg.Output = output
	}
}

// openStores connects the enabled storage backends and runs their
// migrations. Disabled backends come back nil, which the orchestrator
// treats as skip-persistence.
func openStores(ctx context.Context, cfg *config.Config) (storage.DailyRecordStore, storage.FeatureStore, func(), error) {
	var (
		recordStore  storage.DailyRecordStore
		featureStore storage.FeatureStore
		pool         *pgstore.Pool
		conn         *chstore.Conn
	)

	cleanup := func() {
		if pool != nil {
			pool.Close()
		}
		if conn != nil {
			conn.Close()
		}
	}

	if cfg.Postgres.Enabled {
		dsn := cfg.PostgresDSN()
		if dsn == "" {
			return nil, nil, cleanup, fmt.Errorf("postgres enabled but no DSN configured")
		}

		var err error
		pool, err = pgstore.NewPool(ctx, dsn)
		if err != nil {
			return nil, nil, cleanup, fmt.Errorf("connect postgres: %w", err)
		}
		if err := migrations.RunPostgresMigrations(ctx, pool); err != nil {
			return nil, nil, cleanup, fmt.Errorf("postgres migrations: %w", err)
		}
		recordStore = pgstore.NewDailyRecordStore(pool)
	}

	if cfg.ClickHouse.Enabled {
		dsn := cfg.ClickHouseDSN()
		if dsn == "" {
			return nil, nil, cleanup, fmt.Errorf("clickhouse enabled but no address configured")
		}

		var err error
		conn, err = migrations.RunClickhouseMigrations(ctx, dsn)
		if err != nil {
			return nil, nil, cleanup, fmt.Errorf("clickhouse migrations: %w", err)
		}
		featureStore = chstore.NewFeatureStore(conn)
	}

	return recordStore, featureStore, cleanup, nil
}
