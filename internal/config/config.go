// Package config loads generator configuration from a TOML file and
// applies overrides on top of a built-in profile. Environment variables
// supply storage credentials so they stay out of checked-in files.
package config

import (
	"fmt"
	"net/url"
	"os"
	"time"

	"github.com/BurntSushi/toml"

	"cashflow-lab/internal/domain"
)

const dateLayout = "2006-01-02"

// Config is the on-disk generator configuration.
type Config struct {
	Profile string `toml:"profile"`
	Seed    uint64 `toml:"seed"`
	Output  string `toml:"output"`

	// Optional date-range overrides, YYYY-MM-DD.
	Start string `toml:"start"`
	End   string `toml:"end"`

	// Optional project table override. When non-empty it replaces the
	// profile's built-in project list entirely.
	Projects []Project `toml:"projects"`

	Postgres   Postgres   `toml:"postgres"`
	ClickHouse ClickHouse `toml:"clickhouse"`
	Serve      Serve      `toml:"serve"`
}

// Project is one project row in the config file.
type Project struct {
	ID        string  `toml:"id"`
	Size      float64 `toml:"size"`
	FrontLoad float64 `toml:"front_load"`
	EventRate float64 `toml:"event_rate"`
}

// Postgres holds daily-record store settings. DSN falls back to the
// POSTGRES_DSN environment variable.
type Postgres struct {
	Enabled bool   `toml:"enabled"`
	DSN     string `toml:"dsn"`
}

// ClickHouse holds feature store settings. Addr falls back to the
// CLICKHOUSE_ADDR environment variable.
type ClickHouse struct {
	Enabled  bool   `toml:"enabled"`
	Addr     string `toml:"addr"`
	Database string `toml:"database"`
	Username string `toml:"username"`
	Password string `toml:"password"`
}

// Serve holds the HTTP endpoint settings for the serve binary.
type Serve struct {
	Addr string `toml:"addr"`
}

// Default returns the configuration used when no file is given.
func Default() *Config {
	return &Config{
		Profile: string(domain.ProfileCashflow),
		Seed:    42,
		Output:  "construction_cashflow.csv",
		Serve:   Serve{Addr: ":8080"},
	}
}

// Load reads a TOML config file on top of the defaults.
func Load(path string) (*Config, error) {
	cfg := Default()
	if _, err := toml.DecodeFile(path, cfg); err != nil {
		return nil, fmt.Errorf("decode config %s: %w", path, err)
	}
	return cfg, nil
}

// ResolveSpec returns the profile spec named by the config with its
// date-range and project overrides applied.
func (c *Config) ResolveSpec() (domain.ProfileSpec, error) {
	spec, ok := domain.ProfileByID(domain.ProfileID(c.Profile))
	if !ok {
		return domain.ProfileSpec{}, fmt.Errorf("unknown profile %q", c.Profile)
	}

	if c.Start != "" {
		t, err := time.Parse(dateLayout, c.Start)
		if err != nil {
			return domain.ProfileSpec{}, fmt.Errorf("parse start date: %w", err)
		}
		spec.Start = t
	}
	if c.End != "" {
		t, err := time.Parse(dateLayout, c.End)
		if err != nil {
			return domain.ProfileSpec{}, fmt.Errorf("parse end date: %w", err)
		}
		spec.End = t
	}
	if spec.End.Before(spec.Start) {
		return domain.ProfileSpec{}, fmt.Errorf("end date %s before start date %s",
			spec.End.Format(dateLayout), spec.Start.Format(dateLayout))
	}

	if len(c.Projects) > 0 {
		projects := make([]domain.ProjectConfig, 0, len(c.Projects))
		for _, p := range c.Projects {
			if p.ID == "" {
				return domain.ProfileSpec{}, fmt.Errorf("project with empty id")
			}
			if p.Size <= 0 {
				return domain.ProfileSpec{}, fmt.Errorf("project %s: size must be positive", p.ID)
			}
			if p.FrontLoad < 0 || p.FrontLoad > 1 {
				return domain.ProfileSpec{}, fmt.Errorf("project %s: front_load must be in [0, 1]", p.ID)
			}
			if p.EventRate < 0 {
				return domain.ProfileSpec{}, fmt.Errorf("project %s: event_rate must be non-negative", p.ID)
			}
			projects = append(projects, domain.ProjectConfig{
				ProjectID: p.ID,
				Size:      p.Size,
				FrontLoad: p.FrontLoad,
				EventRate: p.EventRate,
			})
		}
		spec.Projects = projects
	}

	return spec, nil
}

// PostgresDSN returns the configured DSN, falling back to the
// POSTGRES_DSN environment variable.
func (c *Config) PostgresDSN() string {
	if c.Postgres.DSN != "" {
		return c.Postgres.DSN
	}
	return os.Getenv("POSTGRES_DSN")
}

// ClickHouseAddr returns the configured address, falling back to the
// CLICKHOUSE_ADDR environment variable.
func (c *Config) ClickHouseAddr() string {
	if c.ClickHouse.Addr != "" {
		return c.ClickHouse.Addr
	}
	return os.Getenv("CLICKHOUSE_ADDR")
}

// ClickHouseDSN composes a native-protocol DSN from the configured
// address, database and credentials. Empty when no address is set.
func (c *Config) ClickHouseDSN() string {
	addr := c.ClickHouseAddr()
	if addr == "" {
		return ""
	}

	db := c.ClickHouse.Database
	if db == "" {
		db = "cashflow"
	}

	u := url.URL{Scheme: "clickhouse", Host: addr, Path: "/" + db}
	if c.ClickHouse.Username != "" {
		if c.ClickHouse.Password != "" {
			u.User = url.UserPassword(c.ClickHouse.Username, c.ClickHouse.Password)
		} else {
			u.User = url.User(c.ClickHouse.Username)
		}
	}
	return u.String()
}
