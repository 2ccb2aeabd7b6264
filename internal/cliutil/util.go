package cliutil

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	_ "github.com/mattn/go-sqlite3"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/common/expfmt"
	_ "modernc.org/sqlite"

	"github.com/schatt/vespa/internal/config"
	"github.com/schatt/vespa/internal/logging"
	"github.com/schatt/vespa/searchdef"
	"github.com/schatt/vespa/searchdef/compiler"
	"github.com/schatt/vespa/searchdef/deploy"
	"github.com/schatt/vespa/searchdef/storage/postgres"
	"github.com/schatt/vespa/searchdef/storage/redis"
	"github.com/schatt/vespa/searchdef/storage/sqlite"
)

type OutputFormat string

const (
	FormatPretty OutputFormat = "pretty"
	FormatJSON   OutputFormat = "json"
)

func ParseOutputFormat(s string) OutputFormat {
	switch OutputFormat(s) {
	case FormatPretty, FormatJSON:
		return OutputFormat(s)
	default:
		return FormatPretty
	}
}

func PrintJSON(w io.Writer, v any) {
	b, _ := json.MarshalIndent(v, "", "  ")
	fmt.Fprintln(w, string(b))
}

// NewLogger builds the stderr logger described by cfg
func NewLogger(cfg *config.Config) (*logging.Logger, error) {
	level, err := logging.ParseLevel(cfg.LogLevel)
	if err != nil {
		return nil, err
	}
	return logging.NewWriter(os.Stderr, cfg.LogFormat, level)
}

// NewStore returns an uninitialized config store for the configured backend
func NewStore(cfg *config.Config) (deploy.ConfigStore, error) {
	switch strings.ToLower(cfg.Backend) {
	case "sqlite":
		return deploy.NewSQLStore(sqlite.NewWithDriver(cfg.SQLitePath, cfg.SQLiteDriver)), nil
	case "postgres", "pg":
		return deploy.NewSQLStore(postgres.New(cfg.PostgresDSN, cfg.PostgresSchema)), nil
	case "redis":
		return redis.Dial(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB, redis.DefaultPrefix), nil
	}
	return nil, searchdef.New(searchdef.ErrConfig, "unknown backend "+cfg.Backend)
}

// OpenStore creates and initializes the configured store
func OpenStore(ctx context.Context, cfg *config.Config) (deploy.ConfigStore, error) {
	store, err := NewStore(cfg)
	if err != nil {
		return nil, err
	}
	if err := store.Init(ctx); err != nil {
		store.Close()
		return nil, err
	}
	return store, nil
}

// NewMetrics registers compile metrics on a fresh registry
func NewMetrics() (*compiler.Metrics, *prometheus.Registry, error) {
	reg := prometheus.NewRegistry()
	m := compiler.NewMetrics()
	if err := m.Register(reg); err != nil {
		return nil, nil, err
	}
	return m, reg, nil
}

// DumpMetrics writes every gathered metric family in the text exposition format
func DumpMetrics(w io.Writer, g prometheus.Gatherer) error {
	families, err := g.Gather()
	if err != nil {
		return err
	}
	for _, mf := range families {
		if _, err := expfmt.MetricFamilyToText(w, mf); err != nil {
			return err
		}
	}
	return nil
}
