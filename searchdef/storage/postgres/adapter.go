package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"regexp"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/stdlib"

	"github.com/schatt/vespa/searchdef/storage"
	"github.com/schatt/vespa/searchdef/storage/sqlbuilder"
)

type Adapter struct {
	DSN    string
	Schema string // used as dedicated schema via search_path
}

func New(dsn, schema string) *Adapter {
	return &Adapter{DSN: dsn, Schema: schema}
}

func (a *Adapter) Backend() storage.Backend { return storage.BackendPostgres }

func (a *Adapter) PlaceholderStyle() sqlbuilder.PlaceholderStyle { return sqlbuilder.PlaceholderDollar }

func (a *Adapter) StoreID() string { return "postgres:" + a.Schema }

func (a *Adapter) Close() error { return nil }

func (a *Adapter) SQL() storage.SQL { return SQLTemplates }

var schemaNameRe = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

func quoteIdent(ident string) string {
	// ident is validated to contain no quotes
	return `"` + ident + `"`
}

func (a *Adapter) validateSchema() error {
	if a.Schema == "" || !schemaNameRe.MatchString(a.Schema) {
		return fmt.Errorf("invalid postgres schema name %q (must match %s)", a.Schema, schemaNameRe.String())
	}
	return nil
}

func (a *Adapter) ensureSchema(ctx context.Context, db *sql.DB) error {
	_, err := db.ExecContext(ctx, "CREATE SCHEMA IF NOT EXISTS "+quoteIdent(a.Schema))
	return err
}

func (a *Adapter) Connect(ctx context.Context) (*sql.DB, error) {
	if err := a.validateSchema(); err != nil {
		return nil, err
	}

	// 1) Connect without search_path to ensure schema exists
	cfg0, err := pgx.ParseConfig(a.DSN)
	if err != nil {
		return nil, err
	}
	db0 := stdlib.OpenDB(*cfg0)
	if err := db0.PingContext(ctx); err != nil {
		_ = db0.Close()
		return nil, err
	}
	if err := a.ensureSchema(ctx, db0); err != nil {
		_ = db0.Close()
		return nil, err
	}
	_ = db0.Close()

	// 2) Connect with search_path pinned to the schema
	cfg, err := pgx.ParseConfig(a.DSN)
	if err != nil {
		return nil, err
	}
	if cfg.RuntimeParams == nil {
		cfg.RuntimeParams = make(map[string]string)
	}
	cfg.RuntimeParams["search_path"] = fmt.Sprintf("%s,public", quoteIdent(a.Schema))

	db := stdlib.OpenDB(*cfg)
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	return db, nil
}

func (a *Adapter) CreateStore(ctx context.Context, db *sql.DB) error {
	if _, err := db.ExecContext(ctx, ddlBase); err != nil {
		return err
	}

	sqlt := a.SQL()
	if _, err := db.ExecContext(ctx, sqlt.StampMeta, "rankc_magic", storage.StoreMagic); err != nil {
		return err
	}
	if _, err := db.ExecContext(ctx, sqlt.StampMeta, "rankc_version", storage.StoreVersion); err != nil {
		return err
	}
	return nil
}

func (a *Adapter) OpenStore(ctx context.Context, db *sql.DB) error {
	sqlt := a.SQL()
	var magic, version string
	if err := db.QueryRowContext(ctx, sqlt.GetMeta, "rankc_magic").Scan(&magic); err != nil {
		return err
	}
	if magic != storage.StoreMagic {
		return fmt.Errorf("not a rankc config store")
	}
	if err := db.QueryRowContext(ctx, sqlt.GetMeta, "rankc_version").Scan(&version); err != nil {
		return err
	}
	if version != storage.StoreVersion {
		return fmt.Errorf("unsupported config store version %s", version)
	}
	return nil
}
