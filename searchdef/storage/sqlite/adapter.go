package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/schatt/vespa/searchdef/storage"
	"github.com/schatt/vespa/searchdef/storage/sqlbuilder"
)

// DriverModernc and DriverMattn are the database/sql driver names of the
// pure-Go and cgo SQLite drivers. The caller blank-imports the one it uses.
const (
	DriverModernc = "sqlite"
	DriverMattn   = "sqlite3"
)

type Adapter struct {
	Path       string
	DriverName string
}

func New(path string) *Adapter {
	return &Adapter{Path: path, DriverName: DriverModernc}
}

func NewWithDriver(path, driver string) *Adapter {
	return &Adapter{Path: path, DriverName: driver}
}

func (a *Adapter) Backend() storage.Backend {
	return storage.BackendSQLite
}

func (a *Adapter) PlaceholderStyle() sqlbuilder.PlaceholderStyle {
	return sqlbuilder.PlaceholderQuestion
}

func (a *Adapter) StoreID() string {
	return a.Path
}

// dsn adds the busy timeout in the spelling each driver understands
func (a *Adapter) dsn() string {
	params := "_pragma=busy_timeout(5000)"
	if a.DriverName == DriverMattn {
		params = "_busy_timeout=5000"
	}
	if strings.Contains(a.Path, "?") {
		return a.Path + "&" + params
	}
	return a.Path + "?" + params
}

func (a *Adapter) Connect(ctx context.Context) (*sql.DB, error) {
	db, err := sql.Open(a.DriverName, a.dsn())
	if err != nil {
		return nil, err
	}
	// SQLite allows a single writer
	db.SetMaxOpenConns(1)
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	return db, nil
}

func (a *Adapter) Close() error {
	return nil
}

func (a *Adapter) SQL() storage.SQL {
	return SQLTemplates
}

func (a *Adapter) CreateStore(ctx context.Context, db *sql.DB) error {
	if _, err := db.ExecContext(ctx, ddlBase); err != nil {
		return err
	}
	_, _ = db.ExecContext(ctx, "PRAGMA journal_mode=WAL;")
	_, _ = db.ExecContext(ctx, "PRAGMA synchronous=NORMAL;")

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
	return checkMeta(ctx, db, a.SQL())
}

func checkMeta(ctx context.Context, db *sql.DB, sqlt storage.SQL) error {
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
