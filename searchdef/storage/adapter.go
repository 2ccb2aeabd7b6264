package storage

import (
	"context"
	"database/sql"

	"github.com/schatt/vespa/searchdef/storage/sqlbuilder"
)

type Backend string

const (
	BackendSQLite   Backend = "sqlite"
	BackendPostgres Backend = "postgres"
	BackendRedis    Backend = "redis"
)

// StoreMagic and StoreVersion mark a database initialized as a config store
const (
	StoreMagic   = "rankc"
	StoreVersion = "1"
)

// Adapter abstracts database-specific operations of the SQL config store
type Adapter interface {
	Backend() Backend
	PlaceholderStyle() sqlbuilder.PlaceholderStyle
	StoreID() string

	Connect(ctx context.Context) (*sql.DB, error)
	Close() error

	// CreateStore creates the tables if missing and stamps the meta rows of
	// a new store. Existing meta rows are left for OpenStore to check.
	CreateStore(ctx context.Context, db *sql.DB) error
	// OpenStore checks that db holds a config store of a known version
	OpenStore(ctx context.Context, db *sql.DB) error

	SQL() SQL
}

// SQL holds the dialect's statement templates
type SQL struct {
	GetMeta string
	// StampMeta inserts a meta row unless the key is already present
	StampMeta string

	// InsertGeneration takes id, created_at (unix ms), profile_count
	InsertGeneration string
	// LatestGeneration selects id, created_at, profile_count of the newest generation
	LatestGeneration string
	// GetGeneration selects id, created_at, profile_count by id
	GetGeneration string
	// ListGenerations selects id, created_at, profile_count newest first
	ListGenerations string
	DeleteGeneration string

	// InsertProfile takes generation_id, schema_name, profile_name, position, property_count
	InsertProfile string
	// InsertProperty takes generation_id, schema_name, profile_name, position, key, value
	InsertProperty string

	DeleteProfilesByGeneration   string
	DeletePropertiesByGeneration string

	// SelectProfiles is the base of the profile listing; filters are
	// appended with a placeholder builder
	SelectProfiles string
	// HasProfile takes generation_id, schema_name, profile_name
	HasProfile string
	// LoadProperties takes generation_id, schema_name, profile_name
	LoadProperties string
}
