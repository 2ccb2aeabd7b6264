package deploy

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/schatt/vespa/searchdef"
	"github.com/schatt/vespa/searchdef/derived"
	"github.com/schatt/vespa/searchdef/storage"
	"github.com/schatt/vespa/searchdef/storage/sqlbuilder"
)

// SQLStore is a ConfigStore over a SQL adapter
type SQLStore struct {
	adapter storage.Adapter
	db      *sql.DB
	now     func() time.Time
}

func NewSQLStore(adapter storage.Adapter) *SQLStore {
	return &SQLStore{adapter: adapter, now: time.Now}
}

// Init connects and creates the store tables if they do not exist yet
func (s *SQLStore) Init(ctx context.Context) error {
	db, err := s.adapter.Connect(ctx)
	if err != nil {
		return searchdef.Wrap(searchdef.ErrIO, "connect to "+s.adapter.StoreID(), err)
	}
	if err := s.adapter.CreateStore(ctx, db); err != nil {
		db.Close()
		return searchdef.Wrap(searchdef.ErrSQL, "create config store", err)
	}
	if err := s.adapter.OpenStore(ctx, db); err != nil {
		db.Close()
		return searchdef.Wrap(searchdef.ErrSQL, "open config store", err)
	}
	s.db = db
	return nil
}

func (s *SQLStore) Close() error {
	if s.db != nil {
		if err := s.db.Close(); err != nil {
			return searchdef.Wrap(searchdef.ErrIO, "close database", err)
		}
		s.db = nil
	}
	return s.adapter.Close()
}

func (s *SQLStore) ready() error {
	if s.db == nil {
		return searchdef.New(searchdef.ErrConfig, "config store not initialized")
	}
	return nil
}

// SaveGeneration writes gen in one transaction and returns its id
func (s *SQLStore) SaveGeneration(ctx context.Context, gen Generation) (string, error) {
	if err := s.ready(); err != nil {
		return "", err
	}
	gen = Stamp(gen, s.now())

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return "", searchdef.Wrap(searchdef.ErrSQL, "begin transaction", err)
	}
	defer tx.Rollback()

	if err := executeSave(ctx, tx, s.adapter.SQL(), gen); err != nil {
		return "", err
	}
	if err := tx.Commit(); err != nil {
		return "", searchdef.Wrap(searchdef.ErrSQL, "commit", err)
	}
	return gen.ID, nil
}

func executeSave(ctx context.Context, tx *sql.Tx, sqlt storage.SQL, gen Generation) error {
	_, err := scanGeneration(tx.QueryRowContext(ctx, sqlt.GetGeneration, gen.ID))
	if err == nil {
		return GenerationExistsError(gen.ID)
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return searchdef.Wrap(searchdef.ErrSQL, "check generation", err)
	}
	if _, err := tx.ExecContext(ctx, sqlt.InsertGeneration, gen.ID, gen.CreatedAt.UnixMilli(), len(gen.Profiles)); err != nil {
		return searchdef.Wrap(searchdef.ErrSQL, "insert generation", err)
	}
	for pos, p := range gen.Profiles {
		if _, err := tx.ExecContext(ctx, sqlt.InsertProfile, gen.ID, p.Schema, p.Profile, pos, len(p.Properties)); err != nil {
			return &searchdef.Error{Kind: searchdef.ErrSQL, Schema: p.Schema, Profile: p.Profile, Message: "insert profile", Cause: err}
		}
		for i, prop := range p.Properties {
			if _, err := tx.ExecContext(ctx, sqlt.InsertProperty, gen.ID, p.Schema, p.Profile, i, prop.Key, prop.Value); err != nil {
				return &searchdef.Error{Kind: searchdef.ErrSQL, Schema: p.Schema, Profile: p.Profile, Message: "insert property " + prop.Key, Cause: err}
			}
		}
	}
	return nil
}

func (s *SQLStore) LatestGeneration(ctx context.Context) (GenerationInfo, error) {
	if err := s.ready(); err != nil {
		return GenerationInfo{}, err
	}
	info, err := scanGeneration(s.db.QueryRowContext(ctx, s.adapter.SQL().LatestGeneration))
	if errors.Is(err, sql.ErrNoRows) {
		return GenerationInfo{}, searchdef.New(searchdef.ErrNotFound, "no generation stored")
	}
	if err != nil {
		return GenerationInfo{}, searchdef.Wrap(searchdef.ErrSQL, "latest generation", err)
	}
	return info, nil
}

func (s *SQLStore) ListGenerations(ctx context.Context) ([]GenerationInfo, error) {
	if err := s.ready(); err != nil {
		return nil, err
	}
	rows, err := s.db.QueryContext(ctx, s.adapter.SQL().ListGenerations)
	if err != nil {
		return nil, searchdef.Wrap(searchdef.ErrSQL, "list generations", err)
	}
	defer rows.Close()

	var out []GenerationInfo
	for rows.Next() {
		info, err := scanGeneration(rows)
		if err != nil {
			return nil, searchdef.Wrap(searchdef.ErrSQL, "scan generation", err)
		}
		out = append(out, info)
	}
	if err := rows.Err(); err != nil {
		return nil, searchdef.Wrap(searchdef.ErrSQL, "list generations", err)
	}
	return out, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanGeneration(row rowScanner) (GenerationInfo, error) {
	var info GenerationInfo
	var createdMS int64
	if err := row.Scan(&info.ID, &createdMS, &info.Profiles); err != nil {
		return GenerationInfo{}, err
	}
	info.CreatedAt = time.UnixMilli(createdMS).UTC()
	return info, nil
}

// resolveGeneration maps "" to the latest generation and checks that an
// explicit id exists
func (s *SQLStore) resolveGeneration(ctx context.Context, id string) (string, error) {
	if id == "" {
		info, err := s.LatestGeneration(ctx)
		if err != nil {
			return "", err
		}
		return info.ID, nil
	}
	_, err := scanGeneration(s.db.QueryRowContext(ctx, s.adapter.SQL().GetGeneration, id))
	if errors.Is(err, sql.ErrNoRows) {
		return "", searchdef.New(searchdef.ErrNotFound, fmt.Sprintf("generation %s not found", id))
	}
	if err != nil {
		return "", searchdef.Wrap(searchdef.ErrSQL, "get generation", err)
	}
	return id, nil
}

// ListProfiles lists the profiles of a generation in save order,
// optionally only those of one schema
func (s *SQLStore) ListProfiles(ctx context.Context, generationID, schemaFilter string) ([]ProfileInfo, error) {
	if err := s.ready(); err != nil {
		return nil, err
	}
	id, err := s.resolveGeneration(ctx, generationID)
	if err != nil {
		return nil, err
	}

	b := sqlbuilder.New(s.adapter.PlaceholderStyle())
	b.Write(s.adapter.SQL().SelectProfiles)
	b.Where("generation_id = " + b.Arg(id))
	if schemaFilter != "" {
		b.Where("schema_name = " + b.Arg(schemaFilter))
	}
	b.Write(" ORDER BY position")

	rows, err := s.db.QueryContext(ctx, b.SQL(), b.Args()...)
	if err != nil {
		return nil, searchdef.Wrap(searchdef.ErrSQL, "list profiles", err)
	}
	defer rows.Close()

	var out []ProfileInfo
	for rows.Next() {
		var p ProfileInfo
		if err := rows.Scan(&p.Schema, &p.Profile, &p.Properties); err != nil {
			return nil, searchdef.Wrap(searchdef.ErrSQL, "scan profile", err)
		}
		out = append(out, p)
	}
	if err := rows.Err(); err != nil {
		return nil, searchdef.Wrap(searchdef.ErrSQL, "list profiles", err)
	}
	return out, nil
}

// LoadProperties returns the stored property list of one profile
func (s *SQLStore) LoadProperties(ctx context.Context, generationID, schema, profile string) (derived.Properties, error) {
	if err := s.ready(); err != nil {
		return nil, err
	}
	id, err := s.resolveGeneration(ctx, generationID)
	if err != nil {
		return nil, err
	}

	sqlt := s.adapter.SQL()
	var one int
	err = s.db.QueryRowContext(ctx, sqlt.HasProfile, id, schema, profile).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, searchdef.UnknownProfileError(schema, profile)
	}
	if err != nil {
		return nil, searchdef.Wrap(searchdef.ErrSQL, "lookup profile", err)
	}

	rows, err := s.db.QueryContext(ctx, sqlt.LoadProperties, id, schema, profile)
	if err != nil {
		return nil, searchdef.Wrap(searchdef.ErrSQL, "load properties", err)
	}
	defer rows.Close()

	props := derived.Properties{}
	for rows.Next() {
		var p derived.Property
		if err := rows.Scan(&p.Key, &p.Value); err != nil {
			return nil, searchdef.Wrap(searchdef.ErrSQL, "scan property", err)
		}
		props = append(props, p)
	}
	if err := rows.Err(); err != nil {
		return nil, searchdef.Wrap(searchdef.ErrSQL, "load properties", err)
	}
	return props, nil
}

// DeleteGeneration removes a generation and everything stored under it
func (s *SQLStore) DeleteGeneration(ctx context.Context, generationID string) error {
	if err := s.ready(); err != nil {
		return err
	}
	id, err := s.resolveGeneration(ctx, generationID)
	if err != nil {
		return err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return searchdef.Wrap(searchdef.ErrSQL, "begin transaction", err)
	}
	defer tx.Rollback()

	sqlt := s.adapter.SQL()
	for _, stmt := range []string{sqlt.DeletePropertiesByGeneration, sqlt.DeleteProfilesByGeneration, sqlt.DeleteGeneration} {
		if _, err := tx.ExecContext(ctx, stmt, id); err != nil {
			return searchdef.Wrap(searchdef.ErrSQL, "delete generation", err)
		}
	}
	if err := tx.Commit(); err != nil {
		return searchdef.Wrap(searchdef.ErrSQL, "commit", err)
	}
	return nil
}
