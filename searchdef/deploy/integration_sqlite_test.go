package deploy_test

import (
	"context"
	"database/sql"
	"path/filepath"
	"strings"
	"testing"
	"time"

	_ "modernc.org/sqlite"

	"github.com/schatt/vespa/searchdef"
	"github.com/schatt/vespa/searchdef/compiler"
	"github.com/schatt/vespa/searchdef/deploy"
	"github.com/schatt/vespa/searchdef/derived"
	"github.com/schatt/vespa/searchdef/storage/sqlite"
)

const musicSchema = `
schema: music
document:
  fields:
    - {name: title, type: string, indexing: [index]}
    - {name: emb, type: tensor, indexing: [attribute], attribute: {tensor: "tensor(x[4])"}}
rank-profiles:
  - name: tuned
    inherits: default
    termwise-limit: 0.78
    num-threads-per-search: 8
`

const booksSchema = `
schema: books
rank-profiles:
  - name: plain
`

func compileAll(t *testing.T, srcs ...string) []*compiler.Result {
	t.Helper()
	var parsed []searchdef.SchemaSource
	for _, s := range srcs {
		src, err := searchdef.DecodeSchemaSource(strings.NewReader(s))
		if err != nil {
			t.Fatalf("decode: %v", err)
		}
		parsed = append(parsed, src)
	}
	results, err := compiler.CompileAll(context.Background(), parsed, nil, compiler.Options{})
	if err != nil {
		t.Fatalf("CompileAll: %v", err)
	}
	return results
}

func newStore(t *testing.T) *deploy.SQLStore {
	t.Helper()
	dbPath := filepath.Join(t.TempDir(), "rankc.db")
	store := deploy.NewSQLStore(sqlite.New(dbPath))
	if err := store.Init(context.Background()); err != nil {
		t.Fatalf("Init: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func TestSaveAndLoad_SQLite(t *testing.T) {
	ctx := context.Background()
	store := newStore(t)

	gen := deploy.NewGeneration(compileAll(t, musicSchema, booksSchema))
	if len(gen.Profiles) != 6 {
		t.Fatalf("expected 6 profiles, got %d", len(gen.Profiles))
	}

	id, err := store.SaveGeneration(ctx, gen)
	if err != nil {
		t.Fatalf("SaveGeneration: %v", err)
	}
	if id == "" {
		t.Fatal("expected generated id")
	}

	latest, err := store.LatestGeneration(ctx)
	if err != nil {
		t.Fatalf("LatestGeneration: %v", err)
	}
	if latest.ID != id || latest.Profiles != 6 {
		t.Errorf("unexpected latest generation %+v", latest)
	}

	props, err := store.LoadProperties(ctx, "", "music", "tuned")
	if err != nil {
		t.Fatalf("LoadProperties: %v", err)
	}
	want := derived.Properties{
		{Key: "vespa.matching.termwise_limit", Value: "0.78"},
		{Key: "vespa.matching.numthreadspersearch", Value: "8"},
		{Key: "vespa.ranktype.title", Value: "default"},
		{Key: "vespa.type.attribute.emb", Value: "tensor(x[4])"},
	}
	if len(props) != len(want) {
		t.Fatalf("got %d properties, want %d: %v", len(props), len(want), props)
	}
	for i := range want {
		if props[i] != want[i] {
			t.Errorf("property %d = %v, want %v", i, props[i], want[i])
		}
	}
}

func TestListProfiles_SQLite(t *testing.T) {
	ctx := context.Background()
	store := newStore(t)

	id, err := store.SaveGeneration(ctx, deploy.NewGeneration(compileAll(t, musicSchema, booksSchema)))
	if err != nil {
		t.Fatalf("SaveGeneration: %v", err)
	}

	all, err := store.ListProfiles(ctx, id, "")
	if err != nil {
		t.Fatalf("ListProfiles: %v", err)
	}
	var names []string
	for _, p := range all {
		names = append(names, p.Schema+"/"+p.Profile)
	}
	wantNames := "music/default,music/unranked,music/tuned,books/default,books/unranked,books/plain"
	if got := strings.Join(names, ","); got != wantNames {
		t.Errorf("profiles = %s, want %s", got, wantNames)
	}

	books, err := store.ListProfiles(ctx, "", "books")
	if err != nil {
		t.Fatalf("ListProfiles(books): %v", err)
	}
	if len(books) != 3 {
		t.Fatalf("expected 3 books profiles, got %d", len(books))
	}
	// books has no fields, so the default profile is empty
	if books[0].Profile != "default" || books[0].Properties != 0 {
		t.Errorf("unexpected books default %+v", books[0])
	}
}

func TestGenerationsAreImmutable_SQLite(t *testing.T) {
	ctx := context.Background()
	store := newStore(t)

	first := deploy.NewGeneration(compileAll(t, musicSchema))
	first.CreatedAt = time.Unix(1700000000, 0)
	firstID, err := store.SaveGeneration(ctx, first)
	if err != nil {
		t.Fatalf("save first: %v", err)
	}

	changed := strings.Replace(musicSchema, "0.78", "0.5", 1)
	second := deploy.NewGeneration(compileAll(t, changed))
	second.CreatedAt = time.Unix(1700000000, 0)
	secondID, err := store.SaveGeneration(ctx, second)
	if err != nil {
		t.Fatalf("save second: %v", err)
	}

	latest, err := store.LatestGeneration(ctx)
	if err != nil {
		t.Fatalf("LatestGeneration: %v", err)
	}
	if latest.ID != secondID {
		t.Errorf("latest = %s, want %s", latest.ID, secondID)
	}

	old, err := store.LoadProperties(ctx, firstID, "music", "tuned")
	if err != nil {
		t.Fatalf("load first: %v", err)
	}
	if v, _ := old.Get("vespa.matching.termwise_limit"); v != "0.78" {
		t.Errorf("first generation termwise_limit = %q", v)
	}
	cur, err := store.LoadProperties(ctx, "", "music", "tuned")
	if err != nil {
		t.Fatalf("load latest: %v", err)
	}
	if v, _ := cur.Get("vespa.matching.termwise_limit"); v != "0.5" {
		t.Errorf("latest termwise_limit = %q", v)
	}

	gens, err := store.ListGenerations(ctx)
	if err != nil {
		t.Fatalf("ListGenerations: %v", err)
	}
	if len(gens) != 2 || gens[0].ID != secondID || gens[1].ID != firstID {
		t.Errorf("unexpected generations %+v", gens)
	}
	if !gens[1].CreatedAt.Equal(time.Unix(1700000000, 0)) {
		t.Errorf("created_at = %v", gens[1].CreatedAt)
	}

	if err := store.DeleteGeneration(ctx, secondID); err != nil {
		t.Fatalf("DeleteGeneration: %v", err)
	}
	latest, err = store.LatestGeneration(ctx)
	if err != nil {
		t.Fatalf("LatestGeneration after delete: %v", err)
	}
	if latest.ID != firstID {
		t.Errorf("latest after delete = %s, want %s", latest.ID, firstID)
	}
}

func TestLookupErrors_SQLite(t *testing.T) {
	ctx := context.Background()
	store := newStore(t)

	if _, err := store.LatestGeneration(ctx); !searchdef.IsKind(err, searchdef.ErrNotFound) {
		t.Errorf("empty store: expected not_found, got %v", err)
	}

	if _, err := store.SaveGeneration(ctx, deploy.NewGeneration(compileAll(t, booksSchema))); err != nil {
		t.Fatalf("SaveGeneration: %v", err)
	}

	_, err := store.LoadProperties(ctx, "", "books", "missing")
	if !searchdef.IsKind(err, searchdef.ErrUnknownProfile) {
		t.Errorf("expected unknown_profile, got %v", err)
	}
	_, err = store.ListProfiles(ctx, "no-such-generation", "")
	if !searchdef.IsKind(err, searchdef.ErrNotFound) {
		t.Errorf("expected not_found, got %v", err)
	}
}

func TestDuplicateGenerationRollsBack_SQLite(t *testing.T) {
	ctx := context.Background()
	store := newStore(t)

	gen := deploy.NewGeneration(compileAll(t, booksSchema))
	gen.ID = "fixed"
	if _, err := store.SaveGeneration(ctx, gen); err != nil {
		t.Fatalf("first save: %v", err)
	}
	_, err := store.SaveGeneration(ctx, gen)
	if !searchdef.IsKind(err, searchdef.ErrConflict) {
		t.Fatalf("expected conflict on duplicate id, got %v", err)
	}

	profiles, err := store.ListProfiles(ctx, "fixed", "")
	if err != nil {
		t.Fatalf("ListProfiles: %v", err)
	}
	if len(profiles) != 3 {
		t.Errorf("expected the first save to be intact, got %d profiles", len(profiles))
	}
}

func TestReopenExistingStore_SQLite(t *testing.T) {
	ctx := context.Background()
	dbPath := filepath.Join(t.TempDir(), "rankc.db")

	store := deploy.NewSQLStore(sqlite.New(dbPath))
	if err := store.Init(ctx); err != nil {
		t.Fatalf("Init: %v", err)
	}
	id, err := store.SaveGeneration(ctx, deploy.NewGeneration(compileAll(t, booksSchema)))
	if err != nil {
		t.Fatalf("SaveGeneration: %v", err)
	}
	if err := store.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	reopened := deploy.NewSQLStore(sqlite.New(dbPath))
	if err := reopened.Init(ctx); err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer reopened.Close()
	latest, err := reopened.LatestGeneration(ctx)
	if err != nil {
		t.Fatalf("LatestGeneration: %v", err)
	}
	if latest.ID != id {
		t.Errorf("latest = %s, want %s", latest.ID, id)
	}
}

func TestUninitializedStore(t *testing.T) {
	store := deploy.NewSQLStore(sqlite.New(filepath.Join(t.TempDir(), "x.db")))
	_, err := store.LatestGeneration(context.Background())
	if !searchdef.IsKind(err, searchdef.ErrConfig) {
		t.Errorf("expected config error, got %v", err)
	}
}

func TestInitRejectsForeignMeta_SQLite(t *testing.T) {
	tests := []struct {
		name    string
		magic   string
		version string
		want    string
	}{
		{name: "other tool", magic: "othertool", version: "1", want: "not a rankc config store"},
		{name: "future version", magic: "rankc", version: "99", want: "unsupported config store version 99"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx := context.Background()
			dbPath := filepath.Join(t.TempDir(), "rankc.db")

			db, err := sql.Open(sqlite.DriverModernc, dbPath)
			if err != nil {
				t.Fatalf("open: %v", err)
			}
			if _, err := db.ExecContext(ctx, "CREATE TABLE meta (key TEXT PRIMARY KEY, value TEXT)"); err != nil {
				t.Fatalf("create meta: %v", err)
			}
			if _, err := db.ExecContext(ctx, "INSERT INTO meta(key, value) VALUES ('rankc_magic', ?), ('rankc_version', ?)", tt.magic, tt.version); err != nil {
				t.Fatalf("seed meta: %v", err)
			}
			_ = db.Close()

			store := deploy.NewSQLStore(sqlite.New(dbPath))
			err = store.Init(ctx)
			if !searchdef.IsKind(err, searchdef.ErrSQL) || !strings.Contains(err.Error(), tt.want) {
				t.Fatalf("expected %q, got %v", tt.want, err)
			}

			db, err = sql.Open(sqlite.DriverModernc, dbPath)
			if err != nil {
				t.Fatalf("reopen: %v", err)
			}
			defer db.Close()

			var magic, version string
			if err := db.QueryRowContext(ctx, "SELECT value FROM meta WHERE key = 'rankc_magic'").Scan(&magic); err != nil {
				t.Fatalf("read magic: %v", err)
			}
			if err := db.QueryRowContext(ctx, "SELECT value FROM meta WHERE key = 'rankc_version'").Scan(&version); err != nil {
				t.Fatalf("read version: %v", err)
			}
			if magic != tt.magic || version != tt.version {
				t.Errorf("meta rewritten to magic=%q version=%q", magic, version)
			}
		})
	}
}
