package sqlite

import "github.com/schatt/vespa/searchdef/storage"

const ddlBase = `
CREATE TABLE IF NOT EXISTS meta (
  key   TEXT PRIMARY KEY,
  value TEXT
);

CREATE TABLE IF NOT EXISTS generations (
  seq           INTEGER PRIMARY KEY AUTOINCREMENT,
  id            TEXT UNIQUE NOT NULL,
  created_at    INTEGER NOT NULL,
  profile_count INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS profiles (
  generation_id  TEXT NOT NULL,
  schema_name    TEXT NOT NULL,
  profile_name   TEXT NOT NULL,
  position       INTEGER NOT NULL,
  property_count INTEGER NOT NULL,
  PRIMARY KEY (generation_id, schema_name, profile_name)
);

CREATE TABLE IF NOT EXISTS properties (
  generation_id TEXT NOT NULL,
  schema_name   TEXT NOT NULL,
  profile_name  TEXT NOT NULL,
  position      INTEGER NOT NULL,
  key           TEXT NOT NULL,
  value         TEXT NOT NULL,
  PRIMARY KEY (generation_id, schema_name, profile_name, position)
);
`

var SQLTemplates = storage.SQL{
	GetMeta:   "SELECT value FROM meta WHERE key = ?1",
	StampMeta: "INSERT INTO meta(key,value) VALUES(?1,?2) ON CONFLICT(key) DO NOTHING",

	InsertGeneration: "INSERT INTO generations(id, created_at, profile_count) VALUES(?1, ?2, ?3)",
	LatestGeneration: "SELECT id, created_at, profile_count FROM generations ORDER BY seq DESC LIMIT 1",
	GetGeneration:    "SELECT id, created_at, profile_count FROM generations WHERE id = ?1",
	ListGenerations:  "SELECT id, created_at, profile_count FROM generations ORDER BY seq DESC",
	DeleteGeneration: "DELETE FROM generations WHERE id = ?1",

	InsertProfile:  "INSERT INTO profiles(generation_id, schema_name, profile_name, position, property_count) VALUES(?1, ?2, ?3, ?4, ?5)",
	InsertProperty: "INSERT INTO properties(generation_id, schema_name, profile_name, position, key, value) VALUES(?1, ?2, ?3, ?4, ?5, ?6)",

	DeleteProfilesByGeneration:   "DELETE FROM profiles WHERE generation_id = ?1",
	DeletePropertiesByGeneration: "DELETE FROM properties WHERE generation_id = ?1",

	SelectProfiles: "SELECT schema_name, profile_name, property_count FROM profiles",
	HasProfile:     "SELECT 1 FROM profiles WHERE generation_id = ?1 AND schema_name = ?2 AND profile_name = ?3",
	LoadProperties: "SELECT key, value FROM properties WHERE generation_id = ?1 AND schema_name = ?2 AND profile_name = ?3 ORDER BY position",
}
