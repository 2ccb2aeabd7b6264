// Package deploy persists compiled rank profile property lists as
// immutable, numbered-by-time generations.
package deploy

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/schatt/vespa/searchdef"
	"github.com/schatt/vespa/searchdef/compiler"
	"github.com/schatt/vespa/searchdef/derived"
)

// ProfileProperties is the stored property list of one profile
type ProfileProperties struct {
	Schema     string
	Profile    string
	Properties derived.Properties
}

// Generation is a snapshot of every derived profile of a deployment
type Generation struct {
	ID        string
	CreatedAt time.Time
	Profiles  []ProfileProperties
}

// GenerationInfo describes a stored generation
type GenerationInfo struct {
	ID        string
	CreatedAt time.Time
	Profiles  int
}

// ProfileInfo describes one stored profile of a generation
type ProfileInfo struct {
	Schema     string
	Profile    string
	Properties int
}

// ConfigStore persists generations. An empty generation id means the
// latest one.
type ConfigStore interface {
	Init(ctx context.Context) error
	SaveGeneration(ctx context.Context, gen Generation) (string, error)
	LatestGeneration(ctx context.Context) (GenerationInfo, error)
	ListGenerations(ctx context.Context) ([]GenerationInfo, error)
	ListProfiles(ctx context.Context, generationID, schemaFilter string) ([]ProfileInfo, error)
	LoadProperties(ctx context.Context, generationID, schema, profile string) (derived.Properties, error)
	DeleteGeneration(ctx context.Context, generationID string) error
	Close() error
}

// NewGeneration snapshots compile results in result and profile order
func NewGeneration(results []*compiler.Result) Generation {
	var gen Generation
	for _, r := range results {
		for _, p := range r.Profiles {
			props := make(derived.Properties, len(p.Properties))
			copy(props, p.Properties)
			gen.Profiles = append(gen.Profiles, ProfileProperties{Schema: p.Schema, Profile: p.Name, Properties: props})
		}
	}
	return gen
}

// GenerationExistsError reports a save under an id that is already stored
func GenerationExistsError(id string) *searchdef.Error {
	return searchdef.New(searchdef.ErrConflict, fmt.Sprintf("generation %s already stored", id))
}

// Stamp fills in a missing id and creation time of a generation about to
// be saved
func Stamp(gen Generation, now time.Time) Generation {
	if gen.ID == "" {
		gen.ID = uuid.NewString()
	}
	if gen.CreatedAt.IsZero() {
		gen.CreatedAt = now
	}
	return gen
}
