// Package redis stores config generations in Redis. Each generation is a
// hash of metadata, an ordered list of its profiles and one list of
// alternating keys and values per profile.
package redis

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/schatt/vespa/searchdef"
	"github.com/schatt/vespa/searchdef/deploy"
	"github.com/schatt/vespa/searchdef/derived"
)

const DefaultPrefix = "rankc"

// Store is a deploy.ConfigStore backed by Redis
type Store struct {
	client *redis.Client
	prefix string
	now    func() time.Time
}

// New wraps an existing client. An empty prefix uses DefaultPrefix.
func New(client *redis.Client, prefix string) *Store {
	if prefix == "" {
		prefix = DefaultPrefix
	}
	return &Store{client: client, prefix: prefix, now: time.Now}
}

// Dial creates a client for addr and wraps it
func Dial(addr, password string, db int, prefix string) *Store {
	return New(redis.NewClient(&redis.Options{Addr: addr, Password: password, DB: db}), prefix)
}

var _ deploy.ConfigStore = (*Store)(nil)

func (s *Store) generationsKey() string { return s.prefix + ":generations" }
func (s *Store) genKey(id string) string { return s.prefix + ":gen:" + id }
func (s *Store) profilesKey(id string) string { return s.genKey(id) + ":profiles" }
func (s *Store) countsKey(id string) string { return s.genKey(id) + ":counts" }
func (s *Store) propsKey(id, name string) string { return s.genKey(id) + ":props:" + name }

// profile names cannot contain '/', so it separates schema and profile
func profileName(schema, profile string) string { return schema + "/" + profile }

func (s *Store) Init(ctx context.Context) error {
	if err := s.client.Ping(ctx).Err(); err != nil {
		return searchdef.Wrap(searchdef.ErrIO, "connect to redis", err)
	}
	return nil
}

func (s *Store) Close() error {
	if err := s.client.Close(); err != nil {
		return searchdef.Wrap(searchdef.ErrIO, "close redis client", err)
	}
	return nil
}

// SaveGeneration writes the generation in one MULTI/EXEC transaction
func (s *Store) SaveGeneration(ctx context.Context, gen deploy.Generation) (string, error) {
	gen = deploy.Stamp(gen, s.now())

	n, err := s.client.Exists(ctx, s.genKey(gen.ID)).Result()
	if err != nil {
		return "", searchdef.Wrap(searchdef.ErrIO, "check generation", err)
	}
	if n > 0 {
		return "", deploy.GenerationExistsError(gen.ID)
	}

	_, err = s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.HSet(ctx, s.genKey(gen.ID),
			"created_at", gen.CreatedAt.UnixMilli(),
			"profile_count", len(gen.Profiles),
		)
		for _, p := range gen.Profiles {
			name := profileName(p.Schema, p.Profile)
			pipe.RPush(ctx, s.profilesKey(gen.ID), name)
			pipe.HSet(ctx, s.countsKey(gen.ID), name, len(p.Properties))
			if len(p.Properties) == 0 {
				continue
			}
			flat := make([]any, 0, 2*len(p.Properties))
			for _, prop := range p.Properties {
				flat = append(flat, prop.Key, prop.Value)
			}
			pipe.RPush(ctx, s.propsKey(gen.ID, name), flat...)
		}
		pipe.LPush(ctx, s.generationsKey(), gen.ID)
		return nil
	})
	if err != nil {
		return "", searchdef.Wrap(searchdef.ErrIO, "save generation", err)
	}
	return gen.ID, nil
}

func (s *Store) generationInfo(ctx context.Context, id string) (deploy.GenerationInfo, error) {
	vals, err := s.client.HGetAll(ctx, s.genKey(id)).Result()
	if err != nil {
		return deploy.GenerationInfo{}, searchdef.Wrap(searchdef.ErrIO, "get generation", err)
	}
	if len(vals) == 0 {
		return deploy.GenerationInfo{}, searchdef.New(searchdef.ErrNotFound, fmt.Sprintf("generation %s not found", id))
	}
	created, err := strconv.ParseInt(vals["created_at"], 10, 64)
	if err != nil {
		return deploy.GenerationInfo{}, searchdef.Wrap(searchdef.ErrIO, "corrupt generation "+id, err)
	}
	count, err := strconv.Atoi(vals["profile_count"])
	if err != nil {
		return deploy.GenerationInfo{}, searchdef.Wrap(searchdef.ErrIO, "corrupt generation "+id, err)
	}
	return deploy.GenerationInfo{ID: id, CreatedAt: time.UnixMilli(created).UTC(), Profiles: count}, nil
}

func (s *Store) LatestGeneration(ctx context.Context) (deploy.GenerationInfo, error) {
	id, err := s.client.LIndex(ctx, s.generationsKey(), 0).Result()
	if errors.Is(err, redis.Nil) {
		return deploy.GenerationInfo{}, searchdef.New(searchdef.ErrNotFound, "no generation stored")
	}
	if err != nil {
		return deploy.GenerationInfo{}, searchdef.Wrap(searchdef.ErrIO, "latest generation", err)
	}
	return s.generationInfo(ctx, id)
}

func (s *Store) ListGenerations(ctx context.Context) ([]deploy.GenerationInfo, error) {
	ids, err := s.client.LRange(ctx, s.generationsKey(), 0, -1).Result()
	if err != nil {
		return nil, searchdef.Wrap(searchdef.ErrIO, "list generations", err)
	}
	out := make([]deploy.GenerationInfo, 0, len(ids))
	for _, id := range ids {
		info, err := s.generationInfo(ctx, id)
		if err != nil {
			return nil, err
		}
		out = append(out, info)
	}
	return out, nil
}

func (s *Store) resolveGeneration(ctx context.Context, id string) (string, error) {
	if id == "" {
		info, err := s.LatestGeneration(ctx)
		if err != nil {
			return "", err
		}
		return info.ID, nil
	}
	if _, err := s.generationInfo(ctx, id); err != nil {
		return "", err
	}
	return id, nil
}

func (s *Store) ListProfiles(ctx context.Context, generationID, schemaFilter string) ([]deploy.ProfileInfo, error) {
	id, err := s.resolveGeneration(ctx, generationID)
	if err != nil {
		return nil, err
	}
	names, err := s.client.LRange(ctx, s.profilesKey(id), 0, -1).Result()
	if err != nil {
		return nil, searchdef.Wrap(searchdef.ErrIO, "list profiles", err)
	}
	counts, err := s.client.HGetAll(ctx, s.countsKey(id)).Result()
	if err != nil {
		return nil, searchdef.Wrap(searchdef.ErrIO, "list profiles", err)
	}

	var out []deploy.ProfileInfo
	for _, name := range names {
		schema, profile, ok := strings.Cut(name, "/")
		if !ok || (schemaFilter != "" && schema != schemaFilter) {
			continue
		}
		n, _ := strconv.Atoi(counts[name])
		out = append(out, deploy.ProfileInfo{Schema: schema, Profile: profile, Properties: n})
	}
	return out, nil
}

func (s *Store) LoadProperties(ctx context.Context, generationID, schema, profile string) (derived.Properties, error) {
	id, err := s.resolveGeneration(ctx, generationID)
	if err != nil {
		return nil, err
	}
	name := profileName(schema, profile)
	known, err := s.client.HExists(ctx, s.countsKey(id), name).Result()
	if err != nil {
		return nil, searchdef.Wrap(searchdef.ErrIO, "lookup profile", err)
	}
	if !known {
		return nil, searchdef.UnknownProfileError(schema, profile)
	}

	flat, err := s.client.LRange(ctx, s.propsKey(id, name), 0, -1).Result()
	if err != nil {
		return nil, searchdef.Wrap(searchdef.ErrIO, "load properties", err)
	}
	if len(flat)%2 != 0 {
		return nil, searchdef.New(searchdef.ErrIO, "corrupt property list for "+name)
	}
	props := make(derived.Properties, 0, len(flat)/2)
	for i := 0; i < len(flat); i += 2 {
		props = append(props, derived.Property{Key: flat[i], Value: flat[i+1]})
	}
	return props, nil
}

func (s *Store) DeleteGeneration(ctx context.Context, generationID string) error {
	id, err := s.resolveGeneration(ctx, generationID)
	if err != nil {
		return err
	}
	names, err := s.client.LRange(ctx, s.profilesKey(id), 0, -1).Result()
	if err != nil {
		return searchdef.Wrap(searchdef.ErrIO, "delete generation", err)
	}

	keys := []string{s.genKey(id), s.profilesKey(id), s.countsKey(id)}
	for _, name := range names {
		keys = append(keys, s.propsKey(id, name))
	}
	_, err = s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Del(ctx, keys...)
		pipe.LRem(ctx, s.generationsKey(), 0, id)
		return nil
	})
	if err != nil {
		return searchdef.Wrap(searchdef.ErrIO, "delete generation", err)
	}
	return nil
}
