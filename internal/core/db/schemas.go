package db

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/solatis/rulesynth/internal/types"
)

// channelTypes maps the stored channel_type column onto FullMeta sections.
var channelTypes = map[string]types.ChannelKind{
	"trigger": types.ChannelTriggers,
	"query":   types.ChannelQueries,
	"action":  types.ChannelActions,
}

// SchemaStore reads approved device schemas and their channel metadata.
// FullMeta results are memoized per kind for the lifetime of the store and
// must be treated as read-only by callers.
type SchemaStore struct {
	queries *Queries

	mu    sync.Mutex
	cache map[string]*types.FullMeta
}

// NewSchemaStore creates a store over named queries.
func NewSchemaStore(queries *Queries) *SchemaStore {
	return &SchemaStore{
		queries: queries,
		cache:   make(map[string]*types.FullMeta),
	}
}

// AllSchemas returns every approved schema, with its device-class domain when known.
// A schema listed under several domains appears once per domain.
func (s *SchemaStore) AllSchemas(ctx context.Context) ([]types.Schema, error) {
	var schemas []types.Schema
	if err := s.queries.Select(ctx, "list-approved-schemas", &schemas); err != nil {
		return nil, fmt.Errorf("failed to list schemas: %w", err)
	}
	return schemas, nil
}

// FullMeta returns the channels of the approved version of kind.
// Returns types.ErrSchemaNotFound when kind has no approved version.
func (s *SchemaStore) FullMeta(ctx context.Context, kind string) (*types.FullMeta, error) {
	s.mu.Lock()
	cached, ok := s.cache[kind]
	s.mu.Unlock()
	if ok {
		return cached, nil
	}

	var schema struct {
		ID      int64 `db:"id"`
		Version int64 `db:"approved_version"`
	}
	err := s.queries.Get(ctx, "get-approved-schema", &schema, kind)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", types.ErrSchemaNotFound, kind)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load schema %s: %w", kind, err)
	}

	var rows []struct {
		Name        string `db:"name"`
		ChannelType string `db:"channel_type"`
		ArgNames    string `db:"argnames"`
		Types       string `db:"types"`
		Required    string `db:"required"`
	}
	if err := s.queries.Select(ctx, "list-schema-channels", &rows, schema.ID, schema.Version); err != nil {
		return nil, fmt.Errorf("failed to load channels of %s: %w", kind, err)
	}

	meta := types.NewFullMeta(kind)
	for _, r := range rows {
		ck, ok := channelTypes[r.ChannelType]
		if !ok {
			continue
		}
		ch := &types.ChannelMeta{Kind: kind, Name: r.Name}
		if err := json.Unmarshal([]byte(r.ArgNames), &ch.Args); err != nil {
			return nil, fmt.Errorf("malformed argnames for %s.%s: %w", kind, r.Name, err)
		}
		if err := json.Unmarshal([]byte(r.Types), &ch.Types); err != nil {
			return nil, fmt.Errorf("malformed types for %s.%s: %w", kind, r.Name, err)
		}
		if err := json.Unmarshal([]byte(r.Required), &ch.Required); err != nil {
			return nil, fmt.Errorf("malformed required for %s.%s: %w", kind, r.Name, err)
		}
		if err := validateChannel(ch); err != nil {
			return nil, fmt.Errorf("channel %s.%s: %w", kind, r.Name, err)
		}
		meta.Channels(ck)[r.Name] = ch
	}

	s.mu.Lock()
	s.cache[kind] = meta
	s.mu.Unlock()
	return meta, nil
}

// AddSchema stores schema as approved version 1 with the channels in meta.
// A non-empty schema.Domain registers a device class of the same name.
// Everything is written in one transaction; on error nothing is stored.
func (s *SchemaStore) AddSchema(ctx context.Context, schema types.Schema, meta *types.FullMeta) error {
	const version = 1

	if meta != nil {
		for _, ck := range channelKinds {
			for name, ch := range meta.Channels(ck) {
				if err := validateChannel(ch); err != nil {
					return fmt.Errorf("channel %s.%s: %w", schema.Kind, name, err)
				}
			}
		}
	}

	kindType := schema.KindType
	if kindType == "" {
		kindType = "primary"
	}

	err := s.queries.InTx(ctx, func(tx *Tx) error {
		var schemaID int64
		if err := tx.Get(ctx, "insert-schema", &schemaID, schema.Kind, kindType, version, version); err != nil {
			return fmt.Errorf("failed to insert schema %s: %w", schema.Kind, err)
		}

		if schema.Domain != "" {
			var classID int64
			if err := tx.Get(ctx, "insert-device-class", &classID, schema.Kind); err != nil {
				return fmt.Errorf("failed to insert device class %s: %w", schema.Kind, err)
			}
			if _, err := tx.Exec(ctx, "insert-device-class-kind", classID, schema.Domain); err != nil {
				return fmt.Errorf("failed to insert device class kind %s: %w", schema.Kind, err)
			}
		}

		if meta == nil {
			return nil
		}
		for channelType, ck := range channelTypes {
			channels := meta.Channels(ck)
			names := make([]string, 0, len(channels))
			for name := range channels {
				names = append(names, name)
			}
			sort.Strings(names)

			for _, name := range names {
				ch := channels[name]
				args, _ := json.Marshal(nonNil(ch.Args))
				typs, _ := json.Marshal(nonNil(ch.Types))
				required, _ := json.Marshal(nonNil(ch.Required))
				if _, err := tx.Exec(ctx, "insert-schema-channel",
					schemaID, version, name, channelType, string(args), string(typs), string(required)); err != nil {
					return fmt.Errorf("failed to insert channel %s.%s: %w", schema.Kind, name, err)
				}
			}
		}
		return nil
	})
	if err != nil {
		return err
	}

	s.mu.Lock()
	delete(s.cache, schema.Kind)
	s.mu.Unlock()
	return nil
}

var channelKinds = []types.ChannelKind{types.ChannelTriggers, types.ChannelQueries, types.ChannelActions}

// validateChannel checks that the parallel argument slices line up.
func validateChannel(ch *types.ChannelMeta) error {
	if ch == nil {
		return errors.New("missing channel metadata")
	}
	if len(ch.Types) != len(ch.Args) {
		return fmt.Errorf("%d args but %d types", len(ch.Args), len(ch.Types))
	}
	if len(ch.Required) > len(ch.Args) {
		return fmt.Errorf("%d args but %d required flags", len(ch.Args), len(ch.Required))
	}
	return nil
}

func nonNil[T any](xs []T) []T {
	if xs == nil {
		return []T{}
	}
	return xs
}
