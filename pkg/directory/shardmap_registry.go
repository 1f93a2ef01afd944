package directory

import (
	"context"

	validator "github.com/pg-sharding/shardmapctl/pkg/directory/validators"
	"github.com/pg-sharding/shardmapctl/pkg/models/shardmaps"
	"github.com/pg-sharding/shardmapctl/pkg/models/spqrerror"
	"github.com/pg-sharding/shardmapctl/pkg/spqrlog"
	"github.com/pg-sharding/shardmapctl/qdb"
)

// ShardMapRegistry implements directory level operations on top of a QDB. Every lookup
// goes to the store; nothing is cached between calls.
type ShardMapRegistry struct {
	db      qdb.QDB
	keyType shardmaps.KeyType
}

var _ shardmaps.ShardMapMgr = &ShardMapRegistry{}

// NewShardMapRegistry creates a registry that creates new maps with keyType.
func NewShardMapRegistry(db qdb.QDB, keyType shardmaps.KeyType) *ShardMapRegistry {
	if keyType == "" {
		keyType = shardmaps.DefaultKeyType
	}
	return &ShardMapRegistry{
		db:      db,
		keyType: keyType,
	}
}

func (r *ShardMapRegistry) KeyType() shardmaps.KeyType {
	return r.keyType
}

// ListShardMaps returns every shard map in store order.
func (r *ShardMapRegistry) ListShardMaps(ctx context.Context) ([]*shardmaps.ShardMap, error) {
	stored, err := r.db.ListShardMaps(ctx)
	if err != nil {
		return nil, storeError(err, "failed to list shard maps")
	}

	ret := make([]*shardmaps.ShardMap, 0, len(stored))
	for _, sm := range stored {
		ret = append(ret, shardmaps.ShardMapFromDB(sm))
	}
	return ret, nil
}

func (r *ShardMapRegistry) lookup(ctx context.Context, name string) (*shardmaps.ShardMap, error) {
	maps, err := r.ListShardMaps(ctx)
	if err != nil {
		return nil, err
	}
	for _, sm := range maps {
		if sm.Name == name {
			return sm, nil
		}
	}
	return nil, nil
}

func (r *ShardMapRegistry) CreateShardMapIfAbsent(ctx context.Context, name string) (*shardmaps.ShardMap, bool, error) {
	if err := validator.ValidateShardMapName(name); err != nil {
		return nil, false, err
	}

	existing, err := r.lookup(ctx, name)
	if err != nil {
		return nil, false, err
	}
	if existing != nil {
		spqrlog.Zero.Info().
			Str("shard-map", name).
			Msg("shard map already exists, skipping creation")
		return existing, false, nil
	}

	stored, err := r.db.CreateShardMap(ctx, name, string(r.keyType))
	if err != nil {
		return nil, false, storeError(err, "failed to create shard map")
	}

	spqrlog.Zero.Info().
		Str("shard-map", name).
		Str("key-type", string(r.keyType)).
		Msg("created shard map")
	return shardmaps.ShardMapFromDB(stored), true, nil
}

func (r *ShardMapRegistry) DeleteShardMapIfPresent(ctx context.Context, name string) (bool, error) {
	existing, err := r.lookup(ctx, name)
	if err != nil {
		return false, err
	}
	if existing == nil {
		spqrlog.Zero.Info().
			Str("shard-map", name).
			Msg("shard map does not exist, nothing to delete")
		return false, nil
	}

	if err := r.db.DeleteShardMap(ctx, shardmaps.ShardMapToDB(existing)); err != nil {
		return false, storeError(err, "failed to delete shard map")
	}

	spqrlog.Zero.Info().
		Str("shard-map", name).
		Msg("deleted shard map")
	return true, nil
}

// Resolve fetches the shard map named name. A missing map is reported with
// SPQR_OBJECT_NOT_EXIST, any other failure as a store error.
func (r *ShardMapRegistry) Resolve(ctx context.Context, name string) (*shardmaps.ShardMap, error) {
	stored, err := r.db.GetShardMap(ctx, name)
	if err != nil {
		if spqrerror.HasCode(err, spqrerror.SPQR_OBJECT_NOT_EXIST) {
			return nil, err
		}
		return nil, storeError(err, "failed to get shard map")
	}
	return shardmaps.ShardMapFromDB(stored), nil
}
