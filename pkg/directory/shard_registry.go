package directory

import (
	"context"

	validator "github.com/pg-sharding/shardmapctl/pkg/directory/validators"
	"github.com/pg-sharding/shardmapctl/pkg/models/shardmaps"
	"github.com/pg-sharding/shardmapctl/pkg/models/shards"
	"github.com/pg-sharding/shardmapctl/pkg/spqrlog"
	"github.com/pg-sharding/shardmapctl/qdb"
)

// ShardRegistry manages the shards of a single shard map.
//
// Shards are matched by database name only: two shards with the same database name on
// different servers are treated as the same shard.
type ShardRegistry struct {
	db       qdb.QDB
	shardMap *shardmaps.ShardMap
}

var _ shards.ShardMgr = &ShardRegistry{}

func NewShardRegistry(db qdb.QDB, shardMap *shardmaps.ShardMap) *ShardRegistry {
	return &ShardRegistry{
		db:       db,
		shardMap: shardMap,
	}
}

func (r *ShardRegistry) ShardMap() *shardmaps.ShardMap {
	return r.shardMap
}

func (r *ShardRegistry) ListShards(ctx context.Context) ([]*shards.Shard, error) {
	stored, err := r.db.ListShards(ctx, shardmaps.ShardMapToDB(r.shardMap))
	if err != nil {
		return nil, storeError(err, "failed to list shards")
	}

	ret := make([]*shards.Shard, 0, len(stored))
	for _, sh := range stored {
		ret = append(ret, shards.ShardFromDB(sh, r.shardMap.Name))
	}
	return ret, nil
}

func (r *ShardRegistry) findByDatabase(ctx context.Context, database string) (*shards.Shard, error) {
	list, err := r.ListShards(ctx)
	if err != nil {
		return nil, err
	}
	for _, sh := range list {
		if sh.Location.Database == database {
			return sh, nil
		}
	}
	return nil, nil
}

// CreateShardIfAbsent registers a shard at [server].[database] unless the map already
// has a shard for database.
func (r *ShardRegistry) CreateShardIfAbsent(ctx context.Context, database, server string) (bool, error) {
	if err := validator.ValidateDatabaseName(database); err != nil {
		return false, err
	}
	if err := validator.ValidateServerName(server); err != nil {
		return false, err
	}

	existing, err := r.findByDatabase(ctx, database)
	if err != nil {
		return false, err
	}
	if existing != nil {
		spqrlog.Zero.Info().
			Str("shard-map", r.shardMap.Name).
			Str("database", database).
			Str("existing-location", existing.Location.String()).
			Msg("shard already exists, skipping creation")
		return false, nil
	}

	loc := shards.Location{Server: server, Database: database}
	if _, err := r.db.CreateShard(ctx, shardmaps.ShardMapToDB(r.shardMap), shards.LocationToDB(loc)); err != nil {
		return false, storeError(err, "failed to create shard")
	}

	spqrlog.Zero.Info().
		Str("shard-map", r.shardMap.Name).
		Str("location", loc.String()).
		Msg("created shard")
	return true, nil
}

// DeleteShardIfPresent deletes the first shard whose database name equals database.
func (r *ShardRegistry) DeleteShardIfPresent(ctx context.Context, database string) (bool, error) {
	existing, err := r.findByDatabase(ctx, database)
	if err != nil {
		return false, err
	}
	if existing == nil {
		spqrlog.Zero.Info().
			Str("shard-map", r.shardMap.Name).
			Str("database", database).
			Msg("shard does not exist, nothing to delete")
		return false, nil
	}

	if err := r.db.DeleteShard(ctx, shardmaps.ShardMapToDB(r.shardMap), shards.ShardToDB(existing)); err != nil {
		return false, storeError(err, "failed to delete shard")
	}

	spqrlog.Zero.Info().
		Str("shard-map", r.shardMap.Name).
		Str("location", existing.Location.String()).
		Msg("deleted shard")
	return true, nil
}
