package shards

import (
	"context"

	"github.com/pg-sharding/shardmapctl/pkg/models/shardmaps"
)

// ShardMgr manages the shards of one shard map.
type ShardMgr interface {
	ShardMap() *shardmaps.ShardMap

	ListShards(ctx context.Context) ([]*Shard, error)
	CreateShardIfAbsent(ctx context.Context, database, server string) (bool, error)
	DeleteShardIfPresent(ctx context.Context, database string) (bool, error)
}
