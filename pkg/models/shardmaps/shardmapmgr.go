package shardmaps

import "context"

type ShardMapMgr interface {
	ListShardMaps(ctx context.Context) ([]*ShardMap, error)
	// CreateShardMapIfAbsent returns the map named name and whether this call created it.
	CreateShardMapIfAbsent(ctx context.Context, name string) (*ShardMap, bool, error)
	DeleteShardMapIfPresent(ctx context.Context, name string) (bool, error)
	Resolve(ctx context.Context, name string) (*ShardMap, error)
}
