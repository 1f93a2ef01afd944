package qdb

import (
	"context"

	"github.com/pg-sharding/shardmapctl/pkg/models/spqrerror"
)

// QDB is the shard directory store. Implementations own persistence; callers layer
// idempotency and confirmation policies on top.
type QDB interface {
	ListShardMaps(ctx context.Context) ([]*ShardMap, error)
	CreateShardMap(ctx context.Context, name string, keyType string) (*ShardMap, error)
	DeleteShardMap(ctx context.Context, shardMap *ShardMap) error
	GetShardMap(ctx context.Context, name string) (*ShardMap, error)

	ListShards(ctx context.Context, shardMap *ShardMap) ([]*Shard, error)
	CreateShard(ctx context.Context, shardMap *ShardMap, loc ShardLocation) (*Shard, error)
	DeleteShard(ctx context.Context, shardMap *ShardMap, shard *Shard) error

	Close() error
}

const (
	StoreTypeMem  = "mem"
	StoreTypeEtcd = "etcd"
	StoreTypeSQL  = "sql"
	StoreTypeZK   = "zk"
)

// Options carries everything a backend needs to open its connection.
type Options struct {
	Type       string
	Endpoints  []string
	Root       string
	SQLDriver  string
	DSN        string
	BackupPath string
	Retries    uint64
}

// NewQDB opens the store selected by opts.Type.
func NewQDB(ctx context.Context, opts Options) (QDB, error) {
	switch opts.Type {
	case StoreTypeEtcd:
		return NewEtcdQDB(ctx, opts.Endpoints, opts.Root, opts.Retries)
	case StoreTypeSQL:
		return NewSQLQDB(ctx, opts.SQLDriver, opts.DSN, opts.Retries)
	case StoreTypeZK:
		return NewZKQDB(ctx, opts.Endpoints, opts.Root, opts.Retries)
	case StoreTypeMem, "":
		return RestoreQDB(opts.BackupPath)
	default:
		return nil, spqrerror.Newf(spqrerror.SPQR_CONFIG_ERROR, "qdb implementation %s is invalid", opts.Type)
	}
}
