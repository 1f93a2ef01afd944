package qdb

import (
	"context"
	"encoding/json"
	"path"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	clientv3 "go.etcd.io/etcd/client/v3"
	"go.etcd.io/etcd/client/v3/clientv3util"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"

	"github.com/pg-sharding/shardmapctl/pkg/models/spqrerror"
	"github.com/pg-sharding/shardmapctl/pkg/spqrlog"
)

const (
	DefaultRoot = "/shardmapctl"

	shardMapsNamespace = "shard_maps"
	shardsNamespace    = "shards"

	etcdDialTimeout = 5 * time.Second
)

type EtcdQDB struct {
	cli  *clientv3.Client
	root string
}

var _ QDB = &EtcdQDB{}

func NewEtcdQDB(ctx context.Context, endpoints []string, root string, retries uint64) (*EtcdQDB, error) {
	cli, err := clientv3.New(clientv3.Config{
		Endpoints:   endpoints,
		DialTimeout: etcdDialTimeout,
		DialOptions: []grpc.DialOption{
			grpc.WithTransportCredentials(insecure.NewCredentials()),
		},
	})
	if err != nil {
		return nil, spqrerror.Wrap(spqrerror.SPQR_CONNECTION_ERROR, err, "etcdqdb: failed to create client")
	}

	spqrlog.Zero.Debug().
		Strs("endpoints", endpoints).
		Uint("client", spqrlog.GetPointer(cli)).
		Msg("etcdqdb: NewEtcdQDB")

	if root == "" {
		root = DefaultRoot
	}
	q := &EtcdQDB{
		cli:  cli,
		root: root,
	}

	if err := connectWithRetry(ctx, "etcd", retries, func(ctx context.Context) error {
		probeCtx, cancel := context.WithTimeout(ctx, etcdDialTimeout)
		defer cancel()
		_, err := cli.Get(probeCtx, q.shardMapsPrefix(), clientv3.WithPrefix(), clientv3.WithCountOnly())
		return err
	}); err != nil {
		_ = cli.Close()
		return nil, err
	}

	return q, nil
}

func (q *EtcdQDB) Client() *clientv3.Client {
	return q.cli
}

func (q *EtcdQDB) Close() error {
	return q.cli.Close()
}

func (q *EtcdQDB) shardMapsPrefix() string {
	return path.Join(q.root, shardMapsNamespace) + "/"
}

func (q *EtcdQDB) shardMapNodePath(name string) string {
	return path.Join(q.root, shardMapsNamespace, escapeNodeName(name))
}

func (q *EtcdQDB) shardsPrefix(shardMapID string) string {
	return path.Join(q.root, shardsNamespace, shardMapID) + "/"
}

func (q *EtcdQDB) shardNodePath(shardMapID string, loc ShardLocation) string {
	return path.Join(q.root, shardsNamespace, shardMapID, escapeNodeName(loc.Server), escapeNodeName(loc.Database))
}

// ==============================================================================
//                                 SHARD MAPS
// ==============================================================================

func (q *EtcdQDB) ListShardMaps(ctx context.Context) ([]*ShardMap, error) {
	spqrlog.Zero.Debug().Msg("etcdqdb: list shard maps")

	resp, err := q.cli.Get(ctx, q.shardMapsPrefix(), clientv3.WithPrefix())
	if err != nil {
		return nil, errors.Wrap(err, "etcdqdb: list shard maps")
	}

	ret := make([]*ShardMap, 0, len(resp.Kvs))
	for _, kv := range resp.Kvs {
		var sm *ShardMap
		if err := json.Unmarshal(kv.Value, &sm); err != nil {
			return nil, errors.Wrapf(err, "etcdqdb: decode shard map at %s", kv.Key)
		}
		ret = append(ret, sm)
	}

	sort.Slice(ret, func(i, j int) bool {
		return ret[i].Name < ret[j].Name
	})

	return ret, nil
}

func (q *EtcdQDB) CreateShardMap(ctx context.Context, name string, keyType string) (*ShardMap, error) {
	spqrlog.Zero.Debug().
		Str("name", name).
		Str("key-type", keyType).
		Msg("etcdqdb: create shard map")

	sm := NewShardMap(uuid.NewString(), name, keyType)
	data, err := json.Marshal(sm)
	if err != nil {
		return nil, err
	}

	nodePath := q.shardMapNodePath(name)
	resp, err := q.cli.Txn(ctx).
		If(clientv3util.KeyMissing(nodePath)).
		Then(clientv3.OpPut(nodePath, string(data))).
		Commit()
	if err != nil {
		return nil, errors.Wrap(err, "etcdqdb: create shard map")
	}
	if !resp.Succeeded {
		return nil, spqrerror.Newf(spqrerror.SPQR_OBJECT_EXISTS, "shard map \"%s\" already exists", name)
	}

	spqrlog.Zero.Debug().
		Int64("revision", resp.Header.GetRevision()).
		Msg("etcdqdb: create shard map")
	return sm, nil
}

func (q *EtcdQDB) DeleteShardMap(ctx context.Context, shardMap *ShardMap) error {
	spqrlog.Zero.Debug().
		Str("name", shardMap.Name).
		Msg("etcdqdb: delete shard map")

	shardsResp, err := q.cli.Get(ctx, q.shardsPrefix(shardMap.ID), clientv3.WithPrefix(), clientv3.WithCountOnly())
	if err != nil {
		return errors.Wrap(err, "etcdqdb: count shards")
	}
	if shardsResp.Count > 0 {
		return spqrerror.Newf(spqrerror.SPQR_SHARDMAP_NOT_EMPTY,
			"shard map \"%s\" still has %d shards, delete them first", shardMap.Name, shardsResp.Count)
	}

	nodePath := q.shardMapNodePath(shardMap.Name)
	resp, err := q.cli.Txn(ctx).
		If(clientv3util.KeyExists(nodePath)).
		Then(clientv3.OpDelete(nodePath)).
		Commit()
	if err != nil {
		return errors.Wrap(err, "etcdqdb: delete shard map")
	}
	if !resp.Succeeded {
		return spqrerror.Newf(spqrerror.SPQR_OBJECT_NOT_EXIST, "shard map \"%s\" not found", shardMap.Name)
	}
	return nil
}

func (q *EtcdQDB) GetShardMap(ctx context.Context, name string) (*ShardMap, error) {
	spqrlog.Zero.Debug().
		Str("name", name).
		Msg("etcdqdb: get shard map")

	resp, err := q.cli.Get(ctx, q.shardMapNodePath(name))
	if err != nil {
		return nil, errors.Wrap(err, "etcdqdb: get shard map")
	}
	if len(resp.Kvs) == 0 {
		return nil, spqrerror.Newf(spqrerror.SPQR_OBJECT_NOT_EXIST, "shard map \"%s\" not found", name)
	}

	var sm *ShardMap
	if err := json.Unmarshal(resp.Kvs[0].Value, &sm); err != nil {
		return nil, errors.Wrapf(err, "etcdqdb: decode shard map %s", name)
	}
	return sm, nil
}

// ==============================================================================
//                                   SHARDS
// ==============================================================================

func (q *EtcdQDB) checkShardMap(ctx context.Context, shardMap *ShardMap) error {
	stored, err := q.GetShardMap(ctx, shardMap.Name)
	if err != nil {
		return err
	}
	if stored.ID != shardMap.ID {
		return spqrerror.Newf(spqrerror.SPQR_OBJECT_NOT_EXIST, "shard map \"%s\" not found", shardMap.Name)
	}
	return nil
}

func (q *EtcdQDB) ListShards(ctx context.Context, shardMap *ShardMap) ([]*Shard, error) {
	spqrlog.Zero.Debug().
		Str("shard-map", shardMap.Name).
		Msg("etcdqdb: list shards")

	if err := q.checkShardMap(ctx, shardMap); err != nil {
		return nil, err
	}

	resp, err := q.cli.Get(ctx, q.shardsPrefix(shardMap.ID), clientv3.WithPrefix())
	if err != nil {
		return nil, errors.Wrap(err, "etcdqdb: list shards")
	}

	ret := make([]*Shard, 0, len(resp.Kvs))
	for _, kv := range resp.Kvs {
		var sh *Shard
		if err := json.Unmarshal(kv.Value, &sh); err != nil {
			return nil, errors.Wrapf(err, "etcdqdb: decode shard at %s", kv.Key)
		}
		ret = append(ret, sh)
	}

	sort.Slice(ret, func(i, j int) bool {
		if ret[i].Location.Database != ret[j].Location.Database {
			return ret[i].Location.Database < ret[j].Location.Database
		}
		return ret[i].Location.Server < ret[j].Location.Server
	})
	return ret, nil
}

func (q *EtcdQDB) CreateShard(ctx context.Context, shardMap *ShardMap, loc ShardLocation) (*Shard, error) {
	spqrlog.Zero.Debug().
		Str("shard-map", shardMap.Name).
		Str("location", loc.String()).
		Msg("etcdqdb: create shard")

	if err := q.checkShardMap(ctx, shardMap); err != nil {
		return nil, err
	}

	sh := NewShard(uuid.NewString(), shardMap.ID, loc)
	data, err := json.Marshal(sh)
	if err != nil {
		return nil, err
	}

	nodePath := q.shardNodePath(shardMap.ID, loc)
	resp, err := q.cli.Txn(ctx).
		If(clientv3util.KeyMissing(nodePath)).
		Then(clientv3.OpPut(nodePath, string(data))).
		Commit()
	if err != nil {
		return nil, errors.Wrap(err, "etcdqdb: create shard")
	}
	if !resp.Succeeded {
		return nil, spqrerror.Newf(spqrerror.SPQR_OBJECT_EXISTS,
			"shard %s already exists in shard map \"%s\"", loc, shardMap.Name)
	}
	return sh, nil
}

func (q *EtcdQDB) DeleteShard(ctx context.Context, shardMap *ShardMap, shard *Shard) error {
	spqrlog.Zero.Debug().
		Str("shard-map", shardMap.Name).
		Str("id", shard.ID).
		Msg("etcdqdb: delete shard")

	nodePath := q.shardNodePath(shardMap.ID, shard.Location)
	resp, err := q.cli.Txn(ctx).
		If(clientv3util.KeyExists(nodePath)).
		Then(clientv3.OpDelete(nodePath)).
		Commit()
	if err != nil {
		return errors.Wrap(err, "etcdqdb: delete shard")
	}
	if !resp.Succeeded {
		return spqrerror.Newf(spqrerror.SPQR_OBJECT_NOT_EXIST,
			"shard %s not found in shard map \"%s\"", shard.Location, shardMap.Name)
	}
	return nil
}
