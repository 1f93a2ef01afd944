package qdb

import (
	"context"
	"encoding/json"
	"path"
	"sort"
	"strings"
	"time"

	"github.com/go-zookeeper/zk"
	"github.com/google/uuid"
	"github.com/pkg/errors"

	"github.com/pg-sharding/shardmapctl/pkg/models/spqrerror"
	"github.com/pg-sharding/shardmapctl/pkg/spqrlog"
)

const zkSessionTimeout = 5 * time.Second

// ZKQDB stores every shard map and shard as a znode holding its JSON encoding:
//
//	<root>/shard_maps/<name>
//	<root>/shards/<shard map id>/<shard id>
type ZKQDB struct {
	conn *zk.Conn
	root string
}

var _ QDB = &ZKQDB{}

func NewZKQDB(ctx context.Context, servers []string, root string, retries uint64) (*ZKQDB, error) {
	conn, _, err := zk.Connect(servers, zkSessionTimeout)
	if err != nil {
		return nil, spqrerror.Wrap(spqrerror.SPQR_CONNECTION_ERROR, err, "zkqdb: failed to connect")
	}

	spqrlog.Zero.Debug().
		Strs("servers", servers).
		Uint("conn", spqrlog.GetPointer(conn)).
		Msg("zkqdb: NewZKQDB")

	if root == "" {
		root = DefaultRoot
	}
	q := &ZKQDB{conn: conn, root: root}

	if err := connectWithRetry(ctx, "zk", retries, func(context.Context) error {
		st := conn.State()
		if st != zk.StateConnected && st != zk.StateHasSession {
			return errors.Errorf("zk session state is %v", st)
		}
		return nil
	}); err != nil {
		conn.Close()
		return nil, err
	}

	for _, p := range []string{path.Join(root, shardMapsNamespace), path.Join(root, shardsNamespace)} {
		if err := q.ensurePath(p); err != nil {
			conn.Close()
			return nil, errors.Wrapf(err, "zkqdb: ensure %s", p)
		}
	}
	return q, nil
}

func (q *ZKQDB) Close() error {
	q.conn.Close()
	return nil
}

func (q *ZKQDB) ensurePath(p string) error {
	cur := ""
	for _, part := range strings.Split(p, "/") {
		if part == "" {
			continue
		}
		cur = cur + "/" + part
		exists, _, err := q.conn.Exists(cur)
		if err != nil {
			return err
		}
		if exists {
			continue
		}
		if _, err := q.conn.Create(cur, nil, 0, zk.WorldACL(zk.PermAll)); err != nil && err != zk.ErrNodeExists {
			return err
		}
	}
	return nil
}

func (q *ZKQDB) shardMapNodePath(name string) string {
	return path.Join(q.root, shardMapsNamespace, escapeNodeName(name))
}

func (q *ZKQDB) shardsNodePath(shardMapID string) string {
	return path.Join(q.root, shardsNamespace, shardMapID)
}

// ==============================================================================
//                                 SHARD MAPS
// ==============================================================================

func (q *ZKQDB) ListShardMaps(_ context.Context) ([]*ShardMap, error) {
	spqrlog.Zero.Debug().Msg("zkqdb: list shard maps")

	parent := path.Join(q.root, shardMapsNamespace)
	children, _, err := q.conn.Children(parent)
	if err != nil {
		return nil, errors.Wrap(err, "zkqdb: list shard maps")
	}

	ret := make([]*ShardMap, 0, len(children))
	for _, child := range children {
		data, _, err := q.conn.Get(path.Join(parent, child))
		if err == zk.ErrNoNode {
			continue
		}
		if err != nil {
			return nil, errors.Wrapf(err, "zkqdb: get shard map %s", child)
		}
		var sm *ShardMap
		if err := json.Unmarshal(data, &sm); err != nil {
			return nil, errors.Wrapf(err, "zkqdb: decode shard map %s", child)
		}
		ret = append(ret, sm)
	}

	sort.Slice(ret, func(i, j int) bool {
		return ret[i].Name < ret[j].Name
	})
	return ret, nil
}

func (q *ZKQDB) CreateShardMap(_ context.Context, name string, keyType string) (*ShardMap, error) {
	spqrlog.Zero.Debug().
		Str("name", name).
		Str("key-type", keyType).
		Msg("zkqdb: create shard map")

	sm := NewShardMap(uuid.NewString(), name, keyType)
	data, err := json.Marshal(sm)
	if err != nil {
		return nil, err
	}

	if _, err := q.conn.Create(q.shardMapNodePath(name), data, 0, zk.WorldACL(zk.PermAll)); err != nil {
		if err == zk.ErrNodeExists {
			return nil, spqrerror.Newf(spqrerror.SPQR_OBJECT_EXISTS, "shard map \"%s\" already exists", name)
		}
		return nil, errors.Wrap(err, "zkqdb: create shard map")
	}
	return sm, nil
}

func (q *ZKQDB) DeleteShardMap(_ context.Context, shardMap *ShardMap) error {
	spqrlog.Zero.Debug().
		Str("name", shardMap.Name).
		Msg("zkqdb: delete shard map")

	shardsPath := q.shardsNodePath(shardMap.ID)
	children, _, err := q.conn.Children(shardsPath)
	switch {
	case err == zk.ErrNoNode:
	case err != nil:
		return errors.Wrap(err, "zkqdb: count shards")
	case len(children) > 0:
		return spqrerror.Newf(spqrerror.SPQR_SHARDMAP_NOT_EMPTY,
			"shard map \"%s\" still has %d shards, delete them first", shardMap.Name, len(children))
	}

	if err := q.conn.Delete(q.shardMapNodePath(shardMap.Name), -1); err != nil {
		if err == zk.ErrNoNode {
			return spqrerror.Newf(spqrerror.SPQR_OBJECT_NOT_EXIST, "shard map \"%s\" not found", shardMap.Name)
		}
		return errors.Wrap(err, "zkqdb: delete shard map")
	}
	if err := q.conn.Delete(shardsPath, -1); err != nil && err != zk.ErrNoNode {
		spqrlog.Zero.Warn().Err(err).Str("path", shardsPath).Msg("zkqdb: failed to remove shard container")
	}
	return nil
}

func (q *ZKQDB) GetShardMap(_ context.Context, name string) (*ShardMap, error) {
	spqrlog.Zero.Debug().Str("name", name).Msg("zkqdb: get shard map")

	data, _, err := q.conn.Get(q.shardMapNodePath(name))
	if err == zk.ErrNoNode {
		return nil, spqrerror.Newf(spqrerror.SPQR_OBJECT_NOT_EXIST, "shard map \"%s\" not found", name)
	}
	if err != nil {
		return nil, errors.Wrap(err, "zkqdb: get shard map")
	}

	var sm *ShardMap
	if err := json.Unmarshal(data, &sm); err != nil {
		return nil, errors.Wrapf(err, "zkqdb: decode shard map %s", name)
	}
	return sm, nil
}

// ==============================================================================
//                                   SHARDS
// ==============================================================================

func (q *ZKQDB) checkShardMap(ctx context.Context, shardMap *ShardMap) error {
	stored, err := q.GetShardMap(ctx, shardMap.Name)
	if err != nil {
		return err
	}
	if stored.ID != shardMap.ID {
		return spqrerror.Newf(spqrerror.SPQR_OBJECT_NOT_EXIST, "shard map \"%s\" not found", shardMap.Name)
	}
	return nil
}

func (q *ZKQDB) ListShards(ctx context.Context, shardMap *ShardMap) ([]*Shard, error) {
	spqrlog.Zero.Debug().
		Str("shard-map", shardMap.Name).
		Msg("zkqdb: list shards")

	if err := q.checkShardMap(ctx, shardMap); err != nil {
		return nil, err
	}

	parent := q.shardsNodePath(shardMap.ID)
	children, _, err := q.conn.Children(parent)
	if err == zk.ErrNoNode {
		return nil, nil
	}
	if err != nil {
		return nil, errors.Wrap(err, "zkqdb: list shards")
	}

	ret := make([]*Shard, 0, len(children))
	for _, child := range children {
		data, _, err := q.conn.Get(path.Join(parent, child))
		if err == zk.ErrNoNode {
			continue
		}
		if err != nil {
			return nil, errors.Wrapf(err, "zkqdb: get shard %s", child)
		}
		var sh *Shard
		if err := json.Unmarshal(data, &sh); err != nil {
			return nil, errors.Wrapf(err, "zkqdb: decode shard %s", child)
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

func (q *ZKQDB) CreateShard(ctx context.Context, shardMap *ShardMap, loc ShardLocation) (*Shard, error) {
	spqrlog.Zero.Debug().
		Str("shard-map", shardMap.Name).
		Str("location", loc.String()).
		Msg("zkqdb: create shard")

	existing, err := q.ListShards(ctx, shardMap)
	if err != nil {
		return nil, err
	}
	for _, sh := range existing {
		if sh.Location == loc {
			return nil, spqrerror.Newf(spqrerror.SPQR_OBJECT_EXISTS,
				"shard %s already exists in shard map \"%s\"", loc, shardMap.Name)
		}
	}

	parent := q.shardsNodePath(shardMap.ID)
	if err := q.ensurePath(parent); err != nil {
		return nil, errors.Wrap(err, "zkqdb: create shard container")
	}

	sh := NewShard(uuid.NewString(), shardMap.ID, loc)
	data, err := json.Marshal(sh)
	if err != nil {
		return nil, err
	}
	if _, err := q.conn.Create(path.Join(parent, sh.ID), data, 0, zk.WorldACL(zk.PermAll)); err != nil {
		return nil, errors.Wrap(err, "zkqdb: create shard")
	}
	return sh, nil
}

func (q *ZKQDB) DeleteShard(_ context.Context, shardMap *ShardMap, shard *Shard) error {
	spqrlog.Zero.Debug().
		Str("shard-map", shardMap.Name).
		Str("id", shard.ID).
		Msg("zkqdb: delete shard")

	if err := q.conn.Delete(path.Join(q.shardsNodePath(shardMap.ID), shard.ID), -1); err != nil {
		if err == zk.ErrNoNode {
			return spqrerror.Newf(spqrerror.SPQR_OBJECT_NOT_EXIST,
				"shard %s not found in shard map \"%s\"", shard.Location, shardMap.Name)
		}
		return errors.Wrap(err, "zkqdb: delete shard")
	}
	return nil
}
