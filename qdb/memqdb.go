package qdb

import (
	"context"
	"encoding/json"
	"os"
	"sort"
	"sync"

	"github.com/google/uuid"

	"github.com/pg-sharding/shardmapctl/pkg/models/spqrerror"
	"github.com/pg-sharding/shardmapctl/pkg/spqrlog"
)

type MemQDB struct {
	mu sync.RWMutex

	ShardMaps map[string]*ShardMap `json:"shard_maps"`
	Shards    map[string]*Shard    `json:"shards"`

	backupPath string
}

var _ QDB = &MemQDB{}

func NewMemQDB(backupPath string) (*MemQDB, error) {
	return &MemQDB{
		ShardMaps: map[string]*ShardMap{},
		Shards:    map[string]*Shard{},

		backupPath: backupPath,
	}, nil
}

// RestoreQDB creates a MemQDB and loads its state from backupPath when the file exists.
// An empty path gives a purely in-memory store.
func RestoreQDB(backupPath string) (*MemQDB, error) {
	qdb, err := NewMemQDB(backupPath)
	if err != nil {
		return nil, err
	}
	if backupPath == "" {
		return qdb, nil
	}
	if _, err := os.Stat(backupPath); err != nil {
		spqrlog.Zero.Info().Err(err).Msg("memqdb backup file not exists. Creating new one.")
		f, err := os.Create(backupPath)
		if err != nil {
			return nil, err
		}
		defer f.Close()
		return qdb, nil
	}
	data, err := os.ReadFile(backupPath)
	if err != nil {
		return nil, err
	}
	if len(data) == 0 {
		return qdb, nil
	}
	if err := json.Unmarshal(data, qdb); err != nil {
		return nil, err
	}
	if qdb.ShardMaps == nil {
		qdb.ShardMaps = map[string]*ShardMap{}
	}
	if qdb.Shards == nil {
		qdb.Shards = map[string]*Shard{}
	}
	return qdb, nil
}

// DumpState writes the state to the backup file through a temporary file and rename.
func (q *MemQDB) DumpState() error {
	if q.backupPath == "" {
		return nil
	}
	tmpPath := q.backupPath + ".tmp"

	f, err := os.OpenFile(tmpPath, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0644)
	if err != nil {
		return err
	}
	defer f.Close()

	state, err := json.MarshalIndent(q, "", "	")
	if err != nil {
		return err
	}

	if _, err = f.Write(state); err != nil {
		return err
	}
	if err := f.Close(); err != nil {
		return err
	}

	return os.Rename(tmpPath, q.backupPath)
}

func (q *MemQDB) Close() error {
	return nil
}

// ==============================================================================
//                                 SHARD MAPS
// ==============================================================================

func (q *MemQDB) ListShardMaps(_ context.Context) ([]*ShardMap, error) {
	spqrlog.Zero.Debug().Msg("memqdb: list shard maps")
	q.mu.RLock()
	defer q.mu.RUnlock()

	ret := make([]*ShardMap, 0, len(q.ShardMaps))
	for _, sm := range q.ShardMaps {
		cp := *sm
		ret = append(ret, &cp)
	}

	sort.Slice(ret, func(i, j int) bool {
		return ret[i].Name < ret[j].Name
	})

	return ret, nil
}

func (q *MemQDB) CreateShardMap(_ context.Context, name string, keyType string) (*ShardMap, error) {
	spqrlog.Zero.Debug().
		Str("name", name).
		Str("key-type", keyType).
		Msg("memqdb: create shard map")
	q.mu.Lock()
	defer q.mu.Unlock()

	if _, ok := q.ShardMaps[name]; ok {
		return nil, spqrerror.Newf(spqrerror.SPQR_OBJECT_EXISTS, "shard map \"%s\" already exists", name)
	}

	sm := NewShardMap(uuid.NewString(), name, keyType)
	if err := ExecuteCommands(q.DumpState, NewUpdateCommand(q.ShardMaps, name, sm)); err != nil {
		return nil, err
	}

	cp := *sm
	return &cp, nil
}

func (q *MemQDB) DeleteShardMap(_ context.Context, shardMap *ShardMap) error {
	spqrlog.Zero.Debug().
		Str("name", shardMap.Name).
		Msg("memqdb: delete shard map")
	q.mu.Lock()
	defer q.mu.Unlock()

	stored, ok := q.ShardMaps[shardMap.Name]
	if !ok {
		return spqrerror.Newf(spqrerror.SPQR_OBJECT_NOT_EXIST, "shard map \"%s\" not found", shardMap.Name)
	}
	for _, sh := range q.Shards {
		if sh.ShardMapID == stored.ID {
			return spqrerror.Newf(spqrerror.SPQR_SHARDMAP_NOT_EMPTY,
				"shard map \"%s\" still has shards, delete them first", shardMap.Name)
		}
	}

	return ExecuteCommands(q.DumpState, NewDeleteCommand(q.ShardMaps, shardMap.Name))
}

func (q *MemQDB) GetShardMap(_ context.Context, name string) (*ShardMap, error) {
	spqrlog.Zero.Debug().Str("name", name).Msg("memqdb: get shard map")
	q.mu.RLock()
	defer q.mu.RUnlock()

	sm, ok := q.ShardMaps[name]
	if !ok {
		return nil, spqrerror.Newf(spqrerror.SPQR_OBJECT_NOT_EXIST, "shard map \"%s\" not found", name)
	}
	cp := *sm
	return &cp, nil
}

// ==============================================================================
//                                   SHARDS
// ==============================================================================

func (q *MemQDB) checkShardMap(shardMap *ShardMap) error {
	stored, ok := q.ShardMaps[shardMap.Name]
	if !ok || stored.ID != shardMap.ID {
		return spqrerror.Newf(spqrerror.SPQR_OBJECT_NOT_EXIST, "shard map \"%s\" not found", shardMap.Name)
	}
	return nil
}

func (q *MemQDB) ListShards(_ context.Context, shardMap *ShardMap) ([]*Shard, error) {
	spqrlog.Zero.Debug().Str("shard-map", shardMap.Name).Msg("memqdb: list shards")
	q.mu.RLock()
	defer q.mu.RUnlock()

	if err := q.checkShardMap(shardMap); err != nil {
		return nil, err
	}

	var ret []*Shard
	for _, sh := range q.Shards {
		if sh.ShardMapID != shardMap.ID {
			continue
		}
		cp := *sh
		ret = append(ret, &cp)
	}

	sort.Slice(ret, func(i, j int) bool {
		if ret[i].Location.Database != ret[j].Location.Database {
			return ret[i].Location.Database < ret[j].Location.Database
		}
		return ret[i].Location.Server < ret[j].Location.Server
	})

	return ret, nil
}

func (q *MemQDB) CreateShard(_ context.Context, shardMap *ShardMap, loc ShardLocation) (*Shard, error) {
	spqrlog.Zero.Debug().
		Str("shard-map", shardMap.Name).
		Str("location", loc.String()).
		Msg("memqdb: create shard")
	q.mu.Lock()
	defer q.mu.Unlock()

	if err := q.checkShardMap(shardMap); err != nil {
		return nil, err
	}
	for _, sh := range q.Shards {
		if sh.ShardMapID == shardMap.ID && sh.Location == loc {
			return nil, spqrerror.Newf(spqrerror.SPQR_OBJECT_EXISTS,
				"shard %s already exists in shard map \"%s\"", loc, shardMap.Name)
		}
	}

	sh := NewShard(uuid.NewString(), shardMap.ID, loc)
	if err := ExecuteCommands(q.DumpState, NewUpdateCommand(q.Shards, sh.ID, sh)); err != nil {
		return nil, err
	}

	cp := *sh
	return &cp, nil
}

func (q *MemQDB) DeleteShard(_ context.Context, shardMap *ShardMap, shard *Shard) error {
	spqrlog.Zero.Debug().
		Str("shard-map", shardMap.Name).
		Str("id", shard.ID).
		Msg("memqdb: delete shard")
	q.mu.Lock()
	defer q.mu.Unlock()

	if err := q.checkShardMap(shardMap); err != nil {
		return err
	}
	stored, ok := q.Shards[shard.ID]
	if !ok || stored.ShardMapID != shardMap.ID {
		return spqrerror.Newf(spqrerror.SPQR_OBJECT_NOT_EXIST,
			"shard %s not found in shard map \"%s\"", shard.Location, shardMap.Name)
	}

	return ExecuteCommands(q.DumpState, NewDeleteCommand(q.Shards, shard.ID))
}
