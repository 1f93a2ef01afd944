package qdb_test

import (
	"context"
	"path/filepath"
	"sync"
	"testing"

	"github.com/pg-sharding/shardmapctl/pkg/models/spqrerror"
	"github.com/pg-sharding/shardmapctl/qdb"
	"github.com/stretchr/testify/assert"
)

const MemQDBPath = ""

func TestMemQDBShardMapLifecycle(t *testing.T) {
	assert := assert.New(t)
	ctx := context.Background()

	memqdb, err := qdb.RestoreQDB(MemQDBPath)
	assert.NoError(err)

	sm, err := memqdb.CreateShardMap(ctx, "orders", qdb.KeyTypeInteger)
	assert.NoError(err)
	assert.NotEmpty(sm.ID)
	assert.Equal("orders", sm.Name)
	assert.Equal(qdb.KeyTypeInteger, sm.KeyType)

	_, err = memqdb.CreateShardMap(ctx, "orders", qdb.KeyTypeInteger)
	assert.True(spqrerror.HasCode(err, spqrerror.SPQR_OBJECT_EXISTS))

	got, err := memqdb.GetShardMap(ctx, "orders")
	assert.NoError(err)
	assert.Equal(sm, got)

	_, err = memqdb.GetShardMap(ctx, "missing")
	assert.ErrorIs(err, spqrerror.ErrNotFound)

	assert.NoError(memqdb.DeleteShardMap(ctx, sm))

	maps, err := memqdb.ListShardMaps(ctx)
	assert.NoError(err)
	assert.Empty(maps)

	assert.ErrorIs(memqdb.DeleteShardMap(ctx, sm), spqrerror.ErrNotFound)
}

func TestMemQDBListShardMapsSorted(t *testing.T) {
	assert := assert.New(t)
	ctx := context.Background()

	memqdb, err := qdb.NewMemQDB(MemQDBPath)
	assert.NoError(err)

	for _, name := range []string{"b", "c", "a"} {
		_, err := memqdb.CreateShardMap(ctx, name, qdb.KeyTypeInteger)
		assert.NoError(err)
	}

	maps, err := memqdb.ListShardMaps(ctx)
	assert.NoError(err)
	assert.Len(maps, 3)
	assert.Equal("a", maps[0].Name)
	assert.Equal("b", maps[1].Name)
	assert.Equal("c", maps[2].Name)
}

func TestMemQDBShardLifecycle(t *testing.T) {
	assert := assert.New(t)
	ctx := context.Background()

	memqdb, err := qdb.NewMemQDB(MemQDBPath)
	assert.NoError(err)

	sm, err := memqdb.CreateShardMap(ctx, "orders", qdb.KeyTypeInteger)
	assert.NoError(err)
	other, err := memqdb.CreateShardMap(ctx, "users", qdb.KeyTypeInteger)
	assert.NoError(err)

	loc := qdb.ShardLocation{Server: "srv1", Database: "db1"}
	sh, err := memqdb.CreateShard(ctx, sm, loc)
	assert.NoError(err)
	assert.Equal(sm.ID, sh.ShardMapID)
	assert.Equal(loc, sh.Location)

	_, err = memqdb.CreateShard(ctx, sm, loc)
	assert.True(spqrerror.HasCode(err, spqrerror.SPQR_OBJECT_EXISTS))

	_, err = memqdb.CreateShard(ctx, other, loc)
	assert.NoError(err)

	shards, err := memqdb.ListShards(ctx, sm)
	assert.NoError(err)
	assert.Len(shards, 1)

	err = memqdb.DeleteShardMap(ctx, sm)
	assert.True(spqrerror.HasCode(err, spqrerror.SPQR_SHARDMAP_NOT_EMPTY))

	assert.NoError(memqdb.DeleteShard(ctx, sm, sh))
	assert.ErrorIs(memqdb.DeleteShard(ctx, sm, sh), spqrerror.ErrNotFound)

	assert.NoError(memqdb.DeleteShardMap(ctx, sm))

	_, err = memqdb.ListShards(ctx, sm)
	assert.ErrorIs(err, spqrerror.ErrNotFound)
}

func TestMemQDBBackupRoundTrip(t *testing.T) {
	assert := assert.New(t)
	ctx := context.Background()

	path := filepath.Join(t.TempDir(), "memqdb.json")

	memqdb, err := qdb.RestoreQDB(path)
	assert.NoError(err)

	sm, err := memqdb.CreateShardMap(ctx, "orders", qdb.KeyTypeUUID)
	assert.NoError(err)
	_, err = memqdb.CreateShard(ctx, sm, qdb.ShardLocation{Server: "srv1", Database: "db1"})
	assert.NoError(err)

	restored, err := qdb.RestoreQDB(path)
	assert.NoError(err)

	got, err := restored.GetShardMap(ctx, "orders")
	assert.NoError(err)
	assert.Equal(sm, got)

	shards, err := restored.ListShards(ctx, got)
	assert.NoError(err)
	assert.Len(shards, 1)
	assert.Equal("db1", shards[0].Location.Database)
}

// must run with -race
func TestMemqdbRacing(t *testing.T) {
	assert := assert.New(t)
	ctx := context.TODO()

	memqdb, err := qdb.RestoreQDB(MemQDBPath)
	assert.NoError(err)

	sm, err := memqdb.CreateShardMap(ctx, "orders", qdb.KeyTypeInteger)
	assert.NoError(err)
	loc := qdb.ShardLocation{Server: "srv1", Database: "db1"}

	var wg sync.WaitGroup
	methods := []func(){
		func() { _, _ = memqdb.CreateShardMap(ctx, "users", qdb.KeyTypeInteger) },
		func() { _, _ = memqdb.ListShardMaps(ctx) },
		func() { _, _ = memqdb.GetShardMap(ctx, "orders") },
		func() { _, _ = memqdb.CreateShard(ctx, sm, loc) },
		func() { _, _ = memqdb.ListShards(ctx, sm) },
		func() {
			shards, _ := memqdb.ListShards(ctx, sm)
			for _, sh := range shards {
				_ = memqdb.DeleteShard(ctx, sm, sh)
			}
		},
	}
	for i := 0; i < 10; i++ {
		for _, m := range methods {
			wg.Add(1)
			go func(m func()) {
				m()
				wg.Done()
			}(m)
		}
		wg.Wait()
	}
}
