package directory_test

import (
	"context"
	"testing"

	"github.com/pg-sharding/shardmapctl/pkg/directory"
	"github.com/pg-sharding/shardmapctl/pkg/models/shardmaps"
	"github.com/pg-sharding/shardmapctl/pkg/models/spqrerror"
	"github.com/pg-sharding/shardmapctl/qdb"
	mockqdb "github.com/pg-sharding/shardmapctl/qdb/mock"
	"github.com/stretchr/testify/assert"
	testifyassert "github.com/stretchr/testify/assert"
	"go.uber.org/mock/gomock"
)

func newShardRegistry(t *testing.T, mapName string) (*directory.ShardRegistry, *qdb.MemQDB) {
	t.Helper()

	memqdb, err := qdb.RestoreQDB(MemQDBPath)
	assert.NoError(t, err)

	sm, _, err := directory.NewShardMapRegistry(memqdb, shardmaps.KeyTypeInteger).CreateShardMapIfAbsent(context.Background(), mapName)
	assert.NoError(t, err)
	return directory.NewShardRegistry(memqdb, sm), memqdb
}

func TestCreateShardIfAbsentIsIdempotent(t *testing.T) {
	assert := assert.New(t)
	ctx := context.Background()
	registry, _ := newShardRegistry(t, "A")

	created, err := registry.CreateShardIfAbsent(ctx, "db1", "srv1")
	assert.NoError(err)
	assert.True(created)

	created, err = registry.CreateShardIfAbsent(ctx, "db1", "srv1")
	assert.NoError(err)
	assert.False(created)

	list, err := registry.ListShards(ctx)
	assert.NoError(err)
	assert.Len(list, 1)
	assert.Equal("db1", list[0].Location.Database)
	assert.Equal("srv1", list[0].Location.Server)
	assert.Equal("A", list[0].ShardMapName)
}

func TestCreateShardMatchesByDatabaseNameOnly(t *testing.T) {
	assert := assert.New(t)
	ctx := context.Background()
	registry, _ := newShardRegistry(t, "A")

	_, err := registry.CreateShardIfAbsent(ctx, "db1", "srv1")
	assert.NoError(err)

	created, err := registry.CreateShardIfAbsent(ctx, "db1", "srv2")
	assert.NoError(err)
	assert.False(created)

	list, err := registry.ListShards(ctx)
	assert.NoError(err)
	assert.Len(list, 1)
	assert.Equal("srv1", list[0].Location.Server)
}

func TestCreateShardRequiresServer(t *testing.T) {
	ctrl := gomock.NewController(t)
	t.Cleanup(ctrl.Finish)

	db := mockqdb.NewMockQDB(ctrl)
	registry := directory.NewShardRegistry(db, &shardmaps.ShardMap{ID: "id-a", Name: "A"})

	created, err := registry.CreateShardIfAbsent(context.Background(), "db1", "")
	assert.ErrorIs(t, err, spqrerror.ErrInput)
	assert.False(t, created)
}

func TestDeleteShardIfPresentNoop(t *testing.T) {
	assert := assert.New(t)
	ctx := context.Background()
	registry, _ := newShardRegistry(t, "A")

	_, err := registry.CreateShardIfAbsent(ctx, "db1", "srv1")
	assert.NoError(err)

	deleted, err := registry.DeleteShardIfPresent(ctx, "db")
	assert.NoError(err)
	assert.False(deleted)

	list, err := registry.ListShards(ctx)
	assert.NoError(err)
	assert.Len(list, 1)
}

func TestDeleteShardIfPresent(t *testing.T) {
	assert := assert.New(t)
	ctx := context.Background()
	registry, _ := newShardRegistry(t, "A")

	_, err := registry.CreateShardIfAbsent(ctx, "db1", "srv1")
	assert.NoError(err)
	_, err = registry.CreateShardIfAbsent(ctx, "db2", "srv1")
	assert.NoError(err)

	deleted, err := registry.DeleteShardIfPresent(ctx, "db1")
	assert.NoError(err)
	assert.True(deleted)

	list, err := registry.ListShards(ctx)
	assert.NoError(err)
	assert.Len(list, 1)
	assert.Equal("db2", list[0].Location.Database)
}

func TestDeleteShardDeletesFirstMatch(t *testing.T) {
	ctrl := gomock.NewController(t)
	t.Cleanup(ctrl.Finish)

	ctx := context.Background()
	db := mockqdb.NewMockQDB(ctrl)
	sm := &shardmaps.ShardMap{ID: "id-a", Name: "A", KeyType: shardmaps.KeyTypeInteger}
	registry := directory.NewShardRegistry(db, sm)

	first := qdb.NewShard("sh1", "id-a", qdb.ShardLocation{Server: "srv1", Database: "db1"})
	second := qdb.NewShard("sh2", "id-a", qdb.ShardLocation{Server: "srv2", Database: "db1"})

	db.EXPECT().ListShards(ctx, shardmaps.ShardMapToDB(sm)).Return([]*qdb.Shard{first, second}, nil)
	db.EXPECT().DeleteShard(ctx, shardmaps.ShardMapToDB(sm), first).Return(nil)

	deleted, err := registry.DeleteShardIfPresent(ctx, "db1")
	assert.NoError(t, err)
	assert.True(t, deleted)
}

func TestShardStoreFailuresAreWrapped(t *testing.T) {
	assert := assert.New(t)

	ctrl := gomock.NewController(t)
	t.Cleanup(ctrl.Finish)

	ctx := context.Background()
	db := mockqdb.NewMockQDB(ctrl)
	sm := &shardmaps.ShardMap{ID: "id-a", Name: "A", KeyType: shardmaps.KeyTypeInteger}
	registry := directory.NewShardRegistry(db, sm)

	db.EXPECT().ListShards(ctx, gomock.Any()).Return(nil, nil)
	db.EXPECT().CreateShard(ctx, shardmaps.ShardMapToDB(sm), qdb.ShardLocation{Server: "srv1", Database: "db1"}).
		Return(nil, testifyassert.AnError)

	created, err := registry.CreateShardIfAbsent(ctx, "db1", "srv1")
	assert.False(created)
	assert.ErrorIs(err, spqrerror.ErrStore)
	assert.ErrorIs(err, testifyassert.AnError)
}
