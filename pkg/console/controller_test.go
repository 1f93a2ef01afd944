package console_test

import (
	"context"
	"testing"

	"github.com/pg-sharding/shardmapctl/pkg/console"
	"github.com/pg-sharding/shardmapctl/pkg/directory"
	"github.com/pg-sharding/shardmapctl/pkg/models/shardmaps"
	"github.com/pg-sharding/shardmapctl/pkg/models/shards"
	"github.com/pg-sharding/shardmapctl/pkg/models/spqrerror"
	"github.com/pg-sharding/shardmapctl/qdb"
	mockqdb "github.com/pg-sharding/shardmapctl/qdb/mock"
	"github.com/stretchr/testify/assert"
	"go.uber.org/mock/gomock"
)

var testConfig = console.Config{
	HomeServer:        "home-srv",
	DirectoryDatabase: "shard_directory",
}

func newController(db qdb.QDB) *console.Controller {
	return console.NewController(
		testConfig,
		directory.NewShardMapRegistry(db, shardmaps.KeyTypeInteger),
		func(sm *shardmaps.ShardMap) shards.ShardMgr {
			return directory.NewShardRegistry(db, sm)
		},
	)
}

func newMemController(t *testing.T) (*console.Controller, *qdb.MemQDB) {
	t.Helper()

	memqdb, err := qdb.RestoreQDB("")
	assert.NoError(t, err)
	return newController(memqdb), memqdb
}

func TestChoose(t *testing.T) {
	assert := assert.New(t)
	ctl, _ := newMemController(t)

	for i, c := range []struct {
		input    string
		expected console.ActionKind
		err      bool
	}{
		{input: "1", expected: console.ActionList},
		{input: " 2 ", expected: console.ActionCreateMap},
		{input: "3", expected: console.ActionDeleteMap},
		{input: "4", expected: console.ActionSelectMap},
		{input: "5", expected: console.ActionQuit},
		{input: "0", err: true},
		{input: "6", err: true},
		{input: "", err: true},
		{input: "quit", err: true},
	} {
		kind, err := ctl.Choose(c.input)
		if c.err {
			assert.ErrorIs(err, spqrerror.ErrInput, "case #%d", i)
			continue
		}
		assert.NoError(err, "case #%d", i)
		assert.Equal(c.expected, kind, "case #%d", i)
	}
	assert.Equal(console.DirectoryMenu, ctl.State())
}

func TestIsAffirmative(t *testing.T) {
	assert := assert.New(t)

	for _, tok := range []string{"y", "Y", "yes", " YES ", "Yes"} {
		assert.True(console.IsAffirmative(tok), tok)
	}
	for _, tok := range []string{"", "n", "no", "yep", "1", "true"} {
		assert.False(console.IsAffirmative(tok), tok)
	}
}

func TestSelectMapTransitions(t *testing.T) {
	assert := assert.New(t)
	ctx := context.Background()
	ctl, _ := newMemController(t)

	for _, name := range []string{"A", "B"} {
		_, err := ctl.Apply(ctx, console.Action{Kind: console.ActionCreateMap, Name: name, Confirmation: "y"})
		assert.NoError(err)
	}

	_, err := ctl.Apply(ctx, console.Action{Kind: console.ActionSelectMap, Name: "C"})
	assert.ErrorIs(err, spqrerror.ErrNotFound)
	assert.Equal(console.DirectoryMenu, ctl.State())
	assert.Nil(ctl.CurrentShardMap())

	out, err := ctl.Apply(ctx, console.Action{Kind: console.ActionSelectMap, Name: "A"})
	assert.NoError(err)
	assert.Equal("A", out.ShardMap.Name)
	assert.Equal(console.ShardMenu, ctl.State())
	assert.Equal("A", ctl.CurrentShardMap().Name)

	kind, err := ctl.Choose("4")
	assert.NoError(err)
	assert.Equal(console.ActionBack, kind)

	_, err = ctl.Choose("5")
	assert.ErrorIs(err, spqrerror.ErrInput)

	_, err = ctl.Apply(ctx, console.Action{Kind: console.ActionQuit})
	assert.ErrorIs(err, spqrerror.ErrInput)
	assert.Equal(console.ShardMenu, ctl.State())

	_, err = ctl.Apply(ctx, console.Action{Kind: console.ActionBack})
	assert.NoError(err)
	assert.Equal(console.DirectoryMenu, ctl.State())

	_, err = ctl.Apply(ctx, console.Action{Kind: console.ActionQuit})
	assert.NoError(err)
	assert.Equal(console.Terminated, ctl.State())

	_, err = ctl.Choose("1")
	assert.ErrorIs(err, spqrerror.ErrInput)
}

func TestShardMenuActions(t *testing.T) {
	assert := assert.New(t)
	ctx := context.Background()
	ctl, memqdb := newMemController(t)

	_, err := ctl.Apply(ctx, console.Action{Kind: console.ActionCreateMap, Name: "A", Confirmation: "yes"})
	assert.NoError(err)
	_, err = ctl.Apply(ctx, console.Action{Kind: console.ActionSelectMap, Name: "A"})
	assert.NoError(err)

	out, err := ctl.Apply(ctx, console.Action{Kind: console.ActionCreateShard, Name: "db1", Confirmation: "y"})
	assert.NoError(err)
	assert.True(out.Changed)
	assert.Equal("[home-srv].[db1]", out.Target)

	out, err = ctl.Apply(ctx, console.Action{Kind: console.ActionCreateShard, Name: "db1", Server: "srv2", Confirmation: "y"})
	assert.NoError(err)
	assert.False(out.Changed)

	out, err = ctl.Apply(ctx, console.Action{Kind: console.ActionList})
	assert.NoError(err)
	assert.Len(out.Shards, 1)
	assert.Equal("home-srv", out.Shards[0].Location.Server)

	out, err = ctl.Apply(ctx, console.Action{Kind: console.ActionDeleteShard, Name: "db1", Confirmation: "Y"})
	assert.NoError(err)
	assert.True(out.Changed)

	sm, err := memqdb.GetShardMap(ctx, "A")
	assert.NoError(err)
	stored, err := memqdb.ListShards(ctx, sm)
	assert.NoError(err)
	assert.Empty(stored)
}

func TestPrepareFillsHomeServer(t *testing.T) {
	assert := assert.New(t)
	ctl, _ := newMemController(t)

	a := ctl.Prepare(console.Action{Kind: console.ActionCreateShard, Name: " db1 ", Server: "  "})
	assert.Equal("db1", a.Name)
	assert.Equal("home-srv", a.Server)

	a = ctl.Prepare(console.Action{Kind: console.ActionCreateShard, Name: "db1", Server: "srv2"})
	assert.Equal("srv2", a.Server)

	a = ctl.Prepare(console.Action{Kind: console.ActionDeleteShard, Name: "db1"})
	assert.Equal("", a.Server)
}

func TestDeleteAndSelectMatchNamesExactly(t *testing.T) {
	assert := assert.New(t)
	ctx := context.Background()
	ctl, memqdb := newMemController(t)

	out, err := ctl.Apply(ctx, console.Action{Kind: console.ActionCreateMap, Name: " M ", Confirmation: "y"})
	assert.NoError(err)
	assert.True(out.Changed)
	assert.Equal("M", out.Target)

	a := ctl.Prepare(console.Action{Kind: console.ActionDeleteMap, Name: " M "})
	assert.Equal(" M ", a.Name)

	out, err = ctl.Apply(ctx, console.Action{Kind: console.ActionDeleteMap, Name: " M ", Confirmation: "y"})
	assert.NoError(err)
	assert.False(out.Changed)

	_, err = ctl.Apply(ctx, console.Action{Kind: console.ActionSelectMap, Name: " M "})
	assert.ErrorIs(err, spqrerror.ErrNotFound)
	assert.Equal(console.DirectoryMenu, ctl.State())

	_, err = memqdb.GetShardMap(ctx, "M")
	assert.NoError(err)
}

func TestDescribe(t *testing.T) {
	assert := assert.New(t)
	ctl, _ := newMemController(t)

	assert.Equal("Create shard map \"orders\"",
		ctl.Describe(console.Action{Kind: console.ActionCreateMap, Name: "orders"}))
	assert.Equal("Delete shard map \"orders\"",
		ctl.Describe(console.Action{Kind: console.ActionDeleteMap, Name: "orders"}))
}

func TestUnconfirmedActionsMakeNoStoreCalls(t *testing.T) {
	ctx := context.Background()

	for _, tok := range []string{"", "n", "no", "maybe"} {
		ctrl := gomock.NewController(t)
		db := mockqdb.NewMockQDB(ctrl)
		ctl := newController(db)

		for _, kind := range []console.ActionKind{console.ActionCreateMap, console.ActionDeleteMap} {
			out, err := ctl.Apply(ctx, console.Action{Kind: kind, Name: "M", Confirmation: tok})
			assert.NoError(t, err)
			assert.True(t, out.Aborted)
			assert.False(t, out.Changed)
		}
		assert.Equal(t, console.DirectoryMenu, ctl.State())
		ctrl.Finish()
	}
}

func TestUnconfirmedShardActionsMakeNoStoreCalls(t *testing.T) {
	ctrl := gomock.NewController(t)
	t.Cleanup(ctrl.Finish)

	ctx := context.Background()
	db := mockqdb.NewMockQDB(ctrl)
	ctl := newController(db)

	stored := qdb.NewShardMap("id-a", "A", qdb.KeyTypeInteger)
	db.EXPECT().GetShardMap(ctx, "A").Return(stored, nil)

	_, err := ctl.Apply(ctx, console.Action{Kind: console.ActionSelectMap, Name: "A"})
	assert.NoError(t, err)

	for _, kind := range []console.ActionKind{console.ActionCreateShard, console.ActionDeleteShard} {
		out, err := ctl.Apply(ctx, console.Action{Kind: kind, Name: "db1", Server: "srv1", Confirmation: "n"})
		assert.NoError(t, err)
		assert.True(t, out.Aborted)
	}
	assert.Equal(t, console.ShardMenu, ctl.State())
}

func TestStoreErrorKeepsState(t *testing.T) {
	ctrl := gomock.NewController(t)
	t.Cleanup(ctrl.Finish)

	ctx := context.Background()
	db := mockqdb.NewMockQDB(ctrl)
	ctl := newController(db)

	db.EXPECT().GetShardMap(ctx, "A").Return(nil, assert.AnError)

	_, err := ctl.Apply(ctx, console.Action{Kind: console.ActionSelectMap, Name: "A"})
	assert.ErrorIs(t, err, spqrerror.ErrStore)
	assert.Equal(t, console.DirectoryMenu, ctl.State())
}
