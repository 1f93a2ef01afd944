package console_test

import (
	"bytes"
	"context"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/pg-sharding/shardmapctl/pkg/console"
	"github.com/pg-sharding/shardmapctl/pkg/models/spqrerror"
	"github.com/stretchr/testify/assert"
)

func runSession(t *testing.T, ctl *console.Controller, lines ...string) string {
	t.Helper()

	var out bytes.Buffer
	in := strings.NewReader(strings.Join(lines, "\n") + "\n")
	assert.NoError(t, console.NewSession(ctl, in, &out).Run(context.Background()))
	return out.String()
}

func TestSessionCreateAndList(t *testing.T) {
	assert := assert.New(t)
	ctx := context.Background()
	ctl, memqdb := newMemController(t)

	out := runSession(t, ctl,
		"2", "orders", "y",
		"1",
		"4", "orders",
		"2", "db1", "", "yes",
		"1",
		"4",
		"5",
	)

	assert.Equal(console.Terminated, ctl.State())
	assert.Contains(out, "Create shard map \"orders\"")
	assert.Contains(out, "Shard map \"orders\" created.")
	assert.Contains(out, "Shard maps in [home-srv].[shard_directory]")
	assert.Contains(out, "Server name (empty for home-srv)")
	assert.Contains(out, "Create shard [home-srv].[db1] in shard map \"orders\"")
	assert.Contains(out, "Shard [home-srv].[db1] created in shard map \"orders\".")
	assert.Contains(out, "db1")

	sm, err := memqdb.GetShardMap(ctx, "orders")
	assert.NoError(err)
	stored, err := memqdb.ListShards(ctx, sm)
	assert.NoError(err)
	assert.Len(stored, 1)
	assert.Equal("home-srv", stored[0].Location.Server)
}

func TestSessionRepromptsOnBadInput(t *testing.T) {
	assert := assert.New(t)
	ctl, _ := newMemController(t)

	out := runSession(t, ctl, "abc", "9", "5")

	assert.Equal(console.Terminated, ctl.State())
	assert.Contains(out, "Invalid input: \"abc\" is not a menu number.")
	assert.Contains(out, "Invalid input: choose a number between 1 and 5.")
	assert.Equal(3, strings.Count(out, "Enter an option"))
}

func TestSessionNotFoundStaysInDirectoryMenu(t *testing.T) {
	assert := assert.New(t)
	ctl, _ := newMemController(t)

	out := runSession(t, ctl, "4", "missing", "5")

	assert.Equal(console.Terminated, ctl.State())
	assert.Contains(out, "Shard map \"missing\" not found.")
}

func TestSessionDeclinedConfirmation(t *testing.T) {
	assert := assert.New(t)
	ctx := context.Background()
	ctl, memqdb := newMemController(t)

	out := runSession(t, ctl, "2", "orders", "n", "5")

	assert.Contains(out, "Cancelled.")
	_, err := memqdb.GetShardMap(ctx, "orders")
	assert.ErrorIs(err, spqrerror.ErrNotFound)
}

func TestSessionEndOfInput(t *testing.T) {
	assert := assert.New(t)
	ctl, _ := newMemController(t)

	var out bytes.Buffer
	err := console.NewSession(ctl, strings.NewReader("2\norders"), &out).Run(context.Background())

	assert.NoError(err)
	assert.Equal(console.DirectoryMenu, ctl.State())
}

func TestSessionCancelledContext(t *testing.T) {
	ctl, _ := newMemController(t)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	var out bytes.Buffer
	err := console.NewSession(ctl, strings.NewReader("1\n"), &out).Run(ctx)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestSessionCancelWhileWaitingForInput(t *testing.T) {
	assert := assert.New(t)
	ctl, memqdb := newMemController(t)

	pr, pw := io.Pipe()
	t.Cleanup(func() { _ = pw.Close() })

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var out bytes.Buffer
	errCh := make(chan error, 1)
	go func() {
		errCh <- console.NewSession(ctl, pr, &out).Run(ctx)
	}()

	_, err := io.WriteString(pw, "2\norders\n")
	assert.NoError(err)
	cancel()

	select {
	case err := <-errCh:
		assert.ErrorIs(err, context.Canceled)
	case <-time.After(5 * time.Second):
		t.Fatal("session did not stop after cancellation")
	}

	_, err = memqdb.GetShardMap(context.Background(), "orders")
	assert.ErrorIs(err, spqrerror.ErrNotFound)
}
