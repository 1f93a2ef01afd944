package shards_test

import (
	"testing"

	"github.com/pg-sharding/shardmapctl/pkg/models/shards"
	"github.com/pg-sharding/shardmapctl/qdb"
	"github.com/stretchr/testify/assert"
)

func TestShardDBConversion(t *testing.T) {
	assert := assert.New(t)

	stored := qdb.NewShard("sh1", "sm1", qdb.ShardLocation{Server: "srv1", Database: "db1"})
	sh := shards.ShardFromDB(stored, "orders")

	assert.Equal("sh1", sh.ID)
	assert.Equal("sm1", sh.ShardMapID)
	assert.Equal("orders", sh.ShardMapName)
	assert.Equal(shards.Location{Server: "srv1", Database: "db1"}, sh.Location)
	assert.Equal(stored, shards.ShardToDB(sh))
}

func TestLocationString(t *testing.T) {
	assert.Equal(t, "[srv1].[db1]", shards.Location{Server: "srv1", Database: "db1"}.String())
}
