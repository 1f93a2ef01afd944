package shards

import (
	"fmt"

	"github.com/pg-sharding/shardmapctl/qdb"
)

// Location names one physical database.
type Location struct {
	Server   string
	Database string
}

func (l Location) String() string {
	return fmt.Sprintf("[%s].[%s]", l.Server, l.Database)
}

type Shard struct {
	ID           string
	ShardMapID   string
	ShardMapName string
	Location     Location
}

func NewShard(shardMapName string, loc Location) *Shard {
	return &Shard{
		ShardMapName: shardMapName,
		Location:     loc,
	}
}

func LocationToDB(loc Location) qdb.ShardLocation {
	return qdb.ShardLocation{
		Server:   loc.Server,
		Database: loc.Database,
	}
}

// ShardFromDB converts a stored shard. The store does not keep the map name next to
// each shard, so the caller supplies it.
func ShardFromDB(sh *qdb.Shard, shardMapName string) *Shard {
	return &Shard{
		ID:           sh.ID,
		ShardMapID:   sh.ShardMapID,
		ShardMapName: shardMapName,
		Location: Location{
			Server:   sh.Location.Server,
			Database: sh.Location.Database,
		},
	}
}

func ShardToDB(sh *Shard) *qdb.Shard {
	return qdb.NewShard(sh.ID, sh.ShardMapID, LocationToDB(sh.Location))
}
