package qdb

import "fmt"

const (
	KeyTypeInteger   = "integer"
	KeyTypeBigint    = "bigint"
	KeyTypeUUID      = "uuid"
	KeyTypeVarbinary = "varbinary"
	KeyTypeTimestamp = "timestamp"
)

type ShardMap struct {
	ID      string `json:"id"`
	Name    string `json:"name"`
	KeyType string `json:"key_type"`
}

func NewShardMap(id, name, keyType string) *ShardMap {
	return &ShardMap{
		ID:      id,
		Name:    name,
		KeyType: keyType,
	}
}

type ShardLocation struct {
	Server   string `json:"server"`
	Database string `json:"database"`
}

func (l ShardLocation) String() string {
	return fmt.Sprintf("[%s].[%s]", l.Server, l.Database)
}

type Shard struct {
	ID         string        `json:"id"`
	ShardMapID string        `json:"shard_map_id"`
	Location   ShardLocation `json:"location"`
}

func NewShard(id, shardMapID string, loc ShardLocation) *Shard {
	return &Shard{
		ID:         id,
		ShardMapID: shardMapID,
		Location:   loc,
	}
}
