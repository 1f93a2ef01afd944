package shardmaps

import (
	"strings"

	"github.com/pg-sharding/shardmapctl/pkg/models/spqrerror"
	"github.com/pg-sharding/shardmapctl/qdb"
)

// KeyType is the logical type of the sharding key a shard map partitions on.
type KeyType string

const (
	KeyTypeInteger   = KeyType(qdb.KeyTypeInteger)
	KeyTypeBigint    = KeyType(qdb.KeyTypeBigint)
	KeyTypeUUID      = KeyType(qdb.KeyTypeUUID)
	KeyTypeVarbinary = KeyType(qdb.KeyTypeVarbinary)
	KeyTypeTimestamp = KeyType(qdb.KeyTypeTimestamp)

	DefaultKeyType = KeyTypeInteger
)

// ParseKeyType accepts a key type name in any case. An empty string gives DefaultKeyType.
func ParseKeyType(s string) (KeyType, error) {
	switch kt := KeyType(strings.ToLower(strings.TrimSpace(s))); kt {
	case "":
		return DefaultKeyType, nil
	case KeyTypeInteger, KeyTypeBigint, KeyTypeUUID, KeyTypeVarbinary, KeyTypeTimestamp:
		return kt, nil
	default:
		return "", spqrerror.Newf(spqrerror.SPQR_CONFIG_ERROR, "unknown shard map key type \"%s\"", s)
	}
}

type ShardMap struct {
	ID      string
	Name    string
	KeyType KeyType
}

func NewShardMap(name string, keyType KeyType) *ShardMap {
	return &ShardMap{
		Name:    name,
		KeyType: keyType,
	}
}

func ShardMapFromDB(sm *qdb.ShardMap) *ShardMap {
	return &ShardMap{
		ID:      sm.ID,
		Name:    sm.Name,
		KeyType: KeyType(sm.KeyType),
	}
}

func ShardMapToDB(sm *ShardMap) *qdb.ShardMap {
	return &qdb.ShardMap{
		ID:      sm.ID,
		Name:    sm.Name,
		KeyType: string(sm.KeyType),
	}
}
