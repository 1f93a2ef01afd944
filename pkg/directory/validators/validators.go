package directory_validators

import (
	"strings"
	"unicode/utf8"

	"github.com/pg-sharding/shardmapctl/pkg/models/spqrerror"
)

const (
	MaxShardMapNameLength = 128
	MaxDatabaseNameLength = 128
	MaxServerNameLength   = 256
)

func validateIdentifier(kind, value string, maxLen int) error {
	if strings.TrimSpace(value) == "" {
		return spqrerror.Newf(spqrerror.SPQR_INVALID_REQUEST, "%s must not be empty", kind)
	}
	if value != strings.TrimSpace(value) {
		return spqrerror.Newf(spqrerror.SPQR_INVALID_REQUEST, "%s \"%s\" has leading or trailing blanks", kind, value)
	}
	if n := utf8.RuneCountInString(value); n > maxLen {
		return spqrerror.Newf(spqrerror.SPQR_INVALID_REQUEST, "%s is %d characters long, the limit is %d", kind, n, maxLen)
	}
	if strings.ContainsAny(value, "\x00\r\n") {
		return spqrerror.Newf(spqrerror.SPQR_INVALID_REQUEST, "%s \"%s\" contains control characters", kind, value)
	}
	if value == "." || value == ".." {
		return spqrerror.Newf(spqrerror.SPQR_INVALID_REQUEST, "%s must not be \"%s\"", kind, value)
	}
	if strings.Contains(value, "/") {
		return spqrerror.Newf(spqrerror.SPQR_INVALID_REQUEST, "%s \"%s\" must not contain '/'", kind, value)
	}
	return nil
}

// ValidateShardMapName validates a shard map name before it reaches the store
//
// Parameters:
// - name: the shard map name typed by the operator
//
// Returns:
// - error: an SPQR_INVALID_REQUEST error if validation is not passed
func ValidateShardMapName(name string) error {
	return validateIdentifier("shard map name", name, MaxShardMapNameLength)
}

func ValidateDatabaseName(database string) error {
	return validateIdentifier("database name", database, MaxDatabaseNameLength)
}

func ValidateServerName(server string) error {
	return validateIdentifier("server name", server, MaxServerNameLength)
}
