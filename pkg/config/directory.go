package config

import (
	"encoding/json"
	"fmt"
	"net/url"
	"os"
	"strconv"
	"time"

	"github.com/pg-sharding/shardmapctl/pkg/models/shardmaps"
	"github.com/pg-sharding/shardmapctl/pkg/models/spqrerror"
	"github.com/pg-sharding/shardmapctl/pkg/spqrlog"
	"github.com/pg-sharding/shardmapctl/qdb"
)

// Environment variables read on top of the configuration file.
const (
	EnvServer   = "ShardMapDatabaseServer"
	EnvUser     = "ShardMapDatabaseUser"
	EnvPassword = "ShardMapDatabasePassword"
	EnvDatabase = "ShardMapDatabaseName"
)

const (
	DefaultLogLevel       = "info"
	DefaultSSLMode        = "require"
	DefaultConnectRetries = 5
	DefaultConnectTimeout = 30 * time.Second
)

type Directory struct {
	LogLevel      string `json:"log_level" toml:"log_level" yaml:"log_level"`
	LogFile       string `json:"log_file" toml:"log_file" yaml:"log_file"`
	PrettyLogging bool   `json:"pretty_logging" toml:"pretty_logging" yaml:"pretty_logging"`

	StoreType      string   `json:"store_type" toml:"store_type" yaml:"store_type"`
	StoreEndpoints []string `json:"store_endpoints" toml:"store_endpoints" yaml:"store_endpoints"`
	StoreRoot      string   `json:"store_root" toml:"store_root" yaml:"store_root"`
	SQLDriver      string   `json:"sql_driver" toml:"sql_driver" yaml:"sql_driver"`
	MemBackupPath  string   `json:"mem_backup_path" toml:"mem_backup_path" yaml:"mem_backup_path"`

	Server   string `json:"server" toml:"server" yaml:"server"`
	Database string `json:"database" toml:"database" yaml:"database"`
	User     string `json:"user" toml:"user" yaml:"user"`
	Password string `json:"password" toml:"password" yaml:"password"`
	SSLMode  string `json:"ssl_mode" toml:"ssl_mode" yaml:"ssl_mode"`

	KeyType string `json:"key_type" toml:"key_type" yaml:"key_type"`

	ConnectRetries uint64        `json:"connect_retries" toml:"connect_retries" yaml:"connect_retries"`
	ConnectTimeout time.Duration `json:"connect_timeout" toml:"connect_timeout" yaml:"connect_timeout"`
}

// LoadDirectoryCfg loads the configuration from cfgPath, overlays the environment and
// fills defaults. An empty cfgPath skips the file.
//
// Parameters:
//   - cfgPath (string): The path of the configuration file.
//
// Returns:
//   - *Directory: the loaded configuration. It is not validated.
//   - error: An error if any occurred during the loading process.
func LoadDirectoryCfg(cfgPath string) (*Directory, error) {
	cfg := &Directory{}

	if cfgPath != "" {
		file, err := os.Open(cfgPath)
		if err != nil {
			return nil, spqrerror.Wrap(spqrerror.SPQR_CONFIG_ERROR, err, "failed to open config file")
		}
		defer func(file *os.File) {
			if err := file.Close(); err != nil {
				spqrlog.Zero.Error().Err(err).Msg("failed to close config file")
			}
		}(file)

		if err := initConfig(file, cfg); err != nil {
			return nil, spqrerror.Wrapf(spqrerror.SPQR_CONFIG_ERROR, err, "failed to decode %s", cfgPath)
		}
	}

	cfg.ApplyEnv(os.LookupEnv)
	cfg.ApplyDefaults()
	return cfg, nil
}

// ApplyEnv overrides connection parameters with the environment variables that are set.
func (d *Directory) ApplyEnv(lookup func(string) (string, bool)) {
	for env, field := range map[string]*string{
		EnvServer:   &d.Server,
		EnvUser:     &d.User,
		EnvPassword: &d.Password,
		EnvDatabase: &d.Database,
	} {
		if v, ok := lookup(env); ok && v != "" {
			*field = v
		}
	}
}

func (d *Directory) ApplyDefaults() {
	if d.LogLevel == "" {
		d.LogLevel = DefaultLogLevel
	}
	if d.StoreType == "" {
		d.StoreType = qdb.StoreTypeMem
	}
	if d.StoreRoot == "" {
		d.StoreRoot = qdb.DefaultRoot
	}
	if d.SQLDriver == "" {
		d.SQLDriver = qdb.SQLDriverPgx
	}
	if d.SSLMode == "" {
		d.SSLMode = DefaultSSLMode
	}
	if d.KeyType == "" {
		d.KeyType = string(shardmaps.DefaultKeyType)
	}
	if d.ConnectRetries == 0 {
		d.ConnectRetries = DefaultConnectRetries
	}
	if d.ConnectTimeout == 0 {
		d.ConnectTimeout = DefaultConnectTimeout
	}
}

func missing(param, env string) error {
	return spqrerror.Newf(spqrerror.SPQR_CONFIG_ERROR, "missing configuration parameter %s (environment variable %s)", param, env)
}

// Validate reports the first missing or malformed parameter as a configuration error.
func (d *Directory) Validate() error {
	if d.Server == "" {
		return missing("server", EnvServer)
	}
	if _, err := shardmaps.ParseKeyType(d.KeyType); err != nil {
		return err
	}

	switch d.StoreType {
	case qdb.StoreTypeMem:
	case qdb.StoreTypeEtcd, qdb.StoreTypeZK:
		if len(d.StoreEndpoints) == 0 {
			return spqrerror.Newf(spqrerror.SPQR_CONFIG_ERROR, "store_endpoints must be set for %s store", d.StoreType)
		}
	case qdb.StoreTypeSQL:
		if d.Database == "" {
			return missing("database", EnvDatabase)
		}
		switch d.SQLDriver {
		case qdb.SQLDriverSQLite:
		case qdb.SQLDriverPgx, qdb.SQLDriverPostgres:
			if d.User == "" {
				return missing("user", EnvUser)
			}
			if d.Password == "" {
				return missing("password", EnvPassword)
			}
		default:
			return spqrerror.Newf(spqrerror.SPQR_CONFIG_ERROR, "unknown sql_driver %s", d.SQLDriver)
		}
	default:
		return spqrerror.Newf(spqrerror.SPQR_CONFIG_ERROR, "unknown store_type %s", d.StoreType)
	}
	return nil
}

// DSN builds the connection string for the sql store. For SQLite the database is a
// file path.
func (d *Directory) DSN() string {
	if d.SQLDriver == qdb.SQLDriverSQLite {
		return d.Database
	}

	q := url.Values{}
	q.Set("sslmode", d.SSLMode)
	if d.ConnectTimeout > 0 {
		q.Set("connect_timeout", strconv.Itoa(int(d.ConnectTimeout.Seconds())))
	}
	u := url.URL{
		Scheme:   "postgres",
		User:     url.UserPassword(d.User, d.Password),
		Host:     d.Server,
		Path:     "/" + d.Database,
		RawQuery: q.Encode(),
	}
	return u.String()
}

// DirectoryName is shown to the operator as the location of the shard directory.
func (d *Directory) DirectoryName() string {
	switch d.StoreType {
	case qdb.StoreTypeSQL:
		return d.Database
	case qdb.StoreTypeEtcd, qdb.StoreTypeZK:
		return d.StoreRoot
	default:
		if d.MemBackupPath != "" {
			return d.MemBackupPath
		}
		return "memory"
	}
}

func (d *Directory) Options() qdb.Options {
	return qdb.Options{
		Type:       d.StoreType,
		Endpoints:  d.StoreEndpoints,
		Root:       d.StoreRoot,
		SQLDriver:  d.SQLDriver,
		DSN:        d.DSN(),
		BackupPath: d.MemBackupPath,
		Retries:    d.ConnectRetries,
	}
}

// String returns the configuration as JSON with the password masked.
func (d *Directory) String() string {
	cp := *d
	if cp.Password != "" {
		cp.Password = "********"
	}
	data, err := json.MarshalIndent(&cp, "", "  ")
	if err != nil {
		return fmt.Sprintf("%+v", cp)
	}
	return string(data)
}
