package qdb

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/pkg/errors"
	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"

	"github.com/pg-sharding/shardmapctl/pkg/models/spqrerror"
	"github.com/pg-sharding/shardmapctl/pkg/spqrlog"
)

const (
	SQLDriverPgx      = "pgx"
	SQLDriverPostgres = "postgres"
	SQLDriverSQLite   = "sqlite"
)

func init() {
	sqlx.BindDriver(SQLDriverSQLite, sqlx.QUESTION)
}

var directorySchema = []string{
	`CREATE TABLE IF NOT EXISTS shard_directory_maps (
		id       VARCHAR(36)  PRIMARY KEY,
		name     VARCHAR(128) NOT NULL UNIQUE,
		key_type VARCHAR(32)  NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS shard_directory_shards (
		id            VARCHAR(36)  PRIMARY KEY,
		shard_map_id  VARCHAR(36)  NOT NULL REFERENCES shard_directory_maps (id),
		server_name   VARCHAR(256) NOT NULL,
		database_name VARCHAR(128) NOT NULL,
		UNIQUE (shard_map_id, server_name, database_name)
	)`,
}

type shardMapRow struct {
	ID      string `db:"id"`
	Name    string `db:"name"`
	KeyType string `db:"key_type"`
}

func (r *shardMapRow) toModel() *ShardMap {
	return NewShardMap(r.ID, r.Name, r.KeyType)
}

type shardRow struct {
	ID           string `db:"id"`
	ShardMapID   string `db:"shard_map_id"`
	ServerName   string `db:"server_name"`
	DatabaseName string `db:"database_name"`
}

func (r *shardRow) toModel() *Shard {
	return NewShard(r.ID, r.ShardMapID, ShardLocation{Server: r.ServerName, Database: r.DatabaseName})
}

// SQLQDB keeps the shard directory in two relational tables. It works with PostgreSQL
// (through pgx or lib/pq) and with SQLite.
type SQLQDB struct {
	db     *sqlx.DB
	driver string
}

var _ QDB = &SQLQDB{}

func NewSQLQDB(ctx context.Context, driver string, dsn string, retries uint64) (*SQLQDB, error) {
	switch driver {
	case SQLDriverPgx, SQLDriverPostgres, SQLDriverSQLite:
	case "":
		driver = SQLDriverPgx
	default:
		return nil, spqrerror.Newf(spqrerror.SPQR_CONFIG_ERROR, "unknown sql driver %s", driver)
	}

	db, err := sqlx.Open(driver, dsn)
	if err != nil {
		return nil, spqrerror.Wrap(spqrerror.SPQR_CONNECTION_ERROR, err, "sqlqdb: failed to open database")
	}
	if driver == SQLDriverSQLite {
		// An in-memory SQLite database lives as long as its single connection.
		db.SetMaxOpenConns(1)
	}

	spqrlog.Zero.Debug().
		Str("driver", driver).
		Uint("db", spqrlog.GetPointer(db)).
		Msg("sqlqdb: NewSQLQDB")

	if err := connectWithRetry(ctx, "sql", retries, db.PingContext); err != nil {
		_ = db.Close()
		return nil, err
	}

	q := &SQLQDB{db: db, driver: driver}
	if err := q.EnsureSchema(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	return q, nil
}

// EnsureSchema creates the directory tables when they are missing.
func (q *SQLQDB) EnsureSchema(ctx context.Context) error {
	var existing int
	err := q.db.GetContext(ctx, &existing, q.db.Rebind(`SELECT COUNT(*) FROM shard_directory_maps`))
	if err == nil {
		spqrlog.Zero.Info().Int("shard-maps", existing).Msg("sqlqdb: shard directory already exists")
		return nil
	}

	for _, stmt := range directorySchema {
		if _, err := q.db.ExecContext(ctx, stmt); err != nil {
			return errors.Wrap(err, "sqlqdb: create directory schema")
		}
	}
	spqrlog.Zero.Info().Msg("sqlqdb: created shard directory")
	return nil
}

func (q *SQLQDB) Close() error {
	return q.db.Close()
}

const pgUniqueViolation = "23505"

// isUniqueViolation reports whether err is a unique or primary key constraint failure
// raised by one of the supported drivers.
func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == pgUniqueViolation
	}
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return pqErr.Code == pgUniqueViolation
	}
	var liteErr *sqlite.Error
	if errors.As(err, &liteErr) {
		switch liteErr.Code() {
		case sqlite3.SQLITE_CONSTRAINT_UNIQUE, sqlite3.SQLITE_CONSTRAINT_PRIMARYKEY:
			return true
		}
	}
	return false
}

// ==============================================================================
//                                 SHARD MAPS
// ==============================================================================

func (q *SQLQDB) ListShardMaps(ctx context.Context) ([]*ShardMap, error) {
	spqrlog.Zero.Debug().Msg("sqlqdb: list shard maps")

	var rows []shardMapRow
	if err := q.db.SelectContext(ctx, &rows,
		`SELECT id, name, key_type FROM shard_directory_maps ORDER BY name`); err != nil {
		return nil, errors.Wrap(err, "sqlqdb: list shard maps")
	}

	ret := make([]*ShardMap, 0, len(rows))
	for i := range rows {
		ret = append(ret, rows[i].toModel())
	}
	return ret, nil
}

func (q *SQLQDB) CreateShardMap(ctx context.Context, name string, keyType string) (*ShardMap, error) {
	spqrlog.Zero.Debug().
		Str("name", name).
		Str("key-type", keyType).
		Msg("sqlqdb: create shard map")

	row := shardMapRow{ID: uuid.NewString(), Name: name, KeyType: keyType}
	if _, err := q.db.NamedExecContext(ctx,
		`INSERT INTO shard_directory_maps (id, name, key_type) VALUES (:id, :name, :key_type)`, row); err != nil {
		if isUniqueViolation(err) {
			return nil, spqrerror.Newf(spqrerror.SPQR_OBJECT_EXISTS, "shard map \"%s\" already exists", name)
		}
		return nil, errors.Wrap(err, "sqlqdb: create shard map")
	}
	return row.toModel(), nil
}

func (q *SQLQDB) DeleteShardMap(ctx context.Context, shardMap *ShardMap) error {
	spqrlog.Zero.Debug().
		Str("name", shardMap.Name).
		Msg("sqlqdb: delete shard map")

	tx, err := q.db.BeginTxx(ctx, nil)
	if err != nil {
		return errors.Wrap(err, "sqlqdb: begin")
	}
	defer func() {
		if err := tx.Rollback(); err != nil && err != sql.ErrTxDone {
			spqrlog.Zero.Error().Err(err).Msg("sqlqdb: rollback")
		}
	}()

	var shardCount int
	if err := tx.GetContext(ctx, &shardCount, tx.Rebind(
		`SELECT COUNT(*) FROM shard_directory_shards s
		   JOIN shard_directory_maps m ON m.id = s.shard_map_id
		  WHERE m.name = ?`), shardMap.Name); err != nil {
		return errors.Wrap(err, "sqlqdb: count shards")
	}
	if shardCount > 0 {
		return spqrerror.Newf(spqrerror.SPQR_SHARDMAP_NOT_EMPTY,
			"shard map \"%s\" still has %d shards, delete them first", shardMap.Name, shardCount)
	}

	res, err := tx.ExecContext(ctx, tx.Rebind(`DELETE FROM shard_directory_maps WHERE name = ?`), shardMap.Name)
	if err != nil {
		return errors.Wrap(err, "sqlqdb: delete shard map")
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return spqrerror.Newf(spqrerror.SPQR_OBJECT_NOT_EXIST, "shard map \"%s\" not found", shardMap.Name)
	}

	return errors.Wrap(tx.Commit(), "sqlqdb: commit")
}

func (q *SQLQDB) GetShardMap(ctx context.Context, name string) (*ShardMap, error) {
	spqrlog.Zero.Debug().Str("name", name).Msg("sqlqdb: get shard map")

	var row shardMapRow
	err := q.db.GetContext(ctx, &row, q.db.Rebind(
		`SELECT id, name, key_type FROM shard_directory_maps WHERE name = ?`), name)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		return nil, spqrerror.Newf(spqrerror.SPQR_OBJECT_NOT_EXIST, "shard map \"%s\" not found", name)
	case err != nil:
		return nil, errors.Wrap(err, "sqlqdb: get shard map")
	}
	return row.toModel(), nil
}

// ==============================================================================
//                                   SHARDS
// ==============================================================================

func (q *SQLQDB) checkShardMap(ctx context.Context, shardMap *ShardMap) error {
	stored, err := q.GetShardMap(ctx, shardMap.Name)
	if err != nil {
		return err
	}
	if stored.ID != shardMap.ID {
		return spqrerror.Newf(spqrerror.SPQR_OBJECT_NOT_EXIST, "shard map \"%s\" not found", shardMap.Name)
	}
	return nil
}

func (q *SQLQDB) ListShards(ctx context.Context, shardMap *ShardMap) ([]*Shard, error) {
	spqrlog.Zero.Debug().
		Str("shard-map", shardMap.Name).
		Msg("sqlqdb: list shards")

	if err := q.checkShardMap(ctx, shardMap); err != nil {
		return nil, err
	}

	var rows []shardRow
	if err := q.db.SelectContext(ctx, &rows, q.db.Rebind(
		`SELECT id, shard_map_id, server_name, database_name
		   FROM shard_directory_shards
		  WHERE shard_map_id = ?
		  ORDER BY database_name, server_name`), shardMap.ID); err != nil {
		return nil, errors.Wrap(err, "sqlqdb: list shards")
	}

	ret := make([]*Shard, 0, len(rows))
	for i := range rows {
		ret = append(ret, rows[i].toModel())
	}
	return ret, nil
}

func (q *SQLQDB) CreateShard(ctx context.Context, shardMap *ShardMap, loc ShardLocation) (*Shard, error) {
	spqrlog.Zero.Debug().
		Str("shard-map", shardMap.Name).
		Str("location", loc.String()).
		Msg("sqlqdb: create shard")

	if err := q.checkShardMap(ctx, shardMap); err != nil {
		return nil, err
	}

	row := shardRow{
		ID:           uuid.NewString(),
		ShardMapID:   shardMap.ID,
		ServerName:   loc.Server,
		DatabaseName: loc.Database,
	}
	if _, err := q.db.NamedExecContext(ctx,
		`INSERT INTO shard_directory_shards (id, shard_map_id, server_name, database_name)
		 VALUES (:id, :shard_map_id, :server_name, :database_name)`, row); err != nil {
		if isUniqueViolation(err) {
			return nil, spqrerror.Newf(spqrerror.SPQR_OBJECT_EXISTS,
				"shard %s already exists in shard map \"%s\"", loc, shardMap.Name)
		}
		return nil, errors.Wrap(err, "sqlqdb: create shard")
	}
	return row.toModel(), nil
}

func (q *SQLQDB) DeleteShard(ctx context.Context, shardMap *ShardMap, shard *Shard) error {
	spqrlog.Zero.Debug().
		Str("shard-map", shardMap.Name).
		Str("id", shard.ID).
		Msg("sqlqdb: delete shard")

	res, err := q.db.ExecContext(ctx, q.db.Rebind(
		`DELETE FROM shard_directory_shards WHERE id = ? AND shard_map_id = ?`), shard.ID, shardMap.ID)
	if err != nil {
		return errors.Wrap(err, "sqlqdb: delete shard")
	}
	n, err := res.RowsAffected()
	if err != nil {
		return errors.Wrap(err, "sqlqdb: delete shard")
	}
	if n == 0 {
		return spqrerror.Newf(spqrerror.SPQR_OBJECT_NOT_EXIST,
			"shard %s not found in shard map \"%s\"", shard.Location, shardMap.Name)
	}
	return nil
}

// String describes the backend for log lines.
func (q *SQLQDB) String() string {
	return fmt.Sprintf("sqlqdb(%s)", q.driver)
}
