package introspect

import (
	"context"
	"database/sql"
	"path/filepath"
	"strings"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/matzehuels/erdtower/pkg/errors"
	"github.com/matzehuels/erdtower/pkg/schema"
)

// SQLite reads schemas from a SQLite database file.
type SQLite struct {
	db   *sql.DB
	name string
}

// OpenSQLite opens the database at path, which may be a file: URI.
func OpenSQLite(ctx context.Context, path string) (*SQLite, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeDatabase, err, "open sqlite database")
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, errors.Wrap(errors.ErrCodeDatabase, err, "open sqlite database")
	}
	name := strings.TrimPrefix(path, "file:")
	name, _, _ = strings.Cut(name, "?")
	name = strings.TrimSuffix(filepath.Base(name), filepath.Ext(name))
	return &SQLite{db: db, name: name}, nil
}

// Close closes the database.
func (s *SQLite) Close() error { return s.db.Close() }

// Schema reads every table. SQLite has no schemas, so opts.Namespaces is
// ignored and tables land in the default namespace.
func (s *SQLite) Schema(ctx context.Context, opts Options) (*schema.Schema, error) {
	opts.setDefaults()
	start := time.Now()

	names, err := s.tableNames(ctx)
	if err != nil {
		return nil, err
	}

	tables := make([]table, 0, len(names))
	var fks []foreignKey
	for _, name := range names {
		t := table{name: name}
		if err := s.columns(ctx, &t); err != nil {
			return nil, err
		}
		keys, err := s.foreignKeys(ctx, name)
		if err != nil {
			return nil, err
		}
		tables = append(tables, t)
		fks = append(fks, keys...)
	}

	opts.Logger.Debug("introspected sqlite",
		"database", s.name,
		"tables", len(tables),
		"foreign_keys", len(fks),
		"duration", time.Since(start))
	return assemble(s.name, tables, fks, nil), nil
}

func (s *SQLite) tableNames(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT name FROM sqlite_master
		WHERE type = 'table' AND name NOT LIKE 'sqlite_%'
		ORDER BY name
	`)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeDatabase, err, "list tables")
	}
	defer rows.Close()

	var out []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, errors.Wrap(errors.ErrCodeDatabase, err, "list tables")
		}
		out = append(out, name)
	}
	return out, rows.Err()
}

// quote returns name as a quoted SQLite identifier for PRAGMA arguments.
func quote(name string) string {
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}

func (s *SQLite) columns(ctx context.Context, t *table) error {
	rows, err := s.db.QueryContext(ctx, "PRAGMA table_info("+quote(t.name)+")")
	if err != nil {
		return errors.Wrap(errors.ErrCodeDatabase, err, "columns of %s", t.name)
	}
	type pkCol struct {
		name string
		pos  int
	}
	var pks []pkCol
	for rows.Next() {
		var (
			cid      int
			c        schema.Column
			notNull  int
			defValue sql.NullString
			pk       int
		)
		if err := rows.Scan(&cid, &c.Name, &c.Type, &notNull, &defValue, &pk); err != nil {
			rows.Close()
			return errors.Wrap(errors.ErrCodeDatabase, err, "columns of %s", t.name)
		}
		c.NotNull = notNull == 1
		c.Default = defValue.String
		if pk > 0 {
			pks = append(pks, pkCol{c.Name, pk})
		}
		t.columns = append(t.columns, c)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return errors.Wrap(errors.ErrCodeDatabase, err, "columns of %s", t.name)
	}

	pk := make([]string, len(pks))
	for _, p := range pks {
		pk[p.pos-1] = p.name
	}
	// A lone INTEGER PRIMARY KEY aliases the rowid.
	if len(pk) == 1 {
		for i := range t.columns {
			if t.columns[i].Name == pk[0] && strings.EqualFold(t.columns[i].Type, "INTEGER") {
				t.columns[i].Increment = true
			}
		}
	}

	uniques, err := s.uniqueIndexes(ctx, t.name)
	if err != nil {
		return err
	}
	t.uniques = uniques
	markKeys(t, pk)
	return nil
}

// uniqueIndexes returns the column sets of UNIQUE constraints and unique
// indexes, excluding the primary key.
func (s *SQLite) uniqueIndexes(ctx context.Context, tableName string) ([][]string, error) {
	rows, err := s.db.QueryContext(ctx, "PRAGMA index_list("+quote(tableName)+")")
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeDatabase, err, "indexes of %s", tableName)
	}
	var names []string
	for rows.Next() {
		var (
			seq     int
			name    string
			unique  int
			origin  string
			partial int
		)
		if err := rows.Scan(&seq, &name, &unique, &origin, &partial); err != nil {
			rows.Close()
			return nil, errors.Wrap(errors.ErrCodeDatabase, err, "indexes of %s", tableName)
		}
		if unique == 1 && origin != "pk" && partial == 0 {
			names = append(names, name)
		}
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(errors.ErrCodeDatabase, err, "indexes of %s", tableName)
	}

	var out [][]string
	for _, name := range names {
		cols, err := s.indexColumns(ctx, name)
		if err != nil {
			return nil, err
		}
		if len(cols) > 0 {
			out = append(out, cols)
		}
	}
	return out, nil
}

func (s *SQLite) indexColumns(ctx context.Context, index string) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, "PRAGMA index_info("+quote(index)+")")
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeDatabase, err, "index %s", index)
	}
	defer rows.Close()

	var cols []string
	for rows.Next() {
		var (
			seqno, cid int
			name       sql.NullString
		)
		if err := rows.Scan(&seqno, &cid, &name); err != nil {
			return nil, errors.Wrap(errors.ErrCodeDatabase, err, "index %s", index)
		}
		// Expression indexes have no column name.
		if !name.Valid {
			return nil, nil
		}
		cols = append(cols, name.String)
	}
	return cols, rows.Err()
}

func (s *SQLite) foreignKeys(ctx context.Context, tableName string) ([]foreignKey, error) {
	rows, err := s.db.QueryContext(ctx, "PRAGMA foreign_key_list("+quote(tableName)+")")
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeDatabase, err, "foreign keys of %s", tableName)
	}
	defer rows.Close()

	var out []foreignKey
	byID := make(map[int]int)
	for rows.Next() {
		var (
			id, seq                   int
			refTable, from            string
			to                        sql.NullString
			onUpdate, onDelete, match string
		)
		if err := rows.Scan(&id, &seq, &refTable, &from, &to, &onUpdate, &onDelete, &match); err != nil {
			return nil, errors.Wrap(errors.ErrCodeDatabase, err, "foreign keys of %s", tableName)
		}
		i, ok := byID[id]
		if !ok {
			i = len(out)
			byID[id] = i
			out = append(out, foreignKey{table: tableName, refTbl: refTable})
		}
		out[i].columns = append(out[i].columns, from)
		// A NULL target column means the referenced table's primary key.
		if to.Valid {
			out[i].refColumns = append(out[i].refColumns, to.String)
		}
	}
	return out, rows.Err()
}

var _ Introspector = (*SQLite)(nil)
