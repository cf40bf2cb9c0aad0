package introspect

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"golang.org/x/sync/errgroup"

	"github.com/matzehuels/erdtower/pkg/errors"
	"github.com/matzehuels/erdtower/pkg/schema"
)

// Postgres reads schemas from a PostgreSQL database.
type Postgres struct {
	pool *pgxpool.Pool
}

// OpenPostgres creates a connection pool for dsn and verifies it, retrying
// the first ping a few times with backoff.
func OpenPostgres(ctx context.Context, dsn string) (*Postgres, error) {
	cfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidInput, err, "parse postgres DSN")
	}
	if cfg.MaxConns < DefaultConcurrency {
		cfg.MaxConns = DefaultConcurrency
	}
	cfg.MaxConnIdleTime = time.Minute

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeDatabase, err, "connect to postgres")
	}
	ping := func() error {
		if err := pool.Ping(ctx); err != nil {
			return &transientError{err}
		}
		return nil
	}
	if err := retry(ctx, connectAttempts, connectDelay, ping); err != nil {
		pool.Close()
		return nil, errors.Wrap(errors.ErrCodeDatabase, err, "ping postgres")
	}
	return &Postgres{pool: pool}, nil
}

// Close closes the connection pool.
func (p *Postgres) Close() error {
	p.pool.Close()
	return nil
}

// Schema reads every base table in the selected namespaces. Column details
// are fetched per table, opts.Concurrency tables at a time.
func (p *Postgres) Schema(ctx context.Context, opts Options) (*schema.Schema, error) {
	opts.setDefaults()
	start := time.Now()

	var dbName string
	if err := p.pool.QueryRow(ctx, `SELECT current_database()`).Scan(&dbName); err != nil {
		return nil, errors.Wrap(errors.ErrCodeDatabase, err, "read database name")
	}

	namespaces := opts.Namespaces
	if len(namespaces) == 0 {
		var err error
		if namespaces, err = p.namespaces(ctx); err != nil {
			return nil, err
		}
	}

	tables, err := p.tables(ctx, namespaces)
	if err != nil {
		return nil, err
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(opts.Concurrency)
	for i := range tables {
		g.Go(func() error { return p.describe(gctx, &tables[i]) })
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	fks, err := p.foreignKeys(ctx, namespaces)
	if err != nil {
		return nil, err
	}
	enums, err := p.enums(ctx, namespaces)
	if err != nil {
		return nil, err
	}

	opts.Logger.Debug("introspected postgres",
		"database", dbName,
		"namespaces", strings.Join(namespaces, ","),
		"tables", len(tables),
		"foreign_keys", len(fks),
		"duration", time.Since(start))
	return assemble(dbName, tables, fks, enums), nil
}

func (p *Postgres) namespaces(ctx context.Context) ([]string, error) {
	rows, err := p.pool.Query(ctx, `
		SELECT schema_name
		FROM information_schema.schemata
		WHERE schema_name NOT IN ('pg_catalog', 'information_schema', 'pg_toast')
			AND schema_name NOT LIKE 'pg_temp_%'
			AND schema_name NOT LIKE 'pg_toast_temp_%'
		ORDER BY schema_name
	`)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeDatabase, err, "list schemas")
	}
	defer rows.Close()

	var out []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, errors.Wrap(errors.ErrCodeDatabase, err, "list schemas")
		}
		out = append(out, name)
	}
	return out, rows.Err()
}

func (p *Postgres) tables(ctx context.Context, namespaces []string) ([]table, error) {
	rows, err := p.pool.Query(ctx, `
		SELECT t.table_schema, t.table_name,
			COALESCE(obj_description(format('%I.%I', t.table_schema, t.table_name)::regclass, 'pg_class'), '')
		FROM information_schema.tables t
		WHERE t.table_schema = ANY($1)
			AND t.table_type = 'BASE TABLE'
		ORDER BY t.table_schema, t.table_name
	`, namespaces)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeDatabase, err, "list tables")
	}
	defer rows.Close()

	var out []table
	for rows.Next() {
		var t table
		if err := rows.Scan(&t.namespace, &t.name, &t.note); err != nil {
			return nil, errors.Wrap(errors.ErrCodeDatabase, err, "list tables")
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

// describe reads the columns and key constraints of one table.
func (p *Postgres) describe(ctx context.Context, t *table) error {
	rows, err := p.pool.Query(ctx, `
		SELECT column_name, data_type, is_nullable, COALESCE(column_default, ''), is_identity
		FROM information_schema.columns
		WHERE table_schema = $1 AND table_name = $2
		ORDER BY ordinal_position
	`, t.namespace, t.name)
	if err != nil {
		return errors.Wrap(errors.ErrCodeDatabase, err, "columns of %s.%s", t.namespace, t.name)
	}
	for rows.Next() {
		var c schema.Column
		var nullable, identity string
		if err := rows.Scan(&c.Name, &c.Type, &nullable, &c.Default, &identity); err != nil {
			rows.Close()
			return errors.Wrap(errors.ErrCodeDatabase, err, "columns of %s.%s", t.namespace, t.name)
		}
		c.NotNull = nullable == "NO"
		c.Increment = identity == "YES" || strings.HasPrefix(c.Default, "nextval(")
		if c.Increment {
			c.Default = ""
		}
		t.columns = append(t.columns, c)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return errors.Wrap(errors.ErrCodeDatabase, err, "columns of %s.%s", t.namespace, t.name)
	}

	keys, err := p.pool.Query(ctx, `
		SELECT tc.constraint_type, tc.constraint_name, kcu.column_name
		FROM information_schema.table_constraints tc
		JOIN information_schema.key_column_usage kcu
			ON tc.constraint_name = kcu.constraint_name
			AND tc.table_schema = kcu.table_schema
			AND tc.table_name = kcu.table_name
		WHERE tc.constraint_type IN ('PRIMARY KEY', 'UNIQUE')
			AND tc.table_schema = $1
			AND tc.table_name = $2
		ORDER BY tc.constraint_name, kcu.ordinal_position
	`, t.namespace, t.name)
	if err != nil {
		return errors.Wrap(errors.ErrCodeDatabase, err, "keys of %s.%s", t.namespace, t.name)
	}
	defer keys.Close()

	var pk []string
	unique := make(map[string][]string)
	var order []string
	for keys.Next() {
		var kind, name, col string
		if err := keys.Scan(&kind, &name, &col); err != nil {
			return errors.Wrap(errors.ErrCodeDatabase, err, "keys of %s.%s", t.namespace, t.name)
		}
		if kind == "PRIMARY KEY" {
			pk = append(pk, col)
			continue
		}
		if _, ok := unique[name]; !ok {
			order = append(order, name)
		}
		unique[name] = append(unique[name], col)
	}
	if err := keys.Err(); err != nil {
		return errors.Wrap(errors.ErrCodeDatabase, err, "keys of %s.%s", t.namespace, t.name)
	}
	for _, name := range order {
		t.uniques = append(t.uniques, unique[name])
	}
	markKeys(t, pk)
	return nil
}

// foreignKeys reads every foreign key with columns in key order. The
// information_schema views pair composite key columns ambiguously, so this
// reads pg_constraint directly.
func (p *Postgres) foreignKeys(ctx context.Context, namespaces []string) ([]foreignKey, error) {
	rows, err := p.pool.Query(ctx, `
		SELECT ns.nspname, cl.relname,
			ARRAY(SELECT a.attname FROM unnest(c.conkey) WITH ORDINALITY AS k(num, ord)
				JOIN pg_attribute a ON a.attrelid = c.conrelid AND a.attnum = k.num
				ORDER BY k.ord)::text[],
			fns.nspname, fcl.relname,
			ARRAY(SELECT a.attname FROM unnest(c.confkey) WITH ORDINALITY AS k(num, ord)
				JOIN pg_attribute a ON a.attrelid = c.confrelid AND a.attnum = k.num
				ORDER BY k.ord)::text[]
		FROM pg_constraint c
		JOIN pg_class cl ON cl.oid = c.conrelid
		JOIN pg_namespace ns ON ns.oid = cl.relnamespace
		JOIN pg_class fcl ON fcl.oid = c.confrelid
		JOIN pg_namespace fns ON fns.oid = fcl.relnamespace
		WHERE c.contype = 'f' AND ns.nspname = ANY($1)
		ORDER BY ns.nspname, cl.relname, c.conname
	`, namespaces)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeDatabase, err, "list foreign keys")
	}
	defer rows.Close()

	var out []foreignKey
	for rows.Next() {
		var fk foreignKey
		if err := rows.Scan(&fk.namespace, &fk.table, &fk.columns, &fk.refNamespace, &fk.refTbl, &fk.refColumns); err != nil {
			return nil, errors.Wrap(errors.ErrCodeDatabase, err, "list foreign keys")
		}
		out = append(out, fk)
	}
	return out, rows.Err()
}

func (p *Postgres) enums(ctx context.Context, namespaces []string) ([]schema.Enum, error) {
	rows, err := p.pool.Query(ctx, `
		SELECT n.nspname, t.typname, array_agg(e.enumlabel ORDER BY e.enumsortorder)::text[]
		FROM pg_type t
		JOIN pg_enum e ON e.enumtypid = t.oid
		JOIN pg_namespace n ON n.oid = t.typnamespace
		WHERE n.nspname = ANY($1)
		GROUP BY n.nspname, t.typname
		ORDER BY n.nspname, t.typname
	`, namespaces)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeDatabase, err, "list enums")
	}
	defer rows.Close()

	var out []schema.Enum
	for rows.Next() {
		var e schema.Enum
		if err := rows.Scan(&e.Namespace, &e.Name, &e.Values); err != nil {
			return nil, fmt.Errorf("scan enum: %w", err)
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

var _ Introspector = (*Postgres)(nil)
