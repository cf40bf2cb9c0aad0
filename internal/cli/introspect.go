package cli

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"slices"
	"strings"

	"github.com/spf13/cobra"

	"github.com/matzehuels/erdtower/pkg/cache"
	"github.com/matzehuels/erdtower/pkg/introspect"
	"github.com/matzehuels/erdtower/pkg/schema"
)

// introspectCommand creates the introspect command for reading live schemas.
func (c *CLI) introspectCommand() *cobra.Command {
	var (
		output  string
		refresh bool
		opts    introspect.Options
	)

	cmd := &cobra.Command{
		Use:   "introspect [dsn]",
		Short: "Read a schema from a PostgreSQL or SQLite database",
		Long: `Read a schema from a PostgreSQL or SQLite database.

Tables, columns, primary and unique keys, foreign keys and enums are written
to a schema file that 'layout', 'render' and 'tui' accept. The DSN can also
come from ERDTOWER_DSN. Results are cached for an hour per DSN and namespace
selection; --refresh reads the database again.

Examples:
  erdtower introspect postgres://localhost/shop -o shop.yaml
  erdtower introspect sqlite://./shop.db -o shop.toml`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			dsn := os.Getenv("ERDTOWER_DSN")
			if len(args) == 1 {
				dsn = args[0]
			}
			if output == "" {
				output = "schema.yaml"
			}
			opts.Logger = c.Logger
			return c.runIntrospect(cmd.Context(), dsn, output, opts, refresh)
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "", "schema file to write; format from extension (default: schema.yaml)")
	cmd.Flags().StringSliceVarP(&opts.Namespaces, "namespace", "n", nil, "schemas to read (default: all non-system)")
	cmd.Flags().BoolVar(&refresh, "refresh", false, "ignore a cached schema for this DSN")
	cmd.Flags().IntVar(&opts.Concurrency, "concurrency", introspect.DefaultConcurrency, "parallel table queries")

	return cmd
}

func (c *CLI) runIntrospect(ctx context.Context, dsn, output string, opts introspect.Options, refresh bool) error {
	if _, err := schema.FormatFromPath(output); err != nil {
		return err
	}

	store, err := newCache(false)
	if err != nil {
		return err
	}
	defer store.Close()
	key := cache.NewDefaultKeyer().SchemaKey(schemaSource(dsn, opts.Namespaces))

	prog := newProgress(c.Logger)
	var (
		s      *schema.Schema
		cached bool
	)
	if !refresh {
		s, cached = loadCachedSchema(ctx, store, key)
	}
	if !cached {
		if s, err = c.readDatabase(ctx, dsn, opts); err != nil {
			return err
		}
		if err := storeSchema(ctx, store, key, s); err != nil {
			c.Logger.Warn("could not cache schema", "error", err)
		}
	}
	prog.done(fmt.Sprintf("Read %s", plural(len(s.Tables), "table")))

	if err := schema.WriteFile(s, output); err != nil {
		return fmt.Errorf("write %s: %w", output, err)
	}

	printSuccess("Schema written")
	printFile(output)
	printStats(len(s.Tables), len(s.References), len(s.Groups), cached)
	printNewline()
	printNextStep("Inspect", fmt.Sprintf("%s inspect %s", appName, output))
	return nil
}

func (c *CLI) readDatabase(ctx context.Context, dsn string, opts introspect.Options) (*schema.Schema, error) {
	db, err := introspect.Open(ctx, dsn)
	if err != nil {
		return nil, err
	}
	defer db.Close()

	s, err := spin(ctx, "Reading schema...", func() (*schema.Schema, error) {
		return db.Schema(ctx, opts)
	})
	if err != nil {
		printError("Introspection failed")
		return nil, err
	}
	return s, nil
}

// schemaSource identifies one introspection: the DSN plus the namespace
// selection in a stable order.
func schemaSource(dsn string, namespaces []string) string {
	ns := slices.Clone(namespaces)
	slices.Sort(ns)
	return dsn + "#" + strings.Join(ns, ",")
}

func loadCachedSchema(ctx context.Context, c cache.Cache, key string) (*schema.Schema, bool) {
	data, ok, err := c.Get(ctx, key)
	if err != nil || !ok {
		return nil, false
	}
	s, err := schema.Decode(data, schema.FormatJSON)
	if err != nil {
		return nil, false
	}
	return s, true
}

func storeSchema(ctx context.Context, c cache.Cache, key string, s *schema.Schema) error {
	var buf bytes.Buffer
	if err := schema.Encode(&buf, s, schema.FormatJSON); err != nil {
		return err
	}
	return c.Set(ctx, key, buf.Bytes(), cache.TTLSchema)
}
