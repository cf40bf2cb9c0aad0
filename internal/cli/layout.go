package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/matzehuels/erdtower/pkg/graph"
	"github.com/matzehuels/erdtower/pkg/pipeline"
)

// layoutCommand creates the layout command for computing base layouts.
func (c *CLI) layoutCommand() *cobra.Command {
	var (
		output  string
		refresh bool
		flags   layoutFlags
	)

	cmd := &cobra.Command{
		Use:   "layout [schema]",
		Short: "Compute the base layout of a schema",
		Long: `Compute the base layout of a schema.

The layout command reads a schema file (YAML, TOML or JSON), lays the tables
out with Graphviz and writes the result as a layout.json file: table
positions and sizes, group frames and orthogonal reference routes.

The layout file can be edited with 'drag' and drawn with 'render --layout'.
Results are cached locally for faster subsequent runs.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			opts := pipeline.Options{Refresh: refresh, Logger: c.Logger}
			flags.apply(&opts)
			return c.runLayout(cmd.Context(), args[0], outputPath(output, args[0], ".layout.json"), opts, flags.noCache)
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "", "output file (default: <input>.layout.json)")
	cmd.Flags().BoolVar(&refresh, "refresh", false, "recompute even when a cached layout exists")
	flags.register(cmd)

	return cmd
}

func (c *CLI) runLayout(ctx context.Context, input, output string, opts pipeline.Options, noCache bool) error {
	s, err := loadSchema(input)
	if err != nil {
		return err
	}

	runner, err := c.newRunner(noCache)
	if err != nil {
		return fmt.Errorf("initialize runner: %w", err)
	}
	defer runner.Close()

	type result struct {
		hit bool
		l   graph.Layout
	}
	res, err := spin(ctx, "Computing layout...", func() (result, error) {
		l, hit, err := runner.LayoutWithCacheInfo(ctx, s, opts)
		if err != nil {
			return result{}, err
		}
		return result{hit: hit, l: graph.FromDiagram(l, nil)}, nil
	})
	if err != nil {
		printError("Layout failed")
		return fmt.Errorf("compute layout: %w", err)
	}
	if ctx.Err() != nil {
		return ctx.Err()
	}

	if err := graph.WriteLayoutFile(res.l, output); err != nil {
		return fmt.Errorf("write output %s: %w", output, err)
	}

	printSuccess("Layout complete")
	printFile(output)
	printStats(len(res.l.Nodes), len(res.l.Edges), len(res.l.Groups), res.hit)
	printNewline()
	printNextStep("Render", fmt.Sprintf("%s render %s --layout %s", appName, input, output))
	return nil
}
