package cli

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/matzehuels/erdtower/pkg/drag"
	"github.com/matzehuels/erdtower/pkg/errors"
	"github.com/matzehuels/erdtower/pkg/geom"
	"github.com/matzehuels/erdtower/pkg/graph"
)

// dragCommand creates the drag command for editing displacements offline.
func (c *CLI) dragCommand() *cobra.Command {
	var (
		output string
		moves  []string
		resets []string
		reset  bool
		bake   bool
	)

	cmd := &cobra.Command{
		Use:   "drag [layout.json]",
		Short: "Move tables in a layout file",
		Long: `Move tables in a layout file.

Each --move TABLE=DX,DY adds an offset to a table's displacement. The base
layout is left untouched, so a later relayout or --reset-all restores the
computed positions. --bake writes the moved positions into the base layout
and drops the displacements.

Example:
  erdtower drag shop.layout.json --move public.orders=120,0 --move public.users=0,-40`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			input := args[0]
			wire, err := graph.ReadLayoutFile(input)
			if err != nil {
				return fmt.Errorf("load layout %s: %w", input, err)
			}
			out, err := applyDrags(wire, moves, resets, reset, bake)
			if err != nil {
				return err
			}
			if output == "" {
				output = input
			}
			if err := graph.WriteLayoutFile(out, output); err != nil {
				return fmt.Errorf("write output %s: %w", output, err)
			}
			printSuccess("Updated layout")
			printFile(output)
			printDetail("%s displaced", plural(len(out.Displacements), "table"))
			return nil
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "", "output file (default: overwrite input)")
	cmd.Flags().StringArrayVar(&moves, "move", nil, "TABLE=DX,DY offset to add (repeatable)")
	cmd.Flags().StringArrayVar(&resets, "reset", nil, "table whose displacement to clear (repeatable)")
	cmd.Flags().BoolVar(&reset, "reset-all", false, "clear every displacement")
	cmd.Flags().BoolVar(&bake, "bake", false, "write moved positions into the base layout")

	return cmd
}

// applyDrags edits the displacements of a wire layout. Resets run before
// moves.
func applyDrags(wire graph.Layout, moves, resets []string, resetAll, bake bool) (graph.Layout, error) {
	base, m, err := graph.ToDiagram(wire)
	if err != nil {
		return graph.Layout{}, err
	}
	engine := drag.NewEngineWith(base, m)
	if resetAll {
		engine.Reset(base)
	}
	for _, id := range resets {
		if _, ok := base.Node(id); !ok {
			return graph.Layout{}, errors.New(errors.ErrCodeNodeNotFound, "no table %q in layout", id)
		}
		engine.Clear(id)
	}
	for _, mv := range moves {
		id, d, err := parseMove(mv)
		if err != nil {
			return graph.Layout{}, err
		}
		if err := engine.Start(id); err != nil {
			return graph.Layout{}, err
		}
		if err := engine.Move(d); err != nil {
			return graph.Layout{}, err
		}
		engine.End()
	}

	if bake {
		return graph.FromDiagram(engine.View(), nil), nil
	}
	return graph.FromDiagram(engine.Base(), engine.Displacements()), nil
}

// parseMove parses TABLE=DX,DY.
func parseMove(s string) (string, geom.Point, error) {
	id, off, ok := strings.Cut(s, "=")
	if !ok || id == "" {
		return "", geom.Point{}, errors.New(errors.ErrCodeInvalidInput, "invalid move %q (want TABLE=DX,DY)", s)
	}
	xs, ys, ok := strings.Cut(off, ",")
	if !ok {
		return "", geom.Point{}, errors.New(errors.ErrCodeInvalidInput, "invalid move %q (want TABLE=DX,DY)", s)
	}
	dx, errX := strconv.ParseFloat(strings.TrimSpace(xs), 64)
	dy, errY := strconv.ParseFloat(strings.TrimSpace(ys), 64)
	if errX != nil || errY != nil {
		return "", geom.Point{}, errors.New(errors.ErrCodeInvalidInput, "invalid offset in move %q", s)
	}
	return id, geom.Pt(dx, dy), nil
}
