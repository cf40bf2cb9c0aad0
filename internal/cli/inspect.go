package cli

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/matzehuels/erdtower/pkg/schema"
)

// inspectCommand creates the inspect command for summarizing a schema.
func (c *CLI) inspectCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "inspect [schema]",
		Short: "Summarize the tables and references of a schema",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := loadSchema(args[0])
			if err != nil {
				return err
			}

			title := s.Name
			if title == "" {
				title = args[0]
			}
			fmt.Println(StyleTitle.Render(title))
			printStats(len(s.Tables), len(s.References), len(s.ResolveGroups()), false)
			printNewline()

			fmt.Println(newTable("Table", "Columns", "Primary key", "Group", "In", "Out").Rows(tableRows(s)...).Render())
			if rows := referenceRows(s); len(rows) > 0 {
				printNewline()
				fmt.Println(newTable("Reference", "From", "", "To").Rows(rows...).Render())
			}
			if dangling := danglingReferences(s); len(dangling) > 0 {
				printNewline()
				for _, r := range dangling {
					fmt.Println(StyleWarning.Render("! unresolved reference " + r))
				}
			}
			return nil
		},
	}
}

// tableRows lists each table with its column count, primary key, group and
// reference degree.
func tableRows(s *schema.Schema) [][]string {
	groupOf := make(map[string]string)
	for _, g := range s.ResolveGroups() {
		for _, m := range g.Tables {
			groupOf[m.ID()] = g.Name
		}
	}
	in := make(map[string]int)
	out := make(map[string]int)
	for _, r := range s.References {
		out[r.From.TableID()]++
		in[r.To.TableID()]++
	}

	rows := make([][]string, 0, len(s.Tables))
	for _, t := range s.Tables {
		var pk []string
		for _, c := range t.Columns {
			if c.PrimaryKey {
				pk = append(pk, c.Name)
			}
		}
		rows = append(rows, []string{
			t.ID(),
			strconv.Itoa(len(t.Columns)),
			orDash(strings.Join(pk, ", ")),
			orDash(groupOf[t.ID()]),
			strconv.Itoa(in[t.ID()]),
			strconv.Itoa(out[t.ID()]),
		})
	}
	return rows
}

// referenceRows lists references as "orders(user_id)  *—1  users(id)".
func referenceRows(s *schema.Schema) [][]string {
	rows := make([][]string, 0, len(s.References))
	for i, r := range s.References {
		rows = append(rows, []string{
			r.ID(i),
			endpointLabel(r.From),
			cardinalityMark(r.From.Cardinality) + "—" + cardinalityMark(r.To.Cardinality),
			endpointLabel(r.To),
		})
	}
	return rows
}

// danglingReferences names references whose endpoints are not tables of s.
// Layout skips them.
func danglingReferences(s *schema.Schema) []string {
	idx := s.Index()
	var out []string
	for i, r := range s.References {
		if idx[r.From.TableID()] == nil || idx[r.To.TableID()] == nil {
			out = append(out, fmt.Sprintf("%s (%s -> %s)", r.ID(i), r.From.TableID(), r.To.TableID()))
		}
	}
	return out
}

func endpointLabel(e schema.Endpoint) string {
	if len(e.Columns) == 0 {
		return e.TableID()
	}
	return e.TableID() + "(" + strings.Join(e.Columns, ", ") + ")"
}

func cardinalityMark(c schema.Cardinality) string {
	switch c {
	case schema.One:
		return "1"
	case schema.Many:
		return "*"
	}
	return ""
}

func orDash(s string) string {
	if s == "" {
		return "—"
	}
	return s
}
