package dot

import (
	"bytes"
	"fmt"
	"strconv"
	"strings"

	"github.com/matzehuels/erdtower/pkg/geom"
	"github.com/matzehuels/erdtower/pkg/solver"
)

// pointsPerInch converts layout units to Graphviz inches. One layout unit is
// one Graphviz point.
const pointsPerInch = 72

// ToDOT converts a layout problem to Graphviz DOT source. Leaf nodes become
// fixed-size boxes named by [NodeNames], compound nodes become clusters
// named by [ClusterName], and every edge carries its index as id="e<i>" so
// routes can be matched back after layout. Node IDs never appear in the
// source, so any identifier lays out.
func ToDOT(g *solver.Graph) string {
	names := NodeNames(g)
	var buf bytes.Buffer
	buf.WriteString("digraph erd {\n")
	fmt.Fprintf(&buf, "  rankdir=%s;\n", RankDir(g.Options.Direction))
	buf.WriteString("  splines=ortho;\n")
	buf.WriteString("  newrank=true;\n")
	fmt.Fprintf(&buf, "  nodesep=%s;\n", inches(g.Options.NodeSpacing))
	fmt.Fprintf(&buf, "  ranksep=%s;\n", inches(g.Options.LayerSpacing))
	buf.WriteString("  node [shape=box, fixedsize=true, label=\"\"];\n")
	buf.WriteString("  edge [dir=none];\n")
	buf.WriteString("\n")

	writeNodes(&buf, g.Children, names, "", "  ")

	buf.WriteString("\n")
	for i, e := range g.Edges {
		fmt.Fprintf(&buf, "  %s -> %s [id=%q];\n", names[e.Source], names[e.Target], edgeID(i))
	}
	buf.WriteString("}\n")
	return buf.String()
}

func writeNodes(buf *bytes.Buffer, nodes []*solver.Node, names map[string]string, path, indent string) {
	for i, n := range nodes {
		if !n.Compound() {
			fmt.Fprintf(buf, "%s%s [width=%s, height=%s];\n", indent, names[n.ID], inches(n.Width), inches(n.Height))
			continue
		}
		name := ClusterName(path, i)
		fmt.Fprintf(buf, "%ssubgraph %q {\n", indent, name)
		pad := solver.Padding{}
		if n.Options != nil {
			pad = n.Options.Padding
		}
		fmt.Fprintf(buf, "%s  label=%s;\n", indent, quote(n.Label))
		fmt.Fprintf(buf, "%s  labelloc=t;\n", indent)
		fmt.Fprintf(buf, "%s  labeljust=l;\n", indent)
		fmt.Fprintf(buf, "%s  fontsize=%s;\n", indent, num(max(8, pad.Top-pad.Left)))
		fmt.Fprintf(buf, "%s  margin=%s;\n", indent, num(max(pad.Left, pad.Right, pad.Bottom)))
		writeNodes(buf, n.Children, names, name, indent+"  ")
		fmt.Fprintf(buf, "%s}\n", indent)
	}
}

// NodeNames assigns every leaf node of g a DOT name, n0, n1, ... in walk
// order, keyed by node ID.
func NodeNames(g *solver.Graph) map[string]string {
	names := make(map[string]string)
	g.Walk(func(n, _ *solver.Node, _ geom.Point) {
		if !n.Compound() {
			names[n.ID] = "n" + strconv.Itoa(len(names))
		}
	})
	return names
}

// quote writes s as a DOT string literal. Backslashes are doubled so label
// escapes such as \N stay literal text.
func quote(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `"`, `\"`, "\n", " ", "\r", " ")
	return `"` + r.Replace(s) + `"`
}

// ClusterName names the cluster of the compound node at index i under the
// cluster path parent ("" for the root).
func ClusterName(parent string, i int) string {
	if parent == "" {
		return "cluster_" + strconv.Itoa(i)
	}
	return parent + "_" + strconv.Itoa(i)
}

// RankDir maps a direction to the Graphviz rankdir value.
func RankDir(d solver.Direction) string {
	switch d {
	case solver.Left:
		return "RL"
	case solver.Down:
		return "TB"
	case solver.Up:
		return "BT"
	}
	return "LR"
}

func edgeID(i int) string { return "e" + strconv.Itoa(i) }

func inches(v float64) string { return num(v / pointsPerInch) }

func num(v float64) string { return strconv.FormatFloat(v, 'f', -1, 64) }
