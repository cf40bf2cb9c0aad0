package dot

import (
	"fmt"

	"github.com/goccy/go-graphviz"
)

// cgraphAttrs reads attributes from a parsed Graphviz graph.
type cgraphAttrs struct {
	g *graphviz.Graph
}

func (c *cgraphAttrs) GraphBB() string { return c.g.GetStr("bb") }

func (c *cgraphAttrs) ClusterBB(name string) (string, error) {
	sub, err := c.g.SubGraphByName(name)
	if err != nil {
		return "", err
	}
	if sub == nil {
		return "", fmt.Errorf("no cluster %q in output", name)
	}
	return sub.GetStr("bb"), nil
}

func (c *cgraphAttrs) NodePos(name string) (string, error) {
	n, err := c.g.NodeByName(name)
	if err != nil {
		return "", err
	}
	if n == nil {
		return "", fmt.Errorf("no node %q in output", name)
	}
	return n.GetStr("pos"), nil
}

func (c *cgraphAttrs) EdgePos() (map[string]string, error) {
	out := make(map[string]string)
	n, err := c.g.FirstNode()
	for n != nil && err == nil {
		var e *graphviz.Edge
		e, err = c.g.FirstOut(n)
		for e != nil && err == nil {
			if id := e.GetStr("id"); id != "" {
				out[id] = e.GetStr("pos")
			}
			e, err = c.g.NextOut(e)
		}
		if err != nil {
			break
		}
		n, err = c.g.NextNode(n)
	}
	return out, err
}

var _ Attrs = (*cgraphAttrs)(nil)
