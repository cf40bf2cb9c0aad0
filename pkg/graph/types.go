package graph

import (
	"github.com/matzehuels/erdtower/pkg/geom"
)

// FormatVersion is written into every serialized layout.
const FormatVersion = 1

// =============================================================================
// Layout
// =============================================================================

// Layout is the serialization format of a computed diagram. Nodes, Edges and
// Groups describe the base layout exactly as the solver produced it;
// Displacements records drags on top of it. Renderers compose the two.
type Layout struct {
	Version   int     `json:"version" bson:"version"`
	Direction string  `json:"direction" bson:"direction"`
	Width     float64 `json:"width" bson:"width"`
	Height    float64 `json:"height" bson:"height"`

	Nodes  []Node  `json:"nodes" bson:"nodes"`
	Edges  []Edge  `json:"edges" bson:"edges"`
	Groups []Group `json:"groups,omitempty" bson:"groups,omitempty"`

	Displacements []Displacement `json:"displacements,omitempty" bson:"displacements,omitempty"`
}

// Node is a positioned table.
type Node struct {
	ID     string  `json:"id" bson:"id"`
	X      float64 `json:"x" bson:"x"`
	Y      float64 `json:"y" bson:"y"`
	Width  float64 `json:"width" bson:"width"`
	Height float64 `json:"height" bson:"height"`
}

// Edge is a routed reference. Ref indexes the schema's reference list.
type Edge struct {
	ID     string       `json:"id" bson:"id"`
	Ref    int          `json:"ref" bson:"ref"`
	Source string       `json:"source" bson:"source"`
	Target string       `json:"target" bson:"target"`
	Points []geom.Point `json:"points" bson:"points"`
}

// Group is the box around a table group.
type Group struct {
	Name   string  `json:"name" bson:"name"`
	X      float64 `json:"x" bson:"x"`
	Y      float64 `json:"y" bson:"y"`
	Width  float64 `json:"width" bson:"width"`
	Height float64 `json:"height" bson:"height"`
}

// Displacement is the drag offset of one table.
type Displacement struct {
	Node string  `json:"node" bson:"node"`
	DX   float64 `json:"dx" bson:"dx"`
	DY   float64 `json:"dy" bson:"dy"`
}
