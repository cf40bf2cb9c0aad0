package graph

import (
	"encoding/json"
	"io"
	"os"

	"github.com/matzehuels/erdtower/pkg/errors"
	"github.com/matzehuels/erdtower/pkg/geom"
)

// =============================================================================
// Layout Serialization API
// =============================================================================

// MarshalLayout serializes a Layout to pretty-printed JSON bytes.
func MarshalLayout(l Layout) ([]byte, error) {
	if l.Version == 0 {
		l.Version = FormatVersion
	}
	return json.MarshalIndent(l, "", "  ")
}

// UnmarshalLayout deserializes and validates JSON bytes.
func UnmarshalLayout(data []byte) (Layout, error) {
	var l Layout
	if err := json.Unmarshal(data, &l); err != nil {
		return Layout{}, errors.Wrap(errors.ErrCodeInvalidFormat, err, "unmarshal layout")
	}
	if err := l.Validate(); err != nil {
		return Layout{}, err
	}
	return l, nil
}

// ReadLayout decodes a layout from r.
func ReadLayout(r io.Reader) (Layout, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return Layout{}, errors.Wrap(errors.ErrCodeInvalidInput, err, "read layout")
	}
	return UnmarshalLayout(data)
}

// WriteLayoutFile writes a Layout to a JSON file.
func WriteLayoutFile(l Layout, path string) error {
	data, err := MarshalLayout(l)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

// ReadLayoutFile reads a Layout from a JSON file.
func ReadLayoutFile(path string) (Layout, error) {
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return Layout{}, errors.New(errors.ErrCodeFileNotFound, "layout file %s not found", path)
	}
	if err != nil {
		return Layout{}, errors.Wrap(errors.ErrCodeInvalidPath, err, "read %s", path)
	}
	return UnmarshalLayout(data)
}

// Validate checks that node IDs are unique, every edge connects known nodes
// with an orthogonal polyline of at least two points, and displacements
// name known nodes.
func (l *Layout) Validate() error {
	if l.Version > FormatVersion {
		return errors.New(errors.ErrCodeUnsupported, "layout format version %d is newer than %d", l.Version, FormatVersion)
	}
	nodes := make(map[string]bool, len(l.Nodes))
	for _, n := range l.Nodes {
		if n.ID == "" {
			return errors.New(errors.ErrCodeInvalidFormat, "node without id")
		}
		if nodes[n.ID] {
			return errors.New(errors.ErrCodeInvalidFormat, "duplicate node %q", n.ID)
		}
		nodes[n.ID] = true
	}
	for _, e := range l.Edges {
		if !nodes[e.Source] || !nodes[e.Target] {
			return errors.New(errors.ErrCodeInvalidFormat, "edge %q references unknown node", e.ID)
		}
		if !geom.IsOrthogonal(e.Points) {
			return errors.New(errors.ErrCodeInvalidFormat, "edge %q is not an orthogonal polyline", e.ID)
		}
	}
	for _, d := range l.Displacements {
		if !nodes[d.Node] {
			return errors.New(errors.ErrCodeInvalidFormat, "displacement for unknown node %q", d.Node)
		}
	}
	return nil
}
