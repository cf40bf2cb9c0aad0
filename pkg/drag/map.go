package drag

import (
	"maps"
	"sort"

	"github.com/matzehuels/erdtower/pkg/geom"
)

// Map holds per-table displacements keyed by table identity. Zero
// displacements are never stored, so an empty map means nothing moved.
type Map map[string]geom.Point

// Get returns the displacement of id, or the zero point.
func (m Map) Get(id string) geom.Point { return m[id] }

// Set replaces the displacement of id. Setting the zero point removes it.
func (m Map) Set(id string, d geom.Point) {
	if d.IsZero() {
		delete(m, id)
		return
	}
	m[id] = d
}

// Add adds d to the displacement of id.
func (m Map) Add(id string, d geom.Point) { m.Set(id, m[id].Add(d)) }

// Clear drops the displacement of id.
func (m Map) Clear(id string) { delete(m, id) }

// Clone returns an independent copy. Cloning a nil map yields an empty one.
func (m Map) Clone() Map {
	out := make(Map, len(m))
	maps.Copy(out, m)
	return out
}

// IDs returns the displaced table identities in sorted order.
func (m Map) IDs() []string {
	ids := make([]string, 0, len(m))
	for id := range m {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}
