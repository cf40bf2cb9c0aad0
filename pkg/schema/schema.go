// Package schema defines the typed relational schema model that erdtower
// draws: tables with ordered columns, foreign-key references between them,
// enums, and named groups of tables.
//
// A Schema is treated as immutable once handed to the diagram builder. Column
// order and group membership are fixed for the lifetime of one layout pass;
// changing either means building a new graph and running the solver again.
//
// Schemas are usually decoded from a JSON, YAML or TOML document (see
// [ReadFile] and [Decode]) or read from a live database by the introspect
// package.
package schema

import (
	"fmt"

	"github.com/matzehuels/erdtower/pkg/errors"
)

// DefaultNamespace is the namespace assumed for tables and endpoints that do
// not name one.
const DefaultNamespace = "public"

// Cardinality marks one side of a reference.
type Cardinality string

const (
	One  Cardinality = "one"
	Many Cardinality = "many"
)

// Schema is the complete model of one diagram.
type Schema struct {
	Name       string      `json:"name,omitempty" yaml:"name,omitempty" toml:"name,omitempty"`
	Tables     []Table     `json:"tables" yaml:"tables" toml:"tables"`
	References []Reference `json:"references,omitempty" yaml:"references,omitempty" toml:"references,omitempty"`
	Enums      []Enum      `json:"enums,omitempty" yaml:"enums,omitempty" toml:"enums,omitempty"`
	Groups     []Group     `json:"groups,omitempty" yaml:"groups,omitempty" toml:"groups,omitempty"`
}

// Table is a database table drawn as one box.
type Table struct {
	Name      string   `json:"name" yaml:"name" toml:"name"`
	Namespace string   `json:"namespace,omitempty" yaml:"namespace,omitempty" toml:"namespace,omitempty"`
	Columns   []Column `json:"columns" yaml:"columns" toml:"columns"`
	Note      string   `json:"note,omitempty" yaml:"note,omitempty" toml:"note,omitempty"`
	Color     string   `json:"color,omitempty" yaml:"color,omitempty" toml:"color,omitempty"`
}

// ID returns the table identity, namespace.name.
func (t Table) ID() string { return TableID(t.Namespace, t.Name) }

// Column returns the index of the named column, or -1.
func (t Table) Column(name string) int {
	for i, c := range t.Columns {
		if c.Name == name {
			return i
		}
	}
	return -1
}

// Column is one row of a table box.
type Column struct {
	Name       string `json:"name" yaml:"name" toml:"name"`
	Type       string `json:"type" yaml:"type" toml:"type"`
	PrimaryKey bool   `json:"pk,omitempty" yaml:"pk,omitempty" toml:"pk,omitempty"`
	Unique     bool   `json:"unique,omitempty" yaml:"unique,omitempty" toml:"unique,omitempty"`
	NotNull    bool   `json:"not_null,omitempty" yaml:"not_null,omitempty" toml:"not_null,omitempty"`
	Increment  bool   `json:"increment,omitempty" yaml:"increment,omitempty" toml:"increment,omitempty"`
	Default    string `json:"default,omitempty" yaml:"default,omitempty" toml:"default,omitempty"`
	Note       string `json:"note,omitempty" yaml:"note,omitempty" toml:"note,omitempty"`
}

// Endpoint is one side of a reference.
type Endpoint struct {
	Namespace   string      `json:"namespace,omitempty" yaml:"namespace,omitempty" toml:"namespace,omitempty"`
	Table       string      `json:"table" yaml:"table" toml:"table"`
	Columns     []string    `json:"columns,omitempty" yaml:"columns,omitempty" toml:"columns,omitempty"`
	Cardinality Cardinality `json:"cardinality,omitempty" yaml:"cardinality,omitempty" toml:"cardinality,omitempty"`
}

// TableID returns the identity of the referenced table.
func (e Endpoint) TableID() string { return TableID(e.Namespace, e.Table) }

// Reference is a directional foreign-key relationship From -> To.
type Reference struct {
	Name string   `json:"name,omitempty" yaml:"name,omitempty" toml:"name,omitempty"`
	From Endpoint `json:"from" yaml:"from" toml:"from"`
	To   Endpoint `json:"to" yaml:"to" toml:"to"`
}

// ID returns the reference identity: its name when set, otherwise its
// position in the schema's reference list.
func (r Reference) ID(index int) string {
	if r.Name != "" {
		return r.Name
	}
	return fmt.Sprintf("ref-%d", index)
}

// TableRef names a group member.
type TableRef struct {
	Namespace string `json:"namespace,omitempty" yaml:"namespace,omitempty" toml:"namespace,omitempty"`
	Name      string `json:"name" yaml:"name" toml:"name"`
}

// ID returns the identity of the referenced table.
func (r TableRef) ID() string { return TableID(r.Namespace, r.Name) }

// Group is a named cluster of tables drawn inside one container box.
type Group struct {
	Name   string     `json:"name" yaml:"name" toml:"name"`
	Color  string     `json:"color,omitempty" yaml:"color,omitempty" toml:"color,omitempty"`
	Note   string     `json:"note,omitempty" yaml:"note,omitempty" toml:"note,omitempty"`
	Tables []TableRef `json:"tables" yaml:"tables" toml:"tables"`
}

// Enum is carried through for rendering legends; it takes no part in layout.
type Enum struct {
	Namespace string   `json:"namespace,omitempty" yaml:"namespace,omitempty" toml:"namespace,omitempty"`
	Name      string   `json:"name" yaml:"name" toml:"name"`
	Values    []string `json:"values" yaml:"values" toml:"values"`
}

// TableID builds a table identity from a namespace and a name.
func TableID(namespace, name string) string {
	if namespace == "" {
		namespace = DefaultNamespace
	}
	return namespace + "." + name
}

// Index returns the tables keyed by identity.
func (s *Schema) Index() map[string]*Table {
	idx := make(map[string]*Table, len(s.Tables))
	for i := range s.Tables {
		idx[s.Tables[i].ID()] = &s.Tables[i]
	}
	return idx
}

// Validate checks the structural rules a schema must satisfy before it can be
// laid out: named tables and columns, unique table identities, valid colors.
// References that do not resolve are deliberately not an error here.
func (s *Schema) Validate() error {
	seen := make(map[string]bool, len(s.Tables))
	for _, t := range s.Tables {
		if err := errors.ValidateIdentifier("table", t.Name); err != nil {
			return err
		}
		if seen[t.ID()] {
			return errors.New(errors.ErrCodeInvalidSchema, "duplicate table %q", t.ID())
		}
		seen[t.ID()] = true
		if err := errors.ValidateColor(t.Color); err != nil {
			return err
		}
		for _, c := range t.Columns {
			if err := errors.ValidateIdentifier("column", c.Name); err != nil {
				return errors.Wrap(errors.ErrCodeInvalidSchema, err, "table %q", t.ID())
			}
		}
	}
	groups := make(map[string]bool, len(s.Groups))
	for _, g := range s.Groups {
		if err := errors.ValidateIdentifier("group", g.Name); err != nil {
			return err
		}
		if groups[g.Name] {
			return errors.New(errors.ErrCodeInvalidSchema, "duplicate group %q", g.Name)
		}
		groups[g.Name] = true
		if err := errors.ValidateColor(g.Color); err != nil {
			return err
		}
	}
	return nil
}

// ResolveGroups returns the groups that survive resolution against the
// current table set. Members naming unknown tables are dropped, a table
// claimed by more than one group stays with the first, and groups left with
// no members are dropped.
func (s *Schema) ResolveGroups() []Group {
	idx := s.Index()
	claimed := make(map[string]bool)
	var out []Group
	for _, g := range s.Groups {
		var members []TableRef
		for _, m := range g.Tables {
			id := m.ID()
			if idx[id] == nil || claimed[id] {
				continue
			}
			claimed[id] = true
			members = append(members, m)
		}
		if len(members) == 0 {
			continue
		}
		g.Tables = members
		out = append(out, g)
	}
	return out
}

// Clone returns a deep copy of the schema.
func (s *Schema) Clone() *Schema {
	out := &Schema{Name: s.Name}
	out.Tables = make([]Table, len(s.Tables))
	for i, t := range s.Tables {
		t.Columns = append([]Column(nil), t.Columns...)
		out.Tables[i] = t
	}
	out.References = make([]Reference, len(s.References))
	for i, r := range s.References {
		r.From.Columns = append([]string(nil), r.From.Columns...)
		r.To.Columns = append([]string(nil), r.To.Columns...)
		out.References[i] = r
	}
	out.Enums = make([]Enum, len(s.Enums))
	for i, e := range s.Enums {
		e.Values = append([]string(nil), e.Values...)
		out.Enums[i] = e
	}
	out.Groups = make([]Group, len(s.Groups))
	for i, g := range s.Groups {
		g.Tables = append([]TableRef(nil), g.Tables...)
		out.Groups[i] = g
	}
	return out
}
