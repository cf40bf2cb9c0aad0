// Package pkg provides the core libraries for erdtower, an entity-relationship
// diagram layout and interactive editing engine.
//
// # Overview
//
// erdtower turns a database schema (tables, columns, references, groups) into
// a positioned diagram: fixed-size table boxes, orthogonal relationship routes
// anchored on column rows, and group frames. A layered graph solver places
// everything once; afterwards tables can be dragged without running the
// solver again, and routes follow the dragged tables. The pkg directory is
// organized into these areas:
//
//  1. [schema], [introspect] - Schema model, YAML/TOML/JSON files, live databases
//  2. [diagram], [solver] - Layout problem construction, solving, extraction
//  3. [drag], [geom] - Displacements, route adjustment, geometry helpers
//  4. [render], [graph] - SVG/PNG/PDF drawing and the JSON wire format
//  5. [pipeline], [cache], [session] - Orchestration, caching, editing sessions
//
// # Architecture
//
// The typical data flow:
//
//	schema file / database
//	         ↓
//	    [diagram] Build (tables → solver graph with ports and groups)
//	         ↓
//	    [solver] (Graphviz dot via [solver/dot])
//	         ↓
//	    [diagram] Extract (absolute boxes, routes, group frames)
//	         ↓
//	    [drag] (displacements composed onto the base layout)
//	         ↓
//	    SVG/PNG/PDF/JSON output
//
// # Quick Start
//
//	s, _ := schema.ReadFile("shop.yaml")
//	base, _ := diagram.Compute(ctx, dot.New(nil), s, solver.Right)
//
//	e := drag.NewEngine(base)
//	_ = e.Start("public.users")
//	_ = e.Move(geom.Pt(40, -10))
//	e.End()
//
//	svg, _ := pipeline.RenderSVG(s, base, pipeline.Options{
//	    Displacements: e.Displacements(),
//	})
//
// # Testing
//
//	go test ./...          # All tests
//	go test -short ./...   # Skip tests that run Graphviz
//
// [schema]: https://pkg.go.dev/github.com/matzehuels/erdtower/pkg/schema
// [introspect]: https://pkg.go.dev/github.com/matzehuels/erdtower/pkg/introspect
// [diagram]: https://pkg.go.dev/github.com/matzehuels/erdtower/pkg/diagram
// [solver]: https://pkg.go.dev/github.com/matzehuels/erdtower/pkg/solver
// [solver/dot]: https://pkg.go.dev/github.com/matzehuels/erdtower/pkg/solver/dot
// [drag]: https://pkg.go.dev/github.com/matzehuels/erdtower/pkg/drag
// [geom]: https://pkg.go.dev/github.com/matzehuels/erdtower/pkg/geom
// [render]: https://pkg.go.dev/github.com/matzehuels/erdtower/pkg/render
// [graph]: https://pkg.go.dev/github.com/matzehuels/erdtower/pkg/graph
// [pipeline]: https://pkg.go.dev/github.com/matzehuels/erdtower/pkg/pipeline
// [cache]: https://pkg.go.dev/github.com/matzehuels/erdtower/pkg/cache
// [session]: https://pkg.go.dev/github.com/matzehuels/erdtower/pkg/session
package pkg
