// Package graph provides the serialization types for computed ER diagram
// layouts.
//
// This package defines the canonical wire format for erdtower's layout data,
// used for JSON files, API responses, caching and session storage.
//
// # Architecture
//
// The package sits at the serialization boundary between the internal
// representation and external formats:
//
//   - [Layout]: Serialization type (this package)
//   - pkg/diagram.Layout: Internal layout (positions, polylines, groups)
//   - pkg/drag.Map: Internal displacement map
//
// Use [FromDiagram]/[ToDiagram] and [FromDisplacements]/[ToDisplacements]
// to convert between them.
//
// # Core Types
//
//   - [Layout]: A base layout plus optional drag displacements
//   - [Node], [Edge], [Group]: Positioned diagram elements
//   - [Displacement]: A dragged table and its offset
//
// # Serialization
//
//	data, err := graph.MarshalLayout(graph.FromDiagram(l, m))
//	l, err := graph.ReadLayoutFile("layout.json")
//
// Decoding validates structure: every edge must name existing nodes and
// carry an orthogonal polyline of at least two points. Invalid input fails
// with an INVALID_FORMAT error.
//
// All types carry both json and bson tags so the same values can be stored
// in document databases.
package graph
