package cli

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/matzehuels/erdtower/pkg/diagram"
	"github.com/matzehuels/erdtower/pkg/schema"
	"github.com/matzehuels/erdtower/pkg/solver"
)

const shopYAML = `name: shop
tables:
  - name: users
    columns:
      - {name: id, type: int, pk: true}
      - {name: email, type: text, unique: true}
  - name: orders
    columns:
      - {name: id, type: int, pk: true}
      - {name: user_id, type: int}
references:
  - from: {table: orders, columns: [user_id], cardinality: many}
    to: {table: users, columns: [id], cardinality: one}
`

// rowSolver places root children in a row; routes come from extraction's
// port-to-port fallback.
var rowSolver = solver.Func(func(_ context.Context, in *solver.Graph) (*solver.Graph, error) {
	g := in.Clone()
	x := 20.0
	for _, n := range g.Children {
		n.X, n.Y = x, 20
		x += n.Width + 100
	}
	g.Width, g.Height = x, 400
	return g, nil
})

func writeSchema(t *testing.T, dir string) string {
	t.Helper()
	path := filepath.Join(dir, "shop.yaml")
	if err := os.WriteFile(path, []byte(shopYAML), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func shopSchema(t *testing.T) *schema.Schema {
	t.Helper()
	s, err := schema.Decode([]byte(shopYAML), schema.FormatYAML)
	if err != nil {
		t.Fatalf("decode schema: %v", err)
	}
	return s
}

func computeLayout(t *testing.T) *diagram.Layout {
	t.Helper()
	l, err := diagram.Compute(context.Background(), rowSolver, shopSchema(t), solver.Right)
	if err != nil {
		t.Fatalf("Compute: %v", err)
	}
	return l
}
