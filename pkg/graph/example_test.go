package graph_test

import (
	"fmt"

	"github.com/matzehuels/erdtower/pkg/drag"
	"github.com/matzehuels/erdtower/pkg/geom"
	"github.com/matzehuels/erdtower/pkg/graph"
)

func ExampleMarshalDisplacements() {
	m := drag.Map{}
	m.Set("public.users", geom.Pt(50, 0))
	m.Set("public.orders", geom.Pt(0, -20))

	data, err := graph.MarshalDisplacements(m)
	if err != nil {
		fmt.Println("Error:", err)
		return
	}
	fmt.Println(string(data))
	// Output:
	// [{"node":"public.orders","dx":0,"dy":-20},{"node":"public.users","dx":50,"dy":0}]
}

func ExampleUnmarshalDisplacements() {
	m, err := graph.UnmarshalDisplacements([]byte(`[{"node":"public.users","dx":12,"dy":8}]`))
	if err != nil {
		fmt.Println("Error:", err)
		return
	}
	fmt.Println(m.Get("public.users"))
	// Output:
	// {12 8}
}
