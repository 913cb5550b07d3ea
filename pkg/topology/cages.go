package topology

func twoPlusThree() *Definition {
	return &Definition{
		Name:        "two_plus_three",
		Description: "trigonal bipyramid cage: 2 tritopic vertices, 3 ditopic linkers",
		Vertices: []VertexDef{
			{Position: [3]float64{0, 0, 1}},
			{Position: [3]float64{0, 0, -1}},
		},
		Edges: []EdgeDef{
			{Vertices: []int{0, 1}, Position: &[3]float64{1, 0, 0}},
			{Vertices: []int{0, 1}, Position: &[3]float64{-0.5, sqrt3 / 2, 0}},
			{Vertices: []int{0, 1}, Position: &[3]float64{-0.5, -sqrt3 / 2, 0}},
		},
	}
}

func fourPlusSix() *Definition {
	return &Definition{
		Name:        "four_plus_six",
		Description: "tetrahedral cage: 4 tritopic vertices, 6 ditopic linkers",
		Vertices: []VertexDef{
			{Position: [3]float64{1, 1, 1}},
			{Position: [3]float64{1, -1, -1}},
			{Position: [3]float64{-1, 1, -1}},
			{Position: [3]float64{-1, -1, 1}},
		},
		Edges: []EdgeDef{
			{Vertices: []int{0, 1}},
			{Vertices: []int{0, 2}},
			{Vertices: []int{0, 3}},
			{Vertices: []int{1, 2}},
			{Vertices: []int{1, 3}},
			{Vertices: []int{2, 3}},
		},
	}
}

func eightPlusTwelve() *Definition {
	d := &Definition{
		Name:        "eight_plus_twelve",
		Description: "cubic cage: 8 tritopic vertices, 12 ditopic linkers",
	}
	for _, x := range []float64{-1, 1} {
		for _, y := range []float64{-1, 1} {
			for _, z := range []float64{-1, 1} {
				d.Vertices = append(d.Vertices, VertexDef{Position: [3]float64{x, y, z}})
			}
		}
	}
	// corners differing in exactly one coordinate share a cube edge
	for i := range d.Vertices {
		for j := i + 1; j < len(d.Vertices); j++ {
			diff := 0
			for k := range 3 {
				if d.Vertices[i].Position[k] != d.Vertices[j].Position[k] {
					diff++
				}
			}
			if diff == 1 {
				d.Edges = append(d.Edges, EdgeDef{Vertices: []int{i, j}})
			}
		}
	}
	return d
}

func fourPlusFour() *Definition {
	return &Definition{
		Name:        "four_plus_four",
		Description: "linkerless cube cage: two interpenetrating sets of 4 tritopic vertices",
		Linkerless:  true,
		Vertices: []VertexDef{
			{Position: [3]float64{1, 1, 1}},
			{Position: [3]float64{1, -1, -1}},
			{Position: [3]float64{-1, 1, -1}},
			{Position: [3]float64{-1, -1, 1}},
			{Position: [3]float64{-1, -1, -1}},
			{Position: [3]float64{-1, 1, 1}},
			{Position: [3]float64{1, -1, 1}},
			{Position: [3]float64{1, 1, -1}},
		},
		Edges: []EdgeDef{
			{Vertices: []int{0, 5}},
			{Vertices: []int{0, 6}},
			{Vertices: []int{0, 7}},
			{Vertices: []int{1, 4}},
			{Vertices: []int{1, 6}},
			{Vertices: []int{1, 7}},
			{Vertices: []int{2, 4}},
			{Vertices: []int{2, 5}},
			{Vertices: []int{2, 7}},
			{Vertices: []int{3, 4}},
			{Vertices: []int{3, 5}},
			{Vertices: []int{3, 6}},
		},
	}
}
