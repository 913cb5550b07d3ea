package topology

func hexagonalLattice() *LatticeDef {
	return &LatticeDef{
		A: [3]float64{1, 0, 0},
		B: [3]float64{0.5, sqrt3 / 2, 0},
		C: [3]float64{0, 0, 1},
	}
}

func honeycomb() *Definition {
	return &Definition{
		Name:        "honeycomb",
		Description: "2D honeycomb framework: 2 tritopic vertices and 3 ditopic linkers per cell",
		Fractional:  true,
		Lattice:     hexagonalLattice(),
		Vertices: []VertexDef{
			{Position: [3]float64{1.0 / 3, 1.0 / 3, 0}},
			{Position: [3]float64{2.0 / 3, 2.0 / 3, 0}},
		},
		Edges: []EdgeDef{
			{Vertices: []int{0, 1}},
			{Vertices: []int{0, 1}, Offset: [3]int{-1, 0, 0}},
			{Vertices: []int{0, 1}, Offset: [3]int{0, -1, 0}},
		},
	}
}

func linkerlessHoneycomb() *Definition {
	d := honeycomb()
	d.Name = "linkerless_honeycomb"
	d.Description = "2D honeycomb framework with tritopic vertices bonded directly"
	d.Linkerless = true
	return d
}

func hexagonal() *Definition {
	return &Definition{
		Name:        "hexagonal",
		Description: "2D hexagonal framework: 4 hexatopic vertices and 12 ditopic linkers per cell",
		Fractional:  true,
		Lattice:     hexagonalLattice(),
		Vertices: []VertexDef{
			{Position: [3]float64{0.25, 0.25, 0}},
			{Position: [3]float64{0.25, 0.75, 0}},
			{Position: [3]float64{0.75, 0.25, 0}},
			{Position: [3]float64{0.75, 0.75, 0}},
		},
		Edges: []EdgeDef{
			{Vertices: []int{0, 2}},
			{Vertices: []int{0, 1}},
			{Vertices: []int{0, 3}, Offset: [3]int{0, -1, 0}},
			{Vertices: []int{1, 3}},
			{Vertices: []int{1, 0}, Offset: [3]int{0, 1, 0}},
			{Vertices: []int{1, 2}},
			{Vertices: []int{2, 0}, Offset: [3]int{1, 0, 0}},
			{Vertices: []int{2, 3}},
			{Vertices: []int{2, 1}, Offset: [3]int{1, -1, 0}},
			{Vertices: []int{3, 1}, Offset: [3]int{1, 0, 0}},
			{Vertices: []int{3, 2}, Offset: [3]int{0, 1, 0}},
			{Vertices: []int{3, 0}, Offset: [3]int{1, 0, 0}},
		},
	}
}

func kagome() *Definition {
	return &Definition{
		Name:        "kagome",
		Description: "2D kagome framework: 3 tetratopic vertices and 6 ditopic linkers per cell",
		Fractional:  true,
		Lattice:     hexagonalLattice(),
		Vertices: []VertexDef{
			{Position: [3]float64{0.5, 0, 0}},
			{Position: [3]float64{0.5, 0.5, 0}},
			{Position: [3]float64{0, 0.5, 0}},
		},
		Edges: []EdgeDef{
			{Vertices: []int{0, 1}},
			{Vertices: []int{0, 2}},
			{Vertices: []int{1, 2}},
			{Vertices: []int{0, 1}, Offset: [3]int{0, -1, 0}},
			{Vertices: []int{0, 2}, Offset: [3]int{1, -1, 0}},
			{Vertices: []int{1, 2}, Offset: [3]int{1, 0, 0}},
		},
	}
}

func square() *Definition {
	return &Definition{
		Name:        "square",
		Description: "2D square framework: 1 tetratopic vertex and 2 ditopic linkers per cell",
		Fractional:  true,
		Lattice: &LatticeDef{
			A: [3]float64{1, 0, 0},
			B: [3]float64{0, 1, 0},
			C: [3]float64{0, 0, 1},
		},
		Vertices: []VertexDef{
			{Position: [3]float64{0.5, 0.5, 0}},
		},
		Edges: []EdgeDef{
			{Vertices: []int{0, 0}, Offset: [3]int{1, 0, 0}},
			{Vertices: []int{0, 0}, Offset: [3]int{0, 1, 0}},
		},
	}
}
