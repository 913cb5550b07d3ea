package molecule

// FindFunctionalGroups detects functional groups of the given kinds, or of
// every kind when none are given, from element and bond patterns. Hydrogens
// must be explicit. Groups are returned per kind in the order requested and,
// within a kind, by ascending id of the group's key atom. An atom already
// claimed by an earlier group is not reused.
func FindFunctionalGroups(m *Molecule, kinds ...Kind) []FunctionalGroup {
	if len(kinds) == 0 {
		kinds = Kinds()
	}
	claimed := make(map[int]bool)
	var out []FunctionalGroup
	for _, kind := range kinds {
		match := matchers[kind]
		if match == nil {
			continue
		}
		for id := range m.atoms {
			fg, ok := match(m, id)
			if !ok || overlaps(fg, claimed) {
				continue
			}
			for _, a := range fg.Atoms {
				claimed[a] = true
			}
			out = append(out, fg)
		}
	}
	return out
}

type matcher func(m *Molecule, id int) (FunctionalGroup, bool)

var matchers = map[Kind]matcher{
	KindAldehyde:     matchAldehyde,
	KindPrimaryAmino: matchPrimaryAmino,
	KindThiol:        matchThiol,
	KindBromo:        matchBromo,
	KindThioacid:     matchThioacid,
}

// neighborhood splits the neighbours of an atom by element.
type neighborhood struct {
	all   []int
	byEl  map[Element][]int
	other []int
}

func (m *Molecule) neighborhood(id int, keep ...Element) neighborhood {
	n := neighborhood{all: m.Neighbors(id), byEl: make(map[Element][]int)}
	for _, nb := range n.all {
		el := m.atoms[nb].Element
		n.byEl[el] = append(n.byEl[el], nb)
	}
	for _, nb := range n.all {
		isKept := false
		for _, k := range keep {
			if m.atoms[nb].Element == k {
				isKept = true
				break
			}
		}
		if !isKept {
			n.other = append(n.other, nb)
		}
	}
	return n
}

func (m *Molecule) doubleBonded(a, b int) bool {
	bond, ok := m.BondBetween(a, b)
	return ok && bond.Order == 2
}

// R-C(=O)-H
func matchAldehyde(m *Molecule, id int) (FunctionalGroup, bool) {
	if m.atoms[id].Element != "C" {
		return FunctionalGroup{}, false
	}
	n := m.neighborhood(id, "O", "H")
	if len(n.all) != 3 || len(n.byEl["O"]) != 1 || len(n.byEl["H"]) != 1 || len(n.other) != 1 {
		return FunctionalGroup{}, false
	}
	o := n.byEl["O"][0]
	if !m.doubleBonded(id, o) || len(m.Neighbors(o)) != 1 {
		return FunctionalGroup{}, false
	}
	return NewAldehyde(id, o, n.byEl["H"][0], n.other[0]), true
}

// R-NH2
func matchPrimaryAmino(m *Molecule, id int) (FunctionalGroup, bool) {
	if m.atoms[id].Element != "N" {
		return FunctionalGroup{}, false
	}
	n := m.neighborhood(id, "H")
	if len(n.all) != 3 || len(n.byEl["H"]) != 2 || len(n.other) != 1 {
		return FunctionalGroup{}, false
	}
	return NewPrimaryAmino(id, n.byEl["H"][0], n.byEl["H"][1], n.other[0]), true
}

// R-SH
func matchThiol(m *Molecule, id int) (FunctionalGroup, bool) {
	if m.atoms[id].Element != "S" {
		return FunctionalGroup{}, false
	}
	n := m.neighborhood(id, "H")
	if len(n.all) != 2 || len(n.byEl["H"]) != 1 || len(n.other) != 1 {
		return FunctionalGroup{}, false
	}
	if m.atoms[n.other[0]].Element == "C" && isCarbonyl(m, n.other[0]) {
		// thioacid sulfur
		return FunctionalGroup{}, false
	}
	return NewThiol(id, n.byEl["H"][0], n.other[0]), true
}

// R-Br
func matchBromo(m *Molecule, id int) (FunctionalGroup, bool) {
	if m.atoms[id].Element != "Br" {
		return FunctionalGroup{}, false
	}
	nbs := m.Neighbors(id)
	if len(nbs) != 1 {
		return FunctionalGroup{}, false
	}
	return NewBromo(id, nbs[0]), true
}

// R-C(=O)-SH
func matchThioacid(m *Molecule, id int) (FunctionalGroup, bool) {
	if m.atoms[id].Element != "C" {
		return FunctionalGroup{}, false
	}
	n := m.neighborhood(id, "O", "S")
	if len(n.all) != 3 || len(n.byEl["O"]) != 1 || len(n.byEl["S"]) != 1 || len(n.other) != 1 {
		return FunctionalGroup{}, false
	}
	o, s := n.byEl["O"][0], n.byEl["S"][0]
	if !m.doubleBonded(id, o) {
		return FunctionalGroup{}, false
	}
	sn := m.neighborhood(s, "H")
	if len(sn.all) != 2 || len(sn.byEl["H"]) != 1 {
		return FunctionalGroup{}, false
	}
	return NewThioacid(id, o, s, sn.byEl["H"][0], n.other[0]), true
}

func isCarbonyl(m *Molecule, c int) bool {
	for _, nb := range m.Neighbors(c) {
		if m.atoms[nb].Element == "O" && m.doubleBonded(c, nb) {
			return true
		}
	}
	return false
}

func overlaps(fg FunctionalGroup, claimed map[int]bool) bool {
	for _, id := range fg.Bonders() {
		if claimed[id] {
			return true
		}
	}
	for _, id := range fg.Deleters() {
		if claimed[id] {
			return true
		}
	}
	return false
}
