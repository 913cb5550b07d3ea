package molecule

// DefaultBondOrder is the order of bonds formed between functional groups
// without a rule.
const DefaultBondOrder = 1

type kindPair struct{ a, b Kind }

func pairOf(a, b Kind) kindPair {
	if b < a {
		a, b = b, a
	}
	return kindPair{a, b}
}

// BondOrderRules maps unordered pairs of functional group kinds to the order
// of the bond formed when they react.
type BondOrderRules map[kindPair]int

// DefaultBondOrderRules returns the built-in rules: an aldehyde reacting with
// a primary amine forms an imine double bond.
func DefaultBondOrderRules() BondOrderRules {
	return BondOrderRules{
		pairOf(KindAldehyde, KindPrimaryAmino): 2,
	}
}

// Set records the bond order for the pair a, b in either order.
func (r BondOrderRules) Set(a, b Kind, order int) BondOrderRules {
	r[pairOf(a, b)] = order
	return r
}

// Order returns the bond order for a reaction between kinds a and b.
func (r BondOrderRules) Order(a, b Kind) int {
	if order, ok := r[pairOf(a, b)]; ok {
		return order
	}
	return DefaultBondOrder
}
