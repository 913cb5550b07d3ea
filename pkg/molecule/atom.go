package molecule

import "strings"

// Element is a chemical element symbol such as "C" or "Br".
type Element string

// elements maps known elements to their standard atomic mass.
var elements = map[Element]float64{
	"H":  1.008,
	"B":  10.81,
	"C":  12.011,
	"N":  14.007,
	"O":  15.999,
	"F":  18.998,
	"Si": 28.085,
	"P":  30.974,
	"S":  32.06,
	"Cl": 35.45,
	"Br": 79.904,
	"I":  126.904,
}

// ParseElement normalizes a symbol read from a file ("BR", "br") to its
// canonical capitalization ("Br").
func ParseElement(symbol string) Element {
	s := strings.TrimSpace(symbol)
	if s == "" {
		return ""
	}
	return Element(strings.ToUpper(s[:1]) + strings.ToLower(s[1:]))
}

// Mass returns the standard atomic mass, or 0 for unknown elements.
func (e Element) Mass() float64 {
	return elements[e]
}

// Known reports whether the element is in the element table.
func (e Element) Known() bool {
	_, ok := elements[e]
	return ok
}

// Atom is an atom of a molecule. ID is its index in the molecule.
type Atom struct {
	ID      int     `json:"id" bson:"id"`
	Element Element `json:"element" bson:"element"`
	Charge  int     `json:"charge,omitempty" bson:"charge,omitempty"`
}
