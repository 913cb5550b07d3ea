package topology

import (
	"maps"
	"slices"
	"strings"

	"github.com/matzehuels/molforge/pkg/errors"
)

const sqrt3 = 1.7320508075688772

var builtins = map[string]func() *Definition{
	"two_plus_three":       twoPlusThree,
	"four_plus_six":        fourPlusSix,
	"eight_plus_twelve":    eightPlusTwelve,
	"four_plus_four":       fourPlusFour,
	"honeycomb":            honeycomb,
	"hexagonal":            hexagonal,
	"kagome":               kagome,
	"square":               square,
	"linkerless_honeycomb": linkerlessHoneycomb,
}

// BuiltinNames returns the names of the built-in topologies, sorted.
func BuiltinNames() []string {
	return slices.Sorted(maps.Keys(builtins))
}

// canonicalName maps "FourPlusSix", "four-plus-six" and "four_plus_six" to
// the same registry key.
func canonicalName(name string) string {
	var b strings.Builder
	for i, r := range strings.TrimSpace(name) {
		switch {
		case r == '-' || r == ' ':
			b.WriteByte('_')
		case r >= 'A' && r <= 'Z':
			if i > 0 && !strings.HasSuffix(b.String(), "_") {
				b.WriteByte('_')
			}
			b.WriteRune(r + 'a' - 'A')
		default:
			b.WriteRune(r)
		}
	}
	return b.String()
}

// Builtin returns a fresh copy of a built-in topology definition.
func Builtin(name string) (*Definition, error) {
	fn, ok := builtins[canonicalName(name)]
	if !ok {
		return nil, errors.New(errors.ErrCodeUnknownTopology, "unknown topology %q (available: %s)",
			name, strings.Join(BuiltinNames(), ", "))
	}
	return fn(), nil
}

// BuildBuiltin builds a built-in topology. size and periodic only matter
// for lattice topologies.
func BuildBuiltin(name string, size [3]int, periodic bool) (*Graph, error) {
	d, err := Builtin(name)
	if err != nil {
		return nil, err
	}
	return d.Build(size, periodic)
}
