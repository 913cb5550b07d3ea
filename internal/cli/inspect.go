package cli

import (
	"fmt"
	"maps"
	"path/filepath"
	"slices"
	"strconv"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	molio "github.com/matzehuels/molforge/pkg/io"
	"github.com/matzehuels/molforge/pkg/molecule"
)

// inspectCommand creates the inspect command.
func (c *CLI) inspectCommand() *cobra.Command {
	var (
		format string
		plain  bool
		groups bool
	)

	cmd := &cobra.Command{
		Use:   "inspect FILE",
		Short: "Browse the atoms and bonds of a molecule file",
		Long: `Open a molecule file in an interactive browser of its atoms and bonds.

With --plain a summary is printed instead; --groups also lists the
functional groups found when the file is read as a building block.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := args[0]
			f, err := molio.Resolve(path, molio.Format(format))
			if err != nil {
				return err
			}
			m, err := molio.Import(path, f)
			if err != nil {
				return err
			}
			c.Logger.Debug("read molecule", "path", path, "format", f, "atoms", m.NumAtoms())

			if plain {
				printMoleculeSummary(filepath.Base(path), m)
				if groups {
					return printFunctionalGroups(path, f)
				}
				return nil
			}

			_, err = tea.NewProgram(NewMoleculeModel(filepath.Base(path), m), tea.WithAltScreen()).Run()
			return err
		},
	}

	cmd.Flags().StringVarP(&format, "format", "f", "", "input format (default: from the extension)")
	cmd.Flags().BoolVar(&plain, "plain", false, "print a summary instead of the interactive browser")
	cmd.Flags().BoolVar(&groups, "groups", false, "with --plain, list detected functional groups")
	return cmd
}

// printMoleculeSummary prints composition, size and bond statistics.
func printMoleculeSummary(title string, m *molecule.Molecule) {
	fmt.Println(StyleTitle.Render(title))
	printKeyValue("formula", formula(m))
	printKeyValue("atoms", strconv.Itoa(m.NumAtoms()))
	printKeyValue("bonds", strconv.Itoa(m.NumBonds()))
	if m.NumAtoms() > 0 {
		printKeyValue("diameter", fmt.Sprintf("%.3f Å", m.MaximumDiameter()))
		printKeyValue("centroid", formatVec(m.Centroid()))
	}
	var unknown []string
	for _, a := range m.Atoms() {
		if !a.Element.Known() && !slices.Contains(unknown, string(a.Element)) {
			unknown = append(unknown, string(a.Element))
		}
	}
	if len(unknown) > 0 {
		printWarning("no atomic mass for %s; center of mass ignores them", strings.Join(unknown, ", "))
	}
	periodic := 0
	orders := map[int]int{}
	for _, b := range m.Bonds() {
		orders[b.Order]++
		if b.IsPeriodic() {
			periodic++
		}
	}
	if periodic > 0 {
		printKeyValue("periodic", strconv.Itoa(periodic))
	}
	keys := slices.Sorted(maps.Keys(orders))
	for _, order := range keys {
		printDetail("order %d: %d bonds", order, orders[order])
	}
}

func printFunctionalGroups(path string, f molio.Format) error {
	bb, err := molio.ImportBuildingBlock(path, f)
	if err != nil {
		return err
	}
	printNewline()
	rows := make([][]string, 0, bb.NumFunctionalGroups())
	for i, fg := range bb.FunctionalGroups() {
		rows = append(rows, []string{
			strconv.Itoa(i),
			string(fg.Kind),
			groupAtoms(fg),
			joinInts(fg.Bonders()),
			joinInts(fg.Deleters()),
		})
	}
	fmt.Println(renderTable([]string{"FG", "Kind", "Atoms", "Bonders", "Deleters"}, rows, 0))
	return nil
}

// formula returns the Hill formula of m: carbon, then hydrogen, then the
// other elements alphabetically.
func formula(m *molecule.Molecule) string {
	counts := map[molecule.Element]int{}
	for _, a := range m.Atoms() {
		counts[a.Element]++
	}
	elements := slices.Sorted(maps.Keys(counts))
	if counts["C"] > 0 {
		elements = slices.DeleteFunc(elements, func(e molecule.Element) bool { return e == "C" || e == "H" })
		head := []molecule.Element{"C"}
		if counts["H"] > 0 {
			head = append(head, "H")
		}
		elements = append(head, elements...)
	}
	var b strings.Builder
	for _, e := range elements {
		b.WriteString(string(e))
		if counts[e] > 1 {
			b.WriteString(strconv.Itoa(counts[e]))
		}
	}
	return b.String()
}

// groupAtoms lists the atoms of fg as role=id in the kind's role order.
func groupAtoms(fg molecule.FunctionalGroup) string {
	roles := fg.Kind.Roles()
	parts := make([]string, len(roles))
	for i, role := range roles {
		parts[i] = fmt.Sprintf("%s=%d", role, fg.Atoms[role])
	}
	return strings.Join(parts, " ")
}

func joinInts(ids []int) string {
	parts := make([]string, len(ids))
	for i, id := range ids {
		parts[i] = strconv.Itoa(id)
	}
	return strings.Join(parts, " ")
}
