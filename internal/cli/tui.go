package cli

import (
	"fmt"
	"strconv"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"github.com/matzehuels/molforge/pkg/molecule"
)

// List styles
var (
	listSelectedStyle = lipgloss.NewStyle().Bold(true).Foreground(colorAccent)
	listDimStyle      = lipgloss.NewStyle().Foreground(colorMuted)
	tabActiveStyle    = lipgloss.NewStyle().Bold(true).Foreground(colorAccent).Underline(true)
)

// =============================================================================
// MoleculeModel - Interactive atom and bond browser
// =============================================================================

type inspectTab int

const (
	tabAtoms inspectTab = iota
	tabBonds
)

// MoleculeModel is the bubbletea model of the inspect command. It pages
// through the atoms or the bonds of a molecule; selecting an atom shows its
// neighbours.
type MoleculeModel struct {
	Title    string
	Molecule *molecule.Molecule

	tab    inspectTab
	cursor [2]int
	offset [2]int
	height int
}

// NewMoleculeModel creates a browser for m.
func NewMoleculeModel(title string, m *molecule.Molecule) MoleculeModel {
	return MoleculeModel{Title: title, Molecule: m, height: 15}
}

func (m MoleculeModel) Init() tea.Cmd {
	return nil
}

func (m MoleculeModel) rows() int {
	if m.tab == tabBonds {
		return m.Molecule.NumBonds()
	}
	return m.Molecule.NumAtoms()
}

func (m MoleculeModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		t := m.tab
		switch msg.String() {
		case "q", "ctrl+c", "esc":
			return m, tea.Quit
		case "tab", "left", "right", "h", "l":
			m.tab = 1 - m.tab
		case "up", "k":
			if m.cursor[t] > 0 {
				m.cursor[t]--
				if m.cursor[t] < m.offset[t] {
					m.offset[t] = m.cursor[t]
				}
			}
		case "down", "j":
			if m.cursor[t] < m.rows()-1 {
				m.cursor[t]++
				if m.cursor[t] >= m.offset[t]+m.height {
					m.offset[t] = m.cursor[t] - m.height + 1
				}
			}
		case "home", "g":
			m.cursor[t], m.offset[t] = 0, 0
		case "end", "G":
			if n := m.rows(); n > 0 {
				m.cursor[t] = n - 1
				m.offset[t] = max(0, n-m.height)
			}
		}
	case tea.WindowSizeMsg:
		m.height = max(5, msg.Height-10)
	}
	return m, nil
}

func (m MoleculeModel) View() string {
	var b strings.Builder

	b.WriteString(StyleTitle.Render(m.Title))
	b.WriteString("  ")
	b.WriteString(listDimStyle.Render(fmt.Sprintf("%d atoms · %d bonds", m.Molecule.NumAtoms(), m.Molecule.NumBonds())))
	b.WriteString("\n")

	atoms, bonds := listDimStyle.Render("Atoms"), listDimStyle.Render("Bonds")
	if m.tab == tabAtoms {
		atoms = tabActiveStyle.Render("Atoms")
	} else {
		bonds = tabActiveStyle.Render("Bonds")
	}
	b.WriteString(atoms + "  " + bonds + "\n")
	b.WriteString(listDimStyle.Render("↑/↓ navigate  tab switch  q quit"))
	b.WriteString("\n\n")

	t := m.tab
	end := min(m.offset[t]+m.height, m.rows())
	var headers []string
	var rows [][]string
	if t == tabAtoms {
		headers = []string{"", "ID", "Element", "Charge", "X", "Y", "Z", "Bonded to"}
		for i := m.offset[t]; i < end; i++ {
			rows = append(rows, m.atomRow(i))
		}
	} else {
		headers = []string{"", "ID", "Atom 1", "Atom 2", "Order", "Periodicity"}
		bondList := m.Molecule.Bonds()
		for i := m.offset[t]; i < end; i++ {
			rows = append(rows, bondRow(i, bondList[i], m.Molecule, i == m.cursor[t]))
		}
	}

	tbl := table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(colorMuted)).
		Headers(headers...).
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return styleTableHeader
			}
			if m.offset[t]+row == m.cursor[t] {
				return listSelectedStyle
			}
			if t == tabAtoms && col == 2 {
				return StyleElement
			}
			return lipgloss.NewStyle()
		})

	b.WriteString(tbl.Render())
	b.WriteString("\n\n")
	if n := m.rows(); n > 0 {
		b.WriteString(listDimStyle.Render(fmt.Sprintf("  [%d/%d]", m.cursor[t]+1, n)))
	}
	return b.String()
}

func (m MoleculeModel) atomRow(i int) []string {
	a := m.Molecule.Atom(i)
	p := m.Molecule.Position(i)
	cursor := "  "
	if i == m.cursor[tabAtoms] {
		cursor = "▸ "
	}
	neighbors := m.Molecule.Neighbors(i)
	names := make([]string, len(neighbors))
	for j, n := range neighbors {
		names[j] = fmt.Sprintf("%s%d", m.Molecule.Atom(n).Element, n)
	}
	charge := ""
	if a.Charge != 0 {
		charge = fmt.Sprintf("%+d", a.Charge)
	}
	return []string{
		cursor,
		strconv.Itoa(a.ID),
		string(a.Element),
		charge,
		fmt.Sprintf("%.4f", p.X),
		fmt.Sprintf("%.4f", p.Y),
		fmt.Sprintf("%.4f", p.Z),
		strings.Join(names, " "),
	}
}

func bondRow(i int, bond molecule.Bond, mol *molecule.Molecule, selected bool) []string {
	cursor := "  "
	if selected {
		cursor = "▸ "
	}
	periodicity := ""
	if bond.IsPeriodic() {
		periodicity = fmt.Sprint(bond.Periodicity)
	}
	return []string{
		cursor,
		strconv.Itoa(i),
		fmt.Sprintf("%s%d", mol.Atom(bond.Atom1).Element, bond.Atom1),
		fmt.Sprintf("%s%d", mol.Atom(bond.Atom2).Element, bond.Atom2),
		strconv.Itoa(bond.Order),
		periodicity,
	}
}
