package cli

import (
	"fmt"
	"slices"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
)

// Palette by role. Each colour has a light and a dark terminal variant.
var (
	colorAccent  = lipgloss.AdaptiveColor{Light: "30", Dark: "36"}
	colorOK      = lipgloss.AdaptiveColor{Light: "28", Dark: "35"}
	colorWarn    = lipgloss.AdaptiveColor{Light: "172", Dark: "220"}
	colorFail    = lipgloss.AdaptiveColor{Light: "160", Dark: "167"}
	colorCommand = lipgloss.AdaptiveColor{Light: "25", Dark: "75"}
	colorText    = lipgloss.AdaptiveColor{Light: "235", Dark: "255"}
	colorSubtle  = lipgloss.AdaptiveColor{Light: "242", Dark: "245"}
	colorMuted   = lipgloss.AdaptiveColor{Light: "248", Dark: "240"}
)

var (
	// StyleTitle renders molecule, topology and section names.
	StyleTitle = lipgloss.NewStyle().Bold(true).Foreground(colorAccent)

	// StyleHighlight renders names inside a sentence.
	StyleHighlight = lipgloss.NewStyle().Foreground(colorAccent)

	// StyleElement renders element symbols.
	StyleElement = lipgloss.NewStyle().Bold(true).Foreground(colorOK)

	StyleDim     = lipgloss.NewStyle().Foreground(colorMuted)
	StyleValue   = lipgloss.NewStyle().Foreground(colorText)
	StyleNumber  = lipgloss.NewStyle().Foreground(colorAccent)
	StyleWarning = lipgloss.NewStyle().Foreground(colorWarn)
)

var (
	styleSpinner     = lipgloss.NewStyle().Foreground(colorAccent)
	styleCommand     = lipgloss.NewStyle().Foreground(colorCommand)
	styleKey         = lipgloss.NewStyle().Foreground(colorSubtle).Width(12)
	styleTableHeader = lipgloss.NewStyle().Foreground(colorSubtle).Bold(true)
)

// A mark prefixes a status line.
type mark struct {
	glyph string
	style lipgloss.Style
}

var (
	markOK   = mark{"✓", lipgloss.NewStyle().Foreground(colorOK)}
	markFail = mark{"✗", lipgloss.NewStyle().Foreground(colorFail)}
	markWarn = mark{"!", lipgloss.NewStyle().Foreground(colorWarn)}
	markInfo = mark{"›", lipgloss.NewStyle().Foreground(colorSubtle)}
)

func (m mark) println(msg string) {
	fmt.Println(m.style.Render(m.glyph), msg)
}

func printSuccess(format string, args ...any) { markOK.println(fmt.Sprintf(format, args...)) }

func printError(format string, args ...any) { markFail.println(fmt.Sprintf(format, args...)) }

func printWarning(format string, args ...any) {
	markWarn.println(StyleWarning.Render(fmt.Sprintf(format, args...)))
}

func printInfo(format string, args ...any) { markInfo.println(fmt.Sprintf(format, args...)) }

// printDetail prints an indented, muted line under a status line.
func printDetail(format string, args ...any) {
	fmt.Println("  " + StyleDim.Render(fmt.Sprintf(format, args...)))
}

// printFile lists a written file.
func printFile(path string) {
	fmt.Println("  "+StyleDim.Render("→"), StyleValue.Render(path))
}

func printKeyValue(key, value string) {
	fmt.Println(styleKey.Render(key), StyleValue.Render(value))
}

// printStats summarises a constructed molecule and whether it came from the
// cache.
func printStats(atoms, bonds, newBonds int, cached bool) {
	parts := []string{fmt.Sprintf("%d atoms", atoms), fmt.Sprintf("%d bonds", bonds)}
	if newBonds > 0 {
		parts = append(parts, fmt.Sprintf("%d new", newBonds))
	}
	origin := lipgloss.NewStyle().Foreground(colorSubtle).Render("fresh")
	if cached {
		origin = lipgloss.NewStyle().Foreground(colorOK).Render("cached")
	}
	sep := StyleDim.Render(" · ")
	fmt.Println("  " + StyleDim.Render(strings.Join(parts, " · ")) + sep + origin)
}

// renderTable draws rows in a rounded table. Columns listed in numeric are
// rendered as numbers.
func renderTable(headers []string, rows [][]string, numeric ...int) string {
	return table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(colorMuted)).
		Headers(headers...).
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			switch {
			case row == table.HeaderRow:
				return styleTableHeader.Padding(0, 1)
			case slices.Contains(numeric, col):
				return StyleNumber.Padding(0, 1)
			}
			return StyleValue.Padding(0, 1)
		}).
		Render()
}

// printNextStep suggests a follow-up command.
func printNextStep(description, cmd string) {
	fmt.Println(StyleDim.Render(description+":"), styleCommand.Render(cmd))
}

func printNewline() { fmt.Println() }
