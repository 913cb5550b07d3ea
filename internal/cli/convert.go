package cli

import (
	"strings"

	"github.com/spf13/cobra"

	molio "github.com/matzehuels/molforge/pkg/io"
)

// convertCommand creates the convert command.
func (c *CLI) convertCommand() *cobra.Command {
	var from, to string

	formats := make([]string, 0, len(molio.Formats()))
	for _, f := range molio.Formats() {
		formats = append(formats, string(f))
	}

	cmd := &cobra.Command{
		Use:   "convert IN OUT",
		Short: "Convert a molecule file to another format",
		Long: `Convert a molecule file to another format. Formats are taken from the
file extensions unless given with --from and --to.

Supported formats: ` + strings.Join(formats, ", ") + `

Bond orders, charges and periodic bonds survive conversion only when the
target format can express them: xyz keeps no bonds at all.`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			in, out := args[0], args[1]
			inFormat, err := molio.Resolve(in, molio.Format(from))
			if err != nil {
				return err
			}
			outFormat, err := molio.Resolve(out, molio.Format(to))
			if err != nil {
				return err
			}

			m, err := molio.Import(in, inFormat)
			if err != nil {
				return err
			}
			if err := molio.Export(m, out, outFormat); err != nil {
				return err
			}
			c.Logger.Debug("converted", "in", in, "from", inFormat, "out", out, "to", outFormat)

			if outFormat == molio.FormatXYZ && m.NumBonds() > 0 {
				printWarning("xyz files carry no bonds, %d bonds dropped", m.NumBonds())
			}
			printSuccess("Converted %s → %s", StyleHighlight.Render(string(inFormat)), StyleHighlight.Render(string(outFormat)))
			printFile(out)
			return nil
		},
	}

	cmd.Flags().StringVar(&from, "from", "", "input format")
	cmd.Flags().StringVar(&to, "to", "", "output format")
	return cmd
}
