package cli

import (
	"fmt"
	"os"
	"slices"
	"strconv"
	"strings"

	"github.com/spf13/cobra"
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/matzehuels/molforge/pkg/errors"
	"github.com/matzehuels/molforge/pkg/pipeline"
	"github.com/matzehuels/molforge/pkg/topology"
)

// topologyCommand creates the topology command group.
func (c *CLI) topologyCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "topology",
		Aliases: []string{"topo"},
		Short:   "Browse the built-in topology graphs",
	}

	cmd.AddCommand(c.topologyListCommand())
	cmd.AddCommand(c.topologyShowCommand())
	cmd.AddCommand(c.topologyRenderCommand())

	return cmd
}

func (c *CLI) topologyListCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List the built-in topologies",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			rows, err := topologyRows()
			if err != nil {
				return err
			}
			fmt.Println(renderTable([]string{"Name", "Kind", "Vertices", "Edges", "Description"}, rows, 2, 3))
			printNextStep("Show one", "molforge topology show four_plus_six")
			return nil
		},
	}
}

// topologyRows describes every built-in topology at its unit size.
func topologyRows() ([][]string, error) {
	var rows [][]string
	for _, name := range topology.BuiltinNames() {
		def, err := topology.Builtin(name)
		if err != nil {
			return nil, err
		}
		g, err := def.Build(pipeline.DefaultLattice, false)
		if err != nil {
			return nil, err
		}
		rows = append(rows, []string{
			name,
			topologyKind(def),
			strconv.Itoa(g.NumVertices()),
			strconv.Itoa(g.NumEdges()),
			def.Description,
		})
	}
	return rows, nil
}

func topologyKind(def *topology.Definition) string {
	kind := "cage"
	if def.IsPeriodic() {
		kind = "framework"
	}
	if def.Linkerless {
		kind += ", linkerless"
	}
	return kind
}

func (c *CLI) topologyShowCommand() *cobra.Command {
	var lattice string
	var periodic bool

	cmd := &cobra.Command{
		Use:   "show NAME",
		Short: "Show the vertices and edges of a topology",
		Args:  cobra.ExactArgs(1),

		ValidArgsFunction: completeTopologyArg,
		RunE: func(cmd *cobra.Command, args []string) error {
			size, err := parseLattice(lattice)
			if err != nil {
				return errors.Wrap(errors.ErrCodeInvalidInput, err, "--lattice")
			}
			g, err := topology.BuildBuiltin(args[0], size, periodic)
			if err != nil {
				return err
			}
			def, _ := topology.Builtin(args[0])

			fmt.Println(StyleTitle.Render(g.Name()))
			printKeyValue("kind", topologyKind(def))
			printKeyValue("vertices", strconv.Itoa(g.NumVertices()))
			printKeyValue("edges", strconv.Itoa(g.NumEdges()))
			if def.IsPeriodic() {
				printKeyValue("lattice", fmt.Sprintf("%dx%dx%d", size[0], size[1], size[2]))
				printKeyValue("periodic", strconv.FormatBool(periodic))
			}
			printNewline()
			fmt.Println(renderTable([]string{"Vertex", "Position", "Edges", "Cell"}, vertexRows(g), 0))
			printNewline()
			fmt.Println(renderTable([]string{"Edge", "Vertices", "Position", "Periodicity"}, edgeRows(g), 0))
			return nil
		},
	}

	cmd.Flags().StringVar(&lattice, "lattice", "", "lattice size, e.g. 2x2x1")
	cmd.Flags().BoolVar(&periodic, "periodic", false, "wrap edges across cell boundaries")
	return cmd
}

func vertexRows(g *topology.Graph) [][]string {
	rows := make([][]string, 0, g.NumVertices())
	for _, v := range g.Vertices() {
		position := formatVec(v.Position())
		if !v.IsCustomPosition() {
			position += " *"
		}
		rows = append(rows, []string{
			strconv.Itoa(v.ID()),
			position,
			joinInts(slices.Collect(v.EdgeIDs())),
			fmt.Sprint(v.Cell()),
		})
	}
	return rows
}

func edgeRows(g *topology.Graph) [][]string {
	rows := make([][]string, 0, g.NumEdges())
	for _, e := range g.Edges() {
		ids := e.VertexIDs()
		names := make([]string, len(ids))
		for i, id := range ids {
			names[i] = strconv.Itoa(id)
		}
		periodicity := "-"
		if e.IsPeriodic() {
			periodicity = fmt.Sprint(e.Periodicity())
		}
		rows = append(rows, []string{
			strconv.Itoa(e.ID()),
			strings.Join(names, " "),
			formatVec(e.Position()),
			periodicity,
		})
	}
	return rows
}

func formatVec(v r3.Vec) string {
	return fmt.Sprintf("(%.3f, %.3f, %.3f)", v.X, v.Y, v.Z)
}

func (c *CLI) topologyRenderCommand() *cobra.Command {
	var (
		format   string
		output   string
		lattice  string
		periodic bool
		detailed bool
		noCache  bool
	)

	cmd := &cobra.Command{
		Use:   "render NAME",
		Short: "Draw a topology graph as DOT, SVG, PNG or PDF",
		Args:  cobra.ExactArgs(1),

		ValidArgsFunction: completeTopologyArg,
		RunE: func(cmd *cobra.Command, args []string) error {
			size, err := parseLattice(lattice)
			if err != nil {
				return errors.Wrap(errors.ErrCodeInvalidInput, err, "--lattice")
			}
			runner, err := c.newRunner(cmd.Context(), noCache)
			if err != nil {
				return err
			}
			defer runner.Close()

			data, cached, err := runner.RenderTopology(cmd.Context(), args[0], pipeline.DiagramOptions{
				Lattice:  size,
				Periodic: periodic,
				Detailed: detailed,
				Format:   format,
			})
			if err != nil {
				return err
			}

			if output == "" {
				output = args[0] + "." + format
			}
			if output == "-" {
				_, err = os.Stdout.Write(data)
				return err
			}
			if err := os.WriteFile(output, data, 0o644); err != nil {
				return err
			}
			status := "rendered"
			if cached {
				status = "cached"
			}
			printSuccess("Drew %s (%s)", StyleHighlight.Render(args[0]), status)
			printFile(output)
			return nil
		},
	}

	f := cmd.Flags()
	f.StringVarP(&format, "format", "f", pipeline.FormatSVG, "output format: "+strings.Join(pipeline.DiagramFormats, ", "))
	f.StringVarP(&output, "output", "o", "", "output file, - for stdout (default NAME.FORMAT)")
	f.StringVar(&lattice, "lattice", "", "lattice size, e.g. 2x2x1")
	f.BoolVar(&periodic, "periodic", false, "wrap edges across cell boundaries")
	f.BoolVar(&detailed, "detailed", false, "label sites with positions and cells")
	f.BoolVar(&noCache, "no-cache", false, "disable the render cache")
	_ = cmd.RegisterFlagCompletionFunc("format", cobra.FixedCompletions(pipeline.DiagramFormats, cobra.ShellCompDirectiveNoFileComp))
	return cmd
}
