package cli

import (
	"strings"

	"github.com/spf13/cobra"

	"github.com/matzehuels/molforge/pkg/pipeline"
	"github.com/matzehuels/molforge/pkg/topology"
)

// completionCommand creates the completion command.
func (c *CLI) completionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "completion [bash|zsh|fish|powershell]",
		Short: "Generate shell completion scripts",
		Long: `Generate a shell completion script. Topology names, output formats and
recipe files complete as well as commands and flags.

  source <(molforge completion bash)
  molforge completion zsh > "${fpath[1]}/_molforge"
  molforge completion fish > ~/.config/fish/completions/molforge.fish
  molforge completion powershell | Out-String | Invoke-Expression`,
		DisableFlagsInUseLine: true,
		ValidArgs:             []string{"bash", "zsh", "fish", "powershell"},
		Args:                  cobra.MatchAll(cobra.ExactArgs(1), cobra.OnlyValidArgs),
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			switch args[0] {
			case "bash":
				return cmd.Root().GenBashCompletionV2(out, true)
			case "zsh":
				return cmd.Root().GenZshCompletion(out)
			case "fish":
				return cmd.Root().GenFishCompletion(out, true)
			default:
				return cmd.Root().GenPowerShellCompletionWithDesc(out)
			}
		},
	}
}

// completeTopologies completes built-in topology names with their
// descriptions.
func completeTopologies(_ *cobra.Command, _ []string, prefix string) ([]cobra.Completion, cobra.ShellCompDirective) {
	var out []cobra.Completion
	for _, name := range topology.BuiltinNames() {
		if !strings.HasPrefix(name, prefix) {
			continue
		}
		desc := ""
		if def, err := topology.Builtin(name); err == nil {
			desc = def.Description
		}
		out = append(out, cobra.CompletionWithDesc(name, desc))
	}
	return out, cobra.ShellCompDirectiveNoFileComp
}

// completeTopologyArg completes the NAME argument of topology subcommands.
func completeTopologyArg(cmd *cobra.Command, args []string, prefix string) ([]cobra.Completion, cobra.ShellCompDirective) {
	if len(args) > 0 {
		return nil, cobra.ShellCompDirectiveNoFileComp
	}
	return completeTopologies(cmd, args, prefix)
}

// completeFormats completes comma-separated output formats.
func completeFormats(_ *cobra.Command, _ []string, prefix string) ([]cobra.Completion, cobra.ShellCompDirective) {
	done := ""
	if i := strings.LastIndex(prefix, ","); i >= 0 {
		done, prefix = prefix[:i+1], prefix[i+1:]
	}
	var out []cobra.Completion
	for _, f := range pipeline.FormatNames() {
		if strings.HasPrefix(f, prefix) {
			out = append(out, done+f)
		}
	}
	return out, cobra.ShellCompDirectiveNoFileComp | cobra.ShellCompDirectiveNoSpace
}
