package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/matzehuels/homematch/pkg/pipeline"
	"github.com/matzehuels/homematch/pkg/score"
)

// shells lists the shells completion scripts can be generated for.
var shells = []string{"bash", "zsh", "fish", "powershell"}

// completionCommand creates the completion command for generating shell completions.
func (c *CLI) completionCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "completion [" + strings.Join(shells, "|") + "]",
		Short: "Generate shell completion scripts",
		Long: `Generate shell completion scripts for homematch.

Completions cover commands, flags and flag values such as --engine,
--ineligible and --format.

Bash:
  $ source <(homematch completion bash)

Zsh:
  $ homematch completion zsh > "${fpath[1]}/_homematch"

Fish:
  $ homematch completion fish > ~/.config/fish/completions/homematch.fish

PowerShell:
  PS> homematch completion powershell | Out-String | Invoke-Expression
`,
		DisableFlagsInUseLine: true,
		ValidArgs:             shells,
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
			case "powershell":
				return cmd.Root().GenPowerShellCompletionWithDesc(out)
			}
			return fmt.Errorf("unsupported shell %q", args[0])
		},
	}

	return cmd
}

// completeValues returns a flag completion function offering a fixed set of
// values.
func completeValues(values ...string) func(*cobra.Command, []string, string) ([]string, cobra.ShellCompDirective) {
	return func(_ *cobra.Command, _ []string, prefix string) ([]string, cobra.ShellCompDirective) {
		var out []string
		for _, v := range values {
			if strings.HasPrefix(v, prefix) {
				out = append(out, v)
			}
		}
		return out, cobra.ShellCompDirectiveNoFileComp
	}
}

// registerOptimizeCompletions adds value completions for the engine and
// ineligibility flags.
func registerOptimizeCompletions(cmd *cobra.Command) {
	_ = cmd.RegisterFlagCompletionFunc("engine", completeValues(pipeline.Engines...))
	_ = cmd.RegisterFlagCompletionFunc("ineligible", completeValues(
		score.PolicyRejectPath.String(), score.PolicyZero.String(), score.PolicyFail.String()))
}
