package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/zfogg/dormdesk/pkg/output"
)

var completionCmd = &cobra.Command{
	Use:   "completion [bash|zsh|fish|powershell]",
	Short: "Generate shell completion scripts",
	Long: `Generate a shell completion script.

Load it for the current session:
  source <(dormdesk completion bash)
  source <(dormdesk completion zsh)
  dormdesk completion fish | source
  dormdesk completion powershell | Out-String | Invoke-Expression

Completions depend only on the command tree, so this works without a
config file or a session.`,
	ValidArgs:   []string{"bash", "zsh", "fish", "powershell"},
	Annotations: map[string]string{standalone: "true"},
	Args:        cobra.MatchAll(cobra.ExactArgs(1), cobra.OnlyValidArgs),
	RunE: func(cmd *cobra.Command, args []string) error {
		switch args[0] {
		case "bash":
			return rootCmd.GenBashCompletion(output.Out)
		case "zsh":
			return rootCmd.GenZshCompletion(output.Out)
		case "fish":
			return rootCmd.GenFishCompletion(output.Out, true)
		case "powershell":
			return rootCmd.GenPowerShellCompletion(output.Out)
		}
		return fmt.Errorf("unknown shell: %s", args[0])
	},
}

func init() {
	rootCmd.AddCommand(completionCmd)
}
