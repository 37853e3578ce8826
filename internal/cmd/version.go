package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/zfogg/dormdesk/pkg/output"
)

// Version is overridden at build time with -ldflags
var Version = "0.3.0"

var versionCmd = &cobra.Command{
	Use:         "version",
	Short:       "Show CLI version",
	Annotations: map[string]string{standalone: "true"},
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintf(output.Out, "dormdesk v%s\n", Version)
	},
}
