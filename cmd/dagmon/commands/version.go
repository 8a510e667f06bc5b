package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/dagbft/dagmon/version"
)

// VersionCmd prints the harness version.
var VersionCmd = &cobra.Command{
	Use:   "version",
	Short: "Show version info",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Println(version.DagmonVersion)
	},
}
