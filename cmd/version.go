package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/Nunley-Media-Group/chrome-cli/internal/consts"
)

func getVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show application version",
		Long:  `Show the chrome-cli version and exit.`,
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintln(cmd.OutOrStdout(), "chrome-cli v"+consts.FullVersion())
		},
	}
}
