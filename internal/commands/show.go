package contextgather

import "github.com/spf13/cobra"

// showCmd groups subcommands that display settings.
var showCmd = &cobra.Command{
	Use:   "show",
	Short: "Group commands for displaying resources",
	Long:  `The 'show' command groups subcommands that display information related to context-gather.`,
}

func init() {
	rootCmd.AddCommand(showCmd)
}
