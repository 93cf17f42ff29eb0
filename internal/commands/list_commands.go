// internal/commands/list_commands.go
package contextgather

import (
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"
)

// commandsCmd prints the available commands and subcommands in a
// hierarchical, indented, two-column format.
var commandsCmd = &cobra.Command{
	Use:   "commands",
	Short: "List all commands and subcommands in two columns",
	Run: func(cmd *cobra.Command, args []string) {
		listCommands(cmd.OutOrStdout(), collectCommandData(rootCmd, "", ""))
	},
}

func init() {
	rootCmd.AddCommand(commandsCmd)
}

// commandInfo holds the path and description of a command for display.
type commandInfo struct {
	path        string
	description string
}

// listCommands prints the command tree in a two-column layout.
func listCommands(out io.Writer, commands []commandInfo) {
	filtered := commands[:0:0]
	maxPathLength := 0
	for _, data := range commands {
		if strings.Contains(data.path, "completion") || strings.HasSuffix(data.path, " help") {
			continue
		}
		filtered = append(filtered, data)
		if len(data.path) > maxPathLength {
			maxPathLength = len(data.path)
		}
	}

	fmt.Fprintln(out, "Commands and Subcommands:")
	for _, data := range filtered {
		fmt.Fprintf(out, "  %s%s%s\n", data.path, strings.Repeat(" ", maxPathLength-len(data.path)+2), data.description)
	}
}

// collectCommandData walks the command tree and returns a flattened slice of
// path/description pairs.
func collectCommandData(cmd *cobra.Command, currentPath string, indent string) []commandInfo {
	fullPath := cmd.Name()
	if currentPath != "" {
		fullPath = currentPath + " " + cmd.Name()
	}

	all := []commandInfo{{path: indent + fullPath, description: cmd.Short}}
	for _, sub := range cmd.Commands() {
		all = append(all, collectCommandData(sub, fullPath, indent+"  ")...)
	}
	return all
}
