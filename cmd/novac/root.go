package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// rootCmd is the base for all novac subcommands.
var rootCmd = &cobra.Command{
	Use:   "novac [command]",
	Short: "novac is the CoreLX compiler driver",
	Long:  "novac is the CoreLX compiler driver",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Println("Unknown command. Try `novac help` for more information")
	},
}

func init() {
	rootCmd.AddCommand(buildCmd)
	rootCmd.AddCommand(versionCmd)
}

// Execute runs novac according to the user's command/subcommand/flags.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}

func main() {
	Execute()
}
