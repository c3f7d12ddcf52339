package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// rootCmd is the base for all novavm subcommands.
var rootCmd = &cobra.Command{
	Use:   "novavm [command]",
	Short: "novavm runs CoreLX programs and raw ROM images on the emulated machine",
	Long:  "novavm runs CoreLX programs and raw ROM images on the emulated machine",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Println("Unknown command. Try `novavm help` for more information")
	},
}

func init() {
	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(versionCmd)
}

// Execute runs novavm according to the user's command/subcommand/flags.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}

func main() {
	Execute()
}
