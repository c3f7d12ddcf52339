package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

// currentReleaseVersion is printed by the version command.
const currentReleaseVersion = "v0.1.0"

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the novac version",
	Long:  "Run `novac version` to get the current novac version",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Println(currentReleaseVersion)
	},
}
