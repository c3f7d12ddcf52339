package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/barryw/novavm/internal/corelx"
)

var buildOutputFlag string

var buildCmd = &cobra.Command{
	Use:   "build `path/to/source.corelx`",
	Short: "compile a CoreLX source file to a ROM image",
	Args:  cobra.ExactArgs(1),
	Run:   runBuild,
}

func init() {
	buildCmd.Flags().StringVarP(&buildOutputFlag, "output", "o", "", "output ROM path (defaults to the input path with its extension replaced by .rom)")
}

func runBuild(cmd *cobra.Command, args []string) {
	inputPath := args[0]

	outputPath := buildOutputFlag
	if outputPath == "" {
		outputPath = strings.TrimSuffix(inputPath, filepath.Ext(inputPath)) + ".rom"
	}

	if err := corelx.CompileFile(inputPath, outputPath); err != nil {
		fmt.Fprintf(os.Stderr, "compile error: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("novac: compiled %s -> %s\n", filepath.Base(inputPath), filepath.Base(outputPath))
}
