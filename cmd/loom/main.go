package main

import (
	"os"

	"github.com/spf13/cobra"

	"loom/internal/version"
)

var rootCmd = &cobra.Command{
	Use:   "loom",
	Short: "Loom tensor VM and compiler toolchain",
	Long:  `Loom compiles tensor IR modules to bytecode and executes them on a stack VM`,
}

func main() {
	rootCmd.Version = version.Version

	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(disasmCmd)
	rootCmd.AddCommand(listCmd)
	rootCmd.AddCommand(versionCmd)

	rootCmd.PersistentFlags().String("trace", "", "write trace events to this file")
	rootCmd.PersistentFlags().String("trace-level", "", "trace verbosity (off|error|phase|detail|debug)")
	rootCmd.PersistentFlags().String("trace-format", "text", "trace encoding (text|ndjson)")
	rootCmd.PersistentFlags().String("target", "", "kernel backend target")
	rootCmd.PersistentFlags().Int("jobs", 0, "parallel compile workers (0 = GOMAXPROCS)")
	rootCmd.PersistentFlags().Int("max-arity", 0, "packed-call arity bound (0 = compiler default)")
	rootCmd.PersistentFlags().Bool("no-cache", false, "skip the compiled-program disk cache")

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
