// Command typebridge compiles TypeScript and TSX sources to JavaScript,
// either as a one-shot build or through a development server that
// compiles on demand.
package main

import (
	"os"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "typebridge",
	Short: "TypeScript transpilation for asset pipelines",
	Long: "typebridge compiles TypeScript and TSX sources to JavaScript using a\n" +
		"single-file transpiler, with tsconfig.json aware option merging and\n" +
		"glob based vendor ignores.",

	SilenceUsage: true,
}

func main() {
	rootCmd.AddCommand(buildCmd)
	rootCmd.AddCommand(serveCmd)

	rootCmd.PersistentFlags().StringP("config", "c", "typebridge.toml", "tool configuration file")
	rootCmd.PersistentFlags().String("compiler", "", "path to a typescript.js bundle; esbuild is used when unset")
	rootCmd.PersistentFlags().Bool("verbose", false, "enable debug logging")

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
