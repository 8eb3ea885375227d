package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var (
	// Global flags
	cfgFile string
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "fighting",
	Short: "Declarative JSON APIs from documentation blocks",
	Long: `fighting builds JSON APIs whose input and output schemas live in the
documentation of each action.

  fighting serve    # serve the hello API
  fighting call     # call an action of a remote API
  fighting check    # report schema errors in documentation files`,
	SilenceUsage: true,
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "", "config file path (default: environment only)")
}
