package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var (
	configPath string
	verbose    bool
)

var rootCmd = &cobra.Command{
	Use:   "slumber",
	Short: "A sleeping front-end proxy for Minecraft Java Edition",
	Long: "slumber sits in front of a Minecraft server, keeping it stopped while no\n" +
		"players are connected and waking it the moment a real login attempt\n" +
		"arrives, answering status and login itself in the meantime.",
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "lazymc.toml", "path to the configuration file")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable verbose (debug) logging")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(exitCodeFor(err))
	}
}

// exitCodeFor maps an error returned from a command's RunE to the
// process exit code the spec's CLI surface documents: 1 for a generic
// failure, 2 for a config problem specifically.
func exitCodeFor(err error) int {
	if _, ok := err.(interface{ ConfigProblem() bool }); ok {
		return 2
	}
	return 1
}
