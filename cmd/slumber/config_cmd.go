package main

import (
	"github.com/gookit/color"
	"github.com/spf13/cobra"

	"github.com/slumberproxy/slumber/internal/config"
)

var (
	generateForce bool
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Generate or validate the configuration file",
}

var configGenerateCmd = &cobra.Command{
	Use:   "generate",
	Short: "Write a default lazymc.toml to --config",
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := config.Generate(configPath, generateForce); err != nil {
			return err
		}
		color.Success.Fprintf(cmd.OutOrStdout(), "wrote %s\n", configPath)
		return nil
	},
}

var configTestCmd = &cobra.Command{
	Use:   "test",
	Short: "Load and validate --config without starting the proxy",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load(configPath)
		if err != nil {
			return err
		}
		if err := config.Validate(cfg); err != nil {
			return err
		}
		if config.VersionMismatch(cfg) {
			color.Warn.Fprintf(cmd.OutOrStdout(), "warning: config.version %q does not match %q\n", cfg.ConfigSection.Version, config.CurrentConfigVersion)
		}
		color.Success.Fprintf(cmd.OutOrStdout(), "%s: ok\n", configPath)
		return nil
	},
}

func init() {
	configGenerateCmd.Flags().BoolVar(&generateForce, "force", false, "overwrite an existing file")
	configCmd.AddCommand(configGenerateCmd, configTestCmd)
	rootCmd.AddCommand(configCmd)
}
