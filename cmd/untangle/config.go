package main

import (
	"os"

	"github.com/spf13/cobra"

	"untangle/internal/config"
)

var configPath string
var configExplainModule string

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Inspect the resolved configuration",
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show every resolved setting and which layer set it",
	Args:  cobra.NoArgs,
	RunE:  runConfigShow,
}

var configExplainCmd = &cobra.Command{
	Use:   "explain <category>",
	Short: "Show the resolved settings for one rule category",
	Args:  cobra.ExactArgs(1),
	RunE:  runConfigExplain,
}

func init() {
	configCmd.PersistentFlags().StringVar(&configPath, "path", ".", "Directory to resolve project configuration from")
	configExplainCmd.Flags().StringVar(&configExplainModule, "module", "", "Show the rules actually in effect for this module path, including any matching override")
	configCmd.AddCommand(configShowCmd)
	configCmd.AddCommand(configExplainCmd)
	rootCmd.AddCommand(configCmd)
}

func runConfigShow(cmd *cobra.Command, args []string) error {
	overrides, err := buildCliOverrides(cmd)
	if err != nil {
		return err
	}
	cfg, err := config.Resolve(configPath, overrides)
	if err != nil {
		return err
	}
	return config.RenderShow(os.Stdout, cfg)
}

func runConfigExplain(cmd *cobra.Command, args []string) error {
	overrides, err := buildCliOverrides(cmd)
	if err != nil {
		return err
	}
	cfg, err := config.Resolve(configPath, overrides)
	if err != nil {
		return err
	}
	if configExplainModule != "" {
		return config.RenderExplainModule(os.Stdout, cfg, args[0], configExplainModule)
	}
	return config.RenderExplain(os.Stdout, cfg, args[0])
}
