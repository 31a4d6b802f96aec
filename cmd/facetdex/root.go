package main

import (
	"github.com/spf13/cobra"

	"github.com/kailas-cloud/facetdex/internal/config"
	"github.com/kailas-cloud/facetdex/internal/version"
)

var (
	envFlag    string
	configFlag string
)

var rootCmd = &cobra.Command{
	Use:   "facetdex",
	Short: "facetdex - faceted multi-type search over Redis",
	Long: `facetdex maps typed document definitions onto Redis search indexes and
serves structured, faceted queries over one or many document types in a single
batched round trip.`,
	Version:       version.Version,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.SetVersionTemplate(version.String() + "\n")
	rootCmd.PersistentFlags().StringVar(&envFlag, "env", "",
		"Environment: local, dev, docker, prod (default: $ENV or local)")
	rootCmd.PersistentFlags().StringVar(&configFlag, "config", "",
		"Config file path (default: config/{env}.yaml)")
}

// resolveEnv picks the environment: flag, then $ENV, then local.
func resolveEnv() string {
	if envFlag != "" {
		return envFlag
	}
	return config.GetEnv()
}

func loadConfig(env string) (config.Config, error) {
	if configFlag != "" {
		return config.LoadFile(configFlag)
	}
	return config.Load(env)
}
