// Package cli provides the sensorqc engine's command-line interface:
// configuration file/flag handling via Cobra and Viper, and the run
// command that wires the registry, engine, ingestion, and sinks together
// for the lifetime of the process.
package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var cfgFile string

// RootCmd is the entry point for the qcengine binary.
var RootCmd = &cobra.Command{
	Use:   "qcengine",
	Short: "streaming quality-control evaluation engine for sensor observations",
	Long: `qcengine consumes CSV-encoded sensor observations from a queue, runs
each one through the configured range, delta, sigma, and null checks
against a thresholds registry, and publishes the resulting pass/fail
outcomes and window events to downstream queues.`,
	RunE: runEngine,
}

func init() {
	cobra.OnInitialize(initConfig)

	RootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is $HOME/.qcengine.yaml)")
	RootCmd.PersistentFlags().String("config-prefix", "SENSORQC", "environment variable prefix for domain configuration")
	RootCmd.PersistentFlags().String("registry-backend", "", "override SENSORQC_REGISTRY_BACKEND (bolt|redis)")

	viper.BindPFlag("config_prefix", RootCmd.PersistentFlags().Lookup("config-prefix"))
	viper.BindPFlag("registry_backend", RootCmd.PersistentFlags().Lookup("registry-backend"))
}

func initConfig() {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		home, err := os.UserHomeDir()
		cobra.CheckErr(err)
		viper.AddConfigPath(home)
		viper.AddConfigPath(".")
		viper.SetConfigType("yaml")
		viper.SetConfigName(".qcengine")
	}

	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err == nil {
		fmt.Println("Using config file:", viper.ConfigFileUsed())
	}
}
