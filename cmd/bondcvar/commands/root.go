package commands

import (
	"github.com/spf13/cobra"
)

var (
	// Global flags
	configFile   string
	env          string
	verbose      bool
	mandateFile  string
	universeFile string
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "bondcvar",
	Short: "Fixed-income CVaR portfolio engine",
	Long: `bondcvar - fixed-income portfolio construction under a CVaR objective

Nelson-Siegel yield curves, bond analytics, scenario risk, a constrained
CVaR optimizer and a multi-period rebalancing simulation.

Usage:
  go run ./cmd/bondcvar [command]

Examples:
  go run ./cmd/bondcvar run
  go run ./cmd/bondcvar run --mandate mandate.example.yaml
  go run ./cmd/bondcvar optimize --mandate mandate.example.yaml
  go run ./cmd/bondcvar risk --scenarios 1000
  go run ./cmd/bondcvar curve --shock 0.01
  go run ./cmd/bondcvar price --coupon 0.045 --maturity 10 --price 1025`,
	SilenceUsage: true,
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	// Global flags
	rootCmd.PersistentFlags().StringVar(&configFile, "config", "", "env file loaded before .env discovery")
	rootCmd.PersistentFlags().StringVar(&env, "env", "development", "environment (development|staging|production)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "debug logging")
	rootCmd.PersistentFlags().StringVar(&mandateFile, "mandate", "", "mandate YAML (overrides MANDATE_FILE)")
	rootCmd.PersistentFlags().StringVar(&universeFile, "universe", "", "bond universe YAML (overrides UNIVERSE_FILE)")
}
