package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/psu-powerlab/se2030/pkg/config"
	"github.com/psu-powerlab/se2030/pkg/elog"
)

var (
	flagVerbose bool
	flagDebug   bool
	flagConfig  string
)

func commandInit() {
	rootCmd.PersistentFlags().BoolVarP(&flagVerbose, "verbose", "v", false, "enable verbose output")
	rootCmd.PersistentFlags().BoolVarP(&flagDebug, "debug", "d", false, "enable debug output")
	rootCmd.PersistentFlags().StringVarP(&flagConfig, "config", "c", "", "path to a se2030d.yaml config file")

	rootCmd.PersistentPreRunE = func(cmd *cobra.Command, args []string) error {
		logger := &elog.CLI{}
		if flagDebug {
			logger.IsDebug = true
			logger.IsVerbose = true
		} else if flagVerbose {
			logger.IsVerbose = true
		}
		log = logger

		config.Init(flagConfig, log)
		return nil
	}

	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(runCmd)
}

var rootCmd = &cobra.Command{
	Use:   "se2030d",
	Short: "IEEE 2030.5 DER client runtime",
	Long: `se2030d drives an IEEE 2030.5 (Smart Energy Profile 2.0) DER client:
hydrating EndDevice resources from a server, scheduling DERControl events,
and maintaining the default-controls overlay for every registered device.`,
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "View CLI version information",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("Version: %s\nRef: %s\nReleased: %s\n", release, commit, date)
	},
}
