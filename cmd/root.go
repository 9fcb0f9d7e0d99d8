package cmd

import (
	"fmt"
	"os"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

var (
	// Flags
	cfgFile string
	debug   bool

	// Root command
	rootCmd = &cobra.Command{
		Use:   "suratjalan",
		Short: "Surat Jalan Service",
		Long: `Surat Jalan service for managing delivery notes and purchase orders.

Functions:
- Manage delivery notes through their shipment lifecycle
- Track purchase order tonnage against recorded shipments
- Serve role-gated workflows over a REST HTTP server
- Publish delivery note events to the notification queue`,
	}
)

// Execute executes the root command
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig)

	// Persistent flags
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is ./config.yaml)")
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "enable debug logging")

	// Add commands
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(workerCmd)
	rootCmd.AddCommand(migrateCmd)
	rootCmd.AddCommand(reconcileCmd)
}

// initConfig initializes the configuration
func initConfig() {
	if debug {
		logrus.SetLevel(logrus.DebugLevel)
	} else {
		logrus.SetLevel(logrus.InfoLevel)
	}

	logrus.SetFormatter(&logrus.TextFormatter{
		FullTimestamp: true,
	})
}
