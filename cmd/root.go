package cmd

import (
	"fmt"
	"log"
	"os"

	"coinpulse/server"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "coinpulse",
	Short: "CoinPulse is a personalized crypto dashboard service.",
	Run: func(cmd *cobra.Command, args []string) {
		log.Println("Starting CoinPulse server...")
		server.Start()
	},
}

// Execute executes the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
