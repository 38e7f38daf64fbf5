package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "lewa",
	Short: "LEWA - AI tutor gateway for GCE Ordinary and Advanced Level students",
	Long: `lewa routes subject questions to a tutor persona and forwards them to the
configured generation backend.

Configuration is read from LEWA_CONFIG_PATH (default ./config/config.json)
and environment overrides such as GEMINI_API_KEY and LEWA_PROVIDER.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.AddCommand(serveCmd, askCmd, personasCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
