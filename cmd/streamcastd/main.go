package main

import (
	"fmt"
	"os"

	"github.com/lanternops/streamcast/internal/logging"
	"github.com/spf13/cobra"
)

var version = "0.1.0"

var cfgFile string

var log = logging.L("main")

var rootCmd = &cobra.Command{
	Use:   "streamcastd",
	Short: "Low-latency desktop streaming daemon",
	Long:  `streamcastd captures a display, encodes it to H.264, and streams it over UDP or WebRTC.`,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default searches ./streamcast.yaml and /etc/streamcast/streamcast.yaml)")

	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(listEncodersCmd)
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version number",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("streamcastd v%s\n", version)
	},
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
