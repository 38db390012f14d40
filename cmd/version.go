package cmd

import (
	"fmt"
	"runtime"

	"github.com/kozaktomas/face-attendance/internal/config"
	"github.com/spf13/cobra"
)

// Build metadata variables, set by -ldflags at compile time.
var (
	Version   = "dev"
	CommitSHA = "unknown"
	BuildDate = "unknown"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version and matching configuration",
	Run: func(cmd *cobra.Command, args []string) {
		cfg := config.Load()
		fmt.Printf("face-attendance %s\n", Version)
		fmt.Printf("  Commit:   %s\n", CommitSHA)
		fmt.Printf("  Built:    %s (%s)\n", BuildDate, runtime.Version())
		fmt.Printf("  Strategy: %s, detector %s, store %s\n", cfg.Face.Strategy, cfg.Detector.Backend, cfg.Store.Backend)
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
