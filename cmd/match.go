package cmd

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"github.com/kozaktomas/face-attendance/internal/biometric"
	"github.com/kozaktomas/face-attendance/internal/config"
	"github.com/kozaktomas/face-attendance/internal/database"
	"github.com/spf13/cobra"
)

var matchCmd = &cobra.Command{
	Use:   "match <image>",
	Short: "Identify the person in a face image file",
	Long: `Identify the person in a face image file against the enrolled
identities. No attendance is recorded.

Examples:
  face-attendance match capture.jpg
  face-attendance match capture.jpg --json`,
	Args: cobra.ExactArgs(1),
	RunE: runMatch,
}

func init() {
	rootCmd.AddCommand(matchCmd)

	matchCmd.Flags().Bool("json", false, "Output as JSON")
}

// MatchOutput is the JSON form of a resolved capture.
type MatchOutput struct {
	Matched     bool    `json:"matched"`
	IdentityKey string  `json:"identity_key,omitempty"`
	Name        string  `json:"name,omitempty"`
	Score       float64 `json:"score,omitempty"`
	Confidence  float64 `json:"confidence,omitempty"`
	Sharpness   float64 `json:"sharpness"`
}

func runMatch(cmd *cobra.Command, args []string) error {
	payload, err := readImageDataURI(args[0])
	if err != nil {
		return err
	}

	cfg := config.Load()
	ctx := cmd.Context()

	store, err := openStore(ctx, cfg)
	if err != nil {
		return err
	}
	defer database.CloseStore()

	svc, err := buildService(cfg, store)
	if err != nil {
		return err
	}

	var out MatchOutput
	result, err := svc.Identify(ctx, payload)
	switch {
	case errors.Is(err, biometric.ErrNoMatch):
	case err != nil:
		return fmt.Errorf("match failed: %w", err)
	default:
		out = MatchOutput{
			Matched:     true,
			IdentityKey: result.Identity.IdentityKey,
			Name:        result.Identity.DisplayName,
			Score:       result.Match.Score,
			Confidence:  result.Match.Confidence,
			Sharpness:   result.Capture.Verdict.Sharpness,
		}
	}

	if mustGetBool(cmd, "json") {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(out)
	}

	if !out.Matched {
		fmt.Println("No enrolled identity matches this face")
		return nil
	}
	fmt.Printf("Matched %s (%s)\n", out.Name, out.IdentityKey)
	fmt.Printf("  Score:      %.4f (%s, threshold %.2f)\n", out.Score, svc.Strategy().Metric.Name(), svc.Strategy().Threshold)
	fmt.Printf("  Confidence: %.1f%%\n", out.Confidence*100)
	return nil
}
