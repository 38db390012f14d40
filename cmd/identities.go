package cmd

import (
	"encoding/json"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/kozaktomas/face-attendance/internal/config"
	"github.com/kozaktomas/face-attendance/internal/database"
	"github.com/spf13/cobra"
)

var identitiesCmd = &cobra.Command{
	Use:   "identities",
	Short: "List enrolled identities",
	Long: `List enrolled identities in enrollment order.

Examples:
  face-attendance identities
  face-attendance identities --query novak
  face-attendance identities --json`,
	Args: cobra.NoArgs,
	RunE: runIdentities,
}

func init() {
	rootCmd.AddCommand(identitiesCmd)

	identitiesCmd.Flags().StringP("query", "q", "", "Filter by display name (accent and case insensitive)")
	identitiesCmd.Flags().Bool("json", false, "Output as JSON")
}

// IdentityOutput is an identity without its feature vector.
type IdentityOutput struct {
	IdentityKey string `json:"identity_key"`
	Name        string `json:"name"`
	Strategy    string `json:"strategy"`
	Dim         int    `json:"dim"`
	CreatedAt   string `json:"created_at"`
}

func runIdentities(cmd *cobra.Command, args []string) error {
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

	identities, err := svc.ListIdentities(ctx, mustGetString(cmd, "query"))
	if err != nil {
		return fmt.Errorf("failed to list identities: %w", err)
	}

	out := make([]IdentityOutput, len(identities))
	for i, id := range identities {
		out[i] = IdentityOutput{
			IdentityKey: id.IdentityKey,
			Name:        id.DisplayName,
			Strategy:    id.Strategy,
			Dim:         id.Dim,
			CreatedAt:   id.CreatedAt.Format("2006-01-02 15:04:05"),
		}
	}

	if mustGetBool(cmd, "json") {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(out)
	}

	if len(out) == 0 {
		fmt.Println("No identities found")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "KEY\tNAME\tSTRATEGY\tDIM\tENROLLED")
	for _, o := range out {
		fmt.Fprintf(w, "%s\t%s\t%s\t%d\t%s\n", o.IdentityKey, o.Name, o.Strategy, o.Dim, o.CreatedAt)
	}
	w.Flush()
	fmt.Printf("\nTotal: %d\n", len(out))
	return nil
}
