package cmd

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"github.com/kozaktomas/face-attendance/internal/attendance"
	"github.com/kozaktomas/face-attendance/internal/config"
	"github.com/kozaktomas/face-attendance/internal/database"
	"github.com/kozaktomas/face-attendance/internal/logger"
	"github.com/spf13/cobra"
)

var registerCmd = &cobra.Command{
	Use:   "register <image>",
	Short: "Enroll a person from a face image file",
	Long: `Enroll a person from a single face image file.

The image must contain exactly one sharp face. Registration fails when the
identity key is already enrolled.

Examples:
  face-attendance register ann.jpg --key E100 --name "Ann Smith"
  face-attendance register ann.jpg --key E100 --name "Ann Smith" --json`,
	Args: cobra.ExactArgs(1),
	RunE: runRegister,
}

func init() {
	rootCmd.AddCommand(registerCmd)

	registerCmd.Flags().String("key", "", "Identity key (employee ID)")
	registerCmd.Flags().String("name", "", "Display name")
	registerCmd.Flags().Bool("json", false, "Output as JSON")
}

func runRegister(cmd *cobra.Command, args []string) error {
	key := mustGetString(cmd, "key")
	name := mustGetString(cmd, "name")
	if key == "" || name == "" {
		return errors.New("--key and --name are required")
	}

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

	id, err := svc.Register(ctx, attendance.RegisterInput{Name: name, IdentityKey: key, FaceImage: payload})
	if err != nil {
		return fmt.Errorf("registration failed: %w", err)
	}

	if mustGetBool(cmd, "json") {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(map[string]any{
			"id":           id.ID,
			"identity_key": id.IdentityKey,
			"name":         id.DisplayName,
			"strategy":     id.Strategy,
			"dim":          id.Dim,
		})
	}

	logger.Debug("registered from file", logger.LoggerOptions{Key: "path", Data: args[0]})
	fmt.Printf("Registered %s (%s) with a %d-value %s template\n", id.DisplayName, id.IdentityKey, id.Dim, id.Strategy)
	return nil
}
