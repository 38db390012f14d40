package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/kozaktomas/face-attendance/internal/attendance"
	"github.com/kozaktomas/face-attendance/internal/config"
	"github.com/kozaktomas/face-attendance/internal/constants"
	"github.com/kozaktomas/face-attendance/internal/database"
	"github.com/kozaktomas/face-attendance/internal/logger"
	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"
)

var enrollDirCmd = &cobra.Command{
	Use:   "enroll-dir <directory>",
	Short: "Enroll every face image in a directory",
	Long: `Enroll every face image in a directory.

Files are named <identity_key>__<Display_Name>.<ext>; underscores in the
name become spaces. Without the "__" separator the identity key is used as
the name. Keys that are already enrolled are reported as skipped.

Examples:
  face-attendance enroll-dir ./badges
  face-attendance enroll-dir ./badges --concurrency 8`,
	Args: cobra.ExactArgs(1),
	RunE: runEnrollDir,
}

func init() {
	rootCmd.AddCommand(enrollDirCmd)

	enrollDirCmd.Flags().Int("concurrency", constants.EnrollWorkers, "Number of parallel enrollments")
}

// enrollEntry is one image to enroll.
type enrollEntry struct {
	Path string
	Key  string
	Name string
}

// parseEnrollFile derives the identity key and name from a file name.
func parseEnrollFile(path string) enrollEntry {
	stem := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	key, name, found := strings.Cut(stem, "__")
	if !found || strings.TrimSpace(name) == "" {
		name = key
	}
	return enrollEntry{
		Path: path,
		Key:  key,
		Name: strings.Join(strings.Fields(strings.ReplaceAll(name, "_", " ")), " "),
	}
}

// collectEnrollFiles lists the image files of dir in name order.
func collectEnrollFiles(dir string) ([]enrollEntry, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read directory: %w", err)
	}
	var out []enrollEntry
	for _, e := range entries {
		if e.IsDir() || !isImageFile(e.Name()) {
			continue
		}
		out = append(out, parseEnrollFile(filepath.Join(dir, e.Name())))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Path < out[j].Path })
	return out, nil
}

// enrollResult tallies a batch enrollment.
type enrollResult struct {
	Enrolled int
	Skipped  int
	Failed   map[string]error
}

// enrollAll registers entries with a bounded number of workers.
func enrollAll(ctx context.Context, svc *attendance.Service, entries []enrollEntry, concurrency int, bar *progressbar.ProgressBar) enrollResult {
	res := enrollResult{Failed: make(map[string]error)}
	var mu sync.Mutex

	sem := make(chan struct{}, max(concurrency, 1))
	var wg sync.WaitGroup

	for _, entry := range entries {
		wg.Add(1)
		go func(e enrollEntry) {
			defer wg.Done()
			sem <- struct{}{}
			defer func() { <-sem }()

			err := enrollOne(ctx, svc, e)

			mu.Lock()
			switch {
			case err == nil:
				res.Enrolled++
			case errors.Is(err, database.ErrDuplicateKey):
				res.Skipped++
			default:
				res.Failed[e.Path] = err
			}
			mu.Unlock()
			if bar != nil {
				bar.Add(1)
			}
		}(entry)
	}

	wg.Wait()
	return res
}

func enrollOne(ctx context.Context, svc *attendance.Service, e enrollEntry) error {
	payload, err := readImageDataURI(e.Path)
	if err != nil {
		return err
	}
	_, err = svc.Register(ctx, attendance.RegisterInput{Name: e.Name, IdentityKey: e.Key, FaceImage: payload})
	return err
}

func runEnrollDir(cmd *cobra.Command, args []string) error {
	entries, err := collectEnrollFiles(args[0])
	if err != nil {
		return err
	}
	if len(entries) == 0 {
		fmt.Println("No image files found")
		return nil
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

	fmt.Printf("Images to enroll: %d\n\n", len(entries))

	bar := progressbar.NewOptions(len(entries),
		progressbar.OptionSetDescription("Enrolling"),
		progressbar.OptionShowCount(),
		progressbar.OptionShowIts(),
		progressbar.OptionSetItsString("faces"),
		progressbar.OptionShowElapsedTimeOnFinish(),
		progressbar.OptionSetPredictTime(true),
		progressbar.OptionFullWidth(),
	)

	res := enrollAll(ctx, svc, entries, mustGetInt(cmd, "concurrency"), bar)
	fmt.Println()

	paths := make([]string, 0, len(res.Failed))
	for p := range res.Failed {
		paths = append(paths, p)
	}
	sort.Strings(paths)
	for _, p := range paths {
		logger.Warning("enrollment failed",
			logger.LoggerOptions{Key: "path", Data: p},
			logger.LoggerOptions{Key: "error", Data: res.Failed[p]},
		)
		fmt.Printf("  %s: %v\n", filepath.Base(p), res.Failed[p])
	}

	total, _ := store.CountIdentities(ctx)
	fmt.Printf("\nCompleted: %d enrolled, %d already enrolled, %d failed\n", res.Enrolled, res.Skipped, len(res.Failed))
	fmt.Printf("Total identities in store: %d\n", total)
	return nil
}
