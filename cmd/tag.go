package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/jmtucker/resonate/internal/config"
	"github.com/jmtucker/resonate/internal/library"
	"github.com/spf13/cobra"
)

var (
	tagCSV   string
	tagDir   string
	tagForce bool
)

// tagCmd represents the tag command
var tagCmd = &cobra.Command{
	Use:   "tag",
	Short: "Tag FLAC files from a metadata CSV",
	Long: `Apply a metadata CSV (from the export command) to FLAC rips.

Files are matched by the CSV's suggested filename in the FLAC directory.
Vorbis comments are written with metaflac and album art is downloaded
and embedded as the front cover. Files whose title and artist tags
already match are skipped unless --force is given.`,
	RunE: runTag,
}

func init() {
	rootCmd.AddCommand(tagCmd)

	tagCmd.Flags().StringVar(&tagCSV, "csv", "", "Metadata CSV path (default <flac_dir>/metadata.csv)")
	tagCmd.Flags().StringVar(&tagDir, "dir", "", "FLAC directory (default from config)")
	tagCmd.Flags().BoolVar(&tagForce, "force", false, "Retag files that already carry matching tags")
}

func runTag(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	logger := setupLogger()

	csvPath := tagCSV
	if csvPath == "" {
		csvPath = cfg.MetadataCSVPath()
	}
	flacDir := tagDir
	if flacDir == "" {
		flacDir = cfg.FLACDir
	}

	tagger := library.NewTagger(library.TaggerConfig{
		MetaflacBin: cfg.MetaflacBin,
		FLACDir:     flacDir,
		Force:       tagForce,
	}, logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	result, err := tagger.TagFromCSV(ctx, csvPath)
	if err != nil {
		return err
	}

	fmt.Printf("Done. Tagged %d, skipped %d, missing %d, failed %d.\n",
		result.Tagged, result.Skipped, result.Missing, result.Failed)
	return nil
}
