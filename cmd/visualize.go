package cmd

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jmtucker/resonate/internal/config"
	"github.com/jmtucker/resonate/internal/engine"
	"github.com/jmtucker/resonate/internal/report"
	"github.com/jmtucker/resonate/internal/spectral"
	"github.com/jmtucker/resonate/internal/tui"
	"github.com/spf13/cobra"
)

var visualizeDir string

// visualizeCmd represents the visualize command
var visualizeCmd = &cobra.Command{
	Use:   "visualize",
	Short: "Play recordings with a live terminal visualizer",
	Long: `Play recordings while rendering their spectrum or beat components.

Audio plays through an external player (afplay by default). The display
offers two modes: a mel-spectrum bar view and a beats view built from the
kick/snare/hihat onset envelopes and bass/vocal levels. Analysis runs on
demand per file and its key and tempo are cached in the analysis
database.`,
	RunE: runVisualize,
}

func init() {
	rootCmd.AddCommand(visualizeCmd)

	visualizeCmd.Flags().StringVar(&visualizeDir, "dir", "", "Recordings directory (default from config)")
}

func runVisualize(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	dir := visualizeDir
	if dir == "" {
		dir = cfg.RecordingsDir
	}
	files, err := listAudioFiles(dir)
	if err != nil {
		return err
	}
	if len(files) == 0 {
		return fmt.Errorf("no audio files found in %s", dir)
	}

	store, err := report.Open(cfg.DatabasePath())
	if err != nil {
		return err
	}
	defer store.Close()

	provider := spectral.NewCommandProvider(cfg.AnalyzerBin)
	engineCfg := engineConfig(cfg)

	analyze := func(ctx context.Context, path string) (*tui.Analysis, error) {
		result, err := provider.Analyze(ctx, path)
		if err != nil {
			return nil, err
		}
		comps, err := engine.Analyze(result.Input, engineCfg)
		if err != nil {
			return nil, err
		}
		key, err := engine.AnalyzeKey(result.Input, engineCfg)
		if err != nil {
			return nil, err
		}

		// Cache the report so analyze does not redo this file
		if _, err := store.Get(ctx, path); errors.Is(err, report.ErrNotFound) {
			_, _ = store.Save(ctx, report.Report{
				File:          path,
				Duration:      time.Duration(result.Duration * float64(time.Second)),
				Key:           key.Label,
				KeyConfidence: key.Confidence,
				TempoBPM:      result.TempoBPM,
				BeatCount:     len(result.BeatTimes),
			})
		}

		return &tui.Analysis{
			Components: comps,
			Spectrum:   result.Input.MelTotal,
			Times:      result.Input.Times,
			Key:        key.Label,
			TempoBPM:   result.TempoBPM,
		}, nil
	}

	app := tui.New(tui.Config{PlayerBin: cfg.PlayerBin}, files, analyze)
	return app.Run(context.Background())
}
