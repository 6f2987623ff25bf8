package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"sort"
	"strings"
	"syscall"
	"time"

	"github.com/jmtucker/resonate/internal/config"
	"github.com/jmtucker/resonate/internal/engine"
	"github.com/jmtucker/resonate/internal/report"
	"github.com/jmtucker/resonate/internal/spectral"
	"github.com/spf13/cobra"
)

var analyzeForce bool

// analyzeCmd represents the analyze command
var analyzeCmd = &cobra.Command{
	Use:   "analyze [files...]",
	Short: "Analyze recordings and store the results",
	Long: `Run spectral analysis over recordings and store a report per file.

Each file is passed through the external analyzer, then the band
envelopes and musical key are derived from its output. Reports (key,
key confidence, tempo, beat count, duration) are stored in the analysis
database and printed. Without arguments, every audio file in the
recordings directory is analyzed; files that already have a report are
skipped unless --force is given.`,
	RunE: runAnalyze,
}

func init() {
	rootCmd.AddCommand(analyzeCmd)

	analyzeCmd.Flags().BoolVar(&analyzeForce, "force", false, "Re-analyze files that already have a report")
}

func runAnalyze(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	logger := setupLogger()

	files := args
	if len(files) == 0 {
		files, err = listAudioFiles(cfg.RecordingsDir)
		if err != nil {
			return err
		}
	}
	if len(files) == 0 {
		return fmt.Errorf("no audio files found in %s", cfg.RecordingsDir)
	}

	store, err := report.Open(cfg.DatabasePath())
	if err != nil {
		return err
	}
	defer store.Close()

	provider := spectral.NewCommandProvider(cfg.AnalyzerBin)
	engineCfg := engineConfig(cfg)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	for _, file := range files {
		if err := ctx.Err(); err != nil {
			return err
		}

		if !analyzeForce {
			if existing, err := store.Get(ctx, file); err == nil {
				printReport(existing)
				continue
			} else if !errors.Is(err, report.ErrNotFound) {
				return err
			}
		}

		logger.Info().Str("file", filepath.Base(file)).Msg("Analyzing")
		result, err := provider.Analyze(ctx, file)
		if err != nil {
			logger.Error().Err(err).Str("file", filepath.Base(file)).Msg("Analysis failed")
			continue
		}

		// Envelope derivation validates the shapes the visualizer will rely on
		if _, err := engine.Analyze(result.Input, engineCfg); err != nil {
			logger.Error().Err(err).Str("file", filepath.Base(file)).Msg("Envelope derivation failed")
			continue
		}

		key, err := engine.AnalyzeKey(result.Input, engineCfg)
		if err != nil {
			logger.Error().Err(err).Str("file", filepath.Base(file)).Msg("Key estimation failed")
			continue
		}

		r := report.Report{
			File:          file,
			Duration:      time.Duration(result.Duration * float64(time.Second)),
			Key:           key.Label,
			KeyConfidence: key.Confidence,
			TempoBPM:      result.TempoBPM,
			BeatCount:     len(result.BeatTimes),
		}
		if _, err := store.Save(ctx, r); err != nil {
			return err
		}
		printReport(&r)
	}

	return nil
}

func printReport(r *report.Report) {
	fmt.Printf("%s\n  key: %s (%.0f%%)  tempo: %.1f BPM  beats: %d  duration: %s\n",
		filepath.Base(r.File), r.Key, r.KeyConfidence*100, r.TempoBPM, r.BeatCount,
		r.Duration.Round(time.Second))
}

// engineConfig applies the configured smoothing windows to the default band
// layout.
func engineConfig(cfg *config.Config) engine.Config {
	ec := engine.DefaultConfig()
	if cfg.OnsetWindow > 0 {
		ec.Kick.Window = cfg.OnsetWindow
		ec.Snare.Window = cfg.OnsetWindow
		ec.HiHat.Window = cfg.OnsetWindow
	}
	if cfg.LevelWindow > 0 {
		ec.Bass.Window = cfg.LevelWindow
		ec.Vocals.Window = cfg.LevelWindow
	}
	return ec
}

// listAudioFiles returns the directory's audio files sorted by name.
func listAudioFiles(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", dir, err)
	}

	var files []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		switch strings.ToLower(filepath.Ext(e.Name())) {
		case ".wav", ".flac", ".mp3", ".ogg":
			files = append(files, filepath.Join(dir, e.Name()))
		}
	}
	sort.Strings(files)
	return files, nil
}
