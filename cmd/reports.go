package cmd

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/jmtucker/resonate/internal/config"
	"github.com/jmtucker/resonate/internal/report"
	"github.com/mattn/go-runewidth"
	"github.com/spf13/cobra"
)

// reportsCmd represents the reports command
var reportsCmd = &cobra.Command{
	Use:   "reports",
	Short: "List stored analysis reports",
	RunE:  runReports,
}

func init() {
	rootCmd.AddCommand(reportsCmd)
}

func runReports(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	store, err := report.Open(cfg.DatabasePath())
	if err != nil {
		return err
	}
	defer store.Close()

	reports, err := store.List(context.Background())
	if err != nil {
		return err
	}
	if len(reports) == 0 {
		fmt.Println("No reports yet. Run 'resonate analyze' first.")
		return nil
	}

	nameWidth := 0
	for _, r := range reports {
		if w := runewidth.StringWidth(filepath.Base(r.File)); w > nameWidth {
			nameWidth = w
		}
	}

	for _, r := range reports {
		fmt.Printf("%s  %-8s %3.0f%%  %6.1f BPM  %4d beats  %s\n",
			runewidth.FillRight(filepath.Base(r.File), nameWidth),
			r.Key, r.KeyConfidence*100, r.TempoBPM, r.BeatCount,
			r.Duration.Round(time.Second))
	}
	return nil
}
