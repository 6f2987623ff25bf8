package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/jmtucker/resonate/internal/config"
	"github.com/jmtucker/resonate/internal/library"
	"github.com/jmtucker/resonate/internal/player"
	"github.com/jmtucker/resonate/internal/recorder"
	"github.com/jmtucker/resonate/pkg/spotify"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
)

const (
	preRoll       = 500 * time.Millisecond // recorder head start before playback
	postRoll      = 800 * time.Millisecond // capture a touch past the track end
	bufferPreload = 500 * time.Millisecond // let the app buffer before rewinding
	interTrackGap = 5 * time.Second
	stopGrace     = 5 * time.Second
)

var (
	recordPlaylist  string
	recordOutDir    string
	recordMaxTracks int
)

// recordCmd represents the record command
var recordCmd = &cobra.Command{
	Use:   "record",
	Short: "Record a playlist through the loopback device",
	Long: `Record every track of a playlist as WAV files.

Each track is preloaded and rewound in the Spotify desktop app, then
captured from the CoreAudio loopback device with sox while the app plays
it. Tracks whose output file already exists are skipped, so an
interrupted run can be resumed.`,
	RunE: runRecord,
}

func init() {
	rootCmd.AddCommand(recordCmd)

	recordCmd.Flags().StringVar(&recordPlaylist, "playlist", "", "Playlist name (default from config)")
	recordCmd.Flags().StringVar(&recordOutDir, "out-dir", "", "Output directory (default from config)")
	recordCmd.Flags().IntVar(&recordMaxTracks, "max-tracks", 0, "Limit the number of tracks (0 = all)")
}

func runRecord(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	logger := setupLogger()

	playlistName := recordPlaylist
	if playlistName == "" {
		playlistName = cfg.PlaylistName
	}
	outDir := recordOutDir
	if outDir == "" {
		outDir = cfg.RecordingsDir
	}
	if err := os.MkdirAll(outDir, 0755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}

	client, err := newSpotifyClient(cfg)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	logger.Info().Str("playlist", playlistName).Msg("Fetching playlist")
	playlist, err := client.Playlists().FindByName(ctx, playlistName)
	if err != nil {
		return fmt.Errorf("failed to find playlist %q: %w", playlistName, err)
	}
	items, err := client.Playlists().Items(ctx, playlist.ID)
	if err != nil {
		return fmt.Errorf("failed to fetch playlist items: %w", err)
	}
	if recordMaxTracks > 0 && len(items) > recordMaxTracks {
		items = items[:recordMaxTracks]
	}
	logger.Info().Int("tracks", len(items)).Msg("Found tracks")

	app := player.NewAppleScriptClient()
	if err := app.Open(ctx); err != nil {
		return err
	}

	rec := recorder.New(recorder.Config{
		SoxBin:     cfg.SoxBin,
		DeviceName: cfg.DeviceName,
	}, logger)

	for i, item := range items {
		if err := ctx.Err(); err != nil {
			return err
		}
		track := item.Track
		if track.ID == "" || track.URI == "" {
			logger.Warn().Int("index", i+1).Msg("Skipping item with no track")
			continue
		}

		base := fmt.Sprintf("%s - %s",
			library.SanitizeFilename(track.PrimaryArtist()),
			library.SanitizeFilename(track.Name))
		wavPath := filepath.Join(outDir, base+".wav")
		if _, err := os.Stat(wavPath); err == nil {
			logger.Info().Int("index", i+1).Str("file", base+".wav").Msg("Exists, skipping")
			continue
		}

		captureDur := time.Duration(track.DurationMS)*time.Millisecond + preRoll + postRoll
		logger.Info().
			Int("index", i+1).
			Str("file", base+".wav").
			Dur("duration", captureDur).
			Msg("Recording")

		if err := recordTrack(ctx, app, rec, track.URI, captureDur, wavPath, logger); err != nil {
			return fmt.Errorf("failed to record %q: %w", track.Name, err)
		}

		if err := sleepCtx(ctx, interTrackGap); err != nil {
			return err
		}
	}

	_ = app.Pause(context.Background())
	logger.Info().Msg("Done")
	return nil
}

// recordTrack runs the capture dance for one track: preload paused at zero,
// start the recorder, give it a head start, play, and stop everything once
// the capture window has elapsed.
func recordTrack(ctx context.Context, app player.Client, rec *recorder.Recorder, uri string, dur time.Duration, outPath string, logger zerolog.Logger) error {
	if err := app.Preload(ctx, uri, bufferPreload); err != nil {
		return err
	}

	cap, err := rec.Start(ctx, dur, outPath)
	if err != nil {
		return err
	}

	if err := sleepCtx(ctx, preRoll); err != nil {
		_ = cap.Stop(stopGrace)
		return err
	}
	if err := app.Play(ctx); err != nil {
		_ = cap.Stop(stopGrace)
		return err
	}

	if err := sleepCtx(ctx, dur); err != nil {
		_ = cap.Stop(stopGrace)
		return err
	}
	if err := app.Pause(ctx); err != nil {
		logger.Warn().Err(err).Msg("Failed to pause after capture")
	}

	// sox exits on its own when the trim duration elapses
	if err := cap.Wait(); err != nil {
		logger.Warn().Err(err).Msg("Recorder did not exit cleanly, forcing stop")
		return cap.Stop(stopGrace)
	}
	return nil
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(d):
		return nil
	}
}

// newSpotifyClient builds an API client from config credentials.
func newSpotifyClient(cfg *config.Config) (*spotify.Client, error) {
	if cfg.Spotify.ClientID == "" || cfg.Spotify.ClientSecret == "" {
		return nil, fmt.Errorf("spotify credentials not configured; set spotify.client_id and spotify.client_secret in %s", config.GetConfigDir())
	}
	return spotify.NewClient(spotify.Config{
		ClientID:     cfg.Spotify.ClientID,
		ClientSecret: cfg.Spotify.ClientSecret,
		RefreshToken: cfg.Spotify.RefreshToken,
	})
}
