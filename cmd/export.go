package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/jmtucker/resonate/internal/config"
	"github.com/jmtucker/resonate/internal/library"
	"github.com/jmtucker/resonate/pkg/spotify"
	"github.com/spf13/cobra"
)

var (
	exportPlaylist string
	exportLiked    int
	exportOut      string
)

// exportCmd represents the export command
var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export track metadata to CSV",
	Long: `Export playlist or liked-song metadata as a tagging CSV.

Each row carries the Vorbis comment fields (title, artist, album, album
artist, genre, year, track/disc numbers, ISRC), the Spotify identifiers,
the largest album art URL, and the filename a rip of the track is
expected to use. The CSV is consumed by the tag command.`,
	RunE: runExport,
}

func init() {
	rootCmd.AddCommand(exportCmd)

	exportCmd.Flags().StringVar(&exportPlaylist, "playlist", "", "Playlist name (default from config)")
	exportCmd.Flags().IntVar(&exportLiked, "liked", 0, "Export the N most recent liked songs instead of a playlist")
	exportCmd.Flags().StringVar(&exportOut, "out", "", "Output CSV path (default <flac_dir>/metadata.csv)")
}

func runExport(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	logger := setupLogger()

	client, err := newSpotifyClient(cfg)
	if err != nil {
		return err
	}

	outPath := exportOut
	if outPath == "" {
		outPath = cfg.MetadataCSVPath()
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var tracks []spotify.Track
	if exportLiked > 0 {
		logger.Info().Int("max", exportLiked).Msg("Fetching liked songs")
		saved, err := client.Library().SavedTracks(ctx, exportLiked)
		if err != nil {
			return fmt.Errorf("failed to fetch liked songs: %w", err)
		}
		for _, s := range saved {
			tracks = append(tracks, s.Track)
		}
	} else {
		playlistName := exportPlaylist
		if playlistName == "" {
			playlistName = cfg.PlaylistName
		}
		logger.Info().Str("playlist", playlistName).Msg("Fetching playlist")
		playlist, err := client.Playlists().FindByName(ctx, playlistName)
		if err != nil {
			return fmt.Errorf("failed to find playlist %q: %w", playlistName, err)
		}
		items, err := client.Playlists().Items(ctx, playlist.ID)
		if err != nil {
			return fmt.Errorf("failed to fetch playlist items: %w", err)
		}
		for _, item := range items {
			tracks = append(tracks, item.Track)
		}
	}
	logger.Info().Int("tracks", len(tracks)).Msg("Found tracks")

	var artistIDs []string
	for _, t := range tracks {
		if len(t.Artists) > 0 {
			artistIDs = append(artistIDs, t.Artists[0].ID)
		}
	}
	genres, err := client.Playlists().ArtistGenres(ctx, artistIDs)
	if err != nil {
		return fmt.Errorf("failed to fetch artist genres: %w", err)
	}

	rows := library.BuildRows(tracks, genres)
	if err := library.WriteCSV(outPath, rows); err != nil {
		return err
	}

	logger.Info().Int("rows", len(rows)).Str("path", outPath).Msg("Wrote metadata CSV")
	return nil
}
