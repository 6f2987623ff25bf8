package config

import (
	"os"
	"path/filepath"

	"github.com/spf13/viper"
)

// Config holds application configuration
type Config struct {
	// RecordingsDir is where captured WAV files and the analysis database live
	RecordingsDir string

	// FLACDir is where rips and the metadata CSV live
	FLACDir string

	// DeviceName is the CoreAudio loopback device to record from
	DeviceName string

	// PlaylistName is the default playlist for record and export
	PlaylistName string

	// PlayerBin plays recordings during visualization (afplay by default)
	PlayerBin string

	// SoxBin, MetaflacBin, and AnalyzerBin are the external tool paths
	SoxBin      string
	MetaflacBin string
	AnalyzerBin string

	// OnsetWindow and LevelWindow are the envelope smoothing window sizes
	OnsetWindow int
	LevelWindow int

	// Spotify Web API credentials
	Spotify SpotifyConfig
}

// SpotifyConfig holds Spotify Web API credentials
type SpotifyConfig struct {
	ClientID     string
	ClientSecret string
	RefreshToken string
}

// Load reads configuration from file and environment
func Load() (*Config, error) {
	v := viper.New()

	// Set config name and paths
	v.SetConfigName("config")
	v.SetConfigType("yaml")

	// Config file locations (in order of precedence)
	configDir := getConfigDir()
	v.AddConfigPath(configDir)
	v.AddConfigPath(".")

	// Set defaults
	home, _ := os.UserHomeDir()
	v.SetDefault("recordings_dir", filepath.Join(home, "Music", "resonate"))
	v.SetDefault("flac_dir", filepath.Join(home, "Music", "resonate", "flac"))
	v.SetDefault("device_name", "BlackHole 2ch")
	v.SetDefault("playlist_name", "Movement")
	v.SetDefault("player_bin", "afplay")
	v.SetDefault("sox_bin", "sox")
	v.SetDefault("metaflac_bin", "metaflac")
	v.SetDefault("analyzer_bin", "resonate-analyzer")
	v.SetDefault("onset_window", 7)
	v.SetDefault("level_window", 9)

	// Read config file (optional - don't fail if missing)
	_ = v.ReadInConfig()

	// Read from environment variables
	v.SetEnvPrefix("RESONATE")
	v.AutomaticEnv()

	// Map config to struct
	cfg := &Config{
		RecordingsDir: v.GetString("recordings_dir"),
		FLACDir:       v.GetString("flac_dir"),
		DeviceName:    v.GetString("device_name"),
		PlaylistName:  v.GetString("playlist_name"),
		PlayerBin:     v.GetString("player_bin"),
		SoxBin:        v.GetString("sox_bin"),
		MetaflacBin:   v.GetString("metaflac_bin"),
		AnalyzerBin:   v.GetString("analyzer_bin"),
		OnsetWindow:   v.GetInt("onset_window"),
		LevelWindow:   v.GetInt("level_window"),
		Spotify: SpotifyConfig{
			ClientID:     v.GetString("spotify.client_id"),
			ClientSecret: v.GetString("spotify.client_secret"),
			RefreshToken: v.GetString("spotify.refresh_token"),
		},
	}

	return cfg, nil
}

// getConfigDir returns the configuration directory path
// Creates the directory if it doesn't exist
func getConfigDir() string {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "."
	}

	configDir := filepath.Join(homeDir, ".config", "resonate")

	// Create config directory if it doesn't exist
	_ = os.MkdirAll(configDir, 0755)

	return configDir
}

// GetConfigDir returns the configuration directory path (public helper)
func GetConfigDir() string {
	return getConfigDir()
}

// DatabasePath returns the analysis database location inside the
// recordings directory.
func (c *Config) DatabasePath() string {
	return filepath.Join(c.RecordingsDir, "reports.db")
}

// MetadataCSVPath returns the metadata CSV location inside the FLAC
// directory.
func (c *Config) MetadataCSVPath() string {
	return filepath.Join(c.FLACDir, "metadata.csv")
}

// Save writes configuration to file
func (c *Config) Save() error {
	v := viper.New()

	// Set config file path
	configDir := getConfigDir()
	configFile := filepath.Join(configDir, "config.yaml")

	// Set values in viper
	v.Set("recordings_dir", c.RecordingsDir)
	v.Set("flac_dir", c.FLACDir)
	v.Set("device_name", c.DeviceName)
	v.Set("playlist_name", c.PlaylistName)
	v.Set("player_bin", c.PlayerBin)
	v.Set("sox_bin", c.SoxBin)
	v.Set("metaflac_bin", c.MetaflacBin)
	v.Set("analyzer_bin", c.AnalyzerBin)
	v.Set("onset_window", c.OnsetWindow)
	v.Set("level_window", c.LevelWindow)
	v.Set("spotify.client_id", c.Spotify.ClientID)
	v.Set("spotify.client_secret", c.Spotify.ClientSecret)
	v.Set("spotify.refresh_token", c.Spotify.RefreshToken)

	// Write to file
	return v.WriteConfigAs(configFile)
}
