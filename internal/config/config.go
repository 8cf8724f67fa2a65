package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type Config struct {
	Server   ServerConfig
	Database DatabaseConfig
	Library  LibraryConfig
	Tools    ToolsConfig
	Jobs     JobsConfig
}

type ServerConfig struct {
	Port int
	Env  string // "development", "production"
}

type DatabaseConfig struct {
	Path string // SQLite file path
}

// LibraryConfig lists the music libraries downloads may target.
type LibraryConfig struct {
	Libraries []Library
}

// Library is one destination root with a display name for the front-end.
type Library struct {
	Path        string `json:"path"`
	DefaultName string `json:"defaultName"`
}

// ToolsConfig points at the external acquisition tools.
type ToolsConfig struct {
	YTDLPPath     string
	SpotiflacPath string
}

type JobsConfig struct {
	MaxFinished int // finished jobs kept around for reconnecting clients
}

// Load reads configuration from .env file and environment variables.
func Load() (*Config, error) {
	// Load .env file (ignore error if missing)
	_ = godotenv.Load()

	viper.AutomaticEnv()

	viper.SetDefault("APP_PORT", 8080)
	viper.SetDefault("APP_ENV", "production")
	viper.SetDefault("DB_PATH", "dromeport.db")
	viper.SetDefault("YTDLP_PATH", "yt-dlp")
	viper.SetDefault("JOBS_MAX_FINISHED", 128)

	cfg := &Config{
		Server: ServerConfig{
			Port: viper.GetInt("APP_PORT"),
			Env:  viper.GetString("APP_ENV"),
		},
		Database: DatabaseConfig{
			Path: viper.GetString("DB_PATH"),
		},
		Library: LibraryConfig{
			Libraries: loadLibraries(),
		},
		Tools: ToolsConfig{
			YTDLPPath:     viper.GetString("YTDLP_PATH"),
			SpotiflacPath: strings.TrimSpace(viper.GetString("SPOTIFLAC_PATH")),
		},
		Jobs: JobsConfig{
			MaxFinished: viper.GetInt("JOBS_MAX_FINISHED"),
		},
	}

	return cfg, nil
}

// loadLibraries reads the numbered DROMEPORT_LIBRARY_n variables, each of the
// form "path" or "path|display name". Numbering stops at the first unset var.
func loadLibraries() []Library {
	var libraries []Library
	for i := 1; ; i++ {
		raw, ok := os.LookupEnv(fmt.Sprintf("DROMEPORT_LIBRARY_%d", i))
		if !ok {
			break
		}

		path := raw
		name := ""
		if idx := strings.Index(raw, "|"); idx >= 0 {
			path = raw[:idx]
			name = strings.TrimSpace(raw[idx+1:])
		}
		path = strings.TrimSpace(path)
		if path == "" {
			continue
		}
		if name == "" {
			name = filepath.Base(strings.TrimRight(path, "/"))
			if name == "" || name == "." || name == string(filepath.Separator) {
				name = path
			}
		}
		libraries = append(libraries, Library{Path: path, DefaultName: name})
	}
	return libraries
}

// SpotiflacDir returns the directory holding the SpotiFLAC checkout, or ""
// when no tool path is configured.
func (t *ToolsConfig) SpotiflacDir() string {
	if t.SpotiflacPath == "" {
		return ""
	}
	return filepath.Dir(t.SpotiflacPath)
}
