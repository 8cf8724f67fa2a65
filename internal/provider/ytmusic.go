package provider

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"dromeport/internal/models"
	"dromeport/internal/parser"
)

// IsYTPlaylistURL reports whether a YouTube Music URL targets a playlist or
// album rather than a single track.
func IsYTPlaylistURL(url string) bool {
	u := strings.ToLower(url)
	if strings.Contains(u, "/playlist") || strings.Contains(u, "/album/") {
		return true
	}
	if !strings.Contains(u, "list=") {
		return false
	}
	// watch?v=...&list=... is a single track opened in a playlist context.
	return !strings.Contains(u, "watch?v=")
}

// NewYTMusicBuilder builds yt-dlp invocations for audio extraction.
func NewYTMusicBuilder(ytdlpPath string) Builder {
	if ytdlpPath == "" {
		ytdlpPath = "yt-dlp"
	}

	return func(req models.DownloadRequest) (*Invocation, error) {
		cfg := req.Config
		libraryPath := strings.TrimSpace(cfg.LibraryPath)
		if libraryPath == "" {
			return nil, fmt.Errorf("library path is empty — set it in Configuration")
		}
		if !filepath.IsAbs(libraryPath) {
			return nil, fmt.Errorf("%q is not an absolute path", libraryPath)
		}

		audioFormat := cfg.YTMusic.Quality
		if audioFormat == "" {
			audioFormat = "opus"
		}

		playlist := IsYTPlaylistURL(req.URL)
		playlistFolder := strings.TrimSpace(req.PlaylistFolder)

		outputBase := libraryPath
		if playlist && cfg.PlaylistMode == models.PlaylistModeFolder {
			if playlistFolder != "" {
				outputBase = filepath.Join(libraryPath, playlistFolder)
			} else {
				// Let yt-dlp expand its own playlist title variable.
				outputBase = filepath.Join(libraryPath, "%(playlist_title)s")
			}
		}

		if err := os.MkdirAll(libraryPath, 0o755); err != nil {
			return nil, fmt.Errorf("could not create directory: %w", err)
		}
		if playlist && cfg.PlaylistMode == models.PlaylistModeFolder && playlistFolder != "" {
			if err := os.MkdirAll(outputBase, 0o755); err != nil {
				return nil, fmt.Errorf("could not create directory: %w", err)
			}
		}

		args := []string{
			"--extract-audio",
			"--audio-format", audioFormat,
			"--output", filepath.Join(outputBase, "%(title)s.%(ext)s"),
			"--ignore-errors",
			"--newline",
			"--no-colors",
		}
		if !playlist {
			args = append(args, "--no-playlist")
		}
		if audioFormat == "mp3" {
			args = append(args, "--audio-quality", "0")
		}
		if cfg.YTMusic.EmbedMetadataOn() {
			args = append(args, "--embed-metadata", "--embed-thumbnail")
		}
		args = append(args, req.URL)

		inv := &Invocation{
			Provider:         models.ProviderYTMusic,
			URL:              req.URL,
			Path:             ytdlpPath,
			Args:             args,
			LibraryPath:      libraryPath,
			OutputDir:        outputBase,
			Profile:          parser.NewYTMusicProfile(playlist),
			SuccessExitCodes: []int{0, 1}, // 1 = some items failed under --ignore-errors
		}

		if playlist {
			inv.Banner = append(inv.Banner, "▶ Starting playlist download...")
			destNote := "flat (library root)"
			if cfg.PlaylistMode == models.PlaylistModeFolder {
				if playlistFolder != "" {
					destNote = fmt.Sprintf("subfolder: '%s'", playlistFolder)
				} else {
					destNote = "subfolder: <playlist title>"
				}
			}
			inv.Banner = append(inv.Banner, "  Mode: "+destNote)
		} else {
			inv.Banner = append(inv.Banner, "▶ Starting download...")
		}
		inv.Banner = append(inv.Banner, "$ "+inv.Command(), "")

		return inv, nil
	}
}
