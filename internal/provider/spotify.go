package provider

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"dromeport/internal/models"
	"dromeport/internal/parser"
)

// IsSpotifyPlaylistURL reports whether a Spotify URL targets a playlist or album.
func IsSpotifyPlaylistURL(url string) bool {
	u := strings.ToLower(url)
	return strings.Contains(u, "/playlist/") || strings.Contains(u, "/album/")
}

// NewSpotifyBuilder builds SpotiFLAC invocations. The tool path comes from the
// per-request config; the server fills in its own configured path when the
// client left it empty.
func NewSpotifyBuilder() Builder {
	return func(req models.DownloadRequest) (*Invocation, error) {
		cfg := req.Config
		spotify := cfg.Spotify

		toolPath := strings.TrimSpace(spotify.SpotiflacPath)
		if toolPath == "" {
			return nil, fmt.Errorf("SpotiFLAC path is not configured")
		}

		libraryPath := strings.TrimSpace(cfg.LibraryPath)
		if libraryPath == "" {
			return nil, fmt.Errorf("library path is empty — set it in Configuration")
		}
		if !filepath.IsAbs(libraryPath) {
			return nil, fmt.Errorf("%q is not an absolute path", libraryPath)
		}

		playlist := IsSpotifyPlaylistURL(req.URL)
		playlistFolder := strings.TrimSpace(req.PlaylistFolder)

		outputDir := libraryPath
		if playlist && cfg.PlaylistMode == models.PlaylistModeFolder && playlistFolder != "" {
			outputDir = filepath.Join(libraryPath, playlistFolder)
		}
		if err := os.MkdirAll(outputDir, 0o755); err != nil {
			return nil, fmt.Errorf("could not create directory %q: %w", outputDir, err)
		}

		service := spotify.SpotiflacService
		if service == "" {
			service = "tidal"
		}
		filenameFormat := spotify.SpotiflacFilenameFormat
		if filenameFormat == "" {
			filenameFormat = "{track_number} {title} - {artist}"
		}

		args := []string{
			req.URL,
			"--output-dir", outputDir,
			"--filename-format", filenameFormat,
		}
		for _, svc := range strings.Fields(service) {
			args = append(args, "--service", svc)
		}
		if spotify.SpotiflacArtistSubfolders {
			args = append(args, "--artist-subfolders")
		}
		if spotify.AlbumSubfoldersOn() {
			args = append(args, "--album-subfolders")
		}
		if spotify.SpotiflacLoop > 0 {
			// Bounded retry window; retries are the tool's own business.
			args = append(args, "--loop", strconv.Itoa(spotify.SpotiflacLoop))
		}

		inv := &Invocation{
			Provider:         models.ProviderSpotify,
			URL:              req.URL,
			Path:             toolPath,
			Args:             args,
			LibraryPath:      libraryPath,
			OutputDir:        outputDir,
			Profile:          parser.NewSpotiFLACProfile(),
			SuccessExitCodes: []int{0},
		}

		inv.Banner = append(inv.Banner,
			fmt.Sprintf("Starting Spotify download via SpotiFLAC (service: %s)...", service))
		if playlist {
			destNote := "library root (SpotiFLAC will create a subfolder per album/playlist)"
			if playlistFolder != "" {
				destNote = fmt.Sprintf("'%s'", playlistFolder)
			}
			inv.Banner = append(inv.Banner, "  Output folder : "+destNote)
		}
		inv.Banner = append(inv.Banner, "")

		return inv, nil
	}
}
