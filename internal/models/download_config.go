package models

import "encoding/json"

// Provider tags — the closed set of acquisition back-ends.
const (
	ProviderYTMusic = "YouTube Music"
	ProviderSpotify = "Spotify"
)

// Playlist organisation modes.
const (
	PlaylistModeFlat   = "flat"
	PlaylistModeFolder = "folder"
)

// DownloadConfig is the full client-side configuration for one acquisition.
// Sync entries embed a snapshot of it taken at creation time; later UI changes
// never reach an existing schedule.
type DownloadConfig struct {
	LibraryPath  string        `json:"libraryPath"`
	PlaylistMode string        `json:"playlistMode,omitempty"`
	YTMusic      YTMusicConfig `json:"ytMusic,omitempty"`
	Spotify      SpotifyConfig `json:"spotify,omitempty"`
}

// YTMusicConfig holds yt-dlp options.
type YTMusicConfig struct {
	Quality       string `json:"quality,omitempty"` // opus, mp3
	EmbedMetadata *bool  `json:"embedMetadata,omitempty"`
}

// SpotifyConfig holds SpotiFLAC options.
type SpotifyConfig struct {
	SpotiflacPath             string `json:"spotiflacPath,omitempty"`
	SpotiflacService          string `json:"spotiflacService,omitempty"` // space-separated service list
	SpotiflacLoop             int    `json:"spotiflacLoop,omitempty"`    // bounded retry window in minutes, passed through
	SpotiflacArtistSubfolders bool   `json:"spotiflacArtistSubfolders,omitempty"`
	SpotiflacAlbumSubfolders  *bool  `json:"spotiflacAlbumSubfolders,omitempty"`
	SpotiflacFilenameFormat   string `json:"spotiflacFilenameFormat,omitempty"`
	SpotiflacOutputFormat     string `json:"spotiflacOutputFormat,omitempty"`
}

// EmbedMetadataOn reports the effective embed-metadata setting (default on).
func (c YTMusicConfig) EmbedMetadataOn() bool {
	return c.EmbedMetadata == nil || *c.EmbedMetadata
}

// AlbumSubfoldersOn reports the effective album-subfolder setting (default on).
func (c SpotifyConfig) AlbumSubfoldersOn() bool {
	return c.SpotiflacAlbumSubfolders == nil || *c.SpotiflacAlbumSubfolders
}

// Clone returns a deep copy via a JSON round-trip, the snapshot operation
// behind sync entry creation.
func (c DownloadConfig) Clone() DownloadConfig {
	raw, _ := json.Marshal(c)
	var out DownloadConfig
	_ = json.Unmarshal(raw, &out)
	return out
}

// DownloadRequest is one acquisition to run: a provider, a target URL and the
// configuration in force for this run.
type DownloadRequest struct {
	Provider       string
	URL            string
	Config         DownloadConfig
	PlaylistFolder string // target sub-folder below the library root, optional
}
