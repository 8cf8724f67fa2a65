package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDownloadConfig_Clone_IsDeep(t *testing.T) {
	on := true
	original := DownloadConfig{
		LibraryPath:  "/music",
		PlaylistMode: PlaylistModeFolder,
		YTMusic:      YTMusicConfig{Quality: "opus", EmbedMetadata: &on},
		Spotify:      SpotifyConfig{SpotiflacService: "tidal"},
	}

	clone := original.Clone()
	*clone.YTMusic.EmbedMetadata = false
	clone.Spotify.SpotiflacService = "qobuz"

	assert.True(t, *original.YTMusic.EmbedMetadata, "clone must not alias the original")
	assert.Equal(t, "tidal", original.Spotify.SpotiflacService)
	assert.Equal(t, "/music", clone.LibraryPath)
}

func TestYTMusicConfig_EmbedMetadataDefaultsOn(t *testing.T) {
	assert.True(t, YTMusicConfig{}.EmbedMetadataOn())

	off := false
	assert.False(t, YTMusicConfig{EmbedMetadata: &off}.EmbedMetadataOn())
}

func TestSpotifyConfig_AlbumSubfoldersDefaultOn(t *testing.T) {
	assert.True(t, SpotifyConfig{}.AlbumSubfoldersOn())

	off := false
	assert.False(t, SpotifyConfig{SpotiflacAlbumSubfolders: &off}.AlbumSubfoldersOn())
}
