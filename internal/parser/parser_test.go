package parser

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConsume_StructuredMetaLine(t *testing.T) {
	p := New(nil)

	res := p.Consume(`@meta {"type":"title","value":"Liquid DnB Mix"}`)
	require.NotNil(t, res.Signal)
	assert.Equal(t, SignalTitle, res.Signal.Type)
	assert.Equal(t, "Liquid DnB Mix", res.Signal.Value)
	assert.False(t, res.ErrorMark)
}

func TestConsume_MalformedMetaDegradesToRawLog(t *testing.T) {
	p := New(nil)

	for _, line := range []string{
		`@meta {not json}`,
		`@meta {"type":"unknown","value":"x"}`,
		`@meta {"type":"title"}`,
		`@meta {"type":"thumb"}`,
		`@meta {"type":"progress","current":-1,"total":5}`,
	} {
		res := p.Consume(line)
		assert.Nil(t, res.Signal, "line %q should carry no signal", line)
		assert.False(t, res.ErrorMark)
	}
}

func TestConsume_BareProgressLine(t *testing.T) {
	p := New(nil)

	res := p.Consume("3/10")
	require.NotNil(t, res.Signal)
	assert.Equal(t, SignalProgress, res.Signal.Type)
	assert.Equal(t, 3, res.Signal.Current)
	assert.Equal(t, 10, res.Signal.Total)

	assert.Nil(t, p.Consume("3/10/2").Signal)
	assert.Nil(t, p.Consume("items 3/10 done").Signal)
}

func TestConsume_ErrorMarkers(t *testing.T) {
	p := New(nil)

	assert.True(t, p.Consume("ERROR: unable to download video data").ErrorMark)
	assert.True(t, p.Consume("  ❌ Failed: some track").ErrorMark)
	assert.False(t, p.Consume("no error here").ErrorMark)
	// The token only counts at line start.
	assert.False(t, p.Consume("downloader ERROR: retrying").ErrorMark)
}

func TestYTMusicProfile_PlaylistRun(t *testing.T) {
	p := New(NewYTMusicProfile(true))

	res := p.Consume("[download] Downloading playlist: Chill Beats")
	require.NotNil(t, res.Signal)
	assert.Equal(t, SignalTitle, res.Signal.Type)
	assert.Equal(t, "Chill Beats", res.Signal.Value)

	res = p.Consume("[youtube:tab] Playlist Chill Beats: Downloading 25 items of 25")
	require.NotNil(t, res.Signal)
	assert.Equal(t, SignalProgress, res.Signal.Type)
	assert.Equal(t, 0, res.Signal.Current)
	assert.Equal(t, 25, res.Signal.Total)

	res = p.Consume("[download] Downloading item 3 of 25")
	require.NotNil(t, res.Signal)
	assert.Equal(t, 2, res.Signal.Current)
	assert.Equal(t, 25, res.Signal.Total)

	res = p.Consume("[youtube] Extracting URL: https://www.youtube.com/watch?v=dQw4w9WgXcQ")
	require.NotNil(t, res.Signal)
	assert.Equal(t, SignalThumb, res.Signal.Type)
	assert.Equal(t, "https://img.youtube.com/vi/dQw4w9WgXcQ/mqdefault.jpg", res.Signal.URL)

	// Only the first video URL becomes the thumbnail.
	res = p.Consume("[youtube] Extracting URL: https://www.youtube.com/watch?v=aaaaaaaaaaa")
	assert.Nil(t, res.Signal)

	res = p.Consume("[ExtractAudio] Destination: /music/Chill Beats/Track One.opus")
	require.NotNil(t, res.Signal)
	assert.Equal(t, SignalProgress, res.Signal.Type)
	assert.Equal(t, 1, res.Signal.Current)

	profile := p.Profile().(*YTMusicProfile)
	assert.Equal(t, 1, profile.Downloaded())
	assert.Equal(t, 25, profile.Total())
}

func TestYTMusicProfile_SingleTrackTitleFromDestination(t *testing.T) {
	p := New(NewYTMusicProfile(false))

	res := p.Consume("[ExtractAudio] Destination: /music/Some Song - Artist.opus")
	require.NotNil(t, res.Signal)
	assert.Equal(t, SignalTitle, res.Signal.Type)
	assert.Equal(t, "Some Song - Artist", res.Signal.Value)
}

func TestYTMusicProfile_CountsSkipped(t *testing.T) {
	profile := NewYTMusicProfile(true)
	p := New(profile)

	p.Consume("[download] /music/x.opus has already been downloaded")
	assert.Equal(t, 1, profile.Skipped())
}

func TestSpotiFLACProfile_FullRun(t *testing.T) {
	profile := NewSpotiFLACProfile()
	p := New(profile)

	res := p.Consume("[1/12] Starting download: Track One")
	require.NotNil(t, res.Signal)
	assert.Equal(t, SignalProgress, res.Signal.Type)
	assert.Equal(t, 0, res.Signal.Current)
	assert.Equal(t, 12, res.Signal.Total)

	res = p.Consume("Successfully downloaded using: tidal")
	require.NotNil(t, res.Signal)
	assert.Equal(t, 1, res.Signal.Current)
	assert.Equal(t, 12, res.Signal.Total)

	assert.True(t, p.Consume("[X] Failed all services for: Track Two").ErrorMark)
	assert.True(t, p.Consume("Error: invalid Spotify URL").ErrorMark)

	p.Consume("File already exists: Track Three.flac - Skipping")
	assert.Equal(t, 1, profile.Skipped())
	assert.Equal(t, 1, profile.Downloaded())
}

func TestSignal_MarshalRoundTrip(t *testing.T) {
	raw, err := Signal{Type: SignalProgress, Current: 7, Total: 10}.MarshalJSON()
	require.NoError(t, err)
	assert.JSONEq(t, `{"type":"progress","current":7,"total":10}`, string(raw))

	raw, err = Signal{Type: SignalJobID, Value: "abc"}.MarshalJSON()
	require.NoError(t, err)
	assert.JSONEq(t, `{"type":"job_id","value":"abc"}`, string(raw))
}
