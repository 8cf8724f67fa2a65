package parser

import (
	"fmt"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"
)

var (
	ytPlaylistTitleRe = regexp.MustCompile(`\[download\] Downloading playlist: (.+)`)
	ytPlaylistTotalRe = regexp.MustCompile(`Playlist .+: Downloading (\d+) items`)
	ytItemRe          = regexp.MustCompile(`^\[download\] Downloading item (\d+) of (\d+)`)
	ytVideoURLRe      = regexp.MustCompile(`\[youtube\] Extracting URL: .+watch\?v=([A-Za-z0-9_-]{11})`)
	ytDestinationRe   = regexp.MustCompile(`Destination:\s+(.+)$`)
)

// YTMusicProfile recognizes the output shapes of a yt-dlp audio run.
type YTMusicProfile struct {
	playlist   bool
	total      int
	downloaded int
	skipped    int
	thumbSeen  bool
}

// NewYTMusicProfile returns a profile for one yt-dlp invocation. playlist
// selects between per-item playlist progress and single-track title discovery.
func NewYTMusicProfile(playlist bool) *YTMusicProfile {
	return &YTMusicProfile{playlist: playlist}
}

func (p *YTMusicProfile) Consume(line string) Result {
	if m := ytPlaylistTitleRe.FindStringSubmatch(line); m != nil {
		return Result{Signal: &Signal{Type: SignalTitle, Value: strings.TrimSpace(m[1])}}
	}

	if m := ytPlaylistTotalRe.FindStringSubmatch(line); m != nil {
		p.total, _ = strconv.Atoi(m[1])
		return Result{Signal: &Signal{Type: SignalProgress, Current: 0, Total: p.total}}
	}

	if m := ytItemRe.FindStringSubmatch(line); m != nil {
		current, _ := strconv.Atoi(m[1])
		p.total, _ = strconv.Atoi(m[2])
		return Result{Signal: &Signal{Type: SignalProgress, Current: current - 1, Total: p.total}}
	}

	if !p.thumbSeen {
		if m := ytVideoURLRe.FindStringSubmatch(line); m != nil {
			p.thumbSeen = true
			thumb := fmt.Sprintf("https://img.youtube.com/vi/%s/mqdefault.jpg", m[1])
			return Result{Signal: &Signal{Type: SignalThumb, URL: thumb}}
		}
	}

	if strings.Contains(line, "[ExtractAudio] Destination:") {
		p.downloaded++
		if p.playlist {
			return Result{Signal: &Signal{Type: SignalProgress, Current: p.downloaded, Total: p.total}}
		}
		if m := ytDestinationRe.FindStringSubmatch(line); m != nil {
			name := filepath.Base(strings.TrimSpace(m[1]))
			title := strings.TrimSuffix(name, filepath.Ext(name))
			return Result{Signal: &Signal{Type: SignalTitle, Value: title}}
		}
		return Result{}
	}

	if strings.Contains(line, "[download] has already been downloaded") {
		p.skipped++
	}

	return Result{}
}

// Downloaded reports how many tracks finished extraction so far.
func (p *YTMusicProfile) Downloaded() int { return p.downloaded }

// Skipped reports how many tracks already existed on disk.
func (p *YTMusicProfile) Skipped() int { return p.skipped }

// Total reports the playlist item count, 0 until yt-dlp announced one.
func (p *YTMusicProfile) Total() int { return p.total }
