package ytgrab

import (
	"errors"
	"net/url"
	"strings"

	"github.com/hashicorp/go-multierror"
	"github.com/kkdai/youtube/v2"
)

var (
	ErrEmptyURL      = errors.New("no URL provided")
	ErrUnknownMode   = errors.New("unknown mode")
	ErrUnknownFormat = errors.New("unknown format")
)

// Mode selects how much of the target URL should be downloaded.
type Mode string

const (
	ModeVideo    Mode = "video"
	ModePlaylist Mode = "playlist"
	ModeChannel  Mode = "channel"
)

// IsMulti returns true if the mode expands to more than one item, i.e. the
// playlist restriction must be relaxed for it.
func (m Mode) IsMulti() bool {
	return m == ModePlaylist || m == ModeChannel
}

// Format is the requested target container: a video file or extracted audio.
type Format string

const (
	FormatMP4 Format = "mp4"
	FormatMP3 Format = "mp3"
)

// A Request captures one user-submitted download. It is immutable once
// submitted: created per user action, consumed once by BuildOptions, and
// discarded after the extraction call returns.
type Request struct {
	URL     string
	Mode    Mode
	Format  Format
	Quality string // "auto" or a vertical resolution like "720" or "1080p"

	Subtitles bool
	Thumbnail bool
	Metadata  bool

	// MP3Bitrate only applies when Format is FormatMP3; empty means the
	// default bitrate.
	MP3Bitrate string
}

// Validate reports every problem with the request at once.
func (r Request) Validate() error {
	var result error
	if strings.TrimSpace(r.URL) == "" {
		result = multierror.Append(result, ErrEmptyURL)
	}
	switch r.Mode {
	case ModeVideo, ModePlaylist, ModeChannel:
	default:
		result = multierror.Append(result, ErrUnknownMode)
	}
	switch r.Format {
	case FormatMP4, FormatMP3:
	default:
		result = multierror.Append(result, ErrUnknownFormat)
	}
	return result
}

// ParseQuality extracts a target vertical resolution from a quality selector
// like "720", "720p" or "hd1080". Returns false for "auto" and anything else
// that doesn't name a positive height; unparsable input degrades rather than
// failing.
func ParseQuality(s string) (int, bool) {
	h := 0
	seen := false
	for _, r := range s {
		if r >= '0' && r <= '9' {
			h = h*10 + int(r-'0')
			seen = true
			if h > 100000 {
				return 0, false
			}
		}
	}
	if !seen || h <= 0 {
		return 0, false
	}
	return h, true
}

// ClassifyURL guesses the download mode from the shape of a YouTube URL.
// Advisory only: a mismatch with the user's chosen mode is worth a warning,
// not a rejection, since yt-dlp handles many URL shapes we don't recognize.
func ClassifyURL(rawURL string) (Mode, bool) {
	parsed, err := url.Parse(strings.TrimSpace(rawURL))
	if err != nil || parsed.Host == "" {
		return "", false
	}
	if parsed.Query().Get("list") != "" {
		return ModePlaylist, true
	}
	path := parsed.EscapedPath()
	if strings.HasPrefix(path, "/channel/") || strings.HasPrefix(path, "/c/") || strings.HasPrefix(path, "/user/") || strings.HasPrefix(path, "/@") {
		return ModeChannel, true
	}
	if strings.HasPrefix(path, "/playlist") {
		return ModePlaylist, true
	}
	if _, err := youtube.ExtractVideoID(rawURL); err == nil {
		return ModeVideo, true
	}
	return "", false
}
