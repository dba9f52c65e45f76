package ytgrab

import (
	"fmt"
	"path/filepath"
)

const (
	// DefaultAudioBitrate is used when an audio download doesn't name one.
	DefaultAudioBitrate = "192"

	// FallbackFormatSelector prefers a single pre-muxed file, for when ffmpeg
	// is unavailable and a two-stream merge would fail unrecoverably.
	FallbackFormatSelector = "best[ext=mp4]/best"

	outputFileTemplate = "%(title)s.%(ext)s"
)

// Options is the typed configuration record handed to the extraction tool for
// one download call. Field names follow yt-dlp's directives.
type Options struct {
	OutputTemplate string
	FormatSelector string

	// NoPlaylist restricts multi-item expansion. Set by default; the caller
	// relaxes it for playlist/channel requests after building.
	NoPlaylist bool

	Quiet      bool
	NoWarnings bool

	WriteSubtitles   bool
	WriteAutoSubs    bool
	WriteThumbnail   bool
	WriteDescription bool
	WriteInfoJSON    bool

	// FFmpegLocation is the directory containing ffmpeg, if detected.
	FFmpegLocation string

	AbortOnUnavailableFragments bool

	ExtractAudio bool
	AudioFormat  string
	AudioQuality string
}

// BuildOptions translates a Request into an Options record, applying the
// single-file fallback policy when ffmpeg is unavailable. It never fails:
// unparsable quality selectors degrade to "best". The only observable side
// effect is the fallback log line emitted via logf.
func BuildOptions(req Request, outDir string, ffmpeg FFmpeg, logf func(format string, args ...any)) Options {
	opts := Options{
		OutputTemplate:              filepath.Join(outDir, outputFileTemplate),
		NoPlaylist:                  true,
		Quiet:                       true,
		NoWarnings:                  true,
		WriteSubtitles:              req.Subtitles,
		WriteAutoSubs:               req.Subtitles,
		WriteThumbnail:              req.Thumbnail,
		AbortOnUnavailableFragments: true,
	}
	if ffmpeg.Available {
		opts.FFmpegLocation = ffmpeg.Dir
	}

	if req.Format == FormatMP3 {
		bitrate := req.MP3Bitrate
		if bitrate == "" {
			bitrate = DefaultAudioBitrate
		}
		opts.FormatSelector = "bestaudio/best"
		opts.ExtractAudio = true
		opts.AudioFormat = "mp3"
		opts.AudioQuality = bitrate
		// Quality selector and metadata sidecars don't apply to audio.
		return opts
	}

	if !ffmpeg.Available {
		// A height-capped selector usually resolves to separate video and
		// audio streams, which can't be merged without ffmpeg.
		if logf != nil {
			logf("ffmpeg not found - preferring single-file mp4 to prevent merge errors")
		}
		opts.FormatSelector = FallbackFormatSelector
		opts.AbortOnUnavailableFragments = false
	} else if h, ok := ParseQuality(req.Quality); ok {
		opts.FormatSelector = fmt.Sprintf("bestvideo[height<=%d]+bestaudio/best[height<=%d]", h, h)
	} else {
		opts.FormatSelector = "best"
	}

	if req.Metadata {
		opts.WriteDescription = true
		opts.WriteInfoJSON = true
	}

	return opts
}
