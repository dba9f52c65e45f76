package ytgrab

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

var ffmpegPresent = FFmpeg{Dir: "/usr/bin", Available: true}

func TestBuildOptionsQualityExpression(t *testing.T) {
	assert := assert.New(t)
	for _, quality := range []string{"720", "720p", "hd720"} {
		req := Request{URL: "https://example.com/v", Mode: ModeVideo, Format: FormatMP4, Quality: quality}
		opts := BuildOptions(req, ".", ffmpegPresent, nil)
		assert.Equal("bestvideo[height<=720]+bestaudio/best[height<=720]", opts.FormatSelector, "quality=%q", quality)
		assert.True(opts.AbortOnUnavailableFragments)
		assert.Equal("/usr/bin", opts.FFmpegLocation)
	}
}

func TestBuildOptionsQualityAuto(t *testing.T) {
	assert := assert.New(t)
	for _, quality := range []string{"auto", "", "bogus", "0"} {
		req := Request{URL: "https://example.com/v", Mode: ModeVideo, Format: FormatMP4, Quality: quality}
		opts := BuildOptions(req, ".", ffmpegPresent, nil)
		assert.Equal("best", opts.FormatSelector, "quality=%q", quality)
	}
}

func TestBuildOptionsAudio(t *testing.T) {
	assert := assert.New(t)
	req := Request{URL: "https://example.com/v", Mode: ModeVideo, Format: FormatMP3, MP3Bitrate: "320"}
	opts := BuildOptions(req, ".", ffmpegPresent, nil)
	assert.Equal("bestaudio/best", opts.FormatSelector)
	assert.True(opts.ExtractAudio)
	assert.Equal("mp3", opts.AudioFormat)
	assert.Equal("320", opts.AudioQuality)
}

func TestBuildOptionsAudioDefaultBitrate(t *testing.T) {
	assert := assert.New(t)
	req := Request{URL: "https://example.com/v", Mode: ModeVideo, Format: FormatMP3}
	opts := BuildOptions(req, ".", ffmpegPresent, nil)
	assert.Equal("192", opts.AudioQuality)
}

func TestBuildOptionsAudioIgnoresQuality(t *testing.T) {
	assert := assert.New(t)
	for _, quality := range []string{"auto", "720", "1080"} {
		req := Request{URL: "https://example.com/v", Mode: ModeVideo, Format: FormatMP3, Quality: quality}
		opts := BuildOptions(req, ".", FFmpeg{}, nil)
		assert.Equal("bestaudio/best", opts.FormatSelector, "quality=%q", quality)
		assert.Equal("192", opts.AudioQuality)
	}
}

func TestBuildOptionsFallbackWithoutFFmpeg(t *testing.T) {
	assert := assert.New(t)
	var logged []string
	logf := func(format string, args ...any) {
		logged = append(logged, fmt.Sprintf(format, args...))
	}
	req := Request{URL: "https://example.com/v", Mode: ModeVideo, Format: FormatMP4, Quality: "1080"}
	opts := BuildOptions(req, ".", FFmpeg{}, logf)
	assert.Equal(FallbackFormatSelector, opts.FormatSelector)
	assert.False(opts.AbortOnUnavailableFragments)
	assert.Empty(opts.FFmpegLocation)
	assert.Len(logged, 1)
	assert.Contains(logged[0], "ffmpeg not found")
}

func TestBuildOptionsNoFallbackLogWhenPresent(t *testing.T) {
	assert := assert.New(t)
	var logged []string
	logf := func(format string, args ...any) {
		logged = append(logged, fmt.Sprintf(format, args...))
	}
	req := Request{URL: "https://example.com/v", Mode: ModeVideo, Format: FormatMP4, Quality: "1080"}
	_ = BuildOptions(req, ".", ffmpegPresent, logf)
	assert.Empty(logged)
}

func TestBuildOptionsSidecarFlags(t *testing.T) {
	assert := assert.New(t)
	req := Request{
		URL:       "https://example.com/v",
		Mode:      ModeVideo,
		Format:    FormatMP4,
		Subtitles: true,
		Thumbnail: true,
		Metadata:  true,
	}
	opts := BuildOptions(req, ".", ffmpegPresent, nil)
	assert.True(opts.WriteSubtitles)
	assert.True(opts.WriteAutoSubs)
	assert.True(opts.WriteThumbnail)
	assert.True(opts.WriteDescription)
	assert.True(opts.WriteInfoJSON)
}

func TestBuildOptionsAlwaysRestrictsPlaylist(t *testing.T) {
	assert := assert.New(t)
	// Relaxing the restriction for playlist/channel modes is the caller's
	// job, not the builder's.
	for _, mode := range []Mode{ModeVideo, ModePlaylist, ModeChannel} {
		req := Request{URL: "https://example.com/v", Mode: mode, Format: FormatMP4}
		opts := BuildOptions(req, ".", ffmpegPresent, nil)
		assert.True(opts.NoPlaylist, "mode=%q", mode)
	}
}

func TestBuildOptionsOutputTemplate(t *testing.T) {
	assert := assert.New(t)
	req := Request{URL: "https://example.com/v", Mode: ModeVideo, Format: FormatMP4}
	opts := BuildOptions(req, "/tmp/downloads", ffmpegPresent, nil)
	assert.Equal("/tmp/downloads/%(title)s.%(ext)s", opts.OutputTemplate)
}
