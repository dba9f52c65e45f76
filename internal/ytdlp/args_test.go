package ytdlp

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mkade/ytgrab"
	"github.com/mkade/ytgrab/internal/progress"
)

func TestArgsVideo(t *testing.T) {
	assert := assert.New(t)
	opts := ytgrab.Options{
		OutputTemplate:              "/downloads/%(title)s.%(ext)s",
		FormatSelector:              "bestvideo[height<=720]+bestaudio/best[height<=720]",
		NoPlaylist:                  true,
		Quiet:                       true,
		NoWarnings:                  true,
		FFmpegLocation:              "/usr/bin",
		AbortOnUnavailableFragments: true,
	}
	args := Args(opts, []string{"https://example.com/v"})
	assert.Contains(args, "--progress-template")
	assert.Contains(args, "--newline")
	assert.Contains(args, "--quiet")
	assert.Contains(args, "--no-warnings")
	assert.Contains(args, "--no-playlist")
	assert.NotContains(args, "--yes-playlist")
	assert.NotContains(args, "--no-abort-on-unavailable-fragments")
	assert.NotContains(args, "--extract-audio")
	assert.Equal("https://example.com/v", args[len(args)-1])

	assertFlagValue(t, args, "-f", "bestvideo[height<=720]+bestaudio/best[height<=720]")
	assertFlagValue(t, args, "-o", "/downloads/%(title)s.%(ext)s")
	assertFlagValue(t, args, "--ffmpeg-location", "/usr/bin")
}

func TestArgsAudio(t *testing.T) {
	assert := assert.New(t)
	opts := ytgrab.Options{
		FormatSelector:              "bestaudio/best",
		NoPlaylist:                  true,
		AbortOnUnavailableFragments: true,
		ExtractAudio:                true,
		AudioFormat:                 "mp3",
		AudioQuality:                "320",
	}
	args := Args(opts, []string{"https://example.com/v"})
	assert.Contains(args, "--extract-audio")
	assertFlagValue(t, args, "--audio-format", "mp3")
	assertFlagValue(t, args, "--audio-quality", "320")
}

func TestArgsFallbackAndPlaylist(t *testing.T) {
	assert := assert.New(t)
	opts := ytgrab.Options{
		FormatSelector: ytgrab.FallbackFormatSelector,
		NoPlaylist:     false,
	}
	args := Args(opts, []string{"https://example.com/list"})
	assert.Contains(args, "--yes-playlist")
	assert.Contains(args, "--no-abort-on-unavailable-fragments")
	assertFlagValue(t, args, "-f", ytgrab.FallbackFormatSelector)
}

func assertFlagValue(t *testing.T, args []string, flag, want string) {
	t.Helper()
	for i, a := range args {
		if a == flag {
			require.Less(t, i+1, len(args), "flag %s has no value", flag)
			assert.Equal(t, want, args[i+1])
			return
		}
	}
	t.Errorf("flag %s not found in %v", flag, args)
}

func TestProgressPayloadDecode(t *testing.T) {
	assert := assert.New(t)
	line := `{"status": "downloading", "downloaded_bytes": 512, "total_bytes": 2048, "speed": 1048576.0, "eta": 12, "filename": "clip.mp4"}`
	var payload progressPayload
	assert.NoError(json.Unmarshal([]byte(line), &payload))
	event := payload.event()
	assert.Equal(progress.StatusDownloading, event.Status)
	assert.Equal(int64(512), event.DownloadedBytes)
	assert.Equal(int64(2048), event.TotalBytes)
	assert.Equal(float64(1048576), event.SpeedBPS)
	assert.Equal(float64(12), event.ETASeconds)
	assert.Equal("clip.mp4", event.Filename)
}

func TestProgressPayloadDecodeNulls(t *testing.T) {
	assert := assert.New(t)
	// Speed and ETA are null while the tool warms up; missing totals fall
	// back to the estimate.
	line := `{"status": "downloading", "downloaded_bytes": 100, "total_bytes_estimate": 400.0, "speed": null, "eta": null}`
	var payload progressPayload
	assert.NoError(json.Unmarshal([]byte(line), &payload))
	event := payload.event()
	assert.Equal(int64(400), event.TotalBytesEstimate)
	assert.Zero(event.SpeedBPS)
	assert.Zero(event.ETASeconds)
}
