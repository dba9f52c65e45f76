// Package ytdlp is the boundary to the external yt-dlp extraction tool. The
// tool is a black box: this package only translates a typed Options record
// into an argv, runs the subprocess, and decodes its progress stream.
package ytdlp

import (
	"os/exec"

	"github.com/mkade/ytgrab"
)

// Program is the extraction tool binary looked up on PATH.
const Program = "yt-dlp"

// progressTemplate makes yt-dlp print one JSON object per progress tick so
// the byte counters can be decoded instead of scraped from human output.
const progressTemplate = "%(progress)j"

// Available reports whether the extraction tool can be found on PATH.
func Available() bool {
	_, err := exec.LookPath(Program)
	return err == nil
}

// Args deterministically translates an Options record plus target URLs into
// a yt-dlp argv.
func Args(opts ytgrab.Options, urls []string) []string {
	args := []string{"--newline", "--progress", "--progress-template", progressTemplate}
	if opts.Quiet {
		args = append(args, "--quiet")
	}
	if opts.NoWarnings {
		args = append(args, "--no-warnings")
	}
	if opts.FormatSelector != "" {
		args = append(args, "-f", opts.FormatSelector)
	}
	if opts.OutputTemplate != "" {
		args = append(args, "-o", opts.OutputTemplate)
	}
	if opts.NoPlaylist {
		args = append(args, "--no-playlist")
	} else {
		args = append(args, "--yes-playlist")
	}
	if opts.WriteSubtitles {
		args = append(args, "--write-subs")
	}
	if opts.WriteAutoSubs {
		args = append(args, "--write-auto-subs")
	}
	if opts.WriteThumbnail {
		args = append(args, "--write-thumbnail")
	}
	if opts.WriteDescription {
		args = append(args, "--write-description")
	}
	if opts.WriteInfoJSON {
		args = append(args, "--write-info-json")
	}
	if opts.FFmpegLocation != "" {
		args = append(args, "--ffmpeg-location", opts.FFmpegLocation)
	}
	if !opts.AbortOnUnavailableFragments {
		args = append(args, "--no-abort-on-unavailable-fragments")
	}
	if opts.ExtractAudio {
		args = append(args, "--extract-audio", "--audio-format", opts.AudioFormat, "--audio-quality", opts.AudioQuality)
	}
	return append(args, urls...)
}
