package ytgrab

import (
	"os/exec"
	"path/filepath"
)

// FFmpeg records whether the external remuxing tool was found on PATH, and
// where. Its absence changes BuildOptions behavior; the tool itself is only
// ever invoked by yt-dlp.
type FFmpeg struct {
	Dir       string
	Available bool
}

// DetectFFmpeg looks up ffmpeg on PATH, returning the directory to pass to
// the extraction tool as its ffmpeg location.
func DetectFFmpeg() FFmpeg {
	path, err := exec.LookPath("ffmpeg")
	if err != nil {
		return FFmpeg{}
	}
	return FFmpeg{Dir: filepath.Dir(path), Available: true}
}
