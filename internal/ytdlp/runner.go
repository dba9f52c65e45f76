package ytdlp

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"os/exec"
	"strings"
	"sync"

	"github.com/mkade/ytgrab"
	"github.com/mkade/ytgrab/internal/progress"
)

// Hook receives decoded progress events as the download runs. Called on the
// runner's goroutine, in the order the tool emitted them.
type Hook func(progress.Event)

// Runner is the extraction call boundary, injectable so the session can be
// tested without the real tool.
type Runner interface {
	Run(ctx context.Context, opts ytgrab.Options, urls []string, hook Hook) error
}

// CommandRunner runs the real yt-dlp subprocess.
type CommandRunner struct {
	// Program overrides the binary name, mostly for tests.
	Program string
	// Logf receives the tool's non-progress output lines. May be nil.
	Logf func(format string, args ...any)
}

// progressPayload mirrors the fields of yt-dlp's progress dict that the
// normalizer cares about. Numeric fields are floats because the tool emits
// estimates that way; null fields are simply left at zero.
type progressPayload struct {
	Status             string  `json:"status"`
	DownloadedBytes    float64 `json:"downloaded_bytes"`
	TotalBytes         float64 `json:"total_bytes"`
	TotalBytesEstimate float64 `json:"total_bytes_estimate"`
	Speed              float64 `json:"speed"`
	ETA                float64 `json:"eta"`
	Filename           string  `json:"filename"`
}

func (p progressPayload) event() progress.Event {
	return progress.Event{
		Status:             progress.Status(p.Status),
		DownloadedBytes:    int64(p.DownloadedBytes),
		TotalBytes:         int64(p.TotalBytes),
		TotalBytesEstimate: int64(p.TotalBytesEstimate),
		SpeedBPS:           p.Speed,
		ETASeconds:         p.ETA,
		Filename:           p.Filename,
	}
}

func (r *CommandRunner) logf(format string, args ...any) {
	if r.Logf != nil {
		r.Logf(format, args...)
	}
}

func (r *CommandRunner) program() string {
	if r.Program != "" {
		return r.Program
	}
	return Program
}

// Run executes one extraction call, blocking until the subprocess exits. Any
// failure, from spawn to non-zero exit, comes back as a single wrapped error;
// a panicking hook is caught here so a broken display can never abort an
// in-flight download.
func (r *CommandRunner) Run(ctx context.Context, opts ytgrab.Options, urls []string, hook Hook) error {
	cmd := exec.CommandContext(ctx, r.program(), Args(opts, urls)...)

	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return fmt.Errorf("failed to attach stdout: %w", err)
	}
	stderr, err := cmd.StderrPipe()
	if err != nil {
		return fmt.Errorf("failed to attach stderr: %w", err)
	}
	if err := cmd.Start(); err != nil {
		return fmt.Errorf("failed to start %s: %w", r.program(), err)
	}

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		scanner := bufio.NewScanner(stderr)
		for scanner.Scan() {
			if line := strings.TrimSpace(scanner.Text()); line != "" {
				r.logf("%s: %s", r.program(), line)
			}
		}
	}()

	scanner := bufio.NewScanner(stdout)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		if strings.HasPrefix(line, "{") {
			var payload progressPayload
			if err := json.Unmarshal([]byte(line), &payload); err == nil {
				r.deliver(hook, payload.event())
				continue
			}
		}
		r.logf("%s: %s", r.program(), line)
	}

	wg.Wait()
	if err := cmd.Wait(); err != nil {
		if ctx.Err() != nil {
			return fmt.Errorf("extraction canceled: %w", ctx.Err())
		}
		return fmt.Errorf("extraction failed: %w", err)
	}
	return scanner.Err()
}

func (r *CommandRunner) deliver(hook Hook, event progress.Event) {
	if hook == nil {
		return
	}
	defer func() {
		if p := recover(); p != nil {
			r.logf("progress hook error: %v", p)
		}
	}()
	hook(event)
}
