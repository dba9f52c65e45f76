// Package progress normalizes the extraction tool's native progress events
// into a stable, monotonically non-decreasing percentage. The tool reports
// progress per-stream, so a naive display would regress visibly when it
// switches from the video stream to the audio stream or starts a merge step.
package progress

import "fmt"

// Status tags carried by raw progress events.
type Status string

const (
	StatusDownloading Status = "downloading"
	StatusFinished    Status = "finished"
	StatusError       Status = "error"
)

// Raw values above this are treated as noise rather than clamped.
const noiseCeiling = 1000

// An Event is one native progress callback payload: a status tag plus byte
// counters and derived rate/ETA where the tool knows them.
type Event struct {
	Status             Status
	DownloadedBytes    int64
	TotalBytes         int64
	TotalBytesEstimate int64
	SpeedBPS           float64
	ETASeconds         float64
	Filename           string
}

// State is the normalizer's memory for one active download. The zero value is
// the idle state. Not safe for concurrent use: events are expected to arrive
// in order on the single worker goroutine that produced them.
type State struct {
	MaxSeen int
	Last    int
}

// A Snapshot is one displayable progress value.
type Snapshot struct {
	Percent    int
	SpeedBPS   float64
	ETASeconds float64
	Filename   string
}

// Update is a pure function of (previous state, raw event) producing the next
// state and, when emit is true, a displayable snapshot. Displayed percentages
// never decrease within one logical download; a finished event forces 100 and
// re-arms the state for the next file in the same session (the audio stream
// after the video stream, or the next playlist item). Unknown or missing
// status tags are ignored without any state change.
func Update(s State, e Event) (next State, snap Snapshot, emit bool) {
	switch e.Status {
	case StatusDownloading:
		raw := rawPercent(e)
		if raw < 0 || raw > noiseCeiling {
			return s, Snapshot{}, false
		}
		if raw < s.MaxSeen {
			raw = s.MaxSeen
		}
		display := raw
		if display > 100 {
			display = 100
		}
		next = State{MaxSeen: raw, Last: display}
		return next, Snapshot{
			Percent:    display,
			SpeedBPS:   e.SpeedBPS,
			ETASeconds: e.ETASeconds,
			Filename:   e.Filename,
		}, true
	case StatusFinished:
		return State{}, Snapshot{Percent: 100, Filename: e.Filename}, true
	case StatusError:
		// No percent change; the caller logs the error state.
		return s, Snapshot{}, false
	default:
		return s, Snapshot{}, false
	}
}

func rawPercent(e Event) int {
	total := e.TotalBytes
	if total <= 0 {
		total = e.TotalBytesEstimate
	}
	if total <= 0 {
		return 0
	}
	return int(e.DownloadedBytes * 100 / total)
}

// Details renders the snapshot's rate and ETA the way the status line shows
// them, e.g. "1.2 MB/s - 1m 5s left". Empty when neither is known.
func (s Snapshot) Details() string {
	details := ""
	if speed := FormatSpeed(s.SpeedBPS); speed != "" {
		details = speed
	}
	if eta := FormatETA(s.ETASeconds); eta != "" {
		if details != "" {
			details += " - "
		}
		details += eta
	}
	return details
}

// FormatSpeed renders a byte rate as MB/s, or "" when unknown.
func FormatSpeed(bps float64) string {
	if bps <= 0 {
		return ""
	}
	return fmt.Sprintf("%.1f MB/s", bps/1024/1024)
}

// FormatETA renders a remaining-seconds estimate, or "" when unknown.
func FormatETA(seconds float64) string {
	if seconds <= 0 {
		return ""
	}
	total := int64(seconds)
	m, s := total/60, total%60
	if m > 0 {
		return fmt.Sprintf("%dm %ds left", m, s)
	}
	return fmt.Sprintf("%ds left", s)
}
