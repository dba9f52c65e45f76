package session

import "github.com/mkade/ytgrab/internal/progress"

type Event interface {
	// The Download this event relates to.
	Download() *Download
}

type downloadEvent struct {
	download *Download
}

func (e downloadEvent) Download() *Download {
	return e.download
}

type DownloadStarted struct {
	downloadEvent
}

type DownloadProgress struct {
	downloadEvent
	OldState progress.Snapshot
	NewState progress.Snapshot
}

type DownloadStopped struct {
	downloadEvent
	Err error
}
