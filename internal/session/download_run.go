package session

import (
	"fmt"
	"time"

	"github.com/mkade/ytgrab"
	"github.com/mkade/ytgrab/internal/progress"
)

// run is the download worker. It owns the progress normalizer state (single
// writer), converts every failure into a log entry plus a DownloadStopped
// event, and always clears the busy flag on the way out — nothing may escape
// this goroutine uncaught.
func (d *Download) run(opts ytgrab.Options) {
	s := d.session
	var runErr error
	defer func() {
		if p := recover(); p != nil {
			runErr = fmt.Errorf("download worker panic: %v", p)
		}
		d.finish(runErr)
		s.busy.Store(false)
	}()

	state := d.State()
	s.config.Log.Appendf("starting download: mode=%s url=%s format=%s quality=%s",
		state.Request.Mode, state.Request.URL, state.Request.Format, state.Request.Quality)

	d.update(func(ds *DownloadState) { ds.Status = DownloadStatusDownloading })
	s.events.Send(DownloadStarted{downloadEvent{d}})

	var norm progress.State
	hook := func(e progress.Event) {
		if e.Status == progress.StatusError {
			s.config.Log.Append("download error state")
			return
		}
		next, snap, emit := progress.Update(norm, e)
		norm = next
		if !emit {
			return
		}
		var old progress.Snapshot
		d.update(func(ds *DownloadState) {
			old = ds.Progress
			ds.Progress = snap
		})
		s.events.Send(DownloadProgress{downloadEvent{d}, old, snap})
		if e.Status == progress.StatusFinished {
			s.config.Log.Appendf("download finished for: %s", e.Filename)
		}
	}

	runErr = s.config.Runner.Run(s.ctx, opts, []string{state.Request.URL}, hook)
}

func (d *Download) finish(err error) {
	s := d.session
	now := time.Now()
	if err != nil {
		s.config.Log.Appendf("download failed: %v", err)
		d.update(func(ds *DownloadState) {
			ds.Status = DownloadStatusError
			ds.Error = err.Error()
			ds.StoppedAt = now
		})
	} else {
		s.config.Log.Append("download flow finished")
		d.update(func(ds *DownloadState) {
			ds.Status = DownloadStatusComplete
			ds.StoppedAt = now
		})
		d.complete.Set()
	}
	s.writeHistory(d)
	s.events.Send(DownloadStopped{downloadEvent{d}, err})
	d.stopped.Set()
}
