package session

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/mkade/ytgrab"
	"github.com/mkade/ytgrab/internal/history"
	"github.com/mkade/ytgrab/internal/progress"
	"github.com/mkade/ytgrab/internal/sync_"
)

type DownloadID string

func NewDownloadID() DownloadID {
	return DownloadID(uuid.NewString())
}

type DownloadStatus string

const (
	DownloadStatusNew         DownloadStatus = "new"
	DownloadStatusDownloading DownloadStatus = "downloading"
	DownloadStatusComplete    DownloadStatus = "complete"
	DownloadStatusError       DownloadStatus = "error"
)

type DownloadState struct {
	ID        DownloadID
	Request   ytgrab.Request
	Status    DownloadStatus
	Progress  progress.Snapshot
	AddedAt   time.Time
	StoppedAt time.Time
	Error     string
}

type Download struct {
	session *Session
	state   *sync_.Mutexed[DownloadState]

	stopped  sync_.Event
	complete sync_.Event
}

func newDownload(s *Session, req ytgrab.Request) *Download {
	return &Download{
		session: s,
		state: sync_.NewMutexed(DownloadState{
			ID:      NewDownloadID(),
			Request: req,
			Status:  DownloadStatusNew,
			AddedAt: time.Now(),
		}),
	}
}

// State returns a copy of the download's current state.
func (d *Download) State() DownloadState {
	return d.state.Get()
}

// Stopped closes when the download has finished, successfully or not.
func (d *Download) Stopped() <-chan struct{} {
	return d.stopped.Wait()
}

// IsComplete returns true if the download finished without error. Useful to
// check after waiting on Stopped.
func (d *Download) IsComplete() bool {
	return d.complete.IsSet()
}

func (d *Download) String() string {
	state := d.State()
	return fmt.Sprintf("Download{ID:%q, URL:%q, Status:%q}", state.ID, state.Request.URL, state.Status)
}

func (d *Download) update(f func(*DownloadState)) {
	d.state.Update(func(state DownloadState) DownloadState {
		f(&state)
		return state
	})
}

func (d *Download) historyRecord() history.Record {
	state := d.State()
	record := history.Record{
		ID:         string(state.ID),
		URL:        state.Request.URL,
		Mode:       string(state.Request.Mode),
		Format:     string(state.Request.Format),
		Quality:    state.Request.Quality,
		AddedAt:    state.AddedAt,
		FinishedAt: state.StoppedAt,
		Status:     history.StatusStarted,
		Error:      state.Error,
	}
	switch state.Status {
	case DownloadStatusComplete:
		record.Status = history.StatusComplete
	case DownloadStatusError:
		record.Status = history.StatusError
	}
	return record
}
