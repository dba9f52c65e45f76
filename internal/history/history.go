// Package history defines the download-history store: one record per
// submitted download, written when it starts and again when it stops.
package history

import "time"

type Status string

const (
	StatusStarted  Status = "started"
	StatusComplete Status = "complete"
	StatusError    Status = "error"
)

type Record struct {
	ID         string
	URL        string
	Mode       string
	Format     string
	Quality    string
	AddedAt    time.Time
	FinishedAt time.Time
	Status     Status
	Error      string
}

type Store interface {
	ListDownloads() ([]Record, error)
	WriteDownload(*Record) error
	DeleteDownload(*Record) error
}

// NilStore discards everything; used when no database is configured.
type NilStore struct{}

func (NilStore) ListDownloads() ([]Record, error) {
	return nil, nil
}

func (NilStore) WriteDownload(_ *Record) error {
	return nil
}

func (NilStore) DeleteDownload(_ *Record) error {
	return nil
}
