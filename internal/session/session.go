// Package session owns the state shared between the display side and the
// download worker: the busy flag, the log buffer, the history store, and the
// event stream. At most one download runs at a time; a second start request
// while one is active is rejected, not queued.
package session

import (
	"context"
	"errors"
	"sync/atomic"

	"go.uber.org/zap"

	"github.com/mkade/ytgrab"
	"github.com/mkade/ytgrab/internal/history"
	"github.com/mkade/ytgrab/internal/logbuf"
	"github.com/mkade/ytgrab/internal/pubsub"
	"github.com/mkade/ytgrab/internal/sync_"
	"github.com/mkade/ytgrab/internal/ytdlp"
)

var ErrBusy = errors.New("a download is already in progress")

type Config struct {
	// SavePath is the directory downloads are written to.
	SavePath string
	FFmpeg   ytgrab.FFmpeg
	// Runner defaults to the real yt-dlp subprocess runner.
	Runner ytdlp.Runner
	// History defaults to a no-op store.
	History history.Store
	// Log defaults to a fresh buffer mirroring to the global logger.
	Log *logbuf.Log
}

type Session struct {
	config    Config
	ctx       context.Context
	ctxCancel context.CancelFunc
	log       *zap.SugaredLogger

	// busy gates the worker with a single compare-and-set, so the check and
	// the claim can't race across goroutines.
	busy    atomic.Bool
	current *sync_.Mutexed[*Download]
	events  pubsub.Publisher[Event]
}

func New(config Config, ctx context.Context) (*Session, error) {
	if config.SavePath == "" {
		config.SavePath = "."
	}
	if config.History == nil {
		config.History = history.NilStore{}
	}
	if config.Log == nil {
		config.Log = logbuf.New(zap.S().Named("download"))
	}
	ctx, cancel := context.WithCancel(ctx)
	s := &Session{
		config:    config,
		ctx:       ctx,
		ctxCancel: cancel,
		log:       zap.S().Named("session"),
		current:   sync_.NewMutexed[*Download](nil),
		events:    pubsub.NewPublisher[Event](),
	}
	if s.config.Runner == nil {
		s.config.Runner = &ytdlp.CommandRunner{Logf: s.config.Log.Appendf}
	}
	return s, nil
}

func (s *Session) Subscribe() (pubsub.ReceiverCloser[Event], error) {
	return s.events.Subscribe()
}

// Log exposes the session's append-only log buffer.
func (s *Session) Log() *logbuf.Log {
	return s.config.Log
}

// Busy reports whether a download is currently in flight.
func (s *Session) Busy() bool {
	return s.busy.Load()
}

// Current returns the most recently started download, if any.
func (s *Session) Current() *Download {
	return s.current.Get()
}

// Start validates the request, claims the busy flag, and spawns the worker
// goroutine. Returns ErrBusy without spawning anything when a download is
// already active.
func (s *Session) Start(req ytgrab.Request) (*Download, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	if !s.busy.CompareAndSwap(false, true) {
		return nil, ErrBusy
	}

	opts := ytgrab.BuildOptions(req, s.config.SavePath, s.config.FFmpeg, s.config.Log.Appendf)
	if req.Mode.IsMulti() {
		// The builder always restricts expansion; relaxing it for playlist
		// and channel requests is this caller's job.
		opts.NoPlaylist = false
	}

	d := newDownload(s, req)
	s.current.Set(d)
	s.writeHistory(d)
	s.log.Debugf("download added: %v", d)

	go d.run(opts)
	return d, nil
}

// Close stops accepting work, cancels any in-flight download, and waits for
// the worker to wind down before closing the event stream.
func (s *Session) Close() {
	s.ctxCancel()
	if d := s.current.Get(); d != nil {
		<-d.Stopped()
	}
	s.events.Close()
}

func (s *Session) writeHistory(d *Download) {
	record := d.historyRecord()
	if err := s.config.History.WriteDownload(&record); err != nil {
		// History is best-effort; a failed write must not block downloading.
		s.log.Warnf("failed to write history record: %v", err)
	}
}
