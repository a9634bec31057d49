package audit

import (
	"context"
	"sync"
)

// defaultQueueSize bounds the number of entries waiting to be written.
const defaultQueueSize = 256

// Logger is the logging interface used by the Recorder.
type Logger interface {
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

type noopLogger struct{}

func (noopLogger) Warn(string, ...any)  {}
func (noopLogger) Error(string, ...any) {}

// Recorder writes audit entries asynchronously so request handlers never
// wait on SQLite. Entries are queued on a bounded channel and written one
// at a time by a single goroutine; when the queue is full the entry is
// dropped and a warning logged.
type Recorder struct {
	repo   Repository
	logger Logger
	queue  chan *Entry
	wg     sync.WaitGroup
}

// NewRecorder creates a Recorder writing to repo. Call Start before Record.
func NewRecorder(repo Repository, logger Logger) *Recorder {
	if logger == nil {
		logger = noopLogger{}
	}
	return &Recorder{
		repo:   repo,
		logger: logger,
		queue:  make(chan *Entry, defaultQueueSize),
	}
}

// Start runs the writer until ctx is cancelled. Entries still queued at
// cancellation are written before Wait returns.
func (r *Recorder) Start(ctx context.Context) {
	r.wg.Add(1)
	go func() {
		defer r.wg.Done()
		for {
			select {
			case entry := <-r.queue:
				r.write(entry)
			case <-ctx.Done():
				for {
					select {
					case entry := <-r.queue:
						r.write(entry)
					default:
						return
					}
				}
			}
		}
	}()
}

// Wait blocks until the writer started by Start has exited.
func (r *Recorder) Wait() {
	r.wg.Wait()
}

// Record queues an entry. Source defaults to "api".
func (r *Recorder) Record(entry *Entry) {
	if r == nil || entry == nil {
		return
	}
	if entry.Source == "" {
		entry.Source = "api"
	}
	select {
	case r.queue <- entry:
	default:
		r.logger.Warn("audit queue full, dropping entry",
			"action", entry.Action,
			"entity_type", entry.EntityType,
		)
	}
}

func (r *Recorder) write(entry *Entry) {
	// The request context is long gone by now.
	if err := r.repo.Create(context.Background(), entry); err != nil {
		r.logger.Error("audit write failed",
			"action", entry.Action,
			"entity_type", entry.EntityType,
			"error", err,
		)
	}
}
