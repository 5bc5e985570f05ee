// Package bootstrap owns the one-shot initial data load. The server starts
// serving only its own status until the load succeeds; a failed load can be
// retried on demand but never runs twice concurrently.
package bootstrap

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/vaxtrack/vaxtrack/internal/domain/dashboard"
	"github.com/vaxtrack/vaxtrack/internal/platform/genai"
)

// State is the lifecycle phase of the initial load.
type State string

const (
	StateLoading State = "loading"
	StateReady   State = "ready"
	StateFailed  State = "failed"
)

// Applier installs a snapshot as the session's initial state.
type Applier interface {
	ApplySnapshot(ctx context.Context, snap *dashboard.Snapshot) error
}

// Loader drives the bootstrap: generate a snapshot from the source, apply it,
// and publish the outcome. At most one attempt runs at a time.
type Loader struct {
	mu       sync.Mutex
	state    State
	errMsg   string
	inFlight bool

	source  genai.Source
	applier Applier
	timeout time.Duration
	logger  zerolog.Logger
}

func NewLoader(source genai.Source, applier Applier, timeout time.Duration, logger zerolog.Logger) *Loader {
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	return &Loader{
		state:   StateLoading,
		source:  source,
		applier: applier,
		timeout: timeout,
		logger:  logger,
	}
}

// Status reports the current state and, when failed, the failure reason.
func (l *Loader) Status() (State, string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.state, l.errMsg
}

// Ready reports whether the initial load has completed.
func (l *Loader) Ready() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.state == StateReady
}

// Load runs one bootstrap attempt. It is a no-op when an attempt is already
// running or the load has already succeeded.
func (l *Loader) Load() {
	l.mu.Lock()
	if l.inFlight || l.state == StateReady {
		l.mu.Unlock()
		return
	}
	l.inFlight = true
	l.state = StateLoading
	l.errMsg = ""
	l.mu.Unlock()

	// The attempt owns its own deadline; it is not tied to any request.
	ctx, cancel := context.WithTimeout(context.Background(), l.timeout)
	defer cancel()

	start := time.Now()
	snap, err := l.source.Generate(ctx)
	if err == nil {
		err = l.applier.ApplySnapshot(ctx, snap)
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	l.inFlight = false
	if err != nil {
		l.state = StateFailed
		l.errMsg = err.Error()
		l.logger.Error().Err(err).Msg("bootstrap failed")
		return
	}
	l.state = StateReady
	l.logger.Info().
		Int("patients", len(snap.Patients)).
		Int("vaccines", len(snap.Vaccines)).
		Dur("elapsed", time.Since(start)).
		Msg("bootstrap complete")
}

// Retry launches a fresh attempt after a failure. It rejects the request when
// an attempt is in flight or the load has already succeeded.
func (l *Loader) Retry() error {
	l.mu.Lock()
	if l.inFlight {
		l.mu.Unlock()
		return fmt.Errorf("bootstrap already in progress")
	}
	if l.state == StateReady {
		l.mu.Unlock()
		return fmt.Errorf("bootstrap already complete")
	}
	l.mu.Unlock()

	go l.Load()
	return nil
}
