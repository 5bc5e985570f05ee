package bootstrap

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/vaxtrack/vaxtrack/internal/domain/dashboard"
	"github.com/vaxtrack/vaxtrack/internal/domain/patient"
	"github.com/vaxtrack/vaxtrack/internal/domain/vaccine"
)

type fakeSource struct {
	mu    sync.Mutex
	calls int
	err   error
	block chan struct{}
	snap  *dashboard.Snapshot
}

func (f *fakeSource) Generate(ctx context.Context) (*dashboard.Snapshot, error) {
	f.mu.Lock()
	f.calls++
	block := f.block
	f.mu.Unlock()

	if block != nil {
		select {
		case <-block:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if f.err != nil {
		return nil, f.err
	}
	if f.snap != nil {
		return f.snap, nil
	}
	return &dashboard.Snapshot{
		Vaccines: []*vaccine.Vaccine{{Name: "Pfizer-BioNTech"}},
		Patients: []*patient.Patient{{Name: "Seeded"}},
	}, nil
}

func (f *fakeSource) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

type fakeApplier struct {
	mu      sync.Mutex
	applied *dashboard.Snapshot
	err     error
}

func (f *fakeApplier) ApplySnapshot(_ context.Context, snap *dashboard.Snapshot) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.applied = snap
	return nil
}

func TestLoader_Load_Success(t *testing.T) {
	source := &fakeSource{}
	applier := &fakeApplier{}
	loader := NewLoader(source, applier, time.Second, zerolog.Nop())

	if state, _ := loader.Status(); state != StateLoading {
		t.Errorf("initial state = %q, want %q", state, StateLoading)
	}

	loader.Load()

	if !loader.Ready() {
		t.Fatal("loader should be ready after successful load")
	}
	applier.mu.Lock()
	defer applier.mu.Unlock()
	if applier.applied == nil {
		t.Fatal("snapshot was not applied")
	}
}

func TestLoader_Load_SourceFailure(t *testing.T) {
	source := &fakeSource{err: fmt.Errorf("generation service returned status 500")}
	loader := NewLoader(source, &fakeApplier{}, time.Second, zerolog.Nop())

	loader.Load()

	state, msg := loader.Status()
	if state != StateFailed {
		t.Fatalf("state = %q, want %q", state, StateFailed)
	}
	if msg == "" {
		t.Error("failed state should carry the failure reason")
	}
}

func TestLoader_Load_ApplyFailure(t *testing.T) {
	loader := NewLoader(&fakeSource{}, &fakeApplier{err: fmt.Errorf("apply vaccine: duplicate")}, time.Second, zerolog.Nop())

	loader.Load()

	if state, _ := loader.Status(); state != StateFailed {
		t.Errorf("state = %q, want %q", state, StateFailed)
	}
}

func TestLoader_Load_NoopWhenReady(t *testing.T) {
	source := &fakeSource{}
	loader := NewLoader(source, &fakeApplier{}, time.Second, zerolog.Nop())

	loader.Load()
	loader.Load()

	if got := source.callCount(); got != 1 {
		t.Errorf("source called %d times, want 1", got)
	}
}

func TestLoader_Retry_AfterFailure(t *testing.T) {
	source := &fakeSource{err: fmt.Errorf("transient")}
	loader := NewLoader(source, &fakeApplier{}, time.Second, zerolog.Nop())
	loader.Load()

	source.mu.Lock()
	source.err = nil
	source.mu.Unlock()

	if err := loader.Retry(); err != nil {
		t.Fatalf("Retry: %v", err)
	}
	waitFor(t, loader.Ready)
}

func TestLoader_Retry_RejectedWhileInFlight(t *testing.T) {
	block := make(chan struct{})
	source := &fakeSource{block: block}
	loader := NewLoader(source, &fakeApplier{}, 5*time.Second, zerolog.Nop())

	go loader.Load()
	waitFor(t, func() bool { return source.callCount() == 1 })

	if err := loader.Retry(); err == nil {
		t.Error("expected retry rejection while an attempt is in flight")
	}

	close(block)
	waitFor(t, loader.Ready)
}

func TestLoader_Retry_RejectedWhenReady(t *testing.T) {
	loader := NewLoader(&fakeSource{}, &fakeApplier{}, time.Second, zerolog.Nop())
	loader.Load()

	if err := loader.Retry(); err == nil {
		t.Error("expected retry rejection after successful load")
	}
}

func TestLoader_Timeout(t *testing.T) {
	source := &fakeSource{block: make(chan struct{})}
	loader := NewLoader(source, &fakeApplier{}, 20*time.Millisecond, zerolog.Nop())

	loader.Load()

	if state, _ := loader.Status(); state != StateFailed {
		t.Errorf("state = %q, want %q after deadline", state, StateFailed)
	}
}

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal("condition not met before deadline")
}
