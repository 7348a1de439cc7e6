package domain

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	m "github.com/BurtTheCoder/bouncer/internal/model"
)

// stubChecker is a configurable Checker for orchestrator tests.
type stubChecker struct {
	name    string
	applies bool
	err     error
	delay   time.Duration
	status  m.Status
}

func (c *stubChecker) ShouldCheck(_ m.FileChangeEvent) bool { return c.applies }

func (c *stubChecker) Check(_ context.Context, event m.FileChangeEvent) (m.CheckResult, error) {
	if c.delay > 0 {
		time.Sleep(c.delay)
	}

	if c.err != nil {
		return m.CheckResult{}, c.err
	}

	status := c.status
	if status == "" {
		status = m.StatusApproved
	}

	return m.CheckResult{
		CheckerName: c.name,
		FilePath:    event.Path,
		Status:      status,
		ProducedAt:  time.Now(),
	}, nil
}

// recordingNotifier captures notify calls; fails when err is set.
type recordingNotifier struct {
	mu    sync.Mutex
	calls []m.EventResults
	err   error
}

func (n *recordingNotifier) Notify(_ context.Context, event m.FileChangeEvent, results []m.CheckResult) error {
	n.mu.Lock()
	defer n.mu.Unlock()

	n.calls = append(n.calls, m.EventResults{Event: event, Results: results})

	return n.err
}

func (n *recordingNotifier) Calls() []m.EventResults {
	n.mu.Lock()
	defer n.mu.Unlock()

	return append([]m.EventResults(nil), n.calls...)
}

func testEvent(path string) m.FileChangeEvent {
	return m.FileChangeEvent{Path: m.Path(path), Kind: m.Modified, ObservedAt: time.Now()}
}

func TestProcessEventCheckerIsolation(t *testing.T) {
	orch := NewOrchestrator(8, 8)

	if err := orch.RegisterChecker("broken", &stubChecker{name: "broken", applies: true, err: errors.New("boom")}); err != nil {
		t.Fatalf("register broken: %v", err)
	}

	if err := orch.RegisterChecker("healthy", &stubChecker{name: "healthy", applies: true}); err != nil {
		t.Fatalf("register healthy: %v", err)
	}

	results := orch.ProcessEvent(context.Background(), testEvent("/tmp/f.py"))

	if len(results) != 1 {
		t.Fatalf("expected 1 result despite checker failure, got %d", len(results))
	}

	if results[0].CheckerName != "healthy" {
		t.Errorf("expected healthy checker result, got %s", results[0].CheckerName)
	}
}

func TestProcessEventRegistrationOrder(t *testing.T) {
	orch := NewOrchestrator(8, 8)

	// The first checker finishes last; aggregation order must not care.
	_ = orch.RegisterChecker("slow", &stubChecker{name: "slow", applies: true, delay: 30 * time.Millisecond})
	_ = orch.RegisterChecker("fast", &stubChecker{name: "fast", applies: true})

	results := orch.ProcessEvent(context.Background(), testEvent("/tmp/f.py"))

	if len(results) != 2 {
		t.Fatalf("expected 2 results, got %d", len(results))
	}

	if results[0].CheckerName != "slow" || results[1].CheckerName != "fast" {
		t.Errorf("expected registration order slow, fast; got %s, %s",
			results[0].CheckerName, results[1].CheckerName)
	}
}

func TestProcessEventShouldCheckGate(t *testing.T) {
	orch := NewOrchestrator(8, 8)

	_ = orch.RegisterChecker("applies", &stubChecker{name: "applies", applies: true})
	_ = orch.RegisterChecker("skips", &stubChecker{name: "skips", applies: false})

	results := orch.ProcessEvent(context.Background(), testEvent("/tmp/f.py"))

	if len(results) != 1 || results[0].CheckerName != "applies" {
		t.Fatalf("expected only the applicable checker to run, got %v", results)
	}
}

func TestProcessEventNotifierIsolation(t *testing.T) {
	orch := NewOrchestrator(8, 8)

	failing := &recordingNotifier{err: errors.New("webhook down")}
	healthy := &recordingNotifier{}

	_ = orch.RegisterNotifier(failing)
	_ = orch.RegisterNotifier(healthy)
	_ = orch.RegisterChecker("c", &stubChecker{name: "c", applies: true})

	orch.ProcessEvent(context.Background(), testEvent("/tmp/f.py"))

	if len(healthy.Calls()) != 1 {
		t.Errorf("expected healthy notifier to be called despite failing peer")
	}

	if len(failing.Calls()) != 1 {
		t.Errorf("expected failing notifier to have been attempted")
	}
}

func TestRegisterAfterStart(t *testing.T) {
	orch := NewOrchestrator(1, 1)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})

	go func() {
		defer close(done)
		_ = orch.Run(ctx)
	}()

	// Give the loop a moment to flip the running flag.
	time.Sleep(20 * time.Millisecond)

	if err := orch.RegisterChecker("late", &stubChecker{name: "late"}); !errors.Is(err, ErrAlreadyRunning) {
		t.Errorf("expected ErrAlreadyRunning, got %v", err)
	}

	if err := orch.RegisterNotifier(&recordingNotifier{}); !errors.Is(err, ErrAlreadyRunning) {
		t.Errorf("expected ErrAlreadyRunning, got %v", err)
	}

	cancel()
	<-done
}

func TestRunConsumesQueue(t *testing.T) {
	orch := NewOrchestrator(4, 4)
	notifier := &recordingNotifier{}

	_ = orch.RegisterChecker("c", &stubChecker{name: "c", applies: true})
	_ = orch.RegisterNotifier(notifier)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})

	go func() {
		defer close(done)
		_ = orch.Run(ctx)
	}()

	orch.EventQueue() <- testEvent("/tmp/a.py")
	orch.EventQueue() <- testEvent("/tmp/b.py")

	deadline := time.After(2 * time.Second)
	for orch.Processed() < 2 {
		select {
		case <-deadline:
			t.Fatalf("timed out waiting for events, processed=%d", orch.Processed())
		case <-time.After(10 * time.Millisecond):
		}
	}

	cancel()
	<-done

	if len(notifier.Calls()) != 2 {
		t.Errorf("expected 2 notifications, got %d", len(notifier.Calls()))
	}

	// Both result records must be waiting on the result queue.
	for i := 0; i < 2; i++ {
		select {
		case <-orch.Results():
		default:
			t.Fatalf("expected result %d on the result queue", i)
		}
	}
}

func TestPushResultDropsAfterRetries(t *testing.T) {
	orch := NewOrchestrator(1, 1)
	_ = orch.RegisterChecker("c", &stubChecker{name: "c", applies: true})

	ctx := context.Background()

	// Fill the result queue; nobody consumes it.
	orch.ProcessEvent(ctx, testEvent("/tmp/a.py"))
	orch.ProcessEvent(ctx, testEvent("/tmp/b.py"))

	if orch.ResultBackpressure() == 0 {
		t.Errorf("expected backpressure to be counted")
	}

	if orch.ResultDropped() != 1 {
		t.Errorf("expected exactly one dropped result, got %d", orch.ResultDropped())
	}
}
