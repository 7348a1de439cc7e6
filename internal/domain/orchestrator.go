package domain

import (
	"context"
	"errors"
	"log/slog"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"

	m "github.com/BurtTheCoder/bouncer/internal/model"
)

// Checker is a pluggable capability that inspects a file for a given event.
// Implementations are assumed stateless or internally synchronized; the
// orchestrator may invoke distinct checkers concurrently.
type Checker interface {
	// ShouldCheck reports whether this checker applies to the event. It
	// must be cheap and must not perform the actual analysis.
	ShouldCheck(event m.FileChangeEvent) bool

	// Check inspects the file and reports issues and fixes. A returned
	// error is isolated: it is logged and contributes no result.
	Check(ctx context.Context, event m.FileChangeEvent) (m.CheckResult, error)
}

// Notifier delivers aggregated results to an external channel. Failures
// are isolated per notifier.
type Notifier interface {
	Notify(ctx context.Context, event m.FileChangeEvent, results []m.CheckResult) error
}

// ErrAlreadyRunning is returned when checkers or notifiers are registered
// after the orchestrator started.
var ErrAlreadyRunning = errors.New("orchestrator already running")

// resultRetryDelay paces enqueue retries against a full result queue.
const resultRetryDelay = 50 * time.Millisecond

type registeredChecker struct {
	name    string
	checker Checker
}

// Orchestrator owns the bounded event and result queues. It pulls settled
// events, fans each one out to every applicable checker with failure
// isolation, aggregates results in registration order and forwards them to
// every notifier. The queues are the only handoff points between the
// watcher, the orchestrator and downstream consumers.
type Orchestrator struct {
	events  chan m.FileChangeEvent
	results chan m.EventResults

	checkers  []registeredChecker
	notifiers []Notifier

	running atomic.Bool

	processed          atomic.Uint64
	resultBackpressure atomic.Uint64
	resultDropped      atomic.Uint64
}

// NewOrchestrator creates an orchestrator with the given queue capacities.
func NewOrchestrator(eventCapacity, resultCapacity int) *Orchestrator {
	return &Orchestrator{
		events:  make(chan m.FileChangeEvent, eventCapacity),
		results: make(chan m.EventResults, resultCapacity),
	}
}

// RegisterChecker adds a named checker. Registration order is the
// aggregation order of results for every event.
func (o *Orchestrator) RegisterChecker(name string, checker Checker) error {
	if o.running.Load() {
		return ErrAlreadyRunning
	}

	o.checkers = append(o.checkers, registeredChecker{name: name, checker: checker})
	slog.Info("registered checker", "name", name)

	return nil
}

// RegisterNotifier adds a notification handler.
func (o *Orchestrator) RegisterNotifier(notifier Notifier) error {
	if o.running.Load() {
		return ErrAlreadyRunning
	}

	o.notifiers = append(o.notifiers, notifier)
	slog.Info("registered notifier")

	return nil
}

// EventQueue exposes the bounded event queue for producers.
func (o *Orchestrator) EventQueue() chan<- m.FileChangeEvent {
	return o.events
}

// Results exposes the bounded result queue for downstream consumers.
func (o *Orchestrator) Results() <-chan m.EventResults {
	return o.results
}

// Run consumes events until ctx is cancelled. In-flight checker and
// notifier calls complete naturally on shutdown; no new events are
// admitted once the loop exits.
func (o *Orchestrator) Run(ctx context.Context) error {
	o.running.Store(true)
	defer o.running.Store(false)

	slog.Info("event processor started",
		"checkers", len(o.checkers), "notifiers", len(o.notifiers))

	for {
		select {
		case <-ctx.Done():
			slog.Info("event processor stopped", "processed", o.processed.Load())
			return nil
		case event := <-o.events:
			o.ProcessEvent(ctx, event)
		}
	}
}

// ProcessEvent routes one event through every applicable checker and
// notifier and returns the aggregated results. This is the single code
// path for "check a file": the consume loop and the batch scanner both
// land here.
func (o *Orchestrator) ProcessEvent(ctx context.Context, event m.FileChangeEvent) []m.CheckResult {
	slog.Info("processing event", "path", event.Path, "kind", event.Kind)

	results := o.runCheckers(ctx, event)

	o.notify(ctx, event, results)
	o.pushResult(ctx, m.EventResults{Event: event, Results: results})
	o.processed.Add(1)

	return results
}

// runCheckers invokes every applicable checker concurrently. Results land
// in a slice indexed by registration order, so aggregation order never
// depends on completion order; a failed checker simply leaves its slot
// empty.
func (o *Orchestrator) runCheckers(ctx context.Context, event m.FileChangeEvent) []m.CheckResult {
	applicable := make([]registeredChecker, 0, len(o.checkers))

	for _, rc := range o.checkers {
		if rc.checker.ShouldCheck(event) {
			applicable = append(applicable, rc)
		}
	}

	slots := make([]*m.CheckResult, len(applicable))

	var g errgroup.Group

	for i, rc := range applicable {
		i, rc := i, rc

		g.Go(func() error {
			result, err := rc.checker.Check(ctx, event)
			if err != nil {
				slog.Error("checker failed",
					"checker", rc.name, "path", event.Path, "error", err)

				return nil
			}

			slots[i] = &result
			slog.Info("checker finished",
				"checker", rc.name, "path", event.Path, "status", result.Status)

			return nil
		})
	}

	// Checker errors are swallowed above; Wait only synchronizes.
	_ = g.Wait()

	results := make([]m.CheckResult, 0, len(applicable))

	for _, slot := range slots {
		if slot != nil {
			results = append(results, *slot)
		}
	}

	return results
}

// notify fans results out to every notifier, isolating failures.
func (o *Orchestrator) notify(ctx context.Context, event m.FileChangeEvent, results []m.CheckResult) {
	for _, notifier := range o.notifiers {
		if err := notifier.Notify(ctx, event, results); err != nil {
			slog.Error("notification failed", "path", event.Path, "error", err)
		}
	}
}

// pushResult enqueues the aggregated results with a bounded retry. After
// the retry budget the record is dropped and counted, never lost silently.
func (o *Orchestrator) pushResult(ctx context.Context, er m.EventResults) {
	for attempt := 1; attempt <= maxEnqueueAttempts; attempt++ {
		select {
		case o.results <- er:
			return
		case <-ctx.Done():
			return
		default:
		}

		o.resultBackpressure.Add(1)
		slog.Warn("result queue full", "path", er.Event.Path, "attempt", attempt)

		select {
		case <-ctx.Done():
			return
		case <-time.After(resultRetryDelay):
		}
	}

	o.resultDropped.Add(1)
	slog.Error("result dropped after retries", "path", er.Event.Path)
}

// Processed returns how many events completed the checker/notifier cycle.
func (o *Orchestrator) Processed() uint64 { return o.processed.Load() }

// ResultBackpressure returns how many result enqueues found the queue full.
func (o *Orchestrator) ResultBackpressure() uint64 { return o.resultBackpressure.Load() }

// ResultDropped returns how many result records were shed after retries.
func (o *Orchestrator) ResultDropped() uint64 { return o.resultDropped.Load() }
