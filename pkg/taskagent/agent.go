package taskagent

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	gonanoid "github.com/matoous/go-nanoid/v2"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/cnfairydream/duckdb-extra-asyncio/internal/observability"
	"github.com/cnfairydream/duckdb-extra-asyncio/internal/tracing"
)

// Task represents a blocking operation to be executed by the agent's worker
type Task func(ctx context.Context) (interface{}, error)

// State tracks the agent lifecycle
type State int

const (
	// StateUnstarted means the worker has never been launched
	StateUnstarted State = iota
	// StateRunning means exactly one worker is processing the queue
	StateRunning
	// StateStopped means the worker has drained the queue and exited
	StateStopped
)

func (s State) String() string {
	switch s {
	case StateUnstarted:
		return "unstarted"
	case StateRunning:
		return "running"
	case StateStopped:
		return "stopped"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// ErrStopped is returned by Start on an agent that was already stopped.
// A stopped agent is retired; callers construct a new one instead.
var ErrStopped = errors.New("taskagent: agent already stopped")

// taskRecord tracks a queued task until its future is resolved
type taskRecord struct {
	id         string
	task       Task
	ctx        context.Context
	enqueuedAt time.Time
	future     *Future
}

// Agent is a single-consumer, multi-producer FIFO task queue. Any number of
// goroutines may submit concurrently; one worker executes tasks strictly in
// submission order, so at most one task is ever in flight.
type Agent struct {
	id     string
	logger zerolog.Logger

	mu       sync.Mutex
	notEmpty *sync.Cond
	queue    []*taskRecord
	state    State
	done     chan struct{}
}

// New creates an idle agent. The worker is launched by Start.
func New() *Agent {
	observability.EnsureRegistered()

	id, err := gonanoid.New()
	if err != nil {
		id = uuid.NewString()
	}

	a := &Agent{
		id:     id,
		logger: log.With().Str("agent_id", id).Logger(),
		done:   make(chan struct{}),
	}
	a.notEmpty = sync.NewCond(&a.mu)

	return a
}

// ID returns the agent's identifier
func (a *Agent) ID() string {
	return a.id
}

// State returns the current lifecycle state
func (a *Agent) State() State {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.state
}

// Running reports whether the worker is active
func (a *Agent) Running() bool {
	return a.State() == StateRunning
}

// QueueDepth returns the number of queued, not yet dequeued tasks
func (a *Agent) QueueDepth() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return len(a.queue)
}

// Submit appends a task to the queue and returns its future immediately.
// Enqueueing is unconditional and never fails; a task submitted after the
// agent has stopped and drained is simply never executed, and its future
// never resolves.
func (a *Agent) Submit(ctx context.Context, task Task) *Future {
	if ctx == nil {
		ctx = context.Background()
	}

	ctx, span := tracing.StartSpan(
		ctx,
		"aduck.taskagent",
		"taskagent.submit",
		attribute.String("agent_id", a.id),
	)
	defer span.End()

	rec := &taskRecord{
		id:         uuid.NewString(),
		task:       task,
		enqueuedAt: time.Now(),
		future:     newFuture(),
	}
	rec.ctx = tracing.WithTaskID(ctx, rec.id)

	a.mu.Lock()
	a.queue = append(a.queue, rec)
	depth := len(a.queue)
	a.notEmpty.Signal()
	a.mu.Unlock()

	logger := tracing.LoggerFromContext(rec.ctx, a.logger)
	logger.Debug().
		Int("queue_depth", depth).
		Msg("Task enqueued")

	observability.RecordQueueEnqueue(a.id, depth)

	return rec.future
}

// Start launches the worker. It is idempotent while the agent is unstarted
// or running; starting a stopped agent returns ErrStopped.
func (a *Agent) Start() error {
	a.mu.Lock()
	defer a.mu.Unlock()

	switch a.state {
	case StateRunning:
		return nil
	case StateStopped:
		return ErrStopped
	}

	a.state = StateRunning
	go a.run()

	a.logger.Debug().Msg("Agent started")
	return nil
}

// Stop signals the worker and blocks until it has drained every queued task
// and exited. Queued work is never dropped. Stopping an agent that is not
// running is a no-op.
func (a *Agent) Stop() {
	a.mu.Lock()
	if a.state != StateRunning {
		a.mu.Unlock()
		return
	}
	a.state = StateStopped
	a.notEmpty.Signal()
	a.mu.Unlock()

	<-a.done
	a.logger.Debug().Msg("Agent stopped")
}

// run is the worker loop. It blocks while the queue is empty and the agent
// is running, exits once a stop has been observed and the queue is drained,
// and otherwise executes the oldest task.
func (a *Agent) run() {
	defer close(a.done)

	for {
		a.mu.Lock()
		for len(a.queue) == 0 && a.state == StateRunning {
			a.notEmpty.Wait()
		}
		if len(a.queue) == 0 {
			a.mu.Unlock()
			return
		}
		rec := a.queue[0]
		a.queue = a.queue[1:]
		depth := len(a.queue)
		a.mu.Unlock()

		a.execute(rec, depth)
	}
}

// execute runs a single task and resolves its future with the outcome
func (a *Agent) execute(rec *taskRecord, depth int) {
	taskCtx := rec.ctx
	if taskCtx == nil {
		taskCtx = context.Background()
	}
	taskCtx, span := tracing.StartSpan(
		taskCtx,
		"aduck.taskagent",
		"taskagent.execute",
		attribute.String("agent_id", a.id),
		attribute.String("task_id", rec.id),
	)
	defer span.End()

	logger := tracing.LoggerFromContext(taskCtx, a.logger)
	logger.Debug().
		Dur("wait", time.Since(rec.enqueuedAt)).
		Msg("Task started")

	startTime := time.Now()
	value, err := runTask(taskCtx, rec.task)
	duration := time.Since(startTime)

	if !rec.future.resolve(value, err) {
		logger.Error().Msg("Future resolved twice")
	}

	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		logger.Error().
			Dur("duration", duration).
			Err(err).
			Msg("Task failed")
	} else {
		logger.Debug().
			Dur("duration", duration).
			Msg("Task completed")
	}

	observability.RecordQueueCompletion(a.id, duration, err == nil, depth)
}

// runTask invokes the task, converting a panic into an error so a failing
// operation cannot take down the worker loop.
func runTask(ctx context.Context, task Task) (value interface{}, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("task panic: %v", r)
		}
	}()
	return task(ctx)
}
