// Package taskagent provides a single-worker FIFO task queue for serializing
// blocking operations against a shared resource.
//
// Invariants:
// - Tasks execute strictly in submission order; at most one is in flight.
// - A task's future is resolved exactly once, with its value or its error.
// - A failing task never terminates the worker; only Stop does, after the
//   queue is drained.
//
// Usage:
//
//	agent := taskagent.New()
//	_ = agent.Start()
//	defer agent.Stop()
//	fut := agent.Submit(ctx, func(ctx context.Context) (interface{}, error) {
//		return conn.Execute("SELECT 1", nil)
//	})
//	value, err := fut.Await(ctx)
package taskagent
