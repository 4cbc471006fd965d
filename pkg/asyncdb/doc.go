// Package asyncdb bridges a synchronous, blocking database connection into
// an asynchronous execution model without making the connection itself
// concurrent.
//
// A Session owns one connection handle and one taskagent.Agent; every
// operation that touches the handle is submitted to the agent and executed
// by its single worker, strictly in submission order. Cursors share the
// parent session's agent and never own a worker. Two independent sessions
// have independent agents and may run concurrently against independent
// connections.
//
// The one deliberate exception is Session.RowCount, a direct read of the
// handle's last-known scalar state: it performs no blocking I/O, so it
// bypasses the queue at the cost of relaxed consistency while an operation
// is in flight.
package asyncdb
