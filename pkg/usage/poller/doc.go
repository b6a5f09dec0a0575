// Package poller drives the background usage fetch loop.
//
// One goroutine polls the upstream usage API on a fixed cadence
// (default 30s, minimum 5s), starting with an immediate poll so data is
// available the moment the server is up. Every successful snapshot is
// fanned out to the snapshot cache, the history store, the metrics
// registry, and any live websocket subscribers.
//
// The loop treats upstream failure as routine: errors are logged and
// counted, the previous snapshot keeps serving, and consumers see the
// report flagged stale once two intervals pass without a success.
package poller
