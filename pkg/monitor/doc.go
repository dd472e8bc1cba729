// Package monitor follows the lifecycle of the core process through its
// status stream.
//
// The state shown to the operator only ever comes from values the core sends:
// pushes on the CoreInfoListener stream and the immediate replies of Start and
// Stop. Run reopens the stream after a fixed delay each time it terminates.
package monitor
