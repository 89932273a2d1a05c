// Package errs defines the typed error and signal values shared across
// colt's pipeline stages. Fatal kinds are sentinel errors checked with
// errors.Is; QueueDwellTooLong describes a scaling condition rather than a
// failure.
package errs

import "errors"

var (
	// ErrConfigInvalid is returned by config loading/validation. Fatal at
	// startup, before any worker runs.
	ErrConfigInvalid = errors.New("colt: configuration invalid")

	// ErrUnknownQueryKind is returned by the selector when a query's CQL
	// does not classify as insert/select/update/delete. Fatal to the
	// pipeline.
	ErrUnknownQueryKind = errors.New("colt: unknown query kind")

	// ErrUnknownGeneratorType is returned by the fabricator when an
	// attribute names a type tag with no registered generator. Fatal to
	// the pipeline.
	ErrUnknownGeneratorType = errors.New("colt: unknown generator type")

	// ErrGeneratorExhausted is returned by composite generators (set, the
	// key side of map) when a bounded number of retries could not draw
	// enough distinct values from the requested domain. Fatal to the
	// pipeline.
	ErrGeneratorExhausted = errors.New("colt: generator exhausted before producing enough distinct values")

	// ErrDBSubmit is returned when the dispatcher's asynchronous submit
	// call itself fails (as opposed to the eventual response). Per-request,
	// counted, not logged as latency.
	ErrDBSubmit = errors.New("colt: db submit failed")

	// ErrDBResponse names the failure class of a submitted query's
	// response: per-request, not logged as latency. The executors in
	// dbclient deliver the driver's (or the fake's) own error from Await
	// without wrapping it in ErrDBResponse.
	ErrDBResponse = errors.New("colt: db response error")

	// ErrNewItemInsertFailed is a warning-level condition: an insert's
	// ordinal was already appended to the bitmap before the request was
	// known to fail, so the inserted counter intentionally does not
	// advance for this item.
	ErrNewItemInsertFailed = errors.New("colt: insert attempt failed after ordinal was scheduled")
)

// QueueDwellTooLong signals that an item waited in a bounded queue longer
// than the configured threshold, or that queue occupancy exceeded target.
// It implements error for formatting only. collector.Worker does not
// construct it: the collector reports this condition by setting
// Signals.NeedMoreCollectors.
type QueueDwellTooLong struct {
	Stage string
	DwellMS float64
}

func (e *QueueDwellTooLong) Error() string {
	return "colt: queue dwell too long in stage " + e.Stage
}
