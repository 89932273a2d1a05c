// Package pipeline holds the payload types and shared synchronization
// primitives (Signals, queue.Queue) used by every stage package
// (selector, fabricator, dispatcher, collector, supervisor, watchdog).
// Each inter-stage queue carries one of the types below, one value per
// query (a workload with N queries fans out to N items on the
// selected-query queue, not one batched item).
package pipeline

import (
	"time"

	"github.com/elchinoo/colt/internal/dbclient"
	"github.com/elchinoo/colt/pkg/types"
)

// AttributeSeed is one attribute's generator type tag, chosen seed, and
// generator args — the selector's per-attribute output, ready for the
// fabricator to dispatch on.
type AttributeSeed struct {
	Type string
	Seed uint64
	Args map[string]any
}

// SelectedQuery is the "selected-workload" queue's payload: one query from
// the chosen workload, with every attribute's seed already resolved
// against TableKeyState.
type SelectedQuery struct {
	WorkloadName string
	QueryIndex   int
	Kind         types.QueryKind
	Table        string
	Stmt         any
	Attributes   []AttributeSeed
}

// BoundQuery is the "bound-values" queue's payload: a SelectedQuery whose
// attributes have been materialized into concrete bind values, in the same
// order as Attributes.
type BoundQuery struct {
	WorkloadName string
	QueryIndex   int
	Kind         types.QueryKind
	Table        string
	Stmt         any
	Values       []any
}

// PendingResponse is the "pending-response" queue's payload: a dispatched
// query's in-flight token, carrying the submit timestamp and a handle the
// collector awaits.
type PendingResponse struct {
	WorkloadName string
	QueryIndex   int
	Table        string
	IsInsert     bool
	SubmitTime   time.Time
	Handle       dbclient.ResultHandle
}
