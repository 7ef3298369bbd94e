package merge

import (
	"context"
	"errors"

	"github.com/sharedcode/regionmerge/region"
)

// ErrAlreadyClosed is the dedicated sentinel for "closed by another actor",
// per spec.md §9: modeled as a distinct error variant (not an inheritance
// concern) so the executor can match on it and leave out the corresponding
// CLOSED_REGION_X journal entry, which keeps rollback from re-initializing
// a region this transaction did not close.
var ErrAlreadyClosed = errors.New("region already closed by another actor")

// RegionLifecycle is the region lifecycle adapter: close, initialize, and
// open a Region, plus a progress reporter for the (potentially slow) open.
type RegionLifecycle interface {
	// Close closes r. abort controls whether in-flight operations are
	// aborted rather than drained. Returns ErrAlreadyClosed if another
	// actor already closed r.
	Close(ctx context.Context, r *region.Region, abort bool) error

	// Initialize re-opens r for service after a rollback has decided to
	// undo a prior Close.
	Initialize(ctx context.Context, r *region.Region) error

	// OpenMergedRegion opens the assembled merged region, invoking
	// progress() while the open is in flight, matching spec.md §4.2 stage
	// 10. The transaction's progress callback itself limits its log line to
	// one per OpenLogIntervalMillis.
	OpenMergedRegion(ctx context.Context, merged *region.Region, progress func()) error
}
