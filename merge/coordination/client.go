// Package coordination models the narrow slice of a ZooKeeper-style
// coordination service that the region-merge transaction depends on: a
// single ephemeral znode per merged descriptor, transitioned by
// compare-and-swap on a version.
package coordination

import (
	"context"
	"errors"

	"github.com/sharedcode/regionmerge/region"
)

// EventType is the transition record's event field.
type EventType int

const (
	// RegionMerging is the claim/refresh state ("MERGING").
	RegionMerging EventType = iota
	// RegionMerge is the commit-announcement / tickle state ("MERGE").
	RegionMerge
)

// TransitionRecord is the znode payload: a length-delimited binary record
// in the real system. Here it is a plain struct; the Redis-backed client
// stores the same fields, plus a CAS version, as JSON (znodeRecord).
type TransitionRecord struct {
	Event      EventType
	RegionName []byte
	Origin     string
	Payload    []byte
}

// ErrNodeExists is returned by CreateEphemeralMerging when another server
// already holds the ephemeral node for this encoded name.
var ErrNodeExists = errors.New("coordination: node already exists")

// LostOwnership is returned (as newVersion == -1, err == nil) by the
// transition methods when the caller's expectedVersion no longer matches:
// the CAS lost. -1 from tickleMerge specifically means "the node is gone",
// per spec.md §4.2 stage 11.
const LostOwnership = -1

// Client is the coordination-service adapter the transaction consumes.
// All transition methods are compare-and-swap on version: a version
// mismatch returns (LostOwnership, nil), not an error.
type Client interface {
	// CreateEphemeralMerging installs the ephemeral merge znode for merged,
	// carrying {event: RegionMerging, regionName: merged.Name(), origin}.
	// Returns ErrNodeExists if occupied.
	CreateEphemeralMerging(ctx context.Context, merged region.Descriptor, origin string) (version int64, err error)

	// TransitionMerging performs a MERGING -> MERGING self-transition to
	// pick up a version suitable for later CAS calls, and to trigger the
	// controller's change callback.
	TransitionMerging(ctx context.Context, merged region.Descriptor, origin string, expectedVersion int64) (newVersion int64, err error)

	// TransitionMergeFinal performs the MERGING -> MERGE commit-announcement
	// transition, with payload = delimited (merged, a, b) descriptors.
	TransitionMergeFinal(ctx context.Context, merged, a, b region.Descriptor, origin string, expectedVersion int64, payload []byte) (newVersion int64, err error)

	// TickleMerge performs a MERGE -> MERGE no-op transition with payload =
	// delimited (a, b) descriptors, to trigger watcher events. Returns
	// LostOwnership if the node is gone.
	TickleMerge(ctx context.Context, merged, a, b region.Descriptor, origin string, expectedVersion int64) (newVersion int64, err error)

	// DeleteIfInState deletes the znode iff it is currently in the given
	// state. Tolerates the node already being gone.
	DeleteIfInState(ctx context.Context, merged region.Descriptor, state EventType) error
}
