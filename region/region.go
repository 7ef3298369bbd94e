package region

import "sync"

// LifecycleState is the mount state of a Region on the local node.
type LifecycleState int

const (
	// StateOnline is the normal, serving state.
	StateOnline LifecycleState = iota
	// StateClosing means a close is in progress.
	StateClosing
	// StateClosed means the region has been closed and is not currently open.
	StateClosed
	// StateDisabledForWrites marks a region that no longer accepts mutations
	// (e.g. mid split, mid merge, or administratively disabled).
	StateDisabledForWrites
)

// StoreFile identifies one on-disk store file belonging to a column family.
type StoreFile struct {
	Family string
	Path   string
}

// Region is a live, mounted descriptor hosted on this node.
type Region struct {
	mu sync.RWMutex

	Descriptor Descriptor
	Dir        string // the region's directory on the shared filesystem
	state      LifecycleState
	storeFiles []StoreFile
}

// NewRegion wraps a descriptor as a currently-online, mounted region.
func NewRegion(d Descriptor, dir string, storeFiles []StoreFile) *Region {
	return &Region{Descriptor: d, Dir: dir, state: StateOnline, storeFiles: storeFiles}
}

// State returns the region's current lifecycle state.
func (r *Region) State() LifecycleState {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.state
}

// SetState transitions the region's lifecycle state. Exported so the
// region-lifecycle adapter (which owns close/offline/initialize) can drive
// it; the region itself enforces no transition graph beyond Mergeable().
func (r *Region) SetState(s LifecycleState) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.state = s
}

// StoreFiles returns the column-family store files currently known for this
// region. Used by the merge transaction to materialize reference files.
func (r *Region) StoreFiles() []StoreFile {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]StoreFile, len(r.storeFiles))
	copy(out, r.storeFiles)
	return out
}

// Mergeable reports whether this region may participate in a merge: it must
// be online and not already disabled for writes by some other in-flight
// operation (another merge, a split, or an administrative disable).
func (r *Region) Mergeable() bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.state == StateOnline
}
