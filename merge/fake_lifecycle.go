package merge

import (
	"context"
	"sync"

	"github.com/sharedcode/regionmerge/region"
)

// fakeLifecycle is an in-memory RegionLifecycle for tests, mirroring the
// teacher's common/mocks constructor-stub pattern.
type fakeLifecycle struct {
	mu            sync.Mutex
	alreadyClosed map[string]bool
	closeErr      map[string]error
	initErr       map[string]error
	openErr       error
}

// NewFakeLifecycle returns an in-memory RegionLifecycle for tests.
func NewFakeLifecycle() *fakeLifecycleHandle {
	return &fakeLifecycleHandle{impl: &fakeLifecycle{
		alreadyClosed: make(map[string]bool),
		closeErr:      make(map[string]error),
		initErr:       make(map[string]error),
	}}
}

// fakeLifecycleHandle exposes both the RegionLifecycle interface and the
// test-control methods (SimulateAlreadyClosed, SimulateCloseError) without
// leaking them onto the interface itself.
type fakeLifecycleHandle struct {
	impl *fakeLifecycle
}

func (h *fakeLifecycleHandle) Close(ctx context.Context, r *region.Region, abort bool) error {
	return h.impl.Close(ctx, r, abort)
}
func (h *fakeLifecycleHandle) Initialize(ctx context.Context, r *region.Region) error {
	return h.impl.Initialize(ctx, r)
}
func (h *fakeLifecycleHandle) OpenMergedRegion(ctx context.Context, merged *region.Region, progress func()) error {
	return h.impl.OpenMergedRegion(ctx, merged, progress)
}

// SimulateAlreadyClosed causes the next Close call for the named region to
// return ErrAlreadyClosed, exercising spec.md's concurrent-close path.
func (h *fakeLifecycleHandle) SimulateAlreadyClosed(encodedName string) {
	h.impl.mu.Lock()
	defer h.impl.mu.Unlock()
	h.impl.alreadyClosed[encodedName] = true
}

// SimulateCloseError causes the next Close call for the named region to
// fail with err.
func (h *fakeLifecycleHandle) SimulateCloseError(encodedName string, err error) {
	h.impl.mu.Lock()
	defer h.impl.mu.Unlock()
	h.impl.closeErr[encodedName] = err
}

// SimulateOpenError causes the next OpenMergedRegion call to fail with err.
func (h *fakeLifecycleHandle) SimulateOpenError(err error) {
	h.impl.mu.Lock()
	defer h.impl.mu.Unlock()
	h.impl.openErr = err
}

// SimulateInitializeError causes the next Initialize call for the named
// region to fail with err, exercising the rollback-step-itself-fails path.
func (h *fakeLifecycleHandle) SimulateInitializeError(encodedName string, err error) {
	h.impl.mu.Lock()
	defer h.impl.mu.Unlock()
	h.impl.initErr[encodedName] = err
}

func (f *fakeLifecycle) Close(ctx context.Context, r *region.Region, abort bool) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	name := r.Descriptor.EncodedName()
	if f.alreadyClosed[name] {
		delete(f.alreadyClosed, name)
		return ErrAlreadyClosed
	}
	if err := f.closeErr[name]; err != nil {
		delete(f.closeErr, name)
		return err
	}
	r.SetState(region.StateClosed)
	return nil
}

func (f *fakeLifecycle) Initialize(ctx context.Context, r *region.Region) error {
	f.mu.Lock()
	name := r.Descriptor.EncodedName()
	if err := f.initErr[name]; err != nil {
		delete(f.initErr, name)
		f.mu.Unlock()
		return err
	}
	f.mu.Unlock()
	r.SetState(region.StateOnline)
	return nil
}

func (f *fakeLifecycle) OpenMergedRegion(ctx context.Context, merged *region.Region, progress func()) error {
	f.mu.Lock()
	err := f.openErr
	f.openErr = nil
	f.mu.Unlock()
	if err != nil {
		return err
	}
	if progress != nil {
		progress()
	}
	merged.SetState(region.StateOnline)
	return nil
}
