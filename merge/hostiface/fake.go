package hostiface

import (
	"context"
	"sync"
)

// FakeHost is an in-memory HostLifecycle for tests.
type FakeHost struct {
	mu                sync.Mutex
	Stopped           bool
	Name              string
	OpenLogIntervalMs int64
	NoCluster         bool
}

func (h *FakeHost) IsStopped() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.Stopped
}
func (h *FakeHost) ServerName() string { return h.Name }
func (h *FakeHost) OpenLogIntervalMillis() int64 {
	if h.OpenLogIntervalMs == 0 {
		return 10000
	}
	return h.OpenLogIntervalMs
}
func (h *FakeHost) TestingNoCluster() bool { return h.NoCluster }

// Stop marks the host as stopped, for tests exercising the liveness check.
func (h *FakeHost) Stop() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.Stopped = true
}

// FakeRegistry is an in-memory RegionRegistry for tests.
type FakeRegistry struct {
	mu              sync.Mutex
	Stopping        bool
	online          map[string]bool
	PostOpenErr     error
	PostOpenCalls   int
}

// NewFakeRegistry returns a FakeRegistry seeded with the given online
// region names.
func NewFakeRegistry(online ...[]byte) *FakeRegistry {
	r := &FakeRegistry{online: make(map[string]bool)}
	for _, n := range online {
		r.online[string(n)] = true
	}
	return r
}

func (r *FakeRegistry) IsStopping() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.Stopping
}

// Stop marks the registry as stopping, for tests exercising loops that
// poll IsStopping (e.g. the controller handshake).
func (r *FakeRegistry) Stop() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.Stopping = true
}
func (r *FakeRegistry) AddOnline(regionName []byte) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.online[string(regionName)] = true
}
func (r *FakeRegistry) RemoveFromOnline(regionName []byte) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.online, string(regionName))
}
func (r *FakeRegistry) PostOpenDeploy(ctx context.Context, regionName []byte) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.PostOpenCalls++
	return r.PostOpenErr
}

// IsOnline reports whether regionName is currently marked online, for test
// assertions.
func (r *FakeRegistry) IsOnline(regionName []byte) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.online[string(regionName)]
}
