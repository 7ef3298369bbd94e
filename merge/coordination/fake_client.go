package coordination

import (
	"context"
	"sync"

	"github.com/sharedcode/regionmerge/region"
)

type fakeNode struct {
	event   EventType
	version int64
}

// fakeClient is an in-memory Client for tests, mirroring the teacher's
// common/mocks.mockRedis pattern of a map-backed stub satisfying a real
// interface.
type fakeClient struct {
	mu    sync.Mutex
	nodes map[string]*fakeNode
}

// NewFakeClient returns an in-memory coordination Client for tests.
func NewFakeClient() Client {
	return &fakeClient{nodes: make(map[string]*fakeNode)}
}

func (c *fakeClient) CreateEphemeralMerging(ctx context.Context, merged region.Descriptor, origin string) (int64, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	k := merged.EncodedName()
	if _, ok := c.nodes[k]; ok {
		return 0, ErrNodeExists
	}
	c.nodes[k] = &fakeNode{event: RegionMerging, version: 1}
	return 1, nil
}

func (c *fakeClient) transitionLocked(merged region.Descriptor, event EventType, expectedVersion int64) int64 {
	k := merged.EncodedName()
	n, ok := c.nodes[k]
	if !ok {
		return LostOwnership
	}
	if n.version != expectedVersion {
		return LostOwnership
	}
	n.event = event
	n.version++
	return n.version
}

func (c *fakeClient) TransitionMerging(ctx context.Context, merged region.Descriptor, origin string, expectedVersion int64) (int64, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.transitionLocked(merged, RegionMerging, expectedVersion), nil
}

func (c *fakeClient) TransitionMergeFinal(ctx context.Context, merged, a, b region.Descriptor, origin string, expectedVersion int64, payload []byte) (int64, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.transitionLocked(merged, RegionMerge, expectedVersion), nil
}

func (c *fakeClient) TickleMerge(ctx context.Context, merged, a, b region.Descriptor, origin string, expectedVersion int64) (int64, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.transitionLocked(merged, RegionMerge, expectedVersion), nil
}

func (c *fakeClient) DeleteIfInState(ctx context.Context, merged region.Descriptor, state EventType) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	k := merged.EncodedName()
	n, ok := c.nodes[k]
	if !ok {
		return nil
	}
	if n.event != state {
		return nil
	}
	delete(c.nodes, k)
	return nil
}

// Delete unconditionally removes the node, used by tests to simulate
// another server's stale ephemeral node disappearing.
func (c *fakeClient) Delete(merged region.Descriptor) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.nodes, merged.EncodedName())
}
