package coordination

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sharedcode/regionmerge/region"
)

func descr(table string, start, end string, id int64) region.Descriptor {
	return region.New(table, region.Key(start), region.Key(end), region.ID(id))
}

func TestCreateEphemeralMergingRejectsDuplicate(t *testing.T) {
	c := NewFakeClient()
	merged := descr("t1", "a", "z", 100)

	v, err := c.CreateEphemeralMerging(context.Background(), merged, "server-1")
	require.NoError(t, err)
	assert.Equal(t, int64(1), v)

	_, err = c.CreateEphemeralMerging(context.Background(), merged, "server-2")
	assert.ErrorIs(t, err, ErrNodeExists)
}

func TestTransitionMergingAdvancesVersion(t *testing.T) {
	c := NewFakeClient()
	merged := descr("t1", "a", "z", 100)
	_, err := c.CreateEphemeralMerging(context.Background(), merged, "server-1")
	require.NoError(t, err)

	v, err := c.TransitionMerging(context.Background(), merged, "server-1", 1)
	require.NoError(t, err)
	assert.Equal(t, int64(2), v)
}

func TestTransitionWithStaleVersionLosesOwnership(t *testing.T) {
	c := NewFakeClient()
	merged := descr("t1", "a", "z", 100)
	_, err := c.CreateEphemeralMerging(context.Background(), merged, "server-1")
	require.NoError(t, err)

	v, err := c.TransitionMerging(context.Background(), merged, "server-1", 99)
	require.NoError(t, err)
	assert.Equal(t, int64(LostOwnership), v)
}

func TestTickleOnMissingNodeLosesOwnership(t *testing.T) {
	c := NewFakeClient()
	a := descr("t1", "a", "m", 100)
	b := descr("t1", "m", "z", 100)
	merged := region.Merge(a, b)

	v, err := c.TickleMerge(context.Background(), merged, a, b, "server-1", 1)
	require.NoError(t, err)
	assert.Equal(t, int64(LostOwnership), v)
}

func TestDeleteIfInStateOnlyDeletesMatchingEvent(t *testing.T) {
	c := NewFakeClient()
	merged := descr("t1", "a", "z", 100)
	_, err := c.CreateEphemeralMerging(context.Background(), merged, "server-1")
	require.NoError(t, err)

	// Node is in RegionMerging state; deleting while expecting RegionMerge
	// must be a no-op.
	require.NoError(t, c.DeleteIfInState(context.Background(), merged, RegionMerge))
	_, err = c.CreateEphemeralMerging(context.Background(), merged, "server-2")
	assert.ErrorIs(t, err, ErrNodeExists, "node should still be present")

	require.NoError(t, c.DeleteIfInState(context.Background(), merged, RegionMerging))
	_, err = c.CreateEphemeralMerging(context.Background(), merged, "server-2")
	assert.NoError(t, err, "node should now be gone")
}

func TestDeleteIfInStateToleratesMissingNode(t *testing.T) {
	c := NewFakeClient()
	merged := descr("t1", "a", "z", 100)
	assert.NoError(t, c.DeleteIfInState(context.Background(), merged, RegionMerging))
}
