package catalog

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sharedcode/regionmerge/region"
)

func descr(table string, start, end string, id int64) region.Descriptor {
	return region.New(table, region.Key(start), region.Key(end), region.ID(id))
}

func TestMergeRegionsStampsQualifiersAndInsertsMergedRow(t *testing.T) {
	c := NewFakeCatalog()
	a := descr("t1", "a", "m", 100)
	b := descr("t1", "m", "z", 100)
	merged := region.Merge(a, b)

	require.NoError(t, c.MergeRegions(context.Background(), merged, a, b, "server-1"))

	qa, err := c.GetMergeQualifier(context.Background(), a.Name())
	require.NoError(t, err)
	assert.True(t, qa.Present)
	assert.Equal(t, merged, qa.MergedInto)

	qb, err := c.GetMergeQualifier(context.Background(), b.Name())
	require.NoError(t, err)
	assert.True(t, qb.Present)

	qm, err := c.GetMergeQualifier(context.Background(), merged.Name())
	require.NoError(t, err)
	assert.False(t, qm.Present)
}

func TestGetMergeQualifierAbsentByDefault(t *testing.T) {
	c := NewFakeCatalog()
	q, err := c.GetMergeQualifier(context.Background(), []byte("t1,a,100"))
	require.NoError(t, err)
	assert.False(t, q.Present)
}

func TestErroringCatalogFailsReads(t *testing.T) {
	inner := NewFakeCatalog()
	boom := errors.New("boom")
	wrapped := &ErroringCatalog{ReaderWriter: inner, Err: boom}

	_, err := wrapped.GetMergeQualifier(context.Background(), []byte("t1,a,100"))
	assert.ErrorIs(t, err, boom)
}
