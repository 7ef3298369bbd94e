package merge

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sharedcode/regionmerge/merge/storage"
	"github.com/sharedcode/regionmerge/region"
)

func TestRollbackAfterReferenceFileFailureReopensBothRegions(t *testing.T) {
	h := newHarness(t)
	tx := New(h.a, h.b, false, h.deps(true))
	require.True(t, tx.Prepare(context.Background()))

	boom := errors.New("store file vanished")
	tx.filesystem = &erroringReferenceFS{Filesystem: h.fs, err: boom}

	err := tx.Execute(context.Background())
	require.Error(t, err)
	assert.False(t, tx.journal.PastPONR())

	ok := tx.Rollback(context.Background())
	assert.True(t, ok)
	assert.Equal(t, region.StateOnline, h.a.State())
	assert.Equal(t, region.StateOnline, h.b.State())
	assert.True(t, h.registry.IsOnline(h.a.Descriptor.Name()))
	assert.True(t, h.registry.IsOnline(h.b.Descriptor.Name()))
}

func TestRollbackEscalatesWhenReinitializeItselfFails(t *testing.T) {
	h := newHarness(t)
	tx := New(h.a, h.b, false, h.deps(true))
	require.True(t, tx.Prepare(context.Background()))

	h.lc.SimulateCloseError(h.b.Descriptor.EncodedName(), errors.New("disk I/O error"))
	err := tx.Execute(context.Background())
	require.Error(t, err)

	h.lc.SimulateInitializeError(h.a.Descriptor.EncodedName(), errors.New("reopen failed"))

	var abortReason string
	tx.OnHostAbort = func(ctx context.Context, reason string) { abortReason = reason }

	ok := tx.Rollback(context.Background())
	assert.False(t, ok, "a failing rollback step itself must escalate to host-abort")
	assert.NotEmpty(t, abortReason)
}

func TestRollbackPastPONRAlwaysAborts(t *testing.T) {
	var j Journal
	j.Append(SetMergingInZK)
	j.Append(CreatedMergeDir)
	j.Append(PONR)

	h := newHarness(t)
	tx := New(h.a, h.b, false, h.deps(true))
	tx.journal = j

	var abortReason string
	tx.OnHostAbort = func(ctx context.Context, reason string) { abortReason = reason }

	ok := tx.Rollback(context.Background())
	assert.False(t, ok)
	assert.Contains(t, abortReason, tx.merged.EncodedName())
}

// erroringReferenceFS wraps a Filesystem and fails CreateReferenceFile, to
// exercise the rollback path for a failure between OFFLINED_REGION_B and
// STARTED_MERGED_REGION_CREATION.
type erroringReferenceFS struct {
	storage.Filesystem
	err error
}

func (e *erroringReferenceFS) CreateReferenceFile(ctx context.Context, merged region.Descriptor, family, sourceStoreFile, mergesDir string) (string, error) {
	return "", e.err
}
