package storage

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

func TestCreateReferenceFileRequiresExistingMergesDir(t *testing.T) {
	fs := NewFakeFilesystem()
	merged := descr("t1", "a", "z", 100)
	_, err := fs.CreateReferenceFile(context.Background(), merged, "cf1", "/data/t1/a/cf1/file1", "/data/t1/a/merges/enc")
	assert.Error(t, err)
}

func TestAssembleMergedRegionMovesReferenceFiles(t *testing.T) {
	fs := NewFakeFilesystem()
	a := descr("t1", "a", "m", 100)
	b := descr("t1", "m", "z", 100)
	merged := region.Merge(a, b)

	mergesDir, err := fs.CreateMergesDir(context.Background(), a, "/data/t1/a")
	require.NoError(t, err)

	refPath, err := fs.CreateReferenceFile(context.Background(), merged, "cf1", "/data/t1/a/cf1/file1", mergesDir)
	require.NoError(t, err)
	assert.Contains(t, refPath, mergesDir)

	mergedDir, err := fs.AssembleMergedRegion(context.Background(), merged, mergesDir)
	require.NoError(t, err)

	impl := fs.(*fakeFilesystem)
	assert.True(t, impl.HasDir(mergedDir))
	assert.False(t, impl.HasDir(mergesDir))
}

func TestCleanupMergesDirIsIdempotent(t *testing.T) {
	fs := NewFakeFilesystem()
	a := descr("t1", "a", "m", 100)
	mergesDir, err := fs.CreateMergesDir(context.Background(), a, "/data/t1/a")
	require.NoError(t, err)

	require.NoError(t, fs.CleanupMergesDir(context.Background(), mergesDir))
	assert.NoError(t, fs.CleanupMergesDir(context.Background(), mergesDir))

	impl := fs.(*fakeFilesystem)
	assert.False(t, impl.HasDir(mergesDir))
}

func TestCreateMergesDirReplacesStalePriorAttempt(t *testing.T) {
	fs := NewFakeFilesystem()
	a := descr("t1", "a", "m", 100)
	merged := descr("t1", "a", "z", 200)

	mergesDir, err := fs.CreateMergesDir(context.Background(), a, "/data/t1/a")
	require.NoError(t, err)
	_, err = fs.CreateReferenceFile(context.Background(), merged, "cf1", "file1", mergesDir)
	require.NoError(t, err)

	mergesDir2, err := fs.CreateMergesDir(context.Background(), a, "/data/t1/a")
	require.NoError(t, err)
	assert.Equal(t, mergesDir, mergesDir2)

	// Recreating the dir must not leave behind the old reference file.
	assert.Empty(t, fs.(*fakeFilesystem).refs)
	_, err = fs.CreateReferenceFile(context.Background(), merged, "cf1", "file1", mergesDir2)
	assert.NoError(t, err)
}
