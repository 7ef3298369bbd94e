// Package storage models the filesystem adapter: creating the merges
// working directory, materializing metadata-only reference files, and
// assembling the merged region's final directory.
package storage

import (
	"context"

	"github.com/sharedcode/regionmerge/region"
)

// Filesystem is the narrow capability the transaction needs from the
// shared filesystem, grounded in the teacher's FileIO seam
// (fs/blob_store.go, fs/store_repository.go) which wraps os calls behind
// an interface so tests can substitute an in-memory fake.
type Filesystem interface {
	// CreateMergesDir creates a fresh "merges/" working directory under
	// region A's directory and returns its path.
	CreateMergesDir(ctx context.Context, a region.Descriptor, aDir string) (mergesDir string, err error)

	// CreateReferenceFile writes a metadata-only pointer file in mergesDir
	// pointing at sourceStoreFile, for the given column family. It must not
	// copy the source file's bytes.
	CreateReferenceFile(ctx context.Context, merged region.Descriptor, family, sourceStoreFile, mergesDir string) (referencePath string, err error)

	// AssembleMergedRegion moves the prepared subtree (mergesDir plus
	// whatever reference files it holds) to the merged region's final
	// directory location and returns that path. Appended-to journal entry
	// STARTED_MERGED_REGION_CREATION must be written by the caller before
	// this call, not after, so cleanup can find a partial directory.
	AssembleMergedRegion(ctx context.Context, merged region.Descriptor, mergesDir string) (mergedDir string, err error)

	// CleanupMergesDir removes the merges working directory. Idempotent:
	// a missing directory is not an error.
	CleanupMergesDir(ctx context.Context, mergesDir string) error

	// CleanupMergedRegionDir removes the in-progress merged region
	// directory. Idempotent.
	CleanupMergedRegionDir(ctx context.Context, mergedDir string) error
}
