package storage

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/sharedcode/regionmerge/region"
)

// fakeFilesystem is an in-memory Filesystem for tests, mirroring the
// teacher's fs.fileIOSimulator map-backed stub.
type fakeFilesystem struct {
	mu   sync.Mutex
	dirs map[string]bool
	refs map[string]referencePointer
}

// NewFakeFilesystem returns an in-memory Filesystem for tests.
func NewFakeFilesystem() Filesystem {
	return &fakeFilesystem{
		dirs: make(map[string]bool),
		refs: make(map[string]referencePointer),
	}
}

func (f *fakeFilesystem) CreateMergesDir(ctx context.Context, a region.Descriptor, aDir string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	mergesDir := aDir + "/merges/" + a.EncodedName()
	for p := range f.dirs {
		if strings.HasPrefix(p, mergesDir+"/") || p == mergesDir {
			delete(f.dirs, p)
		}
	}
	for p := range f.refs {
		if strings.HasPrefix(p, mergesDir+"/") {
			delete(f.refs, p)
		}
	}
	f.dirs[mergesDir] = true
	return mergesDir, nil
}

func (f *fakeFilesystem) CreateReferenceFile(ctx context.Context, merged region.Descriptor, family, sourceStoreFile, mergesDir string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if !f.dirs[mergesDir] {
		return "", fmt.Errorf("merges dir %s does not exist", mergesDir)
	}
	refPath := mergesDir + "/" + family + "/" + sourceStoreFile + ".ref"
	f.refs[refPath] = referencePointer{Family: family, Source: sourceStoreFile}
	return refPath, nil
}

func (f *fakeFilesystem) AssembleMergedRegion(ctx context.Context, merged region.Descriptor, mergesDir string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if !f.dirs[mergesDir] {
		return "", fmt.Errorf("merges dir %s does not exist", mergesDir)
	}
	mergedDir := "regions/" + merged.EncodedName()
	delete(f.dirs, mergesDir)
	f.dirs[mergedDir] = true
	for p, ref := range f.refs {
		if strings.HasPrefix(p, mergesDir+"/") {
			newPath := mergedDir + strings.TrimPrefix(p, mergesDir)
			f.refs[newPath] = ref
			delete(f.refs, p)
		}
	}
	return mergedDir, nil
}

func (f *fakeFilesystem) CleanupMergesDir(ctx context.Context, mergesDir string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.dirs, mergesDir)
	for p := range f.refs {
		if strings.HasPrefix(p, mergesDir+"/") {
			delete(f.refs, p)
		}
	}
	return nil
}

func (f *fakeFilesystem) CleanupMergedRegionDir(ctx context.Context, mergedDir string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.dirs, mergedDir)
	for p := range f.refs {
		if strings.HasPrefix(p, mergedDir+"/") {
			delete(f.refs, p)
		}
	}
	return nil
}

// HasDir reports whether a directory exists, for test assertions.
func (f *fakeFilesystem) HasDir(dir string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.dirs[dir]
}
