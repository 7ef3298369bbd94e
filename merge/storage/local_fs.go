package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/sharedcode/regionmerge/region"
)

// permission matches the teacher's fs.blobStore directory/file permission.
const permission os.FileMode = os.ModeSticky | os.ModePerm

// referencePointer is the metadata-only content of a reference file: it
// names the source store file it points at, never copies its bytes.
type referencePointer struct {
	Family string `json:"family"`
	Source string `json:"source"`
}

// localFilesystem implements Filesystem against the local (or NFS-mounted
// shared) filesystem, grounded in the teacher's fs.blobStore use of plain
// os calls behind a narrow interface.
type localFilesystem struct{}

// NewLocalFilesystem returns a Filesystem backed by the local disk.
func NewLocalFilesystem() Filesystem {
	return localFilesystem{}
}

func (localFilesystem) CreateMergesDir(ctx context.Context, a region.Descriptor, aDir string) (string, error) {
	mergesDir := filepath.Join(aDir, "merges", a.EncodedName())
	if err := os.RemoveAll(mergesDir); err != nil {
		return "", err
	}
	if err := os.MkdirAll(mergesDir, permission); err != nil {
		return "", err
	}
	return mergesDir, nil
}

func (localFilesystem) CreateReferenceFile(ctx context.Context, merged region.Descriptor, family, sourceStoreFile, mergesDir string) (string, error) {
	famDir := filepath.Join(mergesDir, family)
	if err := os.MkdirAll(famDir, permission); err != nil {
		return "", err
	}
	ref := referencePointer{Family: family, Source: sourceStoreFile}
	ba, err := json.Marshal(ref)
	if err != nil {
		return "", err
	}
	refPath := filepath.Join(famDir, fmt.Sprintf("%s.ref", filepath.Base(sourceStoreFile)))
	if err := os.WriteFile(refPath, ba, permission); err != nil {
		return "", err
	}
	return refPath, nil
}

func (localFilesystem) AssembleMergedRegion(ctx context.Context, merged region.Descriptor, mergesDir string) (string, error) {
	parent := filepath.Dir(filepath.Dir(filepath.Dir(mergesDir))) // .../<A dir>/merges/<encoded> -> .../<A dir's parent>
	mergedDir := filepath.Join(parent, merged.EncodedName())
	if err := os.MkdirAll(filepath.Dir(mergedDir), permission); err != nil {
		return "", err
	}
	if err := os.Rename(mergesDir, mergedDir); err != nil {
		return "", err
	}
	return mergedDir, nil
}

func (localFilesystem) CleanupMergesDir(ctx context.Context, mergesDir string) error {
	if mergesDir == "" {
		return nil
	}
	return os.RemoveAll(mergesDir)
}

func (localFilesystem) CleanupMergedRegionDir(ctx context.Context, mergedDir string) error {
	if mergedDir == "" {
		return nil
	}
	return os.RemoveAll(mergedDir)
}
