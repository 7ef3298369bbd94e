package catalog

import (
	"context"
	"sync"

	"github.com/sharedcode/regionmerge/region"
)

// fakeCatalog is an in-memory ReaderWriter for tests, mirroring the
// teacher's common/mocks.mockStoreRepository map-backed stub.
type fakeCatalog struct {
	mu         sync.Mutex
	qualifiers map[string]MergeQualifier
}

// NewFakeCatalog returns an in-memory ReaderWriter for tests.
func NewFakeCatalog() ReaderWriter {
	return &fakeCatalog{qualifiers: make(map[string]MergeQualifier)}
}

func (f *fakeCatalog) GetMergeQualifier(ctx context.Context, name []byte) (MergeQualifier, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.qualifiers[string(name)], nil
}

func (f *fakeCatalog) MergeRegions(ctx context.Context, merged, a, b region.Descriptor, origin string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.qualifiers[string(a.Name())] = MergeQualifier{Present: true, MergedInto: merged}
	f.qualifiers[string(b.Name())] = MergeQualifier{Present: true, MergedInto: merged}
	f.qualifiers[string(merged.Name())] = MergeQualifier{}
	return nil
}

// SetMergeQualifier lets tests seed a pre-existing merge qualifier, used
// to exercise the preparer's rejection rule.
func (f *fakeCatalog) SetMergeQualifier(name []byte, q MergeQualifier) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.qualifiers[string(name)] = q
}

// ErroringCatalog wraps a ReaderWriter; when Err is non-nil,
// GetMergeQualifier fails with it. Used to
// exercise the preparer's "I/O error folds into false" rule.
type ErroringCatalog struct {
	ReaderWriter
	Err error
}

func (e *ErroringCatalog) GetMergeQualifier(ctx context.Context, name []byte) (MergeQualifier, error) {
	if e.Err != nil {
		return MergeQualifier{}, e.Err
	}
	return e.ReaderWriter.GetMergeQualifier(ctx, name)
}
