package region

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNewRegionStartsOnlineAndMergeable(t *testing.T) {
	d := New("t1", Key("a"), Key("m"), 1)
	r := NewRegion(d, "/data/t1/a", nil)
	assert.Equal(t, StateOnline, r.State())
	assert.True(t, r.Mergeable())
}

func TestSetStateAffectsMergeable(t *testing.T) {
	d := New("t1", Key("a"), Key("m"), 1)
	r := NewRegion(d, "/data/t1/a", nil)

	r.SetState(StateClosed)
	assert.Equal(t, StateClosed, r.State())
	assert.False(t, r.Mergeable())

	r.SetState(StateDisabledForWrites)
	assert.False(t, r.Mergeable())

	r.SetState(StateOnline)
	assert.True(t, r.Mergeable())
}

func TestStoreFilesReturnsACopy(t *testing.T) {
	d := New("t1", Key("a"), Key("m"), 1)
	sf := []StoreFile{{Family: "cf1", Path: "/data/t1/a/cf1/file1"}}
	r := NewRegion(d, "/data/t1/a", sf)

	out := r.StoreFiles()
	assert.Equal(t, sf, out)
	out[0].Path = "mutated"
	assert.Equal(t, "/data/t1/a/cf1/file1", r.StoreFiles()[0].Path)
}
