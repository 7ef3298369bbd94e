package region

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDescriptorLessOrdersByTableThenStartThenId(t *testing.T) {
	a := New("t1", Key("a"), Key("b"), 1)
	b := New("t1", Key("b"), Key("c"), 1)
	assert.True(t, a.Less(b))
	assert.False(t, b.Less(a))

	// Empty start key sorts before any non-empty start key within a table.
	inf := New("t1", Key(nil), Key("a"), 1)
	assert.True(t, inf.Less(a))

	// Table name takes precedence over start key.
	other := New("t0", Key("z"), Key(""), 1)
	assert.True(t, other.Less(a))

	// Same table and start key: the lower id sorts first.
	older := New("t1", Key("a"), Key("b"), 0)
	assert.True(t, older.Less(a))
	assert.False(t, a.Less(older))
}

func TestAdjacentSharesEndOrStart(t *testing.T) {
	a := New("t1", Key("a"), Key("m"), 1)
	b := New("t1", Key("m"), Key("z"), 1)
	assert.True(t, Adjacent(a, b))
	assert.True(t, Adjacent(b, a))

	c := New("t1", Key("n"), Key("z"), 1)
	assert.False(t, Adjacent(a, c))

	other := New("t2", Key("m"), Key("z"), 1)
	assert.False(t, Adjacent(a, other))
}

func TestMergeIsCommutativeAndSpansBothInputs(t *testing.T) {
	a := New("t1", Key("a"), Key("m"), 100)
	b := New("t1", Key("m"), Key("z"), 100)

	restore := Now
	Now = func() ID { return 200 }
	defer func() { Now = restore }()

	ab := Merge(a, b)
	ba := Merge(b, a)
	assert.Equal(t, ab, ba)
	assert.Equal(t, Key("a"), ab.Start)
	assert.Equal(t, Key("z"), ab.End)
	assert.Equal(t, "t1", ab.Table)
	assert.GreaterOrEqual(t, int64(ab.Id), int64(101))
}

func TestMergeUsesMaxInputPlusOneWhenClockIsBehind(t *testing.T) {
	a := New("t1", Key("a"), Key("m"), 500)
	b := New("t1", Key("m"), Key("z"), 900)

	restore := Now
	Now = func() ID { return 1 } // clock behind both inputs
	defer func() { Now = restore }()

	merged := Merge(a, b)
	assert.Equal(t, ID(901), merged.Id)
}

func TestMergeTreatsEmptyKeysAsUnbounded(t *testing.T) {
	a := New("t1", Key(nil), Key("m"), 1)
	b := New("t1", Key("m"), Key(nil), 1)

	restore := Now
	Now = func() ID { return 100 }
	defer func() { Now = restore }()

	merged := Merge(a, b)
	assert.Empty(t, merged.Start)
	assert.Empty(t, merged.End)
}

func TestEncodedNameIsStableAndDependsOnAllInputs(t *testing.T) {
	d1 := New("t1", Key("a"), Key("m"), 1)
	d2 := New("t1", Key("a"), Key("m"), 1)
	d3 := New("t1", Key("a"), Key("m"), 2)
	assert.Equal(t, d1.EncodedName(), d2.EncodedName())
	assert.NotEqual(t, d1.EncodedName(), d3.EncodedName())
	assert.Len(t, d1.EncodedName(), 32)
}
