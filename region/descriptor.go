// Package region describes the partitions a region-merge transaction
// operates on: their immutable descriptors, ordering, adjacency, and the
// derivation of a merged descriptor from a pair of inputs.
package region

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	log "log/slog"
	"time"
)

// Key is a row key. An empty Key on the start side means -infinity; an
// empty Key on the end side means +infinity.
type Key []byte

// ID is a monotonic, millisecond-resolution timestamp identifying a
// generation of a region's descriptor.
type ID int64

// Now returns the current time as an ID. Var so tests can inject time.
var Now = func() ID { return ID(time.Now().UnixMilli()) }

// Descriptor identifies a partition. It is immutable once constructed;
// all derived fields (EncodedName, Name) are computed from Table/Start/End/Id.
type Descriptor struct {
	Table string
	Start Key
	End   Key
	Id    ID
}

// New builds a Descriptor from its fields. It does not check that Start
// sorts before End.
func New(table string, start, end Key, id ID) Descriptor {
	return Descriptor{Table: table, Start: start, End: end, Id: id}
}

// EncodedName derives a short, stable, filesystem-safe identifier from
// (table, start key, id). Grounded in the teacher's ToFilePathFunc-style
// hashing of a UUID into a bounded-length path segment.
func (d Descriptor) EncodedName() string {
	h := sha256.New()
	h.Write([]byte(d.Table))
	h.Write([]byte{0})
	h.Write(d.Start)
	h.Write([]byte{0})
	var idb [8]byte
	for i := 0; i < 8; i++ {
		idb[i] = byte(d.Id >> (8 * (7 - i)))
	}
	h.Write(idb[:])
	return hex.EncodeToString(h.Sum(nil))[:32]
}

// Name is the binary region name used in catalog rows: table,start,id.
func (d Descriptor) Name() []byte {
	return []byte(fmt.Sprintf("%s,%s,%d", d.Table, d.Start, d.Id))
}

// compareKey orders two keys, treating an empty key as -infinity when
// startSide is true, or +infinity when startSide is false.
func compareKey(a, b Key, startSide bool) int {
	aEmpty, bEmpty := len(a) == 0, len(b) == 0
	if aEmpty && bEmpty {
		return 0
	}
	if aEmpty {
		if startSide {
			return -1
		}
		return 1
	}
	if bEmpty {
		if startSide {
			return 1
		}
		return -1
	}
	return bytes.Compare(a, b)
}

// Less orders descriptors by (table, start key, id): the order the
// transaction normalizes A and B against at construction time.
func (d Descriptor) Less(o Descriptor) bool {
	if d.Table != o.Table {
		return d.Table < o.Table
	}
	if c := compareKey(d.Start, o.Start, true); c != 0 {
		return c < 0
	}
	return d.Id < o.Id
}

// Adjacent reports whether d and o share a table and one's end key equals
// the other's start key.
func Adjacent(a, b Descriptor) bool {
	if a.Table != b.Table {
		return false
	}
	// An empty key means unbounded (+/-infinity) on whichever side it
	// appears; two unbounded ends are never "equal" in the adjacency
	// sense, so only a shared, concrete key counts.
	if len(a.End) > 0 && bytes.Equal(a.End, b.Start) {
		return true
	}
	if len(b.End) > 0 && bytes.Equal(b.End, a.Start) {
		return true
	}
	return false
}

// Merge computes the merged descriptor for two regions of the same table.
// Order of arguments does not matter: Merge(a, b) == Merge(b, a).
func Merge(a, b Descriptor) Descriptor {
	lo := a
	if b.Less(a) {
		lo = b
	}

	start := minStart(a.Start, b.Start)
	end := maxEnd(a.End, b.End)

	id := Now()
	if id <= a.Id || id <= b.Id {
		log.Warn(fmt.Sprintf("wall clock id %d not ahead of inputs (%d, %d), using max+1", id, a.Id, b.Id))
	}
	maxInputPlus1 := a.Id + 1
	if b.Id+1 > maxInputPlus1 {
		maxInputPlus1 = b.Id + 1
	}
	if id < maxInputPlus1 {
		id = maxInputPlus1
	}

	return Descriptor{
		Table: lo.Table,
		Start: start,
		End:   end,
		Id:    id,
	}
}

func minStart(a, b Key) Key {
	if compareKey(a, b, true) <= 0 {
		return a
	}
	return b
}

func maxEnd(a, b Key) Key {
	if compareKey(a, b, false) >= 0 {
		return a
	}
	return b
}
