package merge

import "fmt"

// Stage is one entry in the transaction's journal. Stages are appended in
// forward order as the executor completes each step; rollback walks them in
// reverse.
type Stage int

const (
	// SetMergingInZK records that the coordination-service claim (the
	// ephemeral merge znode) has been installed and its version captured.
	SetMergingInZK Stage = iota
	// CreatedMergeDir records that the merges working directory exists.
	CreatedMergeDir
	// ClosedRegionA records that region A was closed by this transaction.
	ClosedRegionA
	// OfflinedRegionA records that region A was removed from the online registry.
	OfflinedRegionA
	// ClosedRegionB records that region B was closed by this transaction.
	ClosedRegionB
	// OfflinedRegionB records that region B was removed from the online registry.
	OfflinedRegionB
	// StartedMergedRegionCreation is appended before the merged region's
	// directory is created, so cleanup can find a partially-built directory.
	StartedMergedRegionCreation
	// PONR is the point of no return. Once present, rollback must not touch
	// anything earlier; it must signal the caller to abort the host.
	PONR
)

func (s Stage) String() string {
	switch s {
	case SetMergingInZK:
		return "SET_MERGING_IN_ZK"
	case CreatedMergeDir:
		return "CREATED_MERGE_DIR"
	case ClosedRegionA:
		return "CLOSED_REGION_A"
	case OfflinedRegionA:
		return "OFFLINED_REGION_A"
	case ClosedRegionB:
		return "CLOSED_REGION_B"
	case OfflinedRegionB:
		return "OFFLINED_REGION_B"
	case StartedMergedRegionCreation:
		return "STARTED_MERGED_REGION_CREATION"
	case PONR:
		return "PONR"
	default:
		return fmt.Sprintf("Stage(%d)", int(s))
	}
}

// Journal is an append-only, ordered log of completed stages. Only the
// executor appends to it; rollback reads it in reverse and never mutates
// it.
type Journal struct {
	entries []Stage
}

// Append records a completed stage. Grounded in the teacher's
// transactionLog.log-after-effect discipline (fs/transaction_log.go):
// the executor appends after the corresponding side effect runs, except
// for StartedMergedRegionCreation, which it appends before.
func (j *Journal) Append(s Stage) {
	j.entries = append(j.entries, s)
}

// Entries returns the journal's stages in the order they were appended.
func (j *Journal) Entries() []Stage {
	out := make([]Stage, len(j.entries))
	copy(out, j.entries)
	return out
}

// Has reports whether the given stage was recorded.
func (j *Journal) Has(s Stage) bool {
	for _, e := range j.entries {
		if e == s {
			return true
		}
	}
	return false
}

// PastPONR reports whether the journal contains PONR, meaning rollback
// must refuse to undo anything and the caller must abort the host.
func (j *Journal) PastPONR() bool {
	return j.Has(PONR)
}
