package merge

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestJournalAppendAndOrder(t *testing.T) {
	var j Journal
	j.Append(SetMergingInZK)
	j.Append(CreatedMergeDir)
	j.Append(ClosedRegionA)

	assert.Equal(t, []Stage{SetMergingInZK, CreatedMergeDir, ClosedRegionA}, j.Entries())
	assert.True(t, j.Has(CreatedMergeDir))
	assert.False(t, j.Has(PONR))
	assert.False(t, j.PastPONR())
}

func TestJournalPastPONR(t *testing.T) {
	var j Journal
	j.Append(SetMergingInZK)
	j.Append(PONR)
	assert.True(t, j.PastPONR())
}

func TestJournalEntriesIsDefensiveCopy(t *testing.T) {
	var j Journal
	j.Append(SetMergingInZK)
	out := j.Entries()
	out[0] = PONR
	assert.Equal(t, SetMergingInZK, j.Entries()[0])
}

func TestStageStringMatchesJournalEntryNames(t *testing.T) {
	cases := map[Stage]string{
		SetMergingInZK:              "SET_MERGING_IN_ZK",
		CreatedMergeDir:             "CREATED_MERGE_DIR",
		ClosedRegionA:               "CLOSED_REGION_A",
		OfflinedRegionA:             "OFFLINED_REGION_A",
		ClosedRegionB:               "CLOSED_REGION_B",
		OfflinedRegionB:             "OFFLINED_REGION_B",
		StartedMergedRegionCreation: "STARTED_MERGED_REGION_CREATION",
		PONR:                        "PONR",
	}
	for stage, want := range cases {
		assert.Equal(t, want, stage.String())
	}
}
