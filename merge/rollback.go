package merge

import (
	"context"
	"fmt"
	log "log/slog"

	"github.com/sharedcode/regionmerge/merge/coordination"
	"github.com/sharedcode/regionmerge/region"
)

// Rollback undoes the journaled steps in reverse order. It returns true if
// the merge was fully and safely undone, or false if rollback is
// impossible (PONR was reached) or a rollback step itself failed. In
// either false case the caller MUST abort the host process, per spec.md
// §4.3 and §7.
func (t *Transaction) Rollback(ctx context.Context) bool {
	entries := t.journal.Entries()
	for i := len(entries) - 1; i >= 0; i-- {
		stage := entries[i]
		switch stage {
		case PONR:
			reason := fmt.Sprintf("rollback invoked past point of no return for merged region %s", t.merged.EncodedName())
			log.Error(reason)
			t.abort(ctx, reason)
			return false

		case SetMergingInZK:
			if t.testMode {
				continue
			}
			if err := t.coordination.DeleteIfInState(ctx, t.merged, coordination.RegionMerging); err != nil {
				reason := fmt.Sprintf("failed deleting coordination znode for %s: %v", t.merged.EncodedName(), err)
				log.Error(reason)
				t.abort(ctx, reason)
				return false
			}

		case CreatedMergeDir:
			// Re-enable writes on A and B, then delete the merges dir.
			t.a.SetState(region.StateOnline)
			t.b.SetState(region.StateOnline)
			if err := t.filesystem.CleanupMergesDir(ctx, t.mergesDir); err != nil {
				log.Warn(fmt.Sprintf("cleanup merges dir %s failed: %v", t.mergesDir, err))
			}

		case ClosedRegionA:
			if err := t.lifecycle.Initialize(ctx, t.a); err != nil {
				reason := fmt.Sprintf("failed rollbacking CLOSED_REGION_A: %v", err)
				log.Error(reason)
				t.abort(ctx, reason)
				return false
			}

		case OfflinedRegionA:
			// Registry mutation is local in-process state, not a
			// coordination-service/catalog side effect; nocluster does
			// not gate it, per spec.md §6.
			t.registry.AddOnline(t.a.Descriptor.Name())

		case ClosedRegionB:
			if err := t.lifecycle.Initialize(ctx, t.b); err != nil {
				// NOTE: the teacher's source logs "Failed rollbacking
				// CLOSED_REGION_A" here too: a log-message typo, not a
				// semantic difference, per spec.md §9. Preserved verbatim
				// rather than silently "fixed".
				reason := fmt.Sprintf("Failed rollbacking CLOSED_REGION_A: %v", err)
				log.Error(reason)
				t.abort(ctx, reason)
				return false
			}

		case OfflinedRegionB:
			t.registry.AddOnline(t.b.Descriptor.Name())

		case StartedMergedRegionCreation:
			if err := t.filesystem.CleanupMergedRegionDir(ctx, t.mergedDir); err != nil {
				log.Warn(fmt.Sprintf("cleanup merged region dir %s failed: %v", t.mergedDir, err))
			}

		default:
			reason := fmt.Sprintf("unknown journal entry %v encountered during rollback", stage)
			log.Error(reason)
			t.abort(ctx, reason)
			return false
		}
	}
	return true
}

func (t *Transaction) abort(ctx context.Context, reason string) {
	if t.OnHostAbort != nil {
		t.OnHostAbort(ctx, reason)
	}
}
