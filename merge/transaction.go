// Package merge implements the region-merge transaction: a single-threaded,
// linearly-staged object that fuses two adjacent regions into one, across
// the local region registry, a coordination service, the filesystem, and a
// catalog table. Modeled on the teacher's two-phase-commit transaction
// style (common/two_phase_commit_transaction.go): one long method per
// phase, a journal appended to as a side effect of each completed step, and
// an injectable error-escalation hook.
package merge

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	log "log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/sharedcode/regionmerge/merge/catalog"
	"github.com/sharedcode/regionmerge/merge/coordination"
	"github.com/sharedcode/regionmerge/merge/hostiface"
	"github.com/sharedcode/regionmerge/merge/storage"
	"github.com/sharedcode/regionmerge/region"
)

// referenceFileConcurrency bounds how many CreateReferenceFile calls run at
// once during stage 6, the region-merge analogue of the teacher's
// TaskRunner thread-slot limiter.
const referenceFileConcurrency = 4

// Transaction is the region-merge transaction. Not reentrant, not
// thread-safe: a caller must serialize at most one merge per region pair,
// per spec.md's Non-goals.
type Transaction struct {
	id       TxnID
	a, b     *region.Region
	forcible bool
	// testMode mirrors hbase.testing.nocluster (host.TestingNoCluster()):
	// it disables coordination-service side effects only (claim,
	// handshake, the SET_MERGING_IN_ZK rollback step). It never gates the
	// online-region registry, which is local in-process state.
	testMode bool

	merged region.Descriptor
	prepared bool

	journal      Journal
	znodeVersion int64
	mergesDir    string
	mergedDir    string
	mergedRegion *region.Region

	coordination coordination.Client
	filesystem   storage.Filesystem
	catalog      catalog.ReaderWriter
	lifecycle    RegionLifecycle
	host         hostiface.HostLifecycle
	registry     hostiface.RegionRegistry

	// OnHostAbort is invoked when Rollback must report "rollback
	// impossible" (PONR already committed) or a rollback step itself
	// fails. The caller is expected to abort the host process.
	OnHostAbort func(ctx context.Context, reason string)
}

// Deps bundles the collaborators a Transaction needs, mirroring the
// teacher's constructor-parameter style
// (common.NewTwoPhaseCommitTransaction). The nocluster flag (spec.md §6's
// hbase.testing.nocluster) is not its own field here: it is read from
// Host.TestingNoCluster(), so the config key has exactly one consumer.
type Deps struct {
	Coordination coordination.Client
	Filesystem   storage.Filesystem
	Catalog      catalog.ReaderWriter
	Lifecycle    RegionLifecycle
	Host         hostiface.HostLifecycle
	Registry     hostiface.RegionRegistry
}

// New constructs a Transaction from two regions and a forcible flag. A and
// B are normalized so the transaction's internal a'/b' satisfy
// a'.Descriptor.Less(b'.Descriptor) (or are equal), per spec.md §3's
// invariant that all subsequent logic assumes A < B.
func New(a, b *region.Region, forcible bool, deps Deps) *Transaction {
	if b.Descriptor.Less(a.Descriptor) {
		a, b = b, a
	}
	return &Transaction{
		id: newTxnID(),
		a:  a, b: b, forcible: forcible, testMode: deps.Host.TestingNoCluster(),
		coordination: deps.Coordination,
		filesystem:   deps.Filesystem,
		catalog:      deps.Catalog,
		lifecycle:    deps.Lifecycle,
		host:         deps.Host,
		registry:     deps.Registry,
	}
}

// ID returns this transaction's identity. It appears in the controller
// handshake's debug log lines; other log lines and host-abort reasons do
// not carry it.
func (t *Transaction) ID() TxnID { return t.id }

// Merged returns the computed merged descriptor. Valid only after Prepare
// has returned true.
func (t *Transaction) Merged() region.Descriptor { return t.merged }

// Journal returns the stages appended so far, for inspection by callers
// driving rollback or by tests asserting journal contents.
func (t *Transaction) Journal() []Stage { return t.journal.Entries() }

// Prepare validates the inputs and, on success, computes and stores the
// merged descriptor. It never returns an error: any failure folds into a
// false return plus a log line (Info for a rejected pair, Warn for a
// catalog I/O error), per spec.md §4.1.
func (t *Transaction) Prepare(ctx context.Context) bool {
	if t.a.Descriptor.Table != t.b.Descriptor.Table {
		log.Info(fmt.Sprintf("prepare rejected: table mismatch (%s vs %s)", t.a.Descriptor.Table, t.b.Descriptor.Table))
		return false
	}
	if bytes.Equal(t.a.Descriptor.Name(), t.b.Descriptor.Name()) {
		log.Info("prepare rejected: region merged with itself")
		return false
	}
	if !t.forcible && !region.Adjacent(t.a.Descriptor, t.b.Descriptor) {
		log.Info("prepare rejected: regions are not adjacent and forcible=false")
		return false
	}
	if !t.a.Mergeable() || !t.b.Mergeable() {
		log.Info("prepare rejected: at least one region is not mergeable")
		return false
	}

	qa, err := t.catalog.GetMergeQualifier(ctx, t.a.Descriptor.Name())
	if err != nil {
		log.Warn(fmt.Sprintf("prepare: catalog read for region A failed: %v", err))
		return false
	}
	if qa.Present {
		log.Info("prepare rejected: region A already carries a merge qualifier")
		return false
	}
	qb, err := t.catalog.GetMergeQualifier(ctx, t.b.Descriptor.Name())
	if err != nil {
		log.Warn(fmt.Sprintf("prepare: catalog read for region B failed: %v", err))
		return false
	}
	if qb.Present {
		log.Info("prepare rejected: region B already carries a merge qualifier")
		return false
	}

	t.merged = region.Merge(t.a.Descriptor, t.b.Descriptor)
	t.prepared = true
	return true
}

// Execute drives the staged sequence described in spec.md §4.2. On any
// failure, the partial journal is left intact for the caller to pass to
// Rollback.
func (t *Transaction) Execute(ctx context.Context) error {
	if !t.prepared {
		return wrapf(ErrValidation, nil, "execute called before a successful prepare")
	}

	// Stage 1: liveness check.
	if t.host.IsStopped() {
		return wrapf(ErrTransientIO, t.merged.EncodedName(), "server stopped")
	}

	// Stage 2: claim in coordination service.
	if err := t.claimInCoordinationService(ctx); err != nil {
		return err
	}

	// Stage 3: create merges working directory under A.
	mergesDir, err := t.filesystem.CreateMergesDir(ctx, t.a.Descriptor, t.a.Dir)
	if err != nil {
		return wrapf(ErrTransientIO, t.merged.EncodedName(), "create merges dir: %w", err)
	}
	t.mergesDir = mergesDir
	t.journal.Append(CreatedMergeDir)

	// Stage 4: close and offline A.
	if err := t.closeAndOffline(ctx, t.a, ClosedRegionA, OfflinedRegionA); err != nil {
		return err
	}

	// Stage 5: close and offline B.
	if err := t.closeAndOffline(ctx, t.b, ClosedRegionB, OfflinedRegionB); err != nil {
		return err
	}

	// Stage 6: materialize reference files for each family/store file of A and B.
	if err := t.materializeReferenceFiles(ctx); err != nil {
		return wrapf(ErrTransientIO, t.merged.EncodedName(), "materialize reference files: %w", err)
	}

	// Stage 7: assemble merged region. Journal entry precedes the directory
	// move so cleanup can find a partial subtree, per spec.md §5's ordering
	// exception.
	t.journal.Append(StartedMergedRegionCreation)
	mergedDir, err := t.filesystem.AssembleMergedRegion(ctx, t.merged, t.mergesDir)
	if err != nil {
		return wrapf(ErrTransientIO, t.merged.EncodedName(), "assemble merged region: %w", err)
	}
	t.mergedDir = mergedDir
	t.mergedRegion = region.NewRegion(t.merged, mergedDir, nil)
	if err := t.lifecycle.Initialize(ctx, t.mergedRegion); err != nil {
		return wrapf(ErrTransientIO, t.merged.EncodedName(), "initialize merged region: %w", err)
	}

	// Stage 8: point of no return.
	t.journal.Append(PONR)

	// Stage 9: atomic catalog update.
	if err := t.catalog.MergeRegions(ctx, t.merged, t.a.Descriptor, t.b.Descriptor, t.host.ServerName()); err != nil {
		return wrapf(ErrCatalogFailure, t.merged.EncodedName(), "catalog update: %w", err)
	}

	// Stage 10: open merged region.
	if !t.registry.IsStopping() {
		interval := time.Duration(t.host.OpenLogIntervalMillis()) * time.Millisecond
		if interval <= 0 {
			interval = 10 * time.Second
		}
		start := time.Now()
		lastLog := start
		if err := t.lifecycle.OpenMergedRegion(ctx, t.mergedRegion, func() {
			if time.Since(lastLog) >= interval {
				log.Info(fmt.Sprintf("opening merged region %s, elapsed %v", t.merged.EncodedName(), time.Since(start)))
				lastLog = time.Now()
			}
		}); err != nil {
			return wrapf(ErrCatalogFailure, t.merged.EncodedName(), "open merged region: %w", err)
		}
		if err := t.registry.PostOpenDeploy(ctx, t.merged.Name()); err != nil {
			return wrapf(ErrCatalogFailure, t.merged.EncodedName(), "post-open deploy: %w", err)
		}
		t.registry.AddOnline(t.merged.Name())
	}

	// Stage 11: controller handshake.
	if err := t.controllerHandshake(ctx); err != nil {
		return wrapf(ErrCatalogFailure, t.merged.EncodedName(), "controller handshake: %w", err)
	}

	return nil
}

func (t *Transaction) claimInCoordinationService(ctx context.Context) error {
	if t.testMode {
		t.znodeVersion = 1
		t.journal.Append(SetMergingInZK)
		return nil
	}
	if _, err := t.coordination.CreateEphemeralMerging(ctx, t.merged, t.host.ServerName()); err != nil {
		if errors.Is(err, coordination.ErrNodeExists) {
			return wrapf(ErrTransientIO, t.merged.EncodedName(), "another merge is already in flight for this region pair: %w", err)
		}
		return wrapf(ErrTransientIO, t.merged.EncodedName(), "claim coordination znode: %w", err)
	}
	// Double-transition: the create call above does not return a version
	// suitable for later CAS, and a self-transition also triggers the
	// controller's change callback. Preserve both calls, per spec.md §4.2.
	v, err := t.coordination.TransitionMerging(ctx, t.merged, t.host.ServerName(), 1)
	if err != nil {
		return wrapf(ErrTransientIO, t.merged.EncodedName(), "refresh coordination znode version: %w", err)
	}
	if v == coordination.LostOwnership {
		return wrapf(ErrTransientIO, t.merged.EncodedName(), "lost ownership of coordination znode immediately after claim")
	}
	t.znodeVersion = v
	t.journal.Append(SetMergingInZK)
	return nil
}

func (t *Transaction) closeAndOffline(ctx context.Context, r *region.Region, closedStage, offlinedStage Stage) error {
	if err := t.lifecycle.Close(ctx, r, false); err != nil {
		if errors.Is(err, ErrAlreadyClosed) {
			return wrapf(ErrConcurrentClose, t.merged.EncodedName(), "region %s was already closed by another actor: %w", r.Descriptor.EncodedName(), err)
		}
		return wrapf(ErrTransientIO, t.merged.EncodedName(), "close region %s: %w", r.Descriptor.EncodedName(), err)
	}
	t.journal.Append(closedStage)

	// The online-region registry is local, in-process state, not a
	// coordination-service side effect, so it is driven whether or not
	// testMode is set. testMode gates only coordination-service calls; the
	// catalog read in Prepare and the catalog update in Execute run in
	// either mode.
	t.registry.RemoveFromOnline(r.Descriptor.Name())
	t.journal.Append(offlinedStage)
	return nil
}

// materializeReferenceFiles fans out one CreateReferenceFile call per store
// file across both regions, bounded to referenceFileConcurrency in flight at
// once, the region-merge analogue of the teacher's TaskRunner/JobProcessor
// bounded-goroutine pattern (task_runner.go, job_processor.go). The first
// failure cancels the group's context and is returned; which store file
// happened to fail first is not significant, since stage 6 fails atomically
// from the executor's point of view.
func (t *Transaction) materializeReferenceFiles(ctx context.Context) error {
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(referenceFileConcurrency)

	for _, r := range []*region.Region{t.a, t.b} {
		for _, sf := range r.StoreFiles() {
			sf := sf
			g.Go(func() error {
				_, err := t.filesystem.CreateReferenceFile(gctx, t.merged, sf.Family, sf.Path, t.mergesDir)
				return err
			})
		}
	}
	return g.Wait()
}

func (t *Transaction) controllerHandshake(ctx context.Context) error {
	if t.testMode {
		return nil
	}
	origin := t.host.ServerName()
	payload := append(append([]byte{}, t.merged.Name()...), append(t.a.Descriptor.Name(), t.b.Descriptor.Name()...)...)
	v, err := t.coordination.TransitionMergeFinal(ctx, t.merged, t.a.Descriptor, t.b.Descriptor, origin, t.znodeVersion, payload)
	if err != nil {
		return fmt.Errorf("commit announcement transition: %w", err)
	}
	t.znodeVersion = v

	ticker := time.NewTicker(100 * time.Millisecond)
	defer ticker.Stop()
	spins := 0
	for {
		select {
		case <-ctx.Done():
			return fmt.Errorf("handshake interrupted: %w", ctx.Err())
		case <-ticker.C:
			if t.host.IsStopped() || t.registry.IsStopping() {
				return nil
			}
			nv, err := t.coordination.TickleMerge(ctx, t.merged, t.a.Descriptor, t.b.Descriptor, origin, t.znodeVersion)
			if err != nil {
				return fmt.Errorf("tickle: %w", err)
			}
			if nv == coordination.LostOwnership {
				// Controller deleted the node: handshake complete.
				return nil
			}
			t.znodeVersion = nv
			spins++
			if spins%10 == 0 {
				log.Debug(fmt.Sprintf("txn %s: handshake tickle spin %d for %s", t.id, spins, t.merged.EncodedName()))
			}
		}
	}
}
