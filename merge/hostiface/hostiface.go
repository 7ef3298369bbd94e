// Package hostiface defines the two narrow capability sets the
// region-merge transaction consumes from its host, grounded in spec.md
// §9's guidance to model Server/RegionServerServices dynamic dispatch as
// two small interfaces rather than porting Java-style abstract classes.
package hostiface

import "context"

// HostLifecycle is the subset of the hosting server the transaction needs:
// identity, configuration-derived knobs, and stop signaling.
type HostLifecycle interface {
	// IsStopped reports whether the host has fully stopped.
	IsStopped() bool
	// ServerName is this node's identity, used as the "origin" field in
	// coordination and catalog writes.
	ServerName() string
	// OpenLogIntervalMillis is the reporter log cadence during merged-region
	// open (configuration key
	// hbase.regionserver.regionmerge.open.log.interval, default 10000).
	OpenLogIntervalMillis() int64
	// TestingNoCluster disables all coordination-service side effects
	// (configuration key hbase.testing.nocluster). Read once by
	// merge.New to set the transaction's internal test mode; it does not
	// gate the online-region registry, which is local in-process state.
	TestingNoCluster() bool
}

// RegionRegistry is the subset of region-server services the transaction
// needs: the online-region registry and the post-open deploy hook.
type RegionRegistry interface {
	// IsStopping reports whether the host is in the process of stopping.
	IsStopping() bool
	// AddOnline registers a region name as online.
	AddOnline(regionName []byte)
	// RemoveFromOnline unregisters a region name from the online registry.
	RemoveFromOnline(regionName []byte)
	// PostOpenDeploy runs after the merged region is opened; it may itself
	// talk to the coordination service (e.g. to announce assignment).
	PostOpenDeploy(ctx context.Context, regionName []byte) error
}
