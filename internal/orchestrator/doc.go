// Package orchestrator decides which files need analysis and drives the
// analyze -> enhance -> index pipeline over them.
//
// Change detection is purely content-hash based: a file is reprocessed only
// when its bytes differ from the hash recorded after the last successful run.
// The metadata map is a recoverable cache persisted as JSON; losing it costs
// one full reindex, nothing more. Project runs fan out over a bounded worker
// pool and collect per-file failures without aborting.
package orchestrator
