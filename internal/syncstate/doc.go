// Package syncstate owns the synchronization record kept for every asset the
// bridge has considered for publication.
//
// Status is a closed integer enum persisted as-is; ValidTransition guards every
// change so records only move along the lifecycle the reconciliation passes
// implement. MapRemoteStatus is the total mapping from the remote upload-status
// vocabulary onto that enum.
package syncstate
