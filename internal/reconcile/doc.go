// Package reconcile decides and applies per-asset transitions between the
// local catalog and the remote video service.
//
// Each pass (upload, metadata, status, delete, orphans, playlists, captions)
// loads its candidates from the store, runs them one at a time inside an
// item boundary, and reports every outcome to a notifications.Sink. A failing
// item never aborts the pass: remote errors are stored on the record and
// surfaced in the digest, while items that are not ready yet are skipped.
package reconcile
