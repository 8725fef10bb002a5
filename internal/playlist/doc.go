// Package playlist keeps local playlist tags and remote playlists aligned.
//
// Which side wins is decided by youtube.playlist_master: with "pumukit" the
// local tag tree is authoritative and remote playlists are created or deleted
// to match it; with "youtube" local tags are created or unlinked to mirror the
// remote account. Per-asset membership is computed with the pure Diff function
// and applied optimistically: local state converges even when a remote delete
// fails.
package playlist
