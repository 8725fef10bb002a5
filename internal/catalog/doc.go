// Package catalog models the local media catalog the bridge publishes from.
//
// Assets are referenced, not owned: the bridge reads them, adds or removes the
// published tag, and otherwise leaves them alone. Tags form a tree rooted at the
// account root tag; tags carrying a login property identify remote accounts and
// their children map to remote playlists. Tree answers the ancestry questions
// the reconciliation passes ask.
package catalog
