// Package ytapi implements remote.Publisher on top of the official YouTube
// Data API v3 client.
//
// Each account login gets its own OAuth token file under the credentials
// directory; refreshed tokens are written back. Every failure is converted to
// *remote.Error. List calls are retried with exponential backoff on transport
// failures, rate limits and server errors; mutating calls are never repeated.
package ytapi
