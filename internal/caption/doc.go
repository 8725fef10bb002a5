// Package caption publishes caption materials of an asset as remote captions.
//
// Only materials whose format appears in youtube.caption_mime_types and that
// are not hidden qualify. Removing a caption that is already gone remotely
// counts as success.
package caption
