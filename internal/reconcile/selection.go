package reconcile

import (
	"slices"

	"ytbridge/internal/catalog"
	"ytbridge/internal/syncstate"
)

const masterTrackTag = "master"

// Publishable reports whether an asset should exist remotely.
func (e *Engine) Publishable(asset *catalog.Asset) bool {
	if asset == nil {
		return false
	}
	yt := e.cfg.YouTube
	if yt.ExcludeLegacy && asset.IsLegacy() {
		return false
	}
	switch asset.Status {
	case catalog.StatusPublished:
	case catalog.StatusBlocked, catalog.StatusHidden:
		if !yt.SyncStatus {
			return false
		}
	default:
		return false
	}
	if asset.Broadcast != catalog.BroadcastPublic {
		return false
	}
	for _, code := range yt.RequiredTags {
		if !asset.HasTag(code) {
			return false
		}
	}
	return true
}

// uploadCandidate reports whether an asset with record rec should be uploaded.
// Records waiting for manual action are left alone.
func uploadCandidate(rec *syncstate.Record) bool {
	if rec == nil || rec.Force {
		return true
	}
	switch rec.Status {
	case syncstate.StatusDefault, syncstate.StatusError, syncstate.StatusHTTPError, syncstate.StatusRemoved:
		return true
	default:
		return false
	}
}

// SelectTrack picks the track to upload: one tagged with the configured
// default track tag, then one tagged master, then the first usable one.
func (e *Engine) SelectTrack(asset *catalog.Asset) (catalog.Track, bool) {
	var usable []catalog.Track
	for _, track := range asset.Tracks {
		if e.usableTrack(track) {
			usable = append(usable, track)
		}
	}
	if len(usable) == 0 {
		return catalog.Track{}, false
	}
	for _, tag := range []string{e.cfg.YouTube.DefaultTrackTag, masterTrackTag} {
		if tag == "" {
			continue
		}
		for _, track := range usable {
			if track.HasTag(tag) {
				return track, true
			}
		}
	}
	return usable[0], true
}

func (e *Engine) usableTrack(track catalog.Track) bool {
	if track.OnlyAudio || track.Path == "" {
		return false
	}
	return slices.Contains(e.cfg.YouTube.AllowedFormats, track.Extension())
}

func refreshStatuses(full bool) []syncstate.Status {
	if !full {
		return []syncstate.Status{syncstate.StatusUploading, syncstate.StatusProcessing}
	}
	var out []syncstate.Status
	for _, status := range syncstate.AllStatuses() {
		switch status {
		case syncstate.StatusRemoved, syncstate.StatusDuplicated, syncstate.StatusToDelete,
			syncstate.StatusNotifiedError, syncstate.StatusToReview:
			continue
		}
		out = append(out, status)
	}
	return out
}

// stuckStatuses need an operator before the engine touches the record again.
var stuckStatuses = []syncstate.Status{
	syncstate.StatusError,
	syncstate.StatusHTTPError,
	syncstate.StatusUpdateError,
	syncstate.StatusNotifiedError,
	syncstate.StatusToReview,
}
