package reconcile

import (
	"context"
	"errors"
	"fmt"
	"os"

	"ytbridge/internal/catalog"
	"ytbridge/internal/logging"
	"ytbridge/internal/notifications"
	"ytbridge/internal/remote"
	"ytbridge/internal/services"
	"ytbridge/internal/syncstate"
)

const (
	watchURL    = "https://www.youtube.com/watch?v="
	embedFormat = `<iframe width="853" height="480" src="https://www.youtube.com/embed/%s" frameborder="0" allowfullscreen></iframe>`
)

// Upload publishes every publishable asset that has no live remote video.
// limit caps the number of uploads attempted; zero falls back to
// youtube.upload_limit, and a zero limit there means no cap. Assets that are
// not ready yet are skipped without counting against the limit.
func (e *Engine) Upload(ctx context.Context, limit int) (PassResult, error) {
	ctx, result, started := e.beginPass(ctx, PassUpload)
	if limit <= 0 {
		limit = e.cfg.YouTube.UploadLimit
	}
	tree, err := e.loadTree(ctx)
	if err != nil {
		return result, err
	}
	assets, err := e.catalog.FindAssets(ctx, e.Publishable)
	if err != nil {
		return result, fmt.Errorf("find publishable assets: %w", err)
	}

	attempted := 0
	for _, asset := range assets {
		if limit > 0 && attempted >= limit {
			logging.WithContext(ctx, e.logger).Info("upload limit reached", logging.Int("limit", limit))
			break
		}
		rec, lookupErr := e.records.RecordByAssetID(ctx, asset.ID)
		if lookupErr == nil && !uploadCandidate(rec) {
			continue
		}
		track, login, readyErr := e.uploadReadiness(tree, asset)
		if readyErr == nil {
			attempted++
		}
		result.Candidates++
		item := itemFor(asset, rec)
		e.runItem(ctx, &result, &item, func(ctx context.Context) error {
			if readyErr != nil {
				return readyErr
			}
			if lookupErr != nil {
				return fmt.Errorf("load record: %w", lookupErr)
			}
			return e.upload(ctx, asset, rec, track, login, &item)
		})
	}
	return e.finishPass(ctx, result, started), nil
}

// uploadReadiness returns the track to upload and the owning account login,
// or a not-ready error when either is missing.
func (e *Engine) uploadReadiness(tree *catalog.Tree, asset *catalog.Asset) (catalog.Track, string, error) {
	track, ok := e.SelectTrack(asset)
	if !ok {
		reason := "no valid track"
		if asset.PendingJobs > 0 {
			reason = "pending jobs"
		}
		return catalog.Track{}, "", services.Wrap(services.ErrNotReady, PassUpload, "select track", reason, nil)
	}
	account, ok := tree.AssetAccount(asset, e.cfg.YouTube.AccountRootTag)
	if !ok {
		return catalog.Track{}, "", services.Wrap(services.ErrNotReady, PassUpload, "resolve account", "no account", nil)
	}
	return track, account.Login(), nil
}

func (e *Engine) upload(ctx context.Context, asset *catalog.Asset, rec *syncstate.Record, track catalog.Track, login string, item *notifications.Item) error {
	logger := logging.WithContext(ctx, e.logger)

	media, err := os.Open(track.Path)
	if err != nil {
		return fmt.Errorf("open track %s: %w", track.ID, err)
	}
	defer media.Close()

	meta := e.BuildMetadata(asset)
	if rec == nil {
		rec = syncstate.NewRecord(asset.ID)
	}
	if err := rec.Transition(syncstate.StatusUploading); err != nil {
		return err
	}
	rec.AccountLogin = login
	rec.AssetUpdateDate = asset.UpdatedAt
	item.RecordID = rec.ID
	item.Account = login
	if err := e.saveRecord(ctx, rec); err != nil {
		return err
	}

	logger.Info("uploading video",
		logging.String(logging.FieldRecordID, rec.ID),
		logging.String(logging.FieldAccount, login),
		logging.String("track", track.ID),
		logging.String("privacy", meta.Privacy),
	)
	remoteID, err := e.publisher.InsertVideo(ctx, login, meta, media)
	if err != nil {
		status := syncstate.StatusError
		if remote.IsTransport(err) {
			status = syncstate.StatusHTTPError
		}
		if terr := rec.Transition(status); terr != nil {
			return errors.Join(err, terr)
		}
		rec.LastError = syncstate.NewErrorRecord(err, e.now())
		if serr := e.saveRecord(ctx, rec); serr != nil {
			return errors.Join(err, serr)
		}
		return err
	}

	now := e.now().UTC()
	if err := rec.Transition(syncstate.StatusProcessing); err != nil {
		return err
	}
	rec.RemoteID = remoteID
	rec.Link = watchURL + remoteID
	rec.Embed = fmt.Sprintf(embedFormat, remoteID)
	rec.UploadDate = now
	rec.SyncMetadataDate = now
	rec.FileUploaded = track.ID
	rec.Force = false
	rec.LastError = nil
	rec.Playlists = map[string]string{}
	rec.Captions = nil
	item.RemoteID = remoteID
	if err := e.saveRecord(ctx, rec); err != nil {
		return err
	}
	logger.Info("video uploaded",
		logging.String(logging.FieldRecordID, rec.ID),
		logging.String(logging.FieldRemoteID, remoteID),
	)
	return e.setPublishedTag(ctx, asset, true)
}
