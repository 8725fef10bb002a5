package reconcile

import (
	"context"
	"errors"
	"fmt"

	"ytbridge/internal/catalog"
	"ytbridge/internal/logging"
	"ytbridge/internal/remote"
	"ytbridge/internal/services"
	"ytbridge/internal/syncstate"
)

// DeleteUnpublished removes remote videos whose asset is gone or no longer
// publishable.
func (e *Engine) DeleteUnpublished(ctx context.Context) (PassResult, error) {
	ctx, result, started := e.beginPass(ctx, PassDelete)
	tree, err := e.loadTree(ctx)
	if err != nil {
		return result, err
	}
	records, err := e.records.RecordsByStatus(ctx, syncstate.StatusPublished)
	if err != nil {
		return result, fmt.Errorf("load published records: %w", err)
	}
	for _, rec := range records {
		asset, err := e.catalog.AssetByID(ctx, rec.AssetID)
		if err == nil && e.Publishable(asset) {
			continue
		}
		result.Candidates++
		item := itemFor(asset, rec)
		e.runItem(ctx, &result, &item, func(ctx context.Context) error {
			if err != nil {
				return fmt.Errorf("load asset: %w", err)
			}
			return e.delete(ctx, tree, asset, rec)
		})
	}
	return e.finishPass(ctx, result, started), nil
}

func (e *Engine) delete(ctx context.Context, tree *catalog.Tree, asset *catalog.Asset, rec *syncstate.Record) error {
	if err := e.deleteRemote(ctx, e.recordLogin(tree, asset, rec), rec); err != nil {
		return err
	}
	if err := rec.Transition(syncstate.StatusRemoved); err != nil {
		return err
	}
	clearRemoteLinks(rec)
	rec.Force = false
	rec.LastError = nil
	if err := e.saveRecord(ctx, rec); err != nil {
		return err
	}
	logging.WithContext(ctx, e.logger).Info("video removed",
		logging.String(logging.FieldRecordID, rec.ID),
		logging.String(logging.FieldRemoteID, rec.RemoteID),
	)
	return e.setPublishedTag(ctx, asset, false)
}

// deleteRemote deletes the video of rec. A video that is already gone counts
// as deleted, and records without a remote id need no call.
func (e *Engine) deleteRemote(ctx context.Context, login string, rec *syncstate.Record) error {
	if rec.RemoteID == "" {
		return nil
	}
	err := e.publisher.DeleteVideo(ctx, login, rec.RemoteID)
	if err == nil || remote.IsNotFound(err) {
		return nil
	}
	rec.LastError = syncstate.NewErrorRecord(err, e.now())
	if serr := e.saveRecord(ctx, rec); serr != nil {
		return errors.Join(err, serr)
	}
	return err
}

// DeleteOrphans reaps records marked for deletion when their asset was removed.
// Assets that still exist under an account are re-armed for upload instead.
func (e *Engine) DeleteOrphans(ctx context.Context) (PassResult, error) {
	ctx, result, started := e.beginPass(ctx, PassOrphans)
	tree, err := e.loadTree(ctx)
	if err != nil {
		return result, err
	}
	records, err := e.records.RecordsByStatus(ctx, syncstate.StatusToDelete)
	if err != nil {
		return result, fmt.Errorf("load orphaned records: %w", err)
	}
	for _, rec := range records {
		result.Candidates++
		item := itemFor(nil, rec)
		e.runItem(ctx, &result, &item, func(ctx context.Context) error {
			return e.deleteOrphan(ctx, tree, rec)
		})
	}
	return e.finishPass(ctx, result, started), nil
}

func (e *Engine) deleteOrphan(ctx context.Context, tree *catalog.Tree, rec *syncstate.Record) error {
	root := e.cfg.YouTube.AccountRootTag
	asset, err := e.catalog.AssetByID(ctx, rec.AssetID)
	if err != nil {
		return fmt.Errorf("load asset: %w", err)
	}

	login := ""
	if asset != nil {
		if account, ok := tree.AssetAccount(asset, root); ok {
			login = account.Login()
		}
	}
	if login == "" {
		login = rec.AccountLogin
	}
	if rec.RemoteID != "" && login == "" {
		return services.Wrap(services.ErrConfiguration, PassOrphans, "resolve account",
			fmt.Sprintf("no account for record %s", rec.ID), nil)
	}
	if err := e.deleteRemote(ctx, login, rec); err != nil {
		return err
	}

	logger := logging.WithContext(ctx, e.logger)
	rearm := asset != nil && tree.HasDescendantOf(asset, root)
	if rearm {
		if err := rec.Transition(syncstate.StatusUploading); err != nil {
			return err
		}
		rec.Force = true
		rec.RemoteID = ""
		rec.Link = ""
		rec.Embed = ""
		rec.FileUploaded = ""
		rec.AccountLogin = login
	} else {
		if err := rec.Transition(syncstate.StatusRemoved); err != nil {
			return err
		}
		rec.Force = false
	}
	clearRemoteLinks(rec)
	rec.LastError = nil
	if err := e.saveRecord(ctx, rec); err != nil {
		return err
	}
	logger.Info("orphan reaped",
		logging.String(logging.FieldRecordID, rec.ID),
		logging.Bool("rearmed", rearm),
	)
	return e.setPublishedTag(ctx, asset, false)
}

// MarkToDelete flags the record of an asset that is about to be removed from
// the catalog. Removed records are left alone.
func (e *Engine) MarkToDelete(ctx context.Context, assetID string) error {
	rec, err := e.records.RecordByAssetID(ctx, assetID)
	if err != nil {
		return fmt.Errorf("load record: %w", err)
	}
	if rec == nil || rec.Status == syncstate.StatusRemoved || rec.Status == syncstate.StatusToDelete {
		return nil
	}
	if err := rec.Transition(syncstate.StatusToDelete); err != nil {
		return err
	}
	logging.WithContext(services.WithAssetID(ctx, assetID), e.logger).Info("record marked for deletion",
		logging.String(logging.FieldRecordID, rec.ID),
	)
	return e.saveRecord(ctx, rec)
}

// MarkNotified moves an error record to NotifiedError once an operator was told.
func (e *Engine) MarkNotified(ctx context.Context, rec *syncstate.Record) error {
	if rec == nil || !rec.Status.IsErrorState() {
		return nil
	}
	if err := rec.Transition(syncstate.StatusNotifiedError); err != nil {
		return err
	}
	return e.saveRecord(ctx, rec)
}

// StuckRecords lists records waiting for manual triage.
func (e *Engine) StuckRecords(ctx context.Context) ([]*syncstate.Record, error) {
	return e.records.RecordsByStatus(ctx, stuckStatuses...)
}

func clearRemoteLinks(rec *syncstate.Record) {
	rec.Playlists = map[string]string{}
	rec.Captions = nil
	rec.PlaylistError = nil
	rec.CaptionError = nil
}
