package reconcile

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"ytbridge/internal/catalog"
	"ytbridge/internal/logging"
	"ytbridge/internal/notifications"
	"ytbridge/internal/services"
	"ytbridge/internal/syncstate"
)

// UpdateMetadata pushes title, description, tags and privacy for published
// videos whose asset changed since the last sync.
func (e *Engine) UpdateMetadata(ctx context.Context) (PassResult, error) {
	ctx, result, started := e.beginPass(ctx, PassMetadata)
	tree, err := e.loadTree(ctx)
	if err != nil {
		return result, err
	}
	records, err := e.records.RecordsByStatus(ctx, syncstate.StatusPublished)
	if err != nil {
		return result, fmt.Errorf("load published records: %w", err)
	}
	for _, rec := range records {
		if !rec.Stale() {
			continue
		}
		asset, err := e.catalog.AssetByID(ctx, rec.AssetID)
		if err == nil && !e.Publishable(asset) {
			// Left to the delete pass.
			continue
		}
		result.Candidates++
		item := itemFor(asset, rec)
		e.runItem(ctx, &result, &item, func(ctx context.Context) error {
			if err != nil {
				return fmt.Errorf("load asset: %w", err)
			}
			return e.updateMetadata(ctx, tree, asset, rec)
		})
	}
	return e.finishPass(ctx, result, started), nil
}

func (e *Engine) updateMetadata(ctx context.Context, tree *catalog.Tree, asset *catalog.Asset, rec *syncstate.Record) error {
	if rec.Status != syncstate.StatusPublished {
		return services.Wrap(services.ErrNotReady, PassMetadata, "update", "record is "+rec.Status.String(), nil)
	}
	login := e.recordLogin(tree, asset, rec)
	meta := e.BuildMetadata(asset)
	if err := e.publisher.UpdateVideo(ctx, login, rec.RemoteID, meta); err != nil {
		rec.LastError = syncstate.NewErrorRecord(err, e.now())
		if serr := e.saveRecord(ctx, rec); serr != nil {
			return errors.Join(err, serr)
		}
		return err
	}
	rec.SyncMetadataDate = e.now().UTC()
	if rec.SyncMetadataDate.Before(rec.AssetUpdateDate) {
		rec.SyncMetadataDate = rec.AssetUpdateDate
	}
	rec.LastError = nil
	logging.WithContext(ctx, e.logger).Info("metadata updated",
		logging.String(logging.FieldRecordID, rec.ID),
		logging.String(logging.FieldRemoteID, rec.RemoteID),
	)
	return e.saveRecord(ctx, rec)
}

// RefreshStatus asks the remote side about videos still in flight, or about
// every live record when full is set.
func (e *Engine) RefreshStatus(ctx context.Context, full bool) (PassResult, error) {
	ctx, result, started := e.beginPass(ctx, PassStatus)
	tree, err := e.loadTree(ctx)
	if err != nil {
		return result, err
	}
	records, err := e.records.RecordsByStatus(ctx, refreshStatuses(full)...)
	if err != nil {
		return result, fmt.Errorf("load records: %w", err)
	}
	for _, rec := range records {
		if rec.Status == syncstate.StatusUploading && rec.Force && rec.RemoteID == "" {
			// Re-armed by the orphan pass, waiting for the next upload.
			continue
		}
		result.Candidates++
		item := itemFor(nil, rec)
		e.runItem(ctx, &result, &item, func(ctx context.Context) error {
			return e.refresh(ctx, tree, rec, &item)
		})
	}
	return e.finishPass(ctx, result, started), nil
}

func (e *Engine) refresh(ctx context.Context, tree *catalog.Tree, rec *syncstate.Record, item *notifications.Item) error {
	if rec.RemoteID == "" {
		return e.inconsistent(ctx, rec, "id not found")
	}
	asset, err := e.catalog.AssetByID(ctx, rec.AssetID)
	if err != nil {
		return fmt.Errorf("load asset: %w", err)
	}
	if asset == nil {
		return e.inconsistent(ctx, rec, "asset not found")
	}
	item.Title = asset.Title

	status, err := e.publisher.VideoStatus(ctx, e.recordLogin(tree, asset, rec), rec.RemoteID)
	if err != nil {
		rec.LastError = syncstate.NewErrorRecord(err, e.now())
		if serr := e.saveRecord(ctx, rec); serr != nil {
			return errors.Join(err, serr)
		}
		return err
	}

	previous := rec.Status
	next := syncstate.MapRemoteStatus(status.UploadStatus, status.RejectionReason)
	if err := rec.Transition(next); err != nil {
		return err
	}
	switch next {
	case syncstate.StatusError, syncstate.StatusDuplicated:
		reason := strings.TrimSpace(status.RejectionReason)
		if reason == "" {
			reason = strings.TrimSpace(status.FailureReason)
		}
		rec.LastError = &syncstate.ErrorRecord{
			Reason:    strings.ToLower(strings.TrimSpace(status.UploadStatus)),
			Message:   reason,
			Timestamp: e.now().UTC(),
		}
	case syncstate.StatusToReview:
		rec.LastError = &syncstate.ErrorRecord{
			Reason:    "unknownStatus",
			Message:   fmt.Sprintf("unrecognized upload status %q", status.UploadStatus),
			Timestamp: e.now().UTC(),
		}
	case syncstate.StatusPublished, syncstate.StatusProcessing:
		rec.LastError = nil
	}
	if err := e.saveRecord(ctx, rec); err != nil {
		return err
	}
	if next != previous {
		logging.WithContext(ctx, e.logger).Info("remote status changed",
			logging.String(logging.FieldRecordID, rec.ID),
			logging.String(logging.FieldRemoteID, rec.RemoteID),
			logging.String("from", previous.String()),
			logging.String("to", next.String()),
		)
	}
	if next == syncstate.StatusRemoved {
		return e.setPublishedTag(ctx, asset, false)
	}
	return nil
}

// inconsistent parks rec in Error with a consistency reason and reports it.
func (e *Engine) inconsistent(ctx context.Context, rec *syncstate.Record, message string) error {
	err := services.Wrap(services.ErrConsistency, PassStatus, "refresh", message, nil)
	if terr := rec.Transition(syncstate.StatusError); terr != nil {
		return errors.Join(err, terr)
	}
	rec.LastError = &syncstate.ErrorRecord{
		Reason:    "consistency",
		Message:   message,
		Timestamp: e.now().UTC(),
	}
	if serr := e.saveRecord(ctx, rec); serr != nil {
		return errors.Join(err, serr)
	}
	return err
}
