package reconcile

import (
	"context"
	"fmt"

	"ytbridge/internal/catalog"
	"ytbridge/internal/notifications"
	"ytbridge/internal/syncstate"
)

// SyncPlaylists aligns playlists per account, then fixes the membership of
// every published video.
func (e *Engine) SyncPlaylists(ctx context.Context) (PassResult, error) {
	ctx, result, started := e.beginPass(ctx, PassPlaylists)
	tree, err := e.loadTree(ctx)
	if err != nil {
		return result, err
	}
	for _, account := range tree.Accounts(e.cfg.YouTube.AccountRootTag) {
		result.Candidates++
		item := notifications.Item{Title: account.Title, Account: account.Login()}
		e.runItem(ctx, &result, &item, func(ctx context.Context) error {
			return e.playlists.SyncAccount(ctx, tree, account)
		})
	}

	// Account sync may have linked or removed tags.
	if tree, err = e.loadTree(ctx); err != nil {
		return e.finishPass(ctx, result, started), err
	}
	err = e.forEachPublished(ctx, &result, func(ctx context.Context, asset *catalog.Asset, rec *syncstate.Record) error {
		return e.playlists.FixAsset(ctx, tree, asset, rec)
	})
	return e.finishPass(ctx, result, started), err
}

// SyncCaptions uploads and removes captions of published videos.
func (e *Engine) SyncCaptions(ctx context.Context) (PassResult, error) {
	ctx, result, started := e.beginPass(ctx, PassCaptions)
	err := e.forEachPublished(ctx, &result, func(ctx context.Context, asset *catalog.Asset, rec *syncstate.Record) error {
		return e.captions.Sync(ctx, asset, rec)
	})
	return e.finishPass(ctx, result, started), err
}

func (e *Engine) forEachPublished(ctx context.Context, result *PassResult, fn func(context.Context, *catalog.Asset, *syncstate.Record) error) error {
	records, err := e.records.RecordsByStatus(ctx, syncstate.StatusPublished)
	if err != nil {
		return fmt.Errorf("load published records: %w", err)
	}
	for _, rec := range records {
		asset, err := e.catalog.AssetByID(ctx, rec.AssetID)
		if err == nil && asset == nil {
			continue
		}
		result.Candidates++
		item := itemFor(asset, rec)
		e.runItem(ctx, result, &item, func(ctx context.Context) error {
			if err != nil {
				return fmt.Errorf("load asset: %w", err)
			}
			return fn(ctx, asset, rec)
		})
	}
	return nil
}
