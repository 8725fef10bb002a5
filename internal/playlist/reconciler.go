package playlist

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"ytbridge/internal/catalog"
	"ytbridge/internal/config"
	"ytbridge/internal/logging"
	"ytbridge/internal/remote"
	"ytbridge/internal/services"
	"ytbridge/internal/syncstate"
)

// Reconciler syncs playlists per account and fixes per-asset membership.
type Reconciler struct {
	cfg       *config.Config
	catalog   catalog.Repository
	records   syncstate.Repository
	publisher remote.Publisher
	logger    *slog.Logger
	now       func() time.Time
}

// New constructs a playlist reconciler.
func New(cfg *config.Config, cat catalog.Repository, records syncstate.Repository, publisher remote.Publisher, logger *slog.Logger) *Reconciler {
	return &Reconciler{
		cfg:       cfg,
		catalog:   cat,
		records:   records,
		publisher: publisher,
		logger:    logging.NewComponentLogger(logger, "playlist"),
		now:       time.Now,
	}
}

// SetClock overrides the time source used for error stamps.
func (r *Reconciler) SetClock(now func() time.Time) {
	if now != nil {
		r.now = now
	}
}

// SyncAccount aligns the playlist tags below account with the account's
// remote playlists, in the direction configured by playlist_master.
func (r *Reconciler) SyncAccount(ctx context.Context, tree *catalog.Tree, account *catalog.Tag) error {
	login := account.Login()
	if login == "" {
		return services.Wrap(services.ErrConfiguration, "playlists", "sync account",
			fmt.Sprintf("tag %s has no login", account.Code), nil)
	}
	logger := logging.WithContext(ctx, r.logger).With(logging.String(logging.FieldAccount, login))

	playlists, err := r.publisher.ListPlaylists(ctx, login)
	if err != nil {
		return fmt.Errorf("list playlists for %s: %w", login, err)
	}
	remoteByID := make(map[string]remote.Playlist, len(playlists))
	for _, p := range playlists {
		remoteByID[p.ID] = p
	}
	children := tree.Children(account.Code)

	if r.cfg.LocalMaster() {
		return r.pushLocal(ctx, logger, login, children, playlists, remoteByID)
	}
	return r.pullRemote(ctx, logger, account, children, playlists, remoteByID)
}

func (r *Reconciler) pushLocal(ctx context.Context, logger *slog.Logger, login string, children []*catalog.Tag, playlists []remote.Playlist, remoteByID map[string]remote.Playlist) error {
	var errs []error
	claimed := make(map[string]struct{}, len(children))
	for _, tag := range children {
		if tag.RemoteID != "" {
			if _, ok := remoteByID[tag.RemoteID]; ok {
				claimed[tag.RemoteID] = struct{}{}
				continue
			}
			logger.Info("linked playlist vanished remotely, recreating",
				logging.String("tag", tag.Code),
				logging.String("playlist_id", tag.RemoteID),
			)
		}
		if ExceedsMaxLength(tag.Title) {
			tag.Error = fmt.Sprintf("title exceeds %d characters", MaxTitleLength)
			logger.Warn("playlist title too long",
				logging.String("tag", tag.Code),
				logging.Int("length", len([]rune(tag.Title))),
			)
			if err := r.catalog.SaveTag(ctx, tag); err != nil {
				errs = append(errs, err)
			}
			continue
		}
		id, err := r.publisher.InsertPlaylist(ctx, login, remote.Playlist{
			Title:   tag.Title,
			Privacy: r.cfg.YouTube.PlaylistPrivacy,
		})
		if err != nil {
			tag.Error = err.Error()
			errs = append(errs, fmt.Errorf("create playlist %s: %w", tag.Code, err))
		} else {
			tag.RemoteID = id
			tag.IsPlaylist = true
			tag.Error = ""
			claimed[id] = struct{}{}
			logger.Info("playlist created",
				logging.String("tag", tag.Code),
				logging.String("playlist_id", id),
			)
		}
		if err := r.catalog.SaveTag(ctx, tag); err != nil {
			errs = append(errs, err)
		}
	}

	if !r.cfg.YouTube.DeletePlaylists {
		return errors.Join(errs...)
	}
	for _, p := range playlists {
		if _, ok := claimed[p.ID]; ok {
			continue
		}
		if err := r.publisher.DeletePlaylist(ctx, login, p.ID); err != nil && !remote.IsNotFound(err) {
			errs = append(errs, fmt.Errorf("delete playlist %s: %w", p.ID, err))
			continue
		}
		logger.Info("unclaimed playlist deleted", logging.String("playlist_id", p.ID))
	}
	return errors.Join(errs...)
}

func (r *Reconciler) pullRemote(ctx context.Context, logger *slog.Logger, account *catalog.Tag, children []*catalog.Tag, playlists []remote.Playlist, remoteByID map[string]remote.Playlist) error {
	var errs []error
	linked := make(map[string]*catalog.Tag, len(children))
	for _, tag := range children {
		if tag.RemoteID != "" {
			linked[tag.RemoteID] = tag
		}
	}

	for _, p := range playlists {
		if tag, ok := linked[p.ID]; ok {
			if tag.Title == p.Title || p.Title == "" {
				continue
			}
			tag.Title = p.Title
			if err := r.catalog.SaveTag(ctx, tag); err != nil {
				errs = append(errs, err)
			}
			continue
		}
		tag := &catalog.Tag{
			Code:       account.Code + "_" + p.ID,
			ParentCode: account.Code,
			Title:      p.Title,
			RemoteID:   p.ID,
			IsPlaylist: true,
		}
		if err := r.catalog.SaveTag(ctx, tag); err != nil {
			errs = append(errs, err)
			continue
		}
		logger.Info("playlist tag created",
			logging.String("tag", tag.Code),
			logging.String("playlist_id", p.ID),
		)
	}

	if !r.cfg.YouTube.DeletePlaylists {
		return errors.Join(errs...)
	}
	for _, tag := range children {
		if tag.RemoteID == "" {
			continue
		}
		if _, ok := remoteByID[tag.RemoteID]; ok {
			continue
		}
		if err := r.unlinkTag(ctx, tag); err != nil {
			errs = append(errs, err)
			continue
		}
		logger.Info("playlist tag removed",
			logging.String("tag", tag.Code),
			logging.String("playlist_id", tag.RemoteID),
		)
	}
	return errors.Join(errs...)
}

// unlinkTag detaches tag from every asset and record before deleting it.
func (r *Reconciler) unlinkTag(ctx context.Context, tag *catalog.Tag) error {
	assets, err := r.catalog.FindAssets(ctx, func(a *catalog.Asset) bool { return a.HasTag(tag.Code) })
	if err != nil {
		return fmt.Errorf("find assets tagged %s: %w", tag.Code, err)
	}
	for _, asset := range assets {
		asset.RemoveTag(tag.Code)
		if err := r.catalog.SaveAsset(ctx, asset); err != nil {
			return fmt.Errorf("untag asset %s: %w", asset.ID, err)
		}
	}
	records, err := r.records.RecordsByStatus(ctx)
	if err != nil {
		return fmt.Errorf("load records: %w", err)
	}
	for _, rec := range records {
		if _, ok := rec.Playlists[tag.RemoteID]; !ok {
			continue
		}
		delete(rec.Playlists, tag.RemoteID)
		if err := r.records.SaveRecord(ctx, rec); err != nil {
			return fmt.Errorf("unlink record %s: %w", rec.ID, err)
		}
	}
	return r.catalog.DeleteTag(ctx, tag.Code)
}

// FixAsset brings the remote playlist membership of an uploaded asset in line
// with its tags and persists the resulting map on rec.
func (r *Reconciler) FixAsset(ctx context.Context, tree *catalog.Tree, asset *catalog.Asset, rec *syncstate.Record) error {
	if rec.RemoteID == "" {
		return nil
	}
	account, ok := tree.AssetAccount(asset, r.cfg.YouTube.AccountRootTag)
	if !ok {
		return services.Wrap(services.ErrConfiguration, "playlists", "resolve account",
			fmt.Sprintf("asset %s has no account tag", asset.ID), nil)
	}
	login := rec.AccountLogin
	if login == "" {
		login = account.Login()
	}
	if rec.Playlists == nil {
		rec.Playlists = map[string]string{}
	}

	var desired []string
	if r.cfg.LocalMaster() {
		desired = r.desiredLocal(tree, asset, account)
	} else {
		var err error
		desired, err = r.adoptRemote(ctx, tree, asset, account, login, rec)
		if err != nil {
			return err
		}
	}
	return r.apply(ctx, login, desired, rec)
}

func (r *Reconciler) desiredLocal(tree *catalog.Tree, asset *catalog.Asset, account *catalog.Tag) []string {
	var desired []string
	for _, code := range asset.Tags {
		tag, ok := tree.Tag(code)
		if !ok || tag.RemoteID == "" || tag.Error != "" {
			continue
		}
		if tree.IsDescendant(code, account.Code) {
			desired = append(desired, tag.RemoteID)
		}
	}
	if len(desired) == 0 && r.cfg.YouTube.UseDefaultPlaylist {
		if tag, ok := tree.Tag(r.cfg.YouTube.DefaultPlaylist); ok && tag.RemoteID != "" {
			desired = append(desired, tag.RemoteID)
		}
	}
	return desired
}

// adoptRemote reads the remote membership of the video, mirrors it into the
// record, and moves the asset onto the single matching playlist tag. With no
// match or several matches the asset and the video move to the default
// playlist instead.
func (r *Reconciler) adoptRemote(ctx context.Context, tree *catalog.Tree, asset *catalog.Asset, account *catalog.Tag, login string, rec *syncstate.Record) ([]string, error) {
	membership := map[string]string{}
	var matches []string
	for _, tag := range tree.Children(account.Code) {
		if tag.RemoteID == "" {
			continue
		}
		items, err := r.publisher.ListPlaylistItems(ctx, login, tag.RemoteID)
		if err != nil {
			return nil, fmt.Errorf("list items of %s: %w", tag.RemoteID, err)
		}
		for _, item := range items {
			if item.VideoID == rec.RemoteID {
				membership[tag.RemoteID] = item.ID
				matches = append(matches, tag.Code)
				break
			}
		}
	}
	rec.Playlists = membership

	chosen := ResolveSingle(matches, r.cfg.YouTube.DefaultPlaylist)
	chosenTag, ok := tree.Tag(chosen)
	if chosen == "" || !ok {
		return keys(membership), nil
	}

	changed := false
	for _, code := range append([]string(nil), asset.Tags...) {
		if code != chosen && tree.IsDescendant(code, account.Code) {
			if tag, ok := tree.Tag(code); ok && tag.RemoteID != "" {
				changed = asset.RemoveTag(code) || changed
			}
		}
	}
	changed = asset.AddTag(chosen) || changed
	if changed {
		if err := r.catalog.SaveAsset(ctx, asset); err != nil {
			return nil, fmt.Errorf("save asset %s: %w", asset.ID, err)
		}
	}

	if len(matches) == 1 || chosenTag.RemoteID == "" {
		return keys(membership), nil
	}
	// Ambiguous or missing membership collapses onto the default playlist.
	return []string{chosenTag.RemoteID}, nil
}

func (r *Reconciler) apply(ctx context.Context, login string, desired []string, rec *syncstate.Record) error {
	logger := logging.WithContext(ctx, r.logger).With(
		logging.String(logging.FieldRecordID, rec.ID),
		logging.String(logging.FieldRemoteID, rec.RemoteID),
	)
	toInsert, toDelete := Diff(desired, rec.Playlists)
	if len(toInsert) == 0 && len(toDelete) == 0 {
		if rec.PlaylistError != nil {
			rec.PlaylistError = nil
			return r.records.SaveRecord(ctx, rec)
		}
		return nil
	}

	var errs []error
	for _, playlistID := range keys(toDelete) {
		itemID := toDelete[playlistID]
		if err := r.publisher.DeletePlaylistItem(ctx, login, itemID); err != nil && !remote.IsNotFound(err) {
			rec.PlaylistError = syncstate.NewErrorRecord(err, r.now())
			errs = append(errs, fmt.Errorf("remove from playlist %s: %w", playlistID, err))
			logger.Warn("playlist item delete failed, dropping local link",
				logging.String("playlist_id", playlistID),
				logging.Error(err),
			)
		}
		delete(rec.Playlists, playlistID)
	}
	for _, playlistID := range toInsert {
		itemID, err := r.publisher.InsertPlaylistItem(ctx, login, playlistID, rec.RemoteID)
		if err != nil {
			rec.PlaylistError = syncstate.NewErrorRecord(err, r.now())
			errs = append(errs, fmt.Errorf("add to playlist %s: %w", playlistID, err))
			continue
		}
		rec.Playlists[playlistID] = itemID
	}
	if len(errs) == 0 {
		rec.PlaylistError = nil
	}
	logger.Info("playlist membership updated",
		logging.Int("inserted", len(toInsert)),
		logging.Int("removed", len(toDelete)),
		logging.Int("errors", len(errs)),
	)
	if err := r.records.SaveRecord(ctx, rec); err != nil {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}

func keys(m map[string]string) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
