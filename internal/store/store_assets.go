package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"ytbridge/internal/catalog"
)

var _ catalog.Repository = (*Store)(nil)

// AssetByID returns the asset with the given id or nil when it does not exist.
func (s *Store) AssetByID(ctx context.Context, id string) (*catalog.Asset, error) {
	ctx = ensureContext(ctx)
	var doc string
	err := s.db.QueryRowContext(ctx, "SELECT doc FROM assets WHERE id = ?", id).Scan(&doc)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get asset %s: %w", id, err)
	}
	return decodeAsset(doc)
}

// FindAssets returns every asset accepted by predicate, ordered by id. A nil
// predicate accepts everything.
func (s *Store) FindAssets(ctx context.Context, predicate func(*catalog.Asset) bool) ([]*catalog.Asset, error) {
	ctx = ensureContext(ctx)
	rows, err := s.db.QueryContext(ctx, "SELECT doc FROM assets ORDER BY id")
	if err != nil {
		return nil, fmt.Errorf("list assets: %w", err)
	}
	defer rows.Close()

	var out []*catalog.Asset
	for rows.Next() {
		var doc string
		if err := rows.Scan(&doc); err != nil {
			return nil, fmt.Errorf("scan asset: %w", err)
		}
		asset, err := decodeAsset(doc)
		if err != nil {
			return nil, err
		}
		if predicate == nil || predicate(asset) {
			out = append(out, asset)
		}
	}
	return out, rows.Err()
}

// SaveAsset upserts the asset document. A zero UpdatedAt is stamped with the
// current time, and the linked record's asset update date follows it so the
// metadata pass notices catalog edits.
func (s *Store) SaveAsset(ctx context.Context, asset *catalog.Asset) error {
	if asset == nil || asset.ID == "" {
		return errors.New("save asset: missing id")
	}
	ctx = ensureContext(ctx)
	if asset.UpdatedAt.IsZero() {
		asset.UpdatedAt = time.Now().UTC()
	}
	data, err := json.Marshal(asset)
	if err != nil {
		return fmt.Errorf("encode asset %s: %w", asset.ID, err)
	}
	updated := asset.UpdatedAt.UTC().Format(time.RFC3339Nano)

	return retryOnBusy(ctx, func() error {
		tx, err := s.db.BeginTx(ctx, nil)
		if err != nil {
			return fmt.Errorf("begin save asset: %w", err)
		}
		defer func() { _ = tx.Rollback() }()

		if _, err := tx.ExecContext(ctx,
			`INSERT INTO assets (id, doc, updated_at) VALUES (?, ?, ?)
             ON CONFLICT(id) DO UPDATE SET doc = excluded.doc, updated_at = excluded.updated_at`,
			asset.ID, string(data), updated,
		); err != nil {
			return fmt.Errorf("upsert asset %s: %w", asset.ID, err)
		}
		if _, err := tx.ExecContext(ctx,
			"UPDATE sync_records SET asset_update_date = ? WHERE asset_id = ?",
			updated, asset.ID,
		); err != nil {
			return fmt.Errorf("stamp record for asset %s: %w", asset.ID, err)
		}
		return tx.Commit()
	})
}

// DeleteAsset runs the pre-delete hooks and removes the asset. A failing hook
// aborts the delete.
func (s *Store) DeleteAsset(ctx context.Context, id string) error {
	ctx = ensureContext(ctx)
	for _, hook := range s.deleteHooks() {
		if err := hook(ctx, id); err != nil {
			return fmt.Errorf("pre-delete hook for asset %s: %w", id, err)
		}
	}
	if _, err := s.execWithRetry(ctx, "DELETE FROM assets WHERE id = ?", id); err != nil {
		return fmt.Errorf("delete asset %s: %w", id, err)
	}
	return nil
}

// Tags returns every tag ordered by code.
func (s *Store) Tags(ctx context.Context) ([]*catalog.Tag, error) {
	ctx = ensureContext(ctx)
	rows, err := s.db.QueryContext(ctx,
		"SELECT code, parent_code, title, remote_id, is_playlist, properties, error FROM tags ORDER BY code")
	if err != nil {
		return nil, fmt.Errorf("list tags: %w", err)
	}
	defer rows.Close()

	var out []*catalog.Tag
	for rows.Next() {
		var (
			tag        catalog.Tag
			parent     sql.NullString
			remoteID   sql.NullString
			isPlaylist int
			properties sql.NullString
			tagErr     sql.NullString
		)
		if err := rows.Scan(&tag.Code, &parent, &tag.Title, &remoteID, &isPlaylist, &properties, &tagErr); err != nil {
			return nil, fmt.Errorf("scan tag: %w", err)
		}
		tag.ParentCode = parent.String
		tag.RemoteID = remoteID.String
		tag.IsPlaylist = isPlaylist != 0
		tag.Error = tagErr.String
		if err := unmarshalOptional(properties.String, &tag.Properties); err != nil {
			return nil, fmt.Errorf("tag %s properties: %w", tag.Code, err)
		}
		out = append(out, &tag)
	}
	return out, rows.Err()
}

// SaveTag upserts a tag.
func (s *Store) SaveTag(ctx context.Context, tag *catalog.Tag) error {
	if tag == nil || tag.Code == "" {
		return errors.New("save tag: missing code")
	}
	properties, err := marshalOptional(tag.Properties, len(tag.Properties) == 0)
	if err != nil {
		return err
	}
	_, err = s.execWithRetry(ctx,
		`INSERT INTO tags (code, parent_code, title, remote_id, is_playlist, properties, error)
         VALUES (?, ?, ?, ?, ?, ?, ?)
         ON CONFLICT(code) DO UPDATE SET
            parent_code = excluded.parent_code,
            title = excluded.title,
            remote_id = excluded.remote_id,
            is_playlist = excluded.is_playlist,
            properties = excluded.properties,
            error = excluded.error`,
		tag.Code,
		nullableString(tag.ParentCode),
		tag.Title,
		nullableString(tag.RemoteID),
		boolToInt(tag.IsPlaylist),
		properties,
		nullableString(tag.Error),
	)
	if err != nil {
		return fmt.Errorf("save tag %s: %w", tag.Code, err)
	}
	return nil
}

// DeleteTag removes a tag. Asset documents keep their references; callers
// unlink assets first when that matters.
func (s *Store) DeleteTag(ctx context.Context, code string) error {
	if _, err := s.execWithRetry(ctx, "DELETE FROM tags WHERE code = ?", code); err != nil {
		return fmt.Errorf("delete tag %s: %w", code, err)
	}
	return nil
}

func decodeAsset(doc string) (*catalog.Asset, error) {
	var asset catalog.Asset
	if err := json.Unmarshal([]byte(doc), &asset); err != nil {
		return nil, fmt.Errorf("decode asset: %w", err)
	}
	return &asset, nil
}
