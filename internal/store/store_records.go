package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"ytbridge/internal/syncstate"
)

var _ syncstate.Repository = (*Store)(nil)

const recordColumns = "id, asset_id, remote_id, account_login, status, playlists, captions, last_error, caption_error, playlist_error, link, embed, file_uploaded, upload_date, sync_metadata_date, asset_update_date, force_upload, created_at, updated_at"

func scanRecord(scanner interface{ Scan(dest ...any) error }) (*syncstate.Record, error) {
	var (
		rec           syncstate.Record
		remoteID      sql.NullString
		account       sql.NullString
		status        int
		playlists     sql.NullString
		captions      sql.NullString
		lastError     sql.NullString
		captionError  sql.NullString
		playlistError sql.NullString
		link          sql.NullString
		embed         sql.NullString
		fileUploaded  sql.NullString
		uploadRaw     sql.NullString
		syncRaw       sql.NullString
		assetRaw      sql.NullString
		force         int
		createdRaw    string
		updatedRaw    string
	)
	if err := scanner.Scan(
		&rec.ID,
		&rec.AssetID,
		&remoteID,
		&account,
		&status,
		&playlists,
		&captions,
		&lastError,
		&captionError,
		&playlistError,
		&link,
		&embed,
		&fileUploaded,
		&uploadRaw,
		&syncRaw,
		&assetRaw,
		&force,
		&createdRaw,
		&updatedRaw,
	); err != nil {
		return nil, err
	}

	rec.RemoteID = remoteID.String
	rec.AccountLogin = account.String
	rec.Status = syncstate.Status(status)
	rec.Link = link.String
	rec.Embed = embed.String
	rec.FileUploaded = fileUploaded.String
	rec.Force = force != 0
	rec.UploadDate = parseOptionalTime(uploadRaw.String)
	rec.SyncMetadataDate = parseOptionalTime(syncRaw.String)
	rec.AssetUpdateDate = parseOptionalTime(assetRaw.String)
	rec.CreatedAt = parseOptionalTime(createdRaw)
	rec.UpdatedAt = parseOptionalTime(updatedRaw)

	if err := unmarshalOptional(playlists.String, &rec.Playlists); err != nil {
		return nil, fmt.Errorf("record %s playlists: %w", rec.ID, err)
	}
	if rec.Playlists == nil {
		rec.Playlists = map[string]string{}
	}
	if err := unmarshalOptional(captions.String, &rec.Captions); err != nil {
		return nil, fmt.Errorf("record %s captions: %w", rec.ID, err)
	}
	for _, target := range []struct {
		raw  string
		dest **syncstate.ErrorRecord
	}{
		{lastError.String, &rec.LastError},
		{captionError.String, &rec.CaptionError},
		{playlistError.String, &rec.PlaylistError},
	} {
		if target.raw == "" {
			continue
		}
		var errRec syncstate.ErrorRecord
		if err := unmarshalOptional(target.raw, &errRec); err != nil {
			return nil, fmt.Errorf("record %s error column: %w", rec.ID, err)
		}
		*target.dest = &errRec
	}
	return &rec, nil
}

func (s *Store) queryRecord(ctx context.Context, where string, arg any) (*syncstate.Record, error) {
	ctx = ensureContext(ctx)
	row := s.db.QueryRowContext(ctx, "SELECT "+recordColumns+" FROM sync_records WHERE "+where, arg)
	rec, err := scanRecord(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get record: %w", err)
	}
	return rec, nil
}

// RecordByAssetID returns the record linked to an asset or nil.
func (s *Store) RecordByAssetID(ctx context.Context, assetID string) (*syncstate.Record, error) {
	return s.queryRecord(ctx, "asset_id = ?", assetID)
}

// RecordByID returns the record with the given id or nil.
func (s *Store) RecordByID(ctx context.Context, id string) (*syncstate.Record, error) {
	return s.queryRecord(ctx, "id = ?", id)
}

// RecordByRemoteID returns the record linked to a remote video or nil.
func (s *Store) RecordByRemoteID(ctx context.Context, remoteID string) (*syncstate.Record, error) {
	return s.queryRecord(ctx, "remote_id = ?", remoteID)
}

// RecordsByStatus lists records in any of the given statuses, ordered by
// creation. No statuses lists everything.
func (s *Store) RecordsByStatus(ctx context.Context, statuses ...syncstate.Status) ([]*syncstate.Record, error) {
	ctx = ensureContext(ctx)
	query := "SELECT " + recordColumns + " FROM sync_records"
	args := statusArgs(statuses)
	if len(args) > 0 {
		query += " WHERE status IN (" + makePlaceholders(len(args)) + ")"
	}
	query += " ORDER BY created_at, id"

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list records: %w", err)
	}
	defer rows.Close()

	var out []*syncstate.Record
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, fmt.Errorf("scan record: %w", err)
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

// AssetIDsByStatus lists the distinct asset ids whose records are in any of
// the given statuses.
func (s *Store) AssetIDsByStatus(ctx context.Context, statuses ...syncstate.Status) ([]string, error) {
	ctx = ensureContext(ctx)
	query := "SELECT DISTINCT asset_id FROM sync_records"
	args := statusArgs(statuses)
	if len(args) > 0 {
		query += " WHERE status IN (" + makePlaceholders(len(args)) + ")"
	}
	query += " ORDER BY asset_id"

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list asset ids: %w", err)
	}
	defer rows.Close()

	var out []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan asset id: %w", err)
		}
		out = append(out, id)
	}
	return out, rows.Err()
}

// SaveRecord upserts a record keyed by id, stamping timestamps.
func (s *Store) SaveRecord(ctx context.Context, rec *syncstate.Record) error {
	if rec == nil || rec.ID == "" || rec.AssetID == "" {
		return errors.New("save record: missing id or asset id")
	}
	now := time.Now().UTC()
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = now
	}
	rec.UpdatedAt = now

	playlists, err := marshalOptional(rec.Playlists, len(rec.Playlists) == 0)
	if err != nil {
		return err
	}
	captions, err := marshalOptional(rec.Captions, len(rec.Captions) == 0)
	if err != nil {
		return err
	}
	lastError, err := marshalOptional(rec.LastError, rec.LastError == nil)
	if err != nil {
		return err
	}
	captionError, err := marshalOptional(rec.CaptionError, rec.CaptionError == nil)
	if err != nil {
		return err
	}
	playlistError, err := marshalOptional(rec.PlaylistError, rec.PlaylistError == nil)
	if err != nil {
		return err
	}

	_, err = s.execWithRetry(ctx,
		`INSERT INTO sync_records (`+recordColumns+`)
         VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
         ON CONFLICT(id) DO UPDATE SET
            asset_id = excluded.asset_id,
            remote_id = excluded.remote_id,
            account_login = excluded.account_login,
            status = excluded.status,
            playlists = excluded.playlists,
            captions = excluded.captions,
            last_error = excluded.last_error,
            caption_error = excluded.caption_error,
            playlist_error = excluded.playlist_error,
            link = excluded.link,
            embed = excluded.embed,
            file_uploaded = excluded.file_uploaded,
            upload_date = excluded.upload_date,
            sync_metadata_date = excluded.sync_metadata_date,
            asset_update_date = excluded.asset_update_date,
            force_upload = excluded.force_upload,
            updated_at = excluded.updated_at`,
		rec.ID,
		rec.AssetID,
		nullableString(rec.RemoteID),
		nullableString(rec.AccountLogin),
		int(rec.Status),
		playlists,
		captions,
		lastError,
		captionError,
		playlistError,
		nullableString(rec.Link),
		nullableString(rec.Embed),
		nullableString(rec.FileUploaded),
		nullableTime(rec.UploadDate),
		nullableTime(rec.SyncMetadataDate),
		nullableTime(rec.AssetUpdateDate),
		boolToInt(rec.Force),
		rec.CreatedAt.Format(time.RFC3339Nano),
		rec.UpdatedAt.Format(time.RFC3339Nano),
	)
	if err != nil {
		return fmt.Errorf("save record %s: %w", rec.ID, err)
	}
	return nil
}

// StatusCounts returns the number of records per status.
func (s *Store) StatusCounts(ctx context.Context) (map[syncstate.Status]int, error) {
	ctx = ensureContext(ctx)
	rows, err := s.db.QueryContext(ctx, "SELECT status, COUNT(1) FROM sync_records GROUP BY status")
	if err != nil {
		return nil, fmt.Errorf("count records: %w", err)
	}
	defer rows.Close()

	counts := make(map[syncstate.Status]int)
	for rows.Next() {
		var status, count int
		if err := rows.Scan(&status, &count); err != nil {
			return nil, fmt.Errorf("scan count: %w", err)
		}
		counts[syncstate.Status(status)] = count
	}
	return counts, rows.Err()
}

func statusArgs(statuses []syncstate.Status) []any {
	args := make([]any, 0, len(statuses))
	for _, status := range statuses {
		args = append(args, int(status))
	}
	return args
}
