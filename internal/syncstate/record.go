package syncstate

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"ytbridge/internal/remote"
	"ytbridge/internal/services"
)

// ErrorRecord is a structured failure stored on a record.
type ErrorRecord struct {
	Reason    string    `json:"reason"`
	Message   string    `json:"message"`
	Timestamp time.Time `json:"timestamp"`
	Raw       string    `json:"raw,omitempty"`
}

// NewErrorRecord captures err with its remote reason code, when it has one.
func NewErrorRecord(err error, now time.Time) *ErrorRecord {
	if err == nil {
		return nil
	}
	rec := &ErrorRecord{
		Reason:    remote.ReasonOf(err),
		Message:   err.Error(),
		Timestamp: now.UTC(),
	}
	if remoteErr, ok := remote.AsError(err); ok {
		rec.Message = remoteErr.Message
		rec.Raw = remoteErr.Raw
	}
	return rec
}

// CaptionRecord links an asset material to a remote caption.
type CaptionRecord struct {
	MaterialID string    `json:"material_id"`
	RemoteID   string    `json:"remote_id"`
	Language   string    `json:"language"`
	Name       string    `json:"name"`
	Draft      bool      `json:"draft,omitempty"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// Record tracks the remote representation of one asset.
type Record struct {
	ID               string
	AssetID          string
	RemoteID         string
	AccountLogin     string
	Status           Status
	Playlists        map[string]string
	Captions         []CaptionRecord
	LastError        *ErrorRecord
	CaptionError     *ErrorRecord
	PlaylistError    *ErrorRecord
	Link             string
	Embed            string
	FileUploaded     string
	UploadDate       time.Time
	SyncMetadataDate time.Time
	AssetUpdateDate  time.Time
	Force            bool
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

// NewRecord creates a record in StatusDefault for an asset.
func NewRecord(assetID string) *Record {
	return &Record{
		ID:        uuid.NewString(),
		AssetID:   assetID,
		Status:    StatusDefault,
		Playlists: map[string]string{},
	}
}

// Transition moves the record to a new status, rejecting moves outside the
// lifecycle with a consistency error.
func (r *Record) Transition(to Status) error {
	if !ValidTransition(r.Status, to) {
		return services.Wrap(services.ErrConsistency, "", "transition",
			fmt.Sprintf("record %s cannot move from %s to %s", r.ID, r.Status, to), nil)
	}
	r.Status = to
	return nil
}

// Stale reports whether the asset changed after metadata was last synced.
func (r *Record) Stale() bool {
	return r.AssetUpdateDate.After(r.SyncMetadataDate)
}

// Caption returns the caption linked to materialID.
func (r *Record) Caption(materialID string) (CaptionRecord, bool) {
	for _, c := range r.Captions {
		if c.MaterialID == materialID {
			return c, true
		}
	}
	return CaptionRecord{}, false
}

// RemoveCaption drops the caption linked to materialID.
func (r *Record) RemoveCaption(materialID string) {
	out := r.Captions[:0]
	for _, c := range r.Captions {
		if c.MaterialID != materialID {
			out = append(out, c)
		}
	}
	r.Captions = out
}

// Repository persists records. Lookups return nil, nil when nothing matches;
// an empty status list means every status.
type Repository interface {
	RecordByAssetID(ctx context.Context, assetID string) (*Record, error)
	RecordByID(ctx context.Context, id string) (*Record, error)
	RecordsByStatus(ctx context.Context, statuses ...Status) ([]*Record, error)
	AssetIDsByStatus(ctx context.Context, statuses ...Status) ([]string, error)
	SaveRecord(ctx context.Context, record *Record) error
}
