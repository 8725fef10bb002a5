package caption

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"slices"
	"strings"
	"time"

	"golang.org/x/text/language"

	"ytbridge/internal/catalog"
	"ytbridge/internal/config"
	"ytbridge/internal/logging"
	"ytbridge/internal/remote"
	"ytbridge/internal/syncstate"
)

// Reconciler aligns remote captions with an asset's caption materials.
type Reconciler struct {
	allowed   []string
	records   syncstate.Repository
	publisher remote.Publisher
	logger    *slog.Logger
	now       func() time.Time
}

// New constructs a caption reconciler using youtube.caption_mime_types as the
// allow-list.
func New(cfg *config.Config, records syncstate.Repository, publisher remote.Publisher, logger *slog.Logger) *Reconciler {
	return &Reconciler{
		allowed:   append([]string(nil), cfg.YouTube.CaptionMimeTypes...),
		records:   records,
		publisher: publisher,
		logger:    logging.NewComponentLogger(logger, "caption"),
		now:       time.Now,
	}
}

// SetClock overrides the time source used for caption and error stamps.
func (r *Reconciler) SetClock(now func() time.Time) {
	if now != nil {
		r.now = now
	}
}

// Qualifies reports whether a material may be published as a caption.
func (r *Reconciler) Qualifies(m catalog.Material) bool {
	if m.Hidden {
		return false
	}
	format := MaterialFormat(m)
	return format != "" && slices.Contains(r.allowed, format)
}

// Select returns the qualifying materials that rec does not link to a caption yet.
func (r *Reconciler) Select(asset *catalog.Asset, rec *syncstate.Record) []catalog.Material {
	var out []catalog.Material
	for _, m := range asset.Materials {
		if !r.Qualifies(m) {
			continue
		}
		if rec != nil {
			if _, ok := rec.Caption(m.ID); ok {
				continue
			}
		}
		out = append(out, m)
	}
	return out
}

// Sync deletes captions whose material is gone or no longer qualifies and
// uploads the missing ones. Failures are stored in rec.CaptionError and do not
// stop the remaining materials.
func (r *Reconciler) Sync(ctx context.Context, asset *catalog.Asset, rec *syncstate.Record) error {
	if rec.RemoteID == "" {
		return nil
	}
	logger := logging.WithContext(ctx, r.logger).With(
		logging.String(logging.FieldRecordID, rec.ID),
		logging.String(logging.FieldRemoteID, rec.RemoteID),
	)
	login := rec.AccountLogin

	var errs []error
	changed := false
	fail := func(err error) {
		rec.CaptionError = syncstate.NewErrorRecord(err, r.now())
		errs = append(errs, err)
		changed = true
	}

	for _, existing := range append([]syncstate.CaptionRecord(nil), rec.Captions...) {
		if m, ok := asset.Material(existing.MaterialID); ok && r.Qualifies(m) {
			continue
		}
		if err := r.publisher.DeleteCaption(ctx, login, existing.RemoteID); err != nil && !remote.IsNotFound(err) {
			logger.Warn("caption delete failed",
				logging.String("material_id", existing.MaterialID),
				logging.Error(err),
			)
			fail(fmt.Errorf("delete caption %s: %w", existing.RemoteID, err))
			continue
		}
		rec.RemoveCaption(existing.MaterialID)
		changed = true
		logger.Info("caption removed", logging.String("material_id", existing.MaterialID))
	}

	for _, m := range r.Select(asset, rec) {
		lang := captionLanguage(m, asset)
		id, err := r.upload(ctx, login, rec.RemoteID, m, lang)
		if err != nil {
			logger.Warn("caption upload failed",
				logging.String("material_id", m.ID),
				logging.Error(err),
			)
			fail(fmt.Errorf("upload caption %s: %w", m.ID, err))
			continue
		}
		rec.Captions = append(rec.Captions, syncstate.CaptionRecord{
			MaterialID: m.ID,
			RemoteID:   id,
			Language:   lang,
			Name:       m.Name,
			UpdatedAt:  r.now().UTC(),
		})
		changed = true
		logger.Info("caption uploaded",
			logging.String("material_id", m.ID),
			logging.String("language", lang),
		)
	}

	if len(errs) == 0 && rec.CaptionError != nil {
		rec.CaptionError = nil
		changed = true
	}
	if changed {
		if err := r.records.SaveRecord(ctx, rec); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (r *Reconciler) upload(ctx context.Context, login, videoID string, m catalog.Material, lang string) (string, error) {
	file, err := os.Open(m.Path)
	if err != nil {
		return "", fmt.Errorf("open material: %w", err)
	}
	defer file.Close()
	return r.publisher.InsertCaption(ctx, login, remote.Caption{
		VideoID:  videoID,
		Language: lang,
		Name:     m.Name,
	}, file)
}

// captionLanguage picks the material language, then the asset locale, and
// reports "und" when neither parses.
func captionLanguage(m catalog.Material, asset *catalog.Asset) string {
	for _, candidate := range []string{m.Language, asset.Locale} {
		candidate = strings.TrimSpace(candidate)
		if candidate == "" {
			continue
		}
		if tag, err := language.Parse(candidate); err == nil {
			return tag.String()
		}
	}
	return language.Und.String()
}
