package reconcile

import (
	"context"
	"fmt"
	"log/slog"
	"runtime/debug"
	"time"

	"ytbridge/internal/caption"
	"ytbridge/internal/catalog"
	"ytbridge/internal/config"
	"ytbridge/internal/logging"
	"ytbridge/internal/metrics"
	"ytbridge/internal/notifications"
	"ytbridge/internal/playlist"
	"ytbridge/internal/remote"
	"ytbridge/internal/services"
	"ytbridge/internal/syncstate"
)

// Pass names, used for logging, metrics and digests.
const (
	PassUpload    = "upload"
	PassMetadata  = "metadata"
	PassStatus    = "status"
	PassDelete    = "delete"
	PassOrphans   = "orphans"
	PassPlaylists = "playlists"
	PassCaptions  = "captions"
)

// Dependencies are the collaborators an Engine works against. Config,
// Catalog, Records and Publisher are required; the rest have defaults.
type Dependencies struct {
	Config    *config.Config
	Catalog   catalog.Repository
	Records   syncstate.Repository
	Publisher remote.Publisher
	Sink      notifications.Sink
	Logger    *slog.Logger
	Metrics   *metrics.Registry
	Clock     func() time.Time
	Playlists *playlist.Reconciler
	Captions  *caption.Reconciler
}

// Engine decides and applies per-asset transitions.
type Engine struct {
	cfg       *config.Config
	catalog   catalog.Repository
	records   syncstate.Repository
	publisher remote.Publisher
	sink      notifications.Sink
	logger    *slog.Logger
	metrics   *metrics.Registry
	now       func() time.Time
	playlists *playlist.Reconciler
	captions  *caption.Reconciler
}

// PassResult summarizes one pass.
type PassResult struct {
	Pass       string
	Candidates int
	Succeeded  int
	Failed     int
	Skipped    int
	Elapsed    time.Duration
}

// New wires an engine from deps.
func New(deps Dependencies) (*Engine, error) {
	if deps.Config == nil || deps.Catalog == nil || deps.Records == nil || deps.Publisher == nil {
		return nil, services.Wrap(services.ErrConfiguration, "", "engine", "config, catalog, records and publisher are required", nil)
	}
	logger := deps.Logger
	if logger == nil {
		logger = logging.NewNop()
	}
	e := &Engine{
		cfg:       deps.Config,
		catalog:   deps.Catalog,
		records:   deps.Records,
		publisher: deps.Publisher,
		sink:      deps.Sink,
		logger:    logging.NewComponentLogger(logger, "reconcile"),
		metrics:   deps.Metrics,
		now:       deps.Clock,
		playlists: deps.Playlists,
		captions:  deps.Captions,
	}
	if e.now == nil {
		e.now = time.Now
	}
	if e.sink == nil {
		e.sink = notifications.NewAggregator(nil, logger)
	}
	if e.playlists == nil {
		e.playlists = playlist.New(deps.Config, deps.Catalog, deps.Records, deps.Publisher, logger)
		e.playlists.SetClock(e.now)
	}
	if e.captions == nil {
		e.captions = caption.New(deps.Config, deps.Records, deps.Publisher, logger)
		e.captions.SetClock(e.now)
	}
	return e, nil
}

// Sink returns the outcome sink items are reported to.
func (e *Engine) Sink() notifications.Sink {
	return e.sink
}

func (e *Engine) loadTree(ctx context.Context) (*catalog.Tree, error) {
	tags, err := e.catalog.Tags(ctx)
	if err != nil {
		return nil, fmt.Errorf("load tags: %w", err)
	}
	return catalog.NewTree(tags), nil
}

func (e *Engine) beginPass(ctx context.Context, pass string) (context.Context, PassResult, time.Time) {
	ctx = services.WithPass(ctx, pass)
	logging.WithContext(ctx, e.logger).Debug("pass started")
	return ctx, PassResult{Pass: pass}, e.now()
}

func (e *Engine) finishPass(ctx context.Context, result PassResult, started time.Time) PassResult {
	result.Elapsed = e.now().Sub(started)
	e.metrics.ObservePass(result.Pass, result.Elapsed)
	logger := logging.WithContext(ctx, e.logger)
	attrs := []logging.Attr{
		logging.String(logging.FieldEventType, "pass_complete"),
		logging.Int("candidates", result.Candidates),
		logging.Int("succeeded", result.Succeeded),
		logging.Int("failed", result.Failed),
		logging.Int("skipped", result.Skipped),
		logging.Duration("elapsed", result.Elapsed),
	}
	if result.Failed > 0 {
		logger.Warn("pass summary", logging.Args(attrs...)...)
	} else {
		logger.Info("pass summary", logging.Args(attrs...)...)
	}
	return result
}

// runItem executes fn inside the per-item boundary: errors and panics are
// reported to the sink and never escape, skippable errors are only logged.
func (e *Engine) runItem(ctx context.Context, result *PassResult, item *notifications.Item, fn func(context.Context) error) {
	item.Pass = result.Pass
	if item.AssetID != "" {
		ctx = services.WithAssetID(ctx, item.AssetID)
	}
	logger := logging.WithContext(ctx, e.logger)

	err := func() (err error) {
		defer func() {
			if r := recover(); r != nil {
				logger.Error("item panicked", logging.Any("panic", r), logging.String("stack", string(debug.Stack())))
				err = fmt.Errorf("panic: %v", r)
			}
		}()
		return fn(ctx)
	}()

	switch {
	case err == nil:
		result.Succeeded++
		e.sink.RecordSuccess(*item)
		e.metrics.ObserveItem(result.Pass, metrics.OutcomeSucceeded)
	case services.Skippable(err):
		result.Skipped++
		e.metrics.ObserveItem(result.Pass, metrics.OutcomeSkipped)
		logger.Info("item skipped", logging.Args(logging.DecisionAttrs(result.Pass, "skipped", err.Error())...)...)
	default:
		result.Failed++
		e.sink.RecordFailure(*item, err)
		e.metrics.ObserveItem(result.Pass, metrics.OutcomeFailed)
		logger.Warn("item failed",
			logging.String(logging.FieldRecordID, item.RecordID),
			logging.String(logging.FieldReason, remote.ReasonOf(err)),
			logging.Error(err),
		)
	}
}

func (e *Engine) saveRecord(ctx context.Context, rec *syncstate.Record) error {
	if err := e.records.SaveRecord(ctx, rec); err != nil {
		return fmt.Errorf("save record %s: %w", rec.ID, err)
	}
	return nil
}

// setPublishedTag adds or removes the published tag and persists the asset
// when it changed.
func (e *Engine) setPublishedTag(ctx context.Context, asset *catalog.Asset, present bool) error {
	code := e.cfg.YouTube.PublishedTag
	if asset == nil || code == "" {
		return nil
	}
	var changed bool
	if present {
		changed = asset.AddTag(code)
	} else {
		changed = asset.RemoveTag(code)
	}
	if !changed {
		return nil
	}
	if err := e.catalog.SaveAsset(ctx, asset); err != nil {
		return fmt.Errorf("save asset %s: %w", asset.ID, err)
	}
	return nil
}

// recordLogin returns the account login for rec, resolving it through the tag
// tree when the record does not carry one.
func (e *Engine) recordLogin(tree *catalog.Tree, asset *catalog.Asset, rec *syncstate.Record) string {
	if rec.AccountLogin != "" {
		return rec.AccountLogin
	}
	if tree == nil || asset == nil {
		return ""
	}
	if account, ok := tree.AssetAccount(asset, e.cfg.YouTube.AccountRootTag); ok {
		return account.Login()
	}
	return ""
}

func itemFor(asset *catalog.Asset, rec *syncstate.Record) notifications.Item {
	item := notifications.Item{}
	if asset != nil {
		item.AssetID = asset.ID
		item.Title = asset.Title
	}
	if rec != nil {
		item.AssetID = rec.AssetID
		item.RecordID = rec.ID
		item.RemoteID = rec.RemoteID
		item.Account = rec.AccountLogin
	}
	return item
}
