package batch

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/gofrs/flock"
	"github.com/google/uuid"

	"ytbridge/internal/config"
	"ytbridge/internal/logging"
	"ytbridge/internal/metrics"
	"ytbridge/internal/notifications"
	"ytbridge/internal/reconcile"
	"ytbridge/internal/services"
	"ytbridge/internal/syncstate"
)

// ErrLocked reports that another run holds the lock file.
var ErrLocked = errors.New("another ytbridge run is in progress")

// Step is one pass of a run.
type Step struct {
	Name string
	Run  func(ctx context.Context) (reconcile.PassResult, error)
}

// StatusCounter reports how many records sit in each status.
type StatusCounter interface {
	StatusCounts(ctx context.Context) (map[syncstate.Status]int, error)
}

// Summary describes a finished run.
type Summary struct {
	RunID    string
	Results  []reconcile.PassResult
	Notified bool
}

// Failed counts failed items across every pass.
func (s Summary) Failed() int {
	total := 0
	for _, r := range s.Results {
		total += r.Failed
	}
	return total
}

// Runner executes passes under the single-run lock, then flushes the digest
// and exports metrics.
type Runner struct {
	cfg      *config.Config
	agg      *notifications.Aggregator
	counter  StatusCounter
	metrics  *metrics.Registry
	logger   *slog.Logger
	lockPath string
	lock     *flock.Flock
	now      func() time.Time
}

// New constructs a runner. counter and reg may be nil.
func New(cfg *config.Config, agg *notifications.Aggregator, counter StatusCounter, reg *metrics.Registry, logger *slog.Logger) (*Runner, error) {
	if cfg == nil || agg == nil {
		return nil, errors.New("batch runner requires config and aggregator")
	}
	if logger == nil {
		logger = logging.NewNop()
	}
	lockPath := cfg.LockPath()
	return &Runner{
		cfg:      cfg,
		agg:      agg,
		counter:  counter,
		metrics:  reg,
		logger:   logging.NewComponentLogger(logger, "batch"),
		lockPath: lockPath,
		lock:     flock.New(lockPath),
		now:      time.Now,
	}, nil
}

// Run executes steps in order. A step returning an error does not stop the
// remaining steps; the errors are joined.
func (r *Runner) Run(ctx context.Context, cause string, steps ...Step) (Summary, error) {
	if err := os.MkdirAll(filepath.Dir(r.lockPath), 0o755); err != nil {
		return Summary{}, fmt.Errorf("create lock directory: %w", err)
	}
	ok, err := r.lock.TryLock()
	if err != nil {
		return Summary{}, fmt.Errorf("acquire lock: %w", err)
	}
	if !ok {
		return Summary{}, fmt.Errorf("%w (lock %s)", ErrLocked, r.lockPath)
	}
	defer func() {
		if err := r.lock.Unlock(); err != nil {
			r.logger.Warn("failed to release run lock", logging.Error(err))
		}
	}()

	summary := Summary{RunID: uuid.NewString()}
	ctx = services.WithRunID(ctx, summary.RunID)
	logger := logging.WithContext(ctx, r.logger)
	started := r.now()
	logger.Info("run started", logging.String("cause", cause), logging.Int("steps", len(steps)))

	var errs []error
	for _, step := range steps {
		if err := ctx.Err(); err != nil {
			errs = append(errs, err)
			break
		}
		result, err := step.Run(ctx)
		if result.Pass == "" {
			result.Pass = step.Name
		}
		summary.Results = append(summary.Results, result)
		if err != nil {
			logger.Error("pass aborted", logging.String(logging.FieldPass, step.Name), logging.Error(err))
			errs = append(errs, fmt.Errorf("%s: %w", step.Name, err))
		}
	}

	notified, err := r.agg.Flush(context.WithoutCancel(ctx), cause)
	if err != nil {
		errs = append(errs, fmt.Errorf("send digest: %w", err))
	}
	summary.Notified = notified

	if err := r.exportMetrics(ctx); err != nil {
		logger.Warn("metrics export failed", logging.Error(err))
	}
	logger.Info("run finished",
		logging.Duration("elapsed", r.now().Sub(started)),
		logging.Int("failed", summary.Failed()),
		logging.Bool("notified", notified),
	)
	return summary, errors.Join(errs...)
}

func (r *Runner) exportMetrics(ctx context.Context) error {
	if r.metrics == nil {
		return nil
	}
	if r.counter != nil {
		counts, err := r.counter.StatusCounts(ctx)
		if err != nil {
			return fmt.Errorf("count records: %w", err)
		}
		r.metrics.SetRecordCounts(counts)
	}
	r.metrics.MarkRun(r.now())
	return r.metrics.WriteTextfile(r.cfg.Metrics.Textfile)
}

// FullCycle returns every pass in the order a scheduled run applies them:
// reap orphans and unpublished videos first, then upload, refresh, update
// metadata, and finally align playlists and captions.
func FullCycle(engine *reconcile.Engine, uploadLimit int) []Step {
	return []Step{
		{Name: reconcile.PassOrphans, Run: engine.DeleteOrphans},
		{Name: reconcile.PassDelete, Run: engine.DeleteUnpublished},
		{Name: reconcile.PassUpload, Run: func(ctx context.Context) (reconcile.PassResult, error) {
			return engine.Upload(ctx, uploadLimit)
		}},
		{Name: reconcile.PassStatus, Run: func(ctx context.Context) (reconcile.PassResult, error) {
			return engine.RefreshStatus(ctx, false)
		}},
		{Name: reconcile.PassMetadata, Run: engine.UpdateMetadata},
		{Name: reconcile.PassPlaylists, Run: engine.SyncPlaylists},
		{Name: reconcile.PassCaptions, Run: engine.SyncCaptions},
	}
}
