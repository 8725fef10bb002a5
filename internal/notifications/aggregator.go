package notifications

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"sync"
	"time"

	"ytbridge/internal/logging"
	"ytbridge/internal/remote"
	"ytbridge/internal/syncstate"
)

// Item identifies the unit of work an outcome belongs to.
type Item struct {
	Pass     string
	AssetID  string
	RecordID string
	RemoteID string
	Account  string
	Title    string
}

// Label is the short human form used in digests.
func (i Item) Label() string {
	title := strings.TrimSpace(i.Title)
	switch {
	case title != "" && i.AssetID != "":
		return fmt.Sprintf("%s [%s]", title, i.AssetID)
	case i.AssetID != "":
		return i.AssetID
	case title != "":
		return title
	case i.RecordID != "":
		return "record " + i.RecordID
	default:
		return "unnamed item"
	}
}

// Failure is a failed item together with the error it failed with.
type Failure struct {
	Item
	Reason    string
	Message   string
	Timestamp time.Time
}

// Sink collects per-item outcomes during a run.
type Sink interface {
	RecordSuccess(item Item)
	RecordFailure(item Item, err error)
	// Flush delivers a digest of everything recorded since the last flush and
	// reports whether a message went out.
	Flush(ctx context.Context, cause string) (bool, error)
}

// Aggregator is the Sink used by batch runs. Outcomes are appended in order
// and rendered as a single digest grouped by reason code.
type Aggregator struct {
	sender Sender
	logger *slog.Logger
	now    func() time.Time

	mu        sync.Mutex
	successes []Item
	failures  []Failure
}

var _ Sink = (*Aggregator)(nil)

// NewAggregator returns an empty aggregator delivering through sender.
func NewAggregator(sender Sender, logger *slog.Logger) *Aggregator {
	if sender == nil {
		sender = noopSender{}
	}
	return &Aggregator{
		sender: sender,
		logger: logging.NewComponentLogger(logger, "notifications"),
		now:    time.Now,
	}
}

func (a *Aggregator) RecordSuccess(item Item) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.successes = append(a.successes, item)
}

func (a *Aggregator) RecordFailure(item Item, err error) {
	failure := Failure{
		Item:      item,
		Reason:    remote.ReasonOf(err),
		Timestamp: a.now().UTC(),
	}
	if err != nil {
		failure.Message = err.Error()
	}
	a.mu.Lock()
	defer a.mu.Unlock()
	a.failures = append(a.failures, failure)
}

// Successes returns a copy of the recorded successes.
func (a *Aggregator) Successes() []Item {
	a.mu.Lock()
	defer a.mu.Unlock()
	return append([]Item(nil), a.successes...)
}

// Failures returns a copy of the recorded failures.
func (a *Aggregator) Failures() []Failure {
	a.mu.Lock()
	defer a.mu.Unlock()
	return append([]Failure(nil), a.failures...)
}

// Digest renders the pending outcomes without clearing them.
func (a *Aggregator) Digest(cause string) (Message, bool) {
	a.mu.Lock()
	defer a.mu.Unlock()
	return renderDigest(cause, a.successes, a.failures)
}

func (a *Aggregator) Flush(ctx context.Context, cause string) (bool, error) {
	a.mu.Lock()
	msg, ok := renderDigest(cause, a.successes, a.failures)
	if !ok {
		a.mu.Unlock()
		return false, nil
	}
	successes, failures := len(a.successes), len(a.failures)
	a.mu.Unlock()

	if err := a.sender.Send(ctx, msg); err != nil {
		a.logger.Warn("digest delivery failed",
			logging.String(logging.FieldEventType, "digest_failed"),
			logging.String("cause", cause),
			logging.Error(err),
		)
		return false, err
	}

	a.mu.Lock()
	a.successes = a.successes[successes:]
	a.failures = a.failures[failures:]
	a.mu.Unlock()

	sent := !IsNoop(a.sender)
	a.logger.Info("digest flushed",
		logging.String(logging.FieldEventType, "digest_flushed"),
		logging.String("cause", cause),
		logging.Int("successes", successes),
		logging.Int("failures", failures),
		logging.Bool("sent", sent),
	)
	return sent, nil
}

func renderDigest(cause string, successes []Item, failures []Failure) (Message, bool) {
	if len(successes) == 0 && len(failures) == 0 {
		return Message{}, false
	}
	cause = strings.TrimSpace(cause)
	if cause == "" {
		cause = "run"
	}

	var b strings.Builder
	fmt.Fprintf(&b, "%d succeeded, %d failed\n", len(successes), len(failures))

	if len(failures) > 0 {
		groups := make(map[string][]Failure)
		for _, f := range failures {
			groups[f.Reason] = append(groups[f.Reason], f)
		}
		reasons := make([]string, 0, len(groups))
		for reason := range groups {
			reasons = append(reasons, reason)
		}
		sort.Strings(reasons)
		for _, reason := range reasons {
			fmt.Fprintf(&b, "\n%s (%d)\n", reason, len(groups[reason]))
			for _, f := range groups[reason] {
				fmt.Fprintf(&b, "- %s: %s\n", f.Label(), f.Message)
			}
		}
	}

	msg := Message{
		Title: fmt.Sprintf("ytbridge - %s", cause),
		Body:  strings.TrimRight(b.String(), "\n"),
		Tags:  []string{"ytbridge", cause},
	}
	if len(failures) > 0 {
		msg.Tags = append(msg.Tags, "warning")
		msg.Priority = "high"
	}
	return msg, true
}

// Stuck sends the administrative report of records waiting for manual triage.
// Nothing is sent for an empty list.
func Stuck(ctx context.Context, sender Sender, records []*syncstate.Record) (bool, error) {
	if len(records) == 0 || sender == nil {
		return false, nil
	}
	var b strings.Builder
	fmt.Fprintf(&b, "%d records need attention\n", len(records))
	for _, rec := range records {
		line := fmt.Sprintf("- %s [%s]", rec.AssetID, rec.Status)
		if rec.LastError != nil {
			line += fmt.Sprintf(" %s: %s", rec.LastError.Reason, rec.LastError.Message)
		}
		b.WriteString(line + "\n")
	}
	err := sender.Send(ctx, Message{
		Title:    "ytbridge - Stuck records",
		Body:     strings.TrimRight(b.String(), "\n"),
		Tags:     []string{"ytbridge", "stuck", "warning"},
		Priority: "high",
	})
	if err != nil {
		return false, err
	}
	return !IsNoop(sender), nil
}
