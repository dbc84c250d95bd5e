// Package bot wires snapshot fetching, note rendering, the payment watermark
// and publishing into the two operations of the mempoolnote binaries.
package bot

import (
	"context"
	"time"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/0xb10c/mempoolnote/src/publisher"
	"github.com/0xb10c/mempoolnote/src/report"
	"github.com/0xb10c/mempoolnote/src/storage"
	"github.com/0xb10c/mempoolnote/src/types"
	"github.com/0xb10c/mempoolnote/src/watermark"
)

// Fetcher fetches a snapshot from a mempool endpoint.
type Fetcher interface {
	FetchSnapshot(ctx context.Context, endpoint string) (types.MempoolSnapshot, error)
}

// Archive records published notes.
type Archive interface {
	InsertNote(note storage.Note) (int64, error)
}

// Bot compares the reference and subject mempools.
type Bot struct {
	fetcher   Fetcher
	generator *report.Generator
	reference string
	subject   string

	publisher publisher.Publisher
	tracker   *watermark.Tracker
	archive   Archive

	now func() time.Time
}

// Option configures optional parts of a Bot.
type Option func(*Bot)

// WithPublisher sets the publisher notes are handed to.
func WithPublisher(p publisher.Publisher) Option {
	return func(b *Bot) { b.publisher = p }
}

// WithTracker sets the payment watermark tracker used by Check.
func WithTracker(t *watermark.Tracker) Option {
	return func(b *Bot) { b.tracker = t }
}

// WithArchive sets where published notes are recorded.
func WithArchive(a Archive) Option {
	return func(b *Bot) { b.archive = a }
}

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(b *Bot) { b.now = now }
}

// NewBot initiates a new Bot comparing the mempool at subject against the
// one at reference.
func NewBot(fetcher Fetcher, generator *report.Generator, reference, subject string, opts ...Option) *Bot {
	b := &Bot{
		fetcher:   fetcher,
		generator: generator,
		reference: reference,
		subject:   subject,
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Note fetches both snapshots concurrently and renders the note.
func (b *Bot) Note(ctx context.Context) (string, error) {
	var reference, subject types.MempoolSnapshot

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		reference, err = b.fetcher.FetchSnapshot(gctx, b.reference)
		return errors.Wrap(err, "reference mempool")
	})
	g.Go(func() error {
		var err error
		subject, err = b.fetcher.FetchSnapshot(gctx, b.subject)
		return errors.Wrap(err, "subject mempool")
	})
	if err := g.Wait(); err != nil {
		return "", err
	}

	return b.generator.Render(reference, subject, b.now()), nil
}

// Publish hands note to the publisher and archives it. paymentID is the
// payment that triggered the note, if any.
func (b *Bot) Publish(ctx context.Context, note, paymentID string) error {
	if b.publisher == nil {
		return errors.New("no publisher configured")
	}
	if err := b.publisher.Publish(ctx, note); err != nil {
		return errors.Wrap(err, "could not publish note")
	}

	if b.archive != nil {
		dbid, err := b.archive.InsertNote(storage.Note{
			Published: b.now(),
			PaymentID: paymentID,
			Content:   note,
		})
		if err != nil {
			return errors.Wrap(err, "could not archive note")
		}
		log.WithField("note", dbid).Debug("archived note")
	}
	return nil
}

// CheckResult is the outcome of Check.
type CheckResult struct {
	Scan watermark.ScanResult
	// Note is the published note, empty if no payment qualified.
	Note string
}

// Check polls the payment feed. When a qualifying payment arrived since the
// last check, it renders and publishes a note. The watermark is stored last,
// so a failed fetch or publish is retried by the next run.
func (b *Bot) Check(ctx context.Context) (CheckResult, error) {
	if b.tracker == nil {
		return CheckResult{}, errors.New("no payment tracker configured")
	}

	scan, err := b.tracker.Poll(ctx)
	if err != nil {
		return CheckResult{}, err
	}
	res := CheckResult{Scan: scan}

	if scan.Triggered {
		note, err := b.Note(ctx)
		if err != nil {
			return res, err
		}
		if err := b.Publish(ctx, note, scan.Qualifying[0].ID); err != nil {
			return res, err
		}
		res.Note = note
	} else {
		log.Info("no qualifying payment since the last check")
	}

	if err := b.tracker.Commit(scan); err != nil {
		return res, err
	}
	return res, nil
}
