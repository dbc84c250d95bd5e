// Package watermark decides whether a qualifying payment arrived since the
// last check. The id of the most recent payment seen is kept in a Store
// between runs.
//
// The watermark is best effort: concurrent runs are not serialized and a
// crash between publishing and Commit leads to a second trigger on the next
// run.
package watermark

import (
	"context"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"

	"github.com/0xb10c/mempoolnote/src/types"
)

// DefaultThresholdMsat is the smallest payment amount that triggers a note.
const DefaultThresholdMsat = 100000

// PaymentSource returns recent payments, most recent first.
type PaymentSource interface {
	RecentPayments(ctx context.Context) ([]types.Payment, error)
}

// Store persists the id of the last processed payment. An empty id means no
// payment was processed yet.
type Store interface {
	LastPaymentID() (string, error)
	SetLastPaymentID(id string) error
}

// ScanResult is the outcome of a scan over a page of payments.
type ScanResult struct {
	Triggered bool
	// Qualifying are the new payments whose amount reached the threshold.
	Qualifying []types.Payment
	// NewPayments is the number of payments before the stored watermark.
	NewPayments int
	// Watermark is the id to store after processing.
	Watermark string
	// Previous is the id that was stored before the scan.
	Previous string
}

// Changed reports whether the watermark moves.
func (r ScanResult) Changed() bool {
	return r.Watermark != r.Previous
}

// Scan walks payments, most recent first, until it reaches lastID. Any
// payment before it with an amount of at least threshold triggers. An empty
// lastID never matches, so on the first run the whole page is scanned.
func Scan(payments []types.Payment, lastID string, threshold int64) ScanResult {
	res := ScanResult{
		Watermark: lastID,
		Previous:  lastID,
	}

	for _, p := range payments {
		if lastID != "" && p.ID == lastID {
			break
		}
		res.NewPayments++
		if p.AmountMsat >= threshold {
			res.Triggered = true
			res.Qualifying = append(res.Qualifying, p)
		}
	}

	if len(payments) > 0 {
		res.Watermark = payments[0].ID
	}
	return res
}

// Tracker polls a PaymentSource and keeps the watermark in a Store.
type Tracker struct {
	source    PaymentSource
	store     Store
	threshold int64
}

// NewTracker returns a new Tracker.
func NewTracker(source PaymentSource, store Store, thresholdMsat int64) *Tracker {
	return &Tracker{
		source:    source,
		store:     store,
		threshold: thresholdMsat,
	}
}

// Poll loads the stored watermark, fetches the recent payments and scans
// them. The stored watermark is not changed; see Commit.
func (t *Tracker) Poll(ctx context.Context) (ScanResult, error) {
	lastID, err := t.store.LastPaymentID()
	if err != nil {
		return ScanResult{}, errors.Wrap(err, "could not load the last payment id")
	}

	payments, err := t.source.RecentPayments(ctx)
	if err != nil {
		return ScanResult{}, errors.Wrap(err, "could not fetch recent payments")
	}

	res := Scan(payments, lastID, t.threshold)
	if lastID == "" {
		log.Info("no stored watermark, scanning the whole page of payments")
	}
	for _, p := range res.Qualifying {
		log.WithFields(log.Fields{
			"payment": p.ID,
			"amount":  p.Amount(),
		}).Info("qualifying payment")
	}
	log.WithFields(log.Fields{
		"fetched":   len(payments),
		"new":       res.NewPayments,
		"triggered": res.Triggered,
	}).Debug("scanned payments")

	return res, nil
}

// Commit stores the watermark of res.
func (t *Tracker) Commit(res ScanResult) error {
	if !res.Changed() {
		return nil
	}
	if err := t.store.SetLastPaymentID(res.Watermark); err != nil {
		return errors.Wrapf(err, "could not store last payment id %s", res.Watermark)
	}
	return nil
}
