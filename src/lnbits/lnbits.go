// Package lnbits reads the recent payments of an LNbits wallet.
package lnbits

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"io/ioutil"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"

	"github.com/0xb10c/mempoolnote/src/types"
)

const (
	// DefaultURL is the LNbits instance used when none is configured.
	DefaultURL = "https://legend.lnbits.com"
	// DefaultLimit is the number of payments requested per poll.
	DefaultLimit = 20

	paymentsPath = "/api/v1/payments"
	apiKeyHeader = "X-Api-Key"
)

// ErrorUnexpectedStatus is returned when LNbits answers with a non-200 status.
type ErrorUnexpectedStatus struct {
	Code int
	Body string
}

func (e *ErrorUnexpectedStatus) Error() string {
	return fmt.Sprintf("unexpected LNbits response status %d: %s", e.Code, e.Body)
}

// IsErrorUnexpectedStatus reports whether the cause of err is an
// ErrorUnexpectedStatus.
func IsErrorUnexpectedStatus(err error) bool {
	_, ok := errors.Cause(err).(*ErrorUnexpectedStatus)
	return ok
}

// ErrorMalformedPayment is returned when a payment record lacks a required
// field.
type ErrorMalformedPayment struct {
	Index int
	Field string
}

func (e *ErrorMalformedPayment) Error() string {
	return fmt.Sprintf("malformed payment record %d: missing field %s", e.Index, e.Field)
}

// payment is a payment record as returned by the LNbits payments endpoint.
type payment struct {
	CheckingID *string     `json:"checking_id"`
	Amount     *int64      `json:"amount"`
	Pending    bool        `json:"pending"`
	Memo       string      `json:"memo"`
	Time       paymentTime `json:"time"`
}

// paymentTime accepts both unix seconds and RFC 3339 timestamps, which
// different LNbits versions return.
type paymentTime struct {
	time.Time
}

func (t *paymentTime) UnmarshalJSON(b []byte) error {
	s := strings.Trim(string(b), `"`)
	if s == "" || s == "null" {
		return nil
	}
	if secs, err := strconv.ParseInt(s, 10, 64); err == nil {
		t.Time = time.Unix(secs, 0).UTC()
		return nil
	}
	for _, layout := range []string{time.RFC3339Nano, "2006-01-02T15:04:05", "2006-01-02T15:04:05.999999", "2006-01-02 15:04:05"} {
		if parsed, err := time.Parse(layout, s); err == nil {
			t.Time = parsed.UTC()
			return nil
		}
	}
	return errors.Errorf("unknown time format %q", s)
}

// LNbitsClient requests the recent payments of the wallet an API key
// belongs to.
type LNbitsClient struct {
	baseURL string
	apiKey  string
	limit   int
	http    *http.Client
}

// NewLNbitsClient returns a new LNbitsClient.
func NewLNbitsClient(baseURL, apiKey string, limit int, timeout time.Duration) (*LNbitsClient, error) {
	if len(apiKey) == 0 {
		return nil, errors.Errorf("apiKey is empty")
	}
	if _, err := url.Parse(baseURL); err != nil {
		return nil, errors.Wrap(err, "invalid LNbits url")
	}
	if limit <= 0 {
		limit = DefaultLimit
	}
	return &LNbitsClient{
		baseURL: strings.TrimRight(baseURL, "/"),
		apiKey:  apiKey,
		limit:   limit,
		http:    &http.Client{Timeout: timeout},
	}, nil
}

// RecentPayments returns up to limit payments, most recent first.
func (c *LNbitsClient) RecentPayments(ctx context.Context) ([]types.Payment, error) {
	u := fmt.Sprintf("%s%s?limit=%d", c.baseURL, paymentsPath, c.limit)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, errors.WithStack(err)
	}
	req.Header.Set(apiKeyHeader, c.apiKey)
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, errors.Wrap(err, "LNbits request failed")
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := ioutil.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, &ErrorUnexpectedStatus{Code: resp.StatusCode, Body: strings.TrimSpace(string(body))}
	}

	var records []payment
	if err := json.NewDecoder(resp.Body).Decode(&records); err != nil {
		return nil, errors.Wrap(err, "could not decode LNbits payments")
	}

	res, err := recordsToPayments(records)
	if err != nil {
		return nil, err
	}
	log.WithField("payments", len(res)).Debug("fetched LNbits payments")
	return res, nil
}

func recordsToPayments(records []payment) ([]types.Payment, error) {
	res := make([]types.Payment, 0, len(records))
	for i, r := range records {
		if r.CheckingID == nil || *r.CheckingID == "" {
			return nil, &ErrorMalformedPayment{Index: i, Field: "checking_id"}
		}
		if r.Amount == nil {
			return nil, &ErrorMalformedPayment{Index: i, Field: "amount"}
		}
		res = append(res, types.Payment{
			ID:         *r.CheckingID,
			AmountMsat: *r.Amount,
			Pending:    r.Pending,
			Memo:       r.Memo,
			Time:       r.Time.Time,
		})
	}
	return res, nil
}
