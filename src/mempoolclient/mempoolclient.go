// Package mempoolclient fetches mempool snapshots from the websocket API of a
// mempool.space instance.
package mempoolclient

import (
	"context"
	"encoding/json"
	"time"

	"github.com/gorilla/websocket"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"

	"github.com/0xb10c/mempoolnote/src/types"
)

// DefaultTimeout bounds a single snapshot fetch when the context carries no
// deadline.
const DefaultTimeout = 30 * time.Second

// WantedData are the topics requested after the init message. The reply to
// this subscription carries mempoolInfo, fees and mempool-blocks.
var WantedData = []string{"blocks", "stats", "mempool-blocks", "live-2h-chart", "watch-mempool"}

type actionMessage struct {
	Action string   `json:"action"`
	Data   []string `json:"data,omitempty"`
}

// MempoolClient fetches snapshots over short-lived websocket connections.
type MempoolClient struct {
	Variant FeeVariant
	Timeout time.Duration
	dialer  websocket.Dialer
}

// NewMempoolClient returns a new MempoolClient building snapshots with the
// passed fee variant.
func NewMempoolClient(variant FeeVariant, timeout time.Duration) *MempoolClient {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &MempoolClient{
		Variant: variant,
		Timeout: timeout,
		dialer: websocket.Dialer{
			HandshakeTimeout: timeout,
		},
	}
}

// FetchSnapshot connects to endpoint, sends the init and want messages,
// reads exactly one reply and converts it to a MempoolSnapshot. The
// connection is closed before returning.
func (c *MempoolClient) FetchSnapshot(ctx context.Context, endpoint string) (types.MempoolSnapshot, error) {
	if _, ok := ctx.Deadline(); !ok {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.Timeout)
		defer cancel()
	}
	deadline, _ := ctx.Deadline()

	logger := log.WithField("endpoint", endpoint)
	start := time.Now()

	conn, _, err := c.dialer.DialContext(ctx, endpoint, nil)
	if err != nil {
		return types.MempoolSnapshot{}, errors.Wrapf(err, "could not connect to %s", endpoint)
	}
	defer func() {
		if err := conn.Close(); err != nil {
			logger.Debugf("error closing websocket: %s", err)
		}
	}()

	// unblock a pending read when the context is cancelled early
	stop := make(chan struct{})
	defer close(stop)
	go func() {
		select {
		case <-ctx.Done():
			_ = conn.SetReadDeadline(time.Now())
		case <-stop:
		}
	}()

	if err := conn.SetWriteDeadline(deadline); err != nil {
		return types.MempoolSnapshot{}, errors.WithStack(err)
	}
	messages := []actionMessage{
		{Action: "init"},
		{Action: "want", Data: WantedData},
	}
	for _, msg := range messages {
		if err := conn.WriteJSON(msg); err != nil {
			return types.MempoolSnapshot{}, errors.Wrapf(err, "could not send %q to %s", msg.Action, endpoint)
		}
	}

	if err := conn.SetReadDeadline(deadline); err != nil {
		return types.MempoolSnapshot{}, errors.WithStack(err)
	}
	_, raw, err := conn.ReadMessage()
	if err != nil {
		if ctx.Err() != nil {
			return types.MempoolSnapshot{}, errors.Wrapf(ctx.Err(), "no reply from %s", endpoint)
		}
		return types.MempoolSnapshot{}, errors.Wrapf(err, "no reply from %s", endpoint)
	}

	snapshot, err := DecodeSnapshot(raw, c.Variant)
	if err != nil {
		return types.MempoolSnapshot{}, errors.Wrapf(err, "invalid reply from %s", endpoint)
	}

	logger.WithFields(log.Fields{
		"txs":      snapshot.UnconfirmedTxCount,
		"blocks":   snapshot.ProjectedBlockCount,
		"duration": time.Since(start),
	}).Debug("fetched mempool snapshot")

	return snapshot, nil
}

// DecodeSnapshot unmarshals a raw websocket reply and converts it to a
// MempoolSnapshot.
func DecodeSnapshot(raw []byte, variant FeeVariant) (types.MempoolSnapshot, error) {
	var reply WebsocketReply
	if err := json.Unmarshal(raw, &reply); err != nil {
		field := "reply"
		if typeErr, ok := err.(*json.UnmarshalTypeError); ok && typeErr.Field != "" {
			field = typeErr.Field
		}
		return types.MempoolSnapshot{}, &ErrorMalformedSnapshot{Field: field, Err: err}
	}
	return ReplyToSnapshot(reply, variant)
}
