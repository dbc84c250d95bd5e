package publisher

import (
	"context"
	"encoding/hex"
	"fmt"
	"strings"
	"sync"

	"github.com/nbd-wtf/go-nostr"
	"github.com/nbd-wtf/go-nostr/nip19"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
)

// ErrNoRelayAccepted is returned when a note could not be published to any
// relay.
var ErrNoRelayAccepted = errors.New("no relay accepted the note")

// Relay is the part of *nostr.Relay the NostrPublisher uses.
type Relay interface {
	Publish(ctx context.Context, event nostr.Event) error
	Close() error
}

// RelayDialer connects to a relay.
type RelayDialer func(ctx context.Context, url string) (Relay, error)

// DialRelay connects to url with go-nostr.
func DialRelay(ctx context.Context, url string) (Relay, error) {
	relay, err := nostr.RelayConnect(ctx, url)
	if err != nil {
		return nil, err
	}
	return relay, nil
}

// NostrPublisher signs the note as a kind 1 text note and publishes it to a
// set of relays.
type NostrPublisher struct {
	secretKey string
	publicKey string
	relays    []string
	dial      RelayDialer
}

// NewNostrPublisher returns a NostrPublisher for a hex or nsec secret key.
// The dialer may be nil to use DialRelay.
func NewNostrPublisher(secretKey string, relays []string, dial RelayDialer) (*NostrPublisher, error) {
	if len(relays) == 0 {
		return nil, errors.Errorf("no nostr relays configured")
	}

	skHex, err := parseSecretKey(secretKey)
	if err != nil {
		return nil, err
	}
	pk, err := nostr.GetPublicKey(skHex)
	if err != nil {
		return nil, errors.Wrap(err, "could not derive public key")
	}

	if dial == nil {
		dial = DialRelay
	}
	return &NostrPublisher{
		secretKey: skHex,
		publicKey: pk,
		relays:    relays,
		dial:      dial,
	}, nil
}

// PublicKey returns the hex public key notes are signed with.
func (p *NostrPublisher) PublicKey() string {
	return p.publicKey
}

func parseSecretKey(secretKey string) (string, error) {
	if len(secretKey) == 64 {
		if _, err := hex.DecodeString(secretKey); err != nil {
			return "", errors.Errorf("secret key is not a valid hex private key")
		}
		return strings.ToLower(secretKey), nil
	}

	prefix, value, err := nip19.Decode(secretKey)
	if err != nil {
		return "", errors.Wrap(err, "secret key is invalid")
	}
	if prefix != "nsec" {
		return "", errors.Errorf("secret key is not an nsec or valid hex")
	}
	switch v := value.(type) {
	case string:
		return v, nil
	case []byte:
		return hex.EncodeToString(v), nil
	}
	return "", errors.Errorf("secret key is an unexpected nsec payload type %T", value)
}

// SignNote returns the signed text note event for text.
func (p *NostrPublisher) SignNote(text string) (nostr.Event, error) {
	ev := nostr.Event{
		PubKey:    p.publicKey,
		CreatedAt: nostr.Now(),
		Kind:      nostr.KindTextNote,
		Tags:      nostr.Tags{},
		Content:   text,
	}
	if err := ev.Sign(p.secretKey); err != nil {
		return ev, errors.Wrap(err, "could not sign note")
	}
	return ev, nil
}

// Publish signs text and sends it to all relays concurrently. It succeeds
// when at least one relay accepted the event.
func (p *NostrPublisher) Publish(ctx context.Context, text string) error {
	ev, err := p.SignNote(text)
	if err != nil {
		return err
	}

	var (
		wg       sync.WaitGroup
		mu       sync.Mutex
		accepted int
		failures []string
	)
	for _, url := range p.relays {
		wg.Add(1)
		go func(url string) {
			defer wg.Done()
			err := p.publishTo(ctx, url, ev)

			mu.Lock()
			defer mu.Unlock()
			logger := log.WithFields(log.Fields{"relay": url, "event": ev.ID})
			if err != nil {
				logger.Warnf("could not publish note: %s", err)
				failures = append(failures, fmt.Sprintf("%s: %s", url, err))
				return
			}
			logger.Info("published note")
			accepted++
		}(url)
	}
	wg.Wait()

	if accepted == 0 {
		return errors.Wrap(ErrNoRelayAccepted, strings.Join(failures, "; "))
	}
	return nil
}

func (p *NostrPublisher) publishTo(ctx context.Context, url string, ev nostr.Event) error {
	relay, err := p.dial(ctx, url)
	if err != nil {
		return errors.Wrap(err, "connect")
	}
	defer func() {
		if err := relay.Close(); err != nil {
			log.WithField("relay", url).Debugf("error closing relay: %s", err)
		}
	}()
	return relay.Publish(ctx, ev)
}
