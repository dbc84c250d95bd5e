package publisher

import (
	"context"
	"sync"
	"testing"

	"github.com/nbd-wtf/go-nostr"
	"github.com/nbd-wtf/go-nostr/nip19"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/0xb10c/mempoolnote/src/test"
)

type mockRelay struct {
	mu          sync.Mutex
	publishErr  error
	published   []nostr.Event
	closeCalled bool
}

func (r *mockRelay) Publish(ctx context.Context, event nostr.Event) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.publishErr != nil {
		return r.publishErr
	}
	r.published = append(r.published, event)
	return nil
}

func (r *mockRelay) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.closeCalled = true
	return nil
}

func dialerFor(relays map[string]*mockRelay) RelayDialer {
	return func(ctx context.Context, url string) (Relay, error) {
		relay, ok := relays[url]
		if !ok {
			return nil, errors.Errorf("connection refused")
		}
		return relay, nil
	}
}

func TestNostrPublisher_Publish(t *testing.T) {
	good := &mockRelay{}
	rejecting := &mockRelay{publishErr: errors.New("blocked: not on whitelist")}
	relays := map[string]*mockRelay{
		"wss://good.example":      good,
		"wss://rejecting.example": rejecting,
	}

	p, err := NewNostrPublisher(test.NostrSecretKey("bot"), []string{
		"wss://good.example", "wss://rejecting.example", "wss://offline.example",
	}, dialerFor(relays))
	require.NoError(t, err)

	require.NoError(t, p.Publish(context.Background(), "tidy mempool"))

	require.Len(t, good.published, 1)
	ev := good.published[0]
	assert.Equal(t, nostr.KindTextNote, ev.Kind)
	assert.Equal(t, "tidy mempool", ev.Content)
	assert.Equal(t, p.PublicKey(), ev.PubKey)
	ok, err := ev.CheckSignature()
	require.NoError(t, err)
	assert.True(t, ok)

	assert.True(t, good.closeCalled)
	assert.True(t, rejecting.closeCalled)
}

func TestNostrPublisher_NoRelayAccepted(t *testing.T) {
	rejecting := &mockRelay{publishErr: errors.New("rate-limited")}
	p, err := NewNostrPublisher(test.NostrSecretKey("bot"), []string{"wss://a.example", "wss://b.example"},
		dialerFor(map[string]*mockRelay{"wss://a.example": rejecting}))
	require.NoError(t, err)

	err = p.Publish(context.Background(), "note")
	require.Error(t, err)
	assert.Equal(t, ErrNoRelayAccepted, errors.Cause(err))
	assert.Contains(t, err.Error(), "rate-limited")
	assert.Contains(t, err.Error(), "connection refused")
}

func TestNewNostrPublisher_Keys(t *testing.T) {
	skHex := test.NostrSecretKey("bot")
	nsec, err := nip19.EncodePrivateKey(skHex)
	require.NoError(t, err)

	fromHex, err := NewNostrPublisher(skHex, []string{"wss://relay.example"}, nil)
	require.NoError(t, err)
	fromNsec, err := NewNostrPublisher(nsec, []string{"wss://relay.example"}, nil)
	require.NoError(t, err)
	assert.Equal(t, fromHex.PublicKey(), fromNsec.PublicKey())

	npub, err := nip19.EncodePublicKey(fromHex.PublicKey())
	require.NoError(t, err)
	_, err = NewNostrPublisher(npub, []string{"wss://relay.example"}, nil)
	assert.Error(t, err)

	_, err = NewNostrPublisher("zz"+skHex[2:], []string{"wss://relay.example"}, nil)
	assert.Error(t, err)

	_, err = NewNostrPublisher(skHex, nil, nil)
	assert.Error(t, err)
}
