package config

import (
	"io/ioutil"
	"path/filepath"
	"testing"
	"time"

	log "github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/0xb10c/mempoolnote/src/mempoolclient"
	"github.com/0xb10c/mempoolnote/src/publisher"
	"github.com/0xb10c/mempoolnote/src/report"
)

// clearEnv makes sure variables of the environment running the tests do not
// leak into them.
func clearEnv(t *testing.T) {
	for _, env := range envNames {
		t.Setenv(env, "")
	}
}

func TestLoad_Defaults(t *testing.T) {
	clearEnv(t)

	cfg, err := Load(NewFlagSet("test"), nil)
	require.NoError(t, err)

	assert.Equal(t, "https://legend.lnbits.com", cfg.LNbitsURL)
	assert.Equal(t, 20, cfg.PaymentLimit)
	assert.Equal(t, int64(100000), cfg.TriggerAmount)
	assert.Equal(t, ".last-payment", cfg.WatermarkFile)
	assert.Equal(t, "", cfg.DatabasePath)
	assert.Equal(t, 30*time.Second, cfg.Timeout)
	assert.Equal(t, report.StylePercent, cfg.DeltaStyle)
	assert.Equal(t, mempoolclient.FeeVariantPurgeFloor, cfg.FeeVariant)
	assert.Equal(t, report.DefaultReferenceTitle, cfg.ReferenceTitle)
	assert.Equal(t, "noscl publish -", cfg.PublishCommand)
	assert.Empty(t, cfg.NostrRelays)
	assert.Equal(t, log.InfoLevel, cfg.LogLevel)

	err = cfg.RequireMempool()
	require.Error(t, err)
	assert.True(t, IsErrorConfigurationMissing(err))
	assert.Contains(t, err.Error(), "MEMPOOL_REFERENCE_WS")

	err = cfg.RequirePaymentFeed()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "LNBITS_API_KEY")
}

func TestLoad_Environment(t *testing.T) {
	clearEnv(t)
	t.Setenv("MEMPOOL_REFERENCE_WS", "wss://mempool.space/api/v1/ws")
	t.Setenv("MEMPOOL_SUBJECT_WS", "wss://blackbox.vpn:4200/api/v1/ws")
	t.Setenv("LNBITS_API_KEY", "invoice-key")
	t.Setenv("DELTA_STYLE", "percent+absolute")
	t.Setenv("NOSTR_SECRET_KEY", "nsec1xyz")
	t.Setenv("NOSTR_RELAYS", "wss://nos.lol, wss://relay.damus.io,")
	t.Setenv("MEMPOOLNOTE_TIMEOUT", "5s")

	cfg, err := Load(NewFlagSet("test"), nil)
	require.NoError(t, err)

	assert.NoError(t, cfg.RequireMempool())
	assert.NoError(t, cfg.RequirePaymentFeed())
	assert.Equal(t, "wss://mempool.space/api/v1/ws", cfg.ReferenceEndpoint)
	assert.Equal(t, "wss://blackbox.vpn:4200/api/v1/ws", cfg.SubjectEndpoint)
	assert.Equal(t, report.StylePercentAbsolute, cfg.DeltaStyle)
	assert.Equal(t, []string{"wss://nos.lol", "wss://relay.damus.io"}, cfg.NostrRelays)
	assert.Equal(t, 5*time.Second, cfg.Timeout)
}

func TestLoad_FlagsOverrideEnvironment(t *testing.T) {
	clearEnv(t)
	t.Setenv("MEMPOOL_SUBJECT_WS", "wss://from-env/api/v1/ws")
	t.Setenv("FEE_VARIANT", "purge-floor")

	cfg, err := Load(NewFlagSet("test"), []string{
		"--subject-ws", "wss://from-flag/api/v1/ws",
		"--fee-variant", "legacy",
		"--trigger-amount", "21000",
	})
	require.NoError(t, err)

	assert.Equal(t, "wss://from-flag/api/v1/ws", cfg.SubjectEndpoint)
	assert.Equal(t, mempoolclient.FeeVariantLegacy, cfg.FeeVariant)
	assert.Equal(t, int64(21000), cfg.TriggerAmount)
}

func TestLoad_ConfigFile(t *testing.T) {
	clearEnv(t)
	t.Setenv("LNBITS_API_KEY", "env-key")

	path := filepath.Join(t.TempDir(), "mempoolnote.yaml")
	require.NoError(t, ioutil.WriteFile(path, []byte(`
reference-ws: wss://mempool.space/api/v1/ws
subject-ws: ws://127.0.0.1:8999/api/v1/ws
lnbits-api-key: file-key
db: notes.sqlite
nostr-secret-key: 0000000000000000000000000000000000000000000000000000000000000001
nostr-relays:
  - wss://nos.lol
  - wss://relay.damus.io
`), 0644))

	cfg, err := Load(NewFlagSet("test"), []string{"--config", path})
	require.NoError(t, err)

	assert.Equal(t, "ws://127.0.0.1:8999/api/v1/ws", cfg.SubjectEndpoint)
	assert.Equal(t, "notes.sqlite", cfg.DatabasePath)
	assert.Equal(t, []string{"wss://nos.lol", "wss://relay.damus.io"}, cfg.NostrRelays)
	// the environment wins over the file
	assert.Equal(t, "env-key", cfg.LNbitsAPIKey)
}

func TestLoad_Invalid(t *testing.T) {
	clearEnv(t)

	testCases := [][]string{
		{"--delta-style", "absolute"},
		{"--fee-variant", "economy"},
		{"--log-level", "loud"},
		{"--timeout", "0s"},
		{"--payment-limit", "0"},
		{"--unknown-flag"},
		{"--config", "/does/not/exist.yaml"},
	}
	for _, args := range testCases {
		_, err := Load(NewFlagSet("test"), args)
		assert.Error(t, err, "args %v", args)
	}
}

func TestLoad_NostrKeyWithoutRelays(t *testing.T) {
	clearEnv(t)
	t.Setenv("NOSTR_SECRET_KEY", "nsec1xyz")

	_, err := Load(NewFlagSet("test"), nil)
	require.Error(t, err)
	assert.True(t, IsErrorConfigurationMissing(err))
}

func TestConfig_GeneratorAndPublisher(t *testing.T) {
	clearEnv(t)

	cfg, err := Load(NewFlagSet("test"), []string{
		"--subject-title", "Subject",
		"--publish-command", "cat -",
	})
	require.NoError(t, err)

	g := cfg.Generator()
	assert.Equal(t, report.DefaultReferenceTitle, g.ReferenceTitle)
	assert.Equal(t, "Subject", g.SubjectTitle)

	p, err := cfg.Publisher()
	require.NoError(t, err)
	cp, ok := p.(*publisher.CommandPublisher)
	require.True(t, ok)
	assert.Equal(t, "cat", cp.Path)
	assert.Equal(t, []string{"-"}, cp.Args)
}
