// Package config builds the configuration of the mempoolnote binaries from
// flags, environment variables and an optional YAML file, in that order of
// precedence.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/0xb10c/mempoolnote/src/lnbits"
	"github.com/0xb10c/mempoolnote/src/mempoolclient"
	"github.com/0xb10c/mempoolnote/src/publisher"
	"github.com/0xb10c/mempoolnote/src/report"
	"github.com/0xb10c/mempoolnote/src/watermark"
)

// ErrorConfigurationMissing is returned when a required value is not set.
type ErrorConfigurationMissing struct {
	Key string
}

func (e *ErrorConfigurationMissing) Error() string {
	return fmt.Sprintf("%s is not set (flag --%s or environment variable %s)", e.Key, e.Key, EnvName(e.Key))
}

// IsErrorConfigurationMissing reports whether the cause of err is an
// ErrorConfigurationMissing.
func IsErrorConfigurationMissing(err error) bool {
	_, ok := errors.Cause(err).(*ErrorConfigurationMissing)
	return ok
}

// Config is built once at startup and handed to every component.
type Config struct {
	ReferenceEndpoint string
	SubjectEndpoint   string

	LNbitsURL     string
	LNbitsAPIKey  string
	PaymentLimit  int
	TriggerAmount int64

	WatermarkFile string
	DatabasePath  string

	Timeout        time.Duration
	DeltaStyle     report.DeltaStyle
	FeeVariant     mempoolclient.FeeVariant
	ReferenceTitle string
	SubjectTitle   string

	PublishCommand string
	NostrSecretKey string
	NostrRelays    []string

	LogLevel log.Level
}

// NewFlagSet returns the flags shared by the binaries.
func NewFlagSet(name string) *pflag.FlagSet {
	fs := pflag.NewFlagSet(name, pflag.ContinueOnError)
	fs.String(KeyConfigFile, "", "path to a YAML configuration file")
	fs.String(KeyReferenceWS, "", "websocket endpoint of the reference mempool")
	fs.String(KeySubjectWS, "", "websocket endpoint of the subject mempool")
	fs.String(KeyLNbitsAPIKey, "", "LNbits wallet API key")
	fs.String(KeyLNbitsURL, lnbits.DefaultURL, "LNbits base url")
	fs.Int(KeyPaymentLimit, lnbits.DefaultLimit, "number of recent payments to scan")
	fs.Int64(KeyTriggerAmount, watermark.DefaultThresholdMsat, "smallest payment in msat that triggers a note")
	fs.String(KeyWatermarkFile, watermark.DefaultFile, "file holding the last processed payment id")
	fs.String(KeyDatabase, "", "sqlite database for the watermark and published notes (replaces the watermark file)")
	fs.Duration(KeyTimeout, mempoolclient.DefaultTimeout, "timeout for each network call")
	fs.String(KeyDeltaStyle, string(report.StylePercent), "delta annotation: percent or percent+absolute")
	fs.String(KeyFeeVariant, string(mempoolclient.FeeVariantPurgeFloor), "fee mapping: legacy or purge-floor")
	fs.String(KeyReferenceTitle, report.DefaultReferenceTitle, "heading of the reference section")
	fs.String(KeySubjectTitle, report.DefaultSubjectTitle, "heading of the subject section")
	fs.String(KeyPublishCommand, publisher.DefaultCommand, "command the note is piped into")
	fs.String(KeyNostrSecretKey, "", "publish to nostr relays directly with this hex or nsec key")
	fs.String(KeyNostrRelays, "", "comma separated nostr relay urls")
	fs.String(KeyLogLevel, "info", "log level")
	return fs
}

// Load parses args with fs and resolves every key.
func Load(fs *pflag.FlagSet, args []string) (*Config, error) {
	if err := fs.Parse(args); err != nil {
		return nil, err
	}

	v := viper.New()
	for key, env := range envNames {
		if err := v.BindEnv(key, env); err != nil {
			return nil, errors.WithStack(err)
		}
	}
	if err := v.BindPFlags(fs); err != nil {
		return nil, errors.WithStack(err)
	}

	if path, _ := fs.GetString(KeyConfigFile); path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, errors.Wrapf(err, "could not read config file %s", path)
		}
	}

	return fromViper(v)
}

func fromViper(v *viper.Viper) (*Config, error) {
	cfg := &Config{
		ReferenceEndpoint: strings.TrimSpace(v.GetString(KeyReferenceWS)),
		SubjectEndpoint:   strings.TrimSpace(v.GetString(KeySubjectWS)),
		LNbitsURL:         v.GetString(KeyLNbitsURL),
		LNbitsAPIKey:      strings.TrimSpace(v.GetString(KeyLNbitsAPIKey)),
		PaymentLimit:      v.GetInt(KeyPaymentLimit),
		TriggerAmount:     v.GetInt64(KeyTriggerAmount),
		WatermarkFile:     v.GetString(KeyWatermarkFile),
		DatabasePath:      v.GetString(KeyDatabase),
		Timeout:           v.GetDuration(KeyTimeout),
		ReferenceTitle:    v.GetString(KeyReferenceTitle),
		SubjectTitle:      v.GetString(KeySubjectTitle),
		PublishCommand:    v.GetString(KeyPublishCommand),
		NostrSecretKey:    strings.TrimSpace(v.GetString(KeyNostrSecretKey)),
		NostrRelays:       relayList(v),
	}

	var err error
	if cfg.DeltaStyle, err = report.ParseDeltaStyle(v.GetString(KeyDeltaStyle)); err != nil {
		return nil, errors.Wrap(err, KeyDeltaStyle)
	}
	if cfg.FeeVariant, err = mempoolclient.ParseFeeVariant(v.GetString(KeyFeeVariant)); err != nil {
		return nil, errors.Wrap(err, KeyFeeVariant)
	}
	if cfg.LogLevel, err = log.ParseLevel(v.GetString(KeyLogLevel)); err != nil {
		return nil, errors.Wrap(err, KeyLogLevel)
	}
	if cfg.Timeout <= 0 {
		return nil, errors.Errorf("%s must be positive, got %s", KeyTimeout, cfg.Timeout)
	}
	if cfg.PaymentLimit <= 0 {
		return nil, errors.Errorf("%s must be positive, got %d", KeyPaymentLimit, cfg.PaymentLimit)
	}
	if cfg.NostrSecretKey != "" && len(cfg.NostrRelays) == 0 {
		return nil, &ErrorConfigurationMissing{Key: KeyNostrRelays}
	}

	return cfg, nil
}

// relayList accepts a YAML list as well as a comma separated string.
func relayList(v *viper.Viper) (res []string) {
	for _, entry := range v.GetStringSlice(KeyNostrRelays) {
		for _, item := range strings.Split(entry, ",") {
			if item = strings.TrimSpace(item); item != "" {
				res = append(res, item)
			}
		}
	}
	return res
}

// RequireMempool checks that both mempool endpoints are set.
func (c *Config) RequireMempool() error {
	if c.ReferenceEndpoint == "" {
		return &ErrorConfigurationMissing{Key: KeyReferenceWS}
	}
	if c.SubjectEndpoint == "" {
		return &ErrorConfigurationMissing{Key: KeySubjectWS}
	}
	return nil
}

// RequirePaymentFeed checks that the payment feed can be queried.
func (c *Config) RequirePaymentFeed() error {
	if c.LNbitsAPIKey == "" {
		return &ErrorConfigurationMissing{Key: KeyLNbitsAPIKey}
	}
	return nil
}

// SetupLogging configures the global logger. Logs go to stderr so stdout
// carries only the note.
func (c *Config) SetupLogging() {
	log.SetLevel(c.LogLevel)
	log.SetFormatter(&log.TextFormatter{FullTimestamp: true})
}

// Generator returns the note generator described by c.
func (c *Config) Generator() *report.Generator {
	g := report.NewGenerator(c.DeltaStyle)
	g.ReferenceTitle = c.ReferenceTitle
	g.SubjectTitle = c.SubjectTitle
	return g
}

// Publisher returns the nostr publisher when a secret key is configured and
// the command publisher otherwise.
func (c *Config) Publisher() (publisher.Publisher, error) {
	if c.NostrSecretKey != "" {
		p, err := publisher.NewNostrPublisher(c.NostrSecretKey, c.NostrRelays, publisher.DialRelay)
		if err != nil {
			return nil, err
		}
		log.WithFields(log.Fields{
			"pubkey": p.PublicKey(),
			"relays": len(c.NostrRelays),
		}).Debug("publishing to nostr relays")
		return p, nil
	}
	return publisher.NewCommandPublisher(c.PublishCommand)
}
