package config

// Configuration keys. Flags use the key itself, environment variables the
// name in envNames.
const (
	KeyReferenceWS    = "reference-ws"
	KeySubjectWS      = "subject-ws"
	KeyLNbitsAPIKey   = "lnbits-api-key"
	KeyLNbitsURL      = "lnbits-url"
	KeyPaymentLimit   = "payment-limit"
	KeyTriggerAmount  = "trigger-amount"
	KeyWatermarkFile  = "watermark-file"
	KeyDatabase       = "db"
	KeyTimeout        = "timeout"
	KeyDeltaStyle     = "delta-style"
	KeyFeeVariant     = "fee-variant"
	KeyReferenceTitle = "reference-title"
	KeySubjectTitle   = "subject-title"
	KeyPublishCommand = "publish-command"
	KeyNostrSecretKey = "nostr-secret-key"
	KeyNostrRelays    = "nostr-relays"
	KeyLogLevel       = "log-level"
	KeyConfigFile     = "config"
)

var envNames = map[string]string{
	KeyReferenceWS:    "MEMPOOL_REFERENCE_WS",
	KeySubjectWS:      "MEMPOOL_SUBJECT_WS",
	KeyLNbitsAPIKey:   "LNBITS_API_KEY",
	KeyLNbitsURL:      "LNBITS_URL",
	KeyPaymentLimit:   "PAYMENT_LIMIT",
	KeyTriggerAmount:  "TRIGGER_AMOUNT_MSAT",
	KeyWatermarkFile:  "WATERMARK_FILE",
	KeyDatabase:       "MEMPOOLNOTE_DB",
	KeyTimeout:        "MEMPOOLNOTE_TIMEOUT",
	KeyDeltaStyle:     "DELTA_STYLE",
	KeyFeeVariant:     "FEE_VARIANT",
	KeyReferenceTitle: "REFERENCE_TITLE",
	KeySubjectTitle:   "SUBJECT_TITLE",
	KeyPublishCommand: "PUBLISH_COMMAND",
	KeyNostrSecretKey: "NOSTR_SECRET_KEY",
	KeyNostrRelays:    "NOSTR_RELAYS",
	KeyLogLevel:       "LOG_LEVEL",
}

// EnvName returns the environment variable read for key.
func EnvName(key string) string {
	return envNames[key]
}
