package test

import (
	"crypto/sha256"
	"encoding/hex"
)

// GenerateHash32 returns the sha256 hash of a provided preimage.
func GenerateHash32(seed string) [32]byte {
	return sha256.Sum256([]byte(seed))
}

// GeneratePaymentID returns a deterministic, hex-encoded payment checking id
// for a seed.
func GeneratePaymentID(seed string) string {
	h := GenerateHash32("payment-" + seed)
	return hex.EncodeToString(h[:])
}

// NostrSecretKey returns a deterministic hex secret key for a seed.
func NostrSecretKey(seed string) string {
	h := GenerateHash32("nostr-" + seed)
	return hex.EncodeToString(h[:])
}
