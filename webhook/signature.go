// Package webhook authenticates messaging-platform callbacks.
package webhook

import (
	"crypto/hmac"
	"crypto/sha1"
	"encoding/hex"
)

// SignatureHeader carries "sha1=<hex hmac>" of the raw request body.
const SignatureHeader = "X-Hub-Signature"

const signaturePrefix = "sha1="

// Sign returns the header value the platform sends for body.
func Sign(secret string, body []byte) string {
	mac := hmac.New(sha1.New, []byte(secret))
	mac.Write(body)
	return signaturePrefix + hex.EncodeToString(mac.Sum(nil))
}

// VerifySignature compares header with the expected signature in constant time.
func VerifySignature(secret string, body []byte, header string) bool {
	return hmac.Equal([]byte(Sign(secret, body)), []byte(header))
}
