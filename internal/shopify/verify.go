package shopify

import (
	"crypto/hmac"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/base64"
)

// HMACHeader carries base64(HMAC-SHA256(secret, raw body)).
const HMACHeader = "X-Shopify-Hmac-SHA256"

type Verifier struct {
	secret []byte
}

func NewVerifier(secret string) *Verifier {
	return &Verifier{secret: []byte(secret)}
}

// Verify must be given the body exactly as received, before any JSON decoding.
func (v *Verifier) Verify(rawBody []byte, signature string) bool {
	if signature == "" {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(v.Sign(rawBody)), []byte(signature)) == 1
}

func (v *Verifier) Sign(rawBody []byte) string {
	mac := hmac.New(sha256.New, v.secret)
	_, _ = mac.Write(rawBody)
	return base64.StdEncoding.EncodeToString(mac.Sum(nil))
}
