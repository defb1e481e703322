package payment

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
)

// VerifySignature checks that a signature returned by the payment
// widget was produced by the gateway. The gateway signs the string
// "<orderID>|<paymentID>" with HMAC-SHA256 under the shared key
// secret and hex-encodes the digest. The comparison is constant
// time so the check leaks nothing about the expected value.
func VerifySignature(orderID, paymentID, signature, secret string) bool {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(orderID + "|" + paymentID))
	expected := hex.EncodeToString(mac.Sum(nil))
	return hmac.Equal([]byte(expected), []byte(signature))
}
