// Package state signs and verifies the OAuth state parameter so the
// callback can reject forged or replayed consent redirects.
package state

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// TTL bounds how long a consent redirect stays valid.
const TTL = 10 * time.Minute

// Sign builds a state value of the form nonce.expiresUnix.signature. The
// nonce must not contain dots; URL-safe base64 qualifies.
func Sign(secret, nonce string, now time.Time) string {
	payload := fmt.Sprintf("%s.%d", nonce, now.Add(TTL).Unix())
	return payload + "." + sign(secret, payload)
}

// Verify checks the signature and expiry of a state value.
func Verify(secret, value string, now time.Time) bool {
	parts := strings.Split(value, ".")
	if len(parts) != 3 {
		return false
	}

	payload := parts[0] + "." + parts[1]
	if !hmac.Equal([]byte(sign(secret, payload)), []byte(parts[2])) {
		return false
	}

	expires, err := strconv.ParseInt(parts[1], 10, 64)
	if err != nil {
		return false
	}
	return now.Unix() <= expires
}

func sign(secret, payload string) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(payload))
	return hex.EncodeToString(mac.Sum(nil))
}
