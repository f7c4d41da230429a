package state

import (
	"strings"
	"testing"
	"time"
)

const testSecret = "state-secret"

var fixedNow = time.Date(2024, 3, 15, 10, 0, 0, 0, time.UTC)

func TestSignVerifyRoundTrip(t *testing.T) {
	value := Sign(testSecret, "nonce-abc", fixedNow)

	if !Verify(testSecret, value, fixedNow) {
		t.Fatal("a freshly signed state must verify")
	}
	if !Verify(testSecret, value, fixedNow.Add(TTL-time.Second)) {
		t.Fatal("a state within its TTL must verify")
	}
}

func TestVerifyRejectsExpiredState(t *testing.T) {
	value := Sign(testSecret, "nonce-abc", fixedNow)

	if Verify(testSecret, value, fixedNow.Add(TTL+time.Second)) {
		t.Fatal("an expired state must not verify")
	}
}

func TestVerifyRejectsWrongSecret(t *testing.T) {
	value := Sign(testSecret, "nonce-abc", fixedNow)

	if Verify("other-secret", value, fixedNow) {
		t.Fatal("a state signed with another secret must not verify")
	}
}

func TestVerifyRejectsTamperedPayload(t *testing.T) {
	value := Sign(testSecret, "nonce-abc", fixedNow)
	tampered := strings.Replace(value, "nonce-abc", "nonce-xyz", 1)

	if Verify(testSecret, tampered, fixedNow) {
		t.Fatal("a tampered state must not verify")
	}
}

func TestVerifyRejectsMalformedValues(t *testing.T) {
	for _, value := range []string{"", "a", "a.b", "a.b.c.d", "nonce.not-a-number.sig"} {
		if Verify(testSecret, value, fixedNow) {
			t.Fatalf("malformed state %q must not verify", value)
		}
	}
}
