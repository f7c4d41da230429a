package tokencrypto

import (
	"bytes"
	"strings"
	"testing"
)

func testKey(b byte) []byte {
	return bytes.Repeat([]byte{b}, 32)
}

func TestEncryptDecryptRoundTrip(t *testing.T) {
	key := testKey(0x41)
	plain := "ya29.a0AfH6SMBexampleaccesstoken"

	enc, err := Encrypt(plain, key)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if enc == plain || strings.Contains(enc, plain) {
		t.Fatal("ciphertext must not contain the plaintext token")
	}

	dec, err := Decrypt(enc, key)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if dec != plain {
		t.Fatalf("round trip mismatch: got %q", dec)
	}
}

func TestEncryptRejectsShortKey(t *testing.T) {
	if _, err := Encrypt("token", []byte("short")); err == nil {
		t.Fatal("expected an error for a non-32-byte key")
	}
	if _, err := Decrypt("00", []byte("short")); err == nil {
		t.Fatal("expected an error for a non-32-byte key")
	}
}

func TestDecryptRejectsWrongKey(t *testing.T) {
	enc, err := Encrypt("token", testKey(0x41))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if _, err := Decrypt(enc, testKey(0x42)); err == nil {
		t.Fatal("expected decryption with the wrong key to fail")
	}
}

func TestDecryptRejectsGarbage(t *testing.T) {
	key := testKey(0x41)

	if _, err := Decrypt("not-hex", key); err == nil {
		t.Fatal("expected an error for non-hex input")
	}
	if _, err := Decrypt("abcd", key); err == nil {
		t.Fatal("expected an error for input shorter than the nonce")
	}
}
