package backup

import (
	"bytes"
	"testing"
)

func TestEncryptDecryptRoundTrip(t *testing.T) {
	plaintext := []byte("client registry snapshot contents")

	sealed, err := Encrypt(plaintext, "correct horse battery staple")
	if err != nil {
		t.Fatalf("encrypt failed: %v", err)
	}
	if bytes.Contains(sealed, plaintext) {
		t.Fatal("ciphertext contains plaintext")
	}

	got, err := Decrypt(sealed, "correct horse battery staple")
	if err != nil {
		t.Fatalf("decrypt failed: %v", err)
	}
	if !bytes.Equal(got, plaintext) {
		t.Errorf("round trip mismatch: got %q, want %q", got, plaintext)
	}
}

func TestDecryptWrongPassphrase(t *testing.T) {
	sealed, err := Encrypt([]byte("secret"), "passphrase-one")
	if err != nil {
		t.Fatalf("encrypt failed: %v", err)
	}

	if _, err := Decrypt(sealed, "passphrase-two"); err == nil {
		t.Error("decrypt with wrong passphrase should fail")
	}
}

func TestDecryptTruncated(t *testing.T) {
	if _, err := Decrypt([]byte("short"), "pass"); err == nil {
		t.Error("decrypt of truncated data should fail")
	}
}

func TestEncryptUniqueOutput(t *testing.T) {
	a, err := Encrypt([]byte("same input"), "pass")
	if err != nil {
		t.Fatalf("encrypt failed: %v", err)
	}
	b, err := Encrypt([]byte("same input"), "pass")
	if err != nil {
		t.Fatalf("encrypt failed: %v", err)
	}
	if bytes.Equal(a, b) {
		t.Error("two encryptions of the same input should differ")
	}
}
