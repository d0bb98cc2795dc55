package security

import (
	"bytes"
	"context"
	"strings"
	"testing"
)

func TestEncryptDecryptRoundTrip(t *testing.T) {
	provider, err := NewAppKeySecretProviderFromString("not-a-real-key-material")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	plaintext := []byte(`{"access_token":"ya29.secret"}`)
	ciphertext, err := provider.Encrypt(context.Background(), plaintext)
	if err != nil {
		t.Fatalf("encrypt: %v", err)
	}
	if !strings.HasPrefix(string(ciphertext), envelopePrefix) {
		t.Fatalf("expected envelope prefix, got %s", ciphertext[:32])
	}
	if bytes.Contains(ciphertext, []byte("ya29.secret")) {
		t.Fatal("ciphertext must not leak the plaintext")
	}

	decrypted, err := provider.Decrypt(context.Background(), ciphertext)
	if err != nil {
		t.Fatalf("decrypt: %v", err)
	}
	if !bytes.Equal(decrypted, plaintext) {
		t.Fatalf("round trip mismatch: %s", decrypted)
	}
}

func TestDecryptWithWrongKeyFails(t *testing.T) {
	first, _ := NewAppKeySecretProviderFromString("key-one")
	second, _ := NewAppKeySecretProviderFromString("key-two")

	ciphertext, err := first.Encrypt(context.Background(), []byte("payload"))
	if err != nil {
		t.Fatalf("encrypt: %v", err)
	}
	if _, err := second.Decrypt(context.Background(), ciphertext); err == nil {
		t.Fatal("expected decryption failure with a different key")
	}
}

func TestNonceIsUnique(t *testing.T) {
	provider, _ := NewAppKeySecretProviderFromString("key")
	a, _ := provider.Encrypt(context.Background(), []byte("same"))
	b, _ := provider.Encrypt(context.Background(), []byte("same"))
	if bytes.Equal(a, b) {
		t.Fatal("identical plaintexts must not produce identical ciphertexts")
	}
}

func TestEmptyInputs(t *testing.T) {
	if _, err := NewAppKeySecretProvider(nil); err == nil {
		t.Fatal("expected error for empty key material")
	}
	provider, _ := NewAppKeySecretProviderFromString("key")
	if _, err := provider.Encrypt(context.Background(), nil); err == nil {
		t.Fatal("expected error for empty plaintext")
	}
	if _, err := provider.Decrypt(context.Background(), nil); err == nil {
		t.Fatal("expected error for empty ciphertext")
	}
}
