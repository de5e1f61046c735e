package utils

import (
	"strings"
	"testing"
	"time"
)

func TestGenerateCardNumber(t *testing.T) {
	num, err := GenerateCardNumber("400000", 16)
	if err != nil {
		t.Fatalf("GenerateCardNumber: %v", err)
	}
	if len(num) != 16 || !strings.HasPrefix(num, "400000") {
		t.Errorf("card number = %q", num)
	}
	for _, r := range num {
		if r < '0' || r > '9' {
			t.Errorf("non-digit %q in card number", r)
		}
	}

	if _, err := GenerateCardNumber("400000", 4); err == nil {
		t.Error("length shorter than prefix should error")
	}
}

func TestGenerateExpiryDate(t *testing.T) {
	issued := time.Date(2026, 8, 15, 0, 0, 0, 0, time.UTC)
	if got := GenerateExpiryDate(issued); got != "08/29" {
		t.Errorf("expiry = %q, want 08/29", got)
	}
}

func TestEncryptDecryptRoundTrip(t *testing.T) {
	key := "a1b2c3d4e5f6a7b8" // 16 bytes
	for _, plain := range []string{"4000001234567890", "08/29", "x"} {
		enc, err := Encrypt(plain, key)
		if err != nil {
			t.Fatalf("Encrypt(%q): %v", plain, err)
		}
		if enc == plain {
			t.Errorf("ciphertext equals plaintext for %q", plain)
		}
		dec, err := Decrypt(enc, key)
		if err != nil {
			t.Fatalf("Decrypt(%q): %v", plain, err)
		}
		if dec != plain {
			t.Errorf("round trip: got %q, want %q", dec, plain)
		}
	}
}

func TestDecryptRejectsGarbage(t *testing.T) {
	key := "a1b2c3d4e5f6a7b8"
	if _, err := Decrypt("not-hex", key); err == nil {
		t.Error("non-hex input should error")
	}
	if _, err := Decrypt("abcd", key); err == nil {
		t.Error("short input should error")
	}
}

func TestHMACIsDeterministic(t *testing.T) {
	a := GenerateHMAC("4000001234567890", "08/29", "123", "secret")
	b := GenerateHMAC("4000001234567890", "08/29", "123", "secret")
	if a != b {
		t.Error("same inputs produced different HMACs")
	}
	c := GenerateHMAC("4000001234567890", "08/29", "124", "secret")
	if a == c {
		t.Error("different CVV produced same HMAC")
	}
}
