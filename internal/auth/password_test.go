// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package auth

import (
	"strings"
	"testing"
)

func TestHashPassword_RoundTrip(t *testing.T) {
	hash, err := HashPassword("om-shanti-108")
	if err != nil {
		t.Fatalf("HashPassword failed: %v", err)
	}
	if !strings.HasPrefix(hash, "$argon2id$") {
		t.Errorf("hash = %q; want $argon2id$ prefix", hash)
	}

	ok, err := CheckPassword("om-shanti-108", hash)
	if err != nil {
		t.Fatalf("CheckPassword failed: %v", err)
	}
	if !ok {
		t.Error("CheckPassword rejected the correct password")
	}

	ok, err = CheckPassword("wrong-password", hash)
	if err != nil {
		t.Fatalf("CheckPassword failed: %v", err)
	}
	if ok {
		t.Error("CheckPassword accepted a wrong password")
	}
}

func TestHashPassword_UniqueSalts(t *testing.T) {
	a, err := HashPassword("same input")
	if err != nil {
		t.Fatalf("HashPassword failed: %v", err)
	}
	b, err := HashPassword("same input")
	if err != nil {
		t.Fatalf("HashPassword failed: %v", err)
	}
	if a == b {
		t.Error("two hashes of the same password are identical; salts not random")
	}
}

func TestCheckPassword_MalformedHash(t *testing.T) {
	for _, hash := range []string{
		"",
		"not-a-hash",
		"$bcrypt$v=19$m=19456,t=2,p=1$c2FsdA$aGFzaA",
		"$argon2id$v=19$m=19456,t=2,p=1$!!$aGFzaA",
	} {
		if _, err := CheckPassword("anything", hash); err == nil {
			t.Errorf("CheckPassword(%q) succeeded; want error", hash)
		}
	}
}

func TestNeedsRehash(t *testing.T) {
	hash, err := HashPassword("current-params")
	if err != nil {
		t.Fatalf("HashPassword failed: %v", err)
	}
	if NeedsRehash(hash) {
		t.Error("NeedsRehash(fresh hash) = true; want false")
	}

	stale := "$argon2id$v=19$m=4096,t=1,p=1$c2FsdHNhbHRzYWx0c2FsdA$aGFzaGhhc2hoYXNoaGFzaA"
	if !NeedsRehash(stale) {
		t.Error("NeedsRehash(old parameters) = false; want true")
	}
	if !NeedsRehash("plaintext") {
		t.Error("NeedsRehash(plaintext) = false; want true")
	}
}

func TestValidatePassword(t *testing.T) {
	if err := ValidatePassword("short"); err == nil {
		t.Error("ValidatePassword accepted a 5-char password")
	}
	if err := ValidatePassword("long enough"); err != nil {
		t.Errorf("ValidatePassword rejected a valid password: %v", err)
	}
}

func TestValidateUsername(t *testing.T) {
	valid := []string{"maya", "yoga.admin", "user_42", "a-b-c"}
	for _, u := range valid {
		if err := ValidateUsername(u); err != nil {
			t.Errorf("ValidateUsername(%q) = %v; want nil", u, err)
		}
	}

	invalid := []string{"", "ab", "UPPER", "-leading", "has space", strings.Repeat("x", 33)}
	for _, u := range invalid {
		if err := ValidateUsername(u); err == nil {
			t.Errorf("ValidateUsername(%q) = nil; want error", u)
		}
	}
}
