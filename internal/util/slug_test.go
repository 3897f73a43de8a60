// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package util

import "testing"

func TestSlugify(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"Hatha Flow", "hatha-flow"},
		{"Yin & Restore", "yin-restore"},
		{"Café Crème", "cafe-creme"},
		{"  spaces   everywhere  ", "spaces-everywhere"},
		{"already-a-slug", "already-a-slug"},
		{"Üppige Übung", "uppige-ubung"},
		{"", ""},
		{"!!!", ""},
	}

	for _, tt := range tests {
		if got := Slugify(tt.in); got != tt.want {
			t.Errorf("Slugify(%q) = %q; want %q", tt.in, got, tt.want)
		}
	}
}

func TestIsValidSlug(t *testing.T) {
	valid := []string{"a", "hatha-flow", "class-101"}
	for _, s := range valid {
		if !IsValidSlug(s) {
			t.Errorf("IsValidSlug(%q) = false; want true", s)
		}
	}

	invalid := []string{"", "-leading", "trailing-", "double--hyphen", "UPPER", "has space"}
	for _, s := range invalid {
		if IsValidSlug(s) {
			t.Errorf("IsValidSlug(%q) = true; want false", s)
		}
	}
}

func TestTitleFromSlug(t *testing.T) {
	if got := TitleFromSlug("hatha-flow"); got != "Hatha Flow" {
		t.Errorf("TitleFromSlug = %q; want Hatha Flow", got)
	}
}
