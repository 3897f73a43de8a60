// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package util

import "testing"

func TestNormalizePhone(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"+62 812-345-6789", "628123456789"},
		{"628123456789", "628123456789"},
		{"(0812) 345 6789", "08123456789"},
		{"no digits", ""},
	}

	for _, tt := range tests {
		if got := NormalizePhone(tt.in); got != tt.want {
			t.Errorf("NormalizePhone(%q) = %q; want %q", tt.in, got, tt.want)
		}
	}
}

func TestWhatsAppLink(t *testing.T) {
	got := WhatsAppLink("+62 812-345-6789", "Hi there")
	want := "https://wa.me/628123456789?text=Hi+there"
	if got != want {
		t.Errorf("WhatsAppLink = %q; want %q", got, want)
	}

	if got := WhatsAppLink("628123456789", ""); got != "https://wa.me/628123456789" {
		t.Errorf("WhatsAppLink without message = %q", got)
	}

	if got := WhatsAppLink("---", "msg"); got != "" {
		t.Errorf("WhatsAppLink with no digits = %q; want empty", got)
	}
}

func TestBookingMessage(t *testing.T) {
	got := BookingMessage("Maya", "Vinyasa", "Tuesday")
	want := "Hi! I'd like to book Vinyasa on Tuesday. My name is Maya."
	if got != want {
		t.Errorf("BookingMessage = %q; want %q", got, want)
	}

	got = BookingMessage("", "Vinyasa", "")
	if got != "Hi! I'd like to book Vinyasa." {
		t.Errorf("BookingMessage minimal = %q", got)
	}
}
