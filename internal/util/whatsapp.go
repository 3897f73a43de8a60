// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package util

import (
	"net/url"
	"strings"
)

// NormalizePhone strips everything but digits from a phone number, so
// "+62 812-345-6789" becomes "628123456789" as wa.me expects.
func NormalizePhone(number string) string {
	var b strings.Builder
	for _, r := range number {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// WhatsAppLink builds a wa.me deep link to the given number with an
// optional prefilled message. Returns "" when the number has no digits.
func WhatsAppLink(number, message string) string {
	digits := NormalizePhone(number)
	if digits == "" {
		return ""
	}

	link := "https://wa.me/" + digits
	if message != "" {
		link += "?text=" + url.QueryEscape(message)
	}
	return link
}

// BookingMessage composes the prefilled WhatsApp text for a class
// booking request.
func BookingMessage(name, className, date string) string {
	var b strings.Builder
	b.WriteString("Hi! I'd like to book ")
	b.WriteString(className)
	if date != "" {
		b.WriteString(" on ")
		b.WriteString(date)
	}
	if name != "" {
		b.WriteString(". My name is ")
		b.WriteString(name)
	}
	b.WriteString(".")
	return b.String()
}
