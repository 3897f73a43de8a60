// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package render converts article markdown to sanitized HTML for the
// public site.
package render

import (
	"bytes"
	"html/template"
	"strings"

	"github.com/microcosm-cc/bluemonday"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
)

// htmlSanitizer strips dangerous elements like <script> and event
// handlers while keeping safe user-generated markup.
var htmlSanitizer = bluemonday.UGCPolicy()

// md is the shared goldmark instance. GFM covers the tables and
// strikethrough admins paste from editors.
var md = goldmark.New(goldmark.WithExtensions(extension.GFM))

// Markdown converts markdown source to sanitized HTML. Conversion
// errors yield the escaped source rather than failing the page.
func Markdown(source string) template.HTML {
	var buf bytes.Buffer
	if err := md.Convert([]byte(source), &buf); err != nil {
		return template.HTML(template.HTMLEscapeString(source)) //nolint:gosec // escaped above
	}
	return template.HTML(htmlSanitizer.SanitizeBytes(buf.Bytes())) //nolint:gosec // sanitized above
}

// Excerpt returns a plain-text excerpt of the markdown source, cut at
// the first paragraph break or maxLen runes, whichever comes first.
func Excerpt(source string, maxLen int) string {
	text := source
	if i := strings.Index(text, "\n\n"); i > 0 {
		text = text[:i]
	}

	// Drop the most common markdown markers for a plain preview.
	replacer := strings.NewReplacer("#", "", "*", "", "_", "", "`", "", ">", "")
	text = strings.TrimSpace(replacer.Replace(text))

	runes := []rune(text)
	if len(runes) <= maxLen {
		return text
	}
	return strings.TrimSpace(string(runes[:maxLen])) + "…"
}
