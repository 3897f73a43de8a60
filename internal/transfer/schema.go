// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package transfer implements content export and import for backups
// and site migrations. Exports read through the entity services, so a
// backup succeeds even while the remote store is down; imports write
// through them, so imported content follows the same mirror-and-outbox
// path as admin edits.
package transfer

import (
	"time"

	"github.com/shaktiyoga/studio/internal/model"
)

// ExportVersion is the current export format version.
const ExportVersion = 1

// ExportData is the complete serialized site content.
type ExportData struct {
	Version    int       `json:"version"`
	ExportedAt time.Time `json:"exported_at"`

	Gallery     []model.GalleryImage `json:"gallery,omitempty"`
	Articles    []model.Article      `json:"articles,omitempty"`
	Bookings    []model.Booking      `json:"bookings,omitempty"`
	Classes     []model.Class        `json:"classes,omitempty"`
	Events      []model.StudioEvent  `json:"events,omitempty"`
	Instructors []model.Instructor   `json:"instructors,omitempty"`
	Products    []model.Product      `json:"products,omitempty"`
	Programs    []model.Program      `json:"programs,omitempty"`

	About   *model.AboutContent   `json:"about,omitempty"`
	Contact *model.ContactContent `json:"contact,omitempty"`
	Popup   *model.PopupSettings  `json:"popup,omitempty"`
}

// ExportOptions selects what goes into an export.
type ExportOptions struct {
	IncludeBookings bool // visitor PII, off by default
}

// ImportOptions controls import behavior.
type ImportOptions struct {
	// SkipExisting leaves records whose id is already present
	// untouched. When false, existing records are overwritten.
	SkipExisting bool
}

// ImportStats reports what an import did.
type ImportStats struct {
	Created    int `json:"created"`
	Updated    int `json:"updated"`
	Skipped    int `json:"skipped"`
	Singletons int `json:"singletons"`
}
