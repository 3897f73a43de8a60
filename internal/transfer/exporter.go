// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package transfer

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/shaktiyoga/studio/internal/content"
)

// Exporter serializes site content to the export format.
type Exporter struct {
	registry *content.Registry
	logger   *slog.Logger
}

// NewExporter creates a new Exporter instance.
func NewExporter(registry *content.Registry, logger *slog.Logger) *Exporter {
	if logger == nil {
		logger = slog.Default()
	}
	return &Exporter{registry: registry, logger: logger}
}

// Export collects every entity into an ExportData structure. Reads go
// through the entity services and never fail; with the remote store
// down the export carries the mirror snapshot.
func (e *Exporter) Export(ctx context.Context, opts ExportOptions) *ExportData {
	data := &ExportData{
		Version:    ExportVersion,
		ExportedAt: time.Now().UTC(),

		Gallery:     e.registry.Gallery.GetAll(ctx),
		Articles:    e.registry.Articles.GetAll(ctx),
		Classes:     e.registry.Classes.GetAll(ctx),
		Events:      e.registry.Events.GetAll(ctx),
		Instructors: e.registry.Instructors.GetAll(ctx),
		Products:    e.registry.Products.GetAll(ctx),
		Programs:    e.registry.Programs.GetAll(ctx),
	}

	if opts.IncludeBookings {
		data.Bookings = e.registry.Bookings.GetAll(ctx)
	}

	about := e.registry.About.Get(ctx)
	contact := e.registry.Contact.Get(ctx)
	popup := e.registry.Popup.Get(ctx)
	data.About = &about
	data.Contact = &contact
	data.Popup = &popup

	e.logger.Info("content exported",
		"gallery", len(data.Gallery),
		"articles", len(data.Articles),
		"classes", len(data.Classes),
		"bookings", len(data.Bookings))

	return data
}

// WriteJSON exports and streams the result as indented JSON.
func (e *Exporter) WriteJSON(ctx context.Context, w io.Writer, opts ExportOptions) error {
	data := e.Export(ctx, opts)

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(data); err != nil {
		return fmt.Errorf("encoding export: %w", err)
	}
	return nil
}
