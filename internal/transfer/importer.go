// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package transfer

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"

	"github.com/shaktiyoga/studio/internal/content"
	"github.com/shaktiyoga/studio/internal/entity"
)

// maxImportBytes caps import payloads to guard against decompression
// bombs and runaway uploads.
const maxImportBytes = 64 << 20 // 64MB

// Importer loads exported content back into the site.
type Importer struct {
	registry *content.Registry
	logger   *slog.Logger
}

// NewImporter creates a new Importer instance.
func NewImporter(registry *content.Registry, logger *slog.Logger) *Importer {
	if logger == nil {
		logger = slog.Default()
	}
	return &Importer{registry: registry, logger: logger}
}

// ReadJSON parses an export stream and imports it.
func (i *Importer) ReadJSON(ctx context.Context, r io.Reader, opts ImportOptions) (*ImportStats, error) {
	var data ExportData
	dec := json.NewDecoder(io.LimitReader(r, maxImportBytes))
	if err := dec.Decode(&data); err != nil {
		return nil, fmt.Errorf("decoding import: %w", err)
	}
	return i.Import(ctx, &data, opts)
}

// Import writes the export's content through the entity services.
// Writes follow the normal service path: if the remote store is down
// they land in the mirror and queue for replay.
func (i *Importer) Import(ctx context.Context, data *ExportData, opts ImportOptions) (*ImportStats, error) {
	if data.Version != ExportVersion {
		return nil, fmt.Errorf("unsupported export version %d (want %d)", data.Version, ExportVersion)
	}

	stats := &ImportStats{}

	importCollection(ctx, i.registry.Gallery, data.Gallery, opts, stats)
	importCollection(ctx, i.registry.Articles, data.Articles, opts, stats)
	importCollection(ctx, i.registry.Bookings, data.Bookings, opts, stats)
	importCollection(ctx, i.registry.Classes, data.Classes, opts, stats)
	importCollection(ctx, i.registry.Events, data.Events, opts, stats)
	importCollection(ctx, i.registry.Instructors, data.Instructors, opts, stats)
	importCollection(ctx, i.registry.Products, data.Products, opts, stats)
	importCollection(ctx, i.registry.Programs, data.Programs, opts, stats)

	if data.About != nil {
		i.registry.About.Save(ctx, *data.About)
		stats.Singletons++
	}
	if data.Contact != nil {
		i.registry.Contact.Save(ctx, *data.Contact)
		stats.Singletons++
	}
	if data.Popup != nil {
		i.registry.Popup.Save(ctx, *data.Popup)
		stats.Singletons++
	}

	i.logger.Info("content imported",
		"created", stats.Created,
		"updated", stats.Updated,
		"skipped", stats.Skipped,
		"singletons", stats.Singletons)

	return stats, nil
}

// importCollection merges one entity's records into its service.
func importCollection[T any](ctx context.Context, svc *entity.Service[T], records []T, opts ImportOptions, stats *ImportStats) {
	if len(records) == 0 {
		return
	}

	existing := make(map[string]bool)
	for _, rec := range svc.GetAll(ctx) {
		existing[svc.IDOf(rec)] = true
	}

	for _, rec := range records {
		id := svc.IDOf(rec)
		switch {
		case id == "" || !existing[id]:
			svc.Create(ctx, rec)
			stats.Created++
		case opts.SkipExisting:
			stats.Skipped++
		default:
			fields, err := recordFields(rec)
			if err != nil {
				stats.Skipped++
				continue
			}
			svc.Update(ctx, id, fields)
			stats.Updated++
		}
	}
}

// recordFields flattens a record into the partial-update form.
func recordFields(rec any) (map[string]any, error) {
	raw, err := json.Marshal(rec)
	if err != nil {
		return nil, err
	}
	var fields map[string]any
	if err := json.Unmarshal(raw, &fields); err != nil {
		return nil, err
	}
	delete(fields, "id")
	return fields, nil
}
