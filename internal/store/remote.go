// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

// SQLRemote adapts one content_records entity to the generic Remote
// contract: records travel as JSON documents, listed newest first.
type SQLRemote[T any] struct {
	queries *Queries
	entity  string

	// id extracts the record identifier for insert bookkeeping.
	id func(T) string
	// createdAt extracts the creation time used for list ordering.
	createdAt func(T) time.Time
}

// NewSQLRemote creates a remote adapter for one collection entity.
func NewSQLRemote[T any](queries *Queries, entity string, id func(T) string, createdAt func(T) time.Time) *SQLRemote[T] {
	return &SQLRemote[T]{
		queries:   queries,
		entity:    entity,
		id:        id,
		createdAt: createdAt,
	}
}

// List returns every record of the entity, newest first.
func (r *SQLRemote[T]) List(ctx context.Context) ([]T, error) {
	rows, err := r.queries.ListContentRecords(ctx, r.entity)
	if err != nil {
		return nil, err
	}

	out := make([]T, 0, len(rows))
	for _, row := range rows {
		var rec T
		if err := json.Unmarshal(row.Data, &rec); err != nil {
			return nil, fmt.Errorf("decoding %s record %s: %w", r.entity, row.ID, err)
		}
		out = append(out, rec)
	}
	return out, nil
}

// Insert stores a new record.
func (r *SQLRemote[T]) Insert(ctx context.Context, rec T) error {
	data, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("encoding %s record: %w", r.entity, err)
	}

	createdAt := r.createdAt(rec)
	if createdAt.IsZero() {
		createdAt = time.Now()
	}

	return r.queries.InsertContentRecord(ctx, ContentRow{
		Entity:    r.entity,
		ID:        r.id(rec),
		Data:      data,
		CreatedAt: createdAt,
	})
}

// Update shallow-merges fields over the stored document. Updating a
// missing record is a no-op, matching the mirror-side merge semantics.
func (r *SQLRemote[T]) Update(ctx context.Context, id string, fields map[string]any) error {
	row, err := r.queries.GetContentRecord(ctx, r.entity, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil
		}
		return fmt.Errorf("loading %s record %s: %w", r.entity, id, err)
	}

	var doc map[string]any
	if err := json.Unmarshal(row.Data, &doc); err != nil {
		return fmt.Errorf("decoding %s record %s: %w", r.entity, id, err)
	}
	for k, v := range fields {
		doc[k] = v
	}
	doc["id"] = id // the identifier is immutable

	data, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("encoding %s record %s: %w", r.entity, id, err)
	}

	if err := r.queries.ReplaceContentRecordData(ctx, r.entity, id, data); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil
		}
		return err
	}
	return nil
}

// Delete removes the record by id.
func (r *SQLRemote[T]) Delete(ctx context.Context, id string) error {
	return r.queries.DeleteContentRecord(ctx, r.entity, id)
}

// SQLSingleton adapts one singleton_records entity to the generic
// SingletonRemote contract.
type SQLSingleton[T any] struct {
	queries *Queries
	entity  string
}

// NewSQLSingleton creates a remote adapter for one singleton entity.
func NewSQLSingleton[T any](queries *Queries, entity string) *SQLSingleton[T] {
	return &SQLSingleton[T]{queries: queries, entity: entity}
}

// Fetch returns the singleton, or exists=false when no row is present.
func (r *SQLSingleton[T]) Fetch(ctx context.Context) (T, bool, error) {
	var value T

	data, err := r.queries.GetSingletonRecord(ctx, r.entity)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return value, false, nil
		}
		return value, false, fmt.Errorf("loading %s singleton: %w", r.entity, err)
	}

	if err := json.Unmarshal(data, &value); err != nil {
		return value, false, fmt.Errorf("decoding %s singleton: %w", r.entity, err)
	}
	return value, true, nil
}

// Upsert replaces the singleton document.
func (r *SQLSingleton[T]) Upsert(ctx context.Context, v T) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encoding %s singleton: %w", r.entity, err)
	}
	return r.queries.UpsertSingletonRecord(ctx, r.entity, data)
}
