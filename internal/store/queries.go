// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/shaktiyoga/studio/internal/model"
)

// Queries provides typed access to the store tables.
type Queries struct {
	db *sql.DB
}

// New creates a Queries instance over the given database.
func New(db *sql.DB) *Queries {
	return &Queries{db: db}
}

// DB exposes the underlying handle for health checks and transactions.
func (q *Queries) DB() *sql.DB {
	return q.db
}

// =============================================================================
// CONTENT RECORDS (collection entities, one JSON document per row)
// =============================================================================

// ContentRow is one collection record as stored.
type ContentRow struct {
	Entity    string
	ID        string
	Data      []byte
	CreatedAt time.Time
}

// ListContentRecords returns every record of an entity, newest first.
func (q *Queries) ListContentRecords(ctx context.Context, entity string) ([]ContentRow, error) {
	rows, err := q.db.QueryContext(ctx,
		`SELECT entity, id, data, created_at FROM content_records
		 WHERE entity = ? ORDER BY created_at DESC, id DESC`, entity)
	if err != nil {
		return nil, fmt.Errorf("listing %s records: %w", entity, err)
	}
	defer func() { _ = rows.Close() }()

	var out []ContentRow
	for rows.Next() {
		var r ContentRow
		if err := rows.Scan(&r.Entity, &r.ID, &r.Data, &r.CreatedAt); err != nil {
			return nil, fmt.Errorf("scanning %s record: %w", entity, err)
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// GetContentRecord returns one record by id.
func (q *Queries) GetContentRecord(ctx context.Context, entity, id string) (ContentRow, error) {
	var r ContentRow
	err := q.db.QueryRowContext(ctx,
		`SELECT entity, id, data, created_at FROM content_records
		 WHERE entity = ? AND id = ?`, entity, id).
		Scan(&r.Entity, &r.ID, &r.Data, &r.CreatedAt)
	return r, err
}

// InsertContentRecord stores a new record.
func (q *Queries) InsertContentRecord(ctx context.Context, r ContentRow) error {
	_, err := q.db.ExecContext(ctx,
		`INSERT INTO content_records (entity, id, data, created_at) VALUES (?, ?, ?, ?)`,
		r.Entity, r.ID, r.Data, r.CreatedAt)
	if err != nil {
		return fmt.Errorf("inserting %s record %s: %w", r.Entity, r.ID, err)
	}
	return nil
}

// ReplaceContentRecordData overwrites a record's document.
func (q *Queries) ReplaceContentRecordData(ctx context.Context, entity, id string, data []byte) error {
	res, err := q.db.ExecContext(ctx,
		`UPDATE content_records SET data = ? WHERE entity = ? AND id = ?`,
		data, entity, id)
	if err != nil {
		return fmt.Errorf("updating %s record %s: %w", entity, id, err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// DeleteContentRecord removes a record by id. Deleting a missing
// record is not an error.
func (q *Queries) DeleteContentRecord(ctx context.Context, entity, id string) error {
	_, err := q.db.ExecContext(ctx,
		`DELETE FROM content_records WHERE entity = ? AND id = ?`, entity, id)
	if err != nil {
		return fmt.Errorf("deleting %s record %s: %w", entity, id, err)
	}
	return nil
}

// =============================================================================
// SINGLETON RECORDS
// =============================================================================

// GetSingletonRecord returns the singleton document for an entity.
// Returns sql.ErrNoRows when none exists yet.
func (q *Queries) GetSingletonRecord(ctx context.Context, entity string) ([]byte, error) {
	var data []byte
	err := q.db.QueryRowContext(ctx,
		`SELECT data FROM singleton_records WHERE entity = ?`, entity).Scan(&data)
	return data, err
}

// UpsertSingletonRecord replaces the singleton document. Implemented
// as delete-all-then-insert inside one transaction so the single-row
// invariant holds even if earlier writes left duplicates behind.
func (q *Queries) UpsertSingletonRecord(ctx context.Context, entity string, data []byte) error {
	tx, err := q.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning upsert of %s: %w", entity, err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx,
		`DELETE FROM singleton_records WHERE entity = ?`, entity); err != nil {
		return fmt.Errorf("clearing %s singleton: %w", entity, err)
	}
	if _, err := tx.ExecContext(ctx,
		`INSERT INTO singleton_records (entity, data, updated_at) VALUES (?, ?, ?)`,
		entity, data, time.Now()); err != nil {
		return fmt.Errorf("inserting %s singleton: %w", entity, err)
	}

	return tx.Commit()
}

// =============================================================================
// USERS
// =============================================================================

// CreateUserParams holds the fields for a new user.
type CreateUserParams struct {
	Username     string
	Email        string
	PasswordHash string
	Role         string
	Name         string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

const userColumns = `id, username, email, password_hash, role, name, created_at, updated_at, last_login_at`

func scanUser(row interface{ Scan(...any) error }) (model.User, error) {
	var u model.User
	err := row.Scan(&u.ID, &u.Username, &u.Email, &u.PasswordHash, &u.Role,
		&u.Name, &u.CreatedAt, &u.UpdatedAt, &u.LastLoginAt)
	return u, err
}

// CreateUser inserts a user and returns it with its assigned id.
func (q *Queries) CreateUser(ctx context.Context, p CreateUserParams) (model.User, error) {
	res, err := q.db.ExecContext(ctx,
		`INSERT INTO users (username, email, password_hash, role, name, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		p.Username, p.Email, p.PasswordHash, p.Role, p.Name, p.CreatedAt, p.UpdatedAt)
	if err != nil {
		return model.User{}, fmt.Errorf("creating user %s: %w", p.Username, err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return model.User{}, fmt.Errorf("reading new user id: %w", err)
	}
	return q.GetUserByID(ctx, id)
}

// GetUserByID returns one user by id.
func (q *Queries) GetUserByID(ctx context.Context, id int64) (model.User, error) {
	return scanUser(q.db.QueryRowContext(ctx,
		`SELECT `+userColumns+` FROM users WHERE id = ?`, id))
}

// GetUserByUsername returns one user by username.
func (q *Queries) GetUserByUsername(ctx context.Context, username string) (model.User, error) {
	return scanUser(q.db.QueryRowContext(ctx,
		`SELECT `+userColumns+` FROM users WHERE username = ?`, username))
}

// GetUserByEmail returns one user by email.
func (q *Queries) GetUserByEmail(ctx context.Context, email string) (model.User, error) {
	return scanUser(q.db.QueryRowContext(ctx,
		`SELECT `+userColumns+` FROM users WHERE email = ?`, email))
}

// ListUsers returns all users, oldest first.
func (q *Queries) ListUsers(ctx context.Context) ([]model.User, error) {
	rows, err := q.db.QueryContext(ctx,
		`SELECT `+userColumns+` FROM users ORDER BY created_at ASC`)
	if err != nil {
		return nil, fmt.Errorf("listing users: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var out []model.User
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning user: %w", err)
		}
		out = append(out, u)
	}
	return out, rows.Err()
}

// UpdateUserRole changes a user's role.
func (q *Queries) UpdateUserRole(ctx context.Context, id int64, role string) error {
	_, err := q.db.ExecContext(ctx,
		`UPDATE users SET role = ?, updated_at = ? WHERE id = ?`, role, time.Now(), id)
	return err
}

// UpdateUserPassword changes a user's password hash.
func (q *Queries) UpdateUserPassword(ctx context.Context, id int64, passwordHash string) error {
	_, err := q.db.ExecContext(ctx,
		`UPDATE users SET password_hash = ?, updated_at = ? WHERE id = ?`,
		passwordHash, time.Now(), id)
	return err
}

// TouchLastLogin records a successful login.
func (q *Queries) TouchLastLogin(ctx context.Context, id int64) error {
	_, err := q.db.ExecContext(ctx,
		`UPDATE users SET last_login_at = ? WHERE id = ?`, time.Now(), id)
	return err
}

// DeleteUser removes a user.
func (q *Queries) DeleteUser(ctx context.Context, id int64) error {
	_, err := q.db.ExecContext(ctx, `DELETE FROM users WHERE id = ?`, id)
	return err
}

// =============================================================================
// AUDIT LOG
// =============================================================================

// CreateAuditEntryParams holds the fields for one audit row.
type CreateAuditEntryParams struct {
	Level     string
	Category  string
	Message   string
	UserID    sql.NullInt64
	Metadata  string
	IPAddress string
	CreatedAt time.Time
}

// CreateAuditEntry appends a row to the audit log.
func (q *Queries) CreateAuditEntry(ctx context.Context, p CreateAuditEntryParams) error {
	_, err := q.db.ExecContext(ctx,
		`INSERT INTO audit_log (level, category, message, user_id, metadata, ip_address, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		p.Level, p.Category, p.Message, p.UserID, p.Metadata, p.IPAddress, p.CreatedAt)
	return err
}

// ListRecentAuditEntries returns the newest entries up to limit.
func (q *Queries) ListRecentAuditEntries(ctx context.Context, limit int64) ([]model.AuditEntry, error) {
	rows, err := q.db.QueryContext(ctx,
		`SELECT id, level, category, message, user_id, metadata, ip_address, created_at
		 FROM audit_log ORDER BY created_at DESC, id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("listing audit entries: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var out []model.AuditEntry
	for rows.Next() {
		var e model.AuditEntry
		if err := rows.Scan(&e.ID, &e.Level, &e.Category, &e.Message,
			&e.UserID, &e.Metadata, &e.IPAddress, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("scanning audit entry: %w", err)
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

// DeleteOldAuditEntries removes entries created before cutoff.
func (q *Queries) DeleteOldAuditEntries(ctx context.Context, cutoff time.Time) error {
	_, err := q.db.ExecContext(ctx,
		`DELETE FROM audit_log WHERE created_at < ?`, cutoff)
	return err
}

// =============================================================================
// VISITS
// =============================================================================

// InsertVisitParams holds one tracked pageview.
type InsertVisitParams struct {
	Path      string
	Browser   string
	OS        string
	Device    string
	CreatedAt time.Time
}

// InsertVisit records a pageview.
func (q *Queries) InsertVisit(ctx context.Context, p InsertVisitParams) error {
	_, err := q.db.ExecContext(ctx,
		`INSERT INTO visits (path, browser, os, device, created_at) VALUES (?, ?, ?, ?, ?)`,
		p.Path, p.Browser, p.OS, p.Device, p.CreatedAt)
	return err
}

// VisitCount is one aggregated row of the visit summary.
type VisitCount struct {
	Key   string
	Count int64
}

// CountVisitsSince returns the total pageviews since cutoff.
func (q *Queries) CountVisitsSince(ctx context.Context, cutoff time.Time) (int64, error) {
	var n int64
	err := q.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM visits WHERE created_at >= ?`, cutoff).Scan(&n)
	return n, err
}

// TopPagesSince returns the most visited paths since cutoff.
func (q *Queries) TopPagesSince(ctx context.Context, cutoff time.Time, limit int64) ([]VisitCount, error) {
	return q.visitBreakdown(ctx, "path", cutoff, limit)
}

// DeviceBreakdownSince returns pageview counts grouped by device class.
func (q *Queries) DeviceBreakdownSince(ctx context.Context, cutoff time.Time, limit int64) ([]VisitCount, error) {
	return q.visitBreakdown(ctx, "device", cutoff, limit)
}

// BrowserBreakdownSince returns pageview counts grouped by browser.
func (q *Queries) BrowserBreakdownSince(ctx context.Context, cutoff time.Time, limit int64) ([]VisitCount, error) {
	return q.visitBreakdown(ctx, "browser", cutoff, limit)
}

// visitBreakdown groups visits by one of the fixed columns.
func (q *Queries) visitBreakdown(ctx context.Context, column string, cutoff time.Time, limit int64) ([]VisitCount, error) {
	// column is one of the constants above, never user input
	query := fmt.Sprintf(
		`SELECT %s, COUNT(*) AS n FROM visits WHERE created_at >= ?
		 GROUP BY %s ORDER BY n DESC LIMIT ?`, column, column)

	rows, err := q.db.QueryContext(ctx, query, cutoff, limit)
	if err != nil {
		return nil, fmt.Errorf("aggregating visits by %s: %w", column, err)
	}
	defer func() { _ = rows.Close() }()

	var out []VisitCount
	for rows.Next() {
		var vc VisitCount
		if err := rows.Scan(&vc.Key, &vc.Count); err != nil {
			return nil, fmt.Errorf("scanning visit count: %w", err)
		}
		out = append(out, vc)
	}
	return out, rows.Err()
}
