// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package model

import (
	"database/sql"
	"time"
)

// User roles, ordered from least to most privileged.
const (
	RoleGuest      = "guest"
	RoleUser       = "user"
	RoleAdmin      = "admin"
	RoleSuperAdmin = "superadmin"
)

// roleLevels maps each role to its rank in the privilege order.
var roleLevels = map[string]int{
	RoleGuest:      0,
	RoleUser:       1,
	RoleAdmin:      2,
	RoleSuperAdmin: 3,
}

// RoleAtLeast reports whether role has at least the privileges of min.
// Unknown roles rank below guest.
func RoleAtLeast(role, min string) bool {
	rl, ok := roleLevels[role]
	if !ok {
		return false
	}
	ml, ok := roleLevels[min]
	if !ok {
		return false
	}
	return rl >= ml
}

// User represents a site account.
type User struct {
	ID           int64        `json:"id"`
	Username     string       `json:"username"`
	Email        string       `json:"email"`
	PasswordHash string       `json:"-"` // Never expose in JSON
	Role         string       `json:"role"`
	Name         string       `json:"name,omitempty"`
	CreatedAt    time.Time    `json:"created_at"`
	UpdatedAt    time.Time    `json:"updated_at"`
	LastLoginAt  sql.NullTime `json:"last_login_at,omitempty"`
}

// IsAdmin returns true if the user can access the admin panel.
func (u *User) IsAdmin() bool {
	return u.Role == RoleAdmin || u.Role == RoleSuperAdmin
}

// CanManageUsers returns true if the user can create or delete accounts.
func (u *User) CanManageUsers() bool {
	return u.Role == RoleSuperAdmin
}
