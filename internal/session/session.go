package session

import (
	"context"
	"database/sql"
	"net/http"
	"time"

	"github.com/alexedwards/scs/sqlite3store"
	"github.com/alexedwards/scs/v2"

	"github.com/shaktiyoga/studio/internal/model"
)

// Session keys.
const (
	keyUserID   = "user_id"
	keyUsername = "username"
	keyRole     = "role"
)

// New creates a new session manager configured with SQLite store.
func New(db *sql.DB, isDev bool) *scs.SessionManager {
	sm := scs.New()

	sm.Store = sqlite3store.New(db)

	sm.Lifetime = 24 * time.Hour
	sm.Cookie.HttpOnly = true
	sm.Cookie.SameSite = http.SameSiteLaxMode
	sm.Cookie.Secure = !isDev // Secure cookies in production only

	return sm
}

// Login stores the authenticated user in the session. The session token
// is renewed to prevent fixation.
func Login(ctx context.Context, sm *scs.SessionManager, user model.User) error {
	if err := sm.RenewToken(ctx); err != nil {
		return err
	}
	sm.Put(ctx, keyUserID, user.ID)
	sm.Put(ctx, keyUsername, user.Username)
	sm.Put(ctx, keyRole, user.Role)
	return nil
}

// Logout clears the session.
func Logout(ctx context.Context, sm *scs.SessionManager) error {
	return sm.Destroy(ctx)
}

// UserID returns the logged-in user's id, or 0 when anonymous.
func UserID(ctx context.Context, sm *scs.SessionManager) int64 {
	id, _ := sm.Get(ctx, keyUserID).(int64)
	return id
}

// Username returns the logged-in user's username, or "".
func Username(ctx context.Context, sm *scs.SessionManager) string {
	name, _ := sm.Get(ctx, keyUsername).(string)
	return name
}

// Role returns the logged-in user's role. Anonymous visitors get the
// guest role.
func Role(ctx context.Context, sm *scs.SessionManager) string {
	role, _ := sm.Get(ctx, keyRole).(string)
	if role == "" {
		return model.RoleGuest
	}
	return role
}

// IsAuthenticated reports whether a user is logged in.
func IsAuthenticated(ctx context.Context, sm *scs.SessionManager) bool {
	return UserID(ctx, sm) != 0
}
