// Package store persists users, the message audit trail, and per-day logs.
// Daily log writes are merges serialized per (user, date) so concurrent
// deliveries cannot drop each other's fields.
package store

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/Sana-Rashid-135/coach/internal/models"
)

// ErrConflict is returned when a concurrent write on the same key could not
// be resolved after a retry with a fresh read.
var ErrConflict = errors.New("concurrent write conflict")

// ErrNotFound is returned by lookups that matched no row.
var ErrNotFound = errors.New("record not found")

// DailyLogPatch carries the fields one upsert call supplies. Nil fields are
// left untouched in the stored record.
type DailyLogPatch struct {
	Morning  json.RawMessage
	Evening  json.RawMessage
	PlanText *string
}

// Store is the persistence contract the pipeline depends on. The gorm
// implementation lives in this package; tests substitute fakes.
type Store interface {
	// GetUserByPhone looks up a user by any phone form; the handle is
	// normalized before the query. Returns ErrNotFound when absent.
	GetUserByPhone(ctx context.Context, phone string) (*models.User, error)

	// GetOrCreateUser is idempotent on the normalized phone. A concurrent
	// create racing on the unique phone index resolves to the winning row.
	GetOrCreateUser(ctx context.Context, phone, name string) (*models.User, error)

	// LogMessage appends one entry to the audit trail.
	LogMessage(ctx context.Context, userID uint, direction, body, providerSID string) (*models.Message, error)

	// GetDailyLog returns the record for (userID, date) or ErrNotFound.
	GetDailyLog(ctx context.Context, userID uint, date string) (*models.DailyLog, error)

	// UpsertDailyLog merges the patch into the (userID, date) record,
	// creating it if absent. Supplied fields overwrite, absent fields keep
	// their stored value, and updated_at is always bumped.
	UpsertDailyLog(ctx context.Context, userID uint, date string, patch DailyLogPatch) (*models.DailyLog, error)

	// SetLastCheckinAt records when the user last completed a check-in.
	SetLastCheckinAt(ctx context.Context, userID uint, at time.Time) error

	// ListUsers returns all active users, for the reminder sweep.
	ListUsers(ctx context.Context) ([]models.User, error)
}
