package users

import (
	"context"
	"errors"
)

var (
	// ErrNotFound indicates no record exists for the given uid.
	ErrNotFound = errors.New("user not found")
	// ErrInvalidArgument indicates a write was rejected before touching the store.
	ErrInvalidArgument = errors.New("invalid argument")
	// ErrUnavailable wraps unexpected store failures.
	ErrUnavailable = errors.New("user store unavailable")
)

// Seed carries the principal fields used when a record is created lazily.
type Seed struct {
	Email       string
	DisplayName string
}

// ProfileUpdate is a merge-set of profile fields; nil means leave untouched.
type ProfileUpdate struct {
	DisplayName *string
	PhotoURL    *string
}

// PreferencesPatch is a partial preference update; nil means leave untouched.
type PreferencesPatch struct {
	Categories           *[]string
	DigestFrequency      *string
	NotificationsEnabled *bool
}

// Repository defines persistence operations for user records. All operations
// key on uid; each write is a single atomic document update.
type Repository interface {
	// FindByUID is a pure lookup; ErrNotFound when absent.
	FindByUID(ctx context.Context, uid string) (*User, error)

	// FindOrCreate creates a record with seed fields and preference defaults
	// when absent; an existing record is returned unchanged.
	FindOrCreate(ctx context.Context, uid string, seed Seed) (*User, error)

	// TouchLogin sets lastLogin to now. Absent records are a no-op.
	TouchLogin(ctx context.Context, uid string) error

	// UpsertProfileFields merge-sets only the supplied profile fields,
	// creating the record with defaults when absent. Always refreshes
	// lastLogin and updatedAt.
	UpsertProfileFields(ctx context.Context, uid string, seed Seed, fields ProfileUpdate) (*User, error)

	// ReplacePreferences replaces the whole preferences sub-document,
	// creating the record when absent (seeding email from the caller).
	ReplacePreferences(ctx context.Context, uid string, email string, prefs Preferences) (*User, error)

	// PatchPreferences merges only the supplied sub-fields. Unlike the other
	// writes it does not create: ErrNotFound when no record exists.
	PatchPreferences(ctx context.Context, uid string, patch PreferencesPatch) (*User, error)

	// AppendHistory appends {digestID, now} unless digestID is already
	// recorded, creating the record when absent. Returns the full history.
	AppendHistory(ctx context.Context, uid string, seed Seed, digestID string) ([]HistoryEntry, error)

	// GetHistory returns the read history, empty (not an error) when the
	// record does not exist.
	GetHistory(ctx context.Context, uid string) ([]HistoryEntry, error)
}
