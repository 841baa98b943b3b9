package users

import (
	"context"
	"fmt"
	"time"

	"github.com/aidigest/aidigest/backend/go-services/internal/auth"
	"github.com/aidigest/aidigest/backend/go-services/pkg/logger"
)

// Service combines the caller's Principal with the Repository and applies the
// response-shaping policy: read paths degrade to defaulted values so the
// reading experience stays available, write paths surface store failures so
// the client knows whether its write landed.
type Service struct {
	repo Repository
}

func NewService(r Repository) *Service {
	return &Service{repo: r}
}

// Profile is the client-facing profile shape. Preferences is always populated,
// never null, even when the underlying record is missing.
type Profile struct {
	UID         string      `json:"uid"`
	Email       string      `json:"email"`
	DisplayName string      `json:"displayName"`
	PhotoURL    string      `json:"photoURL,omitempty"`
	Preferences Preferences `json:"preferences"`
	LastLogin   time.Time   `json:"lastLogin"`
}

func profileOf(p *auth.Principal, u *User) *Profile {
	return &Profile{
		UID:         p.UID,
		Email:       p.Email,
		DisplayName: u.DisplayName,
		PhotoURL:    u.PhotoURL,
		Preferences: u.Preferences,
		LastLogin:   u.LastLogin,
	}
}

func defaultProfile(p *auth.Principal) *Profile {
	return &Profile{
		UID:         p.UID,
		Email:       p.Email,
		DisplayName: "",
		Preferences: DefaultPreferences(),
		LastLogin:   time.Now().UTC(),
	}
}

// GetProfile returns the caller's profile, creating the record lazily on
// first access. Store failures degrade to a defaulted profile.
func (s *Service) GetProfile(ctx context.Context, p *auth.Principal) *Profile {
	u, err := s.repo.FindOrCreate(ctx, p.UID, Seed{Email: p.Email, DisplayName: p.DisplayName})
	if err != nil {
		logger.Errorf("profile read degraded for uid=%s: %v", p.UID, err)
		return defaultProfile(p)
	}
	return profileOf(p, u)
}

// UpdateProfile merge-sets the supplied profile fields.
func (s *Service) UpdateProfile(ctx context.Context, p *auth.Principal, fields ProfileUpdate) (*Profile, error) {
	u, err := s.repo.UpsertProfileFields(ctx, p.UID, Seed{Email: p.Email, DisplayName: p.DisplayName}, fields)
	if err != nil {
		return nil, err
	}
	return profileOf(p, u), nil
}

// GetPreferences returns the caller's preferences, defaulted when the record
// is absent or the store is unavailable.
func (s *Service) GetPreferences(ctx context.Context, p *auth.Principal) Preferences {
	u, err := s.repo.FindByUID(ctx, p.UID)
	if err != nil {
		if err != ErrNotFound {
			logger.Errorf("preferences read degraded for uid=%s: %v", p.UID, err)
		}
		return DefaultPreferences()
	}
	return u.Preferences
}

// ReplacePreferences replaces the whole preferences sub-document; fields
// omitted from the request fall back to defaults.
func (s *Service) ReplacePreferences(ctx context.Context, p *auth.Principal, in PreferencesPatch) (Preferences, error) {
	prefs := DefaultPreferences()
	if in.Categories != nil {
		prefs.Categories = *in.Categories
	}
	if in.DigestFrequency != nil && *in.DigestFrequency != "" {
		prefs.DigestFrequency = *in.DigestFrequency
	}
	if in.NotificationsEnabled != nil {
		prefs.NotificationsEnabled = *in.NotificationsEnabled
	}
	u, err := s.repo.ReplacePreferences(ctx, p.UID, p.Email, prefs)
	if err != nil {
		return Preferences{}, err
	}
	return u.Preferences, nil
}

// PatchPreferences merges only the supplied sub-fields. digestFrequency, if
// present, must be daily or weekly; validation happens before any write.
func (s *Service) PatchPreferences(ctx context.Context, p *auth.Principal, patch PreferencesPatch) (Preferences, error) {
	if patch.DigestFrequency != nil {
		if f := *patch.DigestFrequency; f != FrequencyDaily && f != FrequencyWeekly {
			return Preferences{}, fmt.Errorf("%w: digest frequency must be %q or %q", ErrInvalidArgument, FrequencyDaily, FrequencyWeekly)
		}
	}
	u, err := s.repo.PatchPreferences(ctx, p.UID, patch)
	if err != nil {
		return Preferences{}, err
	}
	return u.Preferences, nil
}

// AppendHistory records a digest read, de-duplicated by digestId.
func (s *Service) AppendHistory(ctx context.Context, p *auth.Principal, digestID string) ([]HistoryEntry, error) {
	if digestID == "" {
		return nil, fmt.Errorf("%w: digest ID is required", ErrInvalidArgument)
	}
	return s.repo.AppendHistory(ctx, p.UID, Seed{Email: p.Email, DisplayName: p.DisplayName}, digestID)
}

// GetHistory returns the caller's read history; absent records and store
// failures both degrade to an empty sequence.
func (s *Service) GetHistory(ctx context.Context, p *auth.Principal) []HistoryEntry {
	hist, err := s.repo.GetHistory(ctx, p.UID)
	if err != nil {
		logger.Errorf("history read degraded for uid=%s: %v", p.UID, err)
		return []HistoryEntry{}
	}
	return hist
}

// VerifyLogin find-or-creates the caller's record and refreshes lastLogin.
// The touch is best-effort: a failed login timestamp never blocks auth.
func (s *Service) VerifyLogin(ctx context.Context, p *auth.Principal) (*User, error) {
	u, err := s.repo.FindOrCreate(ctx, p.UID, Seed{Email: p.Email})
	if err != nil {
		return nil, err
	}
	if err := s.repo.TouchLogin(ctx, p.UID); err != nil {
		logger.Warnf("failed to update lastLogin for uid=%s: %v", p.UID, err)
	}
	return u, nil
}
