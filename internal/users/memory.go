package users

import (
	"context"
	"sync"
	"time"
)

// MemoryRepository is an in-memory Repository used by unit tests and local
// runs without a database. Semantics mirror MongoRepository.
type MemoryRepository struct {
	mu    sync.RWMutex
	store map[string]*User
}

func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{store: make(map[string]*User)}
}

func copyUser(u *User) *User {
	c := *u
	c.Preferences.Categories = append([]string{}, u.Preferences.Categories...)
	c.ReadHistory = append([]HistoryEntry{}, u.ReadHistory...)
	return &c
}

func newUser(uid string, seed Seed, now time.Time) *User {
	return &User{
		UID:         uid,
		Email:       seed.Email,
		DisplayName: seed.DisplayName,
		Preferences: DefaultPreferences(),
		ReadHistory: []HistoryEntry{},
		LastLogin:   now,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
}

func (r *MemoryRepository) FindByUID(ctx context.Context, uid string) (*User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	u, ok := r.store[uid]
	if !ok {
		return nil, ErrNotFound
	}
	return copyUser(u), nil
}

func (r *MemoryRepository) FindOrCreate(ctx context.Context, uid string, seed Seed) (*User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if u, ok := r.store[uid]; ok {
		return copyUser(u), nil
	}
	u := newUser(uid, seed, time.Now().UTC())
	r.store[uid] = u
	return copyUser(u), nil
}

func (r *MemoryRepository) TouchLogin(ctx context.Context, uid string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if u, ok := r.store[uid]; ok {
		u.LastLogin = time.Now().UTC()
	}
	return nil
}

func (r *MemoryRepository) UpsertProfileFields(ctx context.Context, uid string, seed Seed, fields ProfileUpdate) (*User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	now := time.Now().UTC()
	u, ok := r.store[uid]
	if !ok {
		u = newUser(uid, seed, now)
		r.store[uid] = u
	}
	if fields.DisplayName != nil {
		u.DisplayName = *fields.DisplayName
	}
	if fields.PhotoURL != nil {
		u.PhotoURL = *fields.PhotoURL
	}
	u.LastLogin = now
	u.UpdatedAt = now
	return copyUser(u), nil
}

func (r *MemoryRepository) ReplacePreferences(ctx context.Context, uid string, email string, prefs Preferences) (*User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	now := time.Now().UTC()
	u, ok := r.store[uid]
	if !ok {
		u = newUser(uid, Seed{Email: email}, now)
		r.store[uid] = u
	}
	u.Preferences = prefs
	u.Email = email
	u.LastLogin = now
	u.UpdatedAt = now
	return copyUser(u), nil
}

func (r *MemoryRepository) PatchPreferences(ctx context.Context, uid string, patch PreferencesPatch) (*User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.store[uid]
	if !ok {
		return nil, ErrNotFound
	}
	if patch.Categories != nil {
		u.Preferences.Categories = append([]string{}, (*patch.Categories)...)
	}
	if patch.DigestFrequency != nil {
		u.Preferences.DigestFrequency = *patch.DigestFrequency
	}
	if patch.NotificationsEnabled != nil {
		u.Preferences.NotificationsEnabled = *patch.NotificationsEnabled
	}
	u.UpdatedAt = time.Now().UTC()
	return copyUser(u), nil
}

func (r *MemoryRepository) AppendHistory(ctx context.Context, uid string, seed Seed, digestID string) ([]HistoryEntry, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	now := time.Now().UTC()
	u, ok := r.store[uid]
	if !ok {
		u = newUser(uid, seed, now)
		r.store[uid] = u
	}
	for _, e := range u.ReadHistory {
		if e.DigestID == digestID {
			return append([]HistoryEntry{}, u.ReadHistory...), nil
		}
	}
	u.ReadHistory = append(u.ReadHistory, HistoryEntry{DigestID: digestID, ReadAt: now})
	u.UpdatedAt = now
	return append([]HistoryEntry{}, u.ReadHistory...), nil
}

func (r *MemoryRepository) GetHistory(ctx context.Context, uid string) ([]HistoryEntry, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	u, ok := r.store[uid]
	if !ok {
		return []HistoryEntry{}, nil
	}
	return append([]HistoryEntry{}, u.ReadHistory...), nil
}
