package users

import "time"

// Digest delivery frequencies accepted by preference writes.
const (
	FrequencyDaily  = "daily"
	FrequencyWeekly = "weekly"
)

// Preferences is the digest-delivery preference sub-document.
type Preferences struct {
	Categories           []string `bson:"categories" json:"categories"`
	DigestFrequency      string   `bson:"digestFrequency" json:"digestFrequency"`
	NotificationsEnabled bool     `bson:"notificationsEnabled" json:"notificationsEnabled"`
}

// DefaultPreferences returns the preferences a freshly created user gets.
func DefaultPreferences() Preferences {
	return Preferences{
		Categories:           []string{},
		DigestFrequency:      FrequencyDaily,
		NotificationsEnabled: true,
	}
}

// HistoryEntry records a single digest read. Insertion order is read order.
type HistoryEntry struct {
	DigestID string    `bson:"digestId" json:"digestId"`
	ReadAt   time.Time `bson:"readAt" json:"readAt"`
}

// User is the persisted user record, keyed by uid (the identity provider's
// subject). Email mirrors the provider claim at last login and is never used
// as a lookup key.
type User struct {
	UID         string         `bson:"uid" json:"uid"`
	Email       string         `bson:"email" json:"email"`
	DisplayName string         `bson:"displayName" json:"displayName"`
	PhotoURL    string         `bson:"photoURL,omitempty" json:"photoURL,omitempty"`
	Preferences Preferences    `bson:"preferences" json:"preferences"`
	ReadHistory []HistoryEntry `bson:"readHistory" json:"readHistory"`
	LastLogin   time.Time      `bson:"lastLogin" json:"lastLogin"`
	CreatedAt   time.Time      `bson:"createdAt" json:"createdAt"`
	UpdatedAt   time.Time      `bson:"updatedAt" json:"updatedAt"`
}
