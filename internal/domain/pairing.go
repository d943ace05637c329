package domain

import "time"

// PairingStatus is what a requesting device observes when polling
type PairingStatus string

const (
	PairingPending PairingStatus = "pending"
	PairingLinked  PairingStatus = "linked"
	PairingExpired PairingStatus = "expired"
)

// PairingCode links a short human-readable code to the bearer token held by the
// device that requested it. It is deleted once its linked status is observed.
type PairingCode struct {
	Code       string    `json:"code"`
	TokenHash  string    `json:"-"`
	DeviceName string    `json:"device_name"`
	DeviceType string    `json:"device_type"`
	DeviceInfo string    `json:"device_info"`
	ClaimedBy  *string   `json:"claimed_by"`
	ExpiresAt  time.Time `json:"expires_at"`
	CreatedAt  time.Time `json:"created_at"`
}

// IsExpired reports whether the code is past its expiry at now
func (p *PairingCode) IsExpired(now time.Time) bool {
	return !now.Before(p.ExpiresAt)
}

// IsClaimed reports whether an authenticated user has claimed the code
func (p *PairingCode) IsClaimed() bool {
	return p.ClaimedBy != nil
}

// DeviceMetadata describes the device asking to be paired
type DeviceMetadata struct {
	Name string `json:"name"`
	Type string `json:"type"`
	Info string `json:"info"`
}

// DeviceToken is a bearer credential for a mobile client.
// A nil LastActiveAt marks a token that was never activated.
type DeviceToken struct {
	ID           string     `json:"id"`
	UserID       string     `json:"user_id"`
	TokenHash    string     `json:"-"`
	Name         string     `json:"name"`
	DeviceType   string     `json:"device_type"`
	DeviceInfo   string     `json:"device_info"`
	Revoked      bool       `json:"revoked"`
	LastActiveAt *time.Time `json:"last_active_at"`
	ExpiresAt    *time.Time `json:"expires_at"`
	CreatedAt    time.Time  `json:"created_at"`
}

// IsPending reports whether the token has never been used
func (t *DeviceToken) IsPending() bool {
	return t.LastActiveAt == nil
}

// IsExpired reports whether the token carries an expiry that has passed
func (t *DeviceToken) IsExpired(now time.Time) bool {
	return t.ExpiresAt != nil && !now.Before(*t.ExpiresAt)
}
