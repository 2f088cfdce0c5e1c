// internal/models/profile.go
package models

// UserProfile mirrors the external profile store's subscriber row. The
// assistant reads it (state/pincode defaulting, alert digests) and never
// writes it back.
type UserProfile struct {
	ID          string   `json:"id"`
	Name        string   `json:"name"`
	Phone       string   `json:"phone,omitempty"`
	Email       string   `json:"email,omitempty"`
	Pincode     string   `json:"pincode,omitempty"`
	State       string   `json:"state,omitempty"` // canonical, lower-case
	LandAcres   float64  `json:"landAcres,omitempty"`
	Commodities []string `json:"commodities,omitempty"` // preferred, canonical
}
