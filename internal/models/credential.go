package models

import (
	"slices"
	"time"
)

// Credential is the OAuth token material stored for one Spotify user, plus the client id needed to rebuild an API client.
type Credential struct {
	UserID       string    `cbor:"1,keyasint"`
	AccessToken  string    `cbor:"2,keyasint"`
	RefreshToken string    `cbor:"3,keyasint"`
	TokenType    string    `cbor:"4,keyasint,omitempty"`
	ExpiresAt    time.Time `cbor:"5,keyasint"`
	Scopes       []string  `cbor:"6,keyasint,omitempty"`
	ClientID     string    `cbor:"7,keyasint"`
	UpdatedAt    time.Time `cbor:"8,keyasint"`
}

// Expired reports whether the access token is unusable at now, treating tokens within leeway of expiry as expired.
//
// A zero ExpiresAt means the provider gave no expiry and the token never expires locally.
func (c Credential) Expired(now time.Time, leeway time.Duration) bool {
	if c.ExpiresAt.IsZero() {
		return false
	}
	return !now.Add(leeway).Before(c.ExpiresAt)
}

// Equal compares credentials field by field, using [time.Time.Equal] for timestamps.
func (c Credential) Equal(o Credential) bool {
	return c.UserID == o.UserID &&
		c.AccessToken == o.AccessToken &&
		c.RefreshToken == o.RefreshToken &&
		c.TokenType == o.TokenType &&
		c.ExpiresAt.Equal(o.ExpiresAt) &&
		slices.Equal(c.Scopes, o.Scopes) &&
		c.ClientID == o.ClientID &&
		c.UpdatedAt.Equal(o.UpdatedAt)
}

// Clone returns a copy that shares no slices with c, with timestamps in UTC.
func (c Credential) Clone() Credential {
	c.Scopes = slices.Clone(c.Scopes)
	c.ExpiresAt = c.ExpiresAt.UTC()
	c.UpdatedAt = c.UpdatedAt.UTC()
	return c
}

// Profile is the cached subset of the Spotify /me response.
type Profile struct {
	ID          string    `cbor:"1,keyasint" json:"id"`
	DisplayName string    `cbor:"2,keyasint" json:"display_name"`
	Email       string    `cbor:"3,keyasint,omitempty" json:"email,omitempty"`
	Country     string    `cbor:"4,keyasint,omitempty" json:"country,omitempty"`
	Product     string    `cbor:"5,keyasint,omitempty" json:"product,omitempty"`
	ImageURL    string    `cbor:"6,keyasint,omitempty" json:"image_url,omitempty"`
	FetchedAt   time.Time `cbor:"7,keyasint" json:"fetched_at"`
}

// Artist is one entry of a user's top artists.
type Artist struct {
	ID         string   `json:"id"`
	Name       string   `json:"name"`
	Genres     []string `json:"genres,omitempty"`
	Popularity int      `json:"popularity"`
	ImageURL   string   `json:"image_url,omitempty"`
	URI        string   `json:"uri"`
}
