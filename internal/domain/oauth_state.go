package domain

import "time"

// OAuthStateTTL bounds how long an authorization redirect stays valid.
const OAuthStateTTL = 10 * time.Minute

// OAuthState is the single-use nonce binding an authorization redirect to
// its callback. It is consumed exactly once; a second consume of the same
// nonce must fail.
type OAuthState struct {
	Nonce     string    `json:"nonce" bson:"nonce"`
	Shop      string    `json:"shop" bson:"shop"`
	CreatedAt time.Time `json:"created_at" bson:"created_at"`
	ExpiresAt time.Time `json:"expires_at" bson:"expires_at"`
}

// Expired reports whether the state is past its TTL at the given instant.
func (s *OAuthState) Expired(now time.Time) bool {
	return now.After(s.ExpiresAt)
}
