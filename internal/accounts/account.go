// Package accounts defines the persisted game account record and its
// storage backends.
package accounts

import "time"

// expirySkew pads expiry checks so a token that is about to lapse mid-launch
// is treated as already expired.
const expirySkew = 5 * time.Minute

// Kind identifies how an account was created
type Kind string

// KindMSA marks accounts produced by the Microsoft device-authorization flow
const KindMSA Kind = "msa"

// Account is the final artifact of a successful authentication chain.
// AccessToken is the game-session token; ExpiresAt derives from that token's
// expiry, never from an intermediate hop's. RefreshToken comes from the
// original Microsoft-domain exchange and outlives the session token.
type Account struct {
	UUID         string    `json:"uuid"`
	Username     string    `json:"username"`
	AccessToken  string    `json:"accessToken"`
	RefreshToken string    `json:"refreshToken,omitempty"`
	ExpiresAt    time.Time `json:"expiresAt"`
	Kind         Kind      `json:"kind"`
}

// IsExpired reports whether the session token needs refreshing
func (a *Account) IsExpired() bool {
	return time.Now().Add(expirySkew).After(a.ExpiresAt)
}
