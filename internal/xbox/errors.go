package xbox

import "errors"

// XSTS error codes returned in the XErr field of a 401 response
const (
	xErrNoAccount    = 2148916233 // no Xbox account exists for this Microsoft account
	xErrChildAccount = 2148916238 // account belongs to a minor without guardian consent
)

// User-actionable XSTS failures. Anything else surfaces as *httpx.StatusError.
var (
	// ErrNoXboxAccount indicates the Microsoft account has no Xbox profile;
	// the user must create one before signing in.
	ErrNoXboxAccount = errors.New("microsoft account has no xbox account")

	// ErrGuardianConsentRequired indicates a child account that needs to be
	// added to a family by an adult before it can sign in.
	ErrGuardianConsentRequired = errors.New("account is age-restricted and requires guardian consent")
)
