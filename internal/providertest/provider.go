// Package providertest runs a scripted stand-in for the four identity
// services the authentication chain crosses: the Microsoft identity
// platform, Xbox Live user auth, XSTS, and the Minecraft services API.
// Tests point a chain at one Provider and script its failure modes.
package providertest

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"

	"github.com/go-chi/chi/v5"
)

// Fixed credentials issued by the fake services
const (
	UserCode         = "ABCD-1234"
	DeviceCode       = "dcode"
	MicrosoftToken   = "msft"
	RefreshToken     = "refresh"
	RefreshedToken   = "msft-refreshed"
	XboxToken        = "xbl-token"
	XSTSToken        = "xsts-token"
	UserHash         = "user-hash"
	MinecraftToken   = "mc-token"
	ProfileID        = "069a79f444e94726a5befca90e38aaf5"
	ProfileName      = "Steve"
	SessionExpiresIn = 86400
)

// Provider is a scripted fake of the full provider chain
type Provider struct {
	srv *httptest.Server

	mu            sync.Mutex
	pendingProbes int    // token probes to answer with authorization_pending
	tokenError    string // terminal OAuth error code for device-grant probes
	xstsErr       int64  // XErr injected into the XSTS response
	profileStatus int    // non-zero overrides the profile response status
	probes        int
	logins        int
}

// New starts the fake provider. Callers must Close it.
func New() *Provider {
	p := &Provider{}

	r := chi.NewRouter()
	r.Post("/devicecode", p.handleDeviceCode)
	r.Post("/token", p.handleToken)
	r.Post("/user/authenticate", p.handleUserAuth)
	r.Post("/xsts/authorize", p.handleXSTS)
	r.Post("/authentication/login_with_xbox", p.handleLogin)
	r.Get("/minecraft/profile", p.handleProfile)

	p.srv = httptest.NewServer(r)
	return p
}

// Close shuts the fake provider down
func (p *Provider) Close() { p.srv.Close() }

// URL returns the provider's base URL
func (p *Provider) URL() string { return p.srv.URL }

// DeviceCodeURL returns the device-authorization endpoint
func (p *Provider) DeviceCodeURL() string { return p.srv.URL + "/devicecode" }

// TokenURL returns the token endpoint
func (p *Provider) TokenURL() string { return p.srv.URL + "/token" }

// XboxUserAuthURL returns the Xbox user-token endpoint
func (p *Provider) XboxUserAuthURL() string { return p.srv.URL + "/user/authenticate" }

// XSTSAuthURL returns the XSTS authorization endpoint
func (p *Provider) XSTSAuthURL() string { return p.srv.URL + "/xsts/authorize" }

// SetPendingProbes scripts n authorization_pending answers before the token
// endpoint resolves.
func (p *Provider) SetPendingProbes(n int) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.pendingProbes = n
}

// SetTokenError scripts a terminal OAuth error code on the token endpoint
func (p *Provider) SetTokenError(code string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.tokenError = code
}

// SetXSTSError scripts an XErr failure on the XSTS endpoint
func (p *Provider) SetXSTSError(xerr int64) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.xstsErr = xerr
}

// SetProfileStatus scripts a non-200 profile response
func (p *Provider) SetProfileStatus(status int) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.profileStatus = status
}

// TokenProbes reports how many device-grant probes the token endpoint served
func (p *Provider) TokenProbes() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.probes
}

// MinecraftLogins reports how many session logins were attempted
func (p *Provider) MinecraftLogins() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.logins
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func (p *Provider) handleDeviceCode(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"user_code":        UserCode,
		"device_code":      DeviceCode,
		"verification_uri": p.srv.URL + "/link",
		"expires_in":       900,
		"interval":         1,
		"message":          fmt.Sprintf("Visit %s/link and enter code %s", p.srv.URL, UserCode),
	})
}

func (p *Provider) handleToken(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid_request"})
		return
	}

	// Refresh grant resolves immediately with a distinguishable token
	if r.PostForm.Get("grant_type") == "refresh_token" {
		writeJSON(w, http.StatusOK, map[string]interface{}{
			"access_token":  RefreshedToken,
			"refresh_token": RefreshToken,
			"token_type":    "Bearer",
			"expires_in":    3600,
		})
		return
	}

	p.mu.Lock()
	p.probes++
	pending := p.probes <= p.pendingProbes
	tokenError := p.tokenError
	p.mu.Unlock()

	switch {
	case r.PostForm.Get("device_code") != DeviceCode:
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid_grant"})
	case pending:
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "authorization_pending"})
	case tokenError != "":
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": tokenError})
	default:
		writeJSON(w, http.StatusOK, map[string]interface{}{
			"access_token":  MicrosoftToken,
			"refresh_token": RefreshToken,
			"token_type":    "Bearer",
			"expires_in":    3600,
		})
	}
}

func (p *Provider) handleUserAuth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"Token": XboxToken,
		"DisplayClaims": map[string]interface{}{
			"xui": []map[string]string{{"uhs": UserHash}},
		},
	})
}

func (p *Provider) handleXSTS(w http.ResponseWriter, r *http.Request) {
	p.mu.Lock()
	xerr := p.xstsErr
	p.mu.Unlock()

	if xerr != 0 {
		writeJSON(w, http.StatusUnauthorized, map[string]interface{}{
			"Identity": "0",
			"XErr":     xerr,
			"Message":  "",
		})
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"Token": XSTSToken,
		"DisplayClaims": map[string]interface{}{
			"xui": []map[string]string{{"uhs": UserHash}},
		},
	})
}

func (p *Provider) handleLogin(w http.ResponseWriter, r *http.Request) {
	p.mu.Lock()
	p.logins++
	p.mu.Unlock()

	var req struct {
		IdentityToken string `json:"identityToken"`
	}
	want := fmt.Sprintf("XBL3.0 x=%s;%s", UserHash, XSTSToken)
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.IdentityToken != want {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "invalid identity token"})
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"username":     ProfileID,
		"access_token": MinecraftToken,
		"expires_in":   SessionExpiresIn,
	})
}

func (p *Provider) handleProfile(w http.ResponseWriter, r *http.Request) {
	p.mu.Lock()
	status := p.profileStatus
	p.mu.Unlock()

	if status != 0 {
		writeJSON(w, status, map[string]string{
			"path":         "/minecraft/profile",
			"errorMessage": http.StatusText(status),
		})
		return
	}

	if r.Header.Get("Authorization") != "Bearer "+MinecraftToken {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "invalid session token"})
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"id":    ProfileID,
		"name":  ProfileName,
		"skins": []interface{}{},
		"capes": []interface{}{},
	})
}
