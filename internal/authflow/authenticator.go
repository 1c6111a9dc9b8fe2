// Package authflow orchestrates the full Minecraft sign-in chain: Microsoft
// device authorization, Xbox Live and XSTS token exchanges, Minecraft
// session login, and profile fetch. A failure at any hop aborts the chain;
// later hops are never attempted.
package authflow

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/hexbound/craftauth/internal/accounts"
	"github.com/hexbound/craftauth/internal/minecraft"
	"github.com/hexbound/craftauth/internal/msa"
	"github.com/hexbound/craftauth/internal/xbox"
)

// ErrCancelled indicates the caller withdrew before the chain completed
var ErrCancelled = errors.New("authentication cancelled")

// Endpoints overrides the live provider endpoints, for tests
type Endpoints struct {
	MSADeviceCode string
	MSAToken      string
	XboxUserAuth  string
	XboxXSTS      string
	MinecraftAPI  string
}

// Authenticator runs authentication attempts for one deployment's client ID.
// It holds no per-attempt state: every Login call owns its own device code
// and polling loop, so concurrent attempts never share them.
type Authenticator struct {
	msa       *msa.Client
	xbox      *xbox.Client
	minecraft *minecraft.Client
}

type config struct {
	httpClient   *http.Client
	pollDeadline time.Duration
	pollInterval time.Duration
	endpoints    Endpoints
}

// Option configures the authenticator
type Option func(*config)

// WithHTTPClient sets the HTTP client used for every call in the chain
func WithHTTPClient(client *http.Client) Option {
	return func(c *config) {
		c.httpClient = client
	}
}

// WithPollDeadline bounds total device-authorization polling time
func WithPollDeadline(d time.Duration) Option {
	return func(c *config) {
		c.pollDeadline = d
	}
}

// WithPollInterval overrides the server-supplied polling interval.
// Intended for tests.
func WithPollInterval(d time.Duration) Option {
	return func(c *config) {
		c.pollInterval = d
	}
}

// WithEndpoints points the chain at stand-in providers
func WithEndpoints(e Endpoints) Option {
	return func(c *config) {
		c.endpoints = e
	}
}

// New creates an authenticator for the given OAuth client ID
func New(clientID string, opts ...Option) (*Authenticator, error) {
	cfg := config{pollDeadline: msa.DefaultPollDeadline}
	for _, opt := range opts {
		opt(&cfg)
	}

	// Assemble per-service options
	msaOpts := []msa.Option{msa.WithPollDeadline(cfg.pollDeadline)}
	var xboxOpts []xbox.Option
	var mcOpts []minecraft.Option

	if cfg.httpClient != nil {
		msaOpts = append(msaOpts, msa.WithHTTPClient(cfg.httpClient))
		xboxOpts = append(xboxOpts, xbox.WithHTTPClient(cfg.httpClient))
		mcOpts = append(mcOpts, minecraft.WithHTTPClient(cfg.httpClient))
	}
	if cfg.pollInterval > 0 {
		msaOpts = append(msaOpts, msa.WithPollInterval(cfg.pollInterval))
	}
	if cfg.endpoints.MSADeviceCode != "" {
		msaOpts = append(msaOpts, msa.WithEndpoints(cfg.endpoints.MSADeviceCode, cfg.endpoints.MSAToken))
	}
	if cfg.endpoints.XboxUserAuth != "" {
		xboxOpts = append(xboxOpts, xbox.WithEndpoints(cfg.endpoints.XboxUserAuth, cfg.endpoints.XboxXSTS))
	}
	if cfg.endpoints.MinecraftAPI != "" {
		mcOpts = append(mcOpts, minecraft.WithBaseURL(cfg.endpoints.MinecraftAPI))
	}

	msaClient, err := msa.NewClient(clientID, msaOpts...)
	if err != nil {
		return nil, fmt.Errorf("creating microsoft client: %w", err)
	}

	return &Authenticator{
		msa:       msaClient,
		xbox:      xbox.NewClient(xboxOpts...),
		minecraft: minecraft.NewClient(mcOpts...),
	}, nil
}

// Login runs the full interactive sign-in: request a device code, wait for
// the user to approve it in a browser, then walk the token exchange chain
// and fetch the profile. Progress is delivered to reporter at every step;
// the user code and verification URL ride on the waiting_auth entry event.
func (a *Authenticator) Login(ctx context.Context, reporter Reporter) (*accounts.Account, error) {
	r := newRun(reporter)

	r.report(Progress{
		Step:    StepDeviceCode,
		Percent: 0,
		Message: "Requesting sign-in code",
	})
	auth, err := a.msa.RequestDeviceCode(ctx)
	if err != nil {
		return nil, mapCancellation(err)
	}

	message := auth.Message
	if message == "" {
		message = fmt.Sprintf("Visit %s and enter code %s", auth.VerificationURI, auth.UserCode)
	}
	r.report(Progress{
		Step:            StepWaitingAuth,
		Percent:         waitingFloor,
		Message:         message,
		UserCode:        auth.UserCode,
		VerificationURI: auth.VerificationURI,
	})

	token, err := a.msa.PollToken(ctx, auth, func(elapsed, deadline time.Duration) {
		r.report(Progress{
			Step:    StepWaitingAuth,
			Percent: waitingPercent(elapsed, deadline),
			Message: "Waiting for you to approve the sign-in",
		})
	})
	if err != nil {
		return nil, mapCancellation(err)
	}

	r.report(Progress{
		Step:    StepMicrosoftToken,
		Percent: 30,
		Message: "Microsoft account authorized",
	})

	return a.completeChain(ctx, r, token.AccessToken, token.RefreshToken)
}

// Refresh runs a silent sign-in from a stored refresh token, skipping the
// device-code and polling steps and re-entering the chain at the Xbox hop.
func (a *Authenticator) Refresh(ctx context.Context, refreshToken string, reporter Reporter) (*accounts.Account, error) {
	r := newRun(reporter)

	token, err := a.msa.Refresh(ctx, refreshToken)
	if err != nil {
		return nil, mapCancellation(err)
	}

	r.report(Progress{
		Step:    StepMicrosoftToken,
		Percent: 30,
		Message: "Microsoft session refreshed",
	})

	// Providers may not rotate the refresh token; keep the old one then
	if token.RefreshToken == "" {
		token.RefreshToken = refreshToken
	}
	return a.completeChain(ctx, r, token.AccessToken, token.RefreshToken)
}

// completeChain walks the three exchange hops and the profile fetch, then
// assembles the account record. The refresh token comes from the original
// Microsoft-domain exchange; the expiry derives from the game-session token
// only, never from an intermediate hop.
func (a *Authenticator) completeChain(ctx context.Context, r *run, accessToken, refreshToken string) (*accounts.Account, error) {
	r.report(Progress{
		Step:    StepXboxAuth,
		Percent: 40,
		Message: "Signing in to Xbox Live",
	})
	userToken, err := a.xbox.UserToken(ctx, accessToken)
	if err != nil {
		return nil, mapCancellation(err)
	}

	r.report(Progress{
		Step:    StepXSTSToken,
		Percent: 50,
		Message: "Authorizing with Xbox security services",
	})
	securityToken, err := a.xbox.XSTSToken(ctx, userToken)
	if err != nil {
		return nil, mapCancellation(err)
	}

	r.report(Progress{
		Step:    StepMinecraftAuth,
		Percent: 70,
		Message: "Signing in to Minecraft services",
	})
	session, err := a.minecraft.LoginWithXbox(ctx, securityToken)
	if err != nil {
		return nil, mapCancellation(err)
	}

	r.report(Progress{
		Step:    StepProfile,
		Percent: 90,
		Message: "Fetching player profile",
	})
	profile, err := a.minecraft.FetchProfile(ctx, session.AccessToken)
	if err != nil {
		return nil, mapCancellation(err)
	}

	account := &accounts.Account{
		UUID:         profile.ID,
		Username:     profile.Name,
		AccessToken:  session.AccessToken,
		RefreshToken: refreshToken,
		ExpiresAt:    time.Now().Add(time.Duration(session.ExpiresIn) * time.Second),
		Kind:         accounts.KindMSA,
	}

	r.report(Progress{
		Step:    StepComplete,
		Percent: 100,
		Message: "Signed in as " + profile.Name,
	})

	return account, nil
}

// waitingPercent interpolates the waiting-phase percentage across the
// polling deadline, clamped to the [waitingFloor, waitingCap] band.
func waitingPercent(elapsed, deadline time.Duration) int {
	if deadline <= 0 {
		return waitingCap
	}
	percent := waitingFloor + int(time.Duration(waitingCap-waitingFloor)*elapsed/deadline)
	if percent < waitingFloor {
		return waitingFloor
	}
	if percent > waitingCap {
		return waitingCap
	}
	return percent
}

// mapCancellation converts caller withdrawal into ErrCancelled; every other
// error propagates untouched for errors.Is matching by the caller.
func mapCancellation(err error) error {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return ErrCancelled
	}
	return err
}
