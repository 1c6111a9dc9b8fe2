package authflow_test

import (
	"context"
	"net/http"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hexbound/craftauth/internal/authflow"
	"github.com/hexbound/craftauth/internal/httpx"
	"github.com/hexbound/craftauth/internal/minecraft"
	"github.com/hexbound/craftauth/internal/providertest"
	"github.com/hexbound/craftauth/internal/xbox"
)

func newAuthenticator(t *testing.T, p *providertest.Provider) *authflow.Authenticator {
	t.Helper()

	auth, err := authflow.New("client-1",
		authflow.WithEndpoints(authflow.Endpoints{
			MSADeviceCode: p.DeviceCodeURL(),
			MSAToken:      p.TokenURL(),
			XboxUserAuth:  p.XboxUserAuthURL(),
			XboxXSTS:      p.XSTSAuthURL(),
			MinecraftAPI:  p.URL(),
		}),
		authflow.WithPollInterval(10*time.Millisecond),
		authflow.WithPollDeadline(2*time.Second),
	)
	require.NoError(t, err)
	return auth
}

// recorder collects progress reports for assertions
type recorder struct {
	mu       sync.Mutex
	progress []authflow.Progress
}

func (r *recorder) Report(p authflow.Progress) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.progress = append(r.progress, p)
}

func (r *recorder) snapshot() []authflow.Progress {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]authflow.Progress(nil), r.progress...)
}

func (r *recorder) steps() []authflow.Step {
	var steps []authflow.Step
	for _, p := range r.snapshot() {
		steps = append(steps, p.Step)
	}
	return steps
}

func TestLoginHappyPath(t *testing.T) {
	provider := providertest.New()
	defer provider.Close()
	provider.SetPendingProbes(1)

	auth := newAuthenticator(t, provider)
	rec := &recorder{}

	before := time.Now()
	account, err := auth.Login(context.Background(), rec)
	require.NoError(t, err)

	assert.Equal(t, providertest.ProfileName, account.Username)
	assert.Equal(t, providertest.ProfileID, account.UUID)
	assert.Equal(t, providertest.MinecraftToken, account.AccessToken)
	assert.Equal(t, providertest.RefreshToken, account.RefreshToken)

	// Expiry must derive from the game-session token, not any other hop
	wantExpiry := before.Add(time.Duration(providertest.SessionExpiresIn) * time.Second)
	assert.WithinDuration(t, wantExpiry, account.ExpiresAt, 10*time.Second)

	// Step sequence: one waiting report on entry, one per pending probe
	assert.Equal(t, []authflow.Step{
		authflow.StepDeviceCode,
		authflow.StepWaitingAuth,
		authflow.StepWaitingAuth,
		authflow.StepMicrosoftToken,
		authflow.StepXboxAuth,
		authflow.StepXSTSToken,
		authflow.StepMinecraftAuth,
		authflow.StepProfile,
		authflow.StepComplete,
	}, rec.steps())

	// Percentages never regress, and the waiting band stays in [10, 35]
	progress := rec.snapshot()
	last := -1
	for _, p := range progress {
		assert.GreaterOrEqual(t, p.Percent, last, "step %s regressed", p.Step)
		last = p.Percent
		if p.Step == authflow.StepWaitingAuth {
			assert.GreaterOrEqual(t, p.Percent, 10)
			assert.LessOrEqual(t, p.Percent, 35)
		}
	}
	assert.Equal(t, 100, progress[len(progress)-1].Percent)

	// The waiting entry carries the out-of-band code for the UI
	waiting := progress[1]
	assert.Equal(t, providertest.UserCode, waiting.UserCode)
	assert.NotEmpty(t, waiting.VerificationURI)
}

func TestLoginNoXboxAccountShortCircuits(t *testing.T) {
	provider := providertest.New()
	defer provider.Close()
	provider.SetXSTSError(2148916233)

	auth := newAuthenticator(t, provider)

	_, err := auth.Login(context.Background(), nil)
	require.ErrorIs(t, err, xbox.ErrNoXboxAccount)

	// The game-session hop must never be attempted after an XSTS failure
	assert.Zero(t, provider.MinecraftLogins())
}

func TestLoginGuardianConsentRequired(t *testing.T) {
	provider := providertest.New()
	defer provider.Close()
	provider.SetXSTSError(2148916238)

	auth := newAuthenticator(t, provider)

	_, err := auth.Login(context.Background(), nil)
	require.ErrorIs(t, err, xbox.ErrGuardianConsentRequired)
}

func TestLoginGameNotOwned(t *testing.T) {
	provider := providertest.New()
	defer provider.Close()
	provider.SetProfileStatus(http.StatusNotFound)

	auth := newAuthenticator(t, provider)

	_, err := auth.Login(context.Background(), nil)
	require.ErrorIs(t, err, minecraft.ErrGameNotOwned)
}

func TestLoginFatalPollError(t *testing.T) {
	provider := providertest.New()
	defer provider.Close()
	provider.SetTokenError("authorization_declined")

	auth := newAuthenticator(t, provider)

	_, err := auth.Login(context.Background(), nil)
	var statusErr *httpx.StatusError
	require.ErrorAs(t, err, &statusErr)
	assert.Equal(t, "authorization_declined", statusErr.OAuthCode)
}

func TestLoginCancelledMidPoll(t *testing.T) {
	provider := providertest.New()
	defer provider.Close()
	provider.SetPendingProbes(1 << 30) // pending forever

	auth := newAuthenticator(t, provider)
	ctx, cancel := context.WithCancel(context.Background())

	rec := &recorder{}
	var once sync.Once
	reporter := authflow.ReporterFunc(func(p authflow.Progress) {
		rec.Report(p)
		// Withdraw once polling is underway
		if p.Step == authflow.StepWaitingAuth {
			once.Do(cancel)
		}
	})

	_, err := auth.Login(ctx, reporter)
	require.ErrorIs(t, err, authflow.ErrCancelled)

	// No progress may be delivered after Login returns
	reports := len(rec.snapshot())
	time.Sleep(50 * time.Millisecond)
	assert.Equal(t, reports, len(rec.snapshot()))
}

func TestRefresh(t *testing.T) {
	provider := providertest.New()
	defer provider.Close()

	auth := newAuthenticator(t, provider)
	rec := &recorder{}

	account, err := auth.Refresh(context.Background(), providertest.RefreshToken, rec)
	require.NoError(t, err)

	assert.Equal(t, providertest.ProfileName, account.Username)
	assert.Equal(t, providertest.MinecraftToken, account.AccessToken)
	assert.Equal(t, providertest.RefreshToken, account.RefreshToken)

	// Silent sign-in never requests or polls a device code
	assert.Zero(t, provider.TokenProbes())
	steps := rec.steps()
	require.NotEmpty(t, steps)
	assert.Equal(t, authflow.StepMicrosoftToken, steps[0])
	assert.Equal(t, authflow.StepComplete, steps[len(steps)-1])
}
