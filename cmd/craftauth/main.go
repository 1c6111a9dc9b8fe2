// Command craftauth signs a user into their Minecraft account from the
// terminal using the Microsoft device-authorization flow and stores the
// resulting session.
package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/kelseyhightower/envconfig"
	"github.com/redis/go-redis/v9"

	"github.com/hexbound/craftauth/internal/accounts"
	"github.com/hexbound/craftauth/internal/authflow"
	"github.com/hexbound/craftauth/internal/minecraft"
	"github.com/hexbound/craftauth/internal/msa"
	"github.com/hexbound/craftauth/internal/xbox"
)

// Version is set by the build process
var Version = "dev"

func main() {
	// Load configuration from environment
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		log.Fatalf("Error loading configuration: %v", err)
	}

	// Cancel the flow on interrupt so the poller releases its timers
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	store, cleanup, err := newStore(ctx, cfg)
	if err != nil {
		log.Fatalf("Error connecting to account store: %v", err)
	}
	defer cleanup()

	auth, err := authflow.New(cfg.ClientID, authflow.WithPollDeadline(cfg.PollDeadline))
	if err != nil {
		log.Fatalf("Error creating authenticator: %v", err)
	}

	command := "login"
	if len(os.Args) > 1 {
		command = os.Args[1]
	}

	switch command {
	case "login":
		runLogin(ctx, auth, store)
	case "refresh":
		if len(os.Args) < 3 {
			log.Fatal("Usage: craftauth refresh <player-uuid>")
		}
		runRefresh(ctx, auth, store, os.Args[2])
	case "list":
		runList(ctx, store)
	case "version":
		fmt.Println(Version)
	default:
		log.Fatalf("Unknown command %q (want login, refresh, list, or version)", command)
	}
}

// newStore connects the Redis-backed store when a URL is configured and
// falls back to process memory otherwise.
func newStore(ctx context.Context, cfg Config) (accounts.Store, func(), error) {
	if cfg.RedisURL == "" {
		log.Println("No REDIS_URL configured; accounts will not persist beyond this run")
		return accounts.NewMemoryStore(), func() {}, nil
	}

	redisOpts, err := redis.ParseURL(cfg.RedisURL)
	if err != nil {
		return nil, nil, fmt.Errorf("parsing Redis URL: %w", err)
	}
	client := redis.NewClient(redisOpts)

	// Verify connectivity before starting the flow
	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		return nil, nil, fmt.Errorf("connecting to Redis: %w", err)
	}

	cleanup := func() {
		if err := client.Close(); err != nil {
			log.Printf("Error closing Redis connection: %v", err)
		}
	}
	return accounts.NewRedisStore(client), cleanup, nil
}

// progressReporter renders progress lines and the sign-in code
func progressReporter() authflow.Reporter {
	return authflow.ReporterFunc(func(p authflow.Progress) {
		log.Printf("[%3d%%] %s", p.Percent, p.Message)
		if p.UserCode != "" {
			log.Printf("       Open %s and enter code %s", p.VerificationURI, p.UserCode)
		}
	})
}

func runLogin(ctx context.Context, auth *authflow.Authenticator, store accounts.Store) {
	account, err := auth.Login(ctx, progressReporter())
	if err != nil {
		fail(err)
	}
	saveAndReport(ctx, store, account)
}

func runRefresh(ctx context.Context, auth *authflow.Authenticator, store accounts.Store, uuid string) {
	existing, err := store.Get(ctx, uuid)
	if err != nil {
		log.Fatalf("Error loading account: %v", err)
	}
	if existing == nil {
		log.Fatalf("No stored account with UUID %s", uuid)
	}
	if existing.RefreshToken == "" {
		log.Fatalf("Account %s has no refresh token; run login instead", existing.Username)
	}

	account, err := auth.Refresh(ctx, existing.RefreshToken, progressReporter())
	if err != nil {
		fail(err)
	}
	saveAndReport(ctx, store, account)
}

func runList(ctx context.Context, store accounts.Store) {
	list, err := store.List(ctx)
	if err != nil {
		log.Fatalf("Error listing accounts: %v", err)
	}
	if len(list) == 0 {
		log.Println("No stored accounts")
		return
	}
	for _, account := range list {
		state := "valid"
		if account.IsExpired() {
			state = "expired"
		}
		log.Printf("%s  %s  session %s until %s", account.UUID, account.Username, state, account.ExpiresAt.Format(time.RFC3339))
	}
}

func saveAndReport(ctx context.Context, store accounts.Store, account *accounts.Account) {
	if err := store.Save(ctx, account); err != nil {
		log.Fatalf("Error saving account: %v", err)
	}
	log.Printf("Signed in as %s (%s); session valid until %s",
		account.Username, account.UUID, account.ExpiresAt.Format(time.RFC3339))
}

// fail renders the error kinds that carry distinct user remediation, then a
// generic retry prompt for everything else.
func fail(err error) {
	switch {
	case errors.Is(err, authflow.ErrCancelled):
		log.Fatal("Sign-in cancelled")
	case errors.Is(err, msa.ErrAuthorizationExpired):
		log.Fatal("The sign-in code expired before it was used; run login again")
	case errors.Is(err, xbox.ErrNoXboxAccount):
		log.Fatal("This Microsoft account has no Xbox profile; create one at xbox.com and retry")
	case errors.Is(err, xbox.ErrGuardianConsentRequired):
		log.Fatal("This account needs to be added to a Microsoft family by a guardian before it can sign in")
	case errors.Is(err, minecraft.ErrGameNotOwned):
		log.Fatal("This account does not own Minecraft; purchase the game and retry")
	default:
		log.Fatalf("Sign-in failed: %v (try again)", err)
	}
}
