package main

import "time"

// Config holds CLI configuration loaded from environment variables
type Config struct {
	// OAuth client identifier, fixed per deployment
	ClientID string `envconfig:"CLIENT_ID" required:"true"`

	// Optional Redis URL for account persistence; accounts stay in memory
	// for the life of the process when unset
	RedisURL string `envconfig:"REDIS_URL"`

	// Total time to wait for the user to approve the sign-in
	PollDeadline time.Duration `envconfig:"POLL_DEADLINE" default:"300s"`
}
