package accounts

import "context"

// Store defines the interface for account persistence. Get returns nil with
// no error when the account does not exist.
type Store interface {
	// Save stores an account, replacing any record with the same UUID
	Save(ctx context.Context, account *Account) error

	// Get retrieves an account by player UUID
	Get(ctx context.Context, uuid string) (*Account, error)

	// List returns all stored accounts
	List(ctx context.Context) ([]*Account, error)

	// Delete removes an account by player UUID
	Delete(ctx context.Context, uuid string) error

	// CheckHealth verifies the storage backend is healthy
	CheckHealth(ctx context.Context) error
}
