// Redis-backed account storage.
package accounts

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"
)

const (
	accountPrefix = "account:"
	accountIndex  = "accounts" // set of stored player UUIDs
)

// RedisStore implements the Store interface using Redis
type RedisStore struct {
	client *redis.Client
}

// NewRedisStore creates a new Redis-backed store
func NewRedisStore(client *redis.Client) *RedisStore {
	return &RedisStore{client: client}
}

// CheckHealth verifies Redis connectivity
func (s *RedisStore) CheckHealth(ctx context.Context) error {
	if err := s.client.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("redis health check failed: %w", err)
	}
	return nil
}

// Save stores an account, replacing any record with the same UUID. Accounts
// carry a refresh token that outlives the session token, so records never
// expire on their own.
func (s *RedisStore) Save(ctx context.Context, account *Account) error {
	data, err := json.Marshal(account)
	if err != nil {
		return fmt.Errorf("marshaling account: %w", err)
	}

	// Use pipeline to write record and index atomically
	pipe := s.client.Pipeline()
	pipe.Set(ctx, accountPrefix+account.UUID, data, 0)
	pipe.SAdd(ctx, accountIndex, account.UUID)

	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("saving account: %w", err)
	}
	return nil
}

// Get retrieves an account by player UUID
func (s *RedisStore) Get(ctx context.Context, uuid string) (*Account, error) {
	data, err := s.client.Get(ctx, accountPrefix+uuid).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, fmt.Errorf("getting account: %w", err)
	}

	var account Account
	if err := json.Unmarshal(data, &account); err != nil {
		return nil, fmt.Errorf("unmarshaling account: %w", err)
	}
	return &account, nil
}

// List returns all stored accounts
func (s *RedisStore) List(ctx context.Context) ([]*Account, error) {
	uuids, err := s.client.SMembers(ctx, accountIndex).Result()
	if err != nil {
		return nil, fmt.Errorf("listing accounts: %w", err)
	}

	list := make([]*Account, 0, len(uuids))
	for _, uuid := range uuids {
		account, err := s.Get(ctx, uuid)
		if err != nil {
			return nil, err
		}
		// Skip index entries whose record was deleted out of band
		if account == nil {
			continue
		}
		list = append(list, account)
	}
	return list, nil
}

// Delete removes an account and its index entry
func (s *RedisStore) Delete(ctx context.Context, uuid string) error {
	pipe := s.client.Pipeline()
	pipe.Del(ctx, accountPrefix+uuid)
	pipe.SRem(ctx, accountIndex, uuid)

	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("deleting account: %w", err)
	}
	return nil
}
