// Package redis persists the paper-trading account document and the most
// recent cycle result in Redis.
package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"time"

	goredis "github.com/go-redis/redis/v8"

	"trading-agentv1/internal/model"
)

const (
	accountKey   = "agent:account:main"
	lastCycleKey = "agent:cycle:last"

	lastCycleTTL = 24 * time.Hour
)

// Config configures the Redis store.
type Config struct {
	Addr     string // Redis address, e.g. "localhost:6379"
	Password string
	DB       int
}

// Store holds the account document as a single JSON value. Whole-document
// SET on every save keeps the persisted state internally consistent.
type Store struct {
	client *goredis.Client
}

// Client returns the underlying Redis client for health checks.
func (s *Store) Client() *goredis.Client { return s.client }

// New creates a Store and pings the server.
func New(cfg Config) (*Store, error) {
	client := goredis.NewClient(&goredis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("redis ping: %w", err)
	}

	log.Printf("[redis] connected to %s", cfg.Addr)
	return &Store{client: client}, nil
}

// SaveAccount replaces the persisted account document.
func (s *Store) SaveAccount(ctx context.Context, doc *model.AccountDocument) error {
	data, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("marshal account document: %w", err)
	}
	if err := s.client.Set(ctx, accountKey, data, 0).Err(); err != nil {
		return fmt.Errorf("redis SET %s: %w", accountKey, err)
	}
	return nil
}

// LoadAccount returns the persisted account document, or nil, nil when no
// document exists yet.
func (s *Store) LoadAccount(ctx context.Context) (*model.AccountDocument, error) {
	data, err := s.client.Get(ctx, accountKey).Bytes()
	if err != nil {
		if err == goredis.Nil {
			return nil, nil
		}
		return nil, fmt.Errorf("redis GET %s: %w", accountKey, err)
	}

	var doc model.AccountDocument
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("decode account document: %w", err)
	}
	return &doc, nil
}

// SetLastCycle caches the most recent cycle result for the API to serve
// without re-running a cycle. Best-effort: failures are logged only.
func (s *Store) SetLastCycle(ctx context.Context, result any) {
	data, err := json.Marshal(result)
	if err != nil {
		log.Printf("[redis] marshal cycle result: %v", err)
		return
	}
	if err := s.client.Set(ctx, lastCycleKey, data, lastCycleTTL).Err(); err != nil {
		log.Printf("[redis] cache cycle result: %v", err)
	}
}

// LastCycle returns the cached cycle result, or nil when absent.
func (s *Store) LastCycle(ctx context.Context) (json.RawMessage, error) {
	data, err := s.client.Get(ctx, lastCycleKey).Bytes()
	if err != nil {
		if err == goredis.Nil {
			return nil, nil
		}
		return nil, fmt.Errorf("redis GET %s: %w", lastCycleKey, err)
	}
	return json.RawMessage(data), nil
}

// Close closes the Redis client.
func (s *Store) Close() error {
	return s.client.Close()
}
