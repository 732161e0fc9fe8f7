package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// SchemaVersion tags every persisted blob; bump it when a stored shape changes.
const SchemaVersion = 1

const (
	keyPrefix  = "session:"
	lockPrefix = "lock:"
	defaultTTL = 7 * 24 * time.Hour
)

var (
	ErrNotFound = errors.New("session: not found")
	ErrVersion  = errors.New("session: unsupported blob version")
)

var releaseLockScript = redis.NewScript(`
if redis.call('GET', KEYS[1]) == ARGV[1] then
	return redis.call('DEL', KEYS[1])
end
return 0
`)

type envelope struct {
	Version int             `json:"version"`
	SavedAt time.Time       `json:"saved_at"`
	Data    json.RawMessage `json:"data"`
}

// Store keeps one JSON blob per (session, namespace), e.g. session:<id>:cart.
type Store struct {
	client redis.UniversalClient
	ttl    time.Duration
}

func NewStore(client redis.UniversalClient, ttl time.Duration) *Store {
	if ttl <= 0 {
		ttl = defaultTTL
	}
	return &Store{client: client, ttl: ttl}
}

func NewClient(ctx context.Context, addr, password string, db int) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})

	pingCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("ping redis: %w", err)
	}
	return client, nil
}

func Key(sessionID, namespace string) string {
	return keyPrefix + sessionID + ":" + namespace
}

func (s *Store) Load(ctx context.Context, sessionID, namespace string, v any) error {
	raw, err := s.client.Get(ctx, Key(sessionID, namespace)).Bytes()
	if errors.Is(err, redis.Nil) {
		return ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("session: get %s: %w", namespace, err)
	}

	var env envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return fmt.Errorf("session: decode %s: %w", namespace, err)
	}
	if env.Version != SchemaVersion {
		return fmt.Errorf("%w: %s has version %d", ErrVersion, namespace, env.Version)
	}
	return json.Unmarshal(env.Data, v)
}

func (s *Store) Save(ctx context.Context, sessionID, namespace string, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("session: encode %s: %w", namespace, err)
	}
	raw, err := json.Marshal(envelope{Version: SchemaVersion, SavedAt: time.Now().UTC(), Data: data})
	if err != nil {
		return fmt.Errorf("session: encode %s: %w", namespace, err)
	}
	return s.client.Set(ctx, Key(sessionID, namespace), raw, s.ttl).Err()
}

func (s *Store) Delete(ctx context.Context, sessionID, namespace string) error {
	return s.client.Del(ctx, Key(sessionID, namespace)).Err()
}

// Acquire takes a named lock for ttl. The returned token must be passed to Release.
func (s *Store) Acquire(ctx context.Context, name string, ttl time.Duration) (string, bool, error) {
	token := uuid.NewString()
	ok, err := s.client.SetNX(ctx, lockPrefix+name, token, ttl).Result()
	if err != nil {
		return "", false, fmt.Errorf("session: acquire %s: %w", name, err)
	}
	if !ok {
		return "", false, nil
	}
	return token, true, nil
}

func (s *Store) Release(ctx context.Context, name, token string) error {
	return releaseLockScript.Run(ctx, s.client, []string{lockPrefix + name}, token).Err()
}

func (s *Store) Locked(ctx context.Context, name string) (bool, error) {
	n, err := s.client.Exists(ctx, lockPrefix+name).Result()
	if err != nil {
		return false, fmt.Errorf("session: lock state %s: %w", name, err)
	}
	return n > 0, nil
}
