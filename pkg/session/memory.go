package session

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
)

type memLock struct {
	token   string
	expires time.Time
}

// Memory is a process-local Store for tests and single-instance runs without redis.
type Memory struct {
	mu    sync.Mutex
	blobs map[string][]byte
	locks map[string]memLock
	now   func() time.Time
}

func NewMemory() *Memory {
	return &Memory{
		blobs: map[string][]byte{},
		locks: map[string]memLock{},
		now:   time.Now,
	}
}

func (m *Memory) Load(_ context.Context, sessionID, namespace string, v any) error {
	m.mu.Lock()
	raw, ok := m.blobs[Key(sessionID, namespace)]
	m.mu.Unlock()
	if !ok {
		return ErrNotFound
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

func (m *Memory) Save(_ context.Context, sessionID, namespace string, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("session: encode %s: %w", namespace, err)
	}
	raw, err := json.Marshal(envelope{Version: SchemaVersion, SavedAt: m.now().UTC(), Data: data})
	if err != nil {
		return fmt.Errorf("session: encode %s: %w", namespace, err)
	}

	m.mu.Lock()
	m.blobs[Key(sessionID, namespace)] = raw
	m.mu.Unlock()
	return nil
}

func (m *Memory) Delete(_ context.Context, sessionID, namespace string) error {
	m.mu.Lock()
	delete(m.blobs, Key(sessionID, namespace))
	m.mu.Unlock()
	return nil
}

func (m *Memory) Acquire(_ context.Context, name string, ttl time.Duration) (string, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.now()
	if l, ok := m.locks[name]; ok && now.Before(l.expires) {
		return "", false, nil
	}
	token := uuid.NewString()
	m.locks[name] = memLock{token: token, expires: now.Add(ttl)}
	return token, true, nil
}

func (m *Memory) Release(_ context.Context, name, token string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if l, ok := m.locks[name]; ok && l.token == token {
		delete(m.locks, name)
	}
	return nil
}

func (m *Memory) Locked(_ context.Context, name string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	l, ok := m.locks[name]
	return ok && m.now().Before(l.expires), nil
}
