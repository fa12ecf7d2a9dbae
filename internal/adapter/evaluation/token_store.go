package evaluation

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"github.com/vadimbarashkov/shortlinks/internal/entity"
)

// DefaultTokenKey is the slot key the access token is kept under.
const DefaultTokenKey = "authData"

var ErrNoToken = errors.New("no access token stored")

type slot interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte) error
}

// TokenStore keeps the most recent Token in a slot so it survives restarts.
type TokenStore struct {
	slot slot
	key  string

	mu     sync.Mutex
	cached *Token
}

func NewTokenStore(slot slot, key string) *TokenStore {
	if key == "" {
		key = DefaultTokenKey
	}

	return &TokenStore{
		slot: slot,
		key:  key,
	}
}

// Token returns the stored token or ErrNoToken when none is available.
func (s *TokenStore) Token(ctx context.Context) (*Token, error) {
	const op = "adapter.evaluation.TokenStore.Token"

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.cached != nil {
		t := *s.cached
		return &t, nil
	}

	data, err := s.slot.Get(ctx, s.key)
	if errors.Is(err, entity.ErrSlotEmpty) {
		return nil, fmt.Errorf("%s: %w", op, ErrNoToken)
	}
	if err != nil {
		return nil, fmt.Errorf("%s: failed to read token: %w", op, err)
	}

	var t Token
	if err := json.Unmarshal(data, &t); err != nil {
		return nil, fmt.Errorf("%s: failed to decode token: %w", op, err)
	}
	if t.AccessToken == "" {
		return nil, fmt.Errorf("%s: %w", op, ErrNoToken)
	}

	s.cached = &t
	return &t, nil
}

func (s *TokenStore) Save(ctx context.Context, t *Token) error {
	const op = "adapter.evaluation.TokenStore.Save"

	data, err := json.Marshal(t)
	if err != nil {
		return fmt.Errorf("%s: failed to encode token: %w", op, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.slot.Set(ctx, s.key, data); err != nil {
		return fmt.Errorf("%s: failed to write token: %w", op, err)
	}

	saved := *t
	s.cached = &saved
	return nil
}

// Clear forgets the stored token.
func (s *TokenStore) Clear(ctx context.Context) error {
	const op = "adapter.evaluation.TokenStore.Clear"

	s.mu.Lock()
	defer s.mu.Unlock()

	s.cached = nil
	if err := s.slot.Set(ctx, s.key, []byte(`{}`)); err != nil {
		return fmt.Errorf("%s: failed to clear token: %w", op, err)
	}

	return nil
}
