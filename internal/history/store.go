package history

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/quantbao/stockchat-backend/internal/models"
	"github.com/quantbao/stockchat-backend/internal/storage"
)

// maxTurns caps the conversation; the oldest turns are evicted first.
const maxTurns = 50

const (
	historyKey = "chatHistory"
	themeKey   = "theme"
)

// Store is the append-only conversation history. One instance exists
// per process and is the sole writer of its durable keys. Every append
// persists the whole truncated list, so a write is atomic from the
// caller's perspective.
type Store struct {
	kv storage.KV

	mu    sync.Mutex
	turns []models.Turn
}

func NewStore(kv storage.KV) *Store {
	return &Store{kv: kv}
}

// Load reads the persisted turn list. Absent or corrupt data starts an
// empty conversation; Load never fails the session over it.
func (s *Store) Load(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.turns = nil

	data, err := s.kv.Get(ctx, historyKey)
	if err != nil {
		fmt.Printf("[HISTORY] Load failed, starting empty: %v\n", err)
		return
	}
	if data == nil {
		return
	}

	var turns []models.Turn
	if err := json.Unmarshal(data, &turns); err != nil {
		fmt.Printf("[HISTORY] Corrupt history discarded: %v\n", err)
		return
	}
	if len(turns) > maxTurns {
		turns = turns[len(turns)-maxTurns:]
	}
	s.turns = turns
}

// Append stamps a new turn with the current time, pushes it to the
// end, truncates to the newest 50 and persists the full list.
func (s *Store) Append(ctx context.Context, role, content string) (models.Turn, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	turn := models.Turn{Role: role, Content: content, Timestamp: time.Now()}
	s.turns = append(s.turns, turn)
	if len(s.turns) > maxTurns {
		s.turns = s.turns[len(s.turns)-maxTurns:]
	}

	data, err := json.Marshal(s.turns)
	if err != nil {
		return turn, fmt.Errorf("marshal history: %w", err)
	}
	if err := s.kv.Set(ctx, historyKey, data); err != nil {
		return turn, fmt.Errorf("persist history: %w", err)
	}
	return turn, nil
}

// All returns the turns in insertion order.
func (s *Store) All() []models.Turn {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]models.Turn, len(s.turns))
	copy(out, s.turns)
	return out
}

// Clear empties the conversation and removes the durable key.
func (s *Store) Clear(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.turns = nil
	if err := s.kv.Delete(ctx, historyKey); err != nil {
		return fmt.Errorf("clear history: %w", err)
	}
	return nil
}

// Theme returns the persisted theme name, or fallback when unset.
func (s *Store) Theme(ctx context.Context, fallback string) string {
	data, err := s.kv.Get(ctx, themeKey)
	if err != nil || data == nil {
		return fallback
	}
	var name string
	if err := json.Unmarshal(data, &name); err != nil || name == "" {
		return fallback
	}
	return name
}

// SetTheme persists the active theme name.
func (s *Store) SetTheme(ctx context.Context, name string) error {
	data, err := json.Marshal(name)
	if err != nil {
		return err
	}
	return s.kv.Set(ctx, themeKey, data)
}
