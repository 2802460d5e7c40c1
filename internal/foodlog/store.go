// internal/foodlog/store.go
package foodlog

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/google/uuid"

	"healthai/internal/models"
	"healthai/internal/storage"
)

// DateLayout is the day/month/year display format used for log dates.
const DateLayout = "02/01/2006"

// KV is the durable store the log is persisted to.
type KV interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key, value string) error
	Delete(ctx context.Context, key string) error
}

type Option func(*Store)

// WithClock overrides the time source used to stamp entry dates.
func WithClock(now func() time.Time) Option {
	return func(s *Store) { s.now = now }
}

// WithKey overrides the storage key the collection is kept under.
func WithKey(key string) Option {
	return func(s *Store) { s.key = key }
}

// Store owns the food log. Entries are kept newest first and the whole
// collection is written back after every mutation.
type Store struct {
	kv  KV
	key string
	now func() time.Time

	mu      sync.RWMutex
	entries []models.FoodLogEntry

	// writeMu allows one persist at a time; each persist writes the state
	// current when it acquires the lock.
	writeMu  sync.Mutex
	inflight sync.WaitGroup
}

func New(kv KV, opts ...Option) *Store {
	s := &Store{
		kv:  kv,
		key: storage.KeyFoodEntries,
		now: time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Load replaces the in-memory log with the persisted one. A missing or
// unreadable record leaves the log empty.
func (s *Store) Load(ctx context.Context) {
	entries, err := s.read(ctx)
	if err != nil {
		log.Printf("Warning: failed to load food entries: %v", err)
		entries = nil
	}

	s.mu.Lock()
	s.entries = entries
	s.mu.Unlock()
}

func (s *Store) read(ctx context.Context) ([]models.FoodLogEntry, error) {
	raw, err := s.kv.Get(ctx, s.key)
	if errors.Is(err, storage.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	var entries []models.FoodLogEntry
	if err := json.Unmarshal([]byte(raw), &entries); err != nil {
		return nil, fmt.Errorf("corrupt food log: %w", err)
	}
	return entries, nil
}

// Add commits rec to the log as the newest entry and schedules a persist.
// The returned entry is a copy; the Pending reports the persist outcome.
func (s *Store) Add(rec models.NutritionRecord) (models.FoodLogEntry, *Pending) {
	entry := models.FoodLogEntry{
		ID:              uuid.NewString(),
		Date:            s.now().Local().Format(DateLayout),
		NutritionRecord: rec.Clone(),
	}
	entry.Calories = normalizeCalories(entry.Calories)

	s.mu.Lock()
	s.entries = append([]models.FoodLogEntry{entry}, s.entries...)
	s.mu.Unlock()

	return cloneEntry(entry), s.persist()
}

// ClearAll empties the log and schedules removal of the persisted record.
// The in-memory log stays empty even if the removal fails.
func (s *Store) ClearAll() *Pending {
	s.mu.Lock()
	s.entries = nil
	s.mu.Unlock()

	return s.persist()
}

// Entries returns a copy of the log, newest first.
func (s *Store) Entries() []models.FoodLogEntry {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]models.FoodLogEntry, len(s.entries))
	for i, e := range s.entries {
		out[i] = cloneEntry(e)
	}
	return out
}

func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.entries)
}

// GroupedByDate groups the log by date string. Groups appear in the order
// their date first occurs in the log; entries keep their log order.
func (s *Store) GroupedByDate() []models.DateGroup {
	return GroupByDate(s.Entries())
}

func GroupByDate(entries []models.FoodLogEntry) []models.DateGroup {
	var groups []models.DateGroup
	index := make(map[string]int)
	for _, e := range entries {
		i, ok := index[e.Date]
		if !ok {
			i = len(groups)
			index[e.Date] = i
			groups = append(groups, models.DateGroup{Date: e.Date})
		}
		groups[i].Entries = append(groups[i].Entries, e)
	}
	return groups
}

// Close waits for scheduled persists to finish or for ctx to end.
func (s *Store) Close(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		s.inflight.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (s *Store) persist() *Pending {
	p := newPending()
	s.inflight.Add(1)
	go func() {
		defer s.inflight.Done()
		err := s.write(context.Background())
		if err != nil {
			log.Printf("Warning: failed to persist food entries: %v", err)
		}
		p.finish(err)
	}()
	return p
}

func (s *Store) write(ctx context.Context) error {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	s.mu.RLock()
	empty := len(s.entries) == 0
	data, err := json.Marshal(s.entries)
	s.mu.RUnlock()

	if empty {
		return s.kv.Delete(ctx, s.key)
	}
	if err != nil {
		return fmt.Errorf("failed to marshal food entries: %w", err)
	}
	return s.kv.Set(ctx, s.key, string(data))
}

// normalizeCalories guarantees every recognized language has a calorie
// string so log entries can be summed without nil checks.
func normalizeCalories(cal models.Localized) models.Localized {
	out := make(models.Localized, len(models.Languages))
	for tag, v := range cal {
		out[tag] = v
	}
	for _, lang := range models.Languages {
		if v, ok := out[lang]; !ok || v.IsEmpty() {
			out[lang] = models.TextValue("0")
		}
	}
	return out
}

func cloneEntry(e models.FoodLogEntry) models.FoodLogEntry {
	e.NutritionRecord = e.NutritionRecord.Clone()
	return e
}
