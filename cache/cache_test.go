package cache

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"
)

type memoryStore struct {
	mu      sync.Mutex
	data    map[string][]byte
	ttls    map[string]time.Duration
	getErr  error
	setErr  error
	setKeys []string
}

func newMemoryStore() *memoryStore {
	return &memoryStore{data: map[string][]byte{}, ttls: map[string]time.Duration{}}
}

func (m *memoryStore) Get(_ context.Context, key string) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.getErr != nil {
		return nil, m.getErr
	}
	v, ok := m.data[key]
	if !ok {
		return nil, ErrMiss
	}
	return v, nil
}

func (m *memoryStore) Set(_ context.Context, key string, value []byte, ttl time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.setKeys = append(m.setKeys, key)
	if m.setErr != nil {
		return m.setErr
	}
	m.data[key] = value
	m.ttls[key] = ttl
	return nil
}

type quote struct {
	Ticker string `json:"ticker"`
	Close  string `json:"close"`
}

func TestMemoize(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name      string
		prepare   func(*memoryStore)
		fnErr     error
		wantCalls int
		wantErr   bool
		wantSets  int
	}{
		{name: "miss calls fn and stores", wantCalls: 1, wantSets: 1},
		{
			name:      "hit skips fn",
			prepare:   func(m *memoryStore) { m.data["records:ACME"] = []byte(`{"ticker":"ACME","close":"100.00"}`) },
			wantCalls: 0,
		},
		{
			name:      "corrupt entry is refreshed",
			prepare:   func(m *memoryStore) { m.data["records:ACME"] = []byte(`{not json`) },
			wantCalls: 1,
			wantSets:  1,
		},
		{
			name:      "store outage falls through",
			prepare:   func(m *memoryStore) { m.getErr = errors.New("connection refused"); m.setErr = m.getErr },
			wantCalls: 1,
			wantSets:  1,
		},
		{name: "fn error is not cached", fnErr: errors.New("timeout"), wantCalls: 1, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			store := newMemoryStore()
			if tt.prepare != nil {
				tt.prepare(store)
			}

			calls := 0
			got, err := Memoize(context.Background(), store, "records:ACME", time.Minute, func(context.Context) (quote, error) {
				calls++
				if tt.fnErr != nil {
					return quote{}, tt.fnErr
				}
				return quote{Ticker: "ACME", Close: "100.00"}, nil
			})

			if (err != nil) != tt.wantErr {
				t.Fatalf("err = %v, wantErr %v", err, tt.wantErr)
			}
			if calls != tt.wantCalls {
				t.Errorf("fn called %d times, want %d", calls, tt.wantCalls)
			}
			if len(store.setKeys) != tt.wantSets {
				t.Errorf("Set called %d times, want %d", len(store.setKeys), tt.wantSets)
			}
			if !tt.wantErr && got.Ticker != "ACME" {
				t.Errorf("result = %+v", got)
			}
		})
	}
}

func TestMemoizeTTL(t *testing.T) {
	t.Parallel()

	store := newMemoryStore()
	_, err := Memoize(context.Background(), store, "k", 90*time.Second, func(context.Context) (int, error) { return 7, nil })
	if err != nil {
		t.Fatalf("Memoize: %v", err)
	}
	if store.ttls["k"] != 90*time.Second {
		t.Errorf("ttl = %s, want 1m30s", store.ttls["k"])
	}

	got, err := Memoize(context.Background(), store, "k", time.Second, func(context.Context) (int, error) { return 0, errors.New("unused") })
	if err != nil || got != 7 {
		t.Errorf("second call = %d, %v; want cached 7", got, err)
	}
}
