package cart

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type clock struct{ t time.Time }

func (c *clock) now() time.Time { return c.t }

func newClockedStore(ttl time.Duration) (*MemoryStore, *clock) {
	c := &clock{t: time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)}
	s := NewMemoryStore(ttl)
	s.now = c.now
	return s, c
}

var teaEntry = []Entry{{MenuID: 5, Name: "Tea", Price: decimal.NewFromInt(15), Quantity: 1}}

func TestMemoryStoreExpiresIdleCarts(t *testing.T) {
	s, c := newClockedStore(time.Hour)
	ctx := context.Background()
	require.NoError(t, s.Save(ctx, "a", teaEntry))

	c.t = c.t.Add(59 * time.Minute)
	got, err := s.Load(ctx, "a")
	require.NoError(t, err)
	assert.Len(t, got, 1)

	// the load above slid the deadline
	c.t = c.t.Add(59 * time.Minute)
	got, _ = s.Load(ctx, "a")
	assert.Len(t, got, 1)

	c.t = c.t.Add(time.Hour)
	got, err = s.Load(ctx, "a")
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestMemoryStoreSweep(t *testing.T) {
	s, c := newClockedStore(30 * time.Minute)
	ctx := context.Background()
	require.NoError(t, s.Save(ctx, "old", teaEntry))
	c.t = c.t.Add(20 * time.Minute)
	require.NoError(t, s.Save(ctx, "fresh", teaEntry))

	c.t = c.t.Add(15 * time.Minute)
	assert.Equal(t, 1, s.Sweep())

	got, _ := s.Load(ctx, "fresh")
	assert.Len(t, got, 1)
	assert.Zero(t, s.Sweep())
}

func TestMemoryStoreWithoutTTLKeepsCarts(t *testing.T) {
	s, c := newClockedStore(0)
	ctx := context.Background()
	require.NoError(t, s.Save(ctx, "a", teaEntry))

	c.t = c.t.Add(24 * 365 * time.Hour)
	assert.Zero(t, s.Sweep())
	got, _ := s.Load(ctx, "a")
	assert.Len(t, got, 1)
}
