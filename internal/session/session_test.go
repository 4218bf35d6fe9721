package session

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/csdeziycsdezy-ops/VirtualVizitka/internal/card"
	"github.com/csdeziycsdezy-ops/VirtualVizitka/internal/testutil"
)

func TestState_Names(t *testing.T) {
	assert.Equal(t, "idle", Idle{}.Name())
	assert.Equal(t, "creating/name", StartCreating().Name())
	assert.Equal(t, "editing/instagramHandle", Editing{Field: card.FieldInstagram}.Name())
}

func TestCreating_Advance(t *testing.T) {
	s := StartCreating()
	values := []string{"Ali", "Valiyev", "Tashkent", "+998901234567", "ali_v"}

	for i, v := range values {
		prev := s
		next, done := s.Advance(v)
		require.False(t, done, "step %d", i)
		assert.Equal(t, card.Fields[i+1], next.Step, "advances exactly one step")
		assert.Equal(t, v, next.Draft.Get(card.Fields[i]))
		assert.Equal(t, prev.Draft, next.Draft.With(card.Fields[i], ""), "earlier fields unchanged")
		assert.Equal(t, "", prev.Draft.Get(card.Fields[i]), "receiver not mutated")
		s = next
	}

	final, done := s.Advance("Engineer")
	require.True(t, done)
	assert.Equal(t, card.Card{
		Name:       "Ali",
		Surname:    "Valiyev",
		Location:   "Tashkent",
		Phone:      "+998901234567",
		Instagram:  "ali_v",
		Profession: "Engineer",
	}, final.Draft)
}

func TestRegistry_GetDefaultsToIdle(t *testing.T) {
	r := NewRegistry()
	assert.Equal(t, Idle{}, r.Get(1))
	assert.Equal(t, 0, r.Len(), "Get must not allocate an entry")
}

func TestRegistry_SetGetReset(t *testing.T) {
	r := NewRegistry()

	r.Set(1, Editing{Field: card.FieldPhone})
	assert.Equal(t, Editing{Field: card.FieldPhone}, r.Get(1))
	assert.Equal(t, 1, r.Len())

	r.Reset(1)
	assert.Equal(t, Idle{}, r.Get(1))
	assert.Equal(t, 0, r.Len())
}

func TestRegistry_SetIdleRemovesEntry(t *testing.T) {
	r := NewRegistry()
	r.Set(1, StartCreating())
	r.Set(1, Idle{})
	assert.Equal(t, 0, r.Len())
}

func TestRegistry_UsersIndependent(t *testing.T) {
	r := NewRegistry()
	a := StartCreating()
	a, _ = a.Advance("Ali")

	r.Set(1, a)
	r.Set(2, StartCreating())
	r.Reset(2)

	assert.Equal(t, a, r.Get(1))
	assert.Equal(t, Idle{}, r.Get(2))
}

func TestRegistry_IndependentInstances(t *testing.T) {
	r1 := NewRegistry()
	r2 := NewRegistry()

	r1.Set(1, StartCreating())
	assert.Equal(t, Idle{}, r2.Get(1))
}

func TestRegistry_Expiry(t *testing.T) {
	clock := testutil.NewManualClock()
	r := NewRegistry(WithTTL(time.Minute), WithClock(clock.Now))

	r.Set(1, StartCreating())
	clock.Advance(59 * time.Second)
	assert.Equal(t, StartCreating(), r.Get(1))

	clock.Advance(time.Second)
	assert.Equal(t, Idle{}, r.Get(1), "abandoned flow reads as idle")
	assert.Equal(t, 0, r.Len())
}

func TestRegistry_SetRefreshesTTL(t *testing.T) {
	clock := testutil.NewManualClock()
	r := NewRegistry(WithTTL(time.Minute), WithClock(clock.Now))

	s := StartCreating()
	r.Set(1, s)
	clock.Advance(50 * time.Second)

	s, _ = s.Advance("Ali")
	r.Set(1, s)
	clock.Advance(50 * time.Second)

	assert.Equal(t, s, r.Get(1))
}

func TestRegistry_Sweep(t *testing.T) {
	clock := testutil.NewManualClock()
	r := NewRegistry(WithTTL(time.Minute), WithClock(clock.Now))

	r.Set(1, StartCreating())
	clock.Advance(30 * time.Second)
	r.Set(2, Editing{Field: card.FieldName})
	clock.Advance(40 * time.Second)

	assert.Equal(t, 1, r.Sweep())
	assert.Equal(t, 1, r.Len())
	assert.Equal(t, Editing{Field: card.FieldName}, r.Get(2))
}

func TestRegistry_ZeroTTLNeverExpires(t *testing.T) {
	clock := testutil.NewManualClock()
	r := NewRegistry(WithTTL(0), WithClock(clock.Now))

	r.Set(1, StartCreating())
	clock.Advance(1000 * time.Hour)

	assert.Equal(t, 0, r.Sweep())
	assert.Equal(t, StartCreating(), r.Get(1))
}

func TestRegistry_ConcurrentUsers(t *testing.T) {
	r := NewRegistry()
	const users = 50

	var wg sync.WaitGroup
	for i := 1; i <= users; i++ {
		wg.Add(1)
		go func(uid card.UserID) {
			defer wg.Done()
			s := StartCreating()
			for _, v := range []string{"Ali", "Valiyev", "Tashkent"} {
				r.Set(uid, s)
				cur := r.Get(uid).(Creating)
				s, _ = cur.Advance(v)
			}
			r.Set(uid, s)
		}(card.UserID(i))
	}
	wg.Wait()

	assert.Equal(t, users, r.Len())
	for i := 1; i <= users; i++ {
		s, ok := r.Get(card.UserID(i)).(Creating)
		require.True(t, ok)
		assert.Equal(t, card.FieldPhone, s.Step)
		assert.Equal(t, "Tashkent", s.Draft.Location)
	}
}

func TestRegistry_RunSweeper(t *testing.T) {
	clock := testutil.NewManualClock()
	r := NewRegistry(WithTTL(time.Minute), WithClock(clock.Now))
	r.Set(1, StartCreating())
	r.Set(2, StartCreating())
	clock.Advance(2 * time.Minute)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	type result struct{ evicted, remaining int }
	results := make(chan result, 16)
	done := make(chan error, 1)
	go func() {
		done <- r.RunSweeper(ctx, 5*time.Millisecond, func(evicted, remaining int) {
			select {
			case results <- result{evicted, remaining}:
			default:
			}
		})
	}()

	select {
	case got := <-results:
		assert.Equal(t, result{evicted: 2, remaining: 0}, got)
	case <-time.After(2 * time.Second):
		t.Fatal("sweeper never ran")
	}

	cancel()
	require.NoError(t, <-done)
}

func TestRegistry_RunSweeperDisabled(t *testing.T) {
	assert.NoError(t, NewRegistry().RunSweeper(context.Background(), 0, nil))
	assert.NoError(t, NewRegistry(WithTTL(0)).RunSweeper(context.Background(), time.Second, nil))
}
