package workflow

import (
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/Passbob/dopamine-travel-front/internal/itinerary"
	"github.com/Passbob/dopamine-travel-front/internal/selection"
	"github.com/Passbob/dopamine-travel-front/internal/travelapi"
)

type fixedRand int

func (f fixedRand) IntN(n int) int { return int(f) % n }

type clock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *clock) Add(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

func newTestStore(t *testing.T) (*Store, *clock) {
	t.Helper()
	clk := &clock{now: time.Date(2025, 5, 5, 10, 0, 0, 0, time.UTC)}
	seq := 0
	store := NewStore(StoreDeps{
		TTL:   10 * time.Minute,
		Clock: clk.Now,
		IDGenerator: func() string {
			seq++
			return fmt.Sprintf("wf-%d", seq)
		},
	})
	return store, clk
}

func TestChainMissing(t *testing.T) {
	var chain Chain
	require.Empty(t, chain.Missing(StepProvince))
	require.Equal(t, []string{"province"}, chain.Missing(StepCity))
	require.Equal(t, []string{"province", "city", "theme", "constraint"}, chain.Missing(StepCourse))

	chain.Province = &travelapi.Province{No: 1, Name: "P"}
	chain.City = &travelapi.City{No: 2, Name: "C"}
	require.Empty(t, chain.Missing(StepTheme))
	require.Equal(t, []string{"theme", "constraint"}, chain.Missing(StepCourse))

	_, err := chain.Query()
	require.ErrorIs(t, err, ErrMissingSelection)
	require.Contains(t, err.Error(), "theme, constraint")

	chain.Theme = &travelapi.Theme{No: 3, Name: "T"}
	_, err = chain.Query()
	require.ErrorIs(t, err, ErrMissingSelection)
	require.False(t, chain.Complete())

	chain.Constraint = &travelapi.Constraint{No: 4, Name: "K"}
	require.True(t, chain.Complete())
	q, err := chain.Query()
	require.NoError(t, err)
	require.Equal(t, travelapi.CourseQuery{ProvinceNo: 1, CityNo: 2, ThemeNo: 3, ConstraintNo: 4}, q)
}

func TestStoreSettlesSelectionIntoChain(t *testing.T) {
	store, clk := newTestStore(t)
	id := store.Create()
	require.Equal(t, "wf-1", id)

	provinces := []travelapi.Province{{No: 1, Name: "A"}, {No: 2, Name: "B"}, {No: 3, Name: "C"}}
	var reveal time.Duration
	require.NoError(t, store.Update(id, func(wf *Workflow) error {
		m, err := selection.NewMachine(provinces, selection.WithStyle(selection.Wheel), selection.WithRand(fixedRand(1)))
		if err != nil {
			return err
		}
		wf.Province = m
		run := m.Start(store.Now())
		reveal = run.Plan.Duration
		return nil
	}))

	clk.Add(reveal / 2)
	require.NoError(t, store.Update(id, func(wf *Workflow) error {
		require.Nil(t, wf.Chain.Province)
		require.Equal(t, selection.Running, wf.Province.State())
		return nil
	}))

	clk.Add(reveal)
	require.NoError(t, store.Update(id, func(wf *Workflow) error {
		require.NotNil(t, wf.Chain.Province)
		require.Equal(t, travelapi.Province{No: 2, Name: "B"}, *wf.Chain.Province)
		return nil
	}))
}

func TestStoreThemeAndConstraintSettleTogether(t *testing.T) {
	store, clk := newTestStore(t)
	id := store.Create()

	require.NoError(t, store.Update(id, func(wf *Workflow) error {
		theme, _ := selection.NewMachine([]travelapi.Theme{{No: 1, Name: "food"}}, selection.WithStyle(selection.ThemeReel), selection.WithRand(fixedRand(0)))
		constraint, _ := selection.NewMachine([]travelapi.Constraint{{No: 9, Name: "walk"}}, selection.WithStyle(selection.ConstraintReel), selection.WithRand(fixedRand(0)))
		wf.Theme, wf.Constraint = theme, constraint
		now := store.Now()
		theme.Start(now)
		constraint.Start(now)
		return nil
	}))

	// Constraint reel (25 ticks) finishes before the theme reel (30 ticks).
	clk.Add(2600 * time.Millisecond)
	require.NoError(t, store.Update(id, func(wf *Workflow) error {
		require.Equal(t, selection.Settled, wf.Constraint.State())
		require.Nil(t, wf.Chain.Constraint)
		return nil
	}))

	clk.Add(time.Second)
	require.NoError(t, store.Update(id, func(wf *Workflow) error {
		require.Equal(t, "food", wf.Chain.Theme.Name)
		require.Equal(t, "walk", wf.Chain.Constraint.Name)
		return nil
	}))
}

func TestStoreUpdatePropagatesError(t *testing.T) {
	store, _ := newTestStore(t)
	id := store.Create()
	boom := errors.New("boom")
	require.ErrorIs(t, store.Update(id, func(*Workflow) error { return boom }), boom)
	require.ErrorIs(t, store.Update("missing", func(*Workflow) error { return nil }), ErrNotFound)
	require.ErrorIs(t, store.Update("  ", func(*Workflow) error { return nil }), ErrNotFound)
}

func TestStoreDeleteCancelsRunningAnimations(t *testing.T) {
	store, _ := newTestStore(t)
	id := store.Create()

	var machine *selection.Machine[travelapi.Province]
	require.NoError(t, store.Update(id, func(wf *Workflow) error {
		m, err := selection.NewMachine([]travelapi.Province{{No: 1, Name: "A"}})
		if err != nil {
			return err
		}
		m.Start(store.Now())
		wf.Province = m
		machine = m
		return nil
	}))

	store.Delete(id)
	require.Equal(t, selection.Idle, machine.State())
	require.Zero(t, store.Len())
	require.ErrorIs(t, store.Update(id, func(*Workflow) error { return nil }), ErrNotFound)
}

func TestStoreExpiresIdleWorkflows(t *testing.T) {
	store, clk := newTestStore(t)
	stale := store.Create()
	clk.Add(8 * time.Minute)
	fresh := store.Create()

	clk.Add(3 * time.Minute)
	require.Equal(t, 1, store.Sweep())
	require.Equal(t, 1, store.Len())
	require.NoError(t, store.Update(fresh, func(*Workflow) error { return nil }))
	require.ErrorIs(t, store.Update(stale, func(*Workflow) error { return nil }), ErrNotFound)

	clk.Add(11 * time.Minute)
	require.ErrorIs(t, store.Update(fresh, func(*Workflow) error { return nil }), ErrNotFound)
	require.Zero(t, store.Len())
}

func TestStoreSerialisesUpdates(t *testing.T) {
	store, _ := newTestStore(t)
	id := store.Create()

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = store.Update(id, func(wf *Workflow) error {
				wf.Course.Steps = append(wf.Course.Steps, itinerary.Step{})
				return nil
			})
		}()
	}
	wg.Wait()

	require.NoError(t, store.Update(id, func(wf *Workflow) error {
		require.Len(t, wf.Course.Steps, 50)
		return nil
	}))
}

func TestCourseDrawAndPick(t *testing.T) {
	steps := []itinerary.Step{
		{Order: 1, Name: "X", Slot: 1},
		{Order: 2, Name: "Y", Slot: 3},
		{Order: 3, Name: "Z", Slot: 4},
	}
	var c Course

	require.NoError(t, c.BeginDraw())
	require.ErrorIs(t, c.BeginDraw(), ErrBusy)
	require.ErrorIs(t, c.Pick(0), ErrNotReady)

	shuffle, err := selection.NewMachine(Deck, selection.WithStyle(selection.Cards), selection.WithRand(fixedRand(1)))
	require.NoError(t, err)
	now := time.Unix(0, 0)
	run := shuffle.Start(now)
	c.Shuffle = shuffle
	c.FinishDraw(steps, "")
	require.False(t, c.Busy)
	require.False(t, c.Ready(), "shuffle still running")

	shuffle.Advance(run.RevealAt)
	require.True(t, c.Ready())
	require.ErrorIs(t, c.Pick(5), ErrInvalidCard)

	require.NoError(t, c.Pick(1))
	require.ErrorIs(t, c.Pick(2), ErrAlreadyPicked)

	// Deck offset 1 maps card 1 to step index 2.
	require.Equal(t, 2, c.StepFor(1))
	result := c.Result()
	require.Equal(t, "Z", result[0].Name)
	require.Equal(t, []int{1, 2, 3}, []int{result[0].Order, result[1].Order, result[2].Order})
}

func TestCourseDrawFailure(t *testing.T) {
	var c Course
	require.NoError(t, c.BeginDraw())
	c.FinishDraw(nil, "backend down")
	require.False(t, c.Busy)
	require.Equal(t, "backend down", c.Failure)
	require.False(t, c.Ready())
	require.NoError(t, c.BeginDraw())
	require.Empty(t, c.Failure)
}
