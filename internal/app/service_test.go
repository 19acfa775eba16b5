package app

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/jaminalder/time-travel-tic-tac-toe/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// minimal renderer for tests: encode step as bytes
func testRenderer(gs GameState) []byte { return []byte(fmt.Sprintf("step=%d", gs.View.Step)) }

func newTestService(t *testing.T) (*Service, *GameState) {
	t.Helper()
	s := NewService(WithRenderer(testRenderer))
	gs, err := s.CreateGame()
	require.NoError(t, err)
	return s, gs
}

func TestCreateAndGet(t *testing.T) {
	s, gs := newTestService(t)
	assert.NotEmpty(t, gs.ID)
	assert.Equal(t, domain.X, gs.View.Next)
	assert.Equal(t, 0, gs.View.Step)
	assert.False(t, gs.Created.IsZero())
	assert.False(t, gs.Updated.IsZero())

	got, ok := s.Get(gs.ID)
	require.True(t, ok)
	assert.Equal(t, gs.ID, got.ID)

	_, ok = s.Get("missing")
	assert.False(t, ok)
}

func TestSessionsAreIndependent(t *testing.T) {
	s, a := newTestService(t)
	b, err := s.CreateGame()
	require.NoError(t, err)
	require.NotEqual(t, a.ID, b.ID)

	_, err = s.Play(a.ID, 4)
	require.NoError(t, err)
	got, _ := s.Get(b.ID)
	assert.Equal(t, domain.Board{}, got.View.Board)
}

func TestPlayAppliesMove(t *testing.T) {
	s, gs := newTestService(t)
	st, err := s.Play(gs.ID, 0)
	require.NoError(t, err)
	assert.Equal(t, domain.X, st.View.Board[0])
	assert.Equal(t, domain.O, st.View.Next)
	assert.Equal(t, 1, st.View.Step)
	assert.Len(t, st.View.Moves, 2)
}

func TestPlayIgnoredMoveReturnsState(t *testing.T) {
	s, gs := newTestService(t)
	_, err := s.Play(gs.ID, 0)
	require.NoError(t, err)
	st, err := s.Play(gs.ID, 0)
	require.NoError(t, err)
	assert.Equal(t, 1, st.View.Step)
	assert.Equal(t, domain.O, st.View.Next)
}

func TestUnknownGame(t *testing.T) {
	s := NewService()
	_, err := s.Play("nope", 0)
	assert.ErrorIs(t, err, ErrNotFound)
	_, err = s.JumpTo("nope", 0)
	assert.ErrorIs(t, err, ErrNotFound)
	_, err = s.ToggleOrder("nope")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestJumpToAndBranch(t *testing.T) {
	s, gs := newTestService(t)
	for _, i := range []int{0, 4} {
		_, err := s.Play(gs.ID, i)
		require.NoError(t, err)
	}
	st, err := s.JumpTo(gs.ID, 0)
	require.NoError(t, err)
	assert.Equal(t, 0, st.View.Step)
	assert.Len(t, st.View.Moves, 3)

	st, err = s.Play(gs.ID, 8)
	require.NoError(t, err)
	assert.Len(t, st.View.Moves, 2)
	assert.Equal(t, 8, st.View.Moves[1].Index)
}

func TestJumpOutOfRangeWrapsDomainError(t *testing.T) {
	s, gs := newTestService(t)
	_, err := s.JumpTo(gs.ID, 3)
	assert.ErrorIs(t, err, domain.ErrStepOutOfRange)
	got, _ := s.Get(gs.ID)
	assert.Equal(t, 0, got.View.Step)
}

func TestToggleOrder(t *testing.T) {
	s, gs := newTestService(t)
	_, _ = s.Play(gs.ID, 0)
	st, err := s.ToggleOrder(gs.ID)
	require.NoError(t, err)
	assert.False(t, st.View.Ascending)
	assert.Equal(t, 1, st.View.Moves[0].Step)
}

func TestSubscribeAndBroadcast(t *testing.T) {
	s, gs := newTestService(t)

	ctx, cancel := context.WithTimeout(context.Background(), time.Second*2)
	defer cancel()
	ch, unsub := s.Subscribe(ctx, gs.ID)
	defer unsub()

	_, err := s.Play(gs.ID, 0)
	require.NoError(t, err)

	select {
	case b, ok := <-ch:
		require.True(t, ok, "channel closed unexpectedly")
		assert.Equal(t, "step=1", string(b))
	case <-ctx.Done():
		t.Fatalf("timed out waiting for broadcast")
	}
}

func TestIgnoredMoveDoesNotBroadcast(t *testing.T) {
	s, gs := newTestService(t)
	_, _ = s.Play(gs.ID, 0)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	ch, unsub := s.Subscribe(ctx, gs.ID)
	defer unsub()

	_, err := s.Play(gs.ID, 0)
	require.NoError(t, err)
	_, err = s.JumpTo(gs.ID, 1)
	require.NoError(t, err)

	select {
	case b := <-ch:
		t.Fatalf("unexpected broadcast %q", string(b))
	default:
	}
}

func TestDropSlowSubscriber(t *testing.T) {
	s, gs := newTestService(t)

	// Slow subscriber: never read
	ctxSlow, cancelSlow := context.WithCancel(context.Background())
	defer cancelSlow()
	slowCh, _ := s.Subscribe(ctxSlow, gs.ID)

	ctxFast, cancelFast := context.WithTimeout(context.Background(), time.Second*2)
	defer cancelFast()
	fastCh, unsubFast := s.Subscribe(ctxFast, gs.ID)
	defer unsubFast()

	_, err := s.Play(gs.ID, 0)
	require.NoError(t, err)
	select {
	case <-fastCh:
	case <-ctxFast.Done():
		t.Fatalf("fast subscriber did not receive first update")
	}
	_, err = s.Play(gs.ID, 4)
	require.NoError(t, err)
	select {
	case <-fastCh:
	case <-ctxFast.Done():
		t.Fatalf("fast subscriber did not receive second update")
	}

	// slow got the first payload buffered, then was closed on the second
	b, ok := <-slowCh
	require.True(t, ok)
	assert.Equal(t, "step=1", string(b))
	_, ok = <-slowCh
	assert.False(t, ok, "slow subscriber should be closed")
}

func TestUnsubscribeClosesChannel(t *testing.T) {
	s, gs := newTestService(t)
	ch, unsub := s.Subscribe(context.Background(), gs.ID)
	unsub()
	unsub()
	_, ok := <-ch
	assert.False(t, ok)
}

func TestUnsubscribeDuringBroadcast(t *testing.T) {
	s, gs := newTestService(t)

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		ctx, cancel := context.WithCancel(context.Background())
		ch, unsub := s.Subscribe(ctx, gs.ID)
		wg.Add(3)
		go func() {
			defer wg.Done()
			cancel()
		}()
		go func() {
			defer wg.Done()
			unsub()
		}()
		go func() {
			defer wg.Done()
			for range ch {
			}
		}()
		_, err := s.ToggleOrder(gs.ID)
		require.NoError(t, err)
	}
	wg.Wait()

	// every subscriber is gone; updates still succeed
	st, err := s.ToggleOrder(gs.ID)
	require.NoError(t, err)
	assert.NotNil(t, st)
	s.mu.Lock()
	assert.Empty(t, s.subs[gs.ID])
	s.mu.Unlock()
}
