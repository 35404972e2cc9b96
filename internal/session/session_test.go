package session

import (
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStore_PutGetDelete(t *testing.T) {
	s := NewStore(time.Minute)

	_, ok := s.Get(1)
	require.False(t, ok)

	s.Put(Session{UserID: 1, State: StateEmail, Fields: Fields{FullName: "Иванов Иван"}})
	got, ok := s.Get(1)
	require.True(t, ok)
	assert.Equal(t, StateEmail, got.State)
	assert.Equal(t, "Иванов Иван", got.Fields.FullName)
	assert.Equal(t, 1, s.Len())

	// Get returns a copy
	got.State = StatePhone
	again, _ := s.Get(1)
	assert.Equal(t, StateEmail, again.State)

	s.Delete(1)
	_, ok = s.Get(1)
	assert.False(t, ok)
	assert.Equal(t, 0, s.Len())

	s.Delete(42) // no-op
}

func TestStore_IsolatedByUser(t *testing.T) {
	s := NewStore(time.Minute)
	s.Put(Session{UserID: 1, State: StateEmail})
	s.Put(Session{UserID: 2, State: StateCourse})

	s.Delete(1)
	got, ok := s.Get(2)
	require.True(t, ok)
	assert.Equal(t, StateCourse, got.State)
}

func TestStore_IdleExpiry(t *testing.T) {
	s := NewStore(50 * time.Millisecond)
	var evicted atomic.Int64
	s.OnEvicted(func(userID int64) { evicted.Store(userID) })

	s.Put(Session{UserID: 7, State: StateFullName})
	// Get refreshes the idle timer, so only watch the eviction callback.
	require.Eventually(t, func() bool { return evicted.Load() == 7 }, time.Second, 10*time.Millisecond)
	_, ok := s.Get(7)
	assert.False(t, ok)
}

func TestStore_DeleteDoesNotReportEviction(t *testing.T) {
	s := NewStore(time.Minute)
	var calls atomic.Int32
	s.OnEvicted(func(int64) { calls.Add(1) })

	s.Put(Session{UserID: 3})
	s.Delete(3)
	assert.Zero(t, calls.Load())
}

func TestStore_LockSerializesPerUser(t *testing.T) {
	s := NewStore(time.Minute)

	var wg sync.WaitGroup
	var inside atomic.Int32
	var maxInside atomic.Int32
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			release := s.Lock(9)
			defer release()
			n := inside.Add(1)
			if n > maxInside.Load() {
				maxInside.Store(n)
			}
			time.Sleep(time.Millisecond)
			inside.Add(-1)
		}()
	}
	wg.Wait()
	assert.Equal(t, int32(1), maxInside.Load())

	s.mu.Lock()
	defer s.mu.Unlock()
	assert.Empty(t, s.locks)
}

func TestStore_LockDoesNotBlockOtherUsers(t *testing.T) {
	s := NewStore(time.Minute)
	release := s.Lock(1)
	defer release()

	done := make(chan struct{})
	go func() {
		r := s.Lock(2)
		r()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("lock for user 2 blocked by user 1")
	}
}
