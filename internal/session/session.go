// Package session keeps in-progress registration dialogs in memory.
//
// Sessions are keyed by user id, expire after an idle timeout and are never
// persisted: losing one is the same as the user never having started.
package session

import (
	"strconv"
	"sync"
	"time"

	gocache "github.com/patrickmn/go-cache"
)

// State is a dialog step. The zero value is not a valid state.
type State string

const (
	StateConsent            State = "CONSENT"
	StateFullName           State = "FULL_NAME"
	StateBirthDate          State = "BIRTH_DATE"
	StateEmail              State = "EMAIL"
	StatePhone              State = "PHONE"
	StateUniversity         State = "UNIVERSITY"
	StateUniversityCustom   State = "UNIVERSITY_CUSTOM"
	StateCourse             State = "COURSE"
	StateInternshipInterest State = "INTERNSHIP_INTEREST"
	StateConfirmation       State = "CONFIRMATION"
	StateEnd                State = "END"
)

// Fields is the partially collected registration. A field is set once the
// dialog has moved past the state that collects it.
type Fields struct {
	FullName               string
	BirthDate              string
	Email                  string
	Phone                  string
	University             string
	Course                 string
	InterestedInInternship *bool
	ConsentGiven           bool
	ConsentAt              time.Time
}

type Session struct {
	UserID       int64
	ChatID       int64
	State        State
	Fields       Fields
	ForceRestart bool
	StartedAt    time.Time
}

const cleanupInterval = 5 * time.Minute

// Store is safe for concurrent use. Lock serializes the events of one user
// without blocking others.
type Store struct {
	cache *gocache.Cache
	ttl   time.Duration

	mu    sync.Mutex
	locks map[int64]*userLock
}

type userLock struct {
	mu   sync.Mutex
	refs int
}

func NewStore(idleTimeout time.Duration) *Store {
	cleanup := cleanupInterval
	if idleTimeout < cleanup {
		cleanup = idleTimeout
	}
	return &Store{
		cache: gocache.New(idleTimeout, cleanup),
		ttl:   idleTimeout,
		locks: map[int64]*userLock{},
	}
}

// OnEvicted registers a callback for sessions dropped by idle expiry.
func (s *Store) OnEvicted(fn func(userID int64)) {
	s.cache.OnEvicted(func(key string, v interface{}) {
		if _, ok := v.(Session); !ok {
			return
		}
		id, err := strconv.ParseInt(key, 10, 64)
		if err != nil {
			return
		}
		fn(id)
	})
}

// Get returns a copy of the session and refreshes its idle timer.
func (s *Store) Get(userID int64) (Session, bool) {
	key := strconv.FormatInt(userID, 10)
	v, ok := s.cache.Get(key)
	if !ok {
		return Session{}, false
	}
	sess, ok := v.(Session)
	if !ok {
		s.cache.Delete(key)
		return Session{}, false
	}
	s.cache.Set(key, sess, s.ttl)
	return sess, true
}

func (s *Store) Put(sess Session) {
	s.cache.Set(strconv.FormatInt(sess.UserID, 10), sess, s.ttl)
}

// Delete removes the session without firing the eviction callback.
func (s *Store) Delete(userID int64) {
	key := strconv.FormatInt(userID, 10)
	if _, ok := s.cache.Get(key); !ok {
		return
	}
	// go-cache calls OnEvicted on Delete too; replace then drop silently.
	s.cache.Set(key, nil, gocache.NoExpiration)
	s.cache.Delete(key)
}

// Len counts stored sessions, including expired ones the janitor has not
// swept yet.
func (s *Store) Len() int {
	return s.cache.ItemCount()
}

// Lock blocks until the caller owns userID's event slot. The returned
// function releases it.
func (s *Store) Lock(userID int64) func() {
	s.mu.Lock()
	l, ok := s.locks[userID]
	if !ok {
		l = &userLock{}
		s.locks[userID] = l
	}
	l.refs++
	s.mu.Unlock()

	l.mu.Lock()
	return func() {
		l.mu.Unlock()
		s.mu.Lock()
		l.refs--
		if l.refs == 0 {
			delete(s.locks, userID)
		}
		s.mu.Unlock()
	}
}
