package server

import (
	"crypto/rand"
	"encoding/hex"
	"net/http"
	"sync"
	"time"

	"github.com/scandocs/docmatch/internal/session"
)

const sessionCookie = "docmatch_session"

// sessionEntry pairs a workflow session with its bookkeeping. The mutex
// serializes all access to the session, which itself is not concurrency-safe.
type sessionEntry struct {
	mu       sync.Mutex
	sess     *session.Session
	lastUsed time.Time
	watchers map[chan session.Snapshot]struct{}
}

// sessionStore keeps one workflow session per client, keyed by session ID.
// Idle sessions are evicted after the TTL so abandoned workflows do not pin
// image data in memory.
type sessionStore struct {
	mu      sync.Mutex
	entries map[string]*sessionEntry
	ttl     time.Duration
	done    chan struct{}
	once    sync.Once
}

func newSessionStore(ttl time.Duration) *sessionStore {
	st := &sessionStore{
		entries: make(map[string]*sessionEntry),
		ttl:     ttl,
		done:    make(chan struct{}),
	}
	go st.evictLoop()
	return st
}

// get returns the entry for id, creating it on first use.
func (st *sessionStore) get(id string) *sessionEntry {
	st.mu.Lock()
	defer st.mu.Unlock()

	e, ok := st.entries[id]
	if !ok {
		e = &sessionEntry{
			sess:     session.New(),
			watchers: make(map[chan session.Snapshot]struct{}),
		}
		st.entries[id] = e
		activeSessions.Set(float64(len(st.entries)))
	}
	e.lastUsed = time.Now()
	return e
}

func (st *sessionStore) evictLoop() {
	interval := st.ttl / 4
	if interval < time.Minute {
		interval = time.Minute
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-st.done:
			return
		case <-ticker.C:
			st.evictIdle()
		}
	}
}

func (st *sessionStore) evictIdle() {
	cutoff := time.Now().Add(-st.ttl)

	st.mu.Lock()
	defer st.mu.Unlock()
	for id, e := range st.entries {
		e.mu.Lock()
		idle := e.lastUsed.Before(cutoff) && len(e.watchers) == 0
		e.mu.Unlock()
		if idle {
			delete(st.entries, id)
		}
	}
	activeSessions.Set(float64(len(st.entries)))
}

func (st *sessionStore) Close() {
	st.once.Do(func() { close(st.done) })
}

// watch registers a snapshot channel that receives an event after every
// state change on the entry. The caller must unwatch when done.
func (e *sessionEntry) watch() chan session.Snapshot {
	ch := make(chan session.Snapshot, 8)
	e.mu.Lock()
	e.watchers[ch] = struct{}{}
	e.mu.Unlock()
	return ch
}

func (e *sessionEntry) unwatch(ch chan session.Snapshot) {
	e.mu.Lock()
	delete(e.watchers, ch)
	e.mu.Unlock()
}

// notify fans the current snapshot out to all watchers. Must be called with
// e.mu held. Slow watchers drop events instead of blocking the workflow.
func (e *sessionEntry) notify() {
	snap := e.sess.Snapshot()
	for ch := range e.watchers {
		select {
		case ch <- snap:
		default:
		}
	}
}

// sessionID extracts the client's session ID from the X-Session-ID header or
// the session cookie, minting a new one (and setting the cookie) if absent.
func (s *Server) sessionID(w http.ResponseWriter, r *http.Request) string {
	if id := r.Header.Get("X-Session-ID"); id != "" {
		return id
	}
	if c, err := r.Cookie(sessionCookie); err == nil && c.Value != "" {
		return c.Value
	}

	id := newSessionID()
	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookie,
		Value:    id,
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
	return id
}

func newSessionID() string {
	var b [16]byte
	if _, err := rand.Read(b[:]); err != nil {
		// crypto/rand never fails on supported platforms
		return hex.EncodeToString([]byte(time.Now().String()))
	}
	return hex.EncodeToString(b[:])
}
