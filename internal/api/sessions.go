package api

import (
	"context"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/sessions"
	"github.com/trogers1052/papertrade/internal/service"
)

const (
	cookieName        = "papertrade-session"
	sessionIDKey      = "sid"
	defaultSessionTTL = 24 * time.Hour
)

// NewCookieStore creates the signed cookie store carrying session IDs
func NewCookieStore(key string, maxAge int) *sessions.CookieStore {
	store := sessions.NewCookieStore([]byte(key))
	store.Options = &sessions.Options{
		Path:     "/",
		MaxAge:   maxAge,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	}
	return store
}

// sessionRegistry maps cookie session IDs to open service sessions.
// Entries expire with the cookie; expired sessions are handed to onEvict.
type sessionRegistry struct {
	mu      sync.Mutex
	byID    map[string]registryEntry
	ttl     time.Duration
	now     func() time.Time
	onEvict func(*service.Session)
}

type registryEntry struct {
	session *service.Session
	expires time.Time
}

func newSessionRegistry(ttl time.Duration, onEvict func(*service.Session)) *sessionRegistry {
	if ttl <= 0 {
		ttl = defaultSessionTTL
	}
	return &sessionRegistry{
		byID:    make(map[string]registryEntry),
		ttl:     ttl,
		now:     time.Now,
		onEvict: onEvict,
	}
}

func (r *sessionRegistry) add(s *service.Session) string {
	id := uuid.NewString()
	r.mu.Lock()
	expired := r.expireLocked()
	r.byID[id] = registryEntry{session: s, expires: r.now().Add(r.ttl)}
	r.mu.Unlock()
	r.evict(expired)
	return id
}

func (r *sessionRegistry) get(id string) (*service.Session, bool) {
	r.mu.Lock()
	e, ok := r.byID[id]
	if ok && !r.now().Before(e.expires) {
		delete(r.byID, id)
		r.mu.Unlock()
		r.evict([]*service.Session{e.session})
		return nil, false
	}
	r.mu.Unlock()
	return e.session, ok
}

func (r *sessionRegistry) remove(id string) {
	r.mu.Lock()
	delete(r.byID, id)
	r.mu.Unlock()
}

// removeEmail drops every session open on email except keepID
func (r *sessionRegistry) removeEmail(email, keepID string) []*service.Session {
	r.mu.Lock()
	defer r.mu.Unlock()
	var removed []*service.Session
	for id, e := range r.byID {
		if id != keepID && e.session.Email() == email {
			removed = append(removed, e.session)
			delete(r.byID, id)
		}
	}
	return removed
}

// sweep evicts every expired session and returns how many were removed
func (r *sessionRegistry) sweep() int {
	r.mu.Lock()
	expired := r.expireLocked()
	r.mu.Unlock()
	r.evict(expired)
	return len(expired)
}

func (r *sessionRegistry) len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.byID)
}

func (r *sessionRegistry) expireLocked() []*service.Session {
	now := r.now()
	var expired []*service.Session
	for id, e := range r.byID {
		if !now.Before(e.expires) {
			expired = append(expired, e.session)
			delete(r.byID, id)
		}
	}
	return expired
}

// evict runs outside r.mu; closing a session waits for its in-flight trade
func (r *sessionRegistry) evict(expired []*service.Session) {
	if r.onEvict == nil {
		return
	}
	for _, s := range expired {
		r.onEvict(s)
	}
}

// ExpireSessions evicts expired sessions every interval until ctx is done
func (h *Handler) ExpireSessions(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n := h.sessions.sweep(); n > 0 {
				h.logger.Debug("expired sessions evicted", slog.Int("count", n))
			}
		}
	}
}

type sessionCtxKey struct{}

type authSession struct {
	id      string
	session *service.Session
}

func sessionFrom(r *http.Request) authSession {
	as, _ := r.Context().Value(sessionCtxKey{}).(authSession)
	return as
}

// authMiddleware resolves the session cookie to an open session or responds 401
func (h *Handler) authMiddleware(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		cookie, err := h.cookies.Get(r, cookieName)
		if err != nil {
			respondError(w, http.StatusUnauthorized, "not logged in", nil)
			return
		}
		id, _ := cookie.Values[sessionIDKey].(string)
		sess, ok := h.sessions.get(id)
		if !ok {
			respondError(w, http.StatusUnauthorized, "not logged in", nil)
			return
		}
		if sess.Closed() {
			h.sessions.remove(id)
			respondError(w, http.StatusUnauthorized, "session ended", nil)
			return
		}

		ctx := context.WithValue(r.Context(), sessionCtxKey{}, authSession{id: id, session: sess})
		next(w, r.WithContext(ctx))
	}
}

func (h *Handler) startSession(w http.ResponseWriter, r *http.Request, s *service.Session) error {
	cookie, _ := h.cookies.Get(r, cookieName)
	if oldID, ok := cookie.Values[sessionIDKey].(string); ok {
		if old, ok := h.sessions.get(oldID); ok {
			h.svc.Logout(old)
			h.sessions.remove(oldID)
		}
	}
	cookie.Values[sessionIDKey] = h.sessions.add(s)
	return cookie.Save(r, w)
}

func (h *Handler) endSession(w http.ResponseWriter, r *http.Request, id string) {
	h.sessions.remove(id)
	cookie, _ := h.cookies.Get(r, cookieName)
	delete(cookie.Values, sessionIDKey)
	cookie.Options.MaxAge = -1
	if err := cookie.Save(r, w); err != nil {
		h.logger.Warn("failed to expire session cookie", slog.Any("error", err))
	}
}
