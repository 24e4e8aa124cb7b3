package middleware

import (
	"context"
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"log/slog"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/go-co-op/gocron"
	"github.com/kozaktomas/facerecognx/internal/constants"
)

const sessionDuration = 24 * time.Hour

// Flash is a one-shot message shown on the next rendered page.
type Flash struct {
	Category string `json:"category"`
	Message  string `json:"message"`
}

// Session holds the authenticated teacher's identity and pending flashes.
type Session struct {
	ID          string
	TeacherID   string
	TeacherName string
	IsAdmin     bool
	Flashes     []Flash
	CreatedAt   time.Time
	ExpiresAt   time.Time
}

func (s *Session) clone() *Session {
	c := *s
	c.Flashes = append([]Flash(nil), s.Flashes...)
	return &c
}

// StoredSession is the persisted form of a session.
type StoredSession struct {
	ID          string    `json:"id"`
	TeacherID   string    `json:"teacher_id"`
	TeacherName string    `json:"teacher_name"`
	IsAdmin     bool      `json:"is_admin"`
	Flashes     []Flash   `json:"flashes"`
	CreatedAt   time.Time `json:"created_at"`
	ExpiresAt   time.Time `json:"expires_at"`
}

// SessionRepository persists sessions across restarts.
type SessionRepository interface {
	Save(ctx context.Context, s *StoredSession) error
	// Get returns nil if the session does not exist or has expired
	Get(ctx context.Context, id string) (*StoredSession, error)
	Delete(ctx context.Context, id string) error
	DeleteExpired(ctx context.Context) (int64, error)
}

// SessionManager handles session creation and validation.
// Sessions are cached in memory and written through to repo when one is configured.
type SessionManager struct {
	secret    []byte
	sessions  map[string]*Session
	repo      SessionRepository
	mu        sync.RWMutex
	scheduler *gocron.Scheduler
}

// NewSessionManager creates a new session manager, repo may be nil
func NewSessionManager(secret string, repo SessionRepository) *SessionManager {
	// Use a default secret if none provided (for development)
	if secret == "" {
		secret = "facerecognx-dev-secret-change-in-production"
	}
	return &SessionManager{
		secret:   []byte(secret),
		sessions: make(map[string]*Session),
		repo:     repo,
	}
}

// CreateSession creates a new session for a teacher
func (sm *SessionManager) CreateSession(ctx context.Context, teacherID, teacherName string, isAdmin bool) (*Session, error) {
	idBytes := make([]byte, 32)
	if _, err := rand.Read(idBytes); err != nil {
		return nil, err
	}

	now := time.Now()
	session := &Session{
		ID:          base64.URLEncoding.EncodeToString(idBytes),
		TeacherID:   teacherID,
		TeacherName: teacherName,
		IsAdmin:     isAdmin,
		CreatedAt:   now,
		ExpiresAt:   now.Add(sessionDuration),
	}

	sm.mu.Lock()
	sm.sessions[session.ID] = session
	sm.mu.Unlock()

	sm.persist(ctx, session)
	return session.clone(), nil
}

// GetSession retrieves a copy of a session by ID
func (sm *SessionManager) GetSession(ctx context.Context, sessionID string) *Session {
	sm.mu.RLock()
	session, ok := sm.sessions[sessionID]
	sm.mu.RUnlock()

	if !ok {
		session = sm.load(ctx, sessionID)
		if session == nil {
			return nil
		}
	}

	if time.Now().After(session.ExpiresAt) {
		sm.DeleteSession(ctx, sessionID)
		return nil
	}

	sm.mu.RLock()
	defer sm.mu.RUnlock()
	return session.clone()
}

// load fetches a session from the repository into the cache.
func (sm *SessionManager) load(ctx context.Context, sessionID string) *Session {
	if sm.repo == nil {
		return nil
	}
	stored, err := sm.repo.Get(ctx, sessionID)
	if err != nil {
		slog.Warn("failed to load session", "error", err)
		return nil
	}
	if stored == nil {
		return nil
	}

	session := &Session{
		ID:          stored.ID,
		TeacherID:   stored.TeacherID,
		TeacherName: stored.TeacherName,
		IsAdmin:     stored.IsAdmin,
		Flashes:     stored.Flashes,
		CreatedAt:   stored.CreatedAt,
		ExpiresAt:   stored.ExpiresAt,
	}

	sm.mu.Lock()
	sm.sessions[session.ID] = session
	sm.mu.Unlock()
	return session
}

func (sm *SessionManager) persist(ctx context.Context, s *Session) {
	if sm.repo == nil {
		return
	}
	sm.mu.RLock()
	stored := &StoredSession{
		ID:          s.ID,
		TeacherID:   s.TeacherID,
		TeacherName: s.TeacherName,
		IsAdmin:     s.IsAdmin,
		Flashes:     append([]Flash(nil), s.Flashes...),
		CreatedAt:   s.CreatedAt,
		ExpiresAt:   s.ExpiresAt,
	}
	sm.mu.RUnlock()

	if err := sm.repo.Save(ctx, stored); err != nil {
		slog.Warn("failed to persist session", "error", err)
	}
}

// DeleteSession removes a session
func (sm *SessionManager) DeleteSession(ctx context.Context, sessionID string) {
	sm.mu.Lock()
	delete(sm.sessions, sessionID)
	sm.mu.Unlock()

	if sm.repo != nil {
		if err := sm.repo.Delete(ctx, sessionID); err != nil {
			slog.Warn("failed to delete session", "error", err)
		}
	}
}

// AddFlash queues a message for the next page rendered in this session
func (sm *SessionManager) AddFlash(ctx context.Context, sessionID, category, message string) {
	sm.mu.Lock()
	session, ok := sm.sessions[sessionID]
	if ok {
		session.Flashes = append(session.Flashes, Flash{Category: category, Message: message})
	}
	sm.mu.Unlock()

	if ok {
		sm.persist(ctx, session)
	}
}

// PopFlashes returns and clears the queued messages of a session
func (sm *SessionManager) PopFlashes(ctx context.Context, sessionID string) []Flash {
	sm.mu.Lock()
	session, ok := sm.sessions[sessionID]
	var flashes []Flash
	if ok {
		flashes = session.Flashes
		session.Flashes = nil
	}
	sm.mu.Unlock()

	if ok && len(flashes) > 0 {
		sm.persist(ctx, session)
	}
	return flashes
}

// CleanupExpired drops expired sessions from memory and the repository
func (sm *SessionManager) CleanupExpired(ctx context.Context) int64 {
	now := time.Now()
	var removed int64

	sm.mu.Lock()
	for id, s := range sm.sessions {
		if now.After(s.ExpiresAt) {
			delete(sm.sessions, id)
			removed++
		}
	}
	sm.mu.Unlock()

	if sm.repo != nil {
		n, err := sm.repo.DeleteExpired(ctx)
		if err != nil {
			slog.Warn("failed to delete expired sessions", "error", err)
		}
		removed += n
	}
	return removed
}

// StartCleanup schedules CleanupExpired every interval until Stop is called
func (sm *SessionManager) StartCleanup(interval time.Duration) error {
	s := gocron.NewScheduler(time.UTC)
	if _, err := s.Every(interval).Do(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		if n := sm.CleanupExpired(ctx); n > 0 {
			slog.Info("purged expired sessions", "count", n)
		}
	}); err != nil {
		return err
	}
	s.StartAsync()

	sm.mu.Lock()
	sm.scheduler = s
	sm.mu.Unlock()
	return nil
}

// Stop stops the cleanup job
func (sm *SessionManager) Stop() {
	sm.mu.Lock()
	s := sm.scheduler
	sm.scheduler = nil
	sm.mu.Unlock()

	if s != nil {
		s.Stop()
	}
}

// SetSessionCookie sets the session cookie on the response
func (sm *SessionManager) SetSessionCookie(w http.ResponseWriter, r *http.Request, session *Session) {
	// Sign the session ID
	signature := sm.signData(session.ID)
	cookieValue := session.ID + "." + signature

	http.SetCookie(w, &http.Cookie{
		Name:     constants.SessionCookieName,
		Value:    cookieValue,
		Path:     "/",
		HttpOnly: true,
		Secure:   isSecureRequest(r),
		SameSite: http.SameSiteLaxMode,
		MaxAge:   int(sessionDuration.Seconds()),
	})
}

func isSecureRequest(r *http.Request) bool {
	return r.TLS != nil || strings.EqualFold(r.Header.Get("X-Forwarded-Proto"), "https")
}

// ClearSessionCookie removes the session cookie
func (sm *SessionManager) ClearSessionCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     constants.SessionCookieName,
		Value:    "",
		Path:     "/",
		HttpOnly: true,
		MaxAge:   -1,
	})
}

// GetSessionFromRequest extracts the session from a request
func (sm *SessionManager) GetSessionFromRequest(r *http.Request) *Session {
	// Try cookie first
	cookie, err := r.Cookie(constants.SessionCookieName)
	if err == nil {
		sessionID, signature, ok := strings.Cut(cookie.Value, ".")
		if ok && sm.verifySignature(sessionID, signature) {
			if session := sm.GetSession(r.Context(), sessionID); session != nil {
				return session
			}
		}
	}

	// Try Authorization header
	authHeader := r.Header.Get("Authorization")
	if sessionID, ok := strings.CutPrefix(authHeader, "Bearer "); ok {
		if session := sm.GetSession(r.Context(), sessionID); session != nil {
			return session
		}
	}

	return nil
}

// signData creates an HMAC signature for data
func (sm *SessionManager) signData(data string) string {
	h := hmac.New(sha256.New, sm.secret)
	h.Write([]byte(data))
	return base64.URLEncoding.EncodeToString(h.Sum(nil))
}

// verifySignature verifies an HMAC signature
func (sm *SessionManager) verifySignature(data, signature string) bool {
	expected := sm.signData(data)
	return hmac.Equal([]byte(signature), []byte(expected))
}
