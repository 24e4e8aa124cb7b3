package middleware

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/kozaktomas/facerecognx/internal/constants"
)

func newTestSession(t *testing.T, sm *SessionManager, teacherID string) *Session {
	t.Helper()
	session, err := sm.CreateSession(context.Background(), teacherID, "Teacher "+teacherID, teacherID == "admin")
	if err != nil {
		t.Fatalf("CreateSession() error = %v", err)
	}
	return session
}

func TestNewSessionManager(t *testing.T) {
	sm := NewSessionManager("test-secret", nil)
	if sm == nil {
		t.Fatal("NewSessionManager returned nil")
		return
	}
	if sm.sessions == nil {
		t.Error("sessions map is nil")
	}
}

func TestSessionManager_CreateSession(t *testing.T) {
	sm := NewSessionManager("test-secret", nil)

	session := newTestSession(t, sm, "t1")

	if session.ID == "" {
		t.Error("session ID is empty")
	}
	if session.TeacherID != "t1" {
		t.Errorf("TeacherID = %s, want t1", session.TeacherID)
	}
	if session.TeacherName != "Teacher t1" {
		t.Errorf("TeacherName = %s, want 'Teacher t1'", session.TeacherName)
	}
	if session.IsAdmin {
		t.Error("expected non-admin session")
	}
	if session.ExpiresAt.Before(time.Now()) {
		t.Error("session expires in the past")
	}
}

func TestSessionManager_GetSession(t *testing.T) {
	sm := NewSessionManager("test-secret", nil)
	ctx := context.Background()

	session := newTestSession(t, sm, "admin")

	retrieved := sm.GetSession(ctx, session.ID)
	if retrieved == nil {
		t.Fatal("GetSession() returned nil for existing session")
		return
	}
	if !retrieved.IsAdmin {
		t.Error("expected admin flag to survive")
	}

	if notFound := sm.GetSession(ctx, "nonexistent-id"); notFound != nil {
		t.Error("GetSession() should return nil for non-existing session")
	}
}

func TestSessionManager_DeleteSession(t *testing.T) {
	sm := NewSessionManager("test-secret", nil)
	ctx := context.Background()

	session := newTestSession(t, sm, "t1")
	sm.DeleteSession(ctx, session.ID)

	if retrieved := sm.GetSession(ctx, session.ID); retrieved != nil {
		t.Error("GetSession() should return nil after deletion")
	}
}

func sessionCookieFrom(t *testing.T, w *httptest.ResponseRecorder) *http.Cookie {
	t.Helper()
	for _, c := range w.Result().Cookies() {
		if c.Name == constants.SessionCookieName {
			return c
		}
	}
	t.Fatal("Session cookie not found")
	return nil
}

func TestSessionManager_SetAndGetSessionCookie(t *testing.T) {
	sm := NewSessionManager("test-secret", nil)
	session := newTestSession(t, sm, "t1")

	w := httptest.NewRecorder()
	r := httptest.NewRequest("GET", "/", nil)
	sm.SetSessionCookie(w, r, session)

	sessionCookie := sessionCookieFrom(t, w)
	if !sessionCookie.HttpOnly {
		t.Error("expected HttpOnly cookie")
	}
	if sessionCookie.Secure {
		t.Error("expected insecure cookie for plain HTTP request")
	}

	req := httptest.NewRequest("GET", "/", nil)
	req.AddCookie(sessionCookie)

	retrieved := sm.GetSessionFromRequest(req)
	if retrieved == nil {
		t.Fatal("GetSessionFromRequest() returned nil")
		return
	}
	if retrieved.ID != session.ID {
		t.Errorf("Session ID = %s, want %s", retrieved.ID, session.ID)
	}
}

func TestSessionManager_SecureCookieBehindProxy(t *testing.T) {
	sm := NewSessionManager("test-secret", nil)
	session := newTestSession(t, sm, "t1")

	w := httptest.NewRecorder()
	r := httptest.NewRequest("GET", "/", nil)
	r.Header.Set("X-Forwarded-Proto", "https")
	sm.SetSessionCookie(w, r, session)

	if !sessionCookieFrom(t, w).Secure {
		t.Error("expected secure cookie behind TLS proxy")
	}
}

func TestSessionManager_InvalidCookie(t *testing.T) {
	sm := NewSessionManager("test-secret", nil)
	session := newTestSession(t, sm, "t1")

	tests := []string{
		"invalid-session.invalid-signature",
		session.ID + ".forged",
		session.ID,
	}

	for _, value := range tests {
		req := httptest.NewRequest("GET", "/", nil)
		req.AddCookie(&http.Cookie{Name: constants.SessionCookieName, Value: value})

		if got := sm.GetSessionFromRequest(req); got != nil {
			t.Errorf("GetSessionFromRequest() should return nil for cookie %q", value)
		}
	}
}

func TestSessionManager_CookieFromOtherSecret(t *testing.T) {
	sm := NewSessionManager("test-secret", nil)
	other := NewSessionManager("other-secret", nil)
	session := newTestSession(t, sm, "t1")

	w := httptest.NewRecorder()
	sm.SetSessionCookie(w, httptest.NewRequest("GET", "/", nil), session)

	req := httptest.NewRequest("GET", "/", nil)
	req.AddCookie(sessionCookieFrom(t, w))
	if got := other.GetSessionFromRequest(req); got != nil {
		t.Error("session signed with another secret must be rejected")
	}
}

func TestSessionManager_BearerAuth(t *testing.T) {
	sm := NewSessionManager("test-secret", nil)
	session := newTestSession(t, sm, "t1")

	req := httptest.NewRequest("GET", "/", nil)
	req.Header.Set("Authorization", "Bearer "+session.ID)

	retrieved := sm.GetSessionFromRequest(req)
	if retrieved == nil {
		t.Fatal("GetSessionFromRequest() returned nil for Bearer auth")
		return
	}
	if retrieved.ID != session.ID {
		t.Errorf("Session ID = %s, want %s", retrieved.ID, session.ID)
	}
}

func TestRequireAuth(t *testing.T) {
	sm := NewSessionManager("test-secret", nil)
	session := newTestSession(t, sm, "t1")

	handlerCalled := false
	testHandler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		handlerCalled = true
		if s := GetSessionFromContext(r.Context()); s == nil {
			t.Error("Session not found in context")
		}
		w.WriteHeader(http.StatusOK)
	})

	protectedHandler := RequireAuth(sm)(testHandler)

	t.Run("valid session", func(t *testing.T) {
		handlerCalled = false
		w := httptest.NewRecorder()
		req := httptest.NewRequest("POST", "/api/mark_attendance", nil)
		req.Header.Set("Authorization", "Bearer "+session.ID)

		protectedHandler.ServeHTTP(w, req)

		if w.Code != http.StatusOK {
			t.Errorf("Status = %d, want %d", w.Code, http.StatusOK)
		}
		if !handlerCalled {
			t.Error("Handler was not called")
		}
	})

	t.Run("no session", func(t *testing.T) {
		handlerCalled = false
		w := httptest.NewRecorder()
		req := httptest.NewRequest("POST", "/api/mark_attendance", nil)

		protectedHandler.ServeHTTP(w, req)

		if w.Code != http.StatusUnauthorized {
			t.Errorf("Status = %d, want %d", w.Code, http.StatusUnauthorized)
		}
		if handlerCalled {
			t.Error("Handler should not be called for unauthorized request")
		}

		var body map[string]any
		if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
			t.Fatalf("failed to parse body: %v", err)
		}
		if body["ok"] != false || body["msg"] != "Unauthorized" {
			t.Errorf("unexpected body %v", body)
		}
	})
}

func TestRequireLogin(t *testing.T) {
	sm := NewSessionManager("test-secret", nil)
	handler := RequireLogin(sm)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	w := httptest.NewRecorder()
	handler.ServeHTTP(w, httptest.NewRequest("GET", "/teacher/dashboard", nil))

	if w.Code != http.StatusFound {
		t.Errorf("Status = %d, want %d", w.Code, http.StatusFound)
	}
	if loc := w.Header().Get("Location"); loc != "/" {
		t.Errorf("Location = %s, want /", loc)
	}
}

func TestRequireAdmin(t *testing.T) {
	sm := NewSessionManager("test-secret", nil)
	admin := newTestSession(t, sm, "admin")
	teacher := newTestSession(t, sm, "t1")

	handler := RequireLogin(sm)(RequireAdmin("admin")(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})))

	tests := []struct {
		name    string
		session *Session
		want    int
	}{
		{"admin", admin, http.StatusOK},
		{"teacher", teacher, http.StatusFound},
		{"anonymous", nil, http.StatusFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			req := httptest.NewRequest("GET", "/admin/dashboard", nil)
			if tt.session != nil {
				req.Header.Set("Authorization", "Bearer "+tt.session.ID)
			}
			handler.ServeHTTP(w, req)
			if w.Code != tt.want {
				t.Errorf("Status = %d, want %d", w.Code, tt.want)
			}
		})
	}
}

func TestGetSessionFromContext(t *testing.T) {
	session := &Session{ID: "test123", TeacherID: "t1"}
	ctx := SetSessionInContext(context.Background(), session)

	retrieved := GetSessionFromContext(ctx)
	if retrieved == nil {
		t.Fatal("GetSessionFromContext() returned nil")
		return
	}
	if retrieved.ID != "test123" {
		t.Errorf("Session ID = %s, want test123", retrieved.ID)
	}

	if notFound := GetSessionFromContext(context.Background()); notFound != nil {
		t.Error("GetSessionFromContext() should return nil for empty context")
	}
}

func TestSessionManager_ClearSessionCookie(t *testing.T) {
	sm := NewSessionManager("test-secret", nil)

	w := httptest.NewRecorder()
	sm.ClearSessionCookie(w)

	if c := sessionCookieFrom(t, w); c.MaxAge != -1 {
		t.Errorf("MaxAge = %d, want -1 (expired)", c.MaxAge)
	}
}
