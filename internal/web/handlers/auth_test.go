package handlers

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/kozaktomas/facerecognx/internal/auth"
	"github.com/kozaktomas/facerecognx/internal/constants"
	"github.com/kozaktomas/facerecognx/internal/database"
)

func seedTeacher(t *testing.T, env *testEnv, id, name, password, role string) {
	t.Helper()
	hash, err := auth.HashPassword(password)
	if err != nil {
		t.Fatal(err)
	}
	env.store.Teachers.AddTeacher(database.Teacher{ID: id, Name: name, PasswordHash: hash, Role: role})
}

func sessionCookie(t *testing.T, rec *httptest.ResponseRecorder) *http.Cookie {
	t.Helper()
	for _, c := range rec.Result().Cookies() {
		if c.Name == constants.SessionCookieName {
			return c
		}
	}
	return nil
}

func TestAuthHandler_LoginPage(t *testing.T) {
	env := newTestEnv(t)
	h := NewAuthHandler(env.cfg, env.sm, env.store.Teachers, env.renderer)

	rec := httptest.NewRecorder()
	h.LoginPage(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), `name="teacher_id"`) {
		t.Error("login form missing")
	}
}

func TestAuthHandler_Login(t *testing.T) {
	env := newTestEnv(t)
	seedTeacher(t, env, "admin", "Admin", "admin", constants.RoleAdmin)
	seedTeacher(t, env, "T1", "Tess", "pw", constants.RoleTeacher)
	h := NewAuthHandler(env.cfg, env.sm, env.store.Teachers, env.renderer)

	tests := []struct {
		name         string
		form         string
		wantLocation string
		wantAdmin    bool
	}{
		{"admin", "teacher_id=admin&password=admin", "/admin/dashboard", true},
		{"teacher", "teacher_id=T1&password=pw", "/teacher/dashboard", false},
		{"trimmed", "teacher_id=+T1+&password=pw+", "/teacher/dashboard", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			h.Login(rec, formRequest("/", tt.form, nil))

			if rec.Code != http.StatusFound {
				t.Fatalf("expected status 302, got %d", rec.Code)
			}
			if loc := rec.Header().Get("Location"); loc != tt.wantLocation {
				t.Errorf("Location = %q, want %q", loc, tt.wantLocation)
			}

			cookie := sessionCookie(t, rec)
			if cookie == nil {
				t.Fatal("session cookie not set")
			}
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			req.AddCookie(cookie)
			session := env.sm.GetSessionFromRequest(req)
			if session == nil {
				t.Fatal("session not found for cookie")
			}
			if session.IsAdmin != tt.wantAdmin {
				t.Errorf("IsAdmin = %v, want %v", session.IsAdmin, tt.wantAdmin)
			}
			flashes := env.sm.PopFlashes(context.Background(), session.ID)
			if len(flashes) != 1 || flashes[0].Message != "Login successful!" || flashes[0].Category != constants.FlashSuccess {
				t.Errorf("flashes = %+v", flashes)
			}
		})
	}
}

func TestAuthHandler_LoginInvalid(t *testing.T) {
	env := newTestEnv(t)
	seedTeacher(t, env, "T1", "Tess", "pw", constants.RoleTeacher)
	h := NewAuthHandler(env.cfg, env.sm, env.store.Teachers, env.renderer)

	for _, form := range []string{"teacher_id=T1&password=bad", "teacher_id=nobody&password=pw", ""} {
		rec := httptest.NewRecorder()
		h.Login(rec, formRequest("/", form, nil))

		if rec.Code != http.StatusOK {
			t.Fatalf("form %q: expected status 200, got %d", form, rec.Code)
		}
		if !strings.Contains(rec.Body.String(), "Invalid credentials!") {
			t.Errorf("form %q: invalid credentials flash missing", form)
		}
		if sessionCookie(t, rec) != nil {
			t.Errorf("form %q: session cookie set on failed login", form)
		}
	}
}

func TestAuthHandler_Logout(t *testing.T) {
	env := newTestEnv(t)
	h := NewAuthHandler(env.cfg, env.sm, env.store.Teachers, env.renderer)
	session := env.login(t, "T1", "Tess", false)

	req := httptest.NewRequest(http.MethodGet, "/logout", nil)
	req.Header.Set("Authorization", "Bearer "+session.ID)
	rec := httptest.NewRecorder()
	h.Logout(rec, req)

	if rec.Code != http.StatusFound || rec.Header().Get("Location") != "/" {
		t.Errorf("expected redirect to /, got %d %q", rec.Code, rec.Header().Get("Location"))
	}
	if env.sm.GetSession(context.Background(), session.ID) != nil {
		t.Error("session still exists after logout")
	}
	if c := sessionCookie(t, rec); c == nil || c.MaxAge >= 0 {
		t.Errorf("session cookie not cleared: %+v", c)
	}
}
