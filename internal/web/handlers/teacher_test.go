package handlers

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/kozaktomas/facerecognx/internal/database"
)

func TestTeacherHandler_DashboardRedirectsAdmin(t *testing.T) {
	env := newTestEnv(t)
	h := NewTeacherHandler(env.cfg, env.sm, env.store.Students, env.store.Attendance, env.recognizer, env.renderer)

	rec := httptest.NewRecorder()
	h.Dashboard(rec, requestWithSession(http.MethodGet, "/teacher/dashboard", "", env.login(t, "admin", "Admin", true)))

	if rec.Code != http.StatusFound || rec.Header().Get("Location") != "/admin/dashboard" {
		t.Errorf("expected redirect to admin dashboard, got %d %q", rec.Code, rec.Header().Get("Location"))
	}
}

func TestTeacherHandler_Dashboard(t *testing.T) {
	env := newTestEnv(t)
	env.store.Students.AddStudent(database.Student{ID: "S1", Name: "Alice", Section: "10A"})
	env.store.Students.AddStudent(database.Student{ID: "S2", Name: "Bob", Section: "10B"})
	h := NewTeacherHandler(env.cfg, env.sm, env.store.Students, env.store.Attendance, env.recognizer, env.renderer)

	rec := httptest.NewRecorder()
	h.Dashboard(rec, requestWithSession(http.MethodGet, "/teacher/dashboard", "", env.login(t, "T1", "Tess", false)))

	if rec.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", rec.Code)
	}
	body := rec.Body.String()
	if !strings.Contains(body, "Welcome, Tess") || !strings.Contains(body, "2 enrolled") {
		t.Errorf("dashboard body missing counts")
	}
}

func TestTeacherHandler_CameraPages(t *testing.T) {
	env := newTestEnv(t)
	h := NewTeacherHandler(env.cfg, env.sm, env.store.Students, env.store.Attendance, env.recognizer, env.renderer)
	session := env.login(t, "T1", "Tess", false)

	rec := httptest.NewRecorder()
	h.RegisterStudentPage(rec, requestWithSession(http.MethodGet, "/teacher/register_student", "", session))
	if !strings.Contains(rec.Body.String(), `data-min-encodings="3"`) || !strings.Contains(rec.Body.String(), `data-captures="40"`) {
		t.Error("register page missing capture settings")
	}

	rec = httptest.NewRecorder()
	h.CaptureAttendancePage(rec, requestWithSession(http.MethodGet, "/teacher/capture_attendance", "", session))
	if !strings.Contains(rec.Body.String(), `id="capture"`) {
		t.Error("capture page missing camera section")
	}
}
