package handlers

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"image"
	"image/color"
	"image/png"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/kozaktomas/facerecognx/internal/config"
	"github.com/kozaktomas/facerecognx/internal/constants"
	"github.com/kozaktomas/facerecognx/internal/database/mock"
	"github.com/kozaktomas/facerecognx/internal/faceapi"
	"github.com/kozaktomas/facerecognx/internal/recognition"
	"github.com/kozaktomas/facerecognx/internal/web/middleware"
	"github.com/kozaktomas/facerecognx/internal/web/templates"
)

// testConfig creates a minimal config for testing
func testConfig() *config.Config {
	return &config.Config{
		Recognition: config.RecognitionConfig{
			MatchThreshold: 0.48,
			MinEncodings:   3,
			Index:          constants.IndexLinear,
			MaxImageSize:   constants.MaxImageSize,
			EnrollWorkers:  2,
		},
		Admin: config.AdminConfig{ID: "admin", Password: "admin", Name: "Admin", Email: "admin@facerecognx.com"},
	}
}

// fakeEncoder reports one face for images 10px wide and none otherwise,
// unless frameFaces is set.
type fakeEncoder struct {
	mu         sync.Mutex
	err        error
	frameFaces [][]float64
}

func (f *fakeEncoder) ComputeFaceEmbeddings(_ context.Context, data []byte) (*faceapi.FaceResponse, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	resp := &faceapi.FaceResponse{}
	if f.frameFaces != nil {
		for i, emb := range f.frameFaces {
			resp.Faces = append(resp.Faces, faceapi.FaceDetection{FaceIndex: i, Embedding: emb})
		}
		return resp, nil
	}
	cfg, _, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return nil, err
	}
	if cfg.Width == 10 {
		resp.Faces = []faceapi.FaceDetection{{Embedding: vec(0.1)}}
	}
	return resp, nil
}

func vec(v float64) []float64 {
	out := make([]float64, constants.EncodingDim)
	for i := range out {
		out[i] = v
	}
	return out
}

// pngDataURL returns a data URL of a small PNG of the given width
func pngDataURL(t *testing.T, width int) string {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, width, 6))
	img.Set(0, 0, color.RGBA{R: 200, A: 255})
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("png.Encode: %v", err)
	}
	return "data:image/png;base64," + base64.StdEncoding.EncodeToString(buf.Bytes())
}

// testEnv wires handlers over mock repositories
type testEnv struct {
	cfg        *config.Config
	store      *mock.Store
	sm         *middleware.SessionManager
	renderer   *templates.Renderer
	encoder    *fakeEncoder
	enroller   *recognition.Enroller
	recognizer *recognition.Recognizer
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	renderer, err := templates.New()
	if err != nil {
		t.Fatalf("templates.New() error = %v", err)
	}
	cfg := testConfig()
	store := mock.NewStore()
	enc := &fakeEncoder{}
	return &testEnv{
		cfg:        cfg,
		store:      store,
		sm:         middleware.NewSessionManager("test-secret", nil),
		renderer:   renderer,
		encoder:    enc,
		enroller:   recognition.NewEnroller(store.Students, enc, cfg.Recognition, nil),
		recognizer: recognition.NewRecognizer(store.Students, store.Attendance, enc, cfg.Recognition, time.UTC, nil),
	}
}

// login creates a session and returns it
func (e *testEnv) login(t *testing.T, teacherID, name string, isAdmin bool) *middleware.Session {
	t.Helper()
	s, err := e.sm.CreateSession(context.Background(), teacherID, name, isAdmin)
	if err != nil {
		t.Fatalf("CreateSession() error = %v", err)
	}
	return s
}

// requestWithSession creates a request carrying session in its context
func requestWithSession(method, target string, body string, session *middleware.Session) *http.Request {
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	if session != nil {
		req = req.WithContext(middleware.SetSessionInContext(req.Context(), session))
	}
	return req
}

// formRequest creates a url-encoded form POST
func formRequest(target, form string, session *middleware.Session) *http.Request {
	req := requestWithSession(http.MethodPost, target, form, session)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	return req
}

// decodeBody decodes a JSON response body into a map
func decodeBody(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &out); err != nil {
		t.Fatalf("failed to unmarshal response %q: %v", rec.Body.String(), err)
	}
	return out
}
