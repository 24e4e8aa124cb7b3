package recognition

import (
	"bytes"
	"context"
	"encoding/base64"
	"errors"
	"image"
	"image/color"
	"image/png"
	"sync"
	"testing"
	"time"

	"github.com/kozaktomas/facerecognx/internal/config"
	"github.com/kozaktomas/facerecognx/internal/constants"
	"github.com/kozaktomas/facerecognx/internal/database"
	"github.com/kozaktomas/facerecognx/internal/database/mock"
	"github.com/kozaktomas/facerecognx/internal/faceapi"
)

// Image widths tell the fake encoder how many faces to report.
const (
	widthOneFace  = 10
	widthNoFace   = 20
	widthTwoFaces = 30
)

func testImage(t *testing.T, width int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, width, 8))
	for x := range width {
		img.Set(x, 0, color.RGBA{R: uint8(x * 5), G: 10, B: 10, A: 255})
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("png.Encode: %v", err)
	}
	return buf.Bytes()
}

func dataURL(data []byte) string {
	return "data:image/png;base64," + base64.StdEncoding.EncodeToString(data)
}

func vec(v float64) []float64 {
	out := make([]float64, constants.EncodingDim)
	for i := range out {
		out[i] = v
	}
	return out
}

type fakeEncoder struct {
	mu    sync.Mutex
	calls int
	err   error
	// frameFaces overrides width-based detection when set
	frameFaces [][]float64
}

func (f *fakeEncoder) ComputeFaceEmbeddings(_ context.Context, data []byte) (*faceapi.FaceResponse, error) {
	f.mu.Lock()
	f.calls++
	f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}

	resp := &faceapi.FaceResponse{}
	if f.frameFaces != nil {
		for i, emb := range f.frameFaces {
			resp.Faces = append(resp.Faces, faceapi.FaceDetection{FaceIndex: i, Dim: len(emb), Embedding: emb})
		}
		resp.FacesCount = len(resp.Faces)
		return resp, nil
	}

	cfg, _, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return nil, err
	}
	n := 0
	switch cfg.Width {
	case widthOneFace:
		n = 1
	case widthTwoFaces:
		n = 2
	}
	for i := range n {
		resp.Faces = append(resp.Faces, faceapi.FaceDetection{FaceIndex: i, Dim: constants.EncodingDim, Embedding: vec(0.1)})
	}
	resp.FacesCount = n
	return resp, nil
}

func testRecognitionConfig() config.RecognitionConfig {
	return config.RecognitionConfig{
		MatchThreshold: 0.48,
		MinEncodings:   3,
		Index:          constants.IndexLinear,
		MaxImageSize:   constants.MaxImageSize,
		EnrollWorkers:  2,
	}
}

func images(t *testing.T, widths ...int) [][]byte {
	out := make([][]byte, len(widths))
	for i, w := range widths {
		out[i] = testImage(t, w)
	}
	return out
}

func TestEnroll_Success(t *testing.T) {
	store := mock.NewStore()
	enc := &fakeEncoder{}
	e := NewEnroller(store.Students, enc, testRecognitionConfig(), nil)
	fixed := time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)
	e.now = func() time.Time { return fixed }

	var progressed int
	req := EnrollRequest{
		StudentID: " S1 ",
		Name:      "Ana",
		Section:   "A",
		TeacherID: "t1",
		Images:    images(t, widthOneFace, widthNoFace, widthOneFace, widthTwoFaces, widthOneFace),
	}
	student, err := e.Enroll(context.Background(), req, func() { progressed++ })
	if err != nil {
		t.Fatalf("Enroll() error = %v", err)
	}
	if student.ID != "S1" {
		t.Errorf("ID = %q, want trimmed S1", student.ID)
	}
	if len(student.Encodings) != 3 {
		t.Errorf("encodings = %d, want 3", len(student.Encodings))
	}
	if !student.RegisteredOn.Equal(fixed) || student.RegisteredBy != "t1" {
		t.Errorf("registration = %v by %q", student.RegisteredOn, student.RegisteredBy)
	}
	if progressed != 5 {
		t.Errorf("progress calls = %d, want 5", progressed)
	}
	if store.Students.Count() != 1 {
		t.Errorf("stored students = %d, want 1", store.Students.Count())
	}
}

func TestEnroll_MissingFields(t *testing.T) {
	tests := []struct {
		name string
		req  EnrollRequest
	}{
		{"no id", EnrollRequest{Name: "Ana", Section: "A"}},
		{"no name", EnrollRequest{StudentID: "S1", Section: "A"}},
		{"blank section", EnrollRequest{StudentID: "S1", Name: "Ana", Section: "   "}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			enc := &fakeEncoder{}
			e := NewEnroller(mock.NewMockStudentRepository(), enc, testRecognitionConfig(), nil)
			_, err := e.Enroll(context.Background(), tt.req, nil)
			if !errors.Is(err, ErrMissingFields) {
				t.Errorf("error = %v, want ErrMissingFields", err)
			}
			if enc.calls != 0 {
				t.Errorf("encoder called %d times", enc.calls)
			}
		})
	}
}

func TestEnroll_DuplicateStudent(t *testing.T) {
	students := mock.NewMockStudentRepository()
	students.AddStudent(database.Student{ID: "S1", Name: "Old", Section: "B"})
	enc := &fakeEncoder{}
	e := NewEnroller(students, enc, testRecognitionConfig(), nil)

	req := EnrollRequest{StudentID: "S1", Name: "Ana", Section: "A", Images: images(t, widthOneFace)}
	if _, err := e.Enroll(context.Background(), req, nil); !errors.Is(err, ErrStudentExists) {
		t.Fatalf("error = %v, want ErrStudentExists", err)
	}
	if enc.calls != 0 {
		t.Errorf("encoder called %d times before duplicate check", enc.calls)
	}
}

func TestEnroll_DuplicateOnInsert(t *testing.T) {
	students := mock.NewMockStudentRepository()
	students.CreateError = database.ErrDuplicate
	e := NewEnroller(students, &fakeEncoder{}, testRecognitionConfig(), nil)

	req := EnrollRequest{StudentID: "S1", Name: "Ana", Section: "A", Images: images(t, widthOneFace, widthOneFace, widthOneFace)}
	if _, err := e.Enroll(context.Background(), req, nil); !errors.Is(err, ErrStudentExists) {
		t.Fatalf("error = %v, want ErrStudentExists", err)
	}
}

func TestEnroll_InsufficientEncodings(t *testing.T) {
	students := mock.NewMockStudentRepository()
	e := NewEnroller(students, &fakeEncoder{}, testRecognitionConfig(), nil)

	imgs := images(t, widthOneFace, widthNoFace, widthTwoFaces, widthOneFace)
	imgs = append(imgs, nil, []byte("not an image"))
	req := EnrollRequest{StudentID: "S1", Name: "Ana", Section: "A", Images: imgs}

	_, err := e.Enroll(context.Background(), req, nil)
	var insufficient *InsufficientEncodingsError
	if !errors.As(err, &insufficient) {
		t.Fatalf("error = %v, want InsufficientEncodingsError", err)
	}
	if insufficient.Valid != 2 || insufficient.Submitted != 6 || insufficient.Required != 3 {
		t.Errorf("got %+v", insufficient)
	}
	want := "Got 2 valid encodings from 6 face crops. Need 3."
	if err.Error() != want {
		t.Errorf("message = %q, want %q", err.Error(), want)
	}
	if students.Count() != 0 {
		t.Error("student stored despite insufficient encodings")
	}
}

func TestEnroll_EncoderFailureSkipsImages(t *testing.T) {
	e := NewEnroller(mock.NewMockStudentRepository(), &fakeEncoder{err: errors.New("service down")}, testRecognitionConfig(), nil)
	req := EnrollRequest{StudentID: "S1", Name: "Ana", Section: "A", Images: images(t, widthOneFace, widthOneFace, widthOneFace)}

	var insufficient *InsufficientEncodingsError
	if _, err := e.Enroll(context.Background(), req, nil); !errors.As(err, &insufficient) {
		t.Fatalf("error = %v, want InsufficientEncodingsError", err)
	}
	if insufficient.Valid != 0 {
		t.Errorf("valid = %d, want 0", insufficient.Valid)
	}
}

func TestEnroll_StoreError(t *testing.T) {
	students := mock.NewMockStudentRepository()
	students.HasError = errors.New("db down")
	e := NewEnroller(students, &fakeEncoder{}, testRecognitionConfig(), nil)

	req := EnrollRequest{StudentID: "S1", Name: "Ana", Section: "A"}
	if _, err := e.Enroll(context.Background(), req, nil); err == nil || err.Error() != "db down" {
		t.Fatalf("error = %v, want db down", err)
	}
}

func newTestRecognizer(store *mock.Store, enc FaceEncoder, index string) *Recognizer {
	cfg := testRecognitionConfig()
	cfg.Index = index
	r := NewRecognizer(store.Students, store.Attendance, enc, cfg, time.UTC, nil)
	r.now = func() time.Time { return time.Date(2026, 3, 2, 23, 30, 0, 0, time.UTC) }
	return r
}

func enrolledStore() *mock.Store {
	store := mock.NewStore()
	store.Students.AddStudent(database.Student{
		ID: "S1", Name: "Ana", Section: "A",
		Encodings: []database.Encoding{vec(0.0), vec(0.01)},
	})
	store.Students.AddStudent(database.Student{
		ID: "S2", Name: "Ben", Section: "B",
		Encodings: []database.Encoding{vec(1.0)},
	})
	return store
}

func TestMarkAttendance(t *testing.T) {
	for _, index := range []string{constants.IndexLinear, constants.IndexHNSW} {
		t.Run(index, func(t *testing.T) {
			store := enrolledStore()
			enc := &fakeEncoder{frameFaces: [][]float64{vec(0.001), vec(0.5), vec(1.0)}}
			r := newTestRecognizer(store, enc, index)
			frame := dataURL(testImage(t, 16))

			res, err := r.MarkAttendance(context.Background(), frame, "t1")
			if err != nil {
				t.Fatalf("MarkAttendance() error = %v", err)
			}
			if len(res.Marked) != 2 || len(res.AlreadyMarked) != 0 {
				t.Fatalf("result = %+v", res)
			}
			if res.Marked[0] != (StudentRef{StudentID: "S1", Name: "Ana"}) {
				t.Errorf("first marked = %+v", res.Marked[0])
			}

			records := store.Attendance.Records()
			if len(records) != 2 {
				t.Fatalf("records = %d, want 2", len(records))
			}
			if records[0].Date != "2026-03-02" || records[0].Time != "23:30:00" || records[0].MarkedBy != "t1" {
				t.Errorf("record = %+v", records[0])
			}

			res, err = r.MarkAttendance(context.Background(), frame, "t2")
			if err != nil {
				t.Fatalf("second MarkAttendance() error = %v", err)
			}
			if len(res.Marked) != 0 || len(res.AlreadyMarked) != 2 {
				t.Errorf("second result = %+v", res)
			}
			if len(store.Attendance.Records()) != 2 {
				t.Error("duplicate attendance stored")
			}
		})
	}
}

func TestMarkAttendance_ThresholdIsStrict(t *testing.T) {
	store := mock.NewStore()
	base := make(database.Encoding, constants.EncodingDim)
	store.Students.AddStudent(database.Student{ID: "S1", Name: "Ana", Section: "A", Encodings: []database.Encoding{base}})

	exact := make([]float64, constants.EncodingDim)
	exact[0] = 0.5
	enc := &fakeEncoder{frameFaces: [][]float64{exact}}
	r := newTestRecognizer(store, enc, constants.IndexLinear)
	r.cfg.MatchThreshold = 0.5

	res, err := r.MarkFrame(context.Background(), testImage(t, 16), "t1")
	if err != nil {
		t.Fatalf("MarkFrame() error = %v", err)
	}
	if len(res.Marked) != 0 {
		t.Errorf("face at exactly the threshold was matched: %+v", res)
	}
}

func TestMarkAttendance_NoStudents(t *testing.T) {
	store := mock.NewStore()
	enc := &fakeEncoder{frameFaces: [][]float64{vec(0)}}
	r := newTestRecognizer(store, enc, constants.IndexLinear)

	res, err := r.MarkFrame(context.Background(), testImage(t, 16), "t1")
	if err != nil {
		t.Fatalf("MarkFrame() error = %v", err)
	}
	if res.Marked == nil || res.AlreadyMarked == nil {
		t.Error("result lists must be non-nil for JSON encoding")
	}
	if len(res.Marked)+len(res.AlreadyMarked) != 0 {
		t.Errorf("result = %+v", res)
	}
}

func TestMarkAttendance_Errors(t *testing.T) {
	t.Run("bad frame", func(t *testing.T) {
		r := newTestRecognizer(enrolledStore(), &fakeEncoder{}, constants.IndexLinear)
		if _, err := r.MarkAttendance(context.Background(), "no-comma", "t1"); err == nil {
			t.Error("expected decode error")
		}
	})
	t.Run("face service", func(t *testing.T) {
		r := newTestRecognizer(enrolledStore(), &fakeEncoder{err: errors.New("down")}, constants.IndexLinear)
		if _, err := r.MarkFrame(context.Background(), testImage(t, 16), "t1"); err == nil {
			t.Error("expected face service error")
		}
	})
	t.Run("store", func(t *testing.T) {
		store := enrolledStore()
		store.Attendance.MarkError = errors.New("write failed")
		r := newTestRecognizer(store, &fakeEncoder{frameFaces: [][]float64{vec(0)}}, constants.IndexLinear)
		if _, err := r.MarkFrame(context.Background(), testImage(t, 16), "t1"); err == nil {
			t.Error("expected store error")
		}
	})
}

func TestHNSWCacheRebuildsOnNewEncodings(t *testing.T) {
	store := enrolledStore()
	enc := &fakeEncoder{frameFaces: [][]float64{vec(2.0)}}
	r := newTestRecognizer(store, enc, constants.IndexHNSW)

	res, err := r.MarkFrame(context.Background(), testImage(t, 16), "t1")
	if err != nil {
		t.Fatalf("MarkFrame() error = %v", err)
	}
	if len(res.Marked) != 0 {
		t.Fatalf("unexpected match: %+v", res)
	}

	store.Students.AddStudent(database.Student{ID: "S3", Name: "Cy", Section: "C", Encodings: []database.Encoding{vec(2.0)}})
	res, err = r.MarkFrame(context.Background(), testImage(t, 16), "t1")
	if err != nil {
		t.Fatalf("MarkFrame() error = %v", err)
	}
	if len(res.Marked) != 1 || res.Marked[0].StudentID != "S3" {
		t.Errorf("result after enrollment = %+v", res)
	}
	if r.hnsw.count != 4 {
		t.Errorf("index count = %d, want 4", r.hnsw.count)
	}
}

func TestToday(t *testing.T) {
	loc := time.FixedZone("UTC+2", 2*60*60)
	r := NewRecognizer(nil, nil, nil, testRecognitionConfig(), loc, nil)
	r.now = func() time.Time { return time.Date(2026, 3, 2, 23, 30, 0, 0, time.UTC) }
	if got := r.Today(); got != "2026-03-03" {
		t.Errorf("Today() = %q, want 2026-03-03", got)
	}
}
