// Package metrics defines the Prometheus collectors for enrollment and recognition.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Enrollment outcomes
const (
	EnrollOK           = "ok"
	EnrollInsufficient = "insufficient_encodings"
	EnrollDuplicate    = "duplicate"
	EnrollInvalid      = "invalid"
	EnrollError        = "error"
)

// Metrics holds the application collectors on a private registry.
// A nil *Metrics is valid and records nothing.
type Metrics struct {
	registry *prometheus.Registry

	enrollments        *prometheus.CounterVec
	enrollImages       *prometheus.CounterVec
	attendanceMarks    *prometheus.CounterVec
	facesDetected      prometheus.Counter
	unmatchedFaces     prometheus.Counter
	recognitionSeconds prometheus.Histogram
}

// New creates the collectors and registers them with Go and process collectors.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		enrollments: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "facerecognx",
			Name:      "enrollments_total",
			Help:      "Student enrollment attempts by outcome.",
		}, []string{"result"}),
		enrollImages: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "facerecognx",
			Name:      "enroll_images_total",
			Help:      "Enrollment images by outcome (accepted or skipped).",
		}, []string{"result"}),
		attendanceMarks: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "facerecognx",
			Name:      "attendance_marks_total",
			Help:      "Recognized students by marking status.",
		}, []string{"status"}),
		facesDetected: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "facerecognx",
			Name:      "faces_detected_total",
			Help:      "Faces detected in attendance frames.",
		}),
		unmatchedFaces: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "facerecognx",
			Name:      "faces_unmatched_total",
			Help:      "Detected faces with no encoding under the match threshold.",
		}),
		recognitionSeconds: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "facerecognx",
			Name:      "recognition_duration_seconds",
			Help:      "Time to process one attendance frame.",
			Buckets:   prometheus.DefBuckets,
		}),
	}

	m.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.enrollments,
		m.enrollImages,
		m.attendanceMarks,
		m.facesDetected,
		m.unmatchedFaces,
		m.recognitionSeconds,
	)
	return m
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return promhttp.Handler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// Registry exposes the underlying registry for tests.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

func (m *Metrics) Enrollment(result string) {
	if m != nil {
		m.enrollments.WithLabelValues(result).Inc()
	}
}

func (m *Metrics) EnrollImage(accepted bool) {
	if m == nil {
		return
	}
	if accepted {
		m.enrollImages.WithLabelValues("accepted").Inc()
	} else {
		m.enrollImages.WithLabelValues("skipped").Inc()
	}
}

func (m *Metrics) AttendanceMark(alreadyMarked bool) {
	if m == nil {
		return
	}
	if alreadyMarked {
		m.attendanceMarks.WithLabelValues("already_marked").Inc()
	} else {
		m.attendanceMarks.WithLabelValues("marked").Inc()
	}
}

func (m *Metrics) FacesDetected(n int) {
	if m != nil {
		m.facesDetected.Add(float64(n))
	}
}

func (m *Metrics) UnmatchedFace() {
	if m != nil {
		m.unmatchedFaces.Inc()
	}
}

func (m *Metrics) ObserveRecognition(seconds float64) {
	if m != nil {
		m.recognitionSeconds.Observe(seconds)
	}
}
