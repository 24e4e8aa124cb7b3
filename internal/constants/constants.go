// Package constants provides shared constants used across the codebase.
// Centralizing these values ensures consistency and makes them easier to modify.
package constants

// Role constants
const (
	// RoleAdmin marks the bootstrapped administrator account
	RoleAdmin = "admin"

	// RoleTeacher marks accounts created through the admin registration form
	RoleTeacher = "teacher"
)

// Date and time layouts used for attendance records
const (
	// DateLayout is the calendar date format of an attendance record (YYYY-MM-DD)
	DateLayout = "2006-01-02"

	// TimeLayout is the wall clock format of an attendance record (HH:MM:SS)
	TimeLayout = "15:04:05"
)

// Face matching constants
const (
	// DefaultMatchThreshold is the strict upper bound on Euclidean distance for a match
	DefaultMatchThreshold = 0.48

	// DefaultMinEncodings is the number of single-face images required to enroll a student
	DefaultMinEncodings = 25

	// EncodingDim is the length of the vectors produced by the face service
	EncodingDim = 128
)

// Processing constants
const (
	// DefaultEnrollWorkers is the default number of parallel face-service calls during enrollment
	DefaultEnrollWorkers = 4

	// MaxImageSize is the maximum dimension (width or height) for image processing
	MaxImageSize = 1280
)

// Index constants
const (
	// IndexLinear scans every stored encoding on each request
	IndexLinear = "linear"

	// IndexHNSW uses a cached HNSW graph rebuilt when the encoding count changes
	IndexHNSW = "hnsw"
)
