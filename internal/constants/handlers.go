// Package constants provides shared constants used across the codebase.
package constants

// Request limits
const (
	// MaxEnrollBodySize bounds the JSON body of a student enrollment (many base64 frames)
	MaxEnrollBodySize = 64 << 20

	// MaxFrameBodySize bounds the JSON body of a single attendance frame
	MaxFrameBodySize = 16 << 20
)

// Session constants
const (
	// SessionCookieName is the name of the signed session cookie
	SessionCookieName = "facerecognx_session"

	// SessionCleanupMinutes is the interval of the expired-session purge job
	SessionCleanupMinutes = 10
)

// Flash categories
const (
	FlashSuccess = "success"
	FlashDanger  = "danger"
)

// Camera page constants
const (
	// EnrollCaptures is the number of frames the enrollment page captures
	EnrollCaptures = 40

	// CaptureIntervalMillis is the delay between frames sent by the attendance page
	CaptureIntervalMillis = 2000
)
