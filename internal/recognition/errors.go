package recognition

import (
	"errors"
	"fmt"
)

var (
	// ErrMissingFields is returned when the student identifier, name or section is blank.
	ErrMissingFields = errors.New("all fields required")
	// ErrStudentExists is returned when the student identifier is already enrolled.
	ErrStudentExists = errors.New("student id already exists")
)

// InsufficientEncodingsError reports an enrollment with too few single-face images.
type InsufficientEncodingsError struct {
	Valid     int
	Submitted int
	Required  int
}

func (e *InsufficientEncodingsError) Error() string {
	return fmt.Sprintf("Got %d valid encodings from %d face crops. Need %d.", e.Valid, e.Submitted, e.Required)
}
