// Package roster filters teacher and student listings by a free-text query.
package roster

import (
	"strings"
	"unicode"

	"github.com/kozaktomas/facerecognx/internal/database"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// RemoveDiacritics removes diacritical marks from a string (e.g., "Jiří" -> "Jiri").
func RemoveDiacritics(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	result, _, _ := transform.String(t, s)
	return result
}

// Fold normalizes text for comparison: lowercase, no diacritics, dashes as spaces, single spaces.
func Fold(s string) string {
	s = RemoveDiacritics(s)
	s = strings.ToLower(s)
	s = strings.ReplaceAll(s, "-", " ")
	return strings.Join(strings.Fields(s), " ")
}

// matches reports whether every query word occurs in one of fields.
func matches(query string, fields ...string) bool {
	words := strings.Fields(Fold(query))
	if len(words) == 0 {
		return true
	}
	folded := make([]string, len(fields))
	for i, f := range fields {
		folded[i] = Fold(f)
	}
	for _, w := range words {
		found := false
		for _, f := range folded {
			if strings.Contains(f, w) {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	return true
}

// FilterStudents keeps students whose identifier, name or section match query.
// An empty query returns the input unchanged.
func FilterStudents(students []database.StudentSummary, query string) []database.StudentSummary {
	if strings.TrimSpace(query) == "" {
		return students
	}
	out := make([]database.StudentSummary, 0, len(students))
	for _, s := range students {
		if matches(query, s.ID, s.Name, s.Section) {
			out = append(out, s)
		}
	}
	return out
}

// FilterTeachers keeps teachers whose identifier, name or email match query.
func FilterTeachers(teachers []database.Teacher, query string) []database.Teacher {
	if strings.TrimSpace(query) == "" {
		return teachers
	}
	out := make([]database.Teacher, 0, len(teachers))
	for _, t := range teachers {
		if matches(query, t.ID, t.Name, t.Email) {
			out = append(out, t)
		}
	}
	return out
}
