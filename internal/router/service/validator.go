package service

import "github.com/apollosoftdev/mm-processor/internal/model"

// ValidateSubmission reports whether a decoded submission message carries
// every required identifying field. Presence only: empty values pass, and
// extra fields are ignored.
func ValidateSubmission(fields map[string]any) bool {
	for _, field := range model.RequiredFields {
		if _, ok := fields[field]; !ok {
			return false
		}
	}
	return true
}
