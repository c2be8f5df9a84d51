package model

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// RequiredFields lists the identifying fields every routable submission
// message must carry. Presence is checked, not value emptiness; extra
// fields are permitted and pass through unmodified.
var RequiredFields = []string{"id", "challengeId", "url", "memberId"}

// Submission is the unit of work flowing through the pipeline.
type Submission struct {
	ID          string
	ChallengeID string
	URL         string
	MemberID    string

	// Raw is the original decoded payload. It is republished unmodified
	// so fields beyond the identifying four survive routing.
	Raw []byte
}

// DecodeFields decodes a submission payload into a flat field map.
// Numbers are kept as json.Number so a numeric memberId survives
// round-tripping without float formatting.
func DecodeFields(payload []byte) (map[string]any, error) {
	dec := json.NewDecoder(bytes.NewReader(payload))
	dec.UseNumber()
	var fields map[string]any
	if err := dec.Decode(&fields); err != nil {
		return nil, fmt.Errorf("decode submission payload failed: %w", err)
	}
	return fields, nil
}

// SubmissionFromFields builds a Submission from a decoded field map,
// keeping the original payload for unmodified re-publication.
func SubmissionFromFields(fields map[string]any, raw []byte) Submission {
	return Submission{
		ID:          stringField(fields, "id"),
		ChallengeID: stringField(fields, "challengeId"),
		URL:         stringField(fields, "url"),
		MemberID:    stringField(fields, "memberId"),
		Raw:         raw,
	}
}

// ParseSubmission decodes a routed submission payload.
func ParseSubmission(payload []byte) (Submission, error) {
	fields, err := DecodeFields(payload)
	if err != nil {
		return Submission{}, err
	}
	return SubmissionFromFields(fields, payload), nil
}

func stringField(fields map[string]any, key string) string {
	v, ok := fields[key]
	if !ok || v == nil {
		return ""
	}
	switch t := v.(type) {
	case string:
		return t
	case json.Number:
		return t.String()
	default:
		return fmt.Sprint(t)
	}
}
