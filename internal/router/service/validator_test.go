package service_test

import (
	"testing"

	"github.com/apollosoftdev/mm-processor/internal/router/service"
)

func TestValidateSubmissionRequiresEveryIdentifyingField(t *testing.T) {
	t.Parallel()
	complete := map[string]any{
		"id":          "sub-1",
		"challengeId": "ch-1",
		"url":         "https://example.com/sub-1.zip",
		"memberId":    "m-1",
	}
	if !service.ValidateSubmission(complete) {
		t.Fatalf("expected complete message to be valid")
	}

	for _, field := range []string{"id", "challengeId", "url", "memberId"} {
		msg := make(map[string]any, len(complete))
		for k, v := range complete {
			msg[k] = v
		}
		delete(msg, field)
		if service.ValidateSubmission(msg) {
			t.Fatalf("expected message missing %s to be invalid", field)
		}
	}
}

func TestValidateSubmissionAllowsExtraFields(t *testing.T) {
	t.Parallel()
	msg := map[string]any{
		"id":          "sub-1",
		"challengeId": "ch-1",
		"url":         "https://example.com/sub-1.zip",
		"memberId":    "m-1",
		"language":    "cpp",
		"attempt":     3,
	}
	if !service.ValidateSubmission(msg) {
		t.Fatalf("expected message with extra fields to be valid")
	}
}

func TestValidateSubmissionPresenceOnly(t *testing.T) {
	t.Parallel()
	msg := map[string]any{
		"id":          "",
		"challengeId": "",
		"url":         "",
		"memberId":    "",
	}
	if !service.ValidateSubmission(msg) {
		t.Fatalf("expected empty values to pass the presence check")
	}
}
