package model_test

import (
	"testing"

	"github.com/apollosoftdev/mm-processor/internal/model"
)

func TestParseSubmissionExtractsIdentity(t *testing.T) {
	t.Parallel()
	payload := []byte(`{"id":"s1","challengeId":"ch1","url":"https://example.com/s1.zip","memberId":"m1"}`)

	sub, err := model.ParseSubmission(payload)
	if err != nil {
		t.Fatalf("parse failed: %v", err)
	}
	if sub.ID != "s1" || sub.ChallengeID != "ch1" || sub.MemberID != "m1" {
		t.Fatalf("unexpected submission: %+v", sub)
	}
	if sub.URL != "https://example.com/s1.zip" {
		t.Fatalf("unexpected url: %s", sub.URL)
	}
	if string(sub.Raw) != string(payload) {
		t.Fatalf("expected raw payload retained")
	}
}

func TestParseSubmissionNumericMemberID(t *testing.T) {
	t.Parallel()
	payload := []byte(`{"id":"s1","challengeId":"ch1","url":"u1","memberId":88774396}`)

	sub, err := model.ParseSubmission(payload)
	if err != nil {
		t.Fatalf("parse failed: %v", err)
	}
	if sub.MemberID != "88774396" {
		t.Fatalf("expected numeric memberId to stringify without float formatting, got %q", sub.MemberID)
	}
}

func TestParseSubmissionMalformedPayload(t *testing.T) {
	t.Parallel()
	if _, err := model.ParseSubmission([]byte(`not json`)); err == nil {
		t.Fatalf("expected malformed payload to fail")
	}
}

func TestDecodeFieldsKeepsExtraFields(t *testing.T) {
	t.Parallel()
	payload := []byte(`{"id":"s1","challengeId":"ch1","url":"u1","memberId":"m1","language":"cpp"}`)

	fields, err := model.DecodeFields(payload)
	if err != nil {
		t.Fatalf("decode failed: %v", err)
	}
	if fields["language"] != "cpp" {
		t.Fatalf("expected extra field preserved, got %v", fields["language"])
	}
	for _, name := range model.RequiredFields {
		if _, ok := fields[name]; !ok {
			t.Fatalf("expected field %s present", name)
		}
	}
}
