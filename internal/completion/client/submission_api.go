package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/apollosoftdev/mm-processor/internal/model"
	appErr "github.com/apollosoftdev/mm-processor/pkg/errors"
)

const defaultUpdateTimeout = 30 * time.Second

// StatusUpdater reports a terminal submission status to the external API.
type StatusUpdater interface {
	UpdateStatus(ctx context.Context, result model.CompletionResult) error
}

// APIConfig holds submission API client settings.
type APIConfig struct {
	BaseURL  string        `yaml:"baseURL"`
	Timeout  time.Duration `yaml:"timeout"`
	TokenKey string        `yaml:"tokenKey"`
}

// SubmissionAPI updates submission status over HTTP with bearer auth.
type SubmissionAPI struct {
	baseURL string
	client  *http.Client
	tokens  TokenSource
}

type statusUpdateBody struct {
	Status   model.SubmissionStatus `json:"status"`
	Metadata statusUpdateMetadata   `json:"metadata"`
}

type statusUpdateMetadata struct {
	TaskArn       string `json:"taskArn"`
	StoppedReason string `json:"stoppedReason"`
}

// NewSubmissionAPI creates a submission API client.
func NewSubmissionAPI(cfg APIConfig, tokens TokenSource) (*SubmissionAPI, error) {
	if cfg.BaseURL == "" {
		return nil, fmt.Errorf("submission API base URL is required")
	}
	if tokens == nil {
		return nil, fmt.Errorf("token source is required")
	}
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = defaultUpdateTimeout
	}
	return &SubmissionAPI{
		baseURL: cfg.BaseURL,
		client:  &http.Client{Timeout: timeout},
		tokens:  tokens,
	}, nil
}

// UpdateStatus PATCHes the submission's terminal status. Duplicate calls
// with the same terminal status are expected under redelivery; idempotence
// is the API's responsibility.
func (a *SubmissionAPI) UpdateStatus(ctx context.Context, result model.CompletionResult) error {
	if result.SubmissionID == "" {
		return appErr.ValidationError("submissionId", "required")
	}

	token, err := a.tokens.Token(ctx)
	if err != nil {
		return err
	}

	body, err := json.Marshal(statusUpdateBody{
		Status: result.Status,
		Metadata: statusUpdateMetadata{
			TaskArn:       result.TaskHandle,
			StoppedReason: result.Reason,
		},
	})
	if err != nil {
		return appErr.Wrap(err, appErr.StatusUpdateFailed)
	}

	url := fmt.Sprintf("%s/submissions/%s", a.baseURL, result.SubmissionID)
	req, err := http.NewRequestWithContext(ctx, http.MethodPatch, url, bytes.NewReader(body))
	if err != nil {
		return appErr.Wrap(err, appErr.StatusUpdateFailed)
	}
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Content-Type", "application/json")

	resp, err := a.client.Do(req)
	if err != nil {
		return appErr.Wrapf(err, appErr.StatusUpdateFailed, "status update request failed: %v", err)
	}
	defer func() { _ = resp.Body.Close() }()
	_, _ = io.Copy(io.Discard, resp.Body)

	if resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden {
		// A rejected token is stale; drop it so the next attempt reloads.
		a.tokens.Invalidate()
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return appErr.Newf(appErr.StatusUpdateFailed, "submission API returned %d", resp.StatusCode).
			WithDetail("status_code", resp.StatusCode).
			WithDetail("submission_id", result.SubmissionID)
	}
	return nil
}
