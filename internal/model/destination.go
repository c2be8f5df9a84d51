package model

// DestinationConfig is the per-challenge static configuration loaded
// from the config store. Immutable once loaded; shared read-only across
// all dispatches for that destination within a process lifetime.
type DestinationConfig struct {
	ChallengeID      string            `json:"challengeId,omitempty"`
	ExecutionCluster string            `json:"executionCluster"`
	TaskTemplate     string            `json:"taskTemplate"`
	Parameters       map[string]string `json:"parameters,omitempty"`
}
