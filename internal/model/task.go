package model

// Environment variable names injected into every scorer task. The
// submission identity must be recoverable from these at completion time;
// no side database is consulted.
const (
	EnvSubmissionID  = "SUBMISSION_ID"
	EnvChallengeID   = "CHALLENGE_ID"
	EnvSubmissionURL = "SUBMISSION_URL"
	EnvMemberID      = "MEMBER_ID"
)

// SubmissionStatus is the terminal status reported to the submission API.
type SubmissionStatus string

const (
	StatusScored SubmissionStatus = "SCORED"
	StatusFailed SubmissionStatus = "FAILED"
)

// DispatchedTask records one launched asynchronous scorer run.
type DispatchedTask struct {
	TaskHandle    string
	SubmissionID  string
	ChallengeID   string
	SubmissionURL string
	MemberID      string
}

// Env returns the environment injected into the launched task.
func (t DispatchedTask) Env() map[string]string {
	return map[string]string{
		EnvSubmissionID:  t.SubmissionID,
		EnvChallengeID:   t.ChallengeID,
		EnvSubmissionURL: t.SubmissionURL,
		EnvMemberID:      t.MemberID,
	}
}

// EnvEntry is one name/value pair in a container override.
type EnvEntry struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

// ContainerOverride carries the environment injected into one container
// at launch time, round-tripped back in the lifecycle event.
type ContainerOverride struct {
	Name        string     `json:"name"`
	Environment []EnvEntry `json:"environment"`
}

// ContainerResult reports one container's exit status. ExitCode is a
// pointer: the platform omits it when the container never ran.
type ContainerResult struct {
	Name     string `json:"name"`
	ExitCode *int   `json:"exitCode,omitempty"`
}

// TaskStoppedEvent is the task-lifecycle completion event emitted by the
// execution platform when a scorer task stops.
type TaskStoppedEvent struct {
	TaskHandle    string              `json:"taskHandle"`
	StoppedReason string              `json:"stoppedReason"`
	Overrides     []ContainerOverride `json:"overrides"`
	Containers    []ContainerResult   `json:"containers"`
}

// OverrideEnv looks up an environment value injected into the named
// container.
func (e TaskStoppedEvent) OverrideEnv(container, name string) (string, bool) {
	for _, override := range e.Overrides {
		if override.Name != container {
			continue
		}
		for _, env := range override.Environment {
			if env.Name == name {
				return env.Value, true
			}
		}
	}
	return "", false
}

// Container returns the result entry for the named container.
func (e TaskStoppedEvent) Container(name string) (ContainerResult, bool) {
	for _, c := range e.Containers {
		if c.Name == name {
			return c, true
		}
	}
	return ContainerResult{}, false
}

// CompletionResult is derived once per completion event and sent once to
// the submission API; it is not stored by the pipeline.
type CompletionResult struct {
	SubmissionID string
	Status       SubmissionStatus
	TaskHandle   string
	Reason       string
}
