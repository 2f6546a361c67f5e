package jobs

import (
	"encoding/json"
	"time"
)

// TypePromptRun is the only job type the queue currently carries.
const TypePromptRun = "prompt_run"

// Payload is the work description stored on a prompt_run job.
type Payload struct {
	PromptID string `json:"promptId"`
	Provider string `json:"provider"`
	Model    string `json:"model,omitempty"`
}

// EncodePayload returns the JSON representation of a payload.
func EncodePayload(p Payload) ([]byte, error) {
	return json.Marshal(p)
}

// DecodePayload parses a JSON payload.
func DecodePayload(raw []byte) (Payload, error) {
	var p Payload
	if err := json.Unmarshal(raw, &p); err != nil {
		return Payload{}, err
	}
	return p, nil
}

// Job is one unit of queued work. The queue owns every lifecycle transition;
// nothing else mutates a job row. ProjectID and OrganizationID are
// denormalized from the prompt so running-job ceilings can be counted without
// joins.
//
// LockedAt doubles as the claim flag: a drain cycle owns a job only while
// LockedAt is set to its own claim, and the claim write succeeds only if the
// field was previously unset.
type Job struct {
	ID             string
	Type           string
	Payload        Payload
	Status         Status
	Attempts       int
	MaxAttempts    int
	ScheduledFor   time.Time
	LockedAt       *time.Time
	LockedBy       string
	Error          string
	ProjectID      string
	OrganizationID string
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// Locked reports whether a drain cycle currently holds the job.
func (j Job) Locked() bool {
	return j.LockedAt != nil
}

// Due reports whether the job is runnable at the given instant.
func (j Job) Due(now time.Time) bool {
	return j.Status == StatusPending && !j.ScheduledFor.After(now)
}
