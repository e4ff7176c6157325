package model

import "time"

// Job represents a background job in the system
type Job struct {
	ID          string     `json:"id"`
	Type        string     `json:"type"`
	Status      JobStatus  `json:"status"`
	Progress    int        `json:"progress"`
	CurrentStep string     `json:"currentStep,omitempty"`
	Error       *string    `json:"error,omitempty"`
	Payload     []byte     `json:"payload,omitempty"` // JSON-encoded job input
	Result      []byte     `json:"result,omitempty"`  // JSON-encoded job output
	CreatedAt   time.Time  `json:"createdAt"`
	StartedAt   *time.Time `json:"startedAt,omitempty"`
	CompletedAt *time.Time `json:"completedAt,omitempty"`
	RetryCount  int        `json:"retryCount"`
}

// Job types
const (
	JobTypeWaveform = "waveform"
)

// WaveformJobPayload contains the data for a waveform job
type WaveformJobPayload struct {
	PostID   int64  `json:"postId"`
	AudioKey string `json:"audioKey"`
}
