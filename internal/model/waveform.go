package model

import "time"

// WaveformGenerateRequest represents the request to queue waveform
// generation for a post's audio file
type WaveformGenerateRequest struct {
	PostID   int64  `json:"postId" validate:"required,gt=0"`
	AudioKey string `json:"audioKey" validate:"required"`
}

// WaveformGenerateResponse represents the response when queueing a waveform job
type WaveformGenerateResponse struct {
	JobID     string    `json:"jobId"`
	Status    JobStatus `json:"status"`
	CreatedAt time.Time `json:"createdAt"`
}

// WaveformStatusResponse represents the status of a waveform job
type WaveformStatusResponse struct {
	JobID       string     `json:"jobId"`
	Status      JobStatus  `json:"status"`
	Progress    int        `json:"progress"`
	CurrentStep string     `json:"currentStep,omitempty"`
	Error       *string    `json:"error"`
	CreatedAt   time.Time  `json:"createdAt"`
	StartedAt   *time.Time `json:"startedAt"`
	CompletedAt *time.Time `json:"completedAt"`
	RetryCount  int        `json:"retryCount"`
}

// WaveformResultResponse represents the result of a completed waveform job
type WaveformResultResponse struct {
	PostID      int64     `json:"postId"`
	WaveformURL string    `json:"waveformUrl"`
	Width       int       `json:"width"`
	Height      int       `json:"height"`
	CompletedAt time.Time `json:"completedAt"`
}
