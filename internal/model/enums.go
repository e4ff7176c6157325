package model

// Job status
type JobStatus string

const (
	JobStatusQueued    JobStatus = "queued"
	JobStatusRunning   JobStatus = "running"
	JobStatusSucceeded JobStatus = "succeeded"
	JobStatusFailed    JobStatus = "failed"
)

// Pipeline stages surfaced as job progress steps
const (
	StageFetching    = "fetching"
	StageExtracting  = "extracting"
	StageRasterizing = "rasterizing"
	StageEncoding    = "encoding"
	StageUploading   = "uploading"
	StagePersisting  = "persisting"
	StageDone        = "done"
)
