package worker

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"time"

	"github.com/hibiken/asynq"

	"github.com/echoroom/api/internal/client"
	"github.com/echoroom/api/internal/model"
	"github.com/echoroom/api/internal/service"
	"github.com/echoroom/api/internal/waveform"
	"github.com/echoroom/api/internal/websocket"
)

// WaveformWorker processes waveform generation jobs
type WaveformWorker struct {
	storage   client.StorageClient
	posts     client.PostUpdater
	extractor *waveform.Extractor
	jobs      *service.WaveformService
	hub       *websocket.Hub
}

// NewWaveformWorker creates a new waveform worker. jobs and hub may be nil,
// in which case progress tracking and fan-out are skipped.
func NewWaveformWorker(storage client.StorageClient, posts client.PostUpdater, extractor *waveform.Extractor, jobs *service.WaveformService, hub *websocket.Hub) *WaveformWorker {
	return &WaveformWorker{
		storage:   storage,
		posts:     posts,
		extractor: extractor,
		jobs:      jobs,
		hub:       hub,
	}
}

// WaveformKey is the deterministic storage key for a post's waveform image.
// Re-running a job overwrites the previous upload instead of accumulating.
func WaveformKey(postID int64) string {
	return fmt.Sprintf("waveforms/post-%d.png", postID)
}

// ProcessTask handles waveform task processing
func (w *WaveformWorker) ProcessTask(ctx context.Context, t *asynq.Task) error {
	var taskPayload struct {
		JobID   string          `json:"jobId"`
		Payload json.RawMessage `json:"payload"`
	}

	if err := json.Unmarshal(t.Payload(), &taskPayload); err != nil {
		return fmt.Errorf("failed to unmarshal task payload: %w", err)
	}

	jobID := taskPayload.JobID
	log.Printf("Starting waveform job: %s", jobID)

	var payload model.WaveformJobPayload
	if err := json.Unmarshal(taskPayload.Payload, &payload); err != nil {
		w.failJob(ctx, jobID, "Invalid payload")
		return fmt.Errorf("failed to unmarshal waveform payload: %w", err)
	}

	result, err := w.process(ctx, jobID, &payload)
	if err != nil {
		w.failJob(ctx, jobID, err.Error())
		return err
	}

	w.completeJob(ctx, jobID, result)
	log.Printf("Waveform job %s completed", jobID)
	return nil
}

// process runs the pipeline stages strictly in order: fetch the source
// audio, extract amplitudes, rasterize, encode, upload, persist the URL.
// Extraction failures degrade to fallback amplitudes inside the extractor;
// transport and persistence failures abort the job for scheduler retry.
func (w *WaveformWorker) process(ctx context.Context, jobID string, payload *model.WaveformJobPayload) (*model.WaveformResultResponse, error) {
	if payload.PostID <= 0 || payload.AudioKey == "" {
		return nil, fmt.Errorf("waveform job requires a post id and an audio key")
	}
	if w.storage == nil {
		return nil, fmt.Errorf("storage client not configured")
	}

	w.updateJobStatus(ctx, jobID, 10, model.StageFetching)
	audio, err := w.storage.Download(ctx, payload.AudioKey)
	if err != nil {
		return nil, fmt.Errorf("download source audio: %w", err)
	}

	// Unique per job so concurrent jobs never collide on the filesystem.
	tmpPath := filepath.Join(os.TempDir(), fmt.Sprintf("waveform-%d-%d", payload.PostID, time.Now().UnixNano()))
	if err := os.WriteFile(tmpPath, audio, 0o600); err != nil {
		return nil, fmt.Errorf("write temp audio file: %w", err)
	}
	// Removal runs on every exit path; a leaked temp file must never fail
	// or retry the job, so the error is dropped.
	defer os.Remove(tmpPath)

	w.updateJobStatus(ctx, jobID, 35, model.StageExtracting)
	amps := w.extractor.Extract(ctx, tmpPath, waveform.SampleCount)

	w.updateJobStatus(ctx, jobID, 55, model.StageRasterizing)
	img := waveform.Rasterize(amps, waveform.ImageWidth, waveform.ImageHeight)

	w.updateJobStatus(ctx, jobID, 70, model.StageEncoding)
	encoded, err := waveform.EncodePNG(img)
	if err != nil {
		return nil, fmt.Errorf("encode waveform image: %w", err)
	}

	w.updateJobStatus(ctx, jobID, 85, model.StageUploading)
	url, err := w.storage.Upload(ctx, WaveformKey(payload.PostID), bytes.NewReader(encoded), waveform.ContentType)
	if err != nil {
		return nil, fmt.Errorf("upload waveform image: %w", err)
	}

	w.updateJobStatus(ctx, jobID, 95, model.StagePersisting)
	if w.posts == nil {
		return nil, fmt.Errorf("core client not configured")
	}
	if err := w.posts.SetWaveformURL(ctx, payload.PostID, url); err != nil {
		return nil, fmt.Errorf("persist waveform url: %w", err)
	}

	return &model.WaveformResultResponse{
		PostID:      payload.PostID,
		WaveformURL: url,
		Width:       waveform.ImageWidth,
		Height:      waveform.ImageHeight,
		CompletedAt: time.Now(),
	}, nil
}

func (w *WaveformWorker) updateJobStatus(ctx context.Context, jobID string, progress int, step string) {
	if w.jobs != nil {
		if err := w.jobs.UpdateJobProgress(ctx, jobID, progress, step); err != nil {
			log.Printf("Failed to update progress: %v", err)
		}
	}
	if w.hub != nil {
		w.hub.BroadcastProgress(jobID, progress, model.JobStatusRunning, step)
	}
}

func (w *WaveformWorker) completeJob(ctx context.Context, jobID string, result *model.WaveformResultResponse) {
	if w.jobs != nil {
		if err := w.jobs.CompleteJob(ctx, jobID, result); err != nil {
			log.Printf("Failed to mark job as completed: %v", err)
		}
	}
	if w.hub != nil {
		w.hub.BroadcastComplete(jobID, result)
	}
}

func (w *WaveformWorker) failJob(ctx context.Context, jobID, errMsg string) {
	if w.jobs != nil {
		if err := w.jobs.FailJob(ctx, jobID, errMsg); err != nil {
			log.Printf("Failed to mark job as failed: %v", err)
		}
	}
	if w.hub != nil {
		w.hub.BroadcastError(jobID, "WAVEFORM_FAILED", errMsg)
	}
}
