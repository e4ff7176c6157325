package waveform

import (
	"bytes"
	"context"
	"encoding/binary"
	"fmt"
	"log"
	"math"
	"math/rand"
	"os/exec"
	"strings"
)

// Fixed geometry for post waveform images.
const (
	ImageWidth  = 300
	ImageHeight = 60
	SampleCount = 150
)

const (
	decodeSampleRate = 8000

	// Near-silent audio would otherwise divide by zero during normalization.
	normalizeFloor = 0.01

	// Fallback amplitudes land in [0.3, 0.7].
	fallbackMin   = 0.3
	fallbackRange = 0.4
)

// Extractor reduces an audio file to normalized peak amplitudes by shelling
// out to ffmpeg for decoding.
type Extractor struct {
	FFmpegPath string
}

// NewExtractor creates an extractor using the given ffmpeg binary.
// An empty path falls back to "ffmpeg" on PATH.
func NewExtractor(ffmpegPath string) *Extractor {
	if ffmpegPath == "" {
		ffmpegPath = "ffmpeg"
	}
	return &Extractor{FFmpegPath: ffmpegPath}
}

// Extract returns exactly buckets amplitude values in [0, 1]. Decode
// failures are absorbed here: the result degrades to pseudo-random
// mid-range values so a waveform can still be drawn for broken uploads.
// buckets must be positive.
func (e *Extractor) Extract(ctx context.Context, path string, buckets int) []float64 {
	samples, err := e.decodePCM(ctx, path)
	if err != nil {
		log.Printf("Waveform decode failed for %s, using fallback: %v", path, err)
		return fallbackAmplitudes(buckets)
	}
	if len(samples) == 0 {
		log.Printf("Waveform decode produced no samples for %s, using fallback", path)
		return fallbackAmplitudes(buckets)
	}

	peaks := bucketPeaks(samples, buckets)
	normalize(peaks)
	return peaks
}

// decodePCM converts the file into raw mono 16-bit little-endian PCM at
// 8 kHz, written by ffmpeg to stdout. Stderr is captured for diagnostics.
func (e *Extractor) decodePCM(ctx context.Context, path string) ([]int16, error) {
	args := []string{
		"-hide_banner",
		"-loglevel", "error",
		"-i", path,
		"-ac", "1",
		"-ar", fmt.Sprintf("%d", decodeSampleRate),
		"-f", "s16le",
		"-acodec", "pcm_s16le",
		"pipe:1",
	}

	cmd := exec.CommandContext(ctx, e.FFmpegPath, args...)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		return nil, fmt.Errorf("ffmpeg decode: %w: %s", err, strings.TrimSpace(stderr.String()))
	}

	raw := stdout.Bytes()
	samples := make([]int16, len(raw)/2)
	for i := range samples {
		samples[i] = int16(binary.LittleEndian.Uint16(raw[i*2:]))
	}
	return samples, nil
}

// bucketPeaks splits samples into buckets contiguous groups and records the
// peak absolute amplitude of each, scaled to [0, 1]. Trailing remainder
// samples go into the last bucket.
func bucketPeaks(samples []int16, buckets int) []float64 {
	peaks := make([]float64, buckets)

	size := len(samples) / buckets
	if size == 0 {
		size = 1
	}

	for i := range peaks {
		start := i * size
		if start >= len(samples) {
			break
		}
		end := start + size
		if i == buckets-1 || end > len(samples) {
			end = len(samples)
		}

		var peak float64
		for _, s := range samples[start:end] {
			v := math.Abs(float64(s)) / 32768
			if v > peak {
				peak = v
			}
		}
		peaks[i] = peak
	}

	return peaks
}

// normalize scales peaks so the loudest bucket reaches 1.0.
func normalize(peaks []float64) {
	max := normalizeFloor
	for _, p := range peaks {
		if p > max {
			max = p
		}
	}
	for i := range peaks {
		peaks[i] /= max
	}
}

func fallbackAmplitudes(n int) []float64 {
	amps := make([]float64, n)
	for i := range amps {
		amps[i] = fallbackMin + rand.Float64()*fallbackRange
	}
	return amps
}
