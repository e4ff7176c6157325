package waveform

import (
	"context"
	"math"
	"testing"
)

func TestBucketPeaks(t *testing.T) {
	samples := []int16{0, 16384, -32768, 8192}
	peaks := bucketPeaks(samples, 2)

	if len(peaks) != 2 {
		t.Fatalf("expected 2 buckets, got %d", len(peaks))
	}
	if peaks[0] != 0.5 {
		t.Errorf("bucket 0 peak = %v, want 0.5", peaks[0])
	}
	if peaks[1] != 1.0 {
		t.Errorf("bucket 1 peak = %v, want 1.0", peaks[1])
	}
}

func TestBucketPeaksRemainderGoesToLastBucket(t *testing.T) {
	// 5 samples over 2 buckets: floor(5/2)=2, so the last bucket takes 3.
	samples := []int16{100, 100, 100, 100, 32767}
	peaks := bucketPeaks(samples, 2)

	if peaks[1] <= peaks[0] {
		t.Errorf("trailing sample should land in last bucket: peaks = %v", peaks)
	}
	if peaks[1] < 0.99 {
		t.Errorf("last bucket peak = %v, want ~1.0", peaks[1])
	}
}

func TestBucketPeaksFewerSamplesThanBuckets(t *testing.T) {
	peaks := bucketPeaks([]int16{32767}, 4)
	if len(peaks) != 4 {
		t.Fatalf("expected 4 buckets, got %d", len(peaks))
	}
}

func TestNormalize(t *testing.T) {
	peaks := []float64{0.2, 0.4}
	normalize(peaks)
	if peaks[0] != 0.5 || peaks[1] != 1.0 {
		t.Errorf("normalize = %v, want [0.5 1.0]", peaks)
	}
}

func TestNormalizeNearSilentUsesFloor(t *testing.T) {
	peaks := []float64{0.001, 0.0005}
	normalize(peaks)
	for i, p := range peaks {
		if p < 0 || p > 1 {
			t.Errorf("peak %d = %v out of [0, 1] after floor normalization", i, p)
		}
	}
	if math.Abs(peaks[0]-0.1) > 1e-9 {
		t.Errorf("peaks[0] = %v, want 0.1 (0.001 / 0.01 floor)", peaks[0])
	}
}

func TestFallbackAmplitudes(t *testing.T) {
	amps := fallbackAmplitudes(SampleCount)
	if len(amps) != SampleCount {
		t.Fatalf("expected %d fallback samples, got %d", SampleCount, len(amps))
	}
	for i, a := range amps {
		if a < 0.3 || a > 0.7 {
			t.Errorf("fallback sample %d = %v outside [0.3, 0.7]", i, a)
		}
	}
}

func TestExtractDecodeFailureFallsBack(t *testing.T) {
	e := NewExtractor("/nonexistent/ffmpeg")
	amps := e.Extract(context.Background(), "no-such-file.mp3", SampleCount)

	if len(amps) != SampleCount {
		t.Fatalf("expected %d samples regardless of decode failure, got %d", SampleCount, len(amps))
	}
	for i, a := range amps {
		if a < 0.3 || a > 0.7 {
			t.Errorf("sample %d = %v outside fallback range", i, a)
		}
	}
}

func TestExtractEmptyDecodeOutputFallsBack(t *testing.T) {
	// "true" exits 0 without writing any PCM, which must also fall back.
	e := NewExtractor("true")
	amps := e.Extract(context.Background(), "whatever", 10)

	if len(amps) != 10 {
		t.Fatalf("expected 10 samples, got %d", len(amps))
	}
	for i, a := range amps {
		if a < 0.3 || a > 0.7 {
			t.Errorf("sample %d = %v outside fallback range", i, a)
		}
	}
}
