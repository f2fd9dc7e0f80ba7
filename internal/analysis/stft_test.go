package analysis

import (
	"math"
	"testing"
)

func TestMedianFilter1DOddWidth(t *testing.T) {
	x := []float64{1, 1, 5, 1, 1}
	got := medianFilter1D(x, 3)
	want := []float64{1, 1, 1, 1, 1}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("index %d: got %v, want %v (full: %v)", i, got[i], want[i], got)
		}
	}
}

func TestMedianFilter1DPassthroughWidthOne(t *testing.T) {
	x := []float64{0.2, 0.9, 0.1}
	got := medianFilter1D(x, 1)
	for i := range x {
		if got[i] != x[i] {
			t.Errorf("index %d: got %v, want %v", i, got[i], x[i])
		}
	}
}

func TestBandRMSEmptyGroup(t *testing.T) {
	if v := bandRMS([]float64{1, 2, 3}, nil); v != 0 {
		t.Errorf("bandRMS with empty group = %v, want 0", v)
	}
}

func TestBandRMSUniform(t *testing.T) {
	mag := []float64{2, 2, 2, 2}
	v := bandRMS(mag, []int{0, 1, 2, 3})
	if math.Abs(v-2) > 1e-9 {
		t.Errorf("bandRMS of uniform magnitudes = %v, want 2", v)
	}
}

func TestSTFTNumFramesTruncates(t *testing.T) {
	s := NewSTFT(2048, 512)
	if n := s.NumFrames(2048); n != 1 {
		t.Errorf("NumFrames(2048) = %d, want 1", n)
	}
	if n := s.NumFrames(2048 + 512); n != 2 {
		t.Errorf("NumFrames(2560) = %d, want 2", n)
	}
	if n := s.NumFrames(100); n != 0 {
		t.Errorf("NumFrames(100) = %d, want 0", n)
	}
}

func TestSTFTMagnitudesShapeAndNonNegative(t *testing.T) {
	s := NewSTFT(256, 64)
	samples := make([]float64, 256*4)
	for i := range samples {
		samples[i] = math.Sin(2 * math.Pi * float64(i) / 32)
	}
	mag := s.Magnitudes(samples)
	wantFrames := s.NumFrames(len(samples))
	if len(mag) != wantFrames {
		t.Fatalf("got %d frames, want %d", len(mag), wantFrames)
	}
	wantBins := 256/2 + 1
	for f, row := range mag {
		if len(row) != wantBins {
			t.Fatalf("frame %d has %d bins, want %d", f, len(row), wantBins)
		}
		for b, v := range row {
			if v < 0 {
				t.Fatalf("frame %d bin %d has negative magnitude %v", f, b, v)
			}
		}
	}
}

func TestFrameTimesMonotonic(t *testing.T) {
	times := FrameTimes(5, 512, 22050)
	for i := 1; i < len(times); i++ {
		if times[i] <= times[i-1] {
			t.Fatalf("frame times not increasing at %d", i)
		}
	}
}
