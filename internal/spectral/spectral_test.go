package spectral

import (
	"context"
	"math"
	"testing"

	"github.com/karenhance/restored/internal/matrix"
	"github.com/karenhance/restored/internal/types"
)

func TestInterpolateExactAtSharedNodes(t *testing.T) {
	src := matrix.New(1, 3)
	src.Set(0, 0, 0.2)
	src.Set(0, 1, 0.8)
	src.Set(0, 2, 0.5)
	analysisTimes := []float64{0, 1, 2}

	out := Interpolate(src, analysisTimes, analysisTimes, types.ModeVocal)
	for i, want := range []float64{0.2, 0.8, 0.5} {
		if got := out.At(0, i); math.Abs(got-want) > 1e-12 {
			t.Errorf("node %d: got %v, want %v", i, got, want)
		}
	}
}

func TestInterpolateOutOfRangeFill(t *testing.T) {
	src := matrix.New(1, 2)
	src.Set(0, 0, 0.5)
	src.Set(0, 1, 0.9)
	analysisTimes := []float64{1, 2}
	target := []float64{0, 1.5, 5}

	vocalOut := Interpolate(src, analysisTimes, target, types.ModeVocal)
	if vocalOut.At(0, 0) != 0 || vocalOut.At(0, 2) != 0 {
		t.Errorf("vocal mode out-of-range fill should be 0, got %v / %v", vocalOut.At(0, 0), vocalOut.At(0, 2))
	}

	mixOut := Interpolate(src, analysisTimes, target, types.ModeMix)
	if mixOut.At(0, 0) != 1.0 || mixOut.At(0, 2) != 1.0 {
		t.Errorf("mix mode out-of-range fill should be 1.0, got %v / %v", mixOut.At(0, 0), mixOut.At(0, 2))
	}
}

func TestBuildGainMatrixBypassAtZeroEQ(t *testing.T) {
	intensity := matrix.Fill(4, 10, 0.9)
	gain := BuildGainMatrix(intensity, 0, nil, types.ModeVocal)
	for _, v := range gain.Data {
		if v != 1.0 {
			t.Fatalf("bypass gain cell = %v, want 1.0", v)
		}
	}
}

func TestBuildGainMatrixNeverAttenuates(t *testing.T) {
	bands := []types.BandDefinition{{CenterHz: 50}, {CenterHz: 1000}, {CenterHz: 10000}}
	intensity := matrix.Fill(3, 5, 0.3)
	for eq := 1; eq <= 10; eq++ {
		gain := BuildGainMatrix(intensity, eq, bands, types.ModeVocal)
		for _, v := range gain.Data {
			if v < 1.0 {
				t.Fatalf("eq=%d produced gain %v < 1.0", eq, v)
			}
		}
	}

	ratio := matrix.Fill(3, 5, 4.0)
	for eq := 1; eq <= 10; eq++ {
		gain := BuildGainMatrix(ratio, eq, nil, types.ModeMix)
		for _, v := range gain.Data {
			if v < 1.0 {
				t.Fatalf("mix eq=%d produced gain %v < 1.0", eq, v)
			}
		}
	}
}

func TestFreqScaleTiers(t *testing.T) {
	cases := []struct {
		hz   float64
		want float64
	}{
		{50, 0.7},
		{150, 1.0},
		{1000, 1.2},
		{5000, 1.0},
		{8000, 0.7},
	}
	for _, c := range cases {
		if got := freqScale(c.hz); got != c.want {
			t.Errorf("freqScale(%v) = %v, want %v", c.hz, got, c.want)
		}
	}
}

func TestEngineRoundTripPreservesLength(t *testing.T) {
	const sr = 8000
	engine := NewEngine(256, 64)
	signal := make([]float64, sr) // 1 second
	for i := range signal {
		signal[i] = 0.3 * math.Sin(2*math.Pi*440*float64(i)/sr)
	}
	frames := engine.Forward(signal)
	out := engine.Inverse(frames, len(signal))
	if len(out) != len(signal) {
		t.Fatalf("got %d samples, want %d", len(out), len(signal))
	}
}

func TestEngineRoundTripApproximatesInputAtUnityGain(t *testing.T) {
	const sr = 8000
	engine := NewEngine(256, 64)
	signal := make([]float64, sr/4)
	for i := range signal {
		signal[i] = 0.3 * math.Sin(2*math.Pi*440*float64(i)/sr)
	}
	frames := engine.Forward(signal)
	out := engine.Inverse(frames, len(signal))

	// Skip the first/last window where overlap-add hasn't stabilized.
	var maxDiff float64
	for i := 256; i < len(signal)-256; i++ {
		d := math.Abs(out[i] - signal[i])
		if d > maxDiff {
			maxDiff = d
		}
	}
	if maxDiff > 1e-6 {
		t.Errorf("interior reconstruction error too large: %v", maxDiff)
	}
}

func TestApplyGainAtUnityReproducesInterior(t *testing.T) {
	const sr = 8000
	engine := NewEngine(256, 64)
	signal := make([]float64, sr/2)
	for i := range signal {
		signal[i] = 0.4 * math.Sin(2*math.Pi*220*float64(i)/sr)
	}
	bins := NyquistBins(256)
	frames := engine.NumFrames(len(signal))
	bg := &BinGainMatrix{Bins: bins, Frames: frames}
	bg.Data = make([][]float64, bins)
	for i := range bg.Data {
		row := make([]float64, frames)
		for f := range row {
			row[f] = 1.0
		}
		bg.Data[i] = row
	}

	out, err := ApplyGain(context.Background(), engine, signal, bg)
	if err != nil {
		t.Fatalf("ApplyGain: %v", err)
	}
	var maxDiff float64
	for i := 256; i < len(signal)-256; i++ {
		d := math.Abs(out[i] - signal[i])
		if d > maxDiff {
			maxDiff = d
		}
	}
	if maxDiff > 1e-6 {
		t.Errorf("unity-gain bypass should reproduce input, max diff %v", maxDiff)
	}
}

func TestBuildBinGainMatrixDefaultsToUnity(t *testing.T) {
	gain := matrix.Fill(2, 3, 2.0)
	groups := [][]int{{0, 1}, {2}}
	bg := BuildBinGainMatrix(gain, groups, 5)
	if bg.Data[4][0] != 1.0 {
		t.Errorf("bin outside any group = %v, want 1.0", bg.Data[4][0])
	}
	if bg.Data[0][0] != 2.0 {
		t.Errorf("bin 0 = %v, want 2.0", bg.Data[0][0])
	}
}
