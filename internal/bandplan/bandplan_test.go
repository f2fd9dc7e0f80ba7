package bandplan

import "testing"

func TestEdgesMonotonicAndBounded(t *testing.T) {
	edges := Edges(24, 22050)
	if len(edges) != 25 {
		t.Fatalf("got %d edges, want 25", len(edges))
	}
	if edges[0] != minBandHz {
		t.Errorf("first edge = %v, want %v", edges[0], minBandHz)
	}
	for i := 1; i < len(edges); i++ {
		if edges[i] <= edges[i-1] {
			t.Fatalf("edges not strictly increasing at %d: %v <= %v", i, edges[i], edges[i-1])
		}
	}
	last := edges[len(edges)-1]
	if last > 16000.0001 {
		t.Errorf("last edge %v exceeds 16000 Hz cap", last)
	}
}

func TestEdgesRespectsNyquistBelowCap(t *testing.T) {
	// sampleRate/2 = 8000 < 16000, so the top edge must clamp to 8000.
	edges := Edges(12, 16000)
	last := edges[len(edges)-1]
	if last > 8000.0001 {
		t.Errorf("last edge %v exceeds nyquist cap of 8000", last)
	}
}

func TestBinGroupsDisjointAndCovering(t *testing.T) {
	const fftSize, sr = 2048, 22050
	edges := Edges(24, sr)
	groups := BinGroups(fftSize, sr, edges)

	seen := make(map[int]int)
	for b, bins := range groups {
		for _, bin := range bins {
			if other, ok := seen[bin]; ok {
				t.Fatalf("bin %d assigned to both band %d and band %d", bin, other, b)
			}
			seen[bin] = b
		}
	}
}

func TestBinGroupsAllowEmptyBand(t *testing.T) {
	// A very small FFT size at a high sample rate starves the lowest bands
	// of any bin; this must not panic or error, just produce an empty slice.
	edges := Edges(24, 22050)
	groups := BinGroups(64, 22050, edges)
	emptyFound := false
	for _, g := range groups {
		if len(g) == 0 {
			emptyFound = true
			break
		}
	}
	if !emptyFound {
		t.Skip("no empty band produced at this fft size; not a failure, just not exercising the edge case")
	}
}

func TestBuildBandDefinitionsRounding(t *testing.T) {
	edges := []float64{60, 120.049, 240.08}
	defs := BuildBandDefinitions(edges)
	if len(defs) != 2 {
		t.Fatalf("got %d band defs, want 2", len(defs))
	}
	if defs[0].LowHz != 60.0 || defs[0].HighHz != 120.0 {
		t.Errorf("band 0 = %+v, want low=60 high=120", defs[0])
	}
	if defs[1].HighHz != 240.1 {
		t.Errorf("band 1 high = %v, want 240.1", defs[1].HighHz)
	}
}

func TestNewRejectsBadInputs(t *testing.T) {
	if _, err := New(1, 22050); err == nil {
		t.Error("expected error for band count 1")
	}
	if _, err := New(24, 0); err == nil {
		t.Error("expected error for zero sample rate")
	}
}
