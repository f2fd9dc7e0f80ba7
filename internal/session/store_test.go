package session

import (
	"math"
	"path/filepath"
	"testing"

	"github.com/karenhance/restored/internal/matrix"
	"github.com/karenhance/restored/internal/types"
)

func TestNewSessionIDFormat(t *testing.T) {
	id, err := NewSessionID()
	if err != nil {
		t.Fatalf("NewSessionID: %v", err)
	}
	if !sessionIDPattern.MatchString(id) {
		t.Errorf("id %q does not match expected pattern", id)
	}
}

func TestSessionDirRejectsInvalidID(t *testing.T) {
	s, err := NewStore(t.TempDir())
	if err != nil {
		t.Fatalf("NewStore: %v", err)
	}
	for _, bad := range []string{"", "../../etc/passwd", "ABCDEF123456", "short"} {
		if _, err := s.SessionDir(bad); err == nil {
			t.Errorf("SessionDir(%q) should have failed", bad)
		}
	}
}

func TestSaveAndLoadPersistedRoundTrips(t *testing.T) {
	s, err := NewStore(t.TempDir())
	if err != nil {
		t.Fatalf("NewStore: %v", err)
	}
	id, _ := NewSessionID()

	m := matrix.New(3, 4)
	for i := range m.Data {
		m.Data[i] = float64(i) * 0.1
	}
	frameTimes := []float64{0, 0.1, 0.2, 0.3}
	bands := []types.BandDefinition{{Index: 0, LowHz: 60, HighHz: 120, CenterHz: 85}}

	if err := s.SavePersisted(id, types.ModeMix, m, frameTimes, bands); err != nil {
		t.Fatalf("SavePersisted: %v", err)
	}

	got, err := s.LoadPersisted(id)
	if err != nil {
		t.Fatalf("LoadPersisted: %v", err)
	}
	if got.Mode != types.ModeMix {
		t.Errorf("mode = %v, want mix", got.Mode)
	}
	if got.Intensity.Bands != 3 || got.Intensity.Frames != 4 {
		t.Fatalf("shape mismatch: %d x %d", got.Intensity.Bands, got.Intensity.Frames)
	}
	for i, v := range got.Intensity.Data {
		if math.Abs(v-m.Data[i]) > 1e-12 {
			t.Errorf("cell %d: got %v, want %v", i, v, m.Data[i])
		}
	}
	for i, v := range got.FrameTimes {
		if math.Abs(v-frameTimes[i]) > 1e-12 {
			t.Errorf("frame time %d: got %v, want %v", i, v, frameTimes[i])
		}
	}
	if len(got.Bands) != 1 || got.Bands[0].CenterHz != 85 {
		t.Errorf("bands round trip mismatch: %+v", got.Bands)
	}
}

func TestLoadPersistedMissingWithReferenceAsksReanalyze(t *testing.T) {
	s, err := NewStore(t.TempDir())
	if err != nil {
		t.Fatalf("NewStore: %v", err)
	}
	id, _ := NewSessionID()
	if _, err := s.SaveReference(id, "vocal", []byte("fake-audio"), ".wav"); err != nil {
		t.Fatalf("SaveReference: %v", err)
	}

	_, err = s.LoadPersisted(id)
	if err != ErrReanalyzeRequired {
		t.Errorf("got %v, want ErrReanalyzeRequired", err)
	}
}

func TestWriteFileAtomicLeavesNoTempFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "artifact.bin")
	if err := writeFileAtomic(path, []byte("hello")); err != nil {
		t.Fatalf("writeFileAtomic: %v", err)
	}
	if _, err := filepath.Glob(filepath.Join(dir, "*.tmp")); err != nil {
		t.Fatalf("glob: %v", err)
	}
	matches, _ := filepath.Glob(filepath.Join(dir, "*.tmp"))
	if len(matches) != 0 {
		t.Errorf("temp file left behind: %v", matches)
	}
}
