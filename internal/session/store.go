// Package session persists per-session analysis artifacts to disk: the
// intensity/gain-ratio matrix, its frame time grid, band definitions, and
// the analyzer mode that produced them, so a later process-only call can
// skip re-analysis.
package session

import (
	"crypto/rand"
	"encoding/binary"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"regexp"

	"github.com/karenhance/restored/internal/matrix"
	"github.com/karenhance/restored/internal/types"
)

// ErrReanalyzeRequired is returned by LoadPersisted when a session's
// artifacts are missing but its source reference file still exists, so
// the caller should re-run the analyzer rather than fail outright.
var ErrReanalyzeRequired = errors.New("session: artifacts missing, reanalysis required")

// ErrInvalidSessionID is returned by SessionDir for a malformed id, a
// guard against path traversal since session ids route directly onto
// filesystem paths.
var ErrInvalidSessionID = errors.New("session: invalid session id")

var sessionIDPattern = regexp.MustCompile(`^[a-f0-9]{12}$`)

const (
	blobMagic     = "KDVM"
	dtypeFloat64  = 2
	intensityFile = "intensity.bin"
	frameTimeFile = "frametimes.bin"
	bandsFile     = "bands.json"
	modeFile      = "mode.txt"
)

// Store manages the on-disk session directory layout.
type Store struct {
	dataDir string
}

// NewStore creates the data directory if needed and returns a Store
// rooted there.
func NewStore(dataDir string) (*Store, error) {
	if err := os.MkdirAll(dataDir, 0o700); err != nil {
		return nil, fmt.Errorf("session: creating data dir: %w", err)
	}
	return &Store{dataDir: dataDir}, nil
}

// NewSessionID generates a 12-hex-character session identifier.
func NewSessionID() (string, error) {
	buf := make([]byte, 6)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("session: generating id: %w", err)
	}
	return hex.EncodeToString(buf), nil
}

// SessionDir validates id and returns (creating if needed) its directory.
func (s *Store) SessionDir(id string) (string, error) {
	if !sessionIDPattern.MatchString(id) {
		return "", fmt.Errorf("%w: %q", ErrInvalidSessionID, id)
	}
	dir := filepath.Join(s.dataDir, id)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return "", fmt.Errorf("session: creating session dir: %w", err)
	}
	return dir, nil
}

// SaveReference persists uploaded reference/instrumental bytes under
// "<kind><ext>" in the session directory and returns the full path.
func (s *Store) SaveReference(id, kind string, data []byte, ext string) (string, error) {
	dir, err := s.SessionDir(id)
	if err != nil {
		return "", err
	}
	path := filepath.Join(dir, kind+ext)
	if err := writeFileAtomic(path, data); err != nil {
		return "", fmt.Errorf("session: saving reference: %w", err)
	}
	return path, nil
}

// SavePersisted writes the intensity/gain-ratio matrix, frame time grid,
// band definitions, and mode marker for a session. Each file is written
// write-then-rename for crash durability.
func (s *Store) SavePersisted(id string, mode types.Mode, m *matrix.Matrix, frameTimes []float64, bands []types.BandDefinition) error {
	dir, err := s.SessionDir(id)
	if err != nil {
		return err
	}

	if err := writeFileAtomic(filepath.Join(dir, intensityFile), encodeMatrix(m)); err != nil {
		return fmt.Errorf("session: writing intensity matrix: %w", err)
	}
	if err := writeFileAtomic(filepath.Join(dir, frameTimeFile), encodeVector(frameTimes)); err != nil {
		return fmt.Errorf("session: writing frame times: %w", err)
	}
	bandsJSON, err := json.Marshal(bands)
	if err != nil {
		return fmt.Errorf("session: marshaling bands: %w", err)
	}
	if err := writeFileAtomic(filepath.Join(dir, bandsFile), bandsJSON); err != nil {
		return fmt.Errorf("session: writing bands: %w", err)
	}
	if err := writeFileAtomic(filepath.Join(dir, modeFile), []byte(mode.String())); err != nil {
		return fmt.Errorf("session: writing mode: %w", err)
	}
	return nil
}

// Persisted bundles a session's analyzer output for a process call.
type Persisted struct {
	Intensity  *matrix.Matrix
	FrameTimes []float64
	Bands      []types.BandDefinition
	Mode       types.Mode
}

// LoadPersisted reads back a session's artifacts. If any artifact file is
// missing, and a vocal/instrumental reference still exists in the session
// directory, it returns ErrReanalyzeRequired rather than a hard failure.
func (s *Store) LoadPersisted(id string) (*Persisted, error) {
	dir, err := s.SessionDir(id)
	if err != nil {
		return nil, err
	}

	intensityData, err1 := os.ReadFile(filepath.Join(dir, intensityFile))
	frameData, err2 := os.ReadFile(filepath.Join(dir, frameTimeFile))
	bandsData, err3 := os.ReadFile(filepath.Join(dir, bandsFile))
	modeData, err4 := os.ReadFile(filepath.Join(dir, modeFile))

	if err1 != nil || err2 != nil || err3 != nil || err4 != nil {
		if s.hasAnyReference(dir) {
			return nil, ErrReanalyzeRequired
		}
		return nil, fmt.Errorf("session: artifacts missing for %q and no reference to reanalyze", id)
	}

	m, err := decodeMatrix(intensityData)
	if err != nil {
		return nil, fmt.Errorf("session: decoding intensity matrix: %w", err)
	}
	frameTimes, err := decodeVector(frameData)
	if err != nil {
		return nil, fmt.Errorf("session: decoding frame times: %w", err)
	}
	var bands []types.BandDefinition
	if err := json.Unmarshal(bandsData, &bands); err != nil {
		return nil, fmt.Errorf("session: decoding bands: %w", err)
	}

	return &Persisted{
		Intensity:  m,
		FrameTimes: frameTimes,
		Bands:      bands,
		Mode:       types.ParseMode(string(modeData)),
	}, nil
}

// FindReference locates a previously saved reference or instrumental file
// by its kind prefix ("vocal" or "instrumental"), since the extension is
// chosen by the uploader and not known to the caller in advance.
func (s *Store) FindReference(id, kind string) (string, error) {
	dir, err := s.SessionDir(id)
	if err != nil {
		return "", err
	}
	entries, err := os.ReadDir(dir)
	if err != nil {
		return "", fmt.Errorf("session: reading session dir: %w", err)
	}
	for _, e := range entries {
		name := e.Name()
		if len(name) > len(kind) && name[:len(kind)] == kind {
			return filepath.Join(dir, name), nil
		}
	}
	return "", fmt.Errorf("session: no %q reference found for %q", kind, id)
}

func (s *Store) hasAnyReference(dir string) bool {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return false
	}
	for _, e := range entries {
		name := e.Name()
		if len(name) >= 5 && (name[:5] == "vocal" || (len(name) >= 12 && name[:12] == "instrumental")) {
			return true
		}
	}
	return false
}

// writeFileAtomic writes data to a temp sibling then renames into place,
// the durability pattern used for in-place output replacement elsewhere in
// the retrieved pack, applied here to each persisted artifact so a crash
// mid-write never leaves a corrupt matrix on disk.
func writeFileAtomic(path string, data []byte) error {
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o600); err != nil {
		return err
	}
	return os.Rename(tmp, path)
}

func encodeMatrix(m *matrix.Matrix) []byte {
	buf := make([]byte, 4+1+4+4+len(m.Data)*8)
	copy(buf, blobMagic)
	buf[4] = dtypeFloat64
	binary.LittleEndian.PutUint32(buf[5:9], uint32(m.Bands))
	binary.LittleEndian.PutUint32(buf[9:13], uint32(m.Frames))
	off := 13
	for _, v := range m.Data {
		binary.LittleEndian.PutUint64(buf[off:off+8], math.Float64bits(v))
		off += 8
	}
	return buf
}

func decodeMatrix(buf []byte) (*matrix.Matrix, error) {
	if len(buf) < 13 || string(buf[:4]) != blobMagic || buf[4] != dtypeFloat64 {
		return nil, fmt.Errorf("malformed matrix blob")
	}
	bands := int(binary.LittleEndian.Uint32(buf[5:9]))
	frames := int(binary.LittleEndian.Uint32(buf[9:13]))
	want := 13 + bands*frames*8
	if len(buf) != want {
		return nil, fmt.Errorf("matrix blob size %d, want %d", len(buf), want)
	}
	m := matrix.New(bands, frames)
	off := 13
	for i := range m.Data {
		m.Data[i] = math.Float64frombits(binary.LittleEndian.Uint64(buf[off : off+8]))
		off += 8
	}
	return m, nil
}

func encodeVector(v []float64) []byte {
	buf := make([]byte, 4+1+4+4+len(v)*8)
	copy(buf, blobMagic)
	buf[4] = dtypeFloat64
	binary.LittleEndian.PutUint32(buf[5:9], uint32(len(v)))
	binary.LittleEndian.PutUint32(buf[9:13], 1)
	off := 13
	for _, x := range v {
		binary.LittleEndian.PutUint64(buf[off:off+8], math.Float64bits(x))
		off += 8
	}
	return buf
}

func decodeVector(buf []byte) ([]float64, error) {
	if len(buf) < 13 || string(buf[:4]) != blobMagic || buf[4] != dtypeFloat64 {
		return nil, fmt.Errorf("malformed vector blob")
	}
	n := int(binary.LittleEndian.Uint32(buf[5:9]))
	want := 13 + n*8
	if len(buf) != want {
		return nil, fmt.Errorf("vector blob size %d, want %d", len(buf), want)
	}
	out := make([]float64, n)
	off := 13
	for i := range out {
		out[i] = math.Float64frombits(binary.LittleEndian.Uint64(buf[off : off+8]))
		off += 8
	}
	return out, nil
}
