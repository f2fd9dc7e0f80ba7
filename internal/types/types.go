// Package types provides shared type definitions used across the restoration engine.
package types

import (
	"errors"
	"fmt"
)

// ErrOutOfRange is wrapped by a Validate method when a field falls outside
// its documented bound, so callers can distinguish a range violation from
// a missing/malformed field without string-matching the message.
var ErrOutOfRange = errors.New("types: value out of range")

// Mode selects which analyzer produced an intensity matrix and which gain
// formula the Spectral Processor applies.
type Mode int

const (
	ModeVocal Mode = iota
	ModeMix
)

// String returns the string representation of the mode.
func (m Mode) String() string {
	switch m {
	case ModeMix:
		return "mix"
	default:
		return "vocal"
	}
}

// ParseMode parses a string into a Mode, defaulting to ModeVocal on any
// value other than "mix".
func ParseMode(s string) Mode {
	if s == "mix" {
		return ModeMix
	}
	return ModeVocal
}

// Normalization selects the Post Conditioner's output loudness treatment.
type Normalization int

const (
	NormalizationNone Normalization = iota
	NormalizationPeak
	NormalizationLoudness
)

func (n Normalization) String() string {
	switch n {
	case NormalizationPeak:
		return "peak"
	case NormalizationLoudness:
		return "loudness"
	default:
		return "none"
	}
}

func ParseNormalization(s string) (Normalization, error) {
	switch s {
	case "", "none":
		return NormalizationNone, nil
	case "peak":
		return NormalizationPeak, nil
	case "loudness":
		return NormalizationLoudness, nil
	default:
		return NormalizationNone, fmt.Errorf("types: unknown normalization %q", s)
	}
}

// BandDefinition describes one frequency band produced by the Band Planner.
type BandDefinition struct {
	Index    int     `json:"index"`
	LowHz    float64 `json:"low_hz"`
	HighHz   float64 `json:"high_hz"`
	CenterHz float64 `json:"center_hz"`
}

// AnalysisRequest parameterizes a Vocal or Mix Analyzer run.
type AnalysisRequest struct {
	SessionID   string `json:"session_id"`
	Mode        Mode   `json:"-"`
	Sensitivity int    `json:"sensitivity"` // vocal mode only, [1,10], default 9
	BandCount   int    `json:"band_count"`  // [6,32] mix, [6,24] vocal, default 24
}

// Validate checks AnalysisRequest fields against their documented ranges,
// returning the first violation found.
func (r AnalysisRequest) Validate() error {
	if r.SessionID == "" {
		return fmt.Errorf("types: session id required")
	}
	if r.Sensitivity < 1 || r.Sensitivity > 10 {
		return fmt.Errorf("%w: sensitivity %d not in [1,10]", ErrOutOfRange, r.Sensitivity)
	}
	maxBands := 32
	if r.Mode == ModeVocal {
		maxBands = 24
	}
	if r.BandCount < 6 || r.BandCount > maxBands {
		return fmt.Errorf("%w: band_count %d not in [6,%d]", ErrOutOfRange, r.BandCount, maxBands)
	}
	return nil
}

// ProcessRequest parameterizes a full restoration run over a previously
// analyzed session.
type ProcessRequest struct {
	SessionID     string        `json:"session_id"`
	Mode          Mode          `json:"-"`
	EQLevel       int           `json:"eq_level"`     // [0,10], default 7
	BandCount     int           `json:"band_count"`   // [6,32], default 24
	Sensitivity   int           `json:"sensitivity"`  // [1,10], default 9
	StereoWiden   bool          `json:"stereo_widen"` // default false
	Normalization Normalization `json:"-"`
}

func (r ProcessRequest) Validate() error {
	if r.SessionID == "" {
		return fmt.Errorf("types: session id required")
	}
	if r.EQLevel < 0 || r.EQLevel > 10 {
		return fmt.Errorf("%w: eq_level %d not in [0,10]", ErrOutOfRange, r.EQLevel)
	}
	if r.BandCount < 6 || r.BandCount > 32 {
		return fmt.Errorf("%w: band_count %d not in [6,32]", ErrOutOfRange, r.BandCount)
	}
	if r.Sensitivity < 1 || r.Sensitivity > 10 {
		return fmt.Errorf("%w: sensitivity %d not in [1,10]", ErrOutOfRange, r.Sensitivity)
	}
	return nil
}

// AnalysisResponse is the result of an analyzer run, ready for a caller to
// render or persist.
type AnalysisResponse struct {
	SessionID         string           `json:"session_id"`
	Duration          float64          `json:"duration"`
	SampleRate        int              `json:"sample_rate"`
	NBands            int              `json:"n_bands"`
	NFrames           int              `json:"n_frames"`
	HopSeconds        float64          `json:"hop_seconds"`
	Bands             []BandDefinition `json:"bands"`
	IntensityHeatmap  [][]float64      `json:"intensity_heatmap"`
	HeatmapTimes      []float64        `json:"heatmap_times"`
	ReferencePeaks    []float64        `json:"reference_peaks"`
	InstrumentalPeaks []float64        `json:"instrumental_peaks"`
	Mode              string           `json:"mode"`
}

// ProcessResponse is the result of a restoration run.
type ProcessResponse struct {
	SessionID      string  `json:"session_id"`
	OutputFilename string  `json:"output_filename"`
	Duration       float64 `json:"duration"`
}
