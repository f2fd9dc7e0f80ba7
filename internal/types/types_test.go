package types

import (
	"errors"
	"testing"
)

func TestAnalysisRequestValidate(t *testing.T) {
	tests := []struct {
		name    string
		req     AnalysisRequest
		wantErr bool
	}{
		{"valid vocal", AnalysisRequest{SessionID: "abc123def456", Mode: ModeVocal, Sensitivity: 9, BandCount: 24}, false},
		{"valid mix", AnalysisRequest{SessionID: "abc123def456", Mode: ModeMix, Sensitivity: 9, BandCount: 32}, false},
		{"missing session id", AnalysisRequest{Sensitivity: 9, BandCount: 24}, true},
		{"sensitivity too low", AnalysisRequest{SessionID: "abc123def456", Sensitivity: 0, BandCount: 24}, true},
		{"sensitivity too high", AnalysisRequest{SessionID: "abc123def456", Sensitivity: 11, BandCount: 24}, true},
		{"vocal band count above vocal ceiling", AnalysisRequest{SessionID: "abc123def456", Mode: ModeVocal, Sensitivity: 9, BandCount: 32}, true},
		{"mix band count at mix ceiling", AnalysisRequest{SessionID: "abc123def456", Mode: ModeMix, Sensitivity: 9, BandCount: 32}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.req.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
			if err != nil && !errors.Is(err, ErrOutOfRange) && tt.req.SessionID != "" {
				t.Errorf("range violation should wrap ErrOutOfRange, got %v", err)
			}
		})
	}
}

func TestProcessRequestValidate(t *testing.T) {
	tests := []struct {
		name    string
		req     ProcessRequest
		wantErr bool
	}{
		{"valid", ProcessRequest{SessionID: "abc123def456", EQLevel: 7, BandCount: 24, Sensitivity: 9}, false},
		{"eq level too high", ProcessRequest{SessionID: "abc123def456", EQLevel: 11, BandCount: 24, Sensitivity: 9}, true},
		{"band count too low", ProcessRequest{SessionID: "abc123def456", EQLevel: 7, BandCount: 5, Sensitivity: 9}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.req.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestParseMode(t *testing.T) {
	if ParseMode("mix") != ModeMix {
		t.Error(`ParseMode("mix") should return ModeMix`)
	}
	if ParseMode("vocal") != ModeVocal {
		t.Error(`ParseMode("vocal") should return ModeVocal`)
	}
	if ParseMode("garbage") != ModeVocal {
		t.Error("ParseMode should default unknown values to ModeVocal")
	}
}

func TestParseNormalization(t *testing.T) {
	tests := []struct {
		in      string
		want    Normalization
		wantErr bool
	}{
		{"", NormalizationNone, false},
		{"none", NormalizationNone, false},
		{"peak", NormalizationPeak, false},
		{"loudness", NormalizationLoudness, false},
		{"bogus", NormalizationNone, true},
	}
	for _, tt := range tests {
		got, err := ParseNormalization(tt.in)
		if (err != nil) != tt.wantErr {
			t.Errorf("ParseNormalization(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
		}
		if got != tt.want {
			t.Errorf("ParseNormalization(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}
