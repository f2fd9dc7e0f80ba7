// Package bandplan computes the logarithmically-spaced frequency bands
// shared by the Vocal Analyzer, Mix Analyzer, and Spectral Processor.
package bandplan

import (
	"fmt"
	"math"

	"github.com/karenhance/restored/internal/types"
)

const (
	minBandHz = 60.0
	maxBandHz = 16000.0
)

// Plan bundles a set of band definitions with the bin-group membership for
// a given FFT size, so every consumer partitions bins identically.
type Plan struct {
	Bands []types.BandDefinition
	edges []float64
}

// New builds a Plan with n bands spanning [60Hz, min(16000Hz, sampleRate/2)].
func New(n, sampleRate int) (*Plan, error) {
	if n < 2 {
		return nil, fmt.Errorf("bandplan: band count %d too small", n)
	}
	if sampleRate <= 0 {
		return nil, fmt.Errorf("bandplan: invalid sample rate %d", sampleRate)
	}
	edges := Edges(n, sampleRate)
	return &Plan{Bands: BuildBandDefinitions(edges), edges: edges}, nil
}

// Edges returns n+1 geometrically-spaced band edges from 60 Hz to
// min(16000, sampleRate/2) Hz.
func Edges(n, sampleRate int) []float64 {
	hi := maxBandHz
	if nyq := float64(sampleRate) / 2; nyq < hi {
		hi = nyq
	}
	lo := minBandHz
	if hi <= lo {
		hi = lo + 1
	}
	edges := make([]float64, n+1)
	logLo, logHi := math.Log(lo), math.Log(hi)
	step := (logHi - logLo) / float64(n)
	for i := 0; i <= n; i++ {
		edges[i] = math.Exp(logLo + step*float64(i))
	}
	// Pin the end points so exp/log round-off cannot move them off the
	// exact band range.
	edges[0], edges[n] = lo, hi
	return edges
}

// BuildBandDefinitions converts edges into BandDefinition records, rounded
// to 0.1 Hz.
func BuildBandDefinitions(edges []float64) []types.BandDefinition {
	n := len(edges) - 1
	bands := make([]types.BandDefinition, n)
	for i := 0; i < n; i++ {
		low, high := edges[i], edges[i+1]
		bands[i] = types.BandDefinition{
			Index:    i,
			LowHz:    round1(low),
			HighHz:   round1(high),
			CenterHz: round1(math.Sqrt(low * high)),
		}
	}
	return bands
}

func round1(v float64) float64 {
	return math.Round(v*10) / 10
}

// BinGroups returns, for each band, the sorted FFT bin indices i whose
// frequency i*sampleRate/fftSize falls in [edges[b], edges[b+1]). A band
// may legally have no bins. Bands partition the bin range disjointly: the
// top edge of band b equals the bottom edge of band b+1, and a bin belongs
// to exactly one band via the half-open interval.
func (p *Plan) BinGroups(fftSize, sampleRate int) [][]int {
	return BinGroups(fftSize, sampleRate, p.edges)
}

// BinGroups is the free function underlying Plan.BinGroups, usable
// directly once edges are known.
func BinGroups(fftSize, sampleRate int, edges []float64) [][]int {
	n := len(edges) - 1
	groups := make([][]int, n)
	nyquistBins := fftSize/2 + 1
	for bin := 0; bin < nyquistBins; bin++ {
		freq := float64(bin) * float64(sampleRate) / float64(fftSize)
		b := locateBand(edges, freq)
		if b >= 0 {
			groups[b] = append(groups[b], bin)
		}
	}
	return groups
}

// locateBand returns the index b such that edges[b] <= freq < edges[b+1],
// or -1 if freq falls outside [edges[0], edges[last]). The top edge stays
// exclusive: a bin landing exactly on it is unassigned, not folded into
// the top band.
func locateBand(edges []float64, freq float64) int {
	n := len(edges) - 1
	if freq < edges[0] {
		return -1
	}
	for b := 0; b < n; b++ {
		if freq < edges[b+1] {
			return b
		}
	}
	return -1
}
