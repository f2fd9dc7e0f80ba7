// Package matrix provides the dense band-by-frame float64 matrix shared by
// the analyzers, the Spectral Processor, session persistence, and the
// visualization helpers.
package matrix

// Matrix is a row-major (bands x frames) dense matrix.
type Matrix struct {
	Bands  int
	Frames int
	Data   []float64
}

// New allocates a zeroed Matrix.
func New(bands, frames int) *Matrix {
	return &Matrix{Bands: bands, Frames: frames, Data: make([]float64, bands*frames)}
}

// Fill allocates a Matrix with every cell set to v.
func Fill(bands, frames int, v float64) *Matrix {
	m := New(bands, frames)
	for i := range m.Data {
		m.Data[i] = v
	}
	return m
}

func (m *Matrix) At(b, f int) float64 {
	return m.Data[b*m.Frames+f]
}

func (m *Matrix) Set(b, f int, v float64) {
	m.Data[b*m.Frames+f] = v
}

// Row returns the backing slice for band b's frame sequence. Mutating it
// mutates the matrix.
func (m *Matrix) Row(b int) []float64 {
	return m.Data[b*m.Frames : (b+1)*m.Frames]
}

// Clip clamps every cell into [lo, hi] in place.
func (m *Matrix) Clip(lo, hi float64) {
	for i, v := range m.Data {
		if v < lo {
			m.Data[i] = lo
		} else if v > hi {
			m.Data[i] = hi
		} else {
			m.Data[i] = v
		}
	}
}
