package engine

import "fmt"

// chromaBins is the number of pitch classes in a chroma matrix (C through B).
const chromaBins = 12

// ShapeError reports a dimension mismatch between a spectral matrix and its
// frequency or time axis. The engine never truncates or pads mismatched
// input; it fails with enough context to diagnose the upstream problem.
type ShapeError struct {
	Field    string // which array is inconsistent
	Expected int
	Actual   int
}

func (e *ShapeError) Error() string {
	return fmt.Sprintf("engine: %s length mismatch: expected %d, got %d", e.Field, e.Expected, e.Actual)
}

// SpectralInput holds the precomputed time-frequency representation of one
// recording, as delivered by the external spectral analyzer. All matrices are
// indexed [bin][frame] and share the frame-time axis in Times. The engine
// treats every array as read-only.
type SpectralInput struct {
	MelTotal      [][]float64 // mel spectrogram of the full signal
	MelPercussive [][]float64 // mel spectrogram of the percussive component
	MelHarmonic   [][]float64 // mel spectrogram of the harmonic component
	Chroma        [][]float64 // pitch-class energy, 12 rows
	BinFreqs      []float64   // center frequency of each mel bin, Hz
	Times         []float64   // timestamp of each frame, seconds
}

// NumFrames returns the length of the shared frame-time axis.
func (in *SpectralInput) NumFrames() int {
	return len(in.Times)
}

// Validate checks that every matrix agrees with the bin and time axes.
// It returns a *ShapeError describing the first inconsistency found.
func (in *SpectralInput) Validate() error {
	frames := len(in.Times)
	bins := len(in.BinFreqs)

	mels := []struct {
		name string
		m    [][]float64
	}{
		{"mel_total", in.MelTotal},
		{"mel_percussive", in.MelPercussive},
		{"mel_harmonic", in.MelHarmonic},
	}
	for _, s := range mels {
		if len(s.m) != bins {
			return &ShapeError{Field: s.name + " bins", Expected: bins, Actual: len(s.m)}
		}
		for _, row := range s.m {
			if len(row) != frames {
				return &ShapeError{Field: s.name + " frames", Expected: frames, Actual: len(row)}
			}
		}
	}

	if len(in.Chroma) != chromaBins {
		return &ShapeError{Field: "chroma bins", Expected: chromaBins, Actual: len(in.Chroma)}
	}
	for _, row := range in.Chroma {
		if len(row) != frames {
			return &ShapeError{Field: "chroma frames", Expected: frames, Actual: len(row)}
		}
	}

	return nil
}
