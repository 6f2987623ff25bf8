package engine

import (
	"fmt"

	"gonum.org/v1/gonum/floats"
)

// Source selects which spectrogram a band's energy is summed over.
type Source int

const (
	SourceTotal Source = iota
	SourcePercussive
	SourceHarmonic
)

func (s Source) String() string {
	switch s {
	case SourceTotal:
		return "total"
	case SourcePercussive:
		return "percussive"
	case SourceHarmonic:
		return "harmonic"
	default:
		return fmt.Sprintf("Source(%d)", int(s))
	}
}

// FrequencyBand is a half-open frequency interval [LowHz, HighHz) summed over
// one of the three source spectrograms.
type FrequencyBand struct {
	LowHz  float64
	HighHz float64
	Source Source
}

// matrix returns the spectrogram the band draws from.
func (b FrequencyBand) matrix(in *SpectralInput) [][]float64 {
	switch b.Source {
	case SourcePercussive:
		return in.MelPercussive
	case SourceHarmonic:
		return in.MelHarmonic
	default:
		return in.MelTotal
	}
}

// BandEnergy sums spectrogram energy over all bins whose center frequency
// lies in [LowHz, HighHz), producing one value per frame. A band that
// matches no bins yields an all-zero series. The input is not modified.
func BandEnergy(in *SpectralInput, band FrequencyBand) ([]float64, error) {
	m := band.matrix(in)
	if len(m) != len(in.BinFreqs) {
		return nil, &ShapeError{
			Field:    band.Source.String() + " bins",
			Expected: len(in.BinFreqs),
			Actual:   len(m),
		}
	}

	frames := in.NumFrames()
	out := make([]float64, frames)
	for i, f := range in.BinFreqs {
		if f < band.LowHz || f >= band.HighHz {
			continue
		}
		row := m[i]
		if len(row) != frames {
			return nil, &ShapeError{
				Field:    band.Source.String() + " frames",
				Expected: frames,
				Actual:   len(row),
			}
		}
		floats.Add(out, row)
	}
	return out, nil
}
