package engine

import (
	"gonum.org/v1/gonum/floats"
)

// Krumhansl-Schmuckler key profiles: perceived stability of each pitch class
// relative to the tonic, for major and minor keys.
var (
	majorProfile = []float64{6.35, 2.23, 3.48, 2.33, 4.38, 4.09, 2.52, 5.19, 2.39, 3.66, 2.29, 2.88}
	minorProfile = []float64{6.33, 2.68, 3.52, 5.38, 2.60, 3.53, 2.54, 4.75, 3.98, 2.69, 3.34, 3.17}
)

var pitchNames = []string{"C", "C#", "D", "D#", "E", "F", "F#", "G", "G#", "A", "A#", "B"}

// KeyEstimate is the most probable musical key for a recording.
type KeyEstimate struct {
	Label      string  // e.g. "D# minor"
	Confidence float64 // in [0, 1]
}

// MeanChroma averages a [12][frame] chroma matrix across frames, producing
// one energy value per pitch class. A zero-frame matrix yields a zero vector.
func MeanChroma(chroma [][]float64) ([]float64, error) {
	if len(chroma) != chromaBins {
		return nil, &ShapeError{Field: "chroma bins", Expected: chromaBins, Actual: len(chroma)}
	}
	mean := make([]float64, chromaBins)
	frames := len(chroma[0])
	for i, row := range chroma {
		if len(row) != frames {
			return nil, &ShapeError{Field: "chroma frames", Expected: frames, Actual: len(row)}
		}
		if frames > 0 {
			mean[i] = floats.Sum(row) / float64(frames)
		}
	}
	return mean, nil
}

// EstimateKey correlates a 12-element chroma vector against the 24 rotated
// key profiles and returns the best match.
//
// The scan is a sequential maximum over rotations in ascending order, with
// the major profile compared before the minor profile at each rotation.
// Because the comparison is strict, exact ties resolve to the earliest
// candidate in that order; the tie-break is deterministic and relied on by
// tests. An all-zero chroma vector produces every similarity at zero, so the
// first candidate ("C major") wins with confidence 0.5 — a defined
// degenerate output for silent input, not an error.
func EstimateKey(chroma []float64, eps float64) (KeyEstimate, error) {
	if len(chroma) != chromaBins {
		return KeyEstimate{}, &ShapeError{Field: "chroma vector", Expected: chromaBins, Actual: len(chroma)}
	}

	c := make([]float64, chromaBins)
	copy(c, chroma)
	floats.Scale(1/(floats.Norm(c, 2)+eps), c)

	best := -1.0
	bestLabel := ""
	for i := 0; i < chromaBins; i++ {
		if r := profileSimilarity(c, majorProfile, i, eps); r > best {
			best = r
			bestLabel = pitchNames[i] + " major"
		}
		if r := profileSimilarity(c, minorProfile, i, eps); r > best {
			best = r
			bestLabel = pitchNames[i] + " minor"
		}
	}

	confidence := (best + 1) / 2
	if confidence < 0 {
		confidence = 0
	} else if confidence > 1 {
		confidence = 1
	}
	return KeyEstimate{Label: bestLabel, Confidence: confidence}, nil
}

// profileSimilarity is the cosine similarity between a normalized chroma
// vector and a key profile rotated so pitch class rot becomes the tonic.
func profileSimilarity(c, profile []float64, rot int, eps float64) float64 {
	rolled := make([]float64, chromaBins)
	for j := range rolled {
		rolled[j] = profile[((j-rot)%chromaBins+chromaBins)%chromaBins]
	}
	floats.Scale(1/(floats.Norm(rolled, 2)+eps), rolled)
	return floats.Dot(c, rolled)
}
