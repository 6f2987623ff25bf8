package engine

import (
	"math"
	"testing"
)

func TestEstimateKeyMajorTemplate(t *testing.T) {
	// A chroma vector equal to the un-rotated major profile must come back
	// as C major with near-perfect confidence.
	est, err := EstimateKey(majorProfile, DefaultEpsilon)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if est.Label != "C major" {
		t.Errorf("label = %q, want \"C major\"", est.Label)
	}
	if est.Confidence < 0.99 {
		t.Errorf("confidence = %v, want >= 0.99", est.Confidence)
	}
}

func TestEstimateKeyRotationSymmetry(t *testing.T) {
	base := []float64{6.35, 2.23, 3.48, 2.33, 4.38, 4.09, 2.52, 5.19, 2.39, 3.66, 2.29, 2.88}

	ref, err := EstimateKey(base, DefaultEpsilon)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	for k := 1; k < 12; k++ {
		rotated := make([]float64, 12)
		for j := range rotated {
			rotated[j] = base[((j-k)%12+12)%12]
		}

		est, err := EstimateKey(rotated, DefaultEpsilon)
		if err != nil {
			t.Fatalf("rotation %d: unexpected error: %v", k, err)
		}

		wantLabel := pitchNames[k] + " major"
		if est.Label != wantLabel {
			t.Errorf("rotation %d: label = %q, want %q", k, est.Label, wantLabel)
		}
		if math.Abs(est.Confidence-ref.Confidence) > 1e-9 {
			t.Errorf("rotation %d: confidence = %v, want %v", k, est.Confidence, ref.Confidence)
		}
	}
}

func TestEstimateKeySelfConsistency(t *testing.T) {
	// A pure single-pitch-class vector must carry more information than
	// silence: its confidence exceeds the degenerate 0.5, and the winning
	// tonic is the lit pitch class.
	for pc := 0; pc < 12; pc++ {
		single := make([]float64, 12)
		single[pc] = 1

		est, err := EstimateKey(single, DefaultEpsilon)
		if err != nil {
			t.Fatalf("pitch class %d: unexpected error: %v", pc, err)
		}
		if est.Confidence <= 0.5 {
			t.Errorf("pitch class %d: confidence = %v, want > 0.5", pc, est.Confidence)
		}
		wantLabel := pitchNames[pc] + " major"
		if est.Label != wantLabel {
			t.Errorf("pitch class %d: label = %q, want %q", pc, est.Label, wantLabel)
		}
	}
}

func TestEstimateKeyDegenerateInput(t *testing.T) {
	// All-zero chroma: every similarity is exactly zero, so the scan keeps
	// its first candidate. This is a defined output, not an error.
	zero := make([]float64, 12)

	est, err := EstimateKey(zero, DefaultEpsilon)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if est.Label != "C major" {
		t.Errorf("label = %q, want \"C major\" from the tie-break", est.Label)
	}
	if math.Abs(est.Confidence-0.5) > 1e-9 {
		t.Errorf("confidence = %v, want 0.5", est.Confidence)
	}
}

func TestEstimateKeyTieBreakDeterminism(t *testing.T) {
	// With every similarity exactly equal, repeated runs must always resolve
	// to the lowest rotation with major before minor.
	zero := make([]float64, 12)
	for i := 0; i < 10; i++ {
		est, err := EstimateKey(zero, DefaultEpsilon)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if est.Label != "C major" {
			t.Fatalf("run %d: label = %q, want \"C major\"", i, est.Label)
		}
	}
}

func TestEstimateKeyRejectsWrongLength(t *testing.T) {
	for _, n := range []int{0, 11, 13, 24} {
		_, err := EstimateKey(make([]float64, n), DefaultEpsilon)
		if err == nil {
			t.Errorf("length %d: expected error, got nil", n)
		}
	}
}

func TestMeanChroma(t *testing.T) {
	chroma := zeroChroma(4)
	chroma[3] = []float64{1, 2, 3, 2} // mean 2
	chroma[7] = []float64{4, 4, 4, 4} // mean 4

	mean, err := MeanChroma(chroma)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if math.Abs(mean[3]-2) > 1e-12 || math.Abs(mean[7]-4) > 1e-12 {
		t.Errorf("mean = %v, want index 3 = 2 and index 7 = 4", mean)
	}
	for i, v := range mean {
		if i != 3 && i != 7 && v != 0 {
			t.Errorf("index %d = %v, want 0", i, v)
		}
	}
}

func TestMeanChromaZeroFrames(t *testing.T) {
	mean, err := MeanChroma(zeroChroma(0))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	for i, v := range mean {
		if v != 0 {
			t.Errorf("index %d = %v, want 0", i, v)
		}
	}
}

func TestMeanChromaShapeErrors(t *testing.T) {
	short := zeroChroma(4)[:10]
	if _, err := MeanChroma(short); err == nil {
		t.Error("expected error for 10-row chroma, got nil")
	}

	ragged := zeroChroma(4)
	ragged[6] = ragged[6][:2]
	if _, err := MeanChroma(ragged); err == nil {
		t.Error("expected error for ragged chroma, got nil")
	}
}
