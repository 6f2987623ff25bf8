package engine

import (
	"errors"
	"testing"
)

// silentInput builds a valid SpectralInput whose matrices are all zero.
func silentInput(frames int) *SpectralInput {
	zeros := func(rows int) [][]float64 {
		m := make([][]float64, rows)
		for i := range m {
			m[i] = make([]float64, frames)
		}
		return m
	}
	times := make([]float64, frames)
	for i := range times {
		times[i] = float64(i) * 0.0116 // 512-sample hop at 44.1 kHz
	}
	return &SpectralInput{
		MelTotal:      zeros(3),
		MelPercussive: zeros(3),
		MelHarmonic:   zeros(3),
		Chroma:        zeros(12),
		BinFreqs:      []float64{100, 1000, 8000},
		Times:         times,
	}
}

func TestAnalyzeSilentRecording(t *testing.T) {
	comps, err := Analyze(silentInput(5), DefaultConfig())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	for _, name := range ComponentNames {
		s, ok := comps.Series[name]
		if !ok {
			t.Fatalf("missing component %q", name)
		}
		if len(s) != 5 {
			t.Errorf("%s: length = %d, want 5", name, len(s))
		}
		for i, v := range s {
			if v != 0 {
				t.Errorf("%s frame %d = %v, want 0 for silent input", name, i, v)
			}
		}
	}
}

func TestAnalyzeLengthPreservation(t *testing.T) {
	for _, frames := range []int{0, 1, 2, 16} {
		comps, err := Analyze(silentInput(frames), DefaultConfig())
		if err != nil {
			t.Fatalf("frames=%d: unexpected error: %v", frames, err)
		}
		for _, name := range ComponentNames {
			if got := len(comps.Series[name]); got != frames {
				t.Errorf("frames=%d: %s length = %d", frames, name, got)
			}
		}
	}
}

func TestAnalyzeEnvelopeRange(t *testing.T) {
	in := testInput()
	comps, err := Analyze(in, DefaultConfig())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	for _, name := range ComponentNames {
		for i, v := range comps.Series[name] {
			if v < 0 || v > 1 {
				t.Errorf("%s frame %d = %v, outside [0, 1]", name, i, v)
			}
		}
	}
}

func TestAnalyzeRejectsInvalidInput(t *testing.T) {
	in := testInput()
	in.MelHarmonic = in.MelHarmonic[:1]

	_, err := Analyze(in, DefaultConfig())
	var shapeErr *ShapeError
	if !errors.As(err, &shapeErr) {
		t.Fatalf("error = %v, want *ShapeError", err)
	}
}

func TestAnalyzeKeySilentRecording(t *testing.T) {
	est, err := AnalyzeKey(silentInput(8), DefaultConfig())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if est.Label != "C major" || est.Confidence != 0.5 {
		t.Errorf("estimate = %+v, want C major at 0.5", est)
	}
}

func TestComponentsFrameAt(t *testing.T) {
	comps := &Components{Times: []float64{0, 0.5, 1.0, 1.5}}

	tests := []struct {
		name    string
		elapsed float64
		want    int
	}{
		{"before first frame clamps to zero", -0.3, 0},
		{"exactly on a frame", 0.5, 1},
		{"between frames picks the one before", 0.7, 1},
		{"past the end clamps to the last frame", 9.0, 3},
		{"at time zero", 0, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := comps.FrameAt(tt.elapsed); got != tt.want {
				t.Errorf("FrameAt(%v) = %d, want %d", tt.elapsed, got, tt.want)
			}
		})
	}
}

func TestComponentsAt(t *testing.T) {
	comps := &Components{
		Times:  []float64{0, 0.5, 1.0},
		Series: map[string][]float64{"kick": {0.2, 0.9, 0.1}},
	}

	if got := comps.At("kick", 0.6); got != 0.9 {
		t.Errorf("At(kick, 0.6) = %v, want 0.9", got)
	}
	if got := comps.At("snare", 0.6); got != 0 {
		t.Errorf("At(snare, 0.6) = %v, want 0 for unknown component", got)
	}

	empty := &Components{}
	if got := empty.At("kick", 1.0); got != 0 {
		t.Errorf("At on empty components = %v, want 0", got)
	}

	noAxis := &Components{Series: map[string][]float64{"kick": {0.4}}}
	if got := noAxis.At("kick", 1.0); got != 0 {
		t.Errorf("At with no time axis = %v, want 0", got)
	}
}
