package engine

import (
	"math"
	"testing"
)

func floatsEqual(a, b []float64, tol float64) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if math.Abs(a[i]-b[i]) > tol {
			return false
		}
	}
	return true
}

func TestOnsetEnvelope(t *testing.T) {
	tests := []struct {
		name   string
		input  []float64
		window int
		want   []float64
	}{
		{
			name:   "simple attack and release",
			input:  []float64{0, 2, 2, 0},
			window: 1,
			// diffs [0,2,0,-2], rectified [0,2,0,0], normalized by max 2
			want: []float64{0, 1, 0, 0},
		},
		{
			name:   "all-silent input stays zero",
			input:  []float64{0, 0, 0, 0, 0},
			window: 7,
			want:   []float64{0, 0, 0, 0, 0},
		},
		{
			name:   "empty input",
			input:  []float64{},
			window: 7,
			want:   []float64{},
		},
		{
			name:   "single frame",
			input:  []float64{5},
			window: 7,
			want:   []float64{0},
		},
		{
			name:   "monotone decrease rectifies to silence",
			input:  []float64{3, 2, 1, 0},
			window: 1,
			want:   []float64{0, 0, 0, 0},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := OnsetEnvelope(tt.input, tt.window, DefaultEpsilon)
			if len(got) != len(tt.input) {
				t.Fatalf("length = %d, want %d", len(got), len(tt.input))
			}
			if !floatsEqual(got, tt.want, 1e-12) {
				t.Errorf("OnsetEnvelope(%v, %d) = %v, want %v", tt.input, tt.window, got, tt.want)
			}
		})
	}
}

func TestOnsetEnvelopeRange(t *testing.T) {
	input := []float64{0.1, 4, 0.3, 7, 2, 2.5, 0, 9, 1}
	got := OnsetEnvelope(input, 3, DefaultEpsilon)

	peak := 0.0
	for i, v := range got {
		if v < 0 || v > 1 {
			t.Errorf("frame %d = %v, outside [0, 1]", i, v)
		}
		if v > peak {
			peak = v
		}
	}
	if peak != 1 {
		t.Errorf("peak = %v, want exactly 1 for non-silent input", peak)
	}
}

func TestLevelPeakExactlyOne(t *testing.T) {
	// Maxima whose reciprocals are not exactly representable in a float64.
	// Scaling by 1/max instead of dividing would leave the peak one ulp
	// below 1.
	tests := []struct {
		name  string
		input []float64
	}{
		{name: "single frame", input: []float64{49}},
		{name: "peak among quieter frames", input: []float64{49, 7, 3}},
		{name: "fractional maximum", input: []float64{0.3, 1.7, 0.9}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Level(tt.input, 1, DefaultEpsilon)
			peak := 0.0
			for _, v := range got {
				if v > peak {
					peak = v
				}
			}
			if peak != 1 {
				t.Errorf("Level(%v) peak = %v, want exactly 1", tt.input, peak)
			}
		})
	}
}

func TestLevel(t *testing.T) {
	tests := []struct {
		name   string
		input  []float64
		window int
		want   []float64
	}{
		{
			name:   "constant signal normalizes to ones",
			input:  []float64{4, 4, 4, 4},
			window: 3,
			want:   []float64{1, 1, 1, 1},
		},
		{
			name:   "all-zero input yields all-zero level",
			input:  []float64{0, 0, 0, 0, 0},
			window: 9,
			want:   []float64{0, 0, 0, 0, 0},
		},
		{
			name:   "no differencing: sustained energy is preserved",
			input:  []float64{2, 2, 2, 2, 2, 2},
			window: 1,
			want:   []float64{1, 1, 1, 1, 1, 1},
		},
		{
			name:   "empty input",
			input:  []float64{},
			window: 9,
			want:   []float64{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Level(tt.input, tt.window, DefaultEpsilon)
			if !floatsEqual(got, tt.want, 1e-12) {
				t.Errorf("Level(%v, %d) = %v, want %v", tt.input, tt.window, got, tt.want)
			}
		})
	}
}

func TestEnvelopesDoNotMutateInput(t *testing.T) {
	input := []float64{1, 3, 2, 5}
	orig := []float64{1, 3, 2, 5}

	OnsetEnvelope(input, 3, DefaultEpsilon)
	Level(input, 3, DefaultEpsilon)

	if !floatsEqual(input, orig, 0) {
		t.Errorf("input mutated: %v, want %v", input, orig)
	}
}

func TestSmoothSame(t *testing.T) {
	tests := []struct {
		name   string
		input  []float64
		window int
		want   []float64
	}{
		{
			name:   "window of one is identity",
			input:  []float64{1, 2, 3},
			window: 1,
			want:   []float64{1, 2, 3},
		},
		{
			name:   "edges average over clipped window",
			input:  []float64{0, 3, 0},
			window: 3,
			want:   []float64{1.5, 1, 1.5},
		},
		{
			name:   "constant input is unchanged",
			input:  []float64{1, 1, 1, 1, 1},
			window: 3,
			want:   []float64{1, 1, 1, 1, 1},
		},
		{
			name:   "window wider than input averages everything",
			input:  []float64{0, 6, 0},
			window: 99,
			want:   []float64{2, 2, 2},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := smoothSame(tt.input, tt.window)
			if !floatsEqual(got, tt.want, 1e-12) {
				t.Errorf("smoothSame(%v, %d) = %v, want %v", tt.input, tt.window, got, tt.want)
			}
		})
	}
}
