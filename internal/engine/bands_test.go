package engine

import (
	"errors"
	"math"
	"testing"
)

// testInput builds a small valid SpectralInput with three mel bins at 100,
// 1000, and 8000 Hz across four frames.
func testInput() *SpectralInput {
	return &SpectralInput{
		MelTotal: [][]float64{
			{1, 2, 3, 4},
			{5, 6, 7, 8},
			{9, 10, 11, 12},
		},
		MelPercussive: [][]float64{
			{0.1, 0.2, 0.3, 0.4},
			{0.5, 0.6, 0.7, 0.8},
			{0.9, 1.0, 1.1, 1.2},
		},
		MelHarmonic: [][]float64{
			{2, 2, 2, 2},
			{3, 3, 3, 3},
			{4, 4, 4, 4},
		},
		Chroma:   zeroChroma(4),
		BinFreqs: []float64{100, 1000, 8000},
		Times:    []float64{0, 0.5, 1.0, 1.5},
	}
}

func zeroChroma(frames int) [][]float64 {
	m := make([][]float64, 12)
	for i := range m {
		m[i] = make([]float64, frames)
	}
	return m
}

func TestBandEnergy(t *testing.T) {
	in := testInput()

	tests := []struct {
		name string
		band FrequencyBand
		want []float64
	}{
		{
			name: "single bin from total",
			band: FrequencyBand{LowHz: 20, HighHz: 150, Source: SourceTotal},
			want: []float64{1, 2, 3, 4},
		},
		{
			name: "two bins summed",
			band: FrequencyBand{LowHz: 20, HighHz: 2500, Source: SourceTotal},
			want: []float64{6, 8, 10, 12},
		},
		{
			name: "percussive source selected",
			band: FrequencyBand{LowHz: 150, HighHz: 2500, Source: SourcePercussive},
			want: []float64{0.5, 0.6, 0.7, 0.8},
		},
		{
			name: "harmonic source selected",
			band: FrequencyBand{LowHz: 300, HighHz: 3400, Source: SourceHarmonic},
			want: []float64{3, 3, 3, 3},
		},
		{
			name: "open-ended high band",
			band: FrequencyBand{LowHz: 5000, HighHz: math.Inf(1), Source: SourcePercussive},
			want: []float64{0.9, 1.0, 1.1, 1.2},
		},
		{
			name: "empty band yields zeros not an error",
			band: FrequencyBand{LowHz: 20000, HighHz: 30000, Source: SourceTotal},
			want: []float64{0, 0, 0, 0},
		},
		{
			name: "interval is half-open at the top",
			band: FrequencyBand{LowHz: 100, HighHz: 1000, Source: SourceTotal},
			want: []float64{1, 2, 3, 4},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := BandEnergy(in, tt.band)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if !floatsEqual(got, tt.want, 1e-12) {
				t.Errorf("BandEnergy = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestBandEnergyNonNegative(t *testing.T) {
	in := testInput()
	for _, band := range []FrequencyBand{
		{LowHz: 20, HighHz: 150, Source: SourceTotal},
		{LowHz: 150, HighHz: 2500, Source: SourcePercussive},
		{LowHz: 300, HighHz: 3400, Source: SourceHarmonic},
	} {
		got, err := BandEnergy(in, band)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		for i, v := range got {
			if v < 0 {
				t.Errorf("band %+v frame %d = %v, want >= 0", band, i, v)
			}
		}
	}
}

func TestBandEnergyShapeMismatch(t *testing.T) {
	in := testInput()
	in.BinFreqs = []float64{100, 1000} // one fewer than the matrix rows

	_, err := BandEnergy(in, FrequencyBand{LowHz: 20, HighHz: 150, Source: SourceTotal})
	var shapeErr *ShapeError
	if !errors.As(err, &shapeErr) {
		t.Fatalf("error = %v, want *ShapeError", err)
	}
	if shapeErr.Expected != 2 || shapeErr.Actual != 3 {
		t.Errorf("ShapeError = %+v, want expected 2 actual 3", shapeErr)
	}
}

func TestBandEnergyDoesNotMutateInput(t *testing.T) {
	in := testInput()
	want := in.MelTotal[0][0]

	if _, err := BandEnergy(in, FrequencyBand{LowHz: 20, HighHz: 20000, Source: SourceTotal}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if in.MelTotal[0][0] != want {
		t.Errorf("input matrix mutated")
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*SpectralInput)
		wantErr bool
	}{
		{
			name:    "valid input",
			mutate:  func(*SpectralInput) {},
			wantErr: false,
		},
		{
			name:    "mel bin count mismatch",
			mutate:  func(in *SpectralInput) { in.MelTotal = in.MelTotal[:2] },
			wantErr: true,
		},
		{
			name:    "mel frame count mismatch",
			mutate:  func(in *SpectralInput) { in.MelPercussive[1] = in.MelPercussive[1][:3] },
			wantErr: true,
		},
		{
			name:    "chroma must have twelve rows",
			mutate:  func(in *SpectralInput) { in.Chroma = in.Chroma[:11] },
			wantErr: true,
		},
		{
			name:    "chroma frame count mismatch",
			mutate:  func(in *SpectralInput) { in.Chroma[5] = in.Chroma[5][:1] },
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			in := testInput()
			tt.mutate(in)
			err := in.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
			if tt.wantErr {
				var shapeErr *ShapeError
				if !errors.As(err, &shapeErr) {
					t.Errorf("error = %v, want *ShapeError", err)
				}
			}
		})
	}
}
