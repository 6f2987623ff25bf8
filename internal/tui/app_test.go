package tui

import (
	"strings"
	"testing"

	"github.com/jmtucker/resonate/internal/engine"
)

func testComponents() *engine.Components {
	return &engine.Components{
		Times: []float64{0, 0.5, 1.0},
		Series: map[string][]float64{
			"kick":   {0, 1, 0},
			"snare":  {0, 0, 1},
			"hihat":  {0, 0, 0},
			"bass":   {0.5, 0.5, 0.5},
			"vocals": {0, 0.25, 0.5},
		},
	}
}

func TestRenderBeatsShowsAllMeters(t *testing.T) {
	out := renderBeats(testComponents(), 0.5, 60)

	for _, label := range []string{"Kick", "Snare", "Hi-hat", "Bass", "Vocals"} {
		if !strings.Contains(out, label) {
			t.Errorf("output missing %q meter", label)
		}
	}
	// kick is at full intensity at t=0.5, so its meter has filled cells
	if !strings.Contains(out, "█") {
		t.Error("expected filled meter cells")
	}
}

func TestRenderBeatsNilComponents(t *testing.T) {
	out := renderBeats(nil, 0, 60)
	if !strings.Contains(out, "Analyzing") {
		t.Errorf("nil components output = %q", out)
	}
}

func TestRenderSpectrumEmpty(t *testing.T) {
	if out := renderSpectrum(&Analysis{}, 0, 40, 10); out != "" {
		t.Errorf("empty analysis output = %q", out)
	}
}

func TestRenderSpectrumLineCount(t *testing.T) {
	an := &Analysis{
		Spectrum: [][]float64{{-10, -20}, {-30, -40}, {0, -60}},
		Times:    []float64{0, 0.5},
	}
	out := renderSpectrum(an, 0.25, 40, 8)
	if lines := strings.Count(out, "\n"); lines != 8 {
		t.Errorf("expected 8 lines, got %d", lines)
	}
}

func TestFrameIndex(t *testing.T) {
	times := []float64{0, 0.5, 1.0}
	tests := []struct {
		elapsed float64
		want    int
	}{
		{-1, 0},
		{0, 0},
		{0.4, 0},
		{0.5, 1},
		{5, 2},
	}
	for _, tt := range tests {
		if got := frameIndex(times, tt.elapsed); got != tt.want {
			t.Errorf("frameIndex(%v) = %d, want %d", tt.elapsed, got, tt.want)
		}
	}
}

func TestFrameIndexEmpty(t *testing.T) {
	if got := frameIndex(nil, 1); got != 0 {
		t.Errorf("frameIndex(nil) = %d, want 0", got)
	}
}
