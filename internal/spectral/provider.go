// Package spectral is the boundary to the external spectral analyzer. The
// engine is specified against the analyzer's output contract (matrix shapes,
// units, shared time axis), not its internals, so this package only invokes
// a configured executable and decodes its JSON into engine input.
package spectral

import (
	"context"
	"encoding/json"
	"fmt"
	"os/exec"

	"github.com/jmtucker/resonate/internal/engine"
)

// DefaultBin is the analyzer executable looked up on PATH when the config
// does not name one. It decodes an audio file and emits the mel, chroma, and
// harmonic/percussive matrices plus tempo data as JSON on stdout.
const DefaultBin = "resonate-analyzer"

// Result is one recording's worth of analyzer output: the spectral input
// consumed by the engine, plus tempo and beat data that pass straight
// through to the analysis report.
type Result struct {
	Input      *engine.SpectralInput
	SampleRate int
	Duration   float64 // seconds
	TempoBPM   float64
	BeatTimes  []float64
}

// Provider produces spectral analysis for an audio file.
type Provider interface {
	Analyze(ctx context.Context, path string) (*Result, error)
}

// CommandProvider runs an external analyzer executable per file.
type CommandProvider struct {
	Bin string
}

// NewCommandProvider returns a provider invoking the given executable, or
// DefaultBin if empty.
func NewCommandProvider(bin string) *CommandProvider {
	if bin == "" {
		bin = DefaultBin
	}
	return &CommandProvider{Bin: bin}
}

// Analyze invokes the analyzer on one audio file and validates its output
// against the engine's shape requirements.
func (p *CommandProvider) Analyze(ctx context.Context, path string) (*Result, error) {
	cmd := exec.CommandContext(ctx, p.Bin, path)
	out, err := cmd.Output()
	if err != nil {
		if exitErr, ok := err.(*exec.ExitError); ok {
			return nil, fmt.Errorf("analyzer %s failed: %s", p.Bin, string(exitErr.Stderr))
		}
		return nil, fmt.Errorf("failed to run analyzer %s: %w", p.Bin, err)
	}
	return parseAnalysis(out)
}

// analysisDoc is the analyzer's JSON wire format.
type analysisDoc struct {
	SampleRate    int         `json:"sample_rate"`
	Duration      float64     `json:"duration_sec"`
	MelTotal      [][]float64 `json:"mel_total"`
	MelPercussive [][]float64 `json:"mel_percussive"`
	MelHarmonic   [][]float64 `json:"mel_harmonic"`
	Chroma        [][]float64 `json:"chroma"`
	BinFreqs      []float64   `json:"bin_freqs"`
	Times         []float64   `json:"times"`
	TempoBPM      float64     `json:"tempo_bpm"`
	BeatTimes     []float64   `json:"beat_times"`
}

// parseAnalysis decodes analyzer JSON and rejects shape-inconsistent output
// before it can reach any computation.
func parseAnalysis(data []byte) (*Result, error) {
	var doc analysisDoc
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("failed to parse analyzer output: %w", err)
	}

	input := &engine.SpectralInput{
		MelTotal:      doc.MelTotal,
		MelPercussive: doc.MelPercussive,
		MelHarmonic:   doc.MelHarmonic,
		Chroma:        doc.Chroma,
		BinFreqs:      doc.BinFreqs,
		Times:         doc.Times,
	}
	if err := input.Validate(); err != nil {
		return nil, fmt.Errorf("analyzer output rejected: %w", err)
	}

	return &Result{
		Input:      input,
		SampleRate: doc.SampleRate,
		Duration:   doc.Duration,
		TempoBPM:   doc.TempoBPM,
		BeatTimes:  doc.BeatTimes,
	}, nil
}
