// Package engine turns a precomputed time-frequency representation of a
// recording into the per-band envelopes that drive the visualizer and a
// musical key estimate for the analysis report.
//
// Every operation is a pure function over immutable input arrays: the engine
// holds no state, performs no I/O, and is safe to run concurrently on
// independent inputs without coordination. Malformed input fails
// synchronously with a *ShapeError; silent input produces well-defined zero
// or neutral outputs rather than an error.
package engine

import (
	"math"
	"sort"
)

// DefaultEpsilon guards peak and norm divisions against all-silent input.
const DefaultEpsilon = 1e-9

// EnvelopeMode selects how a band's energy series becomes an envelope.
type EnvelopeMode int

const (
	// ModeOnset tracks transient attacks via rectified differences.
	ModeOnset EnvelopeMode = iota
	// ModeLevel tracks sustained energy with smoothing only.
	ModeLevel
)

// BandConfig describes one visual component: its frequency band, how its
// envelope is derived, and the smoothing window in frames.
type BandConfig struct {
	Band   FrequencyBand
	Mode   EnvelopeMode
	Window int
}

// Config carries all engine tuning as an explicit value so concurrent
// analyses can use different parameters safely. There is no package-level
// mutable configuration.
type Config struct {
	Kick    BandConfig
	Snare   BandConfig
	HiHat   BandConfig
	Bass    BandConfig
	Vocals  BandConfig
	Epsilon float64
}

// DefaultConfig returns the band layout and smoothing windows used by the
// visualizer: kick from low-frequency total energy, snare and hihat from the
// percussive split, bass and vocal presence as sustained levels. The hihat
// band is open-ended at the top so it reaches whatever the analyzer's
// frequency ceiling is.
func DefaultConfig() Config {
	return Config{
		Kick: BandConfig{
			Band:   FrequencyBand{LowHz: 20, HighHz: 150, Source: SourceTotal},
			Mode:   ModeOnset,
			Window: 7,
		},
		Snare: BandConfig{
			Band:   FrequencyBand{LowHz: 150, HighHz: 2500, Source: SourcePercussive},
			Mode:   ModeOnset,
			Window: 7,
		},
		HiHat: BandConfig{
			Band:   FrequencyBand{LowHz: 5000, HighHz: math.Inf(1), Source: SourcePercussive},
			Mode:   ModeOnset,
			Window: 7,
		},
		Bass: BandConfig{
			Band:   FrequencyBand{LowHz: 20, HighHz: 150, Source: SourceTotal},
			Mode:   ModeLevel,
			Window: 9,
		},
		Vocals: BandConfig{
			Band:   FrequencyBand{LowHz: 300, HighHz: 3400, Source: SourceHarmonic},
			Mode:   ModeLevel,
			Window: 9,
		},
		Epsilon: DefaultEpsilon,
	}
}

// ComponentNames lists the envelope components in render order.
var ComponentNames = []string{"kick", "snare", "hihat", "bass", "vocals"}

// Components holds the five derived envelopes for one recording, all sharing
// the input's frame-time axis. Values lie in [0, 1]. The struct is computed
// once per recording and read-only afterward.
type Components struct {
	Times  []float64
	Series map[string][]float64
}

// FrameAt returns the index of the nearest frame at or before the given
// elapsed time, clamped to the valid range. An empty axis returns -1.
func (c *Components) FrameAt(elapsed float64) int {
	n := len(c.Times)
	if n == 0 {
		return -1
	}
	// First frame strictly after elapsed, then step back one.
	idx := sort.Search(n, func(i int) bool { return c.Times[i] > elapsed }) - 1
	if idx < 0 {
		idx = 0
	}
	return idx
}

// At looks up a component's value at the given elapsed playback time.
// Unknown components, empty series, and an empty time axis read as zero.
func (c *Components) At(name string, elapsed float64) float64 {
	s, ok := c.Series[name]
	if !ok || len(s) == 0 {
		return 0
	}
	idx := c.FrameAt(elapsed)
	if idx < 0 {
		return 0
	}
	return s[idx]
}

// Analyze validates the spectral input and derives the five component
// envelopes. The per-band computations are independent of each other; they
// run sequentially here because each is a handful of passes over one series.
func Analyze(in *SpectralInput, cfg Config) (*Components, error) {
	if err := in.Validate(); err != nil {
		return nil, err
	}

	eps := cfg.Epsilon
	if eps <= 0 {
		eps = DefaultEpsilon
	}

	bands := map[string]BandConfig{
		"kick":   cfg.Kick,
		"snare":  cfg.Snare,
		"hihat":  cfg.HiHat,
		"bass":   cfg.Bass,
		"vocals": cfg.Vocals,
	}

	series := make(map[string][]float64, len(bands))
	for name, bc := range bands {
		energy, err := BandEnergy(in, bc.Band)
		if err != nil {
			return nil, err
		}
		switch bc.Mode {
		case ModeLevel:
			series[name] = Level(energy, bc.Window, eps)
		default:
			series[name] = OnsetEnvelope(energy, bc.Window, eps)
		}
	}

	return &Components{Times: in.Times, Series: series}, nil
}

// AnalyzeKey validates the chroma matrix and estimates the recording's key
// from its frame-averaged chroma vector.
func AnalyzeKey(in *SpectralInput, cfg Config) (KeyEstimate, error) {
	eps := cfg.Epsilon
	if eps <= 0 {
		eps = DefaultEpsilon
	}
	mean, err := MeanChroma(in.Chroma)
	if err != nil {
		return KeyEstimate{}, err
	}
	return EstimateKey(mean, eps)
}
