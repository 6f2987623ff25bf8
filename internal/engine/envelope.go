package engine

import "gonum.org/v1/gonum/floats"

// OnsetEnvelope converts a band energy series into a normalized onset
// strength envelope: first difference (with d[0]=0), half-wave rectify,
// centered moving average of the given window, then peak normalization.
// Output length equals input length and values lie in [0, 1]; an all-zero
// input yields an all-zero envelope.
func OnsetEnvelope(x []float64, window int, eps float64) []float64 {
	d := make([]float64, len(x))
	for i := 1; i < len(x); i++ {
		if dx := x[i] - x[i-1]; dx > 0 {
			d[i] = dx
		}
	}
	return normalizePeak(smoothSame(d, window), eps)
}

// Level converts a band energy series into a normalized sustained level:
// centered moving average then peak normalization, with no differencing.
// Same length and range guarantees as OnsetEnvelope.
func Level(x []float64, window int, eps float64) []float64 {
	return normalizePeak(smoothSame(x, window), eps)
}

// smoothSame applies a centered moving average of the given window size.
// Edge windows are clipped to valid indices and averaged over the samples
// actually present, so output length always equals input length. A window
// of 1 or less is a no-op. Always returns a fresh slice.
func smoothSame(x []float64, window int) []float64 {
	out := make([]float64, len(x))
	if window <= 1 {
		copy(out, x)
		return out
	}
	half := window / 2
	for i := range x {
		lo := i - half
		if lo < 0 {
			lo = 0
		}
		hi := i + half
		if hi > len(x)-1 {
			hi = len(x) - 1
		}
		out[i] = floats.Sum(x[lo:hi+1]) / float64(hi-lo+1)
	}
	return out
}

// normalizePeak divides the series by its maximum, guarding against
// division by zero on silent input with eps. Division per element, not
// multiplication by a reciprocal, so the arg-max frame lands at exactly 1.
// Mutates and returns s, which callers must own.
func normalizePeak(s []float64, eps float64) []float64 {
	if len(s) == 0 {
		return s
	}
	mx := floats.Max(s)
	if mx < eps {
		mx = eps
	}
	for i := range s {
		s[i] /= mx
	}
	return s
}
