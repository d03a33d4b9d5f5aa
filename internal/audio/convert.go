package audio

import "math"

// SamplesToFloat32 converts DSP-domain float64 samples to PortAudio's
// float32 buffer format.
func SamplesToFloat32(samples []float64) []float32 {
	out := make([]float32, len(samples))
	for i, s := range samples {
		out[i] = float32(s)
	}
	return out
}

// Float32ToSamples converts a PortAudio float32 buffer back to the
// float64 samples the DSP packages operate on.
func Float32ToSamples(samples []float32) []float64 {
	out := make([]float64, len(samples))
	for i, s := range samples {
		out[i] = float64(s)
	}
	return out
}

// ApplyDCRemoval subtracts the mean of samples from each sample, removing any
// DC bias a cheap microphone input tends to introduce.
func ApplyDCRemoval(samples []float64) []float64 {
	if len(samples) == 0 {
		return samples
	}
	sum := 0.0
	for _, s := range samples {
		sum += s
	}
	mean := sum / float64(len(samples))
	out := make([]float64, len(samples))
	for i, s := range samples {
		out[i] = s - mean
	}
	return out
}

// ApplyAGC scales samples so their peak magnitude matches targetPeak,
// leaving silence untouched.
func ApplyAGC(samples []float64, targetPeak float64) []float64 {
	peak := 0.0
	for _, s := range samples {
		if a := math.Abs(s); a > peak {
			peak = a
		}
	}
	if peak == 0 {
		return samples
	}
	gain := targetPeak / peak
	out := make([]float64, len(samples))
	for i, s := range samples {
		out[i] = s * gain
	}
	return out
}
