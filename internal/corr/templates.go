package corr

import "math"

// FskTemplates builds one sine-wave template per frequency in freqs,
// each symLen samples long, starting from a common phase origin.
func FskTemplates(freqs []float64, samplerate, symLen int) [][]float64 {
	out := make([][]float64, len(freqs))
	for k, f := range freqs {
		t := make([]float64, symLen)
		for i := range t {
			t[i] = math.Sin(2 * math.Pi * f * float64(i) / float64(samplerate))
		}
		out[k] = t
	}
	return out
}

// PskTemplates builds angCount phase-shifted sine templates at a single
// frequency, phase_k = 2*pi*k/angCount.
func PskTemplates(freq float64, angCount, samplerate, symLen int) [][]float64 {
	out := make([][]float64, angCount)
	for k := 0; k < angCount; k++ {
		phase := 2 * math.Pi * float64(k) / float64(angCount)
		t := make([]float64, symLen)
		for i := range t {
			t[i] = math.Sin(2*math.Pi*freq*float64(i)/float64(samplerate) + phase)
		}
		out[k] = t
	}
	return out
}

// FpskTemplates builds the cross product of len(freqs) tones and
// angCount phases: symbol index sym splits as tone = sym/angCount,
// ang = sym%angCount.
func FpskTemplates(freqs []float64, angCount, samplerate, symLen int) [][]float64 {
	toneCount := len(freqs)
	out := make([][]float64, toneCount*angCount)
	for tone, f := range freqs {
		for ang := 0; ang < angCount; ang++ {
			phase := 2 * math.Pi * float64(ang) / float64(angCount)
			t := make([]float64, symLen)
			for i := range t {
				t[i] = math.Sin(2*math.Pi*f*float64(i)/float64(samplerate) + phase)
			}
			out[tone*angCount+ang] = t
		}
	}
	return out
}
