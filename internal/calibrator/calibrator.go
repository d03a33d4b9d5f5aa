// Package calibrator implements the 1 Hz-resolution tone calibration
// sweep used by every FSK-family variant to pick transmit frequencies
// that land cleanly in their intended FFT bin.
package calibrator

import (
	"math"

	"github.com/danieltabor/audiomodem-go/internal/analyzer"
	"github.com/danieltabor/audiomodem-go/internal/modemerr"
)

// Calibrate scans each of the N bins implied by bandwidth/len(freqs) at
// 1 Hz resolution, writes the frequency that maximised that bin's
// magnitude into freqs, and sets src's absolute detection threshold to
// percentThresh times the smallest per-bin maximum observed. src must
// not yet have a threshold configured that callers rely on, since
// Calibrate overwrites it. samplerate/bandwidth describe the channel
// src was constructed against.
func Calibrate(freqs []float64, src *analyzer.SrcFft, samplerate, bandwidth int, percentThresh float64) error {
	if len(freqs) == 0 {
		return modemerr.Configf("calibrator requires at least one target bin")
	}
	if bandwidth < 2 {
		return modemerr.Configf("bandwidth %d too small to calibrate", bandwidth)
	}

	n := len(freqs)
	freqStep := float64(bandwidth) / float64(n)
	minOfMaxima := -1.0

	samples := make([]float64, src.InputBlock())

	for bin := 0; bin < n; bin++ {
		minFreq := float64(bin)*freqStep + 1
		maxFreq := float64(bin+1)*freqStep - 1

		bestMag := 0.0
		bestFreq := 0.0

		for f := minFreq; f <= maxFreq; f++ {
			src.Reset()
			if err := sweepOnce(src, samples, f, float64(samplerate), percentThresh); err != nil {
				return err
			}
			frame := src.Frame()
			if frame.MaxBin != bin {
				continue
			}
			if frame.MaxMag > bestMag {
				bestMag = frame.MaxMag
				bestFreq = f
			}
		}

		if bestFreq == 0 {
			return modemerr.Calibrationf("no frequency in [%.1f,%.1f] Hz produced a peak in bin %d", minFreq, maxFreq, bin)
		}

		freqs[bin] = bestFreq
		if minOfMaxima < 0 || bestMag < minOfMaxima {
			minOfMaxima = bestMag
		}
	}

	if err := src.SetThresh(percentThresh * minOfMaxima); err != nil {
		return err
	}
	src.Reset()
	return nil
}

// sweepOnce pushes synthesized sine samples at frequency f (amplitude
// percentThresh) through src until exactly one frame is produced.
func sweepOnce(src *analyzer.SrcFft, samples []float64, f, samplerate, amplitude float64) error {
	ii := 0.0
	for {
		for k := range samples {
			samples[k] = amplitude * math.Sin(2*math.Pi*f*ii/samplerate)
			ii++
		}
		status, err := src.Process(samples)
		if err != nil {
			return err
		}
		if status == analyzer.Result {
			return nil
		}
	}
}
