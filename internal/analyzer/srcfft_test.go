package analyzer

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func toneSamples(freq float64, samplerate, n int, amp float64) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = amp * math.Sin(2*math.Pi*freq*float64(i)/float64(samplerate))
	}
	return out
}

func drainToFirstResult(t *testing.T, s *SrcFft, samples []float64) Frame {
	t.Helper()
	status, err := s.Process(samples)
	require.NoError(t, err)
	require.Equal(t, Result, status, "expected a frame from a single full block of samples")
	return s.Frame()
}

func TestSrcFftConstructionRejectsExcessiveBandwidth(t *testing.T) {
	_, err := New(8000, 256, 5000, 0)
	require.Error(t, err)
}

func TestSrcFftToneLandsInExpectedBin(t *testing.T) {
	const samplerate = 8000
	const inputBlock = 256
	const bandwidth = 3000
	const bins = 8

	s, err := New(samplerate, inputBlock, bandwidth, bins)
	require.NoError(t, err)

	freq := 1000.0
	samples := toneSamples(freq, samplerate, inputBlock*4, 1.0)
	frame := drainToFirstResult(t, s, samples)

	expectedBin := int(freq/float64(bandwidth)*float64(bins)) % bins
	assert.Equal(t, expectedBin, frame.MaxBin)
	assert.GreaterOrEqual(t, frame.MaxMag, frame.AvgMag)
}

func TestSrcFftDeterministicAcrossBlockSplits(t *testing.T) {
	const samplerate = 8000
	const inputBlock = 256
	const bandwidth = 3000
	const bins = 8

	samples := toneSamples(1200, samplerate, inputBlock*6, 0.8)

	collect := func(chunkSize int) []Frame {
		s, err := New(samplerate, inputBlock, bandwidth, bins)
		require.NoError(t, err)
		var frames []Frame
		off := 0
		for off < len(samples) {
			end := off + chunkSize
			if end > len(samples) {
				end = len(samples)
			}
			for {
				status, err := s.Process(samples[off:end])
				require.NoError(t, err)
				off += s.UsedSamples()
				if status == Result {
					frames = append(frames, s.Frame())
					continue
				}
				break
			}
			off = end
		}
		return frames
	}

	whole := collect(len(samples))
	split := collect(17)

	require.Equal(t, len(whole), len(split))
	for i := range whole {
		assert.InDeltaSlice(t, whole[i].Mag, split[i].Mag, 1e-9)
		assert.Equal(t, whole[i].MaxBin, split[i].MaxBin)
	}
}

func TestSrcFftDetectNormalizedThreshold(t *testing.T) {
	s, err := New(8000, 256, 3000, 8)
	require.NoError(t, err)
	require.NoError(t, s.SetNormThresh(0.5))

	samples := toneSamples(1000, 8000, 256*4, 1.0)
	frame := drainToFirstResult(t, s, samples)
	assert.Contains(t, frame.Detect, frame.MaxBin)
}

func TestSrcFftResetClearsState(t *testing.T) {
	s, err := New(8000, 256, 3000, 8)
	require.NoError(t, err)
	_, err = s.Process(toneSamples(1000, 8000, 100, 1.0))
	require.NoError(t, err)
	s.Reset()
	status, err := s.Process(toneSamples(1000, 8000, 256*4, 1.0))
	require.NoError(t, err)
	assert.Equal(t, Result, status)
}
