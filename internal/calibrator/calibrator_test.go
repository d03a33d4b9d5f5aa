package calibrator

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/danieltabor/audiomodem-go/internal/analyzer"
)

func TestCalibrateProducesWorkingBins(t *testing.T) {
	const samplerate = 8000
	const inputBlock = 256
	const bandwidth = 3000
	const bins = 4
	const percentThresh = 0.9

	src, err := analyzer.New(samplerate, inputBlock, bandwidth, bins)
	require.NoError(t, err)

	freqs := make([]float64, bins)
	require.NoError(t, Calibrate(freqs, src, samplerate, bandwidth, percentThresh))

	for b, f := range freqs {
		assert.Greater(t, f, 0.0)

		src.Reset()
		samples := make([]float64, inputBlock)
		ii := 0.0
		var frame analyzer.Frame
		for {
			for k := range samples {
				samples[k] = math.Sin(2*math.Pi*f*ii/samplerate)
				ii++
			}
			status, err := src.Process(samples)
			require.NoError(t, err)
			if status == analyzer.Result {
				frame = src.Frame()
				break
			}
		}
		assert.Equal(t, b, frame.MaxBin, "calibrated frequency %v for bin %d should peak in that bin", f, b)
	}
}
