// Package analyzer implements SrcFft, the sample-rate-converting FFT
// analyzer shared by every frequency-domain demodulator: it turns a
// stream of PCM samples into a sequence of reduced-bin spectral frames.
package analyzer

import (
	"math"
	"math/cmplx"

	"gonum.org/v1/gonum/dsp/fourier"

	"github.com/danieltabor/audiomodem-go/internal/modemerr"
)

// Status is the outcome of one Process call.
type Status int

const (
	// NeedMore means the caller should supply more samples before a
	// frame becomes available.
	NeedMore Status = iota
	// Result means Frame() now holds a freshly produced spectral frame.
	Result
	// Error means the resampler or FFT failed; the analyzer has reset
	// itself and is usable again on the next call.
	Error
)

// ThresholdMode selects which field of a Frame feeds the detect set.
type ThresholdMode int

const (
	ThresholdNone ThresholdMode = iota
	ThresholdAbsolute
	ThresholdNormalized
)

// Frame is one reduced-bin spectral observation.
type Frame struct {
	Mag, Norm, Ang         []float64
	MaxBin, MinBin         int
	MaxMag, MinMag, AvgMag float64
	Detect                 []int
}

// SrcFft is a stateful resampler + real FFT + bin-reduction pipeline.
// Zero value is not usable; construct with New.
type SrcFft struct {
	inputSampleRate int
	inputBlock      int
	outputBandwidth int
	outputBins      int
	ratio           float64
	fftSize         int

	resampler *sincResampler
	fft       *fourier.FFT

	inRing        []float64
	resampleQueue []float64
	syncSkip      int

	thresholdMode ThresholdMode
	absThresh     float64
	normThresh    float64

	usedSamples int
	lastFrame   Frame
}

// New constructs an analyzer. inputSamplerate/inputBlock describe the
// incoming PCM stream; outputBandwidth is the one-sided bandwidth of
// interest; outputBins is the number of reduced bins to report (0
// defaults to half the derived FFT size).
func New(inputSampleRate, inputBlock, outputBandwidth, outputBins int) (*SrcFft, error) {
	if inputSampleRate <= 0 || inputBlock <= 0 {
		return nil, modemerr.Configf("sample rate and input block must be positive")
	}
	if outputBandwidth > inputSampleRate/2 {
		return nil, modemerr.Configf("output bandwidth %d exceeds Nyquist of sample rate %d", outputBandwidth, inputSampleRate)
	}
	ratio := float64(2*outputBandwidth) / float64(inputSampleRate)
	fftSize := int(math.Round(float64(inputBlock) * ratio))
	if fftSize < 2 {
		return nil, modemerr.Configf("derived FFT size %d is too small", fftSize)
	}
	if outputBins == 0 {
		outputBins = fftSize / 2
	}
	if fftSize < 2*outputBins {
		return nil, modemerr.Configf("FFT size %d too coarse for %d output bins", fftSize, outputBins)
	}

	return &SrcFft{
		inputSampleRate: inputSampleRate,
		inputBlock:      inputBlock,
		outputBandwidth: outputBandwidth,
		outputBins:      outputBins,
		ratio:           ratio,
		fftSize:         fftSize,
		resampler:       newSincResampler(),
		fft:             fourier.NewFFT(fftSize),
	}, nil
}

// FFTSize reports the derived FFT block length F.
func (s *SrcFft) FFTSize() int { return s.fftSize }

// InputBlock reports the raw-PCM chunk size the analyzer accumulates
// before running one resample pass.
func (s *SrcFft) InputBlock() int { return s.inputBlock }

// OutputBins reports the configured (or defaulted) number of reduced bins.
func (s *SrcFft) OutputBins() int { return s.outputBins }

// UsedSamples reports how many of the caller's samples were consumed on
// the most recent Process call.
func (s *SrcFft) UsedSamples() int { return s.usedSamples }

// Frame returns the most recently produced spectral frame. Only valid
// after Process returns Result.
func (s *SrcFft) Frame() Frame { return s.lastFrame }

// SetThresh selects absolute-magnitude detection at threshold t.
func (s *SrcFft) SetThresh(t float64) error {
	s.thresholdMode = ThresholdAbsolute
	s.absThresh = t
	return nil
}

// SetNormThresh selects normalized-magnitude detection at threshold
// t in [0,1].
func (s *SrcFft) SetNormThresh(t float64) error {
	if t < 0 || t > 1 {
		return modemerr.Configf("normalized threshold %v out of [0,1]", t)
	}
	s.thresholdMode = ThresholdNormalized
	s.normThresh = t
	return nil
}

// Reset clears all internal buffers and resampler state.
func (s *SrcFft) Reset() {
	s.inRing = s.inRing[:0]
	s.resampleQueue = s.resampleQueue[:0]
	s.syncSkip = 0
	s.resampler.reset()
}

// Sync schedules skipSamples worth of input-rate samples (converted to
// the resampled rate) to be discarded before the next FFT window, so
// frame-synchronised demodulators can realign their window.
func (s *SrcFft) Sync(skipSamples int) {
	s.syncSkip += int(math.Round(float64(skipSamples) * s.ratio))
}

// Process feeds samples through the analyzer. It may consume fewer than
// len(samples) when a frame completes early; check UsedSamples.
func (s *SrcFft) Process(samples []float64) (Status, error) {
	consumed := 0
	for consumed < len(samples) {
		need := s.inputBlock - len(s.inRing)
		take := need
		if take > len(samples)-consumed {
			take = len(samples) - consumed
		}
		s.inRing = append(s.inRing, samples[consumed:consumed+take]...)
		consumed += take
		if len(s.inRing) < s.inputBlock {
			break
		}

		chunk := s.resampler.process(s.inRing, s.fftSize)
		s.inRing = s.inRing[:0]

		if s.syncSkip > 0 {
			skip := s.syncSkip
			if skip > len(chunk) {
				skip = len(chunk)
			}
			chunk = chunk[skip:]
			s.syncSkip -= skip
		}
		s.resampleQueue = append(s.resampleQueue, chunk...)

		if len(s.resampleQueue) >= s.fftSize {
			window := s.resampleQueue[:s.fftSize]
			remainder := append([]float64(nil), s.resampleQueue[s.fftSize:]...)
			s.resampleQueue = remainder
			s.usedSamples = consumed

			frame, err := s.analyze(window)
			if err != nil {
				s.Reset()
				return Error, err
			}
			s.lastFrame = frame
			return Result, nil
		}
	}
	s.usedSamples = consumed
	return NeedMore, nil
}

func (s *SrcFft) analyze(window []float64) (Frame, error) {
	coeffs := s.fft.Coefficients(nil, window)
	useful := s.fftSize / 2

	magSum := make([]float64, s.outputBins)
	cplxSum := make([]complex128, s.outputBins)
	for i := 0; i < useful; i++ {
		bin := i * s.outputBins / useful
		c := coeffs[i]
		magSum[bin] += cmplx.Abs(c)
		cplxSum[bin] += c
	}

	ang := make([]float64, s.outputBins)
	for b := range ang {
		a := cmplx.Phase(cplxSum[b])
		if a < 0 {
			a += 2 * math.Pi
		}
		ang[b] = a
	}

	maxbin, minbin := 0, 0
	maxmag, minmag := magSum[0], magSum[0]
	sum := 0.0
	for i, m := range magSum {
		if math.IsNaN(m) || math.IsInf(m, 0) {
			return Frame{}, modemerr.Framef("magnitude bin %d is NaN/Inf", i)
		}
		if math.IsNaN(ang[i]) || math.IsInf(ang[i], 0) {
			return Frame{}, modemerr.Framef("angle bin %d is NaN/Inf", i)
		}
		if m > maxmag {
			maxmag = m
			maxbin = i
		}
		if m < minmag {
			minmag = m
			minbin = i
		}
		sum += m
	}
	avgmag := sum / float64(len(magSum))

	norm := make([]float64, len(magSum))
	if maxmag > 0 {
		for i, m := range magSum {
			norm[i] = m / maxmag
		}
	}

	var detect []int
	switch s.thresholdMode {
	case ThresholdAbsolute:
		for i, m := range magSum {
			if m >= s.absThresh {
				detect = append(detect, i)
			}
		}
	case ThresholdNormalized:
		for i, n := range norm {
			if n >= s.normThresh {
				detect = append(detect, i)
			}
		}
	}

	return Frame{
		Mag: magSum, Norm: norm, Ang: ang,
		MaxBin: maxbin, MinBin: minbin,
		MaxMag: maxmag, MinMag: minmag, AvgMag: avgmag,
		Detect: detect,
	}, nil
}
