package fsk

import (
	"log"
	"math"

	"github.com/danieltabor/audiomodem-go/internal/analyzer"
	"github.com/danieltabor/audiomodem-go/internal/bitcursor"
	"github.com/danieltabor/audiomodem-go/internal/calibrator"
	"github.com/danieltabor/audiomodem-go/internal/modemerr"
)

const fskOversample = 4

type demodState int

const (
	stateSearch demodState = iota
	stateAcquire
	stateDetected
)

// Modem is a plain frequency-shift-keying variant: one of N tones per
// symbol, no embedded clock.
type Modem struct {
	samplerate, bitrate, bandwidth int
	bitsPerSymbol, symbolCount     int
	sampPerSym                     int
	toneFreqs                      []float64

	src *analyzer.SrcFft

	state       demodState
	dataBin     int
	emptyStreak int
	skip        int
	accum       symbolAccumulator

	verbose bool
	logger  *log.Logger
}

// New constructs an FSK modem. symbolCount is rounded up to the next
// power of two.
func New(samplerate, bitrate, bandwidth, symbolCount int) (*Modem, error) {
	if err := checkSamplerate(samplerate, bandwidth); err != nil {
		return nil, err
	}
	if symbolCount < 2 {
		return nil, modemerr.Configf("symbol count must be >= 2, got %d", symbolCount)
	}

	k := bitsPerSymbol(symbolCount)
	n := 1 << uint(k)

	symFreq := float64(bitrate) / float64(k)
	sampPerSym := int(math.Round(float64(samplerate) / symFreq))
	if sampPerSym < 4 {
		return nil, modemerr.Configf("samples per symbol %d too small for bitrate %d at samplerate %d", sampPerSym, bitrate, samplerate)
	}

	fftInputBlock := sampPerSym / fskOversample
	if fftInputBlock < 1 {
		fftInputBlock = 1
	}

	src, err := analyzer.New(samplerate, fftInputBlock, bandwidth, n)
	if err != nil {
		return nil, err
	}

	freqs := make([]float64, n)
	if err := calibrator.Calibrate(freqs, src, samplerate, bandwidth, defaultPercentThresh); err != nil {
		return nil, err
	}

	return &Modem{
		samplerate: samplerate, bitrate: bitrate, bandwidth: bandwidth,
		bitsPerSymbol: k, symbolCount: n, sampPerSym: sampPerSym,
		toneFreqs: freqs, src: src, state: stateSearch,
		logger: log.Default(),
	}, nil
}

func (m *Modem) SetVerbose(v bool) { m.verbose = v }

// SetThreshold re-derives the SrcFft absolute detection threshold as
// thresh times the weakest calibrated bin's magnitude, by recalibrating.
func (m *Modem) SetThreshold(thresh float64) error {
	return calibrator.Calibrate(m.toneFreqs, m.src, m.samplerate, m.bandwidth, thresh)
}

// Modulate synthesizes data as a continuous FSK tone sequence.
func (m *Modem) Modulate(data []byte) ([]float64, error) {
	totalBits := len(data) * 8
	symbolCount := (totalBits + m.bitsPerSymbol - 1) / m.bitsPerSymbol
	out := make([]float64, 0, symbolCount*m.sampPerSym)

	ii := 0
	for s := 0; s < symbolCount; s++ {
		sym := bitcursor.Get(data, s*m.bitsPerSymbol, m.bitsPerSymbol)
		freq := m.toneFreqs[sym]
		for j := 0; j < m.sampPerSym; j++ {
			out = append(out, math.Sin(2*math.Pi*freq*float64(ii)/float64(m.samplerate)))
			ii++
		}
	}
	return out, nil
}

// Demodulate feeds samples through the shared analyzer and the FSK
// state machine, returning any bytes completed during this call.
func (m *Modem) Demodulate(samples []float64) ([]byte, error) {
	for len(samples) > 0 {
		status, err := m.src.Process(samples)
		if err != nil {
			if m.verbose {
				m.logger.Printf("fsk: analyzer error: %v", err)
			}
			return nil, err
		}
		samples = samples[m.src.UsedSamples():]
		if status == analyzer.NeedMore {
			break
		}
		m.stepFrame(m.src.Frame())
	}
	return m.accum.drain(), nil
}

func (m *Modem) stepFrame(frame analyzer.Frame) {
	detected := len(frame.Detect) > 0

	switch m.state {
	case stateSearch:
		if detected {
			m.dataBin = frame.MaxBin
			m.state = stateAcquire
			m.emptyStreak = 0
		}
	case stateAcquire:
		if detected {
			m.emptyStreak = 0
			if frame.MaxBin == m.dataBin {
				m.accum.push(m.dataBin, m.bitsPerSymbol)
				m.skip = fskOversample - 2
				m.state = stateDetected
			} else {
				m.dataBin = frame.MaxBin
			}
		} else {
			m.emptyStreak++
			if m.emptyStreak >= fskOversample {
				m.state = stateSearch
				m.emptyStreak = 0
			}
		}
	case stateDetected:
		if detected && frame.MaxBin != m.dataBin {
			m.dataBin = frame.MaxBin
			m.state = stateAcquire
			m.skip = 0
			m.emptyStreak = 0
			return
		}
		if !detected {
			m.emptyStreak++
			if m.emptyStreak >= fskOversample {
				m.state = stateSearch
				m.emptyStreak = 0
				return
			}
		} else {
			m.emptyStreak = 0
		}
		if m.skip > 0 {
			m.skip--
		}
		if m.skip == 0 {
			m.state = stateAcquire
		}
	}
}
