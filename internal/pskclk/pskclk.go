package pskclk

import (
	"log"
	"math"

	"github.com/danieltabor/audiomodem-go/internal/analyzer"
	"github.com/danieltabor/audiomodem-go/internal/bitcursor"
	"github.com/danieltabor/audiomodem-go/internal/modemerr"
)

const (
	oversample           = 5
	defaultPercentThresh = 0.75
)

type state int

const (
	stateBaseSearch state = iota
	stateBaseAcquire
	stateBaseDetected
	stateDataSearch
	stateDataAcquire
	stateDataDetected
)

// Modem is a PSK-with-clock demodulator/modulator: each symbol period
// is a reference half-symbol at phase 0 followed by a data half-symbol
// phase-shifted by 2*pi*sym/symbolCount, both at the same frequency.
type Modem struct {
	samplerate, bitrate, bandwidth int
	bitsPerSymbol, symbolCount     int
	freq                           float64
	sampPerSym, halfSamp           int
	fftInputBlock                  int
	fcBin                          int

	src *analyzer.SrcFft

	state         state
	elapsed       int
	syncLoss      int
	angBase       float64
	angData       float64
	haveCandidate bool
	candidateAng  float64
	accum         symbolAccumulator

	verbose bool
	logger  *log.Logger
}

// New constructs a PSK-clk modem. symbolCount is rounded up to the next
// power of two.
func New(samplerate, bitrate, bandwidth, symbolCount int, freq float64) (*Modem, error) {
	if err := checkSamplerate(samplerate, bandwidth); err != nil {
		return nil, err
	}
	if symbolCount < 2 {
		return nil, modemerr.Configf("symbol count must be >= 2, got %d", symbolCount)
	}
	if freq <= 0 || freq >= float64(samplerate)/2 {
		return nil, modemerr.Configf("carrier frequency %v out of range", freq)
	}

	k := bitsPerSymbol(symbolCount)
	n := 1 << uint(k)

	symFreq := float64(bitrate) / float64(k)
	sampPerSym := int(math.Round(float64(samplerate) / symFreq))
	halfSamp := sampPerSym / 2
	if halfSamp < oversample {
		return nil, modemerr.Configf("half-symbol length %d too small for oversample %d", halfSamp, oversample)
	}

	// The FFT input block is the smallest whole number of carrier
	// wavelengths for which fewer than oversample blocks fit in a
	// half-symbol, so every block starts at the same carrier phase.
	wavelength := float64(samplerate) / freq
	cycles := 1
	for float64(halfSamp) >= float64(oversample*cycles)*wavelength {
		cycles++
	}
	fftInputBlock := int(math.Round(float64(cycles) * wavelength))
	if fftInputBlock < 1 {
		fftInputBlock = 1
	}

	// 0 bins: the analyzer reports its finest grouping (half its FFT size).
	src, err := analyzer.New(samplerate, fftInputBlock, bandwidth, 0)
	if err != nil {
		return nil, err
	}

	bins := src.OutputBins()
	fcBin := int(freq * float64(bins) / float64(bandwidth))
	if fcBin >= bins {
		fcBin = bins - 1
	}

	m := &Modem{
		samplerate: samplerate, bitrate: bitrate, bandwidth: bandwidth,
		bitsPerSymbol: k, symbolCount: n, freq: freq,
		sampPerSym: sampPerSym, halfSamp: halfSamp, fftInputBlock: fftInputBlock,
		fcBin: fcBin, src: src, state: stateBaseSearch,
		logger: log.Default(),
	}
	if err := m.SetThreshold(defaultPercentThresh); err != nil {
		return nil, err
	}
	return m, nil
}

func (m *Modem) SetVerbose(v bool) { m.verbose = v }

// SetThreshold synthesizes a pure carrier tone and sets the absolute
// detection threshold to p times the resulting peak magnitude.
func (m *Modem) SetThreshold(p float64) error {
	m.src.Reset()
	samples := make([]float64, m.src.InputBlock())
	ii := 0.0
	var frame analyzer.Frame
	for {
		for k := range samples {
			samples[k] = math.Sin(2 * math.Pi * m.freq * ii / float64(m.samplerate))
			ii++
		}
		status, err := m.src.Process(samples)
		if err != nil {
			return err
		}
		if status == analyzer.Result {
			frame = m.src.Frame()
			break
		}
	}
	if err := m.src.SetThresh(p * frame.Mag[m.fcBin]); err != nil {
		return err
	}
	m.src.Reset()
	return nil
}

// Modulate synthesizes data as alternating reference/data half-symbols
// at a constant carrier frequency with a continuously accumulated phase.
func (m *Modem) Modulate(data []byte) ([]float64, error) {
	totalBits := len(data) * 8
	numSymbols := (totalBits + m.bitsPerSymbol - 1) / m.bitsPerSymbol
	out := make([]float64, 0, numSymbols*m.sampPerSym)

	ii := 0
	for s := 0; s < numSymbols; s++ {
		for j := 0; j < m.halfSamp; j++ {
			out = append(out, math.Sin(2*math.Pi*m.freq*float64(ii)/float64(m.samplerate)))
			ii++
		}
		sym := bitcursor.Get(data, s*m.bitsPerSymbol, m.bitsPerSymbol)
		phase := 2 * math.Pi * float64(sym) / float64(m.symbolCount)
		for j := 0; j < m.halfSamp; j++ {
			out = append(out, math.Sin(2*math.Pi*m.freq*float64(ii)/float64(m.samplerate)+phase))
			ii++
		}
	}
	return out, nil
}

func (m *Modem) Demodulate(samples []float64) ([]byte, error) {
	for len(samples) > 0 {
		status, err := m.src.Process(samples)
		if err != nil {
			if m.verbose {
				m.logger.Printf("pskclk: analyzer error: %v", err)
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

func (m *Modem) toneDetected(frame analyzer.Frame) bool {
	for _, d := range frame.Detect {
		if d == m.fcBin {
			return true
		}
	}
	return false
}

// angTol is the maximum phase drift tolerated between consecutive
// strong-phase frames before it is no longer the same half-symbol:
// 2*pi/N, one symbol-constellation step.
func (m *Modem) angTol() float64 {
	return 2 * math.Pi / float64(m.symbolCount)
}

// angDelta returns the minimal absolute angular distance between a and
// b, wrapped into [0, pi].
func angDelta(a, b float64) float64 {
	d := a - b
	for d < -math.Pi {
		d += 2 * math.Pi
	}
	for d > math.Pi {
		d -= 2 * math.Pi
	}
	if d < 0 {
		d = -d
	}
	return d
}

func (m *Modem) stepFrame(frame analyzer.Frame) {
	detected := m.toneDetected(frame)
	ang := frame.Ang[m.fcBin]

	if detected {
		m.syncLoss = 0
	}

	switch m.state {
	case stateBaseSearch:
		if detected {
			m.haveCandidate = false
			m.state = stateBaseAcquire
		}
	case stateBaseAcquire:
		if !detected {
			m.haveCandidate = false
			m.state = stateBaseSearch
			return
		}
		if m.haveCandidate && angDelta(ang, m.candidateAng) <= m.angTol() {
			m.angBase = ang
			m.elapsed = 0
			m.haveCandidate = false
			m.state = stateBaseDetected
		} else {
			m.candidateAng = ang
			m.haveCandidate = true
		}
	case stateBaseDetected:
		if !detected {
			m.bumpSyncLoss()
			return
		}
		if angDelta(ang, m.angBase) > m.angTol() {
			// Angle jumped mid-half-symbol: treat it as an early
			// transition straight into the data half, using this
			// frame as its first confirmed sample.
			m.angData = ang
			m.elapsed = 0
			m.state = stateDataDetected
			return
		}
		m.angBase = ang
		m.elapsed += m.fftInputBlock
		if m.elapsed >= m.halfSamp {
			m.elapsed = 0
			m.state = stateDataSearch
		}
	case stateDataSearch:
		if detected {
			m.haveCandidate = false
			m.state = stateDataAcquire
		} else {
			m.bumpSyncLoss()
		}
	case stateDataAcquire:
		if !detected {
			m.bumpSyncLoss()
			return
		}
		if m.haveCandidate && angDelta(ang, m.candidateAng) <= m.angTol() {
			m.angData = ang
			m.elapsed = 0
			m.haveCandidate = false
			m.state = stateDataDetected
		} else {
			m.candidateAng = ang
			m.haveCandidate = true
		}
	case stateDataDetected:
		if !detected {
			m.bumpSyncLoss()
			return
		}
		if angDelta(ang, m.angData) > m.angTol() {
			// Angle jumped mid-half-symbol: the current half-symbol's
			// data phase is already known, so emit it now and treat
			// this frame as the first confirmed sample of the next
			// symbol's base half.
			m.emitSymbol()
			m.angBase = ang
			m.elapsed = 0
			m.state = stateBaseDetected
			return
		}
		m.angData = ang
		m.elapsed += m.fftInputBlock
		if m.elapsed >= m.halfSamp {
			m.emitSymbol()
			m.elapsed = 0
			m.state = stateBaseAcquire
		}
	}
}

func (m *Modem) emitSymbol() {
	diff := m.angData - m.angBase
	for diff < 0 {
		diff += 2 * math.Pi
	}
	for diff >= 2*math.Pi {
		diff -= 2 * math.Pi
	}
	step := 2 * math.Pi / float64(m.symbolCount)
	sym := int(math.Round(diff/step)) % m.symbolCount
	m.accum.push(sym, m.bitsPerSymbol)
}

func (m *Modem) bumpSyncLoss() {
	m.syncLoss += m.fftInputBlock
	if m.syncLoss >= m.sampPerSym {
		m.state = stateBaseSearch
		m.elapsed = 0
		m.syncLoss = 0
	}
}
