// Package ook implements On-Off Keying: a single gated carrier with
// asynchronous idle/start/stop framing, decoded by run-length analysis
// of a captured detect/no-detect window rather than a sample-by-sample
// state machine.
package ook

import (
	"log"
	"math"

	"github.com/danieltabor/audiomodem-go/internal/analyzer"
	"github.com/danieltabor/audiomodem-go/internal/modemerr"
)

const (
	oversample           = 5
	defaultPercentThresh = 0.75
)

type state int

const (
	stateSearch state = iota
	stateIdleAcquire
	stateIdleDetected
	stateStartAcquire
	stateCapture
)

// Modem is an OOK demodulator/modulator pair.
type Modem struct {
	samplerate, bitrate, bandwidth int
	freq                           float64
	sampPerSym                     int
	fcBin                          int

	src *analyzer.SrcFft

	state   state
	capture []bool
	out     []byte

	verbose bool
	logger  *log.Logger
}

// New constructs an OOK modem with carrier frequency freq inside
// (0,samplerate/2).
func New(samplerate, bitrate, bandwidth int, freq float64) (*Modem, error) {
	if samplerate < 2*bandwidth {
		return nil, modemerr.Configf("sample rate %d must be at least twice the bandwidth %d", samplerate, bandwidth)
	}
	if freq <= 0 || freq >= float64(samplerate)/2 {
		return nil, modemerr.Configf("carrier frequency %v out of range", freq)
	}
	sampPerSym := samplerate / bitrate
	if sampPerSym < oversample {
		return nil, modemerr.Configf("samples per symbol %d too small for oversample %d", sampPerSym, oversample)
	}

	fftInputBlock := sampPerSym / oversample
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
		freq: freq, sampPerSym: sampPerSym, fcBin: fcBin,
		src: src, state: stateSearch, logger: log.Default(),
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

// Modulate emits one leading carrier symbol (idle/sync), then per byte:
// a silent start symbol, eight LSB-first data symbols (carrier=0,
// silent=1), and a trailing carrier stop symbol — which doubles as the
// next byte's leading idle symbol.
func (m *Modem) Modulate(data []byte) ([]float64, error) {
	out := make([]float64, 0, (1+len(data)*10)*m.sampPerSym)
	out = m.appendSymbol(out, true)
	for _, b := range data {
		out = m.appendSymbol(out, false)
		for bit := 0; bit < 8; bit++ {
			carrier := (b>>uint(bit))&1 == 0
			out = m.appendSymbol(out, carrier)
		}
		out = m.appendSymbol(out, true)
	}
	return out, nil
}

func (m *Modem) appendSymbol(out []float64, carrier bool) []float64 {
	if !carrier {
		for j := 0; j < m.sampPerSym; j++ {
			out = append(out, 0)
		}
		return out
	}
	for j := 0; j < m.sampPerSym; j++ {
		out = append(out, math.Sin(2*math.Pi*m.freq*float64(j)/float64(m.samplerate)))
	}
	return out
}

func (m *Modem) Demodulate(samples []float64) ([]byte, error) {
	m.out = m.out[:0]
	for len(samples) > 0 {
		status, err := m.src.Process(samples)
		if err != nil {
			if m.verbose {
				m.logger.Printf("ook: analyzer error: %v", err)
			}
			return nil, err
		}
		samples = samples[m.src.UsedSamples():]
		if status == analyzer.NeedMore {
			break
		}
		m.stepFrame(m.src.Frame())
	}
	out := m.out
	m.out = nil
	return out, nil
}

func (m *Modem) toneDetected(frame analyzer.Frame) bool {
	for _, d := range frame.Detect {
		if d == m.fcBin {
			return true
		}
	}
	return false
}

func (m *Modem) stepFrame(frame analyzer.Frame) {
	detected := m.toneDetected(frame)

	switch m.state {
	case stateSearch:
		if detected {
			m.state = stateIdleAcquire
		}
	case stateIdleAcquire:
		if detected {
			m.state = stateIdleDetected
		} else {
			m.state = stateSearch
		}
	case stateIdleDetected:
		if !detected {
			m.capture = m.capture[:0]
			m.capture = append(m.capture, false)
			m.state = stateStartAcquire
		}
	case stateStartAcquire:
		if !detected {
			m.capture = append(m.capture, false)
			m.state = stateCapture
		} else {
			m.capture = m.capture[:0]
			m.state = stateIdleAcquire
		}
	case stateCapture:
		m.capture = append(m.capture, detected)
		if len(m.capture) >= 10*oversample {
			m.decodeCapture()
		}
	}
}

type run struct {
	value  bool
	length int
}

func runLength(samples []bool) []run {
	var runs []run
	for _, s := range samples {
		if len(runs) > 0 && runs[len(runs)-1].value == s {
			runs[len(runs)-1].length++
		} else {
			runs = append(runs, run{value: s, length: 1})
		}
	}
	return runs
}

func (m *Modem) decodeCapture() {
	runs := runLength(m.capture)

	var bits []int
	for _, r := range runs {
		bit := 0
		if !r.value {
			bit = 1
		}
		count := int(math.Round(float64(r.length) / float64(oversample)))
		for i := 0; i < count; i++ {
			bits = append(bits, bit)
		}
	}

	if len(bits) >= 10 && bits[0] == 1 {
		var b byte
		for i := 0; i < 8; i++ {
			if bits[1+i] != 0 {
				b |= 1 << uint(i)
			}
		}
		m.out = append(m.out, b)
	}

	m.nextStateAfterCapture(runs)
	m.capture = m.capture[:0]
}

func (m *Modem) nextStateAfterCapture(runs []run) {
	if len(runs) == 0 {
		m.state = stateSearch
		return
	}
	last := runs[len(runs)-1]
	switch {
	case last.value && float64(last.length) >= 1.5*oversample:
		m.state = stateIdleDetected
	case last.value:
		m.state = stateIdleAcquire
	default:
		m.state = stateSearch
	}
}
