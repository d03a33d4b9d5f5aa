package corr

import (
	"log"

	"github.com/danieltabor/audiomodem-go/internal/bitcursor"
)

// Modem is a correlation-based demodulator: symbols are detected by
// sliding-window dot product against a fixed set of waveform templates
// rather than by frequency analysis. Templates may differ in length;
// the window evaluated against template k is always its own L_k most
// recent samples, drawn from a ring buffer sized to L_max.
type Modem struct {
	samplerate, bitrate int
	lMax                int
	bitsPerSymbol       int
	percentThresh       float64

	templates       [][]float64
	templateNormSq  []float64
	templateScratch [][]float64

	buffer []float64
	head   int
	filled int

	accum symbolAccumulator

	verbose bool
	logger  *log.Logger
}

// New constructs a correlation demodulator. templates are symbol
// waveforms produced by FskTemplates/PskTemplates/FpskTemplates or any
// caller-supplied set (lengths need not match); percentThresh scales
// each template's self-correlation into its detection threshold.
func New(samplerate, bitrate int, templates [][]float64, percentThresh float64) (*Modem, error) {
	lMax, err := validateTemplates(templates)
	if err != nil {
		return nil, err
	}

	normSq := make([]float64, len(templates))
	scratch := make([][]float64, len(templates))
	for k, t := range templates {
		normSq[k] = dot(t, t)
		scratch[k] = make([]float64, len(t))
	}

	return &Modem{
		samplerate: samplerate, bitrate: bitrate,
		lMax:          lMax,
		bitsPerSymbol: bitsPerSymbol(len(templates)),
		percentThresh: percentThresh,
		templates:     templates, templateNormSq: normSq, templateScratch: scratch,
		buffer: make([]float64, lMax),
		logger: log.Default(),
	}, nil
}

func (m *Modem) SetVerbose(v bool) { m.verbose = v }

// SetThreshold adjusts the normalization factor applied to every
// template's self-correlation.
func (m *Modem) SetThreshold(p float64) error {
	m.percentThresh = p
	return nil
}

// Modulate emits each symbol's template waveform back to back.
func (m *Modem) Modulate(data []byte) ([]float64, error) {
	totalBits := len(data) * 8
	numSymbols := (totalBits + m.bitsPerSymbol - 1) / m.bitsPerSymbol
	out := make([]float64, 0, numSymbols*m.lMax)
	for s := 0; s < numSymbols; s++ {
		sym := bitcursor.Get(data, s*m.bitsPerSymbol, m.bitsPerSymbol)
		out = append(out, m.templates[sym]...)
	}
	return out, nil
}

// Demodulate pushes samples one at a time through a circular window,
// reporting the best-correlating template whenever its normalized
// correlation reaches 1, then zeroing only that template's own L_k most
// recent samples to avoid re-triggering on the overlap while leaving
// older history available to longer templates.
func (m *Modem) Demodulate(samples []float64) ([]byte, error) {
	bufLen := len(m.buffer)
	for _, s := range samples {
		m.buffer[m.head] = s
		m.head = (m.head + 1) % bufLen
		if m.filled < bufLen {
			m.filled++
		}

		bestSym := -1
		bestNorm := 0.0
		for k, t := range m.templates {
			symLen := len(t)
			if m.filled < symLen {
				continue
			}
			scratch := m.templateScratch[k]
			m.copyLast(symLen, scratch)

			c := dot(scratch, t)
			norm := c / (m.templateNormSq[k] * m.percentThresh)
			if norm >= 1 && norm > bestNorm {
				bestNorm = norm
				bestSym = k
			}
		}

		if bestSym >= 0 {
			m.accum.push(bestSym, m.bitsPerSymbol)
			m.zeroLast(len(m.templates[bestSym]))
		}
	}
	return m.accum.drain(), nil
}

// copyLast copies the n most recently pushed samples, oldest first,
// into dst. n must not exceed len(m.buffer).
func (m *Modem) copyLast(n int, dst []float64) {
	capLen := len(m.buffer)
	start := ((m.head-n)%capLen + capLen) % capLen
	copied := copy(dst, m.buffer[start:])
	if copied < n {
		copy(dst[copied:], m.buffer[:n-copied])
	}
}

// zeroLast zeros the n most recently pushed samples in the ring buffer,
// the same window copyLast(n, ...) would have returned.
func (m *Modem) zeroLast(n int) {
	capLen := len(m.buffer)
	start := ((m.head-n)%capLen + capLen) % capLen
	for i := 0; i < n; i++ {
		m.buffer[(start+i)%capLen] = 0
	}
}
