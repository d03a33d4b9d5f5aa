package fsk

import (
	"log"
	"math"

	"github.com/danieltabor/audiomodem-go/internal/analyzer"
	"github.com/danieltabor/audiomodem-go/internal/bitcursor"
	"github.com/danieltabor/audiomodem-go/internal/calibrator"
	"github.com/danieltabor/audiomodem-go/internal/modemerr"
)

const clkOversample = 8

type clkState int

const (
	clkStateClkSearch clkState = iota
	clkStateClkAcquire
	clkStateClkDetected
	clkStateDataAcquire
	clkStateDataDetected
)

// ClkModem is FSK with a dedicated clock tone between each data tone,
// giving the receiver a synchronisation reference every half-symbol.
type ClkModem struct {
	samplerate, bitrate, bandwidth int
	bitsPerSymbol, symbolCount     int
	sampPerSym, halfSamp           int
	fftInputBlock                  int

	toneFreqs    []float64 // length symbolCount+1, includes the clock slot
	clkIdx       int
	dataToneIdx  []int // data symbol -> tone slot (skips clkIdx)
	slotToSymbol []int // tone slot -> data symbol, -1 for clkIdx

	src *analyzer.SrcFft

	state    clkState
	dataBin  int
	syncLoss int
	accum    symbolAccumulator

	verbose bool
	logger  *log.Logger
}

// NewClk constructs an FSK-clk modem. symbolCount is rounded up to the
// next power of two for the data alphabet; the tone table additionally
// carries one clock tone.
func NewClk(samplerate, bitrate, bandwidth, symbolCount int) (*ClkModem, error) {
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
	if sampPerSym < 8 {
		return nil, modemerr.Configf("samples per symbol %d too small for bitrate %d at samplerate %d", sampPerSym, bitrate, samplerate)
	}
	halfSamp := sampPerSym / 2

	fftInputBlock := sampPerSym / clkOversample
	if fftInputBlock < 1 {
		fftInputBlock = 1
	}

	toneCount := n + 1
	src, err := analyzer.New(samplerate, fftInputBlock, bandwidth, toneCount)
	if err != nil {
		return nil, err
	}

	toneFreqs := make([]float64, toneCount)
	if err := calibrator.Calibrate(toneFreqs, src, samplerate, bandwidth, defaultPercentThresh); err != nil {
		return nil, err
	}
	if err := src.SetNormThresh(0.75); err != nil {
		return nil, err
	}

	clkIdx := toneCount / 2
	dataToneIdx := make([]int, n)
	slotToSymbol := make([]int, toneCount)
	for i := range slotToSymbol {
		slotToSymbol[i] = -1
	}
	sym := 0
	for slot := 0; slot < toneCount; slot++ {
		if slot == clkIdx {
			continue
		}
		dataToneIdx[sym] = slot
		slotToSymbol[slot] = sym
		sym++
	}

	return &ClkModem{
		samplerate: samplerate, bitrate: bitrate, bandwidth: bandwidth,
		bitsPerSymbol: k, symbolCount: n,
		sampPerSym: sampPerSym, halfSamp: halfSamp, fftInputBlock: fftInputBlock,
		toneFreqs: toneFreqs, clkIdx: clkIdx,
		dataToneIdx: dataToneIdx, slotToSymbol: slotToSymbol,
		src: src, state: clkStateClkSearch,
		logger: log.Default(),
	}, nil
}

func (m *ClkModem) SetVerbose(v bool) { m.verbose = v }

func (m *ClkModem) SetThreshold(thresh float64) error {
	return m.src.SetNormThresh(thresh)
}

// Modulate synthesizes data as alternating clock/data half-symbols.
func (m *ClkModem) Modulate(data []byte) ([]float64, error) {
	totalBits := len(data) * 8
	symbolCount := (totalBits + m.bitsPerSymbol - 1) / m.bitsPerSymbol
	out := make([]float64, 0, symbolCount*m.sampPerSym)

	ii := 0
	clkFreq := m.toneFreqs[m.clkIdx]
	for s := 0; s < symbolCount; s++ {
		for j := 0; j < m.halfSamp; j++ {
			out = append(out, math.Sin(2*math.Pi*clkFreq*float64(ii)/float64(m.samplerate)))
			ii++
		}
		sym := bitcursor.Get(data, s*m.bitsPerSymbol, m.bitsPerSymbol)
		dataFreq := m.toneFreqs[m.dataToneIdx[sym]]
		for j := 0; j < m.halfSamp; j++ {
			out = append(out, math.Sin(2*math.Pi*dataFreq*float64(ii)/float64(m.samplerate)))
			ii++
		}
	}
	return out, nil
}

func (m *ClkModem) Demodulate(samples []float64) ([]byte, error) {
	for len(samples) > 0 {
		status, err := m.src.Process(samples)
		if err != nil {
			if m.verbose {
				m.logger.Printf("fskclk: analyzer error: %v", err)
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

func (m *ClkModem) stepFrame(frame analyzer.Frame) {
	// Exactly one bin above the normalized threshold is required; two or
	// more simultaneous candidates are treated the same as silence.
	detected := len(frame.Detect) == 1
	isClock := detected && frame.MaxBin == m.clkIdx
	isData := detected && !isClock

	if detected {
		m.syncLoss = 0
	}

	switch m.state {
	case clkStateClkSearch:
		if isClock {
			m.state = clkStateClkAcquire
		}
	case clkStateClkAcquire:
		if isClock {
			m.state = clkStateClkDetected
		} else {
			m.state = clkStateClkSearch
		}
	case clkStateClkDetected:
		if isData {
			m.dataBin = frame.MaxBin
			m.state = clkStateDataAcquire
		} else if !isClock {
			m.bumpSyncLoss()
		}
	case clkStateDataAcquire:
		if isClock {
			// Any clock tone seen while acquiring data is a fresh clock
			// half-symbol, regardless of acquisition progress.
			m.state = clkStateClkAcquire
		} else if isData {
			if frame.MaxBin == m.dataBin {
				if sym := m.slotToSymbol[m.dataBin]; sym >= 0 {
					m.accum.push(sym, m.bitsPerSymbol)
				}
				m.state = clkStateDataDetected
			} else {
				m.dataBin = frame.MaxBin
			}
		} else {
			m.bumpSyncLoss()
		}
	case clkStateDataDetected:
		if isClock {
			m.state = clkStateClkAcquire
		} else if !detected {
			m.bumpSyncLoss()
		}
	}
}

func (m *ClkModem) bumpSyncLoss() {
	m.syncLoss += m.fftInputBlock
	if m.syncLoss >= m.sampPerSym {
		m.state = clkStateClkSearch
		m.syncLoss = 0
	}
}
