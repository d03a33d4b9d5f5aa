// Package modem provides the Modem facade: a single tagged-union
// dispatch surface over the five modulation schemes (FskClk, Fsk, Ook,
// PskClk, Corr), with an optional packet framer layered on top.
package modem

import (
	"github.com/danieltabor/audiomodem-go/internal/corr"
	"github.com/danieltabor/audiomodem-go/internal/framer"
	"github.com/danieltabor/audiomodem-go/internal/fsk"
	"github.com/danieltabor/audiomodem-go/internal/modemerr"
	"github.com/danieltabor/audiomodem-go/internal/ook"
	"github.com/danieltabor/audiomodem-go/internal/pskclk"
)

// Variant selects which modulation scheme a Modem drives.
type Variant int

const (
	VariantFskClk Variant = iota
	VariantFsk
	VariantOok
	VariantPskClk
	VariantCorr
)

// Params bundles every construction parameter across all variants; only
// the fields relevant to the chosen Variant need to be set.
type Params struct {
	Samplerate, Bitrate, Bandwidth int
	Symbols                        int
	Freq                           float64
	Templates                      [][]float64
	PercentThresh                  float64
}

type submodem interface {
	SetVerbose(bool)
	Modulate([]byte) ([]float64, error)
	Demodulate([]float64) ([]byte, error)
}

type thresholder interface {
	SetThreshold(float64) error
}

// Modem dispatches Modulate/Demodulate to one underlying variant and
// optionally wraps payloads in a PktFramer frame.
type Modem struct {
	variant Variant
	sub     submodem
	framer  *framer.Framer
	rxBuf   []byte
}

// New constructs a Modem for the given variant. It returns a config
// error if p is missing a field the variant requires.
func New(variant Variant, p Params) (*Modem, error) {
	var sub submodem
	var err error

	switch variant {
	case VariantFskClk:
		sub, err = fsk.NewClk(p.Samplerate, p.Bitrate, p.Bandwidth, p.Symbols)
	case VariantFsk:
		sub, err = fsk.New(p.Samplerate, p.Bitrate, p.Bandwidth, p.Symbols)
	case VariantOok:
		sub, err = ook.New(p.Samplerate, p.Bitrate, p.Bandwidth, p.Freq)
	case VariantPskClk:
		sub, err = pskclk.New(p.Samplerate, p.Bitrate, p.Bandwidth, p.Symbols, p.Freq)
	case VariantCorr:
		pct := p.PercentThresh
		if pct == 0 {
			pct = 0.90
		}
		sub, err = corr.New(p.Samplerate, p.Bitrate, p.Templates, pct)
	default:
		return nil, modemerr.Configf("unknown modem variant %d", variant)
	}
	if err != nil {
		return nil, err
	}

	return &Modem{variant: variant, sub: sub}, nil
}

// AttachPacketFramer makes every Modulate/Demodulate call pass payloads
// through f, giving the modem sync framing, redundancy, and masking.
func (m *Modem) AttachPacketFramer(f *framer.Framer) { m.framer = f }

func (m *Modem) Variant() Variant { return m.variant }

func (m *Modem) SetVerbose(v bool) { m.sub.SetVerbose(v) }

// SetThreshold forwards to the underlying variant if it exposes one;
// CorrDemod and every frequency-domain variant do.
func (m *Modem) SetThreshold(p float64) error {
	if t, ok := m.sub.(thresholder); ok {
		return t.SetThreshold(p)
	}
	return modemerr.Configf("variant does not support a runtime threshold")
}

// Modulate frames data (if a PktFramer is attached) and synthesizes the
// resulting bytes into a PCM waveform.
func (m *Modem) Modulate(data []byte) ([]float64, error) {
	payload := data
	if m.framer != nil {
		framed, err := m.framer.Frame(data)
		if err != nil {
			return nil, err
		}
		payload = framed
	}
	return m.sub.Modulate(payload)
}

// Demodulate drives samples through the underlying variant and, if a
// PktFramer is attached, reassembles complete packets. Zero packets
// yields nil, one yields it directly, and more than one are
// concatenated into a reused receive buffer.
func (m *Modem) Demodulate(samples []float64) ([]byte, error) {
	raw, err := m.sub.Demodulate(samples)
	if err != nil {
		return nil, err
	}
	if m.framer == nil {
		return raw, nil
	}

	packets, err := m.framer.Deframe(raw)
	if err != nil {
		return nil, err
	}
	switch len(packets) {
	case 0:
		return nil, nil
	case 1:
		return packets[0], nil
	default:
		m.rxBuf = m.rxBuf[:0]
		for _, pkt := range packets {
			m.rxBuf = append(m.rxBuf, pkt...)
		}
		return m.rxBuf, nil
	}
}

// Close releases no resources of its own; it exists for API symmetry
// with the C original's explicit destroy call.
func (m *Modem) Close() error { return nil }
