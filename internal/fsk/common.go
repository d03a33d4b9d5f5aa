// Package fsk implements the FSK and FSK-with-embedded-clock
// demodulator/modulator pair: two sum-typed variants sharing the tone
// table and bit-packing conventions described in the FSK component
// design, each holding its own SrcFft analyzer by composition.
package fsk

import (
	"github.com/danieltabor/audiomodem-go/internal/bitcursor"
	"github.com/danieltabor/audiomodem-go/internal/modemerr"
)

const defaultPercentThresh = 0.75

// bitsPerSymbol rounds a requested alphabet size up to the next power
// of two and returns log2 of that size.
func bitsPerSymbol(symbolCount int) int {
	k := 1
	for 1<<uint(k) < symbolCount {
		k++
	}
	return k
}

// symbolAccumulator packs emitted symbols MSB-first into a 2-byte shift
// register, flushing complete bytes to out as they fill.
type symbolAccumulator struct {
	buf      [2]byte
	bitCount int
	out      []byte
}

func (a *symbolAccumulator) push(sym, bits int) {
	bitcursor.Put(a.buf[:], a.bitCount, bits, sym)
	a.bitCount += bits
	if a.bitCount >= 8 {
		a.out = append(a.out, a.buf[0])
		a.buf[0] = a.buf[1]
		a.buf[1] = 0
		a.bitCount -= 8
	}
}

func (a *symbolAccumulator) drain() []byte {
	out := a.out
	a.out = nil
	return out
}

func checkSamplerate(samplerate, bandwidth int) error {
	if samplerate < 2*bandwidth {
		return modemerr.Configf("sample rate %d must be at least twice the bandwidth %d", samplerate, bandwidth)
	}
	return nil
}
