// Package pskclk implements PSK-with-clock: a single carrier frequency
// split into alternating reference and data half-symbols, decoded by
// the differential phase between the two halves.
package pskclk

import (
	"github.com/danieltabor/audiomodem-go/internal/bitcursor"
	"github.com/danieltabor/audiomodem-go/internal/modemerr"
)

func bitsPerSymbol(symbolCount int) int {
	k := 0
	for (1 << uint(k)) < symbolCount {
		k++
	}
	if k < 1 {
		k = 1
	}
	return k
}

func checkSamplerate(samplerate, bandwidth int) error {
	if samplerate < 2*bandwidth {
		return modemerr.Configf("sample rate %d must be at least twice the bandwidth %d", samplerate, bandwidth)
	}
	return nil
}

// symbolAccumulator packs fixed-width symbols MSB-first into bytes,
// flushing completed bytes as they fill.
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
