// Package corr implements correlation-based demodulation: each symbol
// is a fixed waveform template, and a sliding-window dot product
// against every template drives detection instead of any frequency
// analysis.
package corr

import (
	"github.com/danieltabor/audiomodem-go/internal/bitcursor"
	"github.com/danieltabor/audiomodem-go/internal/modemerr"
)

func bitsPerSymbol(symbolCount int) int {
	k := 1
	for 1<<uint(k) < symbolCount {
		k++
	}
	return k
}

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

func dot(a, b []float64) float64 {
	sum := 0.0
	for i := range a {
		sum += a[i] * b[i]
	}
	return sum
}

// validateTemplates checks the template set and returns L_max, the
// longest template's length — templates may differ in length, since a
// symbol alphabet can mix waveforms of different durations.
func validateTemplates(templates [][]float64) (int, error) {
	if len(templates) < 2 {
		return 0, modemerr.Configf("need at least 2 templates, got %d", len(templates))
	}
	lMax := 0
	for i, t := range templates {
		if len(t) == 0 {
			return 0, modemerr.Configf("template %d has zero length", i)
		}
		if len(t) > lMax {
			lMax = len(t)
		}
	}
	return lMax, nil
}
