package modem

import (
	"testing"

	"github.com/danieltabor/audiomodem-go/internal/framer"
	"github.com/stretchr/testify/require"
)

func TestModemDispatchesFsk(t *testing.T) {
	m, err := New(VariantFsk, Params{Samplerate: 8000, Bitrate: 64, Bandwidth: 3000, Symbols: 4})
	require.NoError(t, err)

	data := []byte("Hello")
	samples, err := m.Modulate(data)
	require.NoError(t, err)
	samples = append(samples, make([]float64, 8000)...)

	got, err := m.Demodulate(samples)
	require.NoError(t, err)
	require.Equal(t, data, got)
}

func TestModemRejectsUnknownVariant(t *testing.T) {
	_, err := New(Variant(99), Params{Samplerate: 8000, Bitrate: 64, Bandwidth: 3000})
	require.Error(t, err)
}

func TestModemWithPacketFramerConcatenatesMultiplePackets(t *testing.T) {
	m, err := New(VariantFsk, Params{Samplerate: 8000, Bitrate: 256, Bandwidth: 3000, Symbols: 4})
	require.NoError(t, err)

	f, err := framer.New(1, []byte{0x5A})
	require.NoError(t, err)
	m.AttachPacketFramer(f)

	var samples []float64
	for _, msg := range [][]byte{[]byte("one"), []byte("two")} {
		enc, err := m.Modulate(msg)
		require.NoError(t, err)
		samples = append(samples, enc...)
	}
	samples = append(samples, make([]float64, 8000)...)

	got, err := m.Demodulate(samples)
	require.NoError(t, err)
	require.Equal(t, []byte("onetwo"), got)
}
