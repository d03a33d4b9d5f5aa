package pskclk

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestPskClkScenarioDRoundTrip(t *testing.T) {
	m, err := New(16000, 64, 3000, 4, 1000)
	require.NoError(t, err)

	data := []byte{0x1B, 0x2E, 0x77}
	samples, err := m.Modulate(data)
	require.NoError(t, err)
	samples = append(samples, make([]float64, 16000)...)

	got, err := m.Demodulate(samples)
	require.NoError(t, err)
	require.Equal(t, data, got)
}

func TestPskClkConstructionRejectsLowSamplerate(t *testing.T) {
	_, err := New(1000, 64, 3000, 4, 1000)
	require.Error(t, err)
}

func TestPskClkRoundTripAcrossCallBoundary(t *testing.T) {
	m, err := New(16000, 64, 3000, 4, 1000)
	require.NoError(t, err)

	data := []byte("Hi")
	samples, err := m.Modulate(data)
	require.NoError(t, err)
	samples = append(samples, make([]float64, 16000)...)

	mid := len(samples) / 3
	var got []byte
	first, err := m.Demodulate(samples[:mid])
	require.NoError(t, err)
	got = append(got, first...)
	second, err := m.Demodulate(samples[mid:])
	require.NoError(t, err)
	got = append(got, second...)

	require.Equal(t, data, got)
}
