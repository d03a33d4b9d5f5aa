package ook

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestOokScenarioCRoundTrip(t *testing.T) {
	m, err := New(8000, 64, 3000, 1000)
	require.NoError(t, err)

	data := []byte{0x55, 0xAA, 0xFF, 0x00}
	samples, err := m.Modulate(data)
	require.NoError(t, err)
	samples = append(samples, make([]float64, 8000)...)

	got, err := m.Demodulate(samples)
	require.NoError(t, err)
	require.Equal(t, data, got)
}

func TestOokConstructionRejectsLowSamplerate(t *testing.T) {
	_, err := New(1000, 64, 3000, 1000)
	require.Error(t, err)
}

func TestOokRoundTripAcrossCallBoundary(t *testing.T) {
	m, err := New(8000, 64, 3000, 1000)
	require.NoError(t, err)

	data := []byte("Hi")
	samples, err := m.Modulate(data)
	require.NoError(t, err)
	samples = append(samples, make([]float64, 8000)...)

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
