package fsk

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestFskScenarioAHelloRoundTrip(t *testing.T) {
	m, err := New(8000, 64, 3000, 4)
	require.NoError(t, err)

	data := []byte("Hello")
	samples, err := m.Modulate(data)
	require.NoError(t, err)

	silence := make([]float64, 8000)
	samples = append(samples, silence...)

	got, err := m.Demodulate(samples)
	require.NoError(t, err)
	require.Equal(t, data, got)
}

func TestFskConstructionRejectsLowSamplerate(t *testing.T) {
	_, err := New(1000, 64, 3000, 4)
	require.Error(t, err)
}

func TestFskConstructionRejectsTooFewSymbols(t *testing.T) {
	_, err := New(8000, 64, 3000, 1)
	require.Error(t, err)
}

func TestFskRoundTripAcrossCallBoundary(t *testing.T) {
	m, err := New(8000, 64, 3000, 4)
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
