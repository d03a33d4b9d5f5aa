package fsk

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestFskClkRoundTripShortMessage(t *testing.T) {
	m, err := NewClk(8000, 128, 3000, 4)
	require.NoError(t, err)

	data := []byte("Hi!")
	samples, err := m.Modulate(data)
	require.NoError(t, err)
	samples = append(samples, make([]float64, 8000)...)

	got, err := m.Demodulate(samples)
	require.NoError(t, err)
	require.Equal(t, data, got)
}

func TestFskClkRoundTripRandomPayload(t *testing.T) {
	m, err := NewClk(8000, 128, 3000, 4)
	require.NoError(t, err)

	rng := rand.New(rand.NewSource(1))
	data := make([]byte, 64)
	rng.Read(data)

	samples, err := m.Modulate(data)
	require.NoError(t, err)
	samples = append(make([]float64, 1000), samples...)
	samples = append(samples, make([]float64, 8000)...)

	got, err := m.Demodulate(samples)
	require.NoError(t, err)
	require.Equal(t, data, got)
}
