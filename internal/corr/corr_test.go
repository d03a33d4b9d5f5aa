package corr

import (
	"math"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestCorrScenarioERoundTrip(t *testing.T) {
	const samplerate = 8000
	const bitrate = 300
	symLen := samplerate / bitrate

	templates := FskTemplates([]float64{1200, 2200}, samplerate, symLen)
	m, err := New(samplerate, bitrate, templates, 0.75)
	require.NoError(t, err)

	data := []byte("Bell")
	samples, err := m.Modulate(data)
	require.NoError(t, err)

	got, err := m.Demodulate(samples)
	require.NoError(t, err)
	require.Equal(t, data, got)
}

func TestCorrConstructionRejectsZeroLengthTemplate(t *testing.T) {
	_, err := New(8000, 300, [][]float64{{1, 2, 3}, {}}, 0.75)
	require.Error(t, err)
}

func TestCorrAcceptsUnequalLengthTemplates(t *testing.T) {
	const samplerate = 8000

	t1 := make([]float64, 40)
	for i := range t1 {
		t1[i] = math.Sin(2 * math.Pi * 1000 * float64(i) / samplerate)
	}
	t2 := make([]float64, 60)
	for i := range t2 {
		t2[i] = math.Sin(2 * math.Pi * 2000 * float64(i) / samplerate)
	}

	m, err := New(samplerate, 300, [][]float64{t1, t2}, 0.75)
	require.NoError(t, err)

	data := []byte{0xB2}
	samples, err := m.Modulate(data)
	require.NoError(t, err)

	got, err := m.Demodulate(samples)
	require.NoError(t, err)
	require.Equal(t, data, got)
}

func TestCorrConstructionRejectsSingleTemplate(t *testing.T) {
	_, err := New(8000, 300, [][]float64{{1, 2, 3}}, 0.75)
	require.Error(t, err)
}

func TestCorrPskTemplatesRoundTrip(t *testing.T) {
	const samplerate = 8000
	const bitrate = 400
	symLen := samplerate / bitrate

	templates := PskTemplates(1500, 4, samplerate, symLen)
	m, err := New(samplerate, bitrate, templates, 0.75)
	require.NoError(t, err)

	data := []byte{0x3C, 0x81}
	samples, err := m.Modulate(data)
	require.NoError(t, err)

	got, err := m.Demodulate(samples)
	require.NoError(t, err)
	require.Equal(t, data, got)
}
