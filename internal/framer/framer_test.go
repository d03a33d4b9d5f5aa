package framer

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestFramerRoundTripAcrossRedundancy(t *testing.T) {
	for _, r := range []int{1, 3, 5} {
		f, err := New(r, []byte{0x5A})
		require.NoError(t, err)

		payload := []byte("the quick brown fox")
		frame, err := f.Frame(payload)
		require.NoError(t, err)

		packets, err := f.Deframe(frame)
		require.NoError(t, err)
		require.Len(t, packets, 1)
		require.Equal(t, payload, packets[0])
	}
}

func TestFramerToleratesBitFlipsAtRedundancyThree(t *testing.T) {
	f, err := New(3, []byte{0x5A})
	require.NoError(t, err)

	payload := []byte("resilient")
	frame, err := f.Frame(payload)
	require.NoError(t, err)

	// Flip one physical bit inside every 3-byte span, sync included now
	// that the sync word is redundancy-coded along with the rest of the
	// frame; the majority vote should still recover every logical bit.
	corrupted := append([]byte(nil), frame...)
	for byteIdx := 0; byteIdx < len(corrupted); byteIdx += 3 {
		corrupted[byteIdx] ^= 0x01
	}

	packets, err := f.Deframe(corrupted)
	require.NoError(t, err)
	require.Len(t, packets, 1)
	require.Equal(t, payload, packets[0])
}

func TestFramerToleratesFlippedSyncBit(t *testing.T) {
	f, err := New(3, []byte{0x5A})
	require.NoError(t, err)

	payload := []byte("resilient")
	frame, err := f.Frame(payload)
	require.NoError(t, err)

	corrupted := append([]byte(nil), frame...)
	corrupted[0] ^= 0x80 // flip one physical bit of the first sync group

	packets, err := f.Deframe(corrupted)
	require.NoError(t, err)
	require.Len(t, packets, 1)
	require.Equal(t, payload, packets[0])
}

func TestFramerDeframesMultiplePacketsInOneCall(t *testing.T) {
	f, err := New(1, []byte{0x5A})
	require.NoError(t, err)

	first, err := f.Frame([]byte("first"))
	require.NoError(t, err)
	second, err := f.Frame([]byte("second"))
	require.NoError(t, err)

	var wire []byte
	wire = append(wire, first...)
	wire = append(wire, second...)

	packets, err := f.Deframe(wire)
	require.NoError(t, err)
	require.Len(t, packets, 2)
	require.Equal(t, []byte("first"), packets[0])
	require.Equal(t, []byte("second"), packets[1])
}

func TestFramerAccumulatesPartialFrameAcrossCalls(t *testing.T) {
	f, err := New(1, []byte{0x5A})
	require.NoError(t, err)

	wire, err := f.Frame([]byte("split across calls"))
	require.NoError(t, err)
	mid := len(wire) / 2

	first, err := f.Deframe(wire[:mid])
	require.NoError(t, err)
	require.Empty(t, first)

	second, err := f.Deframe(wire[mid:])
	require.NoError(t, err)
	require.Len(t, second, 1)
	require.Equal(t, []byte("split across calls"), second[0])
}

func TestFramerScenarioFWireFormat(t *testing.T) {
	f, err := New(1, []byte{0x5A, 0xA5})
	require.NoError(t, err)

	payload := []byte{0x01, 0x02, 0x03}
	frame, err := f.Frame(payload)
	require.NoError(t, err)

	require.Equal(t, []byte{0xC9, 0x3F}, frame[:2])
	require.Equal(t, []byte{0x00 ^ 0x5A, 0x03 ^ 0xA5}, frame[2:4])
	require.Equal(t, []byte{0x01 ^ 0x5A, 0x02 ^ 0xA5, 0x03 ^ 0x5A}, frame[4:7])

	packets, err := f.Deframe(frame)
	require.NoError(t, err)
	require.Len(t, packets, 1)
	require.Equal(t, payload, packets[0])
}

func TestFramerRejectsEvenRedundancy(t *testing.T) {
	_, err := New(2, []byte{0x5A})
	require.Error(t, err)
}

func TestFramerRejectsOversizedPayload(t *testing.T) {
	f, err := New(1, []byte{0x5A})
	require.NoError(t, err)

	_, err = f.Frame(make([]byte, 65536))
	require.Error(t, err)
}
