package framer

import "github.com/danieltabor/audiomodem-go/internal/modemerr"

// Framer wraps raw payloads into sync-delimited, redundancy-coded,
// XOR-masked packets, and recovers zero or more complete packets from
// however much of that bitstream has arrived so far.
type Framer struct {
	redundancy int
	mask       []byte

	pending []bool
}

// New constructs a Framer. redundancy is the odd number of physical
// bits carrying each logical bit (majority-voted on receive); mask is
// the repeating XOR pattern applied to the length-prefixed payload.
func New(redundancy int, mask []byte) (*Framer, error) {
	if err := validateParams(redundancy, mask); err != nil {
		return nil, err
	}
	return &Framer{redundancy: redundancy, mask: append([]byte(nil), mask...)}, nil
}

// Frame encodes payload as redundancy-coded(sync ++ mask(length ++ payload)).
// The sync word itself is never XOR-masked, but it IS redundancy-coded
// along with everything after it, so a receiver majority-votes every
// r-bit group — sync included — before comparing against the plain
// sync pattern.
func (f *Framer) Frame(payload []byte) ([]byte, error) {
	if len(payload) > maxPayloadLen {
		return nil, modemerr.PacketOverflowf("payload length %d exceeds %d-byte limit", len(payload), maxPayloadLen)
	}

	header := []byte{byte(len(payload) >> 8), byte(len(payload))}
	body := append(append([]byte(nil), header...), payload...)
	masked := xorMask(body, f.mask)

	bits := append(append([]bool(nil), syncBitPattern()...), bytesToBits(masked)...)
	coded := repeatBits(bits, f.redundancy)

	return bitsToBytes(coded), nil
}

// Deframe feeds newly arrived bytes into the framer's bit stream and
// returns every packet that completed as a result, in order. Partial
// sync matches, length fields, and payloads persist across calls.
func (f *Framer) Deframe(data []byte) ([][]byte, error) {
	bits := append(f.pending, bytesToBits(data)...)
	sync := syncBitPattern()
	syncNeed := syncBitLen * f.redundancy

	var packets [][]byte
	pos := 0
	for {
		syncIdx := -1
		for pos+syncNeed <= len(bits) {
			if bitsEqual(voteBits(bits[pos:pos+syncNeed], f.redundancy), sync) {
				syncIdx = pos
				break
			}
			pos++
		}
		if syncIdx < 0 {
			break
		}
		cursor := syncIdx + syncNeed

		lenNeed := lenBitLen * f.redundancy
		if cursor+lenNeed > len(bits) {
			pos = syncIdx
			break
		}
		lenVoted := voteBits(bits[cursor:cursor+lenNeed], f.redundancy)
		cursor += lenNeed
		lenBytes := xorMask(bitsToBytes(lenVoted), f.mask)
		length := int(lenBytes[0])<<8 | int(lenBytes[1])

		payloadNeed := length * 8 * f.redundancy
		if cursor+payloadNeed > len(bits) {
			pos = syncIdx
			break
		}
		payloadVoted := voteBits(bits[cursor:cursor+payloadNeed], f.redundancy)
		cursor += payloadNeed

		maskedBody := bitsToBytes(append(lenVoted, payloadVoted...))
		body := xorMask(maskedBody, f.mask)
		packets = append(packets, append([]byte(nil), body[2:]...))

		pos = cursor
	}

	f.pending = append([]bool(nil), bits[pos:]...)
	return packets, nil
}

func bitsEqual(a, b []bool) bool {
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
