package main

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"
	"os"
)

// writeWav writes mono 16-bit PCM samples to a canonical RIFF/WAVE file.
// There is no WAV library anywhere in the retrieved reference pack, so
// this follows the teacher's own manual binary-format style (fixed
// struct layout written with encoding/binary) rather than adopting one.
func writeWav(path string, samples []float64, samplerate int) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create wav: %w", err)
	}
	defer f.Close()

	const bitsPerSample = 16
	const numChannels = 1
	byteRate := samplerate * numChannels * bitsPerSample / 8
	blockAlign := numChannels * bitsPerSample / 8
	dataSize := len(samples) * 2

	var buf bytes.Buffer
	buf.WriteString("RIFF")
	binary.Write(&buf, binary.LittleEndian, uint32(36+dataSize))
	buf.WriteString("WAVE")

	buf.WriteString("fmt ")
	binary.Write(&buf, binary.LittleEndian, uint32(16))
	binary.Write(&buf, binary.LittleEndian, uint16(1)) // PCM
	binary.Write(&buf, binary.LittleEndian, uint16(numChannels))
	binary.Write(&buf, binary.LittleEndian, uint32(samplerate))
	binary.Write(&buf, binary.LittleEndian, uint32(byteRate))
	binary.Write(&buf, binary.LittleEndian, uint16(blockAlign))
	binary.Write(&buf, binary.LittleEndian, uint16(bitsPerSample))

	buf.WriteString("data")
	binary.Write(&buf, binary.LittleEndian, uint32(dataSize))
	for _, s := range samples {
		if s > 1 {
			s = 1
		} else if s < -1 {
			s = -1
		}
		binary.Write(&buf, binary.LittleEndian, int16(s*32767))
	}

	_, err = f.Write(buf.Bytes())
	return err
}

// readWav reads a mono (or channel-0-only) 16-bit PCM WAV file back into
// float64 samples in [-1, 1].
func readWav(path string) ([]float64, int, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, 0, fmt.Errorf("open wav: %w", err)
	}
	defer f.Close()

	var riffHdr [12]byte
	if _, err := io.ReadFull(f, riffHdr[:]); err != nil {
		return nil, 0, fmt.Errorf("read riff header: %w", err)
	}
	if string(riffHdr[0:4]) != "RIFF" || string(riffHdr[8:12]) != "WAVE" {
		return nil, 0, fmt.Errorf("not a RIFF/WAVE file")
	}

	var samplerate int
	var numChannels, bitsPerSample uint16
	var samples []float64

	for {
		var chunkID [4]byte
		var chunkSize uint32
		if _, err := io.ReadFull(f, chunkID[:]); err != nil {
			break
		}
		if err := binary.Read(f, binary.LittleEndian, &chunkSize); err != nil {
			break
		}

		switch string(chunkID[:]) {
		case "fmt ":
			body := make([]byte, chunkSize)
			if _, err := io.ReadFull(f, body); err != nil {
				return nil, 0, fmt.Errorf("read fmt chunk: %w", err)
			}
			r := bytes.NewReader(body)
			var audioFormat uint16
			binary.Read(r, binary.LittleEndian, &audioFormat)
			binary.Read(r, binary.LittleEndian, &numChannels)
			var sr uint32
			binary.Read(r, binary.LittleEndian, &sr)
			samplerate = int(sr)
			r.Seek(6, io.SeekCurrent)
			binary.Read(r, binary.LittleEndian, &bitsPerSample)

		case "data":
			body := make([]byte, chunkSize)
			if _, err := io.ReadFull(f, body); err != nil {
				return nil, 0, fmt.Errorf("read data chunk: %w", err)
			}
			stride := int(numChannels) * int(bitsPerSample) / 8
			if stride == 0 {
				stride = 2
			}
			for off := 0; off+2 <= len(body); off += stride {
				v := int16(binary.LittleEndian.Uint16(body[off : off+2]))
				samples = append(samples, float64(v)/32768.0)
			}

		default:
			if chunkSize%2 == 1 {
				chunkSize++
			}
			if _, err := io.CopyN(io.Discard, f, int64(chunkSize)); err != nil {
				return samples, samplerate, nil
			}
		}
	}

	return samples, samplerate, nil
}

// injectNoise adds uniform noise in [-amplitude, amplitude] to each
// sample, for exercising a variant's robustness against a noisy channel.
func injectNoise(samples []float64, amplitude float64, rng func() float64) []float64 {
	if amplitude <= 0 {
		return samples
	}
	out := make([]float64, len(samples))
	for i, s := range samples {
		out[i] = s + (rng()*2-1)*amplitude
		if out[i] > 1 {
			out[i] = 1
		} else if out[i] < -1 {
			out[i] = -1
		}
	}
	return out
}
