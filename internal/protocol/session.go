package protocol

import (
	"fmt"
	"log"
	"time"

	"github.com/danieltabor/audiomodem-go/internal/audio"
	"github.com/danieltabor/audiomodem-go/internal/fec"
	"github.com/danieltabor/audiomodem-go/internal/modem"
)

// SessionMode represents the operating mode.
type SessionMode int

const (
	ModeSend SessionMode = iota
	ModeReceive
	ModeDuplex
)

// SessionStatus represents the session state.
type SessionStatus int

const (
	StatusDisconnected SessionStatus = iota
	StatusConnecting
	StatusConnected
	StatusTransferring
	StatusCompleted
	StatusError
)

// String returns the status name.
func (s SessionStatus) String() string {
	switch s {
	case StatusDisconnected:
		return "disconnected"
	case StatusConnecting:
		return "connecting"
	case StatusConnected:
		return "connected"
	case StatusTransferring:
		return "transferring"
	case StatusCompleted:
		return "completed"
	case StatusError:
		return "error"
	default:
		return "unknown"
	}
}

// SessionEvent is sent to listeners when session state changes.
type SessionEvent struct {
	Status   SessionStatus
	Message  string
	Progress float64 // 0.0 to 1.0
	Error    error
}

// Session manages an audio modem communication session. It owns the
// audio device, the underlying Modem (whichever variant the caller
// configured), an optional outer Reed-Solomon layer for a "reliable"
// transfer mode, and the ARQ transport built on top of both.
type Session struct {
	audioIO   *audio.AudioIO
	dsp       *modem.Modem
	rsEncoder *fec.RSEncoder
	reliable  bool
	transport *Transport
	mode      SessionMode

	status    SessionStatus
	eventChan chan SessionEvent

	hasInput  bool
	hasOutput bool
}

// NewSession creates a new communication session around a configured
// Modem variant. When reliable is true, frames additionally pass
// through an outer Reed-Solomon code before modulation.
func NewSession(variant modem.Variant, params modem.Params, mode SessionMode, reliable bool) (*Session, error) {
	dsp, err := modem.New(variant, params)
	if err != nil {
		return nil, fmt.Errorf("create modem: %w", err)
	}

	s := &Session{
		audioIO:   audio.NewAudioIO(params.Samplerate, audio.DefaultFramesPerBuf),
		dsp:       dsp,
		reliable:  reliable,
		mode:      mode,
		eventChan: make(chan SessionEvent, 100),
	}

	if reliable {
		rsEnc, err := fec.NewRSEncoder()
		if err != nil {
			return nil, fmt.Errorf("create RS encoder: %w", err)
		}
		s.rsEncoder = rsEnc
	}

	s.transport = NewTransport(s.sendFrame, s.receiveFrame)

	return s, nil
}

// Open initializes the audio I/O based on the session mode.
func (s *Session) Open() error {
	s.setStatus(StatusConnecting, "Opening audio devices...")

	switch s.mode {
	case ModeSend:
		// Send mode: need output (required) + input (optional, for ACK)
		if err := s.audioIO.OpenOutput(); err != nil {
			s.setStatus(StatusError, fmt.Sprintf("Audio output open failed: %v", err))
			return err
		}
		s.hasOutput = true

		if err := s.audioIO.OpenInput(); err != nil {
			log.Printf("Warning: No input device available. ACK reception disabled: %v", err)
			s.hasInput = false
		} else {
			s.hasInput = true
		}

	case ModeReceive:
		// Receive mode: need input (required) + output (optional, for ACK)
		if err := s.audioIO.OpenInput(); err != nil {
			s.setStatus(StatusError, fmt.Sprintf("Audio input open failed: %v", err))
			return err
		}
		s.hasInput = true

		if err := s.audioIO.OpenOutput(); err != nil {
			log.Printf("Warning: No output device available. ACK sending disabled: %v", err)
			s.hasOutput = false
		} else {
			s.hasOutput = true
		}

	case ModeDuplex:
		// Need both
		if err := s.audioIO.OpenDuplex(); err != nil {
			s.setStatus(StatusError, fmt.Sprintf("Audio open failed: %v", err))
			return err
		}
		s.hasInput = true
		s.hasOutput = true
	}

	s.setStatus(StatusConnected, "Audio devices ready")
	return nil
}

// Close releases all resources.
func (s *Session) Close() error {
	s.setStatus(StatusDisconnected, "Session closed")
	return s.audioIO.Close()
}

// Events returns the event channel for monitoring session state.
func (s *Session) Events() <-chan SessionEvent {
	return s.eventChan
}

// Transport returns the transport layer for file transfer operations.
func (s *Session) Transport() *Transport {
	return s.transport
}

// sendFrame modulates and transmits a protocol frame.
func (s *Session) sendFrame(frame *Frame) error {
	if !s.hasOutput {
		return fmt.Errorf("no output device available")
	}

	frameBytes := frame.Encode()
	if s.reliable {
		encoded, err := s.rsEncoder.Encode(frameBytes)
		if err != nil {
			return fmt.Errorf("RS encode: %w", err)
		}
		frameBytes = encoded
	}

	signal, err := s.dsp.Modulate(frameBytes)
	if err != nil {
		return fmt.Errorf("modulate: %w", err)
	}
	samples32 := audio.SamplesToFloat32(signal)

	if err := s.audioIO.StartOutput(); err != nil {
		return fmt.Errorf("start output: %w", err)
	}
	defer s.audioIO.StopOutput()

	return s.audioIO.WriteSamples(samples32)
}

// receiveFrame captures audio for up to timeout and hands the whole
// capture to the modem for demodulation; the modem's own state machine
// handles carrier search and symbol sync internally, so no preamble or
// fixed symbol-length accounting is needed here.
func (s *Session) receiveFrame(timeout time.Duration) (*Frame, error) {
	if !s.hasInput {
		return nil, fmt.Errorf("no input device available")
	}

	if err := s.audioIO.StartInput(); err != nil {
		return nil, fmt.Errorf("start input: %w", err)
	}
	defer s.audioIO.StopInput()

	deadline := time.Now().Add(timeout)
	var allSamples []float64

	for time.Now().Before(deadline) {
		samples32, err := s.audioIO.Read()
		if err != nil {
			return nil, fmt.Errorf("read audio: %w", err)
		}
		allSamples = append(allSamples, audio.Float32ToSamples(samples32)...)
	}

	if len(allSamples) == 0 {
		return nil, fmt.Errorf("timeout: no samples captured")
	}

	allSamples = audio.ApplyDCRemoval(allSamples)
	allSamples = audio.ApplyAGC(allSamples, 0.3)

	data, err := s.dsp.Demodulate(allSamples)
	if err != nil {
		return nil, fmt.Errorf("demodulate: %w", err)
	}
	if len(data) == 0 {
		return nil, fmt.Errorf("timeout: no frame decoded")
	}

	if s.reliable {
		decoded, err := s.rsEncoder.Decode(data)
		if err != nil {
			return nil, fmt.Errorf("RS decode: %w", err)
		}
		data = decoded
	}

	frame, err := DecodeFrame(data)
	if err != nil {
		return nil, fmt.Errorf("decode frame: %w", err)
	}

	return frame, nil
}

func (s *Session) setStatus(status SessionStatus, message string) {
	s.status = status
	event := SessionEvent{
		Status:  status,
		Message: message,
	}
	select {
	case s.eventChan <- event:
	default:
		log.Printf("Event channel full, dropping: %s - %s", status, message)
	}
}
