// Package modemerr defines the error taxonomy shared by every modem
// variant and supporting component.
package modemerr

import "fmt"

// Class identifies which row of the error taxonomy an error belongs to.
type Class int

const (
	// Config marks invalid construction parameters, e.g. a sample rate
	// too low for the requested bandwidth, or a non-odd redundancy.
	Config Class = iota
	// Resource marks an allocation or FFT/resampler plan failure.
	Resource
	// Calibration marks a failed tone-calibration sweep.
	Calibration
	// Frame marks a non-fatal spectral-frame failure (NaN/Inf, resampler
	// hiccup); the analyzer resets itself and stays usable.
	Frame
	// PacketOverflow marks a payload that exceeds the 16-bit length prefix.
	PacketOverflow
)

func (c Class) String() string {
	switch c {
	case Config:
		return "ConfigError"
	case Resource:
		return "ResourceError"
	case Calibration:
		return "CalibrationError"
	case Frame:
		return "FrameError"
	case PacketOverflow:
		return "PacketOverflow"
	default:
		return "UnknownError"
	}
}

// Error wraps a taxonomy Class with a specific message and, optionally,
// an underlying cause.
type Error struct {
	Class Class
	Msg   string
	Cause error
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Class, e.Msg, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Class, e.Msg)
}

func (e *Error) Unwrap() error { return e.Cause }

// Is reports whether target is an *Error of the same Class, so callers
// can write errors.Is(err, modemerr.ErrConfig) style checks against the
// sentinels below.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Class == e.Class && t.Msg == ""
}

func newSentinel(c Class) *Error { return &Error{Class: c} }

// Sentinels for errors.Is comparisons: errors.Is(err, modemerr.ErrConfig).
var (
	ErrConfig         = newSentinel(Config)
	ErrResource       = newSentinel(Resource)
	ErrCalibration    = newSentinel(Calibration)
	ErrFrame          = newSentinel(Frame)
	ErrPacketOverflow = newSentinel(PacketOverflow)
)

func Configf(format string, args ...any) error {
	return &Error{Class: Config, Msg: fmt.Sprintf(format, args...)}
}

func Resourcef(cause error, format string, args ...any) error {
	return &Error{Class: Resource, Msg: fmt.Sprintf(format, args...), Cause: cause}
}

func Calibrationf(format string, args ...any) error {
	return &Error{Class: Calibration, Msg: fmt.Sprintf(format, args...)}
}

func Framef(format string, args ...any) error {
	return &Error{Class: Frame, Msg: fmt.Sprintf(format, args...)}
}

func PacketOverflowf(format string, args ...any) error {
	return &Error{Class: PacketOverflow, Msg: fmt.Sprintf(format, args...)}
}
