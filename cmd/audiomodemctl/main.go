// Command audiomodemctl is a thin demonstration binary wiring the
// audiomodem DSP core to a file, microphone/speaker, or websocket
// monitor, exactly the ambient-tooling role the teacher's own
// cmd/server plays for its original OFDM core.
package main

import (
	"errors"
	"flag"
	"fmt"
	"log"
	"math/rand"
	"os"
	"strings"

	"github.com/danieltabor/audiomodem-go/internal/audio"
	"github.com/danieltabor/audiomodem-go/internal/corr"
	"github.com/danieltabor/audiomodem-go/internal/framer"
	"github.com/danieltabor/audiomodem-go/internal/modem"
	"github.com/danieltabor/audiomodem-go/internal/modemerr"
	"github.com/gorilla/websocket"
)

func main() {
	samplerate := flag.Int("samplerate", 8000, "audio sample rate in Hz")
	bitrate := flag.Int("bitrate", 64, "bit rate in bits/sec")
	bandwidth := flag.Int("bandwidth", 3000, "analyzer bandwidth in Hz")
	symbols := flag.Int("symbols", 4, "symbol alphabet size (FSK/PSK variants)")
	freq := flag.Float64("freq", 1000, "carrier frequency in Hz (OOK/PSK-clk/correlation variants)")
	variantName := flag.String("variant", "fskclk", "modulation scheme: fsk|fskclk|ook|pskclk|corrfsk|corrpsk|corrfpsk")
	pkt := flag.Int("pkt", 0, "packet-framer bit redundancy (odd, 0 disables framing)")
	noise := flag.Float64("noise", 0, "inject uniform noise of this amplitude into the modulated waveform")
	threshold := flag.Float64("threshold", 0, "override the variant's detection threshold (0 keeps the default)")
	verbose := flag.Bool("verbose", false, "enable diagnostic traces")

	in := flag.String("in", "", "input WAV file to demodulate")
	out := flag.String("out", "", "output WAV file to write modulated audio to")
	msg := flag.String("msg", "", "inline message to modulate")

	mic := flag.Bool("mic", false, "capture from the default microphone instead of -in")
	speaker := flag.Bool("speaker", false, "play through the default speaker instead of -out")
	monitor := flag.String("monitor", "", "websocket address to additionally stream telemetry to")

	flag.Parse()

	if err := run(runConfig{
		samplerate: *samplerate, bitrate: *bitrate, bandwidth: *bandwidth,
		symbols: *symbols, freq: *freq, variantName: *variantName,
		pkt: *pkt, noise: *noise, threshold: *threshold, verbose: *verbose,
		in: *in, out: *out, msg: *msg,
		mic: *mic, speaker: *speaker, monitor: *monitor,
	}); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(exitCode(err))
	}
}

type runConfig struct {
	samplerate, bitrate, bandwidth, symbols, pkt int
	freq, noise, threshold                       float64
	variantName                                  string
	verbose                                      bool
	in, out, msg                                 string
	mic, speaker                                 bool
	monitor                                      string
}

func run(cfg runConfig) error {
	variant, params, err := resolveVariant(cfg)
	if err != nil {
		return err
	}

	m, err := modem.New(variant, params)
	if err != nil {
		return fmt.Errorf("construct modem: %w", err)
	}
	m.SetVerbose(cfg.verbose)

	if cfg.pkt > 0 {
		f, err := framer.New(cfg.pkt, []byte{0x5A})
		if err != nil {
			return fmt.Errorf("construct framer: %w", err)
		}
		m.AttachPacketFramer(f)
	}

	if cfg.threshold > 0 {
		if err := m.SetThreshold(cfg.threshold); err != nil {
			return fmt.Errorf("set threshold: %w", err)
		}
	}

	var monitorConn *websocket.Conn
	if cfg.monitor != "" {
		conn, _, err := websocket.DefaultDialer.Dial(cfg.monitor, nil)
		if err != nil {
			return fmt.Errorf("dial monitor: %w", err)
		}
		defer conn.Close()
		monitorConn = conn
	}

	switch {
	case cfg.msg != "" || cfg.out != "" || cfg.speaker:
		return modulateFlow(cfg, m, monitorConn)
	case cfg.in != "" || cfg.mic:
		return demodulateFlow(cfg, m, monitorConn)
	default:
		return errors.New("nothing to do: specify -msg/-out/-speaker to modulate or -in/-mic to demodulate")
	}
}

func modulateFlow(cfg runConfig, m *modem.Modem, monitor *websocket.Conn) error {
	data := []byte(cfg.msg)

	samples, err := m.Modulate(data)
	if err != nil {
		return fmt.Errorf("modulate: %w", err)
	}
	samples = injectNoise(samples, cfg.noise, rand.Float64)

	notifyMonitor(monitor, fmt.Sprintf("modulated %d bytes into %d samples", len(data), len(samples)))

	if cfg.speaker {
		if err := audio.Init(); err != nil {
			return fmt.Errorf("init portaudio: %w", err)
		}
		defer audio.Terminate()

		io := audio.NewAudioIO(cfg.samplerate, audio.DefaultFramesPerBuf)
		if err := io.OpenOutput(); err != nil {
			return fmt.Errorf("open speaker: %w", err)
		}
		defer io.Close()
		if err := io.StartOutput(); err != nil {
			return fmt.Errorf("start speaker: %w", err)
		}
		defer io.StopOutput()
		return io.WriteSamples(audio.SamplesToFloat32(samples))
	}

	if cfg.out == "" {
		return errors.New("-out is required unless -speaker is set")
	}
	return writeWav(cfg.out, samples, cfg.samplerate)
}

func demodulateFlow(cfg runConfig, m *modem.Modem, monitor *websocket.Conn) error {
	var samples []float64

	if cfg.mic {
		if err := audio.Init(); err != nil {
			return fmt.Errorf("init portaudio: %w", err)
		}
		defer audio.Terminate()

		io := audio.NewAudioIO(cfg.samplerate, audio.DefaultFramesPerBuf)
		if err := io.OpenInput(); err != nil {
			return fmt.Errorf("open microphone: %w", err)
		}
		defer io.Close()
		if err := io.StartInput(); err != nil {
			return fmt.Errorf("start microphone: %w", err)
		}
		defer io.StopInput()

		const captureSeconds = 5
		n := cfg.samplerate * captureSeconds
		for len(samples) < n {
			chunk, err := io.Read()
			if err != nil {
				return fmt.Errorf("read microphone: %w", err)
			}
			samples = append(samples, audio.Float32ToSamples(chunk)...)
		}
	} else {
		if cfg.in == "" {
			return errors.New("-in is required unless -mic is set")
		}
		s, _, err := readWav(cfg.in)
		if err != nil {
			return err
		}
		samples = s
	}

	samples = audio.ApplyDCRemoval(samples)
	samples = audio.ApplyAGC(samples, 0.3)

	data, err := m.Demodulate(samples)
	if err != nil {
		return fmt.Errorf("demodulate: %w", err)
	}

	notifyMonitor(monitor, fmt.Sprintf("demodulated %d bytes from %d samples", len(data), len(samples)))
	fmt.Printf("%s\n", data)
	return nil
}

func notifyMonitor(conn *websocket.Conn, msg string) {
	if conn == nil {
		return
	}
	if err := conn.WriteJSON(map[string]string{"type": "log", "message": msg}); err != nil {
		log.Printf("monitor write failed: %v", err)
	}
}

func resolveVariant(cfg runConfig) (modem.Variant, modem.Params, error) {
	params := modem.Params{
		Samplerate: cfg.samplerate,
		Bitrate:    cfg.bitrate,
		Bandwidth:  cfg.bandwidth,
		Symbols:    cfg.symbols,
		Freq:       cfg.freq,
	}

	switch strings.ToLower(cfg.variantName) {
	case "fsk":
		return modem.VariantFsk, params, nil
	case "fskclk", "":
		return modem.VariantFskClk, params, nil
	case "ook":
		return modem.VariantOok, params, nil
	case "pskclk":
		return modem.VariantPskClk, params, nil
	case "corrfsk", "corrpsk", "corrfpsk":
		symLen := cfg.samplerate / cfg.bitrate
		switch strings.ToLower(cfg.variantName) {
		case "corrfsk":
			freqs := make([]float64, cfg.symbols)
			for i := range freqs {
				freqs[i] = cfg.freq + float64(i)*200
			}
			params.Templates = corr.FskTemplates(freqs, cfg.samplerate, symLen)
		case "corrpsk":
			params.Templates = corr.PskTemplates(cfg.freq, cfg.symbols, cfg.samplerate, symLen)
		case "corrfpsk":
			freqs := []float64{cfg.freq, cfg.freq + 400}
			params.Templates = corr.FpskTemplates(freqs, cfg.symbols, cfg.samplerate, symLen)
		}
		return modem.VariantCorr, params, nil
	default:
		return 0, modem.Params{}, fmt.Errorf("unknown variant %q", cfg.variantName)
	}
}

func exitCode(err error) int {
	var me *modemerr.Error
	if errors.As(err, &me) {
		return int(me.Class) + 1
	}
	return 1
}
