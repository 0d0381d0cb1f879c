// Command athernet is the Athernet modem: it turns a sound card into an
// unreliable half-duplex network link and carries a reliable byte
// stream over it, optionally bridging the result onto a real network
// interface.
package main

import (
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/cwsl/athernet/internal/audioio"
	"github.com/cwsl/athernet/internal/bridge"
	"github.com/cwsl/athernet/internal/config"
	"github.com/cwsl/athernet/internal/dsp"
	"github.com/cwsl/athernet/internal/link"
	"github.com/cwsl/athernet/internal/linecode"
	"github.com/cwsl/athernet/internal/metrics"
	"github.com/cwsl/athernet/internal/physical"
	"github.com/cwsl/athernet/internal/ring"
	"github.com/cwsl/athernet/internal/transport"
)

func main() {
	configFile := flag.String("config", "athernet.yaml", "Path to configuration file")
	inputDevice := flag.String("input-device", "", "Override the configured input device name (the audio stream always opens the system default devices)")
	outputDevice := flag.String("output-device", "", "Override the configured output device name (the audio stream always opens the system default devices)")
	peerAddress := flag.String("peer-address", "", "Override the configured bridge peer address (host:port)")
	sendFile := flag.String("file", "", "File to send reliably to the peer; with no file the modem only receives")
	listDevices := flag.Bool("list-devices", false, "List available audio devices and exit")
	analyzeWAV := flag.String("analyze-wav", "", "Offline-scan a recorded WAV capture for preamble occurrences (via FFT cross-correlation) and exit")
	flag.Parse()

	if *listDevices {
		devices, err := audioio.ListDevices()
		if err != nil {
			log.Fatalf("athernet: list devices: %v", err)
		}
		for _, d := range devices {
			fmt.Printf("[%2d] %-40s in=%d out=%d rate=%.0f default=%v\n",
				d.Index, d.Name, d.MaxInputs, d.MaxOutputs, d.SampleRate, d.IsDefault)
		}
		return
	}

	cfg, err := config.Load(*configFile)
	if err != nil {
		log.Fatalf("athernet: load config: %v", err)
	}

	if *analyzeWAV != "" {
		analyzeWAVCapture(*analyzeWAV, cfg)
		return
	}
	if *inputDevice != "" {
		cfg.Audio.InputDevice = *inputDevice
	}
	if *outputDevice != "" {
		cfg.Audio.OutputDevice = *outputDevice
	}
	if *peerAddress != "" {
		cfg.Bridge.PeerAddr = *peerAddress
	}

	var rec metrics.Recorder = metrics.NoopRecorder{}
	if cfg.Metrics.Enabled {
		rec = metrics.NewPrometheus()
		go func() {
			mux := http.NewServeMux()
			mux.Handle("/metrics", promhttp.Handler())
			log.Printf("athernet: metrics listening on %s", cfg.Metrics.Listen)
			if err := http.ListenAndServe(cfg.Metrics.Listen, mux); err != nil {
				log.Printf("athernet: metrics server stopped: %v", err)
			}
		}()
	}

	rxRing := ring.New(cfg.Physical.RingCapacity)
	txRing := ring.New(cfg.Physical.RingCapacity)

	dev, err := audioio.Open(float64(cfg.Audio.SampleRate), cfg.Audio.FramesPerBuffer, rxRing, txRing)
	if err != nil {
		log.Fatalf("athernet: open audio device: %v", err)
	}
	defer dev.Close()

	if cfg.Audio.RecordWAV != "" {
		wav, err := audioio.NewWAVRecorder(cfg.Audio.RecordWAV, cfg.Audio.SampleRate)
		if err != nil {
			log.Printf("athernet: wav recorder disabled: %v", err)
		} else {
			defer wav.Close()
		}
	}

	physCfg := physical.Config{
		SampleRate:      cfg.Audio.SampleRate,
		PreambleLen:     cfg.Physical.PreambleLen,
		PreambleFreqLo:  cfg.Physical.PreambleFreqLo,
		PreambleFreqHi:  cfg.Physical.PreambleFreqHi,
		PaddingZeroByte: cfg.Physical.PaddingZeroByte,
		MaxFrameBytes:   cfg.Physical.MaxFrameBytes,
	}
	phys := physical.New(physCfg, rxRing, txRing, log.New(os.Stderr, "physical: ", log.LstdFlags))

	packetIO := &framePacketIO{phys: phys, src: cfg.Link.Address, metrics: rec}
	transportConn := transport.NewConn(packetIO, cfg.Transport.SegmentLen, log.New(os.Stderr, "transport: ", log.LstdFlags))

	var payload []byte
	if *sendFile != "" {
		payload, err = os.ReadFile(*sendFile)
		if err != nil {
			log.Fatalf("athernet: read %s: %v", *sendFile, err)
		}
	}

	var brg *bridge.Server
	if cfg.Bridge.Enabled {
		brg, err = bridge.NewServer(bridge.Config{ListenAddr: cfg.Bridge.ListenAddr, PeerAddr: cfg.Bridge.PeerAddr}, log.New(os.Stderr, "bridge: ", log.LstdFlags))
		if err != nil {
			log.Fatalf("athernet: start bridge: %v", err)
		}
		defer brg.Close()
	}

	received, err := transportConn.Run(payload)
	if err != nil {
		log.Fatalf("athernet: transport session failed: %v", err)
	}
	log.Printf("athernet: transfer complete, received %d bytes", len(received))

	if brg != nil && len(received) > 0 {
		if err := brg.ForwardOut(received); err != nil {
			log.Printf("athernet: forward to bridge peer: %v", err)
		}
	}
}

// analyzeWAVCapture replays a WAV debug recording (see cfg.Audio.RecordWAV)
// and reports every chirp preamble occurrence found via FFT-based
// cross-correlation. It's an offline counterpart to the live Receive path's
// incremental detector: the whole buffer is available up front here, so
// dsp.DetectFFT's O(n log n) bulk correlation is the better fit than
// feeding the incremental Detector one sample at a time.
func analyzeWAVCapture(path string, cfg *config.Config) {
	samples, sampleRate, err := audioio.ReadWAV(path)
	if err != nil {
		log.Fatalf("athernet: analyze-wav: %v", err)
	}
	preamble := dsp.Chirp(cfg.Physical.PreambleLen, cfg.Physical.PreambleFreqLo, cfg.Physical.PreambleFreqHi, sampleRate)
	peaks := dsp.DetectFFT(samples, preamble)
	fmt.Printf("%s: %d samples at %dHz, %d preamble occurrence(s)\n", path, len(samples), sampleRate, len(peaks))
	for _, idx := range peaks {
		fmt.Printf("  preamble ends at sample %d (t=%.3fs)\n", idx, float64(idx)/float64(sampleRate))
	}
}

// framePacketIO carries transport.Packets over the acoustic link by
// wrapping each one in a single link.Frame and pushing it through the
// physical layer directly: transport's own SACK-based retransmission
// supplies reliability, so packets don't need link's stop-and-wait ACK
// on top of it, only its CRC-checked framing.
type framePacketIO struct {
	phys    *physical.Layer
	src     byte
	metrics metrics.Recorder
}

func (f *framePacketIO) Send(p transport.Packet) {
	frame := link.Frame{Src: f.src, Payload: p.Encode()}
	encoded := frame.Encode()
	f.metrics.ObserveFrameBytes(len(encoded))
	f.phys.Send(linecode.BytesToBits(encoded))
}

func (f *framePacketIO) Recv() (transport.Packet, bool) {
	for {
		bits, ok := f.phys.ReceiveTimeout(5 * time.Second)
		if !ok {
			return transport.Packet{}, false
		}
		frame, ok := link.Decode(linecode.BitsToBytes(bits))
		if !ok {
			f.metrics.CRCMismatch()
			continue
		}
		if frame.Src == f.src {
			continue
		}
		p, ok := transport.Decode(frame.Payload)
		if !ok {
			f.metrics.HeaderDecodeFailure()
			continue
		}
		return p, true
	}
}
