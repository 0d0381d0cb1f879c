// Package physical turns a bit stream into a modulated waveform and back,
// framed by a chirp preamble for synchronization. It owns one SampleRing
// for each direction and exposes a Send/Receive pair the link layer drives.
package physical

import (
	"log"
	"time"

	"github.com/cwsl/athernet/internal/dsp"
	"github.com/cwsl/athernet/internal/linecode"
	"github.com/cwsl/athernet/internal/ring"
)

// Config holds the tunables spec.md requires to be configurable rather
// than compiled in.
type Config struct {
	SampleRate      int
	PreambleLen     int
	PreambleFreqLo  float32
	PreambleFreqHi  float32
	PaddingZeroByte int // trailing silence appended after each frame, in bytes-worth of bits
	MaxFrameBytes   int // largest LinkFrame payload this layer will ever be asked to carry
}

// Layer is the physical layer: it owns the input/output sample rings and
// the amplitude-tracking and preamble-correlation state that persists
// across frames.
type Layer struct {
	cfg      Config
	preamble []float32
	in       *ring.Ring
	out      *ring.Ring
	log      *log.Logger

	zero       ZeroReader
	detector   *dsp.Detector
	samplesFed int       // total samples ever fed to detector, for mapping its absolute index back into leftover
	leftover   []float32 // samples pulled from the ring but not yet consumed by a decode
}

const readChunk = 4096

// New constructs a Layer around caller-owned input/output rings (the
// rings the audio device's capture/playback callbacks drain and fill).
func New(cfg Config, in, out *ring.Ring, logger *log.Logger) *Layer {
	if logger == nil {
		logger = log.Default()
	}
	preamble := dsp.Chirp(cfg.PreambleLen, cfg.PreambleFreqLo, cfg.PreambleFreqHi, cfg.SampleRate)
	return &Layer{
		cfg:      cfg,
		preamble: preamble,
		in:       in,
		out:      out,
		log:      logger,
		zero:     NewZeroReader(),
		detector: dsp.NewDetector(preamble),
	}
}

// Send line-codes bits, modulates them at two samples per bit, prepends the
// preamble, appends trailing silence, and pushes the result onto the output
// ring. Send blocks until the output ring has room.
func (l *Layer) Send(bits []bool) {
	coded := linecode.EncodeNRZI(linecode.Encode4b5b(bits))

	samples := make([]float32, 0, len(l.preamble)+len(coded)*samplesPerBit+l.cfg.PaddingZeroByte*8)
	samples = append(samples, l.preamble...)
	for _, b := range coded {
		v := float32(-1.0)
		if b {
			v = 1.0
		}
		samples = append(samples, v, v)
	}
	for i := 0; i < l.cfg.PaddingZeroByte*8; i++ {
		samples = append(samples, 0)
	}

	l.out.Push(len(samples), func(dst []float32) { copy(dst, samples) })
}

// Receive blocks until a full frame has been demodulated, validated
// against the preamble, and 4b/5b+NRZI decoded back to bits. A frame only
// starts once the chirp preamble has been located by cross-correlation
// (locatePreamble); this is what lets Receive resynchronize after silence,
// noise, or a previous decode failure rather than treating the first
// non-silent sample as the start of data. A frame whose bits fail 4b/5b
// decoding is dropped and the preamble search resumes on the samples that
// follow it; the channel is not drained to silence first. Only when the
// ring closes before a frame's end does Receive drain the buffered
// samples up to a silence window (drainUntilSilent), and it then returns
// nil rather than a partial frame. Receive returns nil once the
// underlying ring is closed and drained.
func (l *Layer) Receive() []bool {
	for {
		if !l.locatePreamble() {
			return nil
		}

		for {
			if !l.fill(samplesPerBit + 1) {
				return nil
			}

			reader := l.zero.ToSampleReader()
			decoded, consumed, endOfFrame := reader.ReadAll(l.leftover)
			if !endOfFrame {
				// Ran out of buffered samples before the frame ended:
				// either more is coming, or the channel is jammed. Pull
				// more and retry from the same position; if nothing more
				// ever comes, give up on this frame.
				if l.growMore() {
					continue
				}
				l.drainUntilSilent()
				return nil
			}
			l.zero = reader.ToZeroReader()
			l.leftover = append([]float32(nil), l.leftover[consumed:]...)

			out, ok := linecode.Decode4b5b(linecode.DecodeNRZI(decoded))
			if !ok {
				l.log.Printf("physical: 4b/5b decode failure, dropping frame")
				break
			}
			return out
		}
	}
}

// locatePreamble feeds buffered samples through the chirp cross-correlator
// one at a time, pulling more from the input ring as needed, until the
// preamble's end is found. It leaves l.leftover positioned exactly at the
// first post-preamble sample. It returns false once the ring closes with
// no preamble ever found.
func (l *Layer) locatePreamble() bool {
	base := l.samplesFed
	pos := 0
	for {
		for pos < len(l.leftover) {
			end, ok := l.detector.Feed(l.leftover[pos])
			pos++
			l.samplesFed++
			if ok {
				cut := end - base
				if cut < 0 {
					cut = 0
				}
				if cut > len(l.leftover) {
					cut = len(l.leftover)
				}
				l.leftover = append([]float32(nil), l.leftover[cut:]...)
				return true
			}
		}
		if !l.growMore() {
			l.leftover = l.leftover[:0]
			return false
		}
	}
}

// ReceiveTimeout behaves like Receive but gives up and returns ok=false
// if no frame arrives within d. The link layer's stop-and-wait state
// machine uses this to bound how long it waits for an ACK or for the
// next incoming frame, the same role tokio::time::timeout plays in the
// reference implementation.
func (l *Layer) ReceiveTimeout(d time.Duration) (bits []bool, ok bool) {
	result := make(chan []bool, 1)
	go func() { result <- l.Receive() }()
	select {
	case bits = <-result:
		return bits, true
	case <-time.After(d):
		return nil, false
	}
}

// fill ensures at least min samples are buffered in l.leftover, pulling
// more from the input ring as needed. It returns false once the ring is
// closed and can supply no further samples.
func (l *Layer) fill(min int) bool {
	for len(l.leftover) < min {
		if !l.growMore() {
			return len(l.leftover) >= min
		}
	}
	return true
}

// growMore unconditionally pulls one more chunk of samples from the input
// ring (blocking until at least one sample is available), returning false
// only once the ring is closed and empty.
func (l *Layer) growMore() bool {
	n, ok := l.in.PopAtLeast(1, readChunk, func(src []float32) {
		l.leftover = append(l.leftover, src...)
	})
	return ok && n > 0
}

// drainUntilSilent consumes samples in small chunks until the channel has
// returned to sustained silence, matching the reference implementation's
// jam-recovery behavior: better to discard a corrupted in-flight frame
// than to hand the link layer a CRC failure it could have avoided.
func (l *Layer) drainUntilSilent() {
	for {
		if !l.fill(samplesPerBit + 1) {
			return
		}
		reader := l.zero.ToSampleReader()
		data := l.leftover
		eof := false
		for len(data) > samplesPerBit {
			_, used, result := reader.Read(data)
			if result == ReadEndOfFrame {
				eof = true
				break
			}
			data = data[used:]
		}
		l.zero = reader.ToZeroReader()
		l.leftover = l.leftover[:0]
		if eof {
			return
		}
	}
}
