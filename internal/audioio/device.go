// Package audioio wires Athernet's ring buffers to a real sound card via
// PortAudio, and provides a WAV recorder for capturing raw link audio
// during debugging.
package audioio

import (
	"fmt"

	"github.com/gordonklaus/portaudio"

	"github.com/cwsl/athernet/internal/ring"
)

// DeviceInfo describes one enumerated PortAudio device, mirroring the
// teacher's AudioDevice shape.
type DeviceInfo struct {
	Index       int
	Name        string
	MaxInputs   int
	MaxOutputs  int
	SampleRate  float64
	IsDefault   bool
}

// ListDevices enumerates every PortAudio device visible on the host. It
// initializes and terminates PortAudio itself, so it's safe to call
// without the caller having touched PortAudio.
func ListDevices() ([]DeviceInfo, error) {
	if err := portaudio.Initialize(); err != nil {
		return nil, fmt.Errorf("audioio: initialize portaudio: %w", err)
	}
	defer portaudio.Terminate()

	devices, err := portaudio.Devices()
	if err != nil {
		return nil, fmt.Errorf("audioio: list devices: %w", err)
	}

	defIn, _ := portaudio.DefaultInputDevice()
	defOut, _ := portaudio.DefaultOutputDevice()

	out := make([]DeviceInfo, 0, len(devices))
	for i, d := range devices {
		isDefault := (defIn != nil && d.Name == defIn.Name) || (defOut != nil && d.Name == defOut.Name)
		out = append(out, DeviceInfo{
			Index:      i,
			Name:       d.Name,
			MaxInputs:  d.MaxInputChannels,
			MaxOutputs: d.MaxOutputChannels,
			SampleRate: d.DefaultSampleRate,
			IsDefault:  isDefault,
		})
	}
	return out, nil
}

// Device owns a full-duplex PortAudio stream and pumps samples between
// it and a pair of Athernet sample rings: mic input feeds rxRing, and
// txRing feeds speaker output.
type Device struct {
	stream *portaudio.Stream
	rx     *ring.Ring
	tx     *ring.Ring
}

// Open starts a full-duplex stream at sampleRate using PortAudio's
// default input/output devices, framing callback in blocks of
// framesPerBuffer samples.
func Open(sampleRate float64, framesPerBuffer int, rx, tx *ring.Ring) (*Device, error) {
	if err := portaudio.Initialize(); err != nil {
		return nil, fmt.Errorf("audioio: initialize portaudio: %w", err)
	}

	d := &Device{rx: rx, tx: tx}
	callback := func(in, out []float32) {
		if rx != nil && len(in) > 0 {
			rx.Push(len(in), func(dst []ring.Sample) { copy(dst, in) })
		}
		if tx != nil {
			n := tx.TryPop(len(out), func(src []ring.Sample) { copy(out, src) })
			if n < len(out) {
				for i := n; i < len(out); i++ {
					out[i] = 0
				}
			}
		} else {
			for i := range out {
				out[i] = 0
			}
		}
	}

	stream, err := portaudio.OpenDefaultStream(1, 1, sampleRate, framesPerBuffer, callback)
	if err != nil {
		portaudio.Terminate()
		return nil, fmt.Errorf("audioio: open stream: %w", err)
	}
	d.stream = stream
	if err := stream.Start(); err != nil {
		stream.Close()
		portaudio.Terminate()
		return nil, fmt.Errorf("audioio: start stream: %w", err)
	}
	return d, nil
}

// Close stops the stream and releases PortAudio.
func (d *Device) Close() error {
	if d.stream == nil {
		return nil
	}
	err := d.stream.Stop()
	if cerr := d.stream.Close(); err == nil {
		err = cerr
	}
	portaudio.Terminate()
	return err
}
