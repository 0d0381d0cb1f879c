package audioio

import (
	"encoding/binary"
	"fmt"
	"io"
	"os"
)

// WAVRecorder captures a stream of float32 samples to a 16-bit PCM WAV
// file, a debugging aid for inspecting raw link audio the way the
// teacher's binary PCM tooling inspects raw radio audio.
type WAVRecorder struct {
	f          *os.File
	sampleRate int
	samples    int
}

// NewWAVRecorder creates path and reserves space for a RIFF header,
// which is backfilled with the correct sizes on Close.
func NewWAVRecorder(path string, sampleRate int) (*WAVRecorder, error) {
	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("audioio: create wav: %w", err)
	}
	w := &WAVRecorder{f: f, sampleRate: sampleRate}
	if _, err := f.Write(make([]byte, 44)); err != nil {
		f.Close()
		return nil, fmt.Errorf("audioio: reserve wav header: %w", err)
	}
	return w, nil
}

// Write appends samples, converting each from [-1,1] float32 to int16.
func (w *WAVRecorder) Write(samples []float32) error {
	buf := make([]byte, len(samples)*2)
	for i, s := range samples {
		if s > 1 {
			s = 1
		} else if s < -1 {
			s = -1
		}
		binary.LittleEndian.PutUint16(buf[i*2:], uint16(int16(s*32767)))
	}
	if _, err := w.f.Write(buf); err != nil {
		return fmt.Errorf("audioio: write wav samples: %w", err)
	}
	w.samples += len(samples)
	return nil
}

// ReadWAV loads a 16-bit mono PCM WAV file back into float32 samples in
// [-1,1], the inverse of WAVRecorder.Write. It's used by offline analysis
// tools (not the live capture path) to replay a debug recording.
func ReadWAV(path string) ([]float32, int, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, 0, fmt.Errorf("audioio: read wav: %w", err)
	}
	if len(data) < 44 || string(data[0:4]) != "RIFF" || string(data[8:12]) != "WAVE" {
		return nil, 0, fmt.Errorf("audioio: %s is not a RIFF/WAVE file", path)
	}
	sampleRate := int(binary.LittleEndian.Uint32(data[24:28]))

	offset := 12
	var pcm []byte
	for offset+8 <= len(data) {
		id := string(data[offset : offset+4])
		size := int(binary.LittleEndian.Uint32(data[offset+4 : offset+8]))
		body := data[offset+8:]
		if size > len(body) {
			size = len(body)
		}
		if id == "data" {
			pcm = body[:size]
			break
		}
		offset += 8 + size + size%2
	}
	if pcm == nil {
		return nil, 0, fmt.Errorf("audioio: %s has no data chunk", path)
	}

	samples := make([]float32, len(pcm)/2)
	for i := range samples {
		v := int16(binary.LittleEndian.Uint16(pcm[i*2:]))
		samples[i] = float32(v) / 32767
	}
	return samples, sampleRate, nil
}

// Close backfills the RIFF/fmt/data header with final sizes and closes
// the file.
func (w *WAVRecorder) Close() error {
	dataBytes := uint32(w.samples * 2)
	header := make([]byte, 44)
	copy(header[0:4], "RIFF")
	binary.LittleEndian.PutUint32(header[4:8], 36+dataBytes)
	copy(header[8:12], "WAVE")
	copy(header[12:16], "fmt ")
	binary.LittleEndian.PutUint32(header[16:20], 16)
	binary.LittleEndian.PutUint16(header[20:22], 1) // PCM
	binary.LittleEndian.PutUint16(header[22:24], 1)  // mono
	binary.LittleEndian.PutUint32(header[24:28], uint32(w.sampleRate))
	byteRate := uint32(w.sampleRate * 2)
	binary.LittleEndian.PutUint32(header[28:32], byteRate)
	binary.LittleEndian.PutUint16(header[32:34], 2) // block align
	binary.LittleEndian.PutUint16(header[34:36], 16) // bits per sample
	copy(header[36:40], "data")
	binary.LittleEndian.PutUint32(header[40:44], dataBytes)

	if _, err := w.f.Seek(0, io.SeekStart); err != nil {
		w.f.Close()
		return fmt.Errorf("audioio: seek wav header: %w", err)
	}
	if _, err := w.f.Write(header); err != nil {
		w.f.Close()
		return fmt.Errorf("audioio: write wav header: %w", err)
	}
	return w.f.Close()
}
