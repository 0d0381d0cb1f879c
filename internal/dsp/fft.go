package dsp

import (
	"math/cmplx"

	"github.com/mjibson/go-dsp/fft"
)

// DetectFFT locates every occurrence of header within samples using an
// FFT-based cross-power-spectrum correlation instead of the incremental
// sliding-window form in Detect. It trades the incremental detector's
// O(1)-per-sample streaming property for O(n log n) throughput over a
// whole buffer, which suits offline analysis of a recorded capture (for
// example the WAV debug recordings internal/audioio can produce) where
// the full buffer is available up front.
func DetectFFT(samples []float32, header []float32) []int {
	n := len(samples)
	if n == 0 || len(header) == 0 || len(header) > n {
		return nil
	}

	sig := make([]complex128, n)
	for i, v := range samples {
		sig[i] = complex(float64(v), 0)
	}
	ker := make([]complex128, n)
	for i, v := range header {
		ker[i] = complex(float64(v), 0)
	}

	sigF := fft.FFT(sig)
	kerF := fft.FFT(ker)
	prod := make([]complex128, n)
	for i := range prod {
		prod[i] = sigF[i] * cmplx.Conj(kerF[i])
	}
	corr := fft.IFFT(prod)

	var headerEnergy float64
	for _, v := range header {
		headerEnergy += float64(v) * float64(v)
	}
	if headerEnergy == 0 {
		return nil
	}

	threshold := 0.5
	var peaks []int
	headerLen := len(header)
	for i := 0; i < n; i++ {
		mag := real(corr[i]) / headerEnergy
		if mag > threshold {
			peaks = append(peaks, (i+headerLen)%n)
		}
	}
	return peaks
}
