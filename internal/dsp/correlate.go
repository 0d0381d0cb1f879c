package dsp

// Detector incrementally searches a sample stream for a known preamble
// using normalized sliding cross-correlation against a running average
// power, the same heuristic the original header-detection routine uses:
// a candidate position is accepted once correlation exceeds both the
// local power estimate and a fixed floor, and is confirmed once
// correlation has been falling for header_length samples past the peak.
type Detector struct {
	header []float32
	sum    float32 // energy of the header, used to normalize correlation

	window        []float32 // ring of the last len(header) samples
	writeAt       int
	power         float32
	maxCorr       float32
	startIndex    int
	index         int
	haveCandidate bool
}

// NewDetector builds a Detector for the given preamble.
func NewDetector(header []float32) *Detector {
	var sum float32
	for _, v := range header {
		sum += v * v
	}
	return &Detector{
		header: header,
		sum:    sum,
		window: make([]float32, len(header)),
	}
}

// Feed processes one incoming sample. It returns the index (relative to
// the first sample ever fed) at which the preamble ends, once detection
// confirms a peak; ok is false otherwise.
func (d *Detector) Feed(value float32) (endIndex int, ok bool) {
	n := len(d.header)
	d.power = (d.power*float32(n-1) + value*value) / float32(n)

	d.window[d.writeAt] = value
	d.writeAt = (d.writeAt + 1) % n

	var corr float32
	for i := 0; i < n; i++ {
		sampleIdx := (d.writeAt + i) % n
		corr += d.window[sampleIdx] * d.header[i]
	}
	corr /= d.sum

	idx := d.index
	d.index++

	switch {
	case corr > d.power && corr > d.maxCorr && corr > 0.5:
		d.maxCorr = corr
		d.startIndex = idx
		d.haveCandidate = true
	case d.haveCandidate && idx-d.startIndex > n && d.startIndex != 0:
		result := d.startIndex + 1
		d.reset()
		return result, true
	}
	return 0, false
}

func (d *Detector) reset() {
	d.maxCorr = 0
	d.startIndex = 0
	d.haveCandidate = false
}

// Detect runs the detector over a full slice of samples in one call,
// mirroring the original one-shot detect_header helper used by tests and
// offline tooling.
func Detect(samples []float32, header []float32) (int, bool) {
	d := NewDetector(header)
	for _, s := range samples {
		if idx, ok := d.Feed(s); ok {
			return idx, true
		}
	}
	return 0, false
}
