package capture

import (
	"math"
	"sync"
)

const (
	minDecibels         = -100.0
	maxDecibels         = -30.0
	smoothingTimeConst  = 0.8
	blackmanAlpha       = 0.16
	defaultAnalyserSize = 256
)

// FFTAnalyser turns a stream of PCM samples into byte frequency data with
// the same scaling browsers use: Blackman window, smoothed magnitude,
// decibels mapped linearly from [minDecibels, maxDecibels] onto [0, 255].
type FFTAnalyser struct {
	mu       sync.Mutex
	size     int
	samples  []float64
	next     int
	window   []float64
	smoothed []float64
}

func NewFFTAnalyser(fftSize int) *FFTAnalyser {
	if fftSize < 32 || fftSize&(fftSize-1) != 0 {
		fftSize = defaultAnalyserSize
	}

	a0 := 0.5 * (1 - blackmanAlpha)
	a1 := 0.5
	a2 := blackmanAlpha * 0.5
	window := make([]float64, fftSize)
	for i := range window {
		x := float64(i) / float64(fftSize)
		window[i] = a0 - a1*math.Cos(2*math.Pi*x) + a2*math.Cos(4*math.Pi*x)
	}

	return &FFTAnalyser{
		size:     fftSize,
		samples:  make([]float64, fftSize),
		window:   window,
		smoothed: make([]float64, fftSize/2),
	}
}

func (a *FFTAnalyser) FrequencyBinCount() int {
	return a.size / 2
}

// Write appends time-domain samples in [-1, 1]; only the newest fftSize are
// kept.
func (a *FFTAnalyser) Write(samples []float32) {
	a.mu.Lock()
	defer a.mu.Unlock()
	for _, v := range samples {
		a.samples[a.next] = float64(v)
		a.next = (a.next + 1) % a.size
	}
}

func (a *FFTAnalyser) ByteFrequencyData(dst []byte) {
	a.mu.Lock()
	defer a.mu.Unlock()

	n := a.size
	frame := make([]float64, n)
	for i := 0; i < n; i++ {
		frame[i] = a.samples[(a.next+i)%n] * a.window[i]
	}

	bins := n / 2
	for k := 0; k < bins; k++ {
		var re, im float64
		for t := 0; t < n; t++ {
			angle := 2 * math.Pi * float64(k) * float64(t) / float64(n)
			re += frame[t] * math.Cos(angle)
			im -= frame[t] * math.Sin(angle)
		}
		mag := math.Hypot(re, im) / float64(n)
		a.smoothed[k] = smoothingTimeConst*a.smoothed[k] + (1-smoothingTimeConst)*mag
	}

	scale := 255.0 / (maxDecibels - minDecibels)
	for k := 0; k < bins && k < len(dst); k++ {
		db := minDecibels
		if a.smoothed[k] > 0 {
			db = 20 * math.Log10(a.smoothed[k])
		}
		v := scale * (db - minDecibels)
		switch {
		case v < 0:
			v = 0
		case v > 255:
			v = 255
		}
		dst[k] = byte(v)
	}
}
