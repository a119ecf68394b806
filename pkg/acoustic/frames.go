package acoustic

import "math"

// Config controls frame-based analysis. Frame length and shift default to
// 25 ms / 10 ms at the configured sample rate.
type Config struct {
	SampleRate  int     // Input sample rate in Hz (default: 16000)
	FrameLength int     // Frame length in samples (default: 25ms worth)
	FrameShift  int     // Frame shift in samples (default: 10ms worth)
	NumMels     int     // Number of mel filterbank channels (default: 26)
	NumCepstra  int     // Number of cepstral coefficients kept (default: 13)
	PreEmphasis float64 // Pre-emphasis coefficient (default: 0.97)
	EnergyFloor float64 // Floor for log energy (default: 1e-10)
}

// DefaultConfig returns the analysis configuration for the given sample rate.
func DefaultConfig(sampleRate int) Config {
	if sampleRate <= 0 {
		sampleRate = 16000
	}
	return Config{
		SampleRate:  sampleRate,
		FrameLength: sampleRate / 40,  // 25ms
		FrameShift:  sampleRate / 100, // 10ms
		NumMels:     26,
		NumCepstra:  13,
		PreEmphasis: 0.97,
		EnergyFloor: 1e-10,
	}
}

// numFrames returns the number of full frames in n samples, or 0.
func (c Config) numFrames(n int) int {
	if n < c.FrameLength {
		return 0
	}
	return (n-c.FrameLength)/c.FrameShift + 1
}

// magnitudeFrames computes per-frame half-spectrum magnitudes (Hamming
// windowed, no pre-emphasis). Returns the frames and the FFT size used,
// or nil when the waveform is shorter than one frame.
func magnitudeFrames(samples []float64, cfg Config) ([][]float64, int) {
	numFrames := cfg.numFrames(len(samples))
	if numFrames == 0 {
		return nil, 0
	}
	fftSize := nextPow2(cfg.FrameLength)
	halfFFT := fftSize/2 + 1

	window := hammingWindow(cfg.FrameLength)
	frames := make([][]float64, numFrames)
	fftBuf := make([]complex128, fftSize)

	for f := 0; f < numFrames; f++ {
		offset := f * cfg.FrameShift
		for i := range fftBuf {
			fftBuf[i] = 0
		}
		for i := 0; i < cfg.FrameLength; i++ {
			fftBuf[i] = complex(samples[offset+i]*window[i], 0)
		}
		fft(fftBuf)

		mag := make([]float64, halfFFT)
		for k := 0; k < halfFFT; k++ {
			r := real(fftBuf[k])
			im := imag(fftBuf[k])
			mag[k] = math.Sqrt(r*r + im*im)
		}
		frames[f] = mag
	}
	return frames, fftSize
}

// SpectralCentroids returns the spectral centroid in Hz for each frame,
// or nil when the waveform is shorter than one frame. Frames with no
// spectral energy contribute a centroid of 0.
func SpectralCentroids(samples []float64, cfg Config) []float64 {
	frames, fftSize := magnitudeFrames(samples, cfg)
	if frames == nil {
		return nil
	}
	binHz := float64(cfg.SampleRate) / float64(fftSize)

	centroids := make([]float64, len(frames))
	for f, mag := range frames {
		var num, den float64
		for k, m := range mag {
			num += float64(k) * binHz * m
			den += m
		}
		if den > 0 {
			centroids[f] = num / den
		}
	}
	return centroids
}

// RMSEnergy returns the root-mean-square energy of each frame, or nil when
// the waveform is shorter than one frame.
func RMSEnergy(samples []float64, cfg Config) []float64 {
	numFrames := cfg.numFrames(len(samples))
	if numFrames == 0 {
		return nil
	}
	rms := make([]float64, numFrames)
	for f := 0; f < numFrames; f++ {
		offset := f * cfg.FrameShift
		var sum float64
		for i := 0; i < cfg.FrameLength; i++ {
			v := samples[offset+i]
			sum += v * v
		}
		rms[f] = math.Sqrt(sum / float64(cfg.FrameLength))
	}
	return rms
}

// ZeroCrossingRate returns the fraction of adjacent-sample sign changes in
// each frame, or nil when the waveform is shorter than one frame.
func ZeroCrossingRate(samples []float64, cfg Config) []float64 {
	numFrames := cfg.numFrames(len(samples))
	if numFrames == 0 {
		return nil
	}
	zcr := make([]float64, numFrames)
	for f := 0; f < numFrames; f++ {
		offset := f * cfg.FrameShift
		crossings := 0
		for i := 1; i < cfg.FrameLength; i++ {
			a := samples[offset+i-1]
			b := samples[offset+i]
			if (a >= 0) != (b >= 0) {
				crossings++
			}
		}
		zcr[f] = float64(crossings) / float64(cfg.FrameLength-1)
	}
	return zcr
}

// Chroma returns the mean 12-bin chroma vector across frames: spectral
// energy folded onto pitch classes and normalized so the strongest class
// is 1. Returns nil when the waveform is shorter than one frame.
func Chroma(samples []float64, cfg Config) []float64 {
	frames, fftSize := magnitudeFrames(samples, cfg)
	if frames == nil {
		return nil
	}
	binHz := float64(cfg.SampleRate) / float64(fftSize)

	chroma := make([]float64, 12)
	for _, mag := range frames {
		// Skip DC; map each bin's center frequency to a pitch class
		// relative to C (MIDI note mod 12).
		for k := 1; k < len(mag); k++ {
			hz := float64(k) * binHz
			if hz < 20 {
				continue
			}
			midi := 69 + 12*math.Log2(hz/440.0)
			pc := int(math.Round(midi)) % 12
			if pc < 0 {
				pc += 12
			}
			chroma[pc] += mag[k] * mag[k]
		}
	}
	for i := range chroma {
		chroma[i] /= float64(len(frames))
	}

	// Scale so the dominant pitch class is 1.
	var max float64
	for _, v := range chroma {
		if v > max {
			max = v
		}
	}
	if max > 1e-12 {
		for i := range chroma {
			chroma[i] /= max
		}
	}
	return chroma
}
