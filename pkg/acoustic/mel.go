package acoustic

import "math"

// hzToMel converts frequency in Hz to mel scale.
func hzToMel(hz float64) float64 {
	return 2595.0 * math.Log10(1.0+hz/700.0)
}

// melToHz converts mel scale to frequency in Hz.
func melToHz(mel float64) float64 {
	return 700.0 * (math.Pow(10.0, mel/2595.0) - 1.0)
}

// melFilterbank computes triangular mel filterbank weights.
// Returns [numMels][halfFFT] weights.
func melFilterbank(numMels, fftSize, sampleRate int) [][]float64 {
	halfFFT := fftSize/2 + 1

	// Mel scale boundaries.
	melLow := hzToMel(0)
	melHigh := hzToMel(float64(sampleRate) / 2)

	// Equally spaced mel points.
	melPoints := make([]float64, numMels+2)
	for i := range melPoints {
		melPoints[i] = melLow + float64(i)*(melHigh-melLow)/float64(numMels+1)
	}

	// Convert back to Hz and then to FFT bin indices.
	binIndices := make([]int, numMels+2)
	for i := range melPoints {
		hz := melToHz(melPoints[i])
		binIndices[i] = int(math.Floor(hz * float64(fftSize) / float64(sampleRate)))
		if binIndices[i] >= halfFFT {
			binIndices[i] = halfFFT - 1
		}
	}

	// Build triangular filters.
	fb := make([][]float64, numMels)
	for m := 0; m < numMels; m++ {
		fb[m] = make([]float64, halfFFT)
		left := binIndices[m]
		center := binIndices[m+1]
		right := binIndices[m+2]

		// Rising slope.
		for k := left; k <= center; k++ {
			if center > left {
				fb[m][k] = float64(k-left) / float64(center-left)
			}
		}
		// Falling slope.
		for k := center; k <= right; k++ {
			if right > center {
				fb[m][k] = float64(right-k) / float64(right-center)
			}
		}
	}
	return fb
}

// dctII computes the orthonormal DCT-II of x, keeping the first numCoeffs
// coefficients. This is the final cepstral step on log mel energies.
func dctII(x []float64, numCoeffs int) []float64 {
	n := len(x)
	out := make([]float64, numCoeffs)
	scale0 := math.Sqrt(1.0 / float64(n))
	scale := math.Sqrt(2.0 / float64(n))
	for k := 0; k < numCoeffs && k < n; k++ {
		var sum float64
		for i := 0; i < n; i++ {
			sum += x[i] * math.Cos(math.Pi*float64(k)*(float64(i)+0.5)/float64(n))
		}
		if k == 0 {
			out[k] = sum * scale0
		} else {
			out[k] = sum * scale
		}
	}
	return out
}

// MFCC extracts mel-frequency cepstral coefficients from the waveform.
//
// The algorithm:
//  1. Apply pre-emphasis filter
//  2. Split into overlapping frames
//  3. Apply Hamming window
//  4. Compute power spectrum via FFT
//  5. Apply mel filterbank and take log energies
//  6. DCT-II, keeping the first NumCepstra coefficients
//
// Returns [numFrames][NumCepstra], or nil when the waveform is shorter
// than one frame.
func MFCC(samples []float64, cfg Config) [][]float64 {
	n := len(samples)
	if n < cfg.FrameLength {
		return nil
	}

	// Pre-emphasis on a copy; callers keep their waveform intact.
	emphasized := make([]float64, n)
	copy(emphasized, samples)
	if cfg.PreEmphasis > 0 {
		for i := n - 1; i > 0; i-- {
			emphasized[i] -= cfg.PreEmphasis * emphasized[i-1]
		}
		emphasized[0] *= 1.0 - cfg.PreEmphasis
	}

	numFrames := (n-cfg.FrameLength)/cfg.FrameShift + 1
	fftSize := nextPow2(cfg.FrameLength)
	halfFFT := fftSize/2 + 1

	window := hammingWindow(cfg.FrameLength)
	filterbank := melFilterbank(cfg.NumMels, fftSize, cfg.SampleRate)

	result := make([][]float64, numFrames)
	fftBuf := make([]complex128, fftSize)
	powerSpec := make([]float64, halfFFT)
	logMel := make([]float64, cfg.NumMels)

	for f := 0; f < numFrames; f++ {
		offset := f * cfg.FrameShift

		for i := range fftBuf {
			fftBuf[i] = 0
		}
		for i := 0; i < cfg.FrameLength; i++ {
			fftBuf[i] = complex(emphasized[offset+i]*window[i], 0)
		}
		fft(fftBuf)

		for k := 0; k < halfFFT; k++ {
			r := real(fftBuf[k])
			im := imag(fftBuf[k])
			powerSpec[k] = r*r + im*im
		}

		for m := 0; m < cfg.NumMels; m++ {
			var energy float64
			for k, w := range filterbank[m] {
				energy += w * powerSpec[k]
			}
			if energy < cfg.EnergyFloor {
				energy = cfg.EnergyFloor
			}
			logMel[m] = math.Log(energy)
		}

		result[f] = dctII(logMel, cfg.NumCepstra)
	}

	return result
}
