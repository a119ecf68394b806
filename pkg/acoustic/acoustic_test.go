package acoustic

import (
	"math"
	"testing"
)

// sineWave generates amplitude-scaled sine samples at the given frequency.
func sineWave(freq float64, n, sampleRate int, amplitude float64) []float64 {
	samples := make([]float64, n)
	for i := range samples {
		samples[i] = amplitude * math.Sin(2*math.Pi*freq*float64(i)/float64(sampleRate))
	}
	return samples
}

func TestMFCCBasic(t *testing.T) {
	cfg := DefaultConfig(16000)

	// 100ms of 16kHz audio = 1600 samples.
	// Should produce (1600 - 400) / 160 + 1 = 8 frames.
	nSamples := 1600
	samples := sineWave(440, nSamples, cfg.SampleRate, 0.5)

	result := MFCC(samples, cfg)
	if result == nil {
		t.Fatal("expected non-nil result")
	}

	expectedFrames := (nSamples-cfg.FrameLength)/cfg.FrameShift + 1
	if len(result) != expectedFrames {
		t.Errorf("expected %d frames, got %d", expectedFrames, len(result))
	}

	for i, frame := range result {
		if len(frame) != cfg.NumCepstra {
			t.Errorf("frame %d: expected %d coefficients, got %d", i, cfg.NumCepstra, len(frame))
		}
		for j, v := range frame {
			if math.IsNaN(v) || math.IsInf(v, 0) {
				t.Errorf("frame %d coeff %d: non-finite value %f", i, j, v)
			}
		}
	}
}

func TestMFCCTooShort(t *testing.T) {
	cfg := DefaultConfig(16000)
	samples := make([]float64, cfg.FrameLength-1)
	if result := MFCC(samples, cfg); result != nil {
		t.Errorf("expected nil for too-short waveform, got %d frames", len(result))
	}
}

func TestMFCCDeterministic(t *testing.T) {
	cfg := DefaultConfig(16000)
	samples := sineWave(300, 1600, cfg.SampleRate, 0.5)

	a := MFCC(samples, cfg)
	b := MFCC(samples, cfg)
	for f := range a {
		for c := range a[f] {
			if a[f][c] != b[f][c] {
				t.Fatalf("frame %d coeff %d: %v != %v", f, c, a[f][c], b[f][c])
			}
		}
	}
}

func TestMFCCSineVsSilence(t *testing.T) {
	cfg := DefaultConfig(16000)
	sine := MFCC(sineWave(440, 1600, cfg.SampleRate, 0.5), cfg)
	silence := MFCC(make([]float64, 1600), cfg)

	// First cepstral coefficient tracks overall log energy; a sine must
	// sit well above the silence energy floor.
	if sine[0][0] <= silence[0][0] {
		t.Errorf("sine c0 %v should exceed silence c0 %v", sine[0][0], silence[0][0])
	}
}

func TestSpectralCentroidTracksFrequency(t *testing.T) {
	cfg := DefaultConfig(16000)

	low := Mean(SpectralCentroids(sineWave(300, 4800, cfg.SampleRate, 0.5), cfg))
	high := Mean(SpectralCentroids(sineWave(3000, 4800, cfg.SampleRate, 0.5), cfg))

	if low >= high {
		t.Errorf("centroid of 300Hz sine (%v) should be below 3000Hz sine (%v)", low, high)
	}
	if math.Abs(high-3000) > 500 {
		t.Errorf("centroid of 3000Hz sine = %v, want within 500Hz of 3000", high)
	}
}

func TestZeroCrossingRate(t *testing.T) {
	cfg := DefaultConfig(16000)
	// A 400Hz sine crosses zero 2*400 times per second; per-sample rate
	// is 2*400/16000 = 0.05.
	zcr := ZeroCrossingRate(sineWave(400, 4800, cfg.SampleRate, 0.5), cfg)
	m := Mean(zcr)
	if math.Abs(m-0.05) > 0.01 {
		t.Errorf("mean ZCR = %v, want ~0.05", m)
	}
}

func TestRMSEnergy(t *testing.T) {
	cfg := DefaultConfig(16000)
	// RMS of a sine with amplitude A is A/sqrt(2).
	rms := RMSEnergy(sineWave(440, 4800, cfg.SampleRate, 0.5), cfg)
	m := Mean(rms)
	want := 0.5 / math.Sqrt2
	if math.Abs(m-want) > 0.02 {
		t.Errorf("mean RMS = %v, want ~%v", m, want)
	}

	if rms := RMSEnergy(make([]float64, 4800), cfg); Mean(rms) != 0 {
		t.Errorf("silence RMS = %v, want 0", Mean(rms))
	}
}

func TestChromaDominantPitchClass(t *testing.T) {
	cfg := DefaultConfig(16000)
	// 440 Hz is A4 → pitch class 9 (relative to C).
	chroma := Chroma(sineWave(440, 4800, cfg.SampleRate, 0.5), cfg)
	if len(chroma) != 12 {
		t.Fatalf("expected 12 chroma bins, got %d", len(chroma))
	}
	argmax := 0
	for i, v := range chroma {
		if v > chroma[argmax] {
			argmax = i
		}
	}
	if argmax != 9 {
		t.Errorf("dominant pitch class = %d, want 9 (A)", argmax)
	}
	if chroma[argmax] != 1.0 {
		t.Errorf("dominant chroma bin = %v, want 1.0", chroma[argmax])
	}
}

func TestFeaturesShape(t *testing.T) {
	fs, err := Features(sineWave(440, 16000, 16000, 0.5), 16000)
	if err != nil {
		t.Fatalf("Features: %v", err)
	}
	if len(fs.MFCCMean) != 13 || len(fs.MFCCStd) != 13 {
		t.Errorf("MFCC stats have %d/%d coefficients, want 13/13", len(fs.MFCCMean), len(fs.MFCCStd))
	}
	if len(fs.ChromaMean) != 12 {
		t.Errorf("chroma has %d bins, want 12", len(fs.ChromaMean))
	}
	if fs.RMSMean <= 0 {
		t.Errorf("RMS mean = %v, want > 0 for a sine", fs.RMSMean)
	}
}

func TestFeaturesTooShort(t *testing.T) {
	if _, err := Features([]float64{0.1, 0.2}, 16000); err == nil {
		t.Fatal("expected error for waveform shorter than one frame")
	}
}

func TestSNR(t *testing.T) {
	// Silence has no measurable noise floor.
	if got := SNR(make([]float64, 1600)); got != 100 {
		t.Errorf("SNR(silence) = %v, want 100", got)
	}
	// A constant signal has equal power everywhere: 0 dB.
	constant := make([]float64, 1600)
	for i := range constant {
		constant[i] = 0.5
	}
	if got := SNR(constant); math.Abs(got) > 1e-9 {
		t.Errorf("SNR(constant) = %v, want 0", got)
	}
	// A sine has a spread of instantaneous power: positive finite SNR.
	got := SNR(sineWave(440, 1600, 16000, 0.5))
	if math.IsInf(got, 0) || math.IsNaN(got) || got <= 0 {
		t.Errorf("SNR(sine) = %v, want positive finite", got)
	}
}

func TestCosineSimilarity(t *testing.T) {
	v := []float32{0.3, -0.5, 0.8, 0.1}

	if got := CosineSimilarity(v, v); math.Abs(got-1.0) > 1e-6 {
		t.Errorf("CosineSimilarity(v, v) = %v, want 1.0", got)
	}

	zero := make([]float32, len(v))
	if got := CosineSimilarity(v, zero); got != 0 {
		t.Errorf("CosineSimilarity(v, 0) = %v, want 0", got)
	}
	if got := CosineSimilarity(zero, zero); got != 0 {
		t.Errorf("CosineSimilarity(0, 0) = %v, want 0", got)
	}

	neg := []float32{-0.3, 0.5, -0.8, -0.1}
	if got := CosineSimilarity(v, neg); math.Abs(got+1.0) > 1e-6 {
		t.Errorf("CosineSimilarity(v, -v) = %v, want -1.0", got)
	}
}

func TestSpectrum(t *testing.T) {
	if Spectrum(nil) != nil {
		t.Error("expected nil spectrum for empty input")
	}

	// 1000 Hz sine, 512 samples @ 16kHz: peak near bin 32 (1000/31.25).
	mag := Spectrum(sineWave(1000, 512, 16000, 0.5))
	if len(mag) != 256 {
		t.Fatalf("expected 256 bins, got %d", len(mag))
	}
	argmax := 0
	for i, v := range mag {
		if v > mag[argmax] {
			argmax = i
		}
	}
	if argmax < 30 || argmax > 34 {
		t.Errorf("spectrum peak at bin %d, want ~32", argmax)
	}
}

func TestPercentile(t *testing.T) {
	x := []float64{1, 2, 3, 4, 5}
	if got := Percentile(x, 0); got != 1 {
		t.Errorf("P0 = %v, want 1", got)
	}
	if got := Percentile(x, 100); got != 5 {
		t.Errorf("P100 = %v, want 5", got)
	}
	if got := Median(x); got != 3 {
		t.Errorf("median = %v, want 3", got)
	}
	if got := Percentile([]float64{1, 2}, 50); got != 1.5 {
		t.Errorf("P50 of {1,2} = %v, want 1.5", got)
	}
	if got := Percentile(nil, 50); got != 0 {
		t.Errorf("P50 of empty = %v, want 0", got)
	}
}
