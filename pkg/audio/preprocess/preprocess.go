// Package preprocess normalizes raw waveforms into the canonical form the
// analysis pipeline expects: 16 kHz mono, peak-normalized, silence-trimmed,
// and padded or truncated to a fixed duration.
package preprocess

import (
	"fmt"
	"math"

	resampling "github.com/tphakala/go-audio-resampling"

	"github.com/voxguard/voxguard/pkg/acoustic"
)

// peakEpsilon guards the peak-normalization divide: waveforms whose peak
// amplitude is below it (all-zero input included) pass through unchanged.
const peakEpsilon = 1e-8

// Config controls preprocessing.
type Config struct {
	// TargetRate is the canonical sample rate in Hz. Default: 16000.
	TargetRate int

	// TargetSeconds is the canonical duration. Output length is exactly
	// TargetSeconds × TargetRate samples. Default: 3.0.
	TargetSeconds float64

	// TrimThresholdDB drops leading/trailing frames whose energy is more
	// than this many dB below the peak frame energy. Default: 20.
	TrimThresholdDB float64
}

// DefaultConfig returns the canonical preprocessing configuration.
func DefaultConfig() Config {
	return Config{
		TargetRate:      16000,
		TargetSeconds:   3.0,
		TrimThresholdDB: 20,
	}
}

// Preprocessor converts waveforms to canonical form. Stateless; safe for
// concurrent use.
type Preprocessor struct {
	cfg Config
}

// New creates a Preprocessor. Zero config fields fall back to defaults.
func New(cfg Config) *Preprocessor {
	def := DefaultConfig()
	if cfg.TargetRate <= 0 {
		cfg.TargetRate = def.TargetRate
	}
	if cfg.TargetSeconds <= 0 {
		cfg.TargetSeconds = def.TargetSeconds
	}
	if cfg.TrimThresholdDB <= 0 {
		cfg.TrimThresholdDB = def.TrimThresholdDB
	}
	return &Preprocessor{cfg: cfg}
}

// Process runs the full pipeline: resample to the target rate, peak
// normalize, trim silence, and force the canonical length. Deterministic
// and idempotent for identical inputs.
func (p *Preprocessor) Process(samples []float64, sampleRate int) ([]float64, error) {
	if sampleRate <= 0 {
		return nil, fmt.Errorf("preprocess: invalid sample rate %d", sampleRate)
	}

	out := samples
	if sampleRate != p.cfg.TargetRate {
		resampled, err := p.resample(out, sampleRate)
		if err != nil {
			return nil, err
		}
		out = resampled
	} else {
		// Work on a copy so callers keep their waveform intact.
		out = make([]float64, len(samples))
		copy(out, samples)
	}

	peakNormalize(out)
	out = p.trimSilence(out)
	return p.fitLength(out), nil
}

// resample converts the waveform to the target rate with a band-limited
// polyphase resampler.
func (p *Preprocessor) resample(samples []float64, sampleRate int) ([]float64, error) {
	rs, err := resampling.New(&resampling.Config{
		InputRate:  float64(sampleRate),
		OutputRate: float64(p.cfg.TargetRate),
		Channels:   1,
		Quality:    resampling.QualitySpec{Preset: resampling.QualityHigh},
	})
	if err != nil {
		return nil, fmt.Errorf("preprocess: create resampler: %w", err)
	}
	out, err := rs.Process(samples)
	if err != nil {
		return nil, fmt.Errorf("preprocess: resample: %w", err)
	}
	return out, nil
}

// peakNormalize scales the waveform in place so the peak amplitude is 1.
// Inputs with no measurable peak are left unchanged.
func peakNormalize(samples []float64) {
	var peak float64
	for _, v := range samples {
		if a := math.Abs(v); a > peak {
			peak = a
		}
	}
	if peak < peakEpsilon {
		return
	}
	for i := range samples {
		samples[i] /= peak
	}
}

// trimSilence drops leading and trailing frames whose RMS energy falls more
// than TrimThresholdDB below the loudest frame. Waveforms shorter than one
// frame, or with no frame above the threshold, are returned unchanged.
func (p *Preprocessor) trimSilence(samples []float64) []float64 {
	cfg := acoustic.DefaultConfig(p.cfg.TargetRate)
	rms := acoustic.RMSEnergy(samples, cfg)
	if rms == nil {
		return samples
	}

	var peak float64
	for _, v := range rms {
		if v > peak {
			peak = v
		}
	}
	if peak < peakEpsilon {
		return samples
	}

	threshold := peak * math.Pow(10, -p.cfg.TrimThresholdDB/20)
	first, last := -1, -1
	for i, v := range rms {
		if v >= threshold {
			if first < 0 {
				first = i
			}
			last = i
		}
	}
	if first < 0 {
		return samples
	}

	start := first * cfg.FrameShift
	end := last*cfg.FrameShift + cfg.FrameLength
	if end > len(samples) {
		end = len(samples)
	}
	return samples[start:end]
}

// fitLength truncates from the end or zero-pads on the right so the result
// is exactly TargetSeconds × TargetRate samples.
func (p *Preprocessor) fitLength(samples []float64) []float64 {
	target := int(p.cfg.TargetSeconds * float64(p.cfg.TargetRate))
	if len(samples) >= target {
		return samples[:target]
	}
	out := make([]float64, target)
	copy(out, samples)
	return out
}
