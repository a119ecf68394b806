// Package spoof scores audio chunks for signs of playback, muting, or
// manipulation. The detectors are heuristic quality proxies over acoustic
// statistics, not liveness-certified biometrics: each indicator contributes
// a fixed weight and the sum is clamped to [0, 1].
package spoof

import (
	"log/slog"

	"github.com/voxguard/voxguard/pkg/acoustic"
)

// Indicator weights. Triggered indicators sum; the total clamps to 1.
const (
	weightLowSNR        = 0.3
	weightUniformEnergy = 0.4
	weightLowBrightness = 0.2
	weightFlatSpectrum  = 0.2
	weightNearSilence   = 0.5
)

// NeutralScore is returned when the input is too degenerate to score.
// A single malformed chunk must not halt live scoring, so the detector
// fails open with this value instead of reporting an error.
const NeutralScore = 0.5

// Config holds the detection thresholds. Zero values fall back to the
// calibrated defaults.
type Config struct {
	// MinSNR triggers the low-SNR indicator below this many dB.
	MinSNR float64

	// EnergyRatio triggers the over-uniform energy indicator when
	// variance(|x|)/mean(|x|) falls below it.
	EnergyRatio float64

	// MinCentroid triggers the low-brightness indicator when the mean
	// spectral centroid falls below this many Hz.
	MinCentroid float64

	// SilenceRMS triggers the near-silence indicator when mean RMS
	// energy is strictly below it.
	SilenceRMS float64

	// PlaybackVariance is the upper bound on the variance of 100 ms
	// window energies for DetectPlayback.
	PlaybackVariance float64

	// MutedMeanAbs is the mean |amplitude| below which DetectMutedMic
	// reports a muted microphone.
	MutedMeanAbs float64

	// AmbientThreshold is the mean |amplitude| below which
	// DetectAmbientNoise considers the microphone muted. Any measurable
	// signal at or above it counts as an active microphone.
	AmbientThreshold float64
}

// DefaultConfig returns the calibrated detection thresholds.
func DefaultConfig() Config {
	return Config{
		MinSNR:           15,
		EnergyRatio:      0.01,
		MinCentroid:      500,
		SilenceRMS:       0.01,
		PlaybackVariance: 0.001,
		MutedMeanAbs:     0.001,
		AmbientThreshold: 0.0003,
	}
}

// Detector evaluates spoofing indicators. Stateless; safe for concurrent use.
type Detector struct {
	cfg Config
}

// New creates a Detector. Zero config fields fall back to defaults.
func New(cfg Config) *Detector {
	def := DefaultConfig()
	if cfg.MinSNR == 0 {
		cfg.MinSNR = def.MinSNR
	}
	if cfg.EnergyRatio == 0 {
		cfg.EnergyRatio = def.EnergyRatio
	}
	if cfg.MinCentroid == 0 {
		cfg.MinCentroid = def.MinCentroid
	}
	if cfg.SilenceRMS == 0 {
		cfg.SilenceRMS = def.SilenceRMS
	}
	if cfg.PlaybackVariance == 0 {
		cfg.PlaybackVariance = def.PlaybackVariance
	}
	if cfg.MutedMeanAbs == 0 {
		cfg.MutedMeanAbs = def.MutedMeanAbs
	}
	if cfg.AmbientThreshold == 0 {
		cfg.AmbientThreshold = def.AmbientThreshold
	}
	return &Detector{cfg: cfg}
}

// Detect returns a spoof score in [0, 1]; higher means more suspicious.
// Degenerate input (empty, or shorter than one analysis frame) yields
// NeutralScore rather than an error.
func (d *Detector) Detect(samples []float64, sampleRate int) float64 {
	cfg := acoustic.DefaultConfig(sampleRate)
	centroids := acoustic.SpectralCentroids(samples, cfg)
	rms := acoustic.RMSEnergy(samples, cfg)
	if centroids == nil || rms == nil {
		slog.Warn("spoof: degenerate input, returning neutral score",
			"samples", len(samples), "sample_rate", sampleRate)
		return NeutralScore
	}

	var score float64

	// Low SNR suggests playback through speakers.
	if acoustic.SNR(samples) < d.cfg.MinSNR {
		score += weightLowSNR
	}

	// Natural speech has bursty amplitude; a near-constant envelope is
	// suspicious.
	abs := make([]float64, len(samples))
	for i, v := range samples {
		if v < 0 {
			abs[i] = -v
		} else {
			abs[i] = v
		}
	}
	if acoustic.Variance(abs)/(acoustic.Mean(abs)+1e-8) < d.cfg.EnergyRatio {
		score += weightUniformEnergy
	}

	// Speech carries energy well above 500 Hz.
	if acoustic.Mean(centroids) < d.cfg.MinCentroid {
		score += weightLowBrightness
	}

	// A flat frequency response is a typical playback artifact. Spectrum
	// already covers bins [0, N/2), the full band up to Nyquist.
	magnitude := acoustic.Spectrum(samples)
	if acoustic.Variance(magnitude) < acoustic.Median(magnitude) {
		score += weightFlatSpectrum
	}

	// Near-silence: strict less-than, so energy exactly at the threshold
	// does not trigger.
	if acoustic.Mean(rms) < d.cfg.SilenceRMS {
		score += weightNearSilence
	}

	if score > 1 {
		score = 1
	}
	return score
}

// DetectPlayback reports whether the energy envelope is suspiciously
// uniform across 100 ms windows, characteristic of recorded or looped
// playback. Requires at least two full windows; otherwise false.
func (d *Detector) DetectPlayback(samples []float64, sampleRate int) bool {
	windowSize := sampleRate / 10
	if windowSize <= 0 {
		return false
	}
	numWindows := len(samples) / windowSize
	if numWindows < 2 {
		return false
	}
	means := make([]float64, numWindows)
	for w := 0; w < numWindows; w++ {
		means[w] = acoustic.MeanAbs(samples[w*windowSize : (w+1)*windowSize])
	}
	return acoustic.Variance(means) < d.cfg.PlaybackVariance
}

// DetectMutedMic reports whether the microphone appears muted or nearly so.
func (d *Detector) DetectMutedMic(samples []float64) bool {
	return acoustic.MeanAbs(samples) < d.cfg.MutedMeanAbs
}

// AmbientResult describes microphone activity derived from ambient noise.
type AmbientResult struct {
	// HasAmbientNoise is true when any measurable signal at or above the
	// muted threshold is present: even very quiet room noise proves the
	// microphone is live.
	HasAmbientNoise bool `json:"has_ambient_noise"`

	// IsMuted is true when the signal level falls below the muted
	// threshold.
	IsMuted bool `json:"is_muted"`

	// AmbientLevel is the mean |amplitude|.
	AmbientLevel float64 `json:"ambient_level"`

	// Variance is the sample variance of the waveform.
	Variance float64 `json:"variance"`
}

// DetectAmbientNoise verifies the microphone is active by measuring
// ambient signal level against the muted threshold.
func (d *Detector) DetectAmbientNoise(samples []float64) AmbientResult {
	level := acoustic.MeanAbs(samples)
	return AmbientResult{
		HasAmbientNoise: level >= d.cfg.AmbientThreshold,
		IsMuted:         level < d.cfg.AmbientThreshold,
		AmbientLevel:    level,
		Variance:        acoustic.Variance(samples),
	}
}
