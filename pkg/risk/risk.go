// Package risk scores audio chunks for signal quality and combines the
// quality score with spoof indicators into a categorical risk level with
// human-readable recommendations.
//
// Scoring is fail-open: a degenerate chunk produces neutral defaults and a
// warning log instead of an error, so a single bad chunk never interrupts a
// live session. Identity decisions are out of scope here; see pkg/enroll.
package risk

import (
	"log/slog"

	"github.com/voxguard/voxguard/pkg/acoustic"
	"github.com/voxguard/voxguard/pkg/spoof"
)

// Level is a categorical risk rating for one audio chunk.
type Level string

const (
	LevelLow     Level = "low"
	LevelMedium  Level = "medium"
	LevelHigh    Level = "high"
	LevelUnknown Level = "unknown"
)

// Risk factors, reported in priority order on an Assessment.
const (
	FactorLowQuality       = "low_quality"
	FactorSpoofDetected    = "spoof_detected"
	FactorPlaybackDetected = "playback_detected"
	FactorMutedMic         = "muted_mic"
)

// Quality score weights. The four terms measure signal-to-noise ratio,
// loudness, spectral brightness and energy-envelope stability.
const (
	qualityWeightSNR        = 0.3
	qualityWeightLoudness   = 0.3
	qualityWeightBrightness = 0.2
	qualityWeightStability  = 0.2

	qualitySNRScale      = 30.0
	qualityLoudnessScale = 0.1
	qualityCentroidScale = 3000.0

	rmsEpsilon = 1e-8
)

// NeutralQuality is returned when quality cannot be computed.
const NeutralQuality = 0.5

// Config holds the decision thresholds of the engine.
type Config struct {
	// LowQuality flags the low_quality factor when the quality score falls
	// below it.
	LowQuality float64

	// SpoofDetected flags the spoof_detected factor when the spoof score
	// exceeds it.
	SpoofDetected float64
}

// DefaultConfig returns the stock thresholds.
func DefaultConfig() Config {
	return Config{
		LowQuality:    0.3,
		SpoofDetected: 0.6,
	}
}

// Assessment is the risk verdict for one audio chunk.
type Assessment struct {
	Level        Level    `json:"risk_level"`
	Factors      []string `json:"factors"`
	QualityScore float64  `json:"quality_score"`
	SpoofScore   float64  `json:"spoof_score"`
}

// Engine scores chunks. Safe for concurrent use.
type Engine struct {
	cfg      Config
	detector *spoof.Detector
}

// New returns an Engine using the given spoof detector. Zero-valued
// thresholds in cfg fall back to defaults.
func New(cfg Config, detector *spoof.Detector) *Engine {
	def := DefaultConfig()
	if cfg.LowQuality == 0 {
		cfg.LowQuality = def.LowQuality
	}
	if cfg.SpoofDetected == 0 {
		cfg.SpoofDetected = def.SpoofDetected
	}
	if detector == nil {
		detector = spoof.New(spoof.DefaultConfig())
	}
	return &Engine{cfg: cfg, detector: detector}
}

// QualityScore rates the signal quality of a waveform in [0, 1]. Higher is
// better. Degenerate input yields the neutral 0.5.
func (e *Engine) QualityScore(samples []float64, sampleRate int) float64 {
	if len(samples) == 0 || sampleRate <= 0 {
		slog.Warn("quality score on degenerate input, returning neutral",
			"samples", len(samples), "sample_rate", sampleRate)
		return NeutralQuality
	}

	cfg := acoustic.DefaultConfig(sampleRate)
	centroids := acoustic.SpectralCentroids(samples, cfg)
	rms := acoustic.RMSEnergy(samples, cfg)
	if len(centroids) == 0 || len(rms) == 0 {
		slog.Warn("quality score frames unavailable, returning neutral",
			"samples", len(samples), "sample_rate", sampleRate)
		return NeutralQuality
	}

	snr := acoustic.SNR(samples)
	meanAbs := acoustic.MeanAbs(samples)
	centroid := acoustic.Mean(centroids)
	rmsMean := acoustic.Mean(rms)
	rmsStd := acoustic.Std(rms)

	score := qualityWeightSNR*min(snr/qualitySNRScale, 1) +
		qualityWeightLoudness*min(meanAbs/qualityLoudnessScale, 1) +
		qualityWeightBrightness*min(centroid/qualityCentroidScale, 1) +
		qualityWeightStability*(1-min(rmsStd/(rmsMean+rmsEpsilon), 1))

	return max(0, min(score, 1))
}

// Assess computes quality and spoof scores for a waveform and derives the
// factor set and risk level. Two or more factors rate high, one rates
// medium, none rates low. Degenerate input yields LevelUnknown with neutral
// scores and no factors.
func (e *Engine) Assess(samples []float64, sampleRate int) Assessment {
	if len(samples) == 0 || sampleRate <= 0 {
		slog.Warn("risk assessment on degenerate input, returning unknown",
			"samples", len(samples), "sample_rate", sampleRate)
		return Assessment{
			Level:        LevelUnknown,
			Factors:      []string{},
			QualityScore: NeutralQuality,
			SpoofScore:   spoof.NeutralScore,
		}
	}

	quality := e.QualityScore(samples, sampleRate)
	spoofScore := e.detector.Detect(samples, sampleRate)

	factors := make([]string, 0, 4)
	if quality < e.cfg.LowQuality {
		factors = append(factors, FactorLowQuality)
	}
	if spoofScore > e.cfg.SpoofDetected {
		factors = append(factors, FactorSpoofDetected)
	}
	if e.detector.DetectPlayback(samples, sampleRate) {
		factors = append(factors, FactorPlaybackDetected)
	}
	if e.detector.DetectMutedMic(samples) || e.detector.DetectAmbientNoise(samples).IsMuted {
		factors = append(factors, FactorMutedMic)
	}

	level := LevelLow
	switch {
	case len(factors) >= 2:
		level = LevelHigh
	case len(factors) == 1:
		level = LevelMedium
	}

	return Assessment{
		Level:        level,
		Factors:      factors,
		QualityScore: quality,
		SpoofScore:   spoofScore,
	}
}

// Recommendations returns one advisory per factor present on the
// assessment, in factor priority order, or a single all-clear message when
// no factor is present.
func Recommendations(a Assessment) []string {
	msgs := make([]string, 0, len(a.Factors))
	for _, f := range a.Factors {
		switch f {
		case FactorLowQuality:
			msgs = append(msgs, "Audio quality is poor. Check the microphone and reduce background noise.")
		case FactorSpoofDetected:
			msgs = append(msgs, "Suspicious audio pattern detected. Verify the candidate is speaking live.")
		case FactorPlaybackDetected:
			msgs = append(msgs, "Possible playback of recorded audio detected.")
		case FactorMutedMic:
			msgs = append(msgs, "Microphone appears muted or disconnected.")
		}
	}
	if len(msgs) == 0 {
		msgs = append(msgs, "Audio looks fine. Continue monitoring.")
	}
	return msgs
}
