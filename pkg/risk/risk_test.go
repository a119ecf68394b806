package risk_test

import (
	"math"
	"testing"

	"github.com/voxguard/voxguard/pkg/risk"
	"github.com/voxguard/voxguard/pkg/spoof"
)

const testRate = 16000

func newEngine() *risk.Engine {
	return risk.New(risk.DefaultConfig(), spoof.New(spoof.DefaultConfig()))
}

// burstySpeechLike alternates 100 ms tone bursts with 100 ms of silence,
// roughly the energy envelope of live speech.
func burstySpeechLike(seconds float64) []float64 {
	n := int(seconds * testRate)
	window := testRate / 10
	samples := make([]float64, n)
	for i := range samples {
		if (i/window)%2 == 0 {
			samples[i] = 0.5 * math.Sin(2*math.Pi*1500*float64(i)/testRate)
		}
	}
	return samples
}

func TestQualityScoreRange(t *testing.T) {
	e := newEngine()
	inputs := map[string][]float64{
		"speech":   burstySpeechLike(3),
		"silence":  make([]float64, 3*testRate),
		"constant": constant(3*testRate, 0.25),
		"tiny":     constant(200, 0.1),
	}
	for name, samples := range inputs {
		q := e.QualityScore(samples, testRate)
		if math.IsNaN(q) || q < 0 || q > 1 {
			t.Errorf("%s: quality score %v out of [0,1]", name, q)
		}
	}
}

func TestQualityScoreSpeechBeatsNearSilence(t *testing.T) {
	e := newEngine()
	speech := e.QualityScore(burstySpeechLike(3), testRate)
	faint := e.QualityScore(constant(3*testRate, 0.0005), testRate)
	if speech <= faint {
		t.Errorf("speech quality %v not above faint-signal quality %v", speech, faint)
	}
}

func TestQualityScoreDegenerate(t *testing.T) {
	e := newEngine()
	if q := e.QualityScore(nil, testRate); q != risk.NeutralQuality {
		t.Errorf("nil samples: quality = %v, want %v", q, risk.NeutralQuality)
	}
	if q := e.QualityScore(burstySpeechLike(1), 0); q != risk.NeutralQuality {
		t.Errorf("zero sample rate: quality = %v, want %v", q, risk.NeutralQuality)
	}
}

func TestAssessCleanSpeech(t *testing.T) {
	e := newEngine()
	a := e.Assess(burstySpeechLike(3), testRate)
	if a.Level != risk.LevelLow {
		t.Errorf("level = %s, want low (factors %v)", a.Level, a.Factors)
	}
	if len(a.Factors) != 0 {
		t.Errorf("factors = %v, want none", a.Factors)
	}
	if a.SpoofScore != 0 {
		t.Errorf("spoof score = %v, want 0", a.SpoofScore)
	}
}

func TestAssessAllZero(t *testing.T) {
	e := newEngine()
	a := e.Assess(make([]float64, 3*testRate), testRate)
	if a.Level != risk.LevelHigh {
		t.Errorf("level = %s, want high (factors %v)", a.Level, a.Factors)
	}
	if a.SpoofScore < 0.5 {
		t.Errorf("spoof score = %v, want >= 0.5", a.SpoofScore)
	}
	if !contains(a.Factors, risk.FactorMutedMic) {
		t.Errorf("factors = %v, want muted_mic present", a.Factors)
	}
	if !contains(a.Factors, risk.FactorSpoofDetected) {
		t.Errorf("factors = %v, want spoof_detected present", a.Factors)
	}
	if len(a.Factors) < 2 {
		t.Errorf("factors = %v, want at least two", a.Factors)
	}
}

func TestAssessDegenerate(t *testing.T) {
	e := newEngine()
	a := e.Assess(nil, testRate)
	if a.Level != risk.LevelUnknown {
		t.Errorf("level = %s, want unknown", a.Level)
	}
	if a.QualityScore != risk.NeutralQuality || a.SpoofScore != spoof.NeutralScore {
		t.Errorf("scores = %v/%v, want neutral %v/%v",
			a.QualityScore, a.SpoofScore, risk.NeutralQuality, spoof.NeutralScore)
	}
	if len(a.Factors) != 0 {
		t.Errorf("factors = %v, want none", a.Factors)
	}
}

func TestAssessScoresInRange(t *testing.T) {
	e := newEngine()
	inputs := [][]float64{
		burstySpeechLike(3),
		make([]float64, 3*testRate),
		constant(3*testRate, 1.0),
		constant(100, 0.5),
		nil,
	}
	for i, samples := range inputs {
		a := e.Assess(samples, testRate)
		if math.IsNaN(a.QualityScore) || a.QualityScore < 0 || a.QualityScore > 1 {
			t.Errorf("input %d: quality %v out of [0,1]", i, a.QualityScore)
		}
		if math.IsNaN(a.SpoofScore) || a.SpoofScore < 0 || a.SpoofScore > 1 {
			t.Errorf("input %d: spoof %v out of [0,1]", i, a.SpoofScore)
		}
	}
}

func TestRecommendationsOrder(t *testing.T) {
	a := risk.Assessment{Factors: []string{
		risk.FactorLowQuality,
		risk.FactorSpoofDetected,
		risk.FactorPlaybackDetected,
		risk.FactorMutedMic,
	}}
	msgs := risk.Recommendations(a)
	if len(msgs) != 4 {
		t.Fatalf("got %d recommendations, want 4: %v", len(msgs), msgs)
	}
}

func TestRecommendationsAllClear(t *testing.T) {
	msgs := risk.Recommendations(risk.Assessment{Level: risk.LevelLow})
	if len(msgs) != 1 {
		t.Fatalf("got %d recommendations, want 1: %v", len(msgs), msgs)
	}
}

func TestCustomThresholds(t *testing.T) {
	// A threshold above any attainable quality forces the low_quality
	// factor even on clean speech.
	e := risk.New(risk.Config{LowQuality: 1.1, SpoofDetected: 0.6},
		spoof.New(spoof.DefaultConfig()))
	a := e.Assess(burstySpeechLike(3), testRate)
	if !contains(a.Factors, risk.FactorLowQuality) {
		t.Errorf("factors = %v, want low_quality with threshold 1.1", a.Factors)
	}
	if a.Level != risk.LevelMedium {
		t.Errorf("level = %s, want medium with exactly one factor", a.Level)
	}
}

func constant(n int, v float64) []float64 {
	samples := make([]float64, n)
	for i := range samples {
		samples[i] = v
	}
	return samples
}

func contains(xs []string, want string) bool {
	for _, x := range xs {
		if x == want {
			return true
		}
	}
	return false
}
