package voiceprint

import (
	"math"
	"testing"

	"github.com/voxguard/voxguard/pkg/acoustic"
)

func sineWave(freq float64, n, sampleRate int, amplitude float64) []float64 {
	samples := make([]float64, n)
	for i := range samples {
		samples[i] = amplitude * math.Sin(2*math.Pi*freq*float64(i)/float64(sampleRate))
	}
	return samples
}

func TestCepstralDimension(t *testing.T) {
	m := NewCepstral()
	if m.Dimension() != 13 {
		t.Fatalf("Dimension = %d, want 13", m.Dimension())
	}

	emb, err := m.Extract(sineWave(440, 16000, 16000, 0.5), 16000)
	if err != nil {
		t.Fatalf("Extract: %v", err)
	}
	if len(emb) != m.Dimension() {
		t.Errorf("embedding length = %d, want %d", len(emb), m.Dimension())
	}
}

func TestCepstralUnitNorm(t *testing.T) {
	m := NewCepstral()
	emb, err := m.Extract(sineWave(440, 16000, 16000, 0.5), 16000)
	if err != nil {
		t.Fatalf("Extract: %v", err)
	}

	var sum float64
	for _, v := range emb {
		sum += float64(v) * float64(v)
	}
	if norm := math.Sqrt(sum); math.Abs(norm-1.0) > 1e-5 {
		t.Errorf("embedding norm = %v, want ~1.0", norm)
	}
}

func TestCepstralSelfSimilarity(t *testing.T) {
	m := NewCepstral()
	samples := sineWave(300, 3*16000, 16000, 0.5)

	a, err := m.Extract(samples, 16000)
	if err != nil {
		t.Fatalf("Extract: %v", err)
	}
	b, err := m.Extract(samples, 16000)
	if err != nil {
		t.Fatalf("Extract: %v", err)
	}
	if sim := acoustic.CosineSimilarity(a, b); math.Abs(sim-1.0) > 1e-9 {
		t.Errorf("self similarity = %v, want 1.0", sim)
	}
}

func TestCepstralDistinguishesContent(t *testing.T) {
	m := NewCepstral()
	a, err := m.Extract(sineWave(200, 3*16000, 16000, 0.5), 16000)
	if err != nil {
		t.Fatalf("Extract: %v", err)
	}
	b, err := m.Extract(sineWave(3500, 3*16000, 16000, 0.5), 16000)
	if err != nil {
		t.Fatalf("Extract: %v", err)
	}
	if sim := acoustic.CosineSimilarity(a, b); sim > 0.99 {
		t.Errorf("similarity of very different signals = %v, want < 0.99", sim)
	}
}

func TestCepstralTooShort(t *testing.T) {
	m := NewCepstral()
	if _, err := m.Extract(make([]float64, 10), 16000); err == nil {
		t.Fatal("expected error for waveform shorter than one frame")
	}
}

func TestCepstralClose(t *testing.T) {
	if err := NewCepstral().Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
}
