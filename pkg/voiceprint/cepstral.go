package voiceprint

import (
	"fmt"
	"math"

	"github.com/voxguard/voxguard/pkg/acoustic"
)

// normEpsilon guards the L2 normalization divide. Vectors with a smaller
// norm (the all-zero embedding of pure silence) are preserved as-is.
const normEpsilon = 1e-8

// Cepstral is the reference Model: the per-coefficient mean of MFCC frames,
// L2-normalized. Deterministic and stateless; safe for concurrent use.
type Cepstral struct {
	numCepstra int
}

// NewCepstral creates the reference embedding model. The embedding
// dimension equals the number of cepstral coefficients (13).
func NewCepstral() *Cepstral {
	return &Cepstral{numCepstra: 13}
}

// Extract computes the cepstral-mean embedding.
func (c *Cepstral) Extract(samples []float64, sampleRate int) ([]float32, error) {
	cfg := acoustic.DefaultConfig(sampleRate)
	cfg.NumCepstra = c.numCepstra

	frames := acoustic.MFCC(samples, cfg)
	if frames == nil {
		return nil, fmt.Errorf("voiceprint: %w", acoustic.ErrTooShort)
	}

	embedding := make([]float32, c.numCepstra)
	for coeff := 0; coeff < c.numCepstra; coeff++ {
		var sum float64
		for _, frame := range frames {
			sum += frame[coeff]
		}
		embedding[coeff] = float32(sum / float64(len(frames)))
	}
	return l2Normalize(embedding), nil
}

// Dimension returns the embedding dimensionality.
func (c *Cepstral) Dimension() int { return c.numCepstra }

// Close is a no-op; the cepstral model holds no resources.
func (c *Cepstral) Close() error { return nil }

// l2Normalize scales v to unit length. Vectors with near-zero norm are
// returned unchanged.
func l2Normalize(v []float32) []float32 {
	var sum float64
	for _, x := range v {
		sum += float64(x) * float64(x)
	}
	norm := math.Sqrt(sum)
	if norm < normEpsilon {
		return v
	}
	for i := range v {
		v[i] = float32(float64(v[i]) / norm)
	}
	return v
}
