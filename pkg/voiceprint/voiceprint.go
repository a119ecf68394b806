// Package voiceprint defines the speaker-embedding capability used for
// enrollment and verification, together with a reference implementation
// built on cepstral statistics.
//
// The Model interface is the seam where a trained speaker-verification
// network (ECAPA-TDNN, ResNet and friends) plugs in: anything that maps a
// waveform to a fixed-length vector can back the enrollment store without
// touching similarity or decision logic. The shipped Cepstral model is a
// deterministic placeholder statistic, not a trained model.
package voiceprint

// Model extracts speaker embedding vectors from normalized waveforms.
//
// The input is a float64 waveform in [-1, 1] at the stated sample rate,
// typically already preprocessed to the canonical 3 s / 16 kHz form.
// The output is a dense float32 vector whose dimensionality is returned
// by Dimension().
//
// # Thread Safety
//
// Implementations must be safe for concurrent use. Multiple goroutines
// may call Extract simultaneously.
type Model interface {
	// Extract computes a speaker embedding from the waveform.
	// Returns a float32 vector of length Dimension().
	Extract(samples []float64, sampleRate int) ([]float32, error)

	// Dimension returns the dimensionality of the embedding vectors
	// produced by Extract.
	Dimension() int

	// Close releases any resources held by the model (e.g., an inference
	// session). The Cepstral model holds none and returns nil.
	Close() error
}
