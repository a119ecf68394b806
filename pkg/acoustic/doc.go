// Package acoustic implements the signal-processing kernel for the audio
// analysis pipeline: framing, windowing, FFT, mel-cepstral coefficients,
// and the spectral/temporal statistics consumed by the spoof detector and
// the risk engine.
//
// All functions operate on float64 waveforms normalized to [-1, 1] and are
// pure: no internal state, safe for concurrent use from any goroutine.
package acoustic
