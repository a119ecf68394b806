// Package pcm decodes raw 16-bit signed little-endian PCM audio into
// normalized float64 waveforms and provides format/duration arithmetic
// for the mono sample rates handled by the analysis pipeline.
//
// Key types:
//   - Format: audio format (sample rate, mono, 16-bit) with byte/sample
//     and duration conversions
//   - Decode/Encode: raw PCM16 bytes ↔ float64 samples in [-1, 1]
//
// Example usage:
//
//	samples, err := pcm.Decode(chunkBytes)
//	if err != nil {
//		// reject the chunk
//	}
//	d := pcm.L16Mono16K.Duration(int64(len(chunkBytes)))
package pcm
