// Package audio is an umbrella for audio handling sub-packages:
//
//   - pcm: 16-bit PCM decoding and encoding
//   - preprocess: canonicalization of waveforms for analysis
package audio
