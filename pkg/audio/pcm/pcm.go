package pcm

import (
	"errors"
	"time"
)

// Decode errors.
var (
	// ErrEmpty is returned when the payload contains no audio data.
	ErrEmpty = errors.New("pcm: empty payload")

	// ErrOddLength is returned when the payload length is not a multiple
	// of the 2-byte sample size.
	ErrOddLength = errors.New("pcm: payload length is not a multiple of sample size")
)

const (
	// L16Mono16K represents audio/L16; rate=16000; channels=1
	L16Mono16K Format = iota
	// L16Mono24K represents audio/L16; rate=24000; channels=1
	L16Mono24K
	// L16Mono48K represents audio/L16; rate=48000; channels=1
	L16Mono48K
)

// Format represents a mono 16-bit audio format configuration.
type Format int

// SampleRate returns the sample rate in Hz for this format.
func (f Format) SampleRate() int {
	switch f {
	case L16Mono16K:
		return 16000
	case L16Mono24K:
		return 24000
	case L16Mono48K:
		return 48000
	}
	panic("pcm: invalid audio format")
}

// Depth returns the bit depth for this format.
func (f Format) Depth() int {
	switch f {
	case L16Mono16K, L16Mono24K, L16Mono48K:
		return 16
	}
	panic("pcm: invalid audio format")
}

// Samples returns the number of samples in the given number of bytes.
func (f Format) Samples(bytes int64) int64 {
	return bytes * 8 / int64(f.Depth())
}

// SamplesInDuration returns the number of samples in the given duration.
func (f Format) SamplesInDuration(d time.Duration) int64 {
	return int64(time.Duration(f.SampleRate()) * d / time.Second)
}

// BytesInDuration returns the number of bytes in the given duration.
func (f Format) BytesInDuration(d time.Duration) int64 {
	return f.SamplesInDuration(d) * int64(f.Depth()) / 8
}

// Duration returns the duration of the given number of bytes.
func (f Format) Duration(bytes int64) time.Duration {
	return time.Duration(f.Samples(bytes)) * time.Second / time.Duration(f.SampleRate())
}

// String returns a human-readable string representation of the format.
func (f Format) String() string {
	switch f {
	case L16Mono16K:
		return "audio/L16; rate=16000; channels=1"
	case L16Mono24K:
		return "audio/L16; rate=24000; channels=1"
	case L16Mono48K:
		return "audio/L16; rate=48000; channels=1"
	}
	panic("pcm: invalid audio format")
}

// FormatForRate returns the Format for a sample rate, if one is defined.
func FormatForRate(rate int) (Format, bool) {
	switch rate {
	case 16000:
		return L16Mono16K, true
	case 24000:
		return L16Mono24K, true
	case 48000:
		return L16Mono48K, true
	}
	return 0, false
}

// Decode converts interleaved 16-bit signed little-endian PCM bytes into
// float64 samples normalized to [-1, 1] (sample / 32768).
//
// Returns ErrEmpty for a zero-length payload and ErrOddLength when the
// byte count is not a multiple of 2.
func Decode(data []byte) ([]float64, error) {
	if len(data) == 0 {
		return nil, ErrEmpty
	}
	if len(data)%2 != 0 {
		return nil, ErrOddLength
	}
	samples := make([]float64, len(data)/2)
	for i := range samples {
		s := int16(data[2*i]) | int16(data[2*i+1])<<8
		samples[i] = float64(s) / 32768.0
	}
	return samples, nil
}

// Encode converts float64 samples in [-1, 1] back to 16-bit signed
// little-endian PCM bytes. Samples outside the valid range are clipped.
func Encode(samples []float64) []byte {
	data := make([]byte, len(samples)*2)
	for i, v := range samples {
		var s int16
		switch {
		case v >= 1.0:
			s = 32767
		case v <= -1.0:
			s = -32768
		default:
			s = int16(v * 32768.0)
		}
		data[2*i] = byte(s)
		data[2*i+1] = byte(s >> 8)
	}
	return data
}
