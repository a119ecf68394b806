package acoustic

import (
	"errors"
	"math"
)

// ErrTooShort is returned when the waveform has fewer samples than one
// analysis frame.
var ErrTooShort = errors.New("acoustic: waveform shorter than one frame")

// FeatureSet is the summary statistics extracted from a waveform.
type FeatureSet struct {
	MFCCMean []float64 // per-coefficient mean across frames
	MFCCStd  []float64 // per-coefficient std across frames

	SpectralCentroidMean float64
	SpectralCentroidStd  float64

	ZCRMean float64
	ZCRStd  float64

	ChromaMean []float64 // 12-bin mean chroma vector

	RMSMean float64
	RMSStd  float64
}

// Features extracts the full feature set from a waveform. Pure function;
// identical inputs yield identical outputs.
func Features(samples []float64, sampleRate int) (*FeatureSet, error) {
	cfg := DefaultConfig(sampleRate)
	if cfg.numFrames(len(samples)) == 0 {
		return nil, ErrTooShort
	}

	mfcc := MFCC(samples, cfg)
	mfccMean := make([]float64, cfg.NumCepstra)
	mfccStd := make([]float64, cfg.NumCepstra)
	col := make([]float64, len(mfcc))
	for c := 0; c < cfg.NumCepstra; c++ {
		for f := range mfcc {
			col[f] = mfcc[f][c]
		}
		mfccMean[c] = Mean(col)
		mfccStd[c] = Std(col)
	}

	centroids := SpectralCentroids(samples, cfg)
	zcr := ZeroCrossingRate(samples, cfg)
	rms := RMSEnergy(samples, cfg)

	return &FeatureSet{
		MFCCMean:             mfccMean,
		MFCCStd:              mfccStd,
		SpectralCentroidMean: Mean(centroids),
		SpectralCentroidStd:  Std(centroids),
		ZCRMean:              Mean(zcr),
		ZCRStd:               Std(zcr),
		ChromaMean:           Chroma(samples, cfg),
		RMSMean:              Mean(rms),
		RMSStd:               Std(rms),
	}, nil
}

// SNR estimates the signal-to-noise ratio in dB: mean sample power against
// the 10th-percentile sample power as the noise floor. Returns 100 dB when
// no noise floor is measurable.
func SNR(samples []float64) float64 {
	if len(samples) == 0 {
		return 100
	}
	power := make([]float64, len(samples))
	for i, v := range samples {
		power[i] = v * v
	}
	signal := Mean(power)
	noise := Percentile(power, 10)
	if noise <= 0 {
		return 100
	}
	return 10 * math.Log10(signal/noise)
}

// CosineSimilarity returns dot(a,b)/(|a|·|b|), or 0 when either vector has
// zero norm. Mismatched lengths compare over the shorter prefix.
func CosineSimilarity(a, b []float32) float64 {
	n := len(a)
	if len(b) < n {
		n = len(b)
	}
	var dot, na, nb float64
	for i := 0; i < n; i++ {
		dot += float64(a[i]) * float64(b[i])
		na += float64(a[i]) * float64(a[i])
		nb += float64(b[i]) * float64(b[i])
	}
	if na == 0 || nb == 0 {
		return 0
	}
	return dot / (math.Sqrt(na) * math.Sqrt(nb))
}
