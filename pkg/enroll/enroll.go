// Package enroll persists one reference speaker embedding per user and
// verifies new audio against it.
//
// Each user is stored as two files in a storage.FileStore: <userID>.emb
// holds the raw embedding as little-endian float32 values, <userID>.json
// holds a small metadata record. Re-enrolling overwrites both with no
// history kept.
//
// Enrollment failures degrade to a boolean false. Verification fails
// closed: any internal error yields Verified == false. A missing
// enrollment is a distinct, non-error outcome.
package enroll

import (
	"context"
	"encoding/binary"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"os"
	"sync"
	"time"

	"github.com/voxguard/voxguard/pkg/acoustic"
	"github.com/voxguard/voxguard/pkg/audio/preprocess"
	"github.com/voxguard/voxguard/pkg/storage"
	"github.com/voxguard/voxguard/pkg/voiceprint"
)

// DefaultThreshold is the cosine similarity above which verification
// accepts an identity claim.
const DefaultThreshold = 0.7

// Metadata describes one enrolled speaker. Stored next to the embedding.
type Metadata struct {
	UserID     string    `json:"user_id"`
	Dimension  int       `json:"dimension"`
	SampleRate int       `json:"sample_rate"`
	EnrolledAt time.Time `json:"enrolled_at"`
}

// Result is the outcome of one verification attempt.
type Result struct {
	Verified   bool    `json:"verified"`
	Confidence float64 `json:"confidence"`
	Similarity float64 `json:"similarity"`
	Threshold  float64 `json:"threshold"`
	Message    string  `json:"message,omitempty"`
}

// Config tunes a Store.
type Config struct {
	// Threshold is the similarity required to verify. Zero means
	// DefaultThreshold.
	Threshold float64
}

// Store enrolls and verifies speakers against a FileStore backend.
// Safe for concurrent use; operations on the same user are serialized.
type Store struct {
	files      storage.FileStore
	model      voiceprint.Model
	pre        *preprocess.Preprocessor
	targetRate int
	threshold  float64

	mu    sync.Mutex
	users map[string]*sync.Mutex
}

// New returns a Store persisting to files, embedding with model. Audio is
// preprocessed identically on enroll and verify so that enrolling and
// verifying the same waveform compares equal embeddings.
func New(files storage.FileStore, model voiceprint.Model, cfg Config) *Store {
	if cfg.Threshold == 0 {
		cfg.Threshold = DefaultThreshold
	}
	preCfg := preprocess.DefaultConfig()
	return &Store{
		files:      files,
		model:      model,
		pre:        preprocess.New(preCfg),
		targetRate: preCfg.TargetRate,
		threshold:  cfg.Threshold,
		users:      make(map[string]*sync.Mutex),
	}
}

func (s *Store) userLock(userID string) *sync.Mutex {
	s.mu.Lock()
	defer s.mu.Unlock()
	l, ok := s.users[userID]
	if !ok {
		l = &sync.Mutex{}
		s.users[userID] = l
	}
	return l
}

func embPath(userID string) string  { return userID + ".emb" }
func metaPath(userID string) string { return userID + ".json" }

// Enroll extracts an embedding from the waveform and persists it for
// userID, overwriting any prior enrollment. Returns false on any
// extraction or storage failure.
func (s *Store) Enroll(ctx context.Context, userID string, samples []float64, sampleRate int) bool {
	if userID == "" {
		slog.Warn("enroll rejected, empty user id")
		return false
	}
	emb, err := s.embed(samples, sampleRate)
	if err != nil {
		slog.Warn("enroll failed, embedding extraction", "user_id", userID, "error", err)
		return false
	}

	lock := s.userLock(userID)
	lock.Lock()
	defer lock.Unlock()

	if err := storage.WriteFile(ctx, s.files, embPath(userID), encodeEmbedding(emb)); err != nil {
		slog.Warn("enroll failed, embedding write", "user_id", userID, "error", err)
		return false
	}
	meta, err := json.Marshal(Metadata{
		UserID:     userID,
		Dimension:  len(emb),
		SampleRate: sampleRate,
		EnrolledAt: time.Now().UTC(),
	})
	if err != nil {
		slog.Warn("enroll failed, metadata encode", "user_id", userID, "error", err)
		return false
	}
	if err := storage.WriteFile(ctx, s.files, metaPath(userID), meta); err != nil {
		slog.Warn("enroll failed, metadata write", "user_id", userID, "error", err)
		return false
	}
	slog.Info("speaker enrolled", "user_id", userID, "dimension", len(emb))
	return true
}

// Verify compares the waveform's embedding against userID's stored
// reference. A missing enrollment yields Verified == false with a "not
// enrolled" message; internal errors also yield Verified == false.
func (s *Store) Verify(ctx context.Context, userID string, samples []float64, sampleRate int) Result {
	return s.VerifyWithThreshold(ctx, userID, samples, sampleRate, s.threshold)
}

// VerifyWithThreshold is Verify with a caller-supplied similarity
// threshold. A non-positive threshold falls back to the store default.
func (s *Store) VerifyWithThreshold(ctx context.Context, userID string, samples []float64, sampleRate int, threshold float64) Result {
	if threshold <= 0 {
		threshold = s.threshold
	}
	res := Result{Threshold: threshold}
	if userID == "" {
		res.Message = "user id required"
		return res
	}

	lock := s.userLock(userID)
	lock.Lock()
	raw, err := storage.ReadFile(ctx, s.files, embPath(userID))
	lock.Unlock()
	if errors.Is(err, os.ErrNotExist) {
		res.Message = "user not enrolled"
		return res
	}
	if err != nil {
		slog.Warn("verify failed, reference read", "user_id", userID, "error", err)
		res.Message = "verification error"
		return res
	}
	ref, err := decodeEmbedding(raw)
	if err != nil {
		slog.Warn("verify failed, reference decode", "user_id", userID, "error", err)
		res.Message = "verification error"
		return res
	}

	emb, err := s.embed(samples, sampleRate)
	if err != nil {
		slog.Warn("verify failed, embedding extraction", "user_id", userID, "error", err)
		res.Message = "verification error"
		return res
	}

	res.Similarity = acoustic.CosineSimilarity(emb, ref)
	res.Confidence = res.Similarity
	res.Verified = res.Similarity >= threshold
	return res
}

// Enrolled reports whether userID has a stored reference embedding.
func (s *Store) Enrolled(ctx context.Context, userID string) (bool, error) {
	return s.files.Exists(ctx, embPath(userID))
}

// Delete removes a user's enrollment. Missing enrollments are not an error.
func (s *Store) Delete(ctx context.Context, userID string) error {
	lock := s.userLock(userID)
	lock.Lock()
	defer lock.Unlock()
	if err := s.files.Delete(ctx, embPath(userID)); err != nil {
		return err
	}
	return s.files.Delete(ctx, metaPath(userID))
}

// Meta returns the stored metadata record for userID.
func (s *Store) Meta(ctx context.Context, userID string) (*Metadata, error) {
	raw, err := storage.ReadFile(ctx, s.files, metaPath(userID))
	if err != nil {
		return nil, err
	}
	var m Metadata
	if err := json.Unmarshal(raw, &m); err != nil {
		return nil, fmt.Errorf("enroll: decode metadata %s: %w", userID, err)
	}
	return &m, nil
}

func (s *Store) embed(samples []float64, sampleRate int) ([]float32, error) {
	processed, err := s.pre.Process(samples, sampleRate)
	if err != nil {
		return nil, err
	}
	return s.model.Extract(processed, s.targetRate)
}

func encodeEmbedding(emb []float32) []byte {
	buf := make([]byte, 4*len(emb))
	for i, v := range emb {
		binary.LittleEndian.PutUint32(buf[4*i:], math.Float32bits(v))
	}
	return buf
}

func decodeEmbedding(data []byte) ([]float32, error) {
	if len(data) == 0 || len(data)%4 != 0 {
		return nil, fmt.Errorf("enroll: embedding file length %d not a multiple of 4", len(data))
	}
	emb := make([]float32, len(data)/4)
	for i := range emb {
		emb[i] = math.Float32frombits(binary.LittleEndian.Uint32(data[4*i:]))
	}
	return emb, nil
}
