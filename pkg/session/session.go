// Package session tracks monitored audio sessions: creation, per-chunk
// quality/spoof history, and aggregate status. Records are persisted
// through the kv abstraction, so history survives restarts when a durable
// backend is configured.
//
// Concurrent chunk submissions for the same session id serialize their
// read-modify-write through a per-session mutex; submissions for different
// sessions do not contend.
package session

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/vmihailenco/msgpack/v5"

	"github.com/voxguard/voxguard/pkg/kv"
)

// ErrNotFound is returned when a session id is unknown.
var ErrNotFound = errors.New("session: not found")

// keyPrefix is the kv namespace for session records.
var keyPrefix = kv.Key{"session"}

// sessionKey returns the kv key for one session record.
func sessionKey(id string) kv.Key {
	return kv.Key{"session", id}
}

// Record is the persisted state of one session.
type Record struct {
	ID             string    `msgpack:"id"`
	UserID         string    `msgpack:"user_id"`
	CreatedAt      time.Time `msgpack:"created_at"`
	LastActivity   time.Time `msgpack:"last_activity"`
	Chunks         int       `msgpack:"chunks"`
	QualityHistory []float64 `msgpack:"quality_history"`
	SpoofHistory   []float64 `msgpack:"spoof_history"`
	RiskLevels     []string  `msgpack:"risk_levels"`
}

// Status is the aggregate view of a session.
//
// With an empty history the averages default to quality 1.0 and spoof 0.0:
// a session is assumed good until evidence accumulates.
type Status struct {
	SessionID         string  `json:"session_id"`
	UserID            string  `json:"user_id"`
	DurationSeconds   float64 `json:"duration_seconds"`
	ChunksProcessed   int     `json:"chunks_processed"`
	AverageQuality    float64 `json:"average_quality"`
	AverageSpoofScore float64 `json:"average_spoof_score"`
	Status            string  `json:"status"`
}

// Store manages session records on top of a kv.Store.
type Store struct {
	store kv.Store

	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

// NewStore creates a session store backed by the given kv store.
func NewStore(store kv.Store) *Store {
	return &Store{
		store: store,
		locks: make(map[string]*sync.Mutex),
	}
}

// lockFor returns the mutex serializing access to one session id.
func (s *Store) lockFor(id string) *sync.Mutex {
	s.mu.Lock()
	defer s.mu.Unlock()
	l, ok := s.locks[id]
	if !ok {
		l = &sync.Mutex{}
		s.locks[id] = l
	}
	return l
}

// releaseLock drops the per-session mutex once the session is gone.
func (s *Store) releaseLock(id string) {
	s.mu.Lock()
	delete(s.locks, id)
	s.mu.Unlock()
}

// Create starts a new session for the user and returns its id.
func (s *Store) Create(ctx context.Context, userID string) (string, error) {
	now := time.Now()
	rec := Record{
		ID:           uuid.NewString(),
		UserID:       userID,
		CreatedAt:    now,
		LastActivity: now,
	}
	if err := s.put(ctx, &rec); err != nil {
		return "", err
	}
	return rec.ID, nil
}

// RecordChunk appends one chunk's scores to the session history. The
// read-modify-write runs under the per-session lock.
func (s *Store) RecordChunk(ctx context.Context, id string, quality, spoofScore float64, riskLevel string) error {
	l := s.lockFor(id)
	l.Lock()
	defer l.Unlock()

	rec, err := s.get(ctx, id)
	if err != nil {
		return err
	}
	rec.Chunks++
	rec.QualityHistory = append(rec.QualityHistory, quality)
	rec.SpoofHistory = append(rec.SpoofHistory, spoofScore)
	rec.RiskLevels = append(rec.RiskLevels, riskLevel)
	rec.LastActivity = time.Now()
	return s.put(ctx, rec)
}

// Status returns the aggregate view of a session, or ErrNotFound.
func (s *Store) Status(ctx context.Context, id string) (*Status, error) {
	rec, err := s.get(ctx, id)
	if err != nil {
		return nil, err
	}

	avgQuality, avgSpoof := 1.0, 0.0
	if len(rec.QualityHistory) > 0 {
		avgQuality = mean(rec.QualityHistory)
		avgSpoof = mean(rec.SpoofHistory)
	}

	return &Status{
		SessionID:         rec.ID,
		UserID:            rec.UserID,
		DurationSeconds:   time.Since(rec.CreatedAt).Seconds(),
		ChunksProcessed:   rec.Chunks,
		AverageQuality:    avgQuality,
		AverageSpoofScore: avgSpoof,
		Status:            "active",
	}, nil
}

// Delete removes a session. No error if the id is unknown.
func (s *Store) Delete(ctx context.Context, id string) error {
	if err := s.store.Delete(ctx, sessionKey(id)); err != nil {
		return err
	}
	s.releaseLock(id)
	return nil
}

// Reap deletes sessions idle longer than the given timeout and returns how
// many were evicted. Session lifetime is otherwise unbounded; deployments
// that want eviction run this periodically (see RunReaper).
func (s *Store) Reap(ctx context.Context, idleTimeout time.Duration) (int, error) {
	cutoff := time.Now().Add(-idleTimeout)
	evicted := 0
	for entry, err := range s.store.List(ctx, keyPrefix) {
		if err != nil {
			return evicted, err
		}
		var rec Record
		if err := msgpack.Unmarshal(entry.Value, &rec); err != nil {
			continue
		}
		if rec.LastActivity.Before(cutoff) {
			if err := s.Delete(ctx, rec.ID); err != nil {
				return evicted, err
			}
			evicted++
		}
	}
	return evicted, nil
}

// RunReaper reaps idle sessions every interval until the context is
// canceled.
func (s *Store) RunReaper(ctx context.Context, idleTimeout, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if _, err := s.Reap(ctx, idleTimeout); err != nil {
				// Next tick retries; the store may be briefly unavailable.
				continue
			}
		}
	}
}

func (s *Store) get(ctx context.Context, id string) (*Record, error) {
	raw, err := s.store.Get(ctx, sessionKey(id))
	if errors.Is(err, kv.ErrNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	var rec Record
	if err := msgpack.Unmarshal(raw, &rec); err != nil {
		return nil, fmt.Errorf("session: decode record %s: %w", id, err)
	}
	return &rec, nil
}

func (s *Store) put(ctx context.Context, rec *Record) error {
	raw, err := msgpack.Marshal(rec)
	if err != nil {
		return fmt.Errorf("session: encode record %s: %w", rec.ID, err)
	}
	return s.store.Set(ctx, sessionKey(rec.ID), raw)
}

func mean(x []float64) float64 {
	var sum float64
	for _, v := range x {
		sum += v
	}
	return sum / float64(len(x))
}
