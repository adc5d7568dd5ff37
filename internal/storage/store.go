package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"github.com/sweetfrozen/storefront/pkg/logger"
)

type fallbackRecorder interface {
	IncStorageFallback(op string)
}

// pendingWrite is a change accepted while the backend was unavailable.
type pendingWrite struct {
	raw     []byte
	removed bool
}

// Store is the JSON key-value layer used by every storefront component. Reads
// never fail: missing or corrupt records are reported as absent. Writes the
// backend rejects are held in memory, served in preference to the backend, and
// written back on the next successful backend call.
type Store struct {
	backend Backend
	logg    *logger.Logger
	metrics fallbackRecorder
	locks   *KeyLocks

	mu      sync.RWMutex
	pending map[string]pendingWrite
}

// NewStore wraps backend. A nil backend stores everything in memory.
func NewStore(backend Backend, logg *logger.Logger, metrics fallbackRecorder) *Store {
	if backend == nil {
		backend = NewMemoryBackend()
	}
	if logg == nil {
		logg = logger.Nop()
	}
	return &Store{
		backend: backend,
		logg:    logg,
		metrics: metrics,
		locks:   NewKeyLocks(),
		pending: map[string]pendingWrite{},
	}
}

// Get decodes the record at key into dest and reports whether it was found.
func (s *Store) Get(ctx context.Context, key string, dest any) bool {
	raw, found, healthy := s.load(ctx, key)
	if healthy {
		s.replay(ctx)
	}
	if !found {
		return false
	}

	if err := json.Unmarshal(raw, dest); err != nil {
		s.logg.Warn(s.logg.WithFields(ctx, map[string]any{"key": key, "error": err.Error()}), "discarding corrupt storage record")
		return false
	}
	return true
}

func (s *Store) load(ctx context.Context, key string) (raw []byte, found, healthy bool) {
	unlock := s.locks.Lock(key)
	defer unlock()

	if pw, ok := s.pendingFor(key); ok {
		healthy = s.writeBack(ctx, key, pw)
		return pw.raw, !pw.removed, healthy
	}

	raw, err := s.backend.Read(ctx, key)
	switch {
	case err == nil:
		return raw, true, true
	case errors.Is(err, ErrNotFound):
		return nil, false, true
	default:
		s.degraded(ctx, "get", key, err)
		return nil, false, false
	}
}

// Set encodes value as JSON and writes it under key.
func (s *Store) Set(ctx context.Context, key string, value any) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("encode %s: %w", key, err)
	}
	if s.commit(ctx, "set", key, pendingWrite{raw: raw}) {
		s.replay(ctx)
	}
	return nil
}

// Remove deletes the record at key. Missing keys are not an error.
func (s *Store) Remove(ctx context.Context, key string) error {
	if s.commit(ctx, "remove", key, pendingWrite{removed: true}) {
		s.replay(ctx)
	}
	return nil
}

// commit applies pw to the backend, or holds it as pending when the backend
// rejects it. It reports whether the backend accepted the write.
func (s *Store) commit(ctx context.Context, op, key string, pw pendingWrite) bool {
	unlock := s.locks.Lock(key)
	defer unlock()

	if err := s.apply(ctx, key, pw); err != nil {
		s.degraded(ctx, op, key, err)
		s.mu.Lock()
		s.pending[key] = pw
		s.mu.Unlock()
		return false
	}
	s.clearPending(key)
	return true
}

func (s *Store) apply(ctx context.Context, key string, pw pendingWrite) error {
	if pw.removed {
		if err := s.backend.Delete(ctx, key); err != nil && !errors.Is(err, ErrNotFound) {
			return err
		}
		return nil
	}
	return s.backend.Write(ctx, key, pw.raw)
}

// writeBack pushes one pending change to the backend. The caller holds the
// key lock.
func (s *Store) writeBack(ctx context.Context, key string, pw pendingWrite) bool {
	if err := s.apply(ctx, key, pw); err != nil {
		return false
	}
	s.clearPending(key)
	s.logg.Info(s.logg.WithField(ctx, "key", key), "pending storage write flushed")
	return true
}

// replay flushes every pending change, stopping at the first backend failure.
func (s *Store) replay(ctx context.Context) {
	s.mu.RLock()
	if len(s.pending) == 0 {
		s.mu.RUnlock()
		return
	}
	keys := make([]string, 0, len(s.pending))
	for key := range s.pending {
		keys = append(keys, key)
	}
	s.mu.RUnlock()

	for _, key := range keys {
		unlock := s.locks.Lock(key)
		pw, ok := s.pendingFor(key)
		flushed := !ok || s.writeBack(ctx, key, pw)
		unlock()
		if !flushed {
			return
		}
	}
}

func (s *Store) pendingFor(key string) (pendingWrite, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	pw, ok := s.pending[key]
	return pw, ok
}

func (s *Store) clearPending(key string) {
	s.mu.Lock()
	delete(s.pending, key)
	s.mu.Unlock()
}

func (s *Store) degraded(ctx context.Context, op, key string, err error) {
	if s.metrics != nil {
		s.metrics.IncStorageFallback(op)
	}
	s.logg.Error(s.logg.WithFields(ctx, map[string]any{"op": op, "key": key}), "storage backend unavailable", err)
}
