package services

import "sync"

// WriterLock serialises every corpus-mutating operation across the
// services that share one instance: document persistence, index
// rebuilds, baseline builds and distance recomputes. Artifact saves
// stage-and-rename files on disk, so two interleaved writers could
// otherwise swap a vector file that disagrees with its sidecar.
// Readers never take it; search stays lock-free.
type WriterLock struct {
	mu sync.Mutex
}

// NewWriterLock returns a lock to be shared by every writer service of
// one engine instance.
func NewWriterLock() *WriterLock {
	return &WriterLock{}
}

func (l *WriterLock) lock()   { l.mu.Lock() }
func (l *WriterLock) unlock() { l.mu.Unlock() }
