package emotion

import (
	"context"
	"sync"
	"time"
)

// FrameSource supplies one encoded still frame of the candidate. Ready
// reports false when no camera is attached or no fresh frame is visible.
type FrameSource interface {
	Ready() bool
	Frame(ctx context.Context) ([]byte, error)
}

// frameStaleAfter bounds how old an uploaded frame may be and still count
// as a visible picture of the candidate.
const frameStaleAfter = 15 * time.Second

// FrameBuffer holds the most recent webcam frame uploaded by the client.
// The browser owns the actual camera; the server only ever sees the latest
// still it was sent.
type FrameBuffer struct {
	mu        sync.RWMutex
	frame     []byte
	updatedAt time.Time
	enabled   bool
	now       func() time.Time
}

// NewFrameBuffer creates an empty, enabled frame buffer.
func NewFrameBuffer() *FrameBuffer {
	return &FrameBuffer{enabled: true, now: time.Now}
}

// Update stores the latest uploaded frame.
func (b *FrameBuffer) Update(frame []byte) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.frame = append(b.frame[:0], frame...)
	b.updatedAt = b.now()
}

// SetEnabled toggles whether the camera is considered live.
func (b *FrameBuffer) SetEnabled(enabled bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.enabled = enabled
}

// Ready implements FrameSource.
func (b *FrameBuffer) Ready() bool {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.enabled && len(b.frame) > 0 && b.now().Sub(b.updatedAt) < frameStaleAfter
}

// Frame implements FrameSource, returning a copy of the latest frame.
func (b *FrameBuffer) Frame(_ context.Context) ([]byte, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	out := make([]byte, len(b.frame))
	copy(out, b.frame)
	return out, nil
}
