// Package attachment abstracts storage of verifier cover letters. The
// workflow core only holds opaque refs; bytes live behind this collaborator.
package attachment

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"suratdesa/internal/letter/models"
	"suratdesa/pkg/platform/sentinel"
)

// Store persists uploaded files and resolves refs back to download URLs.
type Store interface {
	Store(ctx context.Context, data []byte, mimeType string) (models.AttachmentRef, error)
	Resolve(ctx context.Context, ref models.AttachmentRef) (string, error)
}

type storedFile struct {
	data     []byte
	mimeType string
}

// InMemoryStore keeps uploads in process memory, keyed by opaque uuid
// handles. Development and test use only.
type InMemoryStore struct {
	mu    sync.RWMutex
	files map[string]storedFile
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{files: make(map[string]storedFile)}
}

func (s *InMemoryStore) Store(_ context.Context, data []byte, mimeType string) (models.AttachmentRef, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	handle := uuid.NewString()
	s.files[handle] = storedFile{data: append([]byte(nil), data...), mimeType: mimeType}
	return models.AttachmentRef{Handle: handle, UploadedAt: time.Now()}, nil
}

func (s *InMemoryStore) Resolve(_ context.Context, ref models.AttachmentRef) (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if _, ok := s.files[ref.Handle]; !ok {
		return "", sentinel.ErrNotFound
	}
	return "/attachments/" + ref.Handle, nil
}
