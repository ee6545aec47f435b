package template

import (
	"context"
	"sync"

	id "suratdesa/pkg/domain"
	"suratdesa/pkg/platform/sentinel"
)

// FieldSource yields the fillable fields of a letter type's template. The
// production implementation sits in front of whatever extracts fields from
// the uploaded document; parsing is a black box to this package.
type FieldSource interface {
	ListFields(ctx context.Context, letterType id.LetterTypeID) ([]RawField, error)
}

// StaticFieldSource serves field lists registered at startup. Stands in for
// the document-parsing capability in development and tests.
type StaticFieldSource struct {
	mu     sync.RWMutex
	fields map[id.LetterTypeID][]RawField
}

func NewStaticFieldSource() *StaticFieldSource {
	return &StaticFieldSource{fields: make(map[id.LetterTypeID][]RawField)}
}

func (s *StaticFieldSource) Put(letterType id.LetterTypeID, fields []RawField) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.fields[letterType] = append([]RawField(nil), fields...)
}

func (s *StaticFieldSource) ListFields(_ context.Context, letterType id.LetterTypeID) ([]RawField, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	fields, ok := s.fields[letterType]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	return append([]RawField(nil), fields...), nil
}
