package template

import (
	"context"
	"errors"

	id "suratdesa/pkg/domain"
	dErrors "suratdesa/pkg/domain-errors"
	"suratdesa/pkg/platform/sentinel"
)

// Admin is the administrator-facing side of field mapping: running detection
// against a template's fields and correcting individual bucket assignments.
type Admin struct {
	mappings MappingStore
	fields   FieldSource
	known    []string
}

func NewAdmin(mappings MappingStore, fields FieldSource, knownAttributes []string) *Admin {
	return &Admin{
		mappings: mappings,
		fields:   fields,
		known:    append([]string(nil), knownAttributes...),
	}
}

// Detect classifies the letter type's template fields and persists the
// result, replacing any previous mapping including manual corrections.
func (a *Admin) Detect(ctx context.Context, letterType id.LetterTypeID) (*FieldMapping, error) {
	rawFields, err := a.fields.ListFields(ctx, letterType)
	if errors.Is(err, sentinel.ErrNotFound) {
		return nil, dErrors.New(dErrors.CodeNotFound, "no template registered for letter type "+string(letterType))
	}
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "list template fields")
	}
	mapping := AutoDetect(letterType, rawFields, a.known)
	if err := a.mappings.Save(ctx, mapping); err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "save field mapping")
	}
	return mapping, nil
}

// GetMapping returns the stored mapping for a letter type.
func (a *Admin) GetMapping(ctx context.Context, letterType id.LetterTypeID) (*FieldMapping, error) {
	mapping, err := a.mappings.FindByLetterType(ctx, letterType)
	if errors.Is(err, sentinel.ErrNotFound) {
		return nil, dErrors.New(dErrors.CodeNotFound, "no field mapping for letter type "+string(letterType))
	}
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "load field mapping")
	}
	return mapping, nil
}

// SetFieldBucket reassigns one field and persists the corrected mapping.
func (a *Admin) SetFieldBucket(ctx context.Context, letterType id.LetterTypeID, fieldName string, bucket FieldBucket) (*FieldMapping, error) {
	mapping, err := a.GetMapping(ctx, letterType)
	if err != nil {
		return nil, err
	}
	if err := mapping.SetBucket(fieldName, bucket); err != nil {
		return nil, err
	}
	if err := a.mappings.Save(ctx, mapping); err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "save field mapping")
	}
	return mapping, nil
}
