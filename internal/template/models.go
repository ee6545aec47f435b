// Package template owns field auto-mapping for fillable letter templates:
// classifying a template's fields into auto-fill and manual-input buckets,
// and resolving a concrete instance by merging resident profile data with
// manually supplied values.
package template

import (
	id "suratdesa/pkg/domain"
)

// FieldBucket says where a field's value comes from at fill time.
type FieldBucket string

const (
	// BucketAutoFill fields resolve from the resident's profile.
	BucketAutoFill FieldBucket = "auto_fill"
	// BucketManualInput fields must be supplied by the requester.
	BucketManualInput FieldBucket = "manual_input"
	// BucketSkipped fields are left out of the rendered instance entirely
	// (signature boxes, decorative fields).
	BucketSkipped FieldBucket = "skipped"
)

// RawField is one fillable field as reported by the template capability.
// PDF parsing itself is a black box; only the name/type list reaches us.
type RawField struct {
	Name string `json:"name"`
	Type string `json:"type"`
}

// FieldMapping is the per-letter-type classification an administrator
// configures once and fills read many times.
//
// Invariant: a field name belongs to at most one of AutoFill/ManualInput;
// a name absent from both is skipped. Fills never mutate a mapping.
type FieldMapping struct {
	LetterType  id.LetterTypeID `json:"letter_type_id"`
	IsFillable  bool            `json:"is_fillable"`
	AutoFill    []string        `json:"auto_fill"`
	ManualInput []string        `json:"manual_input"`
}

// BucketOf reports which bucket a field currently sits in.
func (m *FieldMapping) BucketOf(fieldName string) FieldBucket {
	for _, name := range m.AutoFill {
		if name == fieldName {
			return BucketAutoFill
		}
	}
	for _, name := range m.ManualInput {
		if name == fieldName {
			return BucketManualInput
		}
	}
	return BucketSkipped
}

// Clone copies the mapping so stores never alias caller state.
func (m *FieldMapping) Clone() *FieldMapping {
	if m == nil {
		return nil
	}
	copied := *m
	copied.AutoFill = append([]string(nil), m.AutoFill...)
	copied.ManualInput = append([]string(nil), m.ManualInput...)
	return &copied
}

func removeField(names []string, fieldName string) []string {
	out := names[:0]
	for _, name := range names {
		if name != fieldName {
			out = append(out, name)
		}
	}
	return out
}
