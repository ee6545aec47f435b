package template

import (
	"sort"
	"strings"
	"unicode"

	id "suratdesa/pkg/domain"
	dErrors "suratdesa/pkg/domain-errors"
)

// Normalize reduces a field or attribute name to its comparison form:
// lowercase with whitespace, punctuation, underscores, and hyphens removed.
// Canonical names are never stored normalized; this form exists only for
// matching.
func Normalize(name string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(name) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// prioritize orders attributes for matching: longest normalized form first,
// ties broken lexicographically. A longer attribute is the more specific
// claim, so it wins when several attributes would match the same field.
func prioritize(attributes []string) []string {
	ordered := append([]string(nil), attributes...)
	sort.Slice(ordered, func(i, j int) bool {
		ni, nj := Normalize(ordered[i]), Normalize(ordered[j])
		if len(ni) != len(nj) {
			return len(ni) > len(nj)
		}
		return ni < nj
	})
	return ordered
}

// initialism collapses a multi-word name to the first letters of its word
// segments: "nomor_induk_kependudukan" -> "nik". Single-word names yield a
// single letter, which matchesAttr refuses to use.
func initialism(name string) string {
	var b strings.Builder
	for _, word := range strings.FieldsFunc(strings.ToLower(name), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	}) {
		r := []rune(word)
		b.WriteRune(r[0])
	}
	return b.String()
}

func matchesAttr(fieldName, attr string) bool {
	normField, normAttr := Normalize(fieldName), Normalize(attr)
	if normField == "" || normAttr == "" {
		return false
	}
	if strings.Contains(normField, normAttr) || strings.Contains(normAttr, normField) {
		return true
	}
	// Abbreviated attributes: "nik" claims "nomor_induk_kependudukan"
	// because it is the initialism of the field's words, and vice versa.
	if fi := initialism(fieldName); len(fi) > 1 && fi == normAttr {
		return true
	}
	if ai := initialism(attr); len(ai) > 1 && ai == normField {
		return true
	}
	return false
}

// MatchAttribute resolves a field name to the profile attribute that claims
// it. Matching is deliberately permissive to catch naming variants: a
// bidirectional substring test on normalized forms ("alamat_tinggal" vs
// "alamat") plus an initialism test for abbreviated attributes
// ("nomor_induk_kependudukan" vs "nik"). The same function drives both
// classification and fill-time lookup, so the two stay consistent.
func MatchAttribute(fieldName string, attributes []string) (string, bool) {
	for _, attr := range prioritize(attributes) {
		if matchesAttr(fieldName, attr) {
			return attr, true
		}
	}
	return "", false
}

// AutoDetect partitions a template's raw fields into auto-fill and
// manual-input buckets. A field lands in auto-fill when its normalized name
// contains, or is contained by, a known profile attribute; everything else
// defaults to manual input. This is a heuristic: misclassifications are
// expected and corrected with SetBucket.
func AutoDetect(letterType id.LetterTypeID, rawFields []RawField, knownAttributes []string) *FieldMapping {
	mapping := &FieldMapping{
		LetterType: letterType,
		IsFillable: len(rawFields) > 0,
	}
	for _, field := range rawFields {
		if _, ok := MatchAttribute(field.Name, knownAttributes); ok {
			mapping.AutoFill = append(mapping.AutoFill, field.Name)
		} else {
			mapping.ManualInput = append(mapping.ManualInput, field.Name)
		}
	}
	return mapping
}

// SetBucket moves a field between auto-fill, manual-input, and skipped,
// keeping the buckets mutually exclusive.
func (m *FieldMapping) SetBucket(fieldName string, bucket FieldBucket) error {
	if fieldName == "" {
		return dErrors.New(dErrors.CodeValidation, "field name is required")
	}
	m.AutoFill = removeField(m.AutoFill, fieldName)
	m.ManualInput = removeField(m.ManualInput, fieldName)
	switch bucket {
	case BucketAutoFill:
		m.AutoFill = append(m.AutoFill, fieldName)
	case BucketManualInput:
		m.ManualInput = append(m.ManualInput, fieldName)
	case BucketSkipped:
		// absent from both sets
	default:
		return dErrors.New(dErrors.CodeValidation, "unknown field bucket "+string(bucket))
	}
	return nil
}
