package template

import (
	"sort"
	"strings"

	dErrors "suratdesa/pkg/domain-errors"
)

// Fill resolves a concrete letter instance from a mapping, a resident's
// profile attributes, and manually supplied values. Pure and deterministic:
// identical inputs yield identical output, so the same instance can be
// re-rendered for printing without re-querying anything.
//
// The result's keys are exactly the union of the mapping's auto-fill and
// manual-input field names; skipped fields are omitted.
//
// Error contract:
//   - a required manual value missing while the template is fillable is a
//     validation error and no result is returned;
//   - an auto-fill field with no matching profile attribute is reported as a
//     missing-profile-data error, but the result is still returned with the
//     field blank; the caller decides whether to block or proceed.
func Fill(mapping *FieldMapping, profileAttrs map[string]string, manualValues map[string]string) (map[string]string, error) {
	if mapping == nil {
		return nil, dErrors.New(dErrors.CodeValidation, "field mapping is required")
	}

	var missingManual []string
	for _, name := range mapping.ManualInput {
		if manualValues[name] == "" {
			missingManual = append(missingManual, name)
		}
	}
	if mapping.IsFillable && len(missingManual) > 0 {
		sort.Strings(missingManual)
		return nil, dErrors.New(dErrors.CodeValidation,
			"missing manual values for fields: "+strings.Join(missingManual, ", "))
	}

	attrNames := make([]string, 0, len(profileAttrs))
	for name := range profileAttrs {
		attrNames = append(attrNames, name)
	}

	values := make(map[string]string, len(mapping.AutoFill)+len(mapping.ManualInput))
	var missingProfile []string
	for _, name := range mapping.AutoFill {
		attr, ok := MatchAttribute(name, attrNames)
		if !ok {
			missingProfile = append(missingProfile, name)
			values[name] = ""
			continue
		}
		values[name] = profileAttrs[attr]
	}
	for _, name := range mapping.ManualInput {
		values[name] = manualValues[name]
	}

	if len(missingProfile) > 0 {
		sort.Strings(missingProfile)
		return values, dErrors.New(dErrors.CodeMissingProfileData,
			"no profile attribute for fields: "+strings.Join(missingProfile, ", "))
	}
	return values, nil
}
