package schema

import (
	"bytes"
	"encoding/json"

	"github.com/phlask/resource-registry/internal/domain"
)

// ValidatePartial checks a partial diff, as submitted by an update or a
// suggestion, against the schema for the target's resource type. Values are
// JSON-decoded (string, float64, bool, nil, []any, map[string]any). Unlike
// Validate it does not require globally required fields, since the diff only
// carries the fields it wants to change.
func ValidatePartial(rt domain.ResourceType, fields map[string]any) []domain.FieldError {
	var errs []domain.FieldError

	for name, value := range fields {
		if Immutable(name) {
			errs = append(errs, domain.FieldError{Field: name, Rule: domain.RuleImmutable})
			continue
		}

		switch name {
		case "name", "description", "guidelines", "address", "city", "state", "zip_code", "gp_id":
			if !isStringOrNull(value) {
				errs = append(errs, domain.FieldError{Field: name, Rule: domain.RuleTypeMismatch})
			}
		case "latitude":
			if n, ok := value.(float64); !ok || n < -90 || n > 90 {
				errs = append(errs, domain.FieldError{Field: name, Rule: domain.RuleTypeMismatch})
			}
		case "longitude":
			if n, ok := value.(float64); !ok || n < -180 || n > 180 {
				errs = append(errs, domain.FieldError{Field: name, Rule: domain.RuleTypeMismatch})
			}
		case "status":
			errs = appendEnumError(errs, name, value, Statuses, false)
		case "entry_type":
			errs = appendEnumError(errs, name, value, EntryTypes, true)
		case "images":
			if _, ok := asStringSlice(value); !ok {
				errs = append(errs, domain.FieldError{Field: name, Rule: domain.RuleTypeMismatch})
			}
		case "source":
			errs = append(errs, validateSourceValue(value)...)
		case "water", "food", "forage", "bathroom":
			errs = append(errs, validatePayloadValue(rt, name, value)...)
		default:
			errs = append(errs, domain.FieldError{Field: name, Rule: domain.RuleUnknownField})
		}
	}

	return errs
}

func isStringOrNull(value any) bool {
	if value == nil {
		return true
	}
	_, ok := value.(string)
	return ok
}

func asStringSlice(value any) ([]string, bool) {
	raw, ok := value.([]any)
	if !ok {
		return nil, false
	}
	out := make([]string, 0, len(raw))
	for _, item := range raw {
		s, ok := item.(string)
		if !ok {
			return nil, false
		}
		out = append(out, s)
	}
	return out, true
}

func appendEnumError(errs []domain.FieldError, field string, value any, vocab Vocabulary, nullable bool) []domain.FieldError {
	if value == nil {
		if nullable {
			return errs
		}
		return append(errs, domain.FieldError{Field: field, Rule: domain.RuleMissingRequired})
	}
	s, ok := value.(string)
	if !ok {
		return append(errs, domain.FieldError{Field: field, Rule: domain.RuleTypeMismatch})
	}
	if !vocab.Contains(s) {
		return append(errs, domain.FieldError{Field: field, Rule: domain.RuleNotInVocabulary})
	}
	return errs
}

func validateSourceValue(value any) []domain.FieldError {
	var src domain.DataSource
	if err := decodeStrict(value, &src); err != nil {
		return []domain.FieldError{{Field: "source", Rule: domain.RuleTypeMismatch}}
	}
	if src.Type != "" && !SourceTypes.Contains(src.Type) {
		return []domain.FieldError{{Field: "source", Rule: domain.RuleNotInVocabulary}}
	}
	return nil
}

// validatePayloadValue enforces the tagged-union invariant on a diff: a
// payload field may only be set for the matching resource type, and its
// contents must pass the same vocabulary checks as a full entry.
func validatePayloadValue(rt domain.ResourceType, field string, value any) []domain.FieldError {
	if field != payloadField(rt) {
		return []domain.FieldError{{Field: field, Rule: domain.RuleTypeMismatch}}
	}
	if value == nil {
		// The matching payload is required and may not be nulled out.
		return []domain.FieldError{{Field: field, Rule: domain.RuleMissingRequired}}
	}

	switch field {
	case "water":
		var info domain.WaterInfo
		if err := decodeStrict(value, &info); err != nil {
			return []domain.FieldError{{Field: field, Rule: domain.RuleTypeMismatch}}
		}
		return validateWater(info)
	case "food":
		var info domain.FoodInfo
		if err := decodeStrict(value, &info); err != nil {
			return []domain.FieldError{{Field: field, Rule: domain.RuleTypeMismatch}}
		}
		return validateFood(info)
	case "forage":
		var info domain.ForageInfo
		if err := decodeStrict(value, &info); err != nil {
			return []domain.FieldError{{Field: field, Rule: domain.RuleTypeMismatch}}
		}
		return validateForage(info)
	case "bathroom":
		var info domain.BathroomInfo
		if err := decodeStrict(value, &info); err != nil {
			return []domain.FieldError{{Field: field, Rule: domain.RuleTypeMismatch}}
		}
		return validateBathroom(info)
	}
	return nil
}

// decodeStrict round-trips a JSON-decoded value into a typed struct,
// rejecting unknown keys so stray tags are surfaced instead of dropped.
func decodeStrict(value any, out any) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return err
	}
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.DisallowUnknownFields()
	return dec.Decode(out)
}
