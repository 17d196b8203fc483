// Package schema holds the closed vocabularies for every enumerated field of
// the resource registry and the validation rules derived from them. It is the
// single source of truth for both creation-time and update-time validation:
// callers never re-check vocabularies at the call site.
//
// Every function here is pure and total. Validation reports problems as
// domain.FieldError values and never fails in any other way, so the mutation
// path can always act on the result.
package schema

import (
	"github.com/phlask/resource-registry/internal/domain"
)

// Vocabulary is a closed, finite set of allowed tag values.
type Vocabulary map[string]struct{}

func NewVocabulary(values ...string) Vocabulary {
	v := make(Vocabulary, len(values))
	for _, s := range values {
		v[s] = struct{}{}
	}
	return v
}

func (v Vocabulary) Contains(s string) bool {
	_, ok := v[s]
	return ok
}

var (
	ResourceTypes = NewVocabulary("WATER", "FOOD", "FORAGE", "BATHROOM")

	Statuses = NewVocabulary(
		"OPERATIONAL", "TEMPORARILY_CLOSED", "PERMANENTLY_CLOSED", "HIDDEN",
	)

	EntryTypes = NewVocabulary("OPEN", "RESTRICTED", "UNSURE")

	SourceTypes = NewVocabulary("MANUAL", "WEB_SCRAPE")

	DispenserTypes = NewVocabulary(
		"DRINKING_FOUNTAIN", "BOTTLE_FILLER", "SINK", "JUG",
		"SODA_MACHINE", "PITCHER", "WATER_COOLER",
	)

	WaterTags = NewVocabulary(
		"WHEELCHAIR_ACCESSIBLE", "FILTERED", "BYOB", "ID_REQUIRED",
	)

	FoodTypes = NewVocabulary("PERISHABLE", "NON_PERISHABLE", "PREPARED")

	DistributionTypes = NewVocabulary("EAT_ON_SITE", "DELIVERY", "PICKUP")

	OrganizationTypes = NewVocabulary(
		"GOVERNMENT", "BUSINESS", "NON_PROFIT", "UNSURE",
	)

	ForageTypes = NewVocabulary("NUT", "FRUIT", "LEAVES", "BARK", "FLOWERS")

	ForageTags = NewVocabulary("MEDICINAL", "IN_SEASON", "COMMUNITY_GARDEN")

	BathroomTags = NewVocabulary(
		"WHEELCHAIR_ACCESSIBLE", "GENDER_NEUTRAL", "CHANGING_TABLE",
		"SINGLE_OCCUPANCY", "FAMILY",
	)
)

// immutableFields are server-managed or identity-defining and cannot be
// changed through a field-level update. resource_type is immutable because
// changing it would invalidate the attached payload.
var immutableFields = map[string]struct{}{
	"id":            {},
	"version":       {},
	"resource_type": {},
	"date_created":  {},
	"creator":       {},
	"last_modified": {},
	"last_modifier": {},
	"verification":  {},
}

// Immutable reports whether a field may never be set by a partial update.
func Immutable(field string) bool {
	_, ok := immutableFields[field]
	return ok
}

// payloadField maps a resource type to the name of its payload field.
func payloadField(rt domain.ResourceType) string {
	switch rt {
	case domain.ResourceWater:
		return "water"
	case domain.ResourceFood:
		return "food"
	case domain.ResourceForage:
		return "forage"
	case domain.ResourceBathroom:
		return "bathroom"
	}
	return ""
}

// Validate checks a full entry against the schema: globally required fields,
// payload/type consistency, and every enumerated value. It returns one
// FieldError per violation and an empty slice for a valid entry.
func Validate(entry domain.ResourceEntry) []domain.FieldError {
	var errs []domain.FieldError

	if !ResourceTypes.Contains(string(entry.ResourceType)) {
		errs = append(errs, domain.FieldError{Field: "resource_type", Rule: domain.RuleNotInVocabulary})
	}
	if entry.Status == "" {
		errs = append(errs, domain.FieldError{Field: "status", Rule: domain.RuleMissingRequired})
	} else if !Statuses.Contains(string(entry.Status)) {
		errs = append(errs, domain.FieldError{Field: "status", Rule: domain.RuleNotInVocabulary})
	}
	if entry.Latitude < -90 || entry.Latitude > 90 {
		errs = append(errs, domain.FieldError{Field: "latitude", Rule: domain.RuleTypeMismatch})
	}
	if entry.Longitude < -180 || entry.Longitude > 180 {
		errs = append(errs, domain.FieldError{Field: "longitude", Rule: domain.RuleTypeMismatch})
	}
	if entry.EntryType != nil && !EntryTypes.Contains(string(*entry.EntryType)) {
		errs = append(errs, domain.FieldError{Field: "entry_type", Rule: domain.RuleNotInVocabulary})
	}
	if entry.Source.Type != "" && !SourceTypes.Contains(entry.Source.Type) {
		errs = append(errs, domain.FieldError{Field: "source", Rule: domain.RuleNotInVocabulary})
	}

	errs = append(errs, validatePayloadPresence(entry)...)

	if entry.Water != nil {
		errs = append(errs, validateWater(*entry.Water)...)
	}
	if entry.Food != nil {
		errs = append(errs, validateFood(*entry.Food)...)
	}
	if entry.Forage != nil {
		errs = append(errs, validateForage(*entry.Forage)...)
	}
	if entry.Bathroom != nil {
		errs = append(errs, validateBathroom(*entry.Bathroom)...)
	}

	return errs
}

// validatePayloadPresence enforces the tagged-union invariant: the payload
// matching resource_type must be the only one set.
func validatePayloadPresence(entry domain.ResourceEntry) []domain.FieldError {
	var errs []domain.FieldError
	present := map[string]bool{
		"water":    entry.Water != nil,
		"food":     entry.Food != nil,
		"forage":   entry.Forage != nil,
		"bathroom": entry.Bathroom != nil,
	}
	expected := payloadField(entry.ResourceType)
	for field, set := range present {
		if set && field != expected {
			errs = append(errs, domain.FieldError{Field: field, Rule: domain.RuleTypeMismatch})
		}
	}
	if expected != "" && !present[expected] {
		errs = append(errs, domain.FieldError{Field: expected, Rule: domain.RuleMissingRequired})
	}
	return errs
}

func validateTags(field string, values []string, vocab Vocabulary, errs []domain.FieldError) []domain.FieldError {
	for _, v := range values {
		if !vocab.Contains(v) {
			errs = append(errs, domain.FieldError{Field: field, Rule: domain.RuleNotInVocabulary})
			break
		}
	}
	return errs
}

func validateWater(info domain.WaterInfo) []domain.FieldError {
	var errs []domain.FieldError
	errs = validateTags("water.dispenser_type", info.DispenserType, DispenserTypes, errs)
	errs = validateTags("water.tags", info.Tags, WaterTags, errs)
	return errs
}

func validateFood(info domain.FoodInfo) []domain.FieldError {
	var errs []domain.FieldError
	if len(info.FoodType) == 0 {
		errs = append(errs, domain.FieldError{Field: "food.food_type", Rule: domain.RuleMissingRequired})
	}
	if len(info.DistributionType) == 0 {
		errs = append(errs, domain.FieldError{Field: "food.distribution_type", Rule: domain.RuleMissingRequired})
	}
	if len(info.OrganizationType) == 0 {
		errs = append(errs, domain.FieldError{Field: "food.organization_type", Rule: domain.RuleMissingRequired})
	}
	errs = validateTags("food.food_type", info.FoodType, FoodTypes, errs)
	errs = validateTags("food.distribution_type", info.DistributionType, DistributionTypes, errs)
	errs = validateTags("food.organization_type", info.OrganizationType, OrganizationTypes, errs)
	return errs
}

func validateForage(info domain.ForageInfo) []domain.FieldError {
	var errs []domain.FieldError
	errs = validateTags("forage.forage_type", info.ForageType, ForageTypes, errs)
	errs = validateTags("forage.tags", info.Tags, ForageTags, errs)
	return errs
}

func validateBathroom(info domain.BathroomInfo) []domain.FieldError {
	var errs []domain.FieldError
	errs = validateTags("bathroom.tags", info.Tags, BathroomTags, errs)
	return errs
}
