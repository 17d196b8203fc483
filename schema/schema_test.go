package schema

import (
	"testing"

	"github.com/phlask/resource-registry/internal/domain"
)

func validWaterEntry() domain.ResourceEntry {
	return domain.ResourceEntry{
		ResourceType: domain.ResourceWater,
		Status:       domain.StatusOperational,
		Latitude:     39.95,
		Longitude:    -75.16,
		Water: &domain.WaterInfo{
			DispenserType: []string{"DRINKING_FOUNTAIN"},
			Tags:          []string{},
		},
	}
}

func hasFieldError(errs []domain.FieldError, field string, rule domain.Rule) bool {
	for _, e := range errs {
		if e.Field == field && e.Rule == rule {
			return true
		}
	}
	return false
}

func TestValidateAcceptsValidWaterEntry(t *testing.T) {
	errs := Validate(validWaterEntry())
	if len(errs) != 0 {
		t.Fatalf("expected no errors, got %v", errs)
	}
}

func TestValidateRejectsUnknownDispenserType(t *testing.T) {
	entry := validWaterEntry()
	entry.Water.DispenserType = []string{"FIRE_HYDRANT"}

	errs := Validate(entry)
	if !hasFieldError(errs, "water.dispenser_type", domain.RuleNotInVocabulary) {
		t.Fatalf("expected not_in_vocabulary on water.dispenser_type, got %v", errs)
	}
}

func TestValidateRequiresFoodTagMinimums(t *testing.T) {
	entry := domain.ResourceEntry{
		ResourceType: domain.ResourceFood,
		Status:       domain.StatusOperational,
		Latitude:     39.95,
		Longitude:    -75.16,
		Food:         &domain.FoodInfo{},
	}

	errs := Validate(entry)
	for _, field := range []string{"food.food_type", "food.distribution_type", "food.organization_type"} {
		if !hasFieldError(errs, field, domain.RuleMissingRequired) {
			t.Fatalf("expected missing_required on %s, got %v", field, errs)
		}
	}
}

func TestValidateRejectsPayloadTypeMismatch(t *testing.T) {
	entry := validWaterEntry()
	entry.Food = &domain.FoodInfo{
		FoodType:         []string{"PREPARED"},
		DistributionType: []string{"PICKUP"},
		OrganizationType: []string{"NON_PROFIT"},
	}

	errs := Validate(entry)
	if !hasFieldError(errs, "food", domain.RuleTypeMismatch) {
		t.Fatalf("expected type_mismatch on food, got %v", errs)
	}
}

func TestValidateRequiresMatchingPayload(t *testing.T) {
	entry := validWaterEntry()
	entry.Water = nil

	errs := Validate(entry)
	if !hasFieldError(errs, "water", domain.RuleMissingRequired) {
		t.Fatalf("expected missing_required on water, got %v", errs)
	}
}

func TestValidateRejectsOutOfRangeCoordinates(t *testing.T) {
	entry := validWaterEntry()
	entry.Latitude = 120
	entry.Longitude = -200

	errs := Validate(entry)
	if !hasFieldError(errs, "latitude", domain.RuleTypeMismatch) {
		t.Fatalf("expected type_mismatch on latitude, got %v", errs)
	}
	if !hasFieldError(errs, "longitude", domain.RuleTypeMismatch) {
		t.Fatalf("expected type_mismatch on longitude, got %v", errs)
	}
}

func TestValidatePartialAcceptsStatusChange(t *testing.T) {
	errs := ValidatePartial(domain.ResourceWater, map[string]any{
		"status": "TEMPORARILY_CLOSED",
	})
	if len(errs) != 0 {
		t.Fatalf("expected no errors, got %v", errs)
	}
}

func TestValidatePartialRejectsUnknownStatus(t *testing.T) {
	errs := ValidatePartial(domain.ResourceWater, map[string]any{
		"status": "GONE",
	})
	if !hasFieldError(errs, "status", domain.RuleNotInVocabulary) {
		t.Fatalf("expected not_in_vocabulary on status, got %v", errs)
	}
}

func TestValidatePartialRejectsImmutableFields(t *testing.T) {
	errs := ValidatePartial(domain.ResourceWater, map[string]any{
		"resource_type": "FOOD",
		"creator":       "someone@example.org",
	})
	if !hasFieldError(errs, "resource_type", domain.RuleImmutable) {
		t.Fatalf("expected immutable on resource_type, got %v", errs)
	}
	if !hasFieldError(errs, "creator", domain.RuleImmutable) {
		t.Fatalf("expected immutable on creator, got %v", errs)
	}
}

func TestValidatePartialRejectsUnknownField(t *testing.T) {
	errs := ValidatePartial(domain.ResourceWater, map[string]any{
		"favorite_color": "blue",
	})
	if !hasFieldError(errs, "favorite_color", domain.RuleUnknownField) {
		t.Fatalf("expected unknown_field, got %v", errs)
	}
}

func TestValidatePartialRejectsWrongPayloadForType(t *testing.T) {
	errs := ValidatePartial(domain.ResourceWater, map[string]any{
		"food": map[string]any{"food_type": []any{"PREPARED"}},
	})
	if !hasFieldError(errs, "food", domain.RuleTypeMismatch) {
		t.Fatalf("expected type_mismatch on food, got %v", errs)
	}
}

func TestValidatePartialRejectsStrayPayloadKeys(t *testing.T) {
	errs := ValidatePartial(domain.ResourceWater, map[string]any{
		"water": map[string]any{
			"dispenser_type": []any{"SINK"},
			"tags":           []any{},
			"pressure":       "high",
		},
	})
	if !hasFieldError(errs, "water", domain.RuleTypeMismatch) {
		t.Fatalf("expected type_mismatch on water, got %v", errs)
	}
}

func TestValidatePartialChecksPayloadVocabulary(t *testing.T) {
	errs := ValidatePartial(domain.ResourceForage, map[string]any{
		"forage": map[string]any{
			"forage_type": []any{"PLASTIC"},
			"tags":        []any{},
		},
	})
	if !hasFieldError(errs, "forage.forage_type", domain.RuleNotInVocabulary) {
		t.Fatalf("expected not_in_vocabulary on forage.forage_type, got %v", errs)
	}
}

func TestValidatePartialIsTotalOnGarbage(t *testing.T) {
	// Must never panic, whatever shape the values have.
	errs := ValidatePartial(domain.ResourceBathroom, map[string]any{
		"status":     42,
		"latitude":   "north",
		"images":     []any{1, 2, 3},
		"source":     "scraped",
		"bathroom":   []any{"TAGS"},
		"entry_type": map[string]any{},
	})
	if len(errs) == 0 {
		t.Fatalf("expected errors for garbage input")
	}
}
