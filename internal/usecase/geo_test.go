package usecase

import (
	"math"
	"testing"
)

func TestHaversineZeroDistance(t *testing.T) {
	if d := HaversineMeters(39.95, -75.16, 39.95, -75.16); d != 0 {
		t.Fatalf("expected 0, got %f", d)
	}
}

func TestHaversineOneDegreeLatitude(t *testing.T) {
	// One degree of latitude is roughly 111.2 km everywhere.
	d := HaversineMeters(39, -75, 40, -75)
	if math.Abs(d-111195) > 200 {
		t.Fatalf("expected ~111195m, got %f", d)
	}
}

func TestHaversineKnownCityPair(t *testing.T) {
	// Philadelphia City Hall to Pittsburgh, about 414 km.
	d := HaversineMeters(39.9526, -75.1652, 40.4406, -79.9959)
	if d < 400000 || d > 430000 {
		t.Fatalf("expected ~414km, got %f", d)
	}
}
