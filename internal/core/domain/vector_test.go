package domain

import (
	"math"
	"testing"
)

func TestNormalizedUnitLength(t *testing.T) {
	v := SectionVector{3, 4}
	n := v.Normalized()
	if math.Abs(n.Norm()-1) > 1e-12 {
		t.Fatalf("expected unit norm, got %v", n.Norm())
	}
	if math.Abs(n[0]-0.6) > 1e-12 || math.Abs(n[1]-0.8) > 1e-12 {
		t.Fatalf("unexpected normalized vector %v", n)
	}
	if v[0] != 3 {
		t.Fatalf("Normalized must not mutate the receiver")
	}
}

func TestNormalizedZeroVectorStaysZero(t *testing.T) {
	v := SectionVector{0, 0, 0}
	n := v.Normalized()
	if !n.IsZero() || len(n) != 3 {
		t.Fatalf("expected zero vector unchanged, got %v", n)
	}
}

func TestL2DistanceDimensionMismatchRanksLast(t *testing.T) {
	if got := L2Distance(SectionVector{1, 0}, SectionVector{1}); got != math.MaxFloat64 {
		t.Fatalf("expected max distance on mismatch, got %v", got)
	}
}

func TestL2Distance(t *testing.T) {
	a := SectionVector{0, 0}
	b := SectionVector{3, 4}
	if got := L2Distance(a, b); math.Abs(got-5) > 1e-12 {
		t.Fatalf("L2Distance = %v, want 5", got)
	}
	if got := L2Distance(b, b); got != 0 {
		t.Fatalf("expected zero self distance, got %v", got)
	}
}

func TestCosineAgreesWithL2OnUnitVectors(t *testing.T) {
	a := SectionVector{1, 0}.Normalized()
	b := SectionVector{1, 1}.Normalized()
	c := SectionVector{0, 1}.Normalized()

	// Closer by L2 must be more similar by cosine.
	if L2Distance(a, b) >= L2Distance(a, c) {
		t.Fatalf("fixture vectors do not separate")
	}
	if CosineSimilarity(a, b) <= CosineSimilarity(a, c) {
		t.Fatalf("cosine ordering disagrees with L2 on unit vectors")
	}
}
