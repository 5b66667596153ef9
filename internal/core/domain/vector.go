package domain

import "math"

// SectionVector is a dense vector over the section coordinate system.
// Persisted vectors are either unit-norm or zero (uninitialized subject).
type SectionVector []float64

func (v SectionVector) Norm() float64 {
	var sum float64
	for _, c := range v {
		sum += c * c
	}
	return math.Sqrt(sum)
}

func (v SectionVector) IsZero() bool {
	for _, c := range v {
		if c != 0 {
			return false
		}
	}
	return true
}

// Normalized returns a unit-length copy, or an unchanged copy when the
// norm is zero.
func (v SectionVector) Normalized() SectionVector {
	out := make(SectionVector, len(v))
	norm := v.Norm()
	if norm == 0 {
		copy(out, v)
		return out
	}
	for i, c := range v {
		out[i] = c / norm
	}
	return out
}

// L2Distance is the Euclidean distance between two vectors of equal
// dimension. Mismatched dimensions rank last.
func L2Distance(a, b SectionVector) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return math.MaxFloat64
	}
	var sum float64
	for i := range a {
		d := a[i] - b[i]
		sum += d * d
	}
	return math.Sqrt(sum)
}

// CosineSimilarity of two vectors; 0 when either norm is zero. For
// unit-norm vectors 1-CosineSimilarity orders identically to L2Distance.
func CosineSimilarity(a, b SectionVector) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}
	var dot, na, nb float64
	for i := range a {
		dot += a[i] * b[i]
		na += a[i] * a[i]
		nb += b[i] * b[i]
	}
	if na == 0 || nb == 0 {
		return 0
	}
	return dot / (math.Sqrt(na) * math.Sqrt(nb))
}
