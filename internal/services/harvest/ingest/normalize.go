package ingest

import "almgetl/internal/services/harvest/domain"

// Normalizer wraps a core normalizer to satisfy domain.Normalizer
type normalizer struct {
	inner interface{ Normalize(string) string }
}

// NewNormalizer constructs a new Normalizer
func NewNormalizer(inner interface{ Normalize(string) string }) domain.Normalizer {
	return normalizer{inner: inner}
}

// Normalize normalizes the given string
func (n normalizer) Normalize(s string) string { return n.inner.Normalize(s) }

// NormalizeProposition runs n over every string field of p and its entries.
// Non-string fields pass through; p is not modified
func NormalizeProposition(n domain.Normalizer, p domain.Proposition) domain.Proposition {
	p.Author = n.Normalize(p.Author)
	p.Ementa = n.Normalize(p.Ementa)
	p.Regime = n.Normalize(p.Regime)
	p.Situation = n.Normalize(p.Situation)
	p.PropositionType = n.Normalize(p.PropositionType)
	p.Number = n.Normalize(p.Number)
	p.City = n.Normalize(p.City)
	p.State = n.Normalize(p.State)

	if len(p.Processings) > 0 {
		entries := make([]domain.ProcessingEntry, len(p.Processings))
		for i, e := range p.Processings {
			e.Description = n.Normalize(e.Description)
			e.Local = n.Normalize(e.Local)
			entries[i] = e
		}
		p.Processings = entries
	}
	return p
}
