package ingest

import (
	"context"
	"strings"
	"time"

	perr "almgetl/internal/platform/errors"
	"almgetl/internal/platform/logger"
	"almgetl/internal/services/harvest/domain"
)

// dateLayouts are tried in order against upstream date strings
var dateLayouts = []string{
	"2006-01-02",
	"2006-01-02T15:04:05",
	time.RFC3339,
	"2006-01-02 15:04:05",
	"20060102",
	"02/01/2006",
}

// ParseDate parses s with the known upstream layouts, truncated to the
// microsecond precision timestamptz stores.
// Empty or unparseable input yields domain.SentinelDate
func ParseDate(s string) time.Time {
	s = strings.TrimSpace(s)
	if s == "" {
		return domain.SentinelDate
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC().Truncate(time.Microsecond)
		}
	}
	return domain.SentinelDate
}

type transformer struct {
	norm domain.Normalizer
}

// NewTransformer constructs a domain.Transformer normalizing text with n
func NewTransformer(n domain.Normalizer) domain.Transformer {
	return &transformer{norm: n}
}

// Transform maps raws to propositions. Records failing validation are dropped and logged;
// an invalid processing entry is dropped without its parent
func (t *transformer) Transform(ctx context.Context, raws []domain.RawProposition) ([]domain.Proposition, int) {
	log := logger.C(ctx)
	out := make([]domain.Proposition, 0, len(raws))
	dropped := 0

	for i, raw := range raws {
		f, err := checkProposition(raw)
		if err != nil {
			dropped++
			log.Warn().
				Int("index", i).
				Str("field", perr.FieldOf(err)).
				Err(err).
				Msg("proposition failed validation; dropped")
			continue
		}

		p := domain.Proposition{
			Author:           f.Author,
			PresentationDate: ParseDate(f.Date),
			Ementa:           f.Ementa,
			Regime:           f.Regime,
			Situation:        f.Situation,
			PropositionType:  f.Type,
			Number:           f.Number,
			Year:             f.Year,
			City:             domain.City,
			State:            domain.State,
		}

		for j, rp := range f.Processings {
			pf, err := decodeProcessing(rp)
			if err != nil {
				dropped++
				log.Warn().
					Int("index", i).
					Int("processing", j).
					Str("field", perr.FieldOf(err)).
					Err(err).
					Msg("processing entry failed validation; dropped")
				continue
			}
			p.Processings = append(p.Processings, domain.ProcessingEntry{
				CreatedAt:   ParseDate(pf.Date),
				Description: pf.Description,
				Local:       pf.Local,
			})
		}

		p = NormalizeProposition(t.norm, p)
		// checked after normalization on purpose: a whitespace-only ementa
		// also falls back to assunto instead of persisting ""
		if p.Ementa == "" {
			p.Ementa = t.norm.Normalize(f.Assunto)
		}
		out = append(out, p)
	}
	return out, dropped
}
