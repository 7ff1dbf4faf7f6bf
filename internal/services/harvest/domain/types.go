// Package domain holds the records and ports of the proposition harvest
package domain

import (
	"time"

	"almgetl/internal/adapters/ingest/almg"
)

// RawProposition re-exports the upstream item shape consumed by the transformer
type RawProposition = almg.Item

// RawProcessing re-exports the upstream processing-history entry shape
type RawProcessing = almg.Tramitacao

const (
	// City is stamped on every proposition
	City = "Belo Horizonte"
	// State is stamped on every proposition
	State = "Minas Gerais"
)

// SentinelDate stands in for absent or unparseable dates
var SentinelDate = time.Date(1900, time.January, 1, 0, 0, 0, 0, time.UTC)

// Proposition is a legislative bill or motion as persisted
type Proposition struct {
	ID               int64
	Author           string
	PresentationDate time.Time
	Ementa           string
	Regime           string
	Situation        string
	PropositionType  string
	Number           string
	// Year is nil when upstream sends none
	Year *int
	City string
	// State is the federative unit, always "Minas Gerais"
	State       string
	Processings []ProcessingEntry
}

// Key returns the natural key of p
func (p Proposition) Key() NaturalKey {
	return NaturalKey{
		Author:           p.Author,
		PresentationDate: p.PresentationDate.UTC(),
		Ementa:           p.Ementa,
		PropositionType:  p.PropositionType,
		Number:           p.Number,
		Year:             p.Year,
	}
}

// ProcessingEntry is one step of a proposition's legislative history
type ProcessingEntry struct {
	CreatedAt   time.Time
	Description string
	Local       string
}

// Equal reports full field equality, the duplicate test for entries under one parent
func (e ProcessingEntry) Equal(o ProcessingEntry) bool {
	return e.CreatedAt.Equal(o.CreatedAt) && e.Description == o.Description && e.Local == o.Local
}

// NaturalKey identifies a proposition across runs
type NaturalKey struct {
	Author           string
	PresentationDate time.Time
	Ementa           string
	PropositionType  string
	Number           string
	Year             *int
}

// Equal compares keys treating two nil years as equal
func (k NaturalKey) Equal(o NaturalKey) bool {
	if (k.Year == nil) != (o.Year == nil) {
		return false
	}
	if k.Year != nil && *k.Year != *o.Year {
		return false
	}
	return k.Author == o.Author &&
		k.PresentationDate.Equal(o.PresentationDate) &&
		k.Ementa == o.Ementa &&
		k.PropositionType == o.PropositionType &&
		k.Number == o.Number
}

// UpsertResult counts what one batch did to the store
type UpsertResult struct {
	Inserted         int `json:"inserted"`
	Updated          int `json:"updated"`
	ProcessingsAdded int `json:"processings_added"`
}

// Persisted is Inserted + Updated
func (r UpsertResult) Persisted() int { return r.Inserted + r.Updated }

// Add accumulates o into r
func (r *UpsertResult) Add(o UpsertResult) {
	r.Inserted += o.Inserted
	r.Updated += o.Updated
	r.ProcessingsAdded += o.ProcessingsAdded
}

// RunSummary describes one harvest run
type RunSummary struct {
	RunID        string    `json:"run_id"`
	StartedAt    time.Time `json:"started_at"`
	FinishedAt   time.Time `json:"finished_at"`
	Pages        int       `json:"pages"`
	EmptyPages   int       `json:"empty_pages"`
	FetchFailed  int       `json:"fetch_failed"`
	Records      int       `json:"records"`
	Dropped      int       `json:"dropped"`
	FailedPages  int       `json:"failed_pages"`
	Cancelled    bool      `json:"cancelled"`
	UpsertResult `json:"upserts"`
}

// Elapsed is the wall time of the run
func (s RunSummary) Elapsed() time.Duration { return s.FinishedAt.Sub(s.StartedAt) }
