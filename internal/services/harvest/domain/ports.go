package domain

import (
	"context"
)

// RunnerPort is the public port exposed by the module
type RunnerPort interface {
	Run(ctx context.Context) (RunSummary, error)
}

// StatusPort reports the most recent finished run
type StatusPort interface {
	LastRun() (RunSummary, bool)
	Running() bool
}

// Fetcher returns the raw items of one page.
// A page that failed every attempt yields (nil, err); callers treat it as empty
type Fetcher interface {
	Fetch(ctx context.Context, page int) ([]RawProposition, error)
}

// Transformer maps raw items to validated, normalized propositions; no I/O.
// dropped counts records and entries rejected by validation
type Transformer interface {
	Transform(ctx context.Context, raws []RawProposition) (props []Proposition, dropped int)
}

// Normalizer cleans a single string
type Normalizer interface {
	Normalize(s string) string
}

// Loader writes one batch of propositions in a single transaction
type Loader interface {
	Upsert(ctx context.Context, props []Proposition) (UpsertResult, error)
}

// StorageRepo is the storage repository interface bound to one transaction
type StorageRepo interface {
	// LockKey serializes writers on the same natural key until the transaction ends
	LockKey(ctx context.Context, k NaturalKey) error

	// FindByKey returns the id of the proposition with key k; ok=false when absent
	FindByKey(ctx context.Context, k NaturalKey) (id int64, ok bool, err error)

	// Insert stores p and returns its id
	Insert(ctx context.Context, p Proposition) (int64, error)

	// Update overwrites every field of row id with p
	Update(ctx context.Context, id int64, p Proposition) error

	// ListEntries returns the processing entries attached to proposition id
	ListEntries(ctx context.Context, id int64) ([]ProcessingEntry, error)

	// AppendEntry attaches e to proposition id
	AppendEntry(ctx context.Context, id int64, e ProcessingEntry) error
}
